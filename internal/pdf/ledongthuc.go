package pdf

import (
	"bytes"
	"fmt"
	"strings"

	lpdf "github.com/ledongthuc/pdf"
)

// LedongthucParser parses documents with github.com/ledongthuc/pdf.
type LedongthucParser struct{}

// NewLedongthucParser creates a ledongthuc/pdf backed parser.
func NewLedongthucParser() *LedongthucParser {
	return &LedongthucParser{}
}

func (p *LedongthucParser) Open(data []byte) (doc Document, err error) {
	// the reader panics on some malformed trailers
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("open pdf: %v", r)
		}
	}()

	r, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &ledongthucDocument{r: r}, nil
}

type ledongthucDocument struct {
	r *lpdf.Reader
}

func (d *ledongthucDocument) NumPages() int {
	return d.r.NumPage()
}

// PageRuns returns one run per text row, top to bottom.
func (d *ledongthucDocument) PageRuns(n int) (runs []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			runs, err = nil, fmt.Errorf("page %d: %v", n, r)
		}
	}()

	page := d.r.Page(n)
	if page.V.IsNull() {
		return nil, fmt.Errorf("page %d: missing page object", n)
	}

	rows, err := page.GetTextByRow()
	if err != nil {
		return nil, fmt.Errorf("page %d text: %w", n, err)
	}

	for _, row := range rows {
		var sb strings.Builder
		for _, t := range row.Content {
			sb.WriteString(t.S)
		}
		if s := strings.TrimSpace(sb.String()); s != "" {
			runs = append(runs, s)
		}
	}
	return runs, nil
}

func (d *ledongthucDocument) Close() error {
	d.r = nil
	return nil
}
