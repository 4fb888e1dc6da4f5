package pdf

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spherical/qr-pdf-preview/internal/domain"
	"github.com/spherical/qr-pdf-preview/internal/observability"
)

const (
	runSeparator  = " "
	pageSeparator = "\n"
)

// Extractor turns PDF bytes into page-ordered text.
type Extractor struct {
	parser Parser
	log    *observability.Logger
}

var _ domain.TextExtractor = (*Extractor)(nil)

// NewExtractor creates an extractor over the given parser.
func NewExtractor(parser Parser, log *observability.Logger) *Extractor {
	if log == nil {
		log = observability.Nop()
	}
	return &Extractor{parser: parser, log: log.WithComponent("extract")}
}

// Extract opens the document and reads pages 1..N one at a time. Each page's runs
// are joined with a space and pages are joined with a newline.
func (e *Extractor) Extract(ctx context.Context, data []byte, progress domain.PageProgress) (domain.ExtractedText, error) {
	start := time.Now()

	doc, err := e.open(data)
	if err != nil {
		return domain.ExtractedText{}, domain.ParseError("Failed to open PDF", err)
	}
	defer doc.Close()

	total := doc.NumPages()
	e.log.Debug().Int("pages", total).Msg("document opened")

	pages := make([]string, 0, total)
	for n := 1; n <= total; n++ {
		if err := ctx.Err(); err != nil {
			return domain.ExtractedText{}, err
		}

		runs, err := e.pageRuns(doc, n)
		if err != nil {
			return domain.ExtractedText{}, domain.ParseError(fmt.Sprintf("Failed to read page %d", n), err)
		}
		pages = append(pages, strings.Join(runs, runSeparator))

		if progress != nil {
			progress(n, total)
		}
	}

	text := domain.ExtractedText{
		Text:      strings.Join(pages, pageSeparator),
		PageCount: total,
	}
	e.log.Info().
		Int("pages", total).
		Int("chars", text.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("text extracted")
	return text, nil
}

func (e *Extractor) open(data []byte) (doc Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("parser panic: %v", r)
		}
	}()
	return e.parser.Open(data)
}

func (e *Extractor) pageRuns(doc Document, n int) (runs []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			runs, err = nil, fmt.Errorf("page %d: %v", n, r)
		}
	}()
	return doc.PageRuns(n)
}
