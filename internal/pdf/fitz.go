package pdf

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// FitzParser parses documents with MuPDF through go-fitz.
type FitzParser struct{}

// NewFitzParser creates a MuPDF backed parser.
func NewFitzParser() *FitzParser {
	return &FitzParser{}
}

// Open loads the document from memory. MuPDF keeps a reference to data until
// the document is closed.
func (p *FitzParser) Open(data []byte) (Document, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &fitzDocument{doc: doc}, nil
}

type fitzDocument struct {
	doc *fitz.Document
}

func (d *fitzDocument) NumPages() int {
	return d.doc.NumPage()
}

// PageRuns returns the non-empty lines of MuPDF's page text.
func (d *fitzDocument) PageRuns(n int) ([]string, error) {
	// go-fitz numbers pages from zero
	text, err := d.doc.Text(n - 1)
	if err != nil {
		return nil, fmt.Errorf("page %d text: %w", n, err)
	}

	var runs []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			runs = append(runs, line)
		}
	}
	return runs, nil
}

func (d *fitzDocument) Close() error {
	if d.doc == nil {
		return nil
	}
	err := d.doc.Close()
	d.doc = nil
	return err
}
