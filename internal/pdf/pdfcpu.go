package pdf

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disablePDFCPUConfig sync.Once

// PDFCPUParser parses documents with pdfcpu.
type PDFCPUParser struct{}

// NewPDFCPUParser creates a pdfcpu backed parser.
func NewPDFCPUParser() *PDFCPUParser {
	// pdfcpu otherwise creates a config dir under the user's home.
	disablePDFCPUConfig.Do(api.DisableConfigDir)
	return &PDFCPUParser{}
}

// Open reads and validates the document. Encrypted documents are rejected.
func (p *PDFCPUParser) Open(data []byte) (Document, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	return &pdfcpuDocument{ctx: ctx}, nil
}

type pdfcpuDocument struct {
	ctx *model.Context
}

func (d *pdfcpuDocument) NumPages() int {
	return d.ctx.PageCount
}

func (d *pdfcpuDocument) PageRuns(n int) ([]string, error) {
	r, err := pdfcpu.ExtractPageContent(d.ctx, n)
	if err != nil {
		return nil, fmt.Errorf("page %d content: %w", n, err)
	}
	if r == nil {
		// page without a content stream
		return nil, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("page %d read: %w", n, err)
	}
	return textRuns(data), nil
}

func (d *pdfcpuDocument) Close() error {
	d.ctx = nil
	return nil
}
