// Package pdf fetches PDF documents and extracts their text.
//
// Parsing is delegated to a Parser backend:
//   - ledongthuc  pure Go, one run per text row, decoded through each font's
//     ToUnicode CMap or simple encoding (default)
//   - fitz        MuPDF via go-fitz, one run per line of page text
//   - pdfcpu      pure Go, text runs from content-stream show-text operators;
//     string bytes are read as WinAnsi, so composite (Type0) fonts come out wrong
//
// Neither pure Go backend follows form XObjects, so text drawn through a
// "/Name Do" operator is missing from their output. fitz renders it.
package pdf

import (
	"fmt"

	"github.com/spherical/qr-pdf-preview/internal/config"
)

// Parser opens raw PDF bytes as a document.
type Parser interface {
	Open(data []byte) (Document, error)
}

// Document is an opened PDF.
type Document interface {
	NumPages() int
	// PageRuns returns the text runs of page n (1-based) in content order.
	PageRuns(n int) ([]string, error)
	Close() error
}

// NewParser returns the parser for a configured backend name.
func NewParser(backend string) (Parser, error) {
	switch backend {
	case config.BackendLedongthuc, "":
		return NewLedongthucParser(), nil
	case config.BackendPDFCPU:
		return NewPDFCPUParser(), nil
	case config.BackendFitz:
		return NewFitzParser(), nil
	default:
		return nil, fmt.Errorf("unknown pdf backend %q", backend)
	}
}
