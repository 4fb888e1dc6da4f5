// Package preview is the embeddable entry point: fetch a PDF by URL and get its
// text, or decode a QR code from an image file.
package preview

import (
	"context"
	"time"

	"github.com/spherical/qr-pdf-preview/internal/config"
	"github.com/spherical/qr-pdf-preview/internal/domain"
	"github.com/spherical/qr-pdf-preview/internal/observability"
	"github.com/spherical/qr-pdf-preview/internal/pdf"
	"github.com/spherical/qr-pdf-preview/internal/pipeline"
	"github.com/spherical/qr-pdf-preview/internal/qr"
)

// Re-export error types for public API
type (
	Error     = domain.Error
	ErrorKind = domain.ErrorKind
)

// Error kind constants
const (
	ErrorKindCamera  = domain.ErrorKindCamera
	ErrorKindNetwork = domain.ErrorKindNetwork
	ErrorKindFormat  = domain.ErrorKindFormat
	ErrorKindParse   = domain.ErrorKindParse
	ErrorKindTimeout = domain.ErrorKindTimeout
)

// Result is the extracted text of one document.
type Result struct {
	URL         string
	ContentType string
	Version     string // PDF header version or "unknown"
	Text        string
	PageCount   int
}

// Chars is the character count of Text.
func (r *Result) Chars() int {
	return domain.ExtractedText{Text: r.Text}.Len()
}

// Preview returns Text cut to limit characters with a truncation marker.
func (r *Result) Preview(limit int) string {
	return pipeline.Preview(r.Text, limit)
}

// Config holds configuration options for the client
type Config struct {
	Backend   string        // ledongthuc (default), fitz or pdfcpu
	Timeout   time.Duration // zero means no timeout
	MaxBytes  int64
	UserAgent string
	TryHarder bool
}

// Client is the main entry point for the library
type Client struct {
	fetcher   *pdf.Fetcher
	extractor *pdf.Extractor
	decoder   *qr.Decoder
}

// NewClient creates a client from .env, environment and defaults.
func NewClient() (*Client, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, err
	}
	return NewClientWithConfig(&Config{
		Backend:   cfg.Extract.Backend,
		Timeout:   cfg.Fetch.Timeout,
		MaxBytes:  cfg.Fetch.MaxBytes,
		UserAgent: cfg.Fetch.UserAgent,
		TryHarder: cfg.Scan.TryHarder,
	})
}

// NewClientWithConfig creates a client with custom configuration
func NewClientWithConfig(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	parser, err := pdf.NewParser(cfg.Backend)
	if err != nil {
		return nil, err
	}
	log := observability.Nop()
	return &Client{
		fetcher: pdf.NewFetcher(pdf.FetcherConfig{
			Timeout:   cfg.Timeout,
			MaxBytes:  cfg.MaxBytes,
			UserAgent: cfg.UserAgent,
		}, log),
		extractor: pdf.NewExtractor(parser, log),
		decoder:   qr.NewDecoder(qr.Options{TryHarder: cfg.TryHarder}),
	}, nil
}

// ExtractURL fetches url, checks it is a PDF and extracts its text. url must be
// http or https.
func (c *Client) ExtractURL(ctx context.Context, url string) (*Result, error) {
	if domain.Classify(domain.Payload(url)) != domain.URLPayload {
		return nil, domain.NetworkError("Not an http(s) URL: "+url, nil)
	}

	doc, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	defer doc.Release()

	text, err := c.extractor.Extract(ctx, doc.Data, nil)
	if err != nil {
		return nil, err
	}
	return &Result{
		URL:         doc.URL,
		ContentType: doc.ContentType,
		Version:     doc.Version,
		Text:        text.Text,
		PageCount:   text.PageCount,
	}, nil
}

// ExtractBytes validates and extracts an in-memory document.
func (c *Client) ExtractBytes(ctx context.Context, data []byte, contentType string) (*Result, error) {
	if err := pdf.Validate(data, contentType); err != nil {
		return nil, err
	}
	text, err := c.extractor.Extract(ctx, data, nil)
	if err != nil {
		return nil, err
	}
	return &Result{
		ContentType: contentType,
		Version:     pdf.Version(data),
		Text:        text.Text,
		PageCount:   text.PageCount,
	}, nil
}

// DecodeImage decodes a QR code from an image file. found is false when the
// image holds no readable code.
func (c *Client) DecodeImage(path string) (payload string, found bool, err error) {
	res, err := c.decoder.DecodeFile(path)
	if err != nil {
		return "", false, err
	}
	return res.Text, res.Found, nil
}

// IsURL reports whether a decoded payload would be fetched.
func IsURL(payload string) bool {
	return domain.Classify(domain.Payload(payload)) == domain.URLPayload
}
