package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/spherical/qr-pdf-preview/internal/domain"
	"github.com/spherical/qr-pdf-preview/internal/observability"
)

// FetcherConfig configures the fetcher.
type FetcherConfig struct {
	Timeout   time.Duration // zero means no client timeout
	MaxBytes  int64
	UserAgent string
	Client    *http.Client // optional, mainly for tests
}

func (c *FetcherConfig) defaults() {
	if c.MaxBytes <= 0 {
		c.MaxBytes = 100 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = "qr-pdf-preview/1.0"
	}
}

// Fetcher downloads a document and sniffs that it is a PDF.
type Fetcher struct {
	client *http.Client
	cfg    FetcherConfig
	log    *observability.Logger
}

var _ domain.PDFFetcher = (*Fetcher)(nil)

// NewFetcher creates a Fetcher.
func NewFetcher(cfg FetcherConfig, log *observability.Logger) *Fetcher {
	cfg.defaults()
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if log == nil {
		log = observability.Nop()
	}
	return &Fetcher{
		client: client,
		cfg:    cfg,
		log:    log.WithComponent("fetch"),
	}
}

// Fetch retrieves url, validates the result and reads the PDF version.
// The version is taken here because the extractor may keep the buffer.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*domain.PdfBytes, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.NetworkError("Invalid URL", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf, */*")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.log.Debug().Int("status", resp.StatusCode).Str("url", url).Msg("fetch rejected")
		return nil, domain.StatusError(resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBytes+1))
	if err != nil {
		return nil, transportError(err)
	}
	if int64(len(data)) > f.cfg.MaxBytes {
		return nil, domain.NetworkError(fmt.Sprintf("Document exceeds %d bytes", f.cfg.MaxBytes), nil)
	}

	contentType := resp.Header.Get("Content-Type")
	if err := Validate(data, contentType); err != nil {
		f.log.Debug().Str("content_type", contentType).Int("bytes", len(data)).Msg("not a pdf")
		return nil, err
	}

	doc := &domain.PdfBytes{
		URL:         url,
		Data:        data,
		ContentType: contentType,
		Version:     Version(data),
	}

	f.log.Info().
		Str("url", url).
		Int("bytes", len(data)).
		Str("content_type", contentType).
		Str("version", doc.Version).
		Dur("elapsed", time.Since(start)).
		Msg("pdf fetched")
	return doc, nil
}

func transportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return domain.TimeoutError("Request timed out", err)
	}
	return domain.NetworkError("Failed to fetch", err)
}
