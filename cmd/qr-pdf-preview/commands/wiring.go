package commands

import (
	"github.com/spherical/qr-pdf-preview/internal/camera"
	"github.com/spherical/qr-pdf-preview/internal/config"
	"github.com/spherical/qr-pdf-preview/internal/observability"
	"github.com/spherical/qr-pdf-preview/internal/pdf"
	"github.com/spherical/qr-pdf-preview/internal/pipeline"
	"github.com/spherical/qr-pdf-preview/internal/qr"
	"github.com/spherical/qr-pdf-preview/internal/scan"
)

func newFetcher(cfg *config.Config, log *observability.Logger) *pdf.Fetcher {
	return pdf.NewFetcher(pdf.FetcherConfig{
		Timeout:   cfg.Fetch.Timeout,
		MaxBytes:  cfg.Fetch.MaxBytes,
		UserAgent: cfg.Fetch.UserAgent,
	}, log)
}

func newExtractor(cfg *config.Config, log *observability.Logger) (*pdf.Extractor, error) {
	parser, err := pdf.NewParser(cfg.Extract.Backend)
	if err != nil {
		return nil, err
	}
	return pdf.NewExtractor(parser, log), nil
}

func newController(cfg *config.Config, log *observability.Logger) (*pipeline.Controller, error) {
	provider, err := camera.NewProvider(cfg.Camera, log)
	if err != nil {
		return nil, err
	}
	extractor, err := newExtractor(cfg, log)
	if err != nil {
		return nil, err
	}

	return pipeline.NewController(pipeline.Deps{
		Source:    camera.NewSource(provider, camera.Facing(cfg.Camera.Facing), log),
		Decoder:   qr.NewDecoder(qr.Options{TryHarder: cfg.Scan.TryHarder}),
		Fetcher:   newFetcher(cfg, log),
		Extractor: extractor,
		Loop:      scan.NewLoop(cfg.RefreshInterval(), log),
	}, log), nil
}
