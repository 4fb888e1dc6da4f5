package camera

import (
	"fmt"

	"github.com/spherical/qr-pdf-preview/internal/config"
	"github.com/spherical/qr-pdf-preview/internal/observability"
)

// NewProvider builds the provider selected by cfg.Driver.
func NewProvider(cfg config.CameraConfig, log *observability.Logger) (Provider, error) {
	switch cfg.Driver {
	case config.DriverDir:
		return NewDirProvider(cfg.Dirs), nil
	case config.DriverSnapshot:
		return NewSnapshotProvider(cfg.SnapshotURLs, cfg.PollInterval, log), nil
	default:
		return nil, fmt.Errorf("unknown camera driver %q", cfg.Driver)
	}
}
