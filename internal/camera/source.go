// Package camera provides frame sources for the QR scan loop.
//
// A Provider stands in for the host's camera capability: it opens a Device for a
// requested facing mode. Source adapts a Provider to domain.FrameSource and owns the
// single device handle between Start and Stop.
package camera

import (
	"context"
	"sort"
	"sync"

	"github.com/spherical/qr-pdf-preview/internal/domain"
	"github.com/spherical/qr-pdf-preview/internal/observability"
)

// Facing is the direction a camera points.
type Facing string

const (
	FacingEnvironment Facing = "environment"
	FacingUser        Facing = "user"
)

// Device is an opened camera.
type Device interface {
	// Frame returns the newest frame not yet handed out, if the device has one.
	Frame() (domain.Frame, bool)
	Close() error
}

// Provider opens camera devices.
type Provider interface {
	Open(ctx context.Context, facing Facing) (Device, error)
}

// Source implements domain.FrameSource on top of a Provider.
type Source struct {
	provider Provider
	facing   Facing
	log      *observability.Logger

	mu  sync.Mutex
	dev Device
}

var _ domain.FrameSource = (*Source)(nil)

// NewSource creates a frame source that prefers the given facing mode.
func NewSource(provider Provider, facing Facing, log *observability.Logger) *Source {
	if facing == "" {
		facing = FacingEnvironment
	}
	if log == nil {
		log = observability.Nop()
	}
	return &Source{
		provider: provider,
		facing:   facing,
		log:      log.WithComponent("camera"),
	}
}

// Start opens the camera. A source holds at most one device.
func (s *Source) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev != nil {
		return domain.CameraError("Camera already active", nil)
	}

	dev, err := s.provider.Open(ctx, s.facing)
	if err != nil {
		if _, ok := domain.AsError(err); ok {
			return err
		}
		return domain.CameraError(err.Error(), err)
	}

	s.dev = dev
	s.log.Debug().Str("facing", string(s.facing)).Msg("camera started")
	return nil
}

// CurrentFrame returns the latest frame, or false when none is ready yet.
func (s *Source) CurrentFrame() (domain.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev == nil {
		return domain.Frame{}, false
	}
	return s.dev.Frame()
}

// Stop releases the camera. It is a no-op when nothing is held.
func (s *Source) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev == nil {
		return
	}
	if err := s.dev.Close(); err != nil {
		s.log.Warn().Err(err).Msg("camera close failed")
	}
	s.dev = nil
	s.log.Debug().Msg("camera stopped")
}

// Active reports whether a device is currently held.
func (s *Source) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dev != nil
}

// pickFacing returns the configured entry for want, else the first other one in
// name order. ok is false when nothing is configured.
func pickFacing(entries map[Facing]string, want Facing) (Facing, string, bool) {
	if v, ok := entries[want]; ok && v != "" {
		return want, v, true
	}

	keys := make([]string, 0, len(entries))
	for k, v := range entries {
		if v != "" {
			keys = append(keys, string(k))
		}
	}
	if len(keys) == 0 {
		return "", "", false
	}
	sort.Strings(keys)
	return Facing(keys[0]), entries[Facing(keys[0])], true
}

func toFacingMap(in map[string]string) map[Facing]string {
	out := make(map[Facing]string, len(in))
	for k, v := range in {
		out[Facing(k)] = v
	}
	return out
}
