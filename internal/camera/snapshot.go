package camera

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/spherical/qr-pdf-preview/internal/domain"
	"github.com/spherical/qr-pdf-preview/internal/observability"
)

const maxSnapshotBytes = 32 * 1024 * 1024

// SnapshotProvider polls HTTP snapshot endpoints, as exposed by most IP cameras.
type SnapshotProvider struct {
	urls     map[Facing]string
	interval time.Duration
	client   *http.Client
	log      *observability.Logger
}

// NewSnapshotProvider creates a provider from a facing → snapshot URL map.
func NewSnapshotProvider(urls map[string]string, interval time.Duration, log *observability.Logger) *SnapshotProvider {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	if log == nil {
		log = observability.Nop()
	}
	return &SnapshotProvider{
		urls:     toFacingMap(urls),
		interval: interval,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log.WithComponent("snapshot"),
	}
}

// Open probes the endpoint once and then keeps polling it in the background until
// the device is closed.
func (p *SnapshotProvider) Open(ctx context.Context, facing Facing) (Device, error) {
	got, url, ok := pickFacing(p.urls, facing)
	if !ok {
		return nil, domain.CameraError("Requested device not found", nil)
	}

	first, err := p.grab(ctx, url)
	if err != nil {
		return nil, err
	}

	pollCtx, cancel := context.WithCancel(context.Background())
	dev := &snapshotDevice{cancel: cancel}
	dev.store(first)

	dev.wg.Add(1)
	go func() {
		defer dev.wg.Done()
		p.poll(pollCtx, url, dev)
	}()

	p.log.Debug().Str("facing", string(got)).Str("url", url).Msg("snapshot camera opened")
	return dev, nil
}

func (p *SnapshotProvider) poll(ctx context.Context, url string, dev *snapshotDevice) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		img, err := p.grab(ctx, url)
		if err != nil {
			if ctx.Err() == nil {
				p.log.Debug().Err(err).Msg("snapshot failed")
			}
			continue
		}
		dev.store(img)
	}
}

func (p *SnapshotProvider) grab(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.CameraError("Requested device not found", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, domain.CameraError("Could not start video source", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, domain.CameraError("Permission denied", fmt.Errorf("HTTP %d", resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, domain.CameraError("Could not start video source", fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return nil, domain.CameraError("Could not decode video frame", err)
	}
	return img, nil
}

type snapshotDevice struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once

	mu       sync.Mutex
	latest   domain.Frame
	seq      uint64
	consumed uint64
}

func (d *snapshotDevice) store(img image.Image) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.latest = domain.Frame{Image: img, CapturedAt: time.Now()}
	d.seq++
}

func (d *snapshotDevice) Frame() (domain.Frame, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seq == 0 || d.seq == d.consumed {
		return domain.Frame{}, false
	}
	d.consumed = d.seq
	return d.latest, true
}

func (d *snapshotDevice) Close() error {
	d.once.Do(func() {
		d.cancel()
		d.wg.Wait()
		d.mu.Lock()
		d.latest = domain.Frame{}
		d.mu.Unlock()
	})
	return nil
}
