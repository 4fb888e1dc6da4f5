// Package scan drives a frame source and a QR decoder until a payload appears.
package scan

import (
	"context"
	"time"

	"github.com/spherical/qr-pdf-preview/internal/domain"
	"github.com/spherical/qr-pdf-preview/internal/observability"
)

// DefaultInterval is one attempt per 60 Hz display refresh.
const DefaultInterval = time.Second / 60

// Stats counts what the loop saw during one run.
type Stats struct {
	Ticks    int // attempts scheduled
	NotReady int // ticks with no frame available
	Decoded  int // frames handed to the decoder
}

// Loop runs one decode attempt per refresh tick.
type Loop struct {
	interval time.Duration
	log      *observability.Logger
	observers []func(Stats)
}

// NewLoop creates a scan loop with the given tick interval.
func NewLoop(interval time.Duration, log *observability.Logger) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = observability.Nop()
	}
	return &Loop{interval: interval, log: log.WithComponent("scan")}
}

// Observe adds fn to the observers that receive the run's counters each time Run
// returns. Observers are called in registration order. Observe must not be called
// while Run is in progress.
func (l *Loop) Observe(fn func(Stats)) {
	if fn != nil {
		l.observers = append(l.observers, fn)
	}
}

// Run pulls frames from source and decodes them until a payload is found or ctx is
// cancelled. The source is stopped before Run returns in both cases; source must
// already be started.
func (l *Loop) Run(ctx context.Context, source domain.FrameSource, decoder domain.QRDecoder) (domain.Payload, error) {
	defer source.Stop()

	var stats Stats
	start := time.Now()
	defer func() {
		for _, fn := range l.observers {
			fn(stats)
		}
	}()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			l.log.Debug().Int("ticks", stats.Ticks).Msg("scan cancelled")
			return "", err
		}
		stats.Ticks++

		if frame, ok := source.CurrentFrame(); ok {
			stats.Decoded++
			if res := decoder.Decode(frame); res.Found {
				l.log.Debug().
					Int("ticks", stats.Ticks).
					Int("frames", stats.Decoded).
					Int("not_ready", stats.NotReady).
					Dur("elapsed", time.Since(start)).
					Msg("qr decoded")
				return domain.Payload(res.Text), nil
			}
		} else {
			stats.NotReady++
		}

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
}
