package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/spherical/qr-pdf-preview/internal/domain"
	"github.com/spherical/qr-pdf-preview/internal/observability"
	"github.com/spherical/qr-pdf-preview/internal/scan"
)

// Deps are the collaborators of a Controller.
type Deps struct {
	Source    domain.FrameSource
	Decoder   domain.QRDecoder
	Fetcher   domain.PDFFetcher
	Extractor domain.TextExtractor
	// Loop is optional and defaults to a 60 Hz loop. NewController adds an
	// observer to it; observers registered by the caller are kept.
	Loop *scan.Loop
}

// Controller runs scan attempts one at a time.
type Controller struct {
	deps Deps
	log  *observability.Logger

	running atomic.Bool

	mu    sync.RWMutex
	state State
}

// NewController creates a controller in the Idle phase.
func NewController(deps Deps, log *observability.Logger) *Controller {
	if log == nil {
		log = observability.Nop()
	}
	if deps.Loop == nil {
		deps.Loop = scan.NewLoop(scan.DefaultInterval, log)
	}
	c := &Controller{
		deps:  deps,
		log:   log.WithComponent("pipeline"),
		state: State{Phase: Idle, UpdatedAt: time.Now()},
	}
	deps.Loop.Observe(func(s scan.Stats) {
		c.log.Debug().
			Str("scan_id", c.State().ScanID).
			Int("ticks", s.Ticks).
			Int("frames", s.Decoded).
			Int("not_ready", s.NotReady).
			Msg("scan loop finished")
	})
	return c
}

// State returns the latest state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Run performs one attempt and returns its final state: Success, Failed, or
// Idle when ctx was cancelled. The camera is released on every path. Events are
// sent without blocking and dropped when the channel is full. A call made while
// another attempt is running returns the current state untouched.
func (c *Controller) Run(ctx context.Context, events chan<- Event) State {
	if !c.running.CompareAndSwap(false, true) {
		c.log.Warn().Msg("attempt already in progress")
		return c.State()
	}
	defer c.running.Store(false)

	id := uuid.NewString()
	log := c.log.WithScan(id)
	start := time.Now()

	c.reset(id)
	c.transition(events, CameraActive, nil)

	if err := c.deps.Source.Start(ctx); err != nil {
		c.deps.Source.Stop()
		if ctx.Err() != nil {
			return c.cancel(events, log)
		}
		return c.fail(events, log, err, domain.ErrorKindCamera)
	}
	c.transition(events, AwaitingDecode, nil)

	payload, err := c.deps.Loop.Run(ctx, c.deps.Source, c.deps.Decoder)
	if err != nil {
		// the loop only ends early on cancellation
		return c.cancel(events, log)
	}
	log.Info().Str("kind", domain.Classify(payload).String()).Msg("qr decoded")

	if domain.Classify(payload) == domain.OpaquePayload {
		return c.transition(events, Success, func(s *State) {
			s.Payload = payload
			s.Text = string(payload)
		})
	}

	url := string(payload)
	c.transition(events, Fetching, func(s *State) {
		s.Payload = payload
		s.URL = url
	})

	doc, err := c.deps.Fetcher.Fetch(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return c.cancel(events, log)
		}
		return c.fail(events, log, err, domain.ErrorKindNetwork)
	}
	version := doc.Version

	c.transition(events, Parsing, func(s *State) {
		s.Version = version
	})

	text, err := c.deps.Extractor.Extract(ctx, doc.Data, func(page, total int) {
		c.emit(events, Event{
			Type:       EventPage,
			State:      c.State(),
			Page:       page,
			TotalPages: total,
			Timestamp:  time.Now(),
		})
	})
	doc.Release()
	if err != nil {
		if ctx.Err() != nil {
			return c.cancel(events, log)
		}
		return c.fail(events, log, err, domain.ErrorKindParse)
	}

	log.Info().
		Str("url", url).
		Str("version", version).
		Int("pages", text.PageCount).
		Int("chars", text.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("attempt complete")

	return c.transition(events, Success, func(s *State) {
		s.Text = text.Text
		s.PageCount = text.PageCount
	})
}

func (c *Controller) reset(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Success and Failed both lead back to Idle before a new attempt.
	c.state = State{Phase: Idle, ScanID: id, UpdatedAt: time.Now()}
}

// transition moves to phase, applying mutate to the new state, and emits it.
func (c *Controller) transition(events chan<- Event, phase Phase, mutate func(*State)) State {
	c.mu.Lock()
	from := c.state.Phase
	if !CanTransition(from, phase) {
		c.mu.Unlock()
		c.log.Error().Stringer("from", from).Stringer("to", phase).Msg("illegal phase transition")
		return c.State()
	}
	next := c.state
	next.Phase = phase
	next.UpdatedAt = time.Now()
	if mutate != nil {
		mutate(&next)
	}
	c.state = next
	c.mu.Unlock()

	c.log.Debug().Stringer("from", from).Stringer("to", phase).Str("scan_id", next.ScanID).Msg("phase")
	c.emit(events, Event{Type: EventPhase, State: next, Timestamp: next.UpdatedAt})
	return next
}

func (c *Controller) fail(events chan<- Event, log *observability.Logger, err error, fallback domain.ErrorKind) State {
	e, ok := domain.AsError(err)
	if !ok {
		e = domain.NewError(fallback, err.Error(), err)
	}
	log.Error().Err(err).Str("kind", string(e.Kind)).Msg(e.Message)
	return c.transition(events, Failed, func(s *State) {
		s.Err = e
	})
}

func (c *Controller) cancel(events chan<- Event, log *observability.Logger) State {
	log.Info().Msg("attempt cancelled")
	c.mu.Lock()
	c.state = State{Phase: Idle, ScanID: c.state.ScanID, UpdatedAt: time.Now()}
	st := c.state
	c.mu.Unlock()
	c.emit(events, Event{Type: EventCancelled, State: st, Timestamp: st.UpdatedAt})
	return st
}

// emit safely emits an event to the channel
func (c *Controller) emit(events chan<- Event, ev Event) {
	if events == nil {
		return
	}
	select {
	case events <- ev:
	default:
		c.log.Warn().Str("type", string(ev.Type)).Msg("event channel full, dropping event")
	}
}

