package session

import (
	"context"
	"time"
)

const (
	// TickInterval is the countdown period.
	TickInterval = time.Second

	// WarningAt is the remaining time, in seconds, at which the one-time
	// warning fires.
	WarningAt = 5 * 60

	eventBuffer = 16
)

// Ticker delivers countdown ticks. It is satisfied by a wrapped *time.Ticker
// and by manual fakes in tests.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker with the given period.
type TickerFunc func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker is the default TickerFunc backed by time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// run drives the countdown until the session leaves the in-progress state,
// ctx is cancelled, or the session is stopped. The ticker is released on
// every exit path and the events channel is closed last.
func (s *Session) run(ctx context.Context, t Ticker) {
	defer close(s.done)
	defer close(s.events)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Abandon()
			return
		case <-s.stop:
			return
		case <-t.C():
			ev, ok := s.tick()
			if !ok {
				return
			}
			if ev.Kind == EventTimedOut {
				t.Stop()
			}
			s.emit(ctx, ev)
			if ev.Kind == EventTimedOut {
				return
			}
		}
	}
}

// emit publishes ev. Plain ticks are dropped when the reader lags; warning
// and timeout events wait for the reader.
func (s *Session) emit(ctx context.Context, ev Event) {
	if ev.Kind == EventTick {
		select {
		case s.events <- ev:
		default:
		}
		return
	}
	select {
	case s.events <- ev:
	case <-s.stop:
	case <-ctx.Done():
	}
}

// tick advances the countdown by one second. It reports false when the
// session is no longer running.
func (s *Session) tick() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return Event{}, false
	}

	if s.remaining > 0 {
		s.remaining--
	}

	switch {
	case s.remaining == 0:
		s.state = StateTimedOut
		s.endedAt = s.now()
		s.log.Info().
			Str("attempt_id", s.id).
			Int("answered", len(s.answers)).
			Msg("session timed out")
		return Event{Kind: EventTimedOut}, true
	case s.remaining == WarningAt && !s.warned:
		s.warned = true
		return Event{Kind: EventWarning, Remaining: s.remaining}, true
	default:
		return Event{Kind: EventTick, Remaining: s.remaining}, true
	}
}

// stopCountdown signals the runner to exit. Safe to call repeatedly.
func (s *Session) stopCountdown() {
	s.stopOnce.Do(func() { close(s.stop) })
}
