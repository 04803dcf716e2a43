package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tbourn/go-booking-engine/internal/sysutil"
)

// Notifier reacts to one event. Returning an error only produces a log line.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev Event) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Dispatcher fans an event out to every notifier, each on its own goroutine
// with a context detached from the caller and bounded by Timeout.
type Dispatcher struct {
	Timeout   time.Duration
	notifiers []Notifier
	wg        sync.WaitGroup
}

// NewDispatcher returns a dispatcher for ns. A zero timeout means 15s.
func NewDispatcher(timeout time.Duration, ns ...Notifier) *Dispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{Timeout: timeout, notifiers: ns}
}

// Dispatch returns immediately. A nil dispatcher drops the event.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	if d == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	logger := sysutil.Logger(ctx).With().Str("event", string(ev.Kind)).Logger()
	base := context.WithoutCancel(ctx)

	for _, n := range d.notifiers {
		d.wg.Add(1)
		go func(n Notifier) {
			defer d.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.Error().Str("notifier", fmt.Sprintf("%T", n)).Interface("panic", r).Msg("notifier panicked")
				}
			}()
			c, cancel := context.WithTimeout(logger.WithContext(base), d.Timeout)
			defer cancel()
			if err := n.Notify(c, ev); err != nil {
				logger.Warn().Err(err).Str("notifier", fmt.Sprintf("%T", n)).Msg("notification failed")
			}
		}(n)
	}
}

// Wait blocks until every dispatched notification finished. Used on shutdown
// and in tests.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
