package membership

import (
	"context"
	"sync"
	"time"

	"mergington-activities/internal/common/logger"
	"mergington-activities/internal/common/metrics"
)

// Sink receives committed membership events.
type Sink interface {
	Name() string
	Handle(ctx context.Context, evt Event) error
}

// Dispatcher delivers each event to every sink. Delivery is best-effort:
// a failing sink is logged and counted, and never affects the others or the
// caller.
type Dispatcher struct {
	sinks   []Sink
	logger  logger.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(log logger.Logger, timeout time.Duration, sinks ...Sink) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{sinks: sinks, logger: log, timeout: timeout}
}

// Add registers another sink. Not safe to call once dispatching has started.
func (d *Dispatcher) Add(s Sink) {
	d.sinks = append(d.sinks, s)
}

func (d *Dispatcher) Sinks() []string {
	names := make([]string, 0, len(d.sinks))
	for _, s := range d.sinks {
		names = append(names, s.Name())
	}
	return names
}

// Dispatch hands evt to every sink in the background and returns at once.
// The request context is not used so delivery survives the response.
func (d *Dispatcher) Dispatch(evt Event) {
	if d == nil || len(d.sinks) == 0 {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		d.Deliver(ctx, evt)
	}()
}

// Deliver runs every sink synchronously and returns the number that failed.
func (d *Dispatcher) Deliver(ctx context.Context, evt Event) int {
	failed := 0
	for _, s := range d.sinks {
		if err := s.Handle(ctx, evt); err != nil {
			failed++
			metrics.HookFailuresTotal.WithLabelValues(s.Name()).Inc()
			d.logger.Error("membership hook failed", map[string]interface{}{
				"hook":     s.Name(),
				"eventId":  evt.ID,
				"type":     string(evt.Type),
				"activity": evt.Activity,
				"error":    err,
			})
			continue
		}
		d.logger.Debug("membership hook delivered", map[string]interface{}{
			"hook":    s.Name(),
			"eventId": evt.ID,
		})
	}
	return failed
}

// Wait blocks until background deliveries finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
