package bus

import (
	"context"
	"errors"
	"log/slog"

	"fulfillment/internal/core/domain/model/events"
	"fulfillment/internal/core/ports"

	"golang.org/x/sync/errgroup"
)

// Fanout hands every batch to all sinks concurrently and returns once each has finished,
// so a caller publishing under the per-ShopOrder lock keeps per-ShopOrder order in every sink.
type Fanout struct {
	sinks  []namedSink
	logger *slog.Logger
}

type namedSink struct {
	name string
	sink ports.EventPublisher
}

func NewFanout(logger *slog.Logger) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{logger: logger.With("component", "EventFanout")}
}

// Add registers a sink. Not safe to call once publishing has started.
func (f *Fanout) Add(name string, sink ports.EventPublisher) *Fanout {
	f.sinks = append(f.sinks, namedSink{name: name, sink: sink})
	return f
}

// Publish reports the failures of all sinks joined together. A failing sink does not stop
// the others.
func (f *Fanout) Publish(ctx context.Context, evts ...events.Event) error {
	if len(evts) == 0 {
		return nil
	}

	failures := make([]error, len(f.sinks))
	var g errgroup.Group
	for i, s := range f.sinks {
		g.Go(func() error {
			if err := s.sink.Publish(ctx, evts...); err != nil {
				f.logger.ErrorContext(ctx, "sink rejected events", "sink", s.name, "count", len(evts), "error", err)
				failures[i] = err
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(failures...)
}
