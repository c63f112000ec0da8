package ports

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/events"
)

// EventPublisher hands events to the notification transport. Events with the same key
// must reach subscribers in the order they were passed in.
type EventPublisher interface {
	Publish(ctx context.Context, evts ...events.Event) error
}

// Clock is the time source of the application layer.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)
