package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/courier"
	"fulfillment/internal/core/domain/model/kernel"
)

// CourierRepository persists Courier aggregates.
type CourierRepository interface {
	// Add persists a new courier.
	Add(ctx context.Context, aggregate *courier.Courier) error

	// Get retrieves a courier by identifier.
	// Returns errs.ObjectNotFoundError when the courier does not exist.
	Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error)

	// UpdateLocation writes the last reported position.
	UpdateLocation(ctx context.Context, aggregate *courier.Courier) error

	// TakeDelivery records aggregate's active delivery only if the stored courier holds
	// none, in a single conditional write. Returns courier.ErrCourierBusy otherwise.
	TakeDelivery(ctx context.Context, aggregate *courier.Courier, shopOrderID kernel.UUID) error

	// CompleteDelivery clears the active delivery if it is shopOrderID.
	CompleteDelivery(ctx context.Context, aggregate *courier.Courier, shopOrderID kernel.UUID) error

	// ListIdle returns couriers of city without an active delivery.
	ListIdle(ctx context.Context, city string) ([]*courier.Courier, error)
}
