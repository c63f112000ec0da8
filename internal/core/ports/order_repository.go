// Package ports defines the contracts between the fulfillment core and its
// infrastructure: repositories, the unit of work, reference data lookups, the geocoder
// and the event publisher.
package ports

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// OrderFilter selects orders for the "current orders" views. Nil fields do not filter.
// An order matches when any of its ShopOrders matches every set field.
type OrderFilter struct {
	CustomerID  *kernel.UUID
	ShopOwnerID *kernel.UUID
	CourierID   *kernel.UUID
	Statuses    []order.Status
	Limit       int
}

// DeliveredFilter selects delivered ShopOrders by who earned them and when.
// Zero From/To leave that side of the range open; To is exclusive.
type DeliveredFilter struct {
	CourierID *kernel.UUID
	ShopID    *kernel.UUID
	From      time.Time
	To        time.Time
}

// OrderRepository persists Order aggregates. ShopOrders are never written through Add
// after checkout; each mutation has its own guarded method so that concurrent writers
// on different ShopOrders of one Order never overwrite each other.
type OrderRepository interface {
	// Add persists a new order with all its ShopOrders.
	Add(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order with all its ShopOrders.
	// Returns errs.ObjectNotFoundError when the order does not exist.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetByShopOrder retrieves the order owning shopOrderID.
	GetByShopOrder(ctx context.Context, shopOrderID kernel.UUID) (*order.Order, error)

	// UpdateShopOrder writes status, cancel reason, delivery code, paid and reviewed flags
	// and delivery time of so. The write is conditional on the version so was loaded with;
	// a mismatch returns errs.VersionIsInvalidError. On success so.MarkPersisted is called.
	UpdateShopOrder(ctx context.Context, so *order.ShopOrder) error

	// ClaimShopOrder is the compare-and-swap behind the exclusive claim: it assigns
	// courierID only if the ShopOrder is out of delivery and unassigned, in a single
	// conditional write. Any other state returns order.ClaimConflictError.
	ClaimShopOrder(ctx context.Context, so *order.ShopOrder) error

	// UpdatePayment writes the paid flag of the order and its ShopOrders.
	UpdatePayment(ctx context.Context, aggregate *order.Order) error

	// List returns orders matching filter, newest first.
	List(ctx context.Context, filter OrderFilter) ([]*order.Order, error)

	// ListAwaitingCourier returns every order with at least one ShopOrder out of delivery
	// and unassigned. It is the source the availability board is rebuilt from.
	ListAwaitingCourier(ctx context.Context) ([]*order.Order, error)

	// ListDelivered returns delivered ShopOrders matching filter, oldest delivery first.
	ListDelivered(ctx context.Context, filter DeliveredFilter) ([]*order.ShopOrder, error)
}
