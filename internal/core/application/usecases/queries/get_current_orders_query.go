package queries

import (
	"errors"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/guard"
)

var ErrGetCurrentOrdersQueryIsNotConstructed = errors.New(
	"GetCurrentOrdersQuery must be created via NewGetCurrentOrdersQuery constructor",
)

// GetCurrentOrdersQuery lists the orders still in flight for the viewer: a customer's own
// orders, the orders placed with a shop owner's shops, a courier's claimed deliveries, or
// every active order for an admin. Newest first.
type GetCurrentOrdersQuery struct {
	viewer order.Actor
	limit  int

	guard guard.ConstructorGuard
}

// NewGetCurrentOrdersQuery uses DefaultLimit when limit is not positive.
func NewGetCurrentOrdersQuery(viewer order.Actor, limit int) (GetCurrentOrdersQuery, error) {
	if err := viewer.Validate(); err != nil {
		return GetCurrentOrdersQuery{}, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return GetCurrentOrdersQuery{viewer: viewer, limit: limit, guard: guard.NewConstructorGuard()}, nil
}

func (q GetCurrentOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetCurrentOrdersQueryIsNotConstructed)
}

func (q GetCurrentOrdersQuery) Viewer() order.Actor { return q.viewer }
func (q GetCurrentOrdersQuery) Limit() int          { return q.limit }
