package queries

import (
	"errors"
	"time"

	"fulfillment/internal/core/application/revenue"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrGetDeliveredOrdersQueryIsNotConstructed = errors.New(
	"GetDeliveredOrdersQuery must be created via NewGetDeliveredOrdersQuery constructor",
)

// GetDeliveredOrdersQuery is a courier's delivery history over an inclusive range of
// days. Admins see every courier's deliveries.
type GetDeliveredOrdersQuery struct {
	viewer order.Actor
	days   revenue.DateRange

	guard guard.ConstructorGuard
}

func NewGetDeliveredOrdersQuery(viewer order.Actor, days revenue.DateRange) (GetDeliveredOrdersQuery, error) {
	if err := viewer.Validate(); err != nil {
		return GetDeliveredOrdersQuery{}, err
	}
	if viewer.Role() != order.RoleCourier && viewer.Role() != order.RoleAdmin {
		return GetDeliveredOrdersQuery{}, order.NewForbiddenError(viewer.Role(), "list delivered orders")
	}
	if !days.From.IsZero() && !days.To.IsZero() && days.To.Before(days.From) {
		return GetDeliveredOrdersQuery{}, errs.NewValueIsInvalidError("date range")
	}
	return GetDeliveredOrdersQuery{viewer: viewer, days: days, guard: guard.NewConstructorGuard()}, nil
}

func (q GetDeliveredOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetDeliveredOrdersQueryIsNotConstructed)
}

func (q GetDeliveredOrdersQuery) Viewer() order.Actor     { return q.viewer }
func (q GetDeliveredOrdersQuery) Days() revenue.DateRange { return q.days }

// startOfDay returns midnight of t's calendar day in t's location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
