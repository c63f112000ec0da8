package queries

import (
	"errors"

	"fulfillment/internal/core/application/revenue"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrGetCourierRevenueQueryIsNotConstructed = errors.New(
		"GetCourierRevenueQuery must be created via NewGetCourierRevenueQuery constructor",
	)
	ErrGetShopRevenueQueryIsNotConstructed = errors.New(
		"GetShopRevenueQuery must be created via NewGetShopRevenueQuery constructor",
	)
	ErrGetRevenueSummaryQueryIsNotConstructed = errors.New(
		"GetRevenueSummaryQuery must be created via NewGetRevenueSummaryQuery constructor",
	)
)

// GetCourierRevenueQuery reads a courier's earnings. Couriers read their own; admins
// read anyone's. A nil range skips the range figures.
type GetCourierRevenueQuery struct {
	courierID kernel.UUID
	days      *revenue.DateRange

	guard guard.ConstructorGuard
}

func NewGetCourierRevenueQuery(
	viewer order.Actor,
	courierID kernel.UUID,
	days *revenue.DateRange,
) (GetCourierRevenueQuery, error) {
	if err := errors.Join(viewer.Validate(), courierID.Validate(), validateRange(days)); err != nil {
		return GetCourierRevenueQuery{}, err
	}
	if viewer.Role() != order.RoleAdmin && !viewer.Is(order.RoleCourier, courierID) {
		return GetCourierRevenueQuery{}, order.NewForbiddenError(viewer.Role(), "read another courier's earnings")
	}
	return GetCourierRevenueQuery{courierID: courierID, days: days, guard: guard.NewConstructorGuard()}, nil
}

func (q GetCourierRevenueQuery) Validate() error {
	return q.guard.Validate(ErrGetCourierRevenueQueryIsNotConstructed)
}

func (q GetCourierRevenueQuery) CourierID() kernel.UUID   { return q.courierID }
func (q GetCourierRevenueQuery) Days() *revenue.DateRange { return q.days }

// GetShopRevenueQuery reads what a shop took in. Ownership of the shop is checked by the
// handler against the catalog.
type GetShopRevenueQuery struct {
	viewer order.Actor
	shopID kernel.UUID
	days   *revenue.DateRange

	guard guard.ConstructorGuard
}

func NewGetShopRevenueQuery(
	viewer order.Actor,
	shopID kernel.UUID,
	days *revenue.DateRange,
) (GetShopRevenueQuery, error) {
	if err := errors.Join(viewer.Validate(), shopID.Validate(), validateRange(days)); err != nil {
		return GetShopRevenueQuery{}, err
	}
	if viewer.Role() != order.RoleAdmin && viewer.Role() != order.RoleShopOwner {
		return GetShopRevenueQuery{}, order.NewForbiddenError(viewer.Role(), "read shop revenue")
	}
	return GetShopRevenueQuery{viewer: viewer, shopID: shopID, days: days, guard: guard.NewConstructorGuard()}, nil
}

func (q GetShopRevenueQuery) Validate() error {
	return q.guard.Validate(ErrGetShopRevenueQueryIsNotConstructed)
}

func (q GetShopRevenueQuery) Viewer() order.Actor      { return q.viewer }
func (q GetShopRevenueQuery) ShopID() kernel.UUID      { return q.shopID }
func (q GetShopRevenueQuery) Days() *revenue.DateRange { return q.days }

// GetRevenueSummaryQuery is the admin dashboard: overall windows and top sellers.
type GetRevenueSummaryQuery struct {
	topItems int

	guard guard.ConstructorGuard
}

// NewGetRevenueSummaryQuery uses revenue.DefaultTopItems when topItems is not positive.
func NewGetRevenueSummaryQuery(viewer order.Actor, topItems int) (GetRevenueSummaryQuery, error) {
	if err := viewer.Validate(); err != nil {
		return GetRevenueSummaryQuery{}, err
	}
	if viewer.Role() != order.RoleAdmin {
		return GetRevenueSummaryQuery{}, order.NewForbiddenError(viewer.Role(), "read the revenue summary")
	}
	if topItems <= 0 {
		topItems = revenue.DefaultTopItems
	}
	return GetRevenueSummaryQuery{topItems: topItems, guard: guard.NewConstructorGuard()}, nil
}

func (q GetRevenueSummaryQuery) Validate() error {
	return q.guard.Validate(ErrGetRevenueSummaryQueryIsNotConstructed)
}

func (q GetRevenueSummaryQuery) TopItems() int {
	return q.topItems
}

func validateRange(days *revenue.DateRange) error {
	if days == nil || days.From.IsZero() || days.To.IsZero() {
		return nil
	}
	if startOfDay(days.To).Before(startOfDay(days.From)) {
		return errs.NewValueIsInvalidError("date range")
	}
	return nil
}
