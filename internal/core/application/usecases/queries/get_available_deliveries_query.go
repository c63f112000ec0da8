package queries

import (
	"errors"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/guard"
)

var ErrGetAvailableDeliveriesQueryIsNotConstructed = errors.New(
	"GetAvailableDeliveriesQuery must be created via NewGetAvailableDeliveriesQuery constructor",
)

// GetAvailableDeliveriesQuery lists the deliveries waiting for a courier in a city,
// nearest first. An empty city and an unknown point fall back to the courier's profile
// and last reported position.
type GetAvailableDeliveriesQuery struct {
	courierID kernel.UUID
	city      string
	near      kernel.GeoPoint

	guard guard.ConstructorGuard
}

func NewGetAvailableDeliveriesQuery(
	viewer order.Actor,
	city string,
	near kernel.GeoPoint,
) (GetAvailableDeliveriesQuery, error) {
	if err := viewer.Validate(); err != nil {
		return GetAvailableDeliveriesQuery{}, err
	}
	if viewer.Role() != order.RoleCourier {
		return GetAvailableDeliveriesQuery{}, order.NewForbiddenError(viewer.Role(), "list available deliveries")
	}
	return GetAvailableDeliveriesQuery{
		courierID: viewer.ID(),
		city:      strings.TrimSpace(city),
		near:      near,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (q GetAvailableDeliveriesQuery) Validate() error {
	return q.guard.Validate(ErrGetAvailableDeliveriesQueryIsNotConstructed)
}

func (q GetAvailableDeliveriesQuery) CourierID() kernel.UUID { return q.courierID }
func (q GetAvailableDeliveriesQuery) City() string           { return q.city }
func (q GetAvailableDeliveriesQuery) Near() kernel.GeoPoint  { return q.near }
