package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/guard"
)

var ErrUpdateCourierLocationCommandIsNotConstructed = errors.New(
	"UpdateCourierLocationCommand must be created via NewUpdateCourierLocationCommand constructor",
)

// UpdateCourierLocationCommand records where a courier is. Positions rank couriers for
// shops and deliveries for couriers.
type UpdateCourierLocationCommand struct { //nolint:recvcheck //using for validation
	courierID kernel.UUID
	point     kernel.GeoPoint

	guard guard.ConstructorGuard
}

func NewUpdateCourierLocationCommand(actor order.Actor, lat, lon float64) (UpdateCourierLocationCommand, error) {
	if err := actor.Validate(); err != nil {
		return UpdateCourierLocationCommand{}, err
	}
	if actor.Role() != order.RoleCourier {
		return UpdateCourierLocationCommand{}, order.NewForbiddenError(actor.Role(), "report a courier position")
	}
	point, err := kernel.NewGeoPoint(lat, lon)
	if err != nil {
		return UpdateCourierLocationCommand{}, err
	}

	return UpdateCourierLocationCommand{
		courierID: actor.ID(),
		point:     point,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c UpdateCourierLocationCommand) Validate() error {
	return c.guard.Validate(ErrUpdateCourierLocationCommandIsNotConstructed)
}

func (c UpdateCourierLocationCommand) CourierID() kernel.UUID {
	return c.courierID
}

func (c UpdateCourierLocationCommand) Point() kernel.GeoPoint {
	return c.point
}
