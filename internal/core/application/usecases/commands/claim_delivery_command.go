package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/guard"
)

var ErrClaimDeliveryCommandIsNotConstructed = errors.New(
	"ClaimDeliveryCommand must be created via NewClaimDeliveryCommand constructor",
)

// ClaimDeliveryCommand is a courier taking a delivery off the availability board.
type ClaimDeliveryCommand struct { //nolint:recvcheck //using for validation
	courier     order.Actor
	orderID     kernel.UUID
	shopOrderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewClaimDeliveryCommand fails with order.ForbiddenError unless actor is a courier.
func NewClaimDeliveryCommand(actor order.Actor, orderID, shopOrderID kernel.UUID) (ClaimDeliveryCommand, error) {
	if err := errors.Join(actor.Validate(), orderID.Validate(), shopOrderID.Validate()); err != nil {
		return ClaimDeliveryCommand{}, err
	}
	if actor.Role() != order.RoleCourier {
		return ClaimDeliveryCommand{}, order.NewForbiddenError(actor.Role(), "claim a delivery")
	}

	return ClaimDeliveryCommand{
		courier:     actor,
		orderID:     orderID,
		shopOrderID: shopOrderID,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

func (c ClaimDeliveryCommand) Validate() error {
	return c.guard.Validate(ErrClaimDeliveryCommandIsNotConstructed)
}

func (c ClaimDeliveryCommand) CourierID() kernel.UUID {
	return c.courier.ID()
}

func (c ClaimDeliveryCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c ClaimDeliveryCommand) ShopOrderID() kernel.UUID {
	return c.shopOrderID
}
