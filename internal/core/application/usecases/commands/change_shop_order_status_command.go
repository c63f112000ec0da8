package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/guard"
)

var ErrChangeShopOrderStatusCommandIsNotConstructed = errors.New(
	"ChangeShopOrderStatusCommand must be created via NewChangeShopOrderStatusCommand constructor",
)

// ChangeShopOrderStatusCommand moves the ShopOrder that shopID fulfils within orderID to
// a new status. The reason is only used for cancellations.
type ChangeShopOrderStatusCommand struct { //nolint:recvcheck //using for validation
	actor   order.Actor
	orderID kernel.UUID
	shopID  kernel.UUID
	status  order.Status
	reason  string

	guard guard.ConstructorGuard
}

func NewChangeShopOrderStatusCommand(
	actor order.Actor,
	orderID, shopID kernel.UUID,
	status, reason string,
) (ChangeShopOrderStatusCommand, error) {
	parsed, err := order.ParseStatus(status)
	if err := errors.Join(actor.Validate(), orderID.Validate(), shopID.Validate(), err); err != nil {
		return ChangeShopOrderStatusCommand{}, err
	}

	return ChangeShopOrderStatusCommand{
		actor:   actor,
		orderID: orderID,
		shopID:  shopID,
		status:  parsed,
		reason:  reason,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c ChangeShopOrderStatusCommand) Validate() error {
	return c.guard.Validate(ErrChangeShopOrderStatusCommandIsNotConstructed)
}

func (c ChangeShopOrderStatusCommand) Actor() order.Actor   { return c.actor }
func (c ChangeShopOrderStatusCommand) OrderID() kernel.UUID { return c.orderID }
func (c ChangeShopOrderStatusCommand) ShopID() kernel.UUID  { return c.shopID }
func (c ChangeShopOrderStatusCommand) Status() order.Status { return c.status }
func (c ChangeShopOrderStatusCommand) Reason() string       { return c.reason }
