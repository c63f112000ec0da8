package commands

import (
	"errors"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrCancelShopOrderCommandIsNotConstructed = errors.New(
	"CancelShopOrderCommand must be created via NewCancelShopOrderCommand constructor",
)

// CancelShopOrderCommand cancels one ShopOrder of an Order. Only pending and preparing
// ShopOrders can be cancelled; once a courier may be on the way the path is forward-only.
type CancelShopOrderCommand struct { //nolint:recvcheck //using for validation
	actor       order.Actor
	orderID     kernel.UUID
	shopOrderID kernel.UUID
	reason      string

	guard guard.ConstructorGuard
}

func NewCancelShopOrderCommand(
	actor order.Actor,
	orderID, shopOrderID kernel.UUID,
	reason string,
) (CancelShopOrderCommand, error) {
	cmd := CancelShopOrderCommand{guard: guard.NewConstructorGuard()}

	if err := errors.Join(
		actor.Validate(),
		orderID.Validate(),
		shopOrderID.Validate(),
		cmd.setReason(reason),
	); err != nil {
		return CancelShopOrderCommand{}, err
	}

	cmd.actor = actor
	cmd.orderID = orderID
	cmd.shopOrderID = shopOrderID
	return cmd, nil
}

func (c CancelShopOrderCommand) Validate() error {
	return c.guard.Validate(ErrCancelShopOrderCommandIsNotConstructed)
}

func (c CancelShopOrderCommand) Actor() order.Actor {
	return c.actor
}

func (c CancelShopOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c CancelShopOrderCommand) ShopOrderID() kernel.UUID {
	return c.shopOrderID
}

func (c CancelShopOrderCommand) Reason() string {
	return c.reason
}

func (c *CancelShopOrderCommand) setReason(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return errs.NewValueIsRequiredError("cancel reason")
	}

	c.reason = reason
	return nil
}
