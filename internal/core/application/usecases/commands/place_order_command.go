package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrPlaceOrderCommandIsNotConstructed = errors.New(
	"PlaceOrderCommand must be created via NewPlaceOrderCommand constructor",
)

// PlaceOrderCommand is a checkout: a cart spanning one or more shops, delivered to one
// of the customer's saved addresses.
//
// The order id is chosen by the caller. Submitting the same id twice returns the order
// created by the first submission, which makes checkout safe to retry.
//
// Example:
//
//	cmd, err := NewPlaceOrderCommand(kernel.NewUUID(), customerID, addressID, "cod", []services.CartLine{
//	    {ShopID: phoShop, ItemID: pho, Quantity: 2},
//	    {ShopID: teaShop, ItemID: tea, Quantity: 1, Note: "less ice"},
//	})
//	if err != nil {
//	    return err
//	}
//	placed, err := handler.Handle(ctx, cmd)
type PlaceOrderCommand struct { //nolint:recvcheck //using for validation
	orderID       kernel.UUID
	customerID    kernel.UUID
	addressID     kernel.UUID
	paymentMethod order.PaymentMethod
	lines         []services.CartLine

	guard guard.ConstructorGuard
}

func NewPlaceOrderCommand(
	orderID, customerID, addressID kernel.UUID,
	paymentMethod string,
	lines []services.CartLine,
) (PlaceOrderCommand, error) {
	cmd := PlaceOrderCommand{guard: guard.NewConstructorGuard()}

	if err := errors.Join(
		cmd.setIDs(orderID, customerID, addressID),
		cmd.setPaymentMethod(paymentMethod),
		cmd.setLines(lines),
	); err != nil {
		return PlaceOrderCommand{}, err
	}
	return cmd, nil
}

func (c PlaceOrderCommand) Validate() error {
	return c.guard.Validate(ErrPlaceOrderCommandIsNotConstructed)
}

func (c PlaceOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c PlaceOrderCommand) CustomerID() kernel.UUID {
	return c.customerID
}

func (c PlaceOrderCommand) AddressID() kernel.UUID {
	return c.addressID
}

func (c PlaceOrderCommand) PaymentMethod() order.PaymentMethod {
	return c.paymentMethod
}

func (c PlaceOrderCommand) Lines() []services.CartLine {
	return append([]services.CartLine(nil), c.lines...)
}

// ShopIDs returns the distinct shops of the cart in order of first appearance.
func (c PlaceOrderCommand) ShopIDs() []kernel.UUID {
	return distinct(c.lines, func(l services.CartLine) kernel.UUID { return l.ShopID })
}

// ItemIDs returns the distinct items of the cart in order of first appearance.
func (c PlaceOrderCommand) ItemIDs() []kernel.UUID {
	return distinct(c.lines, func(l services.CartLine) kernel.UUID { return l.ItemID })
}

func (c *PlaceOrderCommand) setIDs(orderID, customerID, addressID kernel.UUID) error {
	if err := errors.Join(orderID.Validate(), customerID.Validate()); err != nil {
		return err
	}
	if err := addressID.Validate(); err != nil {
		return errs.NewValueIsRequiredError("delivery address")
	}

	c.orderID = orderID
	c.customerID = customerID
	c.addressID = addressID
	return nil
}

func (c *PlaceOrderCommand) setPaymentMethod(method string) error {
	m, err := order.ParsePaymentMethod(method)
	if err != nil {
		return err
	}

	c.paymentMethod = m
	return nil
}

func (c *PlaceOrderCommand) setLines(lines []services.CartLine) error {
	if len(lines) == 0 {
		return order.NewInvalidCartError("cart is empty")
	}
	for i, line := range lines {
		if line.ShopID.IsZero() || line.ItemID.IsZero() {
			return order.NewInvalidCartError("line %d: shop and item are required", i+1)
		}
		if line.Quantity < 1 {
			return order.NewInvalidCartError("line %d: quantity %d is below 1", i+1, line.Quantity)
		}
	}

	c.lines = append([]services.CartLine(nil), lines...)
	return nil
}

func distinct(lines []services.CartLine, key func(services.CartLine) kernel.UUID) []kernel.UUID {
	seen := make(map[kernel.UUID]struct{}, len(lines))
	out := make([]kernel.UUID, 0, len(lines))
	for _, l := range lines {
		id := key(l)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
