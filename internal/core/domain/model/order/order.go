package order

import (
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
)

// Order is a customer checkout spanning one or more shops. It is the aggregate root the
// repositories load and the place the total amount invariant lives.
//
// Order follows these invariants:
//   - at least one ShopOrder, at most one per shop, all pointing back at this Order
//   - totalAmount equals the sum of ShopOrder subtotals and delivery fees
//   - ShopOrders keep the order in which their shops first appeared in the cart
type Order struct {
	id            kernel.UUID
	customerID    kernel.UUID
	address       Address
	paymentMethod PaymentMethod
	paid          bool
	totalAmount   kernel.Money
	createdAt     time.Time
	shopOrders    []*ShopOrder

	isConstructed bool
}

// OrderState is the persisted form used by RestoreOrder.
type OrderState struct {
	ID            kernel.UUID
	CustomerID    kernel.UUID
	Address       Address
	PaymentMethod PaymentMethod
	Paid          bool
	CreatedAt     time.Time
	ShopOrders    []*ShopOrder
}

// NewOrder assembles a freshly split checkout. Payment starts unsettled.
func NewOrder(
	id, customerID kernel.UUID,
	address Address,
	paymentMethod PaymentMethod,
	shopOrders []*ShopOrder,
	now time.Time,
) (*Order, error) {
	return RestoreOrder(OrderState{
		ID:            id,
		CustomerID:    customerID,
		Address:       address,
		PaymentMethod: paymentMethod,
		CreatedAt:     now,
		ShopOrders:    shopOrders,
	})
}

// RestoreOrder rebuilds an Order from storage.
func RestoreOrder(state OrderState) (*Order, error) {
	if err := errors.Join(
		state.ID.Validate(),
		state.CustomerID.Validate(),
		state.Address.Validate(),
	); err != nil {
		return nil, err
	}
	if _, err := ParsePaymentMethod(string(state.PaymentMethod)); err != nil {
		return nil, err
	}
	if len(state.ShopOrders) == 0 {
		return nil, errs.NewValueIsRequiredError("shop orders")
	}

	seenShops := make(map[kernel.UUID]struct{}, len(state.ShopOrders))
	var total kernel.Money
	for _, so := range state.ShopOrders {
		if err := so.Validate(); err != nil {
			return nil, err
		}
		if !so.OrderID().IsEqual(state.ID) {
			return nil, errs.NewValueIsInvalidErrorWithCause("shop order",
				fmt.Errorf("%s belongs to order %s", so.ID(), so.OrderID()))
		}
		if _, dup := seenShops[so.Shop().ID]; dup {
			return nil, errs.NewValueIsInvalidErrorWithCause("shop order",
				fmt.Errorf("shop %s appears twice", so.Shop().ID))
		}
		seenShops[so.Shop().ID] = struct{}{}
		total += so.Total()
	}

	return &Order{
		id:            state.ID,
		customerID:    state.CustomerID,
		address:       state.Address,
		paymentMethod: state.PaymentMethod,
		paid:          state.Paid,
		totalAmount:   total,
		createdAt:     state.CreatedAt,
		shopOrders:    append([]*ShopOrder(nil), state.ShopOrders...),
		isConstructed: true,
	}, nil
}

func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

func (o *Order) CustomerID() kernel.UUID {
	return o.customerID
}

func (o *Order) Address() Address {
	return o.address
}

func (o *Order) PaymentMethod() PaymentMethod {
	return o.paymentMethod
}

func (o *Order) IsPaid() bool {
	return o.paid
}

// TotalAmount is the sum of every ShopOrder's subtotal and delivery fee.
func (o *Order) TotalAmount() kernel.Money {
	return o.totalAmount
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

// ShopOrders returns the ShopOrders in cart order. The slice is a copy; the elements are
// the live entities.
func (o *Order) ShopOrders() []*ShopOrder {
	return append([]*ShopOrder(nil), o.shopOrders...)
}

// ShopOrder finds a ShopOrder of this Order by its id.
func (o *Order) ShopOrder(id kernel.UUID) (*ShopOrder, error) {
	for _, so := range o.shopOrders {
		if so.ID().IsEqual(id) {
			return so, nil
		}
	}
	return nil, errs.NewObjectNotFoundError("shop order", id.String())
}

// ShopOrderForShop finds the ShopOrder fulfilled by shopID.
func (o *Order) ShopOrderForShop(shopID kernel.UUID) (*ShopOrder, error) {
	for _, so := range o.shopOrders {
		if so.Shop().ID.IsEqual(shopID) {
			return so, nil
		}
	}
	return nil, errs.NewObjectNotFoundError("shop", shopID.String())
}

// IsActive reports whether any ShopOrder still has a transition ahead of it.
func (o *Order) IsActive() bool {
	for _, so := range o.shopOrders {
		if !so.Status().IsTerminal() {
			return true
		}
	}
	return false
}

// MarkPaid settles an online payment on the Order and every ShopOrder. Cash-on-delivery
// orders are settled by the courier at hand-off and cannot be marked here.
// It returns the ShopOrders whose flag changed.
func (o *Order) MarkPaid(now time.Time) ([]*ShopOrder, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if o.paymentMethod != PaymentOnline {
		return nil, errs.NewValueIsInvalidErrorWithCause("payment method",
			fmt.Errorf("%s orders are settled on delivery", o.paymentMethod))
	}

	o.paid = true
	changed := make([]*ShopOrder, 0, len(o.shopOrders))
	for _, so := range o.shopOrders {
		if so.MarkPaid(now) {
			changed = append(changed, so)
		}
	}
	return changed, nil
}
