package order

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

var ErrShopOrderIsNotConstructed = errors.New("ShopOrder must be created via NewShopOrder or RestoreShopOrder")

// ShopRef is the part of a shop that a ShopOrder snapshots at checkout.
type ShopRef struct {
	ID      kernel.UUID
	OwnerID kernel.UUID
	Name    string
	City    string
	Point   kernel.GeoPoint
}

func (r ShopRef) Validate() error {
	if err := errors.Join(r.ID.Validate(), r.OwnerID.Validate()); err != nil {
		return err
	}
	if strings.TrimSpace(r.Name) == "" {
		return errs.NewValueIsRequiredError("shop name")
	}
	return nil
}

// ShopOrder is the per-shop slice of an Order. It is what a shop owner prepares, what a
// courier claims, and what the delivery code completes.
//
// Invariants:
//   - subtotal equals the sum of its line totals; deliveryFee never changes after checkout
//   - courierID is set only while status is out of delivery or delivered
//   - cancelReason is set only when status is cancelled
//   - deliveryOtp, once issued, is never replaced
type ShopOrder struct {
	id           kernel.UUID
	orderID      kernel.UUID
	customerID   kernel.UUID
	shop         ShopRef
	items        []LineItem
	subtotal     kernel.Money
	deliveryFee  kernel.Money
	status       Status
	cancelReason string
	courierID    *kernel.UUID
	deliveryOtp  string
	paid         bool
	reviewed     bool
	version      int64
	createdAt    time.Time
	updatedAt    time.Time
	deliveredAt  *time.Time

	isConstructed bool
}

// ShopOrderState is the full persisted state of a ShopOrder, used by repositories to
// rebuild the entity.
type ShopOrderState struct {
	ID           kernel.UUID
	OrderID      kernel.UUID
	CustomerID   kernel.UUID
	Shop         ShopRef
	Items        []LineItem
	DeliveryFee  kernel.Money
	Status       Status
	CancelReason string
	CourierID    *kernel.UUID
	DeliveryOtp  string
	Paid         bool
	Reviewed     bool
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeliveredAt  *time.Time
}

// NewShopOrder creates a pending ShopOrder. Items must be non-empty; the subtotal is derived.
func NewShopOrder(
	id, orderID, customerID kernel.UUID,
	shop ShopRef,
	items []LineItem,
	deliveryFee kernel.Money,
	now time.Time,
) (*ShopOrder, error) {
	return RestoreShopOrder(ShopOrderState{
		ID:          id,
		OrderID:     orderID,
		CustomerID:  customerID,
		Shop:        shop,
		Items:       items,
		DeliveryFee: deliveryFee,
		Status:      Pending,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// RestoreShopOrder rebuilds a ShopOrder from storage, re-checking every invariant.
func RestoreShopOrder(state ShopOrderState) (*ShopOrder, error) {
	if err := errors.Join(
		state.ID.Validate(),
		state.OrderID.Validate(),
		state.CustomerID.Validate(),
		state.Shop.Validate(),
		state.Status.Validate(),
	); err != nil {
		return nil, err
	}
	if len(state.Items) == 0 {
		return nil, errs.NewValueIsRequiredError("items")
	}
	if state.DeliveryFee < 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("delivery fee", fmt.Errorf("%d is negative", state.DeliveryFee))
	}
	if state.CourierID != nil && !state.Status.CanHaveCourier() {
		return nil, errs.NewValueIsInvalidErrorWithCause("courier",
			fmt.Errorf("%s is not a valid status to have a courier", state.Status))
	}
	if state.Status == Delivered && state.CourierID == nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("courier",
			fmt.Errorf("%s is not a valid status to have no courier", state.Status))
	}
	if state.CancelReason != "" && state.Status != Cancelled {
		return nil, errs.NewValueIsInvalidErrorWithCause("cancel reason",
			fmt.Errorf("%s shop order cannot carry a cancel reason", state.Status))
	}

	var subtotal kernel.Money
	for _, item := range state.Items {
		subtotal += item.Total()
	}

	return &ShopOrder{
		id:            state.ID,
		orderID:       state.OrderID,
		customerID:    state.CustomerID,
		shop:          state.Shop,
		items:         append([]LineItem(nil), state.Items...),
		subtotal:      subtotal,
		deliveryFee:   state.DeliveryFee,
		status:        state.Status,
		cancelReason:  state.CancelReason,
		courierID:     state.CourierID,
		deliveryOtp:   state.DeliveryOtp,
		paid:          state.Paid,
		reviewed:      state.Reviewed,
		version:       state.Version,
		createdAt:     state.CreatedAt,
		updatedAt:     state.UpdatedAt,
		deliveredAt:   state.DeliveredAt,
		isConstructed: true,
	}, nil
}

func (s *ShopOrder) Validate() error {
	if s == nil || !s.isConstructed {
		return ErrShopOrderIsNotConstructed
	}
	return nil
}

func (s *ShopOrder) ID() kernel.UUID           { return s.id }
func (s *ShopOrder) OrderID() kernel.UUID      { return s.orderID }
func (s *ShopOrder) CustomerID() kernel.UUID   { return s.customerID }
func (s *ShopOrder) Shop() ShopRef             { return s.shop }
func (s *ShopOrder) Subtotal() kernel.Money    { return s.subtotal }
func (s *ShopOrder) DeliveryFee() kernel.Money { return s.deliveryFee }
func (s *ShopOrder) Status() Status            { return s.status }
func (s *ShopOrder) CancelReason() string      { return s.cancelReason }
func (s *ShopOrder) Courier() *kernel.UUID     { return s.courierID }
func (s *ShopOrder) DeliveryOtp() string       { return s.deliveryOtp }
func (s *ShopOrder) IsPaid() bool              { return s.paid }
func (s *ShopOrder) IsReviewed() bool          { return s.reviewed }
func (s *ShopOrder) Version() int64            { return s.version }
func (s *ShopOrder) CreatedAt() time.Time      { return s.createdAt }
func (s *ShopOrder) UpdatedAt() time.Time      { return s.updatedAt }
func (s *ShopOrder) DeliveredAt() *time.Time   { return s.deliveredAt }
func (s *ShopOrder) Total() kernel.Money       { return s.subtotal + s.deliveryFee }
func (s *ShopOrder) IsClaimed() bool           { return s.courierID != nil }
func (s *ShopOrder) IsReviewable() bool        { return s.status == Delivered && !s.reviewed }
func (s *ShopOrder) IsAwaitingCourier() bool   { return s.status == OutOfDelivery && s.courierID == nil }
func (s *ShopOrder) Items() []LineItem         { return append([]LineItem(nil), s.items...) }

// State returns a detached copy of the full ShopOrder state for persistence.
func (s *ShopOrder) State() ShopOrderState {
	state := ShopOrderState{
		ID:           s.id,
		OrderID:      s.orderID,
		CustomerID:   s.customerID,
		Shop:         s.shop,
		Items:        s.Items(),
		DeliveryFee:  s.deliveryFee,
		Status:       s.status,
		CancelReason: s.cancelReason,
		DeliveryOtp:  s.deliveryOtp,
		Paid:         s.paid,
		Reviewed:     s.reviewed,
		Version:      s.version,
		CreatedAt:    s.createdAt,
		UpdatedAt:    s.updatedAt,
	}
	if s.courierID != nil {
		courierID := *s.courierID
		state.CourierID = &courierID
	}
	if s.deliveredAt != nil {
		deliveredAt := *s.deliveredAt
		state.DeliveredAt = &deliveredAt
	}
	return state
}

// MarkPersisted advances the optimistic-lock version after a successful save.
// Repositories call it; domain code never does.
func (s *ShopOrder) MarkPersisted() {
	s.version++
}

// Transition moves the ShopOrder to status to on behalf of actor. It returns changed=false
// with no error when the ShopOrder is already in to (duplicate client retries).
//
// Delivered is never reachable here: the courier must go through CompleteDelivery with
// the delivery code. A cancel requires a non-empty reason.
//
// Example:
//
//	changed, err := shopOrder.Transition(owner, order.OutOfDelivery, "", time.Now())
//	var illegal *order.IllegalTransitionError
//	if errors.As(err, &illegal) {
//	    // tell the client to refresh; the ShopOrder moved on
//	}
func (s *ShopOrder) Transition(actor Actor, to Status, reason string, now time.Time) (bool, error) {
	if err := errors.Join(s.Validate(), actor.Validate(), to.Validate()); err != nil {
		return false, err
	}

	action := "set status " + to.String()
	if s.status == to {
		return false, s.authorize(actor, rolesInto(to), action)
	}

	roles, ok := s.status.allowedRoles(to)
	if !ok {
		return false, NewIllegalTransitionError(s.status, to)
	}
	if err := s.authorize(actor, roles, action); err != nil {
		return false, err
	}
	if to == Delivered {
		return false, NewForbiddenError(actor.Role(), "mark delivered without the delivery code")
	}

	if to == Cancelled {
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return false, errs.NewValueIsRequiredError("cancel reason")
		}
		s.cancelReason = reason
	}

	s.status = to
	s.updatedAt = now
	return true, nil
}

// IssueOtp attaches the delivery code. Allowed once, while out of delivery.
func (s *ShopOrder) IssueOtp(code string) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.status != OutOfDelivery {
		return NewIllegalTransitionError(s.status, OutOfDelivery)
	}
	if s.deliveryOtp != "" {
		return ErrOtpAlreadyIssued
	}
	if code == "" || strings.Trim(code, "0123456789") != "" {
		return errs.NewValueIsInvalidError("delivery code")
	}
	s.deliveryOtp = code
	return nil
}

// Claim assigns courierID. It fails with ClaimConflictError unless the ShopOrder is out of
// delivery and unclaimed.
func (s *ShopOrder) Claim(courierID kernel.UUID, now time.Time) error {
	if err := errors.Join(s.Validate(), courierID.Validate()); err != nil {
		return err
	}
	if s.status != OutOfDelivery {
		return NewClaimConflictError(s.id, "shop order is "+s.status.String())
	}
	if s.courierID != nil {
		return NewClaimConflictError(s.id, "already claimed")
	}

	s.courierID = &courierID
	s.updatedAt = now
	return nil
}

// CompleteDelivery is the delivery-code gate: the assigned courier presents the code
// received from the customer and the ShopOrder becomes delivered. Any failure leaves the
// ShopOrder untouched; there is no attempt counter.
func (s *ShopOrder) CompleteDelivery(actor Actor, code string, now time.Time) error {
	if err := errors.Join(s.Validate(), actor.Validate()); err != nil {
		return err
	}
	if s.status != OutOfDelivery {
		return NewInvalidOtpError("shop order is " + s.status.String() + ", not out of delivery")
	}
	if s.courierID == nil || !actor.Is(RoleCourier, *s.courierID) {
		return NewForbiddenError(actor.Role(), "verify a delivery assigned to another courier")
	}
	code = strings.TrimSpace(code)
	if s.deliveryOtp == "" || subtle.ConstantTimeCompare([]byte(code), []byte(s.deliveryOtp)) != 1 {
		return NewInvalidOtpError("code does not match")
	}

	deliveredAt := now
	s.status = Delivered
	s.deliveredAt = &deliveredAt
	s.updatedAt = now
	return nil
}

// MarkPaid records settlement; it reports whether anything changed.
func (s *ShopOrder) MarkPaid(now time.Time) bool {
	if s.paid {
		return false
	}
	s.paid = true
	s.updatedAt = now
	return true
}

func (s *ShopOrder) authorize(actor Actor, roles []Role, action string) error {
	if !containsRole(roles, actor.Role()) {
		return NewForbiddenError(actor.Role(), action)
	}

	var owns bool
	switch actor.Role() {
	case RoleCustomer:
		owns = actor.ID().IsEqual(s.customerID)
	case RoleShopOwner:
		owns = actor.ID().IsEqual(s.shop.OwnerID)
	case RoleCourier:
		owns = s.courierID != nil && actor.ID().IsEqual(*s.courierID)
	case RoleAdmin, RoleUnknown:
	}
	if !owns {
		return NewForbiddenError(actor.Role(), action+" on a shop order they do not own")
	}
	return nil
}
