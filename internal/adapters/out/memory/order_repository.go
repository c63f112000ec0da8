package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// OrderRepository implements ports.OrderRepository on a Store.
type OrderRepository struct {
	store *Store
	tx    *UnitOfWork
}

func (r *OrderRepository) Add(_ context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.orders[aggregate.ID()]; exists {
		return errs.NewValueIsInvalidErrorWithCause("order", fmt.Errorf("%s already exists", aggregate.ID()))
	}

	row := orderRow{
		id:            aggregate.ID(),
		customerID:    aggregate.CustomerID(),
		address:       aggregate.Address(),
		paymentMethod: aggregate.PaymentMethod(),
		paid:          aggregate.IsPaid(),
		createdAt:     aggregate.CreatedAt(),
	}
	for _, so := range aggregate.ShopOrders() {
		row.shopOrderIDs = append(row.shopOrderIDs, so.ID())
		r.store.shopOrders[so.ID()] = so.State()
	}
	r.store.orders[row.id] = row

	r.tx.record(func() {
		delete(r.store.orders, row.id)
		for _, id := range row.shopOrderIDs {
			delete(r.store.shopOrders, id)
		}
	})
	return nil
}

func (r *OrderRepository) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	row, ok := r.store.orders[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return r.restore(row)
}

func (r *OrderRepository) GetByShopOrder(_ context.Context, shopOrderID kernel.UUID) (*order.Order, error) {
	if err := shopOrderID.Validate(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	state, ok := r.store.shopOrders[shopOrderID]
	if !ok {
		return nil, errs.NewObjectNotFoundError("shop order", shopOrderID.String())
	}
	return r.restore(r.store.orders[state.OrderID])
}

func (r *OrderRepository) UpdateShopOrder(_ context.Context, so *order.ShopOrder) error {
	if err := so.Validate(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.shopOrders[so.ID()]
	if !ok {
		return errs.NewObjectNotFoundError("shop order", so.ID().String())
	}
	if stored.Version != so.Version() {
		return errs.NewVersionIsInvalidError("shop order",
			fmt.Errorf("loaded version %d, stored version %d", so.Version(), stored.Version))
	}

	next := so.State()
	next.Version++
	r.store.shopOrders[so.ID()] = next
	r.tx.record(func() { r.store.shopOrders[stored.ID] = stored })

	so.MarkPersisted()
	return nil
}

func (r *OrderRepository) ClaimShopOrder(_ context.Context, so *order.ShopOrder) error {
	if err := so.Validate(); err != nil {
		return err
	}
	if so.Courier() == nil {
		return errs.NewValueIsRequiredError("courier")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.shopOrders[so.ID()]
	if !ok {
		return order.NewClaimConflictError(so.ID(), "unknown shop order")
	}
	if stored.Status != order.OutOfDelivery || stored.CourierID != nil {
		return order.NewClaimConflictError(so.ID(), "already claimed or no longer out of delivery")
	}

	next := stored
	courierID := *so.Courier()
	next.CourierID = &courierID
	next.UpdatedAt = so.UpdatedAt()
	next.Version++
	r.store.shopOrders[so.ID()] = next
	r.tx.record(func() { r.store.shopOrders[stored.ID] = stored })

	so.MarkPersisted()
	return nil
}

func (r *OrderRepository) UpdatePayment(_ context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	row, ok := r.store.orders[aggregate.ID()]
	if !ok {
		return errs.NewObjectNotFoundError("order", aggregate.ID().String())
	}
	previous := make(map[kernel.UUID]order.ShopOrderState, len(row.shopOrderIDs))
	for _, so := range aggregate.ShopOrders() {
		stored := r.store.shopOrders[so.ID()]
		previous[so.ID()] = stored
		stored.Paid = so.IsPaid()
		r.store.shopOrders[so.ID()] = stored
	}
	updated := row
	updated.paid = aggregate.IsPaid()
	r.store.orders[row.id] = updated

	r.tx.record(func() {
		r.store.orders[row.id] = row
		for id, state := range previous {
			r.store.shopOrders[id] = state
		}
	})
	return nil
}

func (r *OrderRepository) List(_ context.Context, filter ports.OrderFilter) ([]*order.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rows := make([]orderRow, 0)
	for _, row := range r.store.orders {
		for _, id := range row.shopOrderIDs {
			if matches(r.store.shopOrders[id], filter) {
				rows = append(rows, row)
				break
			}
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].createdAt.After(rows[j].createdAt) })
	if filter.Limit > 0 && len(rows) > filter.Limit {
		rows = rows[:filter.Limit]
	}
	return r.restoreAll(rows)
}

func (r *OrderRepository) ListAwaitingCourier(_ context.Context) ([]*order.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	seen := make(map[kernel.UUID]struct{})
	rows := make([]orderRow, 0)
	for _, state := range r.store.shopOrders {
		if state.Status != order.OutOfDelivery || state.CourierID != nil {
			continue
		}
		if _, dup := seen[state.OrderID]; dup {
			continue
		}
		seen[state.OrderID] = struct{}{}
		rows = append(rows, r.store.orders[state.OrderID])
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].createdAt.Before(rows[j].createdAt) })
	return r.restoreAll(rows)
}

func (r *OrderRepository) ListDelivered(_ context.Context, filter ports.DeliveredFilter) ([]*order.ShopOrder, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*order.ShopOrder, 0)
	for _, state := range r.store.shopOrders {
		if state.Status != order.Delivered || state.DeliveredAt == nil {
			continue
		}
		if filter.CourierID != nil && (state.CourierID == nil || !state.CourierID.IsEqual(*filter.CourierID)) {
			continue
		}
		if filter.ShopID != nil && !state.Shop.ID.IsEqual(*filter.ShopID) {
			continue
		}
		at := *state.DeliveredAt
		if (!filter.From.IsZero() && at.Before(filter.From)) || (!filter.To.IsZero() && !at.Before(filter.To)) {
			continue
		}
		so, err := order.RestoreShopOrder(state)
		if err != nil {
			return nil, err
		}
		out = append(out, so)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeliveredAt().Before(*out[j].DeliveredAt()) })
	return out, nil
}

func matches(state order.ShopOrderState, filter ports.OrderFilter) bool {
	if filter.CustomerID != nil && !state.CustomerID.IsEqual(*filter.CustomerID) {
		return false
	}
	if filter.ShopOwnerID != nil && !state.Shop.OwnerID.IsEqual(*filter.ShopOwnerID) {
		return false
	}
	if filter.CourierID != nil && (state.CourierID == nil || !state.CourierID.IsEqual(*filter.CourierID)) {
		return false
	}
	if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, state.Status) {
		return false
	}
	return true
}

func (r *OrderRepository) restoreAll(rows []orderRow) ([]*order.Order, error) {
	out := make([]*order.Order, 0, len(rows))
	for _, row := range rows {
		o, err := r.restore(row)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// restore rebuilds an Order; the store mutex is held by the caller.
func (r *OrderRepository) restore(row orderRow) (*order.Order, error) {
	shopOrders := make([]*order.ShopOrder, 0, len(row.shopOrderIDs))
	for _, id := range row.shopOrderIDs {
		so, err := order.RestoreShopOrder(r.store.shopOrders[id])
		if err != nil {
			return nil, err
		}
		shopOrders = append(shopOrders, so)
	}
	return order.RestoreOrder(order.OrderState{
		ID:            row.id,
		CustomerID:    row.customerID,
		Address:       row.address,
		PaymentMethod: row.paymentMethod,
		Paid:          row.paid,
		CreatedAt:     row.createdAt,
		ShopOrders:    shopOrders,
	})
}
