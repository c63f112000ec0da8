// Package commands contains the operations that change order and courier state.
// Every command follows the same shape: a guarded command value built by its
// constructor, and a handler that loads, mutates and persists inside a unit of work,
// then publishes events once the transaction has committed.
package commands

import (
	"context"
	"sort"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// DeliveryBoard is the part of the dispatcher the state-changing commands drive.
// *dispatch.Dispatcher implements it.
type DeliveryBoard interface {
	// LockShopOrder acquires the per-ShopOrder lock and returns its release function.
	LockShopOrder(shopOrderID kernel.UUID) func()

	// Publish announces a ShopOrder awaiting a courier. The caller holds its lock.
	Publish(ctx context.Context, o *order.Order, so *order.ShopOrder) error

	// Withdraw removes a ShopOrder from the board. The caller holds its lock.
	Withdraw(ctx context.Context, so *order.ShopOrder) error

	// Claim atomically assigns a ShopOrder to a courier. It takes the lock itself.
	Claim(ctx context.Context, courierID, orderID, shopOrderID kernel.UUID) (*order.ShopOrder, error)
}

// lockShopOrders takes the locks of ids in a stable order so that two
// multi-lock callers never deadlock.
func lockShopOrders(board DeliveryBoard, ids []kernel.UUID) func() {
	sorted := append([]kernel.UUID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].String() < sorted[j].String() })

	unlocks := make([]func(), 0, len(sorted))
	for _, id := range sorted {
		unlocks = append(unlocks, board.LockShopOrder(id))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}

func shopOrderIDs(o *order.Order) []kernel.UUID {
	ids := make([]kernel.UUID, 0, len(o.ShopOrders()))
	for _, so := range o.ShopOrders() {
		ids = append(ids, so.ID())
	}
	return ids
}
