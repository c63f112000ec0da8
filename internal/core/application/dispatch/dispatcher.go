// Package dispatch is the Delivery Dispatcher: it keeps the board of deliveries waiting
// for a courier and arbitrates claims so that exactly one courier wins each delivery.
package dispatch

import (
	"context"
	"errors"
	"log/slog"

	"fulfillment/internal/core/domain/model/courier"
	"fulfillment/internal/core/domain/model/events"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/keylock"
)

// Dispatcher owns the availability board.
//
// Every mutation of a ShopOrder's status or courier, and of its board entry, happens
// while holding that ShopOrder's lock from Locks(). Claim takes the lock itself; Publish
// and Withdraw expect the caller (a state transition) to hold it already. Events are
// published after commit and before the lock is released, which keeps them in order per
// ShopOrder.
//
// The lock only serializes this process. Across processes the repository's conditional
// writes (ClaimShopOrder, TakeDelivery) are what guarantee a single winner.
type Dispatcher struct {
	uowFactory ports.UnitOfWorkFactory
	publisher  ports.EventPublisher
	locks      *keylock.Locker
	ranker     services.AvailabilityRanker
	clock      ports.Clock
	logger     *slog.Logger
	board      board
}

func NewDispatcher(
	uowFactory ports.UnitOfWorkFactory,
	publisher ports.EventPublisher,
	locks *keylock.Locker,
	clock ports.Clock,
	logger *slog.Logger,
) (*Dispatcher, error) {
	if uowFactory == nil {
		return nil, errs.NewValueIsRequiredError("uowFactory")
	}
	if publisher == nil {
		return nil, errs.NewValueIsRequiredError("publisher")
	}
	if locks == nil {
		locks = keylock.New()
	}
	if clock == nil {
		clock = ports.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		uowFactory: uowFactory,
		publisher:  publisher,
		locks:      locks,
		ranker:     services.NewAvailabilityRanker(),
		clock:      clock,
		logger:     logger.With("component", "dispatcher"),
	}, nil
}

// Locks returns the per-ShopOrder lock table shared with the state-changing commands.
func (d *Dispatcher) Locks() *keylock.Locker {
	return d.locks
}

// LockShopOrder acquires the lock of shopOrderID and returns its release function.
func (d *Dispatcher) LockShopOrder(shopOrderID kernel.UUID) func() {
	return d.locks.Lock(shopOrderID.String())
}

// Publish puts a ShopOrder that just went out of delivery on the board and announces it
// to the couriers of its city. Publishing an entry already on the board does nothing.
// The caller holds the ShopOrder lock.
func (d *Dispatcher) Publish(ctx context.Context, o *order.Order, so *order.ShopOrder) error {
	if !so.IsAwaitingCourier() {
		return order.NewClaimConflictError(so.ID(), "shop order is not awaiting a courier")
	}

	now := d.clock.Now()
	if !d.board.put(NewEntry(o, so, now)) {
		return nil
	}

	d.logger.InfoContext(ctx, "delivery available",
		"orderId", o.ID().String(), "shopOrderId", so.ID().String(), "city", so.Shop().City)
	return d.publisher.Publish(ctx, events.NewDeliveryAvailableFor(so, o.Address(), now))
}

// Withdraw takes a ShopOrder off the board and tells the couriers of its city. Withdrawing
// an entry that is not on the board does nothing. The caller holds the ShopOrder lock.
func (d *Dispatcher) Withdraw(ctx context.Context, so *order.ShopOrder) error {
	entry, ok := d.board.remove(so.ID())
	if !ok {
		return nil
	}

	return d.publisher.Publish(ctx, events.DeliveryTaken{
		OrderID:     entry.OrderID.String(),
		ShopOrderID: entry.ShopOrderID.String(),
		City:        entry.City,
		At:          d.clock.Now(),
	})
}

// Claim assigns the delivery shopOrderID of orderID to courierID. At most one caller ever
// succeeds for a given ShopOrder; every other caller gets order.ClaimConflictError, and a
// courier already carrying a delivery gets courier.ErrCourierBusy.
//
// On success the entry leaves the board, the courier pool receives deliveryTaken and the
// parties of the ShopOrder receive deliveryAssigned.
func (d *Dispatcher) Claim(ctx context.Context, courierID, orderID, shopOrderID kernel.UUID) (*order.ShopOrder, error) {
	if err := errors.Join(courierID.Validate(), orderID.Validate(), shopOrderID.Validate()); err != nil {
		return nil, err
	}

	unlock := d.LockShopOrder(shopOrderID)
	defer unlock()

	so, c, err := d.claim(ctx, courierID, orderID, shopOrderID)
	if err != nil {
		return nil, err
	}

	now := d.clock.Now()
	if _, onBoard := d.board.remove(shopOrderID); !onBoard {
		d.logger.WarnContext(ctx, "claimed delivery was not on the board", "shopOrderId", shopOrderID.String())
	}
	if err := d.publisher.Publish(ctx,
		events.NewDeliveryTakenFor(so, now),
		events.NewDeliveryAssignedFor(so, c, now),
	); err != nil {
		d.logger.ErrorContext(ctx, "failed to publish claim", "shopOrderId", shopOrderID.String(), "error", err)
	}

	d.logger.InfoContext(ctx, "delivery claimed",
		"shopOrderId", shopOrderID.String(), "courierId", courierID.String())
	return so, nil
}

func (d *Dispatcher) claim(
	ctx context.Context,
	courierID, orderID, shopOrderID kernel.UUID,
) (*order.ShopOrder, *courier.Courier, error) {
	uow := d.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	courierRepo := uow.CourierRepository()

	c, err := courierRepo.Get(ctx, courierID)
	if err != nil {
		return nil, nil, err
	}

	o, err := orderRepo.GetByShopOrder(ctx, shopOrderID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil, nil, order.NewClaimConflictError(shopOrderID, "unknown shop order")
	}
	if err != nil {
		return nil, nil, err
	}
	if !o.ID().IsEqual(orderID) {
		return nil, nil, order.NewClaimConflictError(shopOrderID, "shop order belongs to another order")
	}
	so, err := o.ShopOrder(shopOrderID)
	if err != nil {
		return nil, nil, err
	}

	if err := c.TakeDelivery(shopOrderID); err != nil {
		return nil, nil, err
	}
	if err := so.Claim(courierID, d.clock.Now()); err != nil {
		return nil, nil, err
	}

	if err := orderRepo.ClaimShopOrder(ctx, so); err != nil {
		return nil, nil, err
	}
	if err := courierRepo.TakeDelivery(ctx, c, shopOrderID); err != nil {
		return nil, nil, err
	}

	if err := uow.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return so, c, nil
}

// ListAvailable returns the deliveries of city (all cities when empty), nearest to near
// first. It complements the push notifications for initial load and refresh.
func (d *Dispatcher) ListAvailable(_ context.Context, city string, near kernel.GeoPoint) []Candidate {
	ranked := services.RankByDistance(near, d.board.list(city), func(e Entry) kernel.GeoPoint {
		return e.Shop.Point
	})

	out := make([]Candidate, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, Candidate{Entry: r.Value, DistanceKm: r.DistanceKm})
	}
	return out
}

// Entry returns the board entry of shopOrderID.
func (d *Dispatcher) Entry(shopOrderID kernel.UUID) (Entry, bool) {
	return d.board.get(shopOrderID)
}

// Resync reconciles the board with storage: deliveries awaiting a courier that are
// missing from the board are published, and board entries whose ShopOrder moved on are
// withdrawn. It recovers the board after a restart and after a failed publish.
func (d *Dispatcher) Resync(ctx context.Context) (added, removed int, err error) {
	uow := d.uowFactory.Create()
	awaiting, err := uow.OrderRepository().ListAwaitingCourier(ctx)
	if err != nil {
		return 0, 0, err
	}

	stored := make(map[kernel.UUID]struct{})
	for _, o := range awaiting {
		for _, so := range o.ShopOrders() {
			if !so.IsAwaitingCourier() {
				continue
			}
			stored[so.ID()] = struct{}{}
			if _, onBoard := d.board.get(so.ID()); onBoard {
				continue
			}
			ok, err := d.resyncOne(ctx, so.ID())
			if err != nil {
				return added, removed, err
			}
			if ok {
				added++
			}
		}
	}

	for _, e := range d.board.list("") {
		if _, ok := stored[e.ShopOrderID]; ok {
			continue
		}
		ok, err := d.resyncOne(ctx, e.ShopOrderID)
		if err != nil {
			return added, removed, err
		}
		if !ok {
			removed++
		}
	}

	if added > 0 || removed > 0 {
		d.logger.InfoContext(ctx, "availability board resynced", "added", added, "removed", removed)
	}
	return added, removed, nil
}

// resyncOne re-reads one ShopOrder under its lock and makes the board agree with it.
// It reports whether the ShopOrder is on the board afterwards.
func (d *Dispatcher) resyncOne(ctx context.Context, shopOrderID kernel.UUID) (bool, error) {
	unlock := d.LockShopOrder(shopOrderID)
	defer unlock()

	o, err := d.uowFactory.Create().OrderRepository().GetByShopOrder(ctx, shopOrderID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		_, _ = d.board.remove(shopOrderID)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	so, err := o.ShopOrder(shopOrderID)
	if err != nil {
		return false, err
	}

	if so.IsAwaitingCourier() {
		return true, d.Publish(ctx, o, so)
	}
	return false, d.Withdraw(ctx, so)
}
