package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fulfillment/internal/core/domain/model/events"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// PlaceOrderCommandHandler turns a cart into an Order with one pending ShopOrder per shop.
//
// The delivery address is snapshotted from the customer's address book. When it has no
// coordinates the geocoder is asked; if that fails checkout still succeeds and every
// ShopOrder is charged the base fee.
type PlaceOrderCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	catalog    ports.Catalog
	addresses  ports.AddressBook
	geocoder   ports.Geocoder
	splitter   services.OrderSplitter
	board      DeliveryBoard
	publisher  ports.EventPublisher
	clock      ports.Clock
	logger     *slog.Logger
}

// NewPlaceOrderCommandHandler wires the handler. geocoder may be nil, in which case
// addresses without coordinates are priced at the base fee.
func NewPlaceOrderCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	catalog ports.Catalog,
	addresses ports.AddressBook,
	geocoder ports.Geocoder,
	splitter services.OrderSplitter,
	board DeliveryBoard,
	publisher ports.EventPublisher,
	clock ports.Clock,
	logger *slog.Logger,
) (*PlaceOrderCommandHandler, error) {
	if uowFactory == nil {
		return nil, errs.NewValueIsRequiredError("uowFactory")
	}
	if catalog == nil {
		return nil, errs.NewValueIsRequiredError("catalog")
	}
	if addresses == nil {
		return nil, errs.NewValueIsRequiredError("addresses")
	}
	if board == nil {
		return nil, errs.NewValueIsRequiredError("board")
	}
	if publisher == nil {
		return nil, errs.NewValueIsRequiredError("publisher")
	}
	if clock == nil {
		clock = ports.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PlaceOrderCommandHandler{
		uowFactory: uowFactory,
		catalog:    catalog,
		addresses:  addresses,
		geocoder:   geocoder,
		splitter:   splitter,
		board:      board,
		publisher:  publisher,
		clock:      clock,
		logger:     logger.With("component", "place-order"),
	}, nil
}

func (h *PlaceOrderCommandHandler) Handle(ctx context.Context, cmd PlaceOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	address, err := h.addresses.Get(ctx, cmd.CustomerID(), cmd.AddressID())
	if err != nil {
		return nil, err
	}
	address = h.locate(ctx, address)

	catalog, err := h.catalog.Snapshot(ctx, cmd.ShopIDs(), cmd.ItemIDs())
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	placed, err := h.splitter.Split(services.Checkout{
		OrderID:       cmd.OrderID(),
		CustomerID:    cmd.CustomerID(),
		Address:       address,
		PaymentMethod: cmd.PaymentMethod(),
		Now:           h.clock.Now(),
	}, cmd.Lines(), catalog)
	if err != nil {
		return nil, err
	}

	unlock := lockShopOrders(h.board, shopOrderIDs(placed))
	defer unlock()

	existing, err := h.save(ctx, placed)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !existing.CustomerID().IsEqual(cmd.CustomerID()) {
			return nil, errs.NewValueIsInvalidErrorWithCause("order id",
				fmt.Errorf("%s is already taken", cmd.OrderID()))
		}
		return existing, nil
	}

	h.logger.InfoContext(ctx, "order placed",
		"orderId", placed.ID().String(),
		"shopOrders", len(placed.ShopOrders()),
		"total", placed.TotalAmount().Int64())

	now := h.clock.Now()
	evts := make([]events.Event, 0, len(placed.ShopOrders()))
	for _, so := range placed.ShopOrders() {
		evts = append(evts, events.NewStatusUpdateFor(so, now))
	}
	if err := h.publisher.Publish(ctx, evts...); err != nil {
		h.logger.ErrorContext(ctx, "failed to publish new order", "orderId", placed.ID().String(), "error", err)
	}
	return placed, nil
}

// save persists placed, or returns the order already stored under its id.
func (h *PlaceOrderCommandHandler) save(ctx context.Context, placed *order.Order) (*order.Order, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	existing, err := orderRepo.Get(ctx, placed.ID())
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, errs.ErrObjectNotFound):
		return nil, err
	}

	if err := orderRepo.Add(ctx, placed); err != nil {
		return nil, err
	}
	if err := uow.Commit(ctx); err != nil {
		return nil, err
	}
	return nil, nil
}

// locate fills in the coordinates of address. Geocoding problems degrade to an unknown
// point, which the fee calculator prices at the base fee.
func (h *PlaceOrderCommandHandler) locate(ctx context.Context, address order.Address) order.Address {
	if address.Point.IsKnown() || h.geocoder == nil {
		return address
	}

	point, err := h.geocoder.Geocode(ctx, address.Line())
	if err != nil {
		h.logger.WarnContext(ctx, "geocoding failed, charging base delivery fee",
			"address", address.Line(), "error", err)
		return address
	}
	return address.WithPoint(point)
}
