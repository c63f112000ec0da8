package commands

import (
	"context"
	"log/slog"

	"fulfillment/internal/core/domain/model/events"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// MarkOrderPaidCommandHandler settles an online order and every ShopOrder in it, then
// tells the customer and the shops with paymentUpdate. Repeated callbacks are no-ops.
//
// The locks of all ShopOrders of the order are held so the settlement cannot interleave
// with a status transition that saves a stale payment flag.
type MarkOrderPaidCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	board      DeliveryBoard
	publisher  ports.EventPublisher
	clock      ports.Clock
	logger     *slog.Logger
}

func NewMarkOrderPaidCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	board DeliveryBoard,
	publisher ports.EventPublisher,
	clock ports.Clock,
	logger *slog.Logger,
) (*MarkOrderPaidCommandHandler, error) {
	if uowFactory == nil {
		return nil, errs.NewValueIsRequiredError("uowFactory")
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
	return &MarkOrderPaidCommandHandler{
		uowFactory: uowFactory,
		board:      board,
		publisher:  publisher,
		clock:      clock,
		logger:     logger.With("component", "payment"),
	}, nil
}

func (h *MarkOrderPaidCommandHandler) Handle(ctx context.Context, cmd MarkOrderPaidCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	current, err := h.uowFactory.Create().OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return nil, err
	}
	unlock := lockShopOrders(h.board, shopOrderIDs(current))
	defer unlock()

	o, changed, err := h.settle(ctx, cmd)
	if err != nil || !changed {
		return o, err
	}

	h.logger.InfoContext(ctx, "order paid", "orderId", o.ID().String(), "total", o.TotalAmount().Int64())
	if err := h.publisher.Publish(ctx, events.NewPaymentUpdateFor(o, h.clock.Now())); err != nil {
		h.logger.ErrorContext(ctx, "failed to publish payment", "orderId", o.ID().String(), "error", err)
	}
	return o, nil
}

func (h *MarkOrderPaidCommandHandler) settle(ctx context.Context, cmd MarkOrderPaidCommand) (*order.Order, bool, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, false, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	o, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return nil, false, err
	}

	wasPaid := o.IsPaid()
	changed, err := o.MarkPaid(h.clock.Now())
	if err != nil {
		return nil, false, err
	}
	if wasPaid && len(changed) == 0 {
		return o, false, nil
	}

	if err := orderRepo.UpdatePayment(ctx, o); err != nil {
		return nil, false, err
	}
	if err := uow.Commit(ctx); err != nil {
		return nil, false, err
	}
	return o, true, nil
}
