package commands

import (
	"context"
	"errors"
	"log/slog"

	"fulfillment/internal/core/domain/model/courier"
	"fulfillment/internal/core/domain/model/events"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// VerifyDeliveryOtpCommandHandler is the delivery-code gate. A correct code from the
// assigned courier moves the ShopOrder to delivered, frees the courier for the next
// claim, and emits the delivered record the revenue projection ingests.
//
// A code is good exactly once: after delivery the ShopOrder is no longer out of
// delivery and every further attempt fails with order.InvalidOtpError. Failures never
// change state.
type VerifyDeliveryOtpCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	board      DeliveryBoard
	otp        services.OtpIssuer
	publisher  ports.EventPublisher
	clock      ports.Clock
	logger     *slog.Logger
}

func NewVerifyDeliveryOtpCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	board DeliveryBoard,
	otp services.OtpIssuer,
	publisher ports.EventPublisher,
	clock ports.Clock,
	logger *slog.Logger,
) (*VerifyDeliveryOtpCommandHandler, error) {
	if uowFactory == nil {
		return nil, errs.NewValueIsRequiredError("uowFactory")
	}
	if board == nil {
		return nil, errs.NewValueIsRequiredError("board")
	}
	if publisher == nil {
		return nil, errs.NewValueIsRequiredError("publisher")
	}
	if otp.Length() == 0 {
		return nil, errs.NewValueIsRequiredError("otp issuer")
	}
	if clock == nil {
		clock = ports.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &VerifyDeliveryOtpCommandHandler{
		uowFactory: uowFactory,
		board:      board,
		otp:        otp,
		publisher:  publisher,
		clock:      clock,
		logger:     logger.With("component", "verify-otp"),
	}, nil
}

func (h *VerifyDeliveryOtpCommandHandler) Handle(ctx context.Context, cmd VerifyDeliveryOtpCommand) (*order.ShopOrder, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := h.otp.ValidateFormat(cmd.Code()); err != nil {
		return nil, err
	}

	unlock := h.board.LockShopOrder(cmd.ShopOrderID())
	defer unlock()

	so, err := h.complete(ctx, cmd)
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "delivery completed",
		"orderId", cmd.OrderID().String(), "shopOrderId", so.ID().String(), "courierId", so.Courier().String())

	evts := []events.Event{events.NewStatusUpdateFor(so, h.clock.Now())}
	if delivered, ok := events.NewDeliveredFor(so); ok {
		evts = append(evts, delivered)
	}
	if err := h.publisher.Publish(ctx, evts...); err != nil {
		h.logger.ErrorContext(ctx, "failed to publish delivery", "shopOrderId", so.ID().String(), "error", err)
	}
	return so, nil
}

func (h *VerifyDeliveryOtpCommandHandler) complete(ctx context.Context, cmd VerifyDeliveryOtpCommand) (*order.ShopOrder, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	courierRepo := uow.CourierRepository()

	o, err := orderRepo.GetByShopOrder(ctx, cmd.ShopOrderID())
	if err != nil {
		return nil, err
	}
	if !o.ID().IsEqual(cmd.OrderID()) {
		return nil, errs.NewObjectNotFoundError("shop order", cmd.ShopOrderID().String())
	}
	so, err := o.ShopOrder(cmd.ShopOrderID())
	if err != nil {
		return nil, err
	}

	if err := so.CompleteDelivery(cmd.Courier(), cmd.Code(), h.clock.Now()); err != nil {
		return nil, err
	}
	if err := orderRepo.UpdateShopOrder(ctx, so); err != nil {
		return nil, err
	}
	if err := h.release(ctx, courierRepo, so); err != nil {
		return nil, err
	}

	if err := uow.Commit(ctx); err != nil {
		return nil, err
	}
	return so, nil
}

// release clears the courier's active claim. A courier record that does not hold this
// delivery is logged and left alone rather than blocking the hand-off.
func (h *VerifyDeliveryOtpCommandHandler) release(
	ctx context.Context,
	courierRepo ports.CourierRepository,
	so *order.ShopOrder,
) error {
	c, err := courierRepo.Get(ctx, *so.Courier())
	if err != nil {
		return err
	}

	err = c.CompleteDelivery(so.ID())
	if err == nil {
		err = courierRepo.CompleteDelivery(ctx, c, so.ID())
	}
	if errors.Is(err, courier.ErrDeliveryNotHeld) {
		h.logger.WarnContext(ctx, "courier did not hold the delivery it completed",
			"courierId", c.ID().String(), "shopOrderId", so.ID().String())
		return nil
	}
	return err
}
