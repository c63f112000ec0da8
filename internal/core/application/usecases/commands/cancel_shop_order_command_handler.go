package commands

import (
	"context"
	"log/slog"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
)

// CancelShopOrderCommandHandler cancels ShopOrders for customers and shop owners.
// Cancelling an already cancelled ShopOrder succeeds without side effects.
type CancelShopOrderCommandHandler struct {
	transitioner
}

func NewCancelShopOrderCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	board DeliveryBoard,
	otp services.OtpIssuer,
	publisher ports.EventPublisher,
	clock ports.Clock,
	logger *slog.Logger,
) (*CancelShopOrderCommandHandler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	t, err := newTransitioner(uowFactory, board, otp, publisher, clock, logger.With("component", "cancel"))
	if err != nil {
		return nil, err
	}
	return &CancelShopOrderCommandHandler{transitioner: t}, nil
}

func (h *CancelShopOrderCommandHandler) Handle(ctx context.Context, cmd CancelShopOrderCommand) (*order.ShopOrder, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	pick := func(o *order.Order) (*order.ShopOrder, error) {
		return o.ShopOrder(cmd.ShopOrderID())
	}
	_, so, _, err := h.apply(ctx, cmd.Actor(), cmd.OrderID(), pick, order.Cancelled, cmd.Reason())
	if err != nil {
		return nil, err
	}
	return so, nil
}
