package commands

import (
	"context"
	"log/slog"

	"fulfillment/internal/core/domain/model/courier"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
)

// DefaultCourierSuggestions caps the couriers returned with a ShopOrder that went out of
// delivery.
const DefaultCourierSuggestions = 10

// StatusChange is the outcome of ChangeShopOrderStatusCommandHandler.Handle.
// AvailableCouriers lists idle couriers of the shop's city, nearest first, while the
// ShopOrder waits for a claim.
type StatusChange struct {
	Order             *order.Order
	ShopOrder         *order.ShopOrder
	Changed           bool
	AvailableCouriers []services.Ranked[*courier.Courier]
}

// ChangeShopOrderStatusCommandHandler drives the order state machine on behalf of shop
// owners and customers.
//
// Example:
//
//	cmd, _ := NewChangeShopOrderStatusCommand(owner, orderID, shopID, "out of delivery", "")
//	change, err := handler.Handle(ctx, cmd)
//	var illegal *order.IllegalTransitionError
//	switch {
//	case errors.As(err, &illegal):
//	    // refresh, the ShopOrder moved on
//	case err != nil:
//	    return err
//	}
//	notify(change.AvailableCouriers)
type ChangeShopOrderStatusCommandHandler struct {
	transitioner
	ranker      services.AvailabilityRanker
	suggestions int
}

func NewChangeShopOrderStatusCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	board DeliveryBoard,
	otp services.OtpIssuer,
	publisher ports.EventPublisher,
	clock ports.Clock,
	logger *slog.Logger,
) (*ChangeShopOrderStatusCommandHandler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	t, err := newTransitioner(uowFactory, board, otp, publisher, clock, logger.With("component", "change-status"))
	if err != nil {
		return nil, err
	}
	return &ChangeShopOrderStatusCommandHandler{
		transitioner: t,
		ranker:       services.NewAvailabilityRanker(),
		suggestions:  DefaultCourierSuggestions,
	}, nil
}

func (h *ChangeShopOrderStatusCommandHandler) Handle(
	ctx context.Context,
	cmd ChangeShopOrderStatusCommand,
) (StatusChange, error) {
	if err := cmd.Validate(); err != nil {
		return StatusChange{}, err
	}

	pick := func(o *order.Order) (*order.ShopOrder, error) {
		return o.ShopOrderForShop(cmd.ShopID())
	}
	o, so, changed, err := h.apply(ctx, cmd.Actor(), cmd.OrderID(), pick, cmd.Status(), cmd.Reason())
	if err != nil {
		return StatusChange{}, err
	}

	change := StatusChange{Order: o, ShopOrder: so, Changed: changed}
	if so.IsAwaitingCourier() {
		change.AvailableCouriers = h.availableCouriers(ctx, so)
	}
	return change, nil
}

// availableCouriers is advisory; a failure to list them never fails the transition.
func (h *ChangeShopOrderStatusCommandHandler) availableCouriers(
	ctx context.Context,
	so *order.ShopOrder,
) []services.Ranked[*courier.Courier] {
	idle, err := h.uowFactory.Create().CourierRepository().ListIdle(ctx, so.Shop().City)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to list idle couriers", "city", so.Shop().City, "error", err)
		return nil
	}
	return h.ranker.RankCouriers(so.Shop().Point, idle, h.suggestions)
}
