package commands

import (
	"context"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
)

// ClaimDeliveryCommandHandler hands claims to the dispatcher, which guarantees that at
// most one courier wins each delivery.
//
// Example:
//
//	shopOrder, err := handler.Handle(ctx, cmd)
//	switch {
//	case errors.Is(err, order.ErrClaimConflict):
//	    // someone else got it first: refresh the list, do not retry
//	case errors.Is(err, courier.ErrCourierBusy):
//	    // finish the current delivery first
//	case err != nil:
//	    return err
//	}
type ClaimDeliveryCommandHandler struct {
	board DeliveryBoard
}

func NewClaimDeliveryCommandHandler(board DeliveryBoard) (*ClaimDeliveryCommandHandler, error) {
	if board == nil {
		return nil, errs.NewValueIsRequiredError("board")
	}
	return &ClaimDeliveryCommandHandler{board: board}, nil
}

func (h *ClaimDeliveryCommandHandler) Handle(ctx context.Context, cmd ClaimDeliveryCommand) (*order.ShopOrder, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return h.board.Claim(ctx, cmd.CourierID(), cmd.OrderID(), cmd.ShopOrderID())
}
