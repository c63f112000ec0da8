package queries

import (
	"context"

	"fulfillment/internal/core/application/dispatch"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// AvailabilityBoard is implemented by *dispatch.Dispatcher.
type AvailabilityBoard interface {
	ListAvailable(ctx context.Context, city string, near kernel.GeoPoint) []dispatch.Candidate
}

type GetAvailableDeliveriesQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
	board      AvailabilityBoard
}

func NewGetAvailableDeliveriesQueryHandler(
	uowFactory ports.UnitOfWorkFactory,
	board AvailabilityBoard,
) (*GetAvailableDeliveriesQueryHandler, error) {
	if uowFactory == nil {
		return nil, errs.NewValueIsRequiredError("uowFactory")
	}
	if board == nil {
		return nil, errs.NewValueIsRequiredError("board")
	}
	return &GetAvailableDeliveriesQueryHandler{uowFactory: uowFactory, board: board}, nil
}

func (h *GetAvailableDeliveriesQueryHandler) Handle(
	ctx context.Context,
	query GetAvailableDeliveriesQuery,
) ([]dispatch.Candidate, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	city, near := query.City(), query.Near()
	if city == "" || !near.IsKnown() {
		c, err := h.uowFactory.Create().CourierRepository().Get(ctx, query.CourierID())
		if err != nil {
			return nil, err
		}
		if city == "" {
			city = c.City()
		}
		if !near.IsKnown() {
			near = c.LastPoint()
		}
	}

	return h.board.ListAvailable(ctx, city, near), nil
}
