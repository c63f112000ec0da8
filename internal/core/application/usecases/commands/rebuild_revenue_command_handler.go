package commands

import (
	"context"

	"fulfillment/internal/core/domain/model/events"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// RevenueRebuilder is implemented by *revenue.Projection.
type RevenueRebuilder interface {
	Rebuild(history []events.Delivered) int
}

// RebuildRevenueCommandHandler reads every delivered ShopOrder and hands the history to
// the projection. It returns the number of deliveries the projection holds afterwards.
type RebuildRevenueCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	projection RevenueRebuilder
}

func NewRebuildRevenueCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	projection RevenueRebuilder,
) (*RebuildRevenueCommandHandler, error) {
	if uowFactory == nil {
		return nil, errs.NewValueIsRequiredError("uowFactory")
	}
	if projection == nil {
		return nil, errs.NewValueIsRequiredError("projection")
	}
	return &RebuildRevenueCommandHandler{uowFactory: uowFactory, projection: projection}, nil
}

func (h *RebuildRevenueCommandHandler) Handle(ctx context.Context, cmd RebuildRevenueCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	delivered, err := h.uowFactory.Create().OrderRepository().ListDelivered(ctx, ports.DeliveredFilter{})
	if err != nil {
		return 0, err
	}

	history := make([]events.Delivered, 0, len(delivered))
	for _, so := range delivered {
		if record, ok := events.NewDeliveredFor(so); ok {
			history = append(history, record)
		}
	}
	return h.projection.Rebuild(history), nil
}
