package queries

import (
	"context"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

type GetDeliveredOrdersQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewGetDeliveredOrdersQueryHandler(uowFactory ports.UnitOfWorkFactory) (*GetDeliveredOrdersQueryHandler, error) {
	if uowFactory == nil {
		return nil, errs.NewValueIsRequiredError("uowFactory")
	}
	return &GetDeliveredOrdersQueryHandler{uowFactory: uowFactory}, nil
}

// Handle returns delivered ShopOrders, oldest delivery first.
func (h *GetDeliveredOrdersQueryHandler) Handle(
	ctx context.Context,
	query GetDeliveredOrdersQuery,
) ([]ShopOrderView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	filter := ports.DeliveredFilter{}
	if viewer := query.Viewer(); viewer.Role() == order.RoleCourier {
		id := viewer.ID()
		filter.CourierID = &id
	}
	if days := query.Days(); !days.From.IsZero() {
		filter.From = startOfDay(days.From)
	}
	if days := query.Days(); !days.To.IsZero() {
		filter.To = startOfDay(days.To).AddDate(0, 0, 1)
	}

	delivered, err := h.uowFactory.Create().OrderRepository().ListDelivered(ctx, filter)
	if err != nil {
		return nil, err
	}

	views := make([]ShopOrderView, 0, len(delivered))
	for _, so := range delivered {
		views = append(views, NewShopOrderView(so, false))
	}
	return views, nil
}
