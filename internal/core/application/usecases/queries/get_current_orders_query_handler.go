package queries

import (
	"context"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

var activeStatuses = []order.Status{order.Pending, order.Preparing, order.OutOfDelivery}

type GetCurrentOrdersQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewGetCurrentOrdersQueryHandler(uowFactory ports.UnitOfWorkFactory) (*GetCurrentOrdersQueryHandler, error) {
	if uowFactory == nil {
		return nil, errs.NewValueIsRequiredError("uowFactory")
	}
	return &GetCurrentOrdersQueryHandler{uowFactory: uowFactory}, nil
}

// Handle returns one view per matching order, restricted to the viewer's ShopOrders.
func (h *GetCurrentOrdersQueryHandler) Handle(ctx context.Context, query GetCurrentOrdersQuery) ([]OrderView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	filter, err := currentFilter(query.Viewer(), query.Limit())
	if err != nil {
		return nil, err
	}

	orders, err := h.uowFactory.Create().OrderRepository().List(ctx, filter)
	if err != nil {
		return nil, err
	}

	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		if view, visible := NewOrderView(o, query.Viewer()); visible {
			views = append(views, view)
		}
	}
	return views, nil
}

func currentFilter(viewer order.Actor, limit int) (ports.OrderFilter, error) {
	id := viewer.ID()
	filter := ports.OrderFilter{Statuses: activeStatuses, Limit: limit}

	switch viewer.Role() {
	case order.RoleCustomer:
		filter.CustomerID = &id
	case order.RoleShopOwner:
		filter.ShopOwnerID = &id
	case order.RoleCourier:
		filter.CourierID = &id
		filter.Statuses = []order.Status{order.OutOfDelivery}
	case order.RoleAdmin:
	default:
		return ports.OrderFilter{}, order.NewForbiddenError(viewer.Role(), "list current orders")
	}
	return filter, nil
}
