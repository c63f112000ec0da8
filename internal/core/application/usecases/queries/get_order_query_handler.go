package queries

import (
	"context"

	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// GetOrderQueryHandler reads one order. An order the viewer takes no part in is reported
// as not found so that order ids cannot be probed.
type GetOrderQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewGetOrderQueryHandler(uowFactory ports.UnitOfWorkFactory) (*GetOrderQueryHandler, error) {
	if uowFactory == nil {
		return nil, errs.NewValueIsRequiredError("uowFactory")
	}
	return &GetOrderQueryHandler{uowFactory: uowFactory}, nil
}

func (h *GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (OrderView, error) {
	if err := query.Validate(); err != nil {
		return OrderView{}, err
	}

	o, err := h.uowFactory.Create().OrderRepository().Get(ctx, query.OrderID())
	if err != nil {
		return OrderView{}, err
	}

	view, visible := NewOrderView(o, query.Viewer())
	if !visible {
		return OrderView{}, errs.NewObjectNotFoundError("order", query.OrderID().String())
	}
	return view, nil
}
