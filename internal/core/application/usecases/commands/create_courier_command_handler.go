package commands

import (
	"context"

	"fulfillment/internal/core/domain/model/courier"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// CreateCourierCommandHandler persists new couriers. A new courier is idle and has no
// known position until their first location update.
type CreateCourierCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewCreateCourierCommandHandler(uowFactory ports.UnitOfWorkFactory) (*CreateCourierCommandHandler, error) {
	if uowFactory == nil {
		return nil, errs.NewValueIsRequiredError("uowFactory")
	}
	return &CreateCourierCommandHandler{uowFactory: uowFactory}, nil
}

func (h *CreateCourierCommandHandler) Handle(ctx context.Context, cmd CreateCourierCommand) (*courier.Courier, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	created, err := courier.NewCourier(cmd.CourierID(), cmd.Name(), cmd.Phone(), cmd.City())
	if err != nil {
		return nil, err
	}

	if err = uow.CourierRepository().Add(ctx, created); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return created, nil
}
