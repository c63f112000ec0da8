package commands

import (
	"context"

	"fulfillment/internal/core/domain/model/courier"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

type UpdateCourierLocationCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	clock      ports.Clock
}

func NewUpdateCourierLocationCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	clock ports.Clock,
) (*UpdateCourierLocationCommandHandler, error) {
	if uowFactory == nil {
		return nil, errs.NewValueIsRequiredError("uowFactory")
	}
	if clock == nil {
		clock = ports.SystemClock
	}
	return &UpdateCourierLocationCommandHandler{uowFactory: uowFactory, clock: clock}, nil
}

func (h *UpdateCourierLocationCommandHandler) Handle(
	ctx context.Context,
	cmd UpdateCourierLocationCommand,
) (*courier.Courier, error) {
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

	courierRepo := uow.CourierRepository()
	c, err := courierRepo.Get(ctx, cmd.CourierID())
	if err != nil {
		return nil, err
	}

	if err = c.UpdateLocation(cmd.Point(), h.clock.Now()); err != nil {
		return nil, err
	}

	if err = courierRepo.UpdateLocation(ctx, c); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return c, nil
}
