package commands_test

import (
	"testing"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUpdateCourierLocationCommand(t *testing.T) {
	_, err := commands.NewUpdateCourierLocationCommand(actor(t, order.RoleCustomer), 10.7, 106.7)
	require.ErrorIs(t, err, order.ErrForbidden)

	_, err = commands.NewUpdateCourierLocationCommand(actor(t, order.RoleCourier), 91, 106.7)
	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
}

func TestUpdateCourierLocationCommandHandler_Handle(t *testing.T) {
	e := newEnv(t)
	rider := e.addCourier("An", kernel.UnknownPoint())
	h, err := commands.NewUpdateCourierLocationCommandHandler(e.uowFactory, e.clock)
	require.NoError(t, err)

	cmd, err := commands.NewUpdateCourierLocationCommand(e.courierActor(rider), origin.Lat(), origin.Lon())
	require.NoError(t, err)
	updated, err := h.Handle(e.ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, origin, updated.LastPoint())
	assert.Equal(t, fixedNow, updated.LocatedAt())

	stored, err := e.uowFactory.Create().CourierRepository().Get(e.ctx, rider.ID())
	require.NoError(t, err)
	assert.Equal(t, origin, stored.LastPoint())

	t.Run("unregistered courier", func(t *testing.T) {
		cmd, err := commands.NewUpdateCourierLocationCommand(actor(t, order.RoleCourier), origin.Lat(), origin.Lon())
		require.NoError(t, err)
		_, err = h.Handle(e.ctx, cmd)
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})
}
