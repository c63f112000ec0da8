package commands_test

import (
	"errors"
	"testing"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/events"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPlaceOrderCommandHandler_Handle_SplitsAndPrices(t *testing.T) {
	e := newEnv(t)

	o := e.placeOrder("cod")

	require.Len(t, o.ShopOrders(), 2)
	a, b := o.ShopOrders()[0], o.ShopOrders()[1]
	assert.True(t, a.Shop().ID.IsEqual(e.shopA.ID))
	assert.Equal(t, kernel.Money(100000), a.Subtotal())
	assert.Equal(t, kernel.Money(20000), a.DeliveryFee())
	assert.Equal(t, kernel.Money(15000), b.Subtotal())
	assert.Equal(t, kernel.Money(15000), b.DeliveryFee())
	assert.Equal(t, kernel.Money(150000), o.TotalAmount())
	assert.Equal(t, "less ice", b.Items()[0].Note())

	stored, err := e.uowFactory.Create().OrderRepository().Get(e.ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, o.TotalAmount(), stored.TotalAmount())
	for _, so := range stored.ShopOrders() {
		assert.Equal(t, order.Pending, so.Status())
	}

	updates := e.recorder.ofKind(events.KindStatusUpdate)
	require.Len(t, updates, 2)
	assert.Contains(t, updates[0].Topics(), events.ShopTopic(e.ownerA.ID()))
	assert.Contains(t, updates[1].Topics(), events.ShopTopic(e.ownerB.ID()))
}

func TestPlaceOrderCommandHandler_Handle_ResubmissionReturnsTheSameOrder(t *testing.T) {
	e := newEnv(t)
	cmd, err := commands.NewPlaceOrderCommand(kernel.NewUUID(), e.customer.ID(), e.addressID, "cod", e.cart())
	require.NoError(t, err)
	h := e.placeOrderHandler(nil)

	first, err := h.Handle(e.ctx, cmd)
	require.NoError(t, err)
	e.recorder.reset()

	second, err := h.Handle(e.ctx, cmd)
	require.NoError(t, err)

	assert.True(t, first.ID().IsEqual(second.ID()))
	assert.True(t, first.ShopOrders()[0].ID().IsEqual(second.ShopOrders()[0].ID()))
	assert.Empty(t, e.recorder.kinds())
}

func TestPlaceOrderCommandHandler_Handle_OrderIDOfAnotherCustomer(t *testing.T) {
	e := newEnv(t)
	o := e.placeOrder("cod")

	other := actor(t, order.RoleCustomer)
	addressID := kernel.NewUUID()
	require.NoError(t, e.store.PutAddress(other.ID(), addressID, order.Address{Street: "1 Nguyen Hue", City: "Ho Chi Minh"}))
	cmd, err := commands.NewPlaceOrderCommand(o.ID(), other.ID(), addressID, "cod", e.cart())
	require.NoError(t, err)

	_, err = e.placeOrderHandler(nil).Handle(e.ctx, cmd)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestPlaceOrderCommandHandler_Handle_Geocoding(t *testing.T) {
	tests := []struct {
		name  string
		point kernel.GeoPoint
		err   error
		total kernel.Money
	}{
		{"resolved", origin, nil, 150000},
		{"geocoder down falls back to base fee", kernel.UnknownPoint(), errors.New("upstream timeout"), 145000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			addressID := kernel.NewUUID()
			address := order.Address{Street: "7 Lam Son", District: "1", City: "Ho Chi Minh"}
			require.NoError(t, e.store.PutAddress(e.customer.ID(), addressID, address))

			geocoder := new(MockGeocoder)
			geocoder.On("Geocode", mock.Anything, address.Line()).Return(tt.point, tt.err).Once()

			cmd, err := commands.NewPlaceOrderCommand(kernel.NewUUID(), e.customer.ID(), addressID, "cod", e.cart())
			require.NoError(t, err)
			o, err := e.placeOrderHandler(geocoder).Handle(e.ctx, cmd)

			require.NoError(t, err)
			assert.Equal(t, tt.total, o.TotalAmount())
			geocoder.AssertExpectations(t)
		})
	}
}

func TestPlaceOrderCommandHandler_Handle_KnownPointSkipsGeocoder(t *testing.T) {
	e := newEnv(t)
	geocoder := new(MockGeocoder)

	cmd, err := commands.NewPlaceOrderCommand(kernel.NewUUID(), e.customer.ID(), e.addressID, "cod", e.cart())
	require.NoError(t, err)
	_, err = e.placeOrderHandler(geocoder).Handle(e.ctx, cmd)

	require.NoError(t, err)
	geocoder.AssertNotCalled(t, "Geocode", mock.Anything, mock.Anything)
}

func TestPlaceOrderCommandHandler_Handle_Rejects(t *testing.T) {
	e := newEnv(t)

	t.Run("unknown address", func(t *testing.T) {
		cmd, err := commands.NewPlaceOrderCommand(kernel.NewUUID(), e.customer.ID(), kernel.NewUUID(), "cod", e.cart())
		require.NoError(t, err)
		_, err = e.placeOrderHandler(nil).Handle(e.ctx, cmd)
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})

	t.Run("item of another shop", func(t *testing.T) {
		lines := []services.CartLine{{ShopID: e.shopA.ID, ItemID: e.tea.ID, Quantity: 1}}
		cmd, err := commands.NewPlaceOrderCommand(kernel.NewUUID(), e.customer.ID(), e.addressID, "cod", lines)
		require.NoError(t, err)
		_, err = e.placeOrderHandler(nil).Handle(e.ctx, cmd)
		require.ErrorIs(t, err, order.ErrInvalidCart)
	})

	t.Run("unknown item", func(t *testing.T) {
		lines := []services.CartLine{{ShopID: e.shopA.ID, ItemID: kernel.NewUUID(), Quantity: 1}}
		cmd, err := commands.NewPlaceOrderCommand(kernel.NewUUID(), e.customer.ID(), e.addressID, "cod", lines)
		require.NoError(t, err)
		_, err = e.placeOrderHandler(nil).Handle(e.ctx, cmd)
		require.ErrorIs(t, err, order.ErrInvalidCart)
	})

	t.Run("not constructed", func(t *testing.T) {
		_, err := e.placeOrderHandler(nil).Handle(e.ctx, commands.PlaceOrderCommand{})
		require.ErrorIs(t, err, commands.ErrPlaceOrderCommandIsNotConstructed)
	})
}
