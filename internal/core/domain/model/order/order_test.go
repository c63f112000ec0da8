package order_test

import (
	"testing"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddress() order.Address {
	return order.Address{Street: "12 Ly Tu Trong", District: "District 1", City: "Ho Chi Minh"}
}

func shopOrderFor(t *testing.T, f fixture, orderID kernel.UUID, name string, price kernel.Money, fee kernel.Money) *order.ShopOrder {
	t.Helper()

	shop := f.shop
	shop.ID = kernel.NewUUID()
	shop.Name = name
	item, err := order.NewLineItem(kernel.NewUUID(), name+" special", price, 1, "")
	require.NoError(t, err)
	so, err := order.NewShopOrder(kernel.NewUUID(), orderID, f.customer.ID(), shop, []order.LineItem{item}, fee, testNow)
	require.NoError(t, err)
	return so
}

func TestNewOrder_TotalAmount(t *testing.T) {
	f := newFixture(t)
	orderID := kernel.NewUUID()
	first := shopOrderFor(t, f, orderID, "Banh Mi", 60000, 20000)
	second := shopOrderFor(t, f, orderID, "Che", 55000, 15000)

	o, err := order.NewOrder(orderID, f.customer.ID(), testAddress(), order.PaymentCOD,
		[]*order.ShopOrder{first, second}, testNow)

	require.NoError(t, err)
	assert.Equal(t, kernel.Money(150000), o.TotalAmount())
	assert.False(t, o.IsPaid())
	assert.True(t, o.IsActive())
	require.Len(t, o.ShopOrders(), 2)
	assert.True(t, o.ShopOrders()[0].ID().IsEqual(first.ID()))
}

func TestNewOrder_Rejects(t *testing.T) {
	f := newFixture(t)
	orderID := kernel.NewUUID()

	t.Run("no shop orders", func(t *testing.T) {
		_, err := order.NewOrder(orderID, f.customer.ID(), testAddress(), order.PaymentCOD, nil, testNow)

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("shop order of another order", func(t *testing.T) {
		foreign := shopOrderFor(t, f, kernel.NewUUID(), "Com Tam", 40000, 15000)

		_, err := order.NewOrder(orderID, f.customer.ID(), testAddress(), order.PaymentCOD,
			[]*order.ShopOrder{foreign}, testNow)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("same shop twice", func(t *testing.T) {
		first := shopOrderFor(t, f, orderID, "Com Tam", 40000, 15000)
		item, _ := order.NewLineItem(kernel.NewUUID(), "Tra Da", 5000, 1, "")
		dup, err := order.NewShopOrder(kernel.NewUUID(), orderID, f.customer.ID(), first.Shop(),
			[]order.LineItem{item}, 15000, testNow)
		require.NoError(t, err)

		_, err = order.NewOrder(orderID, f.customer.ID(), testAddress(), order.PaymentCOD,
			[]*order.ShopOrder{first, dup}, testNow)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("missing street", func(t *testing.T) {
		so := shopOrderFor(t, f, orderID, "Com Tam", 40000, 15000)

		_, err := order.NewOrder(orderID, f.customer.ID(), order.Address{City: "Hue"}, order.PaymentCOD,
			[]*order.ShopOrder{so}, testNow)

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("unknown payment method", func(t *testing.T) {
		so := shopOrderFor(t, f, orderID, "Com Tam", 40000, 15000)

		_, err := order.NewOrder(orderID, f.customer.ID(), testAddress(), order.PaymentMethod("barter"),
			[]*order.ShopOrder{so}, testNow)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestOrder_Lookup(t *testing.T) {
	f := newFixture(t)
	orderID := kernel.NewUUID()
	so := shopOrderFor(t, f, orderID, "Bun Cha", 45000, 15000)
	o, err := order.NewOrder(orderID, f.customer.ID(), testAddress(), order.PaymentCOD,
		[]*order.ShopOrder{so}, testNow)
	require.NoError(t, err)

	found, err := o.ShopOrder(so.ID())
	require.NoError(t, err)
	assert.Same(t, so, found)

	found, err = o.ShopOrderForShop(so.Shop().ID)
	require.NoError(t, err)
	assert.Same(t, so, found)

	_, err = o.ShopOrder(kernel.NewUUID())
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
	_, err = o.ShopOrderForShop(kernel.NewUUID())
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestOrder_MarkPaid(t *testing.T) {
	f := newFixture(t)

	t.Run("online settles every shop order once", func(t *testing.T) {
		orderID := kernel.NewUUID()
		first := shopOrderFor(t, f, orderID, "Banh Mi", 60000, 20000)
		second := shopOrderFor(t, f, orderID, "Che", 55000, 15000)
		o, err := order.NewOrder(orderID, f.customer.ID(), testAddress(), order.PaymentOnline,
			[]*order.ShopOrder{first, second}, testNow)
		require.NoError(t, err)

		changed, err := o.MarkPaid(testNow)
		require.NoError(t, err)
		assert.Len(t, changed, 2)
		assert.True(t, o.IsPaid())
		assert.True(t, first.IsPaid())

		changed, err = o.MarkPaid(testNow)
		require.NoError(t, err)
		assert.Empty(t, changed)
	})

	t.Run("cash on delivery is rejected", func(t *testing.T) {
		orderID := kernel.NewUUID()
		so := shopOrderFor(t, f, orderID, "Banh Mi", 60000, 20000)
		o, err := order.NewOrder(orderID, f.customer.ID(), testAddress(), order.PaymentCOD,
			[]*order.ShopOrder{so}, testNow)
		require.NoError(t, err)

		_, err = o.MarkPaid(testNow)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.False(t, so.IsPaid())
	})
}

func TestOrder_IsActive(t *testing.T) {
	f := newFixture(t)
	orderID := kernel.NewUUID()
	so := shopOrderFor(t, f, orderID, "Banh Mi", 60000, 20000)
	o, err := order.NewOrder(orderID, f.customer.ID(), testAddress(), order.PaymentCOD,
		[]*order.ShopOrder{so}, testNow)
	require.NoError(t, err)

	_, err = so.Transition(f.customer, order.Cancelled, "wrong address", testNow)
	require.NoError(t, err)

	assert.False(t, o.IsActive())
}
