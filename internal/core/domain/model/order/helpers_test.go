package order_test

import (
	"testing"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type fixture struct {
	customer order.Actor
	owner    order.Actor
	courier  order.Actor
	admin    order.Actor
	shop     order.ShopRef
	orderID  kernel.UUID
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	customer, err := order.NewActor(order.RoleCustomer, kernel.NewUUID())
	require.NoError(t, err)
	owner, err := order.NewActor(order.RoleShopOwner, kernel.NewUUID())
	require.NoError(t, err)
	courier, err := order.NewActor(order.RoleCourier, kernel.NewUUID())
	require.NoError(t, err)
	admin, err := order.NewActor(order.RoleAdmin, kernel.NewUUID())
	require.NoError(t, err)
	point, err := kernel.NewGeoPoint(10.7769, 106.7009)
	require.NoError(t, err)

	return fixture{
		customer: customer,
		owner:    owner,
		courier:  courier,
		admin:    admin,
		shop: order.ShopRef{
			ID:      kernel.NewUUID(),
			OwnerID: owner.ID(),
			Name:    "Pho Thin",
			City:    "Ho Chi Minh",
			Point:   point,
		},
		orderID: kernel.NewUUID(),
	}
}

func (f fixture) newShopOrder(t *testing.T) *order.ShopOrder {
	t.Helper()

	item, err := order.NewLineItem(kernel.NewUUID(), "Pho", 50000, 2, "no onion")
	require.NoError(t, err)
	so, err := order.NewShopOrder(kernel.NewUUID(), f.orderID, f.customer.ID(), f.shop,
		[]order.LineItem{item}, 20000, testNow)
	require.NoError(t, err)
	return so
}

// inStatus drives a fresh ShopOrder through legal transitions until it reaches target.
func (f fixture) inStatus(t *testing.T, target order.Status) *order.ShopOrder {
	t.Helper()

	so := f.newShopOrder(t)
	switch target {
	case order.Pending:
	case order.Preparing:
		_, err := so.Transition(f.owner, order.Preparing, "", testNow)
		require.NoError(t, err)
	case order.OutOfDelivery:
		_, err := so.Transition(f.owner, order.Preparing, "", testNow)
		require.NoError(t, err)
		_, err = so.Transition(f.owner, order.OutOfDelivery, "", testNow)
		require.NoError(t, err)
		require.NoError(t, so.IssueOtp("482193"))
	case order.Delivered:
		so = f.inStatus(t, order.OutOfDelivery)
		require.NoError(t, so.Claim(f.courier.ID(), testNow))
		require.NoError(t, so.CompleteDelivery(f.courier, "482193", testNow))
	case order.Cancelled:
		_, err := so.Transition(f.customer, order.Cancelled, "changed my mind", testNow)
		require.NoError(t, err)
	default:
		t.Fatalf("unsupported target %s", target)
	}
	require.Equal(t, target, so.Status())
	return so
}
