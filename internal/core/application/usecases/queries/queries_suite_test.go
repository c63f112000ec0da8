package queries_test

import (
	"context"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/memory"
	"fulfillment/internal/core/application/dispatch"
	"fulfillment/internal/core/application/revenue"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/courier"
	"fulfillment/internal/core/domain/model/events"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var now = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type discard struct{}

func (discard) Publish(context.Context, ...events.Event) error { return nil }

type QueriesSuite struct {
	suite.Suite

	ctx        context.Context
	store      *memory.Store
	uowFactory *memory.UnitOfWorkFactory
	dispatcher *dispatch.Dispatcher
	projection *revenue.Projection

	customer order.Actor
	owner    order.Actor
	rider    order.Actor
	shop     order.ShopRef
	pho      services.CatalogItem
}

func TestQueriesSuite(t *testing.T) {
	suite.Run(t, new(QueriesSuite))
}

func (s *QueriesSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.uowFactory = memory.NewUnitOfWorkFactory(s.store)
	clock := ports.ClockFunc(func() time.Time { return now })

	var err error
	s.dispatcher, err = dispatch.NewDispatcher(s.uowFactory, discard{}, nil, clock, nil)
	s.Require().NoError(err)
	s.projection = revenue.NewProjection(nil, clock, nil)

	s.customer = s.actor(order.RoleCustomer, kernel.NewUUID())
	s.owner = s.actor(order.RoleShopOwner, kernel.NewUUID())
	s.rider = s.actor(order.RoleCourier, kernel.NewUUID())

	point, err := kernel.NewGeoPoint(10.7769, 106.7009)
	s.Require().NoError(err)
	s.shop = order.ShopRef{ID: kernel.NewUUID(), OwnerID: s.owner.ID(), Name: "Pho Hoa", City: "Ho Chi Minh", Point: point}
	s.pho = services.CatalogItem{ID: kernel.NewUUID(), ShopID: s.shop.ID, Name: "Pho", Price: 50000, Available: true}
	s.Require().NoError(s.store.PutShop(s.shop))
	s.Require().NoError(s.store.PutItem(s.pho))

	c, err := courier.NewCourier(s.rider.ID(), "An", "0900000000", "Ho Chi Minh")
	s.Require().NoError(err)
	s.Require().NoError(c.UpdateLocation(point, now))
	s.Require().NoError(s.uowFactory.Create().CourierRepository().Add(s.ctx, c))
}

func (s *QueriesSuite) actor(role order.Role, id kernel.UUID) order.Actor {
	a, err := order.NewActor(role, id)
	s.Require().NoError(err)
	return a
}

// place stores a one-shop order of two bowls of pho: subtotal 100000 and the base fee.
func (s *QueriesSuite) place() (*order.Order, *order.ShopOrder) {
	fees, err := services.NewFeeCalculator(15000, 5000, 3)
	s.Require().NoError(err)
	o, err := services.NewOrderSplitter(fees).Split(
		services.Checkout{
			OrderID:       kernel.NewUUID(),
			CustomerID:    s.customer.ID(),
			Address:       order.Address{Street: "7 Lam Son", City: "Ho Chi Minh", Point: s.shop.Point},
			PaymentMethod: order.PaymentCOD,
			Now:           now,
		},
		[]services.CartLine{{ShopID: s.shop.ID, ItemID: s.pho.ID, Quantity: 2}},
		services.Catalog{
			Shops: map[kernel.UUID]order.ShopRef{s.shop.ID: s.shop},
			Items: map[kernel.UUID]services.CatalogItem{s.pho.ID: s.pho},
		},
	)
	s.Require().NoError(err)
	s.Require().NoError(s.uowFactory.Create().OrderRepository().Add(s.ctx, o))
	return o, o.ShopOrders()[0]
}

func (s *QueriesSuite) advance(so *order.ShopOrder, to order.Status) {
	_, err := so.Transition(s.owner, to, "", now)
	s.Require().NoError(err)
	if to == order.OutOfDelivery {
		s.Require().NoError(so.IssueOtp("482193"))
	}
	s.Require().NoError(s.uowFactory.Create().OrderRepository().UpdateShopOrder(s.ctx, so))
}

// deliver takes a fresh order all the way to delivered by s.rider.
func (s *QueriesSuite) deliver() (*order.Order, *order.ShopOrder) {
	o, so := s.place()
	s.advance(so, order.Preparing)
	s.advance(so, order.OutOfDelivery)
	s.Require().NoError(so.Claim(s.rider.ID(), now))
	s.Require().NoError(s.uowFactory.Create().OrderRepository().ClaimShopOrder(s.ctx, so))
	s.Require().NoError(so.CompleteDelivery(s.rider, "482193", now))
	s.Require().NoError(s.uowFactory.Create().OrderRepository().UpdateShopOrder(s.ctx, so))

	record, ok := events.NewDeliveredFor(so)
	s.Require().True(ok)
	s.projection.Ingest(record)
	return o, so
}

func (s *QueriesSuite) TestGetOrder_VisibilityPerRole() {
	h, err := queries.NewGetOrderQueryHandler(s.uowFactory)
	s.Require().NoError(err)
	o, so := s.place()
	s.advance(so, order.Preparing)
	s.advance(so, order.OutOfDelivery)

	view := func(viewer order.Actor) (queries.OrderView, error) {
		q, err := queries.NewGetOrderQuery(viewer, o.ID())
		s.Require().NoError(err)
		return h.Handle(s.ctx, q)
	}

	mine, err := view(s.customer)
	s.Require().NoError(err)
	s.Require().Len(mine.ShopOrders, 1)
	s.Equal("out of delivery", mine.ShopOrders[0].Status)
	s.Equal("482193", mine.ShopOrders[0].DeliveryOtp)
	s.Equal(int64(115000), mine.TotalAmount)
	s.Require().NotNil(mine.Address.Lat)

	shops, err := view(s.owner)
	s.Require().NoError(err)
	s.Require().Len(shops.ShopOrders, 1)
	s.Empty(shops.ShopOrders[0].DeliveryOtp)

	_, err = view(s.rider)
	s.Require().ErrorIs(err, errs.ErrObjectNotFound)
	_, err = view(s.actor(order.RoleCustomer, kernel.NewUUID()))
	s.Require().ErrorIs(err, errs.ErrObjectNotFound)

	admin, err := view(s.actor(order.RoleAdmin, kernel.NewUUID()))
	s.Require().NoError(err)
	s.Len(admin.ShopOrders, 1)
}

func (s *QueriesSuite) TestGetOrder_Unknown() {
	h, err := queries.NewGetOrderQueryHandler(s.uowFactory)
	s.Require().NoError(err)
	q, err := queries.NewGetOrderQuery(s.customer, kernel.NewUUID())
	s.Require().NoError(err)

	_, err = h.Handle(s.ctx, q)

	s.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (s *QueriesSuite) TestGetCurrentOrders() {
	h, err := queries.NewGetCurrentOrdersQueryHandler(s.uowFactory)
	s.Require().NoError(err)
	pending, _ := s.place()
	delivered, _ := s.deliver()

	current := func(viewer order.Actor) []queries.OrderView {
		q, err := queries.NewGetCurrentOrdersQuery(viewer, 0)
		s.Require().NoError(err)
		views, err := h.Handle(s.ctx, q)
		s.Require().NoError(err)
		return views
	}

	ids := func(views []queries.OrderView) []kernel.UUID {
		out := make([]kernel.UUID, 0, len(views))
		for _, v := range views {
			out = append(out, v.ID)
		}
		return out
	}

	s.Equal([]kernel.UUID{pending.ID()}, ids(current(s.customer)))
	s.Equal([]kernel.UUID{pending.ID()}, ids(current(s.owner)))
	s.Empty(current(s.rider))
	s.NotContains(ids(current(s.actor(order.RoleAdmin, kernel.NewUUID()))), delivered.ID())
}

func (s *QueriesSuite) TestGetAvailableDeliveries_FallsBackToCourierProfile() {
	h, err := queries.NewGetAvailableDeliveriesQueryHandler(s.uowFactory, s.dispatcher)
	s.Require().NoError(err)
	o, so := s.place()
	s.advance(so, order.Preparing)
	s.advance(so, order.OutOfDelivery)
	s.Require().NoError(s.dispatcher.Publish(s.ctx, o, so))

	q, err := queries.NewGetAvailableDeliveriesQuery(s.rider, "", kernel.UnknownPoint())
	s.Require().NoError(err)
	available, err := h.Handle(s.ctx, q)

	s.Require().NoError(err)
	s.Require().Len(available, 1)
	s.True(available[0].ShopOrderID.IsEqual(so.ID()))
	s.InDelta(0, available[0].DistanceKm, 0.001)

	q, err = queries.NewGetAvailableDeliveriesQuery(s.rider, "Da Nang", kernel.UnknownPoint())
	s.Require().NoError(err)
	elsewhere, err := h.Handle(s.ctx, q)
	s.Require().NoError(err)
	s.Empty(elsewhere)

	_, err = queries.NewGetAvailableDeliveriesQuery(s.customer, "", kernel.UnknownPoint())
	s.Require().ErrorIs(err, order.ErrForbidden)
}

func (s *QueriesSuite) TestGetDeliveredOrders() {
	h, err := queries.NewGetDeliveredOrdersQueryHandler(s.uowFactory)
	s.Require().NoError(err)
	_, so := s.deliver()
	s.place()

	list := func(viewer order.Actor, days revenue.DateRange) []queries.ShopOrderView {
		q, err := queries.NewGetDeliveredOrdersQuery(viewer, days)
		s.Require().NoError(err)
		views, err := h.Handle(s.ctx, q)
		s.Require().NoError(err)
		return views
	}

	mine := list(s.rider, revenue.DateRange{From: now, To: now})
	s.Require().Len(mine, 1)
	s.True(mine[0].ID.IsEqual(so.ID()))
	s.Empty(mine[0].DeliveryOtp)

	s.Empty(list(s.actor(order.RoleCourier, kernel.NewUUID()), revenue.DateRange{}))
	s.Empty(list(s.rider, revenue.DateRange{From: now.AddDate(0, 0, 1)}))
	s.Len(list(s.actor(order.RoleAdmin, kernel.NewUUID()), revenue.DateRange{}), 1)

	_, err = queries.NewGetDeliveredOrdersQuery(s.customer, revenue.DateRange{})
	s.Require().ErrorIs(err, order.ErrForbidden)
	_, err = queries.NewGetDeliveredOrdersQuery(s.rider, revenue.DateRange{From: now, To: now.AddDate(0, 0, -2)})
	s.Require().ErrorIs(err, errs.ErrValueIsInvalid)
}

func (s *QueriesSuite) TestRevenueQueries() {
	s.deliver()
	s.deliver()
	admin := s.actor(order.RoleAdmin, kernel.NewUUID())

	s.Run("courier earnings", func() {
		h, err := queries.NewGetCourierRevenueQueryHandler(s.projection)
		s.Require().NoError(err)
		q, err := queries.NewGetCourierRevenueQuery(s.rider, s.rider.ID(), nil)
		s.Require().NoError(err)

		earnings, err := h.Handle(s.ctx, q)

		s.Require().NoError(err)
		s.Equal(int64(30000), earnings.Today.Amount)
		s.Equal(2, earnings.Month.Count)

		_, err = queries.NewGetCourierRevenueQuery(s.actor(order.RoleCourier, kernel.NewUUID()), s.rider.ID(), nil)
		s.Require().ErrorIs(err, order.ErrForbidden)
		_, err = queries.NewGetCourierRevenueQuery(admin, s.rider.ID(), nil)
		s.Require().NoError(err)
	})

	s.Run("shop revenue", func() {
		h, err := queries.NewGetShopRevenueQueryHandler(s.store, s.projection)
		s.Require().NoError(err)
		days := &revenue.DateRange{From: now, To: now}
		q, err := queries.NewGetShopRevenueQuery(s.owner, s.shop.ID, days)
		s.Require().NoError(err)

		shop, err := h.Handle(s.ctx, q)

		s.Require().NoError(err)
		s.Equal(int64(230000), shop.Total.Amount)
		s.Require().NotNil(shop.Range)
		s.Equal(2, shop.Range.Count)

		q, err = queries.NewGetShopRevenueQuery(s.actor(order.RoleShopOwner, kernel.NewUUID()), s.shop.ID, nil)
		s.Require().NoError(err)
		_, err = h.Handle(s.ctx, q)
		s.Require().ErrorIs(err, order.ErrForbidden)

		q, err = queries.NewGetShopRevenueQuery(s.owner, kernel.NewUUID(), nil)
		s.Require().NoError(err)
		_, err = h.Handle(s.ctx, q)
		s.Require().ErrorIs(err, errs.ErrObjectNotFound)
	})

	s.Run("summary", func() {
		h, err := queries.NewGetRevenueSummaryQueryHandler(s.projection)
		s.Require().NoError(err)
		q, err := queries.NewGetRevenueSummaryQuery(admin, 0)
		s.Require().NoError(err)

		summary, err := h.Handle(s.ctx, q)

		s.Require().NoError(err)
		s.Equal(int64(230000), summary.Today.Amount)
		s.Require().Len(summary.TopItems, 1)
		s.Equal(4, summary.TopItems[0].Sold)

		_, err = queries.NewGetRevenueSummaryQuery(s.owner, 0)
		s.Require().ErrorIs(err, order.ErrForbidden)
	})
}

func TestGetOrderQueryHandler_RejectsZeroQuery(t *testing.T) {
	h, err := queries.NewGetOrderQueryHandler(memory.NewUnitOfWorkFactory(memory.NewStore()))
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), queries.GetOrderQuery{})

	require.ErrorIs(t, err, queries.ErrGetOrderQueryIsNotConstructed)
}
