package commands_test

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/memory"
	"fulfillment/internal/core/application/dispatch"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/courier"
	"fulfillment/internal/core/domain/model/events"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// Saigon Opera House.
var origin = mustPoint(10.7769, 106.7009)

func mustPoint(lat, lon float64) kernel.GeoPoint {
	p, err := kernel.NewGeoPoint(lat, lon)
	if err != nil {
		panic(err)
	}
	return p
}

func northOf(p kernel.GeoPoint, km float64) kernel.GeoPoint {
	kmPerDegree := kernel.EarthRadiusKm * math.Pi / 180
	return mustPoint(p.Lat()+km/kmPerDegree, p.Lon())
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, evts ...events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evts...)
	return nil
}

func (r *recorder) kinds() []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Kind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind())
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func (r *recorder) ofKind(kind events.Kind) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Kind() == kind {
			out = append(out, e)
		}
	}
	return out
}

type MockGeocoder struct{ mock.Mock }

func (m *MockGeocoder) Geocode(ctx context.Context, address string) (kernel.GeoPoint, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(kernel.GeoPoint), args.Error(1)
}

// env is a full application core on the memory adapter: shop A about 4 km and shop B
// 1 km from the customer's saved address at origin.
type env struct {
	t          *testing.T
	ctx        context.Context
	store      *memory.Store
	uowFactory *memory.UnitOfWorkFactory
	recorder   *recorder
	dispatcher *dispatch.Dispatcher
	otp        services.OtpIssuer
	splitter   services.OrderSplitter
	clock      ports.Clock

	customer  order.Actor
	addressID kernel.UUID
	ownerA    order.Actor
	ownerB    order.Actor
	shopA     order.ShopRef
	shopB     order.ShopRef
	pho       services.CatalogItem
	tea       services.CatalogItem
}

func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		t:         t,
		ctx:       context.Background(),
		store:     memory.NewStore(),
		recorder:  &recorder{},
		clock:     ports.ClockFunc(func() time.Time { return fixedNow }),
		customer:  actor(t, order.RoleCustomer),
		ownerA:    actor(t, order.RoleShopOwner),
		ownerB:    actor(t, order.RoleShopOwner),
		addressID: kernel.NewUUID(),
	}
	e.uowFactory = memory.NewUnitOfWorkFactory(e.store)

	var err error
	e.dispatcher, err = dispatch.NewDispatcher(e.uowFactory, e.recorder, nil, e.clock, nil)
	require.NoError(t, err)
	e.otp, err = services.NewOtpIssuer(services.DefaultOtpLength)
	require.NoError(t, err)
	fees, err := services.NewFeeCalculator(15000, 5000, 3)
	require.NoError(t, err)
	e.splitter = services.NewOrderSplitter(fees)

	e.shopA = order.ShopRef{ID: kernel.NewUUID(), OwnerID: e.ownerA.ID(), Name: "Pho Hoa", City: "Ho Chi Minh",
		Point: northOf(origin, 3.9)}
	e.shopB = order.ShopRef{ID: kernel.NewUUID(), OwnerID: e.ownerB.ID(), Name: "Tra Sua", City: "Ho Chi Minh",
		Point: northOf(origin, 1)}
	e.pho = services.CatalogItem{ID: kernel.NewUUID(), ShopID: e.shopA.ID, Name: "Pho", Price: 50000, Available: true}
	e.tea = services.CatalogItem{ID: kernel.NewUUID(), ShopID: e.shopB.ID, Name: "Tea", Price: 15000, Available: true}

	require.NoError(t, e.store.PutShop(e.shopA))
	require.NoError(t, e.store.PutShop(e.shopB))
	require.NoError(t, e.store.PutItem(e.pho))
	require.NoError(t, e.store.PutItem(e.tea))
	require.NoError(t, e.store.PutAddress(e.customer.ID(), e.addressID,
		order.Address{Street: "7 Lam Son", District: "1", City: "Ho Chi Minh", Point: origin}))
	return e
}

func actor(t *testing.T, role order.Role) order.Actor {
	t.Helper()
	a, err := order.NewActor(role, kernel.NewUUID())
	require.NoError(t, err)
	return a
}

func (e *env) cart() []services.CartLine {
	return []services.CartLine{
		{ShopID: e.shopA.ID, ItemID: e.pho.ID, Quantity: 2},
		{ShopID: e.shopB.ID, ItemID: e.tea.ID, Quantity: 1, Note: "less ice"},
	}
}

func (e *env) placeOrderHandler(geocoder ports.Geocoder) *commands.PlaceOrderCommandHandler {
	h, err := commands.NewPlaceOrderCommandHandler(e.uowFactory, e.store, e.store.AddressBook(), geocoder,
		e.splitter, e.dispatcher, e.recorder, e.clock, nil)
	require.NoError(e.t, err)
	return h
}

func (e *env) statusHandler() *commands.ChangeShopOrderStatusCommandHandler {
	h, err := commands.NewChangeShopOrderStatusCommandHandler(e.uowFactory, e.dispatcher, e.otp, e.recorder, e.clock, nil)
	require.NoError(e.t, err)
	return h
}

func (e *env) verifyHandler() *commands.VerifyDeliveryOtpCommandHandler {
	h, err := commands.NewVerifyDeliveryOtpCommandHandler(e.uowFactory, e.dispatcher, e.otp, e.recorder, e.clock, nil)
	require.NoError(e.t, err)
	return h
}

func (e *env) placeOrder(method string) *order.Order {
	e.t.Helper()
	cmd, err := commands.NewPlaceOrderCommand(kernel.NewUUID(), e.customer.ID(), e.addressID, method, e.cart())
	require.NoError(e.t, err)
	o, err := e.placeOrderHandler(nil).Handle(e.ctx, cmd)
	require.NoError(e.t, err)
	return o
}

func (e *env) changeStatus(owner order.Actor, o *order.Order, shop order.ShopRef, status string) (commands.StatusChange, error) {
	e.t.Helper()
	cmd, err := commands.NewChangeShopOrderStatusCommand(owner, o.ID(), shop.ID, status, "")
	require.NoError(e.t, err)
	return e.statusHandler().Handle(e.ctx, cmd)
}

// outForDelivery places an order and sends shop A's ShopOrder out for delivery.
func (e *env) outForDelivery() (*order.Order, *order.ShopOrder) {
	e.t.Helper()
	o := e.placeOrder("cod")
	_, err := e.changeStatus(e.ownerA, o, e.shopA, "preparing")
	require.NoError(e.t, err)
	change, err := e.changeStatus(e.ownerA, o, e.shopA, "out of delivery")
	require.NoError(e.t, err)
	return o, change.ShopOrder
}

func (e *env) addCourier(name string, point kernel.GeoPoint) *courier.Courier {
	e.t.Helper()
	c, err := courier.NewCourier(kernel.NewUUID(), name, "0900000000", "Ho Chi Minh")
	require.NoError(e.t, err)
	if point.IsKnown() {
		require.NoError(e.t, c.UpdateLocation(point, fixedNow))
	}
	require.NoError(e.t, e.uowFactory.Create().CourierRepository().Add(e.ctx, c))
	return c
}

func (e *env) courierActor(c *courier.Courier) order.Actor {
	a, err := order.NewActor(order.RoleCourier, c.ID())
	require.NoError(e.t, err)
	return a
}

func (e *env) claim(c *courier.Courier, o *order.Order, so *order.ShopOrder) *order.ShopOrder {
	e.t.Helper()
	h, err := commands.NewClaimDeliveryCommandHandler(e.dispatcher)
	require.NoError(e.t, err)
	cmd, err := commands.NewClaimDeliveryCommand(e.courierActor(c), o.ID(), so.ID())
	require.NoError(e.t, err)
	claimed, err := h.Handle(e.ctx, cmd)
	require.NoError(e.t, err)
	return claimed
}

func (e *env) stored(shopOrderID kernel.UUID) *order.ShopOrder {
	e.t.Helper()
	o, err := e.uowFactory.Create().OrderRepository().GetByShopOrder(e.ctx, shopOrderID)
	require.NoError(e.t, err)
	so, err := o.ShopOrder(shopOrderID)
	require.NoError(e.t, err)
	return so
}
