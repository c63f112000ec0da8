package dispatch_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/memory"
	"fulfillment/internal/core/application/dispatch"
	"fulfillment/internal/core/domain/model/courier"
	"fulfillment/internal/core/domain/model/events"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

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

func (r *recorder) kinds(key string) []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Kind
	for _, e := range r.events {
		if e.Key() == key {
			out = append(out, e.Kind())
		}
	}
	return out
}

type DispatcherSuite struct {
	suite.Suite
	ctx        context.Context
	store      *memory.Store
	uowFactory ports.UnitOfWorkFactory
	recorder   *recorder
	dispatcher *dispatch.Dispatcher
	owner      order.Actor
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.uowFactory = memory.NewUnitOfWorkFactory(s.store)
	s.recorder = &recorder{}

	var err error
	s.dispatcher, err = dispatch.NewDispatcher(s.uowFactory, s.recorder, nil,
		ports.ClockFunc(func() time.Time { return fixedNow }), nil)
	s.Require().NoError(err)

	s.owner, err = order.NewActor(order.RoleShopOwner, kernel.NewUUID())
	s.Require().NoError(err)
}

func (s *DispatcherSuite) point(lat, lon float64) kernel.GeoPoint {
	p, err := kernel.NewGeoPoint(lat, lon)
	s.Require().NoError(err)
	return p
}

func (s *DispatcherSuite) addCourier(name string) *courier.Courier {
	c, err := courier.NewCourier(kernel.NewUUID(), name, "", "Ho Chi Minh")
	s.Require().NoError(err)
	s.Require().NoError(s.uowFactory.Create().CourierRepository().Add(s.ctx, c))
	return c
}

// addOrder stores a single-shop order and drives its ShopOrder to target.
func (s *DispatcherSuite) addOrder(city string, shopPoint kernel.GeoPoint, target order.Status) (*order.Order, *order.ShopOrder) {
	customerID := kernel.NewUUID()
	orderID := kernel.NewUUID()
	item, err := order.NewLineItem(kernel.NewUUID(), "Pho", 50000, 2, "")
	s.Require().NoError(err)
	shop := order.ShopRef{ID: kernel.NewUUID(), OwnerID: s.owner.ID(), Name: "Pho Thin", City: city, Point: shopPoint}
	so, err := order.NewShopOrder(kernel.NewUUID(), orderID, customerID, shop, []order.LineItem{item}, 20000, fixedNow)
	s.Require().NoError(err)
	o, err := order.NewOrder(orderID, customerID, order.Address{Street: "1 Le Loi", City: city}, order.PaymentCOD,
		[]*order.ShopOrder{so}, fixedNow)
	s.Require().NoError(err)

	repo := s.uowFactory.Create().OrderRepository()
	s.Require().NoError(repo.Add(s.ctx, o))
	for _, status := range []order.Status{order.Preparing, order.OutOfDelivery} {
		if target == order.Pending || (target == order.Preparing && status == order.OutOfDelivery) {
			break
		}
		_, err = so.Transition(s.owner, status, "", fixedNow)
		s.Require().NoError(err)
		if status == order.OutOfDelivery {
			s.Require().NoError(so.IssueOtp("482193"))
		}
		s.Require().NoError(repo.UpdateShopOrder(s.ctx, so))
	}
	return o, so
}

func (s *DispatcherSuite) publish(o *order.Order, so *order.ShopOrder) {
	unlock := s.dispatcher.LockShopOrder(so.ID())
	defer unlock()
	s.Require().NoError(s.dispatcher.Publish(s.ctx, o, so))
}

func (s *DispatcherSuite) TestClaim_ExactlyOneWinner() {
	o, so := s.addOrder("Ho Chi Minh", kernel.UnknownPoint(), order.OutOfDelivery)
	s.publish(o, so)

	const contenders = 16
	couriers := make([]*courier.Courier, contenders)
	for i := range couriers {
		couriers[i] = s.addCourier(fmt.Sprintf("Courier %02d", i))
	}

	var (
		wg        sync.WaitGroup
		start     = make(chan struct{})
		results   = make([]error, contenders)
		successes int
		conflicts int
	)
	for i, c := range couriers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, results[i] = s.dispatcher.Claim(s.ctx, c.ID(), o.ID(), so.ID())
		}()
	}
	close(start)
	wg.Wait()

	winner := -1
	for i, err := range results {
		switch {
		case err == nil:
			successes++
			winner = i
		case errors.Is(err, order.ErrClaimConflict):
			conflicts++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, successes)
	s.Equal(contenders-1, conflicts)

	stored, err := s.uowFactory.Create().OrderRepository().GetByShopOrder(s.ctx, so.ID())
	s.Require().NoError(err)
	claimed, err := stored.ShopOrder(so.ID())
	s.Require().NoError(err)
	s.Require().NotNil(claimed.Courier())
	s.True(claimed.Courier().IsEqual(couriers[winner].ID()))

	for i, c := range couriers {
		got, err := s.uowFactory.Create().CourierRepository().Get(s.ctx, c.ID())
		s.Require().NoError(err)
		s.Equal(i == winner, got.IsBusy(), c.Name())
	}

	s.Empty(s.dispatcher.ListAvailable(s.ctx, "Ho Chi Minh", kernel.UnknownPoint()))
	s.Equal([]events.Kind{
		events.KindNewDeliveryAvailable,
		events.KindDeliveryTaken,
		events.KindDeliveryAssigned,
	}, s.recorder.kinds(so.ID().String()))
}

func (s *DispatcherSuite) TestClaim_Conflicts() {
	c := s.addCourier("An")

	s.Run("unknown shop order", func() {
		_, err := s.dispatcher.Claim(s.ctx, c.ID(), kernel.NewUUID(), kernel.NewUUID())
		s.ErrorIs(err, order.ErrClaimConflict)
	})

	s.Run("still preparing", func() {
		o, so := s.addOrder("Ho Chi Minh", kernel.UnknownPoint(), order.Preparing)
		_, err := s.dispatcher.Claim(s.ctx, c.ID(), o.ID(), so.ID())
		s.ErrorIs(err, order.ErrClaimConflict)
	})

	s.Run("wrong parent order", func() {
		_, so := s.addOrder("Ho Chi Minh", kernel.UnknownPoint(), order.OutOfDelivery)
		_, err := s.dispatcher.Claim(s.ctx, c.ID(), kernel.NewUUID(), so.ID())
		s.ErrorIs(err, order.ErrClaimConflict)
	})

	s.Run("unknown courier", func() {
		o, so := s.addOrder("Ho Chi Minh", kernel.UnknownPoint(), order.OutOfDelivery)
		_, err := s.dispatcher.Claim(s.ctx, kernel.NewUUID(), o.ID(), so.ID())
		s.Error(err)
		s.NotErrorIs(err, order.ErrClaimConflict)
	})
}

func (s *DispatcherSuite) TestClaim_CourierHoldsOneDelivery() {
	c := s.addCourier("An")
	first, firstSO := s.addOrder("Ho Chi Minh", kernel.UnknownPoint(), order.OutOfDelivery)
	second, secondSO := s.addOrder("Ho Chi Minh", kernel.UnknownPoint(), order.OutOfDelivery)
	s.publish(first, firstSO)
	s.publish(second, secondSO)

	_, err := s.dispatcher.Claim(s.ctx, c.ID(), first.ID(), firstSO.ID())
	s.Require().NoError(err)

	_, err = s.dispatcher.Claim(s.ctx, c.ID(), second.ID(), secondSO.ID())
	s.Require().ErrorIs(err, courier.ErrCourierBusy)

	available := s.dispatcher.ListAvailable(s.ctx, "ho chi minh", kernel.UnknownPoint())
	s.Require().Len(available, 1)
	s.True(available[0].ShopOrderID.IsEqual(secondSO.ID()))
}

func (s *DispatcherSuite) TestPublishWithdraw() {
	o, so := s.addOrder("Ha Noi", kernel.UnknownPoint(), order.OutOfDelivery)

	s.publish(o, so)
	s.publish(o, so)
	s.Len(s.dispatcher.ListAvailable(s.ctx, "Ha Noi", kernel.UnknownPoint()), 1)
	s.Empty(s.dispatcher.ListAvailable(s.ctx, "Ho Chi Minh", kernel.UnknownPoint()))

	unlock := s.dispatcher.LockShopOrder(so.ID())
	s.Require().NoError(s.dispatcher.Withdraw(s.ctx, so))
	s.Require().NoError(s.dispatcher.Withdraw(s.ctx, so))
	unlock()

	s.Empty(s.dispatcher.ListAvailable(s.ctx, "", kernel.UnknownPoint()))
	s.Equal([]events.Kind{events.KindNewDeliveryAvailable, events.KindDeliveryTaken},
		s.recorder.kinds(so.ID().String()))
}

func (s *DispatcherSuite) TestPublish_RejectsShopOrderNotAwaitingCourier() {
	o, so := s.addOrder("Ha Noi", kernel.UnknownPoint(), order.Preparing)

	unlock := s.dispatcher.LockShopOrder(so.ID())
	defer unlock()
	s.ErrorIs(s.dispatcher.Publish(s.ctx, o, so), order.ErrClaimConflict)
}

func (s *DispatcherSuite) TestListAvailable_NearestFirst() {
	courierAt := s.point(10.7769, 106.7009)
	farO, farSO := s.addOrder("Ho Chi Minh", s.point(10.8231, 106.6297), order.OutOfDelivery)
	nearO, nearSO := s.addOrder("Ho Chi Minh", s.point(10.7790, 106.7000), order.OutOfDelivery)
	s.publish(farO, farSO)
	s.publish(nearO, nearSO)

	available := s.dispatcher.ListAvailable(s.ctx, "Ho Chi Minh", courierAt)

	s.Require().Len(available, 2)
	s.True(available[0].ShopOrderID.IsEqual(nearSO.ID()))
	s.Less(available[0].DistanceKm, available[1].DistanceKm)
	s.Equal(int64(120000), available[0].Total.Int64())
}

func (s *DispatcherSuite) TestResync() {
	o, so := s.addOrder("Ho Chi Minh", kernel.UnknownPoint(), order.OutOfDelivery)
	stale, staleSO := s.addOrder("Ho Chi Minh", kernel.UnknownPoint(), order.OutOfDelivery)
	s.publish(stale, staleSO)

	// Claim staleSO behind the dispatcher's back.
	repo := s.uowFactory.Create().OrderRepository()
	s.Require().NoError(staleSO.Claim(kernel.NewUUID(), fixedNow))
	s.Require().NoError(repo.ClaimShopOrder(s.ctx, staleSO))

	added, removed, err := s.dispatcher.Resync(s.ctx)

	s.Require().NoError(err)
	s.Equal(1, added)
	s.Equal(1, removed)
	available := s.dispatcher.ListAvailable(s.ctx, "", kernel.UnknownPoint())
	s.Require().Len(available, 1)
	s.True(available[0].ShopOrderID.IsEqual(so.ID()))
	s.True(available[0].OrderID.IsEqual(o.ID()))

	added, removed, err = s.dispatcher.Resync(s.ctx)
	s.Require().NoError(err)
	s.Zero(added)
	s.Zero(removed)
}

func TestNewDispatcher_RequiresDependencies(t *testing.T) {
	_, err := dispatch.NewDispatcher(nil, &recorder{}, nil, nil, nil)
	require.Error(t, err)

	_, err = dispatch.NewDispatcher(memory.NewUnitOfWorkFactory(memory.NewStore()), nil, nil, nil, nil)
	require.Error(t, err)

	d, err := dispatch.NewDispatcher(memory.NewUnitOfWorkFactory(memory.NewStore()), &recorder{}, nil, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, d.Locks())
}
