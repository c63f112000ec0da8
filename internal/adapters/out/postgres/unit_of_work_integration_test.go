package postgres_test

import (
	"context"
	"testing"
	"time"

	postgres_adapter "fulfillment/internal/adapters/out/postgres"
	"fulfillment/internal/core/domain/model/courier"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// UnitOfWorkIntegrationTestSuite exercises transactions spanning both repositories.
type UnitOfWorkIntegrationTestSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *gorm.DB
	factory   ports.UnitOfWorkFactory
	owner     order.Actor
}

func TestUnitOfWorkIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(UnitOfWorkIntegrationTestSuite))
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupSuite() {
	suite.ctx = context.Background()

	container, err := postgres.Run(suite.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2)),
	)
	suite.Require().NoError(err)
	suite.container = container

	dsn, err := container.ConnectionString(suite.ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(gorm_postgres.Open(dsn), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(postgres_adapter.Migrate(db))
	suite.factory = postgres_adapter.NewGormUnitOfWorkFactory(db)
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupTest() {
	err := suite.db.Exec("TRUNCATE TABLE shop_order_items, shop_orders, orders, couriers").Error
	suite.Require().NoError(err)

	suite.owner, err = order.NewActor(order.RoleShopOwner, kernel.NewUUID())
	suite.Require().NoError(err)
}

func (suite *UnitOfWorkIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *UnitOfWorkIntegrationTestSuite) TestFactory_CreatesSeparateInstances() {
	uow1 := suite.factory.Create()
	uow2 := suite.factory.Create()

	suite.NotSame(uow1, uow2)
	suite.NotNil(uow1.OrderRepository())
	suite.NotNil(uow1.CourierRepository())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestTransactionLifecycle() {
	uow := suite.factory.Create()

	suite.Require().NoError(uow.Begin(suite.ctx))
	suite.Require().NoError(uow.Begin(suite.ctx), "a second Begin is a no-op")
	suite.Require().NoError(uow.Commit(suite.ctx))

	suite.ErrorIs(uow.Commit(suite.ctx), gorm.ErrInvalidTransaction)
	suite.ErrorIs(uow.Rollback(suite.ctx), gorm.ErrInvalidTransaction)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestClaimCommitsBothSides() {
	o, c := suite.seedOutForDelivery()

	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(suite.ctx))
	so := suite.loadShopOrder(uow, o)
	suite.Require().NoError(so.Claim(c.ID(), fixedNow))
	suite.Require().NoError(uow.OrderRepository().ClaimShopOrder(suite.ctx, so))
	suite.Require().NoError(uow.CourierRepository().TakeDelivery(suite.ctx, c, so.ID()))
	suite.Require().NoError(uow.Commit(suite.ctx))

	fresh := suite.factory.Create()
	stored := suite.loadShopOrder(fresh, o)
	suite.Require().NotNil(stored.Courier())
	suite.True(stored.Courier().IsEqual(c.ID()))

	rider, err := fresh.CourierRepository().Get(suite.ctx, c.ID())
	suite.Require().NoError(err)
	suite.True(rider.IsBusy())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestBusyCourierRollsBackTheClaim() {
	o, c := suite.seedOutForDelivery()
	suite.Require().NoError(suite.factory.Create().CourierRepository().TakeDelivery(suite.ctx, c, kernel.NewUUID()))

	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(suite.ctx))
	so := suite.loadShopOrder(uow, o)
	suite.Require().NoError(so.Claim(c.ID(), fixedNow))
	suite.Require().NoError(uow.OrderRepository().ClaimShopOrder(suite.ctx, so))
	suite.ErrorIs(uow.CourierRepository().TakeDelivery(suite.ctx, c, so.ID()), courier.ErrCourierBusy)
	suite.Require().NoError(uow.Rollback(suite.ctx))

	stored := suite.loadShopOrder(suite.factory.Create(), o)
	suite.Nil(stored.Courier())
	suite.True(stored.IsAwaitingCourier())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestRollbackDiscardsInserts() {
	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(suite.ctx))

	o := suite.newOrder()
	c := suite.newCourier()
	suite.Require().NoError(uow.OrderRepository().Add(suite.ctx, o))
	suite.Require().NoError(uow.CourierRepository().Add(suite.ctx, c))

	_, err := uow.OrderRepository().Get(suite.ctx, o.ID())
	suite.Require().NoError(err, "visible inside the transaction")

	suite.Require().NoError(uow.Rollback(suite.ctx))

	fresh := suite.factory.Create()
	_, err = fresh.OrderRepository().Get(suite.ctx, o.ID())
	suite.ErrorIs(err, errs.ErrObjectNotFound)
	_, err = fresh.CourierRepository().Get(suite.ctx, c.ID())
	suite.ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestIsolationBetweenInstances() {
	uow1 := suite.factory.Create()
	uow2 := suite.factory.Create()
	suite.Require().NoError(uow1.Begin(suite.ctx))
	suite.Require().NoError(uow2.Begin(suite.ctx))

	order1, order2 := suite.newOrder(), suite.newOrder()
	suite.Require().NoError(uow1.OrderRepository().Add(suite.ctx, order1))
	suite.Require().NoError(uow2.OrderRepository().Add(suite.ctx, order2))

	_, err := uow1.OrderRepository().Get(suite.ctx, order2.ID())
	suite.Error(err, "uncommitted rows of another transaction are invisible")

	suite.Require().NoError(uow1.Commit(suite.ctx))
	suite.Require().NoError(uow2.Rollback(suite.ctx))

	fresh := suite.factory.Create()
	_, err = fresh.OrderRepository().Get(suite.ctx, order1.ID())
	suite.NoError(err)
	_, err = fresh.OrderRepository().Get(suite.ctx, order2.ID())
	suite.Error(err)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestWithoutTransaction() {
	uow := suite.factory.Create()
	o := suite.newOrder()
	suite.Require().NoError(uow.OrderRepository().Add(suite.ctx, o))

	_, err := suite.factory.Create().OrderRepository().Get(suite.ctx, o.ID())
	suite.NoError(err)
}

func (suite *UnitOfWorkIntegrationTestSuite) seedOutForDelivery() (*order.Order, *courier.Courier) {
	uow := suite.factory.Create()
	o := suite.newOrder()
	c := suite.newCourier()
	suite.Require().NoError(uow.OrderRepository().Add(suite.ctx, o))
	suite.Require().NoError(uow.CourierRepository().Add(suite.ctx, c))

	so := o.ShopOrders()[0]
	for _, status := range []order.Status{order.Preparing, order.OutOfDelivery} {
		_, err := so.Transition(suite.owner, status, "", fixedNow)
		suite.Require().NoError(err)
		suite.Require().NoError(uow.OrderRepository().UpdateShopOrder(suite.ctx, so))
	}
	return o, c
}

func (suite *UnitOfWorkIntegrationTestSuite) loadShopOrder(uow ports.UnitOfWork, o *order.Order) *order.ShopOrder {
	loaded, err := uow.OrderRepository().Get(suite.ctx, o.ID())
	suite.Require().NoError(err)
	return loaded.ShopOrders()[0]
}

func (suite *UnitOfWorkIntegrationTestSuite) newOrder() *order.Order {
	orderID, customerID := kernel.NewUUID(), kernel.NewUUID()
	item, err := order.NewLineItem(kernel.NewUUID(), "Com tam", 55000, 1, "")
	suite.Require().NoError(err)
	shop := order.ShopRef{ID: kernel.NewUUID(), OwnerID: suite.owner.ID(), Name: "Com Tam Ba Ghien", City: "Ho Chi Minh"}
	so, err := order.NewShopOrder(kernel.NewUUID(), orderID, customerID, shop, []order.LineItem{item}, 15000, fixedNow)
	suite.Require().NoError(err)
	o, err := order.NewOrder(orderID, customerID, order.Address{Street: "84 Dang Van Ngu", City: "Ho Chi Minh"},
		order.PaymentCOD, []*order.ShopOrder{so}, fixedNow)
	suite.Require().NoError(err)
	return o
}

func (suite *UnitOfWorkIntegrationTestSuite) newCourier() *courier.Courier {
	c, err := courier.NewCourier(kernel.NewUUID(), "Pham Minh", "0912345678", "Ho Chi Minh")
	suite.Require().NoError(err)
	return c
}
