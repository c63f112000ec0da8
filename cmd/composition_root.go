package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	httpin "fulfillment/internal/adapters/in/http"
	"fulfillment/internal/adapters/out/bus"
	"fulfillment/internal/adapters/out/geocoding"
	"fulfillment/internal/adapters/out/kafka"
	"fulfillment/internal/adapters/out/memory"
	"fulfillment/internal/adapters/out/postgres"
	"fulfillment/internal/adapters/out/postgres/catalogrepo"
	"fulfillment/internal/core/application/dispatch"
	"fulfillment/internal/core/application/revenue"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/jobs"

	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// CompositionRoot wires the adapters around the application core. It owns every
// resource it opened; Close releases them.
type CompositionRoot struct {
	cfg    Config
	logger *slog.Logger
	clock  ports.Clock

	uowFactory ports.UnitOfWorkFactory
	catalog    ports.Catalog
	addresses  ports.AddressBook
	geocoder   ports.Geocoder
	store      *memory.Store
	seeder     CatalogWriter

	hub        *bus.Hub
	publisher  *bus.Fanout
	projection *revenue.Projection
	dispatcher *dispatch.Dispatcher
	otp        services.OtpIssuer
	splitter   services.OrderSplitter

	closers []func() error
}

func NewCompositionRoot(ctx context.Context, cfg Config, log *slog.Logger) (*CompositionRoot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	root := &CompositionRoot{cfg: cfg, logger: log, clock: ports.SystemClock}

	if err := root.openStorage(); err != nil {
		return nil, errors.Join(err, root.Close())
	}
	if err := root.seed(ctx); err != nil {
		return nil, errors.Join(err, root.Close())
	}
	if err := root.buildCore(); err != nil {
		return nil, errors.Join(err, root.Close())
	}
	return root, nil
}

func (c *CompositionRoot) openStorage() error {
	switch c.cfg.Storage {
	case StorageMemory:
		c.store = memory.NewStore()
		c.uowFactory = memory.NewUnitOfWorkFactory(c.store)
		c.catalog = c.store
		c.addresses = c.store.AddressBook()
		c.seeder = memoryCatalog{store: c.store}
		c.logger.Warn("Using in-memory storage; state is lost on restart")
		return nil
	case StoragePostgres:
		db, err := gorm.Open(pgdriver.Open(c.cfg.DSN()), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		c.closers = append(c.closers, sqlDB.Close)
		if err := postgres.Migrate(db); err != nil {
			return err
		}
		catalog := catalogrepo.NewGormCatalog(db)
		c.uowFactory = postgres.NewGormUnitOfWorkFactory(db)
		c.catalog = catalog
		c.addresses = catalog
		c.seeder = catalog
		return nil
	default:
		return fmt.Errorf("unknown storage %q", c.cfg.Storage)
	}
}

func (c *CompositionRoot) seed(ctx context.Context) error {
	if c.cfg.SeedFile == "" {
		return nil
	}
	seed, err := ReadSeed(c.cfg.SeedFile)
	if err != nil {
		return err
	}
	if err := seed.Apply(ctx, c.seeder); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	c.logger.InfoContext(ctx, "Catalog seeded",
		"shops", len(seed.Shops), "items", len(seed.Items), "addresses", len(seed.Addresses))
	return nil
}

func (c *CompositionRoot) buildCore() error {
	loc, err := c.cfg.Location()
	if err != nil {
		return err
	}

	if c.cfg.GeocoderURL != "" {
		client, err := geocoding.NewClient(c.cfg.GeocoderURL, c.cfg.GeocoderCacheSize, nil, c.logger)
		if err != nil {
			return err
		}
		c.geocoder = client
	}

	c.hub = bus.NewHub(c.cfg.EventQueueSize, c.logger)
	c.projection = revenue.NewProjection(loc, c.clock, c.logger)
	c.publisher = bus.NewFanout(c.logger).
		Add("hub", c.hub).
		Add("revenue", c.projection)
	if c.cfg.KafkaHost != "" {
		publisher := kafka.NewPublisher(kafka.NewWriter(c.cfg.KafkaHost, c.cfg.KafkaOrderChangedTopic),
			c.cfg.KafkaQueueSize, c.logger)
		c.publisher.Add("kafka", publisher)
		c.closers = append(c.closers, publisher.Close)
	}

	if c.dispatcher, err = dispatch.NewDispatcher(c.uowFactory, c.publisher, nil, c.clock, c.logger); err != nil {
		return err
	}
	if c.otp, err = services.NewOtpIssuer(c.cfg.OtpLength); err != nil {
		return err
	}
	fees, err := services.NewFeeCalculator(kernel.Money(c.cfg.FeeBase), kernel.Money(c.cfg.FeePerKm), c.cfg.FeeFreeKm)
	if err != nil {
		return err
	}
	c.splitter = services.NewOrderSplitter(fees)
	return nil
}

// Store is the in-memory store in memory mode and nil otherwise.
func (c *CompositionRoot) Store() *memory.Store {
	return c.store
}

// Hub is where the event stream subscribes.
func (c *CompositionRoot) Hub() *bus.Hub {
	return c.hub
}

// HTTPHandlers builds the use cases the API exposes.
func (c *CompositionRoot) HTTPHandlers() (httpin.Handlers, error) {
	var (
		h    httpin.Handlers
		errs []error
		err  error
	)
	collect := func(e error) { errs = append(errs, e) }

	h.PlaceOrder, err = commands.NewPlaceOrderCommandHandler(c.uowFactory, c.catalog, c.addresses, c.geocoder,
		c.splitter, c.dispatcher, c.publisher, c.clock, c.logger)
	collect(err)
	h.ChangeStatus, err = commands.NewChangeShopOrderStatusCommandHandler(c.uowFactory, c.dispatcher, c.otp,
		c.publisher, c.clock, c.logger)
	collect(err)
	h.CancelShopOrder, err = commands.NewCancelShopOrderCommandHandler(c.uowFactory, c.dispatcher, c.otp,
		c.publisher, c.clock, c.logger)
	collect(err)
	h.ClaimDelivery, err = commands.NewClaimDeliveryCommandHandler(c.dispatcher)
	collect(err)
	h.VerifyDeliveryOtp, err = commands.NewVerifyDeliveryOtpCommandHandler(c.uowFactory, c.dispatcher, c.otp,
		c.publisher, c.clock, c.logger)
	collect(err)
	h.MarkOrderPaid, err = commands.NewMarkOrderPaidCommandHandler(c.uowFactory, c.dispatcher, c.publisher,
		c.clock, c.logger)
	collect(err)
	h.CreateCourier, err = commands.NewCreateCourierCommandHandler(c.uowFactory)
	collect(err)
	h.UpdateLocation, err = commands.NewUpdateCourierLocationCommandHandler(c.uowFactory, c.clock)
	collect(err)

	h.GetOrder, err = queries.NewGetOrderQueryHandler(c.uowFactory)
	collect(err)
	h.GetCurrentOrders, err = queries.NewGetCurrentOrdersQueryHandler(c.uowFactory)
	collect(err)
	h.GetAvailable, err = queries.NewGetAvailableDeliveriesQueryHandler(c.uowFactory, c.dispatcher)
	collect(err)
	h.GetDelivered, err = queries.NewGetDeliveredOrdersQueryHandler(c.uowFactory)
	collect(err)
	h.GetCourierRevenue, err = queries.NewGetCourierRevenueQueryHandler(c.projection)
	collect(err)
	h.GetShopRevenue, err = queries.NewGetShopRevenueQueryHandler(c.catalog, c.projection)
	collect(err)
	h.GetSummary, err = queries.NewGetRevenueSummaryQueryHandler(c.projection)
	collect(err)

	return h, errors.Join(errs...)
}

// NewServer builds the HTTP server over the configured use cases.
func (c *CompositionRoot) NewServer() (*httpin.Server, error) {
	handlers, err := c.HTTPHandlers()
	if err != nil {
		return nil, err
	}
	auth, err := httpin.NewAuthenticator(c.cfg.JWTSecret)
	if err != nil {
		return nil, err
	}
	throttle, err := httpin.NewThrottle(c.cfg.OtpVerifyRPS, c.cfg.OtpVerifyBurst, 10_000)
	if err != nil {
		return nil, err
	}
	return httpin.NewServer(handlers, c.hub, auth, throttle, c.cfg.StreamHeartbeat, c.logger)
}

// NewJobManager builds the maintenance jobs.
func (c *CompositionRoot) NewJobManager() (*jobs.JobManager, error) {
	resync, err := commands.NewResyncAvailabilityCommandHandler(c.dispatcher)
	if err != nil {
		return nil, err
	}
	rebuild, err := commands.NewRebuildRevenueCommandHandler(c.uowFactory, c.projection)
	if err != nil {
		return nil, err
	}
	return jobs.NewJobManager(resync, rebuild, jobs.Schedules{
		AvailabilityResync: c.cfg.AvailabilityResyncCron,
		RevenueRebuild:     c.cfg.RevenueRebuildCron,
	}, c.logger), nil
}

// Close releases what the root opened, newest first.
func (c *CompositionRoot) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errs...)
}
