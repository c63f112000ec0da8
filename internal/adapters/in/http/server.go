// Package http is the REST and server-sent events surface of the service. Handlers only
// translate: they bind the request, build a command or query with the authenticated
// actor, call the application layer and render its read model.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Handlers are the application use cases the API exposes.
type Handlers struct {
	PlaceOrder        *commands.PlaceOrderCommandHandler
	ChangeStatus      *commands.ChangeShopOrderStatusCommandHandler
	CancelShopOrder   *commands.CancelShopOrderCommandHandler
	ClaimDelivery     *commands.ClaimDeliveryCommandHandler
	VerifyDeliveryOtp *commands.VerifyDeliveryOtpCommandHandler
	MarkOrderPaid     *commands.MarkOrderPaidCommandHandler
	CreateCourier     *commands.CreateCourierCommandHandler
	UpdateLocation    *commands.UpdateCourierLocationCommandHandler

	GetOrder          *queries.GetOrderQueryHandler
	GetCurrentOrders  *queries.GetCurrentOrdersQueryHandler
	GetAvailable      *queries.GetAvailableDeliveriesQueryHandler
	GetDelivered      *queries.GetDeliveredOrdersQueryHandler
	GetCourierRevenue *queries.GetCourierRevenueQueryHandler
	GetShopRevenue    *queries.GetShopRevenueQueryHandler
	GetSummary        *queries.GetRevenueSummaryQueryHandler
}

func (h Handlers) validate() error {
	required := []struct {
		name string
		ok   bool
	}{
		{"PlaceOrder", h.PlaceOrder != nil},
		{"ChangeStatus", h.ChangeStatus != nil},
		{"CancelShopOrder", h.CancelShopOrder != nil},
		{"ClaimDelivery", h.ClaimDelivery != nil},
		{"VerifyDeliveryOtp", h.VerifyDeliveryOtp != nil},
		{"MarkOrderPaid", h.MarkOrderPaid != nil},
		{"CreateCourier", h.CreateCourier != nil},
		{"UpdateLocation", h.UpdateLocation != nil},
		{"GetOrder", h.GetOrder != nil},
		{"GetCurrentOrders", h.GetCurrentOrders != nil},
		{"GetAvailable", h.GetAvailable != nil},
		{"GetDelivered", h.GetDelivered != nil},
		{"GetCourierRevenue", h.GetCourierRevenue != nil},
		{"GetShopRevenue", h.GetShopRevenue != nil},
		{"GetSummary", h.GetSummary != nil},
	}
	for _, r := range required {
		if !r.ok {
			return errs.NewValueIsRequiredError(r.name)
		}
	}
	return nil
}

// Server routes HTTP requests to the application use cases.
type Server struct {
	handlers  Handlers
	events    EventSource
	auth      *Authenticator
	throttle  *Throttle
	heartbeat time.Duration
	logger    *slog.Logger
}

func NewServer(
	handlers Handlers,
	events EventSource,
	auth *Authenticator,
	throttle *Throttle,
	heartbeat time.Duration,
	logger *slog.Logger,
) (*Server, error) {
	if err := handlers.validate(); err != nil {
		return nil, err
	}
	if events == nil {
		return nil, errs.NewValueIsRequiredError("events")
	}
	if auth == nil {
		return nil, errs.NewValueIsRequiredError("auth")
	}
	if throttle == nil {
		return nil, errs.NewValueIsRequiredError("throttle")
	}
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		handlers:  handlers,
		events:    events,
		auth:      auth,
		throttle:  throttle,
		heartbeat: heartbeat,
		logger:    logger.With("component", "HTTPServer"),
	}, nil
}

// NewEcho builds the echo instance with error rendering, panic recovery and access logs.
func NewEcho(logger *slog.Logger) *echo.Echo {
	if logger == nil {
		logger = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewErrorHandler(logger)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURIPath:  true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logger.LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", v.Method),
				slog.String("path", v.URIPath),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency))
			return nil
		},
	}))
	return e
}

// Register mounts the API on e. Requests under /api/v1 must carry a bearer token and
// match the OpenAPI description.
func (s *Server) Register(ctx context.Context, e *echo.Echo) error {
	doc, err := LoadOpenAPI(ctx)
	if err != nil {
		return err
	}
	validator, err := RequestValidator(doc)
	if err != nil {
		return err
	}
	if err := RegisterSwagger(doc); err != nil {
		return err
	}

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api/v1", s.auth.Middleware(), validator)

	api.POST("/orders", s.PlaceOrder)
	api.GET("/current-orders", s.GetCurrentOrders)
	api.GET("/orders/:orderId", s.GetOrder)
	api.POST("/orders/:orderId/payment", s.MarkOrderPaid)
	api.POST("/orders/:orderId/shops/:shopId/status", s.UpdateStatus)
	api.POST("/orders/:orderId/shop-orders/:shopOrderId/cancel", s.CancelShopOrder)
	api.POST("/orders/:orderId/shop-orders/:shopOrderId/claim", s.ClaimDelivery)
	api.POST("/orders/:orderId/shop-orders/:shopOrderId/verify-otp", s.VerifyDeliveryOtp)

	api.GET("/deliveries/available", s.GetAvailableDeliveries)
	api.GET("/deliveries/delivered", s.GetDeliveredOrders)

	api.POST("/couriers/me", s.RegisterCourier)
	api.PUT("/couriers/me/location", s.UpdateCourierLocation)

	api.GET("/revenue/couriers/:courierId", s.GetCourierRevenue)
	api.GET("/revenue/shops/:shopId", s.GetShopRevenue)
	api.GET("/revenue/summary", s.GetRevenueSummary)

	api.GET("/events", s.Stream)
	return nil
}
