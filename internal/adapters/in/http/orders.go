package http

import (
	"net/http"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

type cartLineRequest struct {
	ShopID   openapi_types.UUID `json:"shopId"`
	ItemID   openapi_types.UUID `json:"itemId"`
	Quantity int                `json:"quantity"`
	Note     string             `json:"note"`
}

type placeOrderRequest struct {
	OrderID       openapi_types.UUID `json:"orderId"`
	AddressID     openapi_types.UUID `json:"addressId"`
	PaymentMethod string             `json:"paymentMethod"`
	Lines         []cartLineRequest  `json:"lines"`
}

type statusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type verifyOtpRequest struct {
	Otp string `json:"otp"`
}

type message struct {
	Message string `json:"message"`
}

// StatusChangeResponse is the outcome of a status update. AvailableCouriers is filled
// when the ShopOrder went out for delivery.
type StatusChangeResponse struct {
	ShopOrder         queries.ShopOrderView `json:"shopOrder"`
	Changed           bool                  `json:"changed"`
	AvailableCouriers []CourierView         `json:"availableCouriers"`
}

// PlaceOrder handles POST /api/v1/orders - checks out the caller's cart.
func (s *Server) PlaceOrder(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	if err := requireRole(p, order.RoleCustomer, "place an order"); err != nil {
		return err
	}

	var req placeOrderRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	lines := make([]services.CartLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		shopID, err := toKernelUUID("shopId", line.ShopID)
		if err != nil {
			return err
		}
		itemID, err := toKernelUUID("itemId", line.ItemID)
		if err != nil {
			return err
		}
		lines = append(lines, services.CartLine{ShopID: shopID, ItemID: itemID, Quantity: line.Quantity, Note: line.Note})
	}
	orderID, err := toKernelUUID("orderId", req.OrderID)
	if err != nil {
		return err
	}
	addressID, err := toKernelUUID("addressId", req.AddressID)
	if err != nil {
		return err
	}

	cmd, err := commands.NewPlaceOrderCommand(orderID, p.Actor.ID(), addressID, req.PaymentMethod, lines)
	if err != nil {
		return err
	}
	placed, err := s.handlers.PlaceOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}

	view, _ := queries.NewOrderView(placed, p.Actor)
	return c.JSON(http.StatusCreated, view)
}

// GetOrder handles GET /api/v1/orders/{orderId}.
func (s *Server) GetOrder(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	orderID, err := pathUUID(c, "orderId")
	if err != nil {
		return err
	}

	query, err := queries.NewGetOrderQuery(p.Actor, orderID)
	if err != nil {
		return err
	}
	view, err := s.handlers.GetOrder.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// GetCurrentOrders handles GET /api/v1/current-orders - the caller's orders still in
// progress.
func (s *Server) GetCurrentOrders(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	limit, _, err := queryParam[int](c, "limit")
	if err != nil {
		return err
	}

	query, err := queries.NewGetCurrentOrdersQuery(p.Actor, limit)
	if err != nil {
		return err
	}
	views, err := s.handlers.GetCurrentOrders.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

// MarkOrderPaid handles POST /api/v1/orders/{orderId}/payment - the payment provider's
// settlement callback. It authenticates with an admin token.
func (s *Server) MarkOrderPaid(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	if err := requireRole(p, order.RoleAdmin, "settle a payment"); err != nil {
		return err
	}
	orderID, err := pathUUID(c, "orderId")
	if err != nil {
		return err
	}

	cmd, err := commands.NewMarkOrderPaidCommand(orderID)
	if err != nil {
		return err
	}
	paid, err := s.handlers.MarkOrderPaid.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	view, _ := queries.NewOrderView(paid, p.Actor)
	return c.JSON(http.StatusOK, view)
}

// UpdateStatus handles POST /api/v1/orders/{orderId}/shops/{shopId}/status.
func (s *Server) UpdateStatus(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	orderID, err := pathUUID(c, "orderId")
	if err != nil {
		return err
	}
	shopID, err := pathUUID(c, "shopId")
	if err != nil {
		return err
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	cmd, err := commands.NewChangeShopOrderStatusCommand(p.Actor, orderID, shopID, req.Status, req.Reason)
	if err != nil {
		return err
	}
	change, err := s.handlers.ChangeStatus.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}

	resp := StatusChangeResponse{
		ShopOrder:         shopOrderView(p, change.ShopOrder),
		Changed:           change.Changed,
		AvailableCouriers: make([]CourierView, 0, len(change.AvailableCouriers)),
	}
	for _, ranked := range change.AvailableCouriers {
		view := NewCourierView(ranked.Value)
		view.DistanceKm = distance(ranked.DistanceKm)
		resp.AvailableCouriers = append(resp.AvailableCouriers, view)
	}
	return c.JSON(http.StatusOK, resp)
}

// CancelShopOrder handles POST /api/v1/orders/{orderId}/shop-orders/{shopOrderId}/cancel.
func (s *Server) CancelShopOrder(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	orderID, shopOrderID, err := shopOrderPath(c)
	if err != nil {
		return err
	}
	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	cmd, err := commands.NewCancelShopOrderCommand(p.Actor, orderID, shopOrderID, req.Reason)
	if err != nil {
		return err
	}
	cancelled, err := s.handlers.CancelShopOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, shopOrderView(p, cancelled))
}

// ClaimDelivery handles POST /api/v1/orders/{orderId}/shop-orders/{shopOrderId}/claim.
// Of concurrent claims exactly one succeeds; the others get 409.
func (s *Server) ClaimDelivery(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	orderID, shopOrderID, err := shopOrderPath(c)
	if err != nil {
		return err
	}

	cmd, err := commands.NewClaimDeliveryCommand(p.Actor, orderID, shopOrderID)
	if err != nil {
		return err
	}
	claimed, err := s.handlers.ClaimDelivery.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, shopOrderView(p, claimed))
}

// VerifyDeliveryOtp handles POST /api/v1/orders/{orderId}/shop-orders/{shopOrderId}/verify-otp.
func (s *Server) VerifyDeliveryOtp(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	orderID, shopOrderID, err := shopOrderPath(c)
	if err != nil {
		return err
	}
	var req verifyOtpRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if !s.throttle.Allow(shopOrderID.String()) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many delivery code attempts, try again later")
	}

	cmd, err := commands.NewVerifyDeliveryOtpCommand(p.Actor, orderID, shopOrderID, req.Otp)
	if err != nil {
		return err
	}
	if _, err := s.handlers.VerifyDeliveryOtp.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, message{Message: "delivered"})
}

func shopOrderPath(c echo.Context) (orderID, shopOrderID kernel.UUID, err error) {
	if orderID, err = pathUUID(c, "orderId"); err != nil {
		return kernel.UUID{}, kernel.UUID{}, err
	}
	if shopOrderID, err = pathUUID(c, "shopOrderId"); err != nil {
		return kernel.UUID{}, kernel.UUID{}, err
	}
	return orderID, shopOrderID, nil
}

func shopOrderView(p Principal, so *order.ShopOrder) queries.ShopOrderView {
	return queries.NewShopOrderView(so, p.Actor.Is(order.RoleCustomer, so.CustomerID()))
}

func toKernelUUID(name string, id openapi_types.UUID) (kernel.UUID, error) {
	converted, err := kernel.UUIDFromGoogle(id)
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause(name, err)
	}
	return converted, nil
}
