package http

import (
	"net/http"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/courier"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"

	"github.com/labstack/echo/v4"
)

type registerCourierRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	City  string `json:"city"`
}

type locationRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CourierView is a courier's profile, last reported position and current delivery.
type CourierView struct {
	ID                kernel.UUID  `json:"id"`
	Name              string       `json:"name"`
	Phone             string       `json:"phone,omitempty"`
	City              string       `json:"city"`
	Lat               *float64     `json:"lat,omitempty"`
	Lon               *float64     `json:"lon,omitempty"`
	LocatedAt         *time.Time   `json:"locatedAt,omitempty"`
	ActiveShopOrderID *kernel.UUID `json:"activeShopOrderId,omitempty"`
	DistanceKm        *float64     `json:"distanceKm,omitempty"`
}

func NewCourierView(c *courier.Courier) CourierView {
	view := CourierView{
		ID:                c.ID(),
		Name:              c.Name(),
		Phone:             c.Phone(),
		City:              c.City(),
		ActiveShopOrderID: c.ActiveDelivery(),
	}
	view.Lat, view.Lon = coordinates(c.LastPoint())
	if at := c.LocatedAt(); !at.IsZero() {
		view.LocatedAt = &at
	}
	return view
}

// RegisterCourier handles POST /api/v1/couriers/me - creates the courier profile of the
// caller. Couriers register once, before they go online.
func (s *Server) RegisterCourier(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	if err := requireRole(p, order.RoleCourier, "register as a courier"); err != nil {
		return err
	}
	var req registerCourierRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	cmd, err := commands.NewCreateCourierCommand(p.Actor.ID(), req.Name, req.Phone, req.City)
	if err != nil {
		return err
	}
	created, err := s.handlers.CreateCourier.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, NewCourierView(created))
}

// UpdateCourierLocation handles PUT /api/v1/couriers/me/location.
func (s *Server) UpdateCourierLocation(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	var req locationRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	cmd, err := commands.NewUpdateCourierLocationCommand(p.Actor, req.Lat, req.Lon)
	if err != nil {
		return err
	}
	updated, err := s.handlers.UpdateLocation.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewCourierView(updated))
}
