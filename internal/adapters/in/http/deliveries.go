package http

import (
	"net/http"
	"time"

	"fulfillment/internal/core/application/dispatch"
	"fulfillment/internal/core/application/revenue"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// ShopView is the pickup point of a delivery.
type ShopView struct {
	ID   kernel.UUID `json:"id"`
	Name string      `json:"name"`
	City string      `json:"city"`
	Lat  *float64    `json:"lat,omitempty"`
	Lon  *float64    `json:"lon,omitempty"`
}

// AvailabilityView is one delivery waiting for a courier. DistanceKm is omitted when
// either the courier's or the shop's position is unknown.
type AvailabilityView struct {
	OrderID     kernel.UUID            `json:"orderId"`
	ShopOrderID kernel.UUID            `json:"shopOrderId"`
	Shop        ShopView               `json:"shop"`
	Address     queries.AddressView    `json:"address"`
	Items       []queries.LineItemView `json:"items"`
	Subtotal    int64                  `json:"subtotal"`
	DeliveryFee int64                  `json:"deliveryFee"`
	Total       int64                  `json:"total"`
	PublishedAt time.Time              `json:"publishedAt"`
	DistanceKm  *float64               `json:"distanceKm,omitempty"`
}

func NewAvailabilityView(c dispatch.Candidate) AvailabilityView {
	view := AvailabilityView{
		OrderID:     c.OrderID,
		ShopOrderID: c.ShopOrderID,
		Shop:        ShopView{ID: c.Shop.ID, Name: c.Shop.Name, City: c.Shop.City},
		Address: queries.AddressView{
			Street:   c.Address.Street,
			Commune:  c.Address.Commune,
			District: c.Address.District,
			City:     c.Address.City,
		},
		Items:       make([]queries.LineItemView, 0, len(c.Items)),
		Subtotal:    c.Subtotal.Int64(),
		DeliveryFee: c.DeliveryFee.Int64(),
		Total:       c.Total.Int64(),
		PublishedAt: c.PublishedAt,
		DistanceKm:  distance(c.DistanceKm),
	}
	view.Shop.Lat, view.Shop.Lon = coordinates(c.Shop.Point)
	view.Address.Lat, view.Address.Lon = coordinates(c.Address.Point)
	for _, item := range c.Items {
		view.Items = append(view.Items, lineItemView(item))
	}
	return view
}

// GetAvailableDeliveries handles GET /api/v1/deliveries/available - the deliveries a
// courier may claim, nearest first. lat and lon override the last reported position.
func (s *Server) GetAvailableDeliveries(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	near, err := nearPoint(c)
	if err != nil {
		return err
	}
	city, _, err := queryParam[string](c, "city")
	if err != nil {
		return err
	}

	query, err := queries.NewGetAvailableDeliveriesQuery(p.Actor, city, near)
	if err != nil {
		return err
	}
	candidates, err := s.handlers.GetAvailable.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}

	views := make([]AvailabilityView, 0, len(candidates))
	for _, candidate := range candidates {
		views = append(views, NewAvailabilityView(candidate))
	}
	return c.JSON(http.StatusOK, views)
}

// GetDeliveredOrders handles GET /api/v1/deliveries/delivered - delivered ShopOrders of
// the caller, optionally limited to a range of days.
func (s *Server) GetDeliveredOrders(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	days, err := dateRange(c)
	if err != nil {
		return err
	}
	if days == nil {
		days = &revenue.DateRange{}
	}

	query, err := queries.NewGetDeliveredOrdersQuery(p.Actor, *days)
	if err != nil {
		return err
	}
	views, err := s.handlers.GetDelivered.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

func nearPoint(c echo.Context) (kernel.GeoPoint, error) {
	lat, hasLat, err := queryParam[float64](c, "lat")
	if err != nil {
		return kernel.GeoPoint{}, err
	}
	lon, hasLon, err := queryParam[float64](c, "lon")
	if err != nil {
		return kernel.GeoPoint{}, err
	}
	switch {
	case !hasLat && !hasLon:
		return kernel.UnknownPoint(), nil
	case hasLat != hasLon:
		return kernel.GeoPoint{}, errs.NewValueIsRequiredError("lat and lon")
	}
	return kernel.NewGeoPoint(lat, lon)
}

func lineItemView(item order.LineItem) queries.LineItemView {
	return queries.LineItemView{
		ItemID:    item.ItemID(),
		Name:      item.Name(),
		UnitPrice: item.UnitPrice().Int64(),
		Quantity:  item.Quantity(),
		Note:      item.Note(),
		Total:     item.Total().Int64(),
	}
}

func coordinates(p kernel.GeoPoint) (lat, lon *float64) {
	if !p.IsKnown() {
		return nil, nil
	}
	la, lo := p.Lat(), p.Lon()
	return &la, &lo
}

func distance(km float64) *float64 {
	if km < 0 {
		return nil
	}
	return &km
}
