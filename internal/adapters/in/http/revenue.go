package http

import (
	"net/http"

	"fulfillment/internal/core/application/usecases/queries"

	"github.com/labstack/echo/v4"
)

// GetCourierRevenue handles GET /api/v1/revenue/couriers/{courierId}.
func (s *Server) GetCourierRevenue(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	courierID, err := pathUUID(c, "courierId")
	if err != nil {
		return err
	}
	days, err := dateRange(c)
	if err != nil {
		return err
	}

	query, err := queries.NewGetCourierRevenueQuery(p.Actor, courierID, days)
	if err != nil {
		return err
	}
	earnings, err := s.handlers.GetCourierRevenue.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, earnings)
}

// GetShopRevenue handles GET /api/v1/revenue/shops/{shopId}.
func (s *Server) GetShopRevenue(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	shopID, err := pathUUID(c, "shopId")
	if err != nil {
		return err
	}
	days, err := dateRange(c)
	if err != nil {
		return err
	}

	query, err := queries.NewGetShopRevenueQuery(p.Actor, shopID, days)
	if err != nil {
		return err
	}
	shopRevenue, err := s.handlers.GetShopRevenue.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, shopRevenue)
}

// GetRevenueSummary handles GET /api/v1/revenue/summary - platform totals for admins.
func (s *Server) GetRevenueSummary(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	top, _, err := queryParam[int](c, "top")
	if err != nil {
		return err
	}

	query, err := queries.NewGetRevenueSummaryQuery(p.Actor, top)
	if err != nil {
		return err
	}
	summary, err := s.handlers.GetSummary.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}
