package queries

import (
	"context"

	"fulfillment/internal/core/application/revenue"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// RevenueReader is implemented by *revenue.Projection.
type RevenueReader interface {
	Summary(topItems int) revenue.Summary
	CourierEarnings(courierID string, days *revenue.DateRange) revenue.Earnings
	ShopRevenue(shopID string, days *revenue.DateRange) revenue.ShopRevenue
}

type GetCourierRevenueQueryHandler struct {
	projection RevenueReader
}

func NewGetCourierRevenueQueryHandler(projection RevenueReader) (*GetCourierRevenueQueryHandler, error) {
	if projection == nil {
		return nil, errs.NewValueIsRequiredError("projection")
	}
	return &GetCourierRevenueQueryHandler{projection: projection}, nil
}

func (h *GetCourierRevenueQueryHandler) Handle(_ context.Context, query GetCourierRevenueQuery) (revenue.Earnings, error) {
	if err := query.Validate(); err != nil {
		return revenue.Earnings{}, err
	}
	return h.projection.CourierEarnings(query.CourierID().String(), query.Days()), nil
}

// GetShopRevenueQueryHandler answers shop owners for their own shops and admins for any.
type GetShopRevenueQueryHandler struct {
	catalog    ports.Catalog
	projection RevenueReader
}

func NewGetShopRevenueQueryHandler(catalog ports.Catalog, projection RevenueReader) (*GetShopRevenueQueryHandler, error) {
	if catalog == nil {
		return nil, errs.NewValueIsRequiredError("catalog")
	}
	if projection == nil {
		return nil, errs.NewValueIsRequiredError("projection")
	}
	return &GetShopRevenueQueryHandler{catalog: catalog, projection: projection}, nil
}

func (h *GetShopRevenueQueryHandler) Handle(ctx context.Context, query GetShopRevenueQuery) (revenue.ShopRevenue, error) {
	if err := query.Validate(); err != nil {
		return revenue.ShopRevenue{}, err
	}

	if viewer := query.Viewer(); viewer.Role() == order.RoleShopOwner {
		snapshot, err := h.catalog.Snapshot(ctx, []kernel.UUID{query.ShopID()}, nil)
		if err != nil {
			return revenue.ShopRevenue{}, err
		}
		shop, ok := snapshot.Shops[query.ShopID()]
		if !ok {
			return revenue.ShopRevenue{}, errs.NewObjectNotFoundError("shop", query.ShopID().String())
		}
		if !viewer.ID().IsEqual(shop.OwnerID) {
			return revenue.ShopRevenue{}, order.NewForbiddenError(viewer.Role(), "read another shop's revenue")
		}
	}

	return h.projection.ShopRevenue(query.ShopID().String(), query.Days()), nil
}

type GetRevenueSummaryQueryHandler struct {
	projection RevenueReader
}

func NewGetRevenueSummaryQueryHandler(projection RevenueReader) (*GetRevenueSummaryQueryHandler, error) {
	if projection == nil {
		return nil, errs.NewValueIsRequiredError("projection")
	}
	return &GetRevenueSummaryQueryHandler{projection: projection}, nil
}

func (h *GetRevenueSummaryQueryHandler) Handle(_ context.Context, query GetRevenueSummaryQuery) (revenue.Summary, error) {
	if err := query.Validate(); err != nil {
		return revenue.Summary{}, err
	}
	return h.projection.Summary(query.TopItems()), nil
}
