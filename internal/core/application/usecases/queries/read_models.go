// Package queries contains read operations for retrieving system state.
// Queries return read models shaped for one caller; they never mutate aggregates.
package queries

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// DefaultLimit caps list queries that were not given a limit.
const DefaultLimit = 50

// AddressView is the delivery destination of an order.
type AddressView struct {
	Street   string   `json:"street"`
	Commune  string   `json:"commune,omitempty"`
	District string   `json:"district,omitempty"`
	City     string   `json:"city"`
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`
}

type LineItemView struct {
	ItemID    kernel.UUID `json:"itemId"`
	Name      string      `json:"name"`
	UnitPrice int64       `json:"unitPrice"`
	Quantity  int         `json:"quantity"`
	Note      string      `json:"note,omitempty"`
	Total     int64       `json:"total"`
}

// ShopOrderView is one ShopOrder as a particular actor sees it. The delivery code is
// shown to the customer only: the courier must get it from them at the door.
type ShopOrderView struct {
	ID           kernel.UUID    `json:"id"`
	OrderID      kernel.UUID    `json:"orderId"`
	ShopID       kernel.UUID    `json:"shopId"`
	ShopName     string         `json:"shopName"`
	Status       string         `json:"status"`
	CancelReason string         `json:"cancelReason,omitempty"`
	CourierID    *kernel.UUID   `json:"courierId,omitempty"`
	DeliveryOtp  string         `json:"deliveryOtp,omitempty"`
	Items        []LineItemView `json:"items"`
	Subtotal     int64          `json:"subtotal"`
	DeliveryFee  int64          `json:"deliveryFee"`
	Total        int64          `json:"total"`
	Paid         bool           `json:"paid"`
	Reviewable   bool           `json:"reviewable"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeliveredAt  *time.Time     `json:"deliveredAt,omitempty"`
}

// OrderView is an Order restricted to the ShopOrders the viewer takes part in.
type OrderView struct {
	ID            kernel.UUID     `json:"id"`
	CustomerID    kernel.UUID     `json:"customerId"`
	Address       AddressView     `json:"address"`
	PaymentMethod string          `json:"paymentMethod"`
	Paid          bool            `json:"paid"`
	TotalAmount   int64           `json:"totalAmount"`
	CreatedAt     time.Time       `json:"createdAt"`
	ShopOrders    []ShopOrderView `json:"shopOrders"`
}

// NewOrderView projects o for viewer. It reports false when viewer takes part in none
// of the ShopOrders.
func NewOrderView(o *order.Order, viewer order.Actor) (OrderView, bool) {
	view := OrderView{
		ID:            o.ID(),
		CustomerID:    o.CustomerID(),
		Address:       newAddressView(o.Address()),
		PaymentMethod: string(o.PaymentMethod()),
		Paid:          o.IsPaid(),
		TotalAmount:   o.TotalAmount().Int64(),
		CreatedAt:     o.CreatedAt(),
		ShopOrders:    make([]ShopOrderView, 0, len(o.ShopOrders())),
	}
	for _, so := range o.ShopOrders() {
		if !sees(viewer, so) {
			continue
		}
		view.ShopOrders = append(view.ShopOrders, NewShopOrderView(so, viewer.Is(order.RoleCustomer, so.CustomerID())))
	}
	return view, len(view.ShopOrders) > 0
}

// NewShopOrderView projects so; withOtp reveals the delivery code.
func NewShopOrderView(so *order.ShopOrder, withOtp bool) ShopOrderView {
	view := ShopOrderView{
		ID:           so.ID(),
		OrderID:      so.OrderID(),
		ShopID:       so.Shop().ID,
		ShopName:     so.Shop().Name,
		Status:       so.Status().String(),
		CancelReason: so.CancelReason(),
		CourierID:    so.Courier(),
		Subtotal:     so.Subtotal().Int64(),
		DeliveryFee:  so.DeliveryFee().Int64(),
		Total:        so.Total().Int64(),
		Paid:         so.IsPaid(),
		Reviewable:   so.IsReviewable(),
		UpdatedAt:    so.UpdatedAt(),
		DeliveredAt:  so.DeliveredAt(),
	}
	if withOtp {
		view.DeliveryOtp = so.DeliveryOtp()
	}
	for _, item := range so.Items() {
		view.Items = append(view.Items, LineItemView{
			ItemID:    item.ItemID(),
			Name:      item.Name(),
			UnitPrice: item.UnitPrice().Int64(),
			Quantity:  item.Quantity(),
			Note:      item.Note(),
			Total:     item.Total().Int64(),
		})
	}
	return view
}

func newAddressView(a order.Address) AddressView {
	view := AddressView{Street: a.Street, Commune: a.Commune, District: a.District, City: a.City}
	if a.Point.IsKnown() {
		lat, lon := a.Point.Lat(), a.Point.Lon()
		view.Lat, view.Lon = &lat, &lon
	}
	return view
}

func sees(viewer order.Actor, so *order.ShopOrder) bool {
	switch viewer.Role() {
	case order.RoleAdmin:
		return true
	case order.RoleCustomer:
		return viewer.ID().IsEqual(so.CustomerID())
	case order.RoleShopOwner:
		return viewer.ID().IsEqual(so.Shop().OwnerID)
	case order.RoleCourier:
		return so.Courier() != nil && viewer.ID().IsEqual(*so.Courier())
	default:
		return false
	}
}
