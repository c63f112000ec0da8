package dispatch

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// Entry is one claimable delivery as couriers see it. It is derived from the ShopOrder
// and its Order and never persisted.
type Entry struct {
	OrderID     kernel.UUID
	ShopOrderID kernel.UUID
	City        string
	Shop        order.ShopRef
	Address     order.Address
	Items       []order.LineItem
	Subtotal    kernel.Money
	DeliveryFee kernel.Money
	Total       kernel.Money
	PublishedAt time.Time
}

// NewEntry projects so, a ShopOrder of o, into an availability entry.
func NewEntry(o *order.Order, so *order.ShopOrder, at time.Time) Entry {
	return Entry{
		OrderID:     o.ID(),
		ShopOrderID: so.ID(),
		City:        so.Shop().City,
		Shop:        so.Shop(),
		Address:     o.Address(),
		Items:       so.Items(),
		Subtotal:    so.Subtotal(),
		DeliveryFee: so.DeliveryFee(),
		Total:       so.Total(),
		PublishedAt: at,
	}
}

// Candidate is an Entry ranked for a particular courier. DistanceKm is the distance from
// the courier to the shop, -1 when either position is unknown.
type Candidate struct {
	Entry
	DistanceKm float64
}
