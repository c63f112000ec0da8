package events

import (
	"time"

	"fulfillment/internal/core/domain/model/courier"
	"fulfillment/internal/core/domain/model/order"
)

// NewDeliveryAvailableFor builds the availability announcement for a ShopOrder that has
// just gone out of delivery.
func NewDeliveryAvailableFor(so *order.ShopOrder, address order.Address, at time.Time) NewDeliveryAvailable {
	shop := so.Shop()
	return NewDeliveryAvailable{
		OrderID:     so.OrderID().String(),
		ShopOrderID: so.ID().String(),
		City:        shop.City,
		Shop:        locationOf(shop.Name, "", shop.Point),
		Customer:    locationOf("", address.Line(), address.Point),
		Items:       lineSummaries(so.Items()),
		Subtotal:    so.Subtotal().Int64(),
		DeliveryFee: so.DeliveryFee().Int64(),
		Total:       so.Total().Int64(),
		At:          at,
	}
}

func NewDeliveryTakenFor(so *order.ShopOrder, at time.Time) DeliveryTaken {
	return DeliveryTaken{
		OrderID:     so.OrderID().String(),
		ShopOrderID: so.ID().String(),
		City:        so.Shop().City,
		At:          at,
	}
}

// NewStatusUpdateFor addresses the customer, the shop owner, the assigned courier if any,
// and admins.
func NewStatusUpdateFor(so *order.ShopOrder, at time.Time) StatusUpdate {
	return StatusUpdate{
		OrderID:      so.OrderID().String(),
		ShopOrderID:  so.ID().String(),
		ShopID:       so.Shop().ID.String(),
		Status:       so.Status().String(),
		CancelReason: so.CancelReason(),
		At:           at,
		recipients:   partiesOf(so),
	}
}

func NewDeliveryAssignedFor(so *order.ShopOrder, c *courier.Courier, at time.Time) DeliveryAssigned {
	return DeliveryAssigned{
		OrderID:     so.OrderID().String(),
		ShopOrderID: so.ID().String(),
		Courier: CourierSummary{
			ID:    c.ID().String(),
			Name:  c.Name(),
			Phone: c.Phone(),
		},
		At:         at,
		recipients: partiesOf(so),
	}
}

// NewPaymentUpdateFor reaches the customer, every shop of the order and admins.
func NewPaymentUpdateFor(o *order.Order, at time.Time) PaymentUpdate {
	recipients := []Topic{CustomerTopic(o.CustomerID())}
	for _, so := range o.ShopOrders() {
		recipients = append(recipients, ShopTopic(so.Shop().OwnerID))
	}
	return PaymentUpdate{
		OrderID:    o.ID().String(),
		Paid:       o.IsPaid(),
		At:         at,
		recipients: append(recipients, AdminTopic),
	}
}

// NewDeliveredFor builds the revenue record of a delivered ShopOrder.
// It returns false when the ShopOrder is not delivered.
func NewDeliveredFor(so *order.ShopOrder) (Delivered, bool) {
	if so.Status() != order.Delivered || so.Courier() == nil || so.DeliveredAt() == nil {
		return Delivered{}, false
	}
	return Delivered{
		OrderID:     so.OrderID().String(),
		ShopOrderID: so.ID().String(),
		ShopID:      so.Shop().ID.String(),
		ShopName:    so.Shop().Name,
		CourierID:   so.Courier().String(),
		Items:       lineSummaries(so.Items()),
		Subtotal:    so.Subtotal().Int64(),
		DeliveryFee: so.DeliveryFee().Int64(),
		At:          *so.DeliveredAt(),
	}, true
}
