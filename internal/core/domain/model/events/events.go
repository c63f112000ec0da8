package events

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// Kind is the wire name of an event.
type Kind string

const (
	KindNewDeliveryAvailable Kind = "newDeliveryAvailable"
	KindDeliveryTaken        Kind = "deliveryTaken"
	KindStatusUpdate         Kind = "statusUpdate"
	KindDeliveryAssigned     Kind = "deliveryAssigned"
	KindPaymentUpdate        Kind = "paymentUpdate"
	KindDelivered            Kind = "delivered"
)

// Event is implemented by every notification.
type Event interface {
	Kind() Kind
	// Key is the ordering key. Events with the same key are delivered in publish order.
	Key() string
	Topics() []Topic
	OccurredAt() time.Time
}

// LineSummary is an ordered item as shown to couriers and kept for revenue.
type LineSummary struct {
	ItemID    string `json:"itemId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
	Note      string `json:"note,omitempty"`
}

// Location is a named point; Lat and Lon are zero when unknown.
type Location struct {
	Name    string  `json:"name,omitempty"`
	Address string  `json:"address,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// CourierSummary is what a customer and a shop learn about the assigned courier.
type CourierSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// NewDeliveryAvailable announces an availability entry to the courier pool of a city.
type NewDeliveryAvailable struct {
	OrderID     string        `json:"orderId"`
	ShopOrderID string        `json:"shopOrderId"`
	City        string        `json:"city"`
	Shop        Location      `json:"shop"`
	Customer    Location      `json:"customer"`
	Items       []LineSummary `json:"items"`
	Subtotal    int64         `json:"subtotal"`
	DeliveryFee int64         `json:"deliveryFee"`
	Total       int64         `json:"total"`
	At          time.Time     `json:"at"`
}

func (e NewDeliveryAvailable) Kind() Kind            { return KindNewDeliveryAvailable }
func (e NewDeliveryAvailable) Key() string           { return e.ShopOrderID }
func (e NewDeliveryAvailable) OccurredAt() time.Time { return e.At }
func (e NewDeliveryAvailable) Topics() []Topic {
	return []Topic{CourierPoolTopic(e.City)}
}

// DeliveryTaken withdraws an availability entry from the courier pool.
type DeliveryTaken struct {
	OrderID     string    `json:"orderId"`
	ShopOrderID string    `json:"shopOrderId"`
	City        string    `json:"city"`
	At          time.Time `json:"at"`
}

func (e DeliveryTaken) Kind() Kind            { return KindDeliveryTaken }
func (e DeliveryTaken) Key() string           { return e.ShopOrderID }
func (e DeliveryTaken) OccurredAt() time.Time { return e.At }
func (e DeliveryTaken) Topics() []Topic {
	return []Topic{CourierPoolTopic(e.City)}
}

// StatusUpdate tells every party of a ShopOrder about its new status.
type StatusUpdate struct {
	OrderID      string    `json:"orderId"`
	ShopOrderID  string    `json:"shopOrderId"`
	ShopID       string    `json:"shopId"`
	Status       string    `json:"status"`
	CancelReason string    `json:"cancelReason,omitempty"`
	At           time.Time `json:"at"`

	recipients []Topic
}

func (e StatusUpdate) Kind() Kind            { return KindStatusUpdate }
func (e StatusUpdate) Key() string           { return e.ShopOrderID }
func (e StatusUpdate) OccurredAt() time.Time { return e.At }
func (e StatusUpdate) Topics() []Topic       { return append([]Topic(nil), e.recipients...) }

// DeliveryAssigned tells the customer, the shop, the courier and admins who got the delivery.
type DeliveryAssigned struct {
	OrderID     string         `json:"orderId"`
	ShopOrderID string         `json:"shopOrderId"`
	Courier     CourierSummary `json:"courier"`
	At          time.Time      `json:"at"`

	recipients []Topic
}

func (e DeliveryAssigned) Kind() Kind            { return KindDeliveryAssigned }
func (e DeliveryAssigned) Key() string           { return e.ShopOrderID }
func (e DeliveryAssigned) OccurredAt() time.Time { return e.At }
func (e DeliveryAssigned) Topics() []Topic       { return append([]Topic(nil), e.recipients...) }

// PaymentUpdate reports that an order was settled.
type PaymentUpdate struct {
	OrderID string    `json:"orderId"`
	Paid    bool      `json:"paid"`
	At      time.Time `json:"at"`

	recipients []Topic
}

func (e PaymentUpdate) Kind() Kind            { return KindPaymentUpdate }
func (e PaymentUpdate) Key() string           { return e.OrderID }
func (e PaymentUpdate) OccurredAt() time.Time { return e.At }
func (e PaymentUpdate) Topics() []Topic       { return append([]Topic(nil), e.recipients...) }

// Delivered is the terminal event the revenue projection ingests. It reaches admins only.
type Delivered struct {
	OrderID     string        `json:"orderId"`
	ShopOrderID string        `json:"shopOrderId"`
	ShopID      string        `json:"shopId"`
	ShopName    string        `json:"shopName"`
	CourierID   string        `json:"courierId"`
	Items       []LineSummary `json:"items"`
	Subtotal    int64         `json:"subtotal"`
	DeliveryFee int64         `json:"deliveryFee"`
	At          time.Time     `json:"at"`
}

func (e Delivered) Kind() Kind            { return KindDelivered }
func (e Delivered) Key() string           { return e.ShopOrderID }
func (e Delivered) OccurredAt() time.Time { return e.At }
func (e Delivered) Topics() []Topic       { return []Topic{AdminTopic} }

// Total is what the shop earns for the delivery, items plus fee.
func (e Delivered) Total() int64 {
	return e.Subtotal + e.DeliveryFee
}

func partiesOf(so *order.ShopOrder) []Topic {
	topics := []Topic{CustomerTopic(so.CustomerID()), ShopTopic(so.Shop().OwnerID)}
	if so.Courier() != nil {
		topics = append(topics, CourierTopic(*so.Courier()))
	}
	return append(topics, AdminTopic)
}

func lineSummaries(items []order.LineItem) []LineSummary {
	out := make([]LineSummary, 0, len(items))
	for _, item := range items {
		out = append(out, LineSummary{
			ItemID:    item.ItemID().String(),
			Name:      item.Name(),
			Quantity:  item.Quantity(),
			UnitPrice: item.UnitPrice().Int64(),
			Note:      item.Note(),
		})
	}
	return out
}

func locationOf(name, address string, p kernel.GeoPoint) Location {
	return Location{Name: name, Address: address, Lat: p.Lat(), Lon: p.Lon()}
}
