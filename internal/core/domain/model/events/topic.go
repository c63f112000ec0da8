package events

import (
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
)

// Topic is a per-recipient channel name such as "customer:<id>" or "couriers:<city>".
type Topic string

// AdminTopic reaches every administrator.
const AdminTopic Topic = "admin"

func CustomerTopic(customerID kernel.UUID) Topic {
	return Topic("customer:" + customerID.String())
}

func ShopTopic(ownerID kernel.UUID) Topic {
	return Topic("shop:" + ownerID.String())
}

func CourierTopic(courierID kernel.UUID) Topic {
	return Topic("courier:" + courierID.String())
}

// CourierPoolTopic reaches every courier operating in city. City names are matched
// case-insensitively.
func CourierPoolTopic(city string) Topic {
	return Topic("couriers:" + NormalizeCity(city))
}

// NormalizeCity is the form cities take in topics and availability lookups.
func NormalizeCity(city string) string {
	return strings.ToLower(strings.Join(strings.Fields(city), " "))
}

func (t Topic) String() string {
	return string(t)
}
