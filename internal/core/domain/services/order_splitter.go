package services

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// CartLine is one line of a checkout request. Prices are not trusted from the client;
// the splitter snapshots them from the catalog.
type CartLine struct {
	ShopID   kernel.UUID
	ItemID   kernel.UUID
	Quantity int
	Note     string
}

// CatalogItem is a menu item as the catalog knows it at checkout time.
type CatalogItem struct {
	ID        kernel.UUID
	ShopID    kernel.UUID
	Name      string
	Price     kernel.Money
	Available bool
}

// Catalog is the slice of shops and items a cart refers to.
type Catalog struct {
	Shops map[kernel.UUID]order.ShopRef
	Items map[kernel.UUID]CatalogItem
}

// Checkout is everything the splitter needs besides the cart lines.
type Checkout struct {
	OrderID       kernel.UUID
	CustomerID    kernel.UUID
	Address       order.Address
	PaymentMethod order.PaymentMethod
	Now           time.Time
}

// OrderSplitter partitions a cart into one pending ShopOrder per shop.
//
// Guarantees:
//   - shops keep the order of their first appearance in the cart
//   - every cart line lands in exactly one ShopOrder; lines for the same item stay separate
//   - each ShopOrder is priced once with FeeCalculator and never re-priced
type OrderSplitter struct {
	fees FeeCalculator
}

func NewOrderSplitter(fees FeeCalculator) OrderSplitter {
	return OrderSplitter{fees: fees}
}

// Split builds the Order. It fails with order.InvalidCartError when the cart is empty or a
// line refers to a shop or item the catalog does not know, or to an item of another shop.
func (s OrderSplitter) Split(checkout Checkout, lines []CartLine, catalog Catalog) (*order.Order, error) {
	if len(lines) == 0 {
		return nil, order.NewInvalidCartError("cart is empty")
	}

	type group struct {
		shop  order.ShopRef
		items []order.LineItem
	}
	var (
		groups []*group
		byShop = make(map[kernel.UUID]*group)
	)

	for i, line := range lines {
		shop, ok := catalog.Shops[line.ShopID]
		if !ok {
			return nil, order.NewInvalidCartError("line %d: shop %s does not exist", i+1, line.ShopID)
		}
		item, ok := catalog.Items[line.ItemID]
		if !ok {
			return nil, order.NewInvalidCartError("line %d: item %s does not exist", i+1, line.ItemID)
		}
		if !item.ShopID.IsEqual(line.ShopID) {
			return nil, order.NewInvalidCartError("line %d: item %s is not sold by shop %s", i+1, item.Name, shop.Name)
		}
		if !item.Available {
			return nil, order.NewInvalidCartError("line %d: item %s is not available", i+1, item.Name)
		}

		lineItem, err := order.NewLineItem(item.ID, item.Name, item.Price, line.Quantity, line.Note)
		if err != nil {
			return nil, errors.Join(order.NewInvalidCartError("line %d is invalid", i+1), err)
		}

		g, seen := byShop[line.ShopID]
		if !seen {
			g = &group{shop: shop}
			byShop[line.ShopID] = g
			groups = append(groups, g)
		}
		g.items = append(g.items, lineItem)
	}

	shopOrders := make([]*order.ShopOrder, 0, len(groups))
	for _, g := range groups {
		fee := s.fees.Fee(g.shop.Point, checkout.Address.Point)
		so, err := order.NewShopOrder(kernel.NewUUID(), checkout.OrderID, checkout.CustomerID,
			g.shop, g.items, fee, checkout.Now)
		if err != nil {
			return nil, err
		}
		shopOrders = append(shopOrders, so)
	}

	return order.NewOrder(checkout.OrderID, checkout.CustomerID, checkout.Address, checkout.PaymentMethod,
		shopOrders, checkout.Now)
}
