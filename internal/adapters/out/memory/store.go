// Package memory is an in-process implementation of the persistence ports. It backs the
// "memory" storage mode and the application tests.
//
// Rows are stored as detached state values, so every Get hands out a fresh aggregate and
// a rolled back unit of work leaves no trace. Transactions are not isolated from each
// other; conditional writes (claims, versions) are checked under the store mutex.
package memory

import (
	"context"
	"sync"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/pkg/errs"
)

type orderRow struct {
	id            kernel.UUID
	customerID    kernel.UUID
	address       order.Address
	paymentMethod order.PaymentMethod
	paid          bool
	createdAt     time.Time
	shopOrderIDs  []kernel.UUID
}

type courierRow struct {
	id        kernel.UUID
	name      string
	phone     string
	city      string
	point     kernel.GeoPoint
	locatedAt time.Time
	active    *kernel.UUID
}

type addressKey struct {
	customerID kernel.UUID
	addressID  kernel.UUID
}

// Store holds every table of the memory mode.
type Store struct {
	mu         sync.RWMutex
	orders     map[kernel.UUID]orderRow
	shopOrders map[kernel.UUID]order.ShopOrderState
	couriers   map[kernel.UUID]courierRow
	shops      map[kernel.UUID]order.ShopRef
	items      map[kernel.UUID]services.CatalogItem
	addresses  map[addressKey]order.Address
}

func NewStore() *Store {
	return &Store{
		orders:     make(map[kernel.UUID]orderRow),
		shopOrders: make(map[kernel.UUID]order.ShopOrderState),
		couriers:   make(map[kernel.UUID]courierRow),
		shops:      make(map[kernel.UUID]order.ShopRef),
		items:      make(map[kernel.UUID]services.CatalogItem),
		addresses:  make(map[addressKey]order.Address),
	}
}

// PutShop adds or replaces a shop of the catalog.
func (s *Store) PutShop(shop order.ShopRef) error {
	if err := shop.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shops[shop.ID] = shop
	return nil
}

// PutItem adds or replaces a menu item. Its shop must exist.
func (s *Store) PutItem(item services.CatalogItem) error {
	if err := item.ID.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shops[item.ShopID]; !ok {
		return errs.NewObjectNotFoundError("shop", item.ShopID.String())
	}
	s.items[item.ID] = item
	return nil
}

// PutAddress saves a delivery address for customerID.
func (s *Store) PutAddress(customerID, addressID kernel.UUID, address order.Address) error {
	if err := address.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addresses[addressKey{customerID: customerID, addressID: addressID}] = address
	return nil
}

// Snapshot implements ports.Catalog.
func (s *Store) Snapshot(_ context.Context, shopIDs, itemIDs []kernel.UUID) (services.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	catalog := services.Catalog{
		Shops: make(map[kernel.UUID]order.ShopRef, len(shopIDs)),
		Items: make(map[kernel.UUID]services.CatalogItem, len(itemIDs)),
	}
	for _, id := range shopIDs {
		if shop, ok := s.shops[id]; ok {
			catalog.Shops[id] = shop
		}
	}
	for _, id := range itemIDs {
		if item, ok := s.items[id]; ok {
			catalog.Items[id] = item
		}
	}
	return catalog, nil
}

// AddressBook exposes the saved addresses as a ports.AddressBook.
func (s *Store) AddressBook() AddressBook {
	return AddressBook{store: s}
}

// AddressBook implements ports.AddressBook on a Store.
type AddressBook struct {
	store *Store
}

func (b AddressBook) Get(_ context.Context, customerID, addressID kernel.UUID) (order.Address, error) {
	b.store.mu.RLock()
	defer b.store.mu.RUnlock()

	address, ok := b.store.addresses[addressKey{customerID: customerID, addressID: addressID}]
	if !ok {
		return order.Address{}, errs.NewObjectNotFoundError("address", addressID.String())
	}
	return address, nil
}
