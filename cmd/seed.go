package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"

	"github.com/google/uuid"
)

// CatalogWriter accepts the reference data the catalog service would own.
type CatalogWriter interface {
	PutShop(ctx context.Context, shop order.ShopRef) error
	PutItem(ctx context.Context, item services.CatalogItem) error
	PutAddress(ctx context.Context, customerID, addressID kernel.UUID, address order.Address) error
}

// Seed is the JSON layout of SEED_FILE.
type Seed struct {
	Shops []struct {
		ID      uuid.UUID  `json:"id"`
		OwnerID uuid.UUID  `json:"ownerId"`
		Name    string     `json:"name"`
		City    string     `json:"city"`
		Point   *seedPoint `json:"point"`
	} `json:"shops"`
	Items []struct {
		ID        uuid.UUID `json:"id"`
		ShopID    uuid.UUID `json:"shopId"`
		Name      string    `json:"name"`
		Price     int64     `json:"price"`
		Available *bool     `json:"available"`
	} `json:"items"`
	Addresses []struct {
		ID         uuid.UUID  `json:"id"`
		CustomerID uuid.UUID  `json:"customerId"`
		Street     string     `json:"street"`
		Commune    string     `json:"commune"`
		District   string     `json:"district"`
		City       string     `json:"city"`
		Point      *seedPoint `json:"point"`
	} `json:"addresses"`
}

type seedPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (p *seedPoint) geo() (kernel.GeoPoint, error) {
	if p == nil {
		return kernel.UnknownPoint(), nil
	}
	return kernel.NewGeoPoint(p.Lat, p.Lon)
}

func ReadSeed(path string) (Seed, error) {
	var seed Seed
	raw, err := os.ReadFile(path)
	if err != nil {
		return seed, err
	}
	if err := json.Unmarshal(raw, &seed); err != nil {
		return seed, fmt.Errorf("parse seed %s: %w", path, err)
	}
	return seed, nil
}

// Apply writes every record, stopping at the first one the catalog rejects.
func (s Seed) Apply(ctx context.Context, w CatalogWriter) error {
	for i, row := range s.Shops {
		point, err := row.Point.geo()
		if err != nil {
			return fmt.Errorf("shop %d: %w", i, err)
		}
		id, ownerID, err := ids(row.ID, row.OwnerID)
		if err != nil {
			return fmt.Errorf("shop %d: %w", i, err)
		}
		shop := order.ShopRef{ID: id, OwnerID: ownerID, Name: row.Name, City: row.City, Point: point}
		if err := w.PutShop(ctx, shop); err != nil {
			return fmt.Errorf("shop %d: %w", i, err)
		}
	}
	for i, row := range s.Items {
		id, shopID, err := ids(row.ID, row.ShopID)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		item := services.CatalogItem{
			ID:        id,
			ShopID:    shopID,
			Name:      row.Name,
			Price:     kernel.Money(row.Price),
			Available: row.Available == nil || *row.Available,
		}
		if err := w.PutItem(ctx, item); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	for i, row := range s.Addresses {
		point, err := row.Point.geo()
		if err != nil {
			return fmt.Errorf("address %d: %w", i, err)
		}
		id, customerID, err := ids(row.ID, row.CustomerID)
		if err != nil {
			return fmt.Errorf("address %d: %w", i, err)
		}
		address := order.Address{
			Street:   row.Street,
			Commune:  row.Commune,
			District: row.District,
			City:     row.City,
			Point:    point,
		}
		if err := w.PutAddress(ctx, customerID, id, address); err != nil {
			return fmt.Errorf("address %d: %w", i, err)
		}
	}
	return nil
}

func ids(a, b uuid.UUID) (kernel.UUID, kernel.UUID, error) {
	first, errA := kernel.UUIDFromGoogle(a)
	second, errB := kernel.UUIDFromGoogle(b)
	return first, second, errors.Join(errA, errB)
}

// memoryCatalog adapts the in-memory store to CatalogWriter.
type memoryCatalog struct {
	store interface {
		PutShop(order.ShopRef) error
		PutItem(services.CatalogItem) error
		PutAddress(customerID, addressID kernel.UUID, address order.Address) error
	}
}

func (m memoryCatalog) PutShop(_ context.Context, shop order.ShopRef) error {
	return m.store.PutShop(shop)
}

func (m memoryCatalog) PutItem(_ context.Context, item services.CatalogItem) error {
	return m.store.PutItem(item)
}

func (m memoryCatalog) PutAddress(_ context.Context, customerID, addressID kernel.UUID, address order.Address) error {
	return m.store.PutAddress(customerID, addressID, address)
}
