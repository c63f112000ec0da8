// Package catalogrepo reads the shop, menu and saved-address tables that the catalog and
// customer services own. Checkout only ever snapshots them.
package catalogrepo

import (
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"

	"github.com/google/uuid"
)

type ShopDTO struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name    string    `gorm:"type:varchar(255);not null"`
	City    string    `gorm:"type:varchar(128);not null"`
	Lat     *float64  `gorm:"type:double precision"`
	Lon     *float64  `gorm:"type:double precision"`
}

func (ShopDTO) TableName() string {
	return "shops"
}

type MenuItemDTO struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ShopID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Price     int64     `gorm:"not null"`
	Available bool      `gorm:"not null"`
}

func (MenuItemDTO) TableName() string {
	return "menu_items"
}

type AddressDTO struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index"`
	Street     string    `gorm:"type:varchar(255);not null"`
	Commune    string    `gorm:"type:varchar(128)"`
	District   string    `gorm:"type:varchar(128)"`
	City       string    `gorm:"type:varchar(128);not null"`
	Lat        *float64  `gorm:"type:double precision"`
	Lon        *float64  `gorm:"type:double precision"`
}

func (AddressDTO) TableName() string {
	return "customer_addresses"
}

func shopFromDomain(shop order.ShopRef) ShopDTO {
	lat, lon := pointToColumns(shop.Point)
	return ShopDTO{
		ID:      shop.ID.Bytes(),
		OwnerID: shop.OwnerID.Bytes(),
		Name:    shop.Name,
		City:    shop.City,
		Lat:     lat,
		Lon:     lon,
	}
}

func shopToDomain(dto ShopDTO) (order.ShopRef, error) {
	id, err := kernel.UUIDFromGoogle(dto.ID)
	if err != nil {
		return order.ShopRef{}, err
	}
	ownerID, err := kernel.UUIDFromGoogle(dto.OwnerID)
	if err != nil {
		return order.ShopRef{}, err
	}
	point, err := pointFromColumns(dto.Lat, dto.Lon)
	if err != nil {
		return order.ShopRef{}, err
	}
	return order.ShopRef{ID: id, OwnerID: ownerID, Name: dto.Name, City: dto.City, Point: point}, nil
}

func itemFromDomain(item services.CatalogItem) MenuItemDTO {
	return MenuItemDTO{
		ID:        item.ID.Bytes(),
		ShopID:    item.ShopID.Bytes(),
		Name:      item.Name,
		Price:     item.Price.Int64(),
		Available: item.Available,
	}
}

func itemToDomain(dto MenuItemDTO) (services.CatalogItem, error) {
	id, err := kernel.UUIDFromGoogle(dto.ID)
	if err != nil {
		return services.CatalogItem{}, err
	}
	shopID, err := kernel.UUIDFromGoogle(dto.ShopID)
	if err != nil {
		return services.CatalogItem{}, err
	}
	return services.CatalogItem{
		ID:        id,
		ShopID:    shopID,
		Name:      dto.Name,
		Price:     kernel.Money(dto.Price),
		Available: dto.Available,
	}, nil
}

func addressFromDomain(customerID, addressID kernel.UUID, address order.Address) AddressDTO {
	lat, lon := pointToColumns(address.Point)
	return AddressDTO{
		ID:         addressID.Bytes(),
		CustomerID: customerID.Bytes(),
		Street:     address.Street,
		Commune:    address.Commune,
		District:   address.District,
		City:       address.City,
		Lat:        lat,
		Lon:        lon,
	}
}

func addressToDomain(dto AddressDTO) (order.Address, error) {
	point, err := pointFromColumns(dto.Lat, dto.Lon)
	if err != nil {
		return order.Address{}, err
	}
	return order.Address{
		Street:   dto.Street,
		Commune:  dto.Commune,
		District: dto.District,
		City:     dto.City,
		Point:    point,
	}, nil
}

func pointToColumns(p kernel.GeoPoint) (lat, lon *float64) {
	if !p.IsKnown() {
		return nil, nil
	}
	la, lo := p.Lat(), p.Lon()
	return &la, &lo
}

func pointFromColumns(lat, lon *float64) (kernel.GeoPoint, error) {
	if lat == nil || lon == nil {
		return kernel.UnknownPoint(), nil
	}
	return kernel.NewGeoPoint(*lat, *lon)
}
