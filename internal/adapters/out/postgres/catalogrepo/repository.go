package catalogrepo

import (
	"context"
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/pkg/errs"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// GormCatalog implements ports.Catalog and ports.AddressBook.
type GormCatalog struct {
	db *gorm.DB
}

func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

// PutShop inserts or replaces a shop.
func (c *GormCatalog) PutShop(ctx context.Context, shop order.ShopRef) error {
	if err := shop.Validate(); err != nil {
		return err
	}
	dto := shopFromDomain(shop)
	return c.db.WithContext(ctx).Save(&dto).Error
}

// PutItem inserts or replaces a menu item. Its shop must exist.
func (c *GormCatalog) PutItem(ctx context.Context, item services.CatalogItem) error {
	if err := item.ID.Validate(); err != nil {
		return err
	}

	var count int64
	if err := c.db.WithContext(ctx).Model(&ShopDTO{}).Where("id = ?", item.ShopID.Bytes()).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return errs.NewObjectNotFoundError("shop", item.ShopID.String())
	}

	dto := itemFromDomain(item)
	return c.db.WithContext(ctx).Save(&dto).Error
}

func (c *GormCatalog) PutAddress(ctx context.Context, customerID, addressID kernel.UUID, address order.Address) error {
	if err := address.Validate(); err != nil {
		return err
	}
	dto := addressFromDomain(customerID, addressID, address)
	return c.db.WithContext(ctx).Save(&dto).Error
}

// Snapshot loads the requested shops and items in two queries. Unknown ids are left out.
func (c *GormCatalog) Snapshot(ctx context.Context, shopIDs, itemIDs []kernel.UUID) (services.Catalog, error) {
	catalog := services.Catalog{
		Shops: make(map[kernel.UUID]order.ShopRef, len(shopIDs)),
		Items: make(map[kernel.UUID]services.CatalogItem, len(itemIDs)),
	}

	if len(shopIDs) > 0 {
		var shops []ShopDTO
		if err := c.db.WithContext(ctx).Where("id = ANY(CAST(? AS uuid[]))", idArray(shopIDs)).Find(&shops).Error; err != nil {
			return services.Catalog{}, err
		}
		for _, dto := range shops {
			shop, err := shopToDomain(dto)
			if err != nil {
				return services.Catalog{}, err
			}
			catalog.Shops[shop.ID] = shop
		}
	}

	if len(itemIDs) > 0 {
		var items []MenuItemDTO
		if err := c.db.WithContext(ctx).Where("id = ANY(CAST(? AS uuid[]))", idArray(itemIDs)).Find(&items).Error; err != nil {
			return services.Catalog{}, err
		}
		for _, dto := range items {
			item, err := itemToDomain(dto)
			if err != nil {
				return services.Catalog{}, err
			}
			catalog.Items[item.ID] = item
		}
	}

	return catalog, nil
}

// Get implements ports.AddressBook. An address of another customer is reported as not found.
func (c *GormCatalog) Get(ctx context.Context, customerID, addressID kernel.UUID) (order.Address, error) {
	var dto AddressDTO
	err := c.db.WithContext(ctx).
		Where("id = ? AND customer_id = ?", addressID.Bytes(), customerID.Bytes()).
		First(&dto).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return order.Address{}, errs.NewObjectNotFoundError("address", addressID.String())
		}
		return order.Address{}, err
	}
	return addressToDomain(dto)
}

func idArray(ids []kernel.UUID) any {
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, id.String())
	}
	return pq.Array(raw)
}
