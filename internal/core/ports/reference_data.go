package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
)

// Catalog reads shops and menu items. It is owned by the catalog service; this core only
// snapshots it at checkout.
type Catalog interface {
	// Snapshot returns the requested shops and items. Unknown ids are simply absent.
	Snapshot(ctx context.Context, shopIDs, itemIDs []kernel.UUID) (services.Catalog, error)
}

// AddressBook reads a customer's saved delivery addresses.
type AddressBook interface {
	// Get returns the address addressID of customerID.
	// Returns errs.ObjectNotFoundError when it does not exist or belongs to someone else.
	Get(ctx context.Context, customerID, addressID kernel.UUID) (order.Address, error)
}

// Geocoder resolves a free-form address line to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (kernel.GeoPoint, error)
}
