package courier

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

// Domain errors for courier operations.
var (
	// ErrNameIsRequired is returned when attempting to create a courier without a name.
	ErrNameIsRequired = errs.NewValueIsRequiredError("name")
	// ErrCityIsRequired is returned when attempting to create a courier without an operating city.
	ErrCityIsRequired = errs.NewValueIsRequiredError("city")
	// ErrCourierIsNotConstructed is returned when using an improperly initialized Courier.
	ErrCourierIsNotConstructed = errors.New("Courier must be created via NewCourier constructor")
	// ErrCourierBusy is returned when a courier that already holds a delivery tries to claim another.
	ErrCourierBusy = errors.New("courier already holds an active delivery")
	// ErrDeliveryNotHeld is returned when a courier completes a delivery it does not hold.
	ErrDeliveryNotHeld = errors.New("courier does not hold this delivery")
)

// Courier represents a delivery courier.
// It is an aggregate root that tracks who the courier is, where they work, where they
// were last seen and which delivery, if any, they are carrying.
//
// Business rules:
//   - Courier must have a valid UUID, a non-empty name and a non-empty city
//   - activeShopOrderID is set between a successful claim and the delivery code check
//   - A second claim while activeShopOrderID is set fails with ErrCourierBusy
//
// Example usage:
//
//	c, err := courier.NewCourier(kernel.NewUUID(), "Tran Van An", "+84901234567", "Ho Chi Minh")
//	if err != nil {
//	    // Handle construction error
//	}
//	if err := c.TakeDelivery(shopOrderID); errors.Is(err, courier.ErrCourierBusy) {
//	    // finish the current delivery first
//	}
type Courier struct {
	// id uniquely identifies the courier
	id kernel.UUID
	// name is the human-readable name shown to customers and shops
	name string
	// phone is the contact number shown on assignment
	phone string
	// city is the operating city; the availability board is partitioned by it
	city string
	// lastPoint is the last reported position, unknown until the first location update
	lastPoint kernel.GeoPoint
	// locatedAt is when lastPoint was reported
	locatedAt time.Time
	// activeShopOrderID is the delivery the courier is currently carrying
	activeShopOrderID *kernel.UUID
	// guard ensures the courier was properly constructed
	guard guard.ConstructorGuard
}

// NewCourier creates a new idle Courier with an unknown position.
//
// Parameters:
//   - id: Unique identifier for the courier (must be valid UUID)
//   - name: Human-readable name (must be non-empty)
//   - phone: Contact number (optional)
//   - city: Operating city (must be non-empty)
//
// Returns:
//   - *Courier: A courier ready to claim deliveries
//   - error: Validation error if any parameter is invalid (aggregated errors for multiple issues)
func NewCourier(id kernel.UUID, name, phone, city string) (*Courier, error) {
	courier := &Courier{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		courier.setID(id),
		courier.setName(name),
		courier.setCity(city),
	); err != nil {
		return nil, err
	}
	courier.phone = strings.TrimSpace(phone)

	return courier, nil
}

// RestoreCourier reconstructs a Courier aggregate from persistent storage, including the
// delivery it is carrying.
//
// Examples:
//
//	c, err := courier.RestoreCourier(id, "Tran Van An", phone, "Ho Chi Minh", point, locatedAt, &shopOrderID)
//	if err != nil {
//	    return fmt.Errorf("restoration failed: %w", err)
//	}
func RestoreCourier(
	id kernel.UUID,
	name, phone, city string,
	lastPoint kernel.GeoPoint,
	locatedAt time.Time,
	activeShopOrderID *kernel.UUID,
) (*Courier, error) {
	courier, err := NewCourier(id, name, phone, city)
	if err != nil {
		return nil, err
	}
	if activeShopOrderID != nil {
		if err := activeShopOrderID.Validate(); err != nil {
			return nil, err
		}
		held := *activeShopOrderID
		courier.activeShopOrderID = &held
	}
	courier.lastPoint = lastPoint
	courier.locatedAt = locatedAt

	return courier, nil
}

// IsEqual compares two couriers by identifier.
func (c *Courier) IsEqual(other *Courier) bool {
	if other == nil {
		return false
	}
	return c.id.IsEqual(other.id)
}

// Validate checks if the Courier was properly constructed.
// The zero value of Courier is invalid and will fail this validation.
func (c *Courier) Validate() error {
	if c == nil {
		return ErrCourierIsNotConstructed
	}
	return c.guard.Validate(ErrCourierIsNotConstructed)
}

func (c *Courier) ID() kernel.UUID {
	return c.id
}

func (c *Courier) Name() string {
	return c.name
}

func (c *Courier) Phone() string {
	return c.phone
}

func (c *Courier) City() string {
	return c.city
}

// LastPoint returns the last reported position; it is unknown until UpdateLocation is called.
func (c *Courier) LastPoint() kernel.GeoPoint {
	return c.lastPoint
}

func (c *Courier) LocatedAt() time.Time {
	return c.locatedAt
}

// ActiveDelivery returns the ShopOrder the courier is carrying, or nil when idle.
func (c *Courier) ActiveDelivery() *kernel.UUID {
	return c.activeShopOrderID
}

// IsBusy reports whether the courier currently holds a delivery.
func (c *Courier) IsBusy() bool {
	return c.activeShopOrderID != nil
}

// UpdateLocation records the courier's current position.
// Unknown points are rejected: a courier either reports where they are or nothing.
func (c *Courier) UpdateLocation(point kernel.GeoPoint, at time.Time) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !point.IsKnown() {
		return errs.NewValueIsRequiredError("location")
	}

	c.lastPoint = point
	c.locatedAt = at
	return nil
}

// TakeDelivery marks shopOrderID as the courier's active delivery.
//
// Business rules:
//   - Taking the delivery already held is a no-op
//   - Taking a different delivery while one is held fails with ErrCourierBusy
//
// State changes:
//   - activeShopOrderID is set to shopOrderID
func (c *Courier) TakeDelivery(shopOrderID kernel.UUID) error {
	if err := errors.Join(c.Validate(), shopOrderID.Validate()); err != nil {
		return err
	}
	if c.activeShopOrderID != nil {
		if c.activeShopOrderID.IsEqual(shopOrderID) {
			return nil
		}
		return fmt.Errorf("%w: holding %s", ErrCourierBusy, c.activeShopOrderID)
	}

	c.activeShopOrderID = &shopOrderID
	return nil
}

// CompleteDelivery clears the active delivery once the delivery code was accepted.
// It fails with ErrDeliveryNotHeld when shopOrderID is not the delivery being carried.
func (c *Courier) CompleteDelivery(shopOrderID kernel.UUID) error {
	if err := errors.Join(c.Validate(), shopOrderID.Validate()); err != nil {
		return err
	}
	if c.activeShopOrderID == nil || !c.activeShopOrderID.IsEqual(shopOrderID) {
		return ErrDeliveryNotHeld
	}

	c.activeShopOrderID = nil
	return nil
}

// setID sets the courier's unique identifier with validation.
func (c *Courier) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.id = id
	return nil
}

func (c *Courier) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameIsRequired
	}

	c.name = name
	return nil
}

func (c *Courier) setCity(city string) error {
	city = strings.TrimSpace(city)
	if city == "" {
		return ErrCityIsRequired
	}

	c.city = city
	return nil
}
