// Package courierrepo maps Courier aggregates onto the couriers table. The active
// delivery column doubles as the single-claim flag and is only written conditionally.
package courierrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/courier"
	"fulfillment/internal/core/domain/model/events"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// CourierDTO is one courier. CityKey is the normalized city the idle list is queried by.
type CourierDTO struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name              string     `gorm:"type:varchar(255);not null"`
	Phone             string     `gorm:"type:varchar(32)"`
	City              string     `gorm:"type:varchar(128);not null"`
	CityKey           string     `gorm:"type:varchar(128);not null;index"`
	LastLat           *float64   `gorm:"type:double precision"`
	LastLon           *float64   `gorm:"type:double precision"`
	LocatedAt         *time.Time `gorm:"type:timestamptz"`
	ActiveShopOrderID *uuid.UUID `gorm:"type:uuid;index"`
}

func (CourierDTO) TableName() string {
	return "couriers"
}

func fromDomain(aggregate *courier.Courier) CourierDTO {
	dto := CourierDTO{
		ID:      aggregate.ID().Bytes(),
		Name:    aggregate.Name(),
		Phone:   aggregate.Phone(),
		City:    aggregate.City(),
		CityKey: events.NormalizeCity(aggregate.City()),
	}
	if p := aggregate.LastPoint(); p.IsKnown() {
		lat, lon, at := p.Lat(), p.Lon(), aggregate.LocatedAt()
		dto.LastLat, dto.LastLon, dto.LocatedAt = &lat, &lon, &at
	}
	if active := aggregate.ActiveDelivery(); active != nil {
		raw := active.Bytes()
		dto.ActiveShopOrderID = &raw
	}
	return dto
}

func toDomain(dto CourierDTO) (*courier.Courier, error) {
	id, err := kernel.UUIDFromGoogle(dto.ID)
	if err != nil {
		return nil, err
	}

	point := kernel.UnknownPoint()
	var locatedAt time.Time
	if dto.LastLat != nil && dto.LastLon != nil {
		if point, err = kernel.NewGeoPoint(*dto.LastLat, *dto.LastLon); err != nil {
			return nil, err
		}
	}
	if dto.LocatedAt != nil {
		locatedAt = *dto.LocatedAt
	}

	var active *kernel.UUID
	if dto.ActiveShopOrderID != nil {
		held, heldErr := kernel.UUIDFromGoogle(*dto.ActiveShopOrderID)
		if heldErr != nil {
			return nil, heldErr
		}
		active = &held
	}

	return courier.RestoreCourier(id, dto.Name, dto.Phone, dto.City, point, locatedAt, active)
}
