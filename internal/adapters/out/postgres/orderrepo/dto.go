// Package orderrepo maps Order aggregates onto three tables: orders, shop_orders and
// shop_order_items. ShopOrder rows carry a version column that guards every update.
package orderrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO is one checkout. The delivery address is a snapshot embedded in the row.
type OrderDTO struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey"`
	CustomerID    uuid.UUID      `gorm:"type:uuid;not null;index"`
	Address       AddressDTO     `gorm:"embedded;embeddedPrefix:address_"`
	PaymentMethod string         `gorm:"type:varchar(16);not null"`
	Paid          bool           `gorm:"not null;default:false"`
	CreatedAt     time.Time      `gorm:"not null;index"`
	ShopOrders    []ShopOrderDTO `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

type AddressDTO struct {
	Street   string `gorm:"type:varchar(255)"`
	Commune  string `gorm:"type:varchar(128)"`
	District string `gorm:"type:varchar(128)"`
	City     string `gorm:"type:varchar(128)"`
	Lat      *float64
	Lon      *float64
}

// ShopOrderDTO holds the durable lifecycle fields of a ShopOrder: status, courier,
// delivery code and cancel reason are read directly by the order and delivery queries.
type ShopOrderDTO struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey"`
	OrderID      uuid.UUID     `gorm:"type:uuid;not null;index"`
	Position     int           `gorm:"not null"`
	CustomerID   uuid.UUID     `gorm:"type:uuid;not null;index"`
	ShopID       uuid.UUID     `gorm:"type:uuid;not null;index"`
	ShopOwnerID  uuid.UUID     `gorm:"type:uuid;not null;index"`
	ShopName     string        `gorm:"type:varchar(255);not null"`
	ShopCity     string        `gorm:"type:varchar(128)"`
	ShopLat      *float64      `gorm:"type:double precision"`
	ShopLon      *float64      `gorm:"type:double precision"`
	DeliveryFee  int64         `gorm:"not null"`
	Status       int           `gorm:"not null;index"`
	CancelReason string        `gorm:"type:text"`
	CourierID    *uuid.UUID    `gorm:"type:uuid;index"`
	DeliveryOtp  string        `gorm:"type:varchar(16)"`
	Paid         bool          `gorm:"not null;default:false"`
	Reviewed     bool          `gorm:"not null;default:false"`
	Version      int64         `gorm:"not null;default:0"`
	CreatedAt    time.Time     `gorm:"not null"`
	UpdatedAt    time.Time     `gorm:"not null"`
	DeliveredAt  *time.Time    `gorm:"index"`
	Items        []LineItemDTO `gorm:"foreignKey:ShopOrderID;constraint:OnDelete:CASCADE"`
}

func (ShopOrderDTO) TableName() string {
	return "shop_orders"
}

type LineItemDTO struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	ShopOrderID uuid.UUID `gorm:"type:uuid;not null;index"`
	Position    int       `gorm:"not null"`
	ItemID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"type:varchar(255);not null"`
	UnitPrice   int64     `gorm:"not null"`
	Quantity    int       `gorm:"not null"`
	Note        string    `gorm:"type:text"`
}

func (LineItemDTO) TableName() string {
	return "shop_order_items"
}

func fromDomain(aggregate *order.Order) OrderDTO {
	addr := aggregate.Address()
	dto := OrderDTO{
		ID:         aggregate.ID().Bytes(),
		CustomerID: aggregate.CustomerID().Bytes(),
		Address: AddressDTO{
			Street:   addr.Street,
			Commune:  addr.Commune,
			District: addr.District,
			City:     addr.City,
		},
		PaymentMethod: string(aggregate.PaymentMethod()),
		Paid:          aggregate.IsPaid(),
		CreatedAt:     aggregate.CreatedAt(),
	}
	dto.Address.Lat, dto.Address.Lon = pointToColumns(addr.Point)

	for i, so := range aggregate.ShopOrders() {
		dto.ShopOrders = append(dto.ShopOrders, shopOrderFromDomain(so, i))
	}
	return dto
}

func shopOrderFromDomain(so *order.ShopOrder, position int) ShopOrderDTO {
	state := so.State()
	dto := ShopOrderDTO{
		ID:           state.ID.Bytes(),
		OrderID:      state.OrderID.Bytes(),
		Position:     position,
		CustomerID:   state.CustomerID.Bytes(),
		ShopID:       state.Shop.ID.Bytes(),
		ShopOwnerID:  state.Shop.OwnerID.Bytes(),
		ShopName:     state.Shop.Name,
		ShopCity:     state.Shop.City,
		DeliveryFee:  state.DeliveryFee.Int64(),
		Status:       int(state.Status),
		CancelReason: state.CancelReason,
		DeliveryOtp:  state.DeliveryOtp,
		Paid:         state.Paid,
		Reviewed:     state.Reviewed,
		Version:      state.Version,
		CreatedAt:    state.CreatedAt,
		UpdatedAt:    state.UpdatedAt,
		DeliveredAt:  state.DeliveredAt,
	}
	dto.ShopLat, dto.ShopLon = pointToColumns(state.Shop.Point)
	if state.CourierID != nil {
		raw := state.CourierID.Bytes()
		dto.CourierID = &raw
	}
	for i, item := range state.Items {
		dto.Items = append(dto.Items, LineItemDTO{
			ShopOrderID: dto.ID,
			Position:    i,
			ItemID:      item.ItemID().Bytes(),
			Name:        item.Name(),
			UnitPrice:   item.UnitPrice().Int64(),
			Quantity:    item.Quantity(),
			Note:        item.Note(),
		})
	}
	return dto
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromGoogle(dto.ID)
	if err != nil {
		return nil, err
	}
	customerID, err := kernel.UUIDFromGoogle(dto.CustomerID)
	if err != nil {
		return nil, err
	}
	point, err := pointFromColumns(dto.Address.Lat, dto.Address.Lon)
	if err != nil {
		return nil, err
	}

	shopOrders := make([]*order.ShopOrder, 0, len(dto.ShopOrders))
	for _, soDTO := range dto.ShopOrders {
		so, soErr := shopOrderToDomain(soDTO)
		if soErr != nil {
			return nil, soErr
		}
		shopOrders = append(shopOrders, so)
	}

	return order.RestoreOrder(order.OrderState{
		ID:         id,
		CustomerID: customerID,
		Address: order.Address{
			Street:   dto.Address.Street,
			Commune:  dto.Address.Commune,
			District: dto.Address.District,
			City:     dto.Address.City,
			Point:    point,
		},
		PaymentMethod: order.PaymentMethod(dto.PaymentMethod),
		Paid:          dto.Paid,
		CreatedAt:     dto.CreatedAt,
		ShopOrders:    shopOrders,
	})
}

func shopOrderToDomain(dto ShopOrderDTO) (*order.ShopOrder, error) {
	ids := make([]kernel.UUID, 0, 5)
	for _, raw := range []uuid.UUID{dto.ID, dto.OrderID, dto.CustomerID, dto.ShopID, dto.ShopOwnerID} {
		id, err := kernel.UUIDFromGoogle(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	shopPoint, err := pointFromColumns(dto.ShopLat, dto.ShopLon)
	if err != nil {
		return nil, err
	}

	var courierID *kernel.UUID
	if dto.CourierID != nil {
		id, courierErr := kernel.UUIDFromGoogle(*dto.CourierID)
		if courierErr != nil {
			return nil, courierErr
		}
		courierID = &id
	}

	items := make([]order.LineItem, 0, len(dto.Items))
	for _, itemDTO := range dto.Items {
		itemID, idErr := kernel.UUIDFromGoogle(itemDTO.ItemID)
		if idErr != nil {
			return nil, idErr
		}
		item, itemErr := order.NewLineItem(itemID, itemDTO.Name, kernel.Money(itemDTO.UnitPrice), itemDTO.Quantity, itemDTO.Note)
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, item)
	}

	return order.RestoreShopOrder(order.ShopOrderState{
		ID:         ids[0],
		OrderID:    ids[1],
		CustomerID: ids[2],
		Shop: order.ShopRef{
			ID:      ids[3],
			OwnerID: ids[4],
			Name:    dto.ShopName,
			City:    dto.ShopCity,
			Point:   shopPoint,
		},
		Items:        items,
		DeliveryFee:  kernel.Money(dto.DeliveryFee),
		Status:       order.Status(dto.Status),
		CancelReason: dto.CancelReason,
		CourierID:    courierID,
		DeliveryOtp:  dto.DeliveryOtp,
		Paid:         dto.Paid,
		Reviewed:     dto.Reviewed,
		Version:      dto.Version,
		CreatedAt:    dto.CreatedAt,
		UpdatedAt:    dto.UpdatedAt,
		DeliveredAt:  dto.DeliveredAt,
	})
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
