package orderrepo

import (
	"context"
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// GormOrderRepository implements ports.OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a repository on db, which is either the pool or an open
// transaction of the unit of work.
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Add saves a new order together with its ShopOrders and line items.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	return r.db.WithContext(ctx).Create(&dto).Error
}

// Get retrieves an order by ID.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := r.preload(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

func (r *GormOrderRepository) GetByShopOrder(ctx context.Context, shopOrderID kernel.UUID) (*order.Order, error) {
	if err := shopOrderID.Validate(); err != nil {
		return nil, err
	}

	var owner ShopOrderDTO
	err := r.db.WithContext(ctx).Select("order_id").First(&owner, "id = ?", shopOrderID.Bytes()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NewObjectNotFoundError("shop order", shopOrderID.String())
	}
	if err != nil {
		return nil, err
	}

	orderID, err := kernel.UUIDFromGoogle(owner.OrderID)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, orderID)
}

// UpdateShopOrder is guarded by the version column: the row is only written when nobody
// wrote it since so was loaded.
func (r *GormOrderRepository) UpdateShopOrder(ctx context.Context, so *order.ShopOrder) error {
	if err := so.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&ShopOrderDTO{}).
		Where("id = ? AND version = ?", so.ID().Bytes(), so.Version()).
		Updates(map[string]any{
			"status":        int(so.Status()),
			"cancel_reason": so.CancelReason(),
			"delivery_otp":  so.DeliveryOtp(),
			"paid":          so.IsPaid(),
			"reviewed":      so.IsReviewed(),
			"delivered_at":  so.DeliveredAt(),
			"updated_at":    so.UpdatedAt(),
			"version":       gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var stored ShopOrderDTO
		err := r.db.WithContext(ctx).Select("version").First(&stored, "id = ?", so.ID().Bytes()).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NewObjectNotFoundError("shop order", so.ID().String())
		}
		if err != nil {
			return err
		}
		return errs.NewVersionIsInvalidError("shop order",
			fmt.Errorf("loaded version %d, stored version %d", so.Version(), stored.Version))
	}

	so.MarkPersisted()
	return nil
}

// ClaimShopOrder assigns the courier in one conditional UPDATE; Postgres row locking makes
// it the compare-and-swap that at most one claimant wins.
func (r *GormOrderRepository) ClaimShopOrder(ctx context.Context, so *order.ShopOrder) error {
	if err := so.Validate(); err != nil {
		return err
	}
	if so.Courier() == nil {
		return errs.NewValueIsRequiredError("courier")
	}

	result := r.db.WithContext(ctx).Model(&ShopOrderDTO{}).
		Where("id = ? AND status = ? AND courier_id IS NULL", so.ID().Bytes(), int(order.OutOfDelivery)).
		Updates(map[string]any{
			"courier_id": so.Courier().Bytes(),
			"updated_at": so.UpdatedAt(),
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return order.NewClaimConflictError(so.ID(), "already claimed or no longer out of delivery")
	}

	so.MarkPersisted()
	return nil
}

func (r *GormOrderRepository) UpdatePayment(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	db := r.db.WithContext(ctx)
	result := db.Model(&OrderDTO{}).Where("id = ?", aggregate.ID().Bytes()).Update("paid", aggregate.IsPaid())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("order", aggregate.ID().String())
	}

	for _, so := range aggregate.ShopOrders() {
		err := db.Model(&ShopOrderDTO{}).Where("id = ?", so.ID().Bytes()).
			Updates(map[string]any{"paid": so.IsPaid(), "updated_at": so.UpdatedAt()}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// List returns orders with at least one ShopOrder matching filter, newest first.
func (r *GormOrderRepository) List(ctx context.Context, filter ports.OrderFilter) ([]*order.Order, error) {
	matching := r.db.WithContext(ctx).Model(&ShopOrderDTO{}).Select("order_id")
	if filter.CustomerID != nil {
		matching = matching.Where("customer_id = ?", filter.CustomerID.Bytes())
	}
	if filter.ShopOwnerID != nil {
		matching = matching.Where("shop_owner_id = ?", filter.ShopOwnerID.Bytes())
	}
	if filter.CourierID != nil {
		matching = matching.Where("courier_id = ?", filter.CourierID.Bytes())
	}
	if len(filter.Statuses) > 0 {
		matching = matching.Where("status = ANY(?)", pq.Array(statusCodes(filter.Statuses)))
	}

	query := r.preload(ctx).Where("id IN (?)", matching).Order("created_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var dtos []OrderDTO
	if err := query.Find(&dtos).Error; err != nil {
		return nil, err
	}
	return toDomainAll(dtos)
}

func (r *GormOrderRepository) ListAwaitingCourier(ctx context.Context) ([]*order.Order, error) {
	awaiting := r.db.WithContext(ctx).Model(&ShopOrderDTO{}).Select("order_id").
		Where("status = ? AND courier_id IS NULL", int(order.OutOfDelivery))

	var dtos []OrderDTO
	if err := r.preload(ctx).Where("id IN (?)", awaiting).Order("created_at").Find(&dtos).Error; err != nil {
		return nil, err
	}
	return toDomainAll(dtos)
}

func (r *GormOrderRepository) ListDelivered(ctx context.Context, filter ports.DeliveredFilter) ([]*order.ShopOrder, error) {
	query := r.db.WithContext(ctx).
		Preload("Items", byPosition).
		Where("status = ? AND delivered_at IS NOT NULL", int(order.Delivered))
	if filter.CourierID != nil {
		query = query.Where("courier_id = ?", filter.CourierID.Bytes())
	}
	if filter.ShopID != nil {
		query = query.Where("shop_id = ?", filter.ShopID.Bytes())
	}
	if !filter.From.IsZero() {
		query = query.Where("delivered_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("delivered_at < ?", filter.To)
	}

	var dtos []ShopOrderDTO
	if err := query.Order("delivered_at").Find(&dtos).Error; err != nil {
		return nil, err
	}

	out := make([]*order.ShopOrder, 0, len(dtos))
	for _, dto := range dtos {
		so, err := shopOrderToDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, so)
	}
	return out, nil
}

func (r *GormOrderRepository) preload(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("ShopOrders", byPosition).
		Preload("ShopOrders.Items", byPosition)
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

func statusCodes(statuses []order.Status) []int64 {
	codes := make([]int64, 0, len(statuses))
	for _, s := range statuses {
		codes = append(codes, int64(s))
	}
	return codes
}

func toDomainAll(dtos []OrderDTO) ([]*order.Order, error) {
	out := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}
