package memory

import (
	"context"
	"fmt"
	"sort"

	"fulfillment/internal/core/domain/model/courier"
	"fulfillment/internal/core/domain/model/events"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

// CourierRepository implements ports.CourierRepository on a Store.
type CourierRepository struct {
	store *Store
	tx    *UnitOfWork
}

func (r *CourierRepository) Add(_ context.Context, aggregate *courier.Courier) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.couriers[aggregate.ID()]; exists {
		return errs.NewValueIsInvalidErrorWithCause("courier", fmt.Errorf("%s already exists", aggregate.ID()))
	}
	row := courierRow{
		id:        aggregate.ID(),
		name:      aggregate.Name(),
		phone:     aggregate.Phone(),
		city:      aggregate.City(),
		point:     aggregate.LastPoint(),
		locatedAt: aggregate.LocatedAt(),
		active:    aggregate.ActiveDelivery(),
	}
	r.store.couriers[row.id] = row
	r.tx.record(func() { delete(r.store.couriers, row.id) })
	return nil
}

func (r *CourierRepository) Get(_ context.Context, id kernel.UUID) (*courier.Courier, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	row, ok := r.store.couriers[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("courier", id.String())
	}
	return restoreCourier(row)
}

func (r *CourierRepository) UpdateLocation(_ context.Context, aggregate *courier.Courier) error {
	return r.update(aggregate.ID(), func(row *courierRow) error {
		row.point = aggregate.LastPoint()
		row.locatedAt = aggregate.LocatedAt()
		return nil
	})
}

func (r *CourierRepository) TakeDelivery(_ context.Context, aggregate *courier.Courier, shopOrderID kernel.UUID) error {
	return r.update(aggregate.ID(), func(row *courierRow) error {
		if row.active != nil && !row.active.IsEqual(shopOrderID) {
			return fmt.Errorf("%w: holding %s", courier.ErrCourierBusy, row.active)
		}
		row.active = &shopOrderID
		return nil
	})
}

func (r *CourierRepository) CompleteDelivery(_ context.Context, aggregate *courier.Courier, shopOrderID kernel.UUID) error {
	return r.update(aggregate.ID(), func(row *courierRow) error {
		if row.active == nil || !row.active.IsEqual(shopOrderID) {
			return courier.ErrDeliveryNotHeld
		}
		row.active = nil
		return nil
	})
}

func (r *CourierRepository) ListIdle(_ context.Context, city string) ([]*courier.Courier, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	want := events.NormalizeCity(city)
	rows := make([]courierRow, 0)
	for _, row := range r.store.couriers {
		if row.active == nil && events.NormalizeCity(row.city) == want {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].name < rows[j].name })

	out := make([]*courier.Courier, 0, len(rows))
	for _, row := range rows {
		c, err := restoreCourier(row)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *CourierRepository) update(id kernel.UUID, apply func(row *courierRow) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.couriers[id]
	if !ok {
		return errs.NewObjectNotFoundError("courier", id.String())
	}
	next := stored
	if err := apply(&next); err != nil {
		return err
	}
	r.store.couriers[id] = next
	r.tx.record(func() { r.store.couriers[id] = stored })
	return nil
}

func restoreCourier(row courierRow) (*courier.Courier, error) {
	return courier.RestoreCourier(row.id, row.name, row.phone, row.city, row.point, row.locatedAt, row.active)
}
