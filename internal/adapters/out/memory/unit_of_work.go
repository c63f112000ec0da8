package memory

import (
	"context"
	"errors"

	"fulfillment/internal/core/ports"
)

// ErrNoTransaction mirrors gorm.ErrInvalidTransaction for the memory mode.
var ErrNoTransaction = errors.New("no active transaction")

type UnitOfWorkFactory struct {
	store *Store
}

func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// UnitOfWork records an undo step for every write made while a transaction is open.
// Rollback replays them in reverse; Commit forgets them. Writes outside a transaction
// apply immediately.
type UnitOfWork struct {
	store  *Store
	active bool
	undo   []func()
}

func (u *UnitOfWork) Begin(_ context.Context) error {
	if u.active {
		return nil
	}
	u.active = true
	u.undo = nil
	return nil
}

func (u *UnitOfWork) Commit(_ context.Context) error {
	if !u.active {
		return ErrNoTransaction
	}
	u.active = false
	u.undo = nil
	return nil
}

func (u *UnitOfWork) Rollback(_ context.Context) error {
	if !u.active {
		return ErrNoTransaction
	}
	u.store.mu.Lock()
	for i := len(u.undo) - 1; i >= 0; i-- {
		u.undo[i]()
	}
	u.store.mu.Unlock()

	u.active = false
	u.undo = nil
	return nil
}

func (u *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &OrderRepository{store: u.store, tx: u}
}

func (u *UnitOfWork) CourierRepository() ports.CourierRepository {
	return &CourierRepository{store: u.store, tx: u}
}

// record registers an undo step. The store mutex is held by the caller.
func (u *UnitOfWork) record(step func()) {
	if u.active {
		u.undo = append(u.undo, step)
	}
}
