// Package keylock provides mutual exclusion scoped to a single key.
//
// Two goroutines locking the same key serialize; goroutines locking different keys never
// contend on anything except a short bookkeeping critical section. Entries are reference
// counted and dropped once the last holder unlocks, so the table only holds keys that are
// currently locked or awaited.
package keylock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Locker is safe for concurrent use. The zero value is ready to use.
type Locker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New returns an empty Locker.
func New() *Locker {
	return &Locker{entries: make(map[string]*entry)}
}

// Lock blocks until the caller holds key and returns the matching unlock func.
//
//	unlock := locker.Lock(shopOrderID.String())
//	defer unlock()
func (l *Locker) Lock(key string) func() {
	l.mu.Lock()
	if l.entries == nil {
		l.entries = make(map[string]*entry)
	}
	e, ok := l.entries[key]
	if !ok {
		e = &entry{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()

			l.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(l.entries, key)
			}
			l.mu.Unlock()
		})
	}
}

// Len reports how many keys are currently held or awaited.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
