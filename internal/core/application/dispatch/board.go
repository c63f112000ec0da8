package dispatch

import (
	"sort"
	"sync"

	"fulfillment/internal/core/domain/model/events"
	"fulfillment/internal/core/domain/model/kernel"
)

// board is the availability set, sharded by city. Each shard has its own lock, so
// couriers of different cities never contend, and the shard map itself is a sync.Map.
type board struct {
	shards sync.Map // normalized city -> *shard
	cities sync.Map // shopOrderID -> normalized city
}

type shard struct {
	mu      sync.RWMutex
	entries map[kernel.UUID]Entry
}

func (b *board) shard(city string) *shard {
	key := events.NormalizeCity(city)
	if s, ok := b.shards.Load(key); ok {
		return s.(*shard)
	}
	s, _ := b.shards.LoadOrStore(key, &shard{entries: make(map[kernel.UUID]Entry)})
	return s.(*shard)
}

// put adds e and reports whether it was new.
func (b *board) put(e Entry) bool {
	s := b.shard(e.City)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[e.ShopOrderID]; exists {
		return false
	}
	s.entries[e.ShopOrderID] = e
	b.cities.Store(e.ShopOrderID, events.NormalizeCity(e.City))
	return true
}

// remove deletes the entry of shopOrderID and returns it.
func (b *board) remove(shopOrderID kernel.UUID) (Entry, bool) {
	city, ok := b.cities.LoadAndDelete(shopOrderID)
	if !ok {
		return Entry{}, false
	}
	s := b.shard(city.(string))
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[shopOrderID]
	delete(s.entries, shopOrderID)
	return e, ok
}

func (b *board) get(shopOrderID kernel.UUID) (Entry, bool) {
	city, ok := b.cities.Load(shopOrderID)
	if !ok {
		return Entry{}, false
	}
	s := b.shard(city.(string))
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[shopOrderID]
	return e, ok
}

// list returns the entries of city, or of every city when city is empty, oldest first.
func (b *board) list(city string) []Entry {
	var out []Entry
	collect := func(s *shard) {
		s.mu.RLock()
		for _, e := range s.entries {
			out = append(out, e)
		}
		s.mu.RUnlock()
	}

	if city != "" {
		if s, ok := b.shards.Load(events.NormalizeCity(city)); ok {
			collect(s.(*shard))
		}
	} else {
		b.shards.Range(func(_, s any) bool {
			collect(s.(*shard))
			return true
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].PublishedAt.Before(out[j].PublishedAt) })
	return out
}
