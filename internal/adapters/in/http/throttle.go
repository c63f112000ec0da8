package http

import (
	"sync"

	"fulfillment/internal/pkg/errs"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// Throttle limits delivery code attempts per ShopOrder. Limiters live in a bounded LRU,
// so a flood of distinct keys evicts the oldest buckets instead of growing without end.
type Throttle struct {
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	every    rate.Limit
	burst    int
}

func NewThrottle(perSecond float64, burst, size int) (*Throttle, error) {
	if perSecond <= 0 {
		return nil, errs.NewValueIsOutOfRangeError("perSecond", perSecond, "> 0", "+Inf")
	}
	if burst <= 0 {
		return nil, errs.NewValueIsOutOfRangeError("burst", burst, 1, "+Inf")
	}
	limiters, err := lru.New[string, *rate.Limiter](size)
	if err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("size", err)
	}
	return &Throttle{limiters: limiters, every: rate.Limit(perSecond), burst: burst}, nil
}

// Allow spends one attempt of key and reports whether it was available.
func (t *Throttle) Allow(key string) bool {
	t.mu.Lock()
	limiter, ok := t.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(t.every, t.burst)
		t.limiters.Add(key, limiter)
	}
	t.mu.Unlock()
	return limiter.Allow()
}
