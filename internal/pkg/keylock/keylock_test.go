package keylock_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fulfillment/internal/pkg/keylock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_SameKeySerializes(t *testing.T) {
	locker := keylock.New()

	var inside atomic.Int32
	var maxInside atomic.Int32
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locker.Lock("shop-order-1")
			defer unlock()

			n := inside.Add(1)
			if n > maxInside.Load() {
				maxInside.Store(n)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load())
	assert.Equal(t, 0, locker.Len())
}

func TestLocker_DifferentKeysDoNotBlock(t *testing.T) {
	locker := keylock.New()

	unlockA := locker.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := locker.Lock("b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "lock on a different key must not wait")
	}
}

func TestLocker_UnlockIsIdempotent(t *testing.T) {
	var locker keylock.Locker

	unlock := locker.Lock("k")
	unlock()
	unlock()

	assert.Equal(t, 0, locker.Len())
	relock := locker.Lock("k")
	relock()
}
