package server

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestPoolSerializesDefaultSize checks that a default-size-1 pool never
// runs two callers concurrently.
func TestPoolSerializesDefaultSize(t *testing.T) {
	pool := NewPool("m", 1)
	var inFlight int32
	var maxInFlight int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.Submit(context.Background(), func() error {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					old := atomic.LoadInt32(&maxInFlight)
					if n <= old || atomic.CompareAndSwapInt32(&maxInFlight, old, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	if maxInFlight != 1 {
		t.Fatalf("max concurrent calls = %d, want 1 (pool size default)", maxInFlight)
	}
}

// TestPoolAllowsConcurrencyUpToSize checks a larger pool admits more than
// one caller at once, up to its configured size.
func TestPoolAllowsConcurrencyUpToSize(t *testing.T) {
	pool := NewPool("m", 4)
	var inFlight int32
	var maxInFlight int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.Submit(context.Background(), func() error {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					old := atomic.LoadInt32(&maxInFlight)
					if n <= old || atomic.CompareAndSwapInt32(&maxInFlight, old, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	if maxInFlight < 2 {
		t.Fatalf("max concurrent calls = %d, want > 1 with pool size 4", maxInFlight)
	}
	if maxInFlight > 4 {
		t.Fatalf("max concurrent calls = %d, exceeds pool size 4", maxInFlight)
	}
}
