package keylock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestLock_SerializesSameKey never lets two holders of one key overlap.
func TestLock_SerializesSameKey(t *testing.T) {
	m := New()
	key := Key("g1", "2024-02-19")
	var inside, maxInside atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := m.Lock(context.Background(), key)
			if err != nil {
				t.Errorf("Lock: %v", err)
				return
			}
			n := inside.Add(1)
			for {
				cur := maxInside.Load()
				if n <= cur || maxInside.CompareAndSwap(cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()

	if maxInside.Load() != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxInside.Load())
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d after all unlocks, want 0", m.Len())
	}
}

// TestLock_DifferentKeysIndependent lets distinct keys be held together.
func TestLock_DifferentKeysIndependent(t *testing.T) {
	m := New()
	u1, err := m.Lock(context.Background(), Key("g1", "2024-02-19"))
	if err != nil {
		t.Fatalf("Lock g1: %v", err)
	}
	defer u1()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	u2, err := m.Lock(ctx, Key("g2", "2024-02-19"))
	if err != nil {
		t.Fatalf("Lock g2 blocked by g1: %v", err)
	}
	u2()
}

// TestLock_ContextCancelled gives up waiting without acquiring.
func TestLock_ContextCancelled(t *testing.T) {
	m := New()
	key := Key("g1", "2024-02-19")
	unlock, err := m.Lock(context.Background(), key)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := m.Lock(ctx, key); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}

	unlock()
	unlock() // second call is a no-op
	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0", m.Len())
	}
}
