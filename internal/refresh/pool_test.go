package refresh

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolBoundsConcurrency(t *testing.T) {
	const size = 3
	p := NewPool(size)

	var active, peak int64
	var mu sync.Mutex
	for i := 0; i < 20; i++ {
		p.Submit(func() {
			n := atomic.AddInt64(&active, 1)
			mu.Lock()
			if n > peak {
				peak = n
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&active, -1)
		})
	}
	p.Drain()

	if peak > size {
		t.Fatalf("observed %d concurrent jobs, limit is %d", peak, size)
	}
	if atomic.LoadInt64(&active) != 0 {
		t.Fatalf("jobs still active after Drain")
	}
}

func TestPoolDrainWaitsForAllJobs(t *testing.T) {
	p := NewPool(2)

	var done int64
	for i := 0; i < 10; i++ {
		p.Submit(func() {
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt64(&done, 1)
		})
	}
	p.Drain()

	if got := atomic.LoadInt64(&done); got != 10 {
		t.Fatalf("completed jobs = %d, want 10", got)
	}
}

func TestPoolDefaultSize(t *testing.T) {
	p := NewPool(0)
	if cap(p.sem) != DefaultPoolSize {
		t.Fatalf("default pool size = %d, want %d", cap(p.sem), DefaultPoolSize)
	}
}
