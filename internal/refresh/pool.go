package refresh

import "sync"

// Pool is the process-wide bounded worker pool that executes fetcher
// invocations.  It is created once at startup, injected into the
// orchestrator, and drained once at shutdown after all pending work
// completes.  A slot must be acquired before a job runs, so at most
// `size` fetches are in flight at any time.
type Pool struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

// DefaultPoolSize is the number of concurrent fetches allowed when no
// explicit size is configured.
const DefaultPoolSize = 8

// NewPool creates a worker pool with the given number of slots.  A
// non-positive size falls back to DefaultPoolSize.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	return &Pool{sem: make(chan struct{}, size)}
}

// Submit runs the job on its own goroutine once a pool slot is free.
// It blocks until the slot is acquired, so a stalled fetch occupies
// one slot without stopping the dispatch of others.
func (p *Pool) Submit(job func()) {
	p.wg.Add(1)
	p.sem <- struct{}{}

	go func() {
		defer p.wg.Done()
		defer func() { <-p.sem }()
		job()
	}()
}

// Drain blocks until every submitted job has finished.  In-flight
// fetches are awaited, never killed; shutdown waits rather than
// cancels.
func (p *Pool) Drain() {
	p.wg.Wait()
}
