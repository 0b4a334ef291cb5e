// Package gate bounds the number of concurrently executing scan tasks.
package gate

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Gate admits at most N tasks at a time. Waiters are served in FIFO
// order by the underlying weighted semaphore. The gate introduces no
// failure modes of its own: Run returns the task's error, or the
// context error if admission was cancelled before a slot opened.
type Gate struct {
	sem      *semaphore.Weighted
	capacity int
}

// New creates a gate with the given capacity. A non-positive capacity
// defaults to the number of available CPU cores.
func New(capacity int) *Gate {
	if capacity <= 0 {
		capacity = runtime.NumCPU()
	}
	return &Gate{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: capacity,
	}
}

// Capacity returns the maximum number of concurrently admitted tasks.
func (g *Gate) Capacity() int {
	return g.capacity
}

// Run blocks until a slot is free or ctx is done, then executes task.
// The slot is released when the task returns, whether or not it failed.
func (g *Gate) Run(ctx context.Context, task func() error) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer g.sem.Release(1)
	return task()
}
