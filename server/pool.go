package server

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/umbridge-go/umbridge/internal/metrics"
)

// Pool bounds how many model calls run concurrently, per model. The
// protocol leaves model thread-safety up to the implementation; a pool of
// weight 1 (the default) serializes calls into a model that isn't
// thread-safe, while a larger weight lets a thread-safe model serve
// several requests at once. Queued callers are released in FIFO order by
// semaphore.Weighted itself — the runtime imposes no request timeout.
type Pool struct {
	model string
	sem   *semaphore.Weighted
	size  int64
}

// NewPool returns a Pool that admits at most size concurrent calls for the
// named model. size <= 0 is treated as 1.
func NewPool(model string, size int64) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{model: model, sem: semaphore.NewWeighted(size), size: size}
}

// Submit runs fn once a slot is free, blocking (subject to ctx
// cancellation) while the pool is saturated. The queue-depth gauge tracks
// callers waiting for a slot, not callers currently running.
func (p *Pool) Submit(ctx context.Context, fn func() error) error {
	metrics.PoolQueueDepth.WithLabelValues(p.model).Inc()
	err := p.sem.Acquire(ctx, 1)
	metrics.PoolQueueDepth.WithLabelValues(p.model).Dec()
	if err != nil {
		return err
	}
	defer p.sem.Release(1)

	return fn()
}
