package filter

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrPoolStopped is returned when work is submitted to a stopped pool
var ErrPoolStopped = errors.New("worker pool is stopped")

// workerPool implements WorkerPool with bounded concurrency
type workerPool struct {
	workChan chan func()
	done     chan struct{}
	stopOnce sync.Once
	stopped  atomic.Bool
	wg       sync.WaitGroup
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(workers int) WorkerPool {
	workers = max(workers, 1)

	pool := &workerPool{
		workChan: make(chan func(), workers*2),
		done:     make(chan struct{}),
	}
	for range workers {
		pool.wg.Add(1)
		go pool.worker()
	}
	return pool
}

func (p *workerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case work := <-p.workChan:
			if work != nil {
				work()
			}
		case <-p.done:
			p.drain()
			return
		}
	}
}

// drain runs work that was queued before Stop
func (p *workerPool) drain() {
	for {
		select {
		case work := <-p.workChan:
			if work != nil {
				work()
			}
		default:
			return
		}
	}
}

// Submit queues work, waiting for room until ctx is done or the pool stops
func (p *workerPool) Submit(ctx context.Context, work func()) error {
	if p.stopped.Load() {
		return ErrPoolStopped
	}

	select {
	case p.workChan <- work:
		return nil
	case <-p.done:
		return ErrPoolStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop stops accepting work and waits for running work to finish
func (p *workerPool) Stop(ctx context.Context) error {
	var err error

	p.stopOnce.Do(func() {
		p.stopped.Store(true)
		close(p.done)

		finished := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(finished)
		}()

		select {
		case <-finished:
		case <-ctx.Done():
			err = ctx.Err()
		}
	})

	return err
}
