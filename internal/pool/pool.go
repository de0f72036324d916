// Package pool provides a fixed-capacity worker pool.
//
// A Pool owns a fixed number of worker goroutines and a FIFO queue of
// the same depth.  At most Capacity tasks run at once; further tasks
// wait in the queue, and Submit blocks once the queue is full, which
// bounds the memory held by pending work.
package pool

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	echoerr "echosrv/internal/errors"
	"echosrv/util"
)

// Task is a unit of work.  A task owns whatever resources it closes
// over (for example an accepted connection) for its whole run.
type Task func()

// Pool runs submitted tasks on a bounded set of workers.
type Pool struct {
	capacity int
	queue    chan Task
	logger   *util.Logger

	mu     sync.RWMutex // Submit holds R while sending, Wait holds W to close
	closed bool

	workers sync.WaitGroup
	running atomic.Int64
	panics  atomic.Int64
}

// New starts a pool with the given number of workers.  Capacity below
// one is treated as one.
func New(capacity int, logger *util.Logger) *Pool {
	if capacity < 1 {
		capacity = 1
	}
	if logger == nil {
		logger = util.NopLogger()
	}
	p := &Pool{
		capacity: capacity,
		queue:    make(chan Task, capacity),
		logger:   logger,
	}
	p.workers.Add(capacity)
	for i := 0; i < capacity; i++ {
		go p.worker(i)
	}
	return p
}

// Submit queues task for execution.  It blocks while the queue is full
// and returns ctx.Err() if ctx is done first, or ErrPoolClosed once
// Wait has been called.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	if task == nil {
		return fmt.Errorf("pool: nil task")
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return echoerr.ErrPoolClosed
	}

	// Prefer the fast path so a ready queue is never skipped in favour
	// of an already-cancelled context.
	select {
	case p.queue <- task:
		return nil
	default:
	}

	select {
	case p.queue <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait stops admission and blocks until every queued and running task
// has returned.  It is safe to call more than once.
func (p *Pool) Wait() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	p.workers.Wait()
}

// Capacity returns the number of workers.
func (p *Pool) Capacity() int { return p.capacity }

// Running returns the number of tasks currently executing.
func (p *Pool) Running() int { return int(p.running.Load()) }

// Queued returns the number of tasks waiting for a free worker.
func (p *Pool) Queued() int { return len(p.queue) }

// Panics returns how many tasks have panicked.
func (p *Pool) Panics() int64 { return p.panics.Load() }

func (p *Pool) worker(id int) {
	defer p.workers.Done()
	for task := range p.queue {
		p.run(id, task)
	}
}

func (p *Pool) run(id int, task Task) {
	p.running.Add(1)
	defer p.running.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			p.panics.Add(1)
			p.logger.Error("worker %d: task panicked: %v\n%s", id, r, debug.Stack())
		}
	}()
	task()
}
