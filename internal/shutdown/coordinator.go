// Package shutdown provides the single cancellation signal shared by
// every listening loop and connection handler of one server run.
//
// A Coordinator moves from active to cancelled exactly once.  Any
// number of goroutines may block in Wait or select on Done; all of them
// are released by the first call to Signal, and every later waiter
// returns immediately.
package shutdown

import (
	"context"
	"sync"
)

// Coordinator is a one-way, broadcastable cancellation flag.
// The zero value is not usable; create one with [New].
type Coordinator struct {
	once   sync.Once
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// New returns an active Coordinator.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
}

// WithContext returns a Coordinator that is signalled when parent is
// done.  This is how an externally produced cancellation (for example
// a signal.NotifyContext) is turned into a server run's coordinator.
func WithContext(parent context.Context) *Coordinator {
	c := New()
	go func() {
		select {
		case <-parent.Done():
			c.Signal()
		case <-c.done:
		}
	}()
	return c
}

// Signal marks the coordinator cancelled and wakes all waiters.
// Calls after the first are no-ops.
func (c *Coordinator) Signal() {
	c.once.Do(func() {
		close(c.done)
		c.cancel()
	})
}

// Wait blocks until Signal has been called.
func (c *Coordinator) Wait() {
	<-c.done
}

// Done returns a channel that is closed once the coordinator is
// cancelled, for use in select statements.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Cancelled reports, without blocking, whether Signal has been called.
func (c *Coordinator) Cancelled() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Context returns a context that is cancelled together with the
// coordinator.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}
