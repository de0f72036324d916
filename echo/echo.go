// Package echo implements the UDP reflector and the TCP connection
// dispatcher, and a Server that runs them side by side.
//
// Both loops follow one pattern: a blocking socket call raced against
// a shutdown.Coordinator.  The coordinator is polled before each call
// and, once cancelled, the socket is closed (or its deadline moved to
// now) so the pending call returns.  Errors seen after cancellation are
// the expected unblock path and end the loop cleanly.
package echo

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"echosrv/internal/shutdown"
	"echosrv/util"
)

const (
	defaultMaxPacketSize = 2048
	defaultMaxTCPClients = 100
	defaultReadTimeout   = time.Second
)

// closeOnSignal closes c as soon as coord is cancelled.  The returned
// function stops the watcher; it does not close c.
func closeOnSignal(coord *shutdown.Coordinator, c io.Closer) (stop func()) {
	quit := make(chan struct{})
	go func() {
		select {
		case <-coord.Done():
			c.Close()
		case <-quit:
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(quit) }) }
}

// throttle limits how often a repeated warning reaches the log.
// Warnings over the limit go to Debug and are counted; the next
// warning that passes reports how many were suppressed.
type throttle struct {
	logger     *util.Logger
	limiter    *rate.Limiter
	suppressed atomic.Int64
}

func newThrottle(logger *util.Logger, every time.Duration, burst int) *throttle {
	return &throttle{
		logger:  logger,
		limiter: rate.NewLimiter(rate.Every(every), burst),
	}
}

func (t *throttle) Warn(format string, args ...interface{}) {
	if !t.limiter.Allow() {
		t.suppressed.Add(1)
		t.logger.Debug(format, args...)
		return
	}
	msg := fmt.Sprintf(format, args...)
	if n := t.suppressed.Swap(0); n > 0 {
		msg = fmt.Sprintf("%s (%d similar warnings suppressed)", msg, n)
	}
	t.logger.Warn("%s", msg)
}
