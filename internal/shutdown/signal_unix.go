//go:build !windows

package shutdown

import (
	"os"
	"os/signal"
	"sync"

	"golang.org/x/sys/unix"

	"echosrv/util"
)

// IgnoreHangup consumes SIGHUP until the coordinator is cancelled so a
// closing terminal does not take the server down.  Each hangup is
// logged.  The returned function stops the watcher.
func (c *Coordinator) IgnoreHangup(logger *util.Logger) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, unix.SIGHUP)

	quit := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for {
			select {
			case <-ch:
				logger.Info("ignoring SIGHUP")
			case <-c.done:
				return
			case <-quit:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(quit)
			<-finished
		})
	}
}
