//go:build windows

package shutdown

import "echosrv/util"

// IgnoreHangup is a no-op on platforms without SIGHUP.
func (c *Coordinator) IgnoreHangup(_ *util.Logger) (stop func()) {
	return func() {}
}
