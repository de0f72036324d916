package echo

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	echoerr "echosrv/internal/errors"
	"echosrv/internal/metrics"
	"echosrv/internal/shutdown"
	"echosrv/util"
)

// echoConn copies every byte read from conn back to it, unchanged, until
// the peer closes, coord is cancelled, or an I/O error occurs.  A nil
// return means a clean end (peer EOF or shutdown).
//
// Every read is bounded by readTimeout so an idle connection still
// re-checks the coordinator.  In addition, cancellation moves the
// connection deadline to now, which releases a blocked read or write
// at once instead of at the next timeout.
func echoConn(coord *shutdown.Coordinator, conn net.Conn, readTimeout time.Duration, m *metrics.Collector) error {
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}

	stop := context.AfterFunc(coord.Context(), func() {
		conn.SetDeadline(time.Now()) //nolint:errcheck
	})
	defer stop()

	bufp := util.GetBuf()
	defer util.PutBuf(bufp)
	buf := *bufp

	peer := conn.RemoteAddr().String()

	for {
		if coord.Cancelled() {
			return nil
		}

		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			if coord.Cancelled() || echoerr.IsClosed(err) {
				return nil
			}
			return echoerr.Wrap("read", peer, err)
		}

		n, err := conn.Read(buf)
		if n > 0 {
			m.BytesReceived(int64(n))
			// net.Conn writes are unbuffered: Write returns once all n
			// bytes are handed to the kernel, so no separate flush.
			written, werr := conn.Write(buf[:n])
			m.BytesSent(int64(written))
			if werr != nil {
				if coord.Cancelled() {
					return nil
				}
				return echoerr.Wrap("write", peer, werr)
			}
		}

		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				return nil
			case echoerr.IsTimeout(err):
				continue
			case coord.Cancelled():
				return nil
			default:
				return echoerr.Wrap("read", peer, err)
			}
		}
	}
}
