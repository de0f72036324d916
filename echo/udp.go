package echo

import (
	"fmt"
	"net"

	echoerr "echosrv/internal/errors"
	"echosrv/internal/metrics"
	"echosrv/internal/shutdown"
	"echosrv/util"
)

// UDPReflector echoes every datagram back to the address it came from.
// A single goroutine owns the socket; UDP has no per-client state, so
// there is nothing to hand to a worker pool.
type UDPReflector struct {
	Addr          string
	MaxPacketSize int // bytes reflected per datagram; the rest is dropped
	Logger        *util.Logger
	Metrics       *metrics.Collector

	conn *net.UDPConn
}

// Listen binds the UDP socket.  A bind failure is returned unchanged in
// meaning (for example address in use) so the caller can abort startup.
func (r *UDPReflector) Listen() error {
	ua, err := net.ResolveUDPAddr("udp", r.Addr)
	if err != nil {
		return fmt.Errorf("resolve UDP: %w", err)
	}
	conn, err := net.ListenUDP("udp", ua)
	if err != nil {
		return echoerr.Wrap("listen", r.Addr, err)
	}
	r.conn = conn
	r.logger().Info("starting UDP server on %s", conn.LocalAddr())
	return nil
}

// LocalAddr returns the bound address, or nil before Listen.
func (r *UDPReflector) LocalAddr() net.Addr {
	if r.conn == nil {
		return nil
	}
	return r.conn.LocalAddr()
}

// ListenAndServe binds and then serves until coord is cancelled.
func (r *UDPReflector) ListenAndServe(coord *shutdown.Coordinator) error {
	if err := r.Listen(); err != nil {
		return err
	}
	return r.Serve(coord)
}

// Serve runs the receive loop until coord is cancelled or a socket
// error that shutdown did not cause.  The socket is closed on return.
//
// Cancellation wins over traffic: the flag is polled before every
// receive, and a pending receive is unblocked by closing the socket.
func (r *UDPReflector) Serve(coord *shutdown.Coordinator) error {
	if r.conn == nil {
		return fmt.Errorf("udp: not listening: %w", echoerr.ErrServerClosed)
	}
	conn := r.conn
	log := r.logger()
	defer conn.Close()

	stop := closeOnSignal(coord, conn)
	defer stop()

	size := r.MaxPacketSize
	if size <= 0 {
		size = defaultMaxPacketSize
	}
	buf := make([]byte, size)
	local := conn.LocalAddr().String()

	for {
		if coord.Cancelled() {
			log.Info("shutting down UDP server")
			return nil
		}

		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			// The close that unblocked us was the shutdown itself.
			if coord.Cancelled() {
				log.Info("shutting down UDP server")
				return nil
			}
			r.Metrics.RecordError(err.Error())
			return echoerr.Wrap("recv", local, err)
		}
		r.Metrics.DatagramReceived(n)

		reply := util.EnsureNewline(util.LossyUTF8(buf[:n]))
		log.Debug("from: %s UDP, sz: %d message: %q", from, n, reply[:len(reply)-1])

		sent, err := conn.WriteToUDP(reply, from)
		if err != nil {
			if coord.Cancelled() {
				log.Info("shutting down UDP server")
				return nil
			}
			r.Metrics.RecordError(err.Error())
			return echoerr.Wrap("send", from.String(), err)
		}
		r.Metrics.DatagramEchoed(sent)
		log.Debug("sent %d bytes to %s", sent, from)
	}
}

func (r *UDPReflector) logger() *util.Logger {
	if r.Logger == nil {
		return util.NopLogger()
	}
	return r.Logger.With(util.KeyComponent, "udp")
}
