package echo

import (
	"fmt"
	"net"
	"time"

	echoerr "echosrv/internal/errors"
	"echosrv/internal/metrics"
	"echosrv/internal/pool"
	"echosrv/internal/shutdown"
	"echosrv/util"
)

// TCPDispatcher accepts TCP connections and hands each one to a bounded
// worker pool, where it is echoed byte for byte until the peer closes.
type TCPDispatcher struct {
	Addr        string
	MaxClients  int           // worker pool capacity
	ReadTimeout time.Duration // bound on each read; also bounds shutdown latency
	Logger      *util.Logger
	Metrics     *metrics.Collector

	ln net.Listener
}

// Listen binds the listening socket.
func (d *TCPDispatcher) Listen() error {
	ln, err := net.Listen("tcp", d.Addr)
	if err != nil {
		return echoerr.Wrap("listen", d.Addr, err)
	}
	d.ln = ln
	d.logger().Info("starting TCP server on %s", ln.Addr())
	return nil
}

// LocalAddr returns the bound address, or nil before Listen.
func (d *TCPDispatcher) LocalAddr() net.Addr {
	if d.ln == nil {
		return nil
	}
	return d.ln.Addr()
}

// ListenAndServe binds and then serves until coord is cancelled.
func (d *TCPDispatcher) ListenAndServe(coord *shutdown.Coordinator) error {
	if err := d.Listen(); err != nil {
		return err
	}
	return d.Serve(coord)
}

// Serve runs the accept loop.  On cancellation it stops accepting, waits
// for every dispatched connection to finish and returns nil.  An accept
// error not caused by shutdown is returned; connections already being
// served are then left to wind down on their own once coord is
// signalled.
func (d *TCPDispatcher) Serve(coord *shutdown.Coordinator) error {
	if d.ln == nil {
		return fmt.Errorf("tcp: not listening: %w", echoerr.ErrServerClosed)
	}
	ln := d.ln
	log := d.logger()
	defer ln.Close()

	max := d.MaxClients
	if max <= 0 {
		max = defaultMaxTCPClients
	}
	workers := pool.New(max, log)
	d.Metrics.TrackPool(workers)

	stop := closeOnSignal(coord, ln)
	defer stop()

	drain := func() error {
		log.Info("Shutting down TCP server")
		workers.Wait()
		return nil
	}

	warn := newThrottle(log, time.Second, 5)

	for {
		if coord.Cancelled() {
			return drain()
		}

		conn, err := ln.Accept()
		if err != nil {
			if coord.Cancelled() {
				return drain()
			}
			d.Metrics.RecordError(err.Error())
			go workers.Wait()
			return echoerr.Wrap("accept", ln.Addr().String(), err)
		}

		peer := conn.RemoteAddr().String()
		log.Info("Accepted connection from %s", peer)

		task := func() { d.handle(coord, conn, peer, log, warn) }
		if err := workers.Submit(coord.Context(), task); err != nil {
			// Only shutdown makes Submit fail here; the next
			// iteration sees the cancellation and drains.
			conn.Close()
			log.Debug("dropped %s: %v", peer, err)
		}
	}
}

func (d *TCPDispatcher) handle(coord *shutdown.Coordinator, conn net.Conn, peer string, log *util.Logger, warn *throttle) {
	defer conn.Close()

	d.Metrics.ConnectionOpened()
	defer d.Metrics.ConnectionClosed()

	if err := echoConn(coord, conn, d.ReadTimeout, d.Metrics); err != nil {
		d.Metrics.ConnectionFailed()
		d.Metrics.RecordError(err.Error())
		warn.Warn("Closed connection with %s on error: %v", peer, err)
		return
	}
	log.With(util.KeyRemoteAddr, peer).Info("Closed connection with %s", peer)
}

func (d *TCPDispatcher) logger() *util.Logger {
	if d.Logger == nil {
		return util.NopLogger()
	}
	return d.Logger.With(util.KeyComponent, "tcp")
}
