package echo

import (
	"context"
	"errors"
	"net"

	"golang.org/x/sync/errgroup"

	"echosrv/config"
	"echosrv/internal/metrics"
	"echosrv/internal/shutdown"
	"echosrv/util"
)

// Server runs the subsystems selected by Config.Mode, plus the metrics
// endpoint when Config.MetricsAddr is set, under a single coordinator.
type Server struct {
	Config  *config.Config
	Logger  *util.Logger
	Metrics *metrics.Collector

	udp  *UDPReflector
	tcp  *TCPDispatcher
	http *metrics.Server
}

// New creates a Server.  A nil logger discards output; a nil collector
// disables metrics.
func New(cfg *config.Config, logger *util.Logger, m *metrics.Collector) *Server {
	if logger == nil {
		logger = util.NopLogger()
	}
	return &Server{Config: cfg, Logger: logger, Metrics: m}
}

// Listen binds every socket the configuration asks for.  If any bind
// fails, sockets already bound are released and the error is returned.
func (s *Server) Listen() (err error) {
	cfg := s.Config
	var closers []func()
	defer func() {
		if err != nil {
			for _, c := range closers {
				c()
			}
			s.udp, s.tcp, s.http = nil, nil, nil
		}
	}()

	if cfg.Mode.RunsUDP() {
		s.udp = &UDPReflector{
			Addr:          cfg.BindAddr,
			MaxPacketSize: cfg.MaxPacketSize,
			Logger:        s.Logger,
			Metrics:       s.Metrics,
		}
		if err := s.udp.Listen(); err != nil {
			return err
		}
		closers = append(closers, func() { s.udp.conn.Close() })
	}

	if cfg.Mode.RunsTCP() {
		s.tcp = &TCPDispatcher{
			Addr:        cfg.BindAddr,
			MaxClients:  cfg.MaxTCPClients,
			ReadTimeout: cfg.ReadTimeout,
			Logger:      s.Logger,
			Metrics:     s.Metrics,
		}
		if err := s.tcp.Listen(); err != nil {
			return err
		}
		closers = append(closers, func() { s.tcp.ln.Close() })
	}

	if cfg.MetricsAddr != "" {
		s.http = &metrics.Server{
			Addr:        cfg.MetricsAddr,
			Collector:   s.Metrics,
			Logger:      s.Logger.With(util.KeyComponent, "metrics"),
			GracePeriod: config.DefaultGracePeriod,
		}
		if err := s.http.Listen(); err != nil {
			return err
		}
	}

	if s.udp == nil && s.tcp == nil {
		return errors.New("nothing to serve: mode selects neither udp nor tcp")
	}
	return nil
}

// UDPAddr returns the bound UDP address, or nil.
func (s *Server) UDPAddr() net.Addr {
	if s.udp == nil {
		return nil
	}
	return s.udp.LocalAddr()
}

// TCPAddr returns the bound TCP address, or nil.
func (s *Server) TCPAddr() net.Addr {
	if s.tcp == nil {
		return nil
	}
	return s.tcp.LocalAddr()
}

// MetricsAddr returns the bound metrics address, or nil.
func (s *Server) MetricsAddr() net.Addr {
	if s.http == nil {
		return nil
	}
	return s.http.LocalAddr()
}

// Serve runs every bound subsystem until ctx is done.  The first fatal
// error from any subsystem signals the others to stop and is returned
// once all of them have exited.  Shutdown caused by ctx is a nil return.
func (s *Server) Serve(ctx context.Context) error {
	coord := shutdown.WithContext(ctx)
	defer coord.Signal()

	stopHUP := coord.IgnoreHangup(s.Logger)
	defer stopHUP()

	g := new(errgroup.Group)
	run := func(fn func() error) {
		g.Go(func() error {
			err := fn()
			if err != nil {
				coord.Signal()
			}
			return err
		})
	}

	if s.udp != nil {
		run(func() error { return s.udp.Serve(coord) })
	}
	if s.tcp != nil {
		run(func() error { return s.tcp.Serve(coord) })
	}
	if s.http != nil {
		run(func() error { return s.http.Run(coord.Context()) })
	}

	err := g.Wait()
	if err == nil {
		s.Logger.Info("shutdown complete")
	}
	return err
}

// Run is Listen followed by Serve.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}
