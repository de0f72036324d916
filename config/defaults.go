package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, config file parsing, and environment variable
// loading.

const (
	// DefaultBindAddr is where the server listens and the client sends.
	DefaultBindAddr = "127.0.0.1:2048"

	// DefaultMaxTCPClients is the worker pool capacity: the most TCP
	// connections echoed at the same time.
	DefaultMaxTCPClients = 100

	// DefaultMaxPacketSize caps how much of a datagram is reflected.
	// UDP source addresses can be forged, so the echo must stay small.
	DefaultMaxPacketSize = 2048

	// MaxUDPPayload is the largest payload an IPv4 UDP datagram carries.
	MaxUDPPayload = 65507

	// DefaultReadTimeout bounds each TCP read so idle handlers wake up
	// and notice shutdown.
	DefaultReadTimeout = 1 * time.Second

	// DefaultClientRetries is how many times the client dials before
	// giving up.
	DefaultClientRetries = 1

	// DefaultVerbosity prints Info and above.
	DefaultVerbosity = 1

	// DefaultLogFormat is the slog handler used for log output.
	DefaultLogFormat = "text"

	// DefaultGracePeriod is how long the metrics endpoint waits for
	// in-flight scrapes on shutdown.
	DefaultGracePeriod = 5 * time.Second
)
