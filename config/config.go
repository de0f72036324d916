// Package config defines the runtime configuration for echosrv and
// provides validation for it.
package config

import (
	"fmt"
	"strings"
	"time"

	echoerr "echosrv/internal/errors"
	"echosrv/util"
)

// Mode selects which echo subsystems run.
type Mode string

const (
	ModeUDP Mode = "udp"
	ModeTCP Mode = "tcp"
	ModeAll Mode = "all"
)

// ParseMode converts a command word into a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(s)); m {
	case ModeUDP, ModeTCP, ModeAll:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want udp, tcp or all)", s)
	}
}

// RunsUDP reports whether the UDP reflector is part of this mode.
func (m Mode) RunsUDP() bool { return m == ModeUDP || m == ModeAll }

// RunsTCP reports whether the TCP dispatcher is part of this mode.
func (m Mode) RunsTCP() bool { return m == ModeTCP || m == ModeAll }

// Config holds every tuneable for one echosrv run.
type Config struct {
	// ── Server ───────────────────────────────────────────────────────
	Mode          Mode          `yaml:"mode"`
	BindAddr      string        `yaml:"bind_addr"`
	MaxTCPClients int           `yaml:"max_tcp_clients"`
	MaxPacketSize int           `yaml:"max_packet_size"`
	ReadTimeout   time.Duration `yaml:"read_timeout"` // bounded-read interval for TCP handlers
	MetricsAddr   string        `yaml:"metrics_addr"` // empty disables the metrics endpoint

	// ── Client ───────────────────────────────────────────────────────
	Client     bool   `yaml:"-"`
	ServerAddr string `yaml:"server_addr"`
	Message    string `yaml:"-"` // one-shot message; empty reads lines from stdin
	Retries    int    `yaml:"retries"`

	// ── Output ───────────────────────────────────────────────────────
	Verbose   int    `yaml:"verbose"`
	LogFormat string `yaml:"log_format"`
}

// Defaults returns a Config populated from defaults.go.
func Defaults() *Config {
	return &Config{
		BindAddr:      DefaultBindAddr,
		MaxTCPClients: DefaultMaxTCPClients,
		MaxPacketSize: DefaultMaxPacketSize,
		ReadTimeout:   DefaultReadTimeout,
		ServerAddr:    DefaultBindAddr,
		Retries:       DefaultClientRetries,
		Verbose:       DefaultVerbosity,
		LogFormat:     DefaultLogFormat,
	}
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Mode == "" {
		return &echoerr.ConfigError{
			Field:   "mode",
			Message: "required (udp, tcp or all)",
			Hint:    "run e.g. `echosrv tcp` or `echosrv client udp`",
		}
	}
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return &echoerr.ConfigError{Field: "mode", Value: c.Mode, Message: err.Error()}
	}

	if c.Client {
		if c.Mode == ModeAll {
			return &echoerr.ConfigError{
				Field:   "mode",
				Value:   c.Mode,
				Message: "client mode talks to one protocol at a time",
				Hint:    "use `client udp` or `client tcp`",
			}
		}
		if _, _, err := util.SplitBindAddr(c.ServerAddr); err != nil {
			return &echoerr.ConfigError{Field: "server", Value: c.ServerAddr, Message: err.Error()}
		}
		if c.Retries < 1 {
			return &echoerr.ConfigError{Field: "retries", Value: c.Retries, Message: "must be at least 1"}
		}
	} else {
		if _, _, err := util.SplitBindAddr(c.BindAddr); err != nil {
			return &echoerr.ConfigError{
				Field:   "bind-addr",
				Value:   c.BindAddr,
				Message: err.Error(),
				Hint:    "use host:port, e.g. " + DefaultBindAddr,
			}
		}
		if c.MaxTCPClients < 1 {
			return &echoerr.ConfigError{
				Field:   "max-clients",
				Value:   c.MaxTCPClients,
				Message: "must be at least 1",
				Hint:    fmt.Sprintf("the default is %d", DefaultMaxTCPClients),
			}
		}
		if c.MaxPacketSize < 1 || c.MaxPacketSize > MaxUDPPayload {
			return &echoerr.ConfigError{
				Field:   "max-packet",
				Value:   c.MaxPacketSize,
				Message: fmt.Sprintf("out of range 1-%d", MaxUDPPayload),
			}
		}
		if c.MetricsAddr != "" {
			if _, _, err := util.SplitBindAddr(c.MetricsAddr); err != nil {
				return &echoerr.ConfigError{Field: "metrics-addr", Value: c.MetricsAddr, Message: err.Error()}
			}
		}
	}

	if c.ReadTimeout <= 0 {
		return &echoerr.ConfigError{
			Field:   "read-timeout",
			Value:   c.ReadTimeout,
			Message: "must be positive",
			Hint:    "shutdown latency is bounded by this value; the default is 1s",
		}
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return &echoerr.ConfigError{Field: "log-format", Value: c.LogFormat, Message: "want text or json"}
	}

	return nil
}
