package config

// loader.go - configuration loading from a YAML file and environment
// variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables
//   3. YAML config file
//   4. Defaults   (defaults.go)

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadFile overlays the YAML document at path onto cfg.  Keys missing
// from the file leave the existing value alone; unknown keys are an
// error so typos do not pass silently.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the ECHOSRV_ prefix.

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flags are applied so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("ECHOSRV_MODE"); v != "" {
		if m, err := ParseMode(v); err == nil {
			cfg.Mode = m
		} else {
			cfg.Mode = Mode(v) // surfaced by Validate
		}
	}
	if v := os.Getenv("ECHOSRV_BIND_ADDR"); v != "" {
		cfg.BindAddr = v
	}
	if v := envInt("ECHOSRV_MAX_CLIENTS"); v > 0 {
		cfg.MaxTCPClients = v
	}
	if v := envInt("ECHOSRV_MAX_PACKET"); v > 0 {
		cfg.MaxPacketSize = v
	}
	if v := envInt("ECHOSRV_READ_TIMEOUT"); v > 0 {
		cfg.ReadTimeout = millisDuration(v)
	}
	if v := os.Getenv("ECHOSRV_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}

	// Client
	if v := os.Getenv("ECHOSRV_SERVER"); v != "" {
		cfg.ServerAddr = v
	}

	// Output
	if v := envInt("ECHOSRV_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
	if v := os.Getenv("ECHOSRV_LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func millisDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
