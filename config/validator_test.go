package config

import (
	"errors"
	"strings"
	"testing"

	echoerr "echosrv/internal/errors"
)

// TestValidate_ErrorMessages verifies that Validate returns actionable
// error messages with hints.
func TestValidate_ErrorMessages(t *testing.T) {
	base := func() Config {
		c := *Defaults()
		c.Mode = ModeTCP
		return c
	}

	noMode := base()
	noMode.Mode = ""

	zeroClients := base()
	zeroClients.MaxTCPClients = 0

	zeroTimeout := base()
	zeroTimeout.ReadTimeout = 0

	clientAll := base()
	clientAll.Client = true
	clientAll.Mode = ModeAll

	tests := []struct {
		name    string
		cfg     Config
		wantSub string // substring expected in error
	}{
		{"missing mode has hint", noMode, "hint:"},
		{"max clients names the flag", zeroClients, "--max-clients=0"},
		{"read timeout has hint", zeroTimeout, "hint: shutdown latency"},
		{"client all", clientAll, "one protocol at a time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantSub)
			}
		})
	}
}

// TestValidate_ConfigErrorType verifies callers can extract the
// offending field.
func TestValidate_ConfigErrorType(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = ModeUDP
	cfg.MaxPacketSize = -1

	err := cfg.Validate()
	var ce *echoerr.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("error %v is not a ConfigError", err)
	}
	if ce.Field != "max-packet" {
		t.Errorf("Field = %q, want max-packet", ce.Field)
	}
}
