// Package cmd wires up the CLI flags and dispatches to the echo server
// or the echo client.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"echosrv/client"
	"echosrv/config"
	"echosrv/echo"
	"echosrv/internal/metrics"
	"echosrv/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X echosrv/cmd.version=2.0.0"
var version = "0.3.0" //nolint:gochecknoglobals

// Execute parses args and runs the server or client they select.
func Execute(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdout, os.Stderr)
}

// options mirrors the flags; only flags the user actually set are
// copied into the Config, so file and env values survive otherwise.
type options struct {
	bindAddr    string
	maxClients  int
	maxPacket   int
	readTimeout time.Duration
	metricsAddr string
	server      string
	message     string
	retries     int
	logFormat   string
	verbose     int
	configPath  string
	dryRun      bool
	showVersion bool
	showHelp    bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var o options
	fs := flag.NewFlagSet("echosrv", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// ── server ───────────────────────────────────────────────────
	fs.StringVarP(&o.bindAddr, "bind-addr", "b", config.DefaultBindAddr, "Address to bind the echo sockets to")
	fs.IntVar(&o.maxClients, "max-clients", config.DefaultMaxTCPClients, "Maximum concurrently served TCP clients")
	fs.IntVar(&o.maxPacket, "max-packet", config.DefaultMaxPacketSize, "Largest UDP datagram reflected, in bytes")
	fs.DurationVar(&o.readTimeout, "read-timeout", config.DefaultReadTimeout, "Bounded read interval (server) or echo wait (client)")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "Serve /metrics and /healthz on this address")

	// ── client ───────────────────────────────────────────────────
	fs.StringVarP(&o.server, "server", "s", config.DefaultBindAddr, "Server address for client mode")
	fs.StringVarP(&o.message, "message", "m", "", "Send one message and exit (client mode)")
	fs.IntVar(&o.retries, "retries", config.DefaultClientRetries, "TCP connect attempts (client mode)")

	// ── general ──────────────────────────────────────────────────
	fs.StringVarP(&o.configPath, "config", "c", "", "YAML config file")
	fs.StringVar(&o.logFormat, "log-format", config.DefaultLogFormat, "Log format: text or json")
	fs.CountVarP(&o.verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVar(&o.dryRun, "dry-run", false, "Print the resolved configuration and exit")
	fs.BoolVar(&o.showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&o.showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(stderr, fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if o.showHelp || len(args) == 0 {
		printUsage(stderr, fs)
		return nil
	}
	if o.showVersion {
		fmt.Fprintf(stdout, "echosrv %s\n", version)
		return nil
	}

	// ── resolve: defaults < file < env < flags ───────────────────
	cfg := config.Defaults()
	path := o.configPath
	if path == "" {
		path = os.Getenv("ECHOSRV_CONFIG")
	}
	if path != "" {
		if err := config.LoadFile(path, cfg); err != nil {
			return err
		}
	}
	config.LoadFromEnv(cfg)
	applyFlags(fs, &o, cfg)

	if err := parsePositional(cfg, fs.Args()); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if o.dryRun {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = stdout.Write(out)
		return err
	}

	// ── build components ─────────────────────────────────────────
	logger := util.NewLoggerWithWriter(cfg.Verbose, cfg.LogFormat, stderr)

	if cfg.Client {
		c := client.New(cfg, logger)
		c.Out = stdout
		return c.Run(ctx, cfg.Mode)
	}

	m := metrics.New()
	srv := echo.New(cfg, logger, m)
	err := srv.Run(ctx)
	logger.Verbose("session stats: %s", m.JSON())
	return err
}

func applyFlags(fs *flag.FlagSet, o *options, cfg *config.Config) {
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("bind-addr", func() { cfg.BindAddr = o.bindAddr })
	set("max-clients", func() { cfg.MaxTCPClients = o.maxClients })
	set("max-packet", func() { cfg.MaxPacketSize = o.maxPacket })
	set("read-timeout", func() { cfg.ReadTimeout = o.readTimeout })
	set("metrics-addr", func() { cfg.MetricsAddr = o.metricsAddr })
	set("server", func() { cfg.ServerAddr = o.server })
	set("message", func() { cfg.Message = o.message })
	set("retries", func() { cfg.Retries = o.retries })
	set("log-format", func() { cfg.LogFormat = strings.ToLower(o.logFormat) })
	set("verbose", func() { cfg.Verbose = o.verbose })
}

// parsePositional accepts `<udp|tcp|all>` or `client <udp|tcp>`.  With
// no positional mode the file or environment must supply one.
func parsePositional(cfg *config.Config, remaining []string) error {
	if len(remaining) > 0 && remaining[0] == "client" {
		cfg.Client = true
		remaining = remaining[1:]
		if len(remaining) == 0 {
			return fmt.Errorf("client needs a protocol: udp or tcp")
		}
	}

	switch len(remaining) {
	case 0:
		return nil
	case 1:
		m, err := config.ParseMode(remaining[0])
		if err != nil {
			return err
		}
		cfg.Mode = m
		return nil
	default:
		return fmt.Errorf("too many arguments: %s", strings.Join(remaining, " "))
	}
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, `echosrv - TCP/UDP echo server v%s

Usage:
  echosrv [options] udp|tcp|all               Run the echo server
  echosrv [options] client udp|tcp            Run the interactive client

Options:
`, version)
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintf(w, `
Environment:
  ECHOSRV_CONFIG, ECHOSRV_MODE, ECHOSRV_BIND_ADDR, ECHOSRV_MAX_CLIENTS,
  ECHOSRV_MAX_PACKET, ECHOSRV_READ_TIMEOUT (ms), ECHOSRV_METRICS_ADDR,
  ECHOSRV_SERVER, ECHOSRV_VERBOSE, ECHOSRV_LOG_FORMAT

Examples:
  echosrv all                                 UDP and TCP on 127.0.0.1:2048
  echosrv -b 0.0.0.0:7 --metrics-addr :9100 tcp
  echosrv client tcp                          Type lines, see them echoed
  echosrv client udp -m hello                 One-shot datagram
`)
}
