// Package client implements the interactive echo clients: each line
// read from the input is sent to the server and the echo is printed
// with an "ECHO: " prefix.
package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"echosrv/config"
	"echosrv/internal/transport"
	"echosrv/util"
)

const maxReplySize = 2048

// Client sends lines to an echo server and prints the replies.
type Client struct {
	ServerAddr string
	Timeout    time.Duration // how long to wait for each echo
	Retries    int           // TCP connect attempts
	Message    string        // when set, sent once instead of reading In

	In     io.Reader
	Out    io.Writer
	Logger *util.Logger

	Dialer transport.Dialer       // TCP; defaults to a TCPDialer
	Opener transport.PacketOpener // UDP; defaults to a UDPOpener
}

// New builds a Client from cfg that talks on stdin and stdout.
func New(cfg *config.Config, logger *util.Logger) *Client {
	return &Client{
		ServerAddr: cfg.ServerAddr,
		Timeout:    cfg.ReadTimeout,
		Retries:    cfg.Retries,
		Message:    cfg.Message,
		In:         os.Stdin,
		Out:        os.Stdout,
		Logger:     logger,
	}
}

// Run starts the client for mode, which must be udp or tcp.
func (c *Client) Run(ctx context.Context, mode config.Mode) error {
	switch mode {
	case config.ModeTCP:
		return c.RunTCP(ctx)
	case config.ModeUDP:
		return c.RunUDP(ctx)
	default:
		return fmt.Errorf("client: unsupported mode %q", mode)
	}
}

func (c *Client) lines() *bufio.Reader {
	if c.Message != "" {
		return bufio.NewReader(strings.NewReader(c.Message))
	}
	return bufio.NewReader(c.In)
}

// nextLine returns the next input line with its newline, appending one
// when the input ended without it.  io.EOF means no more input.
func (c *Client) nextLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	if line == "" {
		return "", io.EOF
	}
	if !strings.HasSuffix(line, "\n") {
		c.logger().Verbose("adding newline to outbound echo")
		line += "\n"
	}
	return line, nil
}

// banner prints usage hints, but only to a person at a terminal.
func (c *Client) banner(format string, args ...interface{}) {
	if c.Message != "" || !isTerminal(c.In) {
		return
	}
	fmt.Fprintf(c.Out, format, args...)
	fmt.Fprintln(c.Out, "Enter text, newlines separate echo messages, control-d to quit.")
}

func (c *Client) timeout() time.Duration {
	if c.Timeout <= 0 {
		return config.DefaultReadTimeout
	}
	return c.Timeout
}

func (c *Client) logger() *util.Logger {
	if c.Logger == nil {
		return util.NopLogger()
	}
	return c.Logger
}

// closeOnDone closes conn when ctx ends, unblocking any pending I/O.
func closeOnDone(ctx context.Context, conn io.Closer) (stop func() bool) {
	return context.AfterFunc(ctx, func() { conn.Close() })
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}
