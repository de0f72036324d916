package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	echoerr "echosrv/internal/errors"
	"echosrv/internal/transport"
)

// RunTCP connects to the server and echoes input lines until the input
// ends or ctx is done.  A reply that takes longer than Timeout yields
// ErrNoResponse.
func (c *Client) RunTCP(ctx context.Context) error {
	d := c.Dialer
	if d == nil {
		d = &transport.TCPDialer{Timeout: c.timeout(), Retries: c.Retries, Logger: c.Logger}
	}
	conn, err := d.Dial(ctx, c.ServerAddr)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", c.ServerAddr, err)
	}
	defer conn.Close()
	stop := closeOnDone(ctx, conn)
	defer stop()

	c.logger().Verbose("connected to %s", conn.RemoteAddr())
	c.banner("Connected to %s TCP\n", conn.RemoteAddr())

	in := c.lines()
	replies := bufio.NewReader(conn)
	for {
		line, err := c.nextLine(in)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if _, err := io.WriteString(conn, line); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return echoerr.Wrap("write", c.ServerAddr, err)
		}

		conn.SetReadDeadline(time.Now().Add(c.timeout())) //nolint:errcheck
		echo, err := replies.ReadString('\n')
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return nil
		case echoerr.IsTimeout(err):
			return echoerr.ErrNoResponse
		case err == io.EOF && echo != "":
			c.logger().Verbose("adding newline to echo")
			echo += "\n"
		case err == io.EOF:
			return fmt.Errorf("server %s closed the connection", c.ServerAddr)
		default:
			return echoerr.Wrap("read", c.ServerAddr, err)
		}

		if !strings.HasSuffix(echo, "\n") {
			echo += "\n"
		}
		if _, err := fmt.Fprintf(c.Out, "ECHO: %s", echo); err != nil {
			return err
		}
	}
}
