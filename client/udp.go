package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"time"

	echoerr "echosrv/internal/errors"
	"echosrv/internal/transport"
	"echosrv/util"
)

// RunUDP sends each input line as one datagram and prints the reply.
// The reply is shown with its source address when it came from a peer
// other than the server, and gets a visible marker when the server
// left off the trailing newline.
func (c *Client) RunUDP(ctx context.Context) error {
	server, err := net.ResolveUDPAddr("udp", c.ServerAddr)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", c.ServerAddr, err)
	}

	o := c.Opener
	if o == nil {
		o = &transport.UDPOpener{}
	}
	conn, err := o.Open()
	if err != nil {
		return fmt.Errorf("open UDP socket: %w", err)
	}
	defer conn.Close()
	stop := closeOnDone(ctx, conn)
	defer stop()

	c.banner("Echo destination: %s UDP\n", server)

	in := c.lines()
	buf := make([]byte, maxReplySize)
	for {
		line, err := c.nextLine(in)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if _, err := conn.WriteToUDP([]byte(line), server); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return echoerr.Wrap("send", server.String(), err)
		}

		conn.SetReadDeadline(time.Now().Add(c.timeout())) //nolint:errcheck
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				return nil
			case echoerr.IsTimeout(err):
				return echoerr.ErrNoResponse
			default:
				return echoerr.Wrap("recv", server.String(), err)
			}
		}

		echo := util.LossyUTF8(buf[:n])
		if !bytes.HasSuffix(echo, []byte("\n")) {
			echo = append(echo, "\nNEWLINE ADDED\n"...)
		}

		var peer string
		if from.String() != server.String() {
			peer = from.String() + " "
		}
		if _, err := fmt.Fprintf(c.Out, "ECHO: %s%s", peer, echo); err != nil {
			return err
		}
	}
}
