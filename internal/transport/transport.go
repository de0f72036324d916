// Package transport opens the client side of echo sessions: a TCP
// stream to the server, or a UDP socket that can hear from any peer.
package transport

import (
	"context"
	"net"
)

// Dialer opens outbound stream connections.
type Dialer interface {
	Dial(ctx context.Context, address string) (net.Conn, error)
}

// PacketOpener opens a local datagram socket.  The socket is not
// connected, so replies from a peer other than the one written to are
// still delivered.
type PacketOpener interface {
	Open() (*net.UDPConn, error)
}
