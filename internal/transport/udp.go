package transport

import (
	"fmt"
	"net"
)

// UDPOpener binds a local UDP socket, on an ephemeral port unless
// LocalAddr says otherwise.
type UDPOpener struct {
	LocalAddr string // default "127.0.0.1:0"
}

// Open binds the socket.
func (o *UDPOpener) Open() (*net.UDPConn, error) {
	local := o.LocalAddr
	if local == "" {
		local = "127.0.0.1:0"
	}
	ua, err := net.ResolveUDPAddr("udp", local)
	if err != nil {
		return nil, fmt.Errorf("resolve local addr: %w", err)
	}
	return net.ListenUDP("udp", ua)
}
