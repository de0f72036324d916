package util

import (
	"fmt"
	"net"
	"strconv"
)

// SplitBindAddr validates a "host:port" bind address and returns its
// parts.  An empty host means all interfaces; port 0 asks the kernel
// for an ephemeral port.
func SplitBindAddr(addr string) (host string, port int, err error) {
	host, p, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	port, err = strconv.Atoi(p)
	if err != nil || port < 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port %q in address %q", p, addr)
	}
	if host != "" && net.ParseIP(host) == nil {
		if _, err := net.LookupHost(host); err != nil {
			return "", 0, fmt.Errorf("DNS lookup for %q: %w", host, err)
		}
	}
	return host, port, nil
}

// FormatAddr returns "host:port".
func FormatAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// FindFreePort returns an available TCP port on 127.0.0.1.
func FindFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("finding free port: %w", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// FindFreeAddr returns a loopback address whose port is currently free
// for both TCP and UDP, so a single bind address can serve both
// protocols.
func FindFreeAddr() (string, error) {
	for i := 0; i < 16; i++ {
		port, err := FindFreePort()
		if err != nil {
			return "", err
		}
		pc, err := net.ListenPacket("udp", FormatAddr("127.0.0.1", port))
		if err != nil {
			continue
		}
		pc.Close()
		return FormatAddr("127.0.0.1", port), nil
	}
	return "", fmt.Errorf("finding free port: no port free for tcp and udp")
}
