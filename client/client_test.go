package client

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"echosrv/config"
	"echosrv/echo"
	echoerr "echosrv/internal/errors"
	"echosrv/internal/shutdown"
)

func startEchoServer(t *testing.T, mode config.Mode) net.Addr {
	t.Helper()
	coord := shutdown.New()
	var (
		addr  net.Addr
		serve func() error
	)
	switch mode {
	case config.ModeTCP:
		d := &echo.TCPDispatcher{Addr: "127.0.0.1:0"}
		if err := d.Listen(); err != nil {
			t.Fatal(err)
		}
		addr, serve = d.LocalAddr(), func() error { return d.Serve(coord) }
	case config.ModeUDP:
		r := &echo.UDPReflector{Addr: "127.0.0.1:0"}
		if err := r.Listen(); err != nil {
			t.Fatal(err)
		}
		addr, serve = r.LocalAddr(), func() error { return r.Serve(coord) }
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		serve() //nolint:errcheck
	}()
	t.Cleanup(func() {
		coord.Signal()
		<-done
	})
	return addr
}

func newTestClient(addr net.Addr, input string) (*Client, *bytes.Buffer) {
	var out bytes.Buffer
	return &Client{
		ServerAddr: addr.String(),
		Timeout:    time.Second,
		In:         strings.NewReader(input),
		Out:        &out,
	}, &out
}

func TestClient_TCP(t *testing.T) {
	addr := startEchoServer(t, config.ModeTCP)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lines", "one\ntwo\n", "ECHO: one\nECHO: two\n"},
		{"missing final newline", "one\ntwo", "ECHO: one\nECHO: two\n"},
		{"no input", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, out := newTestClient(addr, tt.input)
			if err := c.RunTCP(context.Background()); err != nil {
				t.Fatalf("RunTCP: %v", err)
			}
			if out.String() != tt.want {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestClient_UDP(t *testing.T) {
	addr := startEchoServer(t, config.ModeUDP)

	c, out := newTestClient(addr, "client1\nclient2")
	if err := c.RunUDP(context.Background()); err != nil {
		t.Fatalf("RunUDP: %v", err)
	}
	if want := "ECHO: client1\nECHO: client2\n"; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestClient_Message(t *testing.T) {
	addr := startEchoServer(t, config.ModeUDP)

	c, out := newTestClient(addr, "ignored\n")
	c.Message = "hello"
	if err := c.Run(context.Background(), config.ModeUDP); err != nil {
		t.Fatal(err)
	}
	if out.String() != "ECHO: hello\n" {
		t.Errorf("output = %q", out.String())
	}
}

// fakeUDPServer answers each datagram using reply, sending from a
// second socket when fromOther is set.
func fakeUDPServer(t *testing.T, fromOther bool, reply func([]byte) []byte) (server, other net.Addr) {
	t.Helper()
	ln, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	alt, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		ln.Close()
		alt.Close()
	})

	go func() {
		buf := make([]byte, 2048)
		for {
			n, from, err := ln.ReadFromUDP(buf)
			if err != nil {
				return
			}
			out := ln
			if fromOther {
				out = alt
			}
			out.WriteToUDP(reply(buf[:n]), from) //nolint:errcheck
		}
	}()
	return ln.LocalAddr(), alt.LocalAddr()
}

func TestClient_UDPUnexpectedPeer(t *testing.T) {
	server, other := fakeUDPServer(t, true, func(b []byte) []byte { return b })

	c, out := newTestClient(server, "hi\n")
	if err := c.RunUDP(context.Background()); err != nil {
		t.Fatal(err)
	}
	if want := "ECHO: " + other.String() + " hi\n"; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestClient_UDPNewlineAdded(t *testing.T) {
	server, _ := fakeUDPServer(t, false, func(b []byte) []byte {
		return bytes.TrimSuffix(b, []byte("\n"))
	})

	c, out := newTestClient(server, "hi\n")
	if err := c.RunUDP(context.Background()); err != nil {
		t.Fatal(err)
	}
	if want := "ECHO: hi\nNEWLINE ADDED\n"; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestClient_UDPNoResponse(t *testing.T) {
	silent, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer silent.Close()

	c, _ := newTestClient(silent.LocalAddr(), "anyone?\n")
	c.Timeout = 100 * time.Millisecond
	if err := c.RunUDP(context.Background()); !errors.Is(err, echoerr.ErrNoResponse) {
		t.Errorf("err = %v, want ErrNoResponse", err)
	}
}

func TestClient_TCPNoResponse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		time.Sleep(time.Second) // read nothing, answer nothing
	}()

	c, _ := newTestClient(ln.Addr(), "anyone?\n")
	c.Timeout = 100 * time.Millisecond
	if err := c.RunTCP(context.Background()); !errors.Is(err, echoerr.ErrNoResponse) {
		t.Errorf("err = %v, want ErrNoResponse", err)
	}
}

func TestClient_TCPConnectFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr()
	ln.Close()

	c, _ := newTestClient(addr, "x\n")
	if err := c.RunTCP(context.Background()); err == nil {
		t.Error("expected connect error")
	}
}

func TestClient_UnsupportedMode(t *testing.T) {
	c := &Client{}
	if err := c.Run(context.Background(), config.ModeAll); err == nil {
		t.Error("expected error for mode all")
	}
}

func TestIsTerminal(t *testing.T) {
	if isTerminal(strings.NewReader("")) {
		t.Error("a strings.Reader is not a terminal")
	}
}
