package metrics

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"echosrv/util"
)

func TestServer_MetricsAndHealth(t *testing.T) {
	c := New()
	c.ConnectionOpened()
	c.DatagramReceived(4)

	s := &Server{Addr: "127.0.0.1:0", Collector: c, Logger: util.NopLogger()}
	if err := s.Listen(); err != nil {
		t.Fatalf("listen: %v", err)
	}
	base := "http://" + s.LocalAddr().String()

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- s.Run(ctx) }()

	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(base + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	for _, want := range []string{
		"echosrv_tcp_connections_total 1",
		`echosrv_udp_datagrams_total{direction="in"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("/metrics missing %q", want)
		}
	}

	resp, err = client.Get(base + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	var snap Snapshot
	err = json.NewDecoder(resp.Body).Decode(&snap)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.ConnectionsActive != 1 || snap.DatagramsIn != 1 {
		t.Errorf("snapshot = %+v", snap)
	}

	cancel()
	select {
	case err := <-runErr:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("metrics server did not stop")
	}
}

func TestServer_ListenError(t *testing.T) {
	s := &Server{Addr: "127.0.0.1:0", Collector: New(), Logger: util.NopLogger()}
	if err := s.Listen(); err != nil {
		t.Fatal(err)
	}
	defer s.ln.Close()

	dup := &Server{Addr: s.LocalAddr().String(), Collector: New(), Logger: util.NopLogger()}
	if err := dup.Listen(); err == nil {
		t.Fatal("expected address-in-use error")
	}
}
