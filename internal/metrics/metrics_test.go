package metrics

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_Connections(t *testing.T) {
	c := New()

	c.ConnectionOpened()
	c.ConnectionOpened()
	if c.ActiveConnections() != 2 {
		t.Errorf("active = %d, want 2", c.ActiveConnections())
	}
	if c.TotalConnections() != 2 {
		t.Errorf("total = %d, want 2", c.TotalConnections())
	}

	c.ConnectionClosed()
	if c.ActiveConnections() != 1 {
		t.Errorf("active = %d, want 1", c.ActiveConnections())
	}
	if c.TotalConnections() != 2 {
		t.Errorf("total should remain 2, got %d", c.TotalConnections())
	}
}

func TestCollector_Bytes(t *testing.T) {
	c := New()

	c.BytesReceived(1024)
	c.BytesSent(512)
	c.BytesReceived(100)

	if c.TotalBytesIn() != 1124 {
		t.Errorf("bytes in = %d, want 1124", c.TotalBytesIn())
	}
	if c.TotalBytesOut() != 512 {
		t.Errorf("bytes out = %d, want 512", c.TotalBytesOut())
	}
}

func TestCollector_Datagrams(t *testing.T) {
	c := New()

	c.DatagramReceived(7)
	c.DatagramEchoed(8)
	c.DatagramReceived(3)

	snap := c.Snapshot()
	if snap.DatagramsIn != 2 || snap.DatagramsOut != 1 {
		t.Errorf("datagrams in/out = %d/%d, want 2/1", snap.DatagramsIn, snap.DatagramsOut)
	}
	if c.TotalBytesIn() != 10 || c.TotalBytesOut() != 8 {
		t.Errorf("bytes in/out = %d/%d, want 10/8", c.TotalBytesIn(), c.TotalBytesOut())
	}
}

func TestCollector_Errors(t *testing.T) {
	c := New()

	c.RecordError("first error")
	c.RecordError("second error")

	if c.ErrorCount() != 2 {
		t.Errorf("errors = %d, want 2", c.ErrorCount())
	}
}

type fakePool struct{ capacity, running, queued int }

func (f fakePool) Capacity() int { return f.capacity }
func (f fakePool) Running() int  { return f.running }
func (f fakePool) Queued() int   { return f.queued }

func TestCollector_TrackPool(t *testing.T) {
	c := New()
	c.TrackPool(fakePool{capacity: 100, running: 4, queued: 2})

	snap := c.Snapshot()
	if snap.PoolCapacity != 100 || snap.PoolRunning != 4 || snap.PoolQueued != 2 {
		t.Errorf("pool = %d/%d/%d, want 100/4/2", snap.PoolCapacity, snap.PoolRunning, snap.PoolQueued)
	}
}

func TestCollector_Snapshot(t *testing.T) {
	c := New()
	c.ConnectionOpened()
	c.BytesReceived(100)
	c.BytesSent(50)
	c.RecordError("test")

	snap := c.Snapshot()
	if snap.ConnectionsActive != 1 {
		t.Errorf("snap active = %d", snap.ConnectionsActive)
	}
	if snap.BytesIn != 100 {
		t.Errorf("snap bytes in = %d", snap.BytesIn)
	}
	if snap.ErrorsTotal != 1 {
		t.Errorf("snap errors = %d", snap.ErrorsTotal)
	}
	if snap.LastErrorMessage != "test" {
		t.Errorf("snap error msg = %q", snap.LastErrorMessage)
	}
}

func TestCollector_JSON(t *testing.T) {
	c := New()
	c.ConnectionOpened()
	c.BytesSent(42)

	raw := c.JSON()
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		t.Fatalf("JSON parse error: %v", err)
	}
	if snap.ConnectionsActive != 1 {
		t.Errorf("JSON active = %d", snap.ConnectionsActive)
	}
	if snap.BytesOut != 42 {
		t.Errorf("JSON bytes out = %d", snap.BytesOut)
	}
}

func TestNilCollector_NoOps(t *testing.T) {
	var c *Collector

	// None of these should panic.
	c.ConnectionOpened()
	c.ConnectionClosed()
	c.BytesReceived(100)
	c.BytesSent(100)
	c.ConnectionFailed()
	c.DatagramReceived(1)
	c.DatagramEchoed(1)
	c.RecordError("test")
	c.TrackPool(fakePool{})

	if c.ActiveConnections() != 0 {
		t.Error("nil collector should return 0")
	}
	if c.TotalBytesIn() != 0 {
		t.Error("nil collector should return 0")
	}
	if c.ErrorCount() != 0 {
		t.Error("nil collector should return 0")
	}

	snap := c.Snapshot()
	if snap.ConnectionsActive != 0 {
		t.Error("nil snapshot should be zero")
	}

	j := c.JSON()
	if j == "" {
		t.Error("nil JSON should return valid JSON")
	}
}

func TestCollector_Prometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New()
	if err := c.Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}

	c.ConnectionOpened()
	c.ConnectionOpened()
	c.ConnectionClosed()
	c.ConnectionFailed()
	c.DatagramReceived(5)
	c.DatagramEchoed(6)

	expected := `
# HELP echosrv_tcp_connections_active Number of TCP connections currently being echoed.
# TYPE echosrv_tcp_connections_active gauge
echosrv_tcp_connections_active 1
# HELP echosrv_tcp_connections_total Total number of accepted TCP connections.
# TYPE echosrv_tcp_connections_total counter
echosrv_tcp_connections_total 2
# HELP echosrv_tcp_connection_errors_total Total number of TCP connections that ended with an error.
# TYPE echosrv_tcp_connection_errors_total counter
echosrv_tcp_connection_errors_total 1
# HELP echosrv_udp_datagrams_total Total number of UDP datagrams by direction.
# TYPE echosrv_udp_datagrams_total counter
echosrv_udp_datagrams_total{direction="in"} 1
echosrv_udp_datagrams_total{direction="out"} 1
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"echosrv_tcp_connections_active",
		"echosrv_tcp_connections_total",
		"echosrv_tcp_connection_errors_total",
		"echosrv_udp_datagrams_total",
	)
	if err != nil {
		t.Error(err)
	}

	if n := testutil.CollectAndCount(c); n != 11 {
		t.Errorf("collected %d metrics, want 11", n)
	}
}

func TestCollector_RegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New()
	if err := c.Register(reg); err != nil {
		t.Fatal(err)
	}
	if err := c.Register(reg); err == nil {
		t.Error("expected duplicate registration error")
	}
}
