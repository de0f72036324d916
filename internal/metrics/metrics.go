// Package metrics provides lightweight, lock-free counters and gauges
// for tracking runtime statistics of an echo server run, and exposes
// them to Prometheus.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "echosrv"

// PoolStats is the read side of the TCP worker pool.
type PoolStats interface {
	Capacity() int
	Running() int
	Queued() int
}

// Collector tracks runtime metrics for an echo server.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	connectionsActive atomic.Int64
	connectionsTotal  atomic.Int64
	connectionErrors  atomic.Int64
	datagramsIn       atomic.Int64
	datagramsOut      atomic.Int64
	bytesIn           atomic.Int64
	bytesOut          atomic.Int64
	errorsTotal       atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastError    time.Time
	lastErrorMsg string
	pool         PoolStats
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Connection metrics ───────────────────────────────────────────────

// ConnectionOpened increments both the active and total counters.
func (c *Collector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(1)
	c.connectionsTotal.Add(1)
}

// ConnectionClosed decrements the active connection counter.
func (c *Collector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(-1)
}

// ConnectionFailed records a connection that ended with an error.
func (c *Collector) ConnectionFailed() {
	if c == nil {
		return
	}
	c.connectionErrors.Add(1)
}

// ActiveConnections returns the current number of open connections.
func (c *Collector) ActiveConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsActive.Load()
}

// TotalConnections returns the lifetime connection count.
func (c *Collector) TotalConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsTotal.Load()
}

// ── Datagram metrics ─────────────────────────────────────────────────

// DatagramReceived records one inbound datagram of n bytes.
func (c *Collector) DatagramReceived(n int) {
	if c == nil {
		return
	}
	c.datagramsIn.Add(1)
	c.bytesIn.Add(int64(n))
}

// DatagramEchoed records one echoed datagram of n bytes.
func (c *Collector) DatagramEchoed(n int) {
	if c == nil {
		return
	}
	c.datagramsOut.Add(1)
	c.bytesOut.Add(int64(n))
}

// ── I/O metrics ──────────────────────────────────────────────────────

// BytesReceived records n bytes read from a TCP connection.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// BytesSent records n bytes written to a TCP connection.
func (c *Collector) BytesSent(n int64) {
	if c == nil {
		return
	}
	c.bytesOut.Add(n)
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Pool ─────────────────────────────────────────────────────────────

// TrackPool attaches the worker pool whose occupancy is reported.
func (c *Collector) TrackPool(p PoolStats) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.pool = p
	c.mu.Unlock()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime            string `json:"uptime"`
	ConnectionsActive int64  `json:"connections_active"`
	ConnectionsTotal  int64  `json:"connections_total"`
	ConnectionErrors  int64  `json:"connection_errors"`
	DatagramsIn       int64  `json:"datagrams_in"`
	DatagramsOut      int64  `json:"datagrams_out"`
	BytesIn           int64  `json:"bytes_in"`
	BytesOut          int64  `json:"bytes_out"`
	ErrorsTotal       int64  `json:"errors_total"`
	PoolCapacity      int    `json:"pool_capacity,omitempty"`
	PoolRunning       int    `json:"pool_running"`
	PoolQueued        int    `json:"pool_queued"`
	LastError         string `json:"last_error,omitempty"`
	LastErrorMessage  string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:            time.Since(c.startTime).Truncate(time.Second).String(),
		ConnectionsActive: c.connectionsActive.Load(),
		ConnectionsTotal:  c.connectionsTotal.Load(),
		ConnectionErrors:  c.connectionErrors.Load(),
		DatagramsIn:       c.datagramsIn.Load(),
		DatagramsOut:      c.datagramsOut.Load(),
		BytesIn:           c.bytesIn.Load(),
		BytesOut:          c.bytesOut.Load(),
		ErrorsTotal:       c.errorsTotal.Load(),
	}
	if c.pool != nil {
		s.PoolCapacity = c.pool.Capacity()
		s.PoolRunning = c.pool.Running()
		s.PoolQueued = c.pool.Queued()
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}

// ── Prometheus export ────────────────────────────────────────────────

var (
	descConnectionsActive = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "tcp", "connections_active"),
		"Number of TCP connections currently being echoed.", nil, nil)
	descConnectionsTotal = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "tcp", "connections_total"),
		"Total number of accepted TCP connections.", nil, nil)
	descConnectionErrors = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "tcp", "connection_errors_total"),
		"Total number of TCP connections that ended with an error.", nil, nil)
	descDatagrams = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "udp", "datagrams_total"),
		"Total number of UDP datagrams by direction.", []string{"direction"}, nil)
	descBytes = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "bytes_total"),
		"Total payload bytes by direction.", []string{"direction"}, nil)
	descErrors = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "errors_total"),
		"Total number of loop and connection errors.", nil, nil)
	descPool = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "pool", "tasks"),
		"Worker pool occupancy by state.", []string{"state"}, nil)
	descPoolCapacity = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "pool", "capacity"),
		"Worker pool capacity.", nil, nil)
)

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descConnectionsActive
	ch <- descConnectionsTotal
	ch <- descConnectionErrors
	ch <- descDatagrams
	ch <- descBytes
	ch <- descErrors
	ch <- descPool
	ch <- descPoolCapacity
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.Snapshot()

	ch <- prometheus.MustNewConstMetric(descConnectionsActive, prometheus.GaugeValue, float64(s.ConnectionsActive))
	ch <- prometheus.MustNewConstMetric(descConnectionsTotal, prometheus.CounterValue, float64(s.ConnectionsTotal))
	ch <- prometheus.MustNewConstMetric(descConnectionErrors, prometheus.CounterValue, float64(s.ConnectionErrors))
	ch <- prometheus.MustNewConstMetric(descDatagrams, prometheus.CounterValue, float64(s.DatagramsIn), "in")
	ch <- prometheus.MustNewConstMetric(descDatagrams, prometheus.CounterValue, float64(s.DatagramsOut), "out")
	ch <- prometheus.MustNewConstMetric(descBytes, prometheus.CounterValue, float64(s.BytesIn), "in")
	ch <- prometheus.MustNewConstMetric(descBytes, prometheus.CounterValue, float64(s.BytesOut), "out")
	ch <- prometheus.MustNewConstMetric(descErrors, prometheus.CounterValue, float64(s.ErrorsTotal))
	ch <- prometheus.MustNewConstMetric(descPool, prometheus.GaugeValue, float64(s.PoolRunning), "running")
	ch <- prometheus.MustNewConstMetric(descPool, prometheus.GaugeValue, float64(s.PoolQueued), "queued")
	ch <- prometheus.MustNewConstMetric(descPoolCapacity, prometheus.GaugeValue, float64(s.PoolCapacity))
}

// Register adds the collector to reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	return reg.Register(c)
}
