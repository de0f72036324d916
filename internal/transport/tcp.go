package transport

import (
	"context"
	"net"
	"time"

	echoerr "echosrv/internal/errors"
	"echosrv/internal/retry"
	"echosrv/util"
)

// TCPDialer establishes TCP connections, retrying refused or
// temporarily failing dials with exponential backoff.
type TCPDialer struct {
	Timeout time.Duration // per attempt; zero means no limit
	Retries int           // total attempts; values below 1 mean one
	Logger  *util.Logger
}

// Dial connects to address over TCP.
func (d *TCPDialer) Dial(ctx context.Context, address string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: d.Timeout}

	b := retry.DefaultBackoff(max(d.Retries, 1))
	b.Retryable = echoerr.IsRetryable
	if d.Logger != nil {
		b.OnRetry = func(attempt int, wait time.Duration, err error) {
			d.Logger.Verbose("connect attempt %d to %s failed (%v), retrying in %v",
				attempt, address, err, wait.Round(time.Millisecond))
		}
	}

	var conn net.Conn
	err := b.Do(ctx, func(int) error {
		c, err := dialer.DialContext(ctx, "tcp", address)
		if err != nil {
			return echoerr.Wrap("dial", address, err)
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}
