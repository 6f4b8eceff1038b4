// Package netcheck answers "is the network reachable right now". A negative
// answer only delays delivery; the payload queues and a later sweep retries.
package netcheck

import (
	"context"
	"net"
	"time"
)

const defaultProbeTimeout = 3 * time.Second

// Checker reports current network availability.
type Checker interface {
	Online(ctx context.Context) bool
}

// DialChecker probes connectivity with a TCP dial to a fixed address.
type DialChecker struct {
	addr    string
	timeout time.Duration
	dial    func(ctx context.Context, network, addr string) (net.Conn, error)
}

func NewDialChecker(addr string, timeout time.Duration) *DialChecker {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}

	dialer := &net.Dialer{}
	return &DialChecker{
		addr:    addr,
		timeout: timeout,
		dial:    dialer.DialContext,
	}
}

func (c *DialChecker) Online(ctx context.Context) bool {
	if c.addr == "" {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dial(ctx, "tcp", c.addr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
