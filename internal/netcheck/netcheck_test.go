package netcheck

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

type fakeConn struct {
	net.Conn
	closed bool
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func TestDialCheckerOnline(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{}
	checker := NewDialChecker("1.1.1.1:443", time.Second)
	checker.dial = func(ctx context.Context, network, addr string) (net.Conn, error) {
		if network != "tcp" || addr != "1.1.1.1:443" {
			t.Errorf("dial %s %s, want tcp 1.1.1.1:443", network, addr)
		}
		return conn, nil
	}

	if !checker.Online(context.Background()) {
		t.Fatal("Online() = false, want true")
	}
	if !conn.closed {
		t.Error("probe connection not closed")
	}
}

func TestDialCheckerOffline(t *testing.T) {
	t.Parallel()

	checker := NewDialChecker("1.1.1.1:443", time.Second)
	checker.dial = func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, errors.New("network unreachable")
	}

	if checker.Online(context.Background()) {
		t.Fatal("Online() = true, want false")
	}
}

func TestDialCheckerEmptyAddrAlwaysOnline(t *testing.T) {
	t.Parallel()

	checker := NewDialChecker("", time.Second)
	if !checker.Online(context.Background()) {
		t.Fatal("Online() = false, want true for empty probe address")
	}
}

func TestDialCheckerDefaultTimeout(t *testing.T) {
	t.Parallel()

	checker := NewDialChecker("1.1.1.1:443", 0)
	if checker.timeout != defaultProbeTimeout {
		t.Errorf("timeout = %v, want %v", checker.timeout, defaultProbeTimeout)
	}
}
