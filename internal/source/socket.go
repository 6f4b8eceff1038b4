package source

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/notifylab/notify-agent/internal/domain"
	"go.uber.org/zap"
)

const (
	// maxLineBytes bounds a single NDJSON event line.
	maxLineBytes = 256 * 1024

	listenBackoff = time.Second
	maxBackoff    = 30 * time.Second
)

// SocketSource accepts notification bridge connections on a unix socket and
// reads newline-delimited JSON events. Each connection is one bridge session;
// multiple sessions may be active at once.
type SocketSource struct {
	path   string
	logger *zap.Logger

	mu       sync.Mutex
	listener net.Listener
}

func NewSocketSource(path string, logger *zap.Logger) (*SocketSource, error) {
	if path == "" {
		return nil, fmt.Errorf("socket path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SocketSource{
		path:   path,
		logger: logger,
	}, nil
}

// Consume listens on the socket and dispatches decoded events to the handler.
// It re-creates the listener with backoff on failure and returns nil once the
// context is cancelled.
func (s *SocketSource) Consume(ctx context.Context, handler EventHandler) error {
	if s == nil {
		return fmt.Errorf("source is not initialized")
	}
	if handler == nil {
		return fmt.Errorf("event handler is required")
	}

	backoff := listenBackoff
	for {
		err := s.consumeOnce(ctx, handler)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			backoff = listenBackoff
			continue
		}
		s.logger.Warn("event socket failed, retrying",
			zap.String("path", s.path),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (s *SocketSource) consumeOnce(ctx context.Context, handler EventHandler) error {
	// A stale socket file from a previous run blocks the bind.
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("failed to listen on %q: %w", s.path, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		listener.Close() //nolint:errcheck // best-effort close on shutdown
	}()

	s.logger.Info("event socket listening", zap.String("path", s.path))

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer conn.Close() //nolint:errcheck // best-effort connection close
			s.serveConn(ctx, conn, handler)
		}()
	}
}

func (s *SocketSource) serveConn(ctx context.Context, conn net.Conn, handler EventHandler) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var wg sync.WaitGroup
	defer wg.Wait()

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		// Decode before spawning; the scanner reuses its buffer.
		event, ok := decodeLine(line, s.logger)
		if !ok {
			continue
		}

		// One task per event: a blocked send must not stall the stream.
		wg.Add(1)
		go func() {
			defer wg.Done()
			handleEvent(ctx, event, handler, s.logger)
		}()
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		s.logger.Warn("bridge connection read failed", zap.Error(err))
	}
}

// Close shuts down the active listener, if any.
func (s *SocketSource) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	listener := s.listener
	s.listener = nil
	s.mu.Unlock()
	if listener == nil {
		return nil
	}
	return listener.Close()
}

// decodeLine decodes one NDJSON line. Malformed lines are dropped with a
// warning so one bad event cannot stall the stream.
func decodeLine(line []byte, logger *zap.Logger) (domain.NotificationEvent, bool) {
	var event domain.NotificationEvent
	if err := json.Unmarshal(line, &event); err != nil {
		logger.Warn("dropping event: invalid JSON", zap.Error(err))
		return domain.NotificationEvent{}, false
	}
	if event.PackageName == "" {
		logger.Warn("dropping event: missing package name")
		return domain.NotificationEvent{}, false
	}
	if event.PostedAt.IsZero() {
		event.PostedAt = time.Now()
	}
	return event, true
}

func handleEvent(ctx context.Context, event domain.NotificationEvent, handler EventHandler, logger *zap.Logger) {
	if err := handler(ctx, event); err != nil {
		logger.Warn("event handler failed",
			zap.String("packageName", event.PackageName),
			zap.Error(err),
		)
	}
}
