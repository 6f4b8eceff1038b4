package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// ReaderSource streams NDJSON events from an io.Reader, typically stdin when
// the bridge runs the agent as a child process. It consumes the reader once
// and returns when it is exhausted.
type ReaderSource struct {
	reader io.Reader
	logger *zap.Logger
}

func NewReaderSource(reader io.Reader, logger *zap.Logger) (*ReaderSource, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ReaderSource{
		reader: reader,
		logger: logger,
	}, nil
}

func (s *ReaderSource) Consume(ctx context.Context, handler EventHandler) error {
	if s == nil {
		return fmt.Errorf("source is not initialized")
	}
	if handler == nil {
		return fmt.Errorf("event handler is required")
	}

	scanner := bufio.NewScanner(s.reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var wg sync.WaitGroup
	defer wg.Wait()

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		event, ok := decodeLine(line, s.logger)
		if !ok {
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			handleEvent(ctx, event, handler, s.logger)
		}()
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("event stream read failed: %w", err)
	}
	return nil
}

func (s *ReaderSource) Close() error { return nil }
