package sinks

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// StreamSink copies exactly one file to a writer, typically stdout. A second
// write fails, since the bytes of two polyglots cannot be told apart on one
// stream.
type StreamSink struct {
	w io.Writer

	mu      sync.Mutex
	carried string
}

func NewStreamSink(w io.Writer) *StreamSink {
	return &StreamSink{w: w}
}

func (s *StreamSink) Name() string { return "stream" }
func (s *StreamSink) Kind() string { return "stream" }

func (s *StreamSink) Write(_ context.Context, path string, data io.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.carried != "" {
		return fmt.Errorf("stream already carries %s, cannot write %s", s.carried, path)
	}
	s.carried = path

	if _, err := io.Copy(s.w, data); err != nil {
		return fmt.Errorf("failed to stream %s: %w", path, err)
	}
	return nil
}

func (s *StreamSink) Close(context.Context) error { return nil }
