package sinks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/infracollect/polycraft/internal/engine"
)

// BundleSink collects every write into a Bundler and hands the sealed archive
// to the inner sink on Close.
type BundleSink struct {
	inner   engine.Sink
	bundler engine.Bundler
	name    string

	mu      sync.Mutex
	entries map[string]struct{}
}

// NewBundleSink appends the bundler's extension to name unless it already
// ends with it.
func NewBundleSink(inner engine.Sink, bundler engine.Bundler, name string) *BundleSink {
	if !strings.HasSuffix(name, bundler.Extension()) {
		name += bundler.Extension()
	}
	return &BundleSink{
		inner:   inner,
		bundler: bundler,
		name:    name,
		entries: make(map[string]struct{}),
	}
}

func (s *BundleSink) Name() string {
	return fmt.Sprintf("archive(%s)->%s", s.name, s.inner.Name())
}

func (s *BundleSink) Kind() string {
	return "archive"
}

func (s *BundleSink) Write(ctx context.Context, path string, data io.Reader) error {
	content, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[path]; ok {
		return fmt.Errorf("%w: %s in %s", ErrAlreadyWritten, path, s.name)
	}
	if err := s.bundler.Add(ctx, path, content); err != nil {
		return fmt.Errorf("failed to add %s to %s: %w", path, s.name, err)
	}
	s.entries[path] = struct{}{}
	return nil
}

// Close seals the bundle, writes it to the inner sink and closes that sink.
func (s *BundleSink) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.bundler.Seal()
	if err != nil {
		return err
	}
	if err := s.inner.Write(ctx, s.name, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.name, err)
	}
	if err := s.inner.Close(ctx); err != nil {
		return fmt.Errorf("failed to close %s: %w", s.inner.Name(), err)
	}
	return nil
}
