package sinks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// ErrAlreadyWritten is returned when a sink receives the same path twice.
var ErrAlreadyWritten = errors.New("file already written")

// FilesystemSink writes files below the root of an afero filesystem. A run
// never overwrites its own outputs: each path is accepted once.
type FilesystemSink struct {
	fs afero.Fs

	mu      sync.Mutex
	written map[string]struct{}
}

func NewFilesystemSink(fs afero.Fs) *FilesystemSink {
	return &FilesystemSink{fs: fs, written: make(map[string]struct{})}
}

// NewFilesystemSinkFromPath creates dir if needed and roots a sink there.
func NewFilesystemSinkFromPath(dir string) (*FilesystemSink, error) {
	osFs := afero.NewOsFs()
	dir = filepath.Clean(dir)
	if err := osFs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return NewFilesystemSink(afero.NewBasePathFs(osFs, dir)), nil
}

func (s *FilesystemSink) Name() string {
	return fmt.Sprintf("filesystem(%s)", s.fs.Name())
}

func (s *FilesystemSink) Kind() string {
	return "filesystem"
}

// Write creates parent directories as needed.
func (s *FilesystemSink) Write(_ context.Context, path string, data io.Reader) error {
	key := filepath.Clean(path)

	s.mu.Lock()
	_, seen := s.written[key]
	s.written[key] = struct{}{}
	s.mu.Unlock()
	if seen {
		return fmt.Errorf("%w: %s", ErrAlreadyWritten, key)
	}

	if err := afero.WriteReader(s.fs, key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *FilesystemSink) Close(context.Context) error {
	return nil
}
