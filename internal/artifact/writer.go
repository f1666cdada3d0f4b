// Package artifact names, persists and splits the polyglots produced by a run.
package artifact

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/zeebo/xxh3"
	"go.uber.org/zap"

	"github.com/infracollect/polycraft/internal/engine"
)

const idLength = 8

// ID returns the content-derived identifier of data: the first 8 lowercase hex
// characters of its SHA-256 digest.
func ID(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:idLength]
}

// Fingerprint returns the xxh3 hash of data as 16 hex characters.
func Fingerprint(data []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(data))
}

// Filename returns "<stem>.<id>.<ext1>.<ext2>".
func Filename(a engine.Artifact) string {
	return fmt.Sprintf("%s.%s.%s", a.Stem, ID(a.Data), strings.Join(a.Extensions[:], "."))
}

// File is a named buffer produced by a run.
type File struct {
	Name string
	Data []byte
}

// Input describes one source of a run for the manifest.
type Input struct {
	Name string
	Code string
	Size int
}

// Report is what Write produced.
type Report struct {
	Files    []File
	Splits   []File
	Manifest *Manifest
}

// Writer names artifacts, rebuilds split views and persists both to sinks.
type Writer struct {
	logger    *zap.Logger
	filler    FillerSource
	sink      engine.Sink
	splitSink engine.Sink
	split     bool
	manifest  bool
	now       func() time.Time
}

type WriterOption func(*Writer)

// WithSink persists artifacts and the manifest to sink.
func WithSink(sink engine.Sink) WriterOption {
	return func(w *Writer) {
		w.sink = sink
	}
}

// WithSplit enables split views, persisted to sink when it is not nil.
func WithSplit(sink engine.Sink) WriterOption {
	return func(w *Writer) {
		w.split = true
		w.splitSink = sink
	}
}

// WithoutManifest skips writing manifest.json. Single-file sinks need it.
func WithoutManifest() WriterOption {
	return func(w *Writer) {
		w.manifest = false
	}
}

func WithClock(now func() time.Time) WriterOption {
	return func(w *Writer) {
		w.now = now
	}
}

func NewWriter(logger *zap.Logger, filler FillerSource, opts ...WriterOption) *Writer {
	w := &Writer{
		logger:   logger,
		filler:   filler,
		manifest: true,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write names every artifact, rebuilds split views when enabled and persists them.
// Identical filenames are written once.
func (w *Writer) Write(ctx context.Context, inputs []Input, artifacts []engine.Artifact) (*Report, error) {
	report := &Report{
		Manifest: &Manifest{
			RunID:     ulid.Make().String(),
			CreatedAt: w.now().UTC(),
		},
	}
	for _, in := range inputs {
		report.Manifest.Inputs = append(report.Manifest.Inputs, InputEntry(in))
	}

	seen := make(map[string]struct{}, len(artifacts))
	for _, a := range artifacts {
		name := Filename(a)
		if _, ok := seen[name]; ok {
			w.logger.Debug("skipping duplicate artifact", zap.String("filename", name))
			continue
		}
		seen[name] = struct{}{}

		entry := ArtifactEntry{
			Filename:    name,
			Technique:   a.Technique,
			Size:        len(a.Data),
			Ledger:      []int(a.Ledger),
			Overlap:     engine.OverlapHex(a.Overlap),
			ID:          ID(a.Data),
			Fingerprint: Fingerprint(a.Data),
		}
		if entry.Ledger == nil {
			entry.Ledger = []int{}
		}

		// reseed before each artifact
		filler := w.filler.New()

		if w.split && len(a.Ledger) > 0 {
			views, err := Split(a, filler)
			if err != nil {
				return nil, err
			}
			for i, view := range views {
				split := File{Name: splitName(a, i), Data: view}
				if err := w.persist(ctx, w.splitSink, split); err != nil {
					return nil, err
				}
				report.Splits = append(report.Splits, split)
				entry.Split = append(entry.Split, split.Name)
			}
		}

		file := File{Name: name, Data: a.Data}
		if err := w.persist(ctx, w.sink, file); err != nil {
			return nil, err
		}
		report.Files = append(report.Files, file)
		report.Manifest.Artifacts = append(report.Manifest.Artifacts, entry)

		w.logger.Info("artifact created",
			zap.String("filename", name),
			zap.String("technique", a.Technique),
			zap.Int("size", len(a.Data)),
		)
	}

	if w.sink != nil && w.manifest {
		data, err := report.Manifest.Encode()
		if err != nil {
			return nil, fmt.Errorf("failed to encode manifest: %w", err)
		}
		if err := w.sink.Write(ctx, ManifestName, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to write manifest: %w", err)
		}
	}

	return report, nil
}

// splitName returns "<stem>.<ext>" for the view of side i, numbering the views when
// both sources share an extension.
func splitName(a engine.Artifact, i int) string {
	if a.SideExtensions[0] == a.SideExtensions[1] {
		return fmt.Sprintf("%s.%d.%s", a.Stem, i+1, a.SideExtensions[i])
	}
	return fmt.Sprintf("%s.%s", a.Stem, a.SideExtensions[i])
}

func (w *Writer) persist(ctx context.Context, sink engine.Sink, f File) error {
	if sink == nil {
		return nil
	}
	if err := sink.Write(ctx, f.Name, bytes.NewReader(f.Data)); err != nil {
		return fmt.Errorf("failed to write %s to %s: %w", f.Name, sink.Name(), err)
	}
	return nil
}
