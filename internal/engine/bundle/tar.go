package bundle

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

type compressor struct {
	ext  string
	open func(io.Writer) (io.WriteCloser, error)
}

var compressors = map[Compression]compressor{
	CompressionGzip: {".tar.gz", func(w io.Writer) (io.WriteCloser, error) {
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	}},
	CompressionZstd: {".tar.zst", func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
	}},
	CompressionLZ4: {".tar.lz4", func(w io.Writer) (io.WriteCloser, error) {
		return lz4.NewWriter(w), nil
	}},
	CompressionNone: {".tar", func(w io.Writer) (io.WriteCloser, error) {
		return nopCloser{w}, nil
	}},
}

// Tar writes PAX entries with a fixed mode and timestamp.
type Tar struct {
	out    bytes.Buffer
	stream io.WriteCloser
	tw     *tar.Writer
	ext    string
	sealed bool
}

func NewTar(compression Compression) (*Tar, error) {
	if compression == "" {
		compression = CompressionGzip
	}
	c, ok := compressors[compression]
	if !ok {
		return nil, fmt.Errorf("unsupported compression type: %s", compression)
	}

	t := &Tar{ext: c.ext}
	stream, err := c.open(&t.out)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s writer: %w", compression, err)
	}
	t.stream = stream
	t.tw = tar.NewWriter(stream)
	return t, nil
}

func (t *Tar) Add(ctx context.Context, name string, data []byte) error {
	if t.sealed {
		return ErrSealed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := t.tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(data)),
		ModTime:  epoch,
		Format:   tar.FormatPAX,
	})
	if err != nil {
		return fmt.Errorf("failed to write tar header for %s: %w", name, err)
	}
	if _, err := t.tw.Write(data); err != nil {
		return fmt.Errorf("failed to write tar entry %s: %w", name, err)
	}
	return nil
}

// Seal flushes the tar trailer, then the compressor.
func (t *Tar) Seal() ([]byte, error) {
	if t.sealed {
		return nil, ErrSealed
	}
	t.sealed = true

	if err := errors.Join(t.tw.Close(), t.stream.Close()); err != nil {
		return nil, fmt.Errorf("failed to seal tar bundle: %w", err)
	}
	return t.out.Bytes(), nil
}

func (t *Tar) Extension() string { return t.ext }
