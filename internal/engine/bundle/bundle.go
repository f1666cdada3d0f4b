// Package bundle packs the files of a craft run into a single archive.
package bundle

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/infracollect/polycraft/internal/engine"
)

// Archive formats accepted in job files.
const (
	FormatTar = "tar"
	FormatZip = "zip"
)

// Compression names a tar stream compressor.
type Compression string

const (
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
	CompressionNone Compression = "none"
)

// ErrSealed is returned when a bundle is used after Seal.
var ErrSealed = errors.New("bundle already sealed")

// epoch stamps every tar entry so equal runs produce equal archives.
var epoch = time.Unix(0, 0).UTC()

// New returns a bundler for format. An empty format means tar, an empty
// compression means gzip for tar and none for zip. Zip entries are always
// stored, so zip rejects any other compression.
func New(format, compression string) (engine.Bundler, error) {
	switch format {
	case "", FormatTar:
		return NewTar(Compression(compression))
	case FormatZip:
		if c := Compression(compression); c != "" && c != CompressionNone {
			return nil, fmt.Errorf("zip archives do not support %s compression", compression)
		}
		return NewZip(), nil
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", format)
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
