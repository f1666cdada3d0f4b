package engine

import (
	"context"
	"io"
)

// Named identifies techniques and sinks in logs and errors.
type Named interface {
	Name() string
	Kind() string
}

// Sink receives the files a run produces: polyglots, split views and the
// run manifest. A sink may reject a path it has already been given.
type Sink interface {
	Named
	Write(ctx context.Context, path string, data io.Reader) error
	Close(ctx context.Context) error
}

// Bundler packs files into one archive held in memory. Seal finalizes the
// archive; a sealed bundler rejects further entries.
type Bundler interface {
	Add(ctx context.Context, name string, data []byte) error
	Seal() ([]byte, error)
	// Extension is appended to bundle names that lack it, e.g. ".tar.gz".
	Extension() string
}

// TimestampLayout is ISO 8601 basic format. It has no colons, so it is safe in
// object keys and file names.
const TimestampLayout = "20060102T150405Z"
