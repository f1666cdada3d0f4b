package artifact

import (
	"io"
	"math/rand/v2"
)

// FillerSource creates the generator used for placeholder bytes. New is called
// once per artifact, so every artifact starts from the same generator state.
type FillerSource interface {
	New() io.Reader
}

// ChaCha8Filler draws filler from a ChaCha8 stream keyed with Seed.
type ChaCha8Filler struct {
	Seed [32]byte
}

func (c ChaCha8Filler) New() io.Reader {
	return rand.NewChaCha8(c.Seed)
}

// DefaultFiller is a ChaCha8 stream with an all-zero seed.
func DefaultFiller() FillerSource {
	return ChaCha8Filler{}
}
