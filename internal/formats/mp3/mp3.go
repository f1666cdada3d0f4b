// Package mp3 recognizes raw MPEG-1 Audio Layer III streams without an ID3 tag.
package mp3

import (
	"bytes"
	"fmt"

	"github.com/infracollect/polycraft/internal/engine"
	"github.com/infracollect/polycraft/internal/formats/base"
)

const (
	Code        = "MP3"
	Description = "MP3 / MPEG-1 Audio Layer III (no ID3 tag)"
)

type File struct {
	base.Handle
	base.TrailingData
	base.NoParasite
	base.NoInterleave
}

var _ engine.FileType = (*File)(nil)

// Identify looks for a frame sync word (eleven set bits) at offset 0. Tagged files
// start with "ID3" and are left to a tag-aware recognizer.
func Identify(data []byte) bool {
	if bytes.HasPrefix(data, []byte("ID3")) {
		return false
	}
	return len(data) > 1 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
}

func Open(data []byte) (engine.FileType, error) {
	if !Identify(data) {
		return nil, fmt.Errorf("missing MP3 frame sync")
	}
	return &File{Handle: base.NewHandle(Code, Description, data)}, nil
}

func (f *File) Capabilities() engine.Capabilities {
	return engine.Capabilities{Append: true}
}

func Recognizer() engine.Recognizer {
	return base.NewRecognizer(Code, Description, Identify, Open)
}
