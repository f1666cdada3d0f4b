// Package dicom handles DICOM Part 10 files. The 128-byte preamble is free for any
// use and appended payloads are wrapped in a trailing padding element.
package dicom

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/infracollect/polycraft/internal/engine"
	"github.com/infracollect/polycraft/internal/formats/base"
)

const (
	Code        = "DCM"
	Description = "DICOM medical image"

	preambleLen = 0x80
	paddingVR   = "OB"
)

var (
	prefix = []byte("DICM")
	// (FFFC,FFFC) Data Set Trailing Padding, explicit VR little endian.
	paddingTag = []byte{0xFC, 0xFF, 0xFC, 0xFF}
)

type File struct {
	base.Handle
	base.NoParasite
	base.NoInterleave
}

var _ engine.FileType = (*File)(nil)

func Identify(data []byte) bool {
	return len(data) >= preambleLen+len(prefix) && bytes.Equal(data[preambleLen:preambleLen+len(prefix)], prefix)
}

func Open(data []byte) (engine.FileType, error) {
	if !Identify(data) {
		return nil, fmt.Errorf("missing DICM prefix at 0x%X", preambleLen)
	}
	return &File{Handle: base.NewHandle(Code, Description, data)}, nil
}

func Recognizer() engine.Recognizer {
	return base.NewRecognizer(Code, Description, Identify, Open)
}

func (f *File) Capabilities() engine.Capabilities {
	return engine.Capabilities{
		Append:        true,
		LeadingCavity: preambleLen,
	}
}

// WrapAppend wraps payload in an OB padding element. Values have even length, so
// odd payloads get a trailing zero.
func (f *File) WrapAppend(payload []byte) []byte {
	size := len(payload) + len(payload)%2

	out := make([]byte, 0, 12+size)
	out = append(out, paddingTag...)
	out = append(out, paddingVR...)
	out = append(out, 0, 0)
	out = binary.LittleEndian.AppendUint32(out, uint32(size))
	out = append(out, payload...)
	if len(payload)%2 == 1 {
		out = append(out, 0)
	}
	return out
}
