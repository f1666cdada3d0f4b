// Package pe handles Portable Executable images. Loaders ignore overlay data past
// the last section, so PE files accept appended content.
package pe

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
	"fmt"

	"github.com/infracollect/polycraft/internal/engine"
	"github.com/infracollect/polycraft/internal/formats/base"
)

const (
	Code        = "PE"
	Description = "Portable Executable"

	// HeaderPointer is the offset of e_lfanew in the DOS header.
	HeaderPointer = 0x3C
)

var (
	dosMagic = []byte("MZ")
	peMagic  = []byte("PE\x00\x00")
)

type File struct {
	base.Handle
	base.TrailingData
	base.NoParasite
	base.NoInterleave
}

var _ engine.FileType = (*File)(nil)

func Identify(data []byte) bool {
	if len(data) < HeaderPointer+4 || !bytes.HasPrefix(data, dosMagic) {
		return false
	}
	lfanew := int(binary.LittleEndian.Uint32(data[HeaderPointer : HeaderPointer+4]))
	return lfanew >= 0 && lfanew+len(peMagic) <= len(data) && bytes.Equal(data[lfanew:lfanew+len(peMagic)], peMagic)
}

// Open parses the COFF header and section table.
func Open(data []byte) (engine.FileType, error) {
	if !Identify(data) {
		return nil, fmt.Errorf("missing PE signature")
	}

	img, err := pe.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse PE headers: %w", err)
	}
	_ = img.Close()

	return &File{Handle: base.NewHandle(Code, Description, data)}, nil
}

func Recognizer() engine.Recognizer {
	return base.NewRecognizer(Code, Description, Identify, Open)
}

func (f *File) Capabilities() engine.Capabilities {
	return engine.Capabilities{Append: true}
}
