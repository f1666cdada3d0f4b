// Package gzip handles gzip members. A member without optional header fields can
// host a guest in an FEXTRA subfield placed right after the fixed header.
package gzip

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	kgzip "github.com/klauspost/compress/gzip"

	"github.com/infracollect/polycraft/internal/engine"
	"github.com/infracollect/polycraft/internal/formats/base"
)

const (
	Code        = "GZ"
	Description = "GZIP compressed data"

	headerLen       = 10
	flagOffset      = 3
	flagHeaderCRC   = 0x02
	flagExtra       = 0x04
	subfieldHeader  = 4
	parasiteOffset  = headerLen + 2 + subfieldHeader
	maxExtraLen     = 0xFFFF
	subfieldIDFirst = 'P'
	subfieldIDLast  = 'y'
)

var magic = []byte{0x1F, 0x8B, 0x08}

type File struct {
	base.Handle
	base.NoInterleave
}

var _ engine.FileType = (*File)(nil)

func Identify(data []byte) bool {
	return len(data) >= headerLen && bytes.HasPrefix(data, magic)
}

// Open decompresses the first member to make sure the stream is readable.
func Open(data []byte) (engine.FileType, error) {
	if !Identify(data) {
		return nil, fmt.Errorf("missing gzip magic")
	}

	r, err := kgzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read gzip header: %w", err)
	}
	r.Multistream(false)
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, fmt.Errorf("failed to decompress gzip member: %w", err)
	}

	return &File{Handle: base.NewHandle(Code, Description, data)}, nil
}

func Recognizer() engine.Recognizer {
	return base.NewRecognizer(Code, Description, Identify, Open)
}

// hostable reports whether the header carries no optional field before the data
// that an inserted FEXTRA would have to precede.
func (f *File) hostable() bool {
	return f.Data()[flagOffset]&(flagExtra|flagHeaderCRC) == 0
}

func (f *File) Capabilities() engine.Capabilities {
	if !f.hostable() {
		return engine.Capabilities{}
	}
	return engine.Capabilities{
		Parasite:         true,
		ParasiteOffset:   parasiteOffset,
		ParasiteCapacity: maxExtraLen - subfieldHeader,
	}
}

// WrapAppend is never used since gzip readers reject trailing garbage.
func (f *File) WrapAppend(payload []byte) []byte {
	return payload
}

func (f *File) ComputeCut() (int, bool) {
	if !f.hostable() {
		return 0, false
	}
	return parasiteOffset, true
}

func (f *File) EmbedParasite(other engine.FileType) ([]byte, engine.Ledger, bool) {
	if !f.hostable() {
		return nil, nil, false
	}
	hosted := engine.HostedBytes(parasiteOffset, other)
	if len(hosted) == 0 || len(hosted) > maxExtraLen-subfieldHeader {
		return nil, nil, false
	}

	data := f.Data()
	header := bytes.Clone(data[:headerLen])
	header[flagOffset] |= flagExtra

	extra := make([]byte, 2+subfieldHeader)
	binary.LittleEndian.PutUint16(extra[0:2], uint16(subfieldHeader+len(hosted)))
	extra[2], extra[3] = subfieldIDFirst, subfieldIDLast
	binary.LittleEndian.PutUint16(extra[4:6], uint16(len(hosted)))

	out := engine.Splice(header, extra, hosted, data[headerLen:])
	return out, engine.Ledger{parasiteOffset, parasiteOffset + len(hosted)}, true
}
