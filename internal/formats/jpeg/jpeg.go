// Package jpeg handles JPEG images. Guests are hosted in a comment (COM) segment
// placed right after the start-of-image marker.
package jpeg

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/infracollect/polycraft/internal/engine"
	"github.com/infracollect/polycraft/internal/formats/base"
)

const (
	Code        = "JPG"
	Description = "JPEG / JFIF image"

	soiLen = 2

	// SOI, COM marker, 16-bit segment length
	parasiteOffset   = soiLen + 4
	parasiteCapacity = 0xFFFF - 2
)

var (
	soi        = []byte{0xFF, 0xD8, 0xFF}
	comMarker  = []byte{0xFF, 0xFE}
	lengthSlot = soiLen + 2
)

type File struct {
	base.Handle
	base.TrailingData
	base.NoInterleave
}

var (
	_ engine.FileType       = (*File)(nil)
	_ engine.OverlapReducer = (*File)(nil)
)

func Identify(data []byte) bool {
	return len(data) >= 4 && bytes.HasPrefix(data, soi)
}

func Open(data []byte) (engine.FileType, error) {
	if !Identify(data) {
		return nil, fmt.Errorf("missing JPEG start of image")
	}
	return &File{Handle: base.NewHandle(Code, Description, data)}, nil
}

func Recognizer() engine.Recognizer {
	return base.NewRecognizer(Code, Description, Identify, Open)
}

func (f *File) Capabilities() engine.Capabilities {
	return engine.Capabilities{
		Append:           true,
		Parasite:         true,
		ParasiteOffset:   parasiteOffset,
		ParasiteCapacity: parasiteCapacity,
	}
}

func (f *File) ComputeCut() (int, bool) {
	return parasiteOffset, true
}

func (f *File) EmbedParasite(other engine.FileType) ([]byte, engine.Ledger, bool) {
	hosted := engine.HostedBytes(parasiteOffset, other)
	if len(hosted) == 0 || len(hosted) > parasiteCapacity {
		return nil, nil, false
	}

	data := f.Data()
	header := make([]byte, 4)
	copy(header, comMarker)
	binary.BigEndian.PutUint16(header[2:], uint16(len(hosted)+2))

	out := engine.Splice(data[:soiLen], header, hosted, data[soiLen:])
	return out, engine.Ledger{parasiteOffset, parasiteOffset + len(hosted)}, true
}

// ReduceOverlap lets the guest's leading bytes also serve as the COM segment
// length. Both length bytes are donated when the guest's value is not smaller than
// the current length; otherwise only the low byte is donated and the high byte is
// incremented. The segment is padded with zeros up to the new declared length.
func (f *File) ReduceOverlap(data []byte, ledger engine.Ledger, overlap []byte, guest []byte) ([]byte, engine.Ledger, []byte, bool) {
	if len(overlap) != parasiteOffset || len(ledger) != 2 || ledger[0] != parasiteOffset ||
		len(guest) < parasiteOffset || !bytes.HasPrefix(guest, overlap) ||
		len(data) < parasiteOffset || !bytes.Equal(data[soiLen:lengthSlot], comMarker) {
		return data, ledger, overlap, false
	}

	current := int(binary.BigEndian.Uint16(data[lengthSlot:]))
	segmentEnd := lengthSlot + current
	if segmentEnd > len(data) {
		return data, ledger, overlap, false
	}

	donated := 2
	length := int(binary.BigEndian.Uint16(guest[lengthSlot:]))
	if length < current {
		if data[lengthSlot] == 0xFF {
			return data, ledger, overlap, false
		}
		donated = 1
		length = int(data[lengthSlot]+1)<<8 | int(guest[lengthSlot+1])
	}

	field := make([]byte, 2)
	binary.BigEndian.PutUint16(field, uint16(length))

	out := engine.Splice(
		data[:lengthSlot],
		field,
		data[parasiteOffset:segmentEnd],
		make([]byte, length-current),
		data[segmentEnd:],
	)
	reduced := engine.Ledger{parasiteOffset - donated, ledger[1]}
	return out, reduced, overlap[:parasiteOffset-donated], true
}
