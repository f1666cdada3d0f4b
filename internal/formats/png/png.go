// Package png handles PNG images. Guests are hosted in private ancillary chunks,
// which decoders skip after checking their CRC.
package png

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/infracollect/polycraft/internal/engine"
	"github.com/infracollect/polycraft/internal/formats/base"
)

const (
	Code        = "PNG"
	Description = "Portable Network Graphics"

	// ancillary, private, reserved bit clear, safe to copy
	hostChunkType = "plYg"

	signatureLen = 8
	chunkHeader  = 8
	chunkCRC     = 4
	ihdrEnd      = signatureLen + chunkHeader + 13 + chunkCRC

	parasiteOffset   = ihdrEnd + chunkHeader
	parasiteCapacity = 0x7FFFFFFF
)

var signature = []byte("\x89PNG\r\n\x1a\n")

type chunk struct {
	offset int
	length int // data length
	kind   string
}

func (c chunk) end() int {
	return c.offset + chunkHeader + c.length + chunkCRC
}

type File struct {
	base.Handle
	base.TrailingData
	chunks []chunk
}

var _ engine.FileType = (*File)(nil)

func Identify(data []byte) bool {
	return len(data) >= ihdrEnd &&
		bytes.HasPrefix(data, signature) &&
		binary.BigEndian.Uint32(data[8:12]) == 13 &&
		string(data[12:16]) == "IHDR"
}

// Open walks the chunk list up to IEND.
func Open(data []byte) (engine.FileType, error) {
	if !Identify(data) {
		return nil, fmt.Errorf("missing PNG signature or IHDR")
	}

	var chunks []chunk
	offset := signatureLen
	for {
		if offset+chunkHeader+chunkCRC > len(data) {
			return nil, fmt.Errorf("truncated chunk at offset 0x%X", offset)
		}
		c := chunk{
			offset: offset,
			length: int(binary.BigEndian.Uint32(data[offset : offset+4])),
			kind:   string(data[offset+4 : offset+8]),
		}
		if c.length > parasiteCapacity || c.end() > len(data) {
			return nil, fmt.Errorf("chunk %q at offset 0x%X overflows the file", c.kind, offset)
		}
		chunks = append(chunks, c)
		offset = c.end()
		if c.kind == "IEND" {
			break
		}
	}

	return &File{
		Handle: base.NewHandle(Code, Description, data),
		chunks: chunks,
	}, nil
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
		Zipper:           true,
	}
}

func (f *File) ComputeCut() (int, bool) {
	return parasiteOffset, true
}

// EmbedParasite inserts a host chunk right after IHDR.
func (f *File) EmbedParasite(other engine.FileType) ([]byte, engine.Ledger, bool) {
	hosted := engine.HostedBytes(parasiteOffset, other)
	if len(hosted) == 0 || len(hosted) > parasiteCapacity {
		return nil, nil, false
	}

	data := f.Data()
	out := engine.Splice(data[:ihdrEnd], makeChunk(hostChunkType, hosted), data[ihdrEnd:])
	return out, engine.Ledger{parasiteOffset, parasiteOffset + len(hosted)}, true
}

// Interleave spreads the pieces of a segmented guest over host chunks placed
// between the image chunks. Consecutive IDAT chunks are never split, and the last
// piece always lands right before IEND so trailer-located structures stay close to
// the end of the file.
func (f *File) Interleave(other engine.FileType) ([]byte, engine.Ledger, bool) {
	guest, ok := other.(engine.Segmented)
	if !ok {
		return nil, nil, false
	}
	segments := guest.Segments()
	if len(segments) == 0 {
		return nil, nil, false
	}
	for _, s := range segments {
		if len(s) == 0 || len(s) > parasiteCapacity {
			return nil, nil, false
		}
	}

	slots := f.slots()
	if len(slots) == 0 {
		return nil, nil, false
	}
	assigned := make([][]int, len(f.chunks))
	for i := range segments {
		slot := slots[len(slots)-1]
		if i < len(segments)-1 && len(slots) > 1 {
			slot = slots[min(i, len(slots)-2)]
		}
		assigned[slot] = append(assigned[slot], i)
	}

	positions := make([]int, len(segments))
	cursor := signatureLen
	for i, c := range f.chunks {
		cursor += c.end() - c.offset
		for _, seg := range assigned[i] {
			positions[seg] = cursor + chunkHeader
			cursor += chunkHeader + len(segments[seg]) + chunkCRC
		}
	}

	relocated, err := guest.Relocate(positions)
	if err != nil {
		return nil, nil, false
	}

	data := f.Data()
	var buf bytes.Buffer
	buf.Grow(cursor)
	buf.Write(data[:signatureLen])
	ledger := make(engine.Ledger, 0, 2*len(segments))
	for i, c := range f.chunks {
		buf.Write(data[c.offset:c.end()])
		for _, seg := range assigned[i] {
			ledger = append(ledger, buf.Len()+chunkHeader)
			buf.Write(makeChunk(hostChunkType, relocated[seg]))
			ledger = append(ledger, buf.Len()-chunkCRC)
		}
	}
	buf.Write(data[f.chunks[len(f.chunks)-1].end():])

	return buf.Bytes(), ledger, true
}

// slots returns the indexes of chunks after which host chunks may be inserted.
func (f *File) slots() []int {
	var slots []int
	for i, c := range f.chunks {
		if c.kind == "IEND" || i+1 >= len(f.chunks) {
			break
		}
		if c.kind == "IDAT" && f.chunks[i+1].kind == "IDAT" {
			continue
		}
		slots = append(slots, i)
	}
	return slots
}

func makeChunk(kind string, payload []byte) []byte {
	out := make([]byte, chunkHeader+len(payload)+chunkCRC)
	binary.BigEndian.PutUint32(out[0:4], uint32(len(payload)))
	copy(out[4:8], kind)
	copy(out[8:], payload)
	binary.BigEndian.PutUint32(out[8+len(payload):], crc32.ChecksumIEEE(out[4:8+len(payload)]))
	return out
}
