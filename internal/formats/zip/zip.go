// Package zip handles ZIP archives. Readers locate a ZIP through its end of central
// directory record, so an archive may start anywhere in a file. Guests are hosted in
// an extra field of the first local file header, and archives can be split into
// relocatable entries for interleaving.
package zip

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	kzip "github.com/klauspost/compress/zip"

	"github.com/infracollect/polycraft/internal/engine"
	"github.com/infracollect/polycraft/internal/formats/base"
)

const (
	Code        = "ZIP"
	Description = "ZIP archive"

	localHeaderLen    = 30
	centralHeaderLen  = 46
	directoryEndLen   = 22
	extraRecordHeader = 4
	maxCommentLen     = 0xFFFF
	maxExtraLen       = 0xFFFF
	parasiteExtraID   = 0x7970
	// startOffsetAnywhere marks an archive readers locate from its end. It
	// fits int on every GOARCH.
	startOffsetAnywhere = math.MaxInt32
)

var (
	localSig   = []byte("PK\x03\x04")
	centralSig = []byte("PK\x01\x02")
	endSig     = []byte("PK\x05\x06")
)

type entry struct {
	central     int // offset of the central directory record
	localOffset int // absolute offset of the local file header
}

type File struct {
	base.Handle
	base.TrailingData
	base.NoInterleave

	entries      []entry
	locals       []int // sorted local header offsets
	directory    int   // absolute offset of the central directory
	directoryEnd int
	firstName    int
	firstExtra   int
}

var (
	_ engine.FileType  = (*File)(nil)
	_ engine.Segmented = (*File)(nil)
)

func Identify(data []byte) bool {
	return bytes.HasPrefix(data, localSig)
}

// Open parses the central directory and checks the archive with a ZIP reader.
func Open(data []byte) (engine.FileType, error) {
	if !Identify(data) {
		return nil, fmt.Errorf("missing local file header signature")
	}

	f, err := parse(data)
	if err != nil {
		return nil, err
	}

	if _, err := kzip.NewReader(bytes.NewReader(data), int64(len(data))); err != nil {
		return nil, fmt.Errorf("failed to read zip archive: %w", err)
	}

	return f, nil
}

func Recognizer() engine.Recognizer {
	return base.NewRecognizer(Code, Description, Identify, Open)
}

func parse(data []byte) (*File, error) {
	end := findDirectoryEnd(data)
	if end < 0 {
		return nil, fmt.Errorf("end of central directory not found")
	}

	rec := data[end:]
	count := int(binary.LittleEndian.Uint16(rec[10:12]))
	size := int64(binary.LittleEndian.Uint32(rec[12:16]))
	offset := int64(binary.LittleEndian.Uint32(rec[16:20]))
	if count == 0xFFFF || size == math.MaxUint32 || offset == math.MaxUint32 {
		return nil, fmt.Errorf("zip64 archives are not supported")
	}

	baseOffset := int64(end) - size - offset
	if baseOffset < 0 {
		return nil, fmt.Errorf("central directory offset 0x%X out of bounds", offset)
	}
	directory := int(baseOffset + offset)

	f := &File{
		Handle:       base.NewHandle(Code, Description, data),
		directory:    directory,
		directoryEnd: end,
	}

	cursor := directory
	for i := 0; i < count; i++ {
		if cursor+centralHeaderLen > end || !bytes.Equal(data[cursor:cursor+4], centralSig) {
			return nil, fmt.Errorf("central directory record %d at 0x%X is invalid", i, cursor)
		}
		h := data[cursor:]
		nameLen := int(binary.LittleEndian.Uint16(h[28:30]))
		extraLen := int(binary.LittleEndian.Uint16(h[30:32]))
		commentLen := int(binary.LittleEndian.Uint16(h[32:34]))
		local := int(baseOffset) + int(binary.LittleEndian.Uint32(h[42:46]))
		if local+localHeaderLen > directory || !bytes.Equal(data[local:local+4], localSig) {
			return nil, fmt.Errorf("local header of entry %d at 0x%X is invalid", i, local)
		}

		f.entries = append(f.entries, entry{central: cursor, localOffset: local})
		cursor += centralHeaderLen + nameLen + extraLen + commentLen
	}

	f.locals = make([]int, 0, len(f.entries))
	for _, e := range f.entries {
		if !slices.Contains(f.locals, e.localOffset) {
			f.locals = append(f.locals, e.localOffset)
		}
	}
	slices.Sort(f.locals)

	if len(f.locals) > 0 && f.locals[0] == 0 {
		f.firstName = int(binary.LittleEndian.Uint16(data[26:28]))
		f.firstExtra = int(binary.LittleEndian.Uint16(data[28:30]))
	}

	return f, nil
}

// findDirectoryEnd scans backwards for the end of central directory record whose
// comment fits in the file.
func findDirectoryEnd(data []byte) int {
	lowest := max(0, len(data)-directoryEndLen-maxCommentLen)
	for i := len(data) - directoryEndLen; i >= lowest; i-- {
		if !bytes.Equal(data[i:i+4], endSig) {
			continue
		}
		commentLen := int(binary.LittleEndian.Uint16(data[i+20 : i+22]))
		if i+directoryEndLen+commentLen <= len(data) {
			return i
		}
	}
	return -1
}

// hostable reports whether the archive starts with a local header whose extra
// field can grow.
func (f *File) hostable() bool {
	return len(f.locals) > 0 && f.locals[0] == 0
}

func (f *File) parasiteOffset() int {
	return localHeaderLen + f.firstName + f.firstExtra + extraRecordHeader
}

func (f *File) Capabilities() engine.Capabilities {
	caps := engine.Capabilities{
		StartOffset: startOffsetAnywhere,
		Append:      true,
	}
	if f.hostable() {
		caps.Parasite = true
		caps.ParasiteOffset = f.parasiteOffset()
		caps.ParasiteCapacity = maxExtraLen - f.firstExtra - extraRecordHeader
	}
	return caps
}

func (f *File) ComputeCut() (int, bool) {
	if !f.hostable() {
		return 0, false
	}
	return f.parasiteOffset(), true
}

// EmbedParasite appends an extra field record holding the guest to the first local
// header and relocates every following entry and the central directory.
func (f *File) EmbedParasite(other engine.FileType) ([]byte, engine.Ledger, bool) {
	if !f.hostable() {
		return nil, nil, false
	}
	offset := f.parasiteOffset()
	hosted := engine.HostedBytes(offset, other)
	if len(hosted) == 0 || f.firstExtra+extraRecordHeader+len(hosted) > maxExtraLen {
		return nil, nil, false
	}

	data := f.Data()
	delta := extraRecordHeader + len(hosted)

	segments := f.Segments()
	positions := make([]int, len(segments))
	for i := range f.locals {
		positions[i] = f.locals[i]
		if i > 0 {
			positions[i] += delta
		}
	}
	positions[len(positions)-1] = f.directory + delta

	relocated, err := f.Relocate(positions)
	if err != nil {
		return nil, nil, false
	}

	headerEnd := offset - extraRecordHeader
	header := slices.Clone(data[:headerEnd])
	binary.LittleEndian.PutUint16(header[28:30], uint16(f.firstExtra+delta))
	record := make([]byte, extraRecordHeader)
	binary.LittleEndian.PutUint16(record[0:2], parasiteExtraID)
	binary.LittleEndian.PutUint16(record[2:4], uint16(len(hosted)))

	parts := [][]byte{header, record, hosted, relocated[0][headerEnd:]}
	parts = append(parts, relocated[1:]...)
	return engine.Splice(parts...), engine.Ledger{offset, offset + len(hosted)}, true
}

// Segments returns one piece per local entry followed by the central directory and
// its end record. An entry's piece runs up to the next entry, and the first piece
// also carries any bytes before the first local header.
func (f *File) Segments() [][]byte {
	data := f.Data()
	segments := make([][]byte, 0, len(f.locals)+1)
	for i, start := range f.locals {
		if i == 0 {
			start = 0
		}
		end := f.directory
		if i+1 < len(f.locals) {
			end = f.locals[i+1]
		}
		segments = append(segments, data[start:end])
	}
	return append(segments, data[f.directory:])
}

// Relocate rewrites the local header offsets in the central directory and the
// directory offset in its end record.
func (f *File) Relocate(positions []int) ([][]byte, error) {
	segments := f.Segments()
	if len(positions) != len(segments) {
		return nil, fmt.Errorf("expected %d positions, got %d", len(segments), len(positions))
	}
	for _, p := range positions {
		if p < 0 || uint64(p) >= math.MaxUint32 {
			return nil, fmt.Errorf("position 0x%X does not fit a 32-bit offset", p)
		}
	}

	tail := slices.Clone(segments[len(segments)-1])
	for _, e := range f.entries {
		idx := slices.Index(f.locals, e.localOffset)
		local := positions[idx]
		if idx == 0 {
			local += f.locals[0]
		}
		at := e.central - f.directory + 42
		binary.LittleEndian.PutUint32(tail[at:at+4], uint32(local))
	}
	at := f.directoryEnd - f.directory + 16
	binary.LittleEndian.PutUint32(tail[at:at+4], uint32(positions[len(positions)-1]))

	out := make([][]byte, len(segments))
	copy(out, segments[:len(segments)-1])
	out[len(out)-1] = tail
	return out, nil
}
