package engine

// Capabilities declares which combination techniques a format can take part in.
type Capabilities struct {
	// StartOffset is the highest offset at which the format's own structure may begin.
	// Zero means the format must start at offset 0 and cannot follow other content.
	StartOffset int

	// Append reports whether arbitrary data may follow the format (through WrapAppend).
	Append bool

	// Parasite reports whether the format can host another file at ParasiteOffset.
	Parasite         bool
	ParasiteOffset   int
	ParasiteCapacity int

	// Zipper reports whether the format can interleave its chunks with another format.
	Zipper bool

	// LeadingCavity is the number of ignorable bytes tolerated at the front. Zero means none.
	LeadingCavity int
}

// FileType is a format recognized against one input buffer.
//
// Implementations are immutable: every operation returns a new buffer and never
// modifies the bytes returned by Data.
type FileType interface {
	Code() string
	Description() string
	Data() []byte
	Capabilities() Capabilities

	// WrapAppend returns the bytes making payload legal when appended after Data.
	// WrapAppend(nil) returns only the fixed wrapper bytes.
	WrapAppend(payload []byte) []byte

	// EmbedParasite hosts other inside the receiver at ParasiteOffset.
	// ok is false when the layout is structurally infeasible.
	EmbedParasite(other FileType) (data []byte, ledger Ledger, ok bool)

	// Interleave builds a chunk-interleaved buffer of the receiver and other.
	Interleave(other FileType) (data []byte, ledger Ledger, ok bool)

	// ComputeCut returns the length of the leading header region preceding the
	// parasite area, the largest prefix that could be shared with another format.
	ComputeCut() (int, bool)
}

// Segmented is implemented by formats that can be split into pieces placed at
// arbitrary positions, with internal offsets rewritten for the new layout.
type Segmented interface {
	FileType

	// Segments returns the pieces in file order.
	Segments() [][]byte

	// Relocate returns the pieces rewritten for the given absolute positions.
	// positions has one entry per segment.
	Relocate(positions []int) ([][]byte, error)
}

// OverlapReducer is implemented by formats able to shrink an overlap by donating
// header bytes (typically a length field following the magic) to the guest.
type OverlapReducer interface {
	ReduceOverlap(data []byte, ledger Ledger, overlap []byte, guest []byte) ([]byte, Ledger, []byte, bool)
}

// Recognizer identifies one format and opens handles for it.
type Recognizer interface {
	Code() string
	Description() string
	Identify(data []byte) bool
	Open(data []byte) (FileType, error)
}

// HostedBytes returns the part of guest a host places at offset. Formats with a
// leading cavity are cut so that their own offsets line up with the combined buffer.
func HostedBytes(offset int, guest FileType) []byte {
	data := guest.Data()
	caps := guest.Capabilities()
	if caps.LeadingCavity > 0 && caps.StartOffset == 0 && offset > 0 {
		if offset >= len(data) {
			return nil
		}
		return data[offset:]
	}
	return data
}

// Splice returns a new buffer made of the given parts.
func Splice(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
