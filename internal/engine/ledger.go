package engine

import (
	"fmt"
	"strings"
)

// Ledger lists the offsets where byte provenance flips between the first and the
// second source of a combined buffer. Bytes before the first offset come from the
// first source; the buffer length is the implicit final boundary.
type Ledger []int

// Side identifies which source a span of a combined buffer comes from.
type Side int

const (
	SideFirst Side = iota
	SideSecond
)

// Span is a contiguous range of a combined buffer attributed to one source.
type Span struct {
	Start int
	End   int
	Side  Side
}

// Validate checks that offsets are non-negative, strictly increasing and within length.
func (l Ledger) Validate(length int) error {
	prev := -1
	for i, off := range l {
		if off < 0 {
			return fmt.Errorf("boundary %d is negative (%d)", i, off)
		}
		if off <= prev {
			return fmt.Errorf("boundary %d (0x%X) is not greater than previous (0x%X)", i, off, prev)
		}
		if off > length {
			return fmt.Errorf("boundary %d (0x%X) exceeds buffer length 0x%X", i, off, length)
		}
		prev = off
	}
	return nil
}

// Spans walks the ledger over a buffer of the given length. Empty spans are kept so
// that the side alternation stays aligned with the ledger entries.
func (l Ledger) Spans(length int) []Span {
	spans := make([]Span, 0, len(l)+1)
	start := 0
	side := SideFirst
	for _, end := range l {
		spans = append(spans, Span{Start: start, End: end, Side: side})
		start = end
		side = 1 - side
	}
	spans = append(spans, Span{Start: start, End: length, Side: side})
	return spans
}

// Hex renders the ledger as a hyphenated list of lowercase hex offsets.
func (l Ledger) Hex() string {
	parts := make([]string, len(l))
	for i, off := range l {
		parts[i] = fmt.Sprintf("%x", off)
	}
	return strings.Join(parts, "-")
}
