package engine

import (
	"fmt"
	"strings"
)

// Technique tags used in artifact names.
const (
	TagStack          = "S"
	TagParasite       = "P"
	TagZipper         = "Z"
	TagCavity         = "C"
	TagOverlap        = "O"
	TagReverseOverlap = "OR"
)

// Artifact is one polyglot produced by a combination technique.
type Artifact struct {
	Technique string
	Stem      string

	// Extensions are the file extensions in naming order.
	Extensions [2]string

	// SideExtensions are the extensions of the sources providing the first and the
	// second side of the ledger.
	SideExtensions [2]string

	Data    []byte
	Ledger  Ledger
	Overlap []byte
}

// Result is the outcome of one combination run.
type Result struct {
	Logs      []string
	Artifacts []Artifact

	// Codes are the format codes identified for file1 and file2, empty when a run
	// aborted before identifying them.
	Codes [2]string
}

// OverlapHex renders overlap bytes as uppercase hex.
func OverlapHex(overlap []byte) string {
	var sb strings.Builder
	for _, b := range overlap {
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}
