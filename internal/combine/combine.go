// Package combine implements the combination techniques. Each technique is an
// engine.Technique that checks its eligibility gate against the pair's
// capabilities and returns its trace lines and artifacts as an engine.Outcome.
package combine

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/infracollect/polycraft/internal/engine"
)

const (
	kindTechnique = "technique"

	// DefaultOverlapThreshold is the longest shared prefix Overlap accepts.
	DefaultOverlapThreshold = 6
)

// Options tunes the techniques registered by Register.
type Options struct {
	// Align pads parasite outputs to a multiple of 16 bytes.
	Align bool

	// Overlap enables ReverseOverlap and Overlap.
	Overlap bool

	// OverlapThreshold overrides DefaultOverlapThreshold when positive.
	OverlapThreshold int
}

// Register adds the techniques to p in dispatch order: Stack, Parasite, Zipper,
// Cavity, then ReverseOverlap and Overlap when enabled.
func Register(p *engine.Pipeline, opts Options) error {
	threshold := opts.OverlapThreshold
	if threshold <= 0 {
		threshold = DefaultOverlapThreshold
	}

	entries := []engine.TechniqueEntry{
		{ID: "stack", Technique: Stack()},
		{ID: "parasite", Technique: Parasite(opts.Align)},
		{ID: "zipper", Technique: Zipper()},
		{ID: "cavity", Technique: Cavity()},
	}
	if opts.Overlap {
		entries = append(entries,
			engine.TechniqueEntry{ID: "reverse-overlap", Technique: ReverseOverlap()},
			engine.TechniqueEntry{ID: "overlap", Technique: Overlap(threshold)},
		)
	}

	for _, entry := range entries {
		if err := p.AddTechnique(entry.ID, entry.Technique); err != nil {
			return fmt.Errorf("failed to register technique %s: %w", entry.ID, err)
		}
	}
	return nil
}

// Extension returns the extension of name without its dot, or the lowercase format
// code when name has none.
func Extension(name, code string) string {
	if ext := strings.TrimPrefix(filepath.Ext(name), "."); ext != "" {
		return ext
	}
	return strings.ToLower(code)
}

// newArtifact builds an artifact for pair. Stack and Cavity name the second file's
// extension first.
func newArtifact(tag, stem string, pair engine.Pair, secondFirst bool, data []byte, ledger engine.Ledger, overlap []byte) engine.Artifact {
	ext1 := Extension(pair.FirstName, pair.First.Code())
	ext2 := Extension(pair.SecondName, pair.Second.Code())

	names := [2]string{ext1, ext2}
	if secondFirst {
		names = [2]string{ext2, ext1}
	}

	return engine.Artifact{
		Technique:      tag,
		Stem:           stem,
		Extensions:     names,
		SideExtensions: [2]string{ext1, ext2},
		Data:           data,
		Ledger:         ledger,
		Overlap:        overlap,
	}
}

// ledgerTag renders a ledger for artifact stems, empty when there is no boundary.
func ledgerTag(l engine.Ledger) string {
	if len(l) == 0 {
		return ""
	}
	return "(" + l.Hex() + ")"
}

func hit(out *engine.Outcome, pair engine.Pair) {
	codes := []string{pair.First.Code(), pair.Second.Code()}
	slices.Sort(codes)
	out.Logf(true, "HIT %s", strings.Join(codes, ";"))
}

// reject logs why a technique was skipped and records the reason.
func reject(out *engine.Outcome, err error) {
	var ineligible *engine.IneligibleError
	if errors.As(err, &ineligible) {
		for _, v := range ineligible.Violations {
			out.Logf(true, "! %s", v)
		}
	} else {
		out.Logf(true, "! %s", err)
	}
	out.Skip(err)
}

func structuralFailure(operation string, pair engine.Pair) error {
	return fmt.Errorf("%w: %s of File 2 (type %s) by File 1 (type %s) failed",
		engine.ErrStructuralFailure, operation, pair.Second.Code(), pair.First.Code())
}
