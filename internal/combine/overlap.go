package combine

import (
	"context"
	"fmt"
	"strings"

	"github.com/infracollect/polycraft/internal/engine"
	"github.com/infracollect/polycraft/internal/formats/blob"
)

const (
	peCodePrefix    = "PE"
	peSignatureLen  = 2
	peHeaderPointer = 0x3C
)

// Overlap hosts the second file minus its first bytes, which are expected to be
// shared with the first file's header. The shared prefix is the first file's cut
// and may not exceed threshold.
func Overlap(threshold int) engine.Technique {
	return engine.TechniqueFunction("overlap", kindTechnique, func(_ context.Context, pair engine.Pair) engine.Outcome {
		return overlap(pair, threshold)
	})
}

func overlap(pair engine.Pair, threshold int) engine.Outcome {
	var out engine.Outcome
	f1, f2 := pair.First, pair.Second

	out.Logf(true, "Overlapping parasite")
	if !f1.Capabilities().Parasite {
		reject(&out, &engine.IneligibleError{
			Technique:  "Overlap",
			Violations: []string{fmt.Sprintf("Parasite not supported by %s.", f1.Code())},
		})
		return out
	}

	cut, ok := f1.ComputeCut()
	if !ok {
		out.Logf(false, "! Error - overlap is undefined for %s", f1.Code())
		out.Skip(structuralFailure("cutting", pair))
		return out
	}
	if cut > threshold {
		reject(&out, &engine.OverlapTooLargeError{Length: cut, Threshold: threshold})
		return out
	}

	guest := f2.Data()
	if cut > len(guest) {
		reject(&out, structuralFailure("overlapping", pair))
		return out
	}

	data, ledger, ok := f1.EmbedParasite(blob.New(guest[cut:]))
	if !ok {
		reject(&out, structuralFailure("hosting", pair))
		return out
	}
	shared := guest[:cut]

	if reducer, ok := f1.(engine.OverlapReducer); ok {
		if d, l, s, ok := reducer.ReduceOverlap(data, ledger, shared, guest); ok {
			out.Logf(true, "%s overlap file: reducing %d byte(s)", f1.Code(), len(shared)-len(s))
			data, ledger, shared = d, l, s
		}
	}

	hit(&out, pair)
	out.Artifacts = append(out.Artifacts, newArtifact(
		engine.TagOverlap,
		fmt.Sprintf("O%s-%s[%s]{%s}", ledgerTag(ledger), f1.Code(), f2.Code(), engine.OverlapHex(shared)),
		pair, false, data, ledger, shared,
	))
	out.Logf(false, "Generic overlapping polyglot file created.")
	return out
}

// ReverseOverlap hosts a PE file whose DOS signature overlaps the first file's
// header. Everything before the host's parasite offset is dropped from the PE, so
// the offset must not pass the PE header pointer.
func ReverseOverlap() engine.Technique {
	return engine.TechniqueFunction("reverse-overlap", kindTechnique, reverseOverlap)
}

func reverseOverlap(_ context.Context, pair engine.Pair) engine.Outcome {
	var out engine.Outcome
	f1, f2 := pair.First, pair.Second

	if !strings.HasPrefix(f2.Code(), peCodePrefix) {
		out.Skip(&engine.IneligibleError{
			Technique:  "ReverseOverlap",
			Violations: []string{fmt.Sprintf("File type 2 (%s) is not a PE.", f2.Code())},
		})
		return out
	}

	out.Logf(true, "PE Reverse overlapping parasite")
	c1 := f1.Capabilities()
	v := violations{technique: "ReverseOverlap"}
	switch {
	case !c1.Parasite:
		v.add("File type 1 (%s) doesn't support parasites.", f1.Code())
	case c1.ParasiteOffset > peHeaderPointer:
		v.add("Parasite offset too far: type (%s) parasite offset (0x%X)", f1.Code(), c1.ParasiteOffset)
	case len(f2.Data()) > c1.ParasiteCapacity:
		v.add("PE file (size:0x%X) can't fit in parasite (max: 0x%X).", len(f2.Data()), c1.ParasiteCapacity)
	}
	if err := v.err(); err != nil {
		reject(&out, err)
		return out
	}

	guest := f2.Data()
	offset := c1.ParasiteOffset
	if offset > len(guest) || len(guest) < peSignatureLen {
		reject(&out, structuralFailure("overlapping", pair))
		return out
	}

	data, ledger, ok := f1.EmbedParasite(blob.New(guest[offset:]))
	if !ok {
		reject(&out, structuralFailure("hosting", pair))
		return out
	}
	shared := guest[:peSignatureLen]

	hit(&out, pair)
	out.Artifacts = append(out.Artifacts, newArtifact(
		engine.TagReverseOverlap,
		fmt.Sprintf("OR%s-%s[%s]{%s}", ledgerTag(ledger), f1.Code(), f2.Code(), engine.OverlapHex(shared)),
		pair, false, data, ledger, shared,
	))
	out.Logf(false, "Specific PE overlapping polyglot file created.")
	return out
}
