package combine

import (
	"context"
	"fmt"
	"slices"

	"github.com/infracollect/polycraft/internal/engine"
)

const (
	blockSize      = 16
	minAlignFiller = 17
	maxAlignFiller = 31
)

// Parasite hosts the second file inside the first one. With align, the output is
// padded to a multiple of 16 bytes.
func Parasite(align bool) engine.Technique {
	return engine.TechniqueFunction("parasite", kindTechnique, func(_ context.Context, pair engine.Pair) engine.Outcome {
		return parasite(pair, align)
	})
}

func parasite(pair engine.Pair, align bool) engine.Outcome {
	var out engine.Outcome
	f1, f2 := pair.First, pair.Second

	out.Logf(true, "Parasite: %s[%s]", f1.Code(), f2.Code())
	if err := CheckParasite(f1, f2); err != nil {
		reject(&out, err)
		return out
	}

	data, ledger, ok := f1.EmbedParasite(f2)
	if !ok {
		reject(&out, structuralFailure("hosting", pair))
		return out
	}
	if align && len(data)%blockSize != 0 {
		data, ledger = alignBlocks(&out, pair, data, ledger)
	}

	out.Logf(false, "Parasite: hosting of File2 (type %s) in File1 (type %s)", f2.Code(), f1.Code())
	hit(&out, pair)
	out.Artifacts = append(out.Artifacts, newArtifact(
		engine.TagParasite,
		fmt.Sprintf("P%s-%s[%s]", ledgerTag(ledger), f1.Code(), f2.Code()),
		pair, false, data, ledger, nil,
	))
	return out
}

// alignBlocks appends filler through the side contributing fixed wrapper bytes
// (the second file when both do) until the length is block aligned. Filler hosted
// by the second file opens a new span in the ledger.
func alignBlocks(out *engine.Outcome, pair engine.Pair, data []byte, ledger engine.Ledger) ([]byte, engine.Ledger) {
	host, second := pair.First, false
	if len(pair.Second.WrapAppend(nil)) != 0 {
		host, second = pair.Second, true
	}

	for size := minAlignFiller; size <= maxAlignFiller; size++ {
		aligned := engine.Splice(data, host.WrapAppend(make([]byte, size)))
		if len(aligned)%blockSize != 0 {
			continue
		}

		if second && (len(ledger) == 0 || len(data) > ledger[len(ledger)-1]) {
			ledger = append(slices.Clone(ledger), len(data))
		}
		out.Logf(true, "Parasite: aligned with 0x%X filler bytes from %s.", size, host.Code())
		return aligned, ledger
	}

	out.Logf(true, "! No filler size between %d and %d aligns the output of %s.", minAlignFiller, maxAlignFiller, host.Code())
	return data, ledger
}
