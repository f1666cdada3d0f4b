package combine

import (
	"context"
	"fmt"

	"github.com/infracollect/polycraft/internal/engine"
)

// Zipper interleaves the chunks of both files.
func Zipper() engine.Technique {
	return engine.TechniqueFunction("zipper", kindTechnique, zipper)
}

func zipper(_ context.Context, pair engine.Pair) engine.Outcome {
	var out engine.Outcome
	f1, f2 := pair.First, pair.Second

	out.Logf(true, "Zipper: %s^%s", f1.Code(), f2.Code())
	if err := CheckZipper(f1, f2); err != nil {
		reject(&out, err)
		return out
	}

	data, ledger, ok := f1.Interleave(f2)
	if !ok {
		reject(&out, structuralFailure("interleaving", pair))
		return out
	}

	out.Logf(false, "Zipper: interleaving of File1 (type %s) and File2 (type %s)", f1.Code(), f2.Code())
	hit(&out, pair)
	out.Artifacts = append(out.Artifacts, newArtifact(
		engine.TagZipper,
		fmt.Sprintf("Z%s-%s^%s", ledgerTag(ledger), f1.Code(), f2.Code()),
		pair, false, data, ledger, nil,
	))
	return out
}
