package combine

import (
	"context"
	"fmt"

	"github.com/infracollect/polycraft/internal/engine"
)

// Stack appends the second file after the first one, through the first format's
// append wrapper.
func Stack() engine.Technique {
	return engine.TechniqueFunction("stack", kindTechnique, stack)
}

func stack(_ context.Context, pair engine.Pair) engine.Outcome {
	var out engine.Outcome
	f1, f2 := pair.First, pair.Second

	out.Logf(true, "Stack: %s-%s", f1.Code(), f2.Code())
	if err := CheckStack(f1, f2); err != nil {
		reject(&out, err)
		return out
	}

	swap := len(f1.Data()) + len(f1.WrapAppend(nil))
	data := engine.Splice(f1.Data(), f1.WrapAppend(f2.Data()))

	out.Logf(false, "Stack: concatenation of File1 (type %s) and File2 (type %s)", f1.Code(), f2.Code())
	hit(&out, pair)
	out.Artifacts = append(out.Artifacts, newArtifact(
		engine.TagStack,
		fmt.Sprintf("S(%x)-%s-%s", swap, f1.Code(), f2.Code()),
		pair, true, data, engine.Ledger{swap}, nil,
	))
	return out
}
