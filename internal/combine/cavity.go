package combine

import (
	"context"
	"fmt"

	"github.com/infracollect/polycraft/internal/engine"
)

// Cavity writes the first file over the leading cavity of the second one. The
// second file's bytes past the first file's end continue the buffer.
func Cavity() engine.Technique {
	return engine.TechniqueFunction("cavity", kindTechnique, cavity)
}

func cavity(_ context.Context, pair engine.Pair) engine.Outcome {
	var out engine.Outcome
	f1, f2 := pair.First, pair.Second

	out.Logf(true, "Cavity: %s_%s", f1.Code(), f2.Code())
	if err := CheckCavity(f1, f2); err != nil {
		reject(&out, err)
		return out
	}

	size := f2.Capabilities().LeadingCavity
	swap := len(f1.Data()) + len(f1.WrapAppend(nil))
	if swap > size {
		reject(&out, &engine.IneligibleError{
			Technique:  "Cavity",
			Violations: []string{fmt.Sprintf("File 1 and its wrapper are too big (0x%X). File 2's cavity is only 0x%X.", swap, size)},
		})
		return out
	}
	if swap < size {
		out.Logf(true, "Cavity: 0x%X bytes of File 2's cavity left unused.", size-swap)
	}

	var rest []byte
	if guest := f2.Data(); swap < len(guest) {
		rest = guest[swap:]
	}
	data := engine.Splice(f1.Data(), f1.WrapAppend(rest))

	out.Logf(false, "Cavity: File1 (type %s) into File2 (type %s)", f1.Code(), f2.Code())
	hit(&out, pair)
	out.Artifacts = append(out.Artifacts, newArtifact(
		engine.TagCavity,
		fmt.Sprintf("C(%x)-%s-%s", swap, f1.Code(), f2.Code()),
		pair, true, data, engine.Ledger{swap}, nil,
	))
	return out
}
