package artifact

import (
	"fmt"
	"io"

	"github.com/infracollect/polycraft/internal/engine"
)

// Split rebuilds one view per source from a polyglot. Each view keeps the real bytes
// of the spans its source provided and gets filler elsewhere; filler is drawn in
// span order. Overlap bytes replace the start of the second view.
func Split(a engine.Artifact, filler io.Reader) ([2][]byte, error) {
	var views [2][]byte
	if err := a.Ledger.Validate(len(a.Data)); err != nil {
		return views, fmt.Errorf("invalid ledger for %s: %w", a.Stem, err)
	}

	views[0] = make([]byte, 0, len(a.Data))
	views[1] = make([]byte, 0, len(a.Data))
	for _, span := range a.Ledger.Spans(len(a.Data)) {
		owner := int(span.Side)
		views[owner] = append(views[owner], a.Data[span.Start:span.End]...)

		pad := make([]byte, span.End-span.Start)
		if _, err := io.ReadFull(filler, pad); err != nil {
			return views, fmt.Errorf("failed to read filler: %w", err)
		}
		views[1-owner] = append(views[1-owner], pad...)
	}

	copy(views[1], a.Overlap)
	return views, nil
}
