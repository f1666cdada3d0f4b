package engine

import (
	"context"
	"fmt"
)

// Pair is an ordered pair of identified inputs. First hosts or precedes Second.
type Pair struct {
	First      FileType
	Second     FileType
	FirstName  string
	SecondName string
}

// Swap returns the pair with both sides exchanged.
func (p Pair) Swap() Pair {
	return Pair{
		First:      p.Second,
		Second:     p.First,
		FirstName:  p.SecondName,
		SecondName: p.FirstName,
	}
}

// Line is a human-readable trace line. Verbose lines are only shown in verbose mode.
type Line struct {
	Text    string
	Verbose bool
}

// Outcome is what one technique produced for one pair. Err carries the reason a
// technique was skipped; it never aborts a run.
type Outcome struct {
	Lines     []Line
	Artifacts []Artifact
	Err       error
}

// Logf appends a line to the outcome.
func (o *Outcome) Logf(verbose bool, format string, args ...any) {
	o.Lines = append(o.Lines, Line{Text: fmt.Sprintf(format, args...), Verbose: verbose})
}

// Skip records the reason the technique produced nothing.
func (o *Outcome) Skip(err error) {
	o.Err = err
}

type Technique interface {
	Named
	Apply(ctx context.Context, pair Pair) Outcome
}

type TechniqueFunc func(ctx context.Context, pair Pair) Outcome

type techniqueFunction struct {
	name string
	kind string
	fn   TechniqueFunc
}

func (t *techniqueFunction) Name() string {
	return t.name
}

func (t *techniqueFunction) Kind() string {
	return t.kind
}

func (t *techniqueFunction) Apply(ctx context.Context, pair Pair) Outcome {
	return t.fn(ctx, pair)
}

func TechniqueFunction(name string, kind string, fn TechniqueFunc) Technique {
	return &techniqueFunction{name: name, kind: kind, fn: fn}
}
