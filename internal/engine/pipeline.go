package engine

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"
)

// TechniqueEntry holds a technique with its ID for ordered execution.
type TechniqueEntry struct {
	ID        string
	Technique Technique
}

// Pipeline runs an ordered list of techniques against a pair of inputs.
type Pipeline struct {
	name        string
	concurrency int
	techniques  []TechniqueEntry
}

// NewPipeline creates a pipeline. A concurrency above 1 evaluates techniques in
// parallel; outcomes are always returned in insertion order.
func NewPipeline(name string, concurrency int) *Pipeline {
	return &Pipeline{
		name:        name,
		concurrency: concurrency,
		techniques:  nil,
	}
}

func (p *Pipeline) Name() string {
	return p.name
}

func (p *Pipeline) AddTechnique(id string, technique Technique) error {
	if slices.ContainsFunc(p.techniques, func(entry TechniqueEntry) bool { return entry.ID == id }) {
		return fmt.Errorf("technique %s already exists", id)
	}

	p.techniques = append(p.techniques, TechniqueEntry{ID: id, Technique: technique})
	return nil
}

func (p *Pipeline) Techniques() []TechniqueEntry {
	return p.techniques
}

// Run applies every technique to pair. Each technique writes into its own outcome
// slot, so no synchronisation is needed beyond the group wait.
func (p *Pipeline) Run(ctx context.Context, pair Pair) ([]Outcome, error) {
	outcomes := make([]Outcome, len(p.techniques))

	if p.concurrency <= 1 {
		for i, entry := range p.techniques {
			// Check context cancellation before each technique
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("context cancelled while running pipeline at technique '%s': %w", entry.ID, err)
			}
			outcomes[i] = entry.Technique.Apply(ctx, pair)
		}
		return outcomes, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, entry := range p.techniques {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("context cancelled while running pipeline at technique '%s': %w", entry.ID, err)
			}
			outcomes[i] = entry.Technique.Apply(gctx, pair)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return outcomes, nil
}
