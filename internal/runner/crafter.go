package runner

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	v1 "github.com/infracollect/polycraft/apis/v1"
	"github.com/infracollect/polycraft/internal/combine"
	"github.com/infracollect/polycraft/internal/engine"
	"github.com/infracollect/polycraft/internal/formats/blob"
)

const (
	padByte  = 0x01
	kilobyte = 1024
)

// Options configures one crafting run.
type Options struct {
	Reverse bool
	Split   bool
	Force   bool
	Overlap bool

	// Pad is the size in KB both inputs are extended to before identification.
	Pad int

	Align   bool
	Verbose bool
	Persist bool

	OverlapThreshold int
	Precedence       engine.Precedence
	Concurrency      int
}

// Input is one named source buffer.
type Input struct {
	Name string
	Data []byte
}

// Crafter identifies two inputs and runs every combination technique on them.
type Crafter struct {
	logger   *zap.Logger
	registry *engine.Registry
}

func NewCrafter(logger *zap.Logger, registry *engine.Registry) *Crafter {
	return &Crafter{
		logger:   logger,
		registry: registry,
	}
}

// Craft returns the trace and the artifacts of a run. Aborts (unknown or identical
// formats) are reported as a final "ERROR:" line with no artifacts; the returned
// error is reserved for cancellation and invalid options.
func (c *Crafter) Craft(ctx context.Context, in1, in2 Input, opts Options) (engine.Result, error) {
	if opts.Pad < 0 || opts.Pad > v1.MaxPad {
		return engine.Result{}, fmt.Errorf("pad %d KB is outside 0..%d", opts.Pad, v1.MaxPad)
	}
	data1 := pad(in1.Data, opts.Pad)
	data2 := pad(in2.Data, opts.Pad)

	var trace runTrace
	defer func() {
		for _, line := range trace.lines {
			c.logger.Debug(line.Text)
		}
	}()

	ft1, err := c.registry.Identify(data1, opts.Precedence)
	trace.add(true, "%s", in1.Name)
	if err != nil {
		c.logger.Debug("failed to identify file 1", zap.String("name", in1.Name), zap.Error(err))
		trace.add(false, "ERROR: Unknown type file 1 - aborting.")
		return trace.result(opts.Verbose), nil
	}
	trace.add(true, "File 1: %s", ft1.Description())

	ft2, err := c.registry.Identify(data2, opts.Precedence)
	trace.add(true, "%s", in2.Name)
	if err != nil {
		if !opts.Force {
			c.logger.Debug("failed to identify file 2", zap.String("name", in2.Name), zap.Error(err))
			trace.add(false, "ERROR: Unknown type file 2 (try --force) - aborting.")
			return trace.result(opts.Verbose), nil
		}
		ft2 = blob.New(data2)
	}
	trace.add(true, "File 2: %s", ft2.Description())
	trace.add(true, "")

	if ft1.Code() == ft2.Code() {
		c.logger.Debug("inputs share a format", zap.String("code", ft1.Code()), zap.Error(engine.ErrIncompatibleFormats))
		trace.add(false, "ERROR: Same file types - aborting.")
		return trace.result(opts.Verbose), nil
	}

	pipeline, err := c.createPipeline(opts)
	if err != nil {
		return engine.Result{}, err
	}

	pair := engine.Pair{
		First:      ft1,
		Second:     ft2,
		FirstName:  in1.Name,
		SecondName: in2.Name,
	}
	if err := c.runPair(ctx, pipeline, pair, &trace); err != nil {
		return engine.Result{}, err
	}

	if opts.Reverse {
		trace.add(true, "REVERSE: Switching files order")
		trace.add(true, "")
		if err := c.runPair(ctx, pipeline, pair.Swap(), &trace); err != nil {
			return engine.Result{}, err
		}
	}

	result := trace.result(opts.Verbose)
	result.Codes = [2]string{ft1.Code(), ft2.Code()}
	return result, nil
}

func (c *Crafter) createPipeline(opts Options) (*engine.Pipeline, error) {
	pipeline := engine.NewPipeline("craft", opts.Concurrency)
	err := combine.Register(pipeline, combine.Options{
		Align:            opts.Align,
		Overlap:          opts.Overlap,
		OverlapThreshold: opts.OverlapThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}
	return pipeline, nil
}

func (c *Crafter) runPair(ctx context.Context, pipeline *engine.Pipeline, pair engine.Pair, trace *runTrace) error {
	outcomes, err := pipeline.Run(ctx, pair)
	if err != nil {
		return fmt.Errorf("failed to run techniques on %s and %s: %w", pair.FirstName, pair.SecondName, err)
	}

	for i, entry := range pipeline.Techniques() {
		outcome := outcomes[i]
		trace.lines = append(trace.lines, outcome.Lines...)
		trace.artifacts = append(trace.artifacts, outcome.Artifacts...)
		if outcome.Err != nil {
			c.logger.Debug("technique skipped",
				zap.String("technique", entry.ID),
				zap.String("file1", pair.First.Code()),
				zap.String("file2", pair.Second.Code()),
				zap.Error(outcome.Err),
			)
		}
	}
	return nil
}

type runTrace struct {
	lines     []engine.Line
	artifacts []engine.Artifact
}

func (t *runTrace) add(verbose bool, format string, args ...any) {
	t.lines = append(t.lines, engine.Line{Text: fmt.Sprintf(format, args...), Verbose: verbose})
}

func (t *runTrace) result(verbose bool) engine.Result {
	logs := make([]string, 0, len(t.lines))
	for _, line := range t.lines {
		if line.Verbose && !verbose {
			continue
		}
		logs = append(logs, line.Text)
	}
	return engine.Result{
		Logs:      logs,
		Artifacts: t.artifacts,
	}
}

// pad returns data extended with padByte up to size KB. Larger inputs are kept whole.
func pad(data []byte, size int) []byte {
	target := size * kilobyte
	if size <= 0 || len(data) >= target {
		return data
	}
	out := slices.Grow(slices.Clone(data), target-len(data))
	for len(out) < target {
		out = append(out, padByte)
	}
	return out
}
