package runner

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/samber/do/v2"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	v1 "github.com/infracollect/polycraft/apis/v1"
	"github.com/infracollect/polycraft/internal/artifact"
	"github.com/infracollect/polycraft/internal/engine"
)

// Runner executes a CraftJob: it reads both inputs, crafts the polyglots and hands
// them to the artifact writer.
type Runner struct {
	logger    *zap.Logger
	job       v1.CraftJob
	opts      Options
	fs        afero.Fs
	crafter   *Crafter
	filler    artifact.FillerSource
	sink      engine.Sink
	splitSink engine.Sink

	// streamTechnique picks the artifact a stream sink carries.
	streamTechnique string
}

// Outcome is what a job run produced.
type Outcome struct {
	Result engine.Result
	Report *artifact.Report
}

var (
	defaultValidator = validator.New(validator.WithRequiredStructEnabled())
)

// ParseCraftJob parses a YAML or JSON job file and validates it against the
// validation tags of v1.CraftJob.
func ParseCraftJob(data []byte) (v1.CraftJob, error) {
	var job v1.CraftJob
	if err := yaml.Unmarshal(data, &job); err != nil {
		return v1.CraftJob{}, fmt.Errorf("failed to unmarshal job data: %w", err)
	}

	if err := defaultValidator.Struct(job); err != nil {
		return v1.CraftJob{}, fmt.Errorf("failed to validate job: %w", err)
	}

	return job, nil
}

type RunnerOption func(*Runner)

// WithFs reads inputs from fs instead of the OS filesystem.
func WithFs(fs afero.Fs) RunnerOption {
	return func(r *Runner) {
		r.fs = fs
	}
}

// WithSinks replaces the sinks built from the job output spec.
func WithSinks(sink, splitSink engine.Sink) RunnerOption {
	return func(r *Runner) {
		r.sink = sink
		r.splitSink = splitSink
	}
}

// New builds a runner for job. Its crafter and filler come from injector.
func New(ctx context.Context, injector do.Injector, job v1.CraftJob, opts ...RunnerOption) (*Runner, error) {
	logger := do.MustInvoke[*zap.Logger](injector).Named("runner")
	logger.Info("creating runner", zap.String("job_name", job.Metadata.Name))

	craftOpts, err := OptionsFromSpec(job.Spec)
	if err != nil {
		return nil, fmt.Errorf("failed to build options: %w", err)
	}

	crafter, err := do.Invoke[*Crafter](injector)
	if err != nil {
		return nil, fmt.Errorf("failed to create crafter: %w", err)
	}

	filler, err := do.Invoke[artifact.FillerSource](injector)
	if err != nil {
		return nil, fmt.Errorf("failed to create filler: %w", err)
	}

	r := &Runner{
		logger:  logger,
		job:     job,
		opts:    craftOpts,
		fs:      afero.NewOsFs(),
		crafter: crafter,
		filler:  filler,
	}
	if out := job.Spec.Output; out != nil && out.Sink != nil && out.Sink.Stdout != nil {
		r.streamTechnique = out.Sink.Stdout.Technique
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.sink == nil && craftOpts.Persist {
		if r.sink, err = buildSink(ctx, job); err != nil {
			return nil, fmt.Errorf("failed to build sink: %w", err)
		}
		if r.splitSink, err = buildSplitSink(ctx, job); err != nil {
			return nil, err
		}
	}

	if craftOpts.Persist && craftOpts.Split && r.sink != nil && r.sink.Kind() == "stream" && r.splitSink == nil {
		return nil, errStreamedSplit
	}

	return r, nil
}

// Options returns the crafter options derived from the job.
func (r *Runner) Options() Options {
	return r.opts
}

func (r *Runner) Run(ctx context.Context) (*Outcome, error) {
	inputs, err := r.readInputs()
	if err != nil {
		return nil, err
	}

	result, err := r.crafter.Craft(ctx, inputs[0], inputs[1], r.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to craft %s and %s: %w", inputs[0].Name, inputs[1].Name, err)
	}

	report, err := r.WriteResults(ctx, inputs, result)
	if err != nil {
		return nil, fmt.Errorf("failed to write results: %w", err)
	}

	return &Outcome{Result: result, Report: report}, nil
}

func (r *Runner) readInputs() ([2]Input, error) {
	var inputs [2]Input
	for i, name := range []string{r.job.Spec.Inputs.File1, r.job.Spec.Inputs.File2} {
		data, err := afero.ReadFile(r.fs, name)
		if err != nil {
			return inputs, fmt.Errorf("failed to read input %s: %w", name, err)
		}
		inputs[i] = Input{Name: name, Data: data}
	}
	return inputs, nil
}

// WriteResults names the artifacts, rebuilds split views when enabled and persists
// them. Without persistence the report lists what would have been written.
func (r *Runner) WriteResults(ctx context.Context, inputs [2]Input, result engine.Result) (*artifact.Report, error) {
	artifacts := result.Artifacts
	var writerOpts []artifact.WriterOption
	if r.opts.Persist && r.sink != nil {
		writerOpts = append(writerOpts, artifact.WithSink(r.sink))
		if r.sink.Kind() == "stream" {
			writerOpts = append(writerOpts, artifact.WithoutManifest())

			var err error
			if artifacts, err = streamedArtifacts(result.Artifacts, r.streamTechnique); err != nil {
				return nil, err
			}
			if skipped := len(result.Artifacts) - len(artifacts); skipped > 0 {
				r.logger.Info("streaming a single artifact",
					zap.String("stem", artifacts[0].Stem),
					zap.Int("skipped", skipped),
				)
			}
		}
	}
	if r.opts.Split {
		splitSink := r.splitSink
		if splitSink == nil && r.opts.Persist {
			splitSink = r.sink
		}
		writerOpts = append(writerOpts, artifact.WithSplit(splitSink))
	}

	writer := artifact.NewWriter(r.logger.Named("writer"), r.filler, writerOpts...)

	manifestInputs := make([]artifact.Input, 0, len(inputs))
	for i, in := range inputs {
		manifestInputs = append(manifestInputs, artifact.Input{
			Name: in.Name,
			Code: result.Codes[i],
			Size: len(in.Data),
		})
	}

	report, err := writer.Write(ctx, manifestInputs, artifacts)
	if err != nil {
		return nil, err
	}

	// Close the sinks if needed
	for _, sink := range []engine.Sink{r.splitSink, r.sink} {
		if sink == nil || !r.opts.Persist {
			continue
		}
		if err := sink.Close(ctx); err != nil {
			return nil, fmt.Errorf("failed to close sink %s: %w", sink.Name(), err)
		}
	}

	return report, nil
}

// techniqueTags maps the technique names of job files to artifact tags.
var techniqueTags = map[string]string{
	"stack":           engine.TagStack,
	"parasite":        engine.TagParasite,
	"zipper":          engine.TagZipper,
	"cavity":          engine.TagCavity,
	"overlap":         engine.TagOverlap,
	"reverse-overlap": engine.TagReverseOverlap,
}

// streamedArtifacts narrows artifacts to the one a stream sink carries: the first
// made by technique, or the first crafted when technique is empty.
func streamedArtifacts(artifacts []engine.Artifact, technique string) ([]engine.Artifact, error) {
	if len(artifacts) == 0 {
		return nil, nil
	}
	if technique == "" {
		return artifacts[:1], nil
	}

	tag, ok := techniqueTags[technique]
	if !ok {
		return nil, fmt.Errorf("unknown technique %q", technique)
	}
	found, ok := lo.Find(artifacts, func(a engine.Artifact) bool { return a.Technique == tag })
	if !ok {
		return nil, fmt.Errorf("no %s artifact to stream among the %d crafted", technique, len(artifacts))
	}
	return []engine.Artifact{found}, nil
}
