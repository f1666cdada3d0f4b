package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/lo"

	v1 "github.com/infracollect/polycraft/apis/v1"
	"github.com/infracollect/polycraft/internal/engine"
	"github.com/infracollect/polycraft/internal/engine/bundle"
	"github.com/infracollect/polycraft/internal/engine/sinks"
)

// buildSink creates the artifact sink from the job spec.
//
// Default behavior:
//   - No output spec: filesystem sink in the working directory
//   - No sink specified: filesystem sink in the working directory
//   - Explicit stdout sink: stream sink (a single artifact)
//   - Explicit filesystem or S3 sink: that sink
//
// If archive is configured, the inner sink receives a single bundle instead.
func buildSink(ctx context.Context, job v1.CraftJob) (engine.Sink, error) {
	var spec *v1.SinkSpec
	if job.Spec.Output != nil {
		spec = job.Spec.Output.Sink
	}

	sink, err := buildInnerSink(ctx, spec)
	if err != nil {
		return nil, err
	}

	if job.Spec.Output != nil && job.Spec.Output.Archive != nil {
		if sink.Kind() == "stream" {
			return nil, fmt.Errorf("stdout sink cannot be used with archive configuration")
		}
		return wrapWithArchiveSink(job, sink)
	}

	return sink, nil
}

// buildSplitSink returns the sink for split views, or nil to reuse the artifact sink.
func buildSplitSink(ctx context.Context, job v1.CraftJob) (engine.Sink, error) {
	if job.Spec.Output == nil || job.Spec.Output.Split == nil || job.Spec.Output.Split.Sink == nil {
		return nil, nil
	}
	sink, err := buildInnerSink(ctx, job.Spec.Output.Split.Sink)
	if err != nil {
		return nil, fmt.Errorf("failed to build split sink: %w", err)
	}
	return sink, nil
}

// buildInnerSink creates the underlying sink (stdout, filesystem, or S3).
func buildInnerSink(ctx context.Context, spec *v1.SinkSpec) (engine.Sink, error) {
	resolved, err := ResolveSinkSpec(spec)
	if err != nil {
		return nil, err
	}

	switch s := resolved.Spec.(type) {
	case *v1.StdoutSinkSpec:
		return sinks.NewStreamSink(os.Stdout), nil
	case *v1.FilesystemSinkSpec:
		return buildFilesystemSink(s)
	case *v1.S3SinkSpec:
		return buildS3Sink(ctx, s)
	default:
		return nil, fmt.Errorf("invalid sink configuration: unsupported sink kind %s", resolved.Kind)
	}
}

func wrapWithArchiveSink(job v1.CraftJob, inner engine.Sink) (engine.Sink, error) {
	archive := job.Spec.Output.Archive

	bundler, err := bundle.New(archive.Format, archive.Compression)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}

	name := archive.Name
	if name == "" {
		name = job.Metadata.Name
	}
	return sinks.NewBundleSink(inner, bundler, name), nil
}

// buildFilesystemSink roots the sink at Path/Prefix, with Path defaulting to
// the working directory.
func buildFilesystemSink(spec *v1.FilesystemSinkSpec) (engine.Sink, error) {
	var dir, prefix string
	if spec != nil {
		dir, prefix = lo.FromPtr(spec.Path), lo.FromPtr(spec.Prefix)
	}
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve output directory: %w", err)
		}
		dir = wd
	}

	sink, err := sinks.NewFilesystemSinkFromPath(filepath.Join(dir, prefix))
	if err != nil {
		return nil, err
	}
	return sink, nil
}

func buildS3Sink(ctx context.Context, spec *v1.S3SinkSpec) (engine.Sink, error) {
	cfg := sinks.S3Config{
		Bucket:         spec.Bucket,
		Region:         lo.FromPtr(spec.Region),
		Endpoint:       lo.FromPtr(spec.Endpoint),
		Prefix:         lo.FromPtr(spec.Prefix),
		ForcePathStyle: spec.ForcePathStyle,
	}
	if creds := spec.Credentials; creds != nil {
		cfg.AccessKeyID, cfg.SecretAccessKey = creds.AccessKeyID, creds.SecretAccessKey
	}

	sink, err := sinks.NewS3Sink(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build s3 sink for bucket %s: %w", spec.Bucket, err)
	}
	return sink, nil
}

// errStreamedSplit rejects split views that would follow an artifact onto stdout.
var errStreamedSplit = errors.New("split views need a split sink when artifacts are streamed to stdout")

// OptionsFromSpec converts job options to crafter options. Persistence defaults to on.
func OptionsFromSpec(spec v1.CraftJobSpec) (Options, error) {
	opts := Options{Persist: true}
	if spec.Output != nil && spec.Output.Persist != nil {
		opts.Persist = *spec.Output.Persist
	}

	o := spec.Options
	if o == nil {
		return opts, nil
	}

	precedence, err := engine.ParsePrecedence(o.Precedence)
	if err != nil {
		return Options{}, err
	}

	opts.Reverse = o.Reverse
	opts.Split = o.Split
	opts.Force = o.Force
	opts.Overlap = o.Overlap
	opts.Pad = o.Pad
	opts.Align = o.Align
	opts.Verbose = o.Verbose
	opts.OverlapThreshold = o.OverlapThreshold
	opts.Precedence = precedence
	opts.Concurrency = o.Concurrency

	if opts.Persist && opts.Split && streamsArtifacts(spec.Output) && !hasSplitSink(spec.Output) {
		return Options{}, errStreamedSplit
	}
	return opts, nil
}

func streamsArtifacts(out *v1.OutputSpec) bool {
	return out != nil && out.Sink != nil && out.Sink.Stdout != nil
}

func hasSplitSink(out *v1.OutputSpec) bool {
	return out != nil && out.Split != nil && out.Split.Sink != nil
}

// BuildVariables creates the variables map for expansion.
// It includes built-in variables and reads allowed environment variables.
// If a variable is not set, an error is returned.
func BuildVariables(job v1.CraftJob, allowedEnv []string) (map[string]string, error) {
	date := time.Now().UTC()
	variables := map[string]string{
		"JOB_NAME":         job.Metadata.Name,
		"JOB_DATE_ISO8601": date.Format(engine.TimestampLayout),
		"JOB_DATE_RFC3339": date.Format(time.RFC3339),
	}

	var errs error
	for _, envName := range allowedEnv {
		val, ok := os.LookupEnv(envName)
		if !ok {
			errs = errors.Join(errs, fmt.Errorf("environment variable %q is not set", envName))
			continue
		}
		variables[envName] = val
	}

	if errs != nil {
		return nil, errs
	}

	return variables, nil
}
