package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	v1 "github.com/infracollect/polycraft/apis/v1"
	"github.com/infracollect/polycraft/internal/runner"
)

const stdinJobName = "-"

// readJobFile reads a job file, or stdin when filename is "-". The second value is
// the name to show in messages.
func readJobFile(ctx context.Context, filename string) ([]byte, string, error) {
	if filename == stdinJobName {
		getLogger(ctx).Debug("reading job from stdin")
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, "<stdin>", nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, "", err
	}
	return data, filename, nil
}

// loadJob reads, validates and expands a job file.
func loadJob(ctx context.Context, filename string, allowedEnv []string) (v1.CraftJob, error) {
	logger := getLogger(ctx).With(zap.String("job_filename", filename))

	data, display, err := readJobFile(ctx, filename)
	if err != nil {
		return v1.CraftJob{}, fmt.Errorf("failed to read job file '%s': %w", filename, err)
	}

	logger.Debug("parsing job file")
	job, err := runner.ParseCraftJob(data)
	if err != nil {
		return v1.CraftJob{}, fmt.Errorf("job file '%s' is invalid: %w", display, formatValidationError(err))
	}

	variables, err := runner.BuildVariables(job, allowedEnv)
	if err != nil {
		return v1.CraftJob{}, fmt.Errorf("failed to build variables: %w", err)
	}

	if err := runner.ExpandTemplates(&job, variables); err != nil {
		return v1.CraftJob{}, fmt.Errorf("failed to expand templates: %w", err)
	}

	return job, nil
}
