package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/urfave/cli/v3"

	"github.com/infracollect/polycraft/internal/engine"
	"github.com/infracollect/polycraft/internal/runner"
)

var allowedEnvFlag = &cli.StringSliceFlag{
	Name:  "allowed-env",
	Usage: "Environment variables allowed in job configuration (can be repeated)",
}

var validateCommand = &cli.Command{
	Name:  "validate",
	Usage: "Validate a job file",
	Flags: []cli.Flag{
		allowedEnvFlag,
	},
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      "job",
			UsageText: "The job file to validate (- for stdin)",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		jobFilename := command.StringArg("job")
		if jobFilename == "" {
			return fmt.Errorf("no job file provided")
		}

		job, err := loadJob(ctx, jobFilename, command.StringSlice("allowed-env"))
		if err != nil {
			return err
		}

		if _, err := runner.OptionsFromSpec(job.Spec); err != nil {
			return fmt.Errorf("job file '%s' has invalid options: %w", jobFilename, err)
		}
		if job.Spec.Output != nil {
			if _, err := runner.ResolveSinkSpec(job.Spec.Output.Sink); err != nil {
				return fmt.Errorf("job file '%s' has an invalid sink: %w", jobFilename, err)
			}
		}

		fmt.Fprintf(command.Root().Writer, "✓ Job file '%s' is valid\n", jobFilename)
		return nil
	},
}

// formatValidationError lists every failed rule of a job as one line per field.
func formatValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	lines := make([]string, 0, len(fieldErrs)+1)
	lines = append(lines, fmt.Sprintf("job file has %d validation error(s):", len(fieldErrs)))
	for _, fe := range fieldErrs {
		lines = append(lines, fmt.Sprintf("  • %s %s", fe.Namespace(), describeRule(fe.Tag(), fe.Param())))
	}
	return errors.New(strings.Join(lines, "\n"))
}

func describeRule(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "eq":
		return fmt.Sprintf("must be %q", param)
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "gte":
		return "must be at least " + param
	case "lte":
		return "must be at most " + param
	default:
		if param != "" {
			return fmt.Sprintf("failed %s=%s", tag, param)
		}
		return "failed " + tag
	}
}

// formatsCommand lists the recognizers in identification order.
var formatsCommand = &cli.Command{
	Name:  "formats",
	Usage: "List the supported file formats",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "code",
			Usage: "Show a single format by its code (e.g. PNG)",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		registry, err := runner.BuildRegistry(getLogger(ctx))
		if err != nil {
			return err
		}
		return listFormats(command.Root().Writer, registry, command.String("code"))
	},
}

// listFormats writes the registry in identification order, or only the format
// registered under code when code is set.
func listFormats(w io.Writer, registry *engine.Registry, code string) error {
	if code != "" {
		rec, err := registry.Lookup(strings.ToUpper(code))
		if err != nil {
			return err
		}
		position := slices.Index(registry.Codes(), rec.Code()) + 1
		fmt.Fprintf(w, "%d. %-4s %s\n", position, rec.Code(), rec.Description())
		return nil
	}

	for i, rec := range registry.Recognizers() {
		fmt.Fprintf(w, "%d. %-4s %s\n", i+1, rec.Code(), rec.Description())
	}
	fmt.Fprintf(w, "default precedence: %s match wins\n", engine.PrecedenceFirst)
	return nil
}
