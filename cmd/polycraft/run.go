package main

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	v1 "github.com/infracollect/polycraft/apis/v1"
	"github.com/infracollect/polycraft/internal/runner"
)

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "Craft polyglots as described by a job file",
	Flags: []cli.Flag{
		allowedEnvFlag,
	},
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      "job",
			UsageText: "The job file to run (- for stdin)",
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

		return runJob(ctx, command, job)
	},
}

// runJob runs job and prints its trace. The trace goes to stderr when artifacts are
// streamed to stdout.
func runJob(ctx context.Context, command *cli.Command, job v1.CraftJob) error {
	logger := getLogger(ctx)

	injector := runner.BuildContainer(logger)
	defer injector.Shutdown()

	r, err := runner.New(ctx, injector, job)
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	outcome, err := r.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to run job: %w", err)
	}

	out := command.Root().Writer
	if streamsArtifacts(job) {
		out = command.Root().ErrWriter
	}
	printOutcome(ctx, out, r.Options(), outcome)
	return nil
}

func streamsArtifacts(job v1.CraftJob) bool {
	return job.Spec.Output != nil && job.Spec.Output.Sink != nil && job.Spec.Output.Sink.Stdout != nil
}

func printOutcome(ctx context.Context, w io.Writer, opts runner.Options, outcome *runner.Outcome) {
	for _, line := range outcome.Result.Logs {
		fmt.Fprintln(w, line)
	}

	if !isInteractive(ctx) {
		return
	}

	verb := "created"
	if !opts.Persist {
		verb = "generated (not written)"
	}
	fmt.Fprintf(w, "%d polyglot file(s) %s", len(outcome.Report.Files), verb)
	if len(outcome.Report.Splits) > 0 {
		fmt.Fprintf(w, ", %d split view(s)", len(outcome.Report.Splits))
	}
	fmt.Fprintln(w)
}
