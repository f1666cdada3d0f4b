package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	v1 "github.com/infracollect/polycraft/apis/v1"
	"github.com/infracollect/polycraft/internal/combine"
	"github.com/infracollect/polycraft/internal/engine"
)

var craftCommand = &cli.Command{
	Name:  "craft",
	Usage: "Combine two files into polyglots",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "reverse",
			Aliases: []string{"r"},
			Usage:   "Also try with the files in reverse order",
		},
		&cli.BoolFlag{
			Name:    "split",
			Aliases: []string{"s"},
			Usage:   "Write the two views of every polyglot, the other side replaced by filler",
		},
		&cli.BoolFlag{
			Name:    "force",
			Aliases: []string{"f"},
			Usage:   "Treat an unrecognized second file as a binary blob",
		},
		&cli.BoolFlag{
			Name:    "overlap",
			Aliases: []string{"o"},
			Usage:   "Also craft overlapping polyglots",
		},
		&cli.IntFlag{
			Name:  "pad",
			Usage: "Pad both files with 0x01 bytes to this size in KB",
			Validator: func(v int) error {
				if v < 0 || v > v1.MaxPad {
					return fmt.Errorf("pad must be between 0 and %d KB", v1.MaxPad)
				}
				return nil
			},
		},
		&cli.BoolFlag{
			Name:  "align",
			Usage: "Pad parasite outputs to a multiple of 16 bytes",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Print identification and skipped technique details",
		},
		&cli.StringFlag{
			Name:  "outdir",
			Value: ".",
			Usage: "Directory for the generated files",
		},
		&cli.StringFlag{
			Name:  "splitdir",
			Usage: "Directory for split views (default: --outdir)",
		},
		&cli.BoolFlag{
			Name:  "no-file",
			Usage: "Do not write any file",
		},
		&cli.StringFlag{
			Name:  "precedence",
			Value: string(engine.PrecedenceFirst),
			Usage: "Recognizer that wins when several match (first, last)",
			Action: func(ctx context.Context, command *cli.Command, s string) error {
				_, err := engine.ParsePrecedence(s)
				return err
			},
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Value: 1,
			Usage: "Number of techniques evaluated in parallel",
		},
		&cli.IntFlag{
			Name:  "overlap-threshold",
			Value: combine.DefaultOverlapThreshold,
			Usage: "Longest shared prefix accepted by overlapping polyglots",
		},
	},
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      "file1",
			UsageText: "The first file (the host)",
		},
		&cli.StringArg{
			Name:      "file2",
			UsageText: "The second file",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		file1, file2 := command.StringArg("file1"), command.StringArg("file2")
		if file1 == "" || file2 == "" {
			return fmt.Errorf("two input files are required")
		}

		return runJob(ctx, command, craftJob(command, file1, file2))
	},
}

// craftJob turns the craft flags into a job, so both commands share the runner.
func craftJob(command *cli.Command, file1, file2 string) v1.CraftJob {
	outdir := command.String("outdir")
	persist := !command.Bool("no-file")

	job := v1.CraftJob{
		Kind:     "CraftJob",
		Metadata: v1.Metadata{Name: "craft"},
		Spec: v1.CraftJobSpec{
			Inputs: v1.InputsSpec{File1: file1, File2: file2},
			Options: &v1.OptionsSpec{
				Reverse:          command.Bool("reverse"),
				Split:            command.Bool("split"),
				Force:            command.Bool("force"),
				Overlap:          command.Bool("overlap"),
				Pad:              int(command.Int("pad")),
				Align:            command.Bool("align"),
				Verbose:          command.Bool("verbose"),
				OverlapThreshold: int(command.Int("overlap-threshold")),
				Precedence:       command.String("precedence"),
				Concurrency:      int(command.Int("concurrency")),
			},
			Output: &v1.OutputSpec{
				Sink:    &v1.SinkSpec{Filesystem: &v1.FilesystemSinkSpec{Path: &outdir}},
				Persist: &persist,
			},
		},
	}

	if splitdir := command.String("splitdir"); splitdir != "" {
		job.Spec.Output.Split = &v1.SplitSpec{
			Sink: &v1.SinkSpec{Filesystem: &v1.FilesystemSinkSpec{Path: &splitdir}},
		}
	}

	return job
}
