package main

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/urfave/cli/v3"
)

// buildInfo is read from debug.ReadBuildInfo at startup.
type buildInfo struct {
	Version   string
	GoVersion string
	Commit    string
	BuildTime string
	Modified  bool
}

var build = readBuildInfo()

func readBuildInfo() buildInfo {
	b := buildInfo{
		Version:   "unknown",
		GoVersion: "unknown",
		Commit:    "unknown",
		BuildTime: "unknown",
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}

	b.Version = info.Main.Version
	b.GoVersion = info.GoVersion

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			b.Commit = setting.Value
		case "vcs.time":
			b.BuildTime = setting.Value
		case "vcs.modified":
			b.Modified = setting.Value == "true"
		}
	}
	return b
}

func (b buildInfo) print(w io.Writer) {
	fmt.Fprintf(w, "version: %s\n", b.Version)
	fmt.Fprintf(w, "go: %s\n", b.GoVersion)
	if b.Commit != "unknown" {
		if b.Modified {
			fmt.Fprintf(w, "commit: %s (dirty)\n", b.Commit)
		} else {
			fmt.Fprintf(w, "commit: %s\n", b.Commit)
		}
	}
	if b.BuildTime != "unknown" {
		fmt.Fprintf(w, "built: %s\n", b.BuildTime)
	}
}

var versionCommand = &cli.Command{
	Name:  "version",
	Usage: "Print version information",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "short",
			Usage: "Print the version only",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		w := command.Root().Writer
		if command.Bool("short") {
			fmt.Fprintln(w, build.Version)
			return nil
		}
		build.print(w)
		return nil
	},
}
