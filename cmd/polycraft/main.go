package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	var sess *session

	return &cli.Command{
		Name:  "polycraft",
		Usage: "Combine two files into polyglots valid in both formats",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable development logging at debug level",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				Validator: func(s string) error {
					if _, err := zapcore.ParseLevel(s); err != nil {
						return fmt.Errorf("invalid log level %s: %w", s, err)
					}
					return nil
				},
			},
		},
		Commands: []*cli.Command{
			craftCommand,
			runCommand,
			validateCommand,
			formatsCommand,
			versionCommand,
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			level, err := zapcore.ParseLevel(command.String("log-level"))
			if err != nil {
				return ctx, err
			}
			debug := command.Bool("debug")
			if debug && !command.IsSet("log-level") {
				level = zapcore.DebugLevel
			}

			sess, err = newSession(level, debug)
			if err != nil {
				return ctx, err
			}
			sess.logger.Debug("session started",
				zap.Stringer("log_level", level),
				zap.Bool("interactive", sess.interactive),
			)
			return withSession(ctx, sess), nil
		},
		After: func(context.Context, *cli.Command) error {
			if sess != nil {
				_ = sess.logger.Sync()
			}
			return nil
		},
		ExitErrHandler: func(ctx context.Context, command *cli.Command, err error) {
			if err == nil {
				return
			}
			if sess != nil {
				sess.logger.Error("polycraft failed", zap.Error(err))
				return
			}
			fmt.Fprintf(os.Stderr, "polycraft: %v\n", err)
		},
	}
}
