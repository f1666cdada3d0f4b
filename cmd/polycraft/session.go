package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// session is the per-invocation state the root command sets up before any
// subcommand runs.
type session struct {
	logger *zap.Logger
	// interactive is true when a person watches stderr outside CI.
	interactive bool
}

type sessionKey struct{}

func newSession(level zapcore.Level, development bool) (*session, error) {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	// stdout carries trace lines and, with the stdout sink, polyglot bytes.
	cfg.OutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &session{
		logger:      logger.Named("polycraft"),
		interactive: os.Getenv("CI") == "" && term.IsTerminal(int(os.Stderr.Fd())),
	}, nil
}

func withSession(ctx context.Context, s *session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func sessionFrom(ctx context.Context) *session {
	s, _ := ctx.Value(sessionKey{}).(*session)
	return s
}

func getLogger(ctx context.Context) *zap.Logger {
	if s := sessionFrom(ctx); s != nil {
		return s.logger
	}
	return zap.NewNop()
}

func isInteractive(ctx context.Context) bool {
	s := sessionFrom(ctx)
	return s != nil && s.interactive
}
