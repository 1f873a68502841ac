package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/willibrandon/gosln/cmd/gosln/output"
	"github.com/willibrandon/gosln/config"
	"github.com/willibrandon/gosln/observability"
	"github.com/willibrandon/gosln/project"
	"github.com/willibrandon/gosln/solution"
)

// session holds what one command invocation resolved from flags, env and gosln.toml
type session struct {
	console  *output.Console
	settings config.Settings
	logger   observability.Logger
	tracer   *sdktrace.TracerProvider
}

func newSession(cmd *cobra.Command, console *output.Console) (*session, error) {
	configFile, _ := cmd.Flags().GetString("config")
	profile, _ := cmd.Flags().GetString("profile")

	cfg, err := config.Load(cmd.Flags(), configFile)
	if err != nil {
		return nil, err
	}
	settings, err := cfg.Profile(profile)
	if err != nil {
		return nil, err
	}

	verbosity := output.ParseVerbosity(settings.Verbosity)
	console.SetVerbosity(verbosity)

	// Library info lines duplicate console output at normal verbosity
	logger := observability.NewDefaultLogger()
	if verbosity != output.VerbosityNormal {
		logger = observability.NewLogger(os.Stderr, observability.ParseLogLevel(settings.Verbosity))
	}
	s := &session{
		console:  console,
		settings: settings,
		logger:   logger,
	}

	if exporter := strings.ToLower(settings.Trace); exporter != "" && exporter != "none" {
		tc := observability.DefaultTracerConfig()
		tc.ExporterType = exporter
		tp, err := observability.SetupTracing(cmd.Context(), tc)
		if err != nil {
			return nil, fmt.Errorf("failed to set up tracing: %w", err)
		}
		s.tracer = tp
	}
	return s, nil
}

func (s *session) close(ctx context.Context) {
	if s.tracer != nil {
		if err := observability.ShutdownTracing(ctx, s.tracer); err != nil {
			s.console.Warning("failed to flush traces: %v", err)
		}
	}
}

// solutionPath returns the --solution flag or the single solution in the working directory
func solutionPath(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("solution"); path != "" {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return solution.NewDetector(cwd).Resolve()
}

// projectPath returns the --project flag or the single project in the working directory.
// A directory given to --project is searched the same way.
func projectPath(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Flags().GetString("project")
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		path = cwd
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return project.FindProjectFile(path)
	}
	return filepath.Abs(path)
}

func loadProject(cmd *cobra.Command) (*project.Project, error) {
	path, err := projectPath(cmd)
	if err != nil {
		return nil, err
	}
	return project.LoadProject(path)
}
