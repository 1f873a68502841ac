package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/willibrandon/gosln/artifact"
	"github.com/willibrandon/gosln/cmd/gosln/output"
	"github.com/willibrandon/gosln/config"
	"github.com/willibrandon/gosln/project"
	"github.com/willibrandon/gosln/solution"
)

// NewArtifactCommand creates the parent "artifact" command with subcommands
func NewArtifactCommand(console *output.Console) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifact",
		Short: "Locate and link build outputs",
		Long: `Locate the most recently built binary of a project and link it elsewhere.

Settings come from flags, GOSLN_* environment variables, gosln.toml and the
selected --profile, in that order of precedence.`,
		Example: `  # Newest Release binary of the project in the current directory
  gosln artifact find -c Release

  # Newest binary of every project in a solution
  gosln artifact find --solution App.sln

  # Copy the newest plugin build into the host's plugin folder, and keep it fresh
  gosln artifact link ../host/plugins --link-mode copy --exclude "*.Tests.dll" --watch`,
	}

	cmd.PersistentFlags().StringP("project", "P", "", "Path to the project file or its directory")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newArtifactFindCommand(console))
	cmd.AddCommand(newArtifactLinkCommand(console))
	return cmd
}

func locatorOptions(s config.Settings) artifact.Options {
	return artifact.Options{
		Configuration:     s.Configuration,
		Platform:          s.Platform,
		IncludeSubfolders: s.IncludeSubfolders,
		Include:           s.Include,
		Exclude:           s.Exclude,
		BinaryExtension:   s.BinaryExtension,
		SymbolExtension:   s.SymbolExtension,
	}
}

func newArtifactFindCommand(console *output.Console) *cobra.Command {
	var solutionFile string

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Print the newest binary of a project or of every project in a solution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, console)
			if err != nil {
				return err
			}
			defer s.close(cmd.Context())

			locator := artifact.NewLocator(artifact.WithLogger(s.logger))
			opts := locatorOptions(s.settings)

			if solutionFile != "" {
				return findForSolution(cmd.Context(), s, locator, solutionFile, opts)
			}

			proj, err := loadProject(cmd)
			if err != nil {
				return err
			}
			found, report, err := locator.FindNewest(cmd.Context(), proj, opts)
			printReport(console, report)
			if err != nil {
				return err
			}
			printArtifact(console, found)
			return nil
		},
	}

	cmd.Flags().StringVarP(&solutionFile, "solution", "s", "", "Search every project of this solution")
	return cmd
}

func findForSolution(ctx context.Context, s *session, locator *artifact.Locator, path string, opts artifact.Options) error {
	sol, err := solution.OpenContext(ctx, path)
	if err != nil {
		return err
	}
	loaded, err := project.LoadAll(ctx, sol.ProjectPaths(), project.WithLogger(s.logger))
	if err != nil {
		return err
	}
	for _, failure := range loaded.Failures {
		s.console.Warning("%s: %v", failure.Path, failure.Err)
	}

	missing := 0
	for _, proj := range loaded.Projects {
		found, _, err := locator.FindNewest(ctx, proj, opts)
		switch {
		case errors.Is(err, artifact.ErrNoMatch), errors.Is(err, artifact.ErrNoCandidateDirectories):
			missing++
			s.console.Detail("%s: no build output", filepath.Base(proj.Path))
		case err != nil:
			return err
		default:
			s.console.Printf("%s\t%s\n", filepath.Base(proj.Path), found.Path)
		}
	}
	if missing > 0 {
		s.console.Info("%d of %d project(s) have no matching build output", missing, len(loaded.Projects))
	}
	return nil
}

func printArtifact(console *output.Console, a *artifact.Artifact) {
	console.Println(a.Path)
	if a.SymbolPath != "" {
		console.Detail("Symbols:  %s", a.SymbolPath)
	}
	console.Detail("Modified: %s", a.ModTime.Format("2006-01-02 15:04:05"))
	console.Detail("Size:     %d bytes", a.Size)
}

func printReport(console *output.Console, report *artifact.Report) {
	if report == nil {
		return
	}
	for _, dir := range report.Directories {
		console.Debug("candidate %s", dir)
	}
	console.Debug("%d file(s) passed the filters", report.Considered)
	for _, failure := range report.Failures {
		console.Warning("could not read %s: %v", failure.Path, failure.Err)
	}
}

func newArtifactLinkCommand(console *output.Console) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "link <TARGET_DIR>",
		Short: "Link the newest binary and its symbols into a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, console)
			if err != nil {
				return err
			}
			defer s.close(cmd.Context())

			mode, err := artifact.ParseLinkMode(s.settings.LinkMode)
			if err != nil {
				return err
			}
			proj, err := loadProject(cmd)
			if err != nil {
				return err
			}
			locator := artifact.NewLocator(artifact.WithLogger(s.logger))
			opts := locatorOptions(s.settings)

			if watch {
				return watchAndLink(cmd.Context(), console, locator, proj, opts, args[0], mode)
			}

			found, linked, err := locator.FindAndLink(cmd.Context(), proj, opts, args[0], mode)
			if errors.Is(err, artifact.ErrLinkPermission) {
				return fmt.Errorf("%w (try --link-mode copy)", err)
			}
			if err != nil {
				return err
			}
			console.Success("%s -> %s", found.Path, linked.Binary)
			if linked.Symbol != "" {
				console.Detail("%s -> %s", found.SymbolPath, linked.Symbol)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running and re-link after every rebuild")
	return cmd
}

func watchAndLink(ctx context.Context, console *output.Console, locator *artifact.Locator, proj *project.Project, opts artifact.Options, target string, mode artifact.LinkMode) error {
	w, err := locator.NewWatcher(proj, opts, target, mode)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	console.Info("Watching %d director(ies); press Ctrl+C to stop", len(w.Watched()))
	for ev := range w.Events() {
		if ev.Err != nil {
			console.Warning("%v", ev.Err)
			continue
		}
		console.Success("[%s] %s -> %s", ev.Timestamp.Format("15:04:05"), ev.Artifact.Path, ev.Linked.Binary)
	}
	return <-done
}
