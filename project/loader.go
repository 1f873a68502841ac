package project

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/willibrandon/gosln/observability"
)

// LoadFailure records a project that could not be loaded
type LoadFailure struct {
	Path string
	Err  error
}

// LoadReport is the result of LoadAll
type LoadReport struct {
	// Projects holds the loaded projects in input order, failures omitted
	Projects []*Project

	// Failures holds one entry per path that failed, in input order
	Failures []LoadFailure
}

// LoadOption configures LoadAll
type LoadOption func(*loadOptions)

type loadOptions struct {
	logger      observability.Logger
	concurrency int
}

// WithLogger sets the logger used by LoadAll
func WithLogger(logger observability.Logger) LoadOption {
	return func(o *loadOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithConcurrency bounds the number of files read at once (defaults to runtime.NumCPU)
func WithConcurrency(n int) LoadOption {
	return func(o *loadOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// LoadAll loads many project files in parallel. Each file is independent; a failure is
// recorded in the report and does not stop the others. Cancelling ctx stops scheduling
// further loads and returns ctx.Err() with the partial report.
func LoadAll(ctx context.Context, paths []string, opts ...LoadOption) (*LoadReport, error) {
	o := loadOptions{logger: observability.NewNullLogger(), concurrency: runtime.NumCPU()}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, span := observability.StartProjectLoadSpan(ctx, len(paths))

	projects := make([]*Project, len(paths))
	failures := make([]error, len(paths))

	g := new(errgroup.Group)
	g.SetLimit(o.concurrency)

	var ctxErr error
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}
		g.Go(func() error {
			start := time.Now()
			proj, err := LoadProject(path)
			observability.ProjectLoadDuration.Observe(time.Since(start).Seconds())
			observability.ProjectLoadTotal.WithLabelValues(observability.ResultLabel(err)).Inc()
			if err != nil {
				o.logger.WarnContext(ctx, "Failed to load project {Path}: {Error}", path, err)
				failures[i] = err
				return nil
			}
			o.logger.DebugContext(ctx, "Loaded project {Path}", path)
			projects[i] = proj
			return nil
		})
	}
	_ = g.Wait()

	report := &LoadReport{}
	for i, path := range paths {
		switch {
		case projects[i] != nil:
			report.Projects = append(report.Projects, projects[i])
		case failures[i] != nil:
			report.Failures = append(report.Failures, LoadFailure{Path: path, Err: failures[i]})
		}
	}

	o.logger.InfoContext(ctx, "Loaded {Loaded} of {Total} projects", len(report.Projects), len(paths))
	observability.EndSpanWithError(span, ctxErr)
	return report, ctxErr
}
