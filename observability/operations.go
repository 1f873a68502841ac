package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the tracer name for gosln operations
const TracerName = "github.com/willibrandon/gosln"

// Common attribute keys
const (
	AttrSolutionPath  = attribute.Key("gosln.solution.path")
	AttrProjectPath   = attribute.Key("gosln.project.path")
	AttrConfiguration = attribute.Key("gosln.configuration")
	AttrPlatform      = attribute.Key("gosln.platform")
	AttrOperation     = attribute.Key("gosln.operation")
)

// StartSolutionLoadSpan starts a span for loading a solution file
func StartSolutionLoadSpan(ctx context.Context, path string) (context.Context, trace.Span) {
	return StartSpan(ctx, "solution.load",
		trace.WithAttributes(
			AttrSolutionPath.String(path),
			AttrOperation.String("load"),
		),
	)
}

// StartProjectLoadSpan starts a span for loading a batch of project files
func StartProjectLoadSpan(ctx context.Context, projectCount int) (context.Context, trace.Span) {
	return StartSpan(ctx, "project.load",
		trace.WithAttributes(
			attribute.Int("project.count", projectCount),
			AttrOperation.String("load"),
		),
	)
}

// StartArtifactScanSpan starts a span for locating the newest build artifact
func StartArtifactScanSpan(ctx context.Context, projectPath, configuration, platform string, dirCount int) (context.Context, trace.Span) {
	return StartSpan(ctx, "artifact.find",
		trace.WithAttributes(
			AttrProjectPath.String(projectPath),
			AttrConfiguration.String(configuration),
			AttrPlatform.String(platform),
			attribute.Int("artifact.candidate_dirs", dirCount),
			AttrOperation.String("find"),
		),
	)
}

// RecordScanFailure records a per-directory scan failure on the current span
func RecordScanFailure(ctx context.Context, dir string, err error) {
	trace.SpanFromContext(ctx).AddEvent("scan.failure",
		trace.WithAttributes(
			attribute.String("dir", dir),
			attribute.String("error", err.Error()),
		),
	)
}

// EndSpanWithError ends a span with an error status
func EndSpanWithError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
