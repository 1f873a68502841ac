// Package artifact locates the most recently built binary of a project and links it,
// together with its debug symbols, into another directory.
package artifact

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/willibrandon/gosln/errs"
	"github.com/willibrandon/gosln/observability"
)

// Default file extensions
const (
	DefaultBinaryExtension = ".dll"
	DefaultSymbolExtension = ".pdb"
)

var (
	// ErrNoCandidateDirectories means the project yielded no output directories to scan
	ErrNoCandidateDirectories = errors.New("no candidate output directories")

	// ErrNoMatch means no file in any candidate directory passed the filters
	ErrNoMatch = errors.New("no matching artifact found")
)

// Options controls which files FindNewest considers
type Options struct {
	Configuration string
	Platform      string

	// IncludeSubfolders scans candidate directories recursively (e.g. bin/Release/net8.0)
	IncludeSubfolders bool

	// Include keeps files whose name matches any pattern; empty means "*<BinaryExtension>"
	Include []string

	// Exclude drops files whose name matches any pattern
	Exclude []string

	BinaryExtension string
	SymbolExtension string
}

// DefaultOptions returns options for .dll/.pdb pairs in subfolders
func DefaultOptions() Options {
	return Options{
		IncludeSubfolders: true,
		BinaryExtension:   DefaultBinaryExtension,
		SymbolExtension:   DefaultSymbolExtension,
	}
}

func (o Options) withDefaults() Options {
	if o.BinaryExtension == "" {
		o.BinaryExtension = DefaultBinaryExtension
	}
	if o.SymbolExtension == "" {
		o.SymbolExtension = DefaultSymbolExtension
	}
	if !strings.HasPrefix(o.BinaryExtension, ".") {
		o.BinaryExtension = "." + o.BinaryExtension
	}
	if !strings.HasPrefix(o.SymbolExtension, ".") {
		o.SymbolExtension = "." + o.SymbolExtension
	}
	if len(o.Include) == 0 {
		o.Include = []string{"*" + o.BinaryExtension}
	}
	return o
}

// Artifact is the selected binary
type Artifact struct {
	Path    string
	ModTime time.Time
	Size    int64

	// SymbolPath is the companion debug-symbol file, empty when there is none
	SymbolPath string
}

// ScanFailure records a directory or file that could not be read
type ScanFailure struct {
	Path string
	Err  error
}

// Report describes what a FindNewest call looked at
type Report struct {
	Directories []string
	Considered  int
	Failures    []ScanFailure
}

// OutputProvider supplies a project's candidate output directories.
// *project.Project satisfies it.
type OutputProvider interface {
	CompiledOutputs(configuration, platform string) []string
}

// Locator finds and links build artifacts
type Locator struct {
	logger observability.Logger
}

// Option configures a Locator
type Option func(*Locator)

// WithLogger sets the Locator's logger
func WithLogger(logger observability.Logger) Option {
	return func(l *Locator) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLocator creates a Locator
func NewLocator(opts ...Option) *Locator {
	l := &Locator{logger: observability.NewNullLogger()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// candidate is a binary that passed the filters
type candidate struct {
	path     string
	modTime  time.Time
	size     int64
	dirIndex int
}

// bag collects results from concurrent directory scans. A file reachable from
// several candidate directories is kept once, under the earliest directory.
type bag struct {
	mu         sync.Mutex
	candidates map[string]candidate
	failures   []ScanFailure
}

func (b *bag) add(c candidate) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.candidates == nil {
		b.candidates = make(map[string]candidate)
	}
	if existing, ok := b.candidates[c.path]; ok && existing.dirIndex <= c.dirIndex {
		return
	}
	b.candidates[c.path] = c
}

func (b *bag) fail(path string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = append(b.failures, ScanFailure{Path: path, Err: err})
}

// FindNewest returns the most recently modified binary among the provider's
// candidate directories for opts.Configuration and opts.Platform.
func (l *Locator) FindNewest(ctx context.Context, src OutputProvider, opts Options) (*Artifact, *Report, error) {
	dirs := src.CompiledOutputs(opts.Configuration, opts.Platform)

	projectPath := ""
	if d, ok := src.(interface{ Dir() string }); ok {
		projectPath = d.Dir()
	}
	ctx, span := observability.StartArtifactScanSpan(ctx, projectPath, opts.Configuration, opts.Platform, len(dirs))
	artifact, report, err := l.FindNewestIn(ctx, dirs, opts)
	observability.EndSpanWithError(span, err)
	return artifact, report, err
}

// FindNewestIn scans dirs concurrently, one task per directory.
//
// The newest modification time wins. Equal times are broken by candidate directory
// order and then by lexical path, so the result does not depend on enumeration order.
// Unreadable directories and files are recorded in the report and skipped; only the
// absence of any match is an error.
func (l *Locator) FindNewestIn(ctx context.Context, dirs []string, opts Options) (*Artifact, *Report, error) {
	const op = "artifact.find"
	report := &Report{Directories: dirs}
	if len(dirs) == 0 {
		return nil, report, &errs.Error{Kind: errs.KindNotFound, Op: op, Err: ErrNoCandidateDirectories}
	}

	opts = opts.withDefaults()
	include, err := compilePatterns(opts.Include)
	if err != nil {
		return nil, report, err
	}
	exclude, err := compilePatterns(opts.Exclude)
	if err != nil {
		return nil, report, err
	}

	results := &bag{}
	var g errgroup.Group
	for i, dir := range dirs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			filter := func(path string, d fs.DirEntry) {
				name := d.Name()
				if !strings.EqualFold(filepath.Ext(name), opts.BinaryExtension) {
					return
				}
				if !matchAny(include, name) || matchAny(exclude, name) {
					return
				}
				info, err := d.Info()
				if err != nil {
					results.fail(path, err)
					return
				}
				results.add(candidate{path: path, modTime: info.ModTime(), size: info.Size(), dirIndex: i})
			}

			err := scanDir(dir, opts.IncludeSubfolders, filter, results.fail)
			observability.ArtifactScanDirsTotal.WithLabelValues(observability.ResultLabel(err)).Inc()
			if err != nil {
				l.logger.WarnContext(ctx, "Failed to scan {Directory}: {Error}", dir, err)
				observability.RecordScanFailure(ctx, dir, err)
				results.fail(dir, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, report, err
	}

	report.Considered = len(results.candidates)
	report.Failures = results.failures
	sort.Slice(report.Failures, func(a, b int) bool { return report.Failures[a].Path < report.Failures[b].Path })
	observability.ArtifactFilesConsidered.Add(float64(report.Considered))

	best, ok := newest(results.candidates)
	if !ok {
		return nil, report, &errs.Error{Kind: errs.KindNotFound, Op: op, Path: strings.Join(dirs, string(os.PathListSeparator)), Err: ErrNoMatch}
	}

	artifact := &Artifact{Path: best.path, ModTime: best.modTime, Size: best.size}
	symbol := strings.TrimSuffix(best.path, filepath.Ext(best.path)) + opts.SymbolExtension
	if info, err := os.Stat(symbol); err == nil && !info.IsDir() {
		artifact.SymbolPath = symbol
	}

	l.logger.DebugContext(ctx, "Selected {Artifact} modified {ModTime}", artifact.Path, artifact.ModTime)
	return artifact, report, nil
}

// newest applies the selection policy
func newest(candidates map[string]candidate) (candidate, bool) {
	var best candidate
	found := false
	for _, c := range candidates {
		switch {
		case !found:
			best, found = c, true
		case c.modTime.After(best.modTime):
			best = c
		case c.modTime.Equal(best.modTime):
			if c.dirIndex < best.dirIndex || (c.dirIndex == best.dirIndex && c.path < best.path) {
				best = c
			}
		}
	}
	return best, found
}

// scanDir calls visit for every regular file in dir. Failures below the top level
// go to fail; a failure to read dir itself is returned.
func scanDir(dir string, recursive bool, visit func(path string, d fs.DirEntry), fail func(path string, err error)) error {
	if !recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if entry.Type().IsRegular() {
				visit(filepath.Join(dir, entry.Name()), entry)
			}
		}
		return nil
	}

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			fail(path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			visit(path, d)
		}
		return nil
	})
}
