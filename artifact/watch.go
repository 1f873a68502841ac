package artifact

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultQuietPeriod is how long a watched directory must be idle before re-linking
const DefaultQuietPeriod = 250 * time.Millisecond

// LinkEvent reports one re-link attempt
type LinkEvent struct {
	Artifact  *Artifact
	Linked    *Linked
	Err       error
	Timestamp time.Time
}

// Watcher re-links the newest artifact whenever a candidate directory changes
type Watcher struct {
	locator   *Locator
	fsw       *fsnotify.Watcher
	src       OutputProvider
	opts      Options
	targetDir string
	targetAbs string
	mode      LinkMode
	quiet     time.Duration
	events    chan LinkEvent

	mu      sync.Mutex
	watched []string
}

// NewWatcher watches the provider's existing candidate directories. Subdirectories
// are watched too when opts.IncludeSubfolders is set. The target directory is
// never watched, so links written there do not trigger another re-link.
func (l *Locator) NewWatcher(src OutputProvider, opts Options, targetDir string, mode LinkMode) (*Watcher, error) {
	targetAbs, err := filepath.Abs(targetDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve target directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		locator:   l,
		fsw:       fsw,
		src:       src,
		opts:      opts,
		targetDir: targetDir,
		targetAbs: targetAbs,
		mode:      mode,
		quiet:     DefaultQuietPeriod,
		events:    make(chan LinkEvent, 16),
	}

	for _, dir := range src.CompiledOutputs(opts.Configuration, opts.Platform) {
		w.addTree(dir)
	}
	if len(w.Watched()) == 0 {
		_ = fsw.Close()
		return nil, fmt.Errorf("no output directory to watch: %w", ErrNoCandidateDirectories)
	}
	return w, nil
}

// SetQuietPeriod changes the debounce interval; call before Run
func (w *Watcher) SetQuietPeriod(d time.Duration) {
	if d > 0 {
		w.quiet = d
	}
}

// Watched returns a snapshot of the directories being watched
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.watched...)
}

// Events returns the channel of link results. It is closed when Run returns.
func (w *Watcher) Events() <-chan LinkEvent {
	return w.events
}

// Run links once, then re-links after every burst of binary changes until ctx is done
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)
	defer func() { _ = w.fsw.Close() }()

	w.relink(ctx)

	flushTimer := time.NewTimer(w.quiet)
	flushTimer.Stop()
	pending := 0

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) && w.opts.IncludeSubfolders {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.addTree(event.Name)
					continue
				}
			}
			if !w.relevant(event) {
				continue
			}
			pending++
			flushTimer.Reset(w.quiet)

		case <-flushTimer.C:
			w.locator.logger.Debug("Re-linking after {Count} changes", pending)
			pending = 0
			w.relink(ctx)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.locator.logger.Error("Watcher error: {Error}", err)
		}
	}
}

func (w *Watcher) relink(ctx context.Context) {
	artifact, linked, err := w.locator.FindAndLink(ctx, w.src, w.opts, w.targetDir, w.mode)
	if err != nil {
		w.locator.logger.Warn("Re-link failed: {Error}", err)
	}
	select {
	case w.events <- LinkEvent{Artifact: artifact, Linked: linked, Err: err, Timestamp: time.Now()}:
	case <-ctx.Done():
	}
}

// relevant keeps writes to binaries and symbol files, ignoring pure chmod and the
// links themselves
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod || w.isTarget(filepath.Dir(event.Name)) {
		return false
	}
	opts := w.opts.withDefaults()
	ext := filepath.Ext(event.Name)
	return strings.EqualFold(ext, opts.BinaryExtension) || strings.EqualFold(ext, opts.SymbolExtension)
}

// isTarget reports whether dir is the directory links are written to
func (w *Watcher) isTarget(dir string) bool {
	abs, err := filepath.Abs(dir)
	return err == nil && abs == w.targetAbs
}

func (w *Watcher) addTree(dir string) {
	add := func(path string) {
		if err := w.fsw.Add(path); err != nil {
			w.locator.logger.Warn("Failed to watch {Directory}: {Error}", path, err)
			return
		}
		w.mu.Lock()
		w.watched = append(w.watched, path)
		w.mu.Unlock()
	}

	if !w.opts.IncludeSubfolders {
		if info, err := os.Stat(dir); err == nil && info.IsDir() && !w.isTarget(dir) {
			add(dir)
		}
		return
	}
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if w.isTarget(path) {
			return filepath.SkipDir
		}
		add(path)
		return nil
	})
}
