package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/willibrandon/gosln/errs"
	"github.com/willibrandon/gosln/observability"
)

// LinkMode selects how an artifact is placed in the target directory
type LinkMode string

// Link modes
const (
	LinkSymlink LinkMode = "symlink"
	LinkCopy    LinkMode = "copy"
)

// ErrLinkPermission matches link failures caused by insufficient privileges,
// typically symlink creation on Windows without developer mode.
var ErrLinkPermission = errors.New("insufficient permission to link artifact")

// ParseLinkMode parses "symlink" or "copy", ignoring case
func ParseLinkMode(s string) (LinkMode, error) {
	switch LinkMode(strings.ToLower(strings.TrimSpace(s))) {
	case LinkSymlink, "":
		return LinkSymlink, nil
	case LinkCopy:
		return LinkCopy, nil
	default:
		return "", errs.Validation("artifact.link", fmt.Sprintf("unknown link mode %q (want symlink or copy)", s))
	}
}

// LinkError is a failure to place one file
type LinkError struct {
	Source string
	Target string
	Mode   LinkMode
	Err    error
}

// Error implements the error interface
func (e *LinkError) Error() string {
	return fmt.Sprintf("%s %s -> %s: %v", e.Mode, e.Source, e.Target, e.Err)
}

// Unwrap returns the underlying cause
func (e *LinkError) Unwrap() error {
	return e.Err
}

// Is matches ErrLinkPermission for permission failures and errs.ErrIO for everything else
func (e *LinkError) Is(target error) bool {
	if target == ErrLinkPermission {
		return errors.Is(e.Err, fs.ErrPermission)
	}
	if t, ok := target.(*errs.Error); ok {
		return t.Kind == errs.KindIO && !errors.Is(e.Err, fs.ErrPermission)
	}
	return false
}

// Linked describes the files placed by Link
type Linked struct {
	Binary string
	Symbol string
}

// Link places the artifact and its symbol file, if any, into targetDir.
// An existing file or link with the same name is replaced.
func (l *Locator) Link(artifact *Artifact, targetDir string, mode LinkMode) (linked *Linked, err error) {
	defer func() {
		observability.ArtifactLinkTotal.WithLabelValues(string(mode), observability.ResultLabel(err)).Inc()
	}()

	if artifact == nil || artifact.Path == "" {
		return nil, errs.Validation("artifact.link", "artifact is required")
	}
	if targetDir == "" {
		return nil, errs.Validation("artifact.link", "target directory is required")
	}
	if mode != LinkSymlink && mode != LinkCopy {
		return nil, errs.Validation("artifact.link", fmt.Sprintf("unknown link mode %q", mode))
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, &LinkError{Source: artifact.Path, Target: targetDir, Mode: mode, Err: err}
	}

	linked = &Linked{}
	linked.Binary, err = place(artifact.Path, targetDir, mode)
	if err != nil {
		return nil, err
	}
	if artifact.SymbolPath != "" {
		linked.Symbol, err = place(artifact.SymbolPath, targetDir, mode)
		if err != nil {
			return nil, err
		}
	}

	l.logger.Info("Linked {Source} into {Target} ({Mode})", artifact.Path, targetDir, mode)
	return linked, nil
}

// FindAndLink locates the newest artifact and links it into targetDir
func (l *Locator) FindAndLink(ctx context.Context, src OutputProvider, opts Options, targetDir string, mode LinkMode) (*Artifact, *Linked, error) {
	artifact, _, err := l.FindNewest(ctx, src, opts)
	if err != nil {
		return nil, nil, err
	}
	linked, err := l.Link(artifact, targetDir, mode)
	if err != nil {
		return artifact, nil, err
	}
	return artifact, linked, nil
}

func place(source, targetDir string, mode LinkMode) (string, error) {
	target := filepath.Join(targetDir, filepath.Base(source))
	fail := func(err error) (string, error) {
		return "", &LinkError{Source: source, Target: target, Mode: mode, Err: err}
	}

	abs, err := filepath.Abs(source)
	if err != nil {
		return fail(err)
	}
	// Already in place: the target directory is inside a scanned output tree
	if absTarget, err := filepath.Abs(target); err == nil && absTarget == abs {
		return target, nil
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fail(err)
	}

	switch mode {
	case LinkSymlink:
		if err := os.Symlink(abs, target); err != nil {
			return fail(err)
		}
	case LinkCopy:
		if err := copyFile(abs, target); err != nil {
			return fail(err)
		}
	}
	return target, nil
}

// copyFile copies contents, permission bits and modification time
func copyFile(source, target string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(target, info.ModTime(), info.ModTime())
}
