// Package errs defines the error taxonomy shared by the solution, project, and artifact packages.
//
// Callers distinguish failure classes with errors.Is:
//
//	if errors.Is(err, errs.ErrNotFound) { ... }
package errs

import (
	"errors"
	"fmt"
	"io/fs"
)

// Kind classifies an error.
type Kind int

const (
	// KindNotFound means a source file or path is absent.
	KindNotFound Kind = iota + 1
	// KindFormat means a required extension or minimal shape is missing.
	KindFormat
	// KindValidation means a required argument was missing or invalid.
	KindValidation
	// KindIO means a permission, lock, or other I/O failure.
	KindIO
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindFormat:
		return "format error"
	case KindValidation:
		return "validation error"
	case KindIO:
		return "i/o failure"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching.
var (
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrFormat     = &Error{Kind: KindFormat}
	ErrValidation = &Error{Kind: KindValidation}
	ErrIO         = &Error{Kind: KindIO}
)

// Error is a classified error.
type Error struct {
	Kind Kind   // Failure class
	Op   string // Operation that failed (e.g., "solution.load")
	Path string // File or directory involved, if any
	Msg  string // Human-readable detail
	Err  error  // Underlying cause
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	switch {
	case e.Op != "" && e.Path != "":
		return fmt.Sprintf("%s %s: %s", e.Op, e.Path, msg)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, msg)
	case e.Path != "":
		return fmt.Sprintf("%s: %s", e.Path, msg)
	default:
		return msg
	}
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so sentinels compare by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NotFound creates a KindNotFound error.
func NotFound(op, path, msg string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Path: path, Msg: msg}
}

// Format creates a KindFormat error.
func Format(op, path, msg string) *Error {
	return &Error{Kind: KindFormat, Op: op, Path: path, Msg: msg}
}

// Validation creates a KindValidation error.
func Validation(op, msg string) *Error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg}
}

// IO creates a KindIO error wrapping err.
func IO(op, path string, err error) *Error {
	return &Error{Kind: KindIO, Op: op, Path: path, Err: err}
}

// FromOS classifies an error returned by the os package.
// Missing files become KindNotFound, everything else KindIO.
func FromOS(op, path string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return &Error{Kind: KindNotFound, Op: op, Path: path, Msg: "file not found", Err: err}
	}
	return &Error{Kind: KindIO, Op: op, Path: path, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
