package solution

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/willibrandon/gosln/errs"
	"github.com/willibrandon/gosln/observability"
)

// Parser defines the interface for parsing solution files
type Parser interface {
	// Parse reads and parses a solution file
	Parse(path string) (*Solution, error)

	// CanParse checks if this parser supports the given file
	CanParse(path string) bool
}

// GetParser returns the appropriate parser for a solution file
func GetParser(path string) (Parser, error) {
	if path == "" {
		return nil, errs.Validation("solution.open", "path cannot be empty")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".sln":
		return NewSlnParser(), nil
	case ".slnf":
		return NewSlnfParser(), nil
	default:
		return nil, &ParseError{FilePath: path, Message: "unsupported solution format (supported: .sln, .slnf)"}
	}
}

// Open loads a .sln file, or a .slnf filter applied to its parent solution
func Open(path string) (*Solution, error) {
	parser, err := GetParser(path)
	if err != nil {
		return nil, err
	}
	return parser.Parse(path)
}

// OpenContext is Open wrapped in a "solution.load" span
func OpenContext(ctx context.Context, path string) (*Solution, error) {
	_, span := observability.StartSolutionLoadSpan(ctx, path)
	sol, err := Open(path)
	observability.EndSpanWithError(span, err)
	return sol, err
}
