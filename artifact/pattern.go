package artifact

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/willibrandon/gosln/errs"
)

// Pattern is a case-insensitive file name wildcard. Only * (any run of characters)
// and ? (one character) are special; the whole name must match.
type Pattern struct {
	raw string
	g   glob.Glob
}

// CompilePattern compiles a wildcard pattern
func CompilePattern(pattern string) (*Pattern, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, errs.Validation("artifact.pattern", "pattern must not be empty")
	}

	var b strings.Builder
	var literal strings.Builder
	flush := func() {
		if literal.Len() > 0 {
			b.WriteString(glob.QuoteMeta(literal.String()))
			literal.Reset()
		}
	}
	for _, r := range strings.ToLower(pattern) {
		switch r {
		case '*', '?':
			flush()
			b.WriteRune(r)
		default:
			literal.WriteRune(r)
		}
	}
	flush()

	g, err := glob.Compile(b.String())
	if err != nil {
		return nil, errs.Validation("artifact.pattern", fmt.Sprintf("invalid pattern %q: %v", pattern, err))
	}
	return &Pattern{raw: pattern, g: g}, nil
}

// MustCompilePattern is like CompilePattern but panics on error
func MustCompilePattern(pattern string) *Pattern {
	p, err := CompilePattern(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether name matches the whole pattern, ignoring case
func (p *Pattern) Match(name string) bool {
	return p.g.Match(strings.ToLower(name))
}

// String returns the pattern as written
func (p *Pattern) String() string {
	return p.raw
}

// compilePatterns compiles a list, failing on the first invalid entry
func compilePatterns(patterns []string) ([]*Pattern, error) {
	compiled := make([]*Pattern, 0, len(patterns))
	for _, raw := range patterns {
		p, err := CompilePattern(raw)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, p)
	}
	return compiled, nil
}

func matchAny(patterns []*Pattern, name string) bool {
	for _, p := range patterns {
		if p.Match(name) {
			return true
		}
	}
	return false
}
