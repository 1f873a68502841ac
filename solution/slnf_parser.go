package solution

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/willibrandon/gosln/errs"
)

// Filter is a parsed .slnf solution filter
type Filter struct {
	// FilePath is the absolute path to the filter file
	FilePath string

	// SolutionPath is the absolute path to the parent .sln file
	SolutionPath string

	// Projects lists the project paths to include, relative to the parent solution
	Projects []string
}

// slnfDocument represents the JSON structure of a .slnf file
type slnfDocument struct {
	Solution struct {
		Path     string   `json:"path"`
		Projects []string `json:"projects"`
	} `json:"solution"`
}

// LoadFilter reads a .slnf file. Comments and trailing commas are tolerated.
func LoadFilter(path string) (*Filter, error) {
	const op = "solution.load-filter"
	if strings.ToLower(filepath.Ext(path)) != ".slnf" {
		return nil, &ParseError{FilePath: path, Message: "not a .slnf file"}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.FromOS(op, path, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	var doc slnfDocument
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return nil, &ParseError{FilePath: absPath, Message: fmt.Sprintf("failed to parse JSON: %v", err)}
	}
	if doc.Solution.Path == "" {
		return nil, &ParseError{FilePath: absPath, Message: "missing solution path in filter file"}
	}

	filter := &Filter{
		FilePath:     absPath,
		SolutionPath: ResolveProjectPath(filepath.Dir(absPath), doc.Solution.Path),
	}
	for _, p := range doc.Solution.Projects {
		filter.Projects = append(filter.Projects, NormalizePath(p))
	}
	return filter, nil
}

// Includes reports whether the project path (relative to the parent solution) is listed
func (f *Filter) Includes(projectPath string) bool {
	normalized := NormalizePath(projectPath)
	for _, p := range f.Projects {
		if strings.EqualFold(p, normalized) {
			return true
		}
	}
	return false
}

// Apply loads the parent solution and restricts it to the filtered projects.
// Folders are kept; nesting entries of dropped projects are removed.
func (f *Filter) Apply() (*Solution, error) {
	parent, err := Load(f.SolutionPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load parent solution of %s: %w", f.FilePath, err)
	}

	kept := parent.Projects[:0]
	for _, p := range parent.Projects {
		if f.Includes(p.Path) {
			kept = append(kept, p)
			continue
		}
		delete(parent.Nesting, p.GUID)
	}
	parent.Projects = kept
	parent.BuildHierarchy()

	return parent, nil
}

// SlnfParser parses JSON-based .slnf solution filter files
type SlnfParser struct{}

// NewSlnfParser creates a new .slnf file parser
func NewSlnfParser() *SlnfParser {
	return &SlnfParser{}
}

// CanParse checks if this parser supports the given file
func (p *SlnfParser) CanParse(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".slnf"
}

// Parse reads a .slnf file and returns the filtered parent solution
func (p *SlnfParser) Parse(path string) (*Solution, error) {
	filter, err := LoadFilter(path)
	if err != nil {
		return nil, err
	}
	return filter.Apply()
}
