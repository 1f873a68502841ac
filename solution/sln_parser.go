package solution

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/willibrandon/gosln/errs"
	"github.com/willibrandon/gosln/observability"
)

var (
	formatVersionRegex = regexp.MustCompile(`^Microsoft Visual Studio Solution File, Format Version (\S+)`)
	vsVersionRegex     = regexp.MustCompile(`^VisualStudioVersion\s*=\s*(\S+)`)
	minVSVersionRegex  = regexp.MustCompile(`^MinimumVisualStudioVersion\s*=\s*(\S+)`)

	// Project("{TYPE}") = "Name", "Path", "{GUID}"
	projectRegex = regexp.MustCompile(
		`(?i)^Project\(\s*"([^"]*)"\s*\)\s*=\s*"([^"]*)"\s*,\s*"([^"]*)"\s*,\s*"([^"]*)"`,
	)

	// GlobalSection(Name) = preSolution
	globalSectionRegex = regexp.MustCompile(`(?i)^GlobalSection\(\s*([^)]*?)\s*\)`)

	// ProjectSection(SolutionItems) = preProject
	projectSectionRegex = regexp.MustCompile(`(?i)^ProjectSection\(\s*([^)]*?)\s*\)`)
)

const utf8BOM = "\uFEFF"

// SlnParser parses text-based .sln files
type SlnParser struct{}

// NewSlnParser creates a new .sln file parser
func NewSlnParser() *SlnParser {
	return &SlnParser{}
}

// CanParse checks if this parser supports the given file
func (p *SlnParser) CanParse(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".sln"
}

// Parse reads and parses a .sln file.
// A wrong extension is a format error and a missing file is a not-found error;
// content problems never fail the parse.
func (p *SlnParser) Parse(path string) (sol *Solution, err error) {
	defer func() {
		observability.SolutionParseTotal.WithLabelValues(observability.ResultLabel(err)).Inc()
	}()

	if !p.CanParse(path) {
		return nil, &ParseError{FilePath: path, Message: "not a .sln file"}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errs.FromOS("solution.load", path, err)
	}
	defer func() { _ = file.Close() }()

	sol, err = Parse(file)
	if err != nil {
		return nil, err
	}

	absPath, absErr := filepath.Abs(path)
	if absErr != nil {
		absPath = path
	}
	sol.FilePath = absPath
	sol.SolutionDir = filepath.Dir(absPath)

	return sol, nil
}

// Load parses the .sln file at path
func Load(path string) (*Solution, error) {
	return NewSlnParser().Parse(path)
}

// LoadContext is Load wrapped in a "solution.load" span
func LoadContext(ctx context.Context, path string) (*Solution, error) {
	_, span := observability.StartSolutionLoadSpan(ctx, path)
	sol, err := Load(path)
	observability.EndSpanWithError(span, err)
	return sol, err
}

// ParseString parses solution text
func ParseString(text string) (*Solution, error) {
	return Parse(strings.NewReader(text))
}

// pendingConfig is a ProjectConfigurationPlatforms line waiting for its project
type pendingConfig struct {
	guid  string
	key   string
	value string
}

// Parse reads solution text from r.
// Recognition is independent of line order: configuration lines may precede the
// project they refer to. Unknown sections and stray lines are ignored.
func Parse(r io.Reader) (*Solution, error) {
	sol := &Solution{
		Nesting: make(map[string]string),
	}

	var (
		current       *Project // open Project(...) block for a real project
		currentFolder *Folder  // open Project(...) block for a solution folder
		inGlobal      bool
		section       string // active GlobalSection name, lower-cased
		projSection   string // active ProjectSection name, lower-cased
		configs       []pendingConfig
	)

	closeBlock := func() {
		if current != nil {
			sol.Projects = append(sol.Projects, current)
			current = nil
		}
		if currentFolder != nil {
			sol.Folders = append(sol.Folders, currentFolder)
			currentFolder = nil
		}
		projSection = ""
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	first := true

	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, utf8BOM)
			first = false
		}
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if matches := projectRegex.FindStringSubmatch(trimmed); matches != nil {
			// A missing EndProject is tolerated: a new block closes the previous one.
			closeBlock()
			typeGUID := normalizeGUID(matches[1])
			guid := normalizeGUID(matches[4])
			if typeGUID == ProjectTypeSolutionFolder {
				currentFolder = &Folder{Name: matches[2], GUID: guid}
			} else {
				current = &Project{
					Name:             matches[2],
					Path:             NormalizePath(matches[3]),
					GUID:             guid,
					TypeGUID:         typeGUID,
					ConfigurationMap: NewConfigurationMap(),
				}
			}
			continue
		}

		switch {
		case strings.EqualFold(trimmed, "EndProject"):
			closeBlock()
			continue
		case strings.EqualFold(trimmed, "EndProjectSection"):
			projSection = ""
			continue
		case strings.EqualFold(trimmed, "Global"):
			closeBlock()
			inGlobal = true
			continue
		case strings.EqualFold(trimmed, "EndGlobal"):
			inGlobal = false
			section = ""
			continue
		case strings.EqualFold(trimmed, "EndGlobalSection"):
			section = ""
			continue
		}

		if current != nil || currentFolder != nil {
			if matches := projectSectionRegex.FindStringSubmatch(trimmed); matches != nil {
				projSection = strings.ToLower(matches[1])
				continue
			}
			if projSection == "solutionitems" && currentFolder != nil {
				if item, _, _ := strings.Cut(trimmed, "="); strings.TrimSpace(item) != "" {
					currentFolder.Files = append(currentFolder.Files, NormalizePath(strings.TrimSpace(item)))
				}
			}
			continue
		}

		if !inGlobal {
			if matches := formatVersionRegex.FindStringSubmatch(trimmed); matches != nil {
				sol.FormatVersion = matches[1]
			} else if matches := vsVersionRegex.FindStringSubmatch(trimmed); matches != nil {
				sol.VisualStudioVersion = matches[1]
			} else if matches := minVSVersionRegex.FindStringSubmatch(trimmed); matches != nil {
				sol.MinimumVisualStudioVersion = matches[1]
			}
			continue
		}

		if matches := globalSectionRegex.FindStringSubmatch(trimmed); matches != nil {
			section = strings.ToLower(matches[1])
			continue
		}

		key, value, ok := strings.Cut(trimmed, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch section {
		case "nestedprojects":
			child, parent := normalizeGUID(key), normalizeGUID(value)
			if child != "" && parent != "" {
				sol.Nesting[child] = parent
			}
		case "solutionconfigurationplatforms":
			sol.AddConfiguration(ParseConfiguration(key))
		case "projectconfigurationplatforms":
			guid, suffix, found := strings.Cut(key, ".")
			if found && suffix != "" {
				configs = append(configs, pendingConfig{guid: normalizeGUID(guid), key: suffix, value: value})
			}
		case "solutionproperties":
			sol.Properties = append(sol.Properties, Property{Key: key, Value: value})
		case "extensibilityglobals":
			if strings.EqualFold(key, "SolutionGuid") {
				sol.SolutionGUID = normalizeGUID(value)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, errs.IO("solution.parse", "", err)
	}
	closeBlock()

	for _, c := range configs {
		// Lines for unknown projects are discarded.
		if p := sol.GetProjectByGUID(c.guid); p != nil {
			p.ConfigurationMap.Set(c.key, c.value)
		}
	}

	sol.BuildHierarchy()
	return sol, nil
}
