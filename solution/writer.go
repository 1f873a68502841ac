package solution

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/willibrandon/gosln/errs"
)

const newline = "\r\n"

// Serialize regenerates the full solution text from the model.
//
// Sections are written in a fixed order: header, projects, folders, then the Global
// block (SolutionConfigurationPlatforms, ProjectConfigurationPlatforms,
// SolutionProperties, NestedProjects, ExtensibilityGlobals). Comments and sections
// the model does not track are not reproduced. A SolutionGUID is generated when the
// model has none.
func (s *Solution) Serialize() string {
	var sb strings.Builder
	_, _ = s.WriteTo(&sb)
	return sb.String()
}

// WriteTo writes the serialized solution to w
func (s *Solution) WriteTo(w io.Writer) (int64, error) {
	bw := &countingWriter{w: bufio.NewWriter(w)}
	line := func(indent int, format string, args ...any) {
		bw.writeString(strings.Repeat("\t", indent))
		bw.writeString(fmt.Sprintf(format, args...))
		bw.writeString(newline)
	}

	formatVersion := s.FormatVersion
	if formatVersion == "" {
		formatVersion = "12.00"
	}
	line(0, "")
	line(0, "Microsoft Visual Studio Solution File, Format Version %s", formatVersion)
	if s.VisualStudioVersion != "" {
		major, _, _ := strings.Cut(s.VisualStudioVersion, ".")
		line(0, "# Visual Studio Version %s", major)
		line(0, "VisualStudioVersion = %s", s.VisualStudioVersion)
	}
	if s.MinimumVisualStudioVersion != "" {
		line(0, "MinimumVisualStudioVersion = %s", s.MinimumVisualStudioVersion)
	}

	for _, p := range s.Projects {
		line(0, `Project("%s") = "%s", "%s", "%s"`, p.TypeGUID, p.Name, ToSolutionPath(p.Path), p.GUID)
		line(0, "EndProject")
	}
	for _, f := range s.Folders {
		line(0, `Project("%s") = "%s", "%s", "%s"`, ProjectTypeSolutionFolder, f.Name, f.Name, f.GUID)
		if len(f.Files) > 0 {
			line(1, "ProjectSection(SolutionItems) = preProject")
			for _, item := range f.Files {
				item = ToSolutionPath(item)
				line(2, "%s = %s", item, item)
			}
			line(1, "EndProjectSection")
		}
		line(0, "EndProject")
	}

	line(0, "Global")

	line(1, "GlobalSection(SolutionConfigurationPlatforms) = preSolution")
	for _, c := range s.Configurations {
		line(2, "%s = %s", c, c)
	}
	line(1, "EndGlobalSection")

	line(1, "GlobalSection(ProjectConfigurationPlatforms) = postSolution")
	for _, p := range s.Projects {
		if p.ConfigurationMap == nil {
			continue
		}
		for _, key := range p.ConfigurationMap.Keys() {
			value, _ := p.ConfigurationMap.Get(key)
			line(2, "%s.%s = %s", p.GUID, key, value)
		}
	}
	line(1, "EndGlobalSection")

	line(1, "GlobalSection(SolutionProperties) = preSolution")
	props := s.Properties
	if len(props) == 0 {
		props = []Property{{Key: "HideSolutionNode", Value: "FALSE"}}
	}
	for _, prop := range props {
		line(2, "%s = %s", prop.Key, prop.Value)
	}
	line(1, "EndGlobalSection")

	if edges := s.nestingEdges(); len(edges) > 0 {
		line(1, "GlobalSection(NestedProjects) = preSolution")
		for _, e := range edges {
			line(2, "%s = %s", e.Key, e.Value)
		}
		line(1, "EndGlobalSection")
	}

	if s.SolutionGUID == "" {
		s.SolutionGUID = NewGUID()
	}
	line(1, "GlobalSection(ExtensibilityGlobals) = postSolution")
	line(2, "SolutionGuid = %s", s.SolutionGUID)
	line(1, "EndGlobalSection")

	line(0, "EndGlobal")

	return bw.finish()
}

// nestingEdges returns the resolvable Nesting entries in solution order
// (folders first, then projects). Dangling entries are dropped.
func (s *Solution) nestingEdges() []Property {
	var edges []Property
	for _, f := range s.Folders {
		if f.ParentFolderGUID != "" {
			edges = append(edges, Property{Key: f.GUID, Value: f.ParentFolderGUID})
		}
	}
	for _, p := range s.Projects {
		if p.ParentFolderGUID != "" {
			edges = append(edges, Property{Key: p.GUID, Value: p.ParentFolderGUID})
		}
	}
	return edges
}

// Save writes the solution to path, or to FilePath when path is empty.
// Parent directories are created as needed and the file starts with a UTF-8 BOM
// the way Visual Studio writes it.
func (s *Solution) Save(path string) error {
	const op = "solution.save"
	if path == "" {
		path = s.FilePath
	}
	if path == "" {
		return errs.Validation(op, "no path given and the solution has no file path")
	}
	if !NewSlnParser().CanParse(path) {
		return errs.Format(op, path, "solution files must have the .sln extension")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.FromOS(op, path, err)
	}

	file, err := os.Create(path)
	if err != nil {
		return errs.FromOS(op, path, err)
	}

	_, werr := io.WriteString(file, utf8BOM)
	if werr == nil {
		_, werr = s.WriteTo(file)
	}
	if cerr := file.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return errs.IO(op, path, werr)
	}

	s.FilePath = path
	s.SolutionDir = dirOf(path)
	return nil
}

type countingWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (c *countingWriter) writeString(str string) {
	if c.err != nil {
		return
	}
	n, err := c.w.WriteString(str)
	c.n += int64(n)
	c.err = err
}

func (c *countingWriter) finish() (int64, error) {
	if c.err == nil {
		c.err = c.w.Flush()
	}
	return c.n, c.err
}
