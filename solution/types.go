// Package solution provides the document model for Visual Studio solution files (.sln)
// and solution filters (.slnf).
//
// A Solution is not safe for concurrent mutation. One goroutine owns a model while it
// is being changed; concurrent readers are fine once mutation has stopped.
package solution

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/willibrandon/gosln/errs"
)

// Solution represents a parsed solution file
type Solution struct {
	// FilePath is the absolute path to the solution file (empty for in-memory models)
	FilePath string

	// SolutionDir is the directory containing the solution file
	SolutionDir string

	// FormatVersion is the solution file format version (e.g., "12.00" for VS 2013+)
	FormatVersion string

	// VisualStudioVersion is the Visual Studio version that created the file
	VisualStudioVersion string

	// MinimumVisualStudioVersion is the minimum VS version required
	MinimumVisualStudioVersion string

	// Projects contains all buildable projects (excludes solution folders)
	Projects []*Project

	// Folders contains virtual folders for organizing projects
	Folders []*Folder

	// Nesting maps a child GUID (project or folder) to its parent folder GUID.
	// It is the source of truth for hierarchy; Folder.Projects, Folder.SubFolders and
	// ParentFolderGUID are rebuilt from it by BuildHierarchy.
	Nesting map[string]string

	// Configurations is the ordered, duplicate-free set of solution configurations
	Configurations []Configuration

	// Properties holds the SolutionProperties section in declaration order
	Properties []Property

	// SolutionGUID is the ExtensibilityGlobals SolutionGuid
	SolutionGUID string
}

// Project represents a project entry in a solution
type Project struct {
	// Name is the display name of the project
	Name string

	// Path is the project file path relative to the solution, with forward slashes
	Path string

	// GUID is the unique identifier for this project instance
	GUID string

	// TypeGUID identifies the project type (C#, VB.NET, F#, etc.)
	TypeGUID string

	// ParentFolderGUID is the GUID of the containing folder, derived from Nesting
	ParentFolderGUID string

	// ConfigurationMap holds ProjectConfigurationPlatforms entries keyed by
	// "<Config>|<Platform>.<Suffix>" (e.g., "Debug|AnyCPU.ActiveCfg")
	ConfigurationMap *ConfigurationMap
}

// Folder represents a solution folder
type Folder struct {
	// Name is the display name of the folder
	Name string

	// GUID is the unique identifier for this folder
	GUID string

	// ParentFolderGUID is the GUID of the parent folder, derived from Nesting
	ParentFolderGUID string

	// SubFolders holds the nested folders in solution order
	SubFolders []*Folder

	// Projects holds the projects placed in this folder in solution order
	Projects []*Project

	// Files lists the SolutionItems entries attached to the folder
	Files []string
}

// Configuration is a solution build configuration such as Debug|AnyCPU
type Configuration struct {
	Name     string
	Platform string
}

// String returns the "Name|Platform" form used in solution files
func (c Configuration) String() string {
	if c.Platform == "" {
		return c.Name
	}
	return c.Name + "|" + c.Platform
}

// ParseConfiguration splits "Name|Platform"
func ParseConfiguration(s string) Configuration {
	name, platform, _ := strings.Cut(strings.TrimSpace(s), "|")
	return Configuration{Name: strings.TrimSpace(name), Platform: strings.TrimSpace(platform)}
}

func (c Configuration) equal(o Configuration) bool {
	return strings.EqualFold(c.Name, o.Name) && strings.EqualFold(c.Platform, o.Platform)
}

// Property is a SolutionProperties key/value pair
type Property struct {
	Key   string
	Value string
}

// ParseError represents an error during solution file parsing
type ParseError struct {
	// FilePath is the path to the file being parsed
	FilePath string

	// Line is the line number where the error occurred
	Line int

	// Message describes what went wrong
	Message string
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.FilePath, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

// Is reports ParseError as a format error
func (e *ParseError) Is(target error) bool {
	return target == errs.ErrFormat
}

// ProjectType GUIDs for common project types
const (
	// ProjectTypeCSProject identifies a C# project (classic)
	ProjectTypeCSProject = "{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}"

	// ProjectTypeCSProjectSDK identifies a SDK-style C# project (.NET Core/.NET 5+)
	ProjectTypeCSProjectSDK = "{9A19103F-16F7-4668-BE54-9A1E7A4F7556}"

	// ProjectTypeVBProject identifies a VB.NET project
	ProjectTypeVBProject = "{F184B08F-C81C-45F6-A57F-5ABD9991F28F}"

	// ProjectTypeFSProject identifies an F# project
	ProjectTypeFSProject = "{F2A71F9B-5D33-465A-A702-920D77279786}"

	// ProjectTypeSolutionFolder identifies a solution folder
	ProjectTypeSolutionFolder = "{2150E333-8FDC-42A3-9474-1A3956D46DE8}"
)

// Default configurations seeded by AddProject
var (
	DebugAnyCPU   = Configuration{Name: "Debug", Platform: "AnyCPU"}
	ReleaseAnyCPU = Configuration{Name: "Release", Platform: "AnyCPU"}
)

// Configuration map suffixes
const (
	SuffixActiveCfg = "ActiveCfg"
	SuffixBuild     = "Build.0"
)

// IsNETProject returns true if this is a .NET project type
func (p *Project) IsNETProject() bool {
	switch p.TypeGUID {
	case ProjectTypeCSProject, ProjectTypeCSProjectSDK, ProjectTypeVBProject, ProjectTypeFSProject:
		return true
	}
	return IsProjectFile(p.Path)
}

// GetAbsolutePath returns the absolute path to the project file
func (p *Project) GetAbsolutePath(solutionDir string) string {
	return ResolveProjectPath(solutionDir, p.Path)
}

// ProjectPaths returns the absolute paths of all .NET projects in the solution
func (s *Solution) ProjectPaths() []string {
	paths := make([]string, 0, len(s.Projects))
	for _, project := range s.Projects {
		if project.IsNETProject() {
			paths = append(paths, project.GetAbsolutePath(s.SolutionDir))
		}
	}
	return paths
}

// GetProjectByGUID finds a project by GUID, ignoring case and braces. Returns nil on miss.
func (s *Solution) GetProjectByGUID(guid string) *Project {
	id := normalizeGUID(guid)
	if id == "" {
		return nil
	}
	for _, p := range s.Projects {
		if p.GUID == id {
			return p
		}
	}
	return nil
}

// GetProjectByName finds a project by its name, ignoring case
func (s *Solution) GetProjectByName(name string) *Project {
	for _, p := range s.Projects {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

// GetProjectByPath finds a project by its path (relative to the solution or absolute)
func (s *Solution) GetProjectByPath(path string) *Project {
	searchPath := ResolveProjectPath(s.SolutionDir, path)
	for _, p := range s.Projects {
		if strings.EqualFold(filepath.Clean(p.GetAbsolutePath(s.SolutionDir)), searchPath) {
			return p
		}
	}
	return nil
}

// GetFolderByGUID finds a folder by GUID. Returns nil on miss.
func (s *Solution) GetFolderByGUID(guid string) *Folder {
	id := normalizeGUID(guid)
	if id == "" {
		return nil
	}
	for _, f := range s.Folders {
		if f.GUID == id {
			return f
		}
	}
	return nil
}

// GetFolderByName finds the first folder with the given name, ignoring case
func (s *Solution) GetFolderByName(name string) *Folder {
	for _, f := range s.Folders {
		if strings.EqualFold(f.Name, name) {
			return f
		}
	}
	return nil
}

// GetParentFolder returns the folder containing the project or folder with the given GUID
func (s *Solution) GetParentFolder(guid string) *Folder {
	id := normalizeGUID(guid)
	if p := s.GetProjectByGUID(id); p != nil {
		return s.GetFolderByGUID(p.ParentFolderGUID)
	}
	if f := s.GetFolderByGUID(id); f != nil {
		return s.GetFolderByGUID(f.ParentFolderGUID)
	}
	return nil
}

// GetItemsInFolder returns the direct children of a folder.
// Both slices are empty when the folder does not exist.
func (s *Solution) GetItemsInFolder(folderGUID string) ([]*Folder, []*Project) {
	f := s.GetFolderByGUID(folderGUID)
	if f == nil {
		return nil, nil
	}
	return f.SubFolders, f.Projects
}

// RootFolders returns folders that have no parent
func (s *Solution) RootFolders() []*Folder {
	var roots []*Folder
	for _, f := range s.Folders {
		if f.ParentFolderGUID == "" {
			roots = append(roots, f)
		}
	}
	return roots
}

// RootProjects returns projects that are not placed in any folder
func (s *Solution) RootProjects() []*Project {
	var roots []*Project
	for _, p := range s.Projects {
		if p.ParentFolderGUID == "" {
			roots = append(roots, p)
		}
	}
	return roots
}

// hasGUID reports whether any project or folder already uses id
func (s *Solution) hasGUID(id string) bool {
	return s.GetProjectByGUID(id) != nil || s.GetFolderByGUID(id) != nil
}

// normalizeGUID upper-cases a GUID and ensures it is brace-delimited
func normalizeGUID(guid string) string {
	g := strings.ToUpper(strings.TrimSpace(guid))
	if g == "" {
		return ""
	}
	if !strings.HasPrefix(g, "{") {
		g = "{" + g
	}
	if !strings.HasSuffix(g, "}") {
		g += "}"
	}
	return g
}
