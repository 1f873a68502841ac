package solution

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/willibrandon/gosln/errs"
)

// New creates an empty solution model for the given path (which may be empty)
func New(path string) *Solution {
	sol := &Solution{
		FormatVersion:              "12.00",
		VisualStudioVersion:        "17.0.31903.59",
		MinimumVisualStudioVersion: "10.0.40219.1",
		Nesting:                    make(map[string]string),
	}
	if path != "" {
		sol.FilePath = path
		sol.SolutionDir = dirOf(path)
	}
	return sol
}

// NewGUID returns a fresh brace-delimited upper-case GUID
func NewGUID() string {
	return "{" + strings.ToUpper(uuid.NewString()) + "}"
}

// newUniqueGUID returns a GUID not used by any project or folder in s
func (s *Solution) newUniqueGUID() string {
	for {
		id := NewGUID()
		if !s.hasGUID(id) {
			return id
		}
	}
}

// AddConfiguration adds a solution configuration if it is not already declared.
// Returns true if the configuration was added.
func (s *Solution) AddConfiguration(c Configuration) bool {
	if c.Name == "" {
		return false
	}
	for _, existing := range s.Configurations {
		if existing.equal(c) {
			return false
		}
	}
	s.Configurations = append(s.Configurations, c)
	return true
}

// AddProject adds a project to the solution and returns it.
//
// typeGUID defaults to the SDK-style C# type. When parentFolderGUID names an
// existing folder the project is nested under it; an unknown parent is ignored.
// The Debug|AnyCPU and Release|AnyCPU configurations are declared if missing, and the
// project receives ActiveCfg and Build.0 entries for every solution configuration.
func (s *Solution) AddProject(name, relativePath, typeGUID, parentFolderGUID string) (*Project, error) {
	const op = "solution.add-project"
	if strings.TrimSpace(name) == "" {
		return nil, errs.Validation(op, "project name is required")
	}
	if strings.TrimSpace(relativePath) == "" {
		return nil, errs.Validation(op, "project path is required")
	}
	typeGUID = normalizeGUID(typeGUID)
	if typeGUID == "" {
		typeGUID = ProjectTypeCSProjectSDK
	}
	if typeGUID == ProjectTypeSolutionFolder {
		return nil, errs.Validation(op, "use AddFolder to add a solution folder")
	}
	path := NormalizePath(relativePath)
	for _, p := range s.Projects {
		if strings.EqualFold(p.Path, path) {
			return nil, errs.Validation(op, fmt.Sprintf("project %s is already in the solution", path))
		}
	}

	proj := &Project{
		Name:             name,
		Path:             path,
		GUID:             s.newUniqueGUID(),
		TypeGUID:         typeGUID,
		ConfigurationMap: NewConfigurationMap(),
	}
	s.Projects = append(s.Projects, proj)

	s.AddConfiguration(DebugAnyCPU)
	s.AddConfiguration(ReleaseAnyCPU)
	s.seedProjectConfigurations(proj)

	if parent := s.GetFolderByGUID(parentFolderGUID); parent != nil {
		s.attach(proj.GUID, parent)
	}
	return proj, nil
}

// seedProjectConfigurations adds ActiveCfg/Build.0 entries for every solution configuration
func (s *Solution) seedProjectConfigurations(p *Project) {
	if p.ConfigurationMap == nil {
		p.ConfigurationMap = NewConfigurationMap()
	}
	for _, c := range s.Configurations {
		for _, suffix := range []string{SuffixActiveCfg, SuffixBuild} {
			key := c.String() + "." + suffix
			if !p.ConfigurationMap.Has(key) {
				p.ConfigurationMap.Set(key, c.String())
			}
		}
	}
}

// AddFolder adds a solution folder and returns it.
// A folder name must be unique among its siblings.
func (s *Solution) AddFolder(name, parentFolderGUID string) (*Folder, error) {
	const op = "solution.add-folder"
	if strings.TrimSpace(name) == "" {
		return nil, errs.Validation(op, "folder name is required")
	}
	parent := s.GetFolderByGUID(parentFolderGUID)
	parentID := ""
	if parent != nil {
		parentID = parent.GUID
	}
	for _, f := range s.Folders {
		if strings.EqualFold(f.Name, name) && f.ParentFolderGUID == parentID {
			return nil, errs.Validation(op, fmt.Sprintf("folder %q already exists", name))
		}
	}

	folder := &Folder{Name: name, GUID: s.newUniqueGUID()}
	s.Folders = append(s.Folders, folder)
	if parent != nil {
		s.attach(folder.GUID, parent)
	}
	return folder, nil
}

// AddNesting places a project or folder under a parent folder, detaching it from
// any previous parent. Unlike parsing, unknown ids and cycles are rejected.
func (s *Solution) AddNesting(childGUID, parentFolderGUID string) error {
	const op = "solution.add-nesting"
	child, parentID := normalizeGUID(childGUID), normalizeGUID(parentFolderGUID)
	if child == "" || parentID == "" {
		return errs.Validation(op, "child and parent identifiers are required")
	}
	if !s.hasGUID(child) {
		return errs.Validation(op, fmt.Sprintf("unknown child %s", child))
	}
	parent := s.GetFolderByGUID(parentID)
	if parent == nil {
		return errs.Validation(op, fmt.Sprintf("unknown parent folder %s", parentID))
	}
	if child == parentID || s.reachesAncestor(parentID, child) {
		return errs.Validation(op, fmt.Sprintf("nesting %s under %s would create a cycle", child, parentID))
	}

	s.attach(child, parent)
	return nil
}

// RemoveNesting moves a project or folder back to the solution root
func (s *Solution) RemoveNesting(childGUID string) {
	child := normalizeGUID(childGUID)
	s.detach(child)
	delete(s.Nesting, child)
}

// RemoveProject removes a project and its nesting entry. Returns false if not found.
func (s *Solution) RemoveProject(guid string) bool {
	id := normalizeGUID(guid)
	for i, p := range s.Projects {
		if p.GUID == id {
			s.RemoveNesting(id)
			s.Projects = append(s.Projects[:i], s.Projects[i+1:]...)
			return true
		}
	}
	return false
}

// attach updates Nesting and the derived pointers for a single edge
func (s *Solution) attach(child string, parent *Folder) {
	s.detach(child)
	if s.Nesting == nil {
		s.Nesting = make(map[string]string)
	}
	s.Nesting[child] = parent.GUID

	if p := s.GetProjectByGUID(child); p != nil {
		p.ParentFolderGUID = parent.GUID
		parent.Projects = append(parent.Projects, p)
		return
	}
	if f := s.GetFolderByGUID(child); f != nil {
		f.ParentFolderGUID = parent.GUID
		parent.SubFolders = append(parent.SubFolders, f)
	}
}

// detach removes child from its current parent's derived lists
func (s *Solution) detach(child string) {
	if p := s.GetProjectByGUID(child); p != nil {
		if old := s.GetFolderByGUID(p.ParentFolderGUID); old != nil {
			old.Projects = removeProject(old.Projects, p)
		}
		p.ParentFolderGUID = ""
		return
	}
	if f := s.GetFolderByGUID(child); f != nil {
		if old := s.GetFolderByGUID(f.ParentFolderGUID); old != nil {
			old.SubFolders = removeFolder(old.SubFolders, f)
		}
		f.ParentFolderGUID = ""
	}
}

func removeProject(list []*Project, p *Project) []*Project {
	for i, item := range list {
		if item == p {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func removeFolder(list []*Folder, f *Folder) []*Folder {
	for i, item := range list {
		if item == f {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
