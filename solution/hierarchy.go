package solution

// BuildHierarchy recomputes the derived folder pointers from Nesting.
//
// Every derived field (ParentFolderGUID, SubFolders, Projects) is cleared first, so
// calling it repeatedly yields the same structure. Entries whose child or parent does
// not resolve, self edges, and edges that would close a cycle are skipped.
func (s *Solution) BuildHierarchy() {
	if s.Nesting == nil {
		s.Nesting = make(map[string]string)
	}

	folders := make(map[string]*Folder, len(s.Folders))
	for _, f := range s.Folders {
		f.ParentFolderGUID = ""
		f.SubFolders = nil
		f.Projects = nil
		folders[f.GUID] = f
	}
	for _, p := range s.Projects {
		p.ParentFolderGUID = ""
	}

	for _, f := range s.Folders {
		parent := folders[s.Nesting[f.GUID]]
		if parent == nil || parent == f || s.reachesAncestor(parent.GUID, f.GUID) {
			continue
		}
		f.ParentFolderGUID = parent.GUID
		parent.SubFolders = append(parent.SubFolders, f)
	}

	for _, p := range s.Projects {
		parent := folders[s.Nesting[p.GUID]]
		if parent == nil {
			continue
		}
		p.ParentFolderGUID = parent.GUID
		parent.Projects = append(parent.Projects, p)
	}
}

// reachesAncestor reports whether walking up Nesting from start arrives at target.
func (s *Solution) reachesAncestor(start, target string) bool {
	seen := make(map[string]bool)
	for id := start; id != ""; id = s.Nesting[id] {
		if id == target {
			return true
		}
		if seen[id] {
			return false
		}
		seen[id] = true
	}
	return false
}
