package project

import (
	"strings"

	"github.com/willibrandon/gosln/errs"
)

// AddPackageReference adds a new PackageReference or updates the version of an existing
// unconditional one; Update and Remove entries are left alone. An empty version leaves the
// reference versionless, as Central Package Management expects. Returns true if an
// existing reference was updated.
func (p *Project) AddPackageReference(id, version string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, errs.Validation("project.add-package", "package id is required")
	}

	for _, ref := range p.PackageReferences {
		if ref.Condition == "" && ref.Operation.isInclude() && strings.EqualFold(ref.Include, id) {
			ref.Version = version
			p.modified = true
			return true, nil
		}
	}

	p.PackageReferences = append(p.PackageReferences, &PackageReference{Include: id, Version: version})
	p.modified = true
	return false, nil
}

// RemovePackageReference removes every PackageReference with the given id.
// Returns true if a reference was removed, false if not found.
func (p *Project) RemovePackageReference(id string) bool {
	kept := p.PackageReferences[:0]
	for _, ref := range p.PackageReferences {
		if !strings.EqualFold(ref.Include, id) {
			kept = append(kept, ref)
		}
	}
	removed := len(kept) != len(p.PackageReferences)
	p.PackageReferences = kept
	if removed {
		p.modified = true
	}
	return removed
}

// GetPackageReference returns the first PackageReference that includes the given id, or nil
func (p *Project) GetPackageReference(id string) *PackageReference {
	for _, ref := range p.PackageReferences {
		if ref.Operation.isInclude() && strings.EqualFold(ref.Include, id) {
			return ref
		}
	}
	return nil
}

// sameProjectPath compares project reference paths ignoring case and separator style
func sameProjectPath(a, b string) bool {
	return strings.EqualFold(strings.ReplaceAll(a, "/", `\`), strings.ReplaceAll(b, "/", `\`))
}

// AddProjectReference adds a ProjectReference keyed on its path. The path is stored with
// backslashes the way MSBuild writes it. Returns true if the reference already existed.
func (p *Project) AddProjectReference(path string) (bool, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return false, errs.Validation("project.add-reference", "project reference path is required")
	}
	for _, ref := range p.ProjectReferences {
		if sameProjectPath(ref.Include, path) {
			return true, nil
		}
	}
	p.ProjectReferences = append(p.ProjectReferences, &ProjectReference{Include: strings.ReplaceAll(path, "/", `\`)})
	p.modified = true
	return false, nil
}

// RemoveProjectReference removes the ProjectReference with the given path
func (p *Project) RemoveProjectReference(path string) bool {
	for i, ref := range p.ProjectReferences {
		if sameProjectPath(ref.Include, path) {
			p.ProjectReferences = append(p.ProjectReferences[:i], p.ProjectReferences[i+1:]...)
			p.modified = true
			return true
		}
	}
	return false
}

// AddAssemblyReference adds a <Reference> or updates the HintPath of an existing one.
// Returns true if an existing reference was updated.
func (p *Project) AddAssemblyReference(name, hintPath string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, errs.Validation("project.add-assembly", "assembly name is required")
	}
	for _, ref := range p.AssemblyReferences {
		if strings.EqualFold(ref.Include, name) {
			if hintPath != "" {
				ref.HintPath = hintPath
			}
			p.modified = true
			return true, nil
		}
	}
	p.AssemblyReferences = append(p.AssemblyReferences, &AssemblyReference{Include: name, HintPath: hintPath})
	p.modified = true
	return false, nil
}

// RemoveAssemblyReference removes the <Reference> with the given name
func (p *Project) RemoveAssemblyReference(name string) bool {
	for i, ref := range p.AssemblyReferences {
		if strings.EqualFold(ref.Include, name) {
			p.AssemblyReferences = append(p.AssemblyReferences[:i], p.AssemblyReferences[i+1:]...)
			p.modified = true
			return true
		}
	}
	return false
}

// AddItem adds an item keyed on type and include. When the item exists its metadata
// is merged: given keys overwrite, others are kept. Returns true if the item existed.
func (p *Project) AddItem(itemType, include string, metadata ...Metadata) (bool, error) {
	itemType = strings.TrimSpace(itemType)
	if itemType == "" || strings.TrimSpace(include) == "" {
		return false, errs.Validation("project.add-item", "item type and include are required")
	}
	for _, m := range metadata {
		if strings.TrimSpace(m.Key) == "" {
			return false, errs.Validation("project.add-item", "metadata keys must not be empty")
		}
	}

	item := p.GetItem(itemType, include)
	existed := item != nil
	if !existed {
		item = &Item{Type: itemType, Include: include}
		p.Items = append(p.Items, item)
	}
	for _, m := range metadata {
		item.SetMetadata(m.Key, m.Value)
	}
	p.modified = true
	return existed, nil
}

// GetItem returns the item that includes the given spec, or nil
func (p *Project) GetItem(itemType, include string) *Item {
	return p.FindItem(itemType, OperationInclude, include)
}

// FindItem returns the item with the given type, operation and spec, or nil
func (p *Project) FindItem(itemType string, op ItemOperation, spec string) *Item {
	for _, item := range p.Items {
		if item.matches(itemType, op, spec) {
			return item
		}
	}
	return nil
}

func (i *Item) matches(itemType string, op ItemOperation, spec string) bool {
	return strings.EqualFold(i.Type, itemType) && i.Operation.attribute() == op.attribute() &&
		strings.EqualFold(i.Include, spec)
}

// ItemsOfType returns the items of one type in document order
func (p *Project) ItemsOfType(itemType string) []*Item {
	var items []*Item
	for _, item := range p.Items {
		if strings.EqualFold(item.Type, itemType) {
			items = append(items, item)
		}
	}
	return items
}

// RemoveItem removes the item that includes the given spec
func (p *Project) RemoveItem(itemType, include string) bool {
	for i, item := range p.Items {
		if item.matches(itemType, OperationInclude, include) {
			p.Items = append(p.Items[:i], p.Items[i+1:]...)
			p.modified = true
			return true
		}
	}
	return false
}
