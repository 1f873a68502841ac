package project

import (
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"

	"github.com/willibrandon/gosln/errs"
)

// DirectoryPackagesFile is the Central Package Management props file name
const DirectoryPackagesFile = "Directory.Packages.props"

// DirectoryPackages represents a Directory.Packages.props file.
type DirectoryPackages struct {
	Path string

	// Properties holds the unconditional PropertyGroup entries
	Properties []Property

	// PackageVersions holds every <PackageVersion> in document order
	PackageVersions []*PackageVersion

	modified bool
}

// PackageVersion represents a <PackageVersion> element in Directory.Packages.props.
type PackageVersion struct {
	Include string
	Version string
}

// NewDirectoryPackages creates an empty props file with CPM switched on
func NewDirectoryPackages(path string) *DirectoryPackages {
	return &DirectoryPackages{
		Path:       path,
		Properties: []Property{{Name: "ManagePackageVersionsCentrally", Value: "true"}},
		modified:   true,
	}
}

// LoadDirectoryPackages loads a Directory.Packages.props file from disk.
func LoadDirectoryPackages(path string) (*DirectoryPackages, error) {
	const op = "project.load-directory-packages"
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.FromOS(op, path, err)
	}

	var root element
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&root); err != nil {
		return nil, &errs.Error{Kind: errs.KindFormat, Op: op, Path: path, Msg: "failed to parse Directory.Packages.props", Err: err}
	}

	dp := &DirectoryPackages{Path: path}
	for i := range root.Children {
		child := &root.Children[i]
		switch {
		case child.is("PropertyGroup") && child.attr("Condition") == "":
			for j := range child.Children {
				prop := &child.Children[j]
				dp.Properties = append(dp.Properties, Property{Name: prop.XMLName.Local, Value: prop.text()})
			}
		case child.is("ItemGroup"):
			for j := range child.Children {
				pv := &child.Children[j]
				if pv.is("PackageVersion") {
					dp.PackageVersions = append(dp.PackageVersions, &PackageVersion{
						Include: pv.attr("Include"),
						Version: metaValue(pv, "Version"),
					})
				}
			}
		}
	}
	return dp, nil
}

// FindDirectoryPackages walks up from startDir looking for Directory.Packages.props.
// Returns the path and true when found.
func FindDirectoryPackages(startDir string) (string, bool) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		dir = startDir
	}
	for {
		candidate := filepath.Join(dir, DirectoryPackagesFile)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// IsEnabled reports whether ManagePackageVersionsCentrally is true
func (dp *DirectoryPackages) IsEnabled() bool {
	for _, prop := range dp.Properties {
		if strings.EqualFold(prop.Name, "ManagePackageVersionsCentrally") {
			return strings.EqualFold(strings.TrimSpace(prop.Value), "true")
		}
	}
	return false
}

// AddOrUpdatePackageVersion adds a new PackageVersion or updates an existing one.
// Returns true if an existing PackageVersion was updated, false if a new one was added.
func (dp *DirectoryPackages) AddOrUpdatePackageVersion(packageID, version string) (bool, error) {
	if strings.TrimSpace(packageID) == "" || strings.TrimSpace(version) == "" {
		return false, errs.Validation("project.add-package-version", "package id and version are required")
	}

	if pv := dp.find(packageID); pv != nil {
		pv.Version = version
		dp.modified = true
		return true, nil
	}

	dp.PackageVersions = append(dp.PackageVersions, &PackageVersion{Include: packageID, Version: version})
	dp.modified = true
	return false, nil
}

// GetPackageVersion returns the version for a package ID, or empty string if not found.
func (dp *DirectoryPackages) GetPackageVersion(packageID string) string {
	if pv := dp.find(packageID); pv != nil {
		return pv.Version
	}
	return ""
}

// RemovePackageVersion removes a PackageVersion by package ID.
// Returns true if a PackageVersion was removed, false if not found.
func (dp *DirectoryPackages) RemovePackageVersion(packageID string) bool {
	for i, pv := range dp.PackageVersions {
		if strings.EqualFold(pv.Include, packageID) {
			dp.PackageVersions = append(dp.PackageVersions[:i], dp.PackageVersions[i+1:]...)
			dp.modified = true
			return true
		}
	}
	return false
}

func (dp *DirectoryPackages) find(packageID string) *PackageVersion {
	for _, pv := range dp.PackageVersions {
		if strings.EqualFold(pv.Include, packageID) {
			return pv
		}
	}
	return nil
}

// Save writes the file to disk. It does nothing when there are no changes.
func (dp *DirectoryPackages) Save() error {
	if !dp.modified {
		return nil
	}
	const op = "project.save-directory-packages"

	root := newElement("Project")
	if len(dp.Properties) > 0 {
		group := newElement("PropertyGroup")
		for _, prop := range dp.Properties {
			group.Children = append(group.Children, textElement(prop.Name, prop.Value))
		}
		root.Children = append(root.Children, group)
	}
	if len(dp.PackageVersions) > 0 {
		group := newElement("ItemGroup")
		for _, pv := range dp.PackageVersions {
			group.Children = append(group.Children, newElement("PackageVersion", "Include", pv.Include, "Version", pv.Version))
		}
		root.Children = append(root.Children, group)
	}

	output, err := xml.MarshalIndent(root, "", "  ")
	if err != nil {
		return errs.IO(op, dp.Path, err)
	}

	var buf bytes.Buffer
	buf.Write(utf8BOM)
	buf.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	buf.Write(output)
	buf.WriteString("\n")

	if err := os.MkdirAll(filepath.Dir(dp.Path), 0o755); err != nil {
		return errs.FromOS(op, dp.Path, err)
	}
	if err := os.WriteFile(dp.Path, buf.Bytes(), 0o644); err != nil {
		return errs.FromOS(op, dp.Path, err)
	}

	dp.modified = false
	return nil
}

// IsCentralPackageManagementEnabled checks if Central Package Management (CPM) is enabled,
// either by the project itself or by a Directory.Packages.props in an ancestor directory.
func (p *Project) IsCentralPackageManagementEnabled() bool {
	if v := p.GetProperty("ManagePackageVersionsCentrally"); v != "" {
		return strings.EqualFold(v, "true")
	}
	path, ok := FindDirectoryPackages(p.Dir())
	if !ok {
		return false
	}
	dp, err := LoadDirectoryPackages(path)
	if err != nil {
		return false
	}
	return dp.IsEnabled()
}

// AddPackage adds a package to the project, honoring Central Package Management: when
// CPM is active the version goes to Directory.Packages.props (created next to the
// project if ManagePackageVersionsCentrally is set but no file exists) and the
// reference stays versionless. Returns true if an existing reference was updated.
func (p *Project) AddPackage(id, version string) (bool, error) {
	if !p.IsCentralPackageManagementEnabled() || version == "" {
		return p.AddPackageReference(id, version)
	}

	var dp *DirectoryPackages
	if path, ok := FindDirectoryPackages(p.Dir()); ok {
		loaded, err := LoadDirectoryPackages(path)
		if err != nil {
			return false, err
		}
		dp = loaded
	} else {
		dp = NewDirectoryPackages(filepath.Join(p.Dir(), DirectoryPackagesFile))
	}

	if _, err := dp.AddOrUpdatePackageVersion(id, version); err != nil {
		return false, err
	}
	if err := dp.Save(); err != nil {
		return false, err
	}
	return p.AddPackageReference(id, "")
}
