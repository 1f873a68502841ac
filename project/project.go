// Package project provides abstractions for loading, parsing, and saving .NET project files (.csproj, .fsproj, .vbproj).
//
// The model is regenerated on Save: comments, imports, targets, and formatting of the
// original file are not preserved. A Project is owned by the caller that loaded it and
// is not safe for concurrent mutation.
package project

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/willibrandon/gosln/errs"
)

// DefaultSdk is the SDK used for new projects when none is given
const DefaultSdk = "Microsoft.NET.Sdk"

// MSBuildNamespace is the xmlns used by legacy (non-SDK) project files
const MSBuildNamespace = "http://schemas.microsoft.com/developer/msbuild/2003"

// Default property values for freshly constructed projects
const (
	DefaultTargetFramework = "net8.0"
	DefaultOutputType      = "Library"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Project represents a .NET project file.
type Project struct {
	// Path is the project file path
	Path string

	// Sdk is the Sdk attribute of the root element (empty for legacy projects)
	Sdk string

	// Namespace is the root xmlns, preserved on save when present
	Namespace string

	// ToolsVersion is the legacy ToolsVersion attribute, preserved on save when present
	ToolsVersion string

	// PropertyGroups holds every PropertyGroup in document order
	PropertyGroups []*PropertyGroup

	PackageReferences  []*PackageReference
	ProjectReferences  []*ProjectReference
	AssemblyReferences []*AssemblyReference

	// Items holds every other ItemGroup child (Compile, None, Content, ...)
	Items []*Item

	modified bool
}

// PropertyGroup is a <PropertyGroup> with its optional Condition
type PropertyGroup struct {
	Condition  string
	Properties []Property
}

// Property is a single MSBuild property
type Property struct {
	Name  string
	Value string
}

// Get returns the value of the named property in this group, ignoring case
func (g *PropertyGroup) Get(name string) (string, bool) {
	for _, prop := range g.Properties {
		if strings.EqualFold(prop.Name, name) {
			return prop.Value, true
		}
	}
	return "", false
}

func (g *PropertyGroup) set(name, value string) {
	for i := range g.Properties {
		if strings.EqualFold(g.Properties[i].Name, name) {
			g.Properties[i].Value = value
			return
		}
	}
	g.Properties = append(g.Properties, Property{Name: name, Value: value})
}

func (g *PropertyGroup) remove(name string) bool {
	removed := false
	kept := g.Properties[:0]
	for _, prop := range g.Properties {
		if strings.EqualFold(prop.Name, name) {
			removed = true
			continue
		}
		kept = append(kept, prop)
	}
	g.Properties = kept
	return removed
}

// ItemOperation is the attribute naming an item's spec. The zero value means Include.
type ItemOperation string

const (
	OperationInclude ItemOperation = "Include"
	OperationUpdate  ItemOperation = "Update"
	OperationRemove  ItemOperation = "Remove"
)

// attribute returns the XML attribute name, Include when unset
func (op ItemOperation) attribute() string {
	if op == "" {
		return string(OperationInclude)
	}
	return string(op)
}

func (op ItemOperation) isInclude() bool {
	return op == "" || op == OperationInclude
}

// itemOperation reads the item spec and the operation naming it. Include is returned
// as the zero value so parsed and constructed items compare equal.
func itemOperation(el *element) (ItemOperation, string) {
	if v := el.attr(string(OperationInclude)); v != "" {
		return "", v
	}
	for _, op := range []ItemOperation{OperationUpdate, OperationRemove} {
		if v := el.attr(string(op)); v != "" {
			return op, v
		}
	}
	return "", ""
}

// itemAttributes are reserved item attributes; they are written back as attributes,
// never as metadata elements
var itemAttributes = []string{
	"Exclude", "Condition", "KeepMetadata", "RemoveMetadata", "KeepDuplicates",
	"MatchOnMetadata", "MatchOnMetadataOptions",
}

func isItemAttribute(name string) bool {
	for _, a := range itemAttributes {
		if strings.EqualFold(a, name) {
			return true
		}
	}
	return false
}

// PackageReference represents a <PackageReference> element.
// Include holds the package id whichever Operation names it.
type PackageReference struct {
	Include       string
	Operation     ItemOperation
	Version       string
	PrivateAssets string
	IncludeAssets string
	ExcludeAssets string
	Condition     string // Condition of the containing ItemGroup
}

// ProjectReference represents a <ProjectReference> element.
type ProjectReference struct {
	Include   string
	Name      string
	Condition string
}

// AssemblyReference represents a <Reference> element (legacy .NET Framework).
type AssemblyReference struct {
	Include   string
	HintPath  string
	Private   string
	Condition string
}

// Item is any other ItemGroup child, such as <Compile Include="..."/>.
// Include holds the item spec; Operation tells whether it is included, updated or removed.
type Item struct {
	Type      string
	Include   string
	Operation ItemOperation
	Metadata  []Metadata
	Condition string
}

// Metadata is an item metadata key/value pair from an attribute or child element
type Metadata struct {
	Key   string
	Value string
}

// GetMetadata returns the value of a metadata key, ignoring case
func (i *Item) GetMetadata(key string) (string, bool) {
	for _, m := range i.Metadata {
		if strings.EqualFold(m.Key, key) {
			return m.Value, true
		}
	}
	return "", false
}

// SetMetadata adds or replaces a metadata value
func (i *Item) SetMetadata(key, value string) {
	for j := range i.Metadata {
		if strings.EqualFold(i.Metadata[j].Key, key) {
			i.Metadata[j].Value = value
			return
		}
	}
	i.Metadata = append(i.Metadata, Metadata{Key: key, Value: value})
}

// New creates an in-memory SDK-style project with the default TargetFramework and OutputType.
func New(path, sdk string) *Project {
	if sdk == "" {
		sdk = DefaultSdk
	}
	return &Project{
		Path: path,
		Sdk:  sdk,
		PropertyGroups: []*PropertyGroup{{
			Properties: []Property{
				{Name: "OutputType", Value: DefaultOutputType},
				{Name: "TargetFramework", Value: DefaultTargetFramework},
			},
		}},
		modified: true,
	}
}

// LoadProject loads and parses a project file from the given path.
func LoadProject(path string) (*Project, error) {
	return Load(path, false, "")
}

// Load reads the project at path. When the file is absent and createIfMissing is set,
// a new project using defaultSdk is returned instead of a not-found error.
func Load(path string, createIfMissing bool, defaultSdk string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		err = errs.FromOS("project.load", path, err)
		if createIfMissing && errs.KindOf(err) == errs.KindNotFound {
			return New(path, defaultSdk), nil
		}
		return nil, err
	}

	proj, err := Parse(bytes.NewReader(data))
	if err != nil {
		var e *errs.Error
		if errors.As(err, &e) {
			e.Path = path
		}
		return nil, err
	}
	proj.Path = path
	return proj, nil
}

// Parse reads a project document from r.
//
// Unconditional PropertyGroups contribute to GetProperty with the last declaration
// winning; conditional groups are kept but not evaluated. ItemGroup children are
// classified into package, project, and assembly references or generic items.
func Parse(r io.Reader) (*Project, error) {
	var root element
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, &errs.Error{Kind: errs.KindFormat, Op: "project.parse", Msg: "failed to parse project XML", Err: err}
	}
	if !root.is("Project") {
		return nil, errs.Format("project.parse", "", fmt.Sprintf("root element is <%s>, expected <Project>", root.XMLName.Local))
	}

	proj := &Project{
		Sdk:          root.attr("Sdk"),
		Namespace:    root.XMLName.Space,
		ToolsVersion: root.attr("ToolsVersion"),
	}

	for i := range root.Children {
		child := &root.Children[i]
		switch {
		case child.is("PropertyGroup"):
			group := &PropertyGroup{Condition: child.attr("Condition")}
			for j := range child.Children {
				prop := &child.Children[j]
				group.set(prop.XMLName.Local, prop.text())
			}
			proj.PropertyGroups = append(proj.PropertyGroups, group)
		case child.is("ItemGroup"):
			proj.parseItemGroup(child)
		}
	}

	return proj, nil
}

// metaValue reads metadata given either as an attribute or as a child element
func metaValue(el *element, name string) string {
	if v := el.attr(name); v != "" {
		return v
	}
	return el.childText(name)
}

func (p *Project) parseItemGroup(group *element) {
	condition := group.attr("Condition")
	for i := range group.Children {
		child := &group.Children[i]
		op, include := itemOperation(child)
		switch {
		case child.is("PackageReference"):
			p.PackageReferences = append(p.PackageReferences, &PackageReference{
				Include:       include,
				Operation:     op,
				Version:       metaValue(child, "Version"),
				PrivateAssets: metaValue(child, "PrivateAssets"),
				IncludeAssets: metaValue(child, "IncludeAssets"),
				ExcludeAssets: metaValue(child, "ExcludeAssets"),
				Condition:     condition,
			})
		case child.is("ProjectReference") && op.isInclude():
			p.ProjectReferences = append(p.ProjectReferences, &ProjectReference{
				Include:   include,
				Name:      metaValue(child, "Name"),
				Condition: condition,
			})
		case child.is("Reference") && op.isInclude():
			p.AssemblyReferences = append(p.AssemblyReferences, &AssemblyReference{
				Include:   include,
				HintPath:  metaValue(child, "HintPath"),
				Private:   metaValue(child, "Private"),
				Condition: condition,
			})
		default:
			item := &Item{Type: child.XMLName.Local, Include: include, Operation: op, Condition: condition}
			for _, a := range child.Attrs {
				if strings.EqualFold(a.Name.Local, op.attribute()) || a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				item.Metadata = append(item.Metadata, Metadata{Key: a.Name.Local, Value: a.Value})
			}
			for j := range child.Children {
				meta := &child.Children[j]
				item.Metadata = append(item.Metadata, Metadata{Key: meta.XMLName.Local, Value: meta.text()})
			}
			p.Items = append(p.Items, item)
		}
	}
}

// IsSDKStyle returns true if this is an SDK-style project.
func (p *Project) IsSDKStyle() bool {
	return p.Sdk != ""
}

// Dir returns the directory containing the project file
func (p *Project) Dir() string {
	return filepath.Dir(p.Path)
}

// Modified reports whether the model changed since it was loaded or saved
func (p *Project) Modified() bool {
	return p.modified
}

// IsProjectFile reports whether path has a .csproj, .fsproj, or .vbproj extension
func IsProjectFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csproj", ".fsproj", ".vbproj":
		return true
	}
	return false
}

// FindProjectFile finds a single .csproj, .fsproj, or .vbproj file in the directory.
// Returns error if 0 or >1 project files are found.
func FindProjectFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errs.FromOS("project.find", dir, err)
	}

	var matches []string
	for _, entry := range entries {
		if !entry.IsDir() && IsProjectFile(entry.Name()) {
			matches = append(matches, filepath.Join(dir, entry.Name()))
		}
	}

	if len(matches) == 0 {
		return "", errs.NotFound("project.find", dir, "no project file found in directory")
	}

	if len(matches) > 1 {
		return "", errs.Validation("project.find", fmt.Sprintf("multiple project files found in directory: %s. Specify which project to use", dir))
	}

	return matches[0], nil
}
