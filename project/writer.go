package project

import (
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"

	"github.com/willibrandon/gosln/errs"
)

// Save writes the project back to Path
func (p *Project) Save() error {
	return p.SaveAs(p.Path)
}

// SaveAs regenerates the document and writes it to path with a UTF-8 BOM and an XML
// declaration, creating parent directories as needed. Path is updated on success.
func (p *Project) SaveAs(path string) error {
	const op = "project.save"
	if path == "" {
		return errs.Validation(op, "project has no path")
	}

	data, err := p.Marshal()
	if err != nil {
		return errs.IO(op, path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.FromOS(op, path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.FromOS(op, path, err)
	}

	p.Path = path
	p.modified = false
	return nil
}

// Marshal renders the project document, BOM and declaration included
func (p *Project) Marshal() ([]byte, error) {
	output, err := xml.MarshalIndent(p.document(), "", "  ")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(utf8BOM)
	buf.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	buf.Write(output)
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// document builds the element tree written by Save. References and items are grouped
// into one ItemGroup per kind and condition, in first-seen order.
func (p *Project) document() element {
	root := newElement("Project", "Sdk", p.Sdk, "ToolsVersion", p.ToolsVersion, "xmlns", p.Namespace)

	for _, g := range p.PropertyGroups {
		if len(g.Properties) == 0 {
			continue
		}
		group := newElement("PropertyGroup", "Condition", g.Condition)
		for _, prop := range g.Properties {
			group.Children = append(group.Children, textElement(prop.Name, prop.Value))
		}
		root.Children = append(root.Children, group)
	}

	var groups itemGroups
	for _, ref := range p.PackageReferences {
		el := newElement("PackageReference", ref.Operation.attribute(), ref.Include, "Version", ref.Version,
			"PrivateAssets", ref.PrivateAssets, "IncludeAssets", ref.IncludeAssets, "ExcludeAssets", ref.ExcludeAssets)
		groups.add("PackageReference", ref.Condition, el)
	}
	for _, ref := range p.ProjectReferences {
		el := newElement("ProjectReference", "Include", ref.Include)
		if ref.Name != "" {
			el.Children = append(el.Children, textElement("Name", ref.Name))
		}
		groups.add("ProjectReference", ref.Condition, el)
	}
	for _, ref := range p.AssemblyReferences {
		el := newElement("Reference", "Include", ref.Include)
		if ref.HintPath != "" {
			el.Children = append(el.Children, textElement("HintPath", ref.HintPath))
		}
		if ref.Private != "" {
			el.Children = append(el.Children, textElement("Private", ref.Private))
		}
		groups.add("Reference", ref.Condition, el)
	}
	for _, item := range p.Items {
		el := newElement(item.Type, item.Operation.attribute(), item.Include)
		for _, m := range item.Metadata {
			if isItemAttribute(m.Key) {
				el.Attrs = append(el.Attrs, xml.Attr{Name: xml.Name{Local: m.Key}, Value: m.Value})
				continue
			}
			el.Children = append(el.Children, textElement(m.Key, m.Value))
		}
		groups.add("Item", item.Condition, el)
	}
	root.Children = append(root.Children, groups.elements()...)

	return root
}

type itemGroupKey struct {
	kind      string
	condition string
}

// itemGroups collects ItemGroup children by kind and condition
type itemGroups struct {
	order  []itemGroupKey
	groups map[itemGroupKey]*element
}

func (g *itemGroups) add(kind, condition string, child element) {
	if g.groups == nil {
		g.groups = make(map[itemGroupKey]*element)
	}
	key := itemGroupKey{kind: kind, condition: condition}
	group, ok := g.groups[key]
	if !ok {
		el := newElement("ItemGroup", "Condition", condition)
		group = &el
		g.groups[key] = group
		g.order = append(g.order, key)
	}
	group.Children = append(group.Children, child)
}

func (g *itemGroups) elements() []element {
	out := make([]element, 0, len(g.order))
	for _, key := range g.order {
		out = append(out, *g.groups[key])
	}
	return out
}
