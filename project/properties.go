package project

import (
	"fmt"
	"sort"
	"strings"

	"github.com/willibrandon/gosln/errs"
)

// GetProperty returns the last unconditional declaration of a property, ignoring case.
func (p *Project) GetProperty(name string) string {
	value := ""
	for _, g := range p.PropertyGroups {
		if g.Condition != "" {
			continue
		}
		if v, ok := g.Get(name); ok {
			value = v
		}
	}
	return value
}

// Properties returns the effective unconditional properties in first-declaration order
func (p *Project) Properties() []Property {
	var props []Property
	index := make(map[string]int)
	for _, g := range p.PropertyGroups {
		if g.Condition != "" {
			continue
		}
		for _, prop := range g.Properties {
			key := strings.ToLower(prop.Name)
			if i, ok := index[key]; ok {
				props[i].Value = prop.Value
				continue
			}
			index[key] = len(props)
			props = append(props, prop)
		}
	}
	return props
}

// SetProperty sets an unconditional property. An existing declaration is updated in
// place (the last one, so the new value wins); otherwise the property is appended to
// the first unconditional PropertyGroup, which is created if needed.
func (p *Project) SetProperty(name, value string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.Validation("project.set-property", "property name is required")
	}

	var target *PropertyGroup
	for _, g := range p.PropertyGroups {
		if g.Condition != "" {
			continue
		}
		if _, ok := g.Get(name); ok {
			target = g
		}
	}
	if target == nil {
		target = p.unconditionalGroup()
	}
	target.set(name, value)
	p.modified = true
	return nil
}

// RemoveProperty removes every unconditional declaration of a property.
// Returns true if anything was removed.
func (p *Project) RemoveProperty(name string) bool {
	removed := false
	for _, g := range p.PropertyGroups {
		if g.Condition == "" && g.remove(name) {
			removed = true
		}
	}
	if removed {
		p.modified = true
	}
	return removed
}

func (p *Project) unconditionalGroup() *PropertyGroup {
	for _, g := range p.PropertyGroups {
		if g.Condition == "" {
			return g
		}
	}
	g := &PropertyGroup{}
	p.PropertyGroups = append([]*PropertyGroup{g}, p.PropertyGroups...)
	return g
}

// TargetFramework returns the single TargetFramework property
func (p *Project) TargetFramework() string {
	return p.GetProperty("TargetFramework")
}

// TargetFrameworks returns the declared frameworks from TargetFrameworks, or the
// single TargetFramework when only that is set.
func (p *Project) TargetFrameworks() []string {
	if multi := p.GetProperty("TargetFrameworks"); multi != "" {
		var tfms []string
		for _, tfm := range strings.Split(multi, ";") {
			if tfm = strings.TrimSpace(tfm); tfm != "" {
				tfms = append(tfms, tfm)
			}
		}
		return tfms
	}
	if single := p.TargetFramework(); single != "" {
		return []string{single}
	}
	return nil
}

// SetTargetFramework sets a single target framework and drops TargetFrameworks
func (p *Project) SetTargetFramework(tfm string) error {
	if err := p.SetProperty("TargetFramework", tfm); err != nil {
		return err
	}
	p.RemoveProperty("TargetFrameworks")
	return nil
}

// SetTargetFrameworks sets multiple target frameworks and drops TargetFramework
func (p *Project) SetTargetFrameworks(tfms []string) error {
	if len(tfms) == 0 {
		return errs.Validation("project.set-target-frameworks", "at least one target framework is required")
	}
	if err := p.SetProperty("TargetFrameworks", strings.Join(tfms, ";")); err != nil {
		return err
	}
	p.RemoveProperty("TargetFramework")
	return nil
}

// SetOutputType sets OutputType (Exe, WinExe, Library)
func (p *Project) SetOutputType(outputType string) error {
	return p.SetProperty("OutputType", outputType)
}

// SetNetFrameworkVersion sets the legacy TargetFrameworkVersion property (e.g., "v4.8").
// A missing "v" prefix is added.
func (p *Project) SetNetFrameworkVersion(version string) error {
	if version != "" && !strings.HasPrefix(strings.ToLower(version), "v") {
		version = "v" + version
	}
	return p.SetProperty("TargetFrameworkVersion", version)
}

// Preset is a named bundle of properties and package references
type Preset struct {
	Sdk        string
	Properties []Property
	Packages   []PackageReference
}

var presets = map[string]Preset{
	"console": {
		Properties: []Property{{Name: "OutputType", Value: "Exe"}},
	},
	"library": {
		Properties: []Property{{Name: "OutputType", Value: "Library"}},
	},
	"web": {
		Sdk:        "Microsoft.NET.Sdk.Web",
		Properties: []Property{{Name: "OutputType", Value: "Exe"}},
	},
	"wpf": {
		Properties: []Property{
			{Name: "OutputType", Value: "WinExe"},
			{Name: "UseWPF", Value: "true"},
		},
	},
	"winforms": {
		Properties: []Property{
			{Name: "OutputType", Value: "WinExe"},
			{Name: "UseWindowsForms", Value: "true"},
		},
	},
	"test": {
		Properties: []Property{
			{Name: "IsPackable", Value: "false"},
			{Name: "IsTestProject", Value: "true"},
		},
		Packages: []PackageReference{
			{Include: "Microsoft.NET.Test.Sdk", Version: "17.8.0"},
			{Include: "xunit", Version: "2.6.2"},
			{Include: "xunit.runner.visualstudio", Version: "2.5.4", PrivateAssets: "all"},
		},
	},
}

// PresetNames returns the names accepted by ApplyPlatformPreset, sorted
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyPlatformPreset applies a named preset (console, library, web, wpf, winforms, test)
func (p *Project) ApplyPlatformPreset(name string) error {
	preset, ok := presets[strings.ToLower(name)]
	if !ok {
		return errs.Validation("project.apply-preset",
			fmt.Sprintf("unknown preset %q (available: %s)", name, strings.Join(PresetNames(), ", ")))
	}

	if preset.Sdk != "" && p.IsSDKStyle() {
		p.Sdk = preset.Sdk
	}
	for _, prop := range preset.Properties {
		if err := p.SetProperty(prop.Name, prop.Value); err != nil {
			return err
		}
	}
	if strings.EqualFold(name, "wpf") || strings.EqualFold(name, "winforms") {
		if err := p.windowsTargetFramework(); err != nil {
			return err
		}
	}
	for _, ref := range preset.Packages {
		if _, err := p.AddPackageReference(ref.Include, ref.Version); err != nil {
			return err
		}
		if ref.PrivateAssets != "" {
			p.GetPackageReference(ref.Include).PrivateAssets = ref.PrivateAssets
		}
	}
	p.modified = true
	return nil
}

// windowsTargetFramework appends "-windows" to a plain net5+ TargetFramework
func (p *Project) windowsTargetFramework() error {
	tfm := p.TargetFramework()
	if !strings.HasPrefix(tfm, "net") || !strings.Contains(tfm, ".") || strings.Contains(tfm, "-") {
		return nil
	}
	return p.SetProperty("TargetFramework", tfm+"-windows")
}
