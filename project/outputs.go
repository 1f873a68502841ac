package project

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ExtractOutputPaths loads the project at path and returns its declared output
// directories for the given configuration and platform (either may be empty).
func ExtractOutputPaths(path, configuration, platform string) ([]string, error) {
	proj, err := LoadProject(path)
	if err != nil {
		return nil, err
	}
	return proj.OutputPaths(configuration, platform), nil
}

// OutputPaths returns every declared OutputPath as an absolute, duplicate-free list in
// document order.
//
// A conditional PropertyGroup is skipped when a configuration or platform is given and
// its Condition does not contain it (case-insensitive text match, not evaluation).
// $(Configuration) and $(Platform) in values are replaced by the given target.
// Relative values are resolved against the project directory.
func (p *Project) OutputPaths(configuration, platform string) []string {
	var paths []string
	seen := make(map[string]bool)

	for _, g := range p.PropertyGroups {
		if g.Condition != "" && !conditionMatches(g.Condition, configuration, platform) {
			continue
		}
		for _, prop := range g.Properties {
			if !strings.EqualFold(prop.Name, "OutputPath") || strings.TrimSpace(prop.Value) == "" {
				continue
			}
			dir := p.resolveDir(expandTargets(prop.Value, configuration, platform))
			if !seen[dir] {
				seen[dir] = true
				paths = append(paths, dir)
			}
		}
	}
	return paths
}

func conditionMatches(condition, configuration, platform string) bool {
	lower := strings.ToLower(condition)
	if configuration != "" && !strings.Contains(lower, strings.ToLower(configuration)) {
		return false
	}
	if platform != "" && !strings.Contains(lower, strings.ToLower(platform)) {
		return false
	}
	return true
}

func expandTargets(value, configuration, platform string) string {
	if configuration != "" {
		value = replaceFold(value, "$(Configuration)", configuration)
	}
	if platform != "" {
		value = replaceFold(value, "$(Platform)", platform)
	}
	return value
}

// replaceFold replaces every case-insensitive occurrence of old in s
func replaceFold(s, old, replacement string) string {
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(old))
	return re.ReplaceAllLiteralString(s, replacement)
}

// resolveDir converts an MSBuild path to an absolute native directory
func (p *Project) resolveDir(value string) string {
	native := filepath.FromSlash(strings.ReplaceAll(strings.TrimSpace(value), `\`, "/"))
	if !filepath.IsAbs(native) {
		native = filepath.Join(p.Dir(), native)
	}
	if abs, err := filepath.Abs(native); err == nil {
		native = abs
	}
	return filepath.Clean(native)
}

// CompiledOutputs returns the directories a build of this project writes to.
//
// Declared output paths are returned when there are any. Otherwise the conventional
// layouts bin/<C>, bin/<P>/<C>, bin/<C>/<P> and bin/ are tried over the candidate
// configurations and platforms, keeping only directories that exist.
func (p *Project) CompiledOutputs(configuration, platform string) []string {
	if declared := p.OutputPaths(configuration, platform); len(declared) > 0 {
		return declared
	}

	var configs []string
	if configuration != "" {
		configs = []string{configuration}
	} else {
		configs = uniqueFold(orDefault(p.GetProperty("Configuration"), "Debug"), "Release")
	}

	var platforms []string
	if platform != "" {
		platforms = uniqueFold(platform, "")
	} else {
		platforms = uniqueFold(orDefault(p.GetProperty("Platform"), "AnyCPU"), "x86", "x64", "")
	}

	var candidates []string
	for _, c := range configs {
		for _, plat := range platforms {
			if plat == "" {
				candidates = append(candidates, filepath.Join("bin", c))
				continue
			}
			candidates = append(candidates,
				filepath.Join("bin", plat, c),
				filepath.Join("bin", c, plat))
		}
	}
	candidates = append(candidates, "bin")

	var dirs []string
	seen := make(map[string]bool)
	for _, rel := range candidates {
		dir := p.resolveDir(rel)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// uniqueFold drops case-insensitive duplicates, keeping the first spelling
func uniqueFold(values ...string) []string {
	var out []string
	for _, v := range values {
		dup := false
		for _, existing := range out {
			if strings.EqualFold(existing, v) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return out
}
