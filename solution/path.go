package solution

import (
	"path/filepath"
	"strings"
)

// NormalizePath converts Windows-style paths to forward slash format
func NormalizePath(path string) string {
	if path == "" {
		return ""
	}

	// UNC paths (\\server\share) keep their leading double slash
	isUNC := strings.HasPrefix(path, "\\\\") || strings.HasPrefix(path, "//")

	normalized := strings.ReplaceAll(path, "\\", "/")
	if isUNC {
		normalized = strings.TrimLeft(normalized, "/")
	}
	for strings.Contains(normalized, "//") {
		normalized = strings.ReplaceAll(normalized, "//", "/")
	}
	if isUNC {
		normalized = "//" + normalized
	}

	return normalized
}

// ToSolutionPath converts a slash-separated path to the backslash form written to .sln files
func ToSolutionPath(path string) string {
	return strings.ReplaceAll(path, "/", "\\")
}

// ResolveProjectPath resolves a project path from a solution file
func ResolveProjectPath(solutionDir, projectPath string) string {
	if projectPath == "" {
		return ""
	}

	native := filepath.FromSlash(NormalizePath(projectPath))
	if filepath.IsAbs(native) {
		return filepath.Clean(native)
	}
	return filepath.Clean(filepath.Join(solutionDir, native))
}

// RelativeProjectPath expresses projectPath relative to solutionDir with forward slashes.
// Paths that cannot be made relative are returned normalized but otherwise unchanged.
func RelativeProjectPath(solutionDir, projectPath string) string {
	abs, err := filepath.Abs(projectPath)
	if err != nil {
		return NormalizePath(projectPath)
	}
	rel, err := filepath.Rel(solutionDir, abs)
	if err != nil {
		return NormalizePath(projectPath)
	}
	return NormalizePath(filepath.ToSlash(rel))
}

func dirOf(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Dir(path)
	}
	return filepath.Dir(abs)
}
