package solution

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Detector helps detect and identify solution files
type Detector struct {
	// SearchDir is the directory to search for solution files
	SearchDir string
}

// NewDetector creates a new solution file detector
func NewDetector(searchDir string) *Detector {
	if searchDir == "" {
		searchDir = "."
	}
	return &Detector{SearchDir: searchDir}
}

// IsSolutionFile checks if a file path has a solution file extension
func IsSolutionFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".sln" || ext == ".slnf"
}

// IsProjectFile checks if a file path has a project file extension
func IsProjectFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".csproj" || ext == ".vbproj" || ext == ".fsproj"
}

// DetectionResult contains the result of solution file detection
type DetectionResult struct {
	// Found indicates if any solution file was found
	Found bool

	// Ambiguous indicates if multiple solution files were found
	Ambiguous bool

	// SolutionPath is the path to the found solution file
	SolutionPath string

	// FoundFiles lists all solution files found
	FoundFiles []string
}

// DetectSolution looks for solution files directly inside SearchDir.
// Only the top level is searched; nested solutions belong to their own directories.
func (d *Detector) DetectSolution() (*DetectionResult, error) {
	entries, err := os.ReadDir(d.SearchDir)
	if err != nil {
		return nil, fmt.Errorf("error searching for solution files: %w", err)
	}

	result := &DetectionResult{}
	for _, entry := range entries {
		if entry.IsDir() || !IsSolutionFile(entry.Name()) {
			continue
		}
		path := filepath.Join(d.SearchDir, entry.Name())
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		result.FoundFiles = append(result.FoundFiles, path)
	}

	switch len(result.FoundFiles) {
	case 0:
	case 1:
		result.Found = true
		result.SolutionPath = result.FoundFiles[0]
	default:
		result.Found = true
		result.Ambiguous = true
	}
	return result, nil
}

// Resolve returns the single solution path in SearchDir or an error describing why
// there is not exactly one.
func (d *Detector) Resolve() (string, error) {
	result, err := d.DetectSolution()
	if err != nil {
		return "", err
	}
	if !result.Found {
		return "", fmt.Errorf("no solution file found in %s", d.SearchDir)
	}
	if result.Ambiguous {
		return "", fmt.Errorf("multiple solution files found in %s; specify which one to use", d.SearchDir)
	}
	return result.SolutionPath, nil
}
