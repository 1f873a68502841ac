package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/gosln/cmd/gosln/cli"
	"github.com/willibrandon/gosln/cmd/gosln/output"
	"github.com/willibrandon/gosln/project"
	"github.com/willibrandon/gosln/solution"
)

// run executes gosln with args and returns stdout and stderr
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	console := output.NewConsole(&stdout, &stderr, output.VerbosityNormal)
	console.SetColors(false)

	root := cli.NewRootCommand()
	root.AddCommand(NewVersionCommand(console))
	root.AddCommand(NewSlnCommand(console))
	root.AddCommand(NewProjectCommand(console))
	root.AddCommand(NewArtifactCommand(console))
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sdkProject = `<Project Sdk="Microsoft.NET.Sdk">
  <PropertyGroup>
    <TargetFramework>net8.0</TargetFramework>
  </PropertyGroup>
</Project>
`

func TestVersion(t *testing.T) {
	stdout, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "gosln version")
}

func TestSlnWorkflow(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, "src", "Api", "Api.csproj"), sdkProject)
	writeFile(t, filepath.Join(dir, "tests", "Api.Tests", "Api.Tests.csproj"), sdkProject)

	_, _, err := run(t, "sln", "new", "App")
	require.NoError(t, err)

	_, _, err = run(t, "sln", "add-project", filepath.Join("src", "Api", "Api.csproj"), "--folder", "src")
	require.NoError(t, err)
	_, _, err = run(t, "sln", "add-project", filepath.Join("tests", "Api.Tests", "Api.Tests.csproj"))
	require.NoError(t, err)
	_, _, err = run(t, "sln", "add-folder", "tests")
	require.NoError(t, err)
	_, _, err = run(t, "sln", "nest", "Api.Tests", "tests")
	require.NoError(t, err)

	sol, err := solution.Load(filepath.Join(dir, "App.sln"))
	require.NoError(t, err)
	require.Len(t, sol.Projects, 2)
	assert.Equal(t, "src/Api/Api.csproj", sol.GetProjectByName("Api").Path)
	assert.Equal(t, "tests", sol.GetParentFolder(sol.GetProjectByName("Api.Tests").GUID).Name)

	stdout, _, err := run(t, "sln", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "src/\n  Api (src/Api/Api.csproj)\n")
	assert.Contains(t, stdout, "tests/\n  Api.Tests (tests/Api.Tests/Api.Tests.csproj)\n")

	stdout, _, err = run(t, "sln", "list", "--paths")
	require.NoError(t, err)
	assert.Contains(t, stdout, filepath.Join(dir, "src", "Api", "Api.csproj"))

	stdout, _, err = run(t, "sln", "check")
	require.NoError(t, err)
	assert.Contains(t, stdout, "no issues")

	_, _, err = run(t, "sln", "nest", "Missing", "tests")
	assert.Error(t, err)
}

func TestProjectCommands(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	projPath := writeFile(t, filepath.Join(dir, "App.csproj"), sdkProject)
	writeFile(t, filepath.Join(dir, "..", filepath.Base(dir)+"-lib", "Lib.csproj"), sdkProject)

	_, _, err := run(t, "project", "set", "Nullable", "enable")
	require.NoError(t, err)
	_, _, err = run(t, "project", "set", "TargetFrameworks", "net6.0;net8.0")
	require.NoError(t, err)
	_, _, err = run(t, "project", "add-package", "Serilog", "--version", "3.1.1")
	require.NoError(t, err)
	_, _, err = run(t, "project", "add-reference", filepath.Join("..", filepath.Base(dir)+"-lib", "Lib.csproj"))
	require.NoError(t, err)

	proj, err := project.LoadProject(projPath)
	require.NoError(t, err)
	assert.Equal(t, "enable", proj.GetProperty("Nullable"))
	assert.Equal(t, []string{"net6.0", "net8.0"}, proj.TargetFrameworks())
	assert.Empty(t, proj.TargetFramework())
	assert.Equal(t, "3.1.1", proj.GetPackageReference("Serilog").Version)
	require.Len(t, proj.ProjectReferences, 1)

	stdout, _, err := run(t, "project", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Target frameworks: net6.0, net8.0")
	assert.Contains(t, stdout, "Serilog 3.1.1")

	_, _, err = run(t, "project", "set", "Nullable", "--remove")
	require.NoError(t, err)
	_, _, err = run(t, "project", "set", "Nullable", "--remove")
	assert.Error(t, err)

	_, _, err = run(t, "project", "preset", "android")
	assert.Error(t, err)
}

func TestProjectOutputs(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, "App.csproj"), sdkProject)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bin", "Release"), 0o755))

	stdout, _, err := run(t, "project", "outputs", "-c", "Release")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bin", "Release")+"\n"+filepath.Join(dir, "bin")+"\n", stdout)

	_, stderr, err := run(t, "project", "outputs", "--declared")
	require.NoError(t, err)
	assert.Contains(t, stderr, "no output directories found")
}

func TestArtifactFindAndLink(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, "App.csproj"), sdkProject)

	old := writeFile(t, filepath.Join(dir, "bin", "Debug", "net8.0", "App.dll"), "old")
	newest := writeFile(t, filepath.Join(dir, "bin", "Release", "net8.0", "App.dll"), "new")
	writeFile(t, filepath.Join(dir, "bin", "Release", "net8.0", "App.pdb"), "pdb")
	stamp := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(old, stamp, stamp))
	require.NoError(t, os.Chtimes(newest, stamp.Add(time.Hour), stamp.Add(time.Hour)))

	stdout, _, err := run(t, "artifact", "find")
	require.NoError(t, err)
	assert.Equal(t, newest+"\n", stdout)

	stdout, _, err = run(t, "artifact", "find", "-c", "Debug", "--exclude", "App.dll", "--include", "*.dll")
	assert.Error(t, err)
	assert.Empty(t, stdout)

	_, _, err = run(t, "artifact", "find", "--subfolders=false")
	assert.Error(t, err, "binaries sit below the candidate directories")

	target := filepath.Join(dir, "deploy")
	_, _, err = run(t, "artifact", "link", target, "--link-mode", "copy")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(target, "App.dll"))
	assert.FileExists(t, filepath.Join(target, "App.pdb"))

	_, _, err = run(t, "artifact", "link", target, "--link-mode", "hardlink")
	assert.Error(t, err)
}

func TestArtifactFind_Profile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, "App.csproj"), sdkProject)
	writeFile(t, filepath.Join(dir, "gosln.toml"), "[profiles.tests]\ninclude = [\"*.Tests.dll\"]\n")
	app := writeFile(t, filepath.Join(dir, "bin", "Debug", "App.dll"), "app")
	tests := writeFile(t, filepath.Join(dir, "bin", "Debug", "App.Tests.dll"), "tests")
	stamp := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(tests, stamp, stamp))
	require.NoError(t, os.Chtimes(app, stamp.Add(time.Minute), stamp.Add(time.Minute)))

	stdout, _, err := run(t, "artifact", "find")
	require.NoError(t, err)
	assert.Equal(t, app+"\n", stdout)

	stdout, _, err = run(t, "artifact", "find", "--profile", "tests")
	require.NoError(t, err)
	assert.Equal(t, tests+"\n", stdout)
}
