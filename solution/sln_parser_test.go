package solution

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/gosln/errs"
)

const sampleSolution = `
Microsoft Visual Studio Solution File, Format Version 12.00
# Visual Studio Version 17
VisualStudioVersion = 17.0.31903.59
MinimumVisualStudioVersion = 10.0.40219.1
Project("{2150E333-8FDC-42A3-9474-1A3956D46DE8}") = "src", "src", "{AAAAAAAA-0000-0000-0000-000000000001}"
	ProjectSection(SolutionItems) = preProject
		README.md = README.md
	EndProjectSection
EndProject
Project("{9A19103F-16F7-4668-BE54-9A1E7A4F7556}") = "WebApi", "src\WebApi\WebApi.csproj", "{bbbbbbbb-0000-0000-0000-000000000002}"
EndProject
Project("{9A19103F-16F7-4668-BE54-9A1E7A4F7556}") = "DataLayer", "src\DataLayer\DataLayer.csproj", "{BBBBBBBB-0000-0000-0000-000000000003}"
EndProject
Global
	GlobalSection(SolutionConfigurationPlatforms) = preSolution
		Debug|Any CPU = Debug|Any CPU
		Release|Any CPU = Release|Any CPU
	EndGlobalSection
	GlobalSection(ProjectConfigurationPlatforms) = postSolution
		{BBBBBBBB-0000-0000-0000-000000000002}.Debug|Any CPU.ActiveCfg = Debug|Any CPU
		{BBBBBBBB-0000-0000-0000-000000000002}.Debug|Any CPU.Build.0 = Debug|Any CPU
		{BBBBBBBB-0000-0000-0000-000000000003}.Release|Any CPU.ActiveCfg = Release|Any CPU
		{CCCCCCCC-0000-0000-0000-000000000009}.Debug|Any CPU.ActiveCfg = Debug|Any CPU
	EndGlobalSection
	GlobalSection(SolutionProperties) = preSolution
		HideSolutionNode = FALSE
	EndGlobalSection
	GlobalSection(NestedProjects) = preSolution
		{BBBBBBBB-0000-0000-0000-000000000002} = {AAAAAAAA-0000-0000-0000-000000000001}
	EndGlobalSection
	GlobalSection(ExtensibilityGlobals) = postSolution
		SolutionGuid = {DDDDDDDD-0000-0000-0000-000000000004}
	EndGlobalSection
EndGlobal
`

func TestParse_Sample(t *testing.T) {
	sol, err := ParseString(sampleSolution)
	require.NoError(t, err)

	assert.Equal(t, "12.00", sol.FormatVersion)
	assert.Equal(t, "17.0.31903.59", sol.VisualStudioVersion)
	assert.Equal(t, "10.0.40219.1", sol.MinimumVisualStudioVersion)
	assert.Len(t, sol.Projects, 2)
	assert.Len(t, sol.Folders, 1)
	assert.Equal(t, "{DDDDDDDD-0000-0000-0000-000000000004}", sol.SolutionGUID)
	assert.Equal(t, []Property{{Key: "HideSolutionNode", Value: "FALSE"}}, sol.Properties)

	webAPI := sol.GetProjectByName("webapi")
	require.NotNil(t, webAPI)
	assert.Equal(t, "src/WebApi/WebApi.csproj", webAPI.Path)
	assert.Equal(t, "{BBBBBBBB-0000-0000-0000-000000000002}", webAPI.GUID, "GUIDs are upper-cased")

	v, ok := webAPI.ConfigurationMap.Get("Debug|Any CPU.Build.0")
	assert.True(t, ok)
	assert.Equal(t, "Debug|Any CPU", v)

	folder := sol.GetFolderByName("src")
	require.NotNil(t, folder)
	assert.Equal(t, []string{"README.md"}, folder.Files)

	assert.Equal(t, []Configuration{
		{Name: "Debug", Platform: "Any CPU"},
		{Name: "Release", Platform: "Any CPU"},
	}, sol.Configurations)
}

func TestParse_UnknownProjectConfigurationDiscarded(t *testing.T) {
	sol, err := ParseString(sampleSolution)
	require.NoError(t, err)

	assert.Nil(t, sol.GetProjectByGUID("{CCCCCCCC-0000-0000-0000-000000000009}"))
	total := 0
	for _, p := range sol.Projects {
		total += p.ConfigurationMap.Len()
	}
	assert.Equal(t, 3, total)
}

func TestParse_FolderNestingEndToEnd(t *testing.T) {
	text := `Project("{2150E333-8FDC-42A3-9474-1A3956D46DE8}") = "Libraries", "Libraries", "{11111111-1111-1111-1111-111111111111}"
EndProject
Project("{9A19103F-16F7-4668-BE54-9A1E7A4F7556}") = "Core", "Core\Core.csproj", "{22222222-2222-2222-2222-222222222222}"
EndProject
Global
	GlobalSection(NestedProjects) = preSolution
		{22222222-2222-2222-2222-222222222222} = {11111111-1111-1111-1111-111111111111}
	EndGlobalSection
EndGlobal
`
	sol, err := ParseString(text)
	require.NoError(t, err)

	folder := sol.GetFolderByGUID("{11111111-1111-1111-1111-111111111111}")
	require.NotNil(t, folder)
	require.Len(t, folder.Projects, 1)
	assert.Equal(t, "Core", folder.Projects[0].Name)

	parent := sol.GetParentFolder("{22222222-2222-2222-2222-222222222222}")
	require.NotNil(t, parent)
	assert.Same(t, folder, parent)
}

func TestParse_LenientNesting(t *testing.T) {
	text := `Project("{2150E333-8FDC-42A3-9474-1A3956D46DE8}") = "F", "F", "{11111111-1111-1111-1111-111111111111}"
EndProject
Project("{9A19103F-16F7-4668-BE54-9A1E7A4F7556}") = "P", "P\P.csproj", "{22222222-2222-2222-2222-222222222222}"
EndProject
Global
	GlobalSection(NestedProjects) = preSolution
		{99999999-9999-9999-9999-999999999999} = {11111111-1111-1111-1111-111111111111}
		{22222222-2222-2222-2222-222222222222} = {88888888-8888-8888-8888-888888888888}
	EndGlobalSection
EndGlobal
`
	sol, err := ParseString(text)
	require.NoError(t, err)

	folders, projects := sol.GetItemsInFolder("{11111111-1111-1111-1111-111111111111}")
	assert.Empty(t, folders)
	assert.Empty(t, projects)
	assert.Nil(t, sol.GetParentFolder("{22222222-2222-2222-2222-222222222222}"))
	assert.Len(t, sol.RootProjects(), 1)
}

func TestParse_CyclicNestingIgnored(t *testing.T) {
	text := `Project("{2150E333-8FDC-42A3-9474-1A3956D46DE8}") = "A", "A", "{11111111-1111-1111-1111-111111111111}"
EndProject
Project("{2150E333-8FDC-42A3-9474-1A3956D46DE8}") = "B", "B", "{22222222-2222-2222-2222-222222222222}"
EndProject
Global
	GlobalSection(NestedProjects) = preSolution
		{11111111-1111-1111-1111-111111111111} = {22222222-2222-2222-2222-222222222222}
		{22222222-2222-2222-2222-222222222222} = {11111111-1111-1111-1111-111111111111}
	EndGlobalSection
EndGlobal
`
	sol, err := ParseString(text)
	require.NoError(t, err)

	for _, f := range sol.Folders {
		assert.Empty(t, f.ParentFolderGUID)
		assert.Empty(t, f.SubFolders)
	}
}

func TestParse_OrderIndependent(t *testing.T) {
	text := `Global
	GlobalSection(ProjectConfigurationPlatforms) = postSolution
		{22222222-2222-2222-2222-222222222222}.Debug|x64.ActiveCfg = Debug|x64
	EndGlobalSection
EndGlobal
Project("{9A19103F-16F7-4668-BE54-9A1E7A4F7556}") = "Late", "Late.csproj", "{22222222-2222-2222-2222-222222222222}"
`
	sol, err := ParseString(text)
	require.NoError(t, err)

	p := sol.GetProjectByName("Late")
	require.NotNil(t, p, "project without EndProject is still recorded")
	assert.True(t, p.ConfigurationMap.Has("debug|X64.activecfg"))
}

func TestParse_EmptyAndGarbage(t *testing.T) {
	sol, err := ParseString("this is not a solution\nat all = really\n")
	require.NoError(t, err)
	assert.Empty(t, sol.Projects)
	assert.Empty(t, sol.Folders)
	assert.Empty(t, sol.Configurations)
}

func TestParse_UTF8BOM(t *testing.T) {
	text := "\uFEFFMicrosoft Visual Studio Solution File, Format Version 12.00\r\n"
	sol, err := ParseString(text)
	require.NoError(t, err)
	assert.Equal(t, "12.00", sol.FormatVersion)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.sln"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte(sampleSolution), 0o644))
	_, err = Load(txt)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrFormat))
	assert.False(t, errors.Is(err, errs.ErrNotFound))
}

func TestLoad_SetsPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "App.sln")
	require.NoError(t, os.WriteFile(path, []byte(sampleSolution), 0o644))

	sol, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, sol.SolutionDir)
	assert.Equal(t, []string{
		filepath.Join(dir, "src", "WebApi", "WebApi.csproj"),
		filepath.Join(dir, "src", "DataLayer", "DataLayer.csproj"),
	}, sol.ProjectPaths())

	p := sol.GetProjectByPath(filepath.Join(dir, "src", "DataLayer", "DataLayer.csproj"))
	require.NotNil(t, p)
	assert.Equal(t, "DataLayer", p.Name)
}

func TestBuildHierarchy_Idempotent(t *testing.T) {
	sol, err := ParseString(sampleSolution)
	require.NoError(t, err)

	sol.BuildHierarchy()
	sol.BuildHierarchy()

	folder := sol.GetFolderByName("src")
	require.NotNil(t, folder)
	assert.Len(t, folder.Projects, 1, "rebuilding must not append duplicates")
}

func TestSplitConfigurationKey(t *testing.T) {
	tests := []struct {
		key    string
		cfg    Configuration
		suffix string
	}{
		{"Debug|Any CPU.ActiveCfg", Configuration{"Debug", "Any CPU"}, "ActiveCfg"},
		{"Release|x64.Build.0", Configuration{"Release", "x64"}, "Build.0"},
		{"Debug.ActiveCfg", Configuration{Name: "Debug"}, "ActiveCfg"},
		{"Debug|x86", Configuration{"Debug", "x86"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg, suffix := SplitConfigurationKey(tt.key)
			assert.Equal(t, tt.cfg, cfg)
			assert.Equal(t, tt.suffix, suffix)
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		`src\App\App.csproj`:   "src/App/App.csproj",
		`src\\App//App.csproj`: "src/App/App.csproj",
		`\\server\share\a.sln`: "//server/share/a.sln",
		"":                     "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePath(in), "NormalizePath(%q)", in)
	}
	assert.True(t, strings.HasPrefix(ToSolutionPath("a/b/c.csproj"), `a\b`))
}
