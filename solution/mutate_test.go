package solution

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/gosln/errs"
)

var guidPattern = regexp.MustCompile(`^\{[0-9A-F]{8}-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{12}\}$`)

func TestAddProject_SeedsDefaults(t *testing.T) {
	sol := New("")

	proj, err := sol.AddProject("App", `src\App\App.csproj`, "", "")
	require.NoError(t, err)

	assert.Regexp(t, guidPattern, proj.GUID)
	assert.Equal(t, ProjectTypeCSProjectSDK, proj.TypeGUID)
	assert.Equal(t, "src/App/App.csproj", proj.Path)
	assert.Equal(t, []Configuration{DebugAnyCPU, ReleaseAnyCPU}, sol.Configurations)
	assert.Equal(t, []string{
		"Debug|AnyCPU.ActiveCfg",
		"Debug|AnyCPU.Build.0",
		"Release|AnyCPU.ActiveCfg",
		"Release|AnyCPU.Build.0",
	}, proj.ConfigurationMap.Keys())
	assert.Empty(t, sol.ValidateConfigurations())
}

func TestAddProject_KeepsDeclaredConfigurations(t *testing.T) {
	sol := New("")
	sol.AddConfiguration(Configuration{Name: "Debug", Platform: "x64"})
	sol.AddConfiguration(Configuration{Name: "debug", Platform: "X64"})

	proj, err := sol.AddProject("App", "App.csproj", "", "")
	require.NoError(t, err)

	assert.Len(t, sol.Configurations, 3)
	assert.True(t, proj.ConfigurationMap.Has("Debug|x64.Build.0"))
}

func TestAddProject_Validation(t *testing.T) {
	sol := New("")
	_, err := sol.AddProject("", "a.csproj", "", "")
	assert.True(t, errors.Is(err, errs.ErrValidation))

	_, err = sol.AddProject("A", " ", "", "")
	assert.True(t, errors.Is(err, errs.ErrValidation))

	_, err = sol.AddProject("A", "a.csproj", ProjectTypeSolutionFolder, "")
	assert.True(t, errors.Is(err, errs.ErrValidation))

	_, err = sol.AddProject("A", "a.csproj", "", "")
	require.NoError(t, err)
	_, err = sol.AddProject("A2", "A.CSPROJ", "", "")
	assert.True(t, errors.Is(err, errs.ErrValidation), "duplicate path is rejected")

	assert.Len(t, sol.Projects, 1, "invalid calls must not mutate the model")
	assert.Len(t, sol.Configurations, 2)
}

func TestAddFolder_NestsUnderParent(t *testing.T) {
	sol := New("")
	parent, err := sol.AddFolder("src", "")
	require.NoError(t, err)
	child, err := sol.AddFolder("libs", parent.GUID)
	require.NoError(t, err)
	proj, err := sol.AddProject("Core", "src/libs/Core/Core.csproj", "", child.GUID)
	require.NoError(t, err)

	assert.Equal(t, []*Folder{child}, parent.SubFolders)
	assert.Equal(t, []*Project{proj}, child.Projects)
	assert.Same(t, child, sol.GetParentFolder(proj.GUID))
	assert.Same(t, parent, sol.GetParentFolder(child.GUID))
	assert.Equal(t, child.GUID, sol.Nesting[proj.GUID])

	_, err = sol.AddFolder("LIBS", parent.GUID)
	assert.True(t, errors.Is(err, errs.ErrValidation), "sibling names are unique")
	_, err = sol.AddFolder("libs", "")
	assert.NoError(t, err, "same name at another level is allowed")
}

func TestAddNesting_Reparents(t *testing.T) {
	sol := New("")
	a, _ := sol.AddFolder("a", "")
	b, _ := sol.AddFolder("b", "")
	proj, _ := sol.AddProject("P", "P.csproj", "", a.GUID)

	require.NoError(t, sol.AddNesting(proj.GUID, b.GUID))

	assert.Empty(t, a.Projects, "child is detached from its previous parent")
	assert.Equal(t, []*Project{proj}, b.Projects)
	assert.Equal(t, b.GUID, proj.ParentFolderGUID)

	sol.RemoveNesting(proj.GUID)
	assert.Empty(t, b.Projects)
	assert.Empty(t, proj.ParentFolderGUID)
	assert.NotContains(t, sol.Nesting, proj.GUID)
}

func TestAddNesting_Rejects(t *testing.T) {
	sol := New("")
	a, _ := sol.AddFolder("a", "")
	b, _ := sol.AddFolder("b", a.GUID)
	proj, _ := sol.AddProject("P", "P.csproj", "", "")

	tests := []struct {
		name   string
		child  string
		parent string
	}{
		{"empty child", "", a.GUID},
		{"unknown child", NewGUID(), a.GUID},
		{"unknown parent", proj.GUID, NewGUID()},
		{"project as parent", a.GUID, proj.GUID},
		{"self", a.GUID, a.GUID},
		{"cycle", a.GUID, b.GUID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sol.AddNesting(tt.child, tt.parent)
			assert.True(t, errors.Is(err, errs.ErrValidation), "got %v", err)
		})
	}
	assert.Equal(t, a.GUID, b.ParentFolderGUID)
	assert.Empty(t, a.ParentFolderGUID)
}

func TestIdentifiersUnique(t *testing.T) {
	sol := New("")
	var parent string
	for i := 0; i < 50; i++ {
		f, err := sol.AddFolder(fmt.Sprintf("folder%d", i), parent)
		require.NoError(t, err)
		_, err = sol.AddProject(fmt.Sprintf("p%d", i), fmt.Sprintf("p%d/p%d.csproj", i, i), "", f.GUID)
		require.NoError(t, err)
		if i%5 == 0 {
			parent = f.GUID
		}
	}

	seen := make(map[string]bool)
	for _, p := range sol.Projects {
		assert.False(t, seen[p.GUID], "duplicate id %s", p.GUID)
		seen[p.GUID] = true
	}
	for _, f := range sol.Folders {
		assert.False(t, seen[f.GUID], "duplicate id %s", f.GUID)
		seen[f.GUID] = true
	}
	assert.Len(t, seen, 100)
}

func TestRemoveProject(t *testing.T) {
	sol := New("")
	f, _ := sol.AddFolder("f", "")
	p, _ := sol.AddProject("P", "P.csproj", "", f.GUID)

	assert.True(t, sol.RemoveProject(p.GUID))
	assert.False(t, sol.RemoveProject(p.GUID))
	assert.Empty(t, sol.Projects)
	assert.Empty(t, f.Projects)
	assert.Empty(t, sol.Nesting)
}

func TestValidateConfigurations(t *testing.T) {
	sol := New("")
	p, _ := sol.AddProject("P", "P.csproj", "", "")
	p.ConfigurationMap.Set("Staging|AnyCPU.ActiveCfg", "Release|AnyCPU")
	p.ConfigurationMap.Set("Staging|AnyCPU.Deploy.0", "Release|AnyCPU")

	issues := sol.ValidateConfigurations()
	require.Len(t, issues, 1)
	assert.Equal(t, "Staging|AnyCPU.ActiveCfg", issues[0].Key)
	assert.Contains(t, issues[0].String(), "no matching solution configuration")
}

func TestLookups_MissReturnNil(t *testing.T) {
	sol := New("")
	assert.Nil(t, sol.GetProjectByGUID("{00000000-0000-0000-0000-000000000000}"))
	assert.Nil(t, sol.GetProjectByName("nope"))
	assert.Nil(t, sol.GetProjectByPath("nope.csproj"))
	assert.Nil(t, sol.GetFolderByGUID(""))
	assert.Nil(t, sol.GetFolderByName("nope"))
	assert.Nil(t, sol.GetParentFolder("nope"))
	folders, projects := sol.GetItemsInFolder("nope")
	assert.Nil(t, folders)
	assert.Nil(t, projects)
}

func TestLookups_GUIDCaseAndBraces(t *testing.T) {
	sol := New("")
	p, _ := sol.AddProject("P", "P.csproj", "", "")

	bare := p.GUID[1 : len(p.GUID)-1]
	assert.Same(t, p, sol.GetProjectByGUID(bare))
	assert.Same(t, p, sol.GetProjectByGUID("{"+strings.ToLower(bare)+"}"))
}
