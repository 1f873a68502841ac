package project

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/gosln/errs"
)

func writeProject(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadProject_SDKStyle(t *testing.T) {
	tempDir := t.TempDir()
	projectPath := writeProject(t, tempDir, "Test.csproj", `<?xml version="1.0" encoding="utf-8"?>
<Project Sdk="Microsoft.NET.Sdk">
  <PropertyGroup>
    <TargetFramework>net8.0</TargetFramework>
  </PropertyGroup>
</Project>`)

	proj, err := LoadProject(projectPath)
	require.NoError(t, err)
	assert.Equal(t, projectPath, proj.Path)
	assert.True(t, proj.IsSDKStyle())
	assert.Equal(t, "Microsoft.NET.Sdk", proj.Sdk)
	assert.Equal(t, "net8.0", proj.TargetFramework())
	assert.False(t, proj.Modified())
}

func TestLoadProject_MultiTFM(t *testing.T) {
	proj, err := Parse(strings.NewReader(`<Project Sdk="Microsoft.NET.Sdk">
  <PropertyGroup>
    <TargetFrameworks>net6.0;net7.0; net8.0;</TargetFrameworks>
  </PropertyGroup>
</Project>`))
	require.NoError(t, err)
	assert.Equal(t, []string{"net6.0", "net7.0", "net8.0"}, proj.TargetFrameworks())
}

func TestParse_LegacyNamespace(t *testing.T) {
	proj, err := Parse(strings.NewReader(`<?xml version="1.0" encoding="utf-8"?>
<Project ToolsVersion="15.0" xmlns="http://schemas.microsoft.com/developer/msbuild/2003">
  <PropertyGroup>
    <OutputType>Exe</OutputType>
    <TargetFrameworkVersion>v4.7.2</TargetFrameworkVersion>
  </PropertyGroup>
  <ItemGroup>
    <Reference Include="System" />
    <Reference Include="Newtonsoft.Json, Version=13.0.0.0">
      <HintPath>..\packages\Newtonsoft.Json.13.0.3\lib\net45\Newtonsoft.Json.dll</HintPath>
      <Private>True</Private>
    </Reference>
    <Compile Include="Program.cs" />
    <None Include="App.config" CopyToOutputDirectory="PreserveNewest">
      <SubType>Designer</SubType>
    </None>
  </ItemGroup>
</Project>`))
	require.NoError(t, err)

	assert.False(t, proj.IsSDKStyle())
	assert.Equal(t, MSBuildNamespace, proj.Namespace)
	assert.Equal(t, "15.0", proj.ToolsVersion)
	assert.Equal(t, "Exe", proj.GetProperty("outputtype"))

	require.Len(t, proj.AssemblyReferences, 2)
	assert.Equal(t, `..\packages\Newtonsoft.Json.13.0.3\lib\net45\Newtonsoft.Json.dll`, proj.AssemblyReferences[1].HintPath)
	assert.Equal(t, "True", proj.AssemblyReferences[1].Private)

	require.Len(t, proj.Items, 2)
	none := proj.GetItem("none", "app.config")
	require.NotNil(t, none)
	assert.Equal(t, []Metadata{
		{Key: "CopyToOutputDirectory", Value: "PreserveNewest"},
		{Key: "SubType", Value: "Designer"},
	}, none.Metadata)
}

func TestParse_References(t *testing.T) {
	proj, err := Parse(strings.NewReader(`<Project Sdk="Microsoft.NET.Sdk">
  <ItemGroup>
    <PackageReference Include="Newtonsoft.Json" Version="13.0.3" />
    <PackageReference Include="coverlet.collector">
      <Version>6.0.0</Version>
      <PrivateAssets>all</PrivateAssets>
    </PackageReference>
    <ProjectReference Include="..\Core\Core.csproj" />
  </ItemGroup>
  <ItemGroup Condition="'$(TargetFramework)' == 'net48'">
    <PackageReference Include="System.ValueTuple" Version="4.5.0" />
  </ItemGroup>
</Project>`))
	require.NoError(t, err)

	require.Len(t, proj.PackageReferences, 3)
	assert.Equal(t, "6.0.0", proj.PackageReferences[1].Version)
	assert.Equal(t, "all", proj.PackageReferences[1].PrivateAssets)
	assert.Equal(t, "'$(TargetFramework)' == 'net48'", proj.PackageReferences[2].Condition)
	require.Len(t, proj.ProjectReferences, 1)
	assert.Equal(t, `..\Core\Core.csproj`, proj.ProjectReferences[0].Include)
}

func TestParse_LastUnconditionalWins(t *testing.T) {
	proj, err := Parse(strings.NewReader(`<Project>
  <PropertyGroup>
    <AssemblyName>First</AssemblyName>
  </PropertyGroup>
  <PropertyGroup Condition="'$(Configuration)' == 'Debug'">
    <AssemblyName>Conditional</AssemblyName>
  </PropertyGroup>
  <PropertyGroup>
    <AssemblyName>Second</AssemblyName>
  </PropertyGroup>
</Project>`))
	require.NoError(t, err)
	assert.Equal(t, "Second", proj.GetProperty("AssemblyName"))
	assert.Equal(t, []Property{{Name: "AssemblyName", Value: "Second"}}, proj.Properties())
	assert.Len(t, proj.PropertyGroups, 3)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse(strings.NewReader(`<Project><PropertyGroup></Project>`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrFormat))

	_, err = Parse(strings.NewReader(`<Solution />`))
	assert.True(t, errors.Is(err, errs.ErrFormat))

	_, err = Parse(strings.NewReader(""))
	assert.True(t, errors.Is(err, errs.ErrFormat))
}

func TestLoad_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "New", "New.csproj")

	_, err := Load(path, false, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	proj, err := Load(path, true, "Microsoft.NET.Sdk.Web")
	require.NoError(t, err)
	assert.Equal(t, "Microsoft.NET.Sdk.Web", proj.Sdk)
	assert.Equal(t, DefaultTargetFramework, proj.GetProperty("TargetFramework"))
	assert.Equal(t, DefaultOutputType, proj.GetProperty("OutputType"))
	assert.Empty(t, proj.PackageReferences)
	assert.Empty(t, proj.Items)
	assert.True(t, proj.Modified())
}

func TestLoad_MalformedHasPath(t *testing.T) {
	path := writeProject(t, t.TempDir(), "Bad.csproj", "<Project>")
	_, err := LoadProject(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrFormat))
	assert.Contains(t, err.Error(), path)
}

func TestSaveAs_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	proj := New("", "")
	require.NoError(t, proj.SetProperty("RootNamespace", "Contoso.App"))
	_, err := proj.AddPackageReference("Serilog", "3.1.1")
	require.NoError(t, err)
	_, err = proj.AddProjectReference("../Core/Core.csproj")
	require.NoError(t, err)
	_, err = proj.AddAssemblyReference("Legacy", `lib\Legacy.dll`)
	require.NoError(t, err)
	_, err = proj.AddItem("None", "appsettings.json", Metadata{Key: "CopyToOutputDirectory", Value: "Always"})
	require.NoError(t, err)
	proj.PropertyGroups = append(proj.PropertyGroups, &PropertyGroup{
		Condition:  "'$(Configuration)|$(Platform)'=='Release|AnyCPU'",
		Properties: []Property{{Name: "OutputPath", Value: `bin\Release\`}},
	})

	path := filepath.Join(dir, "nested", "App", "App.csproj")
	require.NoError(t, proj.SaveAs(path))
	assert.False(t, proj.Modified())
	assert.Equal(t, path, proj.Path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM))
	assert.Contains(t, string(data), `<?xml version="1.0" encoding="utf-8"?>`)

	loaded, err := LoadProject(path)
	require.NoError(t, err)
	assert.Equal(t, proj.Sdk, loaded.Sdk)
	assert.Equal(t, proj.Properties(), loaded.Properties())
	assert.Equal(t, "3.1.1", loaded.GetPackageReference("serilog").Version)
	require.Len(t, loaded.ProjectReferences, 1)
	assert.Equal(t, `..\Core\Core.csproj`, loaded.ProjectReferences[0].Include)
	assert.Equal(t, `lib\Legacy.dll`, loaded.AssemblyReferences[0].HintPath)
	v, ok := loaded.GetItem("None", "appsettings.json").GetMetadata("CopyToOutputDirectory")
	assert.True(t, ok)
	assert.Equal(t, "Always", v)
	require.Len(t, loaded.PropertyGroups, 2)
	assert.Equal(t, proj.PropertyGroups[1].Condition, loaded.PropertyGroups[1].Condition)
}

func TestMarshal_ItemOperations(t *testing.T) {
	proj, err := Parse(strings.NewReader(`<Project Sdk="Microsoft.NET.Sdk">
  <ItemGroup>
    <Compile Remove="Legacy\**" />
    <Compile Include="**/*.cs" Exclude="bin/**" />
    <None Update="appsettings.json" CopyToOutputDirectory="PreserveNewest" />
    <ProjectReference Remove="..\Old\Old.csproj" />
  </ItemGroup>
  <ItemGroup>
    <PackageReference Update="Newtonsoft.Json" Version="13.0.3" />
  </ItemGroup>
</Project>`))
	require.NoError(t, err)

	require.Len(t, proj.PackageReferences, 1)
	assert.Equal(t, OperationUpdate, proj.PackageReferences[0].Operation)
	assert.Equal(t, "Newtonsoft.Json", proj.PackageReferences[0].Include)
	assert.Nil(t, proj.GetPackageReference("Newtonsoft.Json"))
	assert.Empty(t, proj.ProjectReferences)
	assert.Nil(t, proj.GetItem("None", "appsettings.json"))
	require.NotNil(t, proj.FindItem("None", OperationUpdate, "appsettings.json"))
	require.NotNil(t, proj.FindItem("Compile", OperationRemove, `Legacy\**`))

	updated, err := proj.AddPackageReference("Newtonsoft.Json", "13.0.1")
	require.NoError(t, err)
	assert.False(t, updated)

	data, err := proj.Marshal()
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `<Compile Remove="Legacy\**">`)
	assert.Contains(t, out, `<Compile Include="**/*.cs" Exclude="bin/**">`)
	assert.Contains(t, out, `<None Update="appsettings.json">`)
	assert.Contains(t, out, `<CopyToOutputDirectory>PreserveNewest</CopyToOutputDirectory>`)
	assert.Contains(t, out, `<ProjectReference Remove="..\Old\Old.csproj">`)
	assert.Contains(t, out, `<PackageReference Update="Newtonsoft.Json" Version="13.0.3">`)
	assert.Contains(t, out, `<PackageReference Include="Newtonsoft.Json" Version="13.0.1">`)
	assert.NotContains(t, out, "<Remove>")
	assert.NotContains(t, out, "<Update>")
	assert.NotContains(t, out, "<Exclude>")

	again, err := Parse(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	require.NoError(t, err)
	assert.Equal(t, proj.Items, again.Items)
	assert.Equal(t, proj.PackageReferences, again.PackageReferences)
}

func TestSave_PreservesNamespace(t *testing.T) {
	dir := t.TempDir()
	path := writeProject(t, dir, "Legacy.csproj", `<Project ToolsVersion="15.0" xmlns="http://schemas.microsoft.com/developer/msbuild/2003">
  <PropertyGroup><OutputType>Exe</OutputType></PropertyGroup>
</Project>`)

	proj, err := LoadProject(path)
	require.NoError(t, err)
	require.NoError(t, proj.Save())

	again, err := LoadProject(path)
	require.NoError(t, err)
	assert.Equal(t, MSBuildNamespace, again.Namespace)
	assert.Equal(t, "15.0", again.ToolsVersion)
	assert.Equal(t, "Exe", again.GetProperty("OutputType"))
}

func TestSave_NoPath(t *testing.T) {
	err := New("", "").Save()
	assert.True(t, errors.Is(err, errs.ErrValidation))
}

func TestFindProjectFile(t *testing.T) {
	dir := t.TempDir()

	_, err := FindProjectFile(dir)
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	writeProject(t, dir, "App.fsproj", "<Project />")
	writeProject(t, dir, "notes.txt", "")
	path, err := FindProjectFile(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "App.fsproj"), path)

	writeProject(t, dir, "Other.csproj", "<Project />")
	_, err = FindProjectFile(dir)
	assert.True(t, errors.Is(err, errs.ErrValidation))
}
