package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/willibrandon/gosln/cmd/gosln/output"
	"github.com/willibrandon/gosln/project"
)

// NewProjectCommand creates the parent "project" command with subcommands
func NewProjectCommand(console *output.Console) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Inspect and edit MSBuild project files",
		Long: `Inspect and edit MSBuild project files (.csproj, .fsproj, .vbproj).

When --project is omitted the single project file in the current directory is used.`,
		Example: `  # Show properties and references
  gosln project show

  # Switch to multi-targeting
  gosln project set TargetFrameworks "net6.0;net8.0"

  # Add a package (written to Directory.Packages.props when central management is on)
  gosln project add-package Serilog --version 3.1.1`,
	}

	cmd.PersistentFlags().StringP("project", "P", "", "Path to the project file or its directory")

	cmd.AddCommand(newProjectShowCommand(console))
	cmd.AddCommand(newProjectSetCommand(console))
	cmd.AddCommand(newProjectPresetCommand(console))
	cmd.AddCommand(newProjectAddPackageCommand(console))
	cmd.AddCommand(newProjectAddReferenceCommand(console))
	cmd.AddCommand(newProjectOutputsCommand(console))
	return cmd
}

func newProjectShowCommand(console *output.Console) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show project properties and references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := loadProject(cmd)
			if err != nil {
				return err
			}

			console.Header("%s", filepath.Base(proj.Path))
			if proj.IsSDKStyle() {
				console.Printf("Sdk: %s\n", proj.Sdk)
			} else {
				console.Printf("Legacy project (ToolsVersion %s)\n", proj.ToolsVersion)
			}
			if tfms := proj.TargetFrameworks(); len(tfms) > 0 {
				console.Printf("Target frameworks: %s\n", strings.Join(tfms, ", "))
			}
			console.Printf("Central package management: %t\n", proj.IsCentralPackageManagementEnabled())

			console.Header("Properties")
			for _, prop := range proj.Properties() {
				console.Printf("  %s = %s\n", prop.Name, prop.Value)
			}

			if len(proj.PackageReferences) > 0 {
				console.Header("Packages")
				for _, ref := range proj.PackageReferences {
					version := ref.Version
					if version == "" {
						version = "(central)"
					}
					console.Printf("  %s %s\n", ref.Include, version)
				}
			}
			if len(proj.ProjectReferences) > 0 {
				console.Header("Project references")
				for _, ref := range proj.ProjectReferences {
					console.Printf("  %s\n", ref.Include)
				}
			}
			if len(proj.AssemblyReferences) > 0 {
				console.Header("Assembly references")
				for _, ref := range proj.AssemblyReferences {
					console.Printf("  %s\n", ref.Include)
					console.Detail("    HintPath: %s", ref.HintPath)
				}
			}
			return nil
		},
	}
}

func newProjectSetCommand(console *output.Console) *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "set <NAME> [VALUE]",
		Short: "Set or remove a project property",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := loadProject(cmd)
			if err != nil {
				return err
			}

			name := args[0]
			switch {
			case remove:
				if !proj.RemoveProperty(name) {
					return fmt.Errorf("property %s is not set", name)
				}
			case len(args) != 2:
				return fmt.Errorf("a value is required unless --remove is given")
			case strings.EqualFold(name, "TargetFramework"):
				err = proj.SetTargetFramework(args[1])
			case strings.EqualFold(name, "TargetFrameworks"):
				err = proj.SetTargetFrameworks(strings.Split(args[1], ";"))
			default:
				err = proj.SetProperty(name, args[1])
			}
			if err != nil {
				return err
			}

			if err := proj.Save(); err != nil {
				return err
			}
			console.Success("Updated %s", filepath.Base(proj.Path))
			return nil
		},
	}

	cmd.Flags().BoolVar(&remove, "remove", false, "Remove the property instead of setting it")
	return cmd
}

func newProjectPresetCommand(console *output.Console) *cobra.Command {
	return &cobra.Command{
		Use:       "preset <NAME>",
		Short:     "Apply a platform preset (" + strings.Join(project.PresetNames(), ", ") + ")",
		Args:      cobra.ExactArgs(1),
		ValidArgs: project.PresetNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := loadProject(cmd)
			if err != nil {
				return err
			}
			if err := proj.ApplyPlatformPreset(args[0]); err != nil {
				return err
			}
			if err := proj.Save(); err != nil {
				return err
			}
			console.Success("Applied %s preset to %s", args[0], filepath.Base(proj.Path))
			return nil
		},
	}
}

func newProjectAddPackageCommand(console *output.Console) *cobra.Command {
	var version string

	cmd := &cobra.Command{
		Use:   "add-package <PACKAGE_ID>",
		Short: "Add or update a package reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := loadProject(cmd)
			if err != nil {
				return err
			}
			updated, err := proj.AddPackage(args[0], version)
			if err != nil {
				return err
			}
			if err := proj.Save(); err != nil {
				return err
			}

			verb := "Added"
			if updated {
				verb = "Updated"
			}
			if proj.IsCentralPackageManagementEnabled() {
				console.Success("%s %s (version managed centrally)", verb, args[0])
			} else {
				console.Success("%s %s %s", verb, args[0], version)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&version, "version", "v", "", "Package version")
	return cmd
}

func newProjectAddReferenceCommand(console *output.Console) *cobra.Command {
	return &cobra.Command{
		Use:   "add-reference <PROJECT_PATH>",
		Short: "Add a project-to-project reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := loadProject(cmd)
			if err != nil {
				return err
			}

			target, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(proj.Dir(), target)
			if err != nil {
				rel = target
			}
			existed, err := proj.AddProjectReference(rel)
			if err != nil {
				return err
			}
			if existed {
				console.Info("%s is already referenced", rel)
				return nil
			}
			if err := proj.Save(); err != nil {
				return err
			}
			console.Success("Added reference to %s", rel)
			return nil
		},
	}
}

func newProjectOutputsCommand(console *output.Console) *cobra.Command {
	var declared bool

	cmd := &cobra.Command{
		Use:   "outputs",
		Short: "List the output directories of a build",
		Long: `List the output directories of a build.

Declared OutputPath values are listed when present; otherwise the conventional
bin/ layouts that exist on disk. With --declared only OutputPath values are listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, console)
			if err != nil {
				return err
			}
			defer s.close(cmd.Context())

			proj, err := loadProject(cmd)
			if err != nil {
				return err
			}

			var dirs []string
			if declared {
				dirs = proj.OutputPaths(s.settings.Configuration, s.settings.Platform)
			} else {
				dirs = proj.CompiledOutputs(s.settings.Configuration, s.settings.Platform)
			}
			if len(dirs) == 0 {
				console.Warning("no output directories found")
				return nil
			}
			for _, dir := range dirs {
				console.Println(dir)
			}
			return nil
		},
	}

	cmd.Flags().StringP("configuration", "c", "", "Build configuration")
	cmd.Flags().StringP("platform", "p", "", "Build platform")
	cmd.Flags().BoolVar(&declared, "declared", false, "Only list OutputPath values declared in the project")
	return cmd
}
