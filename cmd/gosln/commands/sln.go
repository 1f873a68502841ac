package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/willibrandon/gosln/cmd/gosln/output"
	"github.com/willibrandon/gosln/solution"
)

// NewSlnCommand creates the parent "sln" command with subcommands
func NewSlnCommand(console *output.Console) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sln",
		Short: "Inspect and edit solution files",
		Long: `Inspect and edit Visual Studio solution files (.sln) and solution filters (.slnf).

When --solution is omitted the single solution file in the current directory is used.`,
		Example: `  # Show the folder tree
  gosln sln list

  # Add a project under a folder
  gosln sln add-project src/Api/Api.csproj --folder src

  # Report project configurations the solution does not declare
  gosln sln check`,
	}

	cmd.PersistentFlags().StringP("solution", "s", "", "Path to the solution file")

	cmd.AddCommand(newSlnNewCommand(console))
	cmd.AddCommand(newSlnListCommand(console))
	cmd.AddCommand(newSlnAddProjectCommand(console))
	cmd.AddCommand(newSlnAddFolderCommand(console))
	cmd.AddCommand(newSlnNestCommand(console))
	cmd.AddCommand(newSlnCheckCommand(console))
	return cmd
}

func newSlnNewCommand(console *output.Console) *cobra.Command {
	return &cobra.Command{
		Use:   "new <PATH>",
		Short: "Create an empty solution file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if filepath.Ext(path) == "" {
				path += ".sln"
			}
			sol := solution.New(path)
			if err := sol.Save(path); err != nil {
				return err
			}
			console.Success("Created %s", sol.FilePath)
			return nil
		},
	}
}

func newSlnListCommand(console *output.Console) *cobra.Command {
	var pathsOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the folders and projects of a solution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := solutionPath(cmd)
			if err != nil {
				return err
			}
			s, err := newSession(cmd, console)
			if err != nil {
				return err
			}
			defer s.close(cmd.Context())

			sol, err := solution.OpenContext(cmd.Context(), path)
			if err != nil {
				return err
			}

			if pathsOnly {
				for _, p := range sol.ProjectPaths() {
					console.Println(p)
				}
				return nil
			}

			console.Header("%s", filepath.Base(sol.FilePath))
			console.Println(strings.Repeat("-", min(output.Width(console.Out(), 60), 60)))
			for _, f := range sol.RootFolders() {
				printFolder(console, f, 0)
			}
			for _, p := range sol.RootProjects() {
				console.Println(projectLine(p, 0))
			}
			if len(sol.Configurations) > 0 {
				names := make([]string, 0, len(sol.Configurations))
				for _, c := range sol.Configurations {
					names = append(names, c.String())
				}
				console.Detail("Configurations: %s", strings.Join(names, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&pathsOnly, "paths", false, "Print absolute project paths only")
	return cmd
}

func printFolder(console *output.Console, f *solution.Folder, depth int) {
	console.Printf("%s%s/\n", strings.Repeat("  ", depth), f.Name)
	for _, file := range f.Files {
		console.Detail("%s  - %s", strings.Repeat("  ", depth), file)
	}
	for _, sub := range f.SubFolders {
		printFolder(console, sub, depth+1)
	}
	for _, p := range f.Projects {
		console.Println(projectLine(p, depth+1))
	}
}

func projectLine(p *solution.Project, depth int) string {
	return fmt.Sprintf("%s%s (%s)", strings.Repeat("  ", depth), p.Name, p.Path)
}

func newSlnAddProjectCommand(console *output.Console) *cobra.Command {
	var folder, name, typeGUID string

	cmd := &cobra.Command{
		Use:   "add-project <PROJECT_PATH>",
		Short: "Add a project to the solution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := solutionPath(cmd)
			if err != nil {
				return err
			}
			sol, err := solution.LoadContext(cmd.Context(), path)
			if err != nil {
				return err
			}

			parent := ""
			if folder != "" {
				f := sol.GetFolderByName(folder)
				if f == nil {
					if f, err = sol.AddFolder(folder, ""); err != nil {
						return err
					}
				}
				parent = f.GUID
			}

			rel := solution.RelativeProjectPath(sol.SolutionDir, args[0])
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
			}
			proj, err := sol.AddProject(name, rel, typeGUID, parent)
			if err != nil {
				return err
			}
			if err := sol.Save(""); err != nil {
				return err
			}
			console.Success("Added project %s %s", proj.Name, proj.GUID)
			return nil
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "Solution folder to place the project in (created if missing)")
	cmd.Flags().StringVar(&name, "name", "", "Display name (defaults to the file name)")
	cmd.Flags().StringVar(&typeGUID, "type", "", "Project type GUID (defaults to SDK-style C#)")
	return cmd
}

func newSlnAddFolderCommand(console *output.Console) *cobra.Command {
	var parentName string

	cmd := &cobra.Command{
		Use:   "add-folder <NAME>",
		Short: "Add a solution folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := solutionPath(cmd)
			if err != nil {
				return err
			}
			sol, err := solution.LoadContext(cmd.Context(), path)
			if err != nil {
				return err
			}

			parent := ""
			if parentName != "" {
				f := sol.GetFolderByName(parentName)
				if f == nil {
					return fmt.Errorf("folder %q not found", parentName)
				}
				parent = f.GUID
			}
			f, err := sol.AddFolder(args[0], parent)
			if err != nil {
				return err
			}
			if err := sol.Save(""); err != nil {
				return err
			}
			console.Success("Added folder %s %s", f.Name, f.GUID)
			return nil
		},
	}

	cmd.Flags().StringVar(&parentName, "parent", "", "Parent folder name")
	return cmd
}

func newSlnNestCommand(console *output.Console) *cobra.Command {
	var unnest bool

	cmd := &cobra.Command{
		Use:   "nest <CHILD> [FOLDER]",
		Short: "Move a project or folder under a solution folder",
		Long: `Move a project or folder under a solution folder.

CHILD and FOLDER are names or GUIDs. With --root the child is moved back to the top level.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := solutionPath(cmd)
			if err != nil {
				return err
			}
			sol, err := solution.LoadContext(cmd.Context(), path)
			if err != nil {
				return err
			}

			child := resolveItem(sol, args[0])
			if child == "" {
				return fmt.Errorf("no project or folder named %q", args[0])
			}

			if unnest {
				sol.RemoveNesting(child)
			} else {
				if len(args) != 2 {
					return fmt.Errorf("a target folder is required unless --root is given")
				}
				parent := sol.GetFolderByName(args[1])
				if parent == nil {
					parent = sol.GetFolderByGUID(args[1])
				}
				if parent == nil {
					return fmt.Errorf("folder %q not found", args[1])
				}
				if err := sol.AddNesting(child, parent.GUID); err != nil {
					return err
				}
			}

			if err := sol.Save(""); err != nil {
				return err
			}
			console.Success("Updated %s", filepath.Base(sol.FilePath))
			return nil
		},
	}

	cmd.Flags().BoolVar(&unnest, "root", false, "Move the child to the solution root")
	return cmd
}

// resolveItem finds a project or folder GUID by name or GUID
func resolveItem(sol *solution.Solution, key string) string {
	if p := sol.GetProjectByName(key); p != nil {
		return p.GUID
	}
	if p := sol.GetProjectByGUID(key); p != nil {
		return p.GUID
	}
	if f := sol.GetFolderByName(key); f != nil {
		return f.GUID
	}
	if f := sol.GetFolderByGUID(key); f != nil {
		return f.GUID
	}
	return ""
}

func newSlnCheckCommand(console *output.Console) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report project configurations missing from the solution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := solutionPath(cmd)
			if err != nil {
				return err
			}
			sol, err := solution.OpenContext(cmd.Context(), path)
			if err != nil {
				return err
			}

			issues := sol.ValidateConfigurations()
			for _, issue := range issues {
				console.Warning("%s", issue)
			}
			if len(issues) > 0 {
				return fmt.Errorf("%d configuration issue(s) found", len(issues))
			}
			console.Success("%d project(s), %d configuration(s): no issues", len(sol.Projects), len(sol.Configurations))
			return nil
		},
	}
}
