package cli

import (
	"github.com/spf13/cobra"

	"github.com/willibrandon/gosln/cmd/gosln/output"
)

// NewRootCommand creates the gosln root command without subcommands
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gosln",
		Short: "Solution and project file toolkit",
		Long: `gosln reads and edits Visual Studio solutions and MSBuild project files,
and locates the newest build output of a project.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	cmd.PersistentFlags().String("config", "", "Settings file (default ./gosln.toml when present)")
	cmd.PersistentFlags().String("profile", "", "Named profile from the settings file")
	cmd.PersistentFlags().String("verbosity", "normal", "Display verbosity (quiet, normal, detailed, diagnostic)")
	cmd.PersistentFlags().String("trace", "none", "Trace exporter (none, stdout, otlp)")
	return cmd
}

var rootCmd = NewRootCommand()

// Console is the global console for CLI commands
var Console = output.DefaultConsole()

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetupVersion configures version information after variables are set
func SetupVersion() {
	rootCmd.SetVersionTemplate(GetFullVersion() + "\n")
	rootCmd.Version = GetVersion()
}

// AddCommand adds a command to the root command
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}
