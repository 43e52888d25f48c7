package cmd

import (
	"errors"
	"os"

	"github.com/LegacyCodeHQ/modgen/cmd/generate"
	"github.com/LegacyCodeHQ/modgen/cmd/graph"
	"github.com/LegacyCodeHQ/modgen/cmd/modules"
	"github.com/LegacyCodeHQ/modgen/cmd/watch"
	"github.com/LegacyCodeHQ/modgen/internal/buildlog"
	"github.com/LegacyCodeHQ/modgen/internal/failure"
	"github.com/spf13/cobra"
)

// version is set via build-time ldflags
var version = "dev"

// buildDate is set via build-time ldflags
var buildDate = "unknown"

// commit is set via build-time ldflags
var commit = "unknown"

// exitConfigError is the exit status for problems in the project description or registry.
const exitConfigError = 2

var rootCmd = NewRootCommand()

// NewRootCommand returns the modgen command with every subcommand registered.
func NewRootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "modgen",
		Short: "Generate Ninja build plans for C++ module projects",
		Long: `modgen reads a project description (build.json or build.yaml), resolves the
external modules it imports from the package registry, scans the project
sources for module declarations and imports, and writes a Ninja build plan.

Use 'modgen --help' to see all available commands, or 'modgen <command> --help'
for detailed information about a specific command.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := buildlog.New(cmd.ErrOrStderr(), verbose)
			cmd.SetContext(buildlog.WithLogger(cmd.Context(), logger))
		},
	}

	root.AddCommand(generate.NewCommand())
	root.AddCommand(graph.NewCommand())
	root.AddCommand(modules.NewCommand())
	root.AddCommand(watch.NewCommand())

	root.Annotations = map[string]string{
		"buildDate": buildDate,
		"commit":    commit,
	}

	// Customize version template to show additional build info
	root.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
Build date: {{printf "%s" (index .Annotations "buildDate")}}
Commit: {{printf "%s" (index .Annotations "commit")}}
`)

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log scanning and resolution details")

	return root
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	rootCmd.PrintErrln("Error:", err)
	if errors.Is(err, failure.ErrConfig) {
		os.Exit(exitConfigError)
	}
	os.Exit(1)
}
