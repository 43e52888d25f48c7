package generate

import (
	"fmt"
	"path/filepath"

	gen "github.com/LegacyCodeHQ/modgen/generate"
	"github.com/spf13/cobra"
)

type generateOptions struct {
	projectDir   string
	configFile   string
	registryFile string
	jobs         int
}

// NewCommand returns a new generate command instance.
func NewCommand() *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the Ninja build plan for a project.",
		Long: `Write <build-dir>/build.ninja and <build-dir>/compile_commands.json for a project.

The project description is read from build.json, build.yaml or build.yml in the
project directory unless --config names another file. Paths in the plan are
relative to the project directory, so run ninja from there.

Examples:
  modgen generate
  modgen generate -C ./examples/json
  modgen generate -c release.yaml --registry ./registry.hcl
  modgen generate -j 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.projectDir, "directory", "C", ".", "Project directory")
	cmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "Project description (default: build.json, build.yaml or build.yml)")
	cmd.Flags().StringVar(&opts.registryFile, "registry", "", "HCL registry file overlaid on the built-in package registry")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 0, "Number of sources scanned in parallel (default: number of CPUs)")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	res, err := gen.Run(cmd.Context(), gen.Options{
		ProjectDir:   opts.projectDir,
		ConfigFile:   opts.configFile,
		RegistryFile: opts.registryFile,
		Workers:      opts.jobs,
	})
	if err != nil {
		return err
	}

	plan, err := filepath.Rel(res.ProjectDir, res.PlanPath)
	if err != nil {
		plan = res.PlanPath
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s (%d sources, %d external modules)\n", res.PlanPath, len(res.Graph.Units), len(res.Resolved))
	fmt.Fprintf(out, "Build with: ninja -C %s -f %s\n", res.ProjectDir, filepath.ToSlash(plan))
	return nil
}
