package watch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	gen "github.com/LegacyCodeHQ/modgen/generate"
	"github.com/LegacyCodeHQ/modgen/internal/buildlog"
	"github.com/spf13/cobra"
)

type watchOptions struct {
	projectDir   string
	configFile   string
	registryFile string
	jobs         int
	patterns     []string
}

// DefaultPatterns select the files whose changes trigger regeneration, relative to
// the project directory.
var DefaultPatterns = []string{
	"**/*.{cpp,cppm,cc,cxx,ixx,mpp,c++m}",
	"**/*.{h,hh,hpp,hxx,inl}",
	"**/*.hcl",
	"build.{json,yaml,yml}",
	".env",
}

// NewCommand returns a new watch command instance.
func NewCommand() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate the build plan whenever sources or configuration change",
		Long: `Generate the build plan, then watch the project directory and regenerate it
whenever a source, header, project description, registry file or .env changes.
Failed regenerations are reported and watching continues.

Examples:
  modgen watch
  modgen watch -C ./examples/json
  modgen watch --pattern 'src/**/*.cppm'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.projectDir, "directory", "C", ".", "Project directory")
	cmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "Project description (default: build.json, build.yaml or build.yml)")
	cmd.Flags().StringVar(&opts.registryFile, "registry", "", "HCL registry file overlaid on the built-in package registry")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 0, "Number of sources scanned in parallel (default: number of CPUs)")
	cmd.Flags().StringSliceVar(&opts.patterns, "pattern", DefaultPatterns, "Glob patterns of files that trigger regeneration (comma-separated)")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *watchOptions) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	w, err := newProjectWatcher(opts)
	if err != nil {
		return err
	}

	if err := w.regenerate(ctx); err != nil {
		buildlog.FromContext(ctx).Error("initial generation failed", "error", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s\n", w.projectDir)
	fmt.Fprintf(cmd.OutOrStdout(), "Press Ctrl+C to stop\n")

	return w.run(ctx)
}

func (w *projectWatcher) options() gen.Options {
	return gen.Options{
		ProjectDir:   w.projectDir,
		ConfigFile:   w.opts.configFile,
		RegistryFile: w.opts.registryFile,
		Workers:      w.opts.jobs,
	}
}

// regenerate runs one generation. Runs never overlap.
func (w *projectWatcher) regenerate(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := w.generate(ctx, w.options())
	return err
}
