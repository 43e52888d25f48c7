package graph

import (
	"fmt"
	"io"

	"github.com/LegacyCodeHQ/modgen/depgraph"
	gen "github.com/LegacyCodeHQ/modgen/generate"
	"github.com/dominikbraun/graph/draw"
	"github.com/spf13/cobra"
)

const (
	formatDOT  = "dot"
	formatText = "text"
)

type graphOptions struct {
	projectDir   string
	configFile   string
	registryFile string
	format       string
	between      []string
}

// NewCommand returns a new graph command instance.
func NewCommand() *cobra.Command {
	opts := &graphOptions{
		format: formatDOT,
	}

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the dependency graph of the project's sources.",
		Long: `Print the dependency graph of the project's sources without writing a plan.

An edge a -> b means a is compiled before b. Module interface units are shaded
blue, implementation units yellow.

Examples:
  modgen graph                               # DOT for the whole project
  modgen graph -f text                       # sources in build order
  modgen graph -w src/main.cpp,src/core.cppm # sources on paths between files
  modgen graph | dot -Tsvg > graph.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.projectDir, "directory", "C", ".", "Project directory")
	cmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "Project description (default: build.json, build.yaml or build.yml)")
	cmd.Flags().StringVar(&opts.registryFile, "registry", "", "HCL registry file overlaid on the built-in package registry")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "Output format (dot, text)")
	cmd.Flags().StringSliceVarP(&opts.between, "between", "w", nil, "Only show sources on dependency paths between these files (comma-separated)")

	return cmd
}

func runGraph(cmd *cobra.Command, opts *graphOptions) error {
	if opts.format != formatDOT && opts.format != formatText {
		return fmt.Errorf("unknown format: %s (valid options: %s, %s)", opts.format, formatDOT, formatText)
	}

	a, err := gen.Analyze(cmd.Context(), gen.Options{
		ProjectDir:   opts.projectDir,
		ConfigFile:   opts.configFile,
		RegistryFile: opts.registryFile,
	})
	if err != nil {
		return err
	}

	deps := a.Graph.Deps
	if len(opts.between) > 0 {
		resolver := newSourceResolver(a.ProjectDir, a.Descriptor.SourcePaths())
		targets := make([]string, 0, len(opts.between))
		for _, raw := range opts.between {
			target, err := resolver.Resolve(raw)
			if err != nil {
				return err
			}
			targets = append(targets, target)
		}
		if deps, err = a.Graph.Between(targets); err != nil {
			return err
		}
	}

	if opts.format == formatText {
		return writeText(cmd.OutOrStdout(), a.Graph, deps)
	}

	g, err := a.Graph.Drawable(deps)
	if err != nil {
		return err
	}
	return draw.DOT(g, cmd.OutOrStdout(), draw.GraphAttribute("rankdir", "LR"))
}

// writeText lists the sources in build order, each followed by the sources it waits for.
func writeText(w io.Writer, g *depgraph.SourceGraph, deps depgraph.DependencyGraph) error {
	for _, p := range g.BuildOrder {
		after, ok := deps[p]
		if !ok {
			continue
		}
		unit, _ := g.Unit(p)

		label := unit.Kind.String()
		if unit.ModuleName != "" {
			label += " " + unit.ModuleName
		}
		if _, err := fmt.Fprintf(w, "%s [%s] -> %s\n", p, label, unit.ObjectBaseName+".o"); err != nil {
			return err
		}
		for _, dep := range after {
			if _, err := fmt.Fprintf(w, "  after %s\n", dep); err != nil {
				return err
			}
		}
	}
	return nil
}
