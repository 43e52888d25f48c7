package modules

import (
	"fmt"
	"strings"

	"github.com/LegacyCodeHQ/modgen/depgraph"
	"github.com/LegacyCodeHQ/modgen/depgraph/registry"
	"github.com/spf13/cobra"
)

type modulesOptions struct {
	registryFile string
	resolve      []string
}

// NewCommand returns a new modules command instance.
func NewCommand() *cobra.Command {
	opts := &modulesOptions{}

	cmd := &cobra.Command{
		Use:   "modules",
		Short: "List the external modules in the package registry",
		Long: `List the external modules a project can import, with the precompiled
interface, link library and direct dependencies of each.

With --resolve, print the transitive closure of the given modules instead.

Examples:
  modgen modules
  modgen modules --registry ./registry.hcl
  modgen modules --resolve uzleo.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModules(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.registryFile, "registry", "", "HCL registry file overlaid on the built-in package registry")
	cmd.Flags().StringSliceVar(&opts.resolve, "resolve", nil, "Print the closure of these modules (comma-separated)")

	return cmd
}

func runModules(cmd *cobra.Command, opts *modulesOptions) error {
	reg := registry.Default()
	if opts.registryFile != "" {
		overlay, err := registry.LoadFile(opts.registryFile)
		if err != nil {
			return err
		}
		reg = reg.Merge(overlay)
	}

	out := cmd.OutOrStdout()

	if len(opts.resolve) > 0 {
		resolved, err := depgraph.ResolveExternal(opts.resolve, reg)
		if err != nil {
			return err
		}
		for _, id := range resolved.Sorted() {
			if _, err := fmt.Fprintln(out, id); err != nil {
				return err
			}
		}
		return nil
	}

	for _, id := range reg.IDs() {
		info, _ := reg.Lookup(id)
		line := fmt.Sprintf("%s (%s)", id, info.InterfaceArtifactPath)
		if info.LinkLibraryName != "" {
			line += " -l" + info.LinkLibraryName
		}
		if len(info.DirectDependencies) > 0 {
			line += " -> " + strings.Join(info.DirectDependencies, ", ")
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}

	return nil
}
