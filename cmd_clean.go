package main

import (
	"github.com/spf13/cobra"

	"github.com/rungsiman/pypublish/pkg/cliutil"
	"github.com/rungsiman/pypublish/pkg/publish"
)

func init() {
	var distDir string
	cmd := &cobra.Command{
		Use:   "clean [flags]",
		Short: "Delete the build artifacts of previous runs",
		Long: "Delete the build/ scratch directory, the dist directory, and the " +
			"*.egg-info directories under the project root; the " +
			"'rm -rf build dist *.egg-info' at the top of every release script.  " +
			"Locations that don't exist are quietly fine.",
		Args: cliutil.WrapPositionalArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			proj, err := publish.DiscoverProject(".")
			if err != nil {
				return err
			}
			vals, err := publish.Resolve(ctx, proj, publish.Flags{DistDir: distDir})
			if err != nil {
				return err
			}
			return publish.Clean(ctx, proj, vals.DistDir)
		},
	}
	cmd.Flags().StringVar(&distDir, "dist-dir", "",
		"Clean `DIR` instead of ./dist")

	argparser.AddCommand(cmd)
}
