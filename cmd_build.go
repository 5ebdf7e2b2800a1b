package main

import (
	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/rungsiman/pypublish/pkg/cliutil"
	"github.com/rungsiman/pypublish/pkg/publish"
)

func init() {
	var flags struct {
		Python    string
		Backend   publish.Backend
		DistDir   string
		SDist     bool
		Wheel     bool
		SkipTools bool
	}
	cmd := &cobra.Command{
		Use:   "build [flags]",
		Short: "Build sdist and wheel distributions",
		Long: "Upgrade the build backend's own packages with pip, then run the " +
			"build: 'setup.py sdist bdist_wheel' for the setuptools backend, " +
			"'python -m build' for the PEP 517 backend.  The artifacts land in " +
			"the dist directory." +
			"\n\n" +
			"The default --backend=auto picks setuptools when the project has a " +
			"setup.py and the PEP 517 builder otherwise.",
		Args: cliutil.WrapPositionalArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			proj, err := publish.DiscoverProject(".")
			if err != nil {
				return err
			}
			vals, err := publish.Resolve(ctx, proj, publish.Flags{
				Python:  flags.Python,
				Backend: flags.Backend,
				DistDir: flags.DistDir,
			})
			if err != nil {
				return err
			}

			if flags.SkipTools {
				dlog.Debugf(ctx, "not upgrading %q packages", vals.Backend.Resolve(proj))
			} else if err := publish.UpgradeBuildTools(ctx, proj, vals); err != nil {
				return err
			}
			return publish.Build(ctx, proj, vals, publish.BuildOptions{
				SDist: flags.SDist,
				Wheel: flags.Wheel,
			})
		},
	}
	cmd.Flags().StringVar(&flags.Python, "python", "",
		"Python interpreter to run the build with (default \"python3\")")
	cmd.Flags().Var(&flags.Backend, "backend",
		"Build backend: \"auto\", \"setuptools\", or \"build\"")
	cmd.Flags().StringVar(&flags.DistDir, "dist-dir", "",
		"Write distributions to `DIR` instead of ./dist")
	cmd.Flags().BoolVar(&flags.SDist, "sdist", false,
		"Build only the source distribution (combinable with --wheel)")
	cmd.Flags().BoolVar(&flags.Wheel, "wheel", false,
		"Build only the wheel (combinable with --sdist)")
	cmd.Flags().BoolVar(&flags.SkipTools, "skip-tools", false,
		"Don't 'pip install --upgrade' the build backend first")

	argparser.AddCommand(cmd)
}
