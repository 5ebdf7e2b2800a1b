package main

import (
	"github.com/spf13/cobra"

	"github.com/rungsiman/pypublish/pkg/cliutil"
	"github.com/rungsiman/pypublish/pkg/publish"
	"github.com/rungsiman/pypublish/pkg/python/dist"
)

func init() {
	var flags struct {
		Repository    string
		RepositoryURL string
		Username      string
		Password      string
		SkipExisting  bool
		Check         bool
	}
	cmd := &cobra.Command{
		Use:   "upload [flags] DIST...",
		Short: "Upload distribution files to a package index",
		Long: "Upload distribution files over the same \"legacy\" upload API that " +
			"twine speaks, or into an s3:// bucket laid out as a PEP 503 simple " +
			"index." +
			"\n\n" +
			"The repository endpoint and credentials resolve from flags, " +
			"PYPUBLISH_* environment variables, the project's .pypublish.yml, " +
			"and ~/.pypirc, in that order.  Every file is validated locally " +
			"before the first byte goes out; --check=false skips that.",
		Args: cliutil.WrapPositionalArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			paths, err := expandDistArgs(args)
			if err != nil {
				return err
			}

			// Unlike build and release, upload works on bare files; the
			// working directory doesn't have to be a Python project for its
			// .pypublish.yml to be honored.
			var skipExisting *bool
			if cmd.Flags().Changed("skip-existing") {
				skipExisting = &flags.SkipExisting
			}
			vals, err := publish.Resolve(ctx, &publish.Project{Dir: "."}, publish.Flags{
				Repository:    flags.Repository,
				RepositoryURL: flags.RepositoryURL,
				Username:      flags.Username,
				Password:      flags.Password,
				SkipExisting:  skipExisting,
			})
			if err != nil {
				return err
			}

			files := make([]*dist.File, 0, len(paths))
			for _, path := range paths {
				var file *dist.File
				var err error
				if flags.Check {
					file, err = checkFile(path)
				} else {
					file, err = dist.Open(path)
				}
				if err != nil {
					return err
				}
				files = append(files, file)
			}
			return uploadFiles(ctx, vals, files)
		},
	}
	cmd.Flags().StringVarP(&flags.Repository, "repository", "r", "",
		"Use repository `NAME` from ~/.pypirc (default \"pypi\")")
	cmd.Flags().StringVar(&flags.RepositoryURL, "repository-url", "",
		"Upload to `URL` instead of the configured repository's endpoint")
	cmd.Flags().StringVar(&flags.Username, "username", "",
		"Authenticate as `USER` (\"__token__\" for PyPI API tokens)")
	cmd.Flags().StringVar(&flags.Password, "password", "",
		"Authenticate with `PASS`")
	cmd.Flags().BoolVar(&flags.SkipExisting, "skip-existing", false,
		"Treat files the repository already has as skips, not errors")
	cmd.Flags().BoolVar(&flags.Check, "check", true,
		"Validate the files locally before uploading anything")

	argparser.AddCommand(cmd)
}
