package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/datawire/dlib/derror"
	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/rungsiman/pypublish/pkg/cliutil"
	"github.com/rungsiman/pypublish/pkg/publish"
	"github.com/rungsiman/pypublish/pkg/python/dist"
	"github.com/rungsiman/pypublish/pkg/python/pypa/legacy_upload"
	"github.com/rungsiman/pypublish/pkg/python/pypa/simple_repo_api"
	"github.com/rungsiman/pypublish/pkg/s3repo"
)

func init() {
	var flags struct {
		Python    string
		Backend   publish.Backend
		DistDir   string
		SDist     bool
		Wheel     bool
		SkipTools bool

		Repository    string
		RepositoryURL string
		Username      string
		Password      string
		SkipExisting  bool

		ViaTwine  bool
		DryRun    bool
		Verify    bool
		VerifyURL string
	}
	cmd := &cobra.Command{
		Use:   "release [flags]",
		Short: "Clean, build, check, and upload in one go",
		Long: "Run the whole release pipeline the way the classic release script " +
			"does: wipe old artifacts, upgrade the build tooling, build the " +
			"sdist and wheel, check them, and upload everything in the dist " +
			"directory to the package index.  The first failing step aborts " +
			"the run, and its error is the exit status." +
			"\n\n" +
			"With --via-twine the upload half is exactly the script's: " +
			"'pip install --upgrade twine' followed by 'twine upload'.",
		Args: cliutil.WrapPositionalArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			proj, err := publish.DiscoverProject(".")
			if err != nil {
				return err
			}
			var skipExisting *bool
			if cmd.Flags().Changed("skip-existing") {
				skipExisting = &flags.SkipExisting
			}
			vals, err := publish.Resolve(ctx, proj, publish.Flags{
				Python:        flags.Python,
				Backend:       flags.Backend,
				DistDir:       flags.DistDir,
				Repository:    flags.Repository,
				RepositoryURL: flags.RepositoryURL,
				Username:      flags.Username,
				Password:      flags.Password,
				SkipExisting:  skipExisting,
			})
			if err != nil {
				return err
			}

			// Catch missing credentials now, not after a long build.
			if !flags.DryRun && !flags.ViaTwine && !s3repo.IsS3URL(vals.RepositoryURL) {
				if err := vals.CheckCredentials(); err != nil {
					return err
				}
			}

			dlog.Infof(ctx, "step 1/5: clean")
			if err := publish.Clean(ctx, proj, vals.DistDir); err != nil {
				return err
			}

			if flags.SkipTools {
				dlog.Infof(ctx, "step 2/5: upgrade build tools (skipped)")
			} else {
				dlog.Infof(ctx, "step 2/5: upgrade build tools")
				if err := publish.UpgradeBuildTools(ctx, proj, vals); err != nil {
					return err
				}
			}

			dlog.Infof(ctx, "step 3/5: build")
			if err := publish.Build(ctx, proj, vals, publish.BuildOptions{
				SDist: flags.SDist,
				Wheel: flags.Wheel,
			}); err != nil {
				return err
			}

			paths, err := proj.DistFiles(vals.DistDir)
			if err != nil {
				return err
			}
			dlog.Infof(ctx, "step 4/5: check")
			files := make([]*dist.File, 0, len(paths))
			var errs derror.MultiError
			for _, path := range paths {
				file, err := checkFile(path)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				dlog.Infof(ctx, "%s: OK", file.Filename())
				files = append(files, file)
			}
			if len(errs) > 0 {
				return errs
			}

			if flags.DryRun {
				dlog.Infof(ctx, "step 5/5: upload (skipped, dry run)")
				return nil
			}

			if flags.ViaTwine {
				dlog.Infof(ctx, "step 5/5: upload via twine")
				if err := publish.UpgradeTwine(ctx, proj, vals); err != nil {
					return err
				}
				if err := publish.TwineUpload(ctx, proj, vals, paths); err != nil {
					return err
				}
			} else {
				dlog.Infof(ctx, "step 5/5: upload")
				if err := uploadFiles(ctx, vals, files); err != nil {
					return err
				}
			}

			if flags.Verify {
				return verifyPublished(ctx, vals, flags.VerifyURL, files)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.Python, "python", "",
		"Python interpreter to run the build with (default \"python3\")")
	cmd.Flags().Var(&flags.Backend, "backend",
		"Build backend: \"auto\", \"setuptools\", or \"build\"")
	cmd.Flags().StringVar(&flags.DistDir, "dist-dir", "",
		"Build into and upload from `DIR` instead of ./dist")
	cmd.Flags().BoolVar(&flags.SDist, "sdist", false,
		"Build only the source distribution (combinable with --wheel)")
	cmd.Flags().BoolVar(&flags.Wheel, "wheel", false,
		"Build only the wheel (combinable with --sdist)")
	cmd.Flags().BoolVar(&flags.SkipTools, "skip-tools", false,
		"Don't 'pip install --upgrade' the build backend first")
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
	cmd.Flags().BoolVar(&flags.ViaTwine, "via-twine", false,
		"Upload with the script's original tooling (pip install --upgrade twine; twine upload)")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false,
		"Stop after the check step; build but upload nothing")
	cmd.Flags().BoolVar(&flags.Verify, "verify", false,
		"After uploading, poll the index's simple API until it lists the files")
	cmd.Flags().StringVar(&flags.VerifyURL, "verify-url", "",
		"Simple-index base `URL` for --verify (default: derived for pypi and testpypi)")

	argparser.AddCommand(cmd)
}

// simpleURLs maps the upload endpoints we know the simple-index halves of;
// --verify against anything else needs --verify-url.
//
//nolint:gochecknoglobals // Would be 'const'.
var simpleURLs = map[string]string{
	legacy_upload.PyPIUploadURL:     simple_repo_api.PyPIBaseURL,
	legacy_upload.TestPyPIUploadURL: "https://test.pypi.org/simple/",
}

const (
	verifyTimeout  = 2 * time.Minute
	verifyInterval = 5 * time.Second
)

// verifyPublished polls the index's simple API until every uploaded filename
// is listed, or verifyTimeout lapses.  Indexes ingest uploads asynchronously;
// this is how a human "verifies" a release, minus the browser refreshing.
func verifyPublished(
	ctx context.Context,
	vals *publish.Values,
	verifyURL string,
	files []*dist.File,
) error {
	if verifyURL == "" {
		verifyURL = simpleURLs[vals.RepositoryURL]
	}
	if verifyURL == "" {
		return fmt.Errorf("don't know the simple-index URL that goes with %q; pass --verify-url",
			vals.RepositoryURL)
	}
	client := &simple_repo_api.Client{BaseURL: verifyURL}

	// Filenames not seen in the index yet, grouped by project page.
	missing := make(map[string]map[string]struct{})
	for _, file := range files {
		project := file.NormalizedName()
		if missing[project] == nil {
			missing[project] = make(map[string]struct{})
		}
		missing[project][file.Filename()] = struct{}{}
	}

	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()
	for {
		for project, names := range missing {
			links, err := client.ListProjectFiles(ctx, project)
			if err != nil {
				var httpErr *simple_repo_api.HTTPError
				if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
					// The project page doesn't exist until the index has
					// ingested its first file; keep waiting.
					continue
				}
				return err
			}
			for _, link := range links {
				delete(names, link.Text)
			}
			if len(names) == 0 {
				delete(missing, project)
			}
		}
		if len(missing) == 0 {
			dlog.Infof(ctx, "verified: the index lists every uploaded file")
			return nil
		}

		var still []string
		for _, names := range missing {
			for name := range names {
				still = append(still, name)
			}
		}
		sort.Strings(still)
		dlog.Debugf(ctx, "index does not list %s yet", strings.Join(still, ", "))

		select {
		case <-ctx.Done():
			return fmt.Errorf("index still does not list %s after %v",
				strings.Join(still, ", "), verifyTimeout)
		case <-time.After(verifyInterval):
		}
	}
}
