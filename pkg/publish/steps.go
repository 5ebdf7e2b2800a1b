// Copyright (C) 2025-2026  Rungsiman Nararatwong
//
// SPDX-License-Identifier: BSD-3-Clause

package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/datawire/dlib/dexec"
	"github.com/datawire/dlib/dlog"
)

// PythonExe resolves the Python interpreter to run build steps with.  A
// configured interpreter must exist; only the built-in default "python3"
// falls back to plain "python", for systems that ship just the unversioned
// name.
func (vals *Values) PythonExe() (string, error) {
	exe, err := dexec.LookPath(vals.Python)
	if err == nil {
		return exe, nil
	}
	if vals.Python == "python3" {
		if exe, fallbackErr := dexec.LookPath("python"); fallbackErr == nil {
			return exe, nil
		}
	}
	return "", err
}

// run executes an external command in the project directory.  Both output
// streams go to our stderr so that our own stdout stays clean for data.
func run(ctx context.Context, proj *Project, exe string, args ...string) error {
	cmd := dexec.CommandContext(ctx, exe, args...)
	cmd.Dir = proj.Dir
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Clean removes the build scratch directory, the dist directory, and
// setuptools' *.egg-info litter.  Equivalent to the traditional
// `rm -rf build dist *.egg-info`.
func Clean(ctx context.Context, proj *Project, distDir string) error {
	targets := []string{
		filepath.Join(proj.Dir, "build"),
		proj.DistDir(distDir),
	}
	eggInfos, err := proj.EggInfoDirs()
	if err != nil {
		return err
	}
	targets = append(targets, eggInfos...)

	for _, target := range targets {
		if _, err := os.Stat(target); os.IsNotExist(err) {
			continue
		}
		dlog.Infof(ctx, "removing %s", target)
		if err := os.RemoveAll(target); err != nil {
			return err
		}
	}
	return nil
}

// buildToolPackages returns what UpgradeBuildTools needs to `pip install
// --upgrade` for a backend.
func buildToolPackages(backend Backend) []string {
	if backend == BackendBuild {
		return []string{"build"}
	}
	return []string{"setuptools", "wheel"}
}

// UpgradeBuildTools upgrades the packages the build backend runs on, so that
// the build doesn't fail on a stale setuptools.
func UpgradeBuildTools(ctx context.Context, proj *Project, vals *Values) error {
	exe, err := vals.PythonExe()
	if err != nil {
		return err
	}
	args := append([]string{"-m", "pip", "install", "--upgrade"},
		buildToolPackages(vals.Backend.Resolve(proj))...)
	return run(ctx, proj, exe, args...)
}

// BuildOptions restrict what Build produces.  Neither field set means both.
type BuildOptions struct {
	SDist bool
	Wheel bool
}

func (opts BuildOptions) sdist() bool { return opts.SDist || !opts.Wheel }
func (opts BuildOptions) wheel() bool { return opts.Wheel || !opts.SDist }

// buildArgs returns the build step's argv, sans the interpreter itself.
func buildArgs(backend Backend, distDir string, opts BuildOptions) []string {
	switch backend {
	case BackendBuild:
		args := []string{"-m", "build"}
		// Bare `python -m build` already means "sdist and wheel"; only
		// restrictions need flags.
		if !(opts.sdist() && opts.wheel()) {
			if opts.sdist() {
				args = append(args, "--sdist")
			}
			if opts.wheel() {
				args = append(args, "--wheel")
			}
		}
		if distDir != "dist" {
			args = append(args, "--outdir", distDir)
		}
		return args
	default: // BackendSetuptools
		args := []string{"setup.py"}
		if opts.sdist() {
			args = append(args, "sdist")
			if distDir != "dist" {
				args = append(args, "--dist-dir", distDir)
			}
		}
		if opts.wheel() {
			args = append(args, "bdist_wheel")
			if distDir != "dist" {
				args = append(args, "--dist-dir", distDir)
			}
		}
		return args
	}
}

// Build runs the build tool to produce the distributions.
func Build(ctx context.Context, proj *Project, vals *Values, opts BuildOptions) error {
	backend := vals.Backend.Resolve(proj)
	if backend == BackendSetuptools && !proj.HasSetupPy {
		return fmt.Errorf("backend %q needs a setup.py, and %q has none (try --backend=build)",
			backend, proj.Dir)
	}
	exe, err := vals.PythonExe()
	if err != nil {
		return err
	}
	return run(ctx, proj, exe, buildArgs(backend, vals.DistDir, opts)...)
}

// UpgradeTwine upgrades twine itself; the first half of the --via-twine
// upload path.
func UpgradeTwine(ctx context.Context, proj *Project, vals *Values) error {
	exe, err := vals.PythonExe()
	if err != nil {
		return err
	}
	return run(ctx, proj, exe, "-m", "pip", "install", "--upgrade", "twine")
}

// twineUploadArgs returns the `twine upload` argv, sans the interpreter.
// Credentials are deliberately not in it; they travel by environment so they
// don't show up in process listings or logs.
func twineUploadArgs(vals *Values, files []string) []string {
	args := []string{"-m", "twine", "upload", "--non-interactive"}
	if vals.SkipExisting {
		args = append(args, "--skip-existing")
	}
	if vals.RepositoryURL != "" {
		args = append(args, "--repository-url", vals.RepositoryURL)
	}
	return append(args, files...)
}

// TwineUpload hands the upload off to `twine`; the second half of the
// --via-twine path.
func TwineUpload(ctx context.Context, proj *Project, vals *Values, files []string) error {
	exe, err := vals.PythonExe()
	if err != nil {
		return err
	}
	cmd := dexec.CommandContext(ctx, exe, twineUploadArgs(vals, files)...)
	cmd.Dir = proj.Dir
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if vals.Username != "" {
		cmd.Env = append(os.Environ(),
			"TWINE_USERNAME="+vals.Username,
			"TWINE_PASSWORD="+vals.Password)
	}
	return cmd.Run()
}
