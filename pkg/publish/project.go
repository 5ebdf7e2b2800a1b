// Copyright (C) 2025-2026  Rungsiman Nararatwong
//
// SPDX-License-Identifier: BSD-3-Clause

// Package publish drives the release pipeline for a Python project: cleaning
// stale build artifacts, running the build tool, and listing what it built
// for upload.
//
// The pipeline steps shell out to the project's own Python toolchain;
// pypublish doesn't reimplement setuptools, it just drives it.
package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// A Project is a directory that looks like a buildable Python project.
type Project struct {
	// Dir is the project root; the directory setup.py (or pyproject.toml)
	// lives in, and the working directory for every build step.
	Dir string

	// Which build-definition files exist; backend auto-detection keys off
	// of these.
	HasSetupPy       bool
	HasSetupCfg      bool
	HasPyprojectToml bool
}

// DiscoverProject inspects a directory and errors if there is nothing there
// a Python build tool would know what to do with.
func DiscoverProject(dir string) (*Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	proj := &Project{Dir: abs}

	exists := func(name string) (bool, error) {
		_, err := os.Stat(filepath.Join(abs, name))
		switch {
		case err == nil:
			return true, nil
		case os.IsNotExist(err):
			return false, nil
		default:
			return false, err
		}
	}
	if proj.HasSetupPy, err = exists("setup.py"); err != nil {
		return nil, err
	}
	if proj.HasSetupCfg, err = exists("setup.cfg"); err != nil {
		return nil, err
	}
	if proj.HasPyprojectToml, err = exists("pyproject.toml"); err != nil {
		return nil, err
	}

	if !proj.HasSetupPy && !proj.HasSetupCfg && !proj.HasPyprojectToml {
		return nil, fmt.Errorf("%q does not look like a Python project: no setup.py, setup.cfg, or pyproject.toml", dir)
	}
	return proj, nil
}

// DistDir resolves the directory the build tool writes distributions to;
// relative names are relative to the project root.
func (proj *Project) DistDir(distDir string) string {
	if distDir == "" {
		distDir = "dist"
	}
	if filepath.IsAbs(distDir) {
		return distDir
	}
	return filepath.Join(proj.Dir, distDir)
}

// EggInfoDirs globs the "*.egg-info" directories that setuptools scatters
// around the project root.
func (proj *Project) EggInfoDirs() ([]string, error) {
	return filepath.Glob(filepath.Join(proj.Dir, "*.egg-info"))
}

// DistFiles lists the distribution files in the dist directory, sorted by
// name; the order they get uploaded in.
func (proj *Project) DistFiles(distDir string) ([]string, error) {
	return ListDistFiles(proj.DistDir(distDir))
}

// ListDistFiles lists the distribution files directly inside dir, sorted by
// name.  An empty result is an error; it invariably means a build step was
// skipped or wrote somewhere else.
func ListDistFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.whl", "*.tar.gz", "*.zip"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no distribution files in %q (did the build run?)", dir)
	}
	sort.Strings(files)
	return files, nil
}
