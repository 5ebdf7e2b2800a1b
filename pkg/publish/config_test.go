// Copyright (C) 2025-2026  Rungsiman Nararatwong
//
// SPDX-License-Identifier: BSD-3-Clause

package publish

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/datawire/dlib/dlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDiscoverProject(t *testing.T) {
	t.Parallel()

	empty := t.TempDir()
	_, err := DiscoverProject(empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not look like a Python project")

	classic := t.TempDir()
	writeFile(t, filepath.Join(classic, "setup.py"), "from setuptools import setup\nsetup()\n")
	proj, err := DiscoverProject(classic)
	require.NoError(t, err)
	assert.True(t, proj.HasSetupPy)
	assert.False(t, proj.HasPyprojectToml)
	assert.True(t, filepath.IsAbs(proj.Dir))

	modern := t.TempDir()
	writeFile(t, filepath.Join(modern, "pyproject.toml"), "[build-system]\n")
	proj, err = DiscoverProject(modern)
	require.NoError(t, err)
	assert.False(t, proj.HasSetupPy)
	assert.True(t, proj.HasPyprojectToml)
}

func TestBackend(t *testing.T) {
	t.Parallel()

	var backend Backend
	require.NoError(t, backend.Set("setuptools"))
	assert.Equal(t, BackendSetuptools, backend)

	err := backend.Set("bazel")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid backend "bazel"`)
	// A failed Set leaves the old value alone.
	assert.Equal(t, BackendSetuptools, backend)

	withSetupPy := &Project{HasSetupPy: true}
	withoutSetupPy := &Project{HasPyprojectToml: true}
	assert.Equal(t, BackendSetuptools, BackendAuto.Resolve(withSetupPy))
	assert.Equal(t, BackendBuild, BackendAuto.Resolve(withoutSetupPy))
	assert.Equal(t, BackendBuild, BackendBuild.Resolve(withSetupPy))
}

func TestProjectDirs(t *testing.T) {
	t.Parallel()

	proj := &Project{Dir: "/proj"}
	assert.Equal(t, filepath.Join("/proj", "dist"), proj.DistDir(""))
	assert.Equal(t, filepath.Join("/proj", "out"), proj.DistDir("out"))
	assert.Equal(t, "/abs/out", proj.DistDir("/abs/out"))
}

func TestDistFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	proj := &Project{Dir: dir}

	_, err := proj.DistFiles("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no distribution files")

	writeFile(t, filepath.Join(dir, "dist", "dorest-0.1.2.tar.gz"), "x")
	writeFile(t, filepath.Join(dir, "dist", "dorest-0.1.2-py3-none-any.whl"), "x")
	writeFile(t, filepath.Join(dir, "dist", "notes.txt"), "not a distribution")

	files, err := proj.DistFiles("")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "dist", "dorest-0.1.2-py3-none-any.whl"),
		filepath.Join(dir, "dist", "dorest-0.1.2.tar.gz"),
	}, files)
}

func TestLoadFileConfig(t *testing.T) {
	t.Parallel()

	missing := t.TempDir()
	cfg, err := loadFileConfig(missing)
	require.NoError(t, err)
	assert.Equal(t, &FileConfig{}, cfg)

	good := t.TempDir()
	writeFile(t, filepath.Join(good, ConfigFileName), `
python: python3.11
backend: build
dist-dir: out
skip-existing: true
`)
	cfg, err = loadFileConfig(good)
	require.NoError(t, err)
	assert.Equal(t, "python3.11", cfg.Python)
	assert.Equal(t, "build", cfg.Backend)
	assert.Equal(t, "out", cfg.DistDir)
	require.NotNil(t, cfg.SkipExisting)
	assert.True(t, *cfg.SkipExisting)

	bad := t.TempDir()
	writeFile(t, filepath.Join(bad, ConfigFileName), "pithon: python3\n")
	_, err = loadFileConfig(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")
	assert.Contains(t, err.Error(), ConfigFileName)
}

func TestResolve(t *testing.T) {
	ctx := dlog.NewTestContext(t, true)

	home := t.TempDir()
	t.Setenv("HOME", home)
	writeFile(t, filepath.Join(home, ".pypirc"), `
[distutils]
index-servers =
    pypi
    private

[pypi]
username = __token__
password = pypi-cafe

[private]
repository = https://pypi.corp.example.com/
username = svc-publish
`)

	projDir := t.TempDir()
	writeFile(t, filepath.Join(projDir, "setup.py"), "")
	writeFile(t, filepath.Join(projDir, ConfigFileName), `
python: filepy
repository: private
`)
	proj, err := DiscoverProject(projDir)
	require.NoError(t, err)

	// Nothing but the project file and .pypirc.
	vals, err := Resolve(ctx, proj, Flags{})
	require.NoError(t, err)
	assert.Equal(t, "filepy", vals.Python)
	assert.Equal(t, BackendAuto, vals.Backend)
	assert.Equal(t, "private", vals.RepositoryName)
	assert.Equal(t, "https://pypi.corp.example.com/", vals.RepositoryURL)
	assert.Equal(t, "svc-publish", vals.Username)
	assert.Equal(t, "", vals.Password)
	assert.False(t, vals.SkipExisting)

	// Environment beats the project file.
	t.Setenv("PYPUBLISH_PYTHON", "envpy")
	t.Setenv("PYPUBLISH_REPOSITORY", "pypi")
	vals, err = Resolve(ctx, proj, Flags{})
	require.NoError(t, err)
	assert.Equal(t, "envpy", vals.Python)
	assert.Equal(t, "pypi", vals.RepositoryName)
	assert.Equal(t, "https://upload.pypi.org/legacy/", vals.RepositoryURL)
	assert.Equal(t, "__token__", vals.Username)
	assert.Equal(t, "pypi-cafe", vals.Password)
	require.NoError(t, vals.CheckCredentials())

	// Flags beat the environment.
	vals, err = Resolve(ctx, proj, Flags{
		Python:     "flagpy",
		Repository: "testpypi",
	})
	require.NoError(t, err)
	assert.Equal(t, "flagpy", vals.Python)
	assert.Equal(t, "https://test.pypi.org/legacy/", vals.RepositoryURL)
	assert.Equal(t, "", vals.Username)
	err = vals.CheckCredentials()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no credentials for repository "testpypi"`)
	assert.Contains(t, err.Error(), "PYPUBLISH_USERNAME")

	// Flag credentials beat .pypirc credentials.
	vals, err = Resolve(ctx, proj, Flags{
		Repository: "pypi",
		Username:   "alice",
		Password:   "hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", vals.Username)
	assert.Equal(t, "hunter2", vals.Password)

	// An unlisted repository name is an error, unless a URL was given some
	// other way.
	_, err = Resolve(ctx, proj, Flags{Repository: "nowhere"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no repository "nowhere"`)

	vals, err = Resolve(ctx, proj, Flags{
		Repository:    "nowhere",
		RepositoryURL: "https://pypi.elsewhere.example.com/",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pypi.elsewhere.example.com/", vals.RepositoryURL)
	assert.Equal(t, "", vals.Username)
}

func TestResolveSkipExisting(t *testing.T) {
	ctx := dlog.NewTestContext(t, true)
	t.Setenv("HOME", t.TempDir())

	projDir := t.TempDir()
	writeFile(t, filepath.Join(projDir, "setup.py"), "")
	writeFile(t, filepath.Join(projDir, ConfigFileName), "skip-existing: true\n")
	proj, err := DiscoverProject(projDir)
	require.NoError(t, err)

	vals, err := Resolve(ctx, proj, Flags{})
	require.NoError(t, err)
	assert.True(t, vals.SkipExisting)

	no := false
	vals, err = Resolve(ctx, proj, Flags{SkipExisting: &no})
	require.NoError(t, err)
	assert.False(t, vals.SkipExisting)
}
