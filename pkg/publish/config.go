// Copyright (C) 2025-2026  Rungsiman Nararatwong
//
// SPDX-License-Identifier: BSD-3-Clause

package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/datawire/dlib/dlog"
	"sigs.k8s.io/yaml"

	"github.com/rungsiman/pypublish/pkg/pypirc"
)

// ConfigFileName is the per-project settings file, looked for in the project
// root.
const ConfigFileName = ".pypublish.yml"

// FileConfig is the .pypublish.yml schema: per-project defaults for settings
// that would otherwise have to ride along on every invocation.
type FileConfig struct {
	Python       string `json:"python,omitempty"`
	Backend      string `json:"backend,omitempty"`
	Repository   string `json:"repository,omitempty"`
	DistDir      string `json:"dist-dir,omitempty"`
	SkipExisting *bool  `json:"skip-existing,omitempty"`
}

func loadFileConfig(projDir string) (*FileConfig, error) {
	path := filepath.Join(projDir, ConfigFileName)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &FileConfig{}, nil
		}
		return nil, err
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(content, &cfg, yaml.DisallowUnknownFields); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Flags are the command-line settings that feed in to Resolve.  A zero field
// means "flag not given"; it falls through to the environment, the project
// file, .pypirc, and finally the built-in defaults.
type Flags struct {
	Python        string
	Backend       Backend
	DistDir       string
	Repository    string
	RepositoryURL string
	Username      string
	Password      string
	SkipExisting  *bool
}

// Values are the settings the pipeline actually runs with, after all of the
// sources have been merged.
type Values struct {
	Python  string
	Backend Backend
	DistDir string

	RepositoryName string
	RepositoryURL  string
	Username       string
	Password       string

	SkipExisting bool
}

// Resolve merges the configuration sources, highest precedence first:
// command-line flags, PYPUBLISH_* environment variables, the project's
// .pypublish.yml, ~/.pypirc (for the repository endpoint and credentials),
// and the built-in defaults.
//
// Missing credentials are not an error here; commands that are about to
// authenticate call Values.CheckCredentials.
func Resolve(ctx context.Context, proj *Project, flags Flags) (*Values, error) {
	fileCfg, err := loadFileConfig(proj.Dir)
	if err != nil {
		return nil, err
	}

	pick := func(choices ...string) string {
		for _, choice := range choices {
			if choice != "" {
				return choice
			}
		}
		return ""
	}

	vals := &Values{
		Python:  pick(flags.Python, os.Getenv("PYPUBLISH_PYTHON"), fileCfg.Python, "python3"),
		DistDir: pick(flags.DistDir, fileCfg.DistDir, "dist"),
	}

	if err := vals.Backend.Set(pick(string(flags.Backend), fileCfg.Backend, string(BackendAuto))); err != nil {
		return nil, fmt.Errorf("%s: %w", ConfigFileName, err)
	}

	vals.RepositoryName = pick(flags.Repository, os.Getenv("PYPUBLISH_REPOSITORY"), fileCfg.Repository, "pypi")
	vals.RepositoryURL = pick(flags.RepositoryURL, os.Getenv("PYPUBLISH_REPOSITORY_URL"))
	vals.Username = pick(flags.Username, os.Getenv("PYPUBLISH_USERNAME"))
	vals.Password = pick(flags.Password, os.Getenv("PYPUBLISH_PASSWORD"))

	pypircPath, err := pypirc.DefaultPath()
	if err != nil {
		return nil, err
	}
	repos, err := pypirc.Load(pypircPath)
	if err != nil {
		return nil, err
	}
	repo, err := repos.Get(vals.RepositoryName)
	if err != nil {
		// An unknown repository name is fine as long as a URL was given
		// some other way; the name is just a label then.
		if vals.RepositoryURL == "" {
			return nil, err
		}
		repo = pypirc.Repository{Name: vals.RepositoryName}
	}
	vals.RepositoryURL = pick(vals.RepositoryURL, repo.URL)
	vals.Username = pick(vals.Username, repo.Username)
	vals.Password = pick(vals.Password, repo.Password)

	switch {
	case flags.SkipExisting != nil:
		vals.SkipExisting = *flags.SkipExisting
	case fileCfg.SkipExisting != nil:
		vals.SkipExisting = *fileCfg.SkipExisting
	}

	dlog.Debugf(ctx, "resolved repository %q => %s", vals.RepositoryName, vals.RepositoryURL)
	return vals, nil
}

// CheckCredentials errors unless the resolved repository has something to
// authenticate with.  pypublish never prompts; the error says where
// credentials can come from instead.
func (vals *Values) CheckCredentials() error {
	if vals.Username != "" {
		return nil
	}
	return fmt.Errorf("no credentials for repository %q: "+
		"pass --username/--password, set PYPUBLISH_USERNAME/PYPUBLISH_PASSWORD, or add them to ~/.pypirc",
		vals.RepositoryName)
}
