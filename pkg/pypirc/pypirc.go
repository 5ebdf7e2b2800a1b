// Copyright (C) 2025-2026  Rungsiman Nararatwong
//
// SPDX-License-Identifier: BSD-3-Clause

// Package pypirc reads ~/.pypirc, the distutils-format file that setuptools
// and twine keep per-user package-index endpoints and credentials in.
//
// https://packaging.python.org/specifications/pypirc/
package pypirc

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rungsiman/pypublish/pkg/python"
	"github.com/rungsiman/pypublish/pkg/python/pypa/legacy_upload"
)

// A Repository is one "[name]" section of a .pypirc file.
type Repository struct {
	Name     string
	URL      string
	Username string
	Password string
}

// A Config is the set of repositories a .pypirc defines, keyed by section
// name.
type Config map[string]Repository

// DefaultPath returns "~/.pypirc".
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pypirc"), nil
}

// defaults returns the two repositories every configuration starts from,
// whether or not a .pypirc file exists.
func defaults() Config {
	return Config{
		"pypi": {
			Name: "pypi",
			URL:  legacy_upload.PyPIUploadURL,
		},
		"testpypi": {
			Name: "testpypi",
			URL:  legacy_upload.TestPyPIUploadURL,
		},
	}
}

// Load reads a .pypirc file, resolving it the way `twine` does:
//
//   - the built-in "pypi" and "testpypi" entries are always present;
//   - `[distutils] index-servers` says which sections to read, defaulting to
//     "pypi testpypi"; sections it doesn't list are ignored;
//   - a server listed in index-servers is defined even if its section is
//     missing (useful for servers that only ever take flag/env credentials).
//
// A missing file is not an error; Load returns just the defaults.
func Load(path string) (Config, error) {
	config := defaults()

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, err
	}
	parsed, err := python.ParseConfig(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("pypirc.Load: %q: %w", path, err)
	}

	indexServers := "pypi testpypi"
	if distutils, ok := parsed["distutils"]; ok {
		if listed, ok := distutils["index-servers"]; ok {
			indexServers = listed
		}
	}

	for _, name := range strings.Fields(indexServers) {
		repo := config[name]
		repo.Name = name
		if section, ok := parsed[name]; ok {
			if val, ok := section["repository"]; ok {
				repo.URL = val
			}
			if val, ok := section["username"]; ok {
				repo.Username = val
			}
			if val, ok := section["password"]; ok {
				repo.Password = val
			}
		}
		config[name] = repo
	}

	return config, nil
}

// Get looks up a repository by section name.
func (config Config) Get(name string) (Repository, error) {
	repo, ok := config[name]
	if !ok {
		names := make([]string, 0, len(config))
		for name := range config {
			names = append(names, name)
		}
		sort.Strings(names)
		return Repository{}, fmt.Errorf("no repository %q configured in .pypirc (have: %s)",
			name, strings.Join(names, ", "))
	}
	return repo, nil
}
