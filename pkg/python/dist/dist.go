// Copyright (C) 2025-2026  Rungsiman Nararatwong
//
// SPDX-License-Identifier: BSD-3-Clause

// Package dist models the built distribution files that `setup.py sdist
// bdist_wheel` (or `python -m build`) leaves in ./dist/; the files that get
// uploaded to a package index.
package dist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rungsiman/pypublish/pkg/python"
	"github.com/rungsiman/pypublish/pkg/python/metadata"
	"github.com/rungsiman/pypublish/pkg/python/pep425"
	"github.com/rungsiman/pypublish/pkg/python/pep440"
	"github.com/rungsiman/pypublish/pkg/python/pep503"
)

// ErrUnknownType is wrapped by Open for files that aren't a distribution
// type this tool can read.
var ErrUnknownType = errors.New("unknown distribution type")

// Kind says which kind of distribution a file is.  The string value is what
// the legacy upload API calls the kind in its "filetype" form field.
type Kind string

const (
	KindSDist Kind = "sdist"
	KindWheel Kind = "bdist_wheel"
)

// File is a distribution file on disk, with the metadata document read out
// of the archive.
type File struct {
	Path string
	Kind Kind

	// Name and Version come from the metadata inside the archive, not from
	// the filename.
	Name    string
	Version pep440.Version

	// PyVersion is the upload API's "pyversion"; a wheel filename's python
	// tag (possibly compressed, e.g. "py2.py3"), or "source" for an sdist.
	PyVersion string

	// Tag and BuildTag are only set for wheels.
	Tag      *pep425.Tag
	BuildTag *BuildTag

	Metadata *metadata.Metadata

	// digests caches computed content digests, keyed by algorithm name.
	digests python.DigestSet
}

// Filename returns the file's basename; the name it is uploaded and indexed
// under.
func (file *File) Filename() string {
	return filepath.Base(file.Path)
}

func (file *File) String() string {
	return file.Filename()
}

// NormalizedName returns the file's project name, normalized for index
// lookups.
func (file *File) NormalizedName() string {
	return pep503.NormalizeName(file.Name)
}

// Size returns the file's size in bytes.
func (file *File) Size() (int64, error) {
	info, err := os.Stat(file.Path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Digests returns the named content digests of the file, computing and
// caching any that have not been computed yet.
func (file *File) Digests(algos ...string) (python.DigestSet, error) {
	var missing []string
	for _, algo := range algos {
		if _, done := file.digests[algo]; !done {
			missing = append(missing, algo)
		}
	}
	if len(missing) > 0 {
		computed, err := python.DigestFile(file.Path, missing...)
		if err != nil {
			return nil, fmt.Errorf("dist.Digests: %q: %w", file.Filename(), err)
		}
		if file.digests == nil {
			file.digests = make(python.DigestSet, len(algos))
		}
		for algo, digest := range computed {
			file.digests[algo] = digest
		}
	}
	ret := make(python.DigestSet, len(algos))
	for _, algo := range algos {
		ret[algo] = file.digests[algo]
	}
	return ret, nil
}

// VerifyContents re-opens the archive and checks its internal consistency
// beyond what Open already checked.  For a wheel that means checking the
// .dist-info/WHEEL document against the filename and verifying every hash in
// RECORD against the archived file contents; an sdist carries neither.
func (file *File) VerifyContents() error {
	switch file.Kind {
	case KindWheel:
		if err := verifyWheel(file.Path); err != nil {
			return fmt.Errorf("dist.VerifyContents: %q: %w", file.Filename(), err)
		}
		return nil
	case KindSDist:
		return nil
	default:
		return fmt.Errorf("dist.VerifyContents: unknown distribution kind: %q", file.Kind)
	}
}

// Open reads the distribution file at the given path, dispatching on the
// filename extension.
func Open(path string) (*File, error) {
	base := filepath.Base(path)
	switch {
	case strings.HasSuffix(base, ".whl"):
		return openWheel(path)
	case sdistExt(base) != "":
		return openSDist(path)
	case strings.HasSuffix(base, ".egg") || strings.HasSuffix(base, ".exe"):
		return nil, fmt.Errorf("dist.Open: %q: obsolete distribution format", base)
	default:
		return nil, fmt.Errorf("dist.Open: %q: %w", base, ErrUnknownType)
	}
}
