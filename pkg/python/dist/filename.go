// Copyright (C) 2025-2026  Rungsiman Nararatwong
//
// SPDX-License-Identifier: BSD-3-Clause

package dist

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rungsiman/pypublish/pkg/python/pep425"
	"github.com/rungsiman/pypublish/pkg/python/pep440"
)

// WheelFilenameData is the result of picking apart a
// `{distribution}-{version}(-{build tag})?-{python tag}-{abi tag}-{platform
// tag}.whl` filename.
type WheelFilenameData struct {
	Distribution     string
	Version          pep440.Version
	BuildTag         *BuildTag
	CompatibilityTag pep425.Tag
}

var reWheelFilename = regexp.MustCompile(regexp.MustCompile(`\s+`).ReplaceAllString(`
		^(?P<distribution>[^-]+)
		-(?P<version>[^-]+)
		(?:-(?P<build_n>[0-9]+)(?P<build_l>[^-0-9][^-]*)?)?
		-(?P<python>[^-]+)
		-(?P<abi>[^-]+)
		-(?P<platform>[^-]+)
		\.whl$`, ``))

// ParseWheelFilename parses the basename of a wheel file.
func ParseWheelFilename(filename string) (*WheelFilenameData, error) {
	match := reWheelFilename.FindStringSubmatch(filename)
	if match == nil {
		return nil, fmt.Errorf("invalid wheel filename: %q", filename)
	}

	var ret WheelFilenameData

	ret.Distribution = match[reWheelFilename.SubexpIndex("distribution")]

	ver, err := pep440.ParseVersion(match[reWheelFilename.SubexpIndex("version")])
	if err != nil {
		return nil, fmt.Errorf("invalid wheel filename: %q: %w", filename, err)
	}
	ret.Version = *ver

	if buildN := match[reWheelFilename.SubexpIndex("build_n")]; buildN != "" {
		n, _ := strconv.Atoi(buildN)
		ret.BuildTag = &BuildTag{
			Int: n,
			Str: match[reWheelFilename.SubexpIndex("build_l")],
		}
	}

	ret.CompatibilityTag = pep425.Tag{
		Python:   match[reWheelFilename.SubexpIndex("python")],
		ABI:      match[reWheelFilename.SubexpIndex("abi")],
		Platform: match[reWheelFilename.SubexpIndex("platform")],
	}

	return &ret, nil
}

// BuildTag is a wheel filename's optional build number; initial digits sorted
// as an int, the remainder as a str.
type BuildTag struct {
	Int int
	Str string
}

func (t BuildTag) String() string {
	return fmt.Sprintf("%d%s", t.Int, t.Str)
}

// An sdist is named `{distribution}-{version}.tar.gz` (or `.zip`).  Modern
// build tools escape the distribution name the same way wheels do, so the
// name part cannot contain a dash; setup.py sdist historically did not, so
// this cannot reliably be split from the right on legacy files.  Filename
// data is therefore only advisory for sdists; the authoritative name and
// version come from the PKG-INFO inside the archive.
var reSDistFilename = regexp.MustCompile(regexp.MustCompile(`\s+`).ReplaceAllString(`
		^(?P<distribution>[^-]+)
		-(?P<version>[^-]+)
		(?P<ext>\.tar\.gz|\.zip)$`, ``))

// ParseSDistFilename parses the basename of a PEP 625 style sdist file.
func ParseSDistFilename(filename string) (*SDistFilenameData, error) {
	match := reSDistFilename.FindStringSubmatch(filename)
	if match == nil {
		return nil, fmt.Errorf("invalid sdist filename: %q", filename)
	}

	var ret SDistFilenameData

	ret.Distribution = match[reSDistFilename.SubexpIndex("distribution")]

	verStr := match[reSDistFilename.SubexpIndex("version")]
	ver, err := pep440.ParseVersion(verStr)
	if err != nil {
		return nil, fmt.Errorf("invalid sdist filename: %q: %w", filename, err)
	}
	ret.Version = *ver

	return &ret, nil
}

// SDistFilenameData is the result of picking apart a
// `{distribution}-{version}.tar.gz` filename.
type SDistFilenameData struct {
	Distribution string
	Version      pep440.Version
}

// escapeName replaces runs of `-_.` characters with a single `_`, which is
// how distribution names are embedded in to wheel and PEP 625 sdist
// filenames.
func escapeName(name string) string {
	return reNameEscape.ReplaceAllLiteralString(name, "_")
}

//nolint:gochecknoglobals // Would be 'const'.
var reNameEscape = regexp.MustCompile(`[-_.]+`)

// sdistExt returns the sdist archive extension of a filename ("tar.gz" or
// "zip"), or an empty string if it is not an sdist filename.
func sdistExt(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".tar.gz"):
		return "tar.gz"
	case strings.HasSuffix(filename, ".zip"):
		return "zip"
	default:
		return ""
	}
}
