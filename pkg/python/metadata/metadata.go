// Copyright (C) 2025-2026  Rungsiman Nararatwong
//
// SPDX-License-Identifier: BSD-3-Clause

// Package metadata implements the Python "core metadata" format; the set of
// `Name: value` fields found in an sdist's PKG-INFO and in a wheel's
// {name}.dist-info/METADATA.
//
// The format started life as PEP 241 (Metadata 1.0) and was last revised by
// PEP 639 (Metadata 2.4); the living document is
// https://packaging.python.org/en/latest/specifications/core-metadata/
package metadata

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/textproto"
	"net/url"
	"regexp"
	"strings"

	"github.com/datawire/dlib/derror"

	"github.com/rungsiman/pypublish/pkg/python/pep440"
)

// Metadata is a parsed core-metadata document.  Fields that the format allows
// to be used multiple times are slices; everything else is a plain string,
// left empty when the field is absent.
type Metadata struct {
	// Metadata 1.0 (PEP 241)
	MetadataVersion string
	Name            string
	Version         string
	Platforms       []string
	Summary         string
	Description     string
	Keywords        string
	HomePage        string
	Author          string
	AuthorEmail     string
	License         string

	// Metadata 1.1 (PEP 314)
	SupportedPlatforms []string
	DownloadURL        string
	Classifiers        []string
	Requires           []string
	Provides           []string
	Obsoletes          []string

	// Metadata 1.2 (PEP 345)
	Maintainer       string
	MaintainerEmail  string
	RequiresDist     []string
	ProvidesDist     []string
	ObsoletesDist    []string
	RequiresPython   string
	RequiresExternal []string
	ProjectURLs      []string

	// Metadata 2.1 (PEP 566)
	DescriptionContentType string
	ProvidesExtras         []string

	// Metadata 2.2 (PEP 643)
	Dynamic []string

	// Metadata 2.4 (PEP 639)
	LicenseExpression string
	LicenseFiles      []string
}

// Parse reads a core-metadata document.
//
// Since Metadata 2.1 the Description may be given as the document body
// (everything after the first blank line) rather than as a header field;
// Parse accepts both spellings.  A Description header field wins over a body
// if a malformed document has both.
func Parse(reader io.Reader) (*Metadata, error) {
	// textproto.Reader.ReadMIMEHeader() expects a blank line to mark the end
	// of the header and the start of the body.  A PKG-INFO with no body need
	// not end with one, so use an io.MultiReader to add a few trailing CRLFs
	// to keep ReadMIMEHeader happy no matter what the trailing newline
	// situation is.
	kvReader := textproto.NewReader(bufio.NewReader(io.MultiReader(
		reader,
		strings.NewReader("\r\n\r\n\r\n"),
	)))
	header, err := kvReader.ReadMIMEHeader()
	if err != nil {
		return nil, fmt.Errorf("metadata.Parse: %w", err)
	}
	body, err := io.ReadAll(kvReader.R)
	if err != nil {
		return nil, fmt.Errorf("metadata.Parse: %w", err)
	}

	md := &Metadata{
		MetadataVersion: header.Get("Metadata-Version"),
		Name:            header.Get("Name"),
		Version:         header.Get("Version"),
		Platforms:       header.Values("Platform"),
		Summary:         header.Get("Summary"),
		Description:     header.Get("Description"),
		Keywords:        header.Get("Keywords"),
		HomePage:        header.Get("Home-Page"),
		Author:          header.Get("Author"),
		AuthorEmail:     header.Get("Author-Email"),
		License:         header.Get("License"),

		SupportedPlatforms: header.Values("Supported-Platform"),
		DownloadURL:        header.Get("Download-URL"),
		Classifiers:        header.Values("Classifier"),
		Requires:           header.Values("Requires"),
		Provides:           header.Values("Provides"),
		Obsoletes:          header.Values("Obsoletes"),

		Maintainer:       header.Get("Maintainer"),
		MaintainerEmail:  header.Get("Maintainer-Email"),
		RequiresDist:     header.Values("Requires-Dist"),
		ProvidesDist:     header.Values("Provides-Dist"),
		ObsoletesDist:    header.Values("Obsoletes-Dist"),
		RequiresPython:   header.Get("Requires-Python"),
		RequiresExternal: header.Values("Requires-External"),
		ProjectURLs:      header.Values("Project-URL"),

		DescriptionContentType: header.Get("Description-Content-Type"),
		ProvidesExtras:         header.Values("Provides-Extra"),

		Dynamic: header.Values("Dynamic"),

		LicenseExpression: header.Get("License-Expression"),
		LicenseFiles:      header.Values("License-File"),
	}

	if md.Description == "" {
		md.Description = strings.TrimRight(string(body), "\r\n")
	}

	return md, nil
}

// SupportedMetadataVersions is the set of Metadata-Version values that this
// package (and the package indexes it talks to) understand.
//
//nolint:gochecknoglobals // Would be 'const'.
var SupportedMetadataVersions = map[string]struct{}{
	"1.0": {},
	"1.1": {},
	"1.2": {},
	"2.1": {},
	"2.2": {},
	"2.3": {},
	"2.4": {},
}

// reName is the PEP 508 project name regexp.
//
//nolint:gochecknoglobals // Would be 'const'.
var reName = regexp.MustCompile(`(?i)^([A-Z0-9]|[A-Z0-9][A-Z0-9._-]*[A-Z0-9])$`)

//nolint:gochecknoglobals // Would be 'const'.
var descriptionContentTypes = map[string]struct{}{
	"text/plain":    {},
	"text/x-rst":    {},
	"text/markdown": {},
}

// Validate returns all of the reasons that an index would reject this
// metadata, not just the first one.
func (md *Metadata) Validate() error {
	var errs derror.MultiError

	switch {
	case md.MetadataVersion == "":
		errs = append(errs, errors.New("Metadata-Version: missing"))
	default:
		if _, ok := SupportedMetadataVersions[md.MetadataVersion]; !ok {
			errs = append(errs, fmt.Errorf("Metadata-Version: unsupported version: %q", md.MetadataVersion))
		}
	}

	switch {
	case md.Name == "":
		errs = append(errs, errors.New("Name: missing"))
	case !reName.MatchString(md.Name):
		errs = append(errs, fmt.Errorf("Name: invalid project name: %q", md.Name))
	}

	switch {
	case md.Version == "":
		errs = append(errs, errors.New("Version: missing"))
	default:
		if _, err := pep440.ParseVersion(md.Version); err != nil {
			errs = append(errs, fmt.Errorf("Version: %w", err))
		}
	}

	if md.DescriptionContentType != "" {
		mediaType, _, err := mime.ParseMediaType(md.DescriptionContentType)
		if err != nil {
			errs = append(errs, fmt.Errorf("Description-Content-Type: %w", err))
		} else if _, ok := descriptionContentTypes[mediaType]; !ok {
			errs = append(errs, fmt.Errorf("Description-Content-Type: unsupported type: %q", mediaType))
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ToForm flattens the metadata in to the form fields that the legacy upload
// API takes them as; the same key names and the same singular/plural
// treatment that `twine` uses.
func (md *Metadata) ToForm() url.Values {
	form := url.Values{}
	set := func(key, val string) {
		if val != "" {
			form.Set(key, val)
		}
	}
	add := func(key string, vals []string) {
		for _, val := range vals {
			form.Add(key, val)
		}
	}

	set("metadata_version", md.MetadataVersion)
	set("name", md.Name)
	set("version", md.Version)
	add("platform", md.Platforms)
	set("summary", md.Summary)
	set("description", md.Description)
	set("keywords", md.Keywords)
	set("home_page", md.HomePage)
	set("author", md.Author)
	set("author_email", md.AuthorEmail)
	set("license", md.License)

	add("supported_platform", md.SupportedPlatforms)
	set("download_url", md.DownloadURL)
	add("classifiers", md.Classifiers)
	add("requires", md.Requires)
	add("provides", md.Provides)
	add("obsoletes", md.Obsoletes)

	set("maintainer", md.Maintainer)
	set("maintainer_email", md.MaintainerEmail)
	add("requires_dist", md.RequiresDist)
	add("provides_dist", md.ProvidesDist)
	add("obsoletes_dist", md.ObsoletesDist)
	set("requires_python", md.RequiresPython)
	add("requires_external", md.RequiresExternal)
	add("project_urls", md.ProjectURLs)

	set("description_content_type", md.DescriptionContentType)
	add("provides_extras", md.ProvidesExtras)

	add("dynamic", md.Dynamic)

	set("license_expression", md.LicenseExpression)
	add("license_files", md.LicenseFiles)

	return form
}
