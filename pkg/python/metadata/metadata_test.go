// Copyright (C) 2025-2026  Rungsiman Nararatwong
//
// SPDX-License-Identifier: BSD-3-Clause

package metadata_test

import (
	"strings"
	"testing"

	"github.com/datawire/dlib/derror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rungsiman/pypublish/pkg/python/metadata"
)

const modernMetadata = `Metadata-Version: 2.4
Name: dorest
Version: 1.2.0
Summary: Extensions to the Django REST framework
Home-page: https://github.com/rungsiman/dorest
Author: Rungsiman Nararatwong
Author-email: rungsiman@gmail.com
License: BSD
Keywords: django,rest,framework
Classifier: Development Status :: 4 - Beta
Classifier: Programming Language :: Python :: 3.7
Requires-Python: >=3.7
Description-Content-Type: text/markdown
License-File: LICENSE
Requires-Dist: django>=3.0
Requires-Dist: djangorestframework>=3.11
Project-URL: Homepage, https://github.com/rungsiman/dorest

# dorest

A set of tools that extends Django and the Django REST framework.
`

func TestParse(t *testing.T) {
	t.Parallel()
	md, err := metadata.Parse(strings.NewReader(modernMetadata))
	require.NoError(t, err)

	assert.Equal(t, "2.4", md.MetadataVersion)
	assert.Equal(t, "dorest", md.Name)
	assert.Equal(t, "1.2.0", md.Version)
	assert.Equal(t, "Extensions to the Django REST framework", md.Summary)
	assert.Equal(t, "rungsiman@gmail.com", md.AuthorEmail)
	assert.Equal(t, "text/markdown", md.DescriptionContentType)
	assert.Equal(t,
		[]string{
			"Development Status :: 4 - Beta",
			"Programming Language :: Python :: 3.7",
		},
		md.Classifiers)
	assert.Equal(t,
		[]string{
			"django>=3.0",
			"djangorestframework>=3.11",
		},
		md.RequiresDist)
	assert.Equal(t, []string{"LICENSE"}, md.LicenseFiles)
	assert.Equal(t, ">=3.7", md.RequiresPython)

	// The body is the description.
	assert.Equal(t,
		"# dorest\n\nA set of tools that extends Django and the Django REST framework.",
		md.Description)

	assert.NoError(t, md.Validate())
}

func TestParseLegacy(t *testing.T) {
	t.Parallel()

	// A Metadata 1.0 PKG-INFO, with the description in the header and no
	// trailing newline.
	input := strings.Join([]string{
		"Metadata-Version: 1.0",
		"Name: dorest",
		"Version: 0.1.dev5",
		"Description: UNKNOWN",
		"Platform: UNKNOWN",
	}, "\n")

	md, err := metadata.Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "1.0", md.MetadataVersion)
	assert.Equal(t, "UNKNOWN", md.Description)
	assert.Equal(t, []string{"UNKNOWN"}, md.Platforms)
	assert.NoError(t, md.Validate())
}

func TestValidate(t *testing.T) {
	t.Parallel()
	testcases := map[string]struct {
		md      metadata.Metadata
		numErrs int
	}{
		"ok": {
			md:      metadata.Metadata{MetadataVersion: "2.1", Name: "foo", Version: "1.0"},
			numErrs: 0,
		},
		"empty": {
			md:      metadata.Metadata{},
			numErrs: 3,
		},
		"bad-metadata-version": {
			md:      metadata.Metadata{MetadataVersion: "3.0", Name: "foo", Version: "1.0"},
			numErrs: 1,
		},
		"bad-name": {
			md:      metadata.Metadata{MetadataVersion: "2.1", Name: "-foo-", Version: "1.0"},
			numErrs: 1,
		},
		"bad-version": {
			md:      metadata.Metadata{MetadataVersion: "2.1", Name: "foo", Version: "bogus"},
			numErrs: 1,
		},
		"bad-content-type": {
			md: metadata.Metadata{
				MetadataVersion: "2.1", Name: "foo", Version: "1.0",
				DescriptionContentType: "application/json",
			},
			numErrs: 1,
		},
		"content-type-with-params": {
			md: metadata.Metadata{
				MetadataVersion: "2.1", Name: "foo", Version: "1.0",
				DescriptionContentType: "text/markdown; charset=UTF-8; variant=GFM",
			},
			numErrs: 0,
		},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			err := tc.md.Validate()
			if tc.numErrs == 0 {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				var errs derror.MultiError
				require.ErrorAs(t, err, &errs)
				assert.Len(t, errs, tc.numErrs)
			}
		})
	}
}

func TestToForm(t *testing.T) {
	t.Parallel()
	md, err := metadata.Parse(strings.NewReader(modernMetadata))
	require.NoError(t, err)

	form := md.ToForm()
	assert.Equal(t, "dorest", form.Get("name"))
	assert.Equal(t, "1.2.0", form.Get("version"))
	assert.Equal(t, "2.4", form.Get("metadata_version"))
	assert.Equal(t, "https://github.com/rungsiman/dorest", form.Get("home_page"))
	assert.Equal(t,
		[]string{
			"Development Status :: 4 - Beta",
			"Programming Language :: Python :: 3.7",
		},
		form["classifiers"])
	assert.Equal(t, []string{"django>=3.0", "djangorestframework>=3.11"}, form["requires_dist"])
	assert.Equal(t, []string{"LICENSE"}, form["license_files"])

	// Empty fields must not be sent at all.
	assert.NotContains(t, form, "maintainer")
	assert.NotContains(t, form, "obsoletes_dist")
}
