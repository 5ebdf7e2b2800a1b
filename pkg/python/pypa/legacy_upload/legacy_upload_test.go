// Copyright (C) 2025-2026  Rungsiman Nararatwong
//
// SPDX-License-Identifier: BSD-3-Clause

package legacy_upload_test

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/datawire/dlib/dlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rungsiman/pypublish/pkg/python"
	"github.com/rungsiman/pypublish/pkg/python/dist"
	"github.com/rungsiman/pypublish/pkg/python/pypa/legacy_upload"
	"github.com/rungsiman/pypublish/pkg/testutil"
)

func buildTestWheel(t *testing.T) *dist.File {
	t.Helper()
	metadata := strings.Join([]string{
		"Metadata-Version: 2.1",
		"Name: dorest",
		"Version: 0.1.2",
		"Summary: A framework for rapid and robust REST API development",
		"Classifier: Programming Language :: Python :: 3",
		"Classifier: License :: OSI Approved :: BSD License",
		"",
		"Domain-specific language and REST framework.",
		"",
	}, "\n")
	wheel := strings.Join([]string{
		"Wheel-Version: 1.0",
		"Generator: bdist_wheel (0.37.0)",
		"Root-Is-Purelib: true",
		"Tag: py3-none-any",
		"",
	}, "\n")
	path := testutil.BuildWheel(t, t.TempDir(), "dorest-0.1.2-py3-none-any.whl", map[string]string{
		"dorest/__init__.py":              "__version__ = '0.1.2'\n",
		"dorest-0.1.2.dist-info/METADATA": metadata,
		"dorest-0.1.2.dist-info/WHEEL":    wheel,
	})
	file, err := dist.Open(path)
	require.NoError(t, err)
	return file
}

func TestUpload(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, true)

	file := buildTestWheel(t)
	expContent, err := os.ReadFile(file.Path)
	require.NoError(t, err)
	expDigests, err := python.DigestFile(file.Path, "md5", "sha256", python.Blake2_256)
	require.NoError(t, err)

	var (
		gotForm     url.Values
		gotFilename string
		gotContent  []byte
		gotUser     string
		gotPass     string
		gotAuth     bool
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/legacy/", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 * 1024 * 1024); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		gotUser, gotPass, gotAuth = r.BasicAuth()
		gotForm = url.Values(r.MultipartForm.Value)
		content, header, err := r.FormFile("content")
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer content.Close()
		gotFilename = header.Filename
		if gotContent, err = io.ReadAll(content); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := legacy_upload.Client{
		RepositoryURL: server.URL + "/legacy/",
		Username:      "alice",
		Password:      "s3cret",
	}
	require.NoError(t, client.Upload(ctx, file))

	require.True(t, gotAuth)
	assert.Equal(t, "alice", gotUser)
	assert.Equal(t, "s3cret", gotPass)

	assert.Equal(t, "file_upload", gotForm.Get(":action"))
	assert.Equal(t, "1", gotForm.Get("protocol_version"))
	assert.Equal(t, "bdist_wheel", gotForm.Get("filetype"))
	assert.Equal(t, "py3", gotForm.Get("pyversion"))

	assert.Equal(t, "2.1", gotForm.Get("metadata_version"))
	assert.Equal(t, "dorest", gotForm.Get("name"))
	assert.Equal(t, "0.1.2", gotForm.Get("version"))
	assert.Equal(t, "A framework for rapid and robust REST API development", gotForm.Get("summary"))
	assert.Equal(t, []string{
		"Programming Language :: Python :: 3",
		"License :: OSI Approved :: BSD License",
	}, gotForm["classifiers"])

	assert.Equal(t, expDigests["md5"], gotForm.Get("md5_digest"))
	assert.Equal(t, expDigests["sha256"], gotForm.Get("sha256_digest"))
	assert.Equal(t, expDigests[python.Blake2_256], gotForm.Get("blake2_256_digest"))

	assert.Equal(t, "dorest-0.1.2-py3-none-any.whl", gotFilename)
	assert.Equal(t, expContent, gotContent)
}

func TestUploadAnonymous(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, true)

	file := buildTestWheel(t)

	var sawAuthHeader bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, sawAuthHeader = r.BasicAuth()
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := legacy_upload.Client{RepositoryURL: server.URL}
	require.NoError(t, client.Upload(ctx, file))
	assert.False(t, sawAuthHeader)
}

func TestUploadErrors(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, true)

	file := buildTestWheel(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/exists/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, "<html>File already exists. See /help/#file-name-reuse</html>")
	})
	mux.HandleFunc("/huge/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, strings.Repeat("x", 20*1024))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	var httpErr *legacy_upload.HTTPError

	err := legacy_upload.Client{RepositoryURL: server.URL + "/exists/"}.Upload(ctx, file)
	require.Error(t, err)
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Contains(t, err.Error(), "File already exists")
	assert.Contains(t, err.Error(), `upload "dorest-0.1.2-py3-none-any.whl"`)
	assert.True(t, legacy_upload.IsAlreadyExists(err))

	// Error pages get truncated, not stored whole.
	err = legacy_upload.Client{RepositoryURL: server.URL + "/huge/"}.Upload(ctx, file)
	require.Error(t, err)
	require.True(t, errors.As(err, &httpErr))
	assert.Len(t, httpErr.Body, 8*1024)
	assert.False(t, legacy_upload.IsAlreadyExists(err))
}

func TestIsAlreadyExists(t *testing.T) {
	t.Parallel()

	testcases := map[string]struct {
		err error
		exp bool
	}{
		"nil":      {err: nil, exp: false},
		"not-http": {err: errors.New("connection refused"), exp: false},
		"conflict": {
			err: &legacy_upload.HTTPError{StatusCode: 409, Status: "409 Conflict"},
			exp: true,
		},
		"pypi": {
			err: &legacy_upload.HTTPError{
				StatusCode: 400,
				Status:     "400 Bad Request",
				Body:       "<html>File already exists. See /help/#file-name-reuse</html>",
			},
			exp: true,
		},
		"nexus-reason": {
			err: &legacy_upload.HTTPError{
				StatusCode: 400,
				Status:     "400 Repository does not allow updating assets: pypi",
			},
			exp: true,
		},
		"artifactory": {
			err: &legacy_upload.HTTPError{
				StatusCode: 403,
				Status:     "403 Forbidden",
				Body:       "Not enough permissions to overwrite artifact 'pypi-local:dorest/0.1.2'",
			},
			exp: true,
		},
		"gitlab": {
			err: &legacy_upload.HTTPError{
				StatusCode: 400,
				Status:     "400 Bad Request",
				Body:       `{"message":{"name":["has already been taken"]}}`,
			},
			exp: true,
		},
		"plain-400": {
			err: &legacy_upload.HTTPError{
				StatusCode: 400,
				Status:     "400 Bad Request",
				Body:       "invalid metadata",
			},
			exp: false,
		},
		"unauthorized": {
			err: &legacy_upload.HTTPError{StatusCode: 401, Status: "401 Unauthorized"},
			exp: false,
		},
		"wrapped": {
			err: fmt.Errorf("upload %q => %w", "x.whl",
				&legacy_upload.HTTPError{StatusCode: 409, Status: "409 Conflict"}),
			exp: true,
		},
	}
	for tcName, tcData := range testcases {
		tcData := tcData
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tcData.exp, legacy_upload.IsAlreadyExists(tcData.err))
		})
	}
}
