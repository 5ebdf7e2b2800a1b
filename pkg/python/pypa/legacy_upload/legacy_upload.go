// Copyright (C) 2025-2026  Rungsiman Nararatwong
//
// SPDX-License-Identifier: BSD-3-Clause

// Package legacy_upload implements a client for the PyPA "legacy" upload
// API: the multipart POST endpoint at upload.pypi.org/legacy/ (and its many
// third-party reimplementations) that `twine upload` speaks.
//
// "Legacy" is the API's actual name, not a deprecation notice; there is no
// non-legacy upload API yet.
//
// https://docs.pypi.org/api/upload/
package legacy_upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/rungsiman/pypublish/pkg/python"
	"github.com/rungsiman/pypublish/pkg/python/dist"
)

const (
	// PyPIUploadURL is the canonical public index's upload endpoint.
	PyPIUploadURL = "https://upload.pypi.org/legacy/"
	// TestPyPIUploadURL is the upload endpoint of the public staging index.
	TestPyPIUploadURL = "https://test.pypi.org/legacy/"
)

// maxErrBodyLen bounds how much of an error response we keep; indexes front
// their APIs with HTML error pages of arbitrary size.
const maxErrBodyLen = 8 * 1024

type Client struct {
	// RepositoryURL is the upload endpoint; PyPIUploadURL when empty.
	RepositoryURL string
	// HTTPClient is the client requests go through; http.DefaultClient when
	// nil.
	HTTPClient *http.Client
	// UserAgent is sent with every request.
	UserAgent string
	// Username and Password authenticate the upload; sent as HTTP basic auth
	// when Username is non-empty.  For PyPI API tokens the Username is
	// "__token__" and the Password is the token.
	Username string
	Password string
}

func (c *Client) fillDefaults() {
	if c.RepositoryURL == "" {
		c.RepositoryURL = PyPIUploadURL
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.UserAgent == "" {
		c.UserAgent = "pypublish (+https://github.com/rungsiman/pypublish)"
	}
}

type HTTPError struct {
	Status     string
	StatusCode int
	// Body is the response body, truncated to a sane length; indexes put
	// the reason an upload was rejected there.
	Body string
}

func (e *HTTPError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("HTTP %s", e.Status)
	}
	return fmt.Sprintf("HTTP %s: %s", e.Status, body)
}

// IsAlreadyExists reports whether an Upload error means the index already
// has a file by that name.  There is no standard way for an index to say
// this; these heuristics match the ones `twine upload --skip-existing`
// applies, covering PyPI, pypiserver, Nexus, Artifactory, and GitLab.
func IsAlreadyExists(err error) bool {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	reason := strings.ToLower(httpErr.Status)
	text := strings.ToLower(httpErr.Body)
	switch httpErr.StatusCode {
	case http.StatusConflict:
		return true
	case http.StatusBadRequest:
		return strings.Contains(reason, "already exist") ||
			strings.Contains(text, "already exist") ||
			strings.Contains(reason, "updating asset") ||
			strings.Contains(text, "updating asset") ||
			strings.Contains(text, "already been taken")
	case http.StatusForbidden:
		return strings.Contains(text, "overwrite artifact")
	default:
		return false
	}
}

// Upload posts one distribution file to the index.
//
// The request is the flattened core metadata as form fields, plus the
// file-level fields (":action", "protocol_version", "filetype", "pyversion",
// and the content digests), plus the file itself as the "content" part.  The
// digests are computed from the exact bytes uploaded.
func (c Client) Upload(ctx context.Context, file *dist.File) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("upload %q => %w", file.Filename(), err)
		}
	}()
	c.fillDefaults()

	content, err := os.ReadFile(file.Path)
	if err != nil {
		return err
	}
	digests, err := python.Digest(bytes.NewReader(content),
		"md5", "sha256", python.Blake2_256)
	if err != nil {
		return err
	}

	fields := file.Metadata.ToForm()
	fields.Set(":action", "file_upload")
	fields.Set("protocol_version", "1")
	fields.Set("filetype", string(file.Kind))
	fields.Set("pyversion", file.PyVersion)
	fields.Set("md5_digest", digests["md5"])
	fields.Set("sha256_digest", digests["sha256"])
	fields.Set("blake2_256_digest", digests[python.Blake2_256])

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		for _, val := range fields[key] {
			if val == "" {
				continue
			}
			if err := writer.WriteField(key, val); err != nil {
				return err
			}
		}
	}
	part, err := writer.CreateFormFile("content", file.Filename())
	if err != nil {
		return err
	}
	if _, err := part.Write(content); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.RepositoryURL, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("User-Agent", c.UserAgent)
	if c.Username != "" {
		req.SetBasicAuth(c.Username, c.Password)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxErrBodyLen))
	if closeErr := resp.Body.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{
			Status:     resp.Status,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}
	return nil
}
