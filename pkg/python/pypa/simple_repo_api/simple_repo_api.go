// Copyright (C) 2025-2026  Rungsiman Nararatwong
//
// SPDX-License-Identifier: BSD-3-Clause

// Package simple_repo_api implements a client for the PyPA Simple Repository
// API (PEP 503, plus the PEP 629 version meta tag): the per-project HTML
// pages that pip resolves installs against, and that `pypublish release
// --verify` polls after an upload.
//
// https://packaging.python.org/specifications/simple-repository-api/
package simple_repo_api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/datawire/dlib/dlog"
	"golang.org/x/net/html"

	"github.com/rungsiman/pypublish/pkg/htmlutil"
	"github.com/rungsiman/pypublish/pkg/python"
	"github.com/rungsiman/pypublish/pkg/python/pep440"
	"github.com/rungsiman/pypublish/pkg/python/pep503"
)

// PyPIBaseURL is the root of the canonical public index's simple API.
const PyPIBaseURL = "https://pypi.org/simple/"

// SupportedRepositoryVersion is the newest PEP 629 repository version this
// client knows it can read.
//
//nolint:gochecknoglobals // Would be 'const'.
var SupportedRepositoryVersion, _ = pep440.ParseVersion("1.0")

type Client struct {
	// BaseURL is the root of the simple API; PyPIBaseURL when empty.
	BaseURL string
	// HTTPClient is the client requests go through; http.DefaultClient when
	// nil.
	HTTPClient *http.Client
	// UserAgent is sent with every request.
	UserAgent string
}

func (c *Client) fillDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = PyPIBaseURL
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
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %s", e.Status)
}

// A Link is one `<a>` element of a simple-API page; for a project page, one
// distribution file.
type Link struct {
	// Text is the element's text content; the API says it must be the
	// file's basename.
	Text string
	// HRef is the file's URL.  It may carry a `#algo=hexdigest` checksum
	// fragment.
	HRef string
	// DataAttrs are the element's data-* attributes (data-requires-python,
	// data-yanked, ...).
	DataAttrs map[string]string
}

// Yanked reports whether the file was yanked (PEP 592); the attribute's mere
// presence is the flag, its value is only an optional reason.
func (l Link) Yanked() bool {
	_, yanked := l.DataAttrs["data-yanked"]
	return yanked
}

// ProjectURL returns the URL of a project's page under the client's base
// URL.
func (c Client) ProjectURL(projectName string) (string, error) {
	if err := pep503.CheckName(projectName); err != nil {
		return "", err
	}
	c.fillDefaults()
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", err
	}
	// PEP 503: project pages live at "{base}/{normalized-name}/", with the
	// trailing slash.
	u.Path = path.Join(u.Path, pep503.NormalizeName(projectName)) + "/"
	return u.String(), nil
}

// ListProjectFiles fetches a project's page and returns one Link per
// distribution file the index has for it.
func (c Client) ListProjectFiles(ctx context.Context, projectName string) ([]Link, error) {
	c.fillDefaults()
	pageURL, err := c.ProjectURL(projectName)
	if err != nil {
		return nil, err
	}
	location, content, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return parsePage(ctx, location, content)
}

// GetFile downloads a file link, verifying the checksum fragment if the link
// carries one.
func (c Client) GetFile(ctx context.Context, link Link) ([]byte, error) {
	c.fillDefaults()
	_, content, err := c.get(ctx, link.HRef)
	return content, err
}

// get GETs a URL.  If the URL has a `#algo=hexdigest` fragment naming a hash
// algorithm we know, the response body is verified against it.
func (c Client) get(ctx context.Context, requestURL string) (_ *url.URL, _ []byte, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("GET %q => %w", requestURL, err)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		_ = resp.Body.Close()
		return nil, nil, err
	}
	if err := resp.Body.Close(); err != nil {
		return nil, nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, nil, &HTTPError{Status: resp.Status, StatusCode: resp.StatusCode}
	}

	if u, err := url.Parse(requestURL); err == nil && u.Fragment != "" {
		if err := verifyFragment(u.Fragment, content); err != nil {
			return nil, nil, err
		}
	}

	return resp.Request.URL, content, nil
}

// verifyFragment checks the body against a URL's `algo=hexdigest` checksum
// fragment.  Fragment keys that aren't hashlib algorithm names are ignored;
// they aren't checksums.
func verifyFragment(fragment string, content []byte) error {
	keyvals, err := url.ParseQuery(fragment)
	if err != nil {
		return nil //nolint:nilerr // not a checksum fragment, nothing to verify
	}
	for algo, vals := range keyvals {
		if _, known := python.HashlibAlgorithmsGuaranteed[algo]; !known {
			continue
		}
		digests, err := python.Digest(bytes.NewReader(content), algo)
		if err != nil {
			return err
		}
		for _, val := range vals {
			if !strings.EqualFold(digests[algo], val) {
				return fmt.Errorf("checksum mismatch: %s: expected=%s actual=%s",
					algo, val, digests[algo])
			}
		}
	}
	return nil
}

// ParseIndexHTML parses the links out of an already-fetched simple-API page,
// leaving HRefs exactly as written in the document.  The s3 publisher uses
// this to read back the index pages it generates.
func ParseIndexHTML(ctx context.Context, content []byte) ([]Link, error) {
	return parsePage(ctx, nil, content)
}

// parsePage parses a simple-API page: it checks the PEP 629 repository
// version and collects the links, resolving each href against pageURL when
// pageURL is non-nil.
func parsePage(ctx context.Context, pageURL *url.URL, content []byte) ([]Link, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	if err := checkRepositoryVersion(ctx, doc); err != nil {
		return nil, err
	}

	var links []Link
	if err := htmlutil.VisitHTML(doc, func(node *html.Node) error {
		if node.Type != html.ElementNode || node.Data != "a" {
			return nil
		}
		link := Link{
			DataAttrs: make(map[string]string),
		}
		for _, attr := range node.Attr {
			switch {
			case attr.Namespace == "" && attr.Key == "href":
				link.HRef = attr.Val
				if pageURL != nil {
					href, err := pageURL.Parse(attr.Val)
					if err != nil {
						return err
					}
					link.HRef = href.String()
				}
			case attr.Namespace == "" && strings.HasPrefix(attr.Key, "data-"):
				link.DataAttrs[attr.Key] = attr.Val
			}
		}
		var text strings.Builder
		_ = htmlutil.VisitHTML(node, func(child *html.Node) error {
			if child.Type == html.TextNode {
				text.WriteString(child.Data)
			}
			return nil
		}, nil)
		link.Text = text.String()
		links = append(links, link)
		return nil
	}, nil); err != nil {
		return nil, err
	}

	return links, nil
}

// checkRepositoryVersion enforces PEP 629: refuse pages whose
// `pypi:repository-version` major version is newer than ours, and warn about
// newer minor versions.  A page without the meta tag is taken as 1.0.
func checkRepositoryVersion(ctx context.Context, doc *html.Node) error {
	verStr := ""
	_ = htmlutil.VisitHTML(doc, func(node *html.Node) error {
		if node.Type != html.ElementNode || node.Data != "meta" {
			return nil
		}
		if name, _ := htmlutil.GetAttr(node, "", "name"); name != "pypi:repository-version" {
			return nil
		}
		if content, ok := htmlutil.GetAttr(node, "", "content"); ok {
			verStr = content
		}
		return nil
	}, nil)
	if verStr == "" {
		verStr = "1.0"
	}
	version, err := pep440.ParseVersion(verStr)
	if err != nil {
		return fmt.Errorf("pypi:repository-version: %w", err)
	}
	if version.Major() > SupportedRepositoryVersion.Major() {
		return fmt.Errorf("server's pypi:repository-version (%s) is not compatible with this client", version)
	}
	if version.Minor() > SupportedRepositoryVersion.Minor() {
		dlog.Warnf(ctx, "server's pypi:repository-version (%s) is newer than this client", version)
	}
	return nil
}
