// Copyright (C) 2025-2026  Rungsiman Nararatwong
//
// SPDX-License-Identifier: BSD-3-Clause

// Package s3repo publishes distributions to an S3 bucket laid out as a
// PEP 503 simple index: a static package repository that pip can install
// from once the bucket (or a CDN in front of it) is served over HTTP.
//
// Under the target prefix, the layout is
//
//	{prefix}/{normalized-project}/{filename}
//	{prefix}/{normalized-project}/index.html
package s3repo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"
	"text/template"

	"github.com/datawire/dlib/dlog"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/rungsiman/pypublish/pkg/python/dist"
	"github.com/rungsiman/pypublish/pkg/python/pypa/simple_repo_api"
)

// EndpointEnv names the environment variable that points pypublish at a
// non-AWS S3-compatible endpoint (a local MinIO, say).  An "http://" prefix
// turns TLS off.
const EndpointEnv = "PYPUBLISH_S3_ENDPOINT"

const defaultEndpoint = "s3.amazonaws.com"

const indexBasename = "index.html"

// A Target is a parsed "s3://bucket/prefix" repository URL.
type Target struct {
	Bucket string
	Prefix string
}

// IsS3URL reports whether a repository URL names an S3 target rather than an
// HTTP upload endpoint.
func IsS3URL(repoURL string) bool {
	return strings.HasPrefix(repoURL, "s3://")
}

// ParseTarget parses "s3://bucket[/prefix]".
func ParseTarget(repoURL string) (Target, error) {
	u, err := url.Parse(repoURL)
	if err != nil {
		return Target{}, err
	}
	if u.Scheme != "s3" {
		return Target{}, fmt.Errorf("not an s3:// URL: %q", repoURL)
	}
	if u.Host == "" {
		return Target{}, fmt.Errorf("s3 URL %q names no bucket", repoURL)
	}
	return Target{
		Bucket: u.Host,
		Prefix: strings.Trim(u.Path, "/"),
	}, nil
}

func (t Target) String() string {
	if t.Prefix == "" {
		return "s3://" + t.Bucket
	}
	return "s3://" + t.Bucket + "/" + t.Prefix
}

// key joins path elements under the target's prefix in to an object key.
func (t Target) key(elem ...string) string {
	if t.Prefix != "" {
		elem = append([]string{t.Prefix}, elem...)
	}
	return path.Join(elem...)
}

// A Publisher writes distribution files and index pages to one bucket.
type Publisher struct {
	client *minio.Client
	target Target
}

// NewPublisher dials the endpoint named by $PYPUBLISH_S3_ENDPOINT (plain AWS
// when unset), with credentials from the standard AWS environment variables.
func NewPublisher(target Target) (*Publisher, error) {
	endpoint := os.Getenv(EndpointEnv)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	secure := true
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		endpoint = strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		endpoint = strings.TrimPrefix(endpoint, "http://")
		secure = false
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewEnvAWS(),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	return &Publisher{
		client: client,
		target: target,
	}, nil
}

// Upload puts one distribution file under the target, then rebuilds the
// project's index page to match the bucket.  With skipExisting, a file the
// bucket already has becomes a logged no-op instead of an error.
func (pub *Publisher) Upload(ctx context.Context, file *dist.File, skipExisting bool) error {
	project := file.NormalizedName()
	fileKey := pub.target.key(project, file.Filename())

	_, statErr := pub.client.StatObject(ctx, pub.target.Bucket, fileKey, minio.StatObjectOptions{})
	switch {
	case statErr == nil:
		if skipExisting {
			dlog.Infof(ctx, "skipping %s: already on %s", file.Filename(), pub.target)
			return nil
		}
		return fmt.Errorf("%s already exists on %s (--skip-existing to ignore)",
			file.Filename(), pub.target)
	case minio.ToErrorResponse(statErr).Code != "NoSuchKey":
		return fmt.Errorf("stat %q: %w", fileKey, statErr)
	}

	digests, err := file.Digests("sha256")
	if err != nil {
		return err
	}
	content, err := os.ReadFile(file.Path)
	if err != nil {
		return err
	}
	_, err = pub.client.PutObject(ctx, pub.target.Bucket, fileKey,
		bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{
			ContentType: "application/octet-stream",
			// Recorded so that later reindexes can recover the digest
			// without re-downloading the file.
			UserMetadata: map[string]string{"Sha256": digests["sha256"]},
		})
	if err != nil {
		return fmt.Errorf("put %q: %w", fileKey, err)
	}

	return pub.Reindex(ctx, project)
}

// Reindex rebuilds a project's index.html from what the bucket actually
// holds.  Digests come from each object's metadata, falling back to the old
// index page for objects uploaded by something else.
func (pub *Publisher) Reindex(ctx context.Context, project string) error {
	indexKey := pub.target.key(project, indexBasename)

	// Digests recorded in the old page, if there is one.
	knownDigests := make(map[string]string)
	if content, found, err := pub.getObject(ctx, indexKey); err != nil {
		return err
	} else if found {
		links, err := simple_repo_api.ParseIndexHTML(ctx, content)
		if err != nil {
			dlog.Warnf(ctx, "ignoring unparseable %s: %v", indexKey, err)
		}
		for _, link := range links {
			if entry := entryFromLink(link); entry.SHA256 != "" {
				knownDigests[entry.Filename] = entry.SHA256
			}
		}
	}

	prefix := pub.target.key(project) + "/"
	var entries []indexEntry
	for obj := range pub.client.ListObjects(ctx, pub.target.Bucket, minio.ListObjectsOptions{
		Prefix: prefix,
	}) {
		if obj.Err != nil {
			return fmt.Errorf("list %q: %w", prefix, obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, prefix)
		if name == "" || name == indexBasename || strings.Contains(name, "/") {
			continue
		}
		sha := knownDigests[name]
		if sha == "" {
			info, err := pub.client.StatObject(ctx, pub.target.Bucket, obj.Key, minio.StatObjectOptions{})
			if err != nil {
				return fmt.Errorf("stat %q: %w", obj.Key, err)
			}
			sha = info.UserMetadata["Sha256"]
		}
		entries = append(entries, indexEntry{Filename: name, SHA256: sha})
	}

	page, err := renderIndex(project, entries)
	if err != nil {
		return err
	}
	_, err = pub.client.PutObject(ctx, pub.target.Bucket, indexKey,
		bytes.NewReader(page), int64(len(page)),
		minio.PutObjectOptions{ContentType: "text/html"})
	if err != nil {
		return fmt.Errorf("put %q: %w", indexKey, err)
	}
	dlog.Infof(ctx, "reindexed %s (%d files)", pub.target.key(project), len(entries))
	return nil
}

// getObject reads a whole object; a missing key is (nil, false, nil), not an
// error.
func (pub *Publisher) getObject(ctx context.Context, key string) ([]byte, bool, error) {
	obj, err := pub.client.GetObject(ctx, pub.target.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, false, err
	}
	defer obj.Close()
	content, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return nil, false, nil
		}
		return nil, false, err
	}
	return content, true, nil
}

// An indexEntry is one file line of a project's index page.
type indexEntry struct {
	Filename string
	SHA256   string
}

// entryFromLink recovers an indexEntry from a parsed index page link.
func entryFromLink(link simple_repo_api.Link) indexEntry {
	entry := indexEntry{Filename: link.Text}
	href := link.HRef
	if hash := strings.Index(href, "#"); hash >= 0 {
		if vals, err := url.ParseQuery(href[hash+1:]); err == nil {
			entry.SHA256 = vals.Get("sha256")
		}
		href = href[:hash]
	}
	if entry.Filename == "" {
		entry.Filename = path.Base(href)
	}
	return entry
}

//nolint:gochecknoglobals // Would be 'const'.
var indexTemplate = template.Must(template.New(indexBasename).Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta name="pypi:repository-version" content="1.0">
    <title>Links for {{.Project}}</title>
  </head>
  <body>
    <h1>Links for {{.Project}}</h1>
{{- range .Entries}}
    <a href="{{.Filename}}{{with .SHA256}}#sha256={{.}}{{end}}">{{.Filename}}</a><br/>
{{- end}}
  </body>
</html>
`))

// renderIndex renders a project's index page; entries are sorted so the
// output is stable for a given bucket state.
func renderIndex(project string, entries []indexEntry) ([]byte, error) {
	sorted := make([]indexEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Filename < sorted[j].Filename })

	var page bytes.Buffer
	err := indexTemplate.Execute(&page, map[string]interface{}{
		"Project": project,
		"Entries": sorted,
	})
	if err != nil {
		return nil, err
	}
	return page.Bytes(), nil
}
