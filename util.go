package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/datawire/dlib/dlog"
	"github.com/dustin/go-humanize"

	"github.com/rungsiman/pypublish/pkg/publish"
	"github.com/rungsiman/pypublish/pkg/python/dist"
	"github.com/rungsiman/pypublish/pkg/python/pypa/legacy_upload"
	"github.com/rungsiman/pypublish/pkg/s3repo"
)

// expandDistArgs expands the DIST... arguments that check/show/upload take.
// Each argument may name a distribution file, a directory (meaning the
// distribution files in it), or a glob pattern.  The result is sorted and
// deduplicated.
func expandDistArgs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		if info, err := os.Stat(arg); err == nil {
			if info.IsDir() {
				inDir, err := publish.ListDistFiles(arg)
				if err != nil {
					return nil, err
				}
				files = append(files, inDir...)
			} else {
				files = append(files, arg)
			}
			continue
		}
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%q: no such file, directory, or glob match", arg)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	deduped := files[:0]
	for i, file := range files {
		if i == 0 || file != files[i-1] {
			deduped = append(deduped, file)
		}
	}
	return deduped, nil
}

// checkFile opens a distribution file and runs the local validity checks on
// it: the filename must parse, the embedded metadata must parse and validate
// (dist.Open already cross-checks it against the filename), and for wheels
// every RECORD hash must match the archived contents.
func checkFile(path string) (*dist.File, error) {
	file, err := dist.Open(path)
	if err != nil {
		return nil, err
	}
	if err := file.Metadata.Validate(); err != nil {
		return nil, fmt.Errorf("%s: metadata: %w", file.Filename(), err)
	}
	if err := file.VerifyContents(); err != nil {
		return nil, err
	}
	return file, nil
}

// uploadFiles sends distribution files to the resolved repository, picking
// the transport from the URL scheme: s3:// buckets get the simple-index
// publisher, anything else speaks the legacy upload API.
func uploadFiles(ctx context.Context, vals *publish.Values, files []*dist.File) error {
	if s3repo.IsS3URL(vals.RepositoryURL) {
		target, err := s3repo.ParseTarget(vals.RepositoryURL)
		if err != nil {
			return err
		}
		publisher, err := s3repo.NewPublisher(target)
		if err != nil {
			return err
		}
		for _, file := range files {
			if err := publisher.Upload(ctx, file, vals.SkipExisting); err != nil {
				return err
			}
		}
		return nil
	}

	if err := vals.CheckCredentials(); err != nil {
		return err
	}
	client := &legacy_upload.Client{
		RepositoryURL: vals.RepositoryURL,
		Username:      vals.Username,
		Password:      vals.Password,
	}
	for _, file := range files {
		size, err := file.Size()
		if err != nil {
			return err
		}
		dlog.Infof(ctx, "uploading %s (%s) to %s",
			file.Filename(), humanize.Bytes(uint64(size)), vals.RepositoryURL)
		switch err := client.Upload(ctx, file); {
		case err == nil:
		case vals.SkipExisting && legacy_upload.IsAlreadyExists(err):
			dlog.Infof(ctx, "skipping %s, the repository already has it", file.Filename())
		default:
			return err
		}
	}
	return nil
}
