// Copyright (C) 2025-2026  Rungsiman Nararatwong
//
// SPDX-License-Identifier: BSD-3-Clause

package dist

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rungsiman/pypublish/pkg/python/metadata"
	"github.com/rungsiman/pypublish/pkg/python/pep440"
)

// An sdist is a gzipped tarball (or, historically, a ZIP) with a single
// `{name}-{version}/` directory at the root; the metadata document lives at
// `{name}-{version}/PKG-INFO`.

var errNoPKGINFO = errors.New("PKG-INFO not found at the root of the sdist")

// isRootPKGINFO reports whether an archive member name is the
// `{name}-{version}/PKG-INFO` file.
func isRootPKGINFO(name string) bool {
	parts := strings.Split(path.Clean(name), "/")
	return len(parts) == 2 && parts[1] == "PKG-INFO"
}

func sdistMetadataFromTar(fullpath string) (_ *metadata.Metadata, err error) {
	file, err := os.Open(fullpath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, err
	}
	tarReader := tar.NewReader(gzReader)
	for {
		header, err := tarReader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errNoPKGINFO
			}
			return nil, err
		}
		if header.Typeflag != tar.TypeReg || !isRootPKGINFO(header.Name) {
			continue
		}
		return metadata.Parse(tarReader)
	}
}

func sdistMetadataFromZip(fullpath string) (_ *metadata.Metadata, err error) {
	zipReader, err := zip.OpenReader(fullpath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := zipReader.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for _, member := range zipReader.File {
		if member.FileInfo().IsDir() || !isRootPKGINFO(member.Name) {
			continue
		}
		reader, err := member.Open()
		if err != nil {
			return nil, err
		}
		md, err := metadata.Parse(reader)
		if err != nil {
			_ = reader.Close()
			return nil, err
		}
		if err := reader.Close(); err != nil {
			return nil, err
		}
		return md, nil
	}
	return nil, errNoPKGINFO
}

func openSDist(fullpath string) (*File, error) {
	base := filepath.Base(fullpath)

	var (
		md  *metadata.Metadata
		err error
	)
	switch sdistExt(base) {
	case "tar.gz":
		md, err = sdistMetadataFromTar(fullpath)
	case "zip":
		md, err = sdistMetadataFromZip(fullpath)
	default:
		panic("not reached") // Open already dispatched on the extension
	}
	if err != nil {
		return nil, fmt.Errorf("dist.Open: %q: read metadata: %w", base, err)
	}

	if md.Name == "" {
		return nil, fmt.Errorf("dist.Open: %q: metadata has no Name", base)
	}
	mdVersion, err := pep440.ParseVersion(md.Version)
	if err != nil {
		return nil, fmt.Errorf("dist.Open: %q: metadata Version: %w", base, err)
	}

	// The filename is only advisory for sdists (legacy tools did not escape
	// dashes in the name), so a filename that doesn't parse is fine; but a
	// filename that parses and disagrees with the metadata is the same error
	// it would be for a wheel.
	if fnData, fnErr := ParseSDistFilename(base); fnErr == nil {
		if !strings.EqualFold(escapeName(md.Name), escapeName(fnData.Distribution)) {
			return nil, fmt.Errorf("dist.Open: %q: filename says the project is %q but the metadata says %q",
				base, fnData.Distribution, md.Name)
		}
		if mdVersion.Cmp(fnData.Version) != 0 {
			return nil, fmt.Errorf("dist.Open: %q: filename says the version is %q but the metadata says %q",
				base, fnData.Version.String(), md.Version)
		}
	}

	return &File{
		Path:      fullpath,
		Kind:      KindSDist,
		Name:      md.Name,
		Version:   *mdVersion,
		PyVersion: "source",
		Metadata:  md,
	}, nil
}
