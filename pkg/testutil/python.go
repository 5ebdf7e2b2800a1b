// Copyright (C) 2025-2026  Rungsiman Nararatwong
//
// SPDX-License-Identifier: BSD-3-Clause

package testutil

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// sortedNames returns the map keys in lexical order, so that generated
// archives are deterministic.
func sortedNames(files map[string]string) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WheelDistInfoDir returns the `{distribution}-{version}.dist-info` directory
// name implied by a wheel filename.
func WheelDistInfoDir(filename string) string {
	parts := strings.SplitN(strings.TrimSuffix(filename, ".whl"), "-", 3)
	return parts[0] + "-" + parts[1] + ".dist-info"
}

// WheelRecord renders a RECORD document covering the given archive members,
// with correct `sha256=urlsafe_b64encode_nopad(digest)` hashes.
func WheelRecord(distInfoDir string, files map[string]string) string {
	var record strings.Builder
	for _, name := range sortedNames(files) {
		sum := sha256.Sum256([]byte(files[name]))
		fmt.Fprintf(&record, "%s,sha256=%s,%d\n",
			name, base64.RawURLEncoding.EncodeToString(sum[:]), len(files[name]))
	}
	fmt.Fprintf(&record, "%s/RECORD,,\n", distInfoDir)
	return record.String()
}

// BuildWheel writes a wheel containing the given archive members to dir and
// returns its path.  Unless files already contains one, a RECORD with correct
// hashes is generated; pass an explicit (wrong) RECORD to build a corrupt
// wheel.
func BuildWheel(t *testing.T, dir, filename string, files map[string]string) string {
	t.Helper()

	distInfoDir := WheelDistInfoDir(filename)
	recordName := distInfoDir + "/RECORD"
	if _, given := files[recordName]; !given {
		record := WheelRecord(distInfoDir, files)
		withRecord := make(map[string]string, len(files)+1)
		for name, body := range files {
			withRecord[name] = body
		}
		withRecord[recordName] = record
		files = withRecord
	}

	fullpath := filepath.Join(dir, filename)
	out, err := os.Create(fullpath)
	require.NoError(t, err)
	zipWriter := zip.NewWriter(out)
	for _, name := range sortedNames(files) {
		member, err := zipWriter.Create(name)
		require.NoError(t, err)
		_, err = member.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zipWriter.Close())
	require.NoError(t, out.Close())
	return fullpath
}

// BuildSDist writes an sdist containing the given archive members to dir and
// returns its path.  The archive format is chosen by the filename extension:
// `.tar.gz` or `.zip`.
func BuildSDist(t *testing.T, dir, filename string, files map[string]string) string {
	t.Helper()

	fullpath := filepath.Join(dir, filename)
	out, err := os.Create(fullpath)
	require.NoError(t, err)

	switch {
	case strings.HasSuffix(filename, ".tar.gz"):
		gzWriter := gzip.NewWriter(out)
		tarWriter := tar.NewWriter(gzWriter)
		for _, name := range sortedNames(files) {
			require.NoError(t, tarWriter.WriteHeader(&tar.Header{
				Typeflag: tar.TypeReg,
				Name:     name,
				Mode:     0o644,
				Size:     int64(len(files[name])),
			}))
			_, err := tarWriter.Write([]byte(files[name]))
			require.NoError(t, err)
		}
		require.NoError(t, tarWriter.Close())
		require.NoError(t, gzWriter.Close())
	case strings.HasSuffix(filename, ".zip"):
		zipWriter := zip.NewWriter(out)
		for _, name := range sortedNames(files) {
			member, err := zipWriter.Create(name)
			require.NoError(t, err)
			_, err = member.Write([]byte(files[name]))
			require.NoError(t, err)
		}
		require.NoError(t, zipWriter.Close())
	default:
		t.Fatalf("BuildSDist: unknown sdist extension: %q", filename)
	}

	require.NoError(t, out.Close())
	return fullpath
}
