// Copyright (C) 2025-2026  Rungsiman Nararatwong
//
// SPDX-License-Identifier: BSD-3-Clause

package dist

import (
	"archive/zip"
	"bufio"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"net/textproto"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/datawire/dlib/derror"

	"github.com/rungsiman/pypublish/pkg/python/metadata"
	"github.com/rungsiman/pypublish/pkg/python/pep425"
	"github.com/rungsiman/pypublish/pkg/python/pep440"
)

// A wheel is a ZIP-format archive with a specially formatted file name and
// the .whl extension; metadata lives in a `{distribution}-{version}.dist-info`
// directory within it.
type wheelArchive struct {
	zip *zip.Reader

	cachedDistInfoDir string
}

func (wh *wheelArchive) open(filename string) (io.ReadCloser, error) {
	filename = path.Clean(filename)
	for _, file := range wh.zip.File {
		if path.Clean(file.Name) == filename {
			return file.Open()
		}
	}
	return nil, fmt.Errorf("%w in wheel zip archive: %q", fs.ErrNotExist, filename)
}

// distInfoDir returns the "{name}.dist-info" directory for the wheel file.
//
// This is based off of `pip/_internal/utils/wheel.py:wheel_dist_info_dir()`,
// since the wheel spec doesn't actually have much to say about resolving
// ambiguity.
func (wh *wheelArchive) distInfoDir() (string, error) {
	if wh.cachedDistInfoDir != "" {
		return wh.cachedDistInfoDir, nil
	}
	infoDirs := make(map[string]struct{})
	for _, file := range wh.zip.File {
		dirname := strings.Split(path.Clean(file.FileHeader.Name), "/")[0]
		if !strings.HasSuffix(dirname, ".dist-info") {
			continue
		}
		infoDirs[dirname] = struct{}{}
	}

	switch len(infoDirs) {
	case 0:
		return "", fmt.Errorf(".dist-info directory not found")
	case 1:
		for infoDir := range infoDirs {
			wh.cachedDistInfoDir = infoDir
			return infoDir, nil
		}
		panic("not reached")
	default:
		list := make([]string, 0, len(infoDirs))
		for dir := range infoDirs {
			list = append(list, dir)
		}
		sort.Strings(list)
		return "", fmt.Errorf("multiple .dist-info directories found: %v", list)
	}
}

func (wh *wheelArchive) parseDistInfoMetadata() (*metadata.Metadata, error) {
	infoDir, err := wh.distInfoDir()
	if err != nil {
		return nil, err
	}
	mdFile, err := wh.open(path.Join(infoDir, "METADATA"))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = mdFile.Close()
	}()
	return metadata.Parse(mdFile)
}

// parseDistInfoWheel reads the `{name}.dist-info/WHEEL` file; metadata about
// the archive itself, in the same `Key: value` format as METADATA::
//
//	Wheel-Version: 1.0
//	Generator: bdist_wheel 1.0
//	Root-Is-Purelib: true
//	Tag: py2-none-any
//	Tag: py3-none-any
func (wh *wheelArchive) parseDistInfoWheel() (textproto.MIMEHeader, error) {
	infoDir, err := wh.distInfoDir()
	if err != nil {
		return nil, err
	}
	wheelFile, err := wh.open(path.Join(infoDir, "WHEEL"))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = wheelFile.Close()
	}()

	// WHEEL has no body, so the blank line that ReadMIMEHeader insists on
	// marking the end of the header with may be missing; pad with CRLFs.
	kvReader := textproto.NewReader(bufio.NewReader(io.MultiReader(
		wheelFile,
		strings.NewReader("\r\n\r\n\r\n"),
	)))
	return kvReader.ReadMIMEHeader()
}

func openWheel(fullpath string) (*File, error) {
	fnData, err := ParseWheelFilename(filepath.Base(fullpath))
	if err != nil {
		return nil, fmt.Errorf("dist.Open: %w", err)
	}

	zipReader, err := zip.OpenReader(fullpath)
	if err != nil {
		return nil, fmt.Errorf("dist.Open: open wheel: %w", err)
	}
	defer func() {
		_ = zipReader.Close()
	}()
	wh := &wheelArchive{ //nolint:varnamelen // same as receiver name
		zip: &zipReader.Reader,

		cachedDistInfoDir: "", // don't know it yet
	}

	md, err := wh.parseDistInfoMetadata()
	if err != nil {
		return nil, fmt.Errorf("dist.Open: %q: read metadata: %w", filepath.Base(fullpath), err)
	}

	// The filename and the metadata both claim a name and a version; if they
	// disagree the index would reject the file, so reject it here.
	if !strings.EqualFold(escapeName(md.Name), escapeName(fnData.Distribution)) {
		return nil, fmt.Errorf("dist.Open: %q: filename says the project is %q but the metadata says %q",
			filepath.Base(fullpath), fnData.Distribution, md.Name)
	}
	mdVersion, err := pep440.ParseVersion(md.Version)
	if err != nil {
		return nil, fmt.Errorf("dist.Open: %q: metadata Version: %w", filepath.Base(fullpath), err)
	}
	if mdVersion.Cmp(fnData.Version) != 0 {
		return nil, fmt.Errorf("dist.Open: %q: filename says the version is %q but the metadata says %q",
			filepath.Base(fullpath), fnData.Version.String(), md.Version)
	}

	return &File{
		Path:      fullpath,
		Kind:      KindWheel,
		Name:      md.Name,
		Version:   *mdVersion,
		PyVersion: fnData.CompatibilityTag.Python,
		Tag:       &fnData.CompatibilityTag,
		BuildTag:  fnData.BuildTag,
		Metadata:  md,
	}, nil
}

// verifyWheel re-opens the wheel at the given path and checks the WHEEL file
// and RECORD.
func verifyWheel(fullpath string) error {
	fnData, err := ParseWheelFilename(filepath.Base(fullpath))
	if err != nil {
		return err
	}
	zipReader, err := zip.OpenReader(fullpath)
	if err != nil {
		return fmt.Errorf("open wheel: %w", err)
	}
	defer func() {
		_ = zipReader.Close()
	}()
	wh := &wheelArchive{zip: &zipReader.Reader}
	if err := wh.verifyWheelFile(fnData.CompatibilityTag); err != nil {
		return err
	}
	return wh.verifyRecord()
}

// verifyWheelFile checks `{name}.dist-info/WHEEL`: the Wheel-Version must be
// one this parser understands, and the Tag lines must expand to the same set
// of simple tags as the compatibility tag in the wheel's filename.
func (wh *wheelArchive) verifyWheelFile(fnTag pep425.Tag) error {
	header, err := wh.parseDistInfoWheel()
	if err != nil {
		return fmt.Errorf("parse .dist-info/WHEEL: %w", err)
	}

	var errs derror.MultiError

	switch wheelVersion, err := pep440.ParseVersion(header.Get("Wheel-Version")); {
	case err != nil:
		errs = append(errs, fmt.Errorf("WHEEL Wheel-Version: %w", err))
	case wheelVersion.Major() > 1:
		// Newer minor versions are fine to upload; only a newer major
		// version means the rest of the file can't be trusted to mean what
		// this parser thinks it means.
		errs = append(errs, fmt.Errorf("WHEEL Wheel-Version (%s) is not compatible with this wheel parser",
			wheelVersion))
	}

	fnTags := make(map[pep425.Tag]struct{})
	for _, tag := range fnTag.Decompress() {
		fnTags[tag] = struct{}{}
	}
	whTags := make(map[pep425.Tag]struct{})
	for _, tagStr := range header.Values("Tag") {
		tag, err := pep425.ParseTag(tagStr)
		if err != nil {
			errs = append(errs, fmt.Errorf("WHEEL Tag: %w", err))
			continue
		}
		for _, simple := range tag.Decompress() {
			whTags[simple] = struct{}{}
		}
	}
	// Some generators skip the Tag lines entirely; only cross-check the
	// filename against them when they're present.
	if len(whTags) > 0 && !tagSetsEqual(fnTags, whTags) {
		errs = append(errs, fmt.Errorf("filename compatibility tag %q does not match WHEEL Tag lines %q",
			fnTag, header.Values("Tag")))
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func tagSetsEqual(a, b map[pep425.Tag]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for tag := range a {
		if _, ok := b[tag]; !ok {
			return false
		}
	}
	return true
}

// The RECORD file lists (almost) all the files in the wheel and their secure
// hashes, `digestname=urlsafe_b64encode_nopad(digest)`.  The hash algorithm
// must be sha256 or better; md5 and sha1 are not permitted.
//
//nolint:gochecknoglobals // Would be 'const'.
var strongHashes = map[string]func() hash.Hash{
	// The spec is an open-ended list of hashes, so here's what pip
	// pip/_internal/utils/hashes.py includes:
	"sha256": sha256.New,
	"sha384": sha512.New384,
	"sha512": sha512.New,
}

// verifyRecord checks every hash in RECORD against the archive contents, and
// checks that everything in the archive is mentioned in RECORD.  RECORD
// itself and its detached signatures are exempt.
func (wh *wheelArchive) verifyRecord() error {
	distInfoDir, err := wh.distInfoDir()
	if err != nil {
		return err
	}

	todo := make(map[string]struct{})
	for _, file := range wh.zip.File {
		if file.FileInfo().IsDir() {
			continue
		}
		name := path.Clean(file.Name)
		switch name {
		case path.Join(distInfoDir, "RECORD.jws"):
			// skip
		case path.Join(distInfoDir, "RECORD.p7s"):
			// skip
		default:
			todo[name] = struct{}{}
		}
	}

	recordData, err := func() ([][]string, error) {
		recordName := path.Join(distInfoDir, "RECORD")
		reader, err := wh.open(recordName)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = reader.Close()
		}()
		data, err := csv.NewReader(reader).ReadAll()
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", recordName, err)
		}
		return data, nil
	}()
	if err != nil {
		return err
	}

	checkFile := func(filename, algo string) (hashsum string, size int64, err error) {
		reader, err := wh.open(filename)
		if err != nil {
			return "", 0, err
		}
		defer func() {
			_ = reader.Close()
		}()

		var (
			hasher hash.Hash
			dst    = io.Discard
		)
		if algo != "" {
			newHasher, ok := strongHashes[algo]
			if !ok {
				return "", 0, fmt.Errorf("unsupported hash algorithm: %q", algo)
			}
			hasher = newHasher()
			dst = hasher
		}

		size, err = io.Copy(dst, reader)
		if err != nil {
			return "", 0, err
		}

		if hasher != nil {
			hashsum = algo + "=" + base64.RawURLEncoding.EncodeToString(hasher.Sum(nil))
		}

		return hashsum, size, err
	}

	var errs derror.MultiError
	for i, row := range recordData {
		if len(row) != 3 {
			errs = append(errs, fmt.Errorf("RECORD row %d: does not have 3 columns: %q", i, row))
			continue
		}
		name, recHashsum, recSize := path.Clean(row[0]), row[1], row[2]
		delete(todo, name)
		if recHashsum == "" || recSize == "" {
			switch name {
			case path.Join(distInfoDir, "RECORD"):
				// skip
			default:
				errs = append(errs, fmt.Errorf("RECORD row %d: missing hash or size: %q", i, row))
			}
		}

		algo := strings.SplitN(recHashsum, "=", 2)[0]
		actHashsum, actSize, err := checkFile(name, algo)
		if err != nil {
			errs = append(errs, fmt.Errorf("RECORD row %d: file %q: %w",
				i, name, err))
			continue
		}
		if recHashsum != "" && actHashsum != recHashsum {
			errs = append(errs, fmt.Errorf("RECORD row %d: file %q: checksum mismatch: RECORD=%q actual=%q",
				i, name, recHashsum, actHashsum))
		}
		if recSize != "" && strconv.FormatInt(actSize, 10) != recSize {
			errs = append(errs, fmt.Errorf("RECORD row %d: file %q: size mismatch: RECORD=%s actual=%d",
				i, name, recSize, actSize))
		}
	}

	if len(todo) > 0 {
		todoNames := make([]string, 0, len(todo))
		for name := range todo {
			todoNames = append(todoNames, name)
		}
		sort.Strings(todoNames)
		errs = append(errs, fmt.Errorf("files not mentioned in RECORD: %q", todoNames))
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}
