// Copyright (C) 2025-2026  Rungsiman Nararatwong
//
// SPDX-License-Identifier: BSD-3-Clause

package python

import (
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
)

// A DigestSet maps hashlib algorithm names to lowercase hexadecimal digest
// values, which is the form that the package-index upload API and the simple
// API's URL fragments traffic in.
type DigestSet map[string]string

// Blake2_256 is the upload API's name for blake2b with a 256-bit digest size;
// it is not a member of hashlib.algorithms_guaranteed, but hashlib can
// construct it as `hashlib.blake2b(digest_size=32)` and so can we.
const Blake2_256 = "blake2_256"

func newDigestHash(algo string) (hash.Hash, error) {
	if algo == Blake2_256 {
		return NewBlake2b(32)
	}
	return NewHash(algo)
}

// Digest computes the named digests of a stream in a single pass.
func Digest(reader io.Reader, algos ...string) (DigestSet, error) {
	if len(algos) == 0 {
		return nil, fmt.Errorf("python.Digest: no algorithms requested")
	}
	hashers := make(map[string]hash.Hash, len(algos))
	writers := make([]io.Writer, 0, len(algos))
	for _, algo := range algos {
		if _, taken := hashers[algo]; taken {
			continue
		}
		hasher, err := newDigestHash(algo)
		if err != nil {
			return nil, fmt.Errorf("python.Digest: %w", err)
		}
		hashers[algo] = hasher
		writers = append(writers, hasher)
	}
	if _, err := io.Copy(io.MultiWriter(writers...), reader); err != nil {
		return nil, fmt.Errorf("python.Digest: %w", err)
	}
	ret := make(DigestSet, len(hashers))
	for algo, hasher := range hashers {
		ret[algo] = hex.EncodeToString(hasher.Sum(nil))
	}
	return ret, nil
}

// DigestFile computes the named digests of a file's contents.
func DigestFile(filename string, algos ...string) (_ DigestSet, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return Digest(file, algos...)
}
