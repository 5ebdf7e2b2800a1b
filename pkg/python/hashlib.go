// Copyright (C) 2025-2026  Rungsiman Nararatwong
//
// SPDX-License-Identifier: BSD-3-Clause

package python

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"
)

// HashlibAlgorithmsGuaranteed is Python `hashlib.algorithms_guaranteed`.
//
// The shake_128/shake_256 XOFs are omitted: their variable-length output
// doesn't fit hash.Hash, and nothing in the packaging toolchain names them.
//
//nolint:gochecknoglobals // Would be 'const'.
var HashlibAlgorithmsGuaranteed = map[string]func() hash.Hash{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha224": sha256.New224,
	"sha256": sha256.New,
	"sha384": sha512.New384,
	"sha512": sha512.New,
	"blake2b": func() hash.Hash {
		h, _ := blake2b.New512(nil) // only errors for over-long keys
		return h
	},
	"blake2s": func() hash.Hash {
		h, _ := blake2s.New256(nil)
		return h
	},
	"sha3_224": sha3.New224,
	"sha3_256": sha3.New256,
	"sha3_384": sha3.New384,
	"sha3_512": sha3.New512,
}

// NewHash returns a fresh hash.Hash for a hashlib algorithm name.
func NewHash(algo string) (hash.Hash, error) {
	newHash, ok := HashlibAlgorithmsGuaranteed[algo]
	if !ok {
		return nil, fmt.Errorf("unsupported hash algorithm: %q", algo)
	}
	return newHash(), nil
}

// NewBlake2b returns a keyless BLAKE2b hash with the given digest size in
// bytes, mimicking hashlib.blake2b(digest_size=n).  The package index's
// upload API wants digestSize=32 ("blake2_256").
func NewBlake2b(digestSize int) (hash.Hash, error) {
	h, err := blake2b.New(digestSize, nil)
	if err != nil {
		return nil, fmt.Errorf("blake2b(digest_size=%d): %w", digestSize, err)
	}
	return h, nil
}
