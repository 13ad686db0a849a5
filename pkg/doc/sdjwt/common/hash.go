/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"crypto"
	_ "crypto/sha256" // registers sha-256
	_ "crypto/sha512" // registers sha-384 and sha-512
	"encoding/base64"
	"strings"
)

// Digest algorithm names as registered in the IANA "Named Information Hash Algorithm" registry.
const (
	SHA256 = "sha-256"
	SHA384 = "sha-384"
	SHA512 = "sha-512"
)

var supportedHashes = map[string]crypto.Hash{
	SHA256: crypto.SHA256,
	SHA384: crypto.SHA384,
	SHA512: crypto.SHA512,
}

var weakHashes = map[string]struct{}{
	"md5":        {},
	"md4":        {},
	"sha-1":      {},
	"sha1":       {},
	"ripemd-160": {},
}

// Hasher computes Disclosure digests with one of the allowed hash algorithms.
type Hasher struct {
	name string
	hash crypto.Hash
}

// NewHasher returns the hasher registered under name. MD5 and SHA-1 are always rejected with
// WeakAlgorithmRejected, other unknown names with UnsupportedHashAlgorithm.
func NewHasher(name string) (*Hasher, error) {
	normalized := strings.ToLower(name)

	if _, weak := weakHashes[normalized]; weak {
		return nil, NewError(KindWeakAlgorithmRejected, "hash algorithm %q is not allowed", name)
	}

	h, ok := supportedHashes[normalized]
	if !ok {
		return nil, NewError(KindUnsupportedHashAlgorithm, "hash algorithm %q is not supported", name)
	}

	return &Hasher{name: normalized, hash: h}, nil
}

// HasherFromCrypto maps a crypto.Hash to its SD-JWT hasher.
func HasherFromCrypto(h crypto.Hash) (*Hasher, error) {
	for name, supported := range supportedHashes {
		if supported == h {
			return &Hasher{name: name, hash: h}, nil
		}
	}

	switch h { //nolint:exhaustive
	case crypto.MD4, crypto.MD5, crypto.SHA1, crypto.RIPEMD160, crypto.MD5SHA1:
		return nil, NewError(KindWeakAlgorithmRejected, "hash algorithm %s is not allowed", h)
	default:
		return nil, NewError(KindUnsupportedHashAlgorithm, "hash algorithm %s is not supported", h)
	}
}

// Name returns the algorithm name used as "_sd_alg" value.
func (h *Hasher) Name() string {
	return h.name
}

// Digest returns base64url(hash(ASCII(text))).
func (h *Hasher) Digest(text string) string {
	hf := h.hash.New()
	hf.Write([]byte(text)) //nolint:errcheck

	return base64.RawURLEncoding.EncodeToString(hf.Sum(nil))
}
