/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"golang.org/x/exp/slices"

	"github.com/hyperledger/aries-sdjwt-go/pkg/doc/jwt"
)

// CheckSigningAlgorithm applies the JWS algorithm policy.
//
// "none" is always rejected. HMAC algorithms are rejected unless allowWeak is set. When allowed is
// not empty, alg must be one of its entries; otherwise alg must be a known asymmetric algorithm.
func CheckSigningAlgorithm(alg string, allowed []string, allowWeak bool) error {
	if alg == "" || alg == jwt.AlgorithmNone {
		return NewError(KindWeakAlgorithmRejected, "unsecured JWS is not allowed")
	}

	if slices.Contains(jwt.WeakSigningAlgorithms(), alg) && !allowWeak {
		return NewError(KindWeakAlgorithmRejected, "signing algorithm %s is not allowed", alg)
	}

	if len(allowed) > 0 {
		if !slices.Contains(allowed, alg) {
			return NewError(KindUnsupportedSigningAlgorithm, "signing algorithm %s is not accepted", alg)
		}

		return nil
	}

	if !slices.Contains(jwt.StrongSigningAlgorithms(), alg) && !slices.Contains(jwt.WeakSigningAlgorithms(), alg) {
		return NewError(KindUnsupportedSigningAlgorithm, "signing algorithm %s is not supported", alg)
	}

	return nil
}

// HasherForPayload returns the hasher named by the "_sd_alg" claim, sha-256 when it is absent.
func HasherForPayload(payload map[string]interface{}) (*Hasher, error) {
	raw, ok := payload[SDAlgorithmKey]
	if !ok {
		return NewHasher(SHA256)
	}

	name, ok := raw.(string)
	if !ok {
		return nil, NewError(KindUnsupportedHashAlgorithm, "%s must be a string", SDAlgorithmKey)
	}

	return NewHasher(name)
}
