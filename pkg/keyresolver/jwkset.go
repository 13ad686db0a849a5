/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keyresolver

import (
	"context"
	"crypto"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/pkg/errors"
)

// JWKSet resolves keys by "kid" from a JSON Web Key Set. A set holding a single key also resolves
// SD-JWTs without "kid".
type JWKSet struct {
	set jwk.Set
}

// NewJWKSet parses a JWK Set document (or a single JWK).
func NewJWKSet(raw []byte) (*JWKSet, error) {
	set, err := jwk.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(err, "parse JWK set")
	}

	if set.Len() == 0 {
		return nil, errors.New("JWK set is empty")
	}

	return &JWKSet{set: set}, nil
}

// ResolveIssuerKey returns the public key with the given key ID.
func (s *JWKSet) ResolveIssuerKey(_ context.Context, _, keyID string) (crypto.PublicKey, error) {
	key, err := s.lookup(keyID)
	if err != nil {
		return nil, err
	}

	pub, err := jwk.PublicKeyOf(key)
	if err != nil {
		return nil, errors.Wrapf(err, "public key of %q", keyID)
	}

	var raw interface{}

	if err = pub.Raw(&raw); err != nil {
		return nil, errors.Wrapf(err, "export key %q", keyID)
	}

	return raw, nil
}

func (s *JWKSet) lookup(keyID string) (jwk.Key, error) {
	if keyID != "" {
		key, ok := s.set.LookupKeyID(keyID)
		if !ok {
			return nil, errors.Wrapf(ErrKeyNotFound, "kid %q", keyID)
		}

		return key, nil
	}

	if s.set.Len() != 1 {
		return nil, errors.Wrap(ErrKeyNotFound, "kid is required to select a key from the set")
	}

	key, _ := s.set.Key(0)

	return key, nil
}
