/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package keyresolver provides issuer key resolvers for the SD-JWT verifier.
//
// Static, JWKSet and IssuerMap resolve keys from configuration. Cache and Retry decorate another
// resolver, the verifier itself never caches or retries.
package keyresolver

import (
	"context"
	"crypto"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/pkg/errors"

	"github.com/hyperledger/aries-sdjwt-go/pkg/doc/sdjwt/verifier"
)

var logger = log.New("aries-sdjwt/keyresolver")

// ErrKeyNotFound is returned when no key is known for the issuer or key ID.
var ErrKeyNotFound = errors.New("issuer key not found")

// Static resolves every issuer to the same key.
type Static struct {
	key crypto.PublicKey
}

// NewStatic returns a resolver for a single trusted issuer key.
func NewStatic(key crypto.PublicKey) *Static {
	return &Static{key: key}
}

// ResolveIssuerKey returns the static key.
func (s *Static) ResolveIssuerKey(_ context.Context, _, _ string) (crypto.PublicKey, error) {
	if s.key == nil {
		return nil, ErrKeyNotFound
	}

	return s.key, nil
}

// IssuerMap dispatches to a resolver per issuer identifier.
type IssuerMap map[string]verifier.KeyResolver

// ResolveIssuerKey resolves the key with the resolver registered for issuer.
func (m IssuerMap) ResolveIssuerKey(ctx context.Context, issuer, keyID string) (crypto.PublicKey, error) {
	r, ok := m[issuer]
	if !ok {
		return nil, errors.Wrapf(ErrKeyNotFound, "issuer %q is not trusted", issuer)
	}

	return r.ResolveIssuerKey(ctx, issuer, keyID)
}
