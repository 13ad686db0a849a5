/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keyresolver

import (
	"context"
	"crypto"
	"time"

	"github.com/bluele/gcache"
	"github.com/pkg/errors"

	"github.com/hyperledger/aries-sdjwt-go/pkg/doc/sdjwt/verifier"
)

// Cache remembers resolved keys in an LRU cache with expiration. Failures are not cached.
type Cache struct {
	next  verifier.KeyResolver
	store gcache.Cache
}

type cacheKey struct {
	issuer string
	keyID  string
}

// NewCache wraps next with a cache of at most size entries kept for ttl.
func NewCache(next verifier.KeyResolver, size int, ttl time.Duration) *Cache {
	return &Cache{
		next:  next,
		store: gcache.New(size).LRU().Expiration(ttl).Build(),
	}
}

// ResolveIssuerKey returns the cached key or resolves and caches it.
func (c *Cache) ResolveIssuerKey(ctx context.Context, issuer, keyID string) (crypto.PublicKey, error) {
	entry := cacheKey{issuer: issuer, keyID: keyID}

	cached, err := c.store.Get(entry)
	if err == nil {
		return cached, nil
	}

	if !errors.Is(err, gcache.KeyNotFoundError) {
		return nil, errors.Wrap(err, "read key cache")
	}

	key, err := c.next.ResolveIssuerKey(ctx, issuer, keyID)
	if err != nil {
		return nil, err
	}

	if err = c.store.Set(entry, key); err != nil {
		logger.Warnf("failed to cache key of issuer %s: %s", issuer, err)
	}

	return key, nil
}

// Purge drops all cached keys.
func (c *Cache) Purge() {
	c.store.Purge()
}
