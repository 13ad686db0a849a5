/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keyresolver

import (
	"context"
	"crypto"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"

	"github.com/hyperledger/aries-sdjwt-go/pkg/doc/sdjwt/verifier"
)

// Retry retries failed resolutions with a constant back off. ErrKeyNotFound is not retried.
type Retry struct {
	next       verifier.KeyResolver
	interval   time.Duration
	maxRetries uint64
}

// NewRetry wraps next, retrying up to maxRetries times every interval.
func NewRetry(next verifier.KeyResolver, interval time.Duration, maxRetries uint64) *Retry {
	return &Retry{next: next, interval: interval, maxRetries: maxRetries}
}

// ResolveIssuerKey resolves the key, retrying transient failures until ctx is done.
func (r *Retry) ResolveIssuerKey(ctx context.Context, issuer, keyID string) (crypto.PublicKey, error) {
	var key crypto.PublicKey

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(r.interval), r.maxRetries), ctx)

	err := backoff.RetryNotify(func() error {
		var err error

		key, err = r.next.ResolveIssuerKey(ctx, issuer, keyID)
		if errors.Is(err, ErrKeyNotFound) {
			return backoff.Permanent(err)
		}

		return err
	}, b, func(err error, next time.Duration) {
		logger.Warnf("resolve key of issuer %s failed, retrying in %s: %s", issuer, next, err)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "resolve key of issuer %q", issuer)
	}

	return key, nil
}
