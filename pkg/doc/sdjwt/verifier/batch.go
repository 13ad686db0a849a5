/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifier

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchResult is the outcome of verifying one presentation of a batch.
type BatchResult struct {
	Result *Result
	Err    error
}

// VerifyAll verifies presentations concurrently with at most limit verifications in flight
// (unbounded when limit <= 0). A rejected presentation does not affect the others; results keep the
// input order. The returned error is only set when ctx is done before all verifications started.
func (v *Verifier) VerifyAll(ctx context.Context, presentations []string, limit int,
	opts ...VerifyOpt) ([]*BatchResult, error) {
	results := make([]*BatchResult, len(presentations))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, p := range presentations {
		if err := gctx.Err(); err != nil {
			_ = g.Wait()

			return results, err
		}

		g.Go(func() error {
			res, err := v.Verify(gctx, p, opts...)
			results[i] = &BatchResult{Result: res, Err: err}

			return nil
		})
	}

	return results, g.Wait()
}
