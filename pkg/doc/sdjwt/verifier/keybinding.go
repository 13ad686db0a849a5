/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifier

import (
	"fmt"
	"time"

	"golang.org/x/exp/slices"

	afgjwt "github.com/hyperledger/aries-sdjwt-go/pkg/doc/jwt"
	"github.com/hyperledger/aries-sdjwt-go/pkg/doc/sdjwt/common"
	"github.com/hyperledger/aries-sdjwt-go/pkg/internal/maphelpers"
)

// verifyKeyBinding returns nil claims when no key binding is present and none is required.
func (v *Verifier) verifyKeyBinding(payload map[string]interface{}, cfp *common.CombinedFormatForPresentation,
	hasher *common.Hasher, vOpts *verifyOpts) (*KeyBindingClaims, error) {
	rules := &vOpts.kbRules

	cnfObj, hasCNF := payload[common.CNFKey]

	if cfp.KeyBindingJWT == "" {
		if hasCNF || rules.Required {
			return nil, common.NewError(common.KindMissingKeyBinding, "key binding JWT is required")
		}

		return nil, nil //nolint:nilnil
	}

	if !hasCNF {
		return nil, common.NewError(common.KindKeyBindingInvalid, "SD-JWT does not bind a holder key")
	}

	cnf, ok := cnfObj.(map[string]interface{})
	if !ok {
		return nil, common.NewError(common.KindKeyBindingInvalid, "%s must be an object", common.CNFKey)
	}

	holderKey, err := afgjwt.PublicKeyFromConfirmation(cnf)
	if err != nil {
		return nil, common.WrapError(common.KindKeyBindingInvalid, err)
	}

	kbJWT, err := afgjwt.Parse(cfp.KeyBindingJWT, afgjwt.WithVerificationKey(holderKey))
	if err != nil {
		return nil, common.WrapError(common.KindKeyBindingInvalid, fmt.Errorf("parse key binding JWT: %w", err))
	}

	if typ, _ := kbJWT.Headers.Type(); typ != common.KeyBindingJWTType {
		return nil, common.NewError(common.KindKeyBindingInvalid, "unexpected key binding typ %q", typ)
	}

	alg, _ := kbJWT.Headers.Algorithm()
	if err = common.CheckSigningAlgorithm(alg, rules.SigningAlgorithms, false); err != nil {
		return nil, err
	}

	var claims KeyBindingClaims

	if err = maphelpers.DecodeStruct(kbJWT.Payload, &claims); err != nil {
		return nil, common.WrapError(common.KindKeyBindingInvalid, fmt.Errorf("decode key binding claims: %w", err))
	}

	if err = v.checkKeyBindingClaims(&claims, rules, vOpts.expectedNonce); err != nil {
		return nil, err
	}

	switch {
	case claims.SDHash != "":
		if claims.SDHash != hasher.Digest(cfp.IssuerSigned()) {
			return nil, common.NewError(common.KindKeyBindingInvalid, "%s does not match the presentation",
				common.SDHashKey)
		}
	case rules.RequireSDHash:
		return nil, common.NewError(common.KindKeyBindingInvalid, "%s is required", common.SDHashKey)
	}

	return &claims, nil
}

func (v *Verifier) checkKeyBindingClaims(claims *KeyBindingClaims, rules *KeyBindingRules,
	expectedNonce *string) error {
	if claims.IssuedAt == nil {
		return common.NewError(common.KindKeyBindingInvalid, "iat is required")
	}

	now := v.now()
	issuedAt := claims.IssuedAt.Time()

	if issuedAt.After(now.Add(rules.ClockSkew)) {
		return common.NewError(common.KindKeyBindingInvalid, "iat is in the future")
	}

	window := rules.FreshnessWindow
	if window <= 0 {
		window = DefaultFreshnessWindow
	}

	if now.Sub(issuedAt) > window {
		return common.NewError(common.KindKeyBindingStale, "key binding JWT was issued %s ago, window is %s",
			now.Sub(issuedAt).Truncate(time.Second), window)
	}

	if expectedNonce != nil && claims.Nonce != *expectedNonce {
		return common.NewError(common.KindKeyBindingNonceMismatch, "nonce does not match")
	}

	if len(rules.ValidAudiences) > 0 && !slices.Contains(rules.ValidAudiences, claims.Audience) {
		return common.NewError(common.KindKeyBindingInvalid, "audience %q is not accepted", claims.Audience)
	}

	return nil
}
