/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifier

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v3/jwt"
	"github.com/golang/mock/gomock"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	afgjwt "github.com/hyperledger/aries-sdjwt-go/pkg/doc/jwt"
	"github.com/hyperledger/aries-sdjwt-go/pkg/doc/sdjwt/common"
	"github.com/hyperledger/aries-sdjwt-go/pkg/doc/sdjwt/holder"
	"github.com/hyperledger/aries-sdjwt-go/pkg/doc/sdjwt/issuer"
	mockverifier "github.com/hyperledger/aries-sdjwt-go/pkg/internal/gomocks/doc/sdjwt/verifier"
)

const base64URLAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

const (
	testIssuer   = "https://example.com/issuer"
	testAudience = "https://example.com/verifier"
	testNonce    = "nonce-123"
)

type fixture struct {
	issuerPub   ed25519.PublicKey
	issuerCreds *afgjwt.SigningCredentials
	holderCreds *afgjwt.SigningCredentials
	holderPub   ed25519.PublicKey
	resolver    KeyResolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	issuerPub, issuerPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	holderPub, holderPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	issuerCreds, err := afgjwt.NewSigningCredentials(issuerPriv, "")
	require.NoError(t, err)

	holderCreds, err := afgjwt.NewSigningCredentials(holderPriv, "")
	require.NoError(t, err)

	return &fixture{
		issuerPub:   issuerPub,
		issuerCreds: issuerCreds,
		holderCreds: holderCreds,
		holderPub:   holderPub,
		resolver: KeyResolverFunc(func(_ context.Context, iss, _ string) (crypto.PublicKey, error) {
			if iss != testIssuer {
				return nil, errors.New("unknown issuer")
			}

			return issuerPub, nil
		}),
	}
}

func sampleClaims() map[string]interface{} {
	return map[string]interface{}{
		"given_name": "John",
		"address": map[string]interface{}{
			"street":  "123 Main St",
			"country": "US",
		},
		"nationalities": []interface{}{"US", "DE"},
	}
}

func sampleStructure() common.Node {
	return common.Node{
		"given_name":    common.Leaf(true),
		"address":       common.Node{"street": common.Leaf(true)},
		"nationalities": common.Node{common.AllElements: common.Leaf(true)},
	}
}

func (f *fixture) issue(t *testing.T, opts ...issuer.NewOpt) string {
	t.Helper()

	all := append([]issuer.NewOpt{
		issuer.WithStructure(sampleStructure()),
		issuer.WithDecoyDigests(2),
		issuer.WithIssuedAt(jwt.NewNumericDate(time.Now())),
		issuer.WithExpiry(jwt.NewNumericDate(time.Now().Add(time.Hour))),
	}, opts...)

	token, err := issuer.New(testIssuer, sampleClaims(), nil, f.issuerCreds, all...)
	require.NoError(t, err)

	combined, err := token.Serialize()
	require.NoError(t, err)

	return combined
}

func (f *fixture) bindingInfo(issuedAt time.Time) *holder.BindingInfo {
	return &holder.BindingInfo{
		Payload: holder.BindingPayload{
			Audience: testAudience,
			Nonce:    testNonce,
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
		Credentials: f.holderCreds,
	}
}

func TestVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("success - all disclosures without key binding", func(t *testing.T) {
		r := require.New(t)

		presentation, err := holder.CreatePresentation(f.issue(t), holder.DiscloseAll())
		r.NoError(err)

		res, err := New(f.resolver).Verify(ctx, presentation)
		r.NoError(err)
		r.False(res.KeyBindingVerified)
		r.Nil(res.KeyBinding)
		r.Len(res.Disclosures, 4)
		r.Equal(testIssuer, res.StandardClaims.Issuer)
		r.Equal(testIssuer, res.Claims["iss"])
		r.NotContains(res.Claims, common.SDAlgorithmKey)

		for k, v := range sampleClaims() {
			r.Equal(v, res.Claims[k])
		}
	})

	t.Run("success - partial disclosure", func(t *testing.T) {
		r := require.New(t)

		presentation, err := holder.CreatePresentation(f.issue(t), holder.DisclosePaths("nationalities.1", "address.street"))
		r.NoError(err)

		res, err := New(f.resolver).Verify(ctx, presentation)
		r.NoError(err)
		r.NotContains(res.Claims, "given_name")
		r.Equal([]interface{}{"DE"}, res.Claims["nationalities"])
		r.Equal(map[string]interface{}{"street": "123 Main St", "country": "US"}, res.Claims["address"])
	})

	t.Run("success - key binding", func(t *testing.T) {
		r := require.New(t)

		combined := f.issue(t, issuer.WithHolderPublicKey(f.holderPub))

		presentation, err := holder.CreatePresentation(combined, holder.DiscloseClaimNames("given_name"),
			holder.WithKeyBinding(f.bindingInfo(time.Now())))
		r.NoError(err)

		res, err := New(f.resolver).Verify(ctx, presentation,
			WithExpectedNonce(testNonce),
			WithKeyBindingRules(KeyBindingRules{
				ValidAudiences:    []string{testAudience},
				FreshnessWindow:   DefaultFreshnessWindow,
				ClockSkew:         jwt.DefaultLeeway,
				SigningAlgorithms: []string{afgjwt.SignatureEdDSA},
				RequireSDHash:     true,
			}))
		r.NoError(err)
		r.True(res.KeyBindingVerified)
		r.Equal(testNonce, res.KeyBinding.Nonce)
		r.Equal(testAudience, res.KeyBinding.Audience)
		r.NotEmpty(res.KeyBinding.SDHash)
		r.Contains(res.Claims, common.CNFKey)
		r.Equal("John", res.Claims["given_name"])
	})

	t.Run("success - decoy count does not change the result", func(t *testing.T) {
		r := require.New(t)

		var results []map[string]interface{}

		for _, decoys := range []int{0, 3, 10} {
			presentation, err := holder.CreatePresentation(f.issue(t, issuer.WithDecoyDigests(decoys)),
				holder.DiscloseClaimNames("given_name", "street"))
			r.NoError(err)

			res, err := New(f.resolver).Verify(ctx, presentation,
				WithValidationRules(ValidationRules{}))
			r.NoError(err)

			delete(res.Claims, "iat")
			delete(res.Claims, "exp")

			results = append(results, res.Claims)
		}

		r.Equal(results[0], results[1])
		r.Equal(results[0], results[2])
	})

	t.Run("success - issuer and audience rules", func(t *testing.T) {
		presentation, err := holder.CreatePresentation(f.issue(t, issuer.WithAudience("aud-1", "aud-2")),
			holder.DiscloseNone())
		require.NoError(t, err)

		_, err = New(f.resolver).Verify(ctx, presentation, WithValidationRules(ValidationRules{
			ValidateIssuer:   true,
			ValidIssuers:     []string{"other", testIssuer},
			ValidateAudience: true,
			ValidAudiences:   []string{"aud-2"},
		}))
		require.NoError(t, err)

		_, err = New(f.resolver).Verify(ctx, presentation, WithValidationRules(ValidationRules{
			ValidateIssuer: true,
			ValidIssuers:   []string{"other"},
		}))
		require.ErrorIs(t, err, common.ErrStandardClaimInvalid)

		_, err = New(f.resolver).Verify(ctx, presentation, WithValidationRules(ValidationRules{
			ValidateAudience: true,
			ValidAudiences:   []string{"aud-3"},
		}))
		require.ErrorIs(t, err, common.ErrStandardClaimInvalid)
	})

	t.Run("scenario - cnf without key binding JWT", func(t *testing.T) {
		presentation, err := holder.CreatePresentation(f.issue(t, issuer.WithHolderPublicKey(f.holderPub)),
			holder.DiscloseAll())
		require.NoError(t, err)

		_, err = New(f.resolver).Verify(ctx, presentation)
		require.ErrorIs(t, err, common.ErrMissingKeyBinding)
	})

	t.Run("scenario - flipped signature character", func(t *testing.T) {
		presentation, err := holder.CreatePresentation(f.issue(t), holder.DiscloseAll())
		require.NoError(t, err)

		cfp, err := common.ParseCombinedFormatForPresentation(presentation)
		require.NoError(t, err)

		parts := strings.Split(cfp.SDJWT, ".")
		sig := parts[2]

		// The last character also carries the unused trailing bits of the encoding.
		for _, pos := range []int{len(sig) / 2, len(sig) - 1} {
			for _, c := range base64URLAlphabet {
				if byte(c) == sig[pos] {
					continue
				}

				tampered := *cfp
				tampered.SDJWT = parts[0] + "." + parts[1] + "." + sig[:pos] + string(c) + sig[pos+1:]

				_, err = New(f.resolver).Verify(ctx, tampered.Serialize())
				require.ErrorIs(t, err, common.ErrSignatureInvalid, "position %d, character %c", pos, c)
			}
		}
	})

	t.Run("scenario - stale key binding", func(t *testing.T) {
		presentation, err := holder.CreatePresentation(f.issue(t, issuer.WithHolderPublicKey(f.holderPub)),
			holder.DiscloseAll(), holder.WithKeyBinding(f.bindingInfo(time.Now().Add(-20*time.Minute))))
		require.NoError(t, err)

		_, err = New(f.resolver).Verify(ctx, presentation, WithKeyBindingRules(KeyBindingRules{
			FreshnessWindow: 10 * time.Minute,
		}))
		require.ErrorIs(t, err, common.ErrKeyBindingStale)
	})

	t.Run("error - key binding from the future", func(t *testing.T) {
		presentation, err := holder.CreatePresentation(f.issue(t, issuer.WithHolderPublicKey(f.holderPub)),
			holder.DiscloseAll(), holder.WithKeyBinding(f.bindingInfo(time.Now().Add(time.Hour))))
		require.NoError(t, err)

		_, err = New(f.resolver).Verify(ctx, presentation)
		require.ErrorIs(t, err, common.ErrKeyBindingInvalid)
	})

	t.Run("error - nonce mismatch", func(t *testing.T) {
		presentation, err := holder.CreatePresentation(f.issue(t, issuer.WithHolderPublicKey(f.holderPub)),
			holder.DiscloseAll(), holder.WithKeyBinding(f.bindingInfo(time.Now())))
		require.NoError(t, err)

		_, err = New(f.resolver).Verify(ctx, presentation, WithExpectedNonce("other"))
		require.ErrorIs(t, err, common.ErrKeyBindingNonceMismatch)
	})

	t.Run("error - key binding audience", func(t *testing.T) {
		presentation, err := holder.CreatePresentation(f.issue(t, issuer.WithHolderPublicKey(f.holderPub)),
			holder.DiscloseAll(), holder.WithKeyBinding(f.bindingInfo(time.Now())))
		require.NoError(t, err)

		rules := DefaultKeyBindingRules()
		rules.ValidAudiences = []string{"https://other.example.com"}

		_, err = New(f.resolver).Verify(ctx, presentation, WithKeyBindingRules(rules))
		require.ErrorIs(t, err, common.ErrKeyBindingInvalid)
	})

	t.Run("error - key binding signed by another key", func(t *testing.T) {
		_, otherPriv, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		info := f.bindingInfo(time.Now())
		info.Credentials = &afgjwt.SigningCredentials{Key: otherPriv, Algorithm: afgjwt.SignatureEdDSA}

		presentation, err := holder.CreatePresentation(f.issue(t, issuer.WithHolderPublicKey(f.holderPub)),
			holder.DiscloseAll(), holder.WithKeyBinding(info))
		require.NoError(t, err)

		_, err = New(f.resolver).Verify(ctx, presentation)
		require.ErrorIs(t, err, common.ErrKeyBindingInvalid)
	})

	t.Run("error - key binding without cnf", func(t *testing.T) {
		presentation, err := holder.CreatePresentation(f.issue(t), holder.DiscloseAll(),
			holder.WithKeyBinding(f.bindingInfo(time.Now())))
		require.NoError(t, err)

		_, err = New(f.resolver).Verify(ctx, presentation)
		require.ErrorIs(t, err, common.ErrKeyBindingInvalid)
	})

	t.Run("success - required key binding with zero freshness window", func(t *testing.T) {
		presentation, err := holder.CreatePresentation(f.issue(t, issuer.WithHolderPublicKey(f.holderPub)),
			holder.DiscloseAll(), holder.WithKeyBinding(f.bindingInfo(time.Now())))
		require.NoError(t, err)

		res, err := New(f.resolver).Verify(ctx, presentation, WithKeyBindingRules(KeyBindingRules{Required: true}))
		require.NoError(t, err)
		require.True(t, res.KeyBindingVerified)

		presentation, err = holder.CreatePresentation(f.issue(t, issuer.WithHolderPublicKey(f.holderPub)),
			holder.DiscloseAll(), holder.WithKeyBinding(f.bindingInfo(time.Now().Add(-time.Hour))))
		require.NoError(t, err)

		_, err = New(f.resolver).Verify(ctx, presentation, WithKeyBindingRules(KeyBindingRules{Required: true}))
		require.ErrorIs(t, err, common.ErrKeyBindingStale)
	})

	t.Run("error - key binding required by policy", func(t *testing.T) {
		presentation, err := holder.CreatePresentation(f.issue(t), holder.DiscloseAll())
		require.NoError(t, err)

		rules := DefaultKeyBindingRules()
		rules.Required = true

		_, err = New(f.resolver).Verify(ctx, presentation, WithKeyBindingRules(rules))
		require.ErrorIs(t, err, common.ErrMissingKeyBinding)
	})

	t.Run("error - key binding bound to other disclosures", func(t *testing.T) {
		r := require.New(t)

		combined := f.issue(t, issuer.WithHolderPublicKey(f.holderPub))

		presentation, err := holder.CreatePresentation(combined, holder.DiscloseNone(),
			holder.WithKeyBinding(f.bindingInfo(time.Now())))
		r.NoError(err)

		cfi, err := common.ParseCombinedFormatForIssuance(combined)
		r.NoError(err)

		cfp, err := common.ParseCombinedFormatForPresentation(presentation)
		r.NoError(err)

		// Attach a genuine Disclosure after the holder signed the key binding JWT.
		cfp.Disclosures = append(cfp.Disclosures, cfi.Disclosures[0])

		_, err = New(f.resolver).Verify(ctx, cfp.Serialize())
		r.ErrorIs(err, common.ErrKeyBindingInvalid)
	})

	t.Run("error - tampered disclosure", func(t *testing.T) {
		r := require.New(t)

		presentation, err := holder.CreatePresentation(f.issue(t), holder.DiscloseClaimNames("given_name"))
		r.NoError(err)

		cfp, err := common.ParseCombinedFormatForPresentation(presentation)
		r.NoError(err)
		r.Len(cfp.Disclosures, 1)

		original, err := common.ParseWireForm(cfp.Disclosures[0])
		r.NoError(err)

		name, _ := original.ClaimName()

		forged, err := common.CreateWithSalt(original.Salt(), &name, "Mallory")
		r.NoError(err)

		cfp.Disclosures[0] = forged.WireForm()

		_, err = New(f.resolver).Verify(ctx, cfp.Serialize())
		r.ErrorIs(err, common.ErrTamperDetected)
	})

	t.Run("error - disclosure mutated at any position", func(t *testing.T) {
		r := require.New(t)

		presentation, err := holder.CreatePresentation(f.issue(t), holder.DiscloseClaimNames("given_name"))
		r.NoError(err)

		cfp, err := common.ParseCombinedFormatForPresentation(presentation)
		r.NoError(err)
		r.Len(cfp.Disclosures, 1)

		wire := cfp.Disclosures[0]

		for pos := 0; pos < len(wire); pos++ {
			c := byte('A')
			if wire[pos] == c {
				c = 'B'
			}

			tampered := *cfp
			tampered.Disclosures = []string{wire[:pos] + string(c) + wire[pos+1:]}

			_, err = New(f.resolver).Verify(ctx, tampered.Serialize())
			r.ErrorIs(err, common.ErrTamperDetected, "position %d", pos)
		}
	})

	t.Run("error - disclosure that does not decode", func(t *testing.T) {
		presentation, err := holder.CreatePresentation(f.issue(t), holder.DiscloseNone())
		require.NoError(t, err)

		cfp, err := common.ParseCombinedFormatForPresentation(presentation)
		require.NoError(t, err)

		cfp.Disclosures = []string{"A"}

		_, err = New(f.resolver).Verify(ctx, cfp.Serialize())
		require.ErrorIs(t, err, common.ErrTamperDetected)
	})

	t.Run("error - repeated iss claim", func(t *testing.T) {
		r := require.New(t)

		attackerPub, attackerPriv, err := ed25519.GenerateKey(rand.Reader)
		r.NoError(err)

		const attacker = "https://attacker.example.com"

		resolver := KeyResolverFunc(func(_ context.Context, iss, _ string) (crypto.PublicKey, error) {
			switch iss {
			case testIssuer:
				return f.issuerPub, nil
			case attacker:
				return attackerPub, nil
			}

			return nil, errors.New("unknown issuer")
		})

		payload := []byte(`{"iss":"` + attacker + `","iss":"` + testIssuer + `","degree":"PhD"}`)

		signed, err := jws.Sign(payload, jws.WithKey(jwa.EdDSA, attackerPriv))
		r.NoError(err)

		_, err = New(resolver).Verify(ctx, string(signed)+"~", WithValidationRules(ValidationRules{
			ValidateIssuer: true,
			ValidIssuers:   []string{testIssuer},
		}))
		r.ErrorIs(err, common.ErrMalformedPresentation)
	})

	t.Run("error - expired SD-JWT", func(t *testing.T) {
		presentation, err := holder.CreatePresentation(
			f.issue(t, issuer.WithExpiry(jwt.NewNumericDate(time.Now().Add(-time.Hour)))), holder.DiscloseAll())
		require.NoError(t, err)

		_, err = New(f.resolver).Verify(ctx, presentation)
		require.ErrorIs(t, err, common.ErrStandardClaimInvalid)

		_, err = New(f.resolver, WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })).
			Verify(ctx, presentation, WithValidationRules(ValidationRules{ValidateLifetime: true}))
		require.ErrorIs(t, err, common.ErrStandardClaimInvalid) // issued in the future for this clock
	})

	t.Run("error - malformed presentation", func(t *testing.T) {
		for _, presentation := range []string{"", "abc", "abc~", f.issue(t) + "~"} {
			_, err := New(f.resolver).Verify(ctx, presentation)
			require.ErrorIs(t, err, common.ErrMalformedPresentation, presentation)
		}
	})

	t.Run("error - unexpected typ", func(t *testing.T) {
		presentation, err := holder.CreatePresentation(f.issue(t), holder.DiscloseAll())
		require.NoError(t, err)

		_, err = New(f.resolver, WithExpectedTypHeader("vc+sd-jwt")).Verify(ctx, presentation)
		require.ErrorIs(t, err, common.ErrMalformedPresentation)
	})

	t.Run("error - issuer algorithm not accepted", func(t *testing.T) {
		presentation, err := holder.CreatePresentation(f.issue(t), holder.DiscloseAll())
		require.NoError(t, err)

		_, err = New(f.resolver, WithIssuerSigningAlgorithms([]string{afgjwt.SignatureES256})).
			Verify(ctx, presentation)
		require.ErrorIs(t, err, common.ErrUnsupportedSigningAlgorithm)
	})

	t.Run("error - max depth", func(t *testing.T) {
		presentation, err := holder.CreatePresentation(f.issue(t), holder.DiscloseAll())
		require.NoError(t, err)

		_, err = New(f.resolver, WithMaxDepth(0)).Verify(ctx, presentation)
		require.ErrorIs(t, err, common.ErrMaxDepthExceeded)
	})
}

func TestVerifyIssuerKeyResolution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	presentation, err := holder.CreatePresentation(f.issue(t), holder.DiscloseAll())
	require.NoError(t, err)

	t.Run("success - resolver receives issuer and key ID", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		resolver := mockverifier.NewMockKeyResolver(ctrl)
		resolver.EXPECT().ResolveIssuerKey(gomock.Any(), testIssuer, "").Return(f.issuerPub, nil).Times(1)

		_, err := New(resolver).Verify(ctx, presentation)
		require.NoError(t, err)
	})

	t.Run("error - resolver failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		resolver := mockverifier.NewMockKeyResolver(ctrl)
		resolver.EXPECT().ResolveIssuerKey(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("not found")).Times(1)

		_, err := New(resolver).Verify(ctx, presentation)
		require.ErrorIs(t, err, common.ErrIssuerKeyResolutionFailure)
		require.Contains(t, err.Error(), "not found")
	})

	t.Run("error - resolver returns no key", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		resolver := mockverifier.NewMockKeyResolver(ctrl)
		resolver.EXPECT().ResolveIssuerKey(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

		_, err := New(resolver).Verify(ctx, presentation)
		require.ErrorIs(t, err, common.ErrIssuerKeyResolutionFailure)
	})

	t.Run("error - wrong key resolved", func(t *testing.T) {
		otherPub, _, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		resolver := KeyResolverFunc(func(context.Context, string, string) (crypto.PublicKey, error) {
			return otherPub, nil
		})

		_, err = New(resolver).Verify(ctx, presentation)
		require.ErrorIs(t, err, common.ErrSignatureInvalid)
	})

	t.Run("error - no resolver", func(t *testing.T) {
		_, err := New(nil).Verify(ctx, presentation)
		require.ErrorIs(t, err, common.ErrIssuerKeyResolutionFailure)
	})
}

func TestVerifyMetrics(t *testing.T) {
	r := require.New(t)

	f := newFixture(t)
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	v := New(f.resolver, WithMetrics(metrics))

	presentation, err := holder.CreatePresentation(f.issue(t), holder.DiscloseAll())
	r.NoError(err)

	_, err = v.Verify(context.Background(), presentation)
	r.NoError(err)

	_, err = v.Verify(context.Background(), "abc")
	r.Error(err)

	r.Equal(float64(1), testutil.ToFloat64(metrics.Verifications.WithLabelValues(outcomeVerified)))
	r.Equal(float64(1), testutil.ToFloat64(
		metrics.Verifications.WithLabelValues(common.KindMalformedPresentation.String())))
	r.Equal(float64(4), testutil.ToFloat64(metrics.DisclosuresVerified))
	r.Equal(4, testutil.CollectAndCount(reg))
}

func TestVerifyAll(t *testing.T) {
	r := require.New(t)

	f := newFixture(t)

	good, err := holder.CreatePresentation(f.issue(t), holder.DiscloseAll())
	r.NoError(err)

	presentations := []string{good, "abc", good, good}

	results, err := New(f.resolver).VerifyAll(context.Background(), presentations, 2)
	r.NoError(err)
	r.Len(results, len(presentations))

	for i, res := range results {
		if i == 1 {
			r.ErrorIs(res.Err, common.ErrMalformedPresentation)
			r.Nil(res.Result)

			continue
		}

		r.NoError(res.Err)
		r.Equal("John", res.Result.Claims["given_name"])
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = New(f.resolver).VerifyAll(ctx, presentations, 1)
	r.ErrorIs(err, context.Canceled)
}

// An SD-JWT whose JWS was produced by another JOSE library verifies the same way.
func TestVerifyJWXSignedSDJWT(t *testing.T) {
	r := require.New(t)

	issuerPriv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	r.NoError(err)

	hasher, err := common.NewHasher(common.SHA256)
	r.NoError(err)

	encoded, disclosures, err := common.NewEncoder(hasher).Encode(sampleClaims(), sampleStructure())
	r.NoError(err)

	encoded["iss"] = testIssuer
	encoded[common.SDAlgorithmKey] = hasher.Name()

	payload, err := json.Marshal(encoded)
	r.NoError(err)

	signed, err := jws.Sign(payload, jws.WithKey(jwa.ES256, issuerPriv))
	r.NoError(err)

	cf := common.CombinedFormatForIssuance{SDJWT: string(signed)}
	for _, d := range disclosures {
		cf.Disclosures = append(cf.Disclosures, d.WireForm())
	}

	resolver := KeyResolverFunc(func(context.Context, string, string) (crypto.PublicKey, error) {
		return &issuerPriv.PublicKey, nil
	})

	res, err := New(resolver).Verify(context.Background(), cf.Serialize())
	r.NoError(err)
	r.Equal("John", res.Claims["given_name"])
	r.Equal("ES256", res.Headers["alg"])
}
