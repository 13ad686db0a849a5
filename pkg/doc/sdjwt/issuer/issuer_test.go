/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuer

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v3/jwt"
	"github.com/stretchr/testify/require"

	afgjwt "github.com/hyperledger/aries-sdjwt-go/pkg/doc/jwt"
	"github.com/hyperledger/aries-sdjwt-go/pkg/doc/sdjwt/common"
)

const (
	issuer = "https://example.com/issuer"
)

func sampleClaims() map[string]interface{} {
	return map[string]interface{}{
		"given_name": "Albert",
		"last_name":  "Smith",
		"address": map[string]interface{}{
			"street_address": "123 Main St",
			"locality":       "Anytown",
		},
		"nationalities": []interface{}{"US", "DE"},
	}
}

func TestNew(t *testing.T) {
	r := require.New(t)

	pubKey, privKey, err := ed25519.GenerateKey(rand.Reader)
	r.NoError(err)

	holderPub, _, err := ed25519.GenerateKey(rand.Reader)
	r.NoError(err)

	credentials, err := afgjwt.NewSigningCredentials(privKey, "")
	r.NoError(err)

	structure := common.Node{
		"given_name":    common.Leaf(true),
		"address":       common.Node{"street_address": common.Leaf(true)},
		"nationalities": common.Node{common.AllElements: common.Leaf(true)},
	}

	t.Run("success - registered claims, cnf and disclosures", func(t *testing.T) {
		r := require.New(t)

		issuedAt := jwt.NewNumericDate(time.Unix(1700000000, 0))
		expiry := jwt.NewNumericDate(time.Unix(1700003600, 0))

		claims := sampleClaims()

		token, err := New(issuer, claims, afgjwt.Headers{afgjwt.HeaderType: "vc+sd-jwt"}, credentials,
			WithStructure(structure),
			WithSubject("user-1"),
			WithAudience("https://verifier.example.com"),
			WithJTI("jti-1"),
			WithIssuedAt(issuedAt),
			WithNotBefore(issuedAt),
			WithExpiry(expiry),
			WithHolderPublicKey(holderPub),
			WithDecoyDigests(2),
		)
		r.NoError(err)
		r.Len(token.Disclosures, 4)

		// Input is not modified.
		r.Equal(sampleClaims(), claims)

		combined, err := token.Serialize()
		r.NoError(err)
		r.True(strings.HasSuffix(combined, common.CombinedFormatSeparator))
		r.Len(strings.Split(combined, common.CombinedFormatSeparator), 1+4+1)

		cf, err := common.ParseCombinedFormatForIssuance(combined)
		r.NoError(err)

		parsed, err := afgjwt.Parse(cf.SDJWT, afgjwt.WithVerificationKey(pubKey))
		r.NoError(err)

		r.Equal("vc+sd-jwt", parsed.LookupStringHeader(afgjwt.HeaderType))
		r.Equal(common.SHA256, parsed.Payload[common.SDAlgorithmKey])
		r.Equal(issuer, parsed.Payload["iss"])
		r.Equal("user-1", parsed.Payload["sub"])
		r.Equal("https://verifier.example.com", parsed.Payload["aud"])
		r.Equal("jti-1", parsed.Payload["jti"])
		r.Equal(json.Number("1700000000"), parsed.Payload["iat"])
		r.Equal(json.Number("1700000000"), parsed.Payload["nbf"])
		r.Equal(json.Number("1700003600"), parsed.Payload["exp"])
		r.Equal("Smith", parsed.Payload["last_name"])
		r.NotContains(parsed.Payload, "given_name")
		r.Len(parsed.Payload[common.SDKey], 1+2)

		cnf, ok := parsed.Payload[common.CNFKey].(map[string]interface{})
		r.True(ok)

		holderJWK, err := afgjwt.PublicKeyFromConfirmation(cnf)
		r.NoError(err)
		r.Equal(holderPub, holderJWK.Key)

		hasher, err := common.NewHasher(common.SHA256)
		r.NoError(err)

		disclosures, err := common.ParseDisclosures(cf.Disclosures)
		r.NoError(err)

		decoded, err := common.NewDecoder(hasher).Decode(parsed.Payload, disclosures)
		r.NoError(err)
		r.Equal("Albert", decoded["given_name"])
		r.Equal("123 Main St", decoded["address"].(map[string]interface{})["street_address"])
		r.Equal([]interface{}{"US", "DE"}, decoded["nationalities"])
	})

	t.Run("success - issuer with defaults", func(t *testing.T) {
		r := require.New(t)

		iss := NewIssuer(issuer, credentials, WithStructure(structure), WithDigestAlgorithm(common.SHA512))

		token, err := iss.Issue(sampleClaims(), WithGeneratedJTI(), WithAudience("a", "b"))
		r.NoError(err)
		r.Len(token.Disclosures, 4)
		r.Equal(common.SHA512, token.SignedJWT.Payload[common.SDAlgorithmKey])
		r.True(strings.HasPrefix(token.SignedJWT.Payload["jti"].(string), "urn:uuid:"))
		r.Equal([]interface{}{"a", "b"}, token.SignedJWT.Payload["aud"])
	})

	t.Run("success - crypto hash option", func(t *testing.T) {
		token, err := New(issuer, sampleClaims(), nil, credentials, WithHashAlgorithm(crypto.SHA384))
		require.NoError(t, err)
		require.Equal(t, common.SHA384, token.SignedJWT.Payload[common.SDAlgorithmKey])
		require.Empty(t, token.Disclosures)
	})

	t.Run("success - struct claims", func(t *testing.T) {
		type claimsStruct struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		}

		token, err := New(issuer, &claimsStruct{Name: "Al", Email: "al@example.com"}, nil, credentials,
			WithStructure(common.Node{"email": common.Leaf(true)}))
		require.NoError(t, err)
		require.Len(t, token.Disclosures, 1)
		require.Equal(t, "al@example.com", token.Disclosures[0].Value())
	})

	t.Run("success - weak signing algorithm explicitly allowed", func(t *testing.T) {
		hmacCredentials := &afgjwt.SigningCredentials{Key: []byte(strings.Repeat("k", 32)), Algorithm: "HS256"}

		_, err := New(issuer, sampleClaims(), nil, hmacCredentials)
		require.ErrorIs(t, err, common.ErrWeakAlgorithmRejected)

		_, err = New(issuer, sampleClaims(), nil, hmacCredentials, WithAllowWeakAlgorithms(true))
		require.NoError(t, err)
	})

	t.Run("error - weak or unsupported digest algorithms", func(t *testing.T) {
		for _, opt := range []NewOpt{
			WithDigestAlgorithm("md5"),
			WithDigestAlgorithm("sha-1"),
			WithHashAlgorithm(crypto.SHA1),
			WithHashAlgorithm(crypto.MD5),
		} {
			_, err := New(issuer, sampleClaims(), nil, credentials, opt, WithAllowWeakAlgorithms(true))
			require.ErrorIs(t, err, common.ErrWeakAlgorithmRejected)
		}

		_, err := New(issuer, sampleClaims(), nil, credentials, WithDigestAlgorithm("sha3-256"))
		require.ErrorIs(t, err, common.ErrUnsupportedHashAlgorithm)
	})

	t.Run("error - unsecured or unknown signing algorithm", func(t *testing.T) {
		_, err := New(issuer, sampleClaims(), nil, &afgjwt.SigningCredentials{Key: privKey, Algorithm: "none"},
			WithAllowWeakAlgorithms(true))
		require.ErrorIs(t, err, common.ErrWeakAlgorithmRejected)

		_, err = New(issuer, sampleClaims(), nil, &afgjwt.SigningCredentials{Key: privKey, Algorithm: "XX256"})
		require.ErrorIs(t, err, common.ErrUnsupportedSigningAlgorithm)

		_, err = New(issuer, sampleClaims(), nil, nil)
		require.EqualError(t, err, "signing credentials are not defined")
	})

	t.Run("error - reserved claim name", func(t *testing.T) {
		claims := sampleClaims()
		claims["address"].(map[string]interface{})[common.SDKey] = []interface{}{}

		_, err := New(issuer, claims, nil, credentials)
		require.ErrorIs(t, err, common.ErrReservedClaimName)
	})

	t.Run("error - invalid claims", func(t *testing.T) {
		_, err := New(issuer, make(chan int), nil, credentials)
		require.ErrorIs(t, err, common.ErrInvalidClaims)

		_, err = New(issuer, "[1]", nil, credentials)
		require.ErrorIs(t, err, common.ErrInvalidClaims)
	})

	t.Run("error - holder key must be public", func(t *testing.T) {
		_, err := New(issuer, sampleClaims(), nil, credentials, WithHolderPublicKey(privKey))
		require.Error(t, err)
		require.Contains(t, err.Error(), "create cnf claim")
	})

	t.Run("error - salt generation", func(t *testing.T) {
		_, err := New(issuer, sampleClaims(), nil, credentials, WithStructure(structure),
			WithSaltFnc(func() (string, error) {
				return "", errors.New("salt error")
			}))
		require.EqualError(t, err, "salt error")
	})

	t.Run("error - marshaller", func(t *testing.T) {
		_, err := New(issuer, sampleClaims(), nil, credentials, WithStructure(structure),
			WithJSONMarshaller(func(v interface{}) ([]byte, error) {
				return nil, errors.New("marshal error")
			}))
		require.ErrorIs(t, err, common.ErrInvalidClaims)
	})

	t.Run("error - serialize empty", func(t *testing.T) {
		var token *SelectiveDisclosureJWT

		_, err := token.Serialize()
		require.EqualError(t, err, "SD-JWT is not defined")
	})
}
