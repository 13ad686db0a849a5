/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwt

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/go-jose/go-jose/v3"
)

// JWS signature algorithms supported by this package.
const (
	SignatureEdDSA = "EdDSA"
	SignatureES256 = "ES256"
	SignatureES384 = "ES384"
	SignatureES512 = "ES512"
	SignaturePS256 = "PS256"
	SignaturePS384 = "PS384"
	SignaturePS512 = "PS512"
	SignatureRS256 = "RS256"
	SignatureRS384 = "RS384"
	SignatureRS512 = "RS512"
	SignatureHS256 = "HS256"
	SignatureHS384 = "HS384"
	SignatureHS512 = "HS512"
)

// StrongSigningAlgorithms returns asymmetric signing algorithms accepted by default.
func StrongSigningAlgorithms() []string {
	return []string{
		SignatureEdDSA,
		SignatureES256, SignatureES384, SignatureES512,
		SignaturePS256, SignaturePS384, SignaturePS512,
		SignatureRS256, SignatureRS384, SignatureRS512,
	}
}

// WeakSigningAlgorithms returns the symmetric signing algorithms. A shared secret cannot prove who signed
// a credential, so these are only accepted when weak algorithms are explicitly allowed.
func WeakSigningAlgorithms() []string {
	return []string{SignatureHS256, SignatureHS384, SignatureHS512}
}

// SigningCredentials defines the private key and JWS algorithm used for signing.
type SigningCredentials struct {
	// Key is a private key go-jose can sign with: ed25519.PrivateKey, *ecdsa.PrivateKey, *rsa.PrivateKey,
	// []byte (HMAC), *jose.JSONWebKey or a jose.OpaqueSigner.
	Key interface{}

	Algorithm string

	// KeyID is set as "kid" header when not empty.
	KeyID string
}

// NewSigningCredentials creates signing credentials, deriving the algorithm from the key type when alg is empty.
func NewSigningCredentials(key interface{}, alg string) (*SigningCredentials, error) {
	if key == nil {
		return nil, errors.New("signing key is not defined")
	}

	if alg == "" {
		derived, err := algorithmForKey(key)
		if err != nil {
			return nil, err
		}

		alg = derived
	}

	return &SigningCredentials{Key: key, Algorithm: alg}, nil
}

func (c *SigningCredentials) joseSigner(headers Headers) (jose.Signer, error) {
	if c.Algorithm == "" {
		return nil, errors.New("signing algorithm is not defined")
	}

	if c.Algorithm == AlgorithmNone {
		return nil, errors.New("unsecured JWT is not supported")
	}

	opts := &jose.SignerOptions{}

	for k, v := range headers {
		if k == HeaderAlgorithm {
			continue
		}

		opts.WithHeader(jose.HeaderKey(k), v)
	}

	if c.KeyID != "" {
		opts.WithHeader(jose.HeaderKey(HeaderKeyID), c.KeyID)
	}

	signer, err := jose.NewSigner(jose.SigningKey{
		Algorithm: jose.SignatureAlgorithm(c.Algorithm),
		Key:       c.Key,
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("create JWS signer: %w", err)
	}

	return signer, nil
}

func algorithmForKey(key interface{}) (string, error) {
	switch k := key.(type) {
	case ed25519.PrivateKey:
		return SignatureEdDSA, nil
	case *ecdsa.PrivateKey:
		switch k.Curve {
		case elliptic.P256():
			return SignatureES256, nil
		case elliptic.P384():
			return SignatureES384, nil
		case elliptic.P521():
			return SignatureES512, nil
		}

		return "", fmt.Errorf("unsupported ECDSA curve %s", k.Curve.Params().Name)
	case *rsa.PrivateKey:
		return SignaturePS256, nil
	case *jose.JSONWebKey:
		if k.Algorithm != "" {
			return k.Algorithm, nil
		}

		return algorithmForKey(k.Key)
	default:
		return "", fmt.Errorf("cannot derive signing algorithm for key type %T", key)
	}
}
