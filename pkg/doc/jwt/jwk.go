/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwt

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-jose/go-jose/v3"
)

// ConfirmationJWKKey is the member of the "cnf" claim holding the proof-of-possession key.
const ConfirmationJWKKey = "jwk"

// PublicJWK wraps a public key as JSON Web Key. Private keys are rejected.
func PublicJWK(key interface{}) (*jose.JSONWebKey, error) {
	jwk, ok := key.(*jose.JSONWebKey)
	if !ok {
		jwk = &jose.JSONWebKey{Key: key}
	}

	if !jwk.Valid() {
		return nil, fmt.Errorf("invalid JWK for key type %T", jwk.Key)
	}

	if !jwk.IsPublic() {
		return nil, errors.New("JWK must hold a public key")
	}

	return jwk, nil
}

// NewConfirmation builds the "cnf" claim value binding the given public key (RFC 7800).
func NewConfirmation(publicKey interface{}) (map[string]interface{}, error) {
	jwk, err := PublicJWK(publicKey)
	if err != nil {
		return nil, err
	}

	jwkBytes, err := jwk.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal JWK: %w", err)
	}

	jwkMap, err := PayloadToMap(jwkBytes)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{ConfirmationJWKKey: jwkMap}, nil
}

// PublicKeyFromConfirmation extracts the public JWK from a "cnf" claim value.
func PublicKeyFromConfirmation(cnf map[string]interface{}) (*jose.JSONWebKey, error) {
	jwkObj, ok := cnf[ConfirmationJWKKey]
	if !ok {
		return nil, fmt.Errorf("cnf must contain '%s'", ConfirmationJWKKey)
	}

	jwkBytes, err := json.Marshal(jwkObj)
	if err != nil {
		return nil, fmt.Errorf("marshal cnf jwk: %w", err)
	}

	var jwk jose.JSONWebKey

	if err = jwk.UnmarshalJSON(jwkBytes); err != nil {
		return nil, fmt.Errorf("unmarshal cnf jwk: %w", err)
	}

	if !jwk.IsPublic() {
		return nil, errors.New("cnf jwk must be a public key")
	}

	return &jwk, nil
}
