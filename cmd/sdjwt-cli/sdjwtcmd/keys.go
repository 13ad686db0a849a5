/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sdjwtcmd

import (
	"crypto"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	afgjwt "github.com/hyperledger/aries-sdjwt-go/pkg/doc/jwt"
)

// signingCredentialsFromFile reads a private JWK. The algorithm is taken from "alg" or derived from the key type,
// "kid" becomes the JWS key ID.
func signingCredentialsFromFile(cmd *cobra.Command, name, alg string) (*afgjwt.SigningCredentials, error) {
	key, err := readJWK(cmd, name)
	if err != nil {
		return nil, err
	}

	var raw interface{}

	if err = key.Raw(&raw); err != nil {
		return nil, errors.Wrapf(err, "export key %s", name)
	}

	if alg == "" && key.Algorithm().String() != "" {
		alg = key.Algorithm().String()
	}

	creds, err := afgjwt.NewSigningCredentials(raw, alg)
	if err != nil {
		return nil, err
	}

	creds.KeyID = key.KeyID()

	return creds, nil
}

// publicKeyFromFile reads a JWK and returns its public key.
func publicKeyFromFile(cmd *cobra.Command, name string) (crypto.PublicKey, error) {
	key, err := readJWK(cmd, name)
	if err != nil {
		return nil, err
	}

	pub, err := jwk.PublicKeyOf(key)
	if err != nil {
		return nil, errors.Wrapf(err, "public key of %s", name)
	}

	var raw interface{}

	if err = pub.Raw(&raw); err != nil {
		return nil, errors.Wrapf(err, "export key %s", name)
	}

	return raw, nil
}

func readJWK(cmd *cobra.Command, name string) (jwk.Key, error) {
	data, err := readInput(cmd, name)
	if err != nil {
		return nil, err
	}

	key, err := jwk.ParseKey(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parse JWK %s", name)
	}

	return key, nil
}
