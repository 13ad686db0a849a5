/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"strings"

	"github.com/hyperledger/aries-sdjwt-go/pkg/doc/jwt"
)

// CombinedFormatForIssuance holds SD-JWT and disclosures.
type CombinedFormatForIssuance struct {
	SDJWT       string
	Disclosures []string
}

// Serialize returns <SD-JWT>~<d1>~...~<dn>~.
func (cf *CombinedFormatForIssuance) Serialize() string {
	var sb strings.Builder

	sb.WriteString(cf.SDJWT)
	sb.WriteString(CombinedFormatSeparator)

	for _, d := range cf.Disclosures {
		sb.WriteString(d)
		sb.WriteString(CombinedFormatSeparator)
	}

	return sb.String()
}

// CombinedFormatForPresentation holds SD-JWT, disclosures and optional key binding JWT.
type CombinedFormatForPresentation struct {
	SDJWT         string
	Disclosures   []string
	KeyBindingJWT string
}

// Serialize returns <SD-JWT>~<d1>~...~<dn>~<kb-jwt>. The last segment is empty without key binding.
func (cf *CombinedFormatForPresentation) Serialize() string {
	return cf.IssuerSigned() + cf.KeyBindingJWT
}

// IssuerSigned returns the presentation without the key binding JWT, including the trailing
// separator. This is the input of the key binding "sd_hash".
func (cf *CombinedFormatForPresentation) IssuerSigned() string {
	issuance := CombinedFormatForIssuance{SDJWT: cf.SDJWT, Disclosures: cf.Disclosures}

	return issuance.Serialize()
}

// ParseCombinedFormatForIssuance parses <SD-JWT>~<d1>~...~<dn>~. The trailing separator is optional.
func ParseCombinedFormatForIssuance(combined string) (*CombinedFormatForIssuance, error) {
	parts := strings.Split(combined, CombinedFormatSeparator)

	// Tolerate the trailing separator.
	if len(parts) > 1 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}

	sdJWT, disclosures, err := splitParts(parts)
	if err != nil {
		return nil, err
	}

	return &CombinedFormatForIssuance{SDJWT: sdJWT, Disclosures: disclosures}, nil
}

// ParseCombinedFormatForPresentation parses <SD-JWT>~<d1>~...~<dn>~<kb-jwt-or-empty>.
func ParseCombinedFormatForPresentation(combined string) (*CombinedFormatForPresentation, error) {
	parts := strings.Split(combined, CombinedFormatSeparator)
	if len(parts) < 2 { //nolint:gomnd
		return nil, NewError(KindMalformedPresentation, "presentation must end with %q or a key binding JWT",
			CombinedFormatSeparator)
	}

	kbJWT := parts[len(parts)-1]

	sdJWT, disclosures, err := splitParts(parts[:len(parts)-1])
	if err != nil {
		return nil, err
	}

	if kbJWT != "" && !jwt.IsJWS(kbJWT) {
		return nil, NewError(KindMalformedPresentation, "key binding JWT is not a compact JWS")
	}

	return &CombinedFormatForPresentation{
		SDJWT:         sdJWT,
		Disclosures:   disclosures,
		KeyBindingJWT: kbJWT,
	}, nil
}

func splitParts(parts []string) (string, []string, error) {
	if len(parts) == 0 || parts[0] == "" {
		return "", nil, NewError(KindMalformedPresentation, "SD-JWT is missing")
	}

	if !jwt.IsJWS(parts[0]) {
		return "", nil, NewError(KindMalformedPresentation, "SD-JWT is not a compact JWS")
	}

	disclosures := parts[1:]

	for i, d := range disclosures {
		if d == "" {
			return "", nil, NewError(KindMalformedPresentation, "disclosure[%d] is empty", i)
		}

		if !isBase64URL(d) {
			return "", nil, NewError(KindMalformedPresentation, "disclosure[%d] is not base64url", i)
		}
	}

	return parts[0], disclosures, nil
}

func isBase64URL(s string) bool {
	for _, c := range s {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}

	return true
}
