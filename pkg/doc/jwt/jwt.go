/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jwt implements compact JSON Web Tokens signed as JWS.
//
// Signing and signature verification are delegated to go-jose. The package keeps the decoded
// protected headers and the claims map next to the compact serialization so that SD-JWT
// processing can inspect both without re-parsing.
package jwt

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-jose/go-jose/v3"
	"github.com/go-jose/go-jose/v3/jwt"
)

const (
	// TypeJWT defines JWT type.
	TypeJWT = "JWT"

	// AlgorithmNone used to indicate unsecured JWT.
	AlgorithmNone = "none"

	// HeaderAlgorithm identifies the signing algorithm header.
	HeaderAlgorithm = "alg"
	// HeaderType identifies the media type header.
	HeaderType = "typ"
	// HeaderKeyID identifies the key ID header.
	HeaderKeyID = "kid"
	// HeaderContentType identifies the content type header.
	HeaderContentType = "cty"

	compactParts = 3
)

// ErrSignatureInvalid is returned when a JWS signature does not verify against the given key.
var ErrSignatureInvalid = errors.New("JWS signature verification failed")

// Claims defines JSON Web Token Claims (https://tools.ietf.org/html/rfc7519#section-4)
type Claims jwt.Claims

// Headers represents JOSE headers.
type Headers map[string]interface{}

// Algorithm gets Algorithm from JOSE headers.
func (h Headers) Algorithm() (string, bool) {
	return h.stringValue(HeaderAlgorithm)
}

// Type gets Type from JOSE headers.
func (h Headers) Type() (string, bool) {
	return h.stringValue(HeaderType)
}

// KeyID gets Key ID from JOSE headers.
func (h Headers) KeyID() (string, bool) {
	return h.stringValue(HeaderKeyID)
}

func (h Headers) stringValue(name string) (string, bool) {
	raw, ok := h[name]
	if !ok {
		return "", false
	}

	str, ok := raw.(string)

	return str, ok
}

// parseOpts holds options for the JWT parsing.
type parseOpts struct {
	verificationKey  interface{}
	skipVerification bool
}

// ParseOpt is the JWT Parser option.
type ParseOpt func(opts *parseOpts)

// WithVerificationKey option is for definition of the public key the JWS signature is checked with.
// The key can be any key type go-jose accepts (ed25519.PublicKey, *ecdsa.PublicKey, *rsa.PublicKey,
// []byte for HMAC or *jose.JSONWebKey).
func WithVerificationKey(key interface{}) ParseOpt {
	return func(opts *parseOpts) {
		opts.verificationKey = key
	}
}

// WithoutSignatureVerification option skips signature verification. Used by holders who only need
// to read a token they received over a trusted channel.
func WithoutSignatureVerification() ParseOpt {
	return func(opts *parseOpts) {
		opts.skipVerification = true
	}
}

// segmentEncoding rejects non-zero padding bits so every JWS segment has exactly one encoding.
var segmentEncoding = base64.RawURLEncoding.Strict()

// JSONWebToken defines JSON Web Token (https://tools.ietf.org/html/rfc7519)
type JSONWebToken struct {
	Headers Headers

	Payload map[string]interface{}

	compact string
}

// Parse parses input JWT in compact serialized form into JSON Web Token.
func Parse(jwtSerialized string, opts ...ParseOpt) (*JSONWebToken, error) {
	pOpts := &parseOpts{}

	for _, opt := range opts {
		opt(pOpts)
	}

	if !IsJWS(jwtSerialized) {
		return nil, errors.New("JWT of compacted JWS form is supported only")
	}

	// go-jose ignores the trailing bits of the last base64url character.
	signature := jwtSerialized[strings.LastIndexByte(jwtSerialized, '.')+1:]
	if _, err := segmentEncoding.DecodeString(signature); err != nil {
		return nil, fmt.Errorf("%w: signature segment is not canonical base64url", ErrSignatureInvalid)
	}

	headers, err := decodeHeaders(jwtSerialized)
	if err != nil {
		return nil, err
	}

	if err = checkHeaders(headers); err != nil {
		return nil, fmt.Errorf("check JWT headers: %w", err)
	}

	jws, err := jose.ParseSigned(jwtSerialized)
	if err != nil {
		return nil, fmt.Errorf("parse JWT from compact JWS: %w", err)
	}

	var payload []byte

	switch {
	case pOpts.verificationKey != nil:
		payload, err = jws.Verify(pOpts.verificationKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrSignatureInvalid, err.Error())
		}
	case pOpts.skipVerification:
		payload = jws.UnsafePayloadWithoutVerification()
	default:
		return nil, errors.New("verification key is not defined")
	}

	claims, err := PayloadToMap(payload)
	if err != nil {
		return nil, fmt.Errorf("read JWT claims from JWS payload: %w", err)
	}

	return &JSONWebToken{
		Headers: headers,
		Payload: claims,
		compact: jwtSerialized,
	}, nil
}

// NewSigned creates new signed JSON Web Token based on input claims.
func NewSigned(claims interface{}, headers Headers, credentials *SigningCredentials) (*JSONWebToken, error) {
	if credentials == nil {
		return nil, errors.New("signing credentials are not defined")
	}

	payloadMap, err := PayloadToMap(claims)
	if err != nil {
		return nil, fmt.Errorf("unmarshallable claims: %w", err)
	}

	payloadBytes, err := json.Marshal(payloadMap)
	if err != nil {
		return nil, fmt.Errorf("marshal JWT claims: %w", err)
	}

	signer, err := credentials.joseSigner(headers)
	if err != nil {
		return nil, err
	}

	jws, err := signer.Sign(payloadBytes)
	if err != nil {
		return nil, fmt.Errorf("sign JWT: %w", err)
	}

	compact, err := jws.CompactSerialize()
	if err != nil {
		return nil, fmt.Errorf("serialize JWS: %w", err)
	}

	protected, err := decodeHeaders(compact)
	if err != nil {
		return nil, err
	}

	return &JSONWebToken{
		Headers: protected,
		Payload: payloadMap,
		compact: compact,
	}, nil
}

// DecodeClaims fills input c with claims of a token.
func (j *JSONWebToken) DecodeClaims(c interface{}) error {
	pBytes, err := json.Marshal(j.Payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(pBytes, c)
}

// LookupStringHeader makes look up of particular header with string value.
func (j *JSONWebToken) LookupStringHeader(name string) string {
	str, _ := j.Headers.stringValue(name)

	return str
}

// Serialize returns the compact serialization of the token.
func (j *JSONWebToken) Serialize() (string, error) {
	if j.compact == "" {
		return "", errors.New("JWS serialization is supported only")
	}

	return j.compact, nil
}

// RawPayload returns the base64url-decoded payload segment as signed.
func (j *JSONWebToken) RawPayload() ([]byte, error) {
	parts := strings.Split(j.compact, ".")
	if len(parts) != compactParts {
		return nil, errors.New("JWS serialization is supported only")
	}

	return segmentEncoding.DecodeString(parts[1])
}

// IsJWS checks if JWT is a JWS of valid structure.
func IsJWS(s string) bool {
	parts := strings.Split(s, ".")

	return len(parts) == compactParts &&
		isValidJSON(parts[0]) &&
		isValidJSON(parts[1]) &&
		parts[2] != ""
}

func isValidJSON(s string) bool {
	b, err := segmentEncoding.DecodeString(s)
	if err != nil {
		return false
	}

	var j map[string]interface{}
	err = json.Unmarshal(b, &j)

	return err == nil
}

func decodeHeaders(compact string) (Headers, error) {
	parts := strings.Split(compact, ".")
	if len(parts) != compactParts {
		return nil, errors.New("JWT of compacted JWS form is supported only")
	}

	headerBytes, err := segmentEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("decode JOSE headers: %w", err)
	}

	headers, err := PayloadToMap(headerBytes)
	if err != nil {
		return nil, fmt.Errorf("unmarshal JOSE headers: %w", err)
	}

	return headers, nil
}

func checkHeaders(headers Headers) error {
	alg, ok := headers.Algorithm()
	if !ok {
		return errors.New("alg header is not defined")
	}

	if alg == AlgorithmNone {
		return errors.New("unsecured JWT is not supported")
	}

	if typ, ok := headers[HeaderType]; ok {
		if err := checkTypHeader(typ); err != nil {
			return err
		}
	}

	cty, ok := headers[HeaderContentType]
	if ok && cty == TypeJWT { // https://tools.ietf.org/html/rfc7519#section-5.2
		return errors.New("nested JWT is not supported")
	}

	return nil
}

func checkTypHeader(typ interface{}) error {
	typStr, ok := typ.(string)
	if !ok {
		return errors.New("invalid typ header format")
	}

	chunks := strings.Split(typStr, "+")
	if len(chunks) > 1 {
		ending := strings.ToUpper(chunks[len(chunks)-1])
		// Explicit typing.
		// https://www.rfc-editor.org/rfc/rfc8725.html#name-use-explicit-typing
		if ending != TypeJWT && ending != "SD-JWT" {
			return errors.New("invalid typ header")
		}

		return nil
	}

	if !strings.EqualFold(typStr, TypeJWT) {
		// https://www.rfc-editor.org/rfc/rfc7519#section-5.1
		return errors.New("typ is not JWT")
	}

	return nil
}

// PayloadToMap transforms interface to map. Numbers are kept as json.Number.
func PayloadToMap(i interface{}) (map[string]interface{}, error) {
	if m, ok := i.(map[string]interface{}); ok {
		return m, nil
	}

	var (
		b   []byte
		err error
	)

	switch cv := i.(type) {
	case []byte:
		b = cv
	case string:
		b = []byte(cv)
	case Headers:
		return cv, nil
	default:
		b, err = json.Marshal(i)
		if err != nil {
			return nil, fmt.Errorf("marshal interface[%T]: %w", i, err)
		}
	}

	var m map[string]interface{}

	d := json.NewDecoder(bytes.NewReader(b))
	d.UseNumber()

	if err := d.Decode(&m); err != nil {
		return nil, fmt.Errorf("convert to map: %w", err)
	}

	if m == nil {
		return nil, errors.New("convert to map: payload is not a JSON object")
	}

	return m, nil
}
