/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

/*
Package issuer enables the Issuer: An entity that creates SD-JWTs.

An SD-JWT is a digitally signed document containing digests over the claims
(per claim: a random salt, the claim name and the claim value).
It MAY further contain clear-text claims that are always disclosed to the Verifier.
It MUST be digitally signed using the Issuer's private key.

	SD-JWT-DOC = (METADATA, SD-CLAIMS, NON-SD-CLAIMS)
	SD-JWT = SD-JWT-DOC | SIG(SD-JWT-DOC, ISSUER-PRIV-KEY)

Which claims become SD-CLAIMS is decided by a disclosure structure (common.Node):
a Leaf(true) conceals a claim or array element, a Node recurses into an object or
array keeping the claim itself in clear text, and a Recursive does both.

The SD-JWT and the Disclosures are sent to the Holder by the Issuer:

	COMBINED-ISSUANCE = SD-JWT | DISCLOSURES
*/
package issuer

import (
	"crypto"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-jose/go-jose/v3/jwt"
	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/log"

	afgjwt "github.com/hyperledger/aries-sdjwt-go/pkg/doc/jwt"
	"github.com/hyperledger/aries-sdjwt-go/pkg/doc/sdjwt/common"
	"github.com/hyperledger/aries-sdjwt-go/pkg/internal/maphelpers"
)

var logger = log.New("aries-sdjwt/issuer")

const jtiURNPrefix = "urn:uuid:"

// newOpts holds options for creating new SD-JWT.
type newOpts struct {
	Subject  string
	Audience []string
	JTI      string

	Expiry    *jwt.NumericDate
	NotBefore *jwt.NumericDate
	IssuedAt  *jwt.NumericDate

	HolderPublicKey interface{}

	HashAlg       crypto.Hash
	DigestAlgName string

	headers afgjwt.Headers

	structure   common.Node
	decoys      int
	allowWeak   bool
	maxDepth    int
	generateJTI bool
	jsonMarshal func(v interface{}) ([]byte, error)
	getSalt     func() (string, error)
}

// NewOpt is the SD-JWT New option.
type NewOpt func(opts *newOpts)

// WithStructure is an option for defining which claims are selectively disclosable.
// Claims not mentioned stay in clear text.
func WithStructure(structure common.Node) NewOpt {
	return func(opts *newOpts) {
		opts.structure = structure
	}
}

// WithDecoyDigests is an option for adding count decoy digests to every "_sd" array (default is 0).
func WithDecoyDigests(count int) NewOpt {
	return func(opts *newOpts) {
		opts.decoys = count
	}
}

// WithAllowWeakAlgorithms is an option for accepting HMAC signing algorithms.
// Unsecured JWS, MD5 and SHA-1 digests are rejected regardless.
func WithAllowWeakAlgorithms(flag bool) NewOpt {
	return func(opts *newOpts) {
		opts.allowWeak = flag
	}
}

// WithMaxDepth is an option for bounding the depth of the claim tree.
func WithMaxDepth(depth int) NewOpt {
	return func(opts *newOpts) {
		opts.maxDepth = depth
	}
}

// WithJSONMarshaller is option is for marshalling disclosure.
func WithJSONMarshaller(jsonMarshal func(v interface{}) ([]byte, error)) NewOpt {
	return func(opts *newOpts) {
		opts.jsonMarshal = jsonMarshal
	}
}

// WithSaltFnc is an option for generating salt. Mostly used for testing.
// A new salt MUST be chosen for each claim independently of other salts.
func WithSaltFnc(fnc func() (string, error)) NewOpt {
	return func(opts *newOpts) {
		opts.getSalt = fnc
	}
}

// WithIssuedAt is an option for SD-JWT payload. This is a clear-text claim that is always disclosed.
func WithIssuedAt(issuedAt *jwt.NumericDate) NewOpt {
	return func(opts *newOpts) {
		opts.IssuedAt = issuedAt
	}
}

// WithAudience is an option for SD-JWT payload. This is a clear-text claim that is always disclosed.
func WithAudience(audience ...string) NewOpt {
	return func(opts *newOpts) {
		opts.Audience = audience
	}
}

// WithExpiry is an option for SD-JWT payload. This is a clear-text claim that is always disclosed.
func WithExpiry(expiry *jwt.NumericDate) NewOpt {
	return func(opts *newOpts) {
		opts.Expiry = expiry
	}
}

// WithNotBefore is an option for SD-JWT payload. This is a clear-text claim that is always disclosed.
func WithNotBefore(notBefore *jwt.NumericDate) NewOpt {
	return func(opts *newOpts) {
		opts.NotBefore = notBefore
	}
}

// WithSubject is an option for SD-JWT payload. This is a clear-text claim that is always disclosed.
func WithSubject(subject string) NewOpt {
	return func(opts *newOpts) {
		opts.Subject = subject
	}
}

// WithJTI is an option for SD-JWT payload. This is a clear-text claim that is always disclosed.
func WithJTI(jti string) NewOpt {
	return func(opts *newOpts) {
		opts.JTI = jti
	}
}

// WithGeneratedJTI is an option for setting a random "urn:uuid:" JTI.
func WithGeneratedJTI() NewOpt {
	return func(opts *newOpts) {
		opts.generateJTI = true
	}
}

// WithHeaders is an option for additional JOSE headers such as "typ".
func WithHeaders(headers afgjwt.Headers) NewOpt {
	return func(opts *newOpts) {
		opts.headers = headers
	}
}

// WithHolderPublicKey is an option for SD-JWT payload.
// The Holder can prove legitimate possession of an SD-JWT by proving control over the same private key during
// the issuance and presentation. The key is embedded as "cnf" claim with a "jwk" member.
// Accepts crypto public keys and *jose.JSONWebKey.
func WithHolderPublicKey(key interface{}) NewOpt {
	return func(opts *newOpts) {
		opts.HolderPublicKey = key
	}
}

// WithHashAlgorithm is an option for hashing disclosures.
func WithHashAlgorithm(alg crypto.Hash) NewOpt {
	return func(opts *newOpts) {
		opts.HashAlg = alg
		opts.DigestAlgName = ""
	}
}

// WithDigestAlgorithm is an option for hashing disclosures, by "_sd_alg" name (e.g. "sha-256").
func WithDigestAlgorithm(name string) NewOpt {
	return func(opts *newOpts) {
		opts.DigestAlgName = name
	}
}

// SelectiveDisclosureJWT defines Selective Disclosure JSON Web Token together with its Disclosures.
type SelectiveDisclosureJWT struct {
	SignedJWT   *afgjwt.JSONWebToken
	Disclosures []*common.Disclosure
}

// Serialize returns the combined format for issuance: <SD-JWT>~<d1>~...~<dn>~.
func (j *SelectiveDisclosureJWT) Serialize() (string, error) {
	if j == nil || j.SignedJWT == nil {
		return "", errors.New("SD-JWT is not defined")
	}

	signed, err := j.SignedJWT.Serialize()
	if err != nil {
		return "", err
	}

	cf := common.CombinedFormatForIssuance{SDJWT: signed}

	for _, d := range j.Disclosures {
		cf.Disclosures = append(cf.Disclosures, d.WireForm())
	}

	return cf.Serialize(), nil
}

// Issuer issues SD-JWTs with a fixed identity, signing credentials and default options.
type Issuer struct {
	id          string
	credentials *afgjwt.SigningCredentials
	defaults    []NewOpt
}

// NewIssuer creates an Issuer. The defaults are applied before the options of every Issue call.
func NewIssuer(id string, credentials *afgjwt.SigningCredentials, defaults ...NewOpt) *Issuer {
	return &Issuer{id: id, credentials: credentials, defaults: defaults}
}

// Issue creates a signed SD-JWT for claims.
func (i *Issuer) Issue(claims interface{}, opts ...NewOpt) (*SelectiveDisclosureJWT, error) {
	all := make([]NewOpt, 0, len(i.defaults)+len(opts))
	all = append(all, i.defaults...)
	all = append(all, opts...)

	return New(i.id, claims, nil, i.credentials, all...)
}

// New creates new signed Selective Disclosure JWT based on input claims.
//
// Claims are converted to a JSON object tree and concealed as described by the disclosure structure.
// "_sd_alg" is set to the digest algorithm, "cnf" is set when a holder public key is supplied and the
// registered claims given as options are set in clear text. The input claims are not modified.
func New(issuer string, claims interface{}, headers afgjwt.Headers,
	credentials *afgjwt.SigningCredentials, opts ...NewOpt) (*SelectiveDisclosureJWT, error) {
	nOpts := &newOpts{
		jsonMarshal: json.Marshal,
		getSalt:     common.GenerateSalt,
		HashAlg:     crypto.SHA256,
		maxDepth:    common.DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(nOpts)
	}

	if credentials == nil {
		return nil, errors.New("signing credentials are not defined")
	}

	if err := common.CheckSigningAlgorithm(credentials.Algorithm, nil, nOpts.allowWeak); err != nil {
		return nil, err
	}

	hasher, err := nOpts.hasher()
	if err != nil {
		return nil, err
	}

	claimsMap, err := afgjwt.PayloadToMap(claims)
	if err != nil {
		return nil, common.WrapError(common.KindInvalidClaims, fmt.Errorf("convert payload to map: %w", err))
	}

	encoder := common.NewEncoder(hasher,
		common.WithDecoyDigests(nOpts.decoys),
		common.WithMaxDepth(nOpts.maxDepth),
		common.WithSaltFunc(nOpts.getSalt),
		common.WithJSONMarshaller(nOpts.jsonMarshal),
	)

	encoded, disclosures, err := encoder.Encode(maphelpers.CopyMap(claimsMap), nOpts.structure)
	if err != nil {
		return nil, err
	}

	if err = addRegisteredClaims(encoded, issuer, hasher, nOpts); err != nil {
		return nil, err
	}

	signedJWT, err := afgjwt.NewSigned(encoded, mergeHeaders(headers, nOpts.headers), credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to create SD-JWT: %w", err)
	}

	logger.Debugf("issued SD-JWT with %d disclosures using %s", len(disclosures), hasher.Name())

	return &SelectiveDisclosureJWT{SignedJWT: signedJWT, Disclosures: disclosures}, nil
}

func (o *newOpts) hasher() (*common.Hasher, error) {
	if o.DigestAlgName != "" {
		return common.NewHasher(o.DigestAlgName)
	}

	return common.HasherFromCrypto(o.HashAlg)
}

func addRegisteredClaims(payload map[string]interface{}, issuer string, hasher *common.Hasher, o *newOpts) error {
	payload[common.SDAlgorithmKey] = hasher.Name()

	if issuer != "" {
		payload["iss"] = issuer
	}

	if o.Subject != "" {
		payload["sub"] = o.Subject
	}

	switch len(o.Audience) {
	case 0:
	case 1:
		payload["aud"] = o.Audience[0]
	default:
		aud := make([]interface{}, len(o.Audience))
		for i, a := range o.Audience {
			aud[i] = a
		}

		payload["aud"] = aud
	}

	jti := o.JTI
	if jti == "" && o.generateJTI {
		jti = jtiURNPrefix + uuid.NewString()
	}

	if jti != "" {
		payload["jti"] = jti
	}

	setNumericDate(payload, "iat", o.IssuedAt)
	setNumericDate(payload, "nbf", o.NotBefore)
	setNumericDate(payload, "exp", o.Expiry)

	if o.HolderPublicKey != nil {
		cnf, err := afgjwt.NewConfirmation(o.HolderPublicKey)
		if err != nil {
			return fmt.Errorf("create cnf claim: %w", err)
		}

		payload[common.CNFKey] = cnf
	}

	return nil
}

func setNumericDate(payload map[string]interface{}, name string, date *jwt.NumericDate) {
	if date != nil {
		payload[name] = int64(*date)
	}
}

func mergeHeaders(headers ...afgjwt.Headers) afgjwt.Headers {
	merged := afgjwt.Headers{}

	for _, h := range headers {
		for k, v := range h {
			merged[k] = v
		}
	}

	return merged
}
