/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

/*
Package holder enables the Holder: an entity that receives SD-JWTs from the Issuer and has control over them.

The Holder selects which Disclosures to reveal to a Verifier and, when the SD-JWT carries a "cnf"
claim, proves possession of the bound key with a key binding JWT:

	COMBINED-PRESENTATION = SD-JWT | SELECTED-DISCLOSURES | KB-JWT
*/
package holder

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v3/jwt"
	"github.com/hyperledger/aries-framework-go/component/log"

	afgjwt "github.com/hyperledger/aries-sdjwt-go/pkg/doc/jwt"
	"github.com/hyperledger/aries-sdjwt-go/pkg/doc/sdjwt/common"
)

var logger = log.New("aries-sdjwt/holder")

// Claim defines claim.
type Claim struct {
	// Disclosure is the Disclosure revealing the claim.
	Disclosure *common.Disclosure
	// Digest is the digest of the Disclosure under the SD-JWT digest algorithm.
	Digest string
	// Name is the claim name, empty for array elements.
	Name string
	// Path is the dotted path of the claim in the decoded claim set, e.g. "address.street" or "nationalities.1".
	Path string
	// Value is the decoded claim value.
	Value interface{}
	// Parent is the digest of the Disclosure enclosing the claim, empty for claims of the SD-JWT payload.
	Parent string
}

// parseOpts holds options for the SD-JWT parsing.
type parseOpts struct {
	verificationKey     interface{}
	issuerSigningAlgs   []string
	allowWeakAlgorithms bool
	maxDepth            int
}

// ParseOpt is the SD-JWT Parser option.
type ParseOpt func(opts *parseOpts)

// WithSignatureVerificationKey option is for checking the issuer signature while parsing.
// Without it the SD-JWT signature is not verified.
func WithSignatureVerificationKey(key interface{}) ParseOpt {
	return func(opts *parseOpts) {
		opts.verificationKey = key
	}
}

// WithIssuerSigningAlgorithms option restricts the accepted issuer signing algorithms.
func WithIssuerSigningAlgorithms(algorithms []string) ParseOpt {
	return func(opts *parseOpts) {
		opts.issuerSigningAlgs = algorithms
	}
}

// WithAllowWeakAlgorithms option accepts HMAC-signed SD-JWTs.
func WithAllowWeakAlgorithms(flag bool) ParseOpt {
	return func(opts *parseOpts) {
		opts.allowWeakAlgorithms = flag
	}
}

// WithMaxDepth option bounds the depth of the decoded claim tree.
func WithMaxDepth(depth int) ParseOpt {
	return func(opts *parseOpts) {
		opts.maxDepth = depth
	}
}

type parsedIssuance struct {
	combined *common.CombinedFormatForIssuance
	token    *afgjwt.JSONWebToken
	hasher   *common.Hasher
	claims   []*Claim
}

// Parse parses issuer SD-JWT and returns the selectively disclosable claims.
// Every Disclosure must belong to the SD-JWT; the claims are returned in traversal order.
func Parse(combinedFormatForIssuance string, opts ...ParseOpt) ([]*Claim, error) {
	parsed, err := parse(combinedFormatForIssuance, opts...)
	if err != nil {
		return nil, err
	}

	return parsed.claims, nil
}

func parse(combinedFormatForIssuance string, opts ...ParseOpt) (*parsedIssuance, error) {
	pOpts := &parseOpts{maxDepth: common.DefaultMaxDepth}

	for _, opt := range opts {
		opt(pOpts)
	}

	cfi, err := common.ParseCombinedFormatForIssuance(combinedFormatForIssuance)
	if err != nil {
		return nil, err
	}

	jwtOpt := afgjwt.WithoutSignatureVerification()
	if pOpts.verificationKey != nil {
		jwtOpt = afgjwt.WithVerificationKey(pOpts.verificationKey)
	}

	token, err := afgjwt.Parse(cfi.SDJWT, jwtOpt)
	if err != nil {
		if errors.Is(err, afgjwt.ErrSignatureInvalid) {
			return nil, common.WrapError(common.KindSignatureInvalid, err)
		}

		return nil, common.WrapError(common.KindMalformedPresentation, fmt.Errorf("parse SD-JWT: %w", err))
	}

	alg, _ := token.Headers.Algorithm()

	err = common.CheckSigningAlgorithm(alg, pOpts.issuerSigningAlgs, pOpts.allowWeakAlgorithms)
	if err != nil {
		return nil, err
	}

	hasher, err := common.HasherForPayload(token.Payload)
	if err != nil {
		return nil, err
	}

	res, err := common.NewDecoder(hasher, common.WithDecoderMaxDepth(pOpts.maxDepth)).
		ReconcileWireForms(token.Payload, cfi.Disclosures)
	if err != nil {
		return nil, err
	}

	claims := make([]*Claim, 0, len(res.Disclosed))

	for _, dc := range res.Disclosed {
		name, _ := dc.Disclosure.ClaimName()

		claims = append(claims, &Claim{
			Disclosure: dc.Disclosure,
			Digest:     dc.Digest,
			Name:       name,
			Path:       dc.Path,
			Value:      dc.Value,
			Parent:     dc.Parent,
		})
	}

	return &parsedIssuance{combined: cfi, token: token, hasher: hasher, claims: claims}, nil
}

// BindingPayload represents holder key binding payload.
type BindingPayload struct {
	Nonce    string           `json:"nonce,omitempty"`
	Audience string           `json:"aud,omitempty"`
	IssuedAt *jwt.NumericDate `json:"iat,omitempty"`
	SDHash   string           `json:"sd_hash,omitempty"`
}

// BindingInfo defines holder key binding payload and signing credentials.
type BindingInfo struct {
	Payload     BindingPayload
	Credentials *afgjwt.SigningCredentials
	Headers     afgjwt.Headers
}

// options holds options for holder.
type options struct {
	keyBindingInfo *BindingInfo
	parseOpts      []ParseOpt
	now            func() time.Time
}

// Option is a holder option.
type Option func(opts *options)

// WithKeyBinding option adds a key binding JWT signed with the holder credentials.
func WithKeyBinding(info *BindingInfo) Option {
	return func(opts *options) {
		opts.keyBindingInfo = info
	}
}

// WithParseOptions option passes options to the parsing of the issuance.
func WithParseOptions(parseOpts ...ParseOpt) Option {
	return func(opts *options) {
		opts.parseOpts = parseOpts
	}
}

// WithClock option overrides the clock used for the key binding "iat".
func WithClock(now func() time.Time) Option {
	return func(opts *options) {
		opts.now = now
	}
}

// CreatePresentation is a convenience method to assemble combined format for presentation
// using the Disclosures selected by predicate. The selected Disclosures keep the issuance order.
// Recursive parents of selected Disclosures are included so that every Disclosure stays reachable.
func CreatePresentation(combinedFormatForIssuance string, predicate Predicate, opts ...Option) (string, error) {
	hOpts := &options{now: time.Now}

	for _, opt := range opts {
		opt(hOpts)
	}

	if predicate == nil {
		predicate = DiscloseNone()
	}

	parsed, err := parse(combinedFormatForIssuance, hOpts.parseOpts...)
	if err != nil {
		return "", err
	}

	selected := selectDisclosures(parsed.claims, predicate)

	cf := &common.CombinedFormatForPresentation{SDJWT: parsed.combined.SDJWT}

	for _, wire := range parsed.combined.Disclosures {
		if _, ok := selected[wire]; ok {
			cf.Disclosures = append(cf.Disclosures, wire)
		}
	}

	if hOpts.keyBindingInfo != nil {
		info := *hOpts.keyBindingInfo

		if info.Payload.IssuedAt == nil {
			info.Payload.IssuedAt = jwt.NewNumericDate(hOpts.now())
		}

		info.Payload.SDHash = parsed.hasher.Digest(cf.IssuerSigned())

		cf.KeyBindingJWT, err = CreateKeyBindingJWT(&info)
		if err != nil {
			return "", fmt.Errorf("failed to create key binding: %w", err)
		}
	}

	logger.Debugf("created presentation with %d of %d disclosures, key binding: %t",
		len(cf.Disclosures), len(parsed.combined.Disclosures), cf.KeyBindingJWT != "")

	return cf.Serialize(), nil
}

// selectDisclosures returns the wire forms of claims matched by predicate plus their ancestors.
func selectDisclosures(claims []*Claim, predicate Predicate) map[string]struct{} {
	byDigest := make(map[string]*Claim, len(claims))
	for _, c := range claims {
		byDigest[c.Digest] = c
	}

	selected := make(map[string]struct{})

	for _, c := range claims {
		if !predicate(c) {
			continue
		}

		for ancestor := c; ancestor != nil; ancestor = byDigest[ancestor.Parent] {
			selected[ancestor.Disclosure.WireForm()] = struct{}{}
		}
	}

	return selected
}

// CreateKeyBindingJWT creates the key binding JWT (typ "kb+jwt") for the given binding info.
func CreateKeyBindingJWT(info *BindingInfo) (string, error) {
	if info == nil || info.Credentials == nil {
		return "", errors.New("key binding credentials are not defined")
	}

	if err := common.CheckSigningAlgorithm(info.Credentials.Algorithm, nil, false); err != nil {
		return "", err
	}

	headers := afgjwt.Headers{}
	for k, v := range info.Headers {
		headers[k] = v
	}

	headers[afgjwt.HeaderType] = common.KeyBindingJWTType

	token, err := afgjwt.NewSigned(info.Payload, headers, info.Credentials)
	if err != nil {
		return "", fmt.Errorf("create JWS: %w", err)
	}

	return token.Serialize()
}
