/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

/*
Package verifier enables the Verifier: an entity that requests, checks and extracts the claims from an SD-JWT
and respective Disclosures.

A presentation moves through Parsed, SignatureChecked, DigestsReconciled and, when the SD-JWT binds a
holder key, KeyBindingChecked before it is Verified. Any failed step rejects the whole presentation;
there is no partial acceptance.
*/
package verifier

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v3/jwt"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/exp/slices"

	afgjwt "github.com/hyperledger/aries-sdjwt-go/pkg/doc/jwt"
	"github.com/hyperledger/aries-sdjwt-go/pkg/doc/sdjwt/common"
)

var logger = log.New("aries-sdjwt/verifier")

const (
	tracerName = "aries-sdjwt/verifier"

	// DefaultFreshnessWindow is the maximum age of a key binding JWT.
	DefaultFreshnessWindow = 5 * time.Minute
)

// KeyResolver resolves the public key an issuer signed an SD-JWT with.
// keyID is the "kid" header of the SD-JWT and may be empty.
type KeyResolver interface {
	ResolveIssuerKey(ctx context.Context, issuer, keyID string) (crypto.PublicKey, error)
}

// KeyResolverFunc adapts a function to KeyResolver.
type KeyResolverFunc func(ctx context.Context, issuer, keyID string) (crypto.PublicKey, error)

// ResolveIssuerKey calls f.
func (f KeyResolverFunc) ResolveIssuerKey(ctx context.Context, issuer, keyID string) (crypto.PublicKey, error) {
	return f(ctx, issuer, keyID)
}

// ValidationRules are the rules for the registered claims of the SD-JWT.
type ValidationRules struct {
	ValidateIssuer bool
	ValidIssuers   []string

	ValidateAudience bool
	ValidAudiences   []string

	// ValidateLifetime checks "exp", "nbf" and "iat" against the verifier clock.
	ValidateLifetime bool
	ClockSkew        time.Duration
}

// DefaultValidationRules validates the lifetime with the default leeway.
func DefaultValidationRules() ValidationRules {
	return ValidationRules{
		ValidateLifetime: true,
		ClockSkew:        jwt.DefaultLeeway,
	}
}

// KeyBindingRules are the rules for the key binding JWT.
type KeyBindingRules struct {
	// Required rejects presentations without key binding even when the SD-JWT has no "cnf".
	Required bool

	// ValidAudiences restricts the "aud" claim when not empty.
	ValidAudiences []string

	// FreshnessWindow is the maximum age of "iat".
	FreshnessWindow time.Duration
	// ClockSkew tolerates "iat" values in the future.
	ClockSkew time.Duration

	// SigningAlgorithms restricts the holder signing algorithms when not empty.
	SigningAlgorithms []string

	// RequireSDHash rejects key binding JWTs without "sd_hash".
	RequireSDHash bool
}

// DefaultKeyBindingRules uses the default freshness window and leeway.
func DefaultKeyBindingRules() KeyBindingRules {
	return KeyBindingRules{
		FreshnessWindow: DefaultFreshnessWindow,
		ClockSkew:       jwt.DefaultLeeway,
	}
}

// Opt is the Verifier option.
type Opt func(v *Verifier)

// WithMetrics option records verification outcomes.
func WithMetrics(m *Metrics) Opt {
	return func(v *Verifier) {
		v.metrics = m
	}
}

// WithTracer option overrides the OpenTelemetry tracer (the global provider is used by default).
func WithTracer(t trace.Tracer) Opt {
	return func(v *Verifier) {
		v.tracer = t
	}
}

// WithClock option overrides the verifier clock.
func WithClock(now func() time.Time) Opt {
	return func(v *Verifier) {
		v.now = now
	}
}

// WithMaxDepth option bounds the depth of the decoded claim tree.
func WithMaxDepth(depth int) Opt {
	return func(v *Verifier) {
		v.maxDepth = depth
	}
}

// WithAllowWeakAlgorithms option accepts HMAC-signed SD-JWTs.
func WithAllowWeakAlgorithms(flag bool) Opt {
	return func(v *Verifier) {
		v.allowWeak = flag
	}
}

// WithIssuerSigningAlgorithms option restricts the issuer signing algorithms.
func WithIssuerSigningAlgorithms(algorithms []string) Opt {
	return func(v *Verifier) {
		v.issuerAlgs = algorithms
	}
}

// WithExpectedTypHeader option requires the given "typ" header on the SD-JWT.
func WithExpectedTypHeader(typ string) Opt {
	return func(v *Verifier) {
		v.expectedTyp = typ
	}
}

// Verifier verifies SD-JWT presentations. It holds no per-call state and is safe for concurrent use.
type Verifier struct {
	resolver    KeyResolver
	metrics     *Metrics
	tracer      trace.Tracer
	now         func() time.Time
	maxDepth    int
	allowWeak   bool
	issuerAlgs  []string
	expectedTyp string
}

// New creates a Verifier resolving issuer keys with resolver.
func New(resolver KeyResolver, opts ...Opt) *Verifier {
	v := &Verifier{
		resolver: resolver,
		now:      time.Now,
		maxDepth: common.DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(v)
	}

	if v.tracer == nil {
		v.tracer = otel.Tracer(tracerName)
	}

	return v
}

// verifyOpts holds options for a single verification.
type verifyOpts struct {
	rules         ValidationRules
	kbRules       KeyBindingRules
	expectedNonce *string
}

// VerifyOpt is the Verify option.
type VerifyOpt func(opts *verifyOpts)

// WithValidationRules option replaces DefaultValidationRules.
func WithValidationRules(rules ValidationRules) VerifyOpt {
	return func(opts *verifyOpts) {
		opts.rules = rules
	}
}

// WithKeyBindingRules option replaces DefaultKeyBindingRules.
func WithKeyBindingRules(rules KeyBindingRules) VerifyOpt {
	return func(opts *verifyOpts) {
		opts.kbRules = rules
	}
}

// WithExpectedNonce option requires the key binding "nonce" to equal nonce.
func WithExpectedNonce(nonce string) VerifyOpt {
	return func(opts *verifyOpts) {
		opts.expectedNonce = &nonce
	}
}

// KeyBindingClaims are the verified claims of a key binding JWT.
type KeyBindingClaims struct {
	Nonce    string           `json:"nonce"`
	Audience string           `json:"aud"`
	IssuedAt *jwt.NumericDate `json:"iat"`
	SDHash   string           `json:"sd_hash"`
}

// Result is a verified presentation.
type Result struct {
	// Claims are the disclosed claims merged with the clear-text claims. "_sd_alg" is removed, "cnf" is kept.
	Claims map[string]interface{}
	// KeyBindingVerified is true when a key binding JWT was present and verified.
	KeyBindingVerified bool
	// StandardClaims are the registered claims of the SD-JWT.
	StandardClaims *jwt.Claims
	// Headers are the protected headers of the SD-JWT.
	Headers afgjwt.Headers
	// Disclosures lists the presented Disclosures with their paths.
	Disclosures []*common.DisclosedClaim
	// KeyBinding holds the key binding claims when KeyBindingVerified is true.
	KeyBinding *KeyBindingClaims
}

// Verify verifies a presentation <SD-JWT>~<d1>~...~<dn>~<kb-jwt-or-empty>.
func (v *Verifier) Verify(ctx context.Context, presentation string, opts ...VerifyOpt) (*Result, error) {
	vOpts := &verifyOpts{
		rules:   DefaultValidationRules(),
		kbRules: DefaultKeyBindingRules(),
	}

	for _, opt := range opts {
		opt(vOpts)
	}

	start := time.Now()

	ctx, span := v.tracer.Start(ctx, "sdjwt.verify")
	defer span.End()

	res, err := v.verify(ctx, presentation, vOpts)

	outcome := outcomeVerified
	if err != nil {
		outcome = common.KindOf(err).String()

		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)

		logger.Debugf("presentation rejected: %s", outcome)
	} else {
		span.SetAttributes(
			attribute.Int("sdjwt.disclosures", len(res.Disclosures)),
			attribute.Bool("sdjwt.key_binding", res.KeyBindingVerified),
		)
	}

	span.SetAttributes(attribute.String("sdjwt.outcome", outcome))

	if v.metrics != nil {
		disclosures := 0
		if res != nil {
			disclosures = len(res.Disclosures)
		}

		v.metrics.observe(outcome, time.Since(start), disclosures)
	}

	return res, err
}

func (v *Verifier) verify(ctx context.Context, presentation string, vOpts *verifyOpts) (*Result, error) {
	// Parsed.
	cfp, err := common.ParseCombinedFormatForPresentation(presentation)
	if err != nil {
		return nil, err
	}

	unverified, err := afgjwt.Parse(cfp.SDJWT, afgjwt.WithoutSignatureVerification())
	if err != nil {
		if errors.Is(err, afgjwt.ErrSignatureInvalid) {
			return nil, common.WrapError(common.KindSignatureInvalid, err)
		}

		return nil, common.WrapError(common.KindMalformedPresentation, fmt.Errorf("parse SD-JWT: %w", err))
	}

	if err = v.checkHeaders(unverified.Headers); err != nil {
		return nil, err
	}

	rawPayload, err := unverified.RawPayload()
	if err != nil {
		return nil, common.WrapError(common.KindMalformedPresentation, err)
	}

	issuer, err := unverifiedIssuer(rawPayload, unverified.Payload)
	if err != nil {
		return nil, err
	}

	// SignatureChecked.
	issuerKey, err := v.resolveIssuerKey(ctx, issuer, unverified.LookupStringHeader(afgjwt.HeaderKeyID))
	if err != nil {
		return nil, err
	}

	token, err := afgjwt.Parse(cfp.SDJWT, afgjwt.WithVerificationKey(issuerKey))
	if err != nil {
		if errors.Is(err, afgjwt.ErrSignatureInvalid) {
			return nil, common.WrapError(common.KindSignatureInvalid, err)
		}

		return nil, common.WrapError(common.KindMalformedPresentation, err)
	}

	standardClaims, err := v.validateStandardClaims(token, &vOpts.rules)
	if err != nil {
		return nil, err
	}

	if standardClaims.Issuer != issuer {
		return nil, common.NewError(common.KindStandardClaimInvalid,
			"issuer %q differs from the issuer %q the key was resolved for", standardClaims.Issuer, issuer)
	}

	// DigestsReconciled.
	hasher, err := common.HasherForPayload(token.Payload)
	if err != nil {
		return nil, err
	}

	decoded, err := common.NewDecoder(hasher, common.WithDecoderMaxDepth(v.maxDepth)).
		ReconcileWireForms(token.Payload, cfp.Disclosures)
	if err != nil {
		return nil, err
	}

	// KeyBindingChecked.
	kbClaims, err := v.verifyKeyBinding(token.Payload, cfp, hasher, vOpts)
	if err != nil {
		return nil, err
	}

	return &Result{
		Claims:             decoded.Claims,
		KeyBindingVerified: kbClaims != nil,
		StandardClaims:     standardClaims,
		Headers:            token.Headers,
		Disclosures:        decoded.Disclosed,
		KeyBinding:         kbClaims,
	}, nil
}

func (v *Verifier) checkHeaders(headers afgjwt.Headers) error {
	alg, _ := headers.Algorithm()

	if err := common.CheckSigningAlgorithm(alg, v.issuerAlgs, v.allowWeak); err != nil {
		return err
	}

	if v.expectedTyp != "" {
		typ, _ := headers.Type()
		if typ != v.expectedTyp {
			return common.NewError(common.KindMalformedPresentation, "unexpected typ header %q", typ)
		}
	}

	return nil
}

func (v *Verifier) resolveIssuerKey(ctx context.Context, issuer, keyID string) (crypto.PublicKey, error) {
	ctx, span := v.tracer.Start(ctx, "sdjwt.resolve_issuer_key",
		trace.WithAttributes(attribute.String("sdjwt.issuer", issuer)))
	defer span.End()

	if v.resolver == nil {
		return nil, common.NewError(common.KindIssuerKeyResolutionFailure, "key resolver is not defined")
	}

	key, err := v.resolver.ResolveIssuerKey(ctx, issuer, keyID)
	if err == nil && key == nil {
		err = errors.New("no key returned")
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "issuer key resolution failed")

		return nil, common.WrapError(common.KindIssuerKeyResolutionFailure,
			fmt.Errorf("resolve key of issuer %q: %w", issuer, err))
	}

	return key, nil
}

func (v *Verifier) validateStandardClaims(token *afgjwt.JSONWebToken, rules *ValidationRules) (*jwt.Claims, error) {
	var claims jwt.Claims

	if err := token.DecodeClaims(&claims); err != nil {
		return nil, common.WrapError(common.KindStandardClaimInvalid, fmt.Errorf("decode standard claims: %w", err))
	}

	if rules.ValidateLifetime {
		err := claims.ValidateWithLeeway(jwt.Expected{Time: v.now()}, rules.ClockSkew)
		if err != nil {
			return nil, common.WrapError(common.KindStandardClaimInvalid, err)
		}
	}

	if rules.ValidateIssuer && !slices.Contains(rules.ValidIssuers, claims.Issuer) {
		return nil, common.NewError(common.KindStandardClaimInvalid, "issuer %q is not accepted", claims.Issuer)
	}

	if rules.ValidateAudience && !containsAny(claims.Audience, rules.ValidAudiences) {
		return nil, common.NewError(common.KindStandardClaimInvalid, "audience is not accepted")
	}

	return &claims, nil
}

// unverifiedIssuer returns the "iss" claim used to resolve the issuer key. Payloads repeating "iss"
// are rejected since JSON decoders disagree on which occurrence wins.
func unverifiedIssuer(rawPayload []byte, payload map[string]interface{}) (string, error) {
	occurrences := 0

	gjson.ParseBytes(rawPayload).ForEach(func(key, _ gjson.Result) bool {
		if key.String() == "iss" {
			occurrences++
		}

		return true
	})

	if occurrences > 1 {
		return "", common.NewError(common.KindMalformedPresentation, "SD-JWT payload repeats the iss claim")
	}

	if iss, ok := payload["iss"]; ok {
		issuer, ok := iss.(string)
		if !ok {
			return "", common.NewError(common.KindStandardClaimInvalid, "iss claim must be a string")
		}

		return issuer, nil
	}

	return "", nil
}

func containsAny(values, accepted []string) bool {
	for _, v := range values {
		if slices.Contains(accepted, v) {
			return true
		}
	}

	return false
}
