/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/hyperledger/aries-framework-go/component/log"
	spilog "github.com/hyperledger/aries-framework-go/spi/log"
	"github.com/pkg/errors"

	"github.com/hyperledger/aries-sdjwt-go/pkg/doc/sdjwt/common"
	"github.com/hyperledger/aries-sdjwt-go/pkg/doc/sdjwt/holder"
	"github.com/hyperledger/aries-sdjwt-go/pkg/doc/sdjwt/issuer"
	"github.com/hyperledger/aries-sdjwt-go/pkg/doc/sdjwt/verifier"
)

// Profile is the file and environment configuration of issuers, holders and verifiers.
type Profile struct {
	// DisclosureStructure is a JSON object describing which claims are selectively disclosable,
	// e.g. {"given_name": true, "address": {"_sd": true, "street": true}}. It is kept as a JSON string
	// because claim names are case sensitive.
	DisclosureStructure string `mapstructure:"disclosure_structure"`
	DecoyDigestCount    int    `mapstructure:"decoy_digest_count" validate:"gte=0,lte=1000"`
	AllowWeakAlgorithms bool   `mapstructure:"allow_weak_algorithms"`
	DigestAlgorithm     string `mapstructure:"digest_algorithm" default:"sha-256" validate:"oneof=sha-256 sha-384 sha-512"` //nolint:lll
	SigningAlgorithm    string `mapstructure:"signing_algorithm" validate:"omitempty,oneof=EdDSA ES256 ES384 ES512 PS256 PS384 PS512 RS256 RS384 RS512 HS256 HS384 HS512"` //nolint:lll
	MaxDepth            int    `mapstructure:"max_depth" default:"64" validate:"gt=0"`
	LogLevel            string `mapstructure:"log_level" default:"INFO"`

	Verifier VerifierProfile `mapstructure:"verifier"`
}

// VerifierProfile holds the verification rules.
type VerifierProfile struct {
	ValidIssuers      []string      `mapstructure:"valid_issuers"`
	ValidAudiences    []string      `mapstructure:"valid_audiences"`
	ValidateLifetime  bool          `mapstructure:"validate_lifetime" default:"true"`
	ClockSkew         time.Duration `mapstructure:"clock_skew" default:"1m" validate:"gte=0"`
	SigningAlgorithms []string      `mapstructure:"signing_algorithms"`
	ExpectedTyp       string        `mapstructure:"expected_typ"`

	KeyBinding KeyBindingProfile `mapstructure:"key_binding"`
}

// KeyBindingProfile holds the key binding JWT rules.
type KeyBindingProfile struct {
	Required          bool          `mapstructure:"required"`
	ValidAudiences    []string      `mapstructure:"valid_audiences"`
	FreshnessWindow   time.Duration `mapstructure:"freshness_window" default:"5m" validate:"gt=0"`
	ClockSkew         time.Duration `mapstructure:"clock_skew" default:"1m" validate:"gte=0"`
	SigningAlgorithms []string      `mapstructure:"signing_algorithms"`
	RequireSDHash     bool          `mapstructure:"require_sd_hash"`
}

// Structure parses DisclosureStructure. An empty structure discloses nothing selectively.
func (p *Profile) Structure() (common.Node, error) {
	if p.DisclosureStructure == "" {
		return nil, nil
	}

	d := json.NewDecoder(bytes.NewReader([]byte(p.DisclosureStructure)))
	d.UseNumber()

	var raw map[string]interface{}

	if err := d.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode disclosure structure")
	}

	node, err := common.ParseStructure(raw)
	if err != nil {
		return nil, errors.Wrap(err, "invalid disclosure structure")
	}

	return node, nil
}

// IssuerOptions converts the profile into issuer options.
func (p *Profile) IssuerOptions() ([]issuer.NewOpt, error) {
	structure, err := p.Structure()
	if err != nil {
		return nil, err
	}

	return []issuer.NewOpt{
		issuer.WithStructure(structure),
		issuer.WithDecoyDigests(p.DecoyDigestCount),
		issuer.WithDigestAlgorithm(p.DigestAlgorithm),
		issuer.WithAllowWeakAlgorithms(p.AllowWeakAlgorithms),
		issuer.WithMaxDepth(p.MaxDepth),
	}, nil
}

// HolderParseOptions converts the profile into holder parse options.
func (p *Profile) HolderParseOptions() []holder.ParseOpt {
	return []holder.ParseOpt{
		holder.WithAllowWeakAlgorithms(p.AllowWeakAlgorithms),
		holder.WithIssuerSigningAlgorithms(p.Verifier.SigningAlgorithms),
		holder.WithMaxDepth(p.MaxDepth),
	}
}

// VerifierOptions converts the profile into verifier options.
func (p *Profile) VerifierOptions() []verifier.Opt {
	opts := []verifier.Opt{
		verifier.WithMaxDepth(p.MaxDepth),
		verifier.WithAllowWeakAlgorithms(p.AllowWeakAlgorithms),
		verifier.WithIssuerSigningAlgorithms(p.Verifier.SigningAlgorithms),
	}

	if p.Verifier.ExpectedTyp != "" {
		opts = append(opts, verifier.WithExpectedTypHeader(p.Verifier.ExpectedTyp))
	}

	return opts
}

// VerifyOptions converts the profile into the validation and key binding rules of a verification.
func (p *Profile) VerifyOptions() []verifier.VerifyOpt {
	vp := &p.Verifier

	return []verifier.VerifyOpt{
		verifier.WithValidationRules(verifier.ValidationRules{
			ValidateIssuer:   len(vp.ValidIssuers) > 0,
			ValidIssuers:     vp.ValidIssuers,
			ValidateAudience: len(vp.ValidAudiences) > 0,
			ValidAudiences:   vp.ValidAudiences,
			ValidateLifetime: vp.ValidateLifetime,
			ClockSkew:        vp.ClockSkew,
		}),
		verifier.WithKeyBindingRules(verifier.KeyBindingRules{
			Required:          vp.KeyBinding.Required,
			ValidAudiences:    vp.KeyBinding.ValidAudiences,
			FreshnessWindow:   vp.KeyBinding.FreshnessWindow,
			ClockSkew:         vp.KeyBinding.ClockSkew,
			SigningAlgorithms: vp.KeyBinding.SigningAlgorithms,
			RequireSDHash:     vp.KeyBinding.RequireSDHash,
		}),
	}
}

// Level parses LogLevel.
func (p *Profile) Level() (spilog.Level, error) {
	level, err := log.ParseLevel(p.LogLevel)
	if err != nil {
		return level, errors.Wrap(err, "parse log level")
	}

	return level, nil
}

// ApplyLogLevel sets the default log level of all modules.
func (p *Profile) ApplyLogLevel() error {
	level, err := p.Level()
	if err != nil {
		return err
	}

	log.SetLevel("", level)

	return nil
}
