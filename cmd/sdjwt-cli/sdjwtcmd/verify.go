/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sdjwtcmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperledger/aries-sdjwt-go/pkg/doc/sdjwt/verifier"
	"github.com/hyperledger/aries-sdjwt-go/pkg/keyresolver"
)

const (
	presentationFlagName  = "presentation"
	presentationFlagUsage = "File with the presentation in combined format, '-' reads stdin."

	issuerJWKSFlagName  = "issuer-jwks"
	issuerJWKSFlagUsage = "Trusted issuer keys file (JWK Set or a single JWK). Alternatively, this can be set with " +
		"the following environment variable: " + issuerJWKSEnvKey
	issuerJWKSEnvKey = "SDJWT_ISSUER_JWKS"

	validIssuersFlagName  = "valid-issuers"
	validIssuersFlagUsage = "Accepted 'iss' values, overriding the profile. Comma separated. Alternatively, this can " +
		"be set with the following environment variable: " + validIssuersEnvKey
	validIssuersEnvKey = "SDJWT_VALID_ISSUERS"

	expectedNonceFlagName  = "nonce"
	expectedNonceFlagUsage = "Expected key binding nonce. Optional."

	keyCacheSize = 16
	keyCacheTTL  = time.Minute
)

type verifyOutput struct {
	Claims             map[string]interface{} `json:"claims"`
	KeyBindingVerified bool                   `json:"key_binding_verified"`
	Disclosures        []disclosedClaim       `json:"disclosures"`
}

type disclosedClaim struct {
	Path   string `json:"path"`
	Digest string `json:"digest"`
}

func verifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a presentation",
		Long:  "Verify a presentation against trusted issuer keys and print the disclosed claims",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := loadProfile(cmd)
			if err != nil {
				return err
			}

			jwksFile, err := getUserSetVar(cmd, issuerJWKSFlagName, issuerJWKSEnvKey, false)
			if err != nil {
				return err
			}

			jwks, err := readInput(cmd, jwksFile)
			if err != nil {
				return err
			}

			jwkSet, err := keyresolver.NewJWKSet(jwks)
			if err != nil {
				return err
			}

			presentationFile, err := cmd.Flags().GetString(presentationFlagName)
			if err != nil {
				return err
			}

			presentation, err := readInput(cmd, presentationFile)
			if err != nil {
				return err
			}

			validIssuers, err := getUserSetVars(cmd, validIssuersFlagName, validIssuersEnvKey, true)
			if err != nil {
				return err
			}

			if len(validIssuers) > 0 {
				profile.Verifier.ValidIssuers = validIssuers
			}

			verifyOpts := profile.VerifyOptions()

			if cmd.Flags().Changed(expectedNonceFlagName) {
				nonce, e := cmd.Flags().GetString(expectedNonceFlagName)
				if e != nil {
					return e
				}

				verifyOpts = append(verifyOpts, verifier.WithExpectedNonce(nonce))
			}

			v := verifier.New(keyresolver.NewCache(jwkSet, keyCacheSize, keyCacheTTL), profile.VerifierOptions()...)

			res, err := v.Verify(cmd.Context(), strings.TrimSpace(string(presentation)), verifyOpts...)
			if err != nil {
				return err
			}

			out := &verifyOutput{
				Claims:             res.Claims,
				KeyBindingVerified: res.KeyBindingVerified,
			}

			for _, d := range res.Disclosures {
				out.Disclosures = append(out.Disclosures, disclosedClaim{Path: d.Path, Digest: d.Digest})
			}

			return writeJSON(cmd, out)
		},
	}

	cmd.Flags().String(presentationFlagName, stdinFileName, presentationFlagUsage)
	cmd.Flags().String(issuerJWKSFlagName, "", issuerJWKSFlagUsage)
	cmd.Flags().StringSlice(validIssuersFlagName, nil, validIssuersFlagUsage)
	cmd.Flags().String(expectedNonceFlagName, "", expectedNonceFlagUsage)

	return cmd
}
