/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sdjwtcmd

import (
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v3/jwt"
	"github.com/spf13/cobra"

	afgjwt "github.com/hyperledger/aries-sdjwt-go/pkg/doc/jwt"
	"github.com/hyperledger/aries-sdjwt-go/pkg/doc/sdjwt/issuer"
)

const (
	issuerFlagName  = "issuer"
	issuerFlagUsage = "Issuer identifier set as 'iss'. Alternatively, this can be set with the following " +
		"environment variable: " + issuerEnvKey
	issuerEnvKey = "SDJWT_ISSUER"

	issuerKeyFlagName  = "key"
	issuerKeyFlagUsage = "Issuer private key file (JWK). Alternatively, this can be set with the following " +
		"environment variable: " + issuerKeyEnvKey
	issuerKeyEnvKey = "SDJWT_ISSUER_KEY"

	claimsFlagName  = "claims"
	claimsFlagUsage = "Claims file (JSON object), '-' reads stdin."

	holderKeyFlagName  = "holder-key"
	holderKeyFlagUsage = "Holder public key file (JWK) bound as 'cnf'. Optional."

	validityFlagName  = "validity"
	validityFlagUsage = "Lifetime of the SD-JWT, e.g. 24h. Sets 'iat' and 'exp'; 0 omits both."

	typFlagName  = "typ"
	typFlagUsage = "'typ' header of the SD-JWT. Optional."
)

func issueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue an SD-JWT",
		Long:  "Issue an SD-JWT for the claims file, concealing the claims of the profile disclosure structure",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := loadProfile(cmd)
			if err != nil {
				return err
			}

			issuerID, err := getUserSetVar(cmd, issuerFlagName, issuerEnvKey, false)
			if err != nil {
				return err
			}

			keyFile, err := getUserSetVar(cmd, issuerKeyFlagName, issuerKeyEnvKey, false)
			if err != nil {
				return err
			}

			creds, err := signingCredentialsFromFile(cmd, keyFile, profile.SigningAlgorithm)
			if err != nil {
				return err
			}

			claimsFile, err := cmd.Flags().GetString(claimsFlagName)
			if err != nil {
				return err
			}

			claims, err := readInput(cmd, claimsFile)
			if err != nil {
				return err
			}

			opts, err := profile.IssuerOptions()
			if err != nil {
				return err
			}

			moreOpts, err := issueOptions(cmd)
			if err != nil {
				return err
			}

			token, err := issuer.New(issuerID, claims, nil, creds, append(opts, moreOpts...)...)
			if err != nil {
				return err
			}

			combined, err := token.Serialize()
			if err != nil {
				return err
			}

			logger.Infof("issued SD-JWT with %d disclosures", len(token.Disclosures))

			_, err = fmt.Fprintln(cmd.OutOrStdout(), combined)

			return err
		},
	}

	cmd.Flags().String(issuerFlagName, "", issuerFlagUsage)
	cmd.Flags().String(issuerKeyFlagName, "", issuerKeyFlagUsage)
	cmd.Flags().String(claimsFlagName, stdinFileName, claimsFlagUsage)
	cmd.Flags().String(holderKeyFlagName, "", holderKeyFlagUsage)
	cmd.Flags().Duration(validityFlagName, 0, validityFlagUsage)
	cmd.Flags().String(typFlagName, "", typFlagUsage)

	return cmd
}

func issueOptions(cmd *cobra.Command) ([]issuer.NewOpt, error) {
	var opts []issuer.NewOpt

	holderKeyFile, err := cmd.Flags().GetString(holderKeyFlagName)
	if err != nil {
		return nil, err
	}

	if holderKeyFile != "" {
		holderKey, e := publicKeyFromFile(cmd, holderKeyFile)
		if e != nil {
			return nil, e
		}

		opts = append(opts, issuer.WithHolderPublicKey(holderKey))
	}

	validity, err := cmd.Flags().GetDuration(validityFlagName)
	if err != nil {
		return nil, err
	}

	if validity > 0 {
		now := time.Now()

		opts = append(opts,
			issuer.WithIssuedAt(jwt.NewNumericDate(now)),
			issuer.WithExpiry(jwt.NewNumericDate(now.Add(validity))))
	}

	typ, err := cmd.Flags().GetString(typFlagName)
	if err != nil {
		return nil, err
	}

	if typ != "" {
		opts = append(opts, issuer.WithHeaders(afgjwt.Headers{afgjwt.HeaderType: typ}))
	}

	return opts, nil
}
