/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sdjwtcmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperledger/aries-sdjwt-go/pkg/doc/sdjwt/holder"
)

const (
	issuerPublicKeyFlagName  = "issuer-key"
	issuerPublicKeyFlagUsage = "Issuer public key file (JWK). Optional."
)

type decodedClaim struct {
	Path   string      `json:"path"`
	Name   string      `json:"name,omitempty"`
	Value  interface{} `json:"value"`
	Digest string      `json:"digest"`
}

func decodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "List the disclosable claims of an SD-JWT",
		Long: "List the disclosable claims of an SD-JWT in combined format for issuance. " +
			"The issuer signature is checked when --issuer-key is set",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := loadProfile(cmd)
			if err != nil {
				return err
			}

			sdJWTFile, err := cmd.Flags().GetString(sdJWTFlagName)
			if err != nil {
				return err
			}

			issuance, err := readInput(cmd, sdJWTFile)
			if err != nil {
				return err
			}

			opts := profile.HolderParseOptions()

			keyFile, err := cmd.Flags().GetString(issuerPublicKeyFlagName)
			if err != nil {
				return err
			}

			if keyFile != "" {
				key, e := publicKeyFromFile(cmd, keyFile)
				if e != nil {
					return e
				}

				opts = append(opts, holder.WithSignatureVerificationKey(key))
			}

			claims, err := holder.Parse(strings.TrimSpace(string(issuance)), opts...)
			if err != nil {
				return err
			}

			out := make([]decodedClaim, 0, len(claims))

			for _, c := range claims {
				out = append(out, decodedClaim{Path: c.Path, Name: c.Name, Value: c.Value, Digest: c.Digest})
			}

			return writeJSON(cmd, out)
		},
	}

	cmd.Flags().String(sdJWTFlagName, stdinFileName, sdJWTFlagUsage)
	cmd.Flags().String(issuerPublicKeyFlagName, "", issuerPublicKeyFlagUsage)

	return cmd
}
