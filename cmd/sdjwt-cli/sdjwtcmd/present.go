/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sdjwtcmd

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hyperledger/aries-sdjwt-go/pkg/doc/sdjwt/holder"
)

const (
	sdJWTFlagName  = "sd-jwt"
	sdJWTFlagUsage = "File with the SD-JWT in combined format for issuance, '-' reads stdin."

	discloseFlagName  = "disclose"
	discloseFlagUsage = "Claim names to disclose. Comma separated (e.g. given_name,email)."

	disclosePathFlagName  = "disclose-path"
	disclosePathFlagUsage = "Claim paths to disclose. Comma separated (e.g. address.street,nationalities.0)."

	discloseAllFlagName  = "all"
	discloseAllFlagUsage = "Disclose all claims."

	bindingKeyFlagName  = "holder-key"
	bindingKeyFlagUsage = "Holder private key file (JWK) signing the key binding JWT. Alternatively, this can be " +
		"set with the following environment variable: " + bindingKeyEnvKey
	bindingKeyEnvKey = "SDJWT_HOLDER_KEY"

	nonceFlagName  = "nonce"
	nonceFlagUsage = "Verifier nonce of the key binding JWT."

	audienceFlagName  = "audience"
	audienceFlagUsage = "Verifier audience of the key binding JWT."
)

func presentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "present",
		Short: "Create a presentation",
		Long:  "Create a presentation of selected Disclosures with an optional key binding JWT",
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

			predicate, err := predicateFromFlags(cmd)
			if err != nil {
				return err
			}

			opts := []holder.Option{holder.WithParseOptions(profile.HolderParseOptions()...)}

			bindingOpt, err := keyBindingFromFlags(cmd)
			if err != nil {
				return err
			}

			if bindingOpt != nil {
				opts = append(opts, bindingOpt)
			}

			presentation, err := holder.CreatePresentation(strings.TrimSpace(string(issuance)), predicate, opts...)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), presentation)

			return err
		},
	}

	cmd.Flags().String(sdJWTFlagName, stdinFileName, sdJWTFlagUsage)
	cmd.Flags().StringSlice(discloseFlagName, nil, discloseFlagUsage)
	cmd.Flags().StringSlice(disclosePathFlagName, nil, disclosePathFlagUsage)
	cmd.Flags().Bool(discloseAllFlagName, false, discloseAllFlagUsage)
	cmd.Flags().String(bindingKeyFlagName, "", bindingKeyFlagUsage)
	cmd.Flags().String(nonceFlagName, "", nonceFlagUsage)
	cmd.Flags().String(audienceFlagName, "", audienceFlagUsage)

	return cmd
}

func predicateFromFlags(cmd *cobra.Command) (holder.Predicate, error) {
	all, err := cmd.Flags().GetBool(discloseAllFlagName)
	if err != nil {
		return nil, err
	}

	names, err := cmd.Flags().GetStringSlice(discloseFlagName)
	if err != nil {
		return nil, err
	}

	paths, err := cmd.Flags().GetStringSlice(disclosePathFlagName)
	if err != nil {
		return nil, err
	}

	if all {
		if len(names) > 0 || len(paths) > 0 {
			return nil, errors.New("--all cannot be combined with --disclose or --disclose-path")
		}

		return holder.DiscloseAll(), nil
	}

	byName := holder.DiscloseClaimNames(names...)
	byPath := holder.DisclosePaths(paths...)

	return func(c *holder.Claim) bool {
		return byName(c) || byPath(c)
	}, nil
}

func keyBindingFromFlags(cmd *cobra.Command) (holder.Option, error) {
	keyFile, err := getUserSetVar(cmd, bindingKeyFlagName, bindingKeyEnvKey, true)
	if err != nil {
		return nil, err
	}

	if keyFile == "" {
		return nil, nil
	}

	creds, err := signingCredentialsFromFile(cmd, keyFile, "")
	if err != nil {
		return nil, err
	}

	nonce, err := cmd.Flags().GetString(nonceFlagName)
	if err != nil {
		return nil, err
	}

	audience, err := cmd.Flags().GetString(audienceFlagName)
	if err != nil {
		return nil, err
	}

	return holder.WithKeyBinding(&holder.BindingInfo{
		Payload: holder.BindingPayload{
			Nonce:    nonce,
			Audience: audience,
		},
		Credentials: creds,
	}), nil
}
