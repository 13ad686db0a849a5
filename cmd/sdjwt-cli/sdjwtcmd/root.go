/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package sdjwtcmd implements the sdjwt-cli commands.
package sdjwtcmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hyperledger/aries-sdjwt-go/pkg/config"
)

var logger = log.New("aries-sdjwt/cli")

const (
	configFlagName      = "config"
	configFlagShorthand = "c"
	configFlagUsage     = "Profile file (YAML or JSON). Alternatively, this can be set with the following environment " +
		"variable: " + configEnvKey
	configEnvKey = "SDJWT_CONFIG"

	logLevelFlagName  = "log-level"
	logLevelFlagUsage = "Log level. Possible values [INFO] [DEBUG] [ERROR] [WARNING] [CRITICAL]. " +
		"Defaults to the profile log level. Alternatively, this can be set with the following environment " +
		"variable: " + logLevelEnvKey
	logLevelEnvKey = "SDJWT_LOG_LEVEL"

	stdinFileName = "-"
)

// Cmd returns the sdjwt-cli root command.
func Cmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sdjwt-cli",
		Short:         "Issue, present and verify SD-JWTs",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	rootCmd.PersistentFlags().StringP(configFlagName, configFlagShorthand, "", configFlagUsage)
	rootCmd.PersistentFlags().String(logLevelFlagName, "", logLevelFlagUsage)

	rootCmd.AddCommand(issueCmd(), presentCmd(), verifyCmd(), decodeCmd())

	return rootCmd
}

// loadProfile loads the profile from the config file, or from SDJWT_* environment variables when no file is set,
// and applies the log level.
func loadProfile(cmd *cobra.Command) (*config.Profile, error) {
	configFile, err := getUserSetVar(cmd, configFlagName, configEnvKey, true)
	if err != nil {
		return nil, err
	}

	var profile *config.Profile

	if configFile != "" {
		profile, err = config.FromFile(configFile)
	} else {
		profile, err = config.FromEnv()
	}

	if err != nil {
		return nil, err
	}

	logLevel, err := getUserSetVar(cmd, logLevelFlagName, logLevelEnvKey, true)
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		profile.LogLevel = logLevel
	}

	if err = profile.ApplyLogLevel(); err != nil {
		return nil, fmt.Errorf("failed to parse log level '%s' : %w", profile.LogLevel, err)
	}

	return profile, nil
}

func getUserSetVar(cmd *cobra.Command, flagName, envKey string, isOptional bool) (string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetString(flagName)
		if err != nil {
			return "", fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	if isOptional || isSet {
		return value, nil
	}

	return "", errors.New("Neither " + flagName + " (command line flag) nor " + envKey +
		" (environment variable) have been set.")
}

func getUserSetVars(cmd *cobra.Command, flagName, envKey string, isOptional bool) ([]string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetStringSlice(flagName)
		if err != nil {
			return nil, fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	if isOptional || isSet {
		if value == "" {
			return nil, nil
		}

		return strings.Split(value, ","), nil
	}

	return nil, errors.New("Neither " + flagName + " (command line flag) nor " + envKey +
		" (environment variable) have been set.")
}

// readInput reads a file, or the command input when name is "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == stdinFileName {
		return io.ReadAll(cmd.InOrStdin())
	}

	data, err := os.ReadFile(name) //nolint:gosec
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", name)
	}

	return data, nil
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
