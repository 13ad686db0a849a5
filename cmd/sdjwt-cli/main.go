/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package main is the sdjwt-cli command line tool: it issues SD-JWTs, creates presentations with
// optional key binding, verifies presentations and decodes issued SD-JWTs.
package main

import (
	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-sdjwt-go/cmd/sdjwt-cli/sdjwtcmd"
)

func main() {
	logger := log.New("aries-sdjwt/cli")

	if err := sdjwtcmd.Cmd().Execute(); err != nil {
		logger.Fatalf("Failed to run sdjwt-cli: %s", err)
	}
}
