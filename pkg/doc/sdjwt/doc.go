/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package sdjwt groups the Selective Disclosure JWT packages.
//
// common holds the Disclosure codec, the digest tree encoder and decoder and the combined formats.
// issuer creates SD-JWTs, holder parses them and creates presentations with optional key binding,
// verifier checks presentations and returns the disclosed claims.
//
// Basic workflow
//
//	1) Issuer calls issuer.New with the claims and a disclosure structure.
//	2) Holder calls holder.Parse on the combined format for issuance.
//	3) Holder calls holder.CreatePresentation with a predicate selecting the Disclosures.
//	4) Verifier calls verifier.New(resolver).Verify on the combined format for presentation.
package sdjwt
