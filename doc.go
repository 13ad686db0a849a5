/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package sdjwt enables Go developers to issue, present and verify Selective Disclosure JWTs (SD-JWT).
//
// Packages for end developer usage
//
// pkg/doc/sdjwt/issuer: Creates SD-JWTs, concealing the claims of a disclosure structure behind digests.
//
// pkg/doc/sdjwt/holder: Parses SD-JWTs and creates presentations of selected Disclosures with an optional
// key binding JWT.
//
// pkg/doc/sdjwt/verifier: Verifies presentations and returns the disclosed claims.
//
// pkg/keyresolver: Issuer key resolvers for the verifier (static key, JWK Set, per-issuer, cache, retry).
//
// pkg/config: Loads issuer and verifier profiles from files and SDJWT_* environment variables.
//
// Basic workflow
//
//	1) Issuer calls issuer.New and hands the combined format for issuance to the holder.
//	2) Holder calls holder.CreatePresentation with a predicate selecting the Disclosures.
//	3) Verifier calls verifier.New(resolver).Verify and reads Result.Claims.
package sdjwt
