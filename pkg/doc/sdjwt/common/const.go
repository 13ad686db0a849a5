/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

// Reserved SD-JWT member names and serialization constants.
const (
	// CombinedFormatSeparator separates the SD-JWT, the Disclosures and the key binding JWT.
	CombinedFormatSeparator = "~"

	// SDKey is the member of a mapping holding the digests of concealed properties.
	SDKey = "_sd"
	// SDAlgorithmKey is the top-level claim naming the digest algorithm.
	SDAlgorithmKey = "_sd_alg"
	// ArrayElementDigestKey is the only member of an array element placeholder.
	ArrayElementDigestKey = "..."

	// CNFKey is the confirmation claim carrying the holder public key.
	CNFKey = "cnf"
	// SDHashKey is the key binding JWT claim binding it to the presented SD-JWT and Disclosures.
	SDHashKey = "sd_hash"

	// KeyBindingJWTType is the "typ" header of a key binding JWT.
	KeyBindingJWTType = "kb+jwt"

	// DefaultMaxDepth bounds recursion of the encoder and the decoder.
	DefaultMaxDepth = 64

	saltSize = 16
)

// IsReservedClaimName reports whether name must never be used as a claim name.
func IsReservedClaimName(name string) bool {
	return name == SDKey || name == SDAlgorithmKey || name == ArrayElementDigestKey
}
