/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package holder

// Predicate decides whether the Disclosure of a claim is revealed.
type Predicate func(claim *Claim) bool

// DiscloseAll reveals every Disclosure.
func DiscloseAll() Predicate {
	return func(*Claim) bool {
		return true
	}
}

// DiscloseNone reveals no Disclosure.
func DiscloseNone() Predicate {
	return func(*Claim) bool {
		return false
	}
}

// DiscloseClaimNames reveals property Disclosures with one of the given claim names, at any depth.
func DiscloseClaimNames(names ...string) Predicate {
	set := toSet(names)

	return func(c *Claim) bool {
		_, ok := set[c.Name]

		return ok && c.Name != ""
	}
}

// DiscloseDigests reveals the Disclosures with the given digests.
func DiscloseDigests(digests ...string) Predicate {
	set := toSet(digests)

	return func(c *Claim) bool {
		_, ok := set[c.Digest]

		return ok
	}
}

// DisclosePaths reveals the Disclosures at the given dotted paths, e.g. "address.street" or "nationalities.0".
func DisclosePaths(paths ...string) Predicate {
	set := toSet(paths)

	return func(c *Claim) bool {
		_, ok := set[c.Path]

		return ok
	}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))

	for _, v := range values {
		set[v] = struct{}{}
	}

	return set
}
