/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

const (
	disclosureElementsWithName    = 3
	disclosureElementsWithoutName = 2
)

// Disclosure is the salted, base64url encoded form of one concealed claim or array element.
// The wire form is computed once and never changes; two Disclosures are equal when their wire
// forms are.
type Disclosure struct {
	salt    string
	name    string
	hasName bool
	value   interface{}
	wire    string
}

// CreateForProperty creates a Disclosure for an object property with a random salt.
func CreateForProperty(name string, value interface{}) (*Disclosure, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}

	return CreateWithSalt(salt, &name, value)
}

// CreateForElement creates a Disclosure for an array element with a random salt.
func CreateForElement(value interface{}) (*Disclosure, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}

	return CreateWithSalt(salt, nil, value)
}

// CreateWithSalt creates a Disclosure with the given salt. claimName is nil for array elements.
func CreateWithSalt(salt string, claimName *string, value interface{}) (*Disclosure, error) {
	return createWithMarshaller(json.Marshal, salt, claimName, value)
}

func createWithMarshaller(marshal func(interface{}) ([]byte, error), salt string, claimName *string,
	value interface{}) (*Disclosure, error) {
	if salt == "" {
		return nil, NewError(KindMalformedDisclosure, "salt must not be empty")
	}

	d := &Disclosure{salt: salt, value: value}

	arr := []interface{}{salt}

	if claimName != nil {
		if IsReservedClaimName(*claimName) {
			return nil, NewError(KindReservedClaimName, "claim name %q is reserved", *claimName)
		}

		d.name = *claimName
		d.hasName = true

		arr = append(arr, *claimName)
	}

	arr = append(arr, value)

	raw, err := marshal(arr)
	if err != nil {
		return nil, NewError(KindInvalidClaims, "marshal disclosure: %w", err)
	}

	d.wire = base64.RawURLEncoding.EncodeToString(raw)

	return d, nil
}

// ParseWireForm decodes a Disclosure from its base64url wire form. The given text is kept verbatim
// so the digest matches the one the issuer computed.
func ParseWireForm(text string) (*Disclosure, error) {
	raw, err := base64.RawURLEncoding.DecodeString(text)
	if err != nil {
		return nil, NewError(KindMalformedDisclosure, "decode disclosure: %w", err)
	}

	var arr []interface{}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	if err = dec.Decode(&arr); err != nil {
		return nil, NewError(KindMalformedDisclosure, "unmarshal disclosure array: %w", err)
	}

	if len(arr) < disclosureElementsWithoutName || len(arr) > disclosureElementsWithName {
		return nil, NewError(KindMalformedDisclosure,
			"disclosure array must have 2 or 3 elements, got %d", len(arr))
	}

	salt, ok := arr[0].(string)
	if !ok || salt == "" {
		return nil, NewError(KindMalformedDisclosure, "disclosure salt must be a non-empty string")
	}

	d := &Disclosure{salt: salt, wire: text}

	if len(arr) == disclosureElementsWithName {
		name, ok := arr[1].(string)
		if !ok {
			return nil, NewError(KindMalformedDisclosure, "disclosure claim name must be a string")
		}

		if IsReservedClaimName(name) {
			return nil, NewError(KindReservedClaimName, "claim name %q is reserved", name)
		}

		d.name = name
		d.hasName = true
		d.value = arr[2]
	} else {
		d.value = arr[1]
	}

	return d, nil
}

// Salt returns the salt.
func (d *Disclosure) Salt() string {
	return d.salt
}

// ClaimName returns the claim name; ok is false for array element Disclosures.
func (d *Disclosure) ClaimName() (string, bool) {
	return d.name, d.hasName
}

// Value returns the disclosed JSON value.
func (d *Disclosure) Value() interface{} {
	return d.value
}

// IsArrayElement reports whether the Disclosure conceals an array element.
func (d *Disclosure) IsArrayElement() bool {
	return !d.hasName
}

// WireForm returns the base64url encoded Disclosure.
func (d *Disclosure) WireForm() string {
	return d.wire
}

func (d *Disclosure) String() string {
	return d.wire
}

// Digest hashes the wire form with the named algorithm.
func (d *Disclosure) Digest(alg string) (string, error) {
	h, err := NewHasher(alg)
	if err != nil {
		return "", err
	}

	return h.Digest(d.wire), nil
}

// Equal compares Disclosures by wire form.
func (d *Disclosure) Equal(other *Disclosure) bool {
	if d == nil || other == nil {
		return d == other
	}

	return d.wire == other.wire
}

// GenerateSalt returns 128 bits from crypto/rand, base64url encoded.
func GenerateSalt() (string, error) {
	b := make([]byte, saltSize)

	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ParseDisclosures parses a list of wire forms, failing on the first malformed one.
func ParseDisclosures(wireForms []string) ([]*Disclosure, error) {
	disclosures := make([]*Disclosure, 0, len(wireForms))

	for i, w := range wireForms {
		d, err := ParseWireForm(w)
		if err != nil {
			return nil, fmt.Errorf("disclosure[%d]: %w", i, err)
		}

		disclosures = append(disclosures, d)
	}

	return disclosures, nil
}
