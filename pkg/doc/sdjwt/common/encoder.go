/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"encoding/json"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// EncoderOpt configures an Encoder.
type EncoderOpt func(e *Encoder)

// WithDecoyDigests adds count decoy digests to every "_sd" array the encoder creates.
func WithDecoyDigests(count int) EncoderOpt {
	return func(e *Encoder) {
		e.decoys = count
	}
}

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(depth int) EncoderOpt {
	return func(e *Encoder) {
		e.maxDepth = depth
	}
}

// WithSaltFunc overrides salt generation. Salts must come from a cryptographically secure source;
// this option exists for deterministic test vectors.
func WithSaltFunc(f func() (string, error)) EncoderOpt {
	return func(e *Encoder) {
		e.saltFnc = f
	}
}

// WithJSONMarshaller overrides the marshaller used for Disclosure arrays.
func WithJSONMarshaller(marshal func(v interface{}) ([]byte, error)) EncoderOpt {
	return func(e *Encoder) {
		e.marshal = marshal
	}
}

// Encoder conceals the parts of a claim tree selected by a disclosure structure.
// An Encoder holds no state between calls and is safe for concurrent use.
type Encoder struct {
	hasher   *Hasher
	decoys   int
	maxDepth int
	saltFnc  func() (string, error)
	marshal  func(v interface{}) ([]byte, error)
}

// NewEncoder creates an Encoder producing digests with hasher.
func NewEncoder(hasher *Hasher, opts ...EncoderOpt) *Encoder {
	e := &Encoder{
		hasher:   hasher,
		maxDepth: DefaultMaxDepth,
		saltFnc:  GenerateSalt,
		marshal:  json.Marshal,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

type encodeState struct {
	disclosures []*Disclosure
}

// Encode walks claims depth-first in post-order and returns the encoded tree together with the
// Disclosures it created. Disclosures of nested claims precede the Disclosure of their parent.
// The input tree is not modified.
func (e *Encoder) Encode(claims map[string]interface{}, structure Node) (map[string]interface{}, []*Disclosure,
	error) {
	state := &encodeState{}

	encoded, err := e.encodeObject(state, claims, structure, 0)
	if err != nil {
		return nil, nil, err
	}

	return encoded, state.disclosures, nil
}

func (e *Encoder) encodeValue(state *encodeState, value interface{}, node Node, depth int) (interface{}, error) {
	switch v := value.(type) {
	case map[string]interface{}:
		return e.encodeObject(state, v, node, depth)
	case []interface{}:
		return e.encodeArray(state, v, node, depth)
	default:
		return v, nil
	}
}

func (e *Encoder) encodeObject(state *encodeState, obj map[string]interface{}, node Node,
	depth int) (map[string]interface{}, error) {
	if depth > e.maxDepth {
		return nil, NewError(KindMaxDepthExceeded, "claim tree is deeper than %d", e.maxDepth)
	}

	out := make(map[string]interface{}, len(obj))

	var digests []string

	keys := maps.Keys(obj)
	slices.Sort(keys)

	for _, key := range keys {
		if IsReservedClaimName(key) {
			return nil, NewError(KindReservedClaimName, "claim name %q is reserved", key)
		}

		name := key

		value, conceal, err := e.encodeChild(state, obj[key], node.property(key), depth)
		if err != nil {
			return nil, err
		}

		if !conceal {
			out[key] = value

			continue
		}

		digest, err := e.conceal(state, &name, value)
		if err != nil {
			return nil, err
		}

		digests = append(digests, digest)
	}

	if len(digests) > 0 {
		for i := 0; i < e.decoys; i++ {
			decoy, err := e.decoy()
			if err != nil {
				return nil, err
			}

			digests = append(digests, decoy)
		}

		slices.Sort(digests)

		sd := make([]interface{}, len(digests))
		for i, d := range digests {
			sd[i] = d
		}

		out[SDKey] = sd
	}

	return out, nil
}

func (e *Encoder) encodeArray(state *encodeState, arr []interface{}, node Node, depth int) ([]interface{}, error) {
	if depth > e.maxDepth {
		return nil, NewError(KindMaxDepthExceeded, "claim tree is deeper than %d", e.maxDepth)
	}

	out := make([]interface{}, 0, len(arr))

	for i, elem := range arr {
		value, conceal, err := e.encodeChild(state, elem, node.element(i), depth)
		if err != nil {
			return nil, err
		}

		if !conceal {
			out = append(out, value)

			continue
		}

		digest, err := e.conceal(state, nil, value)
		if err != nil {
			return nil, err
		}

		out = append(out, map[string]interface{}{ArrayElementDigestKey: digest})
	}

	return out, nil
}

// encodeChild encodes the children of value and reports whether value itself must be concealed.
func (e *Encoder) encodeChild(state *encodeState, value interface{}, s Structure,
	depth int) (interface{}, bool, error) {
	var (
		node    Node
		conceal bool
	)

	switch st := s.(type) {
	case Leaf:
		conceal = bool(st)
	case Node:
		node = st
	case Recursive:
		node = Node(st)
		conceal = true
	}

	encoded, err := e.encodeValue(state, value, node, depth+1)
	if err != nil {
		return nil, false, err
	}

	return encoded, conceal, nil
}

func (e *Encoder) conceal(state *encodeState, name *string, value interface{}) (string, error) {
	salt, err := e.saltFnc()
	if err != nil {
		return "", err
	}

	d, err := createWithMarshaller(e.marshal, salt, name, value)
	if err != nil {
		return "", err
	}

	state.disclosures = append(state.disclosures, d)

	return e.hasher.Digest(d.WireForm()), nil
}

func (e *Encoder) decoy() (string, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return "", err
	}

	filler, err := GenerateSalt()
	if err != nil {
		return "", err
	}

	d, err := CreateWithSalt(salt, nil, filler)
	if err != nil {
		return "", err
	}

	return e.hasher.Digest(d.WireForm()), nil
}
