/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"fmt"
	"strconv"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// DecoderOpt configures a Decoder.
type DecoderOpt func(d *Decoder)

// WithDecoderMaxDepth overrides DefaultMaxDepth.
func WithDecoderMaxDepth(depth int) DecoderOpt {
	return func(d *Decoder) {
		d.maxDepth = depth
	}
}

// Decoder reconstructs the disclosed part of an encoded claim tree.
// A Decoder holds no state between calls and is safe for concurrent use.
type Decoder struct {
	hasher   *Hasher
	maxDepth int
}

// NewDecoder creates a Decoder matching Disclosures by digests computed with hasher.
func NewDecoder(hasher *Hasher, opts ...DecoderOpt) *Decoder {
	d := &Decoder{
		hasher:   hasher,
		maxDepth: DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// DisclosedClaim is a Disclosure that was reached while decoding.
type DisclosedClaim struct {
	Digest     string
	Path       string
	Disclosure *Disclosure
	// Parent is the digest of the nearest enclosing Disclosure, empty for claims of the payload itself.
	Parent string
	// Value is the decoded value, with nested Disclosures of a recursive claim resolved.
	Value interface{}
}

// DecodeResult is the outcome of DecodeWithReport.
type DecodeResult struct {
	// Claims is the reconstructed tree without "_sd", placeholders and the top-level "_sd_alg".
	Claims map[string]interface{}
	// Disclosed lists reached Disclosures in traversal order.
	Disclosed []*DisclosedClaim
}

type decodeState struct {
	byDigest map[string]*Disclosure
	used     map[string]struct{}
	result   []*DisclosedClaim
	parent   string
}

// Decode reconstructs the maximal tree consistent with the supplied Disclosures.
func (d *Decoder) Decode(encoded map[string]interface{}, disclosures []*Disclosure) (map[string]interface{}, error) {
	res, err := d.DecodeWithReport(encoded, disclosures)
	if err != nil {
		return nil, err
	}

	return res.Claims, nil
}

// DecodeWithReport decodes like Decode and also reports which Disclosures were used and where.
//
// Disclosures are matched by digest; when the same Disclosure is supplied twice the first one is
// kept. When a digest occurs more than once in the tree the first occurrence in traversal order
// claims the Disclosure and later occurrences are treated as decoys. Traversal visits a mapping's
// "_sd" digests first, then its plain members in key order, array elements in index order.
func (d *Decoder) DecodeWithReport(encoded map[string]interface{}, disclosures []*Disclosure) (*DecodeResult,
	error) {
	state := &decodeState{
		byDigest: make(map[string]*Disclosure, len(disclosures)),
		used:     make(map[string]struct{}),
	}

	for _, disclosure := range disclosures {
		digest := d.hasher.Digest(disclosure.WireForm())

		if _, ok := state.byDigest[digest]; !ok {
			state.byDigest[digest] = disclosure
		}
	}

	root := encoded
	if _, ok := encoded[SDAlgorithmKey]; ok {
		root = make(map[string]interface{}, len(encoded))

		for k, v := range encoded {
			if k != SDAlgorithmKey {
				root[k] = v
			}
		}
	}

	claims, err := d.decodeObject(state, root, "", 0)
	if err != nil {
		return nil, err
	}

	return &DecodeResult{Claims: claims, Disclosed: state.result}, nil
}

func (d *Decoder) decodeValue(state *decodeState, value interface{}, path string, depth int) (interface{}, error) {
	switch v := value.(type) {
	case map[string]interface{}:
		return d.decodeObject(state, v, path, depth)
	case []interface{}:
		return d.decodeArray(state, v, path, depth)
	default:
		return v, nil
	}
}

func (d *Decoder) decodeObject(state *decodeState, obj map[string]interface{}, path string,
	depth int) (map[string]interface{}, error) {
	if depth > d.maxDepth {
		return nil, NewError(KindMaxDepthExceeded, "claim tree is deeper than %d", d.maxDepth)
	}

	out := make(map[string]interface{}, len(obj))

	digests, err := sdDigests(obj)
	if err != nil {
		return nil, err
	}

	for _, digest := range digests {
		disclosure, ok := state.claim(digest)
		if !ok {
			continue
		}

		name, hasName := disclosure.ClaimName()
		if !hasName {
			return nil, NewError(KindMalformedDisclosure, "array element disclosure referenced from %q of %q",
				SDKey, pathOrRoot(path))
		}

		if _, exists := obj[name]; exists {
			return nil, NewError(KindMalformedDisclosure, "claim %q is both disclosed and in clear text",
				JoinPath(path, name))
		}

		if _, exists := out[name]; exists {
			return nil, NewError(KindMalformedDisclosure, "claim %q is disclosed twice", JoinPath(path, name))
		}

		value, err := d.decodeDisclosed(state, digest, JoinPath(path, name), disclosure, depth)
		if err != nil {
			return nil, err
		}

		out[name] = value
	}

	keys := maps.Keys(obj)
	slices.Sort(keys)

	for _, key := range keys {
		switch key {
		case SDKey:
			continue
		case ArrayElementDigestKey, SDAlgorithmKey:
			return nil, NewError(KindInvalidEncodedTree, "reserved member %q in %q", key, pathOrRoot(path))
		}

		value, err := d.decodeValue(state, obj[key], JoinPath(path, key), depth+1)
		if err != nil {
			return nil, err
		}

		out[key] = value
	}

	return out, nil
}

func (d *Decoder) decodeArray(state *decodeState, arr []interface{}, path string, depth int) ([]interface{}, error) {
	if depth > d.maxDepth {
		return nil, NewError(KindMaxDepthExceeded, "claim tree is deeper than %d", d.maxDepth)
	}

	out := make([]interface{}, 0, len(arr))

	for i, elem := range arr {
		elemPath := JoinPath(path, strconv.Itoa(i))

		digest, isPlaceholder, err := placeholderDigest(elem)
		if err != nil {
			return nil, err
		}

		if !isPlaceholder {
			value, err := d.decodeValue(state, elem, elemPath, depth+1)
			if err != nil {
				return nil, err
			}

			out = append(out, value)

			continue
		}

		disclosure, ok := state.claim(digest)
		if !ok {
			continue
		}

		if !disclosure.IsArrayElement() {
			return nil, NewError(KindMalformedDisclosure, "property disclosure referenced from array element %q",
				elemPath)
		}

		value, err := d.decodeDisclosed(state, digest, elemPath, disclosure, depth)
		if err != nil {
			return nil, err
		}

		out = append(out, value)
	}

	return out, nil
}

func (d *Decoder) decodeDisclosed(state *decodeState, digest, path string, disclosure *Disclosure,
	depth int) (interface{}, error) {
	disclosed := state.record(digest, path, disclosure)

	parent := state.parent
	state.parent = digest

	value, err := d.decodeValue(state, disclosure.Value(), path, depth+1)

	state.parent = parent

	if err != nil {
		return nil, err
	}

	disclosed.Value = value

	return value, nil
}

// claim returns the Disclosure for digest unless the digest was already used.
func (s *decodeState) claim(digest string) (*Disclosure, bool) {
	if _, used := s.used[digest]; used {
		return nil, false
	}

	disclosure, ok := s.byDigest[digest]

	return disclosure, ok
}

func (s *decodeState) record(digest, path string, disclosure *Disclosure) *DisclosedClaim {
	disclosed := &DisclosedClaim{Digest: digest, Path: path, Disclosure: disclosure, Parent: s.parent}

	s.used[digest] = struct{}{}
	s.result = append(s.result, disclosed)

	return disclosed
}

func sdDigests(obj map[string]interface{}) ([]string, error) {
	raw, ok := obj[SDKey]
	if !ok {
		return nil, nil
	}

	arr, ok := raw.([]interface{})
	if !ok {
		return nil, NewError(KindInvalidEncodedTree, "%q must be an array, got %T", SDKey, raw)
	}

	digests := make([]string, 0, len(arr))

	for _, v := range arr {
		digest, ok := v.(string)
		if !ok || digest == "" {
			return nil, NewError(KindInvalidEncodedTree, "%q entries must be non-empty strings", SDKey)
		}

		digests = append(digests, digest)
	}

	return digests, nil
}

// placeholderDigest reports whether elem is an array element placeholder {"...": digest}.
func placeholderDigest(elem interface{}) (string, bool, error) {
	obj, ok := elem.(map[string]interface{})
	if !ok {
		return "", false, nil
	}

	raw, ok := obj[ArrayElementDigestKey]
	if !ok {
		return "", false, nil
	}

	if len(obj) != 1 {
		return "", false, NewError(KindInvalidEncodedTree, "array element placeholder must have a single member")
	}

	digest, ok := raw.(string)
	if !ok || digest == "" {
		return "", false, NewError(KindInvalidEncodedTree, "array element digest must be a non-empty string")
	}

	return digest, true, nil
}

// CollectDigests returns every digest referenced by "_sd" arrays and array element placeholders in
// value, including digests inside nested containers.
func CollectDigests(value interface{}, maxDepth int) ([]string, error) {
	var digests []string

	err := collectDigests(value, maxDepth, 0, &digests)
	if err != nil {
		return nil, err
	}

	return digests, nil
}

func collectDigests(value interface{}, maxDepth, depth int, digests *[]string) error {
	if depth > maxDepth {
		return NewError(KindMaxDepthExceeded, "claim tree is deeper than %d", maxDepth)
	}

	switch v := value.(type) {
	case map[string]interface{}:
		sd, err := sdDigests(v)
		if err != nil {
			return err
		}

		*digests = append(*digests, sd...)

		for key, child := range v {
			if key == SDKey {
				continue
			}

			if err := collectDigests(child, maxDepth, depth+1, digests); err != nil {
				return err
			}
		}
	case []interface{}:
		for _, elem := range v {
			digest, isPlaceholder, err := placeholderDigest(elem)
			if err != nil {
				return err
			}

			if isPlaceholder {
				*digests = append(*digests, digest)

				continue
			}

			if err := collectDigests(elem, maxDepth, depth+1, digests); err != nil {
				return err
			}
		}
	}

	return nil
}

func pathOrRoot(path string) string {
	if path == "" {
		return "$"
	}

	return path
}

// Reconcile decodes encoded with all supplied Disclosures and requires every one of them to be used.
//
// A Disclosure whose digest occurs neither in encoded nor in the value of another supplied Disclosure
// fails with TamperDetected. A Disclosure whose digest occurs but cannot be reached from the payload
// (its parent is not supplied, or the digest was already claimed) fails with UnknownDisclosure.
func (d *Decoder) Reconcile(encoded map[string]interface{}, disclosures []*Disclosure) (*DecodeResult, error) {
	referenced := make(map[string]struct{})

	payloadDigests, err := CollectDigests(encoded, d.maxDepth)
	if err != nil {
		return nil, err
	}

	for _, digest := range payloadDigests {
		referenced[digest] = struct{}{}
	}

	for _, disclosure := range disclosures {
		nested, err := CollectDigests(disclosure.Value(), d.maxDepth)
		if err != nil {
			return nil, err
		}

		for _, digest := range nested {
			referenced[digest] = struct{}{}
		}
	}

	res, err := d.DecodeWithReport(encoded, disclosures)
	if err != nil {
		return nil, err
	}

	used := make(map[string]struct{}, len(res.Disclosed))
	for _, dc := range res.Disclosed {
		used[dc.Digest] = struct{}{}
	}

	for i, disclosure := range disclosures {
		digest := d.hasher.Digest(disclosure.WireForm())

		if _, ok := referenced[digest]; !ok {
			return nil, NewError(KindTamperDetected, "digest of disclosure[%d] is not part of the SD-JWT", i)
		}

		if _, ok := used[digest]; !ok {
			return nil, NewError(KindUnknownDisclosure, "disclosure[%d] is not reachable from the SD-JWT payload", i)
		}
	}

	return res, nil
}

// ReconcileWireForms is Reconcile for Disclosures still in wire form.
//
// Digests are computed over the raw segments before any of them is parsed, so a segment whose digest
// is not referenced by the payload or by another referenced Disclosure fails with TamperDetected even
// when it is not valid base64url or JSON. Only referenced segments are parsed.
func (d *Decoder) ReconcileWireForms(encoded map[string]interface{}, wireForms []string) (*DecodeResult, error) {
	payloadDigests, err := CollectDigests(encoded, d.maxDepth)
	if err != nil {
		return nil, err
	}

	referenced := make(map[string]struct{}, len(payloadDigests))
	for _, digest := range payloadDigests {
		referenced[digest] = struct{}{}
	}

	digests := make([]string, len(wireForms))
	for i, w := range wireForms {
		digests[i] = d.hasher.Digest(w)
	}

	disclosures := make([]*Disclosure, len(wireForms))

	// Parsing a referenced Disclosure may reference further segments (recursive disclosure).
	for changed := true; changed; {
		changed = false

		for i, w := range wireForms {
			if disclosures[i] != nil {
				continue
			}

			if _, ok := referenced[digests[i]]; !ok {
				continue
			}

			disclosure, err := ParseWireForm(w)
			if err != nil {
				return nil, fmt.Errorf("disclosure[%d]: %w", i, err)
			}

			nested, err := CollectDigests(disclosure.Value(), d.maxDepth)
			if err != nil {
				return nil, err
			}

			for _, digest := range nested {
				referenced[digest] = struct{}{}
			}

			disclosures[i] = disclosure
			changed = true
		}
	}

	for i, disclosure := range disclosures {
		if disclosure == nil {
			return nil, NewError(KindTamperDetected, "digest of disclosure[%d] is not part of the SD-JWT", i)
		}
	}

	return d.Reconcile(encoded, disclosures)
}
