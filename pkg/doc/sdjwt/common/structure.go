/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"fmt"
	"strconv"
)

// AllElements is the Node key applying a structure to every element of an array.
const AllElements = "*"

// Structure marks which parts of a claim tree are selectively disclosable.
// It is one of Leaf, Node or Recursive.
type Structure interface {
	isStructure()
}

// Leaf marks a claim (or array element) as selectively disclosable when true.
// The whole value is concealed in a single Disclosure.
type Leaf bool

// Node recurses into an object or array; the claim itself stays in clear text.
// For arrays keys are decimal indices or AllElements.
type Node map[string]Structure

// Recursive encodes the children of a claim as Node does and then conceals the claim itself.
// The resulting Disclosure value carries its own "_sd" digests.
type Recursive Node

func (Leaf) isStructure()      {}
func (Node) isStructure()      {}
func (Recursive) isStructure() {}

func (n Node) property(name string) Structure {
	if n == nil {
		return nil
	}

	return n[name]
}

func (n Node) element(i int) Structure {
	if n == nil {
		return nil
	}

	if s, ok := n[strconv.Itoa(i)]; ok {
		return s
	}

	return n[AllElements]
}

// ParseStructure converts a generic JSON structure description into a Node.
//
// Values are booleans (Leaf) or objects (Node). An object carrying "_sd": true is Recursive:
// its other members describe the children and the claim itself is concealed as well.
func ParseStructure(raw map[string]interface{}) (Node, error) {
	return parseNode(raw, "")
}

func parseNode(raw map[string]interface{}, path string) (Node, error) {
	node := make(Node, len(raw))

	for name, v := range raw {
		if name == SDKey {
			continue
		}

		if name == SDAlgorithmKey || name == ArrayElementDigestKey {
			return nil, NewError(KindReservedClaimName, "claim name %q is reserved", name)
		}

		childPath := JoinPath(path, name)

		switch value := v.(type) {
		case bool:
			node[name] = Leaf(value)
		case map[string]interface{}:
			child, err := parseNode(value, childPath)
			if err != nil {
				return nil, err
			}

			if recursive, _ := value[SDKey].(bool); recursive {
				node[name] = Recursive(child)
			} else {
				node[name] = child
			}
		default:
			return nil, fmt.Errorf("disclosure structure %q: unsupported value type %T", childPath, v)
		}
	}

	return node, nil
}

// JoinPath appends a segment to a dotted claim path.
func JoinPath(parent, segment string) string {
	if parent == "" {
		return segment
	}

	return parent + "." + segment
}
