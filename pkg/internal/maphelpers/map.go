/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package maphelpers contains helpers for JSON object trees decoded into maps.
package maphelpers

// CopyMap performs deep copy of map, nested maps and nested arrays.
// Scalar values are shared.
func CopyMap(m map[string]interface{}) map[string]interface{} {
	cm := make(map[string]interface{}, len(m))

	for k, v := range m {
		cm[k] = CopyValue(v)
	}

	return cm
}

// CopyValue deep-copies maps and arrays contained in v.
func CopyValue(v interface{}) interface{} {
	switch vv := v.(type) {
	case map[string]interface{}:
		return CopyMap(vv)
	case []interface{}:
		ca := make([]interface{}, len(vv))

		for i, e := range vv {
			ca[i] = CopyValue(e)
		}

		return ca
	default:
		return v
	}
}
