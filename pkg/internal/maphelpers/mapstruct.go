/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package maphelpers

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/go-jose/go-jose/v3/jwt"
	"github.com/mitchellh/mapstructure"
)

var (
	numericDateType    = reflect.TypeOf(jwt.NumericDate(0))
	numericDatePtrType = reflect.TypeOf((*jwt.NumericDate)(nil))
)

// JSONNumberToJwtNumericDate hook for mapstructure library to decode JSON numbers to jwt.NumericDate.
func JSONNumberToJwtNumericDate() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if t != numericDateType && t != numericDatePtrType {
			return data, nil
		}

		var seconds int64

		switch v := data.(type) {
		case json.Number:
			parsed, err := v.Float64()
			if err != nil {
				return nil, fmt.Errorf("parse numeric date %q: %w", v.String(), err)
			}

			seconds = int64(parsed)
		case float64:
			seconds = int64(v)
		case int64:
			seconds = v
		case int:
			seconds = int64(v)
		default:
			return data, nil
		}

		date := jwt.NewNumericDate(time.Unix(seconds, 0))

		if t == numericDateType {
			return *date, nil
		}

		return date, nil
	}
}

// DecodeStruct decodes a JSON object tree into the output struct using json tags.
func DecodeStruct(input interface{}, output interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: JSONNumberToJwtNumericDate(),
		Result:     output,
		TagName:    "json",
		Squash:     true,
	})
	if err != nil {
		return fmt.Errorf("mapstruct decode: %w", err)
	}

	return decoder.Decode(input)
}
