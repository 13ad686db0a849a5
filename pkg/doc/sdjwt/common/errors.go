/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"errors"
	"fmt"
)

// ErrorKind classifies SD-JWT processing failures.
type ErrorKind int

// Error kinds.
const (
	KindUnknown ErrorKind = iota
	KindMalformedDisclosure
	KindReservedClaimName
	KindUnsupportedHashAlgorithm
	KindWeakAlgorithmRejected
	KindMalformedPresentation
	KindSignatureInvalid
	KindStandardClaimInvalid
	KindTamperDetected
	KindUnknownDisclosure
	KindMissingKeyBinding
	KindKeyBindingInvalid
	KindKeyBindingNonceMismatch
	KindKeyBindingStale
	KindIssuerKeyResolutionFailure
	KindMaxDepthExceeded
	KindInvalidEncodedTree
	KindUnsupportedSigningAlgorithm
	KindInvalidClaims
)

var kindNames = map[ErrorKind]string{
	KindUnknown:                     "Unknown",
	KindMalformedDisclosure:         "MalformedDisclosure",
	KindReservedClaimName:           "ReservedClaimName",
	KindUnsupportedHashAlgorithm:    "UnsupportedHashAlgorithm",
	KindWeakAlgorithmRejected:       "WeakAlgorithmRejected",
	KindMalformedPresentation:       "MalformedPresentation",
	KindSignatureInvalid:            "SignatureInvalid",
	KindStandardClaimInvalid:        "StandardClaimInvalid",
	KindTamperDetected:              "TamperDetected",
	KindUnknownDisclosure:           "UnknownDisclosure",
	KindMissingKeyBinding:           "MissingKeyBinding",
	KindKeyBindingInvalid:           "KeyBindingInvalid",
	KindKeyBindingNonceMismatch:     "KeyBindingNonceMismatch",
	KindKeyBindingStale:             "KeyBindingStale",
	KindIssuerKeyResolutionFailure:  "IssuerKeyResolutionFailure",
	KindMaxDepthExceeded:            "MaxDepthExceeded",
	KindInvalidEncodedTree:          "InvalidEncodedTree",
	KindUnsupportedSigningAlgorithm: "UnsupportedSigningAlgorithm",
	KindInvalidClaims:               "InvalidClaims",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Sentinel errors, one per kind. Match them with errors.Is.
var (
	ErrMalformedDisclosure         = &Error{Kind: KindMalformedDisclosure}
	ErrReservedClaimName           = &Error{Kind: KindReservedClaimName}
	ErrUnsupportedHashAlgorithm    = &Error{Kind: KindUnsupportedHashAlgorithm}
	ErrWeakAlgorithmRejected       = &Error{Kind: KindWeakAlgorithmRejected}
	ErrMalformedPresentation       = &Error{Kind: KindMalformedPresentation}
	ErrSignatureInvalid            = &Error{Kind: KindSignatureInvalid}
	ErrStandardClaimInvalid        = &Error{Kind: KindStandardClaimInvalid}
	ErrTamperDetected              = &Error{Kind: KindTamperDetected}
	ErrUnknownDisclosure           = &Error{Kind: KindUnknownDisclosure}
	ErrMissingKeyBinding           = &Error{Kind: KindMissingKeyBinding}
	ErrKeyBindingInvalid           = &Error{Kind: KindKeyBindingInvalid}
	ErrKeyBindingNonceMismatch     = &Error{Kind: KindKeyBindingNonceMismatch}
	ErrKeyBindingStale             = &Error{Kind: KindKeyBindingStale}
	ErrIssuerKeyResolutionFailure  = &Error{Kind: KindIssuerKeyResolutionFailure}
	ErrMaxDepthExceeded            = &Error{Kind: KindMaxDepthExceeded}
	ErrInvalidEncodedTree          = &Error{Kind: KindInvalidEncodedTree}
	ErrUnsupportedSigningAlgorithm = &Error{Kind: KindUnsupportedSigningAlgorithm}
	ErrInvalidClaims               = &Error{Kind: KindInvalidClaims}
)

// Error is an SD-JWT processing failure of a given kind.
type Error struct {
	Kind ErrorKind
	Err  error
}

// NewError creates an error of the given kind with a formatted cause.
func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// WrapError attaches kind to err. A nil err stays nil.
func WrapError(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}

	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the kind of the outermost *Error in the err chain, KindUnknown otherwise.
func KindOf(err error) ErrorKind {
	var sdErr *Error
	if errors.As(err, &sdErr) {
		return sdErr.Kind
	}

	return KindUnknown
}
