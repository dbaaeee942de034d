// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package docstore

import (
	"errors"
	"fmt"
)

// Code classifies a store error.
type Code string

const (
	// CodeFailedPrecondition means the query needs a composite index
	// that is not declared.
	CodeFailedPrecondition Code = "failed-precondition"
	// CodeUnavailable means the backend could not be reached. One-shot
	// operations may be retried.
	CodeUnavailable Code = "unavailable"
	// CodeNotFound means the addressed document does not exist.
	CodeNotFound Code = "not-found"
	// CodeInvalidArgument means the request itself is malformed.
	CodeInvalidArgument Code = "invalid-argument"
)

// Error is the structured error returned by Store operations. Use
// errors.As or IsCode to inspect it:
//
//	if docstore.IsCode(err, docstore.CodeFailedPrecondition) { ... }
type Error struct {
	Code    Code
	Message string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("docstore: %s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("docstore: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsCode reports whether err is, or wraps, an *Error with the given code.
func IsCode(err error, code Code) bool {
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Code == code
	}
	return false
}

// Errorf builds an *Error with a formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Unavailable wraps a backend failure as CodeUnavailable.
func Unavailable(message string, err error) *Error {
	return &Error{Code: CodeUnavailable, Message: message, Err: err}
}
