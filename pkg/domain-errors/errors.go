// Package domainerrors defines the coded error vocabulary shared by services,
// stores, and the HTTP layer. Codes map registry rejections one-to-one onto
// transport-level error responses.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies a class of failure. Codes are stable strings because they
// appear verbatim in API responses and logs.
type Code string

const (
	// Ambient codes shared across the service surface.
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeNotFound     Code = "not_found"
	CodeInternal     Code = "internal_error"
	CodeTimeout      Code = "timeout"

	// Registration protocol rejections. Every state-changing operation fails
	// with exactly one of these and leaves no partial effect.
	CodeNameTooShort        Code = "name_too_short"
	CodeNameUnavailable     Code = "name_unavailable"
	CodeNotOwner            Code = "not_owner"
	CodePaymentInsufficient Code = "payment_insufficient"
	CodeOrderingConflict    Code = "ordering_conflict"
	CodeNotYetEligible      Code = "not_yet_eligible"
	CodeInvalidRecipient    Code = "invalid_recipient"
	CodeTransferFailed      Code = "transfer_failed"
)

// Error is a coded error with an optional wrapped cause.
type Error struct {
	code  Code
	msg   string
	cause error
}

// New builds a coded error.
func New(code Code, msg string) error {
	return &Error{code: code, msg: msg}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(cause error, code Code, msg string) error {
	return &Error{code: code, msg: msg, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.msg)
}

func (e *Error) Unwrap() error { return e.cause }

// Code returns the error's code.
func (e *Error) Code() Code { return e.code }

// Message returns the human-readable description without the code prefix.
func (e *Error) Message() string { return e.msg }

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	for err != nil {
		var coded *Error
		if errors.As(err, &coded) {
			if coded.code == code {
				return true
			}
			err = coded.cause
			continue
		}
		return false
	}
	return false
}

// CodeOf extracts the outermost code, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.code
	}
	return CodeInternal
}

// MessageOf extracts the outermost message, or the raw error text for
// uncoded errors.
func MessageOf(err error) string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.msg
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
