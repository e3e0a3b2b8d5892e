// internal/pkg/apperr/apperr.go
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a business rule violation so callers can tell
// "fix your input" from "not found" from "the system failed"
type Kind string

const (
	KindInvalidAmount         Kind = "invalid_amount"
	KindValidation            Kind = "validation"
	KindNotFound              Kind = "not_found"
	KindNotAuthorized         Kind = "not_authorized"
	KindTotalMismatch         Kind = "total_mismatch"
	KindPaymentAmountMismatch Kind = "payment_amount_mismatch"
	KindInvalidPaymentStatus  Kind = "invalid_payment_status"
	KindPaymentRequired       Kind = "payment_required"
	KindAlreadyFinalized      Kind = "already_finalized"
	KindConflict              Kind = "conflict"
	KindInternal              Kind = "internal"
)

// Error is a structured business error
type Error struct {
	Kind    Kind                   `json:"kind"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// New creates a new error of the given kind
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by code so that copies carrying details still match
// the package level sentinel they were derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetails returns a copy of e carrying the given details
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	cp := *e
	cp.Details = make(map[string]interface{}, len(e.Details)+len(details))
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	for k, v := range details {
		cp.Details[k] = v
	}
	return &cp
}

// WithMessage returns a copy of e with a more specific message
func (e *Error) WithMessage(format string, args ...interface{}) *Error {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// Wrap returns a copy of e wrapping cause
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

// KindOf reports the kind of err. Errors that are not *Error are internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// As extracts the *Error from err
func As(err error) (*Error, bool) {
	var appErr *Error
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// Validation builds a validation error listing the offending fields
func Validation(message string, fields ...string) *Error {
	e := New(KindValidation, "validation_failed", message)
	if len(fields) > 0 {
		e.Details = map[string]interface{}{"missing": fields}
	}
	return e
}
