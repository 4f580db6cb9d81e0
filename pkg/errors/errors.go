package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Codes carried in the response envelope's error object.
const (
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInactiveAccount    = "ACCOUNT_INACTIVE"
	CodeNotFound           = "NOT_FOUND"
	CodeForbidden          = "FORBIDDEN"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeConflict           = "CONFLICT"
	CodeValidation         = "VALIDATION_ERROR"
	CodeInternal           = "INTERNAL_ERROR"
	CodeCacheMiss          = "CACHE_MISS"
	CodeInsufficientStock  = "INSUFFICIENT_STOCK"
	CodeQuantityExceeded   = "PRESCRIPTION_QUANTITY_EXCEEDED"
	CodeSlotUnavailable    = "SLOT_UNAVAILABLE"
)

// Error is a coded failure that knows which HTTP status it maps to.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.Err == nil:
		return e.Message
	default:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is compares codes, so errors.Is(err, ErrNotFound) holds for clones and wraps of ErrNotFound.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

var (
	ErrInvalidCredentials = New(CodeInvalidCredentials, http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New(CodeInactiveAccount, http.StatusForbidden, "account is inactive")
	ErrNotFound           = New(CodeNotFound, http.StatusNotFound, "resource not found")
	ErrForbidden          = New(CodeForbidden, http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New(CodeUnauthorized, http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New(CodeConflict, http.StatusConflict, "conflict")
	ErrValidation         = New(CodeValidation, http.StatusBadRequest, "validation failed")
	ErrInternal           = New(CodeInternal, http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New(CodeCacheMiss, http.StatusNotFound, "cache miss")

	ErrInsufficientStock = New(CodeInsufficientStock, http.StatusConflict, "insufficient medication stock")
	ErrQuantityExceeded  = New(CodeQuantityExceeded, http.StatusUnprocessableEntity, "quantity exceeds remaining prescribed amount")
	ErrSlotUnavailable   = New(CodeSlotUnavailable, http.StatusConflict, "selected time slot is not available")
)

// FromError returns err as an *Error, wrapping anything uncoded as ErrInternal.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var coded *Error
	if errors.As(err, &coded) {
		return coded
	}
	return Wrap(err, CodeInternal, ErrInternal.Status, ErrInternal.Message)
}

// Clone copies err, replacing the message when one is given.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	out := &Error{Code: err.Code, Status: err.Status, Message: err.Message, Err: err.Err}
	if message != "" {
		out.Message = message
	}
	return out
}
