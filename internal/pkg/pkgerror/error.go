package pkgerror

import (
	"errors"
	"fmt"
	"net/http"
)

// Store sentinels. Stores wrap them; the ledger translates them into *Error.
var (
	ErrNotFound  = errors.New("resource not found")
	ErrDuplicate = errors.New("resource already exists")
	// ErrSerialization means the store aborted a unit of work to keep it
	// serializable. The whole unit may be retried.
	ErrSerialization = errors.New("serialization failure")
)

// Type tells who is at fault: the server, a ledger rule or the request.
type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

func (t Type) String() string {
	switch t {
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code is the stable kind of an error. It decides the HTTP status.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeUnauthorized
	CodeForbidden
	// CodeUnexpected is a store or downstream failure the caller is told
	// about only in generic terms.
	CodeUnexpected
)

type codeInfo struct {
	name   string
	status int
}

//nolint:gochecknoglobals // read-only lookup table
var codes = map[Code]codeInfo{
	CodeInternal:      {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat: {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:  {"ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
	CodeNotFound:      {"ERROR_CODE_NOT_FOUND", http.StatusNotFound},
	CodeConflict:      {"ERROR_CODE_CONFLICT", http.StatusConflict},
	CodeUnauthorized:  {"ERROR_CODE_UNAUTHORIZED", http.StatusUnauthorized},
	CodeForbidden:     {"ERROR_CODE_FORBIDDEN", http.StatusForbidden},
	CodeUnexpected:    {"ERROR_CODE_UNEXPECTED", http.StatusBadRequest},
}

func (c Code) String() string {
	if info, ok := codes[c]; ok {
		return info.name
	}
	return codes[CodeInternal].name
}

// Error is returned by every ledger operation that fails. msg is shown to the
// caller verbatim; err is the cause and is only logged.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return e.msg
}

// String is the verbose form used in server logs.
func (e *Error) String() string {
	return fmt.Sprintf("type=%s code=%s msg=%q cause=%v", e.errType, e.code, e.msg, e.err)
}

func (e *Error) Msg() string   { return e.msg }
func (e *Error) Type() Type    { return e.errType }
func (e *Error) Code() Code    { return e.code }
func (e *Error) Unwrap() error { return e.err }

// StatusCode maps the code to an HTTP status. Unknown codes are 500.
func (e *Error) StatusCode() int {
	if info, ok := codes[e.code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

func newError(err error, msg string, et Type, code Code) error {
	return &Error{err: err, msg: msg, errType: et, code: code}
}

// NewServer reports a fault in the service itself, such as a missing
// dependency.
func NewServer(err error) error {
	return newError(err, "Internal server error", TypeServer, CodeInternal)
}

// NewUnexpected hides an unclassified failure behind a generic bad-request
// message. err is kept for the server log only.
func NewUnexpected(err error) error {
	return newError(err, "The request could not be processed", TypeServer, CodeUnexpected)
}

// NewInvalidInput reports a request that decoded but broke a field rule.
// err may carry per-field details through a Fields() map[string]string method.
func NewInvalidInput(err error) error {
	return newError(err, "validation error", TypeValidation, CodeInvalidInput)
}

func NewInvalidFormat() error {
	return newError(nil, "invalid request body", TypeValidation, CodeInvalidFormat)
}

func NewUnauthorized(msg string) error {
	return newError(nil, msg, TypeValidation, CodeUnauthorized)
}

func NewNotFound(msg string) error {
	return newError(nil, msg, TypeBusiness, CodeNotFound)
}

func NewForbidden(msg string) error {
	return newError(nil, msg, TypeBusiness, CodeForbidden)
}

func NewConflict(msg string) error {
	return newError(nil, msg, TypeBusiness, CodeConflict)
}

// Normalize passes an *Error through and wraps anything else with
// NewUnexpected.
func Normalize(err error) error {
	if err == nil {
		return nil
	}
	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}
	return NewUnexpected(err)
}

// IsRetryable reports whether err is a transient store failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSerialization)
}
