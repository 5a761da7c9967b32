package service

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrorKind classifies failures the caller is expected to handle
type ErrorKind int

const (
	KindBadRequest ErrorKind = iota + 1
	KindNotFound
	KindMethodNotAllowed
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindBadRequest:
		return "bad request"
	case KindNotFound:
		return "not found"
	case KindMethodNotAllowed:
		return "method not allowed"
	case KindInternal:
		return "internal error"
	default:
		return "unknown"
	}
}

// StatusCode maps the kind to its HTTP status
func (k ErrorKind) StatusCode() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Error is the typed result of a rejected request
type Error struct {
	Kind    ErrorKind
	Message string
	// Fields holds parameter -> failed rule for KindBadRequest
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k+"="+e.Fields[k])
		}
		sort.Strings(keys)
		msg += " (" + strings.Join(keys, ", ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// BadRequest reports invalid or missing parameters
func BadRequest(fields map[string]string) *Error {
	return &Error{Kind: KindBadRequest, Message: "invalid parameters", Fields: fields}
}

// NotFound reports an empty result
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// MethodNotAllowed names the unsupported method
func MethodNotAllowed(method string) *Error {
	return &Error{Kind: KindMethodNotAllowed, Message: fmt.Sprintf("unsupported method %s", method)}
}

// Internal reports a write the store did not confirm
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf extracts the kind of a service error; untyped errors are internal
func KindOf(err error) ErrorKind {
	var serr *Error
	if errors.As(err, &serr) {
		return serr.Kind
	}
	return KindInternal
}
