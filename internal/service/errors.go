package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"syscall"
)

// Kind tags the failure carried by an *Error.
type Kind int

const (
	KindGeneric Kind = iota
	KindInvalidURL
	KindEncoding
	KindParameterEncoding
	KindUnderlying
	KindMissingResponse
	KindNilSuccessFixture
	KindNilFailureFixture
	KindFixtureNotFound
	KindMultipartNotSupported
	KindEmptyMultipartBody
	KindPathParameterNotFound
	KindDecoding
)

var kindNames = [...]string{
	KindGeneric:               "generic",
	KindInvalidURL:            "invalid_url",
	KindEncoding:              "encoding",
	KindParameterEncoding:     "parameter_encoding",
	KindUnderlying:            "underlying",
	KindMissingResponse:       "missing_response",
	KindNilSuccessFixture:     "nil_success_fixture",
	KindNilFailureFixture:     "nil_failure_fixture",
	KindFixtureNotFound:       "fixture_not_found",
	KindMultipartNotSupported: "multipart_not_supported",
	KindEmptyMultipartBody:    "empty_multipart_body",
	KindPathParameterNotFound: "path_parameter_not_found",
	KindDecoding:              "decoding",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Raw error codes reported with KindMissingResponse.
const (
	CodeUnknown        = -1
	CodeCancelled      = -999
	CodeTimedOut       = -1001
	CodeCannotFindHost = -1003
	CodeCannotConnect  = -1004
)

// ErrUnknown stands in for a transport failure that carried no error value.
var ErrUnknown = errors.New("unknown transport error")

// ErrCallInProgress is returned when a ServiceCall is dispatched while a
// previous dispatch has not completed.
var ErrCallInProgress = errors.New("service call already in progress")

// Error is the single error type delivered in a Response. Only the fields
// relevant to Kind are set.
type Error struct {
	Kind  Kind
	Cause error

	Service    *Service       // KindInvalidURL
	Method     Method         // KindMultipartNotSupported
	Request    *Request       // KindPathParameterNotFound
	Param      string         // KindPathParameterNotFound
	Fixture    string         // KindFixtureNotFound
	Metadata   *http.Response // KindUnderlying
	StatusCode int            // KindUnderlying
	Code       int            // KindMissingResponse
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidURL:
		if e.Service == nil {
			return "invalid service URL: no service"
		}
		return fmt.Sprintf("invalid service URL (base %q, path %q)", e.Service.BaseURL, e.Service.Path)
	case KindEncoding:
		return withCause("failed to encode request body", e.Cause)
	case KindParameterEncoding:
		return withCause("failed to encode request parameters", e.Cause)
	case KindUnderlying:
		return withCause(fmt.Sprintf("request failed with status %d", e.StatusCode), e.Cause)
	case KindMissingResponse:
		return withCause(fmt.Sprintf("missing response (code %d)", e.Code), e.Cause)
	case KindNilSuccessFixture:
		return "demo success fixture is not set"
	case KindNilFailureFixture:
		return "demo failure fixture is not set"
	case KindFixtureNotFound:
		return fmt.Sprintf("demo fixture %q does not exist", e.Fixture)
	case KindMultipartNotSupported:
		return fmt.Sprintf("method %s does not support multipart", e.Method)
	case KindEmptyMultipartBody:
		return "multipart body is empty"
	case KindPathParameterNotFound:
		return fmt.Sprintf("path parameter %q not found in request parameters", e.Param)
	case KindDecoding:
		return withCause("failed to decode response", e.Cause)
	default:
		return withCause("service error", e.Cause)
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func withCause(msg string, cause error) string {
	if cause == nil {
		return msg
	}
	return msg + ": " + cause.Error()
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// Generic wraps cause, which may be nil, as a KindGeneric error.
func Generic(cause error) *Error {
	return &Error{Kind: KindGeneric, Cause: cause}
}

// asError returns err as an *Error, wrapping foreign errors as generic.
func asError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Generic(err)
}

func errInvalidURL(svc *Service, cause error) *Error {
	return &Error{Kind: KindInvalidURL, Service: svc, Cause: cause}
}

func errEncoding(cause error) *Error {
	return &Error{Kind: KindEncoding, Cause: cause}
}

func errParameterEncoding(cause error) *Error {
	return &Error{Kind: KindParameterEncoding, Cause: cause}
}

func errUnderlying(cause error, metadata *http.Response, status int) *Error {
	return &Error{Kind: KindUnderlying, Cause: cause, Metadata: metadata, StatusCode: status}
}

func errMissingResponse(cause error, code int) *Error {
	return &Error{Kind: KindMissingResponse, Cause: cause, Code: code}
}

func errFixtureNotFound(name string, cause error) *Error {
	return &Error{Kind: KindFixtureNotFound, Fixture: name, Cause: cause}
}

func errMultipartNotSupported(m Method) *Error {
	return &Error{Kind: KindMultipartNotSupported, Method: m}
}

func errPathParameterNotFound(req *Request, name string) *Error {
	return &Error{Kind: KindPathParameterNotFound, Request: req, Param: name}
}

func errDecoding(cause error) *Error {
	return &Error{Kind: KindDecoding, Cause: cause}
}

// StatusError reports a response whose status code failed validation
// (anything outside 200-299).
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("response status code was unacceptable: %d", e.StatusCode)
}

// ErrorCode maps a transport error to a raw numeric code: the HTTP status for
// a *StatusError, a negative code for connection-level failures.
func ErrorCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	if errors.Is(err, context.Canceled) {
		return CodeCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return CodeTimedOut
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CodeTimedOut
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return CodeCannotFindHost
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return CodeCannotConnect
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return CodeCannotConnect
	}
	return CodeUnknown
}
