package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"status", &StatusError{StatusCode: 503}, 503},
		{"wrapped status", fmt.Errorf("get: %w", &StatusError{StatusCode: 404}), 404},
		{"cancelled", context.Canceled, CodeCancelled},
		{"deadline", context.DeadlineExceeded, CodeTimedOut},
		{"os deadline", os.ErrDeadlineExceeded, CodeTimedOut},
		{"dns", &net.DNSError{Err: "no such host", Name: "nowhere.invalid", IsNotFound: true}, CodeCannotFindHost},
		{"refused", &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}, CodeCannotConnect},
		{"dial", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("boom")}, CodeCannotConnect},
		{"unknown", errors.New("???"), CodeUnknown},
		{"sentinel", ErrUnknown, CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	svc := NewService("https://api.test", "/x")
	tests := []struct {
		err  *Error
		want string
	}{
		{errInvalidURL(svc, nil), `invalid service URL (base "https://api.test", path "/x")`},
		{errInvalidURL(nil, nil), "invalid service URL: no service"},
		{errUnderlying(&StatusError{StatusCode: 404}, nil, 404), "request failed with status 404: response status code was unacceptable: 404"},
		{errMissingResponse(ErrUnknown, CodeUnknown), "missing response (code -1): unknown transport error"},
		{errPathParameterNotFound(nil, "id"), `path parameter "id" not found in request parameters`},
		{errMultipartNotSupported(MethodGet), "method GET does not support multipart"},
		{errFixtureNotFound("a.json", nil), `demo fixture "a.json" does not exist`},
		{&Error{Kind: KindEmptyMultipartBody}, "multipart body is empty"},
		{Generic(nil), "service error"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}

func TestErrorUnwrap(t *testing.T) {
	err := errMissingResponse(context.Canceled, CodeCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, IsKind(fmt.Errorf("outer: %w", err), KindMissingResponse))
	assert.False(t, IsKind(err, KindUnderlying))
	assert.False(t, IsKind(errors.New("plain"), KindGeneric))
}

func TestAsError(t *testing.T) {
	orig := errEncoding(errors.New("bad"))
	assert.Same(t, orig, asError(fmt.Errorf("wrap: %w", orig)))

	foreign := errors.New("foreign")
	got := asError(foreign)
	assert.Equal(t, KindGeneric, got.Kind)
	assert.ErrorIs(t, got, foreign)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "missing_response", KindMissingResponse.String())
	assert.Equal(t, "path_parameter_not_found", KindPathParameterNotFound.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
}
