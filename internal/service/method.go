package service

import "net/http"

// Method is an HTTP request method.
type Method string

const (
	MethodGet     Method = http.MethodGet
	MethodHead    Method = http.MethodHead
	MethodPost    Method = http.MethodPost
	MethodPut     Method = http.MethodPut
	MethodPatch   Method = http.MethodPatch
	MethodDelete  Method = http.MethodDelete
	MethodConnect Method = http.MethodConnect
	MethodOptions Method = http.MethodOptions
	MethodTrace   Method = http.MethodTrace
)

// SupportsMultipart reports whether the method carries a request body.
func (m Method) SupportsMultipart() bool {
	switch m {
	case MethodPost, MethodPut, MethodPatch, MethodConnect:
		return true
	default:
		return false
	}
}

// encodesParametersInURL reports whether method-dependent parameter encoding
// puts parameters in the query string for m.
func (m Method) encodesParametersInURL() bool {
	switch m {
	case MethodGet, MethodHead, MethodDelete:
		return true
	default:
		return false
	}
}

func (m Method) String() string {
	return string(m)
}
