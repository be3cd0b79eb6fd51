package service

import (
	"errors"
	"net/http"
	"os"
)

// Result is the decoded outcome of a call. Exactly one of Value (Success) or
// Err (failure) is meaningful; ErrorValue is set when an error payload was
// decoded.
type Result[S, E any] struct {
	Success    bool
	Value      S
	ErrorValue *E
	Err        *Error
}

// Response is the typed outcome of one ServiceCall. Result is nil until the
// manager has decoded it, which happens exactly once before the completion
// callback runs.
type Response[S, E any] struct {
	StatusCode int
	Data       []byte
	Request    *Request
	Raw        *http.Response
	// Location is the downloaded file, for download requests.
	Location string
	Result   *Result[S, E]

	decoder Decoder[S, E]
}

// NewResponse builds an undecoded response. The manager creates responses;
// this is exported for decoders and tests.
func NewResponse[S, E any](status int, data []byte, req *Request, raw *http.Response, dec Decoder[S, E]) *Response[S, E] {
	return &Response[S, E]{StatusCode: status, Data: data, Request: req, Raw: raw, decoder: dec}
}

// Value returns the success value and true on success.
func (r *Response[S, E]) Value() (S, bool) {
	if r.Result == nil || !r.Result.Success {
		var zero S
		return zero, false
	}
	return r.Result.Value, true
}

// Err returns the failure, or nil on success or before decoding.
func (r *Response[S, E]) Err() error {
	if r.Result == nil || r.Result.Success || r.Result.Err == nil {
		return nil
	}
	return r.Result.Err
}

func (r *Response[S, E]) body() Body {
	b := Body{Data: r.Data, Location: r.Location, StatusCode: r.StatusCode}
	if r.Raw != nil {
		b.Header = r.Raw.Header
	}
	return b
}

func (r *Response[S, E]) status() int { return r.StatusCode }

var errNoDecoder = errors.New("no decoder configured")

func (r *Response[S, E]) decode() {
	if r.decoder == nil {
		r.Result = &Result[S, E]{Err: errDecoding(errNoDecoder)}
		return
	}
	v, err := r.decoder.DecodeSuccess(r.body())
	if err != nil {
		r.Result = &Result[S, E]{Err: errDecoding(err)}
		return
	}
	r.Result = &Result[S, E]{Success: true, Value: v}
}

// decodeError records err as the failure. Only KindUnderlying failures carry
// a server payload worth decoding into E.
func (r *Response[S, E]) decodeError(err error) {
	e := asError(err)
	if e.Kind != KindUnderlying {
		r.Result = &Result[S, E]{Err: e}
		return
	}
	if r.decoder == nil {
		r.Result = &Result[S, E]{Err: errDecoding(errNoDecoder)}
		return
	}
	v, derr := r.decoder.DecodeFailure(r.body())
	if derr != nil {
		r.Result = &Result[S, E]{Err: errDecoding(derr)}
		return
	}
	r.Result = &Result[S, E]{ErrorValue: &v, Err: e}
}

func (r *Response[S, E]) failure() *Error {
	if r.Result == nil || r.Result.Success {
		return nil
	}
	return r.Result.Err
}

// Body is the raw material handed to a Decoder.
type Body struct {
	Data       []byte
	Location   string
	Header     http.Header
	StatusCode int
}

// Bytes returns the in-memory data, falling back to reading the downloaded
// file.
func (b Body) Bytes() ([]byte, error) {
	if len(b.Data) > 0 || b.Location == "" {
		return b.Data, nil
	}
	return os.ReadFile(b.Location)
}
