package service

import (
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/dockerhttp/internal/codec"
)

// BodyEncoder serializes a request body. It may add headers, but must not
// override ones already present.
type BodyEncoder interface {
	EncodeBody(body any, header http.Header) ([]byte, error)
}

// RawEncoder passes []byte, string and io.Reader bodies through unchanged.
type RawEncoder struct{}

func (RawEncoder) EncodeBody(body any, _ http.Header) ([]byte, error) {
	switch b := body.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	case io.Reader:
		return io.ReadAll(b)
	default:
		return nil, fmt.Errorf("raw body must be []byte, string or io.Reader, got %T", body)
	}
}

// CodecEncoder serializes the body with Codec and sets Content-Type to the
// codec's content type when absent.
type CodecEncoder struct {
	Codec codec.Codec
}

func (e CodecEncoder) EncodeBody(body any, header http.Header) ([]byte, error) {
	data, err := e.Codec.Marshal(body)
	if err != nil {
		return nil, err
	}
	if header.Get("Content-Type") == "" {
		header.Set("Content-Type", e.Codec.ContentType())
	}
	return data, nil
}

// ParameterDestination selects where URL parameters are written.
type ParameterDestination int

const (
	// InQueryString always appends parameters to the URL.
	InQueryString ParameterDestination = iota
	// MethodDependent uses the query string for GET, HEAD and DELETE and a
	// form-encoded body otherwise.
	MethodDependent
	// InHTTPBody always writes a form-encoded body.
	InHTTPBody
)

// ArrayEncoding selects how slice values are keyed.
type ArrayEncoding int

const (
	// ArrayBrackets writes key[]=a&key[]=b.
	ArrayBrackets ArrayEncoding = iota
	// ArrayNoBrackets writes key=a&key=b.
	ArrayNoBrackets
)

// BoolEncoding selects how booleans are written.
type BoolEncoding int

const (
	// BoolNumeric writes 1 and 0.
	BoolNumeric BoolEncoding = iota
	// BoolLiteral writes true and false.
	BoolLiteral
)

// URLEncoding is the URL parameter encoding policy. The zero value writes to
// the query string with bracketed arrays and numeric booleans.
type URLEncoding struct {
	Destination ParameterDestination
	Arrays      ArrayEncoding
	Bools       BoolEncoding
}

func (e URLEncoding) inURL(m Method) bool {
	switch e.Destination {
	case InQueryString:
		return true
	case InHTTPBody:
		return false
	default:
		return m.encodesParametersInURL()
	}
}

// Query encodes params as a form string with keys sorted. Nested maps use
// key[sub] notation.
func (e URLEncoding) Query(params map[string]any) (string, error) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pairs []string
	for _, k := range keys {
		var err error
		pairs, err = e.appendComponent(pairs, k, reflect.ValueOf(params[k]))
		if err != nil {
			return "", err
		}
	}
	return strings.Join(pairs, "&"), nil
}

func (e URLEncoding) appendComponent(pairs []string, key string, v reflect.Value) ([]string, error) {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return append(pairs, escapeQuery(key)+"="), nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return append(pairs, escapeQuery(key)+"="), nil
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("parameter %q: map keys must be strings, got %s", key, v.Type().Key())
		}
		subKeys := make([]string, 0, v.Len())
		for _, mk := range v.MapKeys() {
			subKeys = append(subKeys, mk.String())
		}
		sort.Strings(subKeys)
		for _, sk := range subKeys {
			var err error
			pairs, err = e.appendComponent(pairs, key+"["+sk+"]", v.MapIndex(reflect.ValueOf(sk).Convert(v.Type().Key())))
			if err != nil {
				return nil, err
			}
		}
		return pairs, nil
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			return append(pairs, escapeQuery(key)+"="+escapeQuery(string(v.Bytes()))), nil
		}
		arrayKey := key
		if e.Arrays == ArrayBrackets {
			arrayKey = key + "[]"
		}
		for i := 0; i < v.Len(); i++ {
			var err error
			pairs, err = e.appendComponent(pairs, arrayKey, v.Index(i))
			if err != nil {
				return nil, err
			}
		}
		return pairs, nil
	}

	s, err := e.scalar(key, v)
	if err != nil {
		return nil, err
	}
	return append(pairs, escapeQuery(key)+"="+escapeQuery(s)), nil
}

func (e URLEncoding) scalar(key string, v reflect.Value) (string, error) {
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return s.String(), nil
	}
	switch v.Kind() {
	case reflect.Bool:
		if e.Bools == BoolLiteral {
			return strconv.FormatBool(v.Bool()), nil
		}
		if v.Bool() {
			return "1", nil
		}
		return "0", nil
	case reflect.String:
		return v.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("parameter %q: unsupported value of type %s", key, v.Type())
	}
}

// escapeQuery percent-encodes everything except RFC 3986 unreserved
// characters plus '/' and '?', which are legal inside a query component.
func escapeQuery(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isQueryAllowed(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isQueryAllowed(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '.', '_', '~', '/', '?':
		return true
	}
	return false
}
