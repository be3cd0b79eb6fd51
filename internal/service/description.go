package service

import (
	"fmt"
	"mime"
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// maxLoggedBody caps how much of a body ends up in a description.
const maxLoggedBody = 2048

var logSanitizer = bluemonday.StrictPolicy()

func (r *Request) urlDescription(svc *Service) string {
	if svc == nil {
		svc = r.Service
	}
	if svc == nil {
		return "<no service>"
	}
	u, err := ResolveURL(svc, r.PathParameters, r)
	if err != nil {
		return svc.Template()
	}
	return u.String()
}

// ShortDescription returns "METHOD url".
func (r *Request) ShortDescription(svc *Service) string {
	return fmt.Sprintf("%s %s", r.method(), r.urlDescription(svc))
}

// Description renders the request for verbose logs.
func (r *Request) Description(svc *Service) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)", r.ShortDescription(svc), r.Type.Kind)
	writeHeaders(&b, headerFromMap(r.Headers))
	if len(r.PathParameters) > 0 {
		fmt.Fprintf(&b, "\n  path parameters: %v", r.PathParameters)
	}
	if len(r.URLParameters) > 0 {
		fmt.Fprintf(&b, "\n  url parameters: %v", r.URLParameters)
	}
	body, err := r.bodyValue()
	if err != nil {
		body = fmt.Sprintf("<unreadable: %v>", err)
	}
	switch body := body.(type) {
	case nil:
	case []byte:
		fmt.Fprintf(&b, "\n  body: %s", printable(body, r.Headers["Content-Type"]))
	case string:
		fmt.Fprintf(&b, "\n  body: %s", printable([]byte(body), r.Headers["Content-Type"]))
	default:
		fmt.Fprintf(&b, "\n  body: %+v", body)
	}
	if n := len(r.MultipartBodyParts); n > 0 {
		fmt.Fprintf(&b, "\n  multipart parts: %d", n)
	}
	return b.String()
}

// ShortDescription returns "STATUS url".
func (r *Response[S, E]) ShortDescription() string {
	target := "<unknown>"
	if r.Raw != nil && r.Raw.Request != nil && r.Raw.Request.URL != nil {
		target = r.Raw.Request.URL.String()
	} else if r.Request != nil {
		target = r.Request.urlDescription(nil)
	}
	return fmt.Sprintf("%d %s", r.StatusCode, target)
}

// Description renders the response for verbose logs. HTML bodies are
// stripped of markup.
func (r *Response[S, E]) Description() string {
	var b strings.Builder
	b.WriteString(r.ShortDescription())
	contentType := ""
	if r.Raw != nil {
		writeHeaders(&b, r.Raw.Header)
		contentType = r.Raw.Header.Get("Content-Type")
	}
	if r.Location != "" {
		fmt.Fprintf(&b, "\n  file: %s", r.Location)
	} else if len(r.Data) > 0 {
		fmt.Fprintf(&b, "\n  body: %s", printable(r.Data, contentType))
	}
	if r.Result != nil {
		if r.Result.Success {
			b.WriteString("\n  result: success")
		} else {
			fmt.Fprintf(&b, "\n  result: failure (%v)", r.Result.Err)
		}
	}
	return b.String()
}

func headerFromMap(m map[string]string) http.Header {
	h := make(http.Header, len(m))
	for k, v := range m {
		h.Set(k, v)
	}
	return h
}

func writeHeaders(b *strings.Builder, h http.Header) {
	if len(h) == 0 {
		return
	}
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteString("\n  headers:")
	for _, k := range keys {
		v := strings.Join(h[k], ", ")
		if k == "Authorization" {
			v = "<redacted>"
		}
		fmt.Fprintf(b, "\n    %s: %s", k, v)
	}
}

func printable(data []byte, contentType string) string {
	if !utf8.Valid(data) {
		return fmt.Sprintf("<%d bytes of binary data>", len(data))
	}
	s := string(data)
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && mediaType == "text/html" {
		s = logSanitizer.Sanitize(s)
	}
	if len(s) > maxLoggedBody {
		s = s[:maxLoggedBody] + "..."
	}
	return s
}
