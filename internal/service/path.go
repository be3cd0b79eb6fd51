package service

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Service is a base URL and a path template. Path segments of the form
// "/:name" are placeholders filled from a request's path parameters.
// Transport, when set, overrides the manager's default transport.
type Service struct {
	BaseURL   string
	Path      string
	Transport Transport
}

// NewService returns a service for baseURL+path.
func NewService(baseURL, path string) *Service {
	return &Service{BaseURL: baseURL, Path: path}
}

// Template returns the unresolved URL template.
func (s *Service) Template() string {
	return s.BaseURL + s.Path
}

// ResolveURL fills every "/:name" placeholder of the service template from
// params and validates the result. req is only used to annotate errors.
func ResolveURL(svc *Service, params map[string]any, req *Request) (*url.URL, error) {
	if svc == nil {
		return nil, errInvalidURL(nil, errors.New("service is nil"))
	}

	raw, err := substitutePath(svc.Template(), params, req)
	if err != nil {
		return nil, err
	}

	u, err := parseAbsoluteURL(raw)
	if err != nil {
		return nil, errInvalidURL(svc, err)
	}
	return u, nil
}

// substitutePath replaces placeholders left to right. A token runs from the
// ':' up to the next '/' or the end of the string. Scanning resumes after the
// inserted value, so values that themselves contain "/:" are not re-expanded.
func substitutePath(raw string, params map[string]any, req *Request) (string, error) {
	from := 0
	for {
		i := strings.Index(raw[from:], "/:")
		if i < 0 {
			return raw, nil
		}
		colon := from + i + 1

		end := strings.IndexByte(raw[colon:], '/')
		if end < 0 {
			end = len(raw)
		} else {
			end += colon
		}

		name := raw[colon+1 : end]
		value, ok := params[name]
		if !ok {
			return "", errPathParameterNotFound(req, name)
		}

		replacement := fmt.Sprint(value)
		raw = raw[:colon] + replacement + raw[end:]
		from = colon + len(replacement)
	}
}

func parseAbsoluteURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, errors.New("empty URL")
	}
	if strings.ContainsAny(raw, " \t\r\n") {
		return nil, fmt.Errorf("URL %q contains whitespace", raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("URL %q is not absolute", raw)
	}
	return u, nil
}
