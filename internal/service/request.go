package service

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"reflect"
	"sync"
	"time"

	"github.com/GriffinCanCode/dockerhttp/internal/codec"
)

// TypeKind is the execution strategy of a request.
type TypeKind int

const (
	TypeData TypeKind = iota
	TypeUploadFile
	TypeUploadMultipart
	TypeDownload
)

func (k TypeKind) String() string {
	switch k {
	case TypeData:
		return "data"
	case TypeUploadFile:
		return "upload(file)"
	case TypeUploadMultipart:
		return "upload(multipart)"
	case TypeDownload:
		return "download"
	default:
		return "unknown"
	}
}

// RequestType selects how a request is executed. The zero value is a plain
// data request. Only the field matching Kind is meaningful.
type RequestType struct {
	Kind        TypeKind
	FilePath    string
	Destination Destination
}

// DataType is a plain request whose response is held in memory.
func DataType() RequestType { return RequestType{Kind: TypeData} }

// UploadFileType streams the file at path as the request body.
func UploadFileType(path string) RequestType {
	return RequestType{Kind: TypeUploadFile, FilePath: path}
}

// UploadMultipartType sends the request's MultipartBodyParts as
// multipart/form-data.
func UploadMultipartType() RequestType { return RequestType{Kind: TypeUploadMultipart} }

// DownloadType writes the response body to the file chosen by dest.
func DownloadType(dest Destination) RequestType {
	return RequestType{Kind: TypeDownload, Destination: dest}
}

// StatusRange is a closed range of HTTP status codes.
type StatusRange struct {
	Min, Max int
}

// Contains reports whether Min <= code <= Max.
func (r StatusRange) Contains(code int) bool {
	return r.Min <= code && code <= r.Max
}

// ClientErrors is the default error range, 400-499.
var ClientErrors = StatusRange{Min: 400, Max: 499}

// DurationRange is a closed range of durations.
type DurationRange struct {
	Min, Max time.Duration
}

// Pick draws a duration uniformly from the range. A degenerate or inverted
// range yields Min.
func (r DurationRange) Pick(rnd Random) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + time.Duration(rnd.Float64()*float64(r.Max-r.Min))
}

// FixtureStore resolves and loads demo fixtures.
type FixtureStore interface {
	// Resolve returns the location of the named fixture, or an error
	// wrapping fs.ErrNotExist.
	Resolve(name string) (string, error)
	ReadFixture(location string) ([]byte, error)
}

// Request describes one HTTP call. It is configured before dispatch and must
// not be modified while the call is in flight.
type Request struct {
	Service *Service
	Method  Method
	Type    RequestType

	Headers        map[string]string
	URLEncoding    URLEncoding
	PathParameters map[string]any
	URLParameters  map[string]any

	// Body is serialized by BodyEncoder; a nil encoder means RawEncoder. An
	// io.Reader body is read once, on first use, and its bytes are reused.
	Body        any
	BodyEncoder BodyEncoder

	MultipartBodyParts []MultipartBodyPart

	// When UseDifferentResponseForErrors is set, a response whose status is in
	// HTTPErrorStatusCodeRange is decoded as an error even without a
	// transport error.
	UseDifferentResponseForErrors bool
	HTTPErrorStatusCodeRange      StatusRange

	UseDemoMode           bool
	DemoSuccessFileName   string
	DemoFailureFileName   string
	DemoFixtures          FixtureStore
	DemoWaitingTimeRange  DurationRange
	DemoSuccessStatusCode int
	DemoFailureStatusCode int
	// DemoFailureChance is the probability in [0,1] that a demo call fails.
	DemoFailureChance float64

	mu             sync.Mutex
	task           Task
	sentInDemoMode bool
	bufferedFrom   io.Reader
	buffered       []byte
}

// NewRequest returns a GET data request with raw body passthrough.
func NewRequest() *Request {
	return &Request{
		Method:                   MethodGet,
		Headers:                  map[string]string{},
		PathParameters:           map[string]any{},
		URLParameters:            map[string]any{},
		BodyEncoder:              RawEncoder{},
		HTTPErrorStatusCodeRange: ClientErrors,
		DemoSuccessStatusCode:    http.StatusOK,
		DemoFailureStatusCode:    http.StatusBadRequest,
	}
}

// NewJSONRequest returns a request that sends and accepts JSON.
func NewJSONRequest() *Request {
	r := NewRequest()
	r.BodyEncoder = CodecEncoder{Codec: codec.JSON}
	r.Headers["Content-Type"] = "application/json"
	r.Headers["Accept"] = "application/json"
	return r
}

// NewPListRequest returns a request whose body is an XML property list.
func NewPListRequest() *Request {
	r := NewRequest()
	r.BodyEncoder = CodecEncoder{Codec: codec.PList}
	return r
}

// NewYAMLRequest returns a request whose body is YAML.
func NewYAMLRequest() *Request {
	r := NewRequest()
	r.BodyEncoder = CodecEncoder{Codec: codec.YAML}
	return r
}

// NewTOMLRequest returns a request whose body is TOML.
func NewTOMLRequest() *Request {
	r := NewRequest()
	r.BodyEncoder = CodecEncoder{Codec: codec.TOML}
	return r
}

func (r *Request) method() Method {
	if r.Method == "" {
		return MethodGet
	}
	return r.Method
}

// BuildTransportRequest resolves the URL of svc (the request's own Service
// when nil), merges defaults with the request headers (request values win),
// encodes the body and then the URL parameters. Exported fields of the
// Request are not modified, so it can be built again.
func (r *Request) BuildTransportRequest(ctx context.Context, svc *Service, defaults http.Header) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if svc == nil {
		svc = r.Service
	}

	u, err := ResolveURL(svc, r.PathParameters, r)
	if err != nil {
		return nil, err
	}

	header := defaults.Clone()
	if header == nil {
		header = make(http.Header)
	}
	for k, v := range r.Headers {
		header.Set(k, v)
	}

	var body []byte
	if r.Body != nil {
		enc := r.BodyEncoder
		if enc == nil {
			enc = RawEncoder{}
		}
		value := r.Body
		if _, raw := enc.(RawEncoder); raw {
			if value, err = r.bodyValue(); err != nil {
				return nil, errEncoding(err)
			}
		}
		if body, err = enc.EncodeBody(value, header); err != nil {
			return nil, errEncoding(err)
		}
	}

	if len(r.URLParameters) > 0 {
		query, err := r.URLEncoding.Query(r.URLParameters)
		if err != nil {
			return nil, errParameterEncoding(err)
		}
		switch {
		case query == "":
		case r.URLEncoding.inURL(r.method()):
			if u.RawQuery != "" {
				u.RawQuery += "&" + query
			} else {
				u.RawQuery = query
			}
		default:
			if header.Get("Content-Type") == "" {
				header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")
			}
			body = []byte(query)
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, string(r.method()), u.String(), reader)
	if err != nil {
		return nil, errInvalidURL(svc, err)
	}
	req.Header = header
	return req, nil
}

// bodyValue returns Body, with an io.Reader replaced by its contents. The
// reader is drained the first time; assigning a new reader reads that one.
func (r *Request) bodyValue() (any, error) {
	rd, ok := r.Body.(io.Reader)
	if !ok {
		return r.Body, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Readers of non-comparable types cannot be recognised again.
	comparable := reflect.TypeOf(rd).Comparable()
	if comparable && r.bufferedFrom == rd {
		return r.buffered, nil
	}
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	if comparable {
		r.bufferedFrom, r.buffered = rd, data
	}
	return data, nil
}

func (r *Request) attachTask(t Task) {
	r.mu.Lock()
	r.task = t
	r.mu.Unlock()
}

func (r *Request) currentTask() Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.task
}

func (r *Request) markSentInDemoMode() {
	r.mu.Lock()
	r.sentInDemoMode = true
	r.mu.Unlock()
}

// SentInDemoMode reports whether the last dispatch was answered from demo
// fixtures.
func (r *Request) SentInDemoMode() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sentInDemoMode
}

// Suspend pauses the in-flight task, if any.
func (r *Request) Suspend() {
	if t := r.currentTask(); t != nil {
		t.Suspend()
	}
}

// Resume resumes the in-flight task, if any.
func (r *Request) Resume() {
	if t := r.currentTask(); t != nil {
		t.Resume()
	}
}

// Cancel cancels the in-flight task. It is a no-op before dispatch.
func (r *Request) Cancel() {
	if t := r.currentTask(); t != nil {
		t.Cancel()
	}
}
