package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/dockerhttp/internal/codec"
)

type failingBody struct{}

func (failingBody) MarshalJSON() ([]byte, error) { return nil, errors.New("refused") }

func buildBody(t *testing.T, req *http.Request) string {
	t.Helper()
	if req.Body == nil {
		return ""
	}
	data, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	return string(data)
}

func TestBuildTransportRequestHeaders(t *testing.T) {
	req := NewRequest()
	req.Service = NewService("https://api.test", "/resources")
	req.Headers["Accept"] = "text/plain"
	req.Headers["x-trace"] = "abc"

	defaults := http.Header{}
	defaults.Set("Accept", "application/json")
	defaults.Set("User-Agent", "dockerhttp/1.0")

	httpReq, err := req.BuildTransportRequest(context.Background(), nil, defaults)
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, httpReq.Method)
	assert.Equal(t, "text/plain", httpReq.Header.Get("Accept"))
	assert.Equal(t, "dockerhttp/1.0", httpReq.Header.Get("User-Agent"))
	assert.Equal(t, "abc", httpReq.Header.Get("X-Trace"))
	assert.Equal(t, "application/json", defaults.Get("Accept"), "defaults must not be modified")
}

func TestBuildTransportRequestBodyEncoding(t *testing.T) {
	svc := NewService("https://api.test", "/resources")

	t.Run("json sets content type when absent", func(t *testing.T) {
		req := NewRequest()
		req.Method = MethodPost
		req.BodyEncoder = CodecEncoder{Codec: codec.JSON}
		req.Body = resource{ID: 1, Name: "one"}

		httpReq, err := req.BuildTransportRequest(context.Background(), svc, nil)
		require.NoError(t, err)
		assert.Equal(t, "application/json; charset=UTF-8", httpReq.Header.Get("Content-Type"))
		assert.JSONEq(t, `{"id":1,"name":"one"}`, buildBody(t, httpReq))
	})

	t.Run("json keeps explicit content type", func(t *testing.T) {
		req := NewJSONRequest()
		req.Method = MethodPost
		req.Body = resource{ID: 2}

		httpReq, err := req.BuildTransportRequest(context.Background(), svc, nil)
		require.NoError(t, err)
		assert.Equal(t, "application/json", httpReq.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", httpReq.Header.Get("Accept"))
	})

	t.Run("plist", func(t *testing.T) {
		req := NewPListRequest()
		req.Method = MethodPut
		req.Body = map[string]any{"name": "p"}

		httpReq, err := req.BuildTransportRequest(context.Background(), svc, nil)
		require.NoError(t, err)
		assert.Equal(t, "application/x-plist", httpReq.Header.Get("Content-Type"))
		assert.Contains(t, buildBody(t, httpReq), "<key>name</key>")
	})

	t.Run("raw passthrough", func(t *testing.T) {
		req := NewRequest()
		req.Method = MethodPost
		req.Body = []byte("raw-bytes")

		httpReq, err := req.BuildTransportRequest(context.Background(), svc, nil)
		require.NoError(t, err)
		assert.Equal(t, "raw-bytes", buildBody(t, httpReq))
		assert.Empty(t, httpReq.Header.Get("Content-Type"))
	})

	t.Run("raw rejects structs", func(t *testing.T) {
		req := NewRequest()
		req.Body = resource{}

		_, err := req.BuildTransportRequest(context.Background(), svc, nil)
		assert.True(t, IsKind(err, KindEncoding))
	})

	t.Run("unencodable json", func(t *testing.T) {
		req := NewJSONRequest()
		req.Body = failingBody{}

		_, err := req.BuildTransportRequest(context.Background(), svc, nil)
		assert.True(t, IsKind(err, KindEncoding))
	})

	t.Run("no body", func(t *testing.T) {
		req := NewJSONRequest()

		httpReq, err := req.BuildTransportRequest(context.Background(), svc, nil)
		require.NoError(t, err)
		assert.Nil(t, httpReq.Body)
	})
}

func TestBuildTransportRequestQuery(t *testing.T) {
	svc := NewService("https://api.test", "/resources")

	tests := []struct {
		name     string
		encoding URLEncoding
		params   map[string]any
		want     string
	}{
		{"sorted scalars", URLEncoding{}, map[string]any{"b": 2, "a": "x y"}, "a=x%20y&b=2"},
		{"bracket arrays", URLEncoding{}, map[string]any{"ids": []int{1, 2}}, "ids%5B%5D=1&ids%5B%5D=2"},
		{"plain arrays", URLEncoding{Arrays: ArrayNoBrackets}, map[string]any{"ids": []string{"a", "b"}}, "ids=a&ids=b"},
		{"numeric bools", URLEncoding{}, map[string]any{"on": true, "off": false}, "off=0&on=1"},
		{"literal bools", URLEncoding{Bools: BoolLiteral}, map[string]any{"on": true}, "on=true"},
		{"nested maps", URLEncoding{}, map[string]any{"f": map[string]any{"z": 1, "a": "b"}}, "f%5Ba%5D=b&f%5Bz%5D=1"},
		{"reserved characters", URLEncoding{}, map[string]any{"q": "a&b=c/d?e"}, "q=a%26b%3Dc/d?e"},
		{"nil value", URLEncoding{}, map[string]any{"k": nil}, "k="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := NewRequest()
			req.URLEncoding = tt.encoding
			req.URLParameters = tt.params

			httpReq, err := req.BuildTransportRequest(context.Background(), svc, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, httpReq.URL.RawQuery)
		})
	}
}

func TestBuildTransportRequestParameterDestination(t *testing.T) {
	svc := NewService("https://api.test", "/resources?existing=1")

	t.Run("query string appends to existing query", func(t *testing.T) {
		req := NewRequest()
		req.Method = MethodPost
		req.URLParameters = map[string]any{"page": 2}

		httpReq, err := req.BuildTransportRequest(context.Background(), svc, nil)
		require.NoError(t, err)
		assert.Equal(t, "existing=1&page=2", httpReq.URL.RawQuery)
	})

	t.Run("method dependent POST uses form body", func(t *testing.T) {
		req := NewRequest()
		req.Method = MethodPost
		req.URLEncoding = URLEncoding{Destination: MethodDependent}
		req.URLParameters = map[string]any{"page": 2}

		httpReq, err := req.BuildTransportRequest(context.Background(), svc, nil)
		require.NoError(t, err)
		assert.Equal(t, "existing=1", httpReq.URL.RawQuery)
		assert.Equal(t, "page=2", buildBody(t, httpReq))
		assert.Equal(t, "application/x-www-form-urlencoded; charset=utf-8", httpReq.Header.Get("Content-Type"))
	})

	t.Run("method dependent GET uses query", func(t *testing.T) {
		req := NewRequest()
		req.URLEncoding = URLEncoding{Destination: MethodDependent}
		req.URLParameters = map[string]any{"page": 2}

		httpReq, err := req.BuildTransportRequest(context.Background(), svc, nil)
		require.NoError(t, err)
		assert.Equal(t, "existing=1&page=2", httpReq.URL.RawQuery)
	})
}

func TestBuildTransportRequestParameterEncodingError(t *testing.T) {
	req := NewRequest()
	req.Service = NewService("https://api.test", "/resources")
	req.URLParameters = map[string]any{"fn": func() {}}

	_, err := req.BuildTransportRequest(context.Background(), nil, nil)
	assert.True(t, IsKind(err, KindParameterEncoding))

	req.URLParameters = map[string]any{"m": map[int]string{1: "a"}}
	_, err = req.BuildTransportRequest(context.Background(), nil, nil)
	assert.True(t, IsKind(err, KindParameterEncoding))
}

func TestBuildTransportRequestDoesNotMutateRequest(t *testing.T) {
	req := NewJSONRequest()
	req.Method = MethodPost
	req.Service = NewService("https://api.test", "/resources/:id")
	req.PathParameters["id"] = 5
	req.Body = resource{ID: 5}

	before := map[string]string{}
	for k, v := range req.Headers {
		before[k] = v
	}

	_, err := req.BuildTransportRequest(context.Background(), nil, http.Header{"X-Default": {"1"}})
	require.NoError(t, err)
	assert.Equal(t, before, req.Headers)
	assert.Nil(t, req.currentTask())
}

func TestReaderBodyIsReusable(t *testing.T) {
	req := NewRequest()
	req.Method = MethodPost
	req.Service = NewService("https://api.test", "/upload")
	req.Headers["Content-Type"] = "text/plain"
	req.Body = strings.NewReader("streamed payload")

	assert.Contains(t, req.Description(nil), "streamed payload")

	for i := 0; i < 2; i++ {
		httpReq, err := req.BuildTransportRequest(context.Background(), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "streamed payload", buildBody(t, httpReq), "build %d", i+1)
	}

	req.Body = strings.NewReader("replacement")
	httpReq, err := req.BuildTransportRequest(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "replacement", buildBody(t, httpReq))
}

func TestJSONBodyRoundTrip(t *testing.T) {
	type payload struct {
		Name    string          `json:"name"`
		Blob    []byte          `json:"blob"`
		Created codec.Timestamp `json:"created"`
	}
	in := payload{
		Name:    "round trip",
		Blob:    []byte{1, 2, 3, 250},
		Created: codec.NewTimestamp(time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)),
	}

	req := NewJSONRequest()
	req.Method = MethodPost
	req.Body = in
	httpReq, err := req.BuildTransportRequest(context.Background(), NewService("https://api.test", "/"), nil)
	require.NoError(t, err)

	body := buildBody(t, httpReq)
	assert.Contains(t, body, `"created":1700000000`)

	out, err := JSONDecoder[payload, apiError]().DecodeSuccess(Body{Data: []byte(body)})
	require.NoError(t, err)
	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.Blob, out.Blob)
	assert.True(t, in.Created.Equal(out.Created.Time))
}

func TestRequestTaskForwarding(t *testing.T) {
	req := NewRequest()
	assert.NotPanics(t, func() {
		req.Cancel()
		req.Suspend()
		req.Resume()
	})

	task := &stubTask{hold: true, outcome: Outcome{Err: errors.New("x")}}
	completed := false
	task.OnComplete(func(Outcome) { completed = true })
	req.attachTask(task)

	req.Cancel()
	assert.True(t, completed)
}

func TestDurationRangePick(t *testing.T) {
	r := DurationRange{Min: time.Second, Max: 3 * time.Second}
	assert.Equal(t, 2*time.Second, r.Pick(&seqRandom{values: []float64{0.5}}))
	assert.Equal(t, time.Second, r.Pick(&seqRandom{values: []float64{0}}))

	fixed := DurationRange{Min: 2 * time.Second, Max: 2 * time.Second}
	assert.Equal(t, 2*time.Second, fixed.Pick(&seqRandom{values: []float64{0.9}}))
}
