package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/dockerhttp/internal/shared/id"
)

func newObservedTracer(service string) (*Tracer, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return New(service, zap.New(core)), logs
}

func TestStartSpan(t *testing.T) {
	tracer, _ := newObservedTracer("example")
	defer tracer.Close()

	root, ctx := tracer.StartSpan(context.Background(), "get-resources")
	assert.True(t, id.IsValid(string(root.TraceID)))
	assert.True(t, id.IsValid(string(root.SpanID)))
	assert.Empty(t, root.ParentID)
	assert.Equal(t, root.TraceID, GetTraceID(ctx))
	assert.Equal(t, root.SpanID, GetSpanID(ctx))

	child, _ := tracer.StartSpan(ctx, "decode")
	assert.Equal(t, root.TraceID, child.TraceID)
	assert.Equal(t, root.SpanID, child.ParentID)
	assert.NotEqual(t, root.SpanID, child.SpanID)
}

func TestHeaderNamesAreCanonical(t *testing.T) {
	assert.Equal(t, http.CanonicalHeaderKey(TraceHeader), TraceHeader)
	assert.Equal(t, http.CanonicalHeaderKey(SpanHeader), SpanHeader)
}

func TestInjectAndExtract(t *testing.T) {
	ctx := ContextWithTrace(context.Background(), "trace_1", "span_1")

	h := http.Header{}
	InjectTraceContext(ctx, h)
	traceID, spanID := ExtractTraceContext(h)
	assert.Equal(t, TraceID("trace_1"), traceID)
	assert.Equal(t, SpanID("span_1"), spanID)

	h = http.Header{}
	h.Set(TraceHeader, "explicit")
	InjectTraceContext(ctx, h)
	assert.Equal(t, "explicit", h.Get(TraceHeader))
	assert.Equal(t, []string{"explicit"}, h.Values(TraceHeader))

	h = http.Header{TraceHeader: {"literal"}}
	InjectTraceContext(ctx, h)
	assert.Equal(t, "literal", h.Get(TraceHeader))

	h = http.Header{}
	InjectTraceContext(context.Background(), h)
	assert.Empty(t, h)
}

func TestSubmitLogsSpans(t *testing.T) {
	tracer, logs := newObservedTracer("example")

	span, _ := tracer.StartSpan(context.Background(), "upload")
	span.SetTag("op", "upload")
	span.SetStatus(http.StatusOK)
	span.Finish()
	tracer.Submit(span)

	failed, _ := tracer.StartSpan(context.Background(), "download")
	failed.SetError(errors.New("boom"))
	failed.Finish()
	tracer.Submit(failed)

	tracer.Close()
	tracer.Submit(span) // dropped after Close

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "span completed", entries[0].Message)
	assert.Equal(t, "upload", entries[0].ContextMap()["op"])
	assert.Equal(t, int64(http.StatusOK), entries[0].ContextMap()["status"])
	assert.Equal(t, "span completed with error", entries[1].Message)
	assert.Equal(t, int64(http.StatusInternalServerError), entries[1].ContextMap()["status"])
}

func TestHTTPMiddleware(t *testing.T) {
	tracer, logs := newObservedTracer("mockserver")

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(HTTPMiddleware(tracer))

	var seen TraceID
	router.GET("/resources/:id", func(c *gin.Context) {
		seen = GetTraceID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/resources/1", nil)
	req.Header.Set(TraceHeader, "trace_remote")
	req.Header.Set(SpanHeader, "span_remote")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, TraceID("trace_remote"), seen)
	assert.Equal(t, "trace_remote", w.Header().Get(TraceHeader))
	assert.NotEqual(t, "span_remote", w.Header().Get(SpanHeader))

	tracer.Close()
	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET /resources/:id", fields["operation"])
	assert.Equal(t, "span_remote", fields["parent_id"])
	assert.Equal(t, int64(http.StatusNoContent), fields["status"])
}

func TestFormatTrace(t *testing.T) {
	assert.Equal(t, "[trace:a span:b]", FormatTrace("a", "b"))
}
