package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/dockerhttp/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/dockerhttp/internal/service"
)

type taskKind int

const (
	kindData taskKind = iota
	kindUploadFile
	kindUploadData
	kindDownload
)

func (k taskKind) String() string {
	switch k {
	case kindUploadFile:
		return "upload-file"
	case kindUploadData:
		return "upload-data"
	case kindDownload:
		return "download"
	default:
		return "data"
	}
}

// Task is a lazily started transport operation. Nothing is sent until
// Resume; completion is reported exactly once.
type Task struct {
	client   *Client
	req      *http.Request
	kind     taskKind
	filePath string
	data     []byte
	dest     service.Destination

	mu         sync.Mutex
	onProgress service.ProgressFunc
	onComplete func(service.Outcome)
	started    bool
	cancelled  bool
	cancel     context.CancelFunc
	done       chan struct{}
	once       sync.Once
}

var _ service.Task = (*Task)(nil)

func (c *Client) newTask(req *http.Request, kind taskKind) *Task {
	return &Task{client: c, req: req, kind: kind, done: make(chan struct{})}
}

// OnProgress registers the progress handler. Call before Resume.
func (t *Task) OnProgress(fn service.ProgressFunc) {
	t.mu.Lock()
	t.onProgress = fn
	t.mu.Unlock()
}

// OnComplete registers the completion handler. Call before Resume.
func (t *Task) OnComplete(fn func(service.Outcome)) {
	t.mu.Lock()
	t.onComplete = fn
	t.mu.Unlock()
}

// Resume starts the task. Calling it again is a no-op.
func (t *Task) Resume() {
	t.mu.Lock()
	if t.started || t.cancelled {
		t.mu.Unlock()
		return
	}
	t.started = true
	ctx, cancel := context.WithCancel(t.req.Context())
	t.cancel = cancel
	t.mu.Unlock()

	go t.run(ctx)
}

// Suspend does nothing: an HTTP exchange cannot be paused, and a task that
// has not been resumed is not running yet.
func (t *Task) Suspend() {}

// Cancel aborts the task. A task that never started completes immediately
// with context.Canceled.
func (t *Task) Cancel() {
	t.mu.Lock()
	if t.cancelled {
		t.mu.Unlock()
		return
	}
	t.cancelled = true
	started, cancel := t.started, t.cancel
	t.mu.Unlock()

	if started {
		cancel()
		return
	}
	t.finish(service.Outcome{Request: t.req, Err: context.Canceled})
}

// Done is closed after the completion handler has returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

func (t *Task) finish(o service.Outcome) {
	t.once.Do(func() {
		t.mu.Lock()
		fn := t.onComplete
		t.mu.Unlock()
		if fn != nil {
			fn(o)
		}
		close(t.done)
	})
}

func (t *Task) progress(p service.Progress) {
	t.mu.Lock()
	fn := t.onProgress
	t.mu.Unlock()
	if fn != nil {
		fn(p)
	}
}

func (t *Task) run(ctx context.Context) {
	defer t.cancel()

	o := t.execute(ctx)
	o.Request = t.req
	if o.Err != nil {
		t.client.logger.Debug("transport task failed",
			zap.String("task", t.kind.String()),
			zap.String("method", t.req.Method),
			zap.String("url", t.req.URL.String()),
			zap.Error(o.Err),
		)
	}
	t.finish(o)
}

func (t *Task) execute(ctx context.Context) service.Outcome {
	body, size, closeBody, err := t.requestBody()
	if err != nil {
		return service.Outcome{Err: err}
	}
	defer closeBody()

	var o service.Outcome
	err = t.client.Breaker.Execute(func() error {
		r, err := t.client.request(ctx)
		if err != nil {
			return err
		}
		r.Header = t.req.Header.Clone()
		tracing.InjectTraceContext(ctx, r.Header)
		if body != nil {
			r.SetBody(newProgressReader(body, size, func(n, total int64) {
				t.progress(service.Progress{Completed: n, Total: total})
			}))
		}

		resp, err := r.Execute(t.req.Method, t.req.URL.String())
		if err != nil {
			return err
		}
		raw := resp.RawResponse
		if raw == nil {
			return errors.New("transport returned no response")
		}
		defer raw.Body.Close()
		o.Response = raw

		t.client.recordTransfer("upload", size)
		if err := t.receive(raw, &o); err != nil {
			return err
		}
		if raw.StatusCode < 200 || raw.StatusCode > 299 {
			return &service.StatusError{StatusCode: raw.StatusCode}
		}
		return nil
	})
	if err != nil && ctx.Err() != nil {
		// Whatever arrived before the abort is discarded.
		return service.Outcome{Err: ctx.Err()}
	}
	o.Err = err
	return o
}

// requestBody returns the stream to upload and its size, -1 when unknown.
func (t *Task) requestBody() (io.Reader, int64, func(), error) {
	noop := func() {}
	switch t.kind {
	case kindUploadFile:
		f, err := os.Open(t.filePath)
		if err != nil {
			return nil, 0, noop, fmt.Errorf("open upload file: %w", err)
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, 0, noop, err
		}
		return f, info.Size(), func() { f.Close() }, nil
	case kindUploadData:
		return bytes.NewReader(t.data), int64(len(t.data)), noop, nil
	}

	if t.req.Body == nil || t.req.Body == http.NoBody {
		return nil, 0, noop, nil
	}
	data, err := io.ReadAll(t.req.Body)
	t.req.Body.Close()
	if err != nil {
		return nil, 0, noop, err
	}
	return bytes.NewReader(data), int64(len(data)), noop, nil
}

// receive reads the response body into memory, or into a staged file for
// successful downloads.
func (t *Task) receive(raw *http.Response, o *service.Outcome) error {
	body := newProgressReader(raw.Body, raw.ContentLength, func(n, total int64) {
		t.progress(service.Progress{Completed: n, Total: total})
	})

	success := raw.StatusCode >= 200 && raw.StatusCode <= 299
	if t.kind != kindDownload || !success {
		data, err := io.ReadAll(body)
		t.client.recordTransfer("download", int64(len(data)))
		if err != nil {
			return err
		}
		o.Data = data
		return nil
	}

	location, n, err := t.client.saveDownload(body, raw, t.dest)
	t.client.recordTransfer("download", n)
	if err != nil {
		return err
	}
	o.Location = location
	return nil
}
