package service

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

// stubTransport records what the manager asks for and answers every task
// with a preset outcome.
type stubTransport struct {
	mu       sync.Mutex
	headers  http.Header
	outcome  Outcome
	progress []Progress
	hold     bool

	calls    []string
	requests []*http.Request
	bodies   [][]byte
	tasks    []*stubTask
}

func newStubTransport(o Outcome) *stubTransport {
	return &stubTransport{headers: http.Header{}, outcome: o}
}

func (s *stubTransport) DefaultHeaders() http.Header { return s.headers.Clone() }

func (s *stubTransport) Data(req *http.Request) Task {
	return s.record("data", req, nil)
}

func (s *stubTransport) UploadFile(req *http.Request, path string) Task {
	return s.record("upload-file:"+path, req, nil)
}

func (s *stubTransport) UploadData(req *http.Request, data []byte) Task {
	return s.record("upload-data", req, data)
}

func (s *stubTransport) Download(req *http.Request, dest Destination) Task {
	return s.record("download", req, nil)
}

func (s *stubTransport) record(kind string, req *http.Request, data []byte) Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	if data == nil && req.Body != nil {
		data, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewReader(data))
	}
	s.calls = append(s.calls, kind)
	s.requests = append(s.requests, req)
	s.bodies = append(s.bodies, data)

	o := s.outcome
	o.Request = req
	t := &stubTask{outcome: o, progress: s.progress, hold: s.hold}
	s.tasks = append(s.tasks, t)
	return t
}

func (s *stubTransport) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type stubTask struct {
	mu         sync.Mutex
	outcome    Outcome
	progress   []Progress
	hold       bool
	cancelled  bool
	done       bool
	onProgress ProgressFunc
	onComplete func(Outcome)
}

func (t *stubTask) OnProgress(fn ProgressFunc)  { t.onProgress = fn }
func (t *stubTask) OnComplete(fn func(Outcome)) { t.onComplete = fn }
func (t *stubTask) Suspend()                    {}

func (t *stubTask) Resume() {
	if !t.hold {
		t.run()
	}
}

func (t *stubTask) Cancel() {
	t.mu.Lock()
	t.cancelled = true
	t.mu.Unlock()
	t.run()
}

// run completes the task once.
func (t *stubTask) run() {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return
	}
	t.done = true
	o := t.outcome
	if t.cancelled {
		o = Outcome{Request: o.Request, Err: context.Canceled}
	}
	t.mu.Unlock()

	if t.onProgress != nil {
		for _, p := range t.progress {
			t.onProgress(p)
		}
	}
	if t.onComplete != nil {
		t.onComplete(o)
	}
}

// fakeClock fires timers only when advanced.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.fn()
	}
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// seqRandom returns the given values in order, repeating the last one.
type seqRandom struct {
	mu     sync.Mutex
	values []float64
}

func (r *seqRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.values[0]
	if len(r.values) > 1 {
		r.values = r.values[1:]
	}
	return v
}

// mockFixtures is a testify mock of FixtureStore.
type mockFixtures struct {
	mock.Mock
}

func (m *mockFixtures) Resolve(name string) (string, error) {
	args := m.Called(name)
	return args.String(0), args.Error(1)
}

func (m *mockFixtures) ReadFixture(location string) ([]byte, error) {
	args := m.Called(location)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

// mapFixtures serves fixtures from memory.
type mapFixtures map[string][]byte

func (f mapFixtures) Resolve(name string) (string, error) {
	if _, ok := f[name]; !ok {
		return "", &fixtureMissing{name: name}
	}
	return name, nil
}

func (f mapFixtures) ReadFixture(location string) ([]byte, error) {
	return f[location], nil
}

type fixtureMissing struct{ name string }

func (e *fixtureMissing) Error() string { return "fixture " + e.name + " missing" }

type resource struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type apiError struct {
	Message string `json:"message"`
}

// collect captures completion invocations.
type collect[S, E any] struct {
	mu        sync.Mutex
	responses []*Response[S, E]
	done      chan struct{}
}

func newCollect[S, E any]() *collect[S, E] {
	return &collect[S, E]{done: make(chan struct{}, 16)}
}

func (c *collect[S, E]) fn(r *Response[S, E]) {
	c.mu.Lock()
	c.responses = append(c.responses, r)
	c.mu.Unlock()
	c.done <- struct{}{}
}

func (c *collect[S, E]) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.responses)
}

func (c *collect[S, E]) last() *Response[S, E] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.responses) == 0 {
		return nil
	}
	return c.responses[len(c.responses)-1]
}

func (c *collect[S, E]) wait(timeout time.Duration) bool {
	select {
	case <-c.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func jsonResponse(status int, body string) Outcome {
	return Outcome{
		Response: &http.Response{StatusCode: status, Header: http.Header{"Content-Type": {"application/json"}}},
		Data:     []byte(body),
	}
}
