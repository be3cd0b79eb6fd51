package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// Random is a source of uniform values in [0,1).
type Random interface {
	Float64() float64
}

// Clock schedules delayed work.
type Clock interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a scheduled function. Stop reports whether it prevented the run.
type Timer interface {
	Stop() bool
}

type defaultRandom struct{}

func (defaultRandom) Float64() float64 { return rand.Float64() }

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, fn func()) Timer { return time.AfterFunc(d, fn) }

// simulate answers the call from a fixture after a random delay. A draw
// above DemoFailureChance succeeds, so a chance of 1 always fails and a
// chance of 0 never does. Fixture problems are returned synchronously.
func (m *Manager) simulate(ctx context.Context, d *dispatch) error {
	req := d.req
	req.markSentInDemoMode()

	draw := m.random.Float64()
	success := req.DemoFailureChance <= 0 || draw > req.DemoFailureChance

	name := req.DemoSuccessFileName
	if !success {
		name = req.DemoFailureFileName
	}
	if name == "" {
		if success {
			return &Error{Kind: KindNilSuccessFixture}
		}
		return &Error{Kind: KindNilFailureFixture}
	}

	store := req.DemoFixtures
	if store == nil {
		store = m.fixtures
	}
	if store == nil {
		return errFixtureNotFound(name, errors.New("no fixture store configured"))
	}
	location, err := store.Resolve(name)
	if err != nil {
		return errFixtureNotFound(name, err)
	}
	data, err := store.ReadFixture(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errFixtureNotFound(name, err)
		}
		return Generic(err)
	}

	status := req.DemoSuccessStatusCode
	if !success {
		status = req.DemoFailureStatusCode
	}
	wait := req.DemoWaitingTimeRange.Pick(m.random)

	if m.metrics != nil {
		m.metrics.RecordDemoCall(success)
	}

	task := &demoTask{}
	deliver := func() {
		raw := syntheticResponse(status, data)
		parts := responseParts{StatusCode: status, Data: data, Raw: raw}
		// Failures keep their payload in memory and leave the destination
		// alone.
		if success && req.Type.Kind == TypeDownload && req.Type.Destination != nil {
			location, err := writeDemoDownload(req.Type.Destination, raw, data)
			if err != nil {
				m.executor(func() { d.complete(d.call.newResponse(parts), Generic(err)) })
				return
			}
			parts.Location = location
		}

		var err error
		if !success {
			err = errUnderlying(&StatusError{StatusCode: status}, nil, status)
		}
		resp := d.call.newResponse(parts)
		m.executor(func() { d.complete(resp, err) })
	}
	cancel := func(cause error) {
		m.executor(func() {
			d.complete(d.call.newResponse(responseParts{}), errMissingResponse(cause, ErrorCode(cause)))
		})
	}

	task.schedule(ctx, m.clock, wait, deliver, cancel)
	req.attachTask(task)
	return nil
}

// demoTask is the in-flight handle of a simulated call. Cancel stops the
// pending delivery; suspend and resume have nothing to pause.
type demoTask struct {
	mu        sync.Mutex
	timer     Timer
	stopWatch func() bool
	cancel    func(error)
}

func (t *demoTask) schedule(ctx context.Context, clock Clock, wait time.Duration, deliver func(), cancel func(error)) {
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()

	timer := clock.AfterFunc(wait, func() {
		t.mu.Lock()
		stop := t.stopWatch
		t.mu.Unlock()
		if stop != nil {
			stop()
		}
		deliver()
	})

	t.mu.Lock()
	t.timer = timer
	t.mu.Unlock()

	// Registered after the timer exists, so abort always sees it.
	stop := context.AfterFunc(ctx, func() {
		t.abort(context.Cause(ctx))
	})

	t.mu.Lock()
	t.stopWatch = stop
	t.mu.Unlock()
}

func (t *demoTask) abort(cause error) {
	t.mu.Lock()
	timer, cancel := t.timer, t.cancel
	t.mu.Unlock()

	if timer != nil && timer.Stop() {
		cancel(cause)
	}
}

func (t *demoTask) OnProgress(ProgressFunc)  {}
func (t *demoTask) OnComplete(func(Outcome)) {}
func (t *demoTask) Resume()                  {}
func (t *demoTask) Suspend()                 {}

func (t *demoTask) Cancel() {
	t.abort(context.Canceled)
}

// syntheticResponse gives demo responses the metadata a real round trip
// would have.
func syntheticResponse(status int, data []byte) *http.Response {
	header := make(http.Header)
	header.Set("Content-Type", mimetype.Detect(data).String())
	header.Set("Content-Length", strconv.Itoa(len(data)))
	return &http.Response{
		StatusCode:    status,
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		ContentLength: int64(len(data)),
	}
}

func writeDemoDownload(dest Destination, raw *http.Response, data []byte) (string, error) {
	path, opts := dest(raw)
	if err := opts.PrepareDestination(path); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
