package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/dockerhttp/internal/infrastructure/monitoring"
)

// Executor runs completion and progress callbacks. It must run functions in
// the order they are submitted.
type Executor func(func())

// Inline runs callbacks on the goroutine that produced them.
func Inline(fn func()) { fn() }

// Manager dispatches service calls through a Transport, or through the demo
// simulator, and delivers exactly one decoded Response per dispatch.
//
// The manager is safe for concurrent use. Configuration set through options
// is fixed after construction; only the demo flag may change at runtime.
type Manager struct {
	transport  Transport
	retryDelay time.Duration
	demoMode   atomic.Bool

	random   Random
	clock    Clock
	fixtures FixtureStore
	executor Executor

	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithMetrics records call metrics.
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithRandom replaces the random source used by demo mode.
func WithRandom(r Random) Option {
	return func(m *Manager) { m.random = r }
}

// WithClock replaces the timer source used by demo mode.
func WithClock(c Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithFixtures sets the fixture store used when a request has none.
func WithFixtures(f FixtureStore) Option {
	return func(m *Manager) { m.fixtures = f }
}

// WithExecutor sets where callbacks run. The default is Inline.
func WithExecutor(e Executor) Option {
	return func(m *Manager) { m.executor = e }
}

// WithRetryDelay sets the value reported by RetryDelay.
func WithRetryDelay(d time.Duration) Option {
	return func(m *Manager) { m.retryDelay = d }
}

// WithDemoMode sets the initial global demo flag.
func WithDemoMode(on bool) Option {
	return func(m *Manager) { m.demoMode.Store(on) }
}

// NewManager creates a manager that uses transport for services without
// their own.
func NewManager(transport Transport, opts ...Option) *Manager {
	m := &Manager{
		transport:  transport,
		retryDelay: 3 * time.Second,
		random:     defaultRandom{},
		clock:      realClock{},
		executor:   Inline,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Transport returns the default transport.
func (m *Manager) Transport() Transport { return m.transport }

// RetryDelay is the configured delay before a retry. The manager never
// retries on its own; callers that implement retries may use it.
func (m *Manager) RetryDelay() time.Duration { return m.retryDelay }

// DemoMode reports whether every call is answered from fixtures.
func (m *Manager) DemoMode() bool { return m.demoMode.Load() }

// SetDemoMode toggles global demo mode. Calls already dispatched are not
// affected.
func (m *Manager) SetDemoMode(on bool) { m.demoMode.Store(on) }

// Call dispatches c. The completion callback runs exactly once, including
// when building the request fails. The only error returned directly is
// ErrCallInProgress, for a call that is still in flight.
func (m *Manager) Call(ctx context.Context, c Dispatchable) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !c.begin() {
		return ErrCallInProgress
	}

	req := c.request()
	if req == nil {
		// Completed like any other build failure; the placeholder only
		// feeds logging and metrics.
		d := &dispatch{manager: m, call: c, req: &Request{}, started: time.Now()}
		d.completeWithError(Generic(errors.New("service call has no request")))
		return nil
	}

	d := &dispatch{manager: m, call: c, req: req, started: time.Now()}
	d.timer = m.startTimer(c)

	if m.DemoMode() || req.UseDemoMode {
		d.logStart(true)
		if err := m.simulate(ctx, d); err != nil {
			d.completeWithError(err)
		}
		return nil
	}

	d.logStart(false)
	if err := m.send(ctx, d); err != nil {
		d.completeWithError(err)
	}
	return nil
}

func (m *Manager) startTimer(c Dispatchable) *monitoring.Timer {
	if m.metrics == nil {
		return nil
	}
	req := c.request()
	return monitoring.NewTimer(m.metrics, metricService(c.service()), string(req.method()))
}

func metricService(s *Service) string {
	if s == nil {
		return "unknown"
	}
	return s.Path
}

// send builds the transport request for the request's execution type and
// starts the task. Errors returned here happen before the transport is
// involved.
func (m *Manager) send(ctx context.Context, d *dispatch) error {
	req := d.req
	svc := d.call.service()

	transport := m.transport
	if svc != nil && svc.Transport != nil {
		transport = svc.Transport
	}
	if transport == nil {
		return Generic(errors.New("no transport configured"))
	}

	var form *MultipartForm
	if req.Type.Kind == TypeUploadMultipart {
		var err error
		if form, err = AssembleMultipart(req.method(), req.MultipartBodyParts); err != nil {
			return err
		}
	}

	httpReq, err := req.BuildTransportRequest(ctx, svc, transport.DefaultHeaders())
	if err != nil {
		return err
	}

	var task Task
	switch req.Type.Kind {
	case TypeUploadFile:
		task = transport.UploadFile(httpReq, req.Type.FilePath)
	case TypeUploadMultipart:
		data, contentType, err := form.Encode()
		if err != nil {
			return errEncoding(err)
		}
		httpReq.Header.Set("Content-Type", contentType)
		task = transport.UploadData(httpReq, data)
	case TypeDownload:
		dest := req.Type.Destination
		if dest == nil {
			return Generic(errors.New("download request has no destination"))
		}
		task = transport.Download(httpReq, dest)
	default:
		task = transport.Data(httpReq)
	}

	req.attachTask(task)
	if fn := d.call.progress(); fn != nil {
		task.OnProgress(func(p Progress) {
			m.executor(func() { fn(p) })
		})
	}
	task.OnComplete(func(o Outcome) {
		resp, err := d.normalize(o)
		m.executor(func() { d.complete(resp, err) })
	})
	task.Resume()
	return nil
}

// dispatch tracks one execution of a call.
type dispatch struct {
	manager *Manager
	call    Dispatchable
	req     *Request
	demo    bool
	started time.Time
	timer   *monitoring.Timer
	once    sync.Once
}

// normalize maps a raw transport outcome onto a response and an error:
// metadata plus body is a response, tagged as underlying when the transport
// also reported an error; anything else is a missing response.
func (d *dispatch) normalize(o Outcome) (responder, error) {
	status := 0
	if o.Response != nil {
		status = o.Response.StatusCode
	}

	if o.Response != nil && o.hasBody() {
		resp := d.call.newResponse(responseParts{StatusCode: status, Data: o.Data, Raw: o.Response, Location: o.Location})
		if o.Err == nil {
			return resp, nil
		}
		return resp, errUnderlying(o.Err, o.Response, status)
	}

	cause := o.Err
	if cause == nil {
		cause = ErrUnknown
	}
	resp := d.call.newResponse(responseParts{StatusCode: status, Data: o.Data, Raw: o.Response})
	return resp, errMissingResponse(cause, ErrorCode(cause))
}

// completeWithError finishes a call that never reached the transport.
func (d *dispatch) completeWithError(err error) {
	resp := d.call.newResponse(responseParts{})
	d.manager.executor(func() { d.complete(resp, err) })
}

// complete decodes resp and invokes the completion callback. Errors, and
// statuses inside the request's error range when the request asks for it,
// go through decodeError; everything else through decode.
func (d *dispatch) complete(resp responder, err error) {
	d.once.Do(func() {
		req := d.req
		if err != nil || (req.UseDifferentResponseForErrors && req.HTTPErrorStatusCodeRange.Contains(resp.status())) {
			if err == nil {
				err = Generic(nil)
			}
			resp.decodeError(err)
		} else {
			resp.decode()
		}

		d.logCompletion(resp)
		d.call.end()
		d.call.finish(resp)
	})
}

func (d *dispatch) logStart(demo bool) {
	d.demo = demo
	d.manager.logger.Info("service call started",
		zap.String("call_id", d.call.ID().String()),
		zap.String("method", string(d.req.method())),
		zap.String("type", d.req.Type.Kind.String()),
		zap.String("url", d.req.urlDescription(d.call.service())),
		zap.Bool("demo", demo),
	)
	if ce := d.manager.logger.Check(zap.DebugLevel, "service call request"); ce != nil {
		ce.Write(
			zap.String("call_id", d.call.ID().String()),
			zap.String("request", d.req.Description(d.call.service())),
		)
	}
}

func (d *dispatch) logCompletion(resp responder) {
	m := d.manager
	failure := resp.failure()
	fields := []zap.Field{
		zap.String("call_id", d.call.ID().String()),
		zap.Int("status", resp.status()),
		zap.Duration("duration", time.Since(d.started)),
		zap.Bool("demo", d.demo),
	}

	outcome := "success"
	if failure != nil {
		outcome = "failure"
		m.logger.Warn("service call failed", append(fields,
			zap.Stringer("kind", failure.Kind),
			zap.Error(failure),
		)...)
	} else {
		m.logger.Info("service call completed", fields...)
	}

	if ce := m.logger.Check(zap.DebugLevel, "service call response"); ce != nil {
		ce.Write(zap.String("call_id", d.call.ID().String()), zap.String("response", resp.Description()))
	}

	if m.metrics != nil {
		if failure != nil {
			m.metrics.RecordServiceError(metricService(d.call.service()), string(d.req.method()), failure.Kind.String())
		}
		if d.timer != nil {
			d.timer.Stop(outcome)
		}
	}
}
