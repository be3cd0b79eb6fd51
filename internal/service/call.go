package service

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/GriffinCanCode/dockerhttp/internal/shared/id"
)

// Dispatchable is what a Manager executes. It is implemented by
// *ServiceCall; its methods are unexported so the manager alone drives the
// decode and completion steps.
type Dispatchable interface {
	ID() id.CallID
	request() *Request
	service() *Service
	progress() ProgressFunc
	begin() bool
	end()
	newResponse(parts responseParts) responder
	finish(r responder)
}

type responseParts struct {
	StatusCode int
	Data       []byte
	Raw        *http.Response
	Location   string
}

// responder is the type-erased view of a *Response[S, E].
type responder interface {
	status() int
	decode()
	decodeError(err error)
	failure() *Error
	ShortDescription() string
	Description() string
}

// ServiceCall binds a Request to a decoder and a completion callback.
type ServiceCall[S, E any] struct {
	Request *Request
	// Service overrides Request.Service when set.
	Service    *Service
	Decoder    Decoder[S, E]
	Completion func(*Response[S, E])
	Progress   ProgressFunc

	id         id.CallID
	manager    *Manager
	processing atomic.Bool
}

// CallOption configures a ServiceCall.
type CallOption func(*callOptions)

type callOptions struct {
	service  *Service
	manager  *Manager
	progress ProgressFunc
}

// WithService overrides the request's service.
func WithService(s *Service) CallOption {
	return func(o *callOptions) { o.service = s }
}

// WithManager sets the manager used by Call.
func WithManager(m *Manager) CallOption {
	return func(o *callOptions) { o.manager = m }
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) CallOption {
	return func(o *callOptions) { o.progress = fn }
}

// NewServiceCall creates a call for req. completion runs exactly once per
// dispatch.
func NewServiceCall[S, E any](req *Request, dec Decoder[S, E], completion func(*Response[S, E]), opts ...CallOption) *ServiceCall[S, E] {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &ServiceCall[S, E]{
		Request:    req,
		Service:    o.service,
		Decoder:    dec,
		Completion: completion,
		Progress:   o.progress,
		id:         id.NewCallID(),
		manager:    o.manager,
	}
}

// ID returns the call identifier used in logs.
func (c *ServiceCall[S, E]) ID() id.CallID { return c.id }

// IsProcessing reports whether the call has been dispatched and not yet
// completed.
func (c *ServiceCall[S, E]) IsProcessing() bool {
	return c.processing.Load()
}

// Call dispatches through the call's manager. Without a manager it does
// nothing.
func (c *ServiceCall[S, E]) Call(ctx context.Context) error {
	if c.manager == nil {
		return nil
	}
	return c.manager.Call(ctx, c)
}

// Cancel cancels the in-flight transport task. Before dispatch it is a no-op.
func (c *ServiceCall[S, E]) Cancel() {
	if c.Request != nil {
		c.Request.Cancel()
	}
}

func (c *ServiceCall[S, E]) request() *Request { return c.Request }

func (c *ServiceCall[S, E]) service() *Service {
	if c.Service != nil {
		return c.Service
	}
	if c.Request != nil {
		return c.Request.Service
	}
	return nil
}

func (c *ServiceCall[S, E]) progress() ProgressFunc { return c.Progress }

func (c *ServiceCall[S, E]) begin() bool { return c.processing.CompareAndSwap(false, true) }

func (c *ServiceCall[S, E]) end() { c.processing.Store(false) }

func (c *ServiceCall[S, E]) newResponse(p responseParts) responder {
	r := NewResponse(p.StatusCode, p.Data, c.Request, p.Raw, c.Decoder)
	r.Location = p.Location
	return r
}

func (c *ServiceCall[S, E]) finish(r responder) {
	if c.Completion != nil {
		c.Completion(r.(*Response[S, E]))
	}
}
