package example

import (
	"context"

	"github.com/GriffinCanCode/dockerhttp/internal/service"
	"github.com/GriffinCanCode/dockerhttp/internal/transport"
)

// Typed responses of the resources API.
type (
	ResourcesResponse = service.Response[[]Resource, ErrorResult]
	ResourceResponse  = service.Response[Resource, ErrorResult]
	UploadResponse    = service.Response[UploadResult, ErrorResult]
	DownloadResponse  = service.Response[service.DownloadedFile, []byte]
)

// Client calls the resources API through a service.Manager. The manager
// falls back to the embedded fixtures for demo calls.
type Client struct {
	baseURL       string
	manager       *service.Manager
	failureChance float64
}

// NewClient creates a client for baseURL. Every request sent through client
// accepts JSON unless it says otherwise.
func NewClient(baseURL string, client *transport.Client, opts ...service.Option) *Client {
	client.SetHeader("Accept", "application/json")

	opts = append([]service.Option{service.WithFixtures(Fixtures())}, opts...)
	return &Client{
		baseURL: baseURL,
		manager: service.NewManager(client, opts...),
	}
}

// Manager returns the underlying manager.
func (c *Client) Manager() *service.Manager { return c.manager }

// SetDemoMode switches every call to fixtures.
func (c *Client) SetDemoMode(on bool) { c.manager.SetDemoMode(on) }

// SetDemoFailureChance sets the probability, in [0,1], that a demo call
// answers with its failure fixture.
func (c *Client) SetDemoFailureChance(p float64) { c.failureChance = p }

func (c *Client) prepare(req *service.Request) *service.Request {
	req.DemoFailureChance = c.failureChance
	return req
}

// GetResources lists resources. completion receives an empty slice when
// the call fails.
func (c *Client) GetResources(ctx context.Context, completion func([]Resource)) error {
	call := service.NewServiceCall(c.prepare(GetResourcesRequest(c.baseURL)), service.JSONDecoder[[]Resource, ErrorResult](),
		func(resp *ResourcesResponse) {
			resources, ok := resp.Value()
			if !ok || resources == nil {
				resources = []Resource{}
			}
			completion(resources)
		})
	return c.manager.Call(ctx, call)
}

// PostResource creates resource.
func (c *Client) PostResource(ctx context.Context, resource Resource, completion func(*ResourceResponse)) error {
	call := service.NewServiceCall(c.prepare(PostResourceRequest(c.baseURL, resource)), service.JSONDecoder[Resource, ErrorResult](), completion)
	return c.manager.Call(ctx, call)
}

// GetResource fetches the resource with the given id.
func (c *Client) GetResource(ctx context.Context, id int, completion func(*ResourceResponse)) error {
	call := service.NewServiceCall(c.prepare(GetResourceByIDRequest(c.baseURL, id)), service.JSONDecoder[Resource, ErrorResult](), completion)
	return c.manager.Call(ctx, call)
}

// UploadImage attaches the sample image to resource 1.
func (c *Client) UploadImage(ctx context.Context, progress service.ProgressFunc, completion func(*UploadResponse)) error {
	call := service.NewServiceCall(c.prepare(UploadRequest(c.baseURL, 1, Image())), service.JSONDecoder[UploadResult, ErrorResult](), completion,
		service.WithProgress(progress))
	return c.manager.Call(ctx, call)
}

// DownloadFile saves the sample file into dir.
func (c *Client) DownloadFile(ctx context.Context, dir string, progress service.ProgressFunc, completion func(*DownloadResponse)) error {
	call := service.NewServiceCall(c.prepare(DownloadRequest(c.baseURL, dir)), service.FileDecoder{}, completion,
		service.WithProgress(progress))
	return c.manager.Call(ctx, call)
}
