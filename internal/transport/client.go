package transport

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/dockerhttp/internal/infrastructure/config"
	"github.com/GriffinCanCode/dockerhttp/internal/infrastructure/logging"
	"github.com/GriffinCanCode/dockerhttp/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/dockerhttp/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/dockerhttp/internal/service"
)

// Client wraps resty with rate limiting and a circuit breaker. It
// implements service.Transport.
type Client struct {
	Resty   *resty.Client
	Retry   *retryablehttp.Client
	Limiter *rate.Limiter
	Breaker *resilience.Breaker
	Mu      sync.RWMutex

	logger  *logging.Logger
	metrics *monitoring.Metrics
	tempDir string
}

var _ service.Transport = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithLogger logs retries and task failures to l.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics records transferred bytes.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTempDir sets where downloads are staged before they are moved to
// their destination. Defaults to os.TempDir.
func WithTempDir(dir string) Option {
	return func(c *Client) { c.tempDir = dir }
}

// New creates a client with the default HTTP configuration.
func New(opts ...Option) *Client {
	return NewFromConfig(config.Default().HTTP, opts...)
}

// NewFromConfig creates a client from cfg.
func NewFromConfig(cfg config.HTTPConfig, opts ...Option) *Client {
	c := &Client{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}

	// Retries happen below resty, on the raw round trip. Exhausted retries
	// hand back the last response instead of an error so status handling
	// stays in one place.
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = c.logger.Leveled()

	restyClient := resty.NewWithClient(retryClient.StandardClient())
	restyClient.SetTimeout(cfg.Timeout)
	if cfg.UserAgent != "" {
		restyClient.SetHeader("User-Agent", cfg.UserAgent)
	}
	for k, v := range cfg.DefaultHeaders {
		restyClient.SetHeader(k, v)
	}

	c.Resty = restyClient
	c.Retry = retryClient
	c.Limiter = rate.NewLimiter(rate.Inf, 0)
	c.Breaker = resilience.New("http-transport", resilience.Settings{
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 10 ||
				(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.7)
		},
		// Client errors say nothing about the health of the server.
		IsSuccessful: func(err error) bool {
			var statusErr *service.StatusError
			if errors.As(err, &statusErr) {
				return statusErr.StatusCode < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to resilience.State) {
			c.logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})
	c.SetRateLimit(cfg.RateLimit)
	return c
}

// SetHeader adds default header
func (c *Client) SetHeader(key, value string) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.Resty.SetHeader(key, value)
}

// RemoveHeader removes a default header
func (c *Client) RemoveHeader(key string) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.Resty.Header.Del(key)
}

// GetHeaders returns copy of all headers
func (c *Client) GetHeaders() map[string]string {
	c.Mu.RLock()
	defer c.Mu.RUnlock()

	headers := make(map[string]string)
	for k, v := range c.Resty.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	return headers
}

// DefaultHeaders returns a copy of the headers sent with every request.
func (c *Client) DefaultHeaders() http.Header {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.Resty.Header.Clone()
}

// SetTimeout configures request timeout
func (c *Client) SetTimeout(duration time.Duration) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.Resty.SetTimeout(duration)
}

// SetRetry configures retry behavior for subsequent requests.
func (c *Client) SetRetry(maxRetries int, minWait, maxWait time.Duration) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.Retry.RetryMax = maxRetries
	c.Retry.RetryWaitMin = minWait
	c.Retry.RetryWaitMax = maxWait
}

// SetRateLimit configures rate limiting (requests per second)
func (c *Client) SetRateLimit(rps float64) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	if rps <= 0 {
		c.Limiter = rate.NewLimiter(rate.Inf, 0)
	} else {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// SetBasicAuth configures basic authentication
func (c *Client) SetBasicAuth(username, password string) {
	c.SetHeader("Authorization", EncodeBasicAuth(username, password))
}

// SetBearerAuth configures bearer token authentication
func (c *Client) SetBearerAuth(token string) {
	c.SetHeader("Authorization", "Bearer "+token)
}

// SetCustomAuth sets custom authorization header
func (c *Client) SetCustomAuth(header string) {
	c.SetHeader("Authorization", header)
}

// EncodeBasicAuth creates base64 encoded basic auth
func EncodeBasicAuth(username, password string) string {
	auth := username + ":" + password
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(auth))
}

// request creates a resty request after the breaker and rate limiter
// admit it.
func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	if c.Breaker.State() == resilience.StateOpen {
		return nil, resilience.ErrCircuitOpen
	}

	c.Mu.RLock()
	limiter := c.Limiter
	c.Mu.RUnlock()
	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.Resty.R().SetContext(ctx).SetDoNotParseResponse(true), nil
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.Breaker.State()
}

// BreakerCounts returns circuit breaker statistics
func (c *Client) BreakerCounts() resilience.Counts {
	return c.Breaker.Counts()
}

// Data sends req and keeps the response body in memory.
func (c *Client) Data(req *http.Request) service.Task {
	return c.newTask(req, kindData)
}

// UploadFile streams the file at path as the request body.
func (c *Client) UploadFile(req *http.Request, path string) service.Task {
	t := c.newTask(req, kindUploadFile)
	t.filePath = path
	return t
}

// UploadData sends data as the request body.
func (c *Client) UploadData(req *http.Request, data []byte) service.Task {
	t := c.newTask(req, kindUploadData)
	t.data = data
	return t
}

// Download writes a successful response body to the file chosen by dest.
// Error responses are kept in memory so their payload can be decoded.
func (c *Client) Download(req *http.Request, dest service.Destination) service.Task {
	t := c.newTask(req, kindDownload)
	t.dest = dest
	return t
}

func (c *Client) recordTransfer(direction string, n int64) {
	if c.metrics != nil {
		c.metrics.RecordTransfer(direction, n)
	}
}
