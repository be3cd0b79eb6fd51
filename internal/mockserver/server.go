package mockserver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/dockerhttp/internal/codec"
	"github.com/GriffinCanCode/dockerhttp/internal/example"
	"github.com/GriffinCanCode/dockerhttp/internal/infrastructure/config"
	"github.com/GriffinCanCode/dockerhttp/internal/infrastructure/logging"
	"github.com/GriffinCanCode/dockerhttp/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/dockerhttp/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/dockerhttp/internal/middleware"
)

// Server is the mock resources API.
type Server struct {
	router  *gin.Engine
	logger  *logging.Logger
	metrics *monitoring.Metrics
	config  config.MockServerConfig

	files fs.FS

	mu        sync.RWMutex
	resources []example.Resource
	nextID    int

	httpMu     sync.Mutex
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*options)

type options struct {
	logger   *logging.Logger
	metrics  *monitoring.Metrics
	gatherer prometheus.Gatherer
	tracer   *tracing.Tracer
	files    fs.FS
	dev      bool
}

// WithLogger sets the request logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records request metrics and exposes gatherer on /metrics.
func WithMetrics(m *monitoring.Metrics, gatherer prometheus.Gatherer) Option {
	return func(o *options) { o.metrics, o.gatherer = m, gatherer }
}

// WithTracer continues client traces and logs a span per request.
func WithTracer(t *tracing.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithFiles replaces the embedded fixtures as the seed and file source.
func WithFiles(fsys fs.FS) Option {
	return func(o *options) { o.files = fsys }
}

// WithDevelopment puts gin in debug mode.
func WithDevelopment(on bool) Option {
	return func(o *options) { o.dev = on }
}

// New creates a server seeded with the fixture resources.
func New(cfg config.MockServerConfig, opts ...Option) (*Server, error) {
	o := options{logger: logging.NewNop(), files: example.FixtureFS()}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Server{
		logger:  o.logger,
		metrics: o.metrics,
		config:  cfg,
		files:   o.files,
	}
	if err := s.seed(); err != nil {
		return nil, err
	}

	if !o.dev {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	if o.tracer != nil {
		router.Use(tracing.HTTPMiddleware(o.tracer))
	}
	router.Use(s.requestLogger())
	if s.metrics != nil {
		router.Use(monitoring.Middleware(s.metrics))
	}
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit > 0 {
		s.logger.Info("Rate limiting enabled",
			zap.Float64("rps", cfg.RateLimit),
			zap.Int("burst", cfg.Burst),
		)
		limits := middleware.DefaultRateLimitConfig()
		limits.RequestsPerSecond = cfg.RateLimit
		if cfg.Burst > 0 {
			limits.Burst = cfg.Burst
		}
		router.Use(middleware.RateLimit(limits))
	}

	router.GET("/health", s.health)
	if o.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{})))
	}

	router.GET("/resources", s.listResources)
	router.POST("/resources", s.createResource)
	router.GET("/resources/:id", s.getResource)
	router.POST("/resources/:id/file", s.uploadFile)
	router.GET("/files/:name", s.downloadFile)

	router.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "no route for "+c.Request.Method+" "+c.Request.URL.Path)
	})

	s.router = router
	return s, nil
}

// seed loads the resource list fixture.
func (s *Server) seed() error {
	data, err := fs.ReadFile(s.files, example.FixtureResources)
	if err != nil {
		return fmt.Errorf("read seed resources: %w", err)
	}
	var resources []example.Resource
	if err := codec.JSON.Unmarshal(data, &resources); err != nil {
		return fmt.Errorf("decode seed resources: %w", err)
	}
	s.resources = resources
	s.nextID = len(resources) + 1
	return nil
}

// Handler returns the router, for httptest servers and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on the configured address until Shutdown.
func (s *Server) Run() error {
	s.httpMu.Lock()
	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.httpMu.Unlock()

	s.logger.Info("Starting mock API", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down mock API...")

	s.httpMu.Lock()
	srv := s.httpServer
	s.httpMu.Unlock()

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("Failed to shut down mock API", zap.Error(err))
			return fmt.Errorf("failed to shut down: %w", err)
		}
	}
	s.logger.Sync()
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Debug("mock request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Int("bytes", c.Writer.Size()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
