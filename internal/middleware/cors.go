package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/dockerhttp/internal/infrastructure/tracing"
)

// CORSConfig lists which browser origins may call the mock API and which
// response headers their scripts may read.
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig opens the resources API to any origin. Uploads need
// multipart Content-Type, clients continue traces with the trace headers,
// and created resources and downloads are described by Location,
// Content-Disposition and Retry-After.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			tracing.TraceHeader,
			tracing.SpanHeader,
		},
		ExposeHeaders: []string{
			"Content-Disposition",
			"Content-Length",
			"Location",
			"Retry-After",
			tracing.TraceHeader,
			tracing.SpanHeader,
		},
		MaxAge: time.Hour,
	}
}

// CORS answers preflight requests for the mock API and rejects origins
// outside cfg.AllowOrigins with 403.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		ExposeHeaders:    cfg.ExposeHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})
}
