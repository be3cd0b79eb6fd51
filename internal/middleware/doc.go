// Package middleware provides the Gin middleware used by the mock resources
// API.
//
// Middleware stack includes:
//   - CORS: cross-origin access for browser clients of the mock API
//   - RateLimit: per-client token bucket, idle clients are evicted
//   - GlobalRateLimit: one token bucket shared by every client
//
// Rejected requests get 429 with a Retry-After header and a JSON body of the
// form {"code":429,"message":"rate limit exceeded"}, the same shape the
// resources API uses for its other errors.
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
