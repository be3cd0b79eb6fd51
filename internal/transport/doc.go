// Package transport is the HTTP engine behind service.Manager.
//
// Client implements service.Transport on top of go-resty/resty, with
// go-retryablehttp underneath for connection-level retries:
//   - Rate limiting per client instance
//   - A circuit breaker that only counts server errors and connection failures
//   - Lazily started tasks with upload and download progress
//   - Downloads staged in a temporary file and moved into place
//
// Every non-2xx response is reported as a *service.StatusError together with
// the response and its body, so the manager can decode the error payload.
//
// Example Usage:
//
//	client := transport.NewFromConfig(cfg.HTTP, transport.WithLogger(logger))
//	manager := service.NewManager(client)
package transport
