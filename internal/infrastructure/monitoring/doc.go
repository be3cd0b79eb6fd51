/*
Package monitoring provides Prometheus metrics for service calls.

# Overview

Metrics are registered on an injected prometheus.Registerer so tests and
embedding applications can keep them isolated from the default registry.

# Features

- Service call counts, durations and in-flight gauge
- Error counts labelled by error kind
- Demo mode hit counts
- Transport byte counters
- Gin middleware for the mock API

# Usage

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())

	timer := monitoring.NewTimer(metrics, "resources", "GET")
	defer timer.Stop("success")

	router.Use(monitoring.Middleware(metrics))
*/
package monitoring
