// Package mockserver serves the resources API used by internal/example, so
// the example client can run against a real HTTP endpoint.
//
// Resources live in memory and are seeded from the embedded fixtures, which
// are also served as plain files under /files/:name.
//
// Routes:
//   - GET  /resources            list resources
//   - POST /resources            create a resource
//   - GET  /resources/:id        fetch one resource
//   - POST /resources/:id/file   attach a multipart "image" file
//   - GET  /files/:name          download a fixture file
//   - GET  /health, GET /metrics
//
// Errors are JSON example.ErrorResult bodies.
package mockserver
