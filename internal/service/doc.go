// Package service is a declarative HTTP call layer.
//
// A Request describes one call: method, path and URL parameters, headers,
// body and how to encode it, and how to execute it (plain data, file
// upload, multipart upload or download). A Service supplies the base URL and
// a path template with "/:name" placeholders. A ServiceCall binds a Request
// to a typed Decoder and a completion callback, and a Manager dispatches it.
//
// Components:
//   - Manager: builds the transport request, picks the execution strategy,
//     normalizes the transport outcome and decodes it
//   - Demo mode: answers calls from fixtures with random latency and
//     failure injection, through the same completion path
//   - Transport: the HTTP engine contract, implemented by internal/transport
//
// Every dispatch ends in exactly one completion callback whose Response has
// its Result populated. Failures are *Error values tagged with a Kind.
// Nothing is retried automatically.
//
// Example Usage:
//
//	svc := service.NewService("https://api.example.com", "/resources/:id")
//	req := service.NewJSONRequest()
//	req.Service = svc
//	req.PathParameters["id"] = 42
//
//	call := service.NewServiceCall(req, service.JSONDecoder[Resource, APIError](),
//		func(resp *service.Response[Resource, APIError]) {
//			if v, ok := resp.Value(); ok {
//				fmt.Println(v.Name)
//			}
//		})
//	err := manager.Call(ctx, call)
package service
