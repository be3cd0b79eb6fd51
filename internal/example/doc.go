// Package example is a small client for a resources API, built on the
// service package. It doubles as documentation for how services, requests
// and calls fit together.
//
// Every request carries demo fixture names, and the fixtures are embedded,
// so the whole client works offline with demo mode on:
//
//	client := example.NewClient(baseURL, transport.New())
//	client.SetDemoMode(true)
//	err := client.GetResources(ctx, func(resources []example.Resource) {
//		fmt.Println(len(resources))
//	})
package example
