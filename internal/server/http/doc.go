// Package httpserver provides the HTTP listener for streamhub: the
// subscription-management JSON endpoints, the newline-delimited event
// stream endpoint, and a health check, all mounted from a
// controllers.Registry.
//
// Example:
//
//	registry := &controllers.Registry{General: general, Subscriptions: subs, Streaming: streams}
//	s := httpserver.New(registry)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":8080")
package httpserver
