// Package server exposes a desktop session over HTTP.
//
// The server provides:
//   - A JSON API under /api/v1 for windows, forms, apps and the assistant
//   - A WebSocket event stream at /ws
//   - Static file serving for the desktop shell with ETag caching
//   - Health and readiness checks
//   - TLS 1.3 and graceful shutdown
//
// Example usage:
//
//	hub := server.NewHub(0, nil, logger)
//	srv, err := server.New(server.Config{
//		Addr:    ":8080",
//		Handler: server.NewRouter(server.RouterConfig{Desktop: d, Hub: hub}),
//	})
//	go srv.ListenAndServe()
//	srv.Shutdown(ctx)
package server
