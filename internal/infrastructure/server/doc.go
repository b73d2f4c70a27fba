// Package server wires the sandbox service behind its HTTP API.
//
// Server Lifecycle:
//  1. Load configuration from environment and .env
//  2. Initialize logger and a private Prometheus registry
//  3. Build the rod engine, alert dispatcher and sandbox service
//  4. Setup routes and middleware
//  5. Serve until a signal, then shut down gracefully
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	go srv.Run()
//	defer srv.Shutdown(ctx)
package server
