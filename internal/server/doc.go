// Package server provides the HTTP server of taskmaster.
//
// The server uses the Gin web framework. It serves the runs API, a health
// probe and the Prometheus metrics of the dispatch engine.
//
// # Architecture Overview
//
//	┌───────────────────────────────────────────────────────────────┐
//	│                         HTTP Server                           │
//	├───────────────────────────────────────────────────────────────┤
//	│                       Middleware Stack                        │
//	│  ┌─────────────────────────────────────────────────────────┐  │
//	│  │  ginzap.Ginzap (request logging, "http" logger)         │  │
//	│  │  ginzap.RecoveryWithZap (panic recovery with stack)     │  │
//	│  └─────────────────────────────────────────────────────────┘  │
//	├───────────────────────────────────────────────────────────────┤
//	│  /healthz        liveness                                     │
//	│  /metrics        promhttp over the given Gatherer             │
//	│  /api/v1/...     handlers (registered via callback)           │
//	│  anything else   404 JSON error                               │
//	└───────────────────────────────────────────────────────────────┘
//
// # Server Modes
//
// Development Mode (ServerMode = "dev"):
//   - Gin runs in debug mode (route table printed at startup)
//
// Production Mode (ServerMode = "prod"):
//   - Gin runs in release mode
//
// # Server Lifecycle
//
// Creation:
//
//	srv, err := server.NewServer(cfg, registry, func(router *gin.RouterGroup) {
//	    handlers.RegisterHandlers(router, handler)
//	})
//
// Starting:
//
//	// Blocks until Stop, ctx cancellation or a listener error
//	err := srv.Start(ctx)
//
// Start returns nil after a graceful shutdown.
//
// Stopping:
//
//	srv.Stop(ctx)
//
// Performs graceful shutdown, waiting for in-flight requests to complete.
// Cancelling the context given to Start does the same.
package server
