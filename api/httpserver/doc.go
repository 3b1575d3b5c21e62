// Package httpserver provides the HTTP server shared by the ingest binaries.
//
// The httpserver package implements a base HTTP server with standard health endpoints,
// graceful shutdown capabilities, metrics, CORS and flexible routing. Ingest and
// registry handlers plug into it as route registrars.
//
// # Key Components
//
//   - BaseServer: Core HTTP server with health checks, metrics, and lifecycle management
//   - RouteRegistrar: Interface for components to register their routes with the server
//
// # Server Lifecycle
//
// The BaseServer implements a complete server lifecycle:
//
//  1. Initialization: Configure server with HTTP settings and route registrars
//  2. Startup: Run HTTP and metrics servers in background goroutines
//  3. Operation: Handle requests with proper logging and monitoring
//  4. Readiness Control: Support drain/undrain operations for load balancers
//  5. Graceful Shutdown: Wait for in-flight requests to complete
//
// # Health and Diagnostics
//
// All servers built with BaseServer automatically include:
//
//   - Liveness Check: Simple endpoint to verify server is running (/livez)
//   - Readiness Check: Endpoint indicating if server is ready to accept requests (/readyz)
//   - Drain Control: Endpoints to prepare for graceful shutdown (/drain, /undrain)
//   - Version: Build information (/version)
//   - Metrics: Optional Prometheus-compatible metrics endpoint
//   - Profiling: Optional pprof debugging endpoints when enabled
//
// Readiness can be gated on a caller supplied check; the ingest binary
// reports not ready until the validator registry holds a snapshot.
//
// # Usage Example
//
//	// Implement the RouteRegistrar interface for your handler
//	func (h *MyHandler) RegisterRoutes(r chi.Router) {
//	    r.Post("/upload-llm-item", h.handleUploadLLM)
//	}
//
//	srv, err := httpserver.New(&httpserver.HTTPServerConfig{
//	    ListenAddr:               ":8000",
//	    MetricsAddr:              ":9090",
//	    Log:                      log,
//	    ReadinessCheck:           func() bool { return registry.Snapshot() != nil },
//	    GracefulShutdownDuration: 30 * time.Second,
//	}, handler)
//	if err != nil {
//	    return err
//	}
//
//	srv.RunInBackground()
//	defer srv.Shutdown()
package httpserver
