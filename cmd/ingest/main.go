// Command ingest runs the NicheImage ingestion API.
//
// Validators post generated images, text completions and miner status
// reports. Every write is authenticated against the subnet's validator set,
// which is refreshed in the background from the configured source.
//
// # Configuration File
//
//	http_addr: ":8000"
//	metrics_addr: ":9090"
//	auth:
//	  allow_unsigned: true
//	registry:
//	  netuid: 23
//	  source: http
//	  url: https://metagraph.example
//	storage:
//	  backend: postgres
//
// Credentials come from DB_USER, DB_PASSWORD, DB_HOST, DB_PORT,
// AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY.
//
// # Endpoints
//
//   - POST /upload-base64-item
//   - POST /upload-mid-journey-item
//   - POST /upload-llm-item
//   - POST /store-miner-info
//   - GET /registry/validators, GET /registry/validators/{uid}
//   - GET /livez, /readyz, /drain, /undrain, /version
//
// # Usage
//
//	go run ./cmd/ingest --config=ingest.yaml
//	go run ./cmd/ingest --registry-file=validators.yaml --storage=memory --addr=:8000
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nicheimage/ingest/api/httpserver"
	"github.com/nicheimage/ingest/auth"
	"github.com/nicheimage/ingest/cmd/common"
	"github.com/nicheimage/ingest/services"
)

func main() {
	var (
		configPath    = flag.String("config", "", "Path to YAML config file")
		addr          = flag.String("addr", "", "HTTP listen address")
		metricsAddr   = flag.String("metrics-addr", "", "Prometheus listen address")
		registryURL   = flag.String("registry-url", "", "Metagraph endpoint base URL")
		registryFile  = flag.String("registry-file", "", "Static validator file (overrides registry-url)")
		storage       = flag.String("storage", "", "Storage backend: postgres or memory")
		logLevel      = flag.String("log-level", "", "Log level: debug, info, warn, error")
		requireSigned = flag.Bool("require-signed", false, "Reject requests without a signature")
	)
	flag.Parse()

	cfg, err := loadConfiguration(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		fmt.Printf("Error reading environment: %v\n", err)
		os.Exit(1)
	}

	applyFlagOverrides(cfg, *addr, *metricsAddr, *registryURL, *registryFile, *storage, *logLevel, *requireSigned)

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Configuration error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		cancel()
	}()

	if err := run(ctx, cfg); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfiguration(configPath string) (*common.Config, error) {
	if configPath != "" {
		return common.LoadConfig(configPath)
	}
	return common.DefaultConfig(), nil
}

func applyFlagOverrides(cfg *common.Config, addr, metricsAddr, registryURL, registryFile,
	storage, logLevel string, requireSigned bool) {

	if addr != "" {
		cfg.HTTPAddr = addr
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}
	if registryURL != "" {
		cfg.Registry.Source = "http"
		cfg.Registry.URL = registryURL
	}
	if registryFile != "" {
		cfg.Registry.Source = "file"
		cfg.Registry.File = registryFile
	}
	if storage != "" {
		cfg.Storage.Backend = storage
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if requireSigned {
		cfg.Auth.AllowUnsigned = false
	}
}

func run(ctx context.Context, cfg *common.Config) error {
	log, err := common.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}

	source, err := common.NewSnapshotSource(cfg.Registry)
	if err != nil {
		return err
	}

	registry, err := auth.NewValidatorRegistry(&auth.RegistryConfig{
		Source:          source,
		RefreshInterval: cfg.Registry.RefreshInterval,
		FetchTimeout:    cfg.Registry.FetchTimeout,
		Log:             log.With("component", "registry"),
	})
	if err != nil {
		return err
	}
	go registry.Run(ctx)

	scheme, err := common.NewScheme(cfg.Auth.Scheme)
	if err != nil {
		return err
	}

	authenticator, err := auth.New(&auth.Config{
		Registry:        registry,
		Scheme:          scheme,
		FreshnessWindow: cfg.Auth.FreshnessWindow,
		AllowUnsigned:   cfg.Auth.AllowUnsigned,
		Log:             log.With("component", "auth"),
	})
	if err != nil {
		return err
	}
	if cfg.Auth.AllowUnsigned {
		log.Warn("Unsigned requests are accepted; set auth.allow_unsigned=false once all validators sign")
	}

	stores, err := common.NewStores(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer stores.Close()

	limiter := common.NewRateLimiter(cfg.RateLimit)
	if limiter != nil {
		go limiter.RunCleanup(ctx, 10*time.Minute)
	}

	ingest, err := services.NewIngestHandler(&services.IngestConfig{
		Authenticator: authenticator,
		Objects:       stores.Objects,
		Documents:     stores.Documents,
		Images:        common.NewGoJourneyClient(cfg.GoJourney, log.With("component", "gojourney")),
		RateLimiter:   limiter,
		MaxBodyBytes:  cfg.Auth.MaxBodyBytes,
		Log:           log.With("component", "ingest"),
	})
	if err != nil {
		return err
	}

	srv, err := httpserver.New(&httpserver.HTTPServerConfig{
		ListenAddr:               cfg.HTTPAddr,
		MetricsAddr:              cfg.MetricsAddr,
		EnablePprof:              cfg.Server.EnablePprof,
		Log:                      log,
		CORSAllowedOrigins:       cfg.CORS.AllowedOrigins,
		ReadinessCheck:           func() bool { return registry.Snapshot() != nil },
		DrainDuration:            cfg.Server.DrainDuration,
		GracefulShutdownDuration: cfg.Server.GracefulShutdown,
		ReadTimeout:              cfg.Server.ReadTimeout,
		WriteTimeout:             cfg.Server.WriteTimeout,
	}, ingest, services.NewRegistryHandler(registry))
	if err != nil {
		return err
	}

	srv.RunInBackground()
	<-ctx.Done()

	log.Info("Shutting down ingest service")
	srv.Shutdown()
	return nil
}
