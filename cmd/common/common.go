// Package common provides shared utilities for the ingest CLI commands.
//
// This package contains the configuration file format and the factory
// functions that turn it into running components:
//
//   - Logger construction from the log section
//   - Document and object store selection
//   - Validator snapshot source selection
//   - Signature scheme and rate limiter construction
package common

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"github.com/nicheimage/ingest/auth"
	"github.com/nicheimage/ingest/crypto"
	"github.com/nicheimage/ingest/services"
)

// NewLogger builds a slog logger writing to w.
func NewLogger(cfg LogConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.Level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.JSON {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// NewSnapshotSource creates the configured validator source.
func NewSnapshotSource(cfg RegistryConfig) (auth.SnapshotSource, error) {
	switch cfg.Source {
	case "http":
		return services.NewHTTPMetagraphSource(cfg.URL, cfg.NetUID), nil
	case "file":
		return services.NewFileSource(cfg.File), nil
	}
	return nil, fmt.Errorf("unknown registry source %q", cfg.Source)
}

// NewScheme resolves the configured signature scheme.
func NewScheme(name string) (crypto.Scheme, error) {
	return crypto.SchemeByName(name)
}

// Stores bundles the persistence backends. Close releases them.
type Stores struct {
	Documents services.DocumentStore
	Objects   services.ObjectStore
	Close     func() error
}

// NewStores opens the configured backends.
func NewStores(ctx context.Context, cfg StorageConfig) (*Stores, error) {
	switch cfg.Backend {
	case "memory":
		return &Stores{
			Documents: services.NewInMemoryStore(),
			Objects:   services.NewMemoryObjectStore(cfg.S3.Bucket),
			Close:     func() error { return nil },
		}, nil

	case "postgres":
		pg, err := services.NewPostgresStore(&services.PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
			SSLMode:  cfg.Postgres.SSLMode,
		})
		if err != nil {
			return nil, err
		}

		objects, err := services.NewS3Store(ctx, &services.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Endpoint:        cfg.S3.Endpoint,
		})
		if err != nil {
			pg.Close()
			return nil, err
		}

		return &Stores{Documents: pg, Objects: objects, Close: pg.Close}, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// NewRateLimiter returns nil when rate limiting is disabled.
func NewRateLimiter(cfg RateLimitConfig) *services.IPRateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return services.NewIPRateLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
}

// NewGoJourneyClient applies overrides on top of the public API defaults.
func NewGoJourneyClient(cfg GoJourneyConfig, log *slog.Logger) *services.GoJourneyClient {
	client := services.NewGoJourneyClient(log)
	if cfg.Endpoint != "" {
		client.Endpoint = cfg.Endpoint
	}
	if cfg.PollInterval > 0 {
		client.PollInterval = cfg.PollInterval
	}
	if cfg.Timeout > 0 {
		client.Timeout = cfg.Timeout
	}
	return client
}
