package common

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nicheimage/ingest/auth"
)

// Config is the YAML configuration of the ingest service.
//
//	http_addr: ":8000"
//	metrics_addr: ":9090"
//	log:
//	  level: info
//	  json: true
//	auth:
//	  allow_unsigned: true
//	  freshness_window: 5s
//	registry:
//	  netuid: 23
//	  source: http
//	  url: https://metagraph.example
//	storage:
//	  backend: postgres
//	  postgres:
//	    database: nicheimage
//	  s3:
//	    bucket: nicheimage
//
// Database and AWS credentials are read from the environment (DB_USER,
// DB_PASSWORD, DB_HOST, DB_PORT, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY)
// and override the file.
type Config struct {
	HTTPAddr    string          `yaml:"http_addr"`
	MetricsAddr string          `yaml:"metrics_addr"`
	Log         LogConfig       `yaml:"log"`
	Auth        AuthConfig      `yaml:"auth"`
	Registry    RegistryConfig  `yaml:"registry"`
	Storage     StorageConfig   `yaml:"storage"`
	GoJourney   GoJourneyConfig `yaml:"gojourney"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	CORS        CORSConfig      `yaml:"cors"`
	Server      ServerConfig    `yaml:"server"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type AuthConfig struct {
	// AllowUnsigned keeps accepting requests from validators that do not sign.
	AllowUnsigned   bool          `yaml:"allow_unsigned"`
	FreshnessWindow time.Duration `yaml:"freshness_window"`
	Scheme          string        `yaml:"scheme"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

type RegistryConfig struct {
	NetUID uint16 `yaml:"netuid"`
	// Source is one of http or file.
	Source          string        `yaml:"source"`
	URL             string        `yaml:"url"`
	File            string        `yaml:"file"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`
}

type StorageConfig struct {
	// Backend is one of postgres or memory.
	Backend  string         `yaml:"backend"`
	Postgres PostgresConfig `yaml:"postgres"`
	S3       S3Config       `yaml:"s3"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type GoJourneyConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Timeout      time.Duration `yaml:"timeout"`
}

type RateLimitConfig struct {
	// RequestsPerSecond of zero disables rate limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type ServerConfig struct {
	EnablePprof      bool          `yaml:"pprof"`
	DrainDuration    time.Duration `yaml:"drain_duration"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		HTTPAddr:    ":8000",
		MetricsAddr: ":9090",
		Log:         LogConfig{Level: "info"},
		Auth: AuthConfig{
			AllowUnsigned:   true,
			FreshnessWindow: auth.DefaultFreshnessWindow,
			Scheme:          "sr25519",
			MaxBodyBytes:    auth.DefaultMaxBodyBytes,
		},
		Registry: RegistryConfig{
			NetUID:          23,
			Source:          "http",
			RefreshInterval: auth.DefaultRefreshInterval,
			FetchTimeout:    auth.DefaultFetchTimeout,
		},
		Storage: StorageConfig{
			Backend: "postgres",
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "nicheimage",
			},
			S3: S3Config{Bucket: "nicheimage"},
		},
		RateLimit: RateLimitConfig{RequestsPerSecond: 10, Burst: 50},
		Server: ServerConfig{
			DrainDuration:    5 * time.Second,
			GracefulShutdown: 30 * time.Second,
			ReadTimeout:      60 * time.Second,
			WriteTimeout:     5 * time.Minute,
		},
	}
}

// LoadConfig reads path over the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides credentials from the environment. getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("DB_USER"); v != "" {
		c.Storage.Postgres.User = v
	}
	if v := getenv("DB_PASSWORD"); v != "" {
		c.Storage.Postgres.Password = v
	}
	if v := getenv("DB_HOST"); v != "" {
		c.Storage.Postgres.Host = v
	}
	if v := getenv("DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DB_PORT %q: %w", v, err)
		}
		c.Storage.Postgres.Port = port
	}
	if v := getenv("AWS_ACCESS_KEY_ID"); v != "" {
		c.Storage.S3.AccessKeyID = v
	}
	if v := getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		c.Storage.S3.SecretAccessKey = v
	}
	return nil
}

// Validate checks that the selected backends are fully configured.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("http_addr is required")
	}

	switch c.Registry.Source {
	case "http":
		if c.Registry.URL == "" {
			return errors.New("registry.url is required for the http source")
		}
	case "file":
		if c.Registry.File == "" {
			return errors.New("registry.file is required for the file source")
		}
	default:
		return fmt.Errorf("unknown registry source %q", c.Registry.Source)
	}

	switch c.Storage.Backend {
	case "postgres":
		if c.Storage.Postgres.User == "" {
			return errors.New("postgres user is required (DB_USER)")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Auth.FreshnessWindow < 0 {
		return errors.New("auth.freshness_window must not be negative")
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return errors.New("rate_limit values must not be negative")
	}
	return nil
}
