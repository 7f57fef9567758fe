// Package config loads the service configuration: struct defaults, an
// optional YAML file, the legacy flat environment variables of earlier
// deployments and finally PDFGEN_ prefixed variables, in that order.
package config

import (
	"time"

	"github.com/lvillar/pdfgen"
	"github.com/lvillar/pdfgen/internal/logging"
)

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	CORS      CORSConfig      `koanf:"cors"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Assets    AssetsConfig    `koanf:"assets"`
	NocoBase  NocoBaseConfig  `koanf:"nocobase"`
	Logging   logging.Config  `koanf:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gte=0"`
	BodyLimit       int64         `koanf:"body_limit" validate:"gt=0"`
	UploadLimit     int64         `koanf:"upload_limit" validate:"gt=0"`
}

// CORSConfig lists the allowed cross-origin callers.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
	AllowedMethods []string `koanf:"allowed_methods"`
	AllowedHeaders []string `koanf:"allowed_headers"`
}

// RateLimitConfig bounds requests per client IP.
type RateLimitConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Requests int           `koanf:"requests" validate:"gte=0"`
	Window   time.Duration `koanf:"window" validate:"gte=0"`
}

// AssetsConfig controls the fetching of logos and attachments.
type AssetsConfig struct {
	Timeout      time.Duration `koanf:"timeout" validate:"gte=0"`
	MaxBytes     int64         `koanf:"max_bytes" validate:"gte=0"`
	AllowedHosts []string      `koanf:"allowed_hosts"`
	CacheSize    int           `koanf:"cache_size" validate:"gte=0"`
	CacheTTL     time.Duration `koanf:"cache_ttl" validate:"gte=0"`
	Concurrency  int           `koanf:"concurrency" validate:"gte=0"`
}

// StoreConfig locates one NocoBase application.
type StoreConfig struct {
	URL   string `koanf:"url" validate:"omitempty,url"`
	Token string `koanf:"token"`
	App   string `koanf:"app"`
	Host  string `koanf:"host"`
}

// Configured reports whether the store can be reached.
func (s StoreConfig) Configured() bool {
	return s.URL != "" && s.Token != ""
}

// NocoBaseConfig configures the record store clients.
type NocoBaseConfig struct {
	// Directory holds the users and the form templates.
	Directory StoreConfig `koanf:"directory"`

	// Default is the record store used when a request names no user.
	Default StoreConfig `koanf:"default"`

	Timeout             time.Duration `koanf:"timeout" validate:"gte=0"`
	RequestsPerSecond   float64       `koanf:"requests_per_second" validate:"gte=0"`
	Burst               int           `koanf:"burst" validate:"gte=0"`
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio" validate:"gte=0,lte=1"`
	BreakerOpenTimeout  time.Duration `koanf:"breaker_open_timeout" validate:"gte=0"`
	PoolSize            int           `koanf:"pool_size" validate:"gte=0"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    2 * time.Minute,
			ShutdownTimeout: 15 * time.Second,
			BodyLimit:       10 << 20,
			UploadLimit:     32 << 20,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Content-Type"},
		},
		RateLimit: RateLimitConfig{
			Enabled:  true,
			Requests: 120,
			Window:   time.Minute,
		},
		Assets: AssetsConfig{
			Timeout:     15 * time.Second,
			MaxBytes:    20 << 20,
			CacheSize:   128,
			CacheTTL:    10 * time.Minute,
			Concurrency: 4,
		},
		NocoBase: NocoBaseConfig{
			Default:             StoreConfig{URL: "http://localhost:13000/"},
			Timeout:             30 * time.Second,
			RequestsPerSecond:   10,
			Burst:               20,
			BreakerMinRequests:  10,
			BreakerFailureRatio: 0.6,
			BreakerOpenTimeout:  30 * time.Second,
			PoolSize:            64,
		},
		Logging: logging.Config{
			Level:     "info",
			Format:    "json",
			Timestamp: true,
		},
	}
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	return pdfgen.Validate(c)
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + itoa(c.Server.Port)
}
