package assets

import (
	"net/http"
	"time"
)

// Option is a functional option for configuring a Fetcher via New.
type Option func(*fetcherConfig)

type fetcherConfig struct {
	client       *http.Client
	timeout      time.Duration
	maxBytes     int64
	allowedHosts []string
	cacheSize    int
	cacheTTL     time.Duration
}

// WithHTTPClient uses c for remote fetches. It takes precedence over WithTimeout.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *fetcherConfig) {
		cfg.client = c
	}
}

// WithTimeout bounds each remote fetch.
func WithTimeout(d time.Duration) Option {
	return func(cfg *fetcherConfig) {
		if d > 0 {
			cfg.timeout = d
		}
	}
}

// WithMaxBytes limits the size of a fetched asset.
func WithMaxBytes(n int64) Option {
	return func(cfg *fetcherConfig) {
		if n > 0 {
			cfg.maxBytes = n
		}
	}
}

// WithAllowedHosts restricts remote fetches to hosts matching one of the
// glob patterns, e.g. "*.example.com". Segments are separated by dots.
func WithAllowedHosts(patterns ...string) Option {
	return func(cfg *fetcherConfig) {
		cfg.allowedHosts = append(cfg.allowedHosts, patterns...)
	}
}

// WithCache keeps up to size successful fetches for ttl.
func WithCache(size int, ttl time.Duration) Option {
	return func(cfg *fetcherConfig) {
		cfg.cacheSize = size
		cfg.cacheTTL = ttl
	}
}
