package nocobase

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Option is a functional option for configuring a Client via New.
type Option func(*clientConfig)

type clientConfig struct {
	httpClient *http.Client
	timeout    time.Duration
	rps        rate.Limit
	burst      int
	logger     zerolog.Logger

	halfOpenRequests uint32
	interval         time.Duration
	openTimeout      time.Duration
	minRequests      uint32
	failureRatio     float64
	stateHook        func(name, from, to string)
}

func defaultConfig() clientConfig {
	return clientConfig{
		timeout:          30 * time.Second,
		rps:              10,
		burst:            20,
		logger:           zerolog.Nop(),
		halfOpenRequests: 3,
		interval:         time.Minute,
		openTimeout:      30 * time.Second,
		minRequests:      10,
		failureRatio:     0.6,
	}
}

// WithHTTPClient sets the HTTP client used for requests. It takes
// precedence over WithTimeout.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *clientConfig) {
		cfg.httpClient = c
	}
}

// WithTimeout bounds every request. The default is 30 seconds.
func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) {
		if d > 0 {
			cfg.timeout = d
		}
	}
}

// WithRateLimit paces outgoing requests. A non-positive rps disables
// pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(cfg *clientConfig) {
		if rps <= 0 {
			cfg.rps = rate.Inf
			return
		}
		cfg.rps = rate.Limit(rps)
		cfg.burst = max(burst, 1)
	}
}

// WithBreaker configures the circuit breaker: it opens once at least
// minRequests were made in the current interval and the failure ratio
// reaches failureRatio, and stays open for openTimeout.
func WithBreaker(minRequests uint32, failureRatio float64, openTimeout time.Duration) Option {
	return func(cfg *clientConfig) {
		if minRequests > 0 {
			cfg.minRequests = minRequests
		}
		if failureRatio > 0 && failureRatio <= 1 {
			cfg.failureRatio = failureRatio
		}
		if openTimeout > 0 {
			cfg.openTimeout = openTimeout
		}
	}
}

// WithStateHook is called on every circuit breaker transition.
func WithStateHook(fn func(name, from, to string)) Option {
	return func(cfg *clientConfig) {
		cfg.stateHook = fn
	}
}

// WithLogger sets the logger for breaker transitions.
func WithLogger(l zerolog.Logger) Option {
	return func(cfg *clientConfig) {
		cfg.logger = l
	}
}
