// Package nocobase is a small client for the REST API of a NocoBase
// instance, the record store that keeps form templates, users and the
// customer data they are filled from.
//
// Every request is paced by a token bucket and guarded by a circuit
// breaker, so an unavailable store fails fast instead of tying up request
// handlers.
package nocobase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/lvillar/pdfgen"
)

// maxErrorBody limits how much of a failed response is kept for the error.
const maxErrorBody = 64 * 1024

// Credentials authenticate against one NocoBase application. Token and Host
// are required; App may be empty for single-application deployments.
type Credentials struct {
	Token string `json:"token" validate:"required"`
	App   string `json:"app"`
	Host  string `json:"host" validate:"required"`
}

// Validate reports missing credentials as a *pdfgen.ValidationError.
func (c Credentials) Validate() error {
	return pdfgen.Validate(c)
}

// Client talks to a single NocoBase instance. A Client is safe for
// concurrent use.
type Client struct {
	base    *url.URL
	cred    Credentials
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]byte]
	log     zerolog.Logger
	name    string
}

// New creates a client for the instance at baseURL, e.g.
// "https://noco.example.com/". Requests go to baseURL + "api/".
func New(baseURL string, cred Credentials, opts ...Option) (*Client, error) {
	if err := cred.Validate(); err != nil {
		return nil, err
	}
	base, err := parseBase(baseURL)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Client{
		base:    base,
		cred:    cred,
		http:    cfg.httpClient,
		limiter: rate.NewLimiter(cfg.rps, cfg.burst),
		log:     cfg.logger.With().Str("component", "nocobase").Str("host", base.Host).Logger(),
		name:    "nocobase-" + base.Host,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: cfg.timeout}
	}
	c.cb = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        c.name,
		MaxRequests: cfg.halfOpenRequests,
		Interval:    cfg.interval,
		Timeout:     cfg.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.minRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= cfg.failureRatio {
				c.log.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", ratio*100).Msg("opening circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Info().Str("from", from.String()).Str("to", to.String()).Msg("circuit state changed")
			if cfg.stateHook != nil {
				cfg.stateHook(name, from.String(), to.String())
			}
		},
		// Client errors say nothing about the health of the store.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < 500
			}
			return err == nil
		},
	})
	return c, nil
}

func parseBase(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &pdfgen.ValidationError{Fields: []pdfgen.FieldError{{
			Field: "url", Tag: "url", Value: raw, Message: "url must be an absolute URL",
		}}}
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u, nil
}

// BaseURL returns the instance URL the client was created with.
func (c *Client) BaseURL() string { return c.base.String() }

// State returns the current circuit breaker state: "closed", "half-open"
// or "open".
func (c *Client) State() string { return c.cb.State().String() }

// endpoint builds the URL of an API action such as "users:list".
func (c *Client) endpoint(action string, query url.Values) string {
	u := *c.base
	u.Path += "api/" + action
	u.RawQuery = query.Encode()
	return u.String()
}

// request describes one API call.
type request struct {
	method      string
	action      string
	query       url.Values
	body        []byte
	contentType string
	header      http.Header
	anonymous   bool // omit the bearer token
}

// envelope is the response shape shared by every NocoBase action.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Meta   *Meta           `json:"meta,omitempty"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

// Meta carries the paging information of list responses.
type Meta struct {
	Count     int `json:"count"`
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	TotalPage int `json:"totalPage"`
}

// do sends req and decodes the envelope. A response carrying errors is
// reported as an *APIError even when its status is 2xx.
func (c *Client) do(ctx context.Context, req request) (*envelope, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("nocobase: %s: %w", req.action, err)
	}

	start := time.Now()
	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.send(ctx, req)
	})
	log := zerolog.Ctx(ctx)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			log.Warn().Err(err).Str("action", req.action).Msg("request rejected by circuit breaker")
		}
		return nil, err
	}
	log.Debug().Str("action", req.action).Dur("elapsed", time.Since(start)).Msg("nocobase request")

	var env envelope
	if len(bytes.TrimSpace(body)) == 0 {
		return &env, nil
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("nocobase: %s: decoding response: %w", req.action, err)
	}
	if len(env.Errors) > 0 {
		apiErr := &APIError{Action: req.action, StatusCode: http.StatusBadRequest}
		for _, e := range env.Errors {
			apiErr.Messages = append(apiErr.Messages, e.Message)
		}
		return nil, apiErr
	}
	return &env, nil
}

func (c *Client) send(ctx context.Context, req request) ([]byte, error) {
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	hr, err := http.NewRequestWithContext(ctx, req.method, c.endpoint(req.action, req.query), body)
	if err != nil {
		return nil, fmt.Errorf("nocobase: %s: %w", req.action, err)
	}
	hr.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		hr.Header.Set("Content-Type", req.contentType)
	}
	if !req.anonymous {
		hr.Header.Set("Authorization", "Bearer "+c.cred.Token)
		hr.Header.Set("X-Host", c.cred.Host)
	}
	hr.Header.Set("X-App", c.cred.App)
	for k, v := range req.header {
		hr.Header[k] = v
	}

	resp, err := c.http.Do(hr)
	if err != nil {
		return nil, fmt.Errorf("nocobase: %s: %w", req.action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, newAPIError(req.action, resp.StatusCode, data)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("nocobase: %s: reading response: %w", req.action, err)
	}
	return data, nil
}

// filterQuery encodes a NocoBase filter expression.
func filterQuery(filter Filter) (url.Values, error) {
	q := url.Values{}
	if len(filter) == 0 {
		return q, nil
	}
	b, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("nocobase: encoding filter: %w", err)
	}
	q.Set("filter", string(b))
	return q, nil
}
