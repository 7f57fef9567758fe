// Package api is the HTTP boundary of the service: JSON to PDF conversion
// and the template endpoints backed by the NocoBase record store.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/lvillar/pdfgen/assets"
	"github.com/lvillar/pdfgen/document"
	"github.com/lvillar/pdfgen/internal/config"
	"github.com/lvillar/pdfgen/internal/logging"
	"github.com/lvillar/pdfgen/internal/metrics"
	"github.com/lvillar/pdfgen/nocobase"
)

// Deps are the collaborators of a Server. Directory and Default may be nil
// when the corresponding store is not configured; the endpoints that need
// them then answer 503.
type Deps struct {
	Converter *document.Converter
	Directory *nocobase.Client
	Default   *nocobase.Client
	Stores    *nocobase.Pool
}

// Server routes API requests.
type Server struct {
	cfg    *config.Config
	deps   Deps
	router chi.Router
}

// New creates a Server.
func New(cfg *config.Config, deps Deps) *Server {
	if deps.Converter == nil {
		deps.Converter = document.New(document.WithHooks(metrics.DocumentHooks()))
	}
	if deps.Stores == nil {
		deps.Stores = nocobase.NewPool(cfg.NocoBase.PoolSize, storeOptions(cfg)...)
	}
	s := &Server{cfg: cfg, deps: deps}
	s.router = s.routes()
	return s
}

// FromConfig builds a Server and its collaborators from cfg.
func FromConfig(cfg *config.Config) (*Server, error) {
	fetcher, err := assets.New(
		assets.WithTimeout(cfg.Assets.Timeout),
		assets.WithMaxBytes(cfg.Assets.MaxBytes),
		assets.WithAllowedHosts(cfg.Assets.AllowedHosts...),
		assets.WithCache(cfg.Assets.CacheSize, cfg.Assets.CacheTTL),
	)
	if err != nil {
		return nil, err
	}
	deps := Deps{
		Converter: document.New(
			document.WithFetcher(fetcher),
			document.WithFetchLimit(cfg.Assets.Concurrency),
			document.WithHooks(metrics.DocumentHooks()),
		),
	}
	opts := storeOptions(cfg)
	if d := cfg.NocoBase.Directory; d.Configured() {
		if deps.Directory, err = nocobase.New(d.URL, storeCredentials(d), opts...); err != nil {
			return nil, err
		}
	}
	if d := cfg.NocoBase.Default; d.Configured() {
		if deps.Default, err = nocobase.New(d.URL, storeCredentials(d), opts...); err != nil {
			return nil, err
		}
	}
	return New(cfg, deps), nil
}

func storeOptions(cfg *config.Config) []nocobase.Option {
	nc := cfg.NocoBase
	return []nocobase.Option{
		nocobase.WithTimeout(nc.Timeout),
		nocobase.WithRateLimit(nc.RequestsPerSecond, nc.Burst),
		nocobase.WithBreaker(nc.BreakerMinRequests, nc.BreakerFailureRatio, nc.BreakerOpenTimeout),
		nocobase.WithStateHook(metrics.RecordBreakerTransition),
		nocobase.WithLogger(logging.WithComponent("nocobase")),
	}
}

// storeCredentials fills in the host header from the store URL when the
// configuration leaves it out.
func storeCredentials(s config.StoreConfig) nocobase.Credentials {
	host := s.Host
	if host == "" {
		host = hostOf(s.URL)
	}
	return nocobase.Credentials{Token: s.Token, App: s.App, Host: host}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	mw := newMiddleware(s.cfg)

	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(mw.cors)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, message{Message: "Not Found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, message{Message: "Method Not Allowed"})
	})

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(mw.rateLimit)
		r.Use(chimiddleware.Timeout(s.requestTimeout()))

		r.Post("/jsontopdf", s.handleJSONToPDF)
		r.Post("/createpdf", s.handleCreatePDF)
		r.Post("/fillpdf", s.handleFillPDF)
		r.Post("/templates/all", s.handleTemplates)
		r.Post("/data/tables", s.handleTables)
		r.Post("/data/list", s.handleList)
		r.Post("/login", s.handleLogin)
	})
	return r
}

func (s *Server) requestTimeout() time.Duration {
	if t := s.cfg.Server.WriteTimeout; t > 0 {
		return t
	}
	return 2 * time.Minute
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stores := map[string]string{}
	if s.deps.Directory != nil {
		stores["directory"] = s.deps.Directory.State()
	}
	if s.deps.Default != nil {
		stores["default"] = s.deps.Default.State()
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "stores": stores})
}
