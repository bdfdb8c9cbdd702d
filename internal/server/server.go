// Package server exposes the tweet normalizer over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/example/go-tweetnorm/internal/config"
	"github.com/example/go-tweetnorm/internal/filter"
	"github.com/example/go-tweetnorm/internal/phrase"
)

// Normalizer turns one tweet into tokens.
type Normalizer interface {
	Normalize(input string) filter.Result
}

// PhraseMatcher reports stored phrases found in a token sequence.
type PhraseMatcher interface {
	Matches(tokens []string) []phrase.Match
	Len() int
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxTextBytes   int
	maxBatch       int
	workers        int
	requestTimeout time.Duration
	corsOrigins    []string
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		maxTextBytes:   4096,
		maxBatch:       256,
		workers:        4,
		requestTimeout: 10 * time.Second,
		corsOrigins:    []string{"*"},
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxTextBytes sets the maximum allowed length in bytes of one text.
func WithMaxTextBytes(n int) Option {
	return func(o *options) { o.maxTextBytes = n }
}

// WithMaxBatch sets the maximum number of texts in one batch request.
func WithMaxBatch(n int) Option {
	return func(o *options) { o.maxBatch = n }
}

// WithWorkers sets the maximum number of concurrent normalization calls.
// Zero disables the limit.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout sets the per-request deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins []string) Option {
	return func(o *options) { o.corsOrigins = origins }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

// handler holds the dependencies needed to serve HTTP requests.
type handler struct {
	norm    Normalizer
	matcher PhraseMatcher
	opts    options
	sem     chan struct{} // semaphore for worker pool
	log     *slog.Logger
}

// NewHandler returns an http.Handler that serves GET /health,
// POST /v1/tokenize, POST /v1/normalize and GET /v1/phrases/match.
func NewHandler(norm Normalizer, matcher PhraseMatcher, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	if matcher == nil {
		matcher = phrase.New()
	}

	h := &handler{
		norm:    norm,
		matcher: matcher,
		opts:    opts,
		log:     opts.logger,
	}
	if opts.workers > 0 {
		h.sem = make(chan struct{}, opts.workers)
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(requestID)
	r.Use(h.logRequests)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", h.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/tokenize", h.handleTokenize)
		r.Post("/normalize", h.handleNormalize)
		r.Get("/phrases/match", h.handleMatch)
	})

	return r
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// acquire takes a worker slot, honouring ctx while waiting. The returned
// release func is nil when ctx ended first.
func (h *handler) acquire(ctx context.Context) func() {
	if h.sem == nil {
		return func() {}
	}
	select {
	case h.sem <- struct{}{}:
		return func() { <-h.sem }
	case <-ctx.Done():
		return nil
	}
}

// ---------------------------------------------------------------------------
// Server wires the handler into net/http.Server with graceful shutdown
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.ServerConfig
	handler         http.Handler
	log             *slog.Logger
	shutdownTimeout time.Duration
}

// New builds a server from cfg. A nil logger means slog.Default().
func New(cfg config.ServerConfig, norm Normalizer, matcher PhraseMatcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	h := NewHandler(norm, matcher,
		WithWorkers(cfg.Workers),
		WithMaxTextBytes(cfg.MaxTextBytes),
		WithMaxBatch(cfg.MaxBatch),
		WithRequestTimeout(time.Duration(cfg.RequestTimeout)*time.Second),
		WithCORSOrigins(cfg.CORSOrigins),
		WithLogger(logger),
	)

	shutdown := 30 * time.Second
	if cfg.ShutdownTimeout > 0 {
		shutdown = time.Duration(cfg.ShutdownTimeout) * time.Second
	}

	return &Server{
		cfg:             cfg,
		handler:         h,
		log:             logger,
		shutdownTimeout: shutdown,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	s.log.Info("listening", slog.String("addr", s.cfg.ListenAddr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		s.log.Info("server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

// CheckHealth returns an error unless the server at addr answers /health with 200.
func CheckHealth(addr string) error {
	_, err := FetchHealth(addr)
	return err
}

// FetchHealth queries /health on the server at addr.
func FetchHealth(addr string) (Health, error) {
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return Health{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Health{}, fmt.Errorf("unexpected health status: %s", resp.Status)
	}

	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return Health{}, fmt.Errorf("decode health: %w", err)
	}
	return h, nil
}
