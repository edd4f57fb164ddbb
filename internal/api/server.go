package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/snarg/eras-engine/internal/config"
	"github.com/snarg/eras-engine/internal/metrics"
	"github.com/snarg/eras-engine/internal/pipeline"
	"github.com/snarg/eras-engine/internal/session"
)

// Server wires the HTTP surface to a session store and pipeline driver.
type Server struct {
	store  *session.Store
	driver *pipeline.Driver
	cfg    *config.Config
	log    zerolog.Logger

	Handler http.Handler
	http    *http.Server
}

// NewServer builds the router and installs every route and middleware.
func NewServer(store *session.Store, driver *pipeline.Driver, cfg *config.Config, log zerolog.Logger) *Server {
	s := &Server{
		store:  store,
		driver: driver,
		cfg:    cfg,
		log:    log.With().Str("component", "api").Logger(),
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(CORSWithOrigins(splitOrigins(cfg.CORSOrigins)))
	r.Use(RateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst))
	r.Use(Recoverer)
	r.Use(Logger(s.log))
	r.Use(metrics.InstrumentHandler)
	r.Use(ResponseTimeout(cfg.WriteTimeout))

	r.Get("/health", handleHealth)

	r.With(MaxBodySize(cfg.MaxUploadBytes)).Post("/upload", s.handleUpload)
	r.Post("/process/{session_id}", s.handleProcess)
	r.Get("/progress/{session_id}", s.handleProgress)
	r.Get("/session/{session_id}/summary", s.handleSummary)
	r.Get("/session/{session_id}/eras", s.handleEraList)
	r.Get("/session/{session_id}/eras/{era_id}", s.handleEraDetail)

	if cfg.MetricsEnabled {
		if err := prometheus.Register(metrics.NewCollector(store)); err != nil {
			var alreadyRegistered prometheus.AlreadyRegisteredError
			if !errors.As(err, &alreadyRegistered) {
				panic(err)
			}
		}
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	s.Handler = r
	s.http = &http.Server{
		Addr:        cfg.HTTPAddr,
		Handler:     r,
		ReadTimeout: cfg.ReadTimeout,
		IdleTimeout: cfg.IdleTimeout,
		// WriteTimeout is deliberately left at zero: the server-level
		// deadline would also cut off the progress stream, which is
		// bounded instead by its own 5-minute ceiling. Non-streaming
		// routes get ResponseTimeout middleware instead.
	}
	return s
}

// Start runs the HTTP server until it errors or Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.cfg.HTTPAddr).Msg("http server listening")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func splitOrigins(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
