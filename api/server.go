// Package api serves stock reports, charts and live quotes over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/seenimoa/stockdesk/internal/analysis/fundamental"
	"github.com/seenimoa/stockdesk/internal/analysis/technical"
	"github.com/seenimoa/stockdesk/internal/config"
	"github.com/seenimoa/stockdesk/internal/upstream"
	"github.com/seenimoa/stockdesk/pkg/models"
)

// Provider is the typed FMP layer the handlers read from.
type Provider interface {
	fundamental.Source
	technical.HistorySource
}

// NewsService looks up articles for a ticker.
type NewsService interface {
	StockNews(ctx context.Context, ticker string) ([]models.NewsArticle, error)
}

// StatusReporter exposes the upstream client's local state.
type StatusReporter interface {
	Status() upstream.Status
}

// Deps are the collaborators a Server needs.
type Deps struct {
	Provider Provider
	News     NewsService
	Upstream StatusReporter
	Gatherer prometheus.Gatherer // nil disables /metrics
	Logger   *zap.Logger
	Now      func() time.Time
}

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	deps   Deps
	log    *zap.Logger
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	s := &Server{cfg: cfg, deps: deps, log: deps.Logger}
	s.router = s.buildRouter()
	return s
}

// Router returns the root handler.
func (s *Server) Router() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests for up to 15 seconds.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              s.cfg.API.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(s.log))
	r.Use(middleware.Recoverer)

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, "Retry-After"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	if s.deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{
			ErrorHandling: promhttp.ContinueOnError,
		}))
	}

	// The stream outlives the request timeout.
	r.Get("/ws/quotes", s.handleQuoteStream)

	r.Group(func(r chi.Router) {
		timeout := s.cfg.API.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		r.Use(middleware.Timeout(timeout))

		r.Get("/api/get_stock_news", s.handleNews)
		r.Get("/api/get_dcf", s.handleDCF)
		r.Get("/api/earnings", s.handleEarnings)
		r.Get("/api/quote", s.handleQuote)
		r.Get("/api/status", s.handleStatus)
		r.Get("/generate_stock_chart", s.handleChart)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
