// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tagpulse/internal/config"
	"tagpulse/internal/logging"
	"tagpulse/internal/metrics"
	"tagpulse/internal/server/handlers"
	"tagpulse/internal/service/listening"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server. stream may be nil, in which case the
// WebSocket endpoint answers 503.
func NewServer(
	cfg config.ServerConfig,
	analyzer *listening.Analyzer,
	stream handlers.Subscriber,
) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	// CORS configuration
	router.Use(cors.Handler(corsOptions(cfg.CorsOrigins)))

	// Create handler dependencies
	trendHandler := handlers.NewTrendHandler(analyzer)
	commentHandler := handlers.NewCommentHandler(analyzer)

	// Routes
	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		// API version
		r.Route("/v1", func(r chi.Router) {
			r.Route("/trending", func(r chi.Router) {
				r.Get("/", trendHandler.GetTrending)
				r.Get("/recommendations", trendHandler.GetRecommendations)
				r.Post("/analyze", trendHandler.AnalyzeItems)
			})

			r.Route("/comments", func(r chi.Router) {
				r.Get("/analyze", commentHandler.AnalyzeThread)
				r.Post("/analyze", commentHandler.AnalyzeComments)
			})
		})
	})

	router.Handle("/metrics", promhttp.Handler())

	// WebSocket endpoint for analysis events
	router.Get("/ws/analysis", handlers.AnalysisStreamHandler(stream, handlers.DefaultWebSocketConfig()))

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// corsOptions allows credentials only for explicit origins; browsers refuse
// credentialed responses to a wildcard origin.
func corsOptions(origins []string) cors.Options {
	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
			break
		}
	}

	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: !wildcard,
		MaxAge:           300,
	}
}

// requestLogger logs each request and records its latency by route pattern.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		metrics.RecordAPIRequest(r.Method, route, strconv.Itoa(status), elapsed)
		logging.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", elapsed).
			Msg("request served")
	})
}
