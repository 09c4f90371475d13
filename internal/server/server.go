// Package server exposes the sales predictor over HTTP and websockets.
package server

import (
	"context"
	"net/http"
	"time"

	"grocery-sales/internal/metrics"
	"grocery-sales/internal/ml"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

// Options configures the HTTP surface.
type Options struct {
	Addr           string
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// Server routes prediction requests to a predictor.
type Server struct {
	predictor ml.PredictorInterface
	metrics   *metrics.Metrics
	opts      Options
	router    *chi.Mux
	http      *http.Server
}

// New builds the router. m may be nil, in which case /metrics is not served.
func New(predictor ml.PredictorInterface, m *metrics.Metrics, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		predictor: predictor,
		metrics:   m,
		opts:      opts,
	}
	s.setupRoutes()

	s.http = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: opts.RequestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)
	r.Use(cors(s.opts.AllowedOrigins))

	// Websocket streams are long-lived and stay outside the request timeout.
	r.Get("/api/predict/ws", s.handlePredictWS)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.opts.RequestTimeout))

		r.Get("/health", s.handleHealth)

		r.Route("/api", func(r chi.Router) {
			r.Post("/predict", s.handlePredict)
			r.Post("/predict/form", s.handlePredictForm)
			r.Get("/item-types", s.handleItemTypes)
			r.Get("/outlet-types", s.handleOutletTypes)
			r.Get("/model/info", s.handleModelInfo)
		})

		if s.metrics != nil {
			r.Handle("/metrics", s.metrics.Handler())
		}
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start serves until Shutdown is called. It returns http.ErrServerClosed
// after a graceful shutdown.
func (s *Server) Start() error {
	log.Info().Str("addr", s.opts.Addr).Msg("Starting prediction server")
	return s.http.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
