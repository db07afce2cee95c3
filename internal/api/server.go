package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/ycxd3695-spec/token-management-system/internal/config"
)

type Server struct {
	config  *config.Config
	router  *mux.Router
	handler *Handler
	logger  *slog.Logger
}

func NewServer(cfg *config.Config, store TokenStore, logger *slog.Logger) *Server {
	server := &Server{
		config: cfg,
		router: mux.NewRouter(),
		logger: logger,
	}

	server.handler = NewHandler(cfg, store, logger)
	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handler.Health).Methods("GET")

	s.router.HandleFunc("/tokens", s.handler.ListTokens).Methods("GET")
	s.router.HandleFunc("/tokens", s.handler.CreateToken).Methods("POST")
	s.router.HandleFunc("/tokens/{id}", s.handler.UpdateToken).Methods("PUT")
	s.router.HandleFunc("/tokens/{id}", s.handler.DeleteToken).Methods("DELETE")

	// Metrics endpoint (Prometheus)
	s.router.Handle("/metrics", s.handler.MetricsHandler()).Methods("GET")

	// Preflight requests need a matching route: mux only runs Use
	// middleware on matched routes, and the CORS middleware answers
	// OPTIONS itself.
	s.router.PathPrefix("/").Methods("OPTIONS").HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	s.router.Use(s.instrumentationMiddleware)
	s.router.Use(corsMiddleware)
}

func (s *Server) Start() error {
	server := &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// Router exposes the configured router; tests mount it on httptest servers.
func (s *Server) Router() http.Handler {
	return s.router
}

// statusRecorder captures the status code a handler writes so the
// middleware can log and label it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrumentationMiddleware stamps a request id, records Prometheus
// metrics per route, and writes one structured log line per request.
func (s *Server) instrumentationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		duration := time.Since(start)
		s.handler.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		s.handler.requestDuration.WithLabelValues(r.Method, route).Observe(duration.Seconds())

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", duration,
			"request_id", requestID,
		)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
