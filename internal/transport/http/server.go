package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/NewsFlow/pkg/config"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter mounts the news API, health check and metrics.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestLogger)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/news", h.ListNews).Methods(http.MethodGet)
	api.HandleFunc("/news/latest", h.LatestNews).Methods(http.MethodGet)
	api.HandleFunc("/news/{id}", h.NewsByID).Methods(http.MethodGet)
	api.HandleFunc("/sources/{source}/news", h.SourceNews).Methods(http.MethodGet)
	api.HandleFunc("/contact", h.Contact).Methods(http.MethodPost)
	api.HandleFunc("/cache", h.PurgeCache).Methods(http.MethodDelete)
	api.HandleFunc("/cache/{key}", h.PurgeCache).Methods(http.MethodDelete)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := fmt.Fprintf(w, "OK"); err != nil {
			slog.Debug("Failed to write health response", "error", err)
		}
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func NewHTTPServer(cfg *config.Config, router *mux.Router) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		slog.Info("Handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", requestID,
		)
	})
}
