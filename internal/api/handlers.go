package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ycxd3695-spec/token-management-system/internal/config"
	"github.com/ycxd3695-spec/token-management-system/internal/models"
)

// TokenStore is what the handlers need from the store layer; tests
// substitute a fake.
type TokenStore interface {
	List(ctx context.Context) ([]models.Token, error)
	Insert(ctx context.Context, in models.TokenInput) (models.Token, error)
	Update(ctx context.Context, id string, in models.TokenInput) (models.Token, error)
	Delete(ctx context.Context, id string) (models.Token, error)
}

type Handler struct {
	config *config.Config
	store  TokenStore
	logger *slog.Logger

	// Prometheus metrics, on a per-handler registry so tests can build
	// servers freely without duplicate-registration panics.
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewHandler(cfg *config.Config, store TokenStore, logger *slog.Logger) *Handler {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	registry.MustRegister(requestsTotal, requestDuration)

	return &Handler{
		config:          cfg,
		store:           store,
		logger:          logger,
		registry:        registry,
		requestsTotal:   requestsTotal,
		requestDuration: requestDuration,
	}
}

// tokenRequest is the mutation body. The secret itself arrives in the
// "token" field; it becomes the record's value.
type tokenRequest struct {
	Name      string `json:"name"`
	Token     string `json:"token"`
	Tag       string `json:"tag"`
	CreatedAt string `json:"createdAt"`
}

func (r tokenRequest) input() models.TokenInput {
	return models.TokenInput{
		Name:      r.Name,
		Value:     r.Token,
		Tag:       r.Tag,
		CreatedAt: r.CreatedAt,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"repo":   h.config.Target(),
		"file":   h.config.FilePath,
	})
}

func (h *Handler) ListTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.store.List(r.Context())
	if err != nil {
		h.writeStoreError(w, "failed to load tokens", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"tokens":  tokens,
	})
}

func (h *Handler) CreateToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	created, err := h.store.Insert(r.Context(), req.input())
	if err != nil {
		h.writeStoreError(w, "failed to add token", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   created,
	})
}

func (h *Handler) UpdateToken(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	updated, err := h.store.Update(r.Context(), id, req.input())
	if err != nil {
		h.writeStoreError(w, "failed to update token", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   updated,
	})
}

func (h *Handler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	removed, err := h.store.Delete(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, "failed to delete token", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   removed,
	})
}

func (h *Handler) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})
}

// writeStoreError maps store error kinds to status codes. Anything not
// recognized is a remote-store failure.
func (h *Handler) writeStoreError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrDuplicate):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	default:
		h.logger.Error(message, "error", err)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := map[string]any{
		"success": false,
		"message": message,
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
