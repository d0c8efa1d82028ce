package catalog

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nsaleh/spabook/pkg/logging"
)

// Handler provides HTTP endpoints for the service catalog.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

// NewHandler creates a catalog HTTP handler.
func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// Routes returns a chi router with catalog routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/services", h.ListServices)
	r.Get("/services/{serviceID}", h.GetService)
	r.Put("/services", h.ReplaceServices)
	return r
}

// ListServices returns the full catalog.
// GET /catalog/services
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("failed to load catalog", "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, services)
}

// GetService returns one service with its duration options.
// GET /catalog/services/{serviceID}
func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "serviceID")
	svc, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, `{"error": "service not found"}`, http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load service", "service_id", id, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

// ReplaceServices stores a new catalog after validating every duration
// option.
// PUT /catalog/services
func (h *Handler) ReplaceServices(w http.ResponseWriter, r *http.Request) {
	var services []Service
	if err := json.NewDecoder(r.Body).Decode(&services); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	if err := h.store.Replace(r.Context(), services); err != nil {
		if errors.Is(err, ErrInvalid) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		h.logger.Error("failed to save catalog", "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	h.logger.Info("catalog replaced", "services", len(services))
	writeJSON(w, http.StatusOK, services)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
