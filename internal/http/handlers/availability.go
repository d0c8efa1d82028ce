// Package handlers exposes availability and booking operations over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nsaleh/spabook/internal/bookings"
	"github.com/nsaleh/spabook/internal/catalog"
	"github.com/nsaleh/spabook/pkg/logging"
)

// Handler serves availability queries and booking writes.
type Handler struct {
	svc     *bookings.Service
	catalog *catalog.Store
	logger  *logging.Logger
}

// NewHandler creates the booking HTTP handler. The catalog store is required:
// booking durations and prices come from it, never from the client.
func NewHandler(svc *bookings.Service, catalogStore *catalog.Store, logger *logging.Logger) *Handler {
	if svc == nil {
		panic("handlers: bookings service required")
	}
	if catalogStore == nil {
		panic("handlers: catalog store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, catalog: catalogStore, logger: logger}
}

// CreateBookingRequest is the POST /bookings payload. Duration is a canonical
// minute value that must match one of the service's catalog options.
type CreateBookingRequest struct {
	Date            string `json:"date"`
	StartMinutes    int    `json:"start_minutes"`
	ServiceID       string `json:"service_id"`
	DurationMinutes int    `json:"duration_minutes"`
	CustomerName    string `json:"customer_name"`
	PhoneNumber     string `json:"phone_number"`
	Notes           string `json:"notes,omitempty"`
}

// GetDaySchedule returns slots and grid for a date and duration.
// GET /availability?date=YYYY-MM-DD&duration=60
func (h *Handler) GetDaySchedule(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	duration, err := strconv.Atoi(r.URL.Query().Get("duration"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "duration must be an integer number of minutes")
		return
	}

	schedule, err := h.svc.DaySchedule(r.Context(), date, duration)
	if err != nil {
		if errors.Is(err, bookings.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to compute day schedule", "date", date, "duration_minutes", duration, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

// CheckInterval answers a point availability query for pre-submit
// validation.
// GET /availability/check?date=YYYY-MM-DD&start=300&duration=60
func (h *Handler) CheckInterval(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	start, err := strconv.Atoi(r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be an integer number of minutes")
		return
	}
	duration, err := strconv.Atoi(r.URL.Query().Get("duration"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "duration must be an integer number of minutes")
		return
	}

	available, err := h.svc.IsIntervalAvailable(r.Context(), date, start, duration)
	if err != nil {
		if errors.Is(err, bookings.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("availability check failed", "date", date, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"available": available})
}

// CreateBooking reserves a slot. The requested duration must be one of the
// service's catalog options; price is taken from the catalog, not the body.
// POST /bookings
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	svc, err := h.catalog.Get(r.Context(), req.ServiceID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "unknown service")
			return
		}
		h.logger.Error("failed to load service", "service_id", req.ServiceID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	option, ok := svc.Option(req.DurationMinutes)
	if !ok {
		writeError(w, http.StatusBadRequest, "duration not offered for this service")
		return
	}

	created, err := h.svc.CreateBooking(r.Context(), bookings.CreateBookingRequest{
		Date:            req.Date,
		StartMinutes:    req.StartMinutes,
		DurationMinutes: option.Minutes,
		CustomerName:    req.CustomerName,
		PhoneNumber:     req.PhoneNumber,
		Service:         svc.Name,
		PriceCents:      option.PriceCents,
		Notes:           req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrSlotTaken):
			writeError(w, http.StatusConflict, "slot no longer available")
		case errors.Is(err, bookings.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("failed to create booking", "date", req.Date, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListBookings returns the date's bookings for the admin timeline.
// GET /bookings?date=YYYY-MM-DD
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	list, err := h.svc.ListForDate(r.Context(), date)
	if err != nil {
		if errors.Is(err, bookings.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to list bookings", "date", date, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if list == nil {
		list = []bookings.Booking{}
	}
	writeJSON(w, http.StatusOK, list)
}

// ApproveBooking promotes a pending booking after re-checking its interval.
// POST /bookings/{bookingID}/approve
func (h *Handler) ApproveBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bookingID(w, r)
	if !ok {
		return
	}
	if err := h.svc.ApproveBooking(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, bookings.ErrNotFound):
			writeError(w, http.StatusNotFound, "booking not found")
		case errors.Is(err, bookings.ErrSlotTaken):
			writeError(w, http.StatusConflict, "slot no longer available")
		case errors.Is(err, bookings.ErrInvalidRequest):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.logger.Error("failed to approve booking", "booking_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": bookings.StatusApproved})
}

// RejectBooking marks a booking rejected.
// POST /bookings/{bookingID}/reject
func (h *Handler) RejectBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bookingID(w, r)
	if !ok {
		return
	}
	if err := h.svc.RejectBooking(r.Context(), id); err != nil {
		if errors.Is(err, bookings.ErrNotFound) {
			writeError(w, http.StatusNotFound, "booking not found")
			return
		}
		h.logger.Error("failed to reject booking", "booking_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": bookings.StatusRejected})
}

func (h *Handler) bookingID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "bookingID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
