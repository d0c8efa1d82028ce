// Package router assembles the HTTP API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nsaleh/spabook/internal/catalog"
	"github.com/nsaleh/spabook/internal/http/handlers"
	"github.com/nsaleh/spabook/internal/http/middleware"
	"github.com/nsaleh/spabook/internal/realtime"
	"github.com/nsaleh/spabook/internal/stats"
	"github.com/nsaleh/spabook/pkg/logging"
)

// Config carries the wired dependencies for the API router.
type Config struct {
	Bookings *handlers.Handler
	Catalog  *catalog.Handler
	Stats    *stats.Handler
	Hub      *realtime.Hub

	Logger             *logging.Logger
	CORSAllowedOrigins []string
}

// New builds the chi router with the standard middleware stack.
func New(cfg Config) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Compress(5))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.RequestLogger(cfg.Logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/availability", cfg.Bookings.GetDaySchedule)
	r.Get("/availability/check", cfg.Bookings.CheckInterval)

	r.Route("/bookings", func(r chi.Router) {
		r.Post("/", cfg.Bookings.CreateBooking)
		r.Get("/", cfg.Bookings.ListBookings)
		r.Post("/{bookingID}/approve", cfg.Bookings.ApproveBooking)
		r.Post("/{bookingID}/reject", cfg.Bookings.RejectBooking)
	})

	if cfg.Hub != nil {
		r.Get("/ws/availability", cfg.Hub.HandleWebSocket)
	}
	if cfg.Catalog != nil {
		r.Mount("/catalog", cfg.Catalog.Routes())
	}
	if cfg.Stats != nil {
		r.Get("/stats/days/{date}", cfg.Stats.GetDayStats)
	}

	return r
}
