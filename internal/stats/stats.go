// Package stats computes admin dashboard aggregates for the booking
// timeline.
package stats

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/nsaleh/spabook/internal/schedule"
	"github.com/nsaleh/spabook/pkg/logging"
)

// DayStats summarizes one date for the admin dashboard.
type DayStats struct {
	Date               string  `json:"date"`
	TotalBookings      int64   `json:"total_bookings"`
	Pending            int64   `json:"pending"`
	Approved           int64   `json:"approved"`
	Rejected           int64   `json:"rejected"`
	BookedMinutes      int     `json:"booked_minutes"`
	WindowMinutes      int     `json:"window_minutes"`
	UtilizationPercent float64 `json:"utilization_percent"`
}

// Repository queries booking aggregates from the database.
type Repository struct {
	db     *sql.DB
	window schedule.Window
}

// NewRepository creates a stats repository. The *sql.DB is typically opened
// with the pq driver against the same database the pgx pool uses.
func NewRepository(db *sql.DB, window schedule.Window) *Repository {
	if db == nil {
		panic("stats: db required")
	}
	return &Repository{db: db, window: window}
}

// GetDayStats aggregates a date's bookings. Booked minutes are the union of
// the approved intervals, so overlapping or duplicated bookings never push
// utilization past 100%.
func (r *Repository) GetDayStats(ctx context.Context, date string) (*DayStats, error) {
	stats := &DayStats{Date: date, WindowMinutes: r.window.Length()}

	countQuery := `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = 'pending'),
		COUNT(*) FILTER (WHERE status = 'approved'),
		COUNT(*) FILTER (WHERE status = 'rejected')
		FROM bookings WHERE booking_date = $1`
	err := r.db.QueryRowContext(ctx, countQuery, date).
		Scan(&stats.TotalBookings, &stats.Pending, &stats.Approved, &stats.Rejected)
	if err != nil {
		return nil, fmt.Errorf("stats: count bookings: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT booking_time, booking_duration FROM bookings WHERE booking_date = $1 AND status = 'approved'`, date)
	if err != nil {
		return nil, fmt.Errorf("stats: load approved intervals: %w", err)
	}
	defer rows.Close()

	var times []schedule.BookingTime
	for rows.Next() {
		var bt schedule.BookingTime
		if err := rows.Scan(&bt.Time, &bt.Duration); err != nil {
			return nil, fmt.Errorf("stats: scan interval: %w", err)
		}
		times = append(times, bt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats: interval rows: %w", err)
	}

	blocks, _ := r.window.BlocksFromBookingsLenient(times)
	stats.BookedMinutes = unionMinutes(blocks, r.window.Length())
	if stats.WindowMinutes > 0 {
		stats.UtilizationPercent = 100 * float64(stats.BookedMinutes) / float64(stats.WindowMinutes)
	}
	return stats, nil
}

// unionMinutes sums the merged coverage of the blocks, clamped to the
// operating window.
func unionMinutes(blocks []schedule.TimeBlock, windowLength int) int {
	clamped := make([]schedule.TimeBlock, 0, len(blocks))
	for _, b := range blocks {
		start, end := b.Start, b.End
		if start < 0 {
			start = 0
		}
		if end > windowLength {
			end = windowLength
		}
		if start < end {
			clamped = append(clamped, schedule.TimeBlock{Start: start, End: end})
		}
	}
	sort.Slice(clamped, func(i, j int) bool { return clamped[i].Start < clamped[j].Start })

	total := 0
	coveredUntil := 0
	for _, b := range clamped {
		if b.End <= coveredUntil {
			continue
		}
		start := b.Start
		if start < coveredUntil {
			start = coveredUntil
		}
		total += b.End - start
		coveredUntil = b.End
	}
	return total
}

// Handler provides HTTP endpoints for booking statistics.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

// NewHandler creates a stats HTTP handler.
func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// GetDayStats returns aggregates for one date.
// GET /stats/days/{date}
func (h *Handler) GetDayStats(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if date == "" {
		http.Error(w, `{"error": "date required"}`, http.StatusBadRequest)
		return
	}

	stats, err := h.repo.GetDayStats(r.Context(), date)
	if err != nil {
		h.logger.Error("failed to compute day stats", "date", date, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		h.logger.Error("failed to encode day stats", "date", date, "error", err)
	}
}
