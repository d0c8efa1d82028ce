// Package bookings persists appointment bookings and computes day
// availability from them.
package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nsaleh/spabook/internal/schedule"
)

// ErrSlotTaken is returned when a commit-time re-check finds the requested
// interval no longer free, or when the storage exclusion constraint rejects
// an overlapping row.
var ErrSlotTaken = errors.New("bookings: slot no longer available")

// ErrNotFound is returned when a booking id does not exist.
var ErrNotFound = errors.New("bookings: not found")

// Booking statuses. Only approved bookings consume resource time on the
// availability read path; pending rows wait for admin review.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Booking is one stored appointment. Time and duration keep the original
// display strings ("02:00 م", "1 hr") exactly as the booking UI submitted
// them; the schedule codec decodes them on every availability computation.
type Booking struct {
	ID           uuid.UUID `json:"id"`
	Date         string    `json:"date"` // YYYY-MM-DD
	Time         string    `json:"time"`
	Duration     string    `json:"duration"`
	CustomerName string    `json:"customer_name"`
	PhoneNumber  string    `json:"phone_number"`
	Service      string    `json:"service"`
	PriceCents   int       `json:"price_cents"`
	Status       string    `json:"status"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewBooking carries the fields for an insert.
type NewBooking struct {
	Date         string
	Time         string
	Duration     string
	CustomerName string
	PhoneNumber  string
	Service      string
	PriceCents   int
	Notes        string
}

// AvailabilityCheck decides, given the freshly locked bookings of a date,
// whether the interval being written is still free.
type AvailabilityCheck func(existing []schedule.BookingTime) bool

// DB is the subset of pgxpool.Pool the repository needs; pgxmock satisfies
// it in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository provides persistence for bookings.
type Repository struct {
	db DB
}

// NewRepository creates a repository backed by a pgx pool (or a mock).
func NewRepository(db DB) *Repository {
	if db == nil {
		panic("bookings: db required")
	}
	return &Repository{db: db}
}

const selectColumns = `id, booking_date::text, booking_time, booking_duration, customer_name, phone_number, service, price_cents, status, COALESCE(notes, ''), created_at`

// ListApprovedForDate returns the approved bookings occupying the date, in
// creation order. This is the read-only input of the availability core.
func (r *Repository) ListApprovedForDate(ctx context.Context, date string) ([]Booking, error) {
	query := `SELECT ` + selectColumns + ` FROM bookings WHERE booking_date = $1 AND status = $2 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, date, StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("bookings: list approved: %w", err)
	}
	defer rows.Close()
	return scanBookings(rows)
}

// ListForDate returns every booking on the date regardless of status, for
// the admin timeline.
func (r *Repository) ListForDate(ctx context.Context, date string) ([]Booking, error) {
	query := `SELECT ` + selectColumns + ` FROM bookings WHERE booking_date = $1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("bookings: list for date: %w", err)
	}
	defer rows.Close()
	return scanBookings(rows)
}

// Get returns one booking by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Booking, error) {
	query := `SELECT ` + selectColumns + ` FROM bookings WHERE id = $1`
	b, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("bookings: get: %w", err)
	}
	return b, nil
}

// Create inserts a pending booking after re-checking availability inside the
// same transaction. The date's resource-consuming rows are locked first, so
// two concurrent writers for the same date serialize; the caller-supplied
// check then runs against data no concurrent commit can invalidate. The
// exclusion constraint on the table backstops anything that slips through.
func (r *Repository) Create(ctx context.Context, b NewBooking, stillFree AvailabilityCheck) (*Booking, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("bookings: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	existing, err := lockDay(ctx, tx, b.Date, StatusApproved)
	if err != nil {
		return nil, err
	}
	if !stillFree(existing) {
		return nil, ErrSlotTaken
	}

	created := &Booking{
		ID:           uuid.New(),
		Date:         b.Date,
		Time:         b.Time,
		Duration:     b.Duration,
		CustomerName: b.CustomerName,
		PhoneNumber:  b.PhoneNumber,
		Service:      b.Service,
		PriceCents:   b.PriceCents,
		Status:       StatusPending,
		Notes:        b.Notes,
	}
	insert := `INSERT INTO bookings (id, booking_date, booking_time, booking_duration, customer_name, phone_number, service, price_cents, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING created_at`
	err = tx.QueryRow(ctx, insert,
		created.ID, created.Date, created.Time, created.Duration,
		created.CustomerName, created.PhoneNumber, created.Service,
		created.PriceCents, created.Status, created.Notes,
	).Scan(&created.CreatedAt)
	if err != nil {
		if isExclusionViolation(err) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("bookings: insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isExclusionViolation(err) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("bookings: commit: %w", err)
	}
	return created, nil
}

// Approve promotes a pending booking to approved, re-checking that the
// already-approved bookings of the day still leave its interval free. Two
// overlapping pending requests can coexist; the conflict surfaces here when
// the second one is approved.
func (r *Repository) Approve(ctx context.Context, id uuid.UUID, stillFree AvailabilityCheck) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("bookings: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var date string
	err = tx.QueryRow(ctx, `SELECT booking_date::text FROM bookings WHERE id = $1 AND status = $2 FOR UPDATE`, id, StatusPending).Scan(&date)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("bookings: load pending: %w", err)
	}

	existing, err := lockDay(ctx, tx, date, StatusApproved)
	if err != nil {
		return err
	}
	if !stillFree(existing) {
		return ErrSlotTaken
	}

	if _, err := tx.Exec(ctx, `UPDATE bookings SET status = $1 WHERE id = $2`, StatusApproved, id); err != nil {
		if isExclusionViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("bookings: approve: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		if isExclusionViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("bookings: commit: %w", err)
	}
	return nil
}

// UpdateStatus sets a booking's status without an availability check, for
// rejections and cancellations.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.db.Exec(ctx, `UPDATE bookings SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("bookings: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func lockDay(ctx context.Context, tx pgx.Tx, date, status string) ([]schedule.BookingTime, error) {
	rows, err := tx.Query(ctx, `SELECT booking_time, booking_duration FROM bookings WHERE booking_date = $1 AND status = $2 FOR UPDATE`, date, status)
	if err != nil {
		return nil, fmt.Errorf("bookings: lock day: %w", err)
	}
	defer rows.Close()

	var existing []schedule.BookingTime
	for rows.Next() {
		var bt schedule.BookingTime
		if err := rows.Scan(&bt.Time, &bt.Duration); err != nil {
			return nil, fmt.Errorf("bookings: scan locked row: %w", err)
		}
		existing = append(existing, bt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: lock day rows: %w", err)
	}
	return existing, nil
}

func scanBookings(rows pgx.Rows) ([]Booking, error) {
	var out []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.Date, &b.Time, &b.Duration, &b.CustomerName, &b.PhoneNumber, &b.Service, &b.PriceCents, &b.Status, &b.Notes, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("bookings: scan: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: rows: %w", err)
	}
	return out, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	if err := row.Scan(&b.ID, &b.Date, &b.Time, &b.Duration, &b.CustomerName, &b.PhoneNumber, &b.Service, &b.PriceCents, &b.Status, &b.Notes, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// isExclusionViolation detects the GiST exclusion constraint (23P01) and
// unique (23505) violations that signal a lost race at commit.
func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23P01" || pgErr.Code == "23505"
}
