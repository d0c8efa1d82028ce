package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nsaleh/spabook/internal/observability/metrics"
	"github.com/nsaleh/spabook/internal/schedule"
	"github.com/nsaleh/spabook/pkg/logging"
)

var bookingsTracer = otel.Tracer("spabook.internal.bookings")

// ErrInvalidRequest is returned for requests the schedule core cannot
// evaluate: bad dates, non-positive durations, off-window intervals.
var ErrInvalidRequest = errors.New("bookings: invalid request")

// ChangeNotifier receives a notification whenever the booking set of a date
// changes. The realtime hub implements it; clients re-fetch availability on
// receipt.
type ChangeNotifier interface {
	BookingsChanged(date string)
}

// DaySchedule is the presentation-facing availability of one date for one
// requested duration.
type DaySchedule struct {
	Date            string              `json:"date"`
	DurationMinutes int                 `json:"duration_minutes"`
	Slots           []schedule.Slot     `json:"slots"`
	Grid            []schedule.GridCell `json:"grid"`
	HasAvailability bool                `json:"has_availability"`
}

// CreateBookingRequest is a validated slot reservation attempt.
type CreateBookingRequest struct {
	Date            string
	StartMinutes    int
	DurationMinutes int
	CustomerName    string
	PhoneNumber     string
	Service         string
	PriceCents      int
	Notes           string
}

// Service computes day availability from stored bookings and writes new
// bookings with a commit-time re-check. It owns no schedule state: every
// computation starts from a fresh snapshot of the store (or its cache).
type Service struct {
	repo      *Repository
	window    schedule.Window
	snapshots *SnapshotStore
	notifier  ChangeNotifier
	metrics   *metrics.SchedulingMetrics
	logger    *logging.Logger
}

// NewService constructs a bookings service. Snapshot store, notifier and
// metrics are optional.
func NewService(repo *Repository, window schedule.Window, snapshots *SnapshotStore, notifier ChangeNotifier, m *metrics.SchedulingMetrics, logger *logging.Logger) *Service {
	if repo == nil {
		panic("bookings: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:      repo,
		window:    window,
		snapshots: snapshots,
		notifier:  notifier,
		metrics:   m,
		logger:    logger,
	}
}

// Window returns the operating window the service schedules against.
func (s *Service) Window() schedule.Window {
	return s.window
}

// DaySchedule returns slots and grid for a date and requested duration,
// serving from the snapshot cache when possible.
func (s *Service) DaySchedule(ctx context.Context, date string, durationMinutes int) (*DaySchedule, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.day_schedule")
	defer span.End()
	span.SetAttributes(
		attribute.String("spabook.date", date),
		attribute.Int("spabook.duration_minutes", durationMinutes),
	)

	if err := validateDate(date); err != nil {
		return nil, err
	}
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidRequest)
	}

	start := time.Now()
	if snap, ok := s.snapshots.Get(ctx, date, durationMinutes); ok {
		s.metrics.ObserveCompute("hit", time.Since(start).Seconds())
		return snap, nil
	}

	blocks, err := s.blocksForDate(ctx, date)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	slots := s.window.GenerateSlots(durationMinutes, blocks)
	snap := &DaySchedule{
		Date:            date,
		DurationMinutes: durationMinutes,
		Slots:           slots,
		Grid:            s.window.GenerateGrid(blocks),
		HasAvailability: schedule.HasAnyAvailableSlot(slots),
	}
	if err := s.snapshots.Set(ctx, snap); err != nil {
		s.logger.Warn("snapshot cache write failed", "date", date, "error", err)
	}
	s.metrics.ObserveCompute("miss", time.Since(start).Seconds())
	return snap, nil
}

// IsIntervalAvailable answers a point query against the current store
// state, for pre-submit validation by the UI.
func (s *Service) IsIntervalAvailable(ctx context.Context, date string, startMinutes, durationMinutes int) (bool, error) {
	if err := validateDate(date); err != nil {
		return false, err
	}
	blocks, err := s.blocksForDate(ctx, date)
	if err != nil {
		return false, err
	}
	return s.window.IsIntervalAvailable(startMinutes, durationMinutes, blocks), nil
}

// CreateBooking reserves a slot. The availability re-check runs inside the
// repository transaction against freshly locked rows, never against the
// possibly stale data the client chose from.
func (s *Service) CreateBooking(ctx context.Context, req CreateBookingRequest) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("spabook.date", req.Date),
		attribute.Int("spabook.start_minutes", req.StartMinutes),
		attribute.Int("spabook.duration_minutes", req.DurationMinutes),
	)

	if err := s.validateCreate(req); err != nil {
		return nil, err
	}

	record := NewBooking{
		Date:         req.Date,
		Time:         s.window.FormatMinutes(req.StartMinutes, false),
		Duration:     schedule.FormatDuration(req.DurationMinutes),
		CustomerName: req.CustomerName,
		PhoneNumber:  req.PhoneNumber,
		Service:      req.Service,
		PriceCents:   req.PriceCents,
		Notes:        req.Notes,
	}

	created, err := s.repo.Create(ctx, record, s.intervalCheck(req.StartMinutes, req.DurationMinutes))
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrSlotTaken) {
			s.metrics.ObserveCommit("conflict")
			s.logger.Info("booking rejected, slot taken",
				"date", req.Date, "start_minutes", req.StartMinutes, "duration_minutes", req.DurationMinutes)
		} else {
			s.metrics.ObserveCommit("error")
		}
		return nil, err
	}

	s.metrics.ObserveCommit("accepted")
	s.logger.Info("booking created",
		"booking_id", created.ID, "date", created.Date, "time", created.Time, "service", created.Service)
	s.invalidate(ctx, created.Date)
	return created, nil
}

// ApproveBooking promotes a pending booking, re-checking its interval
// against the approved set of its day.
func (s *Service) ApproveBooking(ctx context.Context, id uuid.UUID) error {
	ctx, span := bookingsTracer.Start(ctx, "bookings.approve")
	defer span.End()
	span.SetAttributes(attribute.String("spabook.booking_id", id.String()))

	booking, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	startMinutes, err := s.window.ParseTimeOfDay(booking.Time)
	if err != nil {
		return fmt.Errorf("%w: stored time unparseable: %v", ErrInvalidRequest, err)
	}
	durationMinutes, err := schedule.ParseDuration(booking.Duration)
	if err != nil {
		return fmt.Errorf("%w: stored duration unparseable: %v", ErrInvalidRequest, err)
	}

	if err := s.repo.Approve(ctx, id, s.intervalCheck(startMinutes, durationMinutes)); err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrSlotTaken) {
			s.metrics.ObserveCommit("conflict")
		}
		return err
	}

	s.metrics.ObserveCommit("accepted")
	s.logger.Info("booking approved", "booking_id", id, "date", booking.Date)
	s.invalidate(ctx, booking.Date)
	return nil
}

// RejectBooking marks a booking rejected; rejected rows stop consuming
// resource time immediately.
func (s *Service) RejectBooking(ctx context.Context, id uuid.UUID) error {
	booking, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusRejected); err != nil {
		return err
	}
	s.logger.Info("booking rejected", "booking_id", id, "date", booking.Date)
	s.invalidate(ctx, booking.Date)
	return nil
}

// ListForDate returns the day's bookings for the admin timeline.
func (s *Service) ListForDate(ctx context.Context, date string) ([]Booking, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}
	return s.repo.ListForDate(ctx, date)
}

// blocksForDate loads approved bookings and decodes them leniently:
// malformed records are excluded and reported instead of occupying minute
// zero of the day.
func (s *Service) blocksForDate(ctx context.Context, date string) ([]schedule.TimeBlock, error) {
	rows, err := s.repo.ListApprovedForDate(ctx, date)
	if err != nil {
		return nil, err
	}
	times := make([]schedule.BookingTime, len(rows))
	for i, r := range rows {
		times[i] = schedule.BookingTime{Time: r.Time, Duration: r.Duration}
	}
	blocks, skipped := s.window.BlocksFromBookingsLenient(times)
	if len(skipped) > 0 {
		s.metrics.ObserveMalformedRecords(len(skipped))
		for _, bad := range skipped {
			s.logger.Error("skipping unparseable booking record",
				"date", date, "time", bad.Time, "duration", bad.Duration)
		}
	}
	return blocks, nil
}

// intervalCheck builds the commit-time predicate the repository runs over
// freshly locked rows. Rows that fail to decode inside the transaction are
// treated as occupying time (the conservative direction for a write).
func (s *Service) intervalCheck(startMinutes, durationMinutes int) AvailabilityCheck {
	return func(existing []schedule.BookingTime) bool {
		blocks, skipped := s.window.BlocksFromBookingsLenient(existing)
		if len(skipped) > 0 {
			return false
		}
		return s.window.IsIntervalAvailable(startMinutes, durationMinutes, blocks)
	}
}

func (s *Service) validateCreate(req CreateBookingRequest) error {
	if err := validateDate(req.Date); err != nil {
		return err
	}
	if req.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidRequest)
	}
	if req.StartMinutes < 0 || req.StartMinutes+req.DurationMinutes > s.window.Length() {
		return fmt.Errorf("%w: interval outside operating window", ErrInvalidRequest)
	}
	if req.CustomerName == "" || req.PhoneNumber == "" || req.Service == "" {
		return fmt.Errorf("%w: customer_name, phone_number and service are required", ErrInvalidRequest)
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, date string) {
	if err := s.snapshots.InvalidateDate(ctx, date); err != nil {
		s.logger.Warn("snapshot invalidation failed", "date", date, "error", err)
	}
	if s.notifier != nil {
		s.notifier.BookingsChanged(date)
	}
}

func validateDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidRequest)
	}
	return nil
}
