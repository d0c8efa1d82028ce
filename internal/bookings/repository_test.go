package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsaleh/spabook/internal/schedule"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *Repository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewRepository(mock)
}

func bookingColumns() []string {
	return []string{"id", "booking_date", "booking_time", "booking_duration", "customer_name", "phone_number", "service", "price_cents", "status", "notes", "created_at"}
}

func TestListApprovedForDate(t *testing.T) {
	mock, repo := newMockRepo(t)

	id := uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, booking_date").
		WithArgs("2026-09-01", StatusApproved).
		WillReturnRows(pgxmock.NewRows(bookingColumns()).
			AddRow(id, "2026-09-01", "02:00 م", "1 hr", "Huda", "+96650000001", "Massage", 15000, StatusApproved, "", now))

	rows, err := repo.ListApprovedForDate(context.Background(), "2026-09-01")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, id, rows[0].ID)
	assert.Equal(t, "02:00 م", rows[0].Time)
	assert.Equal(t, "1 hr", rows[0].Duration)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInsertsWhenCheckPasses(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT booking_time, booking_duration FROM bookings").
		WithArgs("2026-09-01", StatusApproved).
		WillReturnRows(pgxmock.NewRows([]string{"booking_time", "booking_duration"}).
			AddRow("02:00 م", "1 hr"))
	mock.ExpectQuery("INSERT INTO bookings").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now().UTC()))
	mock.ExpectCommit()

	var checked []schedule.BookingTime
	created, err := repo.Create(context.Background(), NewBooking{
		Date:         "2026-09-01",
		Time:         "10:00 ص",
		Duration:     "30 mins",
		CustomerName: "Huda",
		PhoneNumber:  "+96650000001",
		Service:      "Massage",
		PriceCents:   15000,
	}, func(existing []schedule.BookingTime) bool {
		checked = existing
		return true
	})
	require.NoError(t, err)

	// The check must see the freshly locked rows, not client-side data.
	require.Len(t, checked, 1)
	assert.Equal(t, "02:00 م", checked[0].Time)

	assert.Equal(t, StatusPending, created.Status)
	assert.NotEqual(t, uuid.Nil, created.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReturnsSlotTakenWhenCheckFails(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT booking_time, booking_duration FROM bookings").
		WithArgs("2026-09-01", StatusApproved).
		WillReturnRows(pgxmock.NewRows([]string{"booking_time", "booking_duration"}).
			AddRow("10:00 ص", "30 mins"))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), NewBooking{Date: "2026-09-01"}, func([]schedule.BookingTime) bool {
		return false
	})
	assert.ErrorIs(t, err, ErrSlotTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMapsExclusionViolationToSlotTaken(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT booking_time, booking_duration FROM bookings").
		WithArgs("2026-09-01", StatusApproved).
		WillReturnRows(pgxmock.NewRows([]string{"booking_time", "booking_duration"}))
	mock.ExpectQuery("INSERT INTO bookings").
		WillReturnError(&pgconn.PgError{Code: "23P01"})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), NewBooking{Date: "2026-09-01"}, func([]schedule.BookingTime) bool {
		return true
	})
	assert.ErrorIs(t, err, ErrSlotTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveReChecksAgainstApprovedSet(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT booking_date::text FROM bookings").
		WithArgs(id, StatusPending).
		WillReturnRows(pgxmock.NewRows([]string{"booking_date"}).AddRow("2026-09-01"))
	mock.ExpectQuery("SELECT booking_time, booking_duration FROM bookings").
		WithArgs("2026-09-01", StatusApproved).
		WillReturnRows(pgxmock.NewRows([]string{"booking_time", "booking_duration"}).
			AddRow("10:00 ص", "1 hr"))
	mock.ExpectRollback()

	err := repo.Approve(context.Background(), id, func([]schedule.BookingTime) bool {
		return false // the other pending request got approved first
	})
	assert.ErrorIs(t, err, ErrSlotTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveUpdatesStatus(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT booking_date::text FROM bookings").
		WithArgs(id, StatusPending).
		WillReturnRows(pgxmock.NewRows([]string{"booking_date"}).AddRow("2026-09-01"))
	mock.ExpectQuery("SELECT booking_time, booking_duration FROM bookings").
		WithArgs("2026-09-01", StatusApproved).
		WillReturnRows(pgxmock.NewRows([]string{"booking_time", "booking_duration"}))
	mock.ExpectExec("UPDATE bookings SET status").
		WithArgs(StatusApproved, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := repo.Approve(context.Background(), id, func([]schedule.BookingTime) bool { return true })
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveMissingBooking(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT booking_date::text FROM bookings").
		WithArgs(id, StatusPending).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	err := repo.Approve(context.Background(), id, func([]schedule.BookingTime) bool { return true })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatusNotFound(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE bookings SET status").
		WithArgs(StatusRejected, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateStatus(context.Background(), id, StatusRejected)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
