package postgres

import (
	"context"
	"testing"
	"time"

	"salon-service/internal/models"
	"salon-service/pkg/response"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func newMockStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewWithDB(db), mock
}

func TestCreateBooking_UniqueViolation(t *testing.T) {
	storage, mock := newMockStorage(t)

	mock.ExpectExec("INSERT INTO bookings").
		WillReturnError(&pq.Error{Code: "23505"})

	err := storage.CreateBooking(context.Background(), &models.Booking{
		ID:           "b1",
		ManicuristID: "m1",
		ClientID:     "c1",
		Date:         "2026-08-31",
		StartTime:    "11:00",
		Status:       models.BookingPendingPayment,
	})
	require.ErrorIs(t, err, response.ErrSlotTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_MissingReference(t *testing.T) {
	storage, mock := newMockStorage(t)

	mock.ExpectExec("INSERT INTO bookings").
		WillReturnError(&pq.Error{Code: "23503"})

	err := storage.CreateBooking(context.Background(), &models.Booking{
		ID:           "b1",
		ManicuristID: "missing",
		ClientID:     "c1",
		Status:       models.BookingPendingPayment,
	})
	require.ErrorIs(t, err, response.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotTaken(t *testing.T) {
	storage, mock := newMockStorage(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("m1", "2026-08-31", "11:00", "").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := storage.SlotTaken(context.Background(), "m1", "2026-08-31", "11:00", "")
	require.NoError(t, err)
	require.True(t, taken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmDeposit_CAS(t *testing.T) {
	storage, mock := newMockStorage(t)

	mock.ExpectExec("UPDATE bookings").
		WithArgs("b1", "pi_123").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := storage.ConfirmDeposit(context.Background(), "b1", "pi_123")
	require.NoError(t, err)
	require.True(t, ok)

	// Replay: the status guard matches no rows.
	mock.ExpectExec("UPDATE bookings").
		WithArgs("b1", "pi_replay").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err = storage.ConfirmDeposit(context.Background(), "b1", "pi_replay")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionBooking(t *testing.T) {
	storage, mock := newMockStorage(t)

	mock.ExpectExec("UPDATE bookings SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := storage.TransitionBooking(context.Background(), "b1",
		[]models.BookingStatus{models.BookingPendingPayment, models.BookingScheduled},
		models.BookingCancelled)
	require.NoError(t, err)
	require.True(t, ok)

	mock.ExpectExec("UPDATE bookings SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err = storage.TransitionBooking(context.Background(), "b1",
		[]models.BookingStatus{models.BookingScheduled},
		models.BookingCompleted)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireStale(t *testing.T) {
	storage, mock := newMockStorage(t)

	cutoff := time.Date(2026, 8, 31, 10, 15, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE bookings SET status='expired'").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	count, err := storage.ExpireStale(context.Background(), cutoff)
	require.NoError(t, err)
	require.Equal(t, int64(3), count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRescheduleBooking_NotScheduled(t *testing.T) {
	storage, mock := newMockStorage(t)

	mock.ExpectExec("UPDATE bookings").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := storage.RescheduleBooking(context.Background(), "b1", "m1", "2026-09-01", "14:00")
	require.ErrorIs(t, err, response.ErrInvalidTransition)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertProviderEvent_Duplicate(t *testing.T) {
	storage, mock := newMockStorage(t)

	mock.ExpectExec("INSERT INTO payment_events").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := storage.InsertProviderEvent(context.Background(), "stripe", "evt_1", "checkout.session.completed", nil)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO payment_events").
		WillReturnError(&pq.Error{Code: "23505"})

	err = storage.InsertProviderEvent(context.Background(), "stripe", "evt_1", "checkout.session.completed", nil)
	require.ErrorIs(t, err, response.ErrDuplicateEvent)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteBooking_AlreadyCompleted(t *testing.T) {
	storage, mock := newMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE bookings SET status='completed'").
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"client_id"}))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectCommit()

	result, err := storage.CompleteBooking(context.Background(), "b1")
	require.NoError(t, err)
	require.False(t, result.Completed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteBooking_CountsAndGrants(t *testing.T) {
	storage, mock := newMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE bookings SET status='completed'").
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"client_id"}).AddRow("c1"))
	mock.ExpectExec("UPDATE bookings SET promo_counted=TRUE").
		WithArgs("b1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("UPDATE clients SET").
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"name", "total_services", "has_free_service", "services_for_promo", "promo_active"}).
			AddRow("Laura", 0, true, 10, true))
	mock.ExpectCommit()

	result, err := storage.CompleteBooking(context.Background(), "b1")
	require.NoError(t, err)
	require.True(t, result.Completed)
	require.True(t, result.Counted)
	require.True(t, result.Granted)
	require.Equal(t, "c1", result.Client.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
