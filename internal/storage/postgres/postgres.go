package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"salon-service/internal/models"
	"salon-service/pkg/response"

	"github.com/lib/pq"
)

type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

// NewWithDB wraps an existing handle; used by tests.
func NewWithDB(db *sql.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// #### services ####

func (s *Storage) ListServices(ctx context.Context) ([]*models.Service, error) {
	const op = "storage.postgres.ListServices"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, category, price, duration_min
		FROM services
		WHERE active = TRUE
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var services []*models.Service

	for rows.Next() {
		var svc models.Service
		svc.Active = true

		err := rows.Scan(&svc.ID, &svc.Name, &svc.Category, &svc.Price, &svc.DurationMin)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		services = append(services, &svc)
	}

	return services, nil
}

func (s *Storage) GetService(ctx context.Context, id string) (*models.Service, error) {
	const op = "storage.postgres.GetService"

	var svc models.Service

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, category, price, duration_min, active
		FROM services WHERE id=$1`, id).
		Scan(&svc.ID, &svc.Name, &svc.Category, &svc.Price, &svc.DurationMin, &svc.Active)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &svc, nil
}

// #### manicurists ####

func (s *Storage) ListManicurists(ctx context.Context) ([]*models.Manicurist, error) {
	const op = "storage.postgres.ListManicurists"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, bio, specialties, working_days, start_time, end_time, available
		FROM manicurists
		WHERE available = TRUE
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var manicurists []*models.Manicurist

	for rows.Next() {
		var m models.Manicurist

		err := rows.Scan(&m.ID, &m.Name, &m.Bio, &m.Specialties, &m.WorkingDays, &m.StartTime, &m.EndTime, &m.Available)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		manicurists = append(manicurists, &m)
	}

	return manicurists, nil
}

func (s *Storage) GetManicurist(ctx context.Context, id string) (*models.Manicurist, error) {
	const op = "storage.postgres.GetManicurist"

	var m models.Manicurist

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, bio, specialties, working_days, start_time, end_time, available
		FROM manicurists WHERE id=$1`, id).
		Scan(&m.ID, &m.Name, &m.Bio, &m.Specialties, &m.WorkingDays, &m.StartTime, &m.EndTime, &m.Available)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &m, nil
}

// #### clients ####

func (s *Storage) GetClient(ctx context.Context, id string) (*models.Client, error) {
	const op = "storage.postgres.GetClient"

	var c models.Client

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, total_services, has_free_service, services_for_promo, promo_active
		FROM clients WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.TotalServices, &c.HasFreeService, &c.ServicesForPromo, &c.PromoActive)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &c, nil
}

// #### bookings ####

// CreateBooking inserts the row; the partial unique index on
// (manicurist_id, date, start_time) over non-terminal statuses is the
// authoritative double-booking guard, surfaced as ErrSlotTaken.
func (s *Storage) CreateBooking(ctx context.Context, b *models.Booking) error {
	const op = "storage.postgres.CreateBooking"

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bookings
		(id, manicurist_id, client_id, service_manos_id, service_pies_id,
		date, start_time, duration_min, total_price, deposit_amount,
		deposit_paid, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		b.ID,
		b.ManicuristID,
		b.ClientID,
		b.ServiceManosID,
		b.ServicePiesID,
		b.Date,
		b.StartTime,
		b.DurationMin,
		b.TotalPrice,
		b.DepositAmount,
		b.DepositPaid,
		string(b.Status),
		b.Notes,
	)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && sqlErr.Code == "23505" {
			return fmt.Errorf("%s: %w", op, response.ErrSlotTaken)
		}
		if ok && sqlErr.Code == "23503" {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

const bookingSelect = `SELECT b.id, b.manicurist_id, b.client_id,
	b.service_manos_id, b.service_pies_id,
	b.date::text, b.start_time, b.duration_min,
	b.total_price, b.deposit_amount, b.deposit_paid, b.payment_reference,
	b.status, b.notes, b.promo_counted, b.created_at,
	m.name, c.name, sm.name, sp.name, sm.price, sp.price
	FROM bookings b
	JOIN manicurists m ON m.id = b.manicurist_id
	JOIN clients c ON c.id = b.client_id
	LEFT JOIN services sm ON sm.id = b.service_manos_id
	LEFT JOIN services sp ON sp.id = b.service_pies_id`

func scanBooking(row interface {
	Scan(dest ...any) error
}) (*models.Booking, error) {
	var b models.Booking
	var manosID, piesID, paymentRef, manosName, piesName sql.NullString
	var manosPrice, piesPrice sql.NullFloat64
	var status string

	err := row.Scan(
		&b.ID, &b.ManicuristID, &b.ClientID,
		&manosID, &piesID,
		&b.Date, &b.StartTime, &b.DurationMin,
		&b.TotalPrice, &b.DepositAmount, &b.DepositPaid, &paymentRef,
		&status, &b.Notes, &b.PromoCounted, &b.CreatedAt,
		&b.ManicuristName, &b.ClientName, &manosName, &piesName, &manosPrice, &piesPrice,
	)
	if err != nil {
		return nil, err
	}

	b.Status = models.BookingStatus(status)

	if manosID.Valid {
		b.ServiceManosID = &manosID.String
	}
	if piesID.Valid {
		b.ServicePiesID = &piesID.String
	}
	if paymentRef.Valid {
		b.PaymentReference = &paymentRef.String
	}
	if manosName.Valid {
		b.ServiceManosName = &manosName.String
	}
	if piesName.Valid {
		b.ServicePiesName = &piesName.String
	}
	if manosPrice.Valid {
		b.ServiceManosPrice = &manosPrice.Float64
	}
	if piesPrice.Valid {
		b.ServicePiesPrice = &piesPrice.Float64
	}

	return &b, nil
}

func (s *Storage) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	const op = "storage.postgres.GetBooking"

	row := s.db.QueryRowContext(ctx, bookingSelect+` WHERE b.id=$1`, id)

	b, err := scanBooking(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return b, nil
}

func (s *Storage) ListBookings(ctx context.Context, f *models.BookingFilters) ([]*models.Booking, error) {
	const op = "storage.postgres.ListBookings"

	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f != nil {
		if f.ClientID != nil {
			add("b.client_id=$%d", *f.ClientID)
		}
		if f.ManicuristID != nil {
			add("b.manicurist_id=$%d", *f.ManicuristID)
		}
		if f.Date != nil {
			add("b.date=$%d::date", *f.Date)
		}
		if f.Status != nil {
			add("b.status=$%d", string(*f.Status))
		}
	}

	query := bookingSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY b.date, b.start_time"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var bookings []*models.Booking

	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		bookings = append(bookings, b)
	}

	return bookings, nil
}

func (s *Storage) ListTakenTimes(ctx context.Context, manicuristID, date string, statuses []models.BookingStatus) ([]string, error) {
	const op = "storage.postgres.ListTakenTimes"

	strs := make([]string, 0, len(statuses))
	for _, st := range statuses {
		strs = append(strs, string(st))
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT start_time FROM bookings
		WHERE manicurist_id=$1 AND date=$2::date AND status = ANY($3)
		ORDER BY start_time`,
		manicuristID, date, pq.Array(strs))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var times []string

	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		times = append(times, t)
	}

	return times, nil
}

// SlotTaken reports whether any booking in a non-terminal status already holds
// the slot; excludeID keeps a reschedule from conflicting with itself.
func (s *Storage) SlotTaken(ctx context.Context, manicuristID, date, startTime, excludeID string) (bool, error) {
	const op = "storage.postgres.SlotTaken"

	var taken bool

	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE manicurist_id=$1 AND date=$2::date AND start_time=$3
			AND status NOT IN ('cancelled', 'expired')
			AND ($4 = '' OR id::text <> $4)
		)`,
		manicuristID, date, startTime, excludeID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return taken, nil
}

// TransitionBooking is a compare-and-set on status: the update applies only
// when the current status is one of from.
func (s *Storage) TransitionBooking(ctx context.Context, id string, from []models.BookingStatus, to models.BookingStatus) (bool, error) {
	const op = "storage.postgres.TransitionBooking"

	strs := make([]string, 0, len(from))
	for _, st := range from {
		strs = append(strs, string(st))
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET status=$1 WHERE id=$2 AND status = ANY($3)`,
		string(to), id, pq.Array(strs))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n > 0, nil
}

// ConfirmDeposit moves a pending hold to scheduled and stores the provider
// reference. The status guard makes webhook replays and the
// confirm-vs-expire race single-winner.
func (s *Storage) ConfirmDeposit(ctx context.Context, id, paymentRef string) (bool, error) {
	const op = "storage.postgres.ConfirmDeposit"

	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings
		SET status='scheduled', deposit_paid=TRUE, payment_reference=$2
		WHERE id=$1 AND status='pending_payment' AND deposit_paid=FALSE`,
		id, paymentRef)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n > 0, nil
}

func (s *Storage) RescheduleBooking(ctx context.Context, id, manicuristID, date, startTime string) error {
	const op = "storage.postgres.RescheduleBooking"

	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings
		SET manicurist_id=$2, date=$3::date, start_time=$4, status='scheduled'
		WHERE id=$1 AND status='scheduled'`,
		id, manicuristID, date, startTime)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && sqlErr.Code == "23505" {
			return fmt.Errorf("%s: %w", op, response.ErrSlotTaken)
		}
		if ok && sqlErr.Code == "23503" {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrInvalidTransition)
	}

	return nil
}

// ExpireStale is the sweep: unpaid holds older than the cutoff become
// expired. The status filter makes re-runs no-ops.
func (s *Storage) ExpireStale(ctx context.Context, olderThan time.Time) (int64, error) {
	const op = "storage.postgres.ExpireStale"

	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET status='expired'
		WHERE status='pending_payment' AND deposit_paid=FALSE AND created_at < $1`,
		olderThan)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

// CompleteBooking runs the whole Complete transition in one transaction:
// status CAS, the per-booking counted marker, and the client's loyalty
// counter update. All-or-nothing so a crash cannot complete a booking
// without counting it.
func (s *Storage) CompleteBooking(ctx context.Context, id string) (*models.CompletionResult, error) {
	const op = "storage.postgres.CompleteBooking"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	var clientID string

	err = tx.QueryRowContext(ctx,
		`UPDATE bookings SET status='completed'
		WHERE id=$1 AND status='scheduled'
		RETURNING client_id`, id).Scan(&clientID)
	if err != nil {
		if err == sql.ErrNoRows {
			var exists bool
			if err := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM bookings WHERE id=$1)`, id).Scan(&exists); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			if !exists {
				return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
			}

			return &models.CompletionResult{}, tx.Commit()
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET promo_counted=TRUE
		WHERE id=$1 AND promo_counted=FALSE`, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := &models.CompletionResult{Completed: true}

	if n == 0 {
		// Already counted by an earlier completion; never count twice.
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("%s: commit: %w", op, err)
		}

		return result, nil
	}

	result.Counted = true

	var c models.Client
	c.ID = clientID

	err = tx.QueryRowContext(ctx,
		`UPDATE clients SET
			total_services = CASE
				WHEN promo_active AND total_services + 1 >= services_for_promo THEN 0
				ELSE total_services + 1
			END,
			has_free_service = CASE
				WHEN promo_active AND total_services + 1 >= services_for_promo THEN TRUE
				ELSE has_free_service
			END
		WHERE id=$1
		RETURNING name, total_services, has_free_service, services_for_promo, promo_active`,
		clientID).
		Scan(&c.Name, &c.TotalServices, &c.HasFreeService, &c.ServicesForPromo, &c.PromoActive)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result.Client = &c
	result.Granted = c.PromoActive && c.TotalServices == 0

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return result, nil
}

// #### payments ####

// InsertProviderEvent records an inbound provider event; a replayed event id
// hits the unique index and returns ErrDuplicateEvent.
func (s *Storage) InsertProviderEvent(ctx context.Context, provider, eventID, eventType string, payload []byte) error {
	const op = "storage.postgres.InsertProviderEvent"

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payment_events (provider, provider_event_id, event_type, payload)
		VALUES ($1, $2, $3, $4)`,
		provider, eventID, eventType, payload)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && sqlErr.Code == "23505" {
			return fmt.Errorf("%s: %w", op, response.ErrDuplicateEvent)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) RecordDepositPayment(ctx context.Context, bookingID, provider, reference string, amount float64, status string) error {
	const op = "storage.postgres.RecordDepositPayment"

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deposit_payments (booking_id, provider, payment_reference, amount, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (booking_id) DO NOTHING`,
		bookingID, provider, reference, amount, status)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// #### promotion ####

func (s *Storage) GetPromotionSettings(ctx context.Context) (*models.PromotionSettings, error) {
	const op = "storage.postgres.GetPromotionSettings"

	var p models.PromotionSettings

	err := s.db.QueryRowContext(ctx,
		`SELECT active, required_services FROM promotion_settings ORDER BY created_at DESC LIMIT 1`).
		Scan(&p.Active, &p.RequiredServices)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &p, nil
}
