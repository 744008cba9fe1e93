package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"salon-service/api"
	"salon-service/internal/availability"
	"salon-service/internal/lock"
	"salon-service/internal/models"
	"salon-service/internal/schedule"
	"salon-service/pkg/response"
	"salon-service/pkg/sl"

	"github.com/google/uuid"
)

type Service struct {
	store    Store
	locker   lock.Locker
	payments PaymentProvider
	log      *slog.Logger
	cfg      Config

	// now is the injected clock; slot generation and expiry depend on it,
	// and tests override it instead of sleeping.
	now func() time.Time
}

type Config struct {
	Location       *time.Location
	DepositPercent float64
	HoldTTL        time.Duration
	HorizonDays    int
	SlotDuration   time.Duration
}

func NewService(store Store, locker lock.Locker, payments PaymentProvider, log *slog.Logger, cfg Config) *Service {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.DepositPercent <= 0 {
		cfg.DepositPercent = 0.20
	}
	if cfg.HoldTTL <= 0 {
		cfg.HoldTTL = 15 * time.Minute
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 7
	}
	if cfg.SlotDuration <= 0 {
		cfg.SlotDuration = time.Hour
	}

	s := &Service{
		store:    store,
		locker:   locker,
		payments: payments,
		log:      log,
		cfg:      cfg,
	}
	s.now = func() time.Time { return time.Now().In(cfg.Location) }

	return s
}

type Store interface {
	// Reference data
	ListServices(ctx context.Context) ([]*models.Service, error)
	GetService(ctx context.Context, id string) (*models.Service, error)
	ListManicurists(ctx context.Context) ([]*models.Manicurist, error)
	GetManicurist(ctx context.Context, id string) (*models.Manicurist, error)
	GetClient(ctx context.Context, id string) (*models.Client, error)
	GetPromotionSettings(ctx context.Context) (*models.PromotionSettings, error)

	// Bookings
	CreateBooking(ctx context.Context, b *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookings(ctx context.Context, f *models.BookingFilters) ([]*models.Booking, error)
	ListTakenTimes(ctx context.Context, manicuristID, date string, statuses []models.BookingStatus) ([]string, error)
	SlotTaken(ctx context.Context, manicuristID, date, startTime, excludeID string) (bool, error)
	TransitionBooking(ctx context.Context, id string, from []models.BookingStatus, to models.BookingStatus) (bool, error)
	ConfirmDeposit(ctx context.Context, id, paymentRef string) (bool, error)
	RescheduleBooking(ctx context.Context, id, manicuristID, date, startTime string) error
	ExpireStale(ctx context.Context, olderThan time.Time) (int64, error)
	CompleteBooking(ctx context.Context, id string) (*models.CompletionResult, error)

	// Payments
	InsertProviderEvent(ctx context.Context, provider, eventID, eventType string, payload []byte) error
	RecordDepositPayment(ctx context.Context, bookingID, provider, reference string, amount float64, status string) error
}

// Checkout is what the payment provider hands back for a new deposit hold:
// the hosted checkout page and the provider-side reference.
type Checkout struct {
	URL       string
	Reference string
}

type PaymentProvider interface {
	CreateCheckout(ctx context.Context, b *models.Booking, description string) (*Checkout, error)
}

// Reference data

func (s *Service) ListServices(ctx context.Context) ([]api.ServiceResponse, error) {
	const op = "service.ListServices"

	services, err := s.store.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]api.ServiceResponse, 0, len(services))
	for _, svc := range services {
		result = append(result, api.ServiceResponse{
			ID:            svc.ID,
			Name:          svc.Name,
			Category:      string(svc.Category),
			Price:         svc.Price,
			DurationHours: float64(svc.DurationMin) / 60,
		})
	}

	return result, nil
}

func (s *Service) ListManicurists(ctx context.Context) ([]api.ManicuristResponse, error) {
	const op = "service.ListManicurists"

	manicurists, err := s.store.ListManicurists(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]api.ManicuristResponse, 0, len(manicurists))
	for _, m := range manicurists {
		result = append(result, api.ManicuristResponse{
			ID:          m.ID,
			Name:        m.Name,
			Bio:         m.Bio,
			Specialties: m.Specialties,
			WorkingDays: m.WorkingDays,
			StartTime:   m.StartTime,
			EndTime:     m.EndTime,
			Available:   m.Available,
		})
	}

	return result, nil
}

func (s *Service) Promotion(ctx context.Context) (*api.PromotionResponse, error) {
	const op = "service.Promotion"

	settings, err := s.store.GetPromotionSettings(ctx)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return &api.PromotionResponse{}, nil
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.PromotionResponse{
		Active:           settings.Active,
		RequiredServices: settings.RequiredServices,
	}, nil
}

// Slots

// AvailableSlots walks the booking horizon day by day, keeps the days the
// manicurist works, and returns the free windows as timestamp pairs.
func (s *Service) AvailableSlots(ctx context.Context, manicuristID string) ([]api.SlotResponse, error) {
	const op = "service.AvailableSlots"

	m, err := s.store.GetManicurist(ctx, manicuristID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !m.Available {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	startOff, err := schedule.ParseClock(m.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	endOff, err := schedule.ParseClock(m.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	workingDays := schedule.ParseWorkingDays(m.WorkingDays)
	now := s.now()

	result := make([]api.SlotResponse, 0)

	for offset := 0; offset < s.cfg.HorizonDays; offset++ {
		day := now.AddDate(0, 0, offset)
		if !workingDays.Contains(schedule.WeekdayIndex(day)) {
			continue
		}

		midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.cfg.Location)
		dateStr := midnight.Format("2006-01-02")

		taken, err := s.takenAt(ctx, m.ID, dateStr, midnight, []models.BookingStatus{models.BookingScheduled})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		free := availability.FreeSlots(midnight.Add(startOff), midnight.Add(endOff), s.cfg.SlotDuration, taken, now)
		for _, slot := range free {
			result = append(result, api.SlotResponse{Start: slot.Start, End: slot.End})
		}
	}

	return result, nil
}

// DaySlots is the per-date view: every window of the working day labelled
// free or taken, as HH:MM strings.
func (s *Service) DaySlots(ctx context.Context, manicuristID, dateStr string) (*api.DaySlotsResponse, error) {
	const op = "service.DaySlots"

	if _, err := time.ParseInLocation("2006-01-02", dateStr, s.cfg.Location); err != nil {
		return nil, fmt.Errorf("%s: %w", op, response.ValidationErrors{"date must be YYYY-MM-DD"})
	}

	m, err := s.store.GetManicurist(ctx, manicuristID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	startOff, err := schedule.ParseClock(m.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	endOff, err := schedule.ParseClock(m.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	takenTimes, err := s.store.ListTakenTimes(ctx, m.ID, dateStr,
		[]models.BookingStatus{models.BookingScheduled, models.BookingCompleted})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	takenSet := make(map[string]struct{}, len(takenTimes))
	for _, t := range takenTimes {
		takenSet[t] = struct{}{}
	}

	free := make([]string, 0)
	for cur := startOff; cur+s.cfg.SlotDuration <= endOff; cur += s.cfg.SlotDuration {
		clock := schedule.FormatClock(cur)
		if _, ok := takenSet[clock]; !ok {
			free = append(free, clock)
		}
	}

	return &api.DaySlotsResponse{
		Employee:       m.Name,
		EmployeeID:     m.ID,
		Date:           dateStr,
		AvailableSlots: free,
		OccupiedSlots:  takenTimes,
		UpdatedAt:      s.now(),
	}, nil
}

func (s *Service) takenAt(ctx context.Context, manicuristID, dateStr string, midnight time.Time, statuses []models.BookingStatus) ([]time.Time, error) {
	takenTimes, err := s.store.ListTakenTimes(ctx, manicuristID, dateStr, statuses)
	if err != nil {
		return nil, err
	}

	taken := make([]time.Time, 0, len(takenTimes))
	for _, t := range takenTimes {
		off, err := schedule.ParseClock(t)
		if err != nil {
			continue
		}
		taken = append(taken, midnight.Add(off))
	}

	return taken, nil
}

// Bookings

func (s *Service) CreateBooking(ctx context.Context, req *api.BookingRequest) (*api.BookingCreatedResponse, error) {
	const op = "service.CreateBooking"

	var errs response.ValidationErrors

	if req.ManicuristID == "" {
		errs = append(errs, "manicurist_id is required")
	}
	if req.ClientID == "" {
		errs = append(errs, "client_id is required")
	}
	if req.ServiceManos == "" && req.ServicePies == "" {
		errs = append(errs, "select at least one service (manos or pies)")
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, s.cfg.Location)
	if err != nil {
		errs = append(errs, "date must be YYYY-MM-DD")
	}

	startOff, err := schedule.ParseClock(req.Time)
	if err != nil {
		errs = append(errs, "time must be HH:MM")
	}

	if len(errs) == 0 && !date.Add(startOff).After(s.now()) {
		errs = append(errs, "requested time is in the past")
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", op, errs)
	}

	m, err := s.store.GetManicurist(ctx, req.ManicuristID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.store.GetClient(ctx, req.ClientID); err != nil {
		return nil, fmt.Errorf("%s: client: %w", op, err)
	}

	var manos, pies *models.Service

	if req.ServiceManos != "" {
		if manos, err = s.store.GetService(ctx, req.ServiceManos); err != nil {
			return nil, fmt.Errorf("%s: service_manos: %w", op, err)
		}
	}
	if req.ServicePies != "" {
		if pies, err = s.store.GetService(ctx, req.ServicePies); err != nil {
			return nil, fmt.Errorf("%s: service_pies: %w", op, err)
		}
	}

	if err := s.validateBooking(ctx, m, manos, pies, date, startOff, ""); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var totalPrice float64
	var durationMin int

	booking := &models.Booking{
		ID:           uuid.NewString(),
		ManicuristID: m.ID,
		ClientID:     req.ClientID,
		Date:         date.Format("2006-01-02"),
		StartTime:    schedule.FormatClock(startOff),
		Status:       models.BookingPendingPayment,
		Notes:        req.Notes,
	}

	if manos != nil {
		totalPrice += manos.Price
		durationMin += manos.DurationMin
		booking.ServiceManosID = &manos.ID
	}
	if pies != nil {
		totalPrice += pies.Price
		durationMin += pies.DurationMin
		booking.ServicePiesID = &pies.ID
	}

	// Price and deposit are fixed at creation; the provider charges this
	// exact amount and nothing later recomputes it.
	booking.TotalPrice = totalPrice
	booking.DurationMin = durationMin
	booking.DepositAmount = round2(totalPrice * s.cfg.DepositPercent)

	lockKey := lock.SlotKey(booking.ManicuristID, booking.Date, booking.StartTime)

	locked, err := s.locker.Lock(ctx, lockKey, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
	}
	defer func() {
		_ = s.locker.Unlock(ctx, lockKey)
	}()

	if err := s.store.CreateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	description := fmt.Sprintf("Anticipo de cita (%d%%)", int(math.Round(s.cfg.DepositPercent*100)))

	checkout, err := s.payments.CreateCheckout(ctx, booking, description)
	if err != nil {
		// The hold stays pending_payment; the sweep reclaims it if the
		// client never retries.
		s.log.Error("Checkout creation failed", slog.String("booking_id", booking.ID), sl.Err(err))

		return nil, fmt.Errorf("%s: %w: %w", op, response.ErrUpstream, err)
	}

	return &api.BookingCreatedResponse{
		BookingID:     booking.ID,
		DepositAmount: booking.DepositAmount,
		CheckoutURL:   checkout.URL,
	}, nil
}

func (s *Service) GetBooking(ctx context.Context, id string) (*api.BookingResponse, error) {
	const op = "service.GetBooking"

	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toBookingResponse(booking), nil
}

func (s *Service) ListBookings(ctx context.Context, f *models.BookingFilters) ([]*api.BookingResponse, error) {
	const op = "service.ListBookings"

	bookings, err := s.store.ListBookings(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		result = append(result, toBookingResponse(b))
	}

	return result, nil
}

func (s *Service) DepositStatus(ctx context.Context, id string) (*api.DepositStatusResponse, error) {
	const op = "service.DepositStatus"

	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.DepositStatusResponse{Paid: booking.DepositPaid}, nil
}

func (s *Service) CancelBooking(ctx context.Context, id string) (*api.BookingResponse, error) {
	const op = "service.CancelBooking"

	ok, err := s.store.TransitionBooking(ctx, id,
		[]models.BookingStatus{models.BookingPendingPayment, models.BookingScheduled},
		models.BookingCancelled)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		// Either gone or in a state cancellation cannot leave.
		if _, err := s.store.GetBooking(ctx, id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return nil, fmt.Errorf("%s: %w", op, response.ErrInvalidTransition)
	}

	return s.GetBooking(ctx, id)
}

func (s *Service) CompleteBooking(ctx context.Context, id string) (*api.BookingResponse, error) {
	const op = "service.CompleteBooking"

	result, err := s.store.CompleteBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !result.Completed {
		return nil, fmt.Errorf("%s: %w", op, response.ErrInvalidTransition)
	}

	if result.Granted {
		s.log.Info("Free service granted",
			slog.String("booking_id", id),
			slog.String("client_id", result.Client.ID),
			slog.Int("services_for_promo", result.Client.ServicesForPromo),
		)
	}

	return s.GetBooking(ctx, id)
}

func (s *Service) RescheduleBooking(ctx context.Context, req *api.RescheduleRequest) (*api.BookingResponse, error) {
	const op = "service.RescheduleBooking"

	booking, err := s.store.GetBooking(ctx, req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if booking.Status != models.BookingScheduled {
		return nil, fmt.Errorf("%s: %w", op, response.ErrInvalidTransition)
	}

	var errs response.ValidationErrors

	date, err := time.ParseInLocation("2006-01-02", req.Date, s.cfg.Location)
	if err != nil {
		errs = append(errs, "date must be YYYY-MM-DD")
	}

	startOff, err := schedule.ParseClock(req.Time)
	if err != nil {
		errs = append(errs, "time must be HH:MM")
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", op, errs)
	}

	manicuristID := booking.ManicuristID
	if req.ManicuristID != "" {
		manicuristID = req.ManicuristID
	}

	m, err := s.store.GetManicurist(ctx, manicuristID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var manos, pies *models.Service

	if booking.ServiceManosID != nil {
		if manos, err = s.store.GetService(ctx, *booking.ServiceManosID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	if booking.ServicePiesID != nil {
		if pies, err = s.store.GetService(ctx, *booking.ServicePiesID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	// Same validator as creation; payment state is not revisited.
	if err := s.validateBooking(ctx, m, manos, pies, date, startOff, booking.ID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = s.store.RescheduleBooking(ctx, booking.ID, m.ID, date.Format("2006-01-02"), schedule.FormatClock(startOff))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetBooking(ctx, booking.ID)
}

// Payment reconciliation

func (s *Service) RecordProviderEvent(ctx context.Context, provider, eventID, eventType string, payload []byte) error {
	const op = "service.RecordProviderEvent"

	if err := s.store.InsertProviderEvent(ctx, provider, eventID, eventType, payload); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ConfirmDeposit applies an approved payment to its booking. Replays and
// payments that arrive after the hold expired are no-ops, not errors; the
// latter is logged for manual follow-up since no refund path exists.
func (s *Service) ConfirmDeposit(ctx context.Context, bookingID, paymentRef string, amount float64) error {
	const op = "service.ConfirmDeposit"

	log := s.log.With(
		slog.String("op", op),
		slog.String("booking_id", bookingID),
		slog.String("payment_reference", paymentRef),
	)

	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			log.Warn("Approved payment references unknown booking")
			return nil
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	ok, err := s.store.ConfirmDeposit(ctx, bookingID, paymentRef)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !ok {
		current, err := s.store.GetBooking(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if current.Status == models.BookingExpired {
			log.Warn("Approved payment for expired hold, manual reconciliation required",
				slog.Float64("amount", amount))
		} else {
			log.Info("Duplicate payment confirmation ignored",
				slog.String("status", string(current.Status)))
		}

		return nil
	}

	if err := s.store.RecordDepositPayment(ctx, bookingID, "stripe", paymentRef, amount, "approved"); err != nil {
		// The transition already committed; losing the audit row is
		// recoverable from provider data.
		log.Error("Failed to record deposit payment", sl.Err(err))
	}

	log.Info("Deposit confirmed, booking scheduled",
		slog.Float64("amount", amount),
		slog.Float64("deposit_amount", booking.DepositAmount))

	return nil
}

// Expiry sweep

// ExpireStale releases unpaid holds older than the deposit window and
// reports how many it expired.
func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	const op = "service.ExpireStale"

	cutoff := s.now().Add(-s.cfg.HoldTTL)

	count, err := s.store.ExpireStale(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if count > 0 {
		s.log.Info("Expired unpaid bookings", slog.Int64("count", count))
	}

	return count, nil
}

func toBookingResponse(b *models.Booking) *api.BookingResponse {
	services := make([]api.BookingServiceInfo, 0, 2)

	if b.ServiceManosID != nil && b.ServiceManosName != nil {
		info := api.BookingServiceInfo{ID: *b.ServiceManosID, Name: *b.ServiceManosName}
		if b.ServiceManosPrice != nil {
			info.Price = *b.ServiceManosPrice
		}
		services = append(services, info)
	}
	if b.ServicePiesID != nil && b.ServicePiesName != nil {
		info := api.BookingServiceInfo{ID: *b.ServicePiesID, Name: *b.ServicePiesName}
		if b.ServicePiesPrice != nil {
			info.Price = *b.ServicePiesPrice
		}
		services = append(services, info)
	}

	return &api.BookingResponse{
		ID:               b.ID,
		ManicuristID:     b.ManicuristID,
		ManicuristName:   b.ManicuristName,
		ClientID:         b.ClientID,
		ClientName:       b.ClientName,
		Services:         services,
		Date:             b.Date,
		Time:             b.StartTime,
		DurationHours:    float64(b.DurationMin) / 60,
		TotalPrice:       b.TotalPrice,
		DepositAmount:    b.DepositAmount,
		DepositPaid:      b.DepositPaid,
		PaymentReference: b.PaymentReference,
		Status:           string(b.Status),
		Notes:            b.Notes,
		CreatedAt:        b.CreatedAt,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
