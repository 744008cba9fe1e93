package models

import "time"

type BookingStatus string

const (
	BookingPendingPayment BookingStatus = "pending_payment"
	BookingScheduled      BookingStatus = "scheduled"
	BookingCompleted      BookingStatus = "completed"
	BookingCancelled      BookingStatus = "cancelled"
	BookingExpired        BookingStatus = "expired"
)

type ServiceCategory string

const (
	CategoryManos ServiceCategory = "manos"
	CategoryPies  ServiceCategory = "pies"
)

type Service struct {
	ID          string          `db:"id"`
	Name        string          `db:"name"`
	Category    ServiceCategory `db:"category"`
	Price       float64         `db:"price"`
	DurationMin int             `db:"duration_min"`
	Active      bool            `db:"active"`
}

// Manicurist schedule fields are owned by the staff-management side; the
// booking core only reads them.
type Manicurist struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Bio         string `db:"bio"`
	Specialties string `db:"specialties"`
	WorkingDays string `db:"working_days"`
	StartTime   string `db:"start_time"`
	EndTime     string `db:"end_time"`
	Available   bool   `db:"available"`
}

type Client struct {
	ID               string `db:"id"`
	Name             string `db:"name"`
	TotalServices    int    `db:"total_services"`
	HasFreeService   bool   `db:"has_free_service"`
	ServicesForPromo int    `db:"services_for_promo"`
	PromoActive      bool   `db:"promo_active"`
}

type Booking struct {
	ID               string        `db:"id"`
	ManicuristID     string        `db:"manicurist_id"`
	ClientID         string        `db:"client_id"`
	ServiceManosID   *string       `db:"service_manos_id"`
	ServicePiesID    *string       `db:"service_pies_id"`
	Date             string        `db:"date"`       // YYYY-MM-DD
	StartTime        string        `db:"start_time"` // HH:MM
	DurationMin      int           `db:"duration_min"`
	TotalPrice       float64       `db:"total_price"`
	DepositAmount    float64       `db:"deposit_amount"`
	DepositPaid      bool          `db:"deposit_paid"`
	PaymentReference *string       `db:"payment_reference"`
	Status           BookingStatus `db:"status"`
	Notes            string        `db:"notes"`
	PromoCounted     bool          `db:"promo_counted"`
	CreatedAt        time.Time     `db:"created_at"`

	// Joined display fields, populated on reads only.
	ManicuristName    string   `db:"manicurist_name"`
	ClientName        string   `db:"client_name"`
	ServiceManosName  *string  `db:"service_manos_name"`
	ServicePiesName   *string  `db:"service_pies_name"`
	ServiceManosPrice *float64 `db:"service_manos_price"`
	ServicePiesPrice  *float64 `db:"service_pies_price"`
}

type BookingFilters struct {
	ClientID     *string
	ManicuristID *string
	Date         *string
	Status       *BookingStatus
}

type PromotionSettings struct {
	Active           bool `db:"active"`
	RequiredServices int  `db:"required_services"`
}

// CompletionResult reports what the completed-booking transaction did: whether
// the status actually moved, whether this booking was counted toward the
// client's loyalty total, and whether the count granted a free service.
type CompletionResult struct {
	Completed bool
	Counted   bool
	Granted   bool
	Client    *Client
}
