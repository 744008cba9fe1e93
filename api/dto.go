package api

import "time"

type ServiceResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Price         float64 `json:"price"`
	DurationHours float64 `json:"duration_hours"`
}

type ManicuristResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Bio         string `json:"bio,omitempty"`
	Specialties string `json:"specialties,omitempty"`
	WorkingDays string `json:"working_days"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Available   bool   `json:"available"`
}

type SlotResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DaySlotsResponse is the per-date availability view: HH:MM strings split into
// free and taken, plus the manicurist's display name.
type DaySlotsResponse struct {
	Employee       string    `json:"employee"`
	EmployeeID     string    `json:"employee_id"`
	Date           string    `json:"date"`
	AvailableSlots []string  `json:"available_slots"`
	OccupiedSlots  []string  `json:"occupied_slots"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type BookingRequest struct {
	ManicuristID string `json:"manicurist_id"`
	ClientID     string `json:"client_id"`
	ServiceManos string `json:"service_manos,omitempty"`
	ServicePies  string `json:"service_pies,omitempty"`
	Date         string `json:"date"` // YYYY-MM-DD
	Time         string `json:"time"` // HH:MM
	Notes        string `json:"notes,omitempty"`
}

type BookingCreatedResponse struct {
	BookingID     string  `json:"booking_id"`
	DepositAmount float64 `json:"deposit_amount"`
	CheckoutURL   string  `json:"checkout_url"`
}

type BookingServiceInfo struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type BookingResponse struct {
	ID               string               `json:"id"`
	ManicuristID     string               `json:"manicurist_id"`
	ManicuristName   string               `json:"manicurist_name,omitempty"`
	ClientID         string               `json:"client_id"`
	ClientName       string               `json:"client_name,omitempty"`
	Services         []BookingServiceInfo `json:"services"`
	Date             string               `json:"date"`
	Time             string               `json:"time"`
	DurationHours    float64              `json:"duration_hours"`
	TotalPrice       float64              `json:"total_price"`
	DepositAmount    float64              `json:"deposit_amount"`
	DepositPaid      bool                 `json:"deposit_paid"`
	PaymentReference *string              `json:"payment_reference,omitempty"`
	Status           string               `json:"status"`
	Notes            string               `json:"notes,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
}

type RescheduleRequest struct {
	BookingID    string `json:"booking_id"`
	ManicuristID string `json:"manicurist_id,omitempty"`
	Date         string `json:"date"`
	Time         string `json:"time"`
}

type DepositStatusResponse struct {
	Paid bool `json:"paid"`
}

type PromotionResponse struct {
	Active           bool `json:"active"`
	RequiredServices int  `json:"required_services"`
}
