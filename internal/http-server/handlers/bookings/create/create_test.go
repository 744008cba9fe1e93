package create_test

import (
	"salon-service/api"
	"salon-service/internal/http-server/handlers/bookings/create"
	"salon-service/pkg/response"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubCreator struct {
	resp *api.BookingCreatedResponse
	err  error
}

func (s *stubCreator) CreateBooking(_ context.Context, _ *api.BookingRequest) (*api.BookingCreatedResponse, error) {
	return s.resp, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const validBody = `{
	"manicurist_id": "m1",
	"client_id": "c1",
	"service_manos": "sv-manos",
	"date": "2026-08-31",
	"time": "11:00"
}`

func doRequest(handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestCreate_Success(t *testing.T) {
	creator := &stubCreator{resp: &api.BookingCreatedResponse{
		BookingID:     "b1",
		DepositAmount: 30,
		CheckoutURL:   "https://checkout.stripe.com/pay/cs_1",
	}}

	rec := doRequest(create.New(discardLogger(), creator), validBody)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Booking api.BookingCreatedResponse `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "b1", resp.Booking.BookingID)
	require.Equal(t, 30.0, resp.Booking.DepositAmount)
	require.NotEmpty(t, resp.Booking.CheckoutURL)
}

func TestCreate_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"slot taken", response.ErrSlotTaken, http.StatusConflict},
		{"locked", response.ErrLocked, http.StatusLocked},
		{"non-working day", response.ErrNonWorkingDay, http.StatusConflict},
		{"outside working hours", response.ErrOutsideWorkingHours, http.StatusConflict},
		{"staff unavailable", response.ErrStaffUnavailable, http.StatusConflict},
		{"no service selected", response.ErrNoServiceSelected, http.StatusBadRequest},
		{"not found", response.ErrNotFound, http.StatusNotFound},
		{"provider down", response.ErrUpstream, http.StatusBadGateway},
		{"validation", response.ValidationErrors{"date must be YYYY-MM-DD"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creator := &stubCreator{err: tt.err}
			rec := doRequest(create.New(discardLogger(), creator), validBody)
			require.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestCreate_BadJSON(t *testing.T) {
	rec := doRequest(create.New(discardLogger(), &stubCreator{}), "{not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
