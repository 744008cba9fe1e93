package webhook_test

import (
	"salon-service/internal/http-server/handlers/payments/webhook"
	"salon-service/pkg/response"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

type stubConfirmer struct {
	seenEvents map[string]struct{}

	confirmedBooking string
	confirmedRef     string
	confirmedAmount  float64
	confirmCalls     int
	failConfirms     int
}

func newStubConfirmer() *stubConfirmer {
	return &stubConfirmer{seenEvents: make(map[string]struct{})}
}

func (s *stubConfirmer) RecordProviderEvent(_ context.Context, provider, eventID, _ string, _ []byte) error {
	key := provider + ":" + eventID
	if _, ok := s.seenEvents[key]; ok {
		return response.ErrDuplicateEvent
	}
	s.seenEvents[key] = struct{}{}
	return nil
}

func (s *stubConfirmer) ConfirmDeposit(_ context.Context, bookingID, paymentRef string, amount float64) error {
	s.confirmCalls++
	if s.failConfirms > 0 {
		s.failConfirms--
		return fmt.Errorf("storage unavailable")
	}
	s.confirmedBooking = bookingID
	s.confirmedRef = paymentRef
	s.confirmedAmount = amount
	return nil
}

func signedRequest(t *testing.T, body string) *http.Request {
	t.Helper()

	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, body)))
	sig := hex.EncodeToString(mac.Sum(nil))

	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%s", ts, sig))
	return req
}

func eventBody(eventID string) string {
	return fmt.Sprintf(`{
		"id": %q,
		"api_version": "2024-06-20",
		"type": "checkout.session.completed",
		"created": %d,
		"data": {
			"object": {
				"id": "cs_test_1",
				"client_reference_id": "booking-1",
				"payment_intent": "pi_test_1",
				"amount_total": 5400
			}
		}
	}`, eventID, time.Now().Unix())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWebhook_ConfirmsDeposit(t *testing.T) {
	confirmer := newStubConfirmer()
	handler := webhook.New(discardLogger(), confirmer, testSecret, 5*time.Minute)

	rec := httptest.NewRecorder()
	handler(rec, signedRequest(t, eventBody("evt_1")))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, confirmer.confirmCalls)
	require.Equal(t, "booking-1", confirmer.confirmedBooking)
	require.Equal(t, "pi_test_1", confirmer.confirmedRef)
	require.Equal(t, 54.0, confirmer.confirmedAmount)
}

func TestWebhook_ReplayIsDuplicate(t *testing.T) {
	confirmer := newStubConfirmer()
	handler := webhook.New(discardLogger(), confirmer, testSecret, 5*time.Minute)

	rec := httptest.NewRecorder()
	handler(rec, signedRequest(t, eventBody("evt_1")))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler(rec, signedRequest(t, eventBody("evt_1")))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "duplicate", resp.Status)

	// A replay re-runs the confirmation; the store's status CAS is what
	// keeps the transition single-shot.
	require.Equal(t, 2, confirmer.confirmCalls)
	require.Equal(t, "booking-1", confirmer.confirmedBooking)
}

func TestWebhook_RedeliveryAfterConfirmFailure(t *testing.T) {
	confirmer := newStubConfirmer()
	confirmer.failConfirms = 1
	handler := webhook.New(discardLogger(), confirmer, testSecret, 5*time.Minute)

	// First delivery records the event row but the confirmation fails, so
	// the provider is told to retry.
	rec := httptest.NewRecorder()
	handler(rec, signedRequest(t, eventBody("evt_retry")))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, 1, confirmer.confirmCalls)
	require.Empty(t, confirmer.confirmedBooking)

	// The retry hits the duplicate-event guard but must still confirm the
	// deposit, or the payment is lost.
	rec = httptest.NewRecorder()
	handler(rec, signedRequest(t, eventBody("evt_retry")))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2, confirmer.confirmCalls)
	require.Equal(t, "booking-1", confirmer.confirmedBooking)
	require.Equal(t, "pi_test_1", confirmer.confirmedRef)
}

func TestWebhook_BadSignature(t *testing.T) {
	confirmer := newStubConfirmer()
	handler := webhook.New(discardLogger(), confirmer, testSecret, 5*time.Minute)

	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(eventBody("evt_1")))
	req.Header.Set("Stripe-Signature", "t=123,v1=deadbeef")

	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, 0, confirmer.confirmCalls)
	require.Empty(t, confirmer.seenEvents)
}

func TestWebhook_IgnoresOtherEventTypes(t *testing.T) {
	confirmer := newStubConfirmer()
	handler := webhook.New(discardLogger(), confirmer, testSecret, 5*time.Minute)

	body := fmt.Sprintf(`{
		"id": "evt_2",
		"api_version": "2024-06-20",
		"type": "checkout.session.expired",
		"created": %d,
		"data": {"object": {"id": "cs_test_2"}}
	}`, time.Now().Unix())

	rec := httptest.NewRecorder()
	handler(rec, signedRequest(t, body))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 0, confirmer.confirmCalls)

	var resp struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "ignored", resp.Status)
}
