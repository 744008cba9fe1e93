package webhook

import (
	"salon-service/pkg/response"
	"salon-service/pkg/sl"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/stripe/stripe-go/v79"
	stripewebhook "github.com/stripe/stripe-go/v79/webhook"
)

type DepositConfirmer interface {
	RecordProviderEvent(ctx context.Context, provider, eventID, eventType string, payload []byte) error
	ConfirmDeposit(ctx context.Context, bookingID, paymentRef string, amount float64) error
}

type Response struct {
	response.Response
	Status string `json:"status"`
}

// New verifies the Stripe signature, records the event for replay protection,
// and applies checkout.session.completed to its booking. After the signature
// check every outcome is 200 so the provider stops retrying.
func New(log *slog.Logger, confirmer DepositConfirmer, webhookSecret string, tolerance time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.payments.webhook.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			log.Error("Failed to read request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to read request body"))
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")

		evt, err := stripewebhook.ConstructEventWithTolerance(body, sigHeader, webhookSecret, tolerance)
		if err != nil {
			log.Error("Invalid webhook signature", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid signature"))
			return
		}

		eventType := string(evt.Type)

		log.Info("Provider event received",
			slog.String("provider_event_id", evt.ID),
			slog.String("event_type", eventType),
		)

		// A replayed event id is not a reason to skip the confirmation: a
		// prior delivery may have recorded the row and then failed before
		// the booking transitioned. ConfirmDeposit's status CAS makes the
		// re-run safe.
		duplicate := false

		err = confirmer.RecordProviderEvent(r.Context(), "stripe", evt.ID, eventType, body)
		if errors.Is(err, response.ErrDuplicateEvent) {
			log.Info("Provider event redelivered", slog.String("provider_event_id", evt.ID))
			duplicate = true
		} else if err != nil {
			log.Error("Failed to record provider event", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to record provider event"))
			return
		}

		if eventType != "checkout.session.completed" {
			if duplicate {
				render.JSON(w, r, Response{Status: "duplicate"})
				return
			}
			render.JSON(w, r, Response{Status: "ignored"})
			return
		}

		var session stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &session); err != nil {
			log.Error("Invalid checkout session payload", sl.Err(err))
			render.JSON(w, r, Response{Status: "ignored"})
			return
		}

		bookingID := session.ClientReferenceID
		if bookingID == "" {
			bookingID = session.Metadata["booking_id"]
		}
		if bookingID == "" {
			log.Warn("Checkout session has no booking reference", slog.String("session_id", session.ID))
			render.JSON(w, r, Response{Status: "ignored"})
			return
		}

		paymentRef := session.ID
		if session.PaymentIntent != nil {
			paymentRef = session.PaymentIntent.ID
		}

		amount := float64(session.AmountTotal) / 100

		if err := confirmer.ConfirmDeposit(r.Context(), bookingID, paymentRef, amount); err != nil {
			log.Error("Failed to confirm deposit", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to confirm deposit"))
			return
		}

		if duplicate {
			render.JSON(w, r, Response{Status: "duplicate"})
			return
		}

		render.JSON(w, r, Response{Status: "ok"})
	}
}
