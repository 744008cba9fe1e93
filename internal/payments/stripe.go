package payments

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"

	"salon-service/internal/config"
	"salon-service/internal/models"
	"salon-service/internal/service"

	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
)

// StripeProvider collects booking deposits through hosted Checkout sessions.
// It charges the deposit amount only; the balance is settled at the salon.
type StripeProvider struct {
	successURL string
	cancelURL  string
	currency   string
}

func NewStripeProvider(cfg config.Stripe) *StripeProvider {
	stripe.Key = strings.TrimSpace(cfg.SecretKey)

	if cfg.Timeout > 0 {
		stripe.SetBackend(stripe.APIBackend, stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			HTTPClient: &http.Client{Timeout: cfg.Timeout},
		}))
	}

	return &StripeProvider{
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		currency:   cfg.Currency,
	}
}

func (p *StripeProvider) CreateCheckout(ctx context.Context, b *models.Booking, description string) (*service.Checkout, error) {
	const op = "payments.StripeProvider.CreateCheckout"

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(p.successURL),
		CancelURL:         stripe.String(p.cancelURL),
		ClientReferenceID: stripe.String(b.ID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(p.currency),
					UnitAmount: stripe.Int64(toMinorUnits(b.DepositAmount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"booking_id": b.ID,
		},
	}
	params.Context = ctx

	// One session per booking attempt; provider-side retries reuse it.
	params.IdempotencyKey = stripe.String(fmt.Sprintf("booking-deposit-%s", b.ID))

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &service.Checkout{
		URL:       sess.URL,
		Reference: sess.ID,
	}, nil
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
