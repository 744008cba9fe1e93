package deposit

import (
	"salon-service/api"
	"salon-service/pkg/response"
	"salon-service/pkg/sl"
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type DepositChecker interface {
	DepositStatus(ctx context.Context, bookingID string) (*api.DepositStatusResponse, error)
}

type Response struct {
	response.Response
	Deposit *api.DepositStatusResponse `json:"deposit,omitempty"`
}

// New reports whether a booking's deposit has been received; the booking page
// polls it after redirecting to checkout.
func New(log *slog.Logger, checker DepositChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.deposit.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")
		if id == "" {
			log.Error("id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id is required"))
			return
		}

		deposit, err := checker.DepositStatus(r.Context(), id)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to get deposit status", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get deposit status"))
			return
		}

		render.JSON(w, r, Response{
			Deposit: deposit,
		})
	}
}
