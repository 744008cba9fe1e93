package get

import (
	"salon-service/api"
	"salon-service/internal/models"
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

type BookingGetter interface {
	GetBooking(ctx context.Context, id string) (*api.BookingResponse, error)
	ListBookings(ctx context.Context, f *models.BookingFilters) ([]*api.BookingResponse, error)
}

type Response struct {
	response.Response
	Bookings []api.BookingResponse `json:"bookings,omitempty"`
	Booking  *api.BookingResponse  `json:"booking,omitempty"`
}

func New(log *slog.Logger, getter BookingGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")

		if id != "" {
			booking, err := getter.GetBooking(r.Context(), id)

			if errors.Is(err, response.ErrNotFound) {
				log.Error("resource not found")
				w.WriteHeader(http.StatusNotFound)
				render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
				return
			}

			if err != nil {
				log.Error("Failed to get booking", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get booking"))
				return
			}

			log.Info("Booking retrieved", slog.String("booking_id", booking.ID))
			render.JSON(w, r, Response{
				Booking: booking,
			})
			return
		}

		var filters models.BookingFilters

		if v := r.URL.Query().Get("client_id"); v != "" {
			filters.ClientID = &v
		}
		if v := r.URL.Query().Get("manicurist_id"); v != "" {
			filters.ManicuristID = &v
		}
		if v := r.URL.Query().Get("date"); v != "" {
			filters.Date = &v
		}
		if v := r.URL.Query().Get("status"); v != "" {
			status := models.BookingStatus(v)
			filters.Status = &status
		}

		bookings, err := getter.ListBookings(r.Context(), &filters)
		if err != nil {
			log.Error("Failed to list bookings", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list bookings"))
			return
		}

		log.Info("Bookings retrieved", slog.Int("count", len(bookings)))

		bookingsResponse := make([]api.BookingResponse, len(bookings))
		for i, b := range bookings {
			bookingsResponse[i] = *b
		}

		render.JSON(w, r, Response{
			Bookings: bookingsResponse,
		})
	}
}
