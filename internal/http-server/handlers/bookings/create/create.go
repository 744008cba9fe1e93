package create

import (
	"salon-service/api"
	"salon-service/pkg/response"
	"salon-service/pkg/sl"
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type BookingCreator interface {
	CreateBooking(ctx context.Context, req *api.BookingRequest) (*api.BookingCreatedResponse, error)
}

type Request struct {
	api.BookingRequest
}

type Response struct {
	response.Response
	Booking *api.BookingCreatedResponse `json:"booking,omitempty"`
}

func New(log *slog.Logger, creator BookingCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.create.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		log.Info("Request body decoded", slog.Any("request", req))

		booking, err := creator.CreateBooking(r.Context(), &req.BookingRequest)

		var verrs response.ValidationErrors
		if errors.As(err, &verrs) {
			log.Error("Validation failed", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Validation(verrs))
			return
		}

		if errors.Is(err, response.ErrLocked) {
			log.Error("slot is being booked by someone else")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "slot is being booked, try again"))
			return
		}

		if errors.Is(err, response.ErrSlotTaken) {
			log.Error("slot is already taken")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.SLOT_TAKEN), "slot is already taken"))
			return
		}

		if errors.Is(err, response.ErrStaffUnavailable) {
			log.Error("manicurist is not available")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.STAFF_UNAVAILABLE), "manicurist is not available"))
			return
		}

		if errors.Is(err, response.ErrNoServiceSelected) {
			log.Error("no service selected")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.NO_SERVICE_SELECTED), "select at least one service"))
			return
		}

		if errors.Is(err, response.ErrOutsideWorkingHours) {
			log.Error("time is outside working hours")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.OUTSIDE_WORKING_HOURS), "time is outside working hours"))
			return
		}

		if errors.Is(err, response.ErrNonWorkingDay) {
			log.Error("manicurist does not work that day")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.NON_WORKING_DAY), "manicurist does not work that day"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if errors.Is(err, response.ErrUpstream) {
			log.Error("payment provider request failed", sl.Err(err))
			w.WriteHeader(http.StatusBadGateway)
			render.JSON(w, r, response.Error(string(response.UPSTREAM_FAILED), "failed to create payment checkout"))
			return
		}

		if err != nil {
			log.Error("Failed to create booking", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create booking"))
			return
		}

		log.Info("Booking created", slog.String("booking_id", booking.BookingID))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			Booking: booking,
		})
	}
}
