package reschedule

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

type BookingRescheduler interface {
	RescheduleBooking(ctx context.Context, req *api.RescheduleRequest) (*api.BookingResponse, error)
}

type Request struct {
	api.RescheduleRequest
}

type Response struct {
	response.Response
	Booking api.BookingResponse `json:"booking,omitempty"`
}

func New(log *slog.Logger, rescheduler BookingRescheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.reschedule.New"

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

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		req.BookingID = id

		log.Info("Request body decoded", slog.Any("request", req))

		booking, err := rescheduler.RescheduleBooking(r.Context(), &req.RescheduleRequest)

		var verrs response.ValidationErrors
		if errors.As(err, &verrs) {
			log.Error("Validation failed", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Validation(verrs))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if errors.Is(err, response.ErrInvalidTransition) {
			log.Error("only scheduled bookings can be rescheduled")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.INVALID_TRANSITION), "only scheduled bookings can be rescheduled"))
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

		if err != nil {
			log.Error("Failed to reschedule booking", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to reschedule booking"))
			return
		}

		log.Info("Booking rescheduled", slog.String("booking_id", booking.ID))

		render.JSON(w, r, Response{
			Booking: *booking,
		})
	}
}
