package get

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

type SlotProvider interface {
	AvailableSlots(ctx context.Context, manicuristID string) ([]api.SlotResponse, error)
	DaySlots(ctx context.Context, manicuristID, date string) (*api.DaySlotsResponse, error)
}

type Response struct {
	response.Response
	Slots []api.SlotResponse    `json:"slots,omitempty"`
	Day   *api.DaySlotsResponse `json:"day,omitempty"`
}

// New serves two shapes: without ?date it returns the whole booking horizon,
// with ?date it returns the per-day free/taken breakdown.
func New(log *slog.Logger, provider SlotProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.slots.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		manicuristID := chi.URLParam(r, "id")
		date := r.URL.Query().Get("date")

		if date != "" {
			day, err := provider.DaySlots(r.Context(), manicuristID, date)

			var verrs response.ValidationErrors
			if errors.As(err, &verrs) {
				log.Error("Invalid date parameter", sl.Err(err))
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

			if err != nil {
				log.Error("Failed to get day slots", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get slots"))
				return
			}

			log.Info("Day slots retrieved",
				slog.String("date", date),
				slog.Int("available", len(day.AvailableSlots)))

			render.JSON(w, r, Response{
				Day: day,
			})
			return
		}

		slots, err := provider.AvailableSlots(r.Context(), manicuristID)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to get slots", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get slots"))
			return
		}

		log.Info("Slots retrieved", slog.Int("count", len(slots)))

		render.JSON(w, r, Response{
			Slots: slots,
		})
	}
}
