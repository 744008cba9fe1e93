package get

import (
	"salon-service/api"
	"salon-service/pkg/response"
	"salon-service/pkg/sl"
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type PromotionGetter interface {
	Promotion(ctx context.Context) (*api.PromotionResponse, error)
}

type Response struct {
	response.Response
	Promotion *api.PromotionResponse `json:"promotion,omitempty"`
}

func New(log *slog.Logger, getter PromotionGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.promotion.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		promotion, err := getter.Promotion(r.Context())
		if err != nil {
			log.Error("Failed to get promotion", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get promotion"))
			return
		}

		render.JSON(w, r, Response{
			Promotion: promotion,
		})
	}
}
