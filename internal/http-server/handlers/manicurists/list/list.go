package list

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

type ManicuristLister interface {
	ListManicurists(ctx context.Context) ([]api.ManicuristResponse, error)
}

type Response struct {
	response.Response
	Manicurists []api.ManicuristResponse `json:"manicurists"`
}

func New(log *slog.Logger, lister ManicuristLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.manicurists.list.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		manicurists, err := lister.ListManicurists(r.Context())
		if err != nil {
			log.Error("Failed to list manicurists", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list manicurists"))
			return
		}

		log.Info("Manicurists retrieved", slog.Int("count", len(manicurists)))

		render.JSON(w, r, Response{
			Manicurists: manicurists,
		})
	}
}
