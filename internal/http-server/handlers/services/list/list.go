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

type ServiceLister interface {
	ListServices(ctx context.Context) ([]api.ServiceResponse, error)
}

type Response struct {
	response.Response
	Services []api.ServiceResponse `json:"services"`
}

func New(log *slog.Logger, lister ServiceLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.services.list.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		services, err := lister.ListServices(r.Context())
		if err != nil {
			log.Error("Failed to list services", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list services"))
			return
		}

		log.Info("Services retrieved", slog.Int("count", len(services)))

		render.JSON(w, r, Response{
			Services: services,
		})
	}
}
