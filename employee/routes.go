package employee

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

const BasePath = "/api/v1/employee"

// NewRouter monta as rotas públicas, /healthz e (se h.Stats != nil)
// /debug/upstream-stats. Middlewares transversais ficam a cargo de quem chama.
func NewRouter(h Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", h.Health)
	if h.Stats != nil {
		r.Get("/debug/upstream-stats", h.UpstreamStats)
	}

	r.Route(BasePath, func(r chi.Router) {
		r.Get("/", h.GetAll)
		r.Post("/", h.Create)
		r.Get("/search/{searchString}", h.Search)
		r.Get("/highestSalary", h.HighestSalary)
		r.Get("/topTenHighestEarningEmployeeNames", h.TopTenNames)
		r.Get("/{id}", h.GetByID)
		r.Delete("/{id}", h.DeleteByID)
	})

	return r
}
