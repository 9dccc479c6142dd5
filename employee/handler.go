package employee

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"employee-gateway/employee/domain"
	"employee-gateway/employee/infra"
	"employee-gateway/internal/jsoncodec"
	"employee-gateway/middleware/httplog"

	"github.com/go-chi/chi/v5"
)

const maxCreateBodyBytes = 1 << 20

// Service é o que o adapter precisa dos casos de uso (implementado por
// *application.Service).
type Service interface {
	GetAll(ctx context.Context) ([]domain.Employee, error)
	SearchByName(ctx context.Context, fragment string) ([]domain.Employee, error)
	GetByID(ctx context.Context, id string) (domain.Employee, bool, error)
	GetHighestSalary(ctx context.Context) (int, error)
	GetTopTenNamesBySalary(ctx context.Context) ([]*string, error)
	Create(ctx context.Context, in domain.CreateEmployeeInput) (domain.Employee, bool, error)
	DeleteByID(ctx context.Context, id string) (string, bool, error)
}

// StatsSource fornece os contadores servidos em /debug/upstream-stats.
type StatsSource interface {
	Snapshot() infra.OutcomeSnapshot
}

type Handler struct {
	Service Service
	Stats   StatsSource
	Logger  *slog.Logger
}

func (h Handler) log() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func (h Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.GetAll(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httplog.WriteJSON(w, http.StatusOK, out)
}

func (h Handler) Search(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.SearchByName(r.Context(), pathParam(r, "searchString"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httplog.WriteJSON(w, http.StatusOK, out)
}

func (h Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	e, found, err := h.Service.GetByID(r.Context(), pathParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if !found {
		httplog.WriteError(w, r, http.StatusNotFound, "not_found", "employee not found")
		return
	}
	httplog.WriteJSON(w, http.StatusOK, e)
}

func (h Handler) HighestSalary(w http.ResponseWriter, r *http.Request) {
	v, err := h.Service.GetHighestSalary(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httplog.WriteJSON(w, http.StatusOK, v)
}

func (h Handler) TopTenNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.Service.GetTopTenNamesBySalary(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httplog.WriteJSON(w, http.StatusOK, names)
}

func (h Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateEmployeeInput
	if err := jsoncodec.Decode(io.LimitReader(r.Body, maxCreateBodyBytes), &in); err != nil {
		httplog.WriteError(w, r, http.StatusBadRequest, "invalid_json", "request body must be a JSON employee")
		return
	}

	e, found, err := h.Service.Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if !found {
		httplog.WriteError(w, r, http.StatusBadRequest, "not_created", "upstream did not return the created employee")
		return
	}
	httplog.WriteJSON(w, http.StatusOK, e)
}

func (h Handler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	name, found, err := h.Service.DeleteByID(r.Context(), pathParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if !found {
		httplog.WriteError(w, r, http.StatusNotFound, "not_found", "employee not found")
		return
	}
	httplog.WriteJSON(w, http.StatusOK, name)
}

func (h Handler) Health(w http.ResponseWriter, r *http.Request) {
	httplog.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h Handler) UpstreamStats(w http.ResponseWriter, r *http.Request) {
	httplog.WriteJSON(w, http.StatusOK, h.Stats.Snapshot())
}

// pathParam devolve o parâmetro já decodificado. O chi entrega o trecho cru
// quando a URL tem RawPath (ex.: %2F dentro do id).
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v
	}
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}
