package main

import (
	"io"
	"log/slog"
	"net/http"

	"employee-gateway/employee/application"
	"employee-gateway/employee/domain"
	"employee-gateway/internal/jsoncodec"
	"employee-gateway/middleware/httplog"
	"employee-gateway/middleware/ratelimit"
	ratedomain "employee-gateway/middleware/ratelimit/domain"

	"github.com/go-chi/chi/v5"
)

const (
	basePath      = "/api/v1/employee"
	statusOK      = "Successfully processed request."
	statusLimited = "Too many requests."
)

type routerOptions struct {
	limiter        ratedomain.LimiterStore
	omitRetryAfter bool
	// perClient troca o bucket global por um bucket por cliente (IP, ou
	// keyHeader/X-Forwarded-For quando configurados).
	perClient   bool
	keyHeader   string
	trustXFF    bool
	rateHeaders bool
	logger      *slog.Logger
}

func (o routerOptions) keyFunc() ratelimit.KeyFunc {
	if o.perClient || o.keyHeader != "" || o.trustXFF {
		return ratelimit.DefaultKeyFunc(o.keyHeader, o.trustXFF)
	}
	return ratelimit.GlobalKey
}

// newRouter monta o contrato do upstream: envelope {data,status} e campos
// employee_*. Com limiter != nil, as requests passam pelo rate limit; por
// padrão todas dividem o mesmo bucket.
func newRouter(s *store, opts routerOptions) http.Handler {
	if opts.logger == nil {
		opts.logger = slog.Default()
	}
	validator := application.NewValidator()

	r := chi.NewRouter()
	r.Use(httplog.RequestID, httplog.AccessLog(opts.logger))
	if opts.limiter != nil {
		r.Use(ratelimit.Middleware(ratelimit.Options{
			Store:               opts.limiter,
			KeyFn:               opts.keyFunc(),
			OmitRetryAfter:      opts.omitRetryAfter,
			AddRateLimitHeaders: opts.rateHeaders,
			OnReject: func(w http.ResponseWriter, r *http.Request, status int, _ ratedomain.Decision) {
				httplog.WriteJSON(w, status, domain.Envelope[any]{Status: statusLimited})
			},
		}))
	}

	r.Route(basePath, func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusOK, s.list())
		})
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			e, ok := s.get(chi.URLParam(r, "id"))
			if !ok {
				writeEnvelope[any](w, http.StatusNotFound, nil)
				return
			}
			writeEnvelope(w, http.StatusOK, e)
		})
		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var in domain.CreateEmployeeInput
			if err := jsoncodec.Decode(io.LimitReader(r.Body, 1<<20), &in); err != nil {
				httplog.WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
				return
			}
			if err := validator.CreateInput(in); err != nil {
				httplog.WriteError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
				return
			}
			writeEnvelope(w, http.StatusOK, s.create(domain.ToUpstreamCreate(in)))
		})
		r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
			var in domain.UpstreamDeleteRequest
			if err := jsoncodec.Decode(io.LimitReader(r.Body, 1<<20), &in); err != nil {
				httplog.WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
				return
			}
			writeEnvelope(w, http.StatusOK, s.deleteByName(in.Name))
		})
	})
	return r
}

func writeEnvelope[T any](w http.ResponseWriter, status int, data T) {
	httplog.WriteJSON(w, status, domain.Envelope[T]{Data: data, Status: statusOK})
}
