package ratelimit

import (
	"log/slog"
	"net/http"
	"time"

	"employee-gateway/middleware/httplog"
	"employee-gateway/middleware/ratelimit/application"
	"employee-gateway/middleware/ratelimit/infra"
)

// Gauge é o mínimo de prometheus.Gauge usado para expor as vagas ocupadas.
type Gauge interface {
	Inc()
	Dec()
}

type ConcurrencyOptions struct {
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
	InFlight       Gauge
	Logger         *slog.Logger
}

// ConcurrencyMiddleware limita quantas requests ficam em voo ao mesmo tempo.
// Quem chega com tudo ocupado espera; se a espera estourar AcquireTimeout a
// resposta é RejectStatus (503 por padrão). Se o cliente desistir antes, nada
// é escrito.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	svc := application.ConcurrencyService{
		Pool:           infra.NewChanPool(opts.Max),
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, err := svc.Acquire(r.Context())
			if err != nil {
				if r.Context().Err() != nil {
					return
				}
				opts.Logger.WarnContext(r.Context(), "concurrency slot timeout",
					"request_id", httplog.RequestIDFrom(r.Context()),
					"max", opts.Max,
					"in_flight", svc.InFlight(),
					"timeout", opts.AcquireTimeout,
				)
				httplog.WriteError(w, r, opts.RejectStatus, "overloaded", "too many requests in flight")
				return
			}
			if opts.InFlight != nil {
				opts.InFlight.Inc()
				defer opts.InFlight.Dec()
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
