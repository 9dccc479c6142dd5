package ratelimit

import (
	"net"
	"net/http"
	"strings"

	"employee-gateway/middleware/ratelimit/application"
	"employee-gateway/middleware/ratelimit/domain"
)

type KeyFunc func(r *http.Request) string

// RejectFunc escreve a resposta de bloqueio. Retry-After já foi definido (a
// menos que OmitRetryAfter).
type RejectFunc func(w http.ResponseWriter, r *http.Request, status int, dec domain.Decision)

type Options struct {
	Store              domain.LimiterStore
	KeyFn              KeyFunc
	KeyHeader          string
	TrustXForwardedFor bool
	RejectStatus       int
	// OmitRetryAfter responde o bloqueio sem header Retry-After.
	OmitRetryAfter      bool
	AddRateLimitHeaders bool
	OnReject            RejectFunc
}

type rateInfo interface {
	RPS() float64
	Burst() int
}

// GlobalKey faz todas as requests dividirem o mesmo bucket.
func GlobalKey(*http.Request) string { return "global" }

func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		if trustXFF {
			// primeiro IP do X-Forwarded-For (cliente original)
			if first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(first) != "" {
				return strings.TrimSpace(first)
			}
		}

		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}

func defaultReject(w http.ResponseWriter, _ *http.Request, status int, _ domain.Decision) {
	http.Error(w, http.StatusText(status), status)
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	if opts.OnReject == nil {
		opts.OnReject = defaultReject
	}

	svc := application.Service{Store: opts.Store}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)

			if opts.AddRateLimitHeaders {
				w.Header().Set("X-RateLimit-Key", key)
				if ri, ok := opts.Store.(rateInfo); ok {
					w.Header().Set("X-RateLimit-RPS", formatFloat(ri.RPS()))
					w.Header().Set("X-RateLimit-Burst", formatInt(ri.Burst()))
				}
			}

			dec := svc.Decide(domain.Key(key))
			if !dec.Allowed {
				if !opts.OmitRetryAfter {
					w.Header().Set("Retry-After", formatInt64(dec.Seconds()))
				}
				opts.OnReject(w, r, opts.RejectStatus, dec)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
