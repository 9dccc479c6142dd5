package ratelimit

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"employee-gateway/middleware/ratelimit/domain"
	"employee-gateway/middleware/ratelimit/infra"
)

func okHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
}

func do(h http.Handler, remote string, hdr map[string]string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "http://example/api/v1/employee", nil)
	r.RemoteAddr = remote
	for k, v := range hdr {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestMiddleware_AllowsThenRejectsSameKey(t *testing.T) {
	calls := 0
	h := Middleware(Options{
		Store:               infra.NewStore(0.02, 1),
		AddRateLimitHeaders: true,
	})(okHandler(&calls))

	w1 := do(h, "10.0.0.1:1234", nil)
	if w1.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w1.Code)
	}
	if w1.Header().Get("X-RateLimit-Key") != "10.0.0.1" {
		t.Fatalf("expected X-RateLimit-Key header, got %q", w1.Header().Get("X-RateLimit-Key"))
	}
	if w1.Header().Get("X-RateLimit-RPS") != "0.02" || w1.Header().Get("X-RateLimit-Burst") != "1" {
		t.Fatalf("unexpected rate headers: %v", w1.Header())
	}

	w2 := do(h, "10.0.0.1:1234", nil)
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w2.Code)
	}
	// 1 token a cada 50s
	if got := w2.Header().Get("Retry-After"); got != "50" {
		t.Fatalf("expected Retry-After=50, got %q", got)
	}
	if calls != 1 {
		t.Fatalf("expected next handler to be called once, got %d", calls)
	}
}

func TestMiddleware_RetryAfterFromBucketRoundsUp(t *testing.T) {
	calls := 0
	// 1 token a cada 400ms: espera < 1s vira 1
	h := Middleware(Options{Store: infra.NewStore(2.5, 1)})(okHandler(&calls))

	do(h, "10.0.0.1:1", nil)
	w := do(h, "10.0.0.1:1", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("expected Retry-After=1, got %q", got)
	}
}

func TestMiddleware_OmitRetryAfter(t *testing.T) {
	calls := 0
	h := Middleware(Options{Store: infra.NewStore(0.02, 1), OmitRetryAfter: true})(okHandler(&calls))

	do(h, "10.0.0.1:1", nil)
	w := do(h, "10.0.0.1:1", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if _, ok := w.Header()["Retry-After"]; ok {
		t.Fatalf("expected no Retry-After header")
	}
}

func TestMiddleware_ZeroRateUsesUnboundedRetryAfter(t *testing.T) {
	calls := 0
	h := Middleware(Options{Store: infra.NewStore(0, 1)})(okHandler(&calls))

	if w := do(h, "10.0.0.1:1", nil); w.Code != http.StatusOK {
		t.Fatalf("expected burst request to pass, got %d", w.Code)
	}
	w := do(h, "10.0.0.1:1", nil)
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected 429 with Retry-After=60, got %d %q", w.Code, w.Header().Get("Retry-After"))
	}
}

func TestMiddleware_KeyByHeader(t *testing.T) {
	calls := 0
	h := Middleware(Options{Store: infra.NewStore(0.02, 1), KeyHeader: "X-Api-Key"})(okHandler(&calls))

	if w := do(h, "10.0.0.1:1234", map[string]string{"X-Api-Key": "k1"}); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for key k1, got %d", w.Code)
	}
	if w := do(h, "10.0.0.1:1234", map[string]string{"X-Api-Key": "k2"}); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for key k2, got %d", w.Code)
	}
}

func TestMiddleware_GlobalKeySharesBucket(t *testing.T) {
	calls := 0
	h := Middleware(Options{Store: infra.NewStore(0.02, 1), KeyFn: GlobalKey})(okHandler(&calls))

	do(h, "10.0.0.1:1", nil)
	if w := do(h, "10.0.0.2:1", nil); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected different clients to share the bucket, got %d", w.Code)
	}
}

func TestMiddleware_CustomReject(t *testing.T) {
	calls := 0
	var seen domain.Decision
	h := Middleware(Options{
		Store: infra.NewStore(0.02, 1),
		OnReject: func(w http.ResponseWriter, r *http.Request, status int, dec domain.Decision) {
			seen = dec
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `{"status":"Too many requests"}`)
		},
	})(okHandler(&calls))

	do(h, "10.0.0.1:1", nil)
	w := do(h, "10.0.0.1:1", nil)
	if !strings.Contains(w.Body.String(), "Too many requests") {
		t.Fatalf("expected custom body, got %q", w.Body.String())
	}
	if seen.Allowed || seen.Seconds() != 50 {
		t.Fatalf("unexpected decision %+v", seen)
	}
	if w.Header().Get("Retry-After") != "50" {
		t.Fatalf("expected Retry-After to be set before OnReject")
	}
}

func TestDefaultKeyFunc(t *testing.T) {
	cases := []struct {
		name     string
		header   string
		trustXFF bool
		set      map[string]string
		want     string
	}{
		{"header wins", "X-Client", false, map[string]string{"X-Client": " client-123 "}, "client-123"},
		{"first xff", "", true, map[string]string{"X-Forwarded-For": "1.2.3.4, 5.6.7.8"}, "1.2.3.4"},
		{"xff ignored when untrusted", "", false, map[string]string{"X-Forwarded-For": "1.2.3.4"}, "10.0.0.9"},
		{"remote host", "", false, nil, "10.0.0.9"},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
		r.RemoteAddr = "10.0.0.9:5555"
		for k, v := range tc.set {
			r.Header.Set(k, v)
		}
		if got := DefaultKeyFunc(tc.header, tc.trustXFF)(r); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}
