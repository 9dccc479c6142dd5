package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestConcurrencyMiddleware_TimesOutWhenNoSlot(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	secondDone := make(chan struct{})
	var startedOnce sync.Once

	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_in_flight"})

	// segura a vaga até liberarmos
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedOnce.Do(func() { close(started) })
		<-release
		w.WriteHeader(http.StatusOK)
	})

	h := ConcurrencyMiddleware(ConcurrencyOptions{
		Max:            1,
		AcquireTimeout: 25 * time.Millisecond,
		InFlight:       inFlight,
		Logger:         slog.New(slog.DiscardHandler),
	})(next)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		w1 := httptest.NewRecorder()
		h.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "http://example/", nil))
		if w1.Code != http.StatusOK {
			t.Errorf("expected first request 200, got %d", w1.Code)
		}
	}()

	select {
	case <-started:
	case <-time.After(200 * time.Millisecond):
		close(release)
		wg.Wait()
		t.Fatalf("timeout waiting first request to start")
	}
	if got := testutil.ToFloat64(inFlight); got != 1 {
		t.Fatalf("expected 1 in flight, got %v", got)
	}

	go func() {
		defer wg.Done()
		w2 := httptest.NewRecorder()
		h.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "http://example/", nil))
		if w2.Code != http.StatusServiceUnavailable {
			t.Errorf("expected second request 503, got %d", w2.Code)
		}
		close(secondDone)
	}()

	// a segunda precisa terminar antes de liberar a primeira
	select {
	case <-secondDone:
	case <-time.After(500 * time.Millisecond):
		close(release)
		wg.Wait()
		t.Fatalf("timeout waiting second request to finish")
	}

	close(release)
	wg.Wait()

	if got := testutil.ToFloat64(inFlight); got != 0 {
		t.Fatalf("expected 0 in flight after release, got %v", got)
	}
}

func TestConcurrencyMiddleware_ClientGoneWritesNothing(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
	})
	h := ConcurrencyMiddleware(ConcurrencyOptions{Max: 1, Logger: slog.New(slog.DiscardHandler)})(next)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "http://example/", nil))
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://example/", nil).WithContext(ctx))
	if w.Body.Len() != 0 || w.Code != http.StatusOK {
		t.Fatalf("expected nothing written, got %d %q", w.Code, w.Body.String())
	}

	close(release)
	<-done
}

func TestConcurrencyMiddleware_DisabledPassesThrough(t *testing.T) {
	called := false
	h := ConcurrencyMiddleware(ConcurrencyOptions{})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "http://example/", nil))
	if !called {
		t.Fatalf("expected handler to be called")
	}
}

func TestConcurrencyMiddleware_GaugeSettlesAtZero(t *testing.T) {
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_in_flight_parallel"})
	h := ConcurrencyMiddleware(ConcurrencyOptions{
		Max:      4,
		InFlight: inFlight,
		Logger:   slog.New(slog.DiscardHandler),
	})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))

	var wg sync.WaitGroup
	for range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://example/", nil))
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(inFlight); got != 0 {
		t.Fatalf("expected gauge back to 0, got %v", got)
	}
}
