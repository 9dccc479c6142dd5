// upstream-mock é um serviço de funcionários em memória, com rate limit global,
// usado para validar o gateway manualmente.
//
//	MOCK_LISTEN_ADDR=:8112 MOCK_RATE_RPS=0.2 MOCK_RATE_BURST=5 go run ./teste-validacao/upstream-mock
//
// MOCK_RATE_KEY=client (ou MOCK_RATE_KEY_HEADER / MOCK_TRUST_XFF) dá um bucket
// por cliente; MOCK_RATE_HEADERS=true expõe X-RateLimit-*.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"employee-gateway/middleware/ratelimit/infra"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	addr := getenvDefault("MOCK_LISTEN_ADDR", ":8112")
	rps := getenvFloatDefault("MOCK_RATE_RPS", 0.5)
	burst := getenvIntDefault("MOCK_RATE_BURST", 10)
	seed := getenvIntDefault("MOCK_SEED", 50)
	omit := getenvBoolDefault("MOCK_OMIT_RETRY_AFTER", false)
	perClient := getenvDefault("MOCK_RATE_KEY", "global") == "client"
	keyHeader := os.Getenv("MOCK_RATE_KEY_HEADER")
	trustXFF := getenvBoolDefault("MOCK_TRUST_XFF", false)
	rateHeaders := getenvBoolDefault("MOCK_RATE_HEADERS", false)

	s := newStore()
	s.seed(seed)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := routerOptions{
		omitRetryAfter: omit,
		perClient:      perClient,
		keyHeader:      keyHeader,
		trustXFF:       trustXFF,
		rateHeaders:    rateHeaders,
		logger:         logger,
	}
	if rps > 0 {
		limiter := infra.NewStore(rps, burst)
		limiter.StartJanitor(ctx)
		opts.limiter = limiter
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(s, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("upstream mock listening",
		"addr", addr, "seeded", seed, "rps", rps, "burst", burst,
		"omit_retry_after", omit, "per_client", perClient, "key_header", keyHeader, "trust_xff", trustXFF,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	i, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return i
}

func getenvFloatDefault(k string, def float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(k), 64)
	if err != nil {
		return def
	}
	return f
}

func getenvBoolDefault(k string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(k))
	if err != nil {
		return def
	}
	return b
}
