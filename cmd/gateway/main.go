package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"employee-gateway/employee"
	"employee-gateway/employee/application"
	"employee-gateway/employee/domain"
	"employee-gateway/employee/infra"
	"employee-gateway/middleware/httplog"
	"employee-gateway/middleware/ratelimit"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := readConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg, os.Stderr)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("gateway stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	memory := infra.NewMemoryOutcomeStore()
	prom, err := infra.NewPromOutcomeRecorder(reg)
	if err != nil {
		return fmt.Errorf("register upstream metrics: %w", err)
	}
	recorders := infra.FanoutRecorder{memory, prom}

	if cfg.OutcomeStatsEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.OutcomeStatsRedisAddr,
			Password: cfg.OutcomeStatsRedisPassword,
			DB:       cfg.OutcomeStatsRedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			return fmt.Errorf("redis outcome stats ping: %w", err)
		}

		recorders = append(recorders, infra.NewRedisOutcomeStore(
			rdb,
			infra.WithOutcomePrefix(cfg.OutcomeStatsPrefix),
			infra.WithOutcomeTTL(cfg.OutcomeStatsTTL),
			infra.WithOutcomeBucket(cfg.OutcomeStatsBucket),
		))
	}

	client := infra.NewClient(cfg.UpstreamURL,
		infra.WithPool(cfg.UpstreamMaxConns, cfg.UpstreamMaxIdleConns),
		infra.WithTimeouts(cfg.UpstreamDialTimeout, cfg.UpstreamResponseTimeout),
		infra.WithRecorder(loggingRecorder{next: recorders, logger: logger}),
		infra.WithRecordTimeout(cfg.OutcomeStatsTimeout),
	)
	svc := application.NewService(client, logger)

	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "employee_gateway",
		Name:      "in_flight_requests",
		Help:      "Requests holding a concurrency slot.",
	})
	reg.MustRegister(inFlight)

	h := httplog.Chain(
		employee.NewRouter(employee.Handler{Service: svc, Stats: memory, Logger: logger}),
		httplog.RequestID,
		httplog.AccessLog(logger),
		httplog.Recover(logger),
		ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
			Max:            cfg.ConcurrencyMax,
			RejectStatus:   http.StatusServiceUnavailable,
			AcquireTimeout: cfg.ConcurrencyTimeout,
			InFlight:       inFlight,
			Logger:         logger,
		}),
	)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
	servers := []*http.Server{srv}

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		metricsSrv = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		servers = append(servers, metricsSrv)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range servers {
		g.Go(func() error {
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen %s: %w", s.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		var errs []error
		for _, s := range servers {
			errs = append(errs, s.Shutdown(shutdownCtx))
		}
		return errors.Join(errs...)
	})

	logger.Info("gateway listening",
		"addr", cfg.ListenAddr,
		"upstream", client.BaseURL(),
		"metrics_addr", cfg.MetricsAddr,
	)
	logger.Info("upstream pool",
		"max_conns_per_host", cfg.UpstreamMaxConns,
		"max_idle_conns", cfg.UpstreamMaxIdleConns,
		"dial_timeout", cfg.UpstreamDialTimeout,
		"response_timeout", cfg.UpstreamResponseTimeout,
	)
	logger.Info("concurrency", "max", cfg.ConcurrencyMax, "acquire_timeout", cfg.ConcurrencyTimeout)
	logger.Info("outcome stats",
		"redis_enabled", cfg.OutcomeStatsEnabled,
		"redis_addr", cfg.OutcomeStatsRedisAddr,
		"bucket", cfg.OutcomeStatsBucket,
		"ttl", cfg.OutcomeStatsTTL,
	)

	return g.Wait()
}

// loggingRecorder registra em log as falhas dos destinos de métricas, que de
// outra forma seriam descartadas pelo cliente do upstream.
type loggingRecorder struct {
	next   domain.OutcomeRecorder
	logger *slog.Logger
}

func (l loggingRecorder) Record(ctx context.Context, ev domain.OutcomeEvent) error {
	err := l.next.Record(ctx, ev)
	if err != nil {
		l.logger.WarnContext(ctx, "outcome record failed", "op", ev.Op, "err", err)
	}
	return err
}
