package infra

import (
	"context"
	"errors"

	"employee-gateway/employee/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// PromOutcomeRecorder exporta os resultados do upstream como métricas Prometheus.
type PromOutcomeRecorder struct {
	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	retryAfter prometheus.Histogram
}

// NewPromOutcomeRecorder registra os coletores em reg (DefaultRegisterer se nil).
// Registrar duas vezes reaproveita os coletores já existentes.
func NewPromOutcomeRecorder(reg prometheus.Registerer) (*PromOutcomeRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "employee_gateway",
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Upstream calls by logical operation and outcome.",
	}, []string{"op", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "employee_gateway",
		Subsystem: "upstream",
		Name:      "request_duration_seconds",
		Help:      "Latency of upstream calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})
	retryAfter := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "employee_gateway",
		Subsystem: "upstream",
		Name:      "retry_after_seconds",
		Help:      "Retry-After values received with upstream 429 responses.",
		Buckets:   []float64{1, 2, 5, 10, 30, 60, 120, 300},
	})

	var err error
	if requests, err = register(reg, requests); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if retryAfter, err = register(reg, retryAfter); err != nil {
		return nil, err
	}

	return &PromOutcomeRecorder{requests: requests, duration: duration, retryAfter: retryAfter}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (p *PromOutcomeRecorder) Record(_ context.Context, ev domain.OutcomeEvent) error {
	p.requests.WithLabelValues(ev.Op, string(ev.Outcome)).Inc()
	p.duration.WithLabelValues(ev.Op).Observe(ev.Duration.Seconds())
	if ev.Outcome == domain.OutcomeRateLimited && ev.HasRetryAfter {
		p.retryAfter.Observe(float64(ev.RetryAfterSeconds))
	}
	return nil
}
