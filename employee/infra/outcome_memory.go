package infra

import (
	"context"
	"sync"

	"employee-gateway/employee/domain"
)

type Counters struct {
	OK          int64 `json:"ok"`
	NotFound    int64 `json:"not_found"`
	RateLimited int64 `json:"rate_limited"`
	Failure     int64 `json:"failure"`
}

func (c *Counters) add(o domain.Outcome) {
	switch o {
	case domain.OutcomeOK:
		c.OK++
	case domain.OutcomeNotFound:
		c.NotFound++
	case domain.OutcomeRateLimited:
		c.RateLimited++
	default:
		c.Failure++
	}
}

// OutcomeSnapshot é a visão servida em /debug/upstream-stats.
type OutcomeSnapshot struct {
	Total Counters            `json:"total"`
	ByOp  map[string]Counters `json:"by_op"`
	// LastRetryAfterSeconds é o último Retry-After recebido do upstream (-1 se nunca houve).
	LastRetryAfterSeconds int64 `json:"last_retry_after_seconds"`
}

// MemoryOutcomeStore conta resultados do upstream em memória.
//
// Não faz expiração; os contadores vivem enquanto o processo viver.
type MemoryOutcomeStore struct {
	mu             sync.Mutex
	total          Counters
	byOp           map[string]Counters
	lastRetryAfter int64
}

func NewMemoryOutcomeStore() *MemoryOutcomeStore {
	return &MemoryOutcomeStore{
		byOp:           make(map[string]Counters),
		lastRetryAfter: -1,
	}
}

func (s *MemoryOutcomeStore) Record(_ context.Context, ev domain.OutcomeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev.Outcome)
	c := s.byOp[ev.Op]
	c.add(ev.Outcome)
	s.byOp[ev.Op] = c
	if ev.Outcome == domain.OutcomeRateLimited && ev.HasRetryAfter {
		s.lastRetryAfter = ev.RetryAfterSeconds
	}
	return nil
}

func (s *MemoryOutcomeStore) Snapshot() OutcomeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := OutcomeSnapshot{
		Total:                 s.total,
		ByOp:                  make(map[string]Counters, len(s.byOp)),
		LastRetryAfterSeconds: s.lastRetryAfter,
	}
	for k, v := range s.byOp {
		out.ByOp[k] = v
	}
	return out
}
