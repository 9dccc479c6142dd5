package application

import (
	"math"
	"time"

	"employee-gateway/middleware/ratelimit/domain"
)

// Service concentra a regra de aplicação do rate limit.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Store domain.LimiterStore
	// Unbounded é o Retry-After usado quando o bucket nunca vai liberar.
	// Padrão: 60s.
	Unbounded time.Duration
	// Now permite fixar o relógio nos testes.
	Now func() time.Time
}

func (s Service) Decide(key domain.Key) domain.Decision {
	if s.Store == nil {
		return domain.Decision{Allowed: true}
	}
	lim := s.Store.Get(key)
	if lim == nil {
		return domain.Decision{Allowed: true}
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	ok, wait := lim.Take(now())
	if ok {
		return domain.Decision{Allowed: true}
	}
	if wait < 0 {
		wait = s.Unbounded
		if wait <= 0 {
			wait = 60 * time.Second
		}
	}
	return domain.Decision{Allowed: false, RetryAfter: ceilSeconds(wait)}
}

// ceilSeconds arredonda para cima em segundos inteiros, com mínimo de 1s.
func ceilSeconds(d time.Duration) time.Duration {
	if d > math.MaxInt64-time.Second {
		return d / time.Second * time.Second
	}
	secs := (d + time.Second - 1) / time.Second
	if secs < 1 {
		secs = 1
	}
	return secs * time.Second
}
