package infra

import (
	"context"
	"fmt"
	"sync"

	"employee-gateway/middleware/ratelimit/domain"
)

type chanPool struct {
	sem chan struct{}
}

// NewChanPool cria um semáforo baseado em channel com capacidade max.
func NewChanPool(max int) domain.SlotPool {
	return &chanPool{sem: make(chan struct{}, max)}
}

func (p *chanPool) Acquire(ctx context.Context) (func(), error) {
	// vaga livre ganha de um ctx já encerrado
	select {
	case p.sem <- struct{}{}:
		return p.releaser(), nil
	default:
	}

	select {
	case p.sem <- struct{}{}:
		return p.releaser(), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", domain.ErrNoSlot, ctx.Err())
	}
}

func (p *chanPool) releaser() func() {
	var once sync.Once
	return func() { once.Do(func() { <-p.sem }) }
}

func (p *chanPool) InUse() int { return len(p.sem) }
func (p *chanPool) Cap() int   { return cap(p.sem) }
