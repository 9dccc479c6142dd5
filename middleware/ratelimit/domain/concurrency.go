package domain

import (
	"context"
	"errors"
)

// ErrNoSlot é devolvido quando a vaga não sai antes do ctx encerrar.
var ErrNoSlot = errors.New("ratelimit: no concurrency slot available")

// SlotPool representa um recurso com capacidade finita (ex: vagas para chamadas
// simultâneas ao upstream).
//
// Acquire bloqueia até conseguir uma vaga ou até o ctx encerrar; nesse caso o
// erro casa com ErrNoSlot e com ctx.Err(). O release devolvido pode ser chamado
// mais de uma vez, só a primeira conta.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), err error)
	InUse() int
	Cap() int
}
