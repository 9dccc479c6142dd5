package domain

import (
	"context"
	"time"
)

type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeNotFound    Outcome = "not_found"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeFailure     Outcome = "failure"
)

// OutcomeEvent descreve o resultado de uma chamada ao upstream.
//
// Op é o nome lógico da operação (list_all, get_one, delete_by_name, create),
// nunca o id ou o nome do funcionário, para manter a cardinalidade baixa.
type OutcomeEvent struct {
	Op         string
	Outcome    Outcome
	StatusCode int

	RetryAfterSeconds int64
	HasRetryAfter     bool

	Duration time.Duration
	At       time.Time
}

// OutcomeRecorder persiste eventos de resultado do upstream.
//
// É best-effort: quem chama ignora o erro e nunca derruba a request por causa
// dele.
type OutcomeRecorder interface {
	Record(ctx context.Context, ev OutcomeEvent) error
}
