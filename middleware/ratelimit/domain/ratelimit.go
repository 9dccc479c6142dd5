package domain

import "time"

type Key string

// Limiter decide se uma ação cabe agora e, quando não cabe, quanto falta.
//
// wait < 0 indica que a ação nunca vai caber (ex.: taxa zero com bucket vazio).
type Limiter interface {
	Take(now time.Time) (ok bool, wait time.Duration)
}

// LimiterStore obtém um limiter por chave (ex: IP, API key, "global").
type LimiterStore interface {
	Get(Key) Limiter
}

type Decision struct {
	Allowed bool
	// RetryAfter já vem arredondado para segundos inteiros quando bloqueado.
	RetryAfter time.Duration
}

// Seconds devolve RetryAfter em segundos inteiros, como vai no header.
func (d Decision) Seconds() int64 {
	return int64(d.RetryAfter / time.Second)
}
