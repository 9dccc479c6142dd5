package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidInput é a causa de todo ValidationError.
var ErrInvalidInput = errors.New("employee: invalid input")

// RateLimitError sinaliza que o upstream respondeu 429.
//
// Nunca é absorvido nem re-tentado dentro do proxy: o chamador recebe a
// informação para fazer backoff.
type RateLimitError struct {
	Op                string
	RetryAfterSeconds int64
	HasRetryAfter     bool
}

func (e *RateLimitError) Error() string {
	if e.HasRetryAfter {
		return fmt.Sprintf("upstream: %s: rate limited (retry after %ds)", e.Op, e.RetryAfterSeconds)
	}
	return fmt.Sprintf("upstream: %s: rate limited", e.Op)
}

// RetryAfter devolve a duração sugerida pelo upstream, se houver.
func (e *RateLimitError) RetryAfter() (time.Duration, bool) {
	if !e.HasRetryAfter {
		return 0, false
	}
	return time.Duration(e.RetryAfterSeconds) * time.Second, true
}

// NewRateLimitError interpreta o valor cru do header Retry-After. Só inteiros
// são aceitos; qualquer outra coisa resulta em retry-after ausente.
func NewRateLimitError(op, retryAfterHeader string) *RateLimitError {
	e := &RateLimitError{Op: op}
	v := strings.TrimSpace(retryAfterHeader)
	if v == "" {
		return e
	}
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		e.RetryAfterSeconds = secs
		e.HasRetryAfter = true
	}
	return e
}

// UpstreamError é a falha genérica do upstream: status não-2xx (exceto 429 e o
// 404 de busca por id), erro de transporte ou corpo ilegível.
type UpstreamError struct {
	Op         string
	Method     string
	URL        string
	StatusCode int // 0 quando não houve resposta
	Body       []byte
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("upstream: %s: %s %s: %v", e.Op, e.Method, e.URL, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("upstream: %s: %s %s status=%d: %v", e.Op, e.Method, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream: %s: %s %s status=%d body=%s", e.Op, e.Method, e.URL, e.StatusCode, snippet(e.Body, 300))
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ValidationError lista os campos rejeitados de uma entrada de criação.
type ValidationError struct {
	Fields []FieldError
}

type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" ("+f.Rule+")")
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func snippet(b []byte, max int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
