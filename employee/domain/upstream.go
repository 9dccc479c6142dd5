package domain

import "context"

// Upstream é a porta para o serviço de funcionários de origem. Cada método faz
// exatamente uma chamada HTTP.
//
// Erros possíveis: *RateLimitError e *UpstreamError. "Não encontrado" em
// GetOne é (zero, false, nil).
type Upstream interface {
	ListAll(ctx context.Context) ([]UpstreamEmployee, error)
	GetOne(ctx context.Context, id string) (UpstreamEmployee, bool, error)
	DeleteByName(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, req UpstreamCreateRequest) (UpstreamEmployee, bool, error)
}
