package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"employee-gateway/employee/domain"
)

// Service orquestra as chamadas ao upstream.
//
// Rate limit e falha do upstream sobem sem alteração (apenas embrulhados com
// contexto); "não encontrado" é um resultado normal (found=false). Nenhuma
// operação re-tenta.
type Service struct {
	Upstream  domain.Upstream
	Validator *Validator
	Logger    *slog.Logger
}

func NewService(up domain.Upstream, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Upstream: up, Validator: NewValidator(), Logger: logger}
}

func (s *Service) log() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// GetAll devolve todos os funcionários na ordem do upstream.
func (s *Service) GetAll(ctx context.Context) ([]domain.Employee, error) {
	ups, err := s.Upstream.ListAll(ctx)
	if err != nil {
		return nil, s.fail(ctx, "list employees", err)
	}
	out := domain.ToPublicList(ups)
	s.log().DebugContext(ctx, "fetched employees", "count", len(out))
	return out, nil
}

func (s *Service) SearchByName(ctx context.Context, fragment string) ([]domain.Employee, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := filterByName(all, fragment)
	s.log().DebugContext(ctx, "searched employees", "fragment", fragment, "matches", len(out))
	return out, nil
}

// GetByID devolve (zero, false, nil) quando o upstream responde 404.
func (s *Service) GetByID(ctx context.Context, id string) (domain.Employee, bool, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Employee{}, false, nil
	}
	u, found, err := s.Upstream.GetOne(ctx, id)
	if err != nil {
		return domain.Employee{}, false, s.fail(ctx, "get employee", err)
	}
	if !found {
		s.log().InfoContext(ctx, "employee not found", "id", id)
		return domain.Employee{}, false, nil
	}
	return domain.ToPublic(u), true, nil
}

func (s *Service) GetHighestSalary(ctx context.Context) (int, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	return highestSalary(all), nil
}

func (s *Service) GetTopTenNamesBySalary(ctx context.Context) ([]*string, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return topNamesBySalary(all, topEarnersLimit), nil
}

// Create valida a entrada antes de qualquer chamada ao upstream. found=false
// quando o upstream aceita mas não devolve a entidade criada.
func (s *Service) Create(ctx context.Context, in domain.CreateEmployeeInput) (domain.Employee, bool, error) {
	v := s.Validator
	if v == nil {
		v = NewValidator()
	}
	if err := v.CreateInput(in); err != nil {
		s.log().InfoContext(ctx, "create rejected", "err", err)
		return domain.Employee{}, false, err
	}

	u, found, err := s.Upstream.Create(ctx, domain.ToUpstreamCreate(in))
	if err != nil {
		return domain.Employee{}, false, s.fail(ctx, "create employee", err)
	}
	if !found {
		s.log().WarnContext(ctx, "upstream returned no created employee", "name", in.Name)
		return domain.Employee{}, false, nil
	}
	created := domain.ToPublic(u)
	s.log().InfoContext(ctx, "employee created", "id", created.ID)
	return created, true, nil
}

// DeleteByID resolve o nome pelo id e remove pelo nome, que é a única forma de
// remoção que o upstream oferece.
//
// As duas chamadas não são atômicas: se o registro for removido ou renomeado
// entre elas, o DELETE pode não remover nada (found=false) ou remover outro
// funcionário com o mesmo nome.
func (s *Service) DeleteByID(ctx context.Context, id string) (string, bool, error) {
	e, found, err := s.GetByID(ctx, id)
	if err != nil || !found {
		return "", false, err
	}

	name := e.NameOrEmpty()
	deleted, err := s.Upstream.DeleteByName(ctx, name)
	if err != nil {
		return "", false, s.fail(ctx, "delete employee", err)
	}
	if !deleted {
		s.log().InfoContext(ctx, "upstream did not delete employee", "id", id, "name", name)
		return "", false, nil
	}
	s.log().InfoContext(ctx, "employee deleted", "id", id, "name", name)
	return name, true, nil
}

func (s *Service) fail(ctx context.Context, action string, err error) error {
	var rl *domain.RateLimitError
	if errors.As(err, &rl) {
		s.log().WarnContext(ctx, "upstream rate limited", "action", action,
			"retry_after_seconds", rl.RetryAfterSeconds, "has_retry_after", rl.HasRetryAfter)
	} else {
		s.log().ErrorContext(ctx, "upstream failure", "action", action, "err", err)
	}
	return fmt.Errorf("%s: %w", action, err)
}
