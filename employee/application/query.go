package application

import (
	"slices"
	"strings"

	"employee-gateway/employee/domain"
)

const topEarnersLimit = 10

// filterByName mantém, na ordem original, quem tem nome contendo fragment
// (sem diferenciar maiúsculas). Nome nulo nunca casa.
func filterByName(all []domain.Employee, fragment string) []domain.Employee {
	needle := strings.ToLower(fragment)
	out := make([]domain.Employee, 0, len(all))
	for _, e := range all {
		if e.Name == nil {
			continue
		}
		if strings.Contains(strings.ToLower(*e.Name), needle) {
			out = append(out, e)
		}
	}
	return out
}

// highestSalary devolve o maior salário informado, ou 0 se nenhum foi.
func highestSalary(all []domain.Employee) int {
	best, seen := 0, false
	for _, e := range all {
		if e.Salary == nil {
			continue
		}
		if !seen || *e.Salary > best {
			best, seen = *e.Salary, true
		}
	}
	return best
}

// topNamesBySalary ordena por salário decrescente (nulos por último, ordem
// original preservada nos empates) e projeta os nomes dos n primeiros. Nome
// ausente continua nil.
func topNamesBySalary(all []domain.Employee, n int) []*string {
	sorted := slices.Clone(all)
	slices.SortStableFunc(sorted, func(a, b domain.Employee) int {
		switch {
		case a.Salary == nil && b.Salary == nil:
			return 0
		case a.Salary == nil:
			return 1
		case b.Salary == nil:
			return -1
		case *a.Salary > *b.Salary:
			return -1
		case *a.Salary < *b.Salary:
			return 1
		}
		return 0
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}
	names := make([]*string, 0, len(sorted))
	for _, e := range sorted {
		names = append(names, e.Name)
	}
	return names
}
