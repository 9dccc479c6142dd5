package main

import (
	"strings"
	"sync"

	"employee-gateway/employee/domain"

	"github.com/google/uuid"
)

const emailDomain = "company.com"

// store guarda os funcionários em memória, na ordem de criação.
type store struct {
	mu   sync.RWMutex
	rows []domain.UpstreamEmployee
}

func newStore() *store { return &store{} }

func (s *store) list() []domain.UpstreamEmployee {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.UpstreamEmployee, len(s.rows))
	copy(out, s.rows)
	return out
}

func (s *store) get(id string) (domain.UpstreamEmployee, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.rows {
		if e.ID == id {
			return e, true
		}
	}
	return domain.UpstreamEmployee{}, false
}

func (s *store) create(in domain.UpstreamCreateRequest) domain.UpstreamEmployee {
	name, title := in.Name, in.Title
	salary, age := in.Salary, in.Age
	email := emailFor(name)
	e := domain.UpstreamEmployee{
		ID:     uuid.NewString(),
		Name:   &name,
		Salary: &salary,
		Age:    &age,
		Title:  &title,
		Email:  &email,
	}

	s.mu.Lock()
	s.rows = append(s.rows, e)
	s.mu.Unlock()
	return e
}

// deleteByName remove o primeiro funcionário com esse nome.
func (s *store) deleteByName(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.rows {
		if e.Name != nil && *e.Name == name {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return true
		}
	}
	return false
}

func (s *store) seed(n int) {
	for i := 0; i < n; i++ {
		p := seedPeople[i%len(seedPeople)]
		s.create(domain.UpstreamCreateRequest{
			Name:   p.name,
			Salary: p.salary + 1000*(i/len(seedPeople)),
			Age:    p.age,
			Title:  p.title,
		})
	}
}

func emailFor(name string) string {
	local := strings.ToLower(strings.Join(strings.Fields(name), "."))
	if local == "" {
		local = "employee"
	}
	return local + "@" + emailDomain
}

var seedPeople = []struct {
	name   string
	salary int
	age    int
	title  string
}{
	{"Tiger Nixon", 320800, 61, "System Architect"},
	{"Garrett Winters", 170750, 63, "Accountant"},
	{"Ashton Cox", 86000, 66, "Junior Technical Author"},
	{"Cedric Kelly", 433060, 22, "Senior Javascript Developer"},
	{"Airi Satou", 162700, 33, "Accountant"},
	{"Brielle Williamson", 372000, 61, "Integration Specialist"},
	{"Herrod Chandler", 137500, 59, "Sales Assistant"},
	{"Rhona Davidson", 327900, 55, "Integration Specialist"},
	{"Colleen Hurst", 205500, 39, "Javascript Developer"},
	{"Sonya Frost", 103600, 23, "Software Engineer"},
	{"Jena Gaines", 90560, 30, "Office Manager"},
	{"Quinn Flynn", 342000, 22, "Support Lead"},
}
