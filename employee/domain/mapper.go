package domain

// ToPublic renomeia os campos do upstream para o formato público.
func ToPublic(u UpstreamEmployee) Employee {
	return Employee{
		ID:     u.ID,
		Name:   u.Name,
		Salary: u.Salary,
		Age:    u.Age,
		Title:  u.Title,
		Email:  u.Email,
	}
}

// ToPublicList mapeia preservando a ordem do upstream.
func ToPublicList(us []UpstreamEmployee) []Employee {
	out := make([]Employee, 0, len(us))
	for _, u := range us {
		out = append(out, ToPublic(u))
	}
	return out
}

func ToUpstreamCreate(in CreateEmployeeInput) UpstreamCreateRequest {
	return UpstreamCreateRequest{
		Name:   in.Name,
		Salary: in.Salary,
		Age:    in.Age,
		Title:  in.Title,
	}
}
