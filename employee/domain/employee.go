package domain

// Employee é a representação pública de um funcionário.
//
// Campos ponteiro refletem valores que o upstream pode devolver como null; o
// mapeamento nunca inventa um valor para eles.
type Employee struct {
	ID     string  `json:"id"`
	Name   *string `json:"name"`
	Salary *int    `json:"salary"`
	Age    *int    `json:"age"`
	Title  *string `json:"title"`
	Email  *string `json:"email"`
}

// NameOrEmpty devolve o nome ou "" quando o upstream não informou.
func (e Employee) NameOrEmpty() string {
	if e.Name == nil {
		return ""
	}
	return *e.Name
}

// UpstreamEmployee é o formato de fio do serviço upstream.
type UpstreamEmployee struct {
	ID     string  `json:"id"`
	Name   *string `json:"employee_name"`
	Salary *int    `json:"employee_salary"`
	Age    *int    `json:"employee_age"`
	Title  *string `json:"employee_title"`
	Email  *string `json:"employee_email"`
}

// CreateEmployeeInput é a entrada pública de criação. O upstream não aceita
// email na criação; ele mesmo gera.
type CreateEmployeeInput struct {
	Name   string `json:"name" validate:"required,notblank"`
	Salary int    `json:"salary" validate:"required,gt=0"`
	Age    int    `json:"age" validate:"required,min=16,max=75"`
	Title  string `json:"title" validate:"required,notblank"`
}

// UpstreamCreateRequest é o corpo do POST no upstream.
type UpstreamCreateRequest struct {
	Name   string `json:"name"`
	Salary int    `json:"salary"`
	Age    int    `json:"age"`
	Title  string `json:"title"`
}

// UpstreamDeleteRequest é o corpo do DELETE por nome no upstream.
type UpstreamDeleteRequest struct {
	Name string `json:"name"`
}

// Envelope é o wrapper {data, status} usado pelo upstream tanto para entidades
// quanto para coleções e escalares.
type Envelope[T any] struct {
	Data   T      `json:"data"`
	Status string `json:"status"`
}
