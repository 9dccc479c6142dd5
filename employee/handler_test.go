package employee

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"employee-gateway/employee/application"
	"employee-gateway/employee/domain"
	"employee-gateway/employee/infra"
	"employee-gateway/internal/jsoncodec"
	"employee-gateway/middleware/httplog"
)

type fakeService struct {
	all      []domain.Employee
	one      *domain.Employee
	highest  int
	names    []*string
	created  *domain.Employee
	deleted  string
	err      error
	lastID   string
	lastFrag string
	lastIn   domain.CreateEmployeeInput
}

func (f *fakeService) GetAll(context.Context) ([]domain.Employee, error) { return f.all, f.err }

func (f *fakeService) SearchByName(_ context.Context, frag string) ([]domain.Employee, error) {
	f.lastFrag = frag
	return f.all, f.err
}

func (f *fakeService) GetByID(_ context.Context, id string) (domain.Employee, bool, error) {
	f.lastID = id
	if f.err != nil || f.one == nil {
		return domain.Employee{}, false, f.err
	}
	return *f.one, true, nil
}

func (f *fakeService) GetHighestSalary(context.Context) (int, error) { return f.highest, f.err }

func (f *fakeService) GetTopTenNamesBySalary(context.Context) ([]*string, error) {
	return f.names, f.err
}

func (f *fakeService) Create(_ context.Context, in domain.CreateEmployeeInput) (domain.Employee, bool, error) {
	f.lastIn = in
	if f.err != nil || f.created == nil {
		return domain.Employee{}, false, f.err
	}
	return *f.created, true, nil
}

func (f *fakeService) DeleteByID(_ context.Context, id string) (string, bool, error) {
	f.lastID = id
	if f.err != nil || f.deleted == "" {
		return "", false, f.err
	}
	return f.deleted, true, nil
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func serve(t *testing.T, svc Service, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewRouter(Handler{Service: svc, Logger: slog.New(slog.DiscardHandler)})
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, target, rd))
	return rr
}

func TestRoutes_GetAll(t *testing.T) {
	svc := &fakeService{all: []domain.Employee{{ID: "1", Name: strPtr("Alice"), Salary: intPtr(100)}}}
	for _, target := range []string{BasePath, BasePath + "/"} {
		rr := serve(t, svc, http.MethodGet, target, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", target, rr.Code)
		}
		var got []domain.Employee
		if err := jsoncodec.Unmarshal(rr.Body.Bytes(), &got); err != nil {
			t.Fatalf("invalid body: %v", err)
		}
		if len(got) != 1 || got[0].ID != "1" || *got[0].Name != "Alice" || got[0].Email != nil {
			t.Fatalf("unexpected body: %s", rr.Body.String())
		}
	}
}

func TestRoutes_SearchPassesDecodedFragment(t *testing.T) {
	svc := &fakeService{all: []domain.Employee{}}
	rr := serve(t, svc, http.MethodGet, BasePath+"/search/al%20i", "")
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("unexpected response %d %s", rr.Code, rr.Body.String())
	}
	if svc.lastFrag != "al i" {
		t.Fatalf("expected decoded fragment, got %q", svc.lastFrag)
	}
}

func TestRoutes_StaticRoutesWinOverID(t *testing.T) {
	a, b := "a", "b"
	svc := &fakeService{highest: 900, names: []*string{&a, &b, nil}}

	rr := serve(t, svc, http.MethodGet, BasePath+"/highestSalary", "")
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != "900" {
		t.Fatalf("unexpected highest salary response %d %s", rr.Code, rr.Body.String())
	}

	rr = serve(t, svc, http.MethodGet, BasePath+"/topTenHighestEarningEmployeeNames", "")
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != `["a","b",null]` {
		t.Fatalf("unexpected top ten response %d %s", rr.Code, rr.Body.String())
	}
	if svc.lastID != "" {
		t.Fatalf("expected no id lookup, got %q", svc.lastID)
	}
}

func TestRoutes_GetByID(t *testing.T) {
	svc := &fakeService{one: &domain.Employee{ID: "42"}}
	rr := serve(t, svc, http.MethodGet, BasePath+"/42", "")
	if rr.Code != http.StatusOK || svc.lastID != "42" {
		t.Fatalf("expected 200 for id 42, got %d (id %q)", rr.Code, svc.lastID)
	}

	rr = serve(t, &fakeService{}, http.MethodGet, BasePath+"/missing", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestRoutes_GetByIDUnescapesRawPath(t *testing.T) {
	svc := &fakeService{}
	serve(t, svc, http.MethodGet, BasePath+"/a%2Fb", "")
	if svc.lastID != "a/b" {
		t.Fatalf("expected unescaped id, got %q", svc.lastID)
	}
}

func TestRoutes_Create(t *testing.T) {
	svc := &fakeService{created: &domain.Employee{ID: "new", Name: strPtr("Carol")}}
	rr := serve(t, svc, http.MethodPost, BasePath, `{"name":"Carol","salary":300,"age":28,"title":"Dev","extra":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	want := domain.CreateEmployeeInput{Name: "Carol", Salary: 300, Age: 28, Title: "Dev"}
	if svc.lastIn != want {
		t.Fatalf("unexpected input %#v", svc.lastIn)
	}
}

func TestRoutes_CreateAbsentResultIsBadRequest(t *testing.T) {
	rr := serve(t, &fakeService{}, http.MethodPost, BasePath, `{"name":"Carol","salary":300,"age":28,"title":"Dev"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestRoutes_CreateMalformedJSON(t *testing.T) {
	for _, body := range []string{`{"name":`, `{"salary":"lots"}`, ``} {
		rr := serve(t, &fakeService{}, http.MethodPost, BasePath, body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, rr.Code)
		}
		var e httplog.APIError
		if err := jsoncodec.Unmarshal(rr.Body.Bytes(), &e); err != nil || e.Error.Code != "invalid_json" {
			t.Fatalf("body %q: unexpected envelope %s", body, rr.Body.String())
		}
	}
}

func TestRoutes_Delete(t *testing.T) {
	rr := serve(t, &fakeService{deleted: "Alice"}, http.MethodDelete, BasePath+"/1", "")
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != `"Alice"` {
		t.Fatalf("unexpected response %d %s", rr.Code, rr.Body.String())
	}

	rr = serve(t, &fakeService{}, http.MethodDelete, BasePath+"/1", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestErrorTranslation(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &domain.ValidationError{Fields: []domain.FieldError{{Field: "age", Rule: "min"}}}, http.StatusBadRequest},
		{"upstream", &domain.UpstreamError{Op: "list_all", StatusCode: 500}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := serve(t, &fakeService{err: tc.err}, http.MethodGet, BasePath, "")
		if rr.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.status, rr.Code)
		}
	}
}

func TestErrorTranslation_RateLimit(t *testing.T) {
	rr := serve(t, &fakeService{err: domain.NewRateLimitError("list_all", "5")}, http.MethodGet, BasePath+"/highestSalary", "")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "5" {
		t.Fatalf("expected Retry-After 5, got %q", rr.Header().Get("Retry-After"))
	}
	var body RateLimitBody
	if err := jsoncodec.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body.Message != rateLimitMessage || body.RetryAfterSeconds == nil || *body.RetryAfterSeconds != 5 {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}

	rr = serve(t, &fakeService{err: domain.NewRateLimitError("list_all", "soon")}, http.MethodGet, BasePath, "")
	if rr.Header().Get("Retry-After") != "" {
		t.Fatalf("expected no Retry-After header")
	}
	if !strings.Contains(rr.Body.String(), `"retryAfterSeconds":null`) {
		t.Fatalf("expected null retryAfterSeconds, got %s", rr.Body.String())
	}
}

func TestRoutes_HealthAndStats(t *testing.T) {
	store := infra.NewMemoryOutcomeStore()
	_ = store.Record(context.Background(), domain.OutcomeEvent{Op: infra.OpListAll, Outcome: domain.OutcomeOK})
	h := NewRouter(Handler{Service: &fakeService{}, Stats: store})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != `{"ok":true}` {
		t.Fatalf("unexpected health response %d %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/debug/upstream-stats", nil))
	var snap infra.OutcomeSnapshot
	if err := jsoncodec.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if snap.Total.OK != 1 || snap.ByOp[infra.OpListAll].OK != 1 {
		t.Fatalf("unexpected snapshot %s", rr.Body.String())
	}
}

func TestRoutes_StatsHiddenWithoutSource(t *testing.T) {
	h := NewRouter(Handler{Service: &fakeService{}})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/debug/upstream-stats", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

// Caminho completo: router → service → client → upstream fake.
func TestEndToEnd_UpstreamRateLimitAndDelete(t *testing.T) {
	var (
		mu         sync.Mutex
		deleteBody string
		limited    = true
	)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case limited:
			w.Header().Set("Retry-After", "5")
			w.WriteHeader(http.StatusTooManyRequests)
		case r.Method == http.MethodGet && r.URL.Path == BasePath+"/1":
			_, _ = io.WriteString(w, `{"data":{"id":"1","employee_name":"Alice","employee_salary":100},"status":"ok"}`)
		case r.Method == http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodDelete:
			b, _ := io.ReadAll(r.Body)
			deleteBody = string(b)
			_, _ = io.WriteString(w, `{"data":true,"status":"ok"}`)
		}
	}))
	t.Cleanup(upstream.Close)

	store := infra.NewMemoryOutcomeStore()
	client := infra.NewClient(upstream.URL+BasePath, infra.WithRecorder(store))
	svc := application.NewService(client, slog.New(slog.DiscardHandler))
	h := NewRouter(Handler{Service: svc, Stats: store})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, BasePath+"/1", nil))
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") != "5" {
		t.Fatalf("expected 429 with Retry-After 5, got %d %q", rr.Code, rr.Header().Get("Retry-After"))
	}

	mu.Lock()
	limited = false
	mu.Unlock()
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, BasePath+"/1", nil))
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != `"Alice"` {
		t.Fatalf("unexpected delete response %d %s", rr.Code, rr.Body.String())
	}
	mu.Lock()
	gotDelete := deleteBody
	mu.Unlock()
	if gotDelete != `{"name":"Alice"}` {
		t.Fatalf("unexpected upstream delete body %q", gotDelete)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, BasePath+"/2", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing id, got %d", rr.Code)
	}

	snap := store.Snapshot()
	if snap.Total.RateLimited != 1 || snap.ByOp[infra.OpDeleteByName].OK != 1 || snap.ByOp[infra.OpGetOne].NotFound != 1 {
		t.Fatalf("unexpected outcome snapshot %+v", snap)
	}
}
