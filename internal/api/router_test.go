package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ecopickup/recycling-tracker/internal/core/domain"
	"github.com/ecopickup/recycling-tracker/internal/core/ports"
	"github.com/ecopickup/recycling-tracker/internal/core/service"
)

// ---------------------------------------------------------------------------
// In-memory repositories backing the real services
// ---------------------------------------------------------------------------

type memUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	order  []string
	nextID int
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	r.nextID++
	stored := *user
	stored.ID = fmt.Sprintf("u%d", r.nextID)
	r.users[stored.ID] = &stored
	r.order = append(r.order, stored.ID)
	out := stored
	return &out, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.order))
	for _, id := range r.order {
		if u, ok := r.users[id]; ok {
			clone := *u
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memUserRepo) Update(_ context.Context, id string, c ports.UserChanges) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if c.Name != nil {
		u.Name = *c.Name
	}
	if c.Email != nil {
		u.Email = *c.Email
	}
	if c.Role != nil {
		u.Role = *c.Role
	}
	out := *u
	return &out, nil
}

func (r *memUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) name(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return u.Name
	}
	return ""
}

type memRequestRepo struct {
	mu       sync.Mutex
	users    *memUserRepo
	requests map[string]*domain.PickupRequest
	nextID   int
}

func (r *memRequestRepo) Create(_ context.Context, req *domain.PickupRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	req.ID = fmt.Sprintf("r%d", r.nextID)
	stored := *req
	r.requests[req.ID] = &stored
	return nil
}

func (r *memRequestRepo) Get(_ context.Context, id string, withNames bool) (*domain.PickupRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	return r.view(req, withNames), nil
}

func (r *memRequestRepo) List(_ context.Context, f ports.ListRequestsFilter) ([]*domain.PickupRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.PickupRequest
	for _, req := range r.requests {
		if f.UserID != "" && req.UserID != f.UserID {
			continue
		}
		if f.Status != "" && req.Status != f.Status {
			continue
		}
		out = append(out, r.view(req, f.WithNames))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memRequestRepo) UpdateStatus(_ context.Context, id string, c ports.StatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok || (len(c.From) > 0 && !slices.Contains(c.From, req.Status)) {
		return domain.ErrRequestNotFound
	}
	req.Status = c.Status
	req.UpdatedAt = c.UpdatedAt
	if c.UpdatedBy != "" {
		req.UpdatedBy = c.UpdatedBy
	}
	return nil
}

func (r *memRequestRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[id]; !ok {
		return domain.ErrRequestNotFound
	}
	delete(r.requests, id)
	return nil
}

func (r *memRequestRepo) view(req *domain.PickupRequest, withNames bool) *domain.PickupRequest {
	clone := *req
	if withNames {
		clone.UserName = r.users.name(clone.UserID)
		clone.UpdatedByName = r.users.name(clone.UpdatedBy)
	}
	return &clone
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type testServer struct {
	e        *echo.Echo
	requests *memRequestRepo
}

func newTestServer(t *testing.T, requireAuth bool) *testServer {
	t.Helper()
	users := &memUserRepo{users: make(map[string]*domain.User)}
	requests := &memRequestRepo{users: users, requests: make(map[string]*domain.PickupRequest)}
	log := zerolog.Nop()

	e := NewRouter(Deps{
		Auth:             service.NewAuthService(users, "router-test-secret", service.AuthOptions{AllowAdminSignup: true}, log),
		Requests:         service.NewRequestService(requests, nil, service.RequestPolicy{RequireAuth: requireAuth}, log),
		Users:            service.NewUserService(users, log),
		RequireAuth:      requireAuth,
		CORSAllowOrigins: []string{"*"},
		Registry:         prometheus.NewRegistry(),
		Logger:           log,
	})
	return &testServer{e: e, requests: requests}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return v
}

// signup registers and logs in, returning the token and user id.
func (s *testServer) signup(t *testing.T, name, email, role string) (string, string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/users/register", "",
		fmt.Sprintf(`{"name":%q,"email":%q,"password":"pw-%s","role":%q}`, name, email, name, role))
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d %s", email, rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/api/users/login", "",
		fmt.Sprintf(`{"email":%q,"password":"pw-%s"}`, email, name))
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d %s", email, rec.Code, rec.Body.String())
	}
	resp := decode[struct {
		Token string         `json:"token"`
		User  map[string]any `json:"user"`
	}](t, rec)
	return resp.Token, resp.User["id"].(string)
}

// ---------------------------------------------------------------------------
// Scenarios
// ---------------------------------------------------------------------------

func TestRouter_SubmitAndSchedule(t *testing.T) {
	s := newTestServer(t, true)
	userToken, userID := s.signup(t, "Alice", "alice@example.com", "user")
	adminToken, adminID := s.signup(t, "Root", "root@example.com", "admin")

	rec := s.do(t, http.MethodPost, "/api/requests", userToken,
		`{"materialType":"plastic","quantity":"2 bags","pickupAddress":"1 Main St"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d %s", rec.Code, rec.Body.String())
	}
	created := decode[map[string]any](t, rec)
	if created["status"] != "pending" || created["userId"] != userID {
		t.Fatalf("unexpected created request: %v", created)
	}
	id := created["id"].(string)

	rec = s.do(t, http.MethodPatch, "/api/requests/"+id, adminToken, `{"status":"scheduled"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	updated := decode[map[string]any](t, rec)
	if updated["status"] != "scheduled" || updated["updatedBy"] != adminID {
		t.Fatalf("unexpected updated request: %v", updated)
	}
	if updated["userName"] != "Alice" || updated["updatedByName"] != "Root" {
		t.Fatalf("names not joined: %v", updated)
	}

	rec = s.do(t, http.MethodGet, "/api/requests?status=scheduled", userToken, "")
	list := decode[[]map[string]any](t, rec)
	if len(list) != 1 || list[0]["id"] != id {
		t.Fatalf("expected the scheduled request, got %v", list)
	}
}

func TestRouter_EmptyFilterReturnsEmptyArray(t *testing.T) {
	s := newTestServer(t, true)
	token, _ := s.signup(t, "Alice", "alice@example.com", "user")

	s.do(t, http.MethodPost, "/api/requests", token,
		`{"materialType":"paper","quantity":"1 box","pickupAddress":"1 Main St"}`)

	rec := s.do(t, http.MethodGet, "/api/requests?status=completed", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("expected [], got %s", got)
	}
}

func TestRouter_NonAdminCannotPatch(t *testing.T) {
	s := newTestServer(t, true)
	token, _ := s.signup(t, "Alice", "alice@example.com", "user")

	rec := s.do(t, http.MethodPost, "/api/requests", token,
		`{"materialType":"metal","quantity":"3 cans","pickupAddress":"1 Main St"}`)
	id := decode[map[string]any](t, rec)["id"].(string)

	rec = s.do(t, http.MethodPatch, "/api/requests/"+id, token, `{"status":"completed"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if msg := decode[map[string]string](t, rec)["error"]; msg != "Admin only" {
		t.Fatalf("expected Admin only, got %q", msg)
	}

	stored, err := s.requests.Get(context.Background(), id, false)
	if err != nil || stored.Status != domain.StatusPending {
		t.Fatalf("record changed: %+v %v", stored, err)
	}
}

func TestRouter_AuthFailures(t *testing.T) {
	s := newTestServer(t, true)

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		want   string
	}{
		{"no token list", http.MethodGet, "/api/requests", "", "No token"},
		{"no token create", http.MethodPost, "/api/requests", "", "No token"},
		{"garbage token", http.MethodGet, "/api/requests", "not-a-jwt", "Invalid token"},
		{"users without token", http.MethodGet, "/api/users", "", "No token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, tc.method, tc.path, tc.token, "")
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if msg := decode[map[string]string](t, rec)["error"]; msg != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, msg)
			}
		})
	}
}

func TestRouter_LoginFailuresAreIdentical(t *testing.T) {
	s := newTestServer(t, true)
	s.signup(t, "Alice", "alice@example.com", "user")

	wrongPassword := s.do(t, http.MethodPost, "/api/users/login", "", `{"email":"alice@example.com","password":"nope"}`)
	unknownEmail := s.do(t, http.MethodPost, "/api/users/login", "", `{"email":"ghost@example.com","password":"nope"}`)

	if wrongPassword.Code != http.StatusBadRequest || unknownEmail.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for both, got %d and %d", wrongPassword.Code, unknownEmail.Code)
	}
	if wrongPassword.Body.String() != unknownEmail.Body.String() {
		t.Fatalf("bodies differ: %q vs %q", wrongPassword.Body.String(), unknownEmail.Body.String())
	}
}

func TestRouter_AdminUserManagement(t *testing.T) {
	s := newTestServer(t, true)
	userToken, userID := s.signup(t, "Alice", "alice@example.com", "user")
	adminToken, _ := s.signup(t, "Root", "root@example.com", "admin")

	rec := s.do(t, http.MethodGet, "/api/users", userToken, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin list: expected 403, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/api/users", adminToken, "")
	users := decode[[]map[string]any](t, rec)
	if len(users) != 2 || users[0]["email"] != "alice@example.com" {
		t.Fatalf("unexpected users: %v", users)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("password field leaked: %s", rec.Body.String())
	}

	rec = s.do(t, http.MethodPut, "/api/users/"+userID, adminToken, `{"name":"Alicia"}`)
	if rec.Code != http.StatusOK || decode[map[string]any](t, rec)["name"] != "Alicia" {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodDelete, "/api/users/"+userID, adminToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	rec = s.do(t, http.MethodDelete, "/api/users/"+userID, adminToken, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", rec.Code)
	}
}

func TestRouter_ValidationAndNotFound(t *testing.T) {
	s := newTestServer(t, true)
	userToken, _ := s.signup(t, "Alice", "alice@example.com", "user")
	adminToken, _ := s.signup(t, "Root", "root@example.com", "admin")

	rec := s.do(t, http.MethodPost, "/api/requests", userToken,
		`{"materialType":"uranium","quantity":"1","pickupAddress":"1 Main St"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad material: expected 400, got %d", rec.Code)
	}
	if len(s.requests.requests) != 0 {
		t.Fatal("invalid request was persisted")
	}

	rec = s.do(t, http.MethodPatch, "/api/requests/missing", adminToken, `{"status":"completed"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown id: expected 404, got %d", rec.Code)
	}
	if msg := decode[map[string]string](t, rec)["error"]; msg != "Request not found" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestRouter_OpenMode(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(t, http.MethodPost, "/api/requests", "",
		`{"materialType":"glass","quantity":"4 jars","pickupAddress":"9 Elm St"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d %s", rec.Code, rec.Body.String())
	}
	created := decode[map[string]any](t, rec)
	if _, ok := created["userId"]; ok {
		t.Fatalf("open mode should leave owner unset: %v", created)
	}
	id := created["id"].(string)

	rec = s.do(t, http.MethodPatch, "/api/requests/"+id, "", `{"status":"completed"}`)
	if rec.Code != http.StatusOK || decode[map[string]any](t, rec)["status"] != "completed" {
		t.Fatalf("patch: %d %s", rec.Code, rec.Body.String())
	}

	if rec := s.do(t, http.MethodGet, "/api/requests", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPost, "/api/users/login", "", `{"email":"a@b.c","password":"x"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("user routes should not be mounted, got %d", rec.Code)
	}
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(t, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"ok":true}` {
		t.Fatalf("health: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/health/ready", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ready: expected 200, got %d", rec.Code)
	}

	s.do(t, http.MethodPost, "/api/users/login", "", `{"email":"ghost@example.com","password":"x"}`)
	rec = s.do(t, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"recycling_login_attempts_total", "recycling_http_requests_total"} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %s", want)
		}
	}

	rec = s.do(t, http.MethodGet, "/swagger/doc.json", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/api/requests") {
		t.Fatalf("swagger doc: %d", rec.Code)
	}
}
