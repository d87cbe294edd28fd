package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ecopickup/recycling-tracker/internal/api/metrics"
	"github.com/ecopickup/recycling-tracker/internal/core/domain"
	"github.com/ecopickup/recycling-tracker/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Verify(string) (*domain.Caller, error) {
	return nil, domain.ErrInvalidToken
}

type stubRequestService struct {
	createFn func(ctx context.Context, caller *domain.Caller, in ports.CreateRequestInput) (*ports.CreateRequestResult, error)
	listFn   func(ctx context.Context, caller *domain.Caller, in ports.ListRequestsInput) ([]*domain.PickupRequest, error)
	updateFn func(ctx context.Context, caller *domain.Caller, id, status string) (*domain.PickupRequest, error)
	deleteFn func(ctx context.Context, caller *domain.Caller, id string) error
}

func (s *stubRequestService) Create(ctx context.Context, caller *domain.Caller, in ports.CreateRequestInput) (*ports.CreateRequestResult, error) {
	return s.createFn(ctx, caller, in)
}

func (s *stubRequestService) List(ctx context.Context, caller *domain.Caller, in ports.ListRequestsInput) ([]*domain.PickupRequest, error) {
	return s.listFn(ctx, caller, in)
}

func (s *stubRequestService) UpdateStatus(ctx context.Context, caller *domain.Caller, id, status string) (*domain.PickupRequest, error) {
	return s.updateFn(ctx, caller, id, status)
}

func (s *stubRequestService) Delete(ctx context.Context, caller *domain.Caller, id string) error {
	return s.deleteFn(ctx, caller, id)
}

type stubUserService struct {
	listFn   func(ctx context.Context) ([]*domain.User, error)
	updateFn func(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error)
	deleteFn func(ctx context.Context, id string) error
}

func (s *stubUserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.listFn(ctx)
}

func (s *stubUserService) UpdateUser(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
	return s.updateFn(ctx, id, in)
}

func (s *stubUserService) DeleteUser(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func newTestMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

// newJSONContext builds an echo context with the handler validator installed.
func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}
