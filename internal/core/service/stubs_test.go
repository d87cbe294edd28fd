package service

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ecopickup/recycling-tracker/internal/core/domain"
	"github.com/ecopickup/recycling-tracker/internal/core/ports"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// In-memory user repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users  map[string]*domain.User
	order  []string
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	r.nextID++
	stored := cloneUser(user)
	stored.ID = fmt.Sprintf("user-%d", r.nextID)
	r.users[stored.ID] = stored
	r.order = append(r.order, stored.ID)
	return cloneUser(stored), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(r.order))
	for _, id := range r.order {
		if u, ok := r.users[id]; ok {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, id string, changes ports.UserChanges) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if changes.Email != nil {
		for otherID, other := range r.users {
			if otherID != id && other.Email == *changes.Email {
				return nil, domain.ErrEmailTaken
			}
		}
		u.Email = *changes.Email
	}
	if changes.Name != nil {
		u.Name = *changes.Name
	}
	if changes.Role != nil {
		u.Role = *changes.Role
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

// ---------------------------------------------------------------------------
// In-memory request repository
// ---------------------------------------------------------------------------

type stubRequestRepo struct {
	requests  map[string]*domain.PickupRequest
	names     map[string]string // user id -> display name, used for joins
	nextID    int
	createErr error
	updates   int

	// onCreate runs inside Create before the insert lands.
	onCreate func()
	// beforeUpdate runs inside UpdateStatus before the status filter is checked.
	beforeUpdate func()
}

func newStubRequestRepo() *stubRequestRepo {
	return &stubRequestRepo{
		requests: make(map[string]*domain.PickupRequest),
		names:    make(map[string]string),
	}
}

func cloneRequest(r *domain.PickupRequest) *domain.PickupRequest {
	clone := *r
	return &clone
}

func (r *stubRequestRepo) Create(_ context.Context, req *domain.PickupRequest) error {
	if r.createErr != nil {
		return r.createErr
	}
	if hook := r.onCreate; hook != nil {
		r.onCreate = nil
		hook()
	}
	r.nextID++
	req.ID = fmt.Sprintf("req-%d", r.nextID)
	r.requests[req.ID] = cloneRequest(req)
	return nil
}

func (r *stubRequestRepo) Get(_ context.Context, id string, withNames bool) (*domain.PickupRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	return r.view(req, withNames), nil
}

func (r *stubRequestRepo) List(_ context.Context, f ports.ListRequestsFilter) ([]*domain.PickupRequest, error) {
	var matched []*domain.PickupRequest
	for _, req := range r.requests {
		if f.UserID != "" && req.UserID != f.UserID {
			continue
		}
		if f.Status != "" && req.Status != f.Status {
			continue
		}
		matched = append(matched, r.view(req, f.WithNames))
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}

func (r *stubRequestRepo) UpdateStatus(_ context.Context, id string, change ports.StatusChange) error {
	if r.beforeUpdate != nil {
		r.beforeUpdate()
	}
	req, ok := r.requests[id]
	if !ok {
		return domain.ErrRequestNotFound
	}
	if len(change.From) > 0 && !slices.Contains(change.From, req.Status) {
		return domain.ErrRequestNotFound
	}
	r.updates++
	req.Status = change.Status
	req.UpdatedAt = change.UpdatedAt
	if change.UpdatedBy != "" {
		req.UpdatedBy = change.UpdatedBy
	}
	return nil
}

func (r *stubRequestRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.requests[id]; !ok {
		return domain.ErrRequestNotFound
	}
	delete(r.requests, id)
	return nil
}

func (r *stubRequestRepo) view(req *domain.PickupRequest, withNames bool) *domain.PickupRequest {
	clone := cloneRequest(req)
	if withNames {
		clone.UserName = r.names[clone.UserID]
		clone.UpdatedByName = r.names[clone.UpdatedBy]
	}
	return clone
}

// ---------------------------------------------------------------------------
// In-memory idempotency store
// ---------------------------------------------------------------------------

type stubIdempotencyStore struct {
	mu       sync.Mutex
	keys     map[string]string // "" marks a pending claim
	claimErr error
	released int
}

func newStubIdempotencyStore() *stubIdempotencyStore {
	return &stubIdempotencyStore{keys: make(map[string]string)}
}

func (s *stubIdempotencyStore) Claim(_ context.Context, scope, key string) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimErr != nil {
		return false, "", s.claimErr
	}
	id, taken := s.keys[scope+"/"+key]
	if taken {
		return false, id, nil
	}
	s.keys[scope+"/"+key] = ""
	return true, "", nil
}

func (s *stubIdempotencyStore) Complete(_ context.Context, scope, key, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[scope+"/"+key] = requestID
	return nil
}

func (s *stubIdempotencyStore) Release(_ context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, scope+"/"+key)
	s.released++
	return nil
}
