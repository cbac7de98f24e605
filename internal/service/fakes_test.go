package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/lead-service/internal/domain"
	"github.com/spec-kit/lead-service/internal/repository"
)

type memUsers struct {
	byID map[string]*domain.User
	// grantErr fails any update that replaces grants, before anything is stored
	grantErr error
}

func newMemUsers(users ...*domain.User) *memUsers {
	m := &memUsers{byID: map[string]*domain.User{}}
	for _, u := range users {
		m.byID[u.ID] = u
	}
	return m
}

func (m *memUsers) Create(_ context.Context, user *domain.User) error {
	for _, role := range user.Roles {
		if !role.Valid() {
			return repository.ErrUnknownRole
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	m.byID[user.ID] = &clone
	return nil
}

func (m *memUsers) Update(_ context.Context, user *domain.User, roles []domain.Role) error {
	if _, ok := m.byID[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	if roles != nil {
		if m.grantErr != nil {
			return m.grantErr
		}
		for _, role := range roles {
			if !role.Valid() {
				return repository.ErrUnknownRole
			}
		}
	}
	clone := *user
	if roles != nil {
		clone.Roles = roles
	}
	m.byID[user.ID] = &clone
	return nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.byID, id)
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range m.byID {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) List(context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, user := range m.byID {
		out = append(out, *user)
	}
	return out, nil
}

type memLeads struct {
	byID map[string]*domain.Lead
}

func newMemLeads() *memLeads {
	return &memLeads{byID: map[string]*domain.Lead{}}
}

func (m *memLeads) Create(_ context.Context, lead *domain.Lead) error {
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	lead.ID = id.String()
	lead.CreatedAt = time.Now()
	lead.UpdatedAt = lead.CreatedAt
	clone := *lead
	m.byID[lead.ID] = &clone
	return nil
}

func (m *memLeads) Update(_ context.Context, lead *domain.Lead) error {
	if _, ok := m.byID[lead.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *lead
	m.byID[lead.ID] = &clone
	return nil
}

func (m *memLeads) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.byID, id)
	return nil
}

func (m *memLeads) GetByID(_ context.Context, id string) (*domain.Lead, error) {
	lead, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *lead
	return &clone, nil
}

func (m *memLeads) sorted() []domain.Lead {
	out := make([]domain.Lead, 0, len(m.byID))
	for _, lead := range m.byID {
		out = append(out, *lead)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memLeads) List(_ context.Context, limit, offset int) ([]domain.Lead, error) {
	all := m.sorted()
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if offset >= len(all) {
		return nil, nil
	}
	return all[offset:min(offset+limit, len(all))], nil
}

func (m *memLeads) Count(context.Context) (int, error) {
	return len(m.byID), nil
}

func (m *memLeads) ListAfter(_ context.Context, cursor string, limit int) ([]domain.Lead, error) {
	var out []domain.Lead
	for _, lead := range m.sorted() {
		if lead.ID > cursor && len(out) < limit {
			out = append(out, lead)
		}
	}
	return out, nil
}
