package handler

import (
	"context"
	"sync"
	"time"

	"iptrack/internal/domain"
	apperrors "iptrack/pkg/errors"
)

// In-memory repositories for router tests.

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[int64]domain.User{}}
}

func (m *memUsers) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == user.Email {
			return apperrors.ErrUserAlreadyExists
		}
	}
	m.nextID++
	user.ID = m.nextID
	m.byID[user.ID] = *user
	return nil
}

func (m *memUsers) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return &u, nil
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (m *memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.FindByEmail(ctx, email)
	return err == nil, nil
}

func (m *memUsers) Update(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[user.ID]; !ok {
		return apperrors.ErrUserNotFound
	}
	m.byID[user.ID] = *user
	return nil
}

type memVisits struct {
	mu     sync.Mutex
	nextID int64
	rows   []domain.Visit
}

func (m *memVisits) Create(ctx context.Context, v *domain.Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	v.ID = m.nextID
	v.CreatedAt = time.Now().UTC()
	v.UpdatedAt = v.CreatedAt
	m.rows = append(m.rows, *v)
	return nil
}

func (m *memVisits) FindByID(ctx context.Context, id int64) (*domain.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.rows {
		if v.ID == id {
			v := v
			return &v, nil
		}
	}
	return nil, apperrors.ErrVisitNotFound
}

func (m *memVisits) List(ctx context.Context, limit, offset int) ([]*domain.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Visit{}
	for i := offset; i < len(m.rows) && len(out) < limit; i++ {
		v := m.rows[i]
		out = append(out, &v)
	}
	return out, nil
}

func (m *memVisits) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

func (m *memVisits) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, v := range m.rows {
		if v.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrVisitNotFound
}

type memDomains struct {
	mu     sync.Mutex
	nextID int64
	rows   []domain.Domain
}

func (m *memDomains) Create(ctx context.Context, d *domain.Domain) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.URL == d.URL {
			return apperrors.ErrDomainExists
		}
	}
	m.nextID++
	d.ID = m.nextID
	m.rows = append(m.rows, *d)
	return nil
}

func (m *memDomains) FindByID(ctx context.Context, id int64) (*domain.Domain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.rows {
		if d.ID == id {
			d := d
			return &d, nil
		}
	}
	return nil, apperrors.ErrDomainNotFound
}

func (m *memDomains) List(ctx context.Context, limit, offset int) ([]*domain.Domain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Domain{}
	for i := offset; i < len(m.rows) && len(out) < limit; i++ {
		d := m.rows[i]
		out = append(out, &d)
	}
	return out, nil
}

func (m *memDomains) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

func (m *memDomains) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range m.rows {
		if d.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrDomainNotFound
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(ctx context.Context) error { return p.err }
