// Package repotest provides in-memory repositories for service and handler
// tests.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/medtracker/internal/domain/entity"
	repo "github.com/oksasatya/medtracker/internal/domain/repository"
)

var (
	_ repo.UserRepository         = (*Users)(nil)
	_ repo.HealthRecordRepository = (*Records)(nil)
)

// Users is an in-memory UserRepository. Set Err to make reads fail.
type Users struct {
	mu    sync.Mutex
	users map[string]*entity.User
	Err   error
}

func NewUsers() *Users { return &Users{users: map[string]*entity.User{}} }

func (m *Users) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, x := range m.users {
		if strings.EqualFold(x.Email, u.Email) {
			return repo.ErrDuplicate
		}
	}
	u.ID = uuid.NewString()
	u.IsActive = true
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Users) GetByID(_ context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Users) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *Users) Update(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return repo.ErrNotFound
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Users) mutate(id string, fn func(u *entity.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	fn(u)
	return nil
}

func (m *Users) UpdatePassword(_ context.Context, id, hash string) error {
	return m.mutate(id, func(u *entity.User) { u.Password = hash })
}

func (m *Users) SetAdmin(_ context.Context, id string, admin bool) error {
	return m.mutate(id, func(u *entity.User) { u.IsAdmin, u.IsActive = admin, true })
}

func (m *Users) Deactivate(_ context.Context, id string) error {
	return m.mutate(id, func(u *entity.User) { u.IsActive = false })
}

func (m *Users) List(_ context.Context) ([]entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Records keeps health records in memory. WithinDay serialises on a single
// mutex, which is stricter than the per-(user, day) lock in postgres.
type Records struct {
	mu      sync.Mutex
	dayLock sync.Mutex
	rows    []*entity.HealthRecord
	Err     error
}

func NewRecords() *Records { return &Records{} }

func sameDay(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

func (m *Records) FindLiveForUserOnDate(_ context.Context, userID string, day time.Time) (*entity.HealthRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, r := range m.rows {
		if r.UserID == userID && r.DeletedAt == nil && sameDay(r.RecordDate, day) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *Records) Insert(_ context.Context, r *entity.HealthRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.rows {
		if x.UserID == r.UserID && x.DeletedAt == nil && sameDay(x.RecordDate, r.RecordDate) {
			return repo.ErrDuplicate
		}
	}
	r.ID = uuid.NewString()
	r.CreatedAt = time.Now()
	cp := *r
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *Records) Update(_ context.Context, r *entity.HealthRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, x := range m.rows {
		if x.ID == r.ID && x.UserID == r.UserID && x.DeletedAt == nil {
			now := time.Now()
			r.UpdatedAt = &now
			cp := *r
			m.rows[i] = &cp
			return nil
		}
	}
	return repo.ErrNotFound
}

func (m *Records) GetByID(_ context.Context, id, userID string) (*entity.HealthRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ID == id && r.UserID == userID && r.DeletedAt == nil {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *Records) ListByUser(_ context.Context, userID string) ([]entity.HealthRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]entity.HealthRecord, 0)
	for _, r := range m.rows {
		if r.UserID == userID && r.DeletedAt == nil {
			out = append(out, *r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RecordDate.After(out[j].RecordDate) })
	return out, nil
}

func (m *Records) SoftDelete(_ context.Context, id, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ID == id && r.UserID == userID && r.DeletedAt == nil {
			now := time.Now()
			r.DeletedAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (m *Records) WithinDay(_ context.Context, _ string, _ time.Time, fn func(repo.HealthRecordRepository) error) error {
	m.dayLock.Lock()
	defer m.dayLock.Unlock()
	return fn(m)
}

// Live counts records that are not soft-deleted.
func (m *Records) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.rows {
		if r.DeletedAt == nil {
			n++
		}
	}
	return n
}
