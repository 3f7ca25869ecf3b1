package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/medtracker/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no live row matches.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a write violates a uniqueness rule.
	ErrDuplicate = errors.New("duplicate")
)

// UserRepository defines the interface for user-related database operations.
// Every read excludes soft-deleted users.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	UpdatePassword(ctx context.Context, id, hash string) error
	SetAdmin(ctx context.Context, id string, admin bool) error
	Deactivate(ctx context.Context, id string) error
	List(ctx context.Context) ([]entity.User, error)
}
