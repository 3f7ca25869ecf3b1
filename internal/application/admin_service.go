package application

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/medtracker/internal/domain/entity"
	repo "github.com/oksasatya/medtracker/internal/domain/repository"
)

// AdminService covers the operations behind the /admin routes.
type AdminService struct {
	Users  *UserService
	Health *HealthService
	Repo   repo.UserRepository
	Logger *logrus.Logger
}

func NewAdminService(users *UserService, h *HealthService, r repo.UserRepository, logger *logrus.Logger) *AdminService {
	return &AdminService{Users: users, Health: h, Repo: r, Logger: logger}
}

// RequireAdmin re-reads the admin flag; a token minted before a demotion is
// not enough.
func (s *AdminService) RequireAdmin(ctx context.Context, userID string) error {
	u, err := s.Users.GetProfile(ctx, userID)
	if err != nil {
		return ErrNotAdmin
	}
	if !u.IsAdmin || !u.IsActive {
		return ErrNotAdmin
	}
	return nil
}

func (s *AdminService) ListUsers(ctx context.Context) ([]entity.User, error) {
	users, err := s.Repo.List(ctx)
	if err != nil {
		return nil, persistence(err)
	}
	return users, nil
}

// UserHealth returns a user and all of their live records. The record list is
// empty, never nil, when the user has none.
func (s *AdminService) UserHealth(ctx context.Context, userID string) (*entity.User, []RecordView, error) {
	u, err := s.Users.GetAccount(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	views, err := s.Health.listFor(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	return u, views, nil
}

func (s *AdminService) DeactivateUser(ctx context.Context, userID string) error {
	if err := s.Users.Deactivate(ctx, userID); err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.WithField("user_id", userID).Info("user deactivated by admin")
	}
	return nil
}

// UserRecord returns one record of any user, active or not.
func (s *AdminService) UserRecord(ctx context.Context, userID, recordID string) (*entity.User, *RecordView, error) {
	u, err := s.Users.GetAccount(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return s.Health.getFor(ctx, u, recordID)
}

// DeleteRecord soft-deletes a record of any user, active or not.
func (s *AdminService) DeleteRecord(ctx context.Context, userID, recordID string) error {
	if _, err := s.Users.GetAccount(ctx, userID); err != nil {
		return err
	}
	return s.Health.deleteFor(ctx, userID, recordID)
}

func (s *AdminService) SearchUsers(ctx context.Context, q string, size int) ([]UserHit, error) {
	return s.Users.SearchUsers(ctx, q, size)
}
