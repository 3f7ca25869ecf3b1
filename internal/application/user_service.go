package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/medtracker/config"
	"github.com/oksasatya/medtracker/internal/domain/entity"
	"github.com/oksasatya/medtracker/internal/domain/health"
	repo "github.com/oksasatya/medtracker/internal/domain/repository"
	"github.com/oksasatya/medtracker/pkg/helpers"
	"github.com/oksasatya/medtracker/pkg/mailer"
	mailtpl "github.com/oksasatya/medtracker/pkg/mailer/templates"
)

// Publisher queues a JSON job. *helpers.RabbitPublisher implements it.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

type UserService struct {
	Repo         repo.UserRepository
	JWT          *helpers.JWTManager
	Redis        *redis.Client
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESUsersIndex string
	Mail         Publisher
	Config       *config.Config
	Now          func() time.Time
}

func NewUserService(r repo.UserRepository, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger, es *elasticsearch.Client, esUsersIndex string, mail Publisher, cfg *config.Config) *UserService {
	return &UserService{
		Repo:         r,
		JWT:          jwt,
		Redis:        rdb,
		Logger:       logger,
		ES:           es,
		ESUsersIndex: esUsersIndex,
		Mail:         mail,
		Config:       cfg,
		Now:          time.Now,
	}
}

// Session is an issued bearer token and the user it belongs to.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *entity.User
}

type RegisterInput struct {
	FirstName   string
	MiddleName  string
	LastName    string
	Email       string
	Password    string
	Address     string
	Gender      string
	DateOfBirth *time.Time
}

type UpdateProfileInput struct {
	FirstName   *string
	MiddleName  *string
	LastName    *string
	Address     *string
	DateOfBirth *time.Time
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func (s *UserService) checkBirthDate(dob *time.Time) error {
	if dob == nil {
		return nil
	}
	if _, err := health.AgeInYears(*dob, s.now()); err != nil {
		return invalid(err)
	}
	return nil
}

// Register creates an active, non-admin user.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: first_name, last_name, email and password are required", ErrValidation)
	}
	if err := s.checkBirthDate(in.DateOfBirth); err != nil {
		return nil, err
	}

	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, persistence(err)
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{
		FirstName:   strings.TrimSpace(in.FirstName),
		MiddleName:  strings.TrimSpace(in.MiddleName),
		LastName:    strings.TrimSpace(in.LastName),
		Email:       email,
		Password:    hash,
		Address:     strings.TrimSpace(in.Address),
		Gender:      in.Gender,
		DateOfBirth: in.DateOfBirth,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("email", email).Error("create user failed")
		}
		return nil, persistence(err)
	}

	_ = s.indexUser(ctx, u)
	s.sendEmail(ctx, u, mailtpl.Welcome, mailtpl.NewWelcomeData(s.Config, u.FullName(), u.Email))
	return u, nil
}

// Authenticate validates email/password and returns the active user.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, persistence(err)
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrAccountInactive
	}
	return u, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.issueSession(ctx, u)
}

// AdminLogin is Login restricted to admin accounts.
func (s *UserService) AdminLogin(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin {
		return nil, ErrInvalidCredentials
	}
	return s.issueSession(ctx, u)
}

// issueSession signs a token and records its session id in Redis. A new login
// replaces the previous session.
func (s *UserService) issueSession(ctx context.Context, u *entity.User) (*Session, error) {
	sid := uuid.NewString()
	token, exp, err := s.JWT.Generate(helpers.TokenInput{UserID: u.ID, Email: u.Email, IsAdmin: u.IsAdmin, SessionID: sid})
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate token failed")
		}
		return nil, err
	}

	if s.Redis != nil {
		st := helpers.SessionState{
			SessionID: sid,
			UserID:    u.ID,
			Email:     u.Email,
			Name:      u.FullName(),
			IsAdmin:   u.IsAdmin,
			IssuedAt:  s.now().UTC(),
		}
		if rErr := helpers.SaveSession(ctx, s.Redis, st, exp.Sub(s.now())); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("user_id", u.ID).Warn("store session failed")
		}
	}
	return &Session{Token: token, ExpiresAt: exp, User: u}, nil
}

// ValidateSession rejects tokens whose session was revoked by logout,
// deactivation or a newer login. Without Redis every signed token is accepted.
func (s *UserService) ValidateSession(ctx context.Context, claims *helpers.Claims) error {
	if s.Redis == nil {
		return nil
	}
	st, ok, err := helpers.LoadSession(ctx, s.Redis, claims.UserID)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", claims.UserID).Warn("session lookup failed")
		}
		return err
	}
	if !ok {
		return ErrSessionRevoked
	}
	if st.SessionID != claims.SessionID {
		return ErrSessionRevoked
	}
	return nil
}

func (s *UserService) Logout(ctx context.Context, userID string) error {
	return s.revokeSession(ctx, userID)
}

func (s *UserService) revokeSession(ctx context.Context, userID string) error {
	if s.Redis == nil {
		return nil
	}
	if err := helpers.DropSession(ctx, s.Redis, userID); err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", userID).Warn("revoke session failed")
		}
		return err
	}
	return nil
}

// GetProfile returns an active user. A deactivated account reads as not
// found, so a token that outlives its session grants nothing.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// GetAccount returns a user whether or not the account is active. Admin and
// operator paths only.
func (s *UserService) GetAccount(ctx context.Context, userID string) (*entity.User, error) {
	if !validID(userID) {
		return nil, ErrUserNotFound
	}
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, persistence(err)
	}
	return u, nil
}

// UpdateProfile changes name, address and date of birth. Email and gender are
// immutable; nil fields are left as they are.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.checkBirthDate(in.DateOfBirth); err != nil {
		return nil, err
	}
	if in.FirstName != nil {
		if strings.TrimSpace(*in.FirstName) == "" {
			return nil, fmt.Errorf("%w: first_name cannot be empty", ErrValidation)
		}
		u.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.MiddleName != nil {
		u.MiddleName = strings.TrimSpace(*in.MiddleName)
	}
	if in.LastName != nil {
		if strings.TrimSpace(*in.LastName) == "" {
			return nil, fmt.Errorf("%w: last_name cannot be empty", ErrValidation)
		}
		u.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Address != nil {
		u.Address = strings.TrimSpace(*in.Address)
	}
	if in.DateOfBirth != nil {
		u.DateOfBirth = in.DateOfBirth
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, persistence(err)
	}

	if s.Redis != nil {
		if st, ok, _ := helpers.LoadSession(ctx, s.Redis, u.ID); ok {
			st.Name = u.FullName()
			if rErr := helpers.SaveSession(ctx, s.Redis, *st, redis.KeepTTL); rErr != nil && s.Logger != nil {
				s.Logger.WithError(rErr).WithField("user_id", u.ID).Warn("refresh session failed")
			}
		}
	}
	_ = s.indexUser(ctx, u)
	return u, nil
}

// ChangePassword verifies the current password before storing the new one.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if current == "" || next == "" {
		return fmt.Errorf("%w: current and new password are required", ErrValidation)
	}
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if !helpers.CompareHashAndPassword(u.Password, current) {
		return ErrWrongPassword
	}
	if err := s.setPassword(ctx, u, next); err != nil {
		return err
	}
	s.sendEmail(ctx, u, mailtpl.PasswordChanged, mailtpl.NewPasswordChangedData(s.Config, u.FullName(), u.Email))
	return nil
}

// ResetPassword sets a password without the current one. Operator use only.
func (s *UserService) ResetPassword(ctx context.Context, userID, next string) error {
	u, err := s.GetAccount(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.setPassword(ctx, u, next); err != nil {
		return err
	}
	return s.revokeSession(ctx, u.ID)
}

func (s *UserService) setPassword(ctx context.Context, u *entity.User, next string) error {
	if !helpers.StrongPassword(next) {
		return ErrWeakPassword
	}
	hash, err := helpers.HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.Repo.UpdatePassword(ctx, u.ID, hash); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return persistence(err)
	}
	u.Password = hash
	return nil
}

// Deactivate clears the active flag and revokes the live session. Health
// records are kept. Deactivating an inactive account is a no-op.
func (s *UserService) Deactivate(ctx context.Context, userID string) error {
	u, err := s.GetAccount(ctx, userID)
	if err != nil {
		return err
	}
	if !u.IsActive {
		return nil
	}
	if err := s.Repo.Deactivate(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return persistence(err)
	}
	u.IsActive = false
	_ = s.revokeSession(ctx, userID)
	_ = s.indexUser(ctx, u)
	s.sendEmail(ctx, u, mailtpl.AccountDeactivated, mailtpl.NewAccountDeactivatedData(s.Config, u.FullName(), u.Email))
	return nil
}

// CreateAdmin registers a new admin, or promotes and reactivates an existing
// account with the same email.
func (s *UserService) CreateAdmin(ctx context.Context, in RegisterInput) (*entity.User, error) {
	if !helpers.StrongPassword(in.Password) {
		return nil, ErrWeakPassword
	}
	u, err := s.Repo.GetByEmail(ctx, normalizeEmail(in.Email))
	switch {
	case errors.Is(err, repo.ErrNotFound):
		u, err = s.Register(ctx, in)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, persistence(err)
	}
	if err := s.Repo.SetAdmin(ctx, u.ID, true); err != nil {
		return nil, persistence(err)
	}
	u.IsAdmin, u.IsActive = true, true
	return u, nil
}

// sendEmail queues a templated email. Failures are logged, never returned.
func (s *UserService) sendEmail(ctx context.Context, u *entity.User, template string, data map[string]any) {
	publishEmail(ctx, s.Mail, s.Logger, mailer.EmailJob{To: u.Email, Template: template, Data: data})
}

func publishEmail(ctx context.Context, p Publisher, logger *logrus.Logger, job mailer.EmailJob) {
	if p == nil {
		return
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := p.PublishJSON(c, job); err != nil && logger != nil {
		logger.WithError(err).WithField("template", job.Template).Warn("publish email job failed")
	}
}

func (s *UserService) indexUser(ctx context.Context, u *entity.User) error {
	if s.ES == nil || s.ESUsersIndex == "" {
		return nil
	}
	doc := map[string]any{
		"id":         u.ID,
		"email":      u.Email,
		"name":       u.FullName(),
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"gender":     u.Gender,
		"is_admin":   u.IsAdmin,
		"is_active":  u.IsActive,
		"created_at": u.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": u.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
	return nil
}

// UserHit is one search result.
type UserHit struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Gender   string `json:"gender,omitempty"`
	IsAdmin  bool   `json:"is_admin"`
	IsActive bool   `json:"is_active"`
}

// SearchUsers runs a multi_match over email and name. With search disabled it
// returns an empty list.
func (s *UserService) SearchUsers(ctx context.Context, q string, size int) ([]UserHit, error) {
	if strings.TrimSpace(q) == "" {
		return nil, fmt.Errorf("%w: q is required", ErrValidation)
	}
	if s.ES == nil || s.ESUsersIndex == "" {
		return []UserHit{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "name", "first_name", "last_name"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESUsersIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source UserHit `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]UserHit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
