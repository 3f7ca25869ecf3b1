package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/medtracker/internal/domain/entity"
	"github.com/oksasatya/medtracker/internal/domain/repository"
)

const userColumns = `id, first_name, middle_name, last_name, email, password_hash, address, gender,
		date_of_birth, is_admin, is_active, created_at, updated_at, deleted_at`

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.FirstName, &u.MiddleName, &u.LastName, &u.Email, &u.Password,
		&u.Address, &u.Gender, &u.DateOfBirth, &u.IsAdmin, &u.IsActive,
		&u.CreatedAt, &u.UpdatedAt, &u.DeletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, mapKeyErr(err)
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (first_name, middle_name, last_name, email, password_hash, address, gender, date_of_birth, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, is_active, created_at, updated_at
	`, u.FirstName, u.MiddleName, u.LastName, u.Email, u.Password, u.Address, u.Gender, u.DateOfBirth, u.IsAdmin)

	if err := row.Scan(&u.ID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapWriteErr(err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return scanUser(r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1 AND deleted_at IS NULL
	`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return scanUser(r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE lower(email) = lower($1) AND deleted_at IS NULL
	`, email))
}

// Update writes the mutable profile fields. Email and gender are not touched.
func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now()

	res, err := r.db.Exec(ctx, `
		UPDATE users
		SET first_name = $1, middle_name = $2, last_name = $3, address = $4, date_of_birth = $5, updated_at = $6
		WHERE id = $7 AND deleted_at IS NULL
	`, u.FirstName, u.MiddleName, u.LastName, u.Address, u.DateOfBirth, u.UpdatedAt, u.ID)
	if err != nil {
		return mapKeyErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	return r.execOne(ctx, `
		UPDATE users SET password_hash = $1, updated_at = now()
		WHERE id = $2 AND deleted_at IS NULL
	`, hash, id)
}

func (r *UserRepository) SetAdmin(ctx context.Context, id string, admin bool) error {
	return r.execOne(ctx, `
		UPDATE users SET is_admin = $1, is_active = TRUE, updated_at = now()
		WHERE id = $2 AND deleted_at IS NULL
	`, admin, id)
}

// Deactivate clears the active flag; the row and its records are kept.
func (r *UserRepository) Deactivate(ctx context.Context, id string) error {
	return r.execOne(ctx, `
		UPDATE users SET is_active = FALSE, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
}

func (r *UserRepository) List(ctx context.Context) ([]entity.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE deleted_at IS NULL
		ORDER BY first_name, last_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepository) execOne(ctx context.Context, sql string, args ...any) error {
	res, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return mapKeyErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
