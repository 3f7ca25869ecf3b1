package entity

import (
	"strings"
	"time"
)

// User is the aggregate root for the user domain.
// Passwords are stored as bcrypt hashes in the Password field.
// Email and Gender are fixed at registration.
type User struct {
	ID          string
	FirstName   string
	MiddleName  string
	LastName    string
	Email       string
	Password    string
	Address     string
	Gender      string
	DateOfBirth *time.Time
	IsAdmin     bool
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// FullName joins first, middle and last names, skipping blanks.
func (u *User) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{u.FirstName, u.MiddleName, u.LastName} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
