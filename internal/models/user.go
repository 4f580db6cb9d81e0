package models

import (
	"fmt"
	"strings"
	"time"
)

type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleDoctor  UserRole = "DOCTOR"
	RoleStaff   UserRole = "STAFF"
	RoleStudent UserRole = "STUDENT"
)

// ParseRole accepts a role name in any case.
func ParseRole(raw string) (UserRole, error) {
	role := UserRole(strings.ToUpper(strings.TrimSpace(raw)))
	switch role {
	case RoleAdmin, RoleDoctor, RoleStaff, RoleStudent:
		return role, nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// HasProfile reports whether accounts of this role own a doctors or students row.
func (r UserRole) HasProfile() bool {
	return r == RoleDoctor || r == RoleStudent
}

// User is a row of the users table. Doctor and student profiles reuse its id.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
