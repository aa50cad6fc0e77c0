package user

import (
	"context"
	"errors"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOrgStaff Role = "organization"
	RoleDoctor   Role = "doctor"
	RolePatient  Role = "patient"
	RoleSupplier Role = "supplier"
)

var roles = map[Role]struct{}{
	RoleAdmin:    {},
	RoleOrgStaff: {},
	RoleDoctor:   {},
	RolePatient:  {},
	RoleSupplier: {},
}

func (r Role) Valid() bool {
	_, ok := roles[r]
	return ok
}

var (
	ErrNotFound    = errors.New("user not found")
	ErrUserExists  = errors.New("user already exists")
	ErrInvalidRole = errors.New("invalid role")
)

// User is an account as kept by the user store. Password holds the bcrypt
// hash and is never serialized.
type User struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           Role   `json:"role"`
	OrganizationID string `json:"organizationId,omitempty"`
	Password       string `json:"-" bson:"-"`
}

type Repository interface {
	Create(ctx context.Context, user *User) error
	FindByUsername(ctx context.Context, username string) (*User, error)
}
