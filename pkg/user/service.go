package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type ServiceInterface interface {
	Register(ctx context.Context, form RegisterForm) (*User, error)
}

type RegisterForm struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           Role   `json:"role"`
	OrganizationID string `json:"organizationId"`
}

const minPasswordLen = 8

var ErrInvalidForm = errors.New("invalid registration form")

type Service struct {
	Repo Repository
	Cost int
}

func NewService(repo Repository) *Service {
	return &Service{Repo: repo, Cost: bcrypt.DefaultCost}
}

func (s *Service) Register(ctx context.Context, form RegisterForm) (*User, error) {
	if err := form.validate(); err != nil {
		return nil, err
	}

	exist, err := s.Repo.FindByUsername(ctx, form.Username)
	if exist != nil && err == nil {
		return nil, ErrUserExists
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(form.Password), s.Cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password error: %w", err)
	}

	user := &User{
		ID:             uuid.NewString(),
		Username:       form.Username,
		Name:           form.Name,
		Email:          strings.ToLower(form.Email),
		Role:           form.Role,
		OrganizationID: form.OrganizationID,
		Password:       string(hashedPassword),
	}

	if err := s.Repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (f RegisterForm) validate() error {
	switch {
	case strings.TrimSpace(f.Username) == "":
		return fmt.Errorf("%w: username is required", ErrInvalidForm)
	case len(f.Password) < minPasswordLen:
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidForm, minPasswordLen)
	case !f.Role.Valid():
		return fmt.Errorf("%w: %w", ErrInvalidForm, ErrInvalidRole)
	}
	return nil
}
