package session

import (
	"context"
	"errors"
	"time"

	"portal/pkg/user"
)

var ErrNotFound = errors.New("session not found")

// Summary is the non-secret projection of a user kept in a session.
type Summary struct {
	ID             string    `json:"id" bson:"user_id"`
	Username       string    `json:"username" bson:"username"`
	Name           string    `json:"name" bson:"name"`
	Email          string    `json:"email" bson:"email"`
	Role           user.Role `json:"role" bson:"role"`
	OrganizationID string    `json:"organizationId,omitempty" bson:"organization_id,omitempty"`
}

func SummaryOf(u *user.User) Summary {
	return Summary{
		ID:             u.ID,
		Username:       u.Username,
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		OrganizationID: u.OrganizationID,
	}
}

type Session struct {
	ID        string    `bson:"_id"`
	Summary   Summary   `bson:",inline"`
	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Repository is the session store. Get returns ErrNotFound for absent and
// expired sessions alike; Delete of an absent id is not an error.
type Repository interface {
	Put(ctx context.Context, sess *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	PurgeExpired(ctx context.Context) (int64, error)
}
