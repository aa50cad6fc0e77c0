package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

type MySQLRepo struct {
	DB *sql.DB
}

func NewMySQLRepo(db *sql.DB) *MySQLRepo {
	return &MySQLRepo{DB: db}
}

func (r *MySQLRepo) Create(ctx context.Context, user *User) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id, username, name, email, role, organization_id, password) VALUES (?, ?, ?, ?, ?, ?, ?)",
		user.ID, user.Username, user.Name, user.Email, string(user.Role), nullIfEmpty(user.OrganizationID), user.Password,
	)
	if err != nil {
		if isDuplicate(err) {
			return ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// FindByUsername matches the username exactly. The column uses a binary
// collation in MySQL so "Alice" and "alice" are different accounts.
func (r *MySQLRepo) FindByUsername(ctx context.Context, username string) (*User, error) {
	var (
		u     User
		role  string
		orgID sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, username, name, email, role, organization_id, password FROM users WHERE username = ?",
		username,
	).Scan(&u.ID, &u.Username, &u.Name, &u.Email, &role, &orgID, &u.Password)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	u.Role = Role(role)
	u.OrganizationID = orgID.String
	return &u, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// isDuplicate recognises unique violations from both MySQL (1062) and the
// sqlite driver used in tests.
func isDuplicate(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
