package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"portal/pkg/user"
)

// MySQLSessionRepo keeps sessions in the sessions table. Timestamps are
// stored as unix milliseconds so the same queries run on sqlite in tests.
type MySQLSessionRepo struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewMySQLSessionRepo(db *sql.DB) *MySQLSessionRepo {
	return &MySQLSessionRepo{DB: db, Now: time.Now}
}

func (r *MySQLSessionRepo) Put(ctx context.Context, sess *Session) error {
	s := sess.Summary
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, username, name, email, role, organization_id, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sess.ID, s.ID, s.Username, s.Name, s.Email, string(s.Role), nullIfEmpty(s.OrganizationID),
		sess.CreatedAt.UnixMilli(), sess.ExpiresAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *MySQLSessionRepo) Get(ctx context.Context, id string) (*Session, error) {
	var (
		sess                 Session
		role                 string
		orgID                sql.NullString
		createdAt, expiresAt int64
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, username, name, email, role, organization_id, created_at, expires_at
		FROM sessions
		WHERE id = ? AND expires_at > ?
	`, id, r.Now().UnixMilli()).Scan(
		&sess.ID, &sess.Summary.ID, &sess.Summary.Username, &sess.Summary.Name, &sess.Summary.Email,
		&role, &orgID, &createdAt, &expiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select session: %w", err)
	}

	sess.Summary.Role = user.Role(role)
	sess.Summary.OrganizationID = orgID.String
	sess.CreatedAt = time.UnixMilli(createdAt).UTC()
	sess.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	return &sess, nil
}

func (r *MySQLSessionRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *MySQLSessionRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user sessions: %w", err)
	}
	return res.RowsAffected()
}

func (r *MySQLSessionRepo) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, r.Now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return res.RowsAffected()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
