package auth_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"portal/pkg/auth"
	"portal/pkg/generator"
	"portal/pkg/session"
	"portal/pkg/user"
)

func setupStores(t *testing.T) (*user.MySQLRepo, *session.MySQLSessionRepo) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	for _, stmt := range []string{
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			role TEXT NOT NULL,
			organization_id TEXT,
			password TEXT NOT NULL
		)`,
		`CREATE TABLE sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			username TEXT NOT NULL,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			role TEXT NOT NULL,
			organization_id TEXT,
			created_at BIGINT NOT NULL,
			expires_at BIGINT NOT NULL
		)`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	return user.NewMySQLRepo(db), session.NewMySQLSessionRepo(db)
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	users, sessions := setupStores(t)
	require.NoError(t, users.Create(ctx, alice(t)))
	a := newAuthenticator(users, sessions)

	sess, err := a.Login(ctx, "alice", "correct-pass")
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.Summary.Username)

	current, err := a.CurrentUser(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.Summary, current)

	require.NoError(t, a.Logout(ctx, sess.ID))
	_, err = a.CurrentUser(ctx, sess.ID)
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)

	assert.NoError(t, a.Logout(ctx, sess.ID))
}

func TestConcurrentSessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	users, sessions := setupStores(t)
	require.NoError(t, users.Create(ctx, alice(t)))
	a := newAuthenticator(users, sessions)

	phone, err := a.Login(ctx, "alice", "correct-pass")
	require.NoError(t, err)
	laptop, err := a.Login(ctx, "alice", "correct-pass")
	require.NoError(t, err)
	assert.NotEqual(t, phone.ID, laptop.ID)

	require.NoError(t, a.Logout(ctx, phone.ID))

	_, err = a.CurrentUser(ctx, laptop.ID)
	assert.NoError(t, err)
}

func TestFailedLoginLeavesNoSession(t *testing.T) {
	ctx := context.Background()
	users, sessions := setupStores(t)
	require.NoError(t, users.Create(ctx, alice(t)))

	var issued []string
	a := newAuthenticator(users, sessions)
	a.NewID = func() (string, error) {
		id, err := generator.NewSessionID()
		issued = append(issued, id)
		return id, err
	}

	_, err := a.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	assert.Empty(t, issued)

	n, err := sessions.DeleteByUser(ctx, "u1")
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestLogoutOfUnknownSession(t *testing.T) {
	ctx := context.Background()
	users, sessions := setupStores(t)
	a := newAuthenticator(users, sessions)

	id, err := generator.NewSessionID()
	require.NoError(t, err)

	assert.NoError(t, a.Logout(ctx, id))
	_, err = a.CurrentUser(ctx, id)
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
}
