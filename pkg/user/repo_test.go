package user_test

import (
	"context"
	"database/sql"
	"testing"

	"portal/pkg/user"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	assert.NoError(t, err)
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		role TEXT NOT NULL,
		organization_id TEXT,
		password TEXT NOT NULL
	);`

	_, err = db.Exec(schema)
	assert.NoError(t, err)

	t.Cleanup(func() { db.Close() })
	return db
}

func setupTestBadDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	assert.NoError(t, err)
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE users (
		id TEXT PRIMARY KEY,
		password TEXT NOT NULL
	);`

	_, err = db.Exec(schema)
	assert.NoError(t, err)

	t.Cleanup(func() { db.Close() })
	return db
}

func TestMySQLRepo_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := user.NewMySQLRepo(setupTestDB(t))

	alice := &user.User{
		ID:             "user123",
		Username:       "alice",
		Name:           "Alice Green",
		Email:          "alice@example.com",
		Role:           user.RoleOrgStaff,
		OrganizationID: "org-1",
		Password:       "hashed_pass",
	}
	assert.NoError(t, repo.Create(ctx, alice))

	dup := *alice
	dup.ID = "user456"
	assert.ErrorIs(t, repo.Create(ctx, &dup), user.ErrUserExists)

	u, err := repo.FindByUsername(ctx, "alice")
	assert.NoError(t, err)
	assert.Equal(t, alice, u)

	u, err = repo.FindByUsername(ctx, "bob")
	assert.ErrorIs(t, err, user.ErrNotFound)
	assert.Nil(t, u)
}

func TestMySQLRepo_NoOrganization(t *testing.T) {
	ctx := context.Background()
	repo := user.NewMySQLRepo(setupTestDB(t))

	assert.NoError(t, repo.Create(ctx, &user.User{
		ID:       "u1",
		Username: "doc",
		Name:     "Doc",
		Email:    "doc@example.com",
		Role:     user.RoleDoctor,
		Password: "hash",
	}))

	u, err := repo.FindByUsername(ctx, "doc")
	assert.NoError(t, err)
	assert.Empty(t, u.OrganizationID)
	assert.Equal(t, user.RoleDoctor, u.Role)
}

func TestMySQLRepo_BrokenSchema(t *testing.T) {
	repo := user.NewMySQLRepo(setupTestBadDB(t))

	_, err := repo.FindByUsername(context.Background(), "whoever")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, user.ErrNotFound)
}
