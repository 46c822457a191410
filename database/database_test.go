package database_test

import (
	"context"
	"testing"

	"github.com/kiratsolutions/fileit"
	"github.com/kiratsolutions/fileit/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(tableName string) database.Config {
	return database.Config{
		Type:   "sqlite",
		DSN:    ":memory:",
		Tables: fileit.Tables{Users: tableName},
	}
}

func setupTestDB(t *testing.T, tableName string) database.Database {
	t.Helper()

	db, err := database.Connect(context.Background(), newTestConfig(tableName))
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestConnect_SQLite(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t, "test_users")

	assert.NoError(t, db.Ping(context.Background()))
}

func TestConnect_InvalidType(t *testing.T) {
	t.Parallel()

	cfg := database.Config{
		Type:   "invalid",
		DSN:    "whatever",
		Tables: fileit.Tables{Users: "test_users"},
	}

	_, err := database.Connect(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestConnect_InvalidTables(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig("Bad-Name")

	_, err := database.Connect(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid users table name")
}

func TestDatabase_ValidateBeforeMigrate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := setupTestDB(t, "test_users")

	assert.Error(t, db.Validate(ctx))

	require.NoError(t, db.Migrate(ctx))
	assert.NoError(t, db.Validate(ctx))
}

func TestDatabase_RepoAuthenticates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := setupTestDB(t, "test_users")
	require.NoError(t, db.Migrate(ctx))

	hash, err := fileit.HashPassword("s3cret")
	require.NoError(t, err)

	repo := db.GetRepo()
	_, err = repo.Create(ctx, "alice", hash)
	require.NoError(t, err)

	auth := fileit.NewAuthenticator(repo)
	assert.NoError(t, auth.Check(ctx, "alice", "s3cret"))
	assert.ErrorIs(t, auth.Check(ctx, "alice", "wrong"), fileit.ErrUnauthorized)
	assert.ErrorIs(t, auth.Check(ctx, "bob", "s3cret"), fileit.ErrUnauthorized)
}
