package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/kiratsolutions/fileit"
	"github.com/kiratsolutions/fileit/database/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHash = "$2a$10$abcdefghijklmnopqrstuuJ8Qy0y5bE6N1QY2wq3cY8fQk6v3cZ5e"

func TestConnect(t *testing.T) {
	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	db, err := postgres.Connect(ctx, getDSN(pool), fileit.Tables{Users: "users"})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.NoError(t, db.Ping(ctx), "ping should succeed after connect")
}

func TestDatabase_MigrateAndValidate(t *testing.T) {
	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	tableName := "migrate_" + getRandomString(t)
	db, err := postgres.Connect(ctx, getDSN(pool), fileit.Tables{Users: tableName})
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
		_ = dropTable(ctx, pool, tableName)
	}()

	assert.Error(t, db.Validate(ctx), "validate should fail before migrate")

	require.NoError(t, db.Migrate(ctx), "first migrate")
	require.NoError(t, db.Migrate(ctx), "second migrate")
	assert.NoError(t, db.Validate(ctx))
}

func TestDatabase_Validate_WrongColumnType(t *testing.T) {
	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	tableName := "badschema_" + getRandomString(t)
	_, err := pool.Exec(ctx, `CREATE TABLE `+tableName+` (
		username TEXT NOT NULL PRIMARY KEY,
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`)
	require.NoError(t, err)
	defer func() { _ = dropTable(ctx, pool, tableName) }()

	err = postgres.ValidateSchema(ctx, pool, fileit.Tables{Users: tableName})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "created_at: expected timestamp with time zone, got text")
}

func TestRepo_CreateAndPasswordHash(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	before := time.Now().Add(-time.Minute)
	u, err := repo.Create(ctx, "alice", testHash)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.True(t, u.CreatedAt.After(before))

	hash, err := repo.PasswordHash(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, testHash, hash)

	_, err = repo.PasswordHash(ctx, "bob")
	assert.ErrorIs(t, err, fileit.ErrNotFound)
}

func TestRepo_Create_Duplicate(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, "alice", testHash)
	require.NoError(t, err)

	_, err = repo.Create(ctx, "alice", testHash)
	assert.ErrorIs(t, err, fileit.ErrInvalidInput)
}

func TestRepo_Delete(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, "alice", testHash)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "alice"))
	assert.ErrorIs(t, repo.Delete(ctx, "alice"), fileit.ErrNotFound)
}

func TestRepo_List(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for _, name := range []string{"carol", "alice", "bob"} {
		_, err := repo.Create(ctx, name, testHash)
		require.NoError(t, err)
	}

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, []string{"alice", "bob", "carol"},
		[]string{users[0].Username, users[1].Username, users[2].Username})
}
