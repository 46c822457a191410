// Package postgres implements the users repo interface using PostgreSQL
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiratsolutions/fileit"
)

// Repo stores login accounts in a PostgreSQL table.
type Repo struct {
	pool      *pgxpool.Pool
	tableName string
}

// NewRepo returns a Repo over an existing pool.
func NewRepo(pool *pgxpool.Pool, tables fileit.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}
	return &Repo{pool: pool, tableName: tables.Users}, nil
}

func (r *Repo) table() string {
	return pgx.Identifier{r.tableName}.Sanitize()
}

func (r *Repo) PasswordHash(ctx context.Context, username string) (string, error) {
	query := fmt.Sprintf(`SELECT password_hash FROM %s WHERE username = $1`, r.table())

	var hash string
	err := r.pool.QueryRow(ctx, query, username).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fileit.ErrNotFound
		}
		return "", fmt.Errorf("password hash: %w", err)
	}
	return hash, nil
}

func (r *Repo) Create(ctx context.Context, username, passwordHash string) (fileit.User, error) {
	if username == "" || passwordHash == "" {
		return fileit.User{}, fmt.Errorf("create user: %w", fileit.ErrInvalidInput)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (username, password_hash)
		VALUES ($1, $2)
		ON CONFLICT (username) DO NOTHING
		RETURNING username, password_hash, created_at, updated_at
	`, r.table())

	var u fileit.User
	err := r.pool.QueryRow(ctx, query, username, passwordHash).Scan(
		&u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fileit.User{}, fmt.Errorf("create user: %s already exists: %w", username, fileit.ErrInvalidInput)
		}
		return fileit.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *Repo) Delete(ctx context.Context, username string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE username = $1`, r.table())

	tag, err := r.pool.Exec(ctx, query, username)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete user: %w", fileit.ErrNotFound)
	}
	return nil
}

func (r *Repo) List(ctx context.Context) ([]fileit.User, error) {
	query := fmt.Sprintf(`
		SELECT username, password_hash, created_at, updated_at
		FROM %s ORDER BY username
	`, r.table())

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []fileit.User{}
	for rows.Next() {
		var u fileit.User
		if err := rows.Scan(&u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list users: scan: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: rows: %w", err)
	}
	return users, nil
}
