// Package sqlite implements the users repo interface using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kiratsolutions/fileit"
)

// Repo stores login accounts in a SQLite table.
type Repo struct {
	db        *sql.DB
	tableName string
}

func (r *Repo) PasswordHash(ctx context.Context, username string) (string, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT password_hash FROM %s WHERE username = ?`, quoteIdentifier(r.tableName))

	var hash string
	err := r.db.QueryRowContext(ctx, query, username).Scan(&hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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

	now := time.Now().UTC()
	ts := now.Format(time.RFC3339Nano)

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (username, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (username) DO NOTHING`, quoteIdentifier(r.tableName))

	res, err := r.db.ExecContext(ctx, query, username, passwordHash, ts, ts)
	if err != nil {
		return fileit.User{}, fmt.Errorf("create user: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fileit.User{}, fmt.Errorf("create user: rows affected: %w", err)
	}
	if n == 0 {
		return fileit.User{}, fmt.Errorf("create user: %s already exists: %w", username, fileit.ErrInvalidInput)
	}

	return fileit.User{
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (r *Repo) Delete(ctx context.Context, username string) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`DELETE FROM %s WHERE username = ?`, quoteIdentifier(r.tableName))

	res, err := r.db.ExecContext(ctx, query, username)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete user: %w", fileit.ErrNotFound)
	}
	return nil
}

func (r *Repo) List(ctx context.Context) ([]fileit.User, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT username, password_hash, created_at, updated_at
		FROM %s ORDER BY username`, quoteIdentifier(r.tableName))

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	users := []fileit.User{}
	for rows.Next() {
		var u fileit.User
		var createdAt, updatedAt string
		if err := rows.Scan(&u.Username, &u.PasswordHash, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("list users: scan: %w", err)
		}
		if u.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("list users: parse created_at: %w", err)
		}
		if u.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
			return nil, fmt.Errorf("list users: parse updated_at: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: rows: %w", err)
	}
	return users, nil
}
