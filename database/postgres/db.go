package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kiratsolutions/fileit"
	"github.com/kiratsolutions/fileit/database/internal/schema"
)

var usersTable = schema.Table{
	"username":      {Type: "text"},
	"password_hash": {Type: "text"},
	"created_at":    {Type: "timestamp with time zone"},
	"updated_at":    {Type: "timestamp with time zone"},
}

// ValidateSchema checks that the users table exists in the current schema
// with the columns Repo uses.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool, tables fileit.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}

	got, err := columns(ctx, pool, tables.Users)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", tables.Users, err)
	}

	if err := usersTable.Check(tables.Users, got); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return nil
}

func columns(ctx context.Context, pool *pgxpool.Pool, table string) (schema.Table, error) {
	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
	`, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	got := make(schema.Table)
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		got[name] = schema.Column{Type: dataType, Nullable: nullable == "YES"}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	return got, nil
}
