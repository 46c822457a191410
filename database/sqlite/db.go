package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kiratsolutions/fileit"
	"github.com/kiratsolutions/fileit/database/internal/schema"
)

var usersTable = schema.Table{
	"username":      {Type: "text"},
	"password_hash": {Type: "text"},
	"created_at":    {Type: "text"},
	"updated_at":    {Type: "text"},
}

// ValidateSchema checks that the users table exists with the columns Repo uses.
func ValidateSchema(ctx context.Context, db *sql.DB, tables fileit.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}

	got, err := columns(ctx, db, tables.Users)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", tables.Users, err)
	}

	if err := usersTable.Check(tables.Users, got); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return nil
}

// columns reads the table's columns with PRAGMA table_info, which returns
// no rows for a missing table.
func columns(ctx context.Context, db *sql.DB, table string) (schema.Table, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	got := make(schema.Table)
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, dataType   string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		got[name] = schema.Column{Type: dataType, Nullable: notNull == 0}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	return got, nil
}
