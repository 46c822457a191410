package database

import (
	"context"
	"fmt"

	"github.com/kiratsolutions/fileit"
	"github.com/kiratsolutions/fileit/database/postgres"
	"github.com/kiratsolutions/fileit/database/sqlite"
)

// Database is a connected users backend.
type Database interface {
	Ping(ctx context.Context) error
	// Migrate creates the users table if it does not exist.
	Migrate(ctx context.Context) error
	// Validate checks the users table has the expected columns.
	Validate(ctx context.Context) error
	GetRepo() fileit.UserRepo
	Close() error
}

// Config holds the configuration for connecting to a users backend.
type Config struct {
	// Type specifies the database type: "sqlite" or "postgres"
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=sqlite postgres"`
	// DSN is the data source name (connection string)
	DSN    string        `mapstructure:"dsn" yaml:"dsn" validate:"required"`
	Tables fileit.Tables `mapstructure:"tables" yaml:"tables"`
}

// Connect opens the configured backend. It does not migrate; call
// Migrate (or Validate for an existing schema) before using the repo.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	switch cfg.Type {
	case "sqlite":
		db, err := sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("connect database: unsupported database type: %s", cfg.Type)
	}
}
