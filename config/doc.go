// Package config provides configuration loading and validation for FileIt.
//
// The package handles YAML configuration files, legacy cloud.properties files,
// environment variables, and CLI flags with automatic merging and validation
// using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (FILEIT_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"cloud.properties", "config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Legacy properties
//
// A file ending in .properties is read as the flat key format of the
// original deployment and mapped onto the cloud section:
//
//	project.id        → cloud.project_id
//	application.name  → cloud.application_name
//	account.id        → cloud.account_id
//	private.key       → cloud.private_key
//	api.url           → cloud.api_url
//	bucket.name       → cloud.bucket
//
// # Environment Variables
//
// All config keys map to environment variables with FILEIT_ prefix:
//   - server.port → FILEIT_SERVER_PORT
//   - cloud.bucket → FILEIT_CLOUD_BUCKET
//   - storage.backend → FILEIT_STORAGE_BACKEND
//
// # Configuration Structure
//
// The Config struct contains:
//   - Env: dev or prod, selects the log format
//   - Server: port, max_upload_size, shutdown_timeout
//   - Cloud: bucket and service account used for signing and GCS access
//   - Storage: backend (gcs, s3, filesystem) and its settings
//   - Index: BookList object name and signed image URL lifetime
//   - Auth: credential backend (none, users, database) and inline users
//   - Database: users table connection for the database auth backend
//   - Convert: page rendering and LibreOffice settings
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
package config
