package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/kiratsolutions/fileit"
	"github.com/kiratsolutions/fileit/config"
	"github.com/kiratsolutions/fileit/convert"
	"github.com/kiratsolutions/fileit/database"
	"github.com/kiratsolutions/fileit/filesystem"
	"github.com/kiratsolutions/fileit/gcs"
	fileithttp "github.com/kiratsolutions/fileit/http"
	"github.com/kiratsolutions/fileit/s3"
	"github.com/kiratsolutions/fileit/userbackend"
)

// cleanup releases resources in reverse order of acquisition.
type cleanup []func()

func (c *cleanup) add(f func()) { *c = append(*c, f) }

func (c cleanup) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

// newSigner returns nil when no signing identity is configured.
func newSigner(cfg *config.Config) (*fileit.URLSigner, error) {
	if !cfg.CanSign() {
		return nil, nil
	}

	key, err := fileit.ParsePrivateKey(cfg.Cloud.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("load signing key: %w", err)
	}

	signer, err := fileit.NewURLSigner(fileit.SignerConfig{
		APIURL:     cfg.Cloud.APIURL,
		Bucket:     cfg.Cloud.Bucket,
		AccessID:   cfg.Cloud.AccountID,
		PrivateKey: key,
	})
	if err != nil {
		return nil, fmt.Errorf("create signer: %w", err)
	}
	return signer, nil
}

// openStorage opens the configured object store.
func openStorage(ctx context.Context, cfg *config.Config, signer *fileit.URLSigner, c *cleanup) (fileit.ObjectStorage, error) {
	switch cfg.Storage.Backend {
	case config.BackendGCS:
		store, err := gcs.New(ctx, cfg.Cloud, signer)
		if err != nil {
			return nil, fmt.Errorf("open gcs storage: %w", err)
		}
		c.add(func() { _ = store.Close() })
		slog.Info("using gcs storage", "bucket", cfg.Cloud.Bucket, "signed_reads", cfg.Cloud.ReadViaSignedURL)
		return store, nil

	case config.BackendS3:
		s3cfg := cfg.Storage.S3
		s3cfg.Bucket = cfg.Cloud.Bucket
		store, err := s3.New(s3cfg)
		if err != nil {
			return nil, fmt.Errorf("open s3 storage: %w", err)
		}
		slog.Info("using s3 storage", "endpoint", s3cfg.Endpoint, "bucket", s3cfg.Bucket)
		return store, nil

	case config.BackendFilesystem:
		if err := os.MkdirAll(cfg.Storage.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
		root, err := os.OpenRoot(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("open storage root: %w", err)
		}
		c.add(func() { _ = root.Close() })
		slog.Info("using filesystem storage", "path", cfg.Storage.Path)
		return filesystem.NewFileStorage(root), nil

	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

// newService wires storage, converter and signer into a fileit.Service.
func newService(ctx context.Context, cfg *config.Config, c *cleanup) (*fileit.Service, *fileit.URLSigner, error) {
	signer, err := newSigner(cfg)
	if err != nil {
		return nil, nil, err
	}

	storage, err := openStorage(ctx, cfg, signer, c)
	if err != nil {
		return nil, nil, err
	}

	service, err := fileit.NewService(storage, convert.New(cfg.Convert), fileit.ServiceConfig{
		IndexObject: cfg.Index.Object,
		Signer:      signer,
		ImageTTL:    cfg.Index.ImageURLTTL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create service: %w", err)
	}

	return service, signer, nil
}

// openDatabase connects to the users database and checks its schema.
// With migrate set the users table is created first.
func openDatabase(ctx context.Context, cfg *config.Config, migrate bool, c *cleanup) (database.Database, error) {
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	c.add(func() { _ = db.Close() })

	if err = db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if migrate {
		if err = db.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	if err = db.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate database schema: %w", err)
	}

	slog.Debug("connected to database", "type", cfg.Database.Type)
	return db, nil
}

// openAuthenticator returns nil when authentication is disabled.
func openAuthenticator(ctx context.Context, cfg *config.Config, c *cleanup) (fileithttp.Authenticator, error) {
	switch cfg.Auth.Backend {
	case config.AuthNone:
		slog.Warn("authentication disabled, protected routes are public")
		return nil, nil

	case config.AuthUsers:
		store, err := userbackend.NewCredentialStore(cfg.Auth.Users)
		if err != nil {
			return nil, fmt.Errorf("load users: %w", err)
		}
		slog.Info("loaded users", "count", store.Len())
		return fileit.NewAuthenticator(store), nil

	case config.AuthDatabase:
		db, err := openDatabase(ctx, cfg, false, c)
		if err != nil {
			return nil, err
		}
		return fileit.NewAuthenticator(db.GetRepo()), nil

	default:
		return nil, fmt.Errorf("unsupported auth backend: %s", cfg.Auth.Backend)
	}
}

// newVerifier returns a verifier for /signed URLs when the filesystem
// backend has to serve them itself.
func newVerifier(cfg *config.Config, signer *fileit.URLSigner) *fileit.URLVerifier {
	if signer == nil || cfg.Storage.Backend != config.BackendFilesystem {
		return nil
	}
	return signer.Verifier()
}

// setup loads the config and opens the service for one-shot commands.
func setup(ctx context.Context) (*config.Config, *fileit.Service, cleanup, error) {
	var c cleanup

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return nil, nil, c, err
	}

	service, _, err := newService(ctx, cfg, &c)
	if err != nil {
		c.run()
		return nil, nil, nil, err
	}
	return cfg, service, c, nil
}

var errCancelled = errors.New("cancelled")
