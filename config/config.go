package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kiratsolutions/fileit"
	"github.com/kiratsolutions/fileit/convert"
	"github.com/kiratsolutions/fileit/database"
	"github.com/kiratsolutions/fileit/gcs"
	fileithttp "github.com/kiratsolutions/fileit/http"
	"github.com/kiratsolutions/fileit/s3"
	"github.com/kiratsolutions/fileit/userbackend"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Storage backends.
const (
	BackendGCS        = "gcs"
	BackendS3         = "s3"
	BackendFilesystem = "filesystem"
)

// Auth backends.
const (
	AuthNone     = "none"
	AuthUsers    = "users"
	AuthDatabase = "database"
)

// Config is the root configuration struct for fileit.
type Config struct {
	Env      string                `mapstructure:"env" yaml:"env" validate:"omitempty,oneof=dev development prod production"`
	Server   ServerConfig          `mapstructure:"server" yaml:"server"`
	Cloud    gcs.Config            `mapstructure:"cloud" yaml:"cloud"`
	Storage  StorageConfig         `mapstructure:"storage" yaml:"storage"`
	Index    IndexConfig           `mapstructure:"index" yaml:"index"`
	Auth     AuthConfig            `mapstructure:"auth" yaml:"auth"`
	Database database.Config       `mapstructure:"database" yaml:"database"`
	Convert  convert.Config        `mapstructure:"convert" yaml:"convert"`
	CORS     fileithttp.CORSConfig `mapstructure:"cors" yaml:"cors"`
	Log      LogConfig             `mapstructure:"log" yaml:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port          int   `mapstructure:"port" yaml:"port" validate:"required,min=1,max=65535"`
	MaxUploadSize int64 `mapstructure:"max_upload_size" yaml:"max_upload_size" validate:"min=0"`
	// ShutdownTimeout bounds graceful shutdown on SIGINT/SIGTERM.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"min=0"`
}

// StorageConfig selects the object store holding the bucket.
type StorageConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend" validate:"required,oneof=gcs s3 filesystem"`
	// Path is the bucket directory for the filesystem backend.
	Path string    `mapstructure:"path" yaml:"path" validate:"required_if=Backend filesystem"`
	S3   s3.Config `mapstructure:"s3" yaml:"s3"`
}

// IndexConfig locates the BookList document.
type IndexConfig struct {
	Object string `mapstructure:"object" yaml:"object" validate:"required"`
	// ImageURLTTL is the lifetime of signed page image URLs.
	ImageURLTTL time.Duration `mapstructure:"image_url_ttl" yaml:"image_url_ttl" validate:"min=0"`
}

// AuthConfig selects where login credentials come from.
type AuthConfig struct {
	Backend string                  `mapstructure:"backend" yaml:"backend" validate:"required,oneof=none users database"`
	Users   userbackend.UsersConfig `mapstructure:"users" yaml:"users"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=debug info warn error"`
}

// IsProd reports whether Env names a production deployment.
func (c *Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":      "database.type",
	"db-dsn":       "database.dsn",
	"storage":      "storage.backend",
	"storage-path": "storage.path",
	"bucket":       "cloud.bucket",
	"port":         "server.port",
	"log-level":    "log.level",
}

// legacyKeys maps cloud.properties keys onto the cloud section.
var legacyKeys = map[string]string{
	"project.id":       "project_id",
	"application.name": "application_name",
	"account.id":       "account_id",
	"private.key":      "private_key",
	"api.url":          "api_url",
	"bucket.name":      "bucket",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance. Every key
// that may come from the environment needs a default so AutomaticEnv sees it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_size", fileithttp.DefaultMaxUploadBytes)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("cloud.project_id", "")
	v.SetDefault("cloud.application_name", "fileit")
	v.SetDefault("cloud.account_id", "")
	v.SetDefault("cloud.private_key", "")
	v.SetDefault("cloud.api_url", fileit.DefaultAPIURL)
	v.SetDefault("cloud.bucket", "1dvaultdata")
	v.SetDefault("cloud.read_via_signed_url", false)

	v.SetDefault("storage.backend", BackendFilesystem)
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("storage.s3.region", "")

	v.SetDefault("index.object", fileit.DefaultIndexObject)
	v.SetDefault("index.image_url_ttl", fileit.ImageURLTTL)

	v.SetDefault("auth.backend", AuthNone)
	v.SetDefault("auth.users.file", "")

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "fileit.db")
	v.SetDefault("database.tables.users", "fileit_users")

	v.SetDefault("convert.max_width", convert.DefaultMaxWidth)
	v.SetDefault("convert.quality", convert.DefaultQuality)
	v.SetDefault("convert.dpi", convert.DefaultDPI)
	v.SetDefault("convert.office_command", convert.DefaultOfficeCommand)
	v.SetDefault("convert.office_timeout", convert.DefaultOfficeTimeout)
	v.SetDefault("convert.temp_dir", "")

	v.SetDefault("cors.enabled", false)

	v.SetDefault("log.level", "info")
}

// mergeFile merges one config file into v. Files ending in .properties use
// the legacy flat key format and are mapped onto the cloud section.
func mergeFile(v *viper.Viper, path string) error {
	if strings.EqualFold(filepath.Ext(path), ".properties") {
		return mergeLegacyProperties(v, path)
	}

	v.SetConfigFile(path)
	return v.MergeInConfig()
}

func mergeLegacyProperties(v *viper.Viper, path string) error {
	props := viper.New()
	props.SetConfigFile(path)
	props.SetConfigType("properties")
	if err := props.ReadInConfig(); err != nil {
		return err
	}

	cloud := make(map[string]any)
	for legacy, key := range legacyKeys {
		if props.IsSet(legacy) {
			cloud[key] = props.GetString(legacy)
		}
	}

	return v.MergeConfigMap(map[string]any{"cloud": cloud})
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		for _, cf := range configFiles {
			if err := mergeFile(v, cf); err != nil {
				slog.Warn("error reading config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("FILEIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if err := cfg.validateBackends(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	for _, w := range cfg.Warnings() {
		slog.Warn(w)
	}

	return &cfg, nil
}

// validateBackends checks settings that depend on the selected backends.
func (c *Config) validateBackends() error {
	if c.Storage.Backend == BackendGCS && c.Cloud.PrivateKey == "" {
		return errors.New("storage backend gcs requires cloud.private_key")
	}
	if c.Storage.Backend == BackendS3 && c.Storage.S3.Endpoint == "" {
		return errors.New("storage backend s3 requires storage.s3.endpoint")
	}
	if c.Cloud.ReadViaSignedURL && c.Storage.Backend != BackendGCS {
		return errors.New("cloud.read_via_signed_url requires storage backend gcs")
	}
	if c.Auth.Backend == AuthUsers && len(c.Auth.Users.Inline) == 0 && c.Auth.Users.File == "" {
		return errors.New("auth backend users requires auth.users.inline or auth.users.file")
	}
	return nil
}

// Warnings returns settings that load fine but will not work as intended.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Storage.Backend == BackendFilesystem && c.CanSign() &&
		strings.TrimRight(c.Cloud.APIURL, "/") == fileit.DefaultAPIURL {
		warnings = append(warnings, fmt.Sprintf(
			"signed URLs point at %s but the filesystem backend is only served by this server; set cloud.api_url to <server>/signed",
			fileit.DefaultAPIURL))
	}
	return warnings
}

// CanSign reports whether a signing identity is configured.
func (c *Config) CanSign() bool {
	return c.Cloud.AccountID != "" && c.Cloud.PrivateKey != ""
}
