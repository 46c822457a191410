package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kiratsolutions/fileit/config"
	"github.com/kiratsolutions/fileit/userbackend"
)

const redacted = "<redacted>"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var showSecrets bool

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		out := *cfg
		if !showSecrets {
			out = redact(out)
		}

		data, err := yaml.Marshal(&out)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

// redact masks secrets in a copy of cfg.
func redact(cfg config.Config) config.Config {
	if cfg.Cloud.PrivateKey != "" {
		cfg.Cloud.PrivateKey = redacted
	}
	if cfg.Storage.S3.SecretKey != "" {
		cfg.Storage.S3.SecretKey = redacted
	}
	if cfg.Database.Type == "postgres" && cfg.Database.DSN != "" {
		cfg.Database.DSN = redacted
	}

	if len(cfg.Auth.Users.Inline) == 0 {
		return cfg
	}
	users := make([]userbackend.Credential, 0, len(cfg.Auth.Users.Inline))
	for _, u := range cfg.Auth.Users.Inline {
		u.PasswordHash = redacted
		users = append(users, u)
	}
	cfg.Auth.Users.Inline = users
	return cfg
}

func init() {
	configShowCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print keys and hashes unmasked")
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
