package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kiratsolutions/fileit/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "fileit",
	Short:   "FileIt document backend",
	Long: `FileIt stores books in a cloud bucket, converts uploaded PDF and Word
documents into page images, and serves the book index over a small REST API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file paths, YAML or legacy .properties (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("storage", "", "storage backend: gcs, s3, filesystem (env: FILEIT_STORAGE_BACKEND)")
	rootCmd.PersistentFlags().String("storage-path", "", "bucket directory for the filesystem backend (env: FILEIT_STORAGE_PATH)")
	rootCmd.PersistentFlags().String("bucket", "", "bucket name (env: FILEIT_CLOUD_BUCKET)")
	rootCmd.PersistentFlags().String("db-type", "", "users database type: sqlite, postgres (env: FILEIT_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "users database connection string (env: FILEIT_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: FILEIT_LOG_LEVEL)")
	rootCmd.PersistentFlags().Bool("json", false, "print results as JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
