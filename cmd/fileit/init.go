package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kiratsolutions/fileit/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the users table",
	Long: `Create the users table in the configured database (sqlite or postgres)
if it does not exist, then validate its schema. Run this once before using
the database auth backend or the 'user' commands.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	var c cleanup
	defer c.run()

	if _, err := openDatabase(ctx, cfg, true, &c); err != nil {
		return err
	}

	slog.Info("users table ready", "type", cfg.Database.Type, "table", cfg.Database.Tables.Users)
	fmt.Fprintf(cmd.OutOrStdout(), "Users table %q ready.\n", cfg.Database.Tables.Users)
	return nil
}
