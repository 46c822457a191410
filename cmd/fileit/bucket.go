package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var bucketCmd = &cobra.Command{
	Use:   "bucket",
	Short: "Manage buckets (gcs and s3 backends)",
}

var bucketCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a bucket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, service, c, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer c.run()

		if err := service.CreateBucket(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Bucket '%s' created.\n", args[0])
		return nil
	},
}

var bucketDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete an empty bucket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, service, c, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer c.run()

		if err := service.DeleteBucket(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Bucket '%s' deleted.\n", args[0])
		return nil
	},
}

var bucketListCmd = &cobra.Command{
	Use:   "list",
	Short: "List buckets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, service, c, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer c.run()

		names, err := service.ListBuckets(cmd.Context())
		if err != nil {
			return err
		}
		return formatter(cmd).Buckets(cmd.OutOrStdout(), names)
	},
}

func init() {
	bucketCmd.AddCommand(bucketCreateCmd, bucketDeleteCmd, bucketListCmd)
	rootCmd.AddCommand(bucketCmd)
}
