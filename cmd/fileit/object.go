package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kiratsolutions/fileit"
)

var objectCmd = &cobra.Command{
	Use:   "object",
	Short: "Read and write objects in the bucket",
}

var objectListCmd = &cobra.Command{
	Use:   "list [prefix]",
	Short: "List objects, optionally under a prefix",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, service, c, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer c.run()

		prefix := ""
		if len(args) == 1 {
			prefix = args[0]
		}

		res, err := service.ListObjects(cmd.Context(), prefix)
		if err != nil {
			return err
		}
		return formatter(cmd).Objects(cmd.OutOrStdout(), res.Items)
	},
}

var objectGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Write an object to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, service, c, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer c.run()

		rc, _, err := service.GetObject(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer func() { _ = rc.Close() }()

		if _, err := io.Copy(cmd.OutOrStdout(), rc); err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		return nil
	},
}

var objectPutContentType string

var objectPutCmd = &cobra.Command{
	Use:   "put <local-file> [path]",
	Short: "Upload a local file; path defaults to the file name",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, service, c, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer c.run()

		dest := filepath.ToSlash(filepath.Base(args[0]))
		if len(args) == 2 {
			dest = args[1]
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer func() { _ = f.Close() }()

		info, err := service.PutObject(cmd.Context(), dest, objectPutContentType, f)
		if err != nil {
			return err
		}
		return formatter(cmd).Objects(cmd.OutOrStdout(), []fileit.ObjectInfo{info})
	},
}

var objectDeleteCmd = &cobra.Command{
	Use:   "delete <path>...",
	Short: "Delete objects",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, service, c, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer c.run()

		for _, p := range args {
			if err := service.DeleteObject(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted: %s\n", p)
		}
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <path> <dir>",
	Short: "Save an object into a local directory",
	Long: `Save an object into an existing local directory under its base name.
Fails if <dir> is not a directory.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, service, c, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer c.run()

		dest, err := service.DownloadObject(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Downloaded: %s -> %s\n", args[0], dest)
		return nil
	},
}

func init() {
	objectPutCmd.Flags().StringVarP(&objectPutContentType, "content-type", "t", "", "content type (default: from extension)")

	objectCmd.AddCommand(objectListCmd, objectGetCmd, objectPutCmd, objectDeleteCmd)
	rootCmd.AddCommand(objectCmd, downloadCmd)
}
