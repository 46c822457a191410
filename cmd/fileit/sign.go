package main

import (
	"github.com/spf13/cobra"
)

var signCmd = &cobra.Command{
	Use:   "sign <path>",
	Short: "Print a time-limited signed GET URL for an object",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, service, c, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer c.run()

		u, err := service.SignURL(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return formatter(cmd).Signed(cmd.OutOrStdout(), u)
	},
}

func init() {
	rootCmd.AddCommand(signCmd)
}
