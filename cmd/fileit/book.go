package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Inspect and edit the book index",
}

var bookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List books in the index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, service, c, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer c.run()

		list, err := service.MasterIndex(cmd.Context())
		if err != nil {
			return err
		}
		return formatter(cmd).Books(cmd.OutOrStdout(), list)
	},
}

var bookAddCmd = &cobra.Command{
	Use:   "add <name> <descriptor-path>",
	Short: "Add a book, or point an existing one at a new descriptor",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, service, c, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer c.run()

		if err := service.AddBook(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Book '%s' -> %s\n", args[0], args[1])
		return nil
	},
}

var bookRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a book from the index (objects are kept)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, service, c, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer c.run()

		if err := service.DeleteBook(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Book '%s' removed.\n", args[0])
		return nil
	},
}

var bookTreeCmd = &cobra.Command{
	Use:   "tree <name>",
	Short: "Print a book descriptor converted to JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, service, c, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer c.run()

		tree, err := service.BookTree(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(tree))
		return nil
	},
}

func init() {
	bookCmd.AddCommand(bookListCmd, bookAddCmd, bookRemoveCmd, bookTreeCmd)
	rootCmd.AddCommand(bookCmd)
}
