package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/kiratsolutions/fileit"
	"github.com/kiratsolutions/fileit/config"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage login accounts in the users database",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create a login account",
	Long: `Create a login account in the users database. The password is read
from --password or prompted for interactively.

Examples:
  fileit user add alice
  fileit user add alice --password s3cret`,
	Args: cobra.ExactArgs(1),
	RunE: runUserAdd,
}

var userRemoveCmd = &cobra.Command{
	Use:   "remove <username>",
	Short: "Delete a login account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserRemove,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List login accounts",
	Args:  cobra.NoArgs,
	RunE:  runUserList,
}

var userHashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Print a bcrypt hash for auth.users.inline entries",
	Args:  cobra.NoArgs,
	RunE:  runUserHash,
}

var (
	userPassword string
	userYes      bool
)

func init() {
	userAddCmd.Flags().StringVarP(&userPassword, "password", "p", "", "password (prompted when empty)")
	userHashCmd.Flags().StringVarP(&userPassword, "password", "p", "", "password (prompted when empty)")
	userRemoveCmd.Flags().BoolVarP(&userYes, "yes", "y", false, "do not ask for confirmation")

	userCmd.AddCommand(userAddCmd, userRemoveCmd, userListCmd, userHashCmd)
	rootCmd.AddCommand(userCmd)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	hash, err := readPasswordHash()
	if err != nil {
		return err
	}

	var c cleanup
	defer c.run()

	db, err := openDatabase(ctx, cfg, false, &c)
	if err != nil {
		return err
	}

	u, err := db.GetRepo().Create(ctx, args[0], hash)
	if err != nil {
		return fmt.Errorf("add user: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "User '%s' created.\n", u.Username)
	return nil
}

func runUserRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	username := args[0]

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	if !userYes {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Remove user '%s'", username),
			IsConfirm: true,
		}
		if _, promptErr := prompt.Run(); promptErr != nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	}

	var c cleanup
	defer c.run()

	db, err := openDatabase(ctx, cfg, false, &c)
	if err != nil {
		return err
	}

	if err := db.GetRepo().Delete(ctx, username); err != nil {
		return fmt.Errorf("remove user %s: %w", username, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "User '%s' removed.\n", username)
	return nil
}

func runUserList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	var c cleanup
	defer c.run()

	db, err := openDatabase(ctx, cfg, false, &c)
	if err != nil {
		return err
	}

	users, err := db.GetRepo().List(ctx)
	if err != nil {
		return err
	}

	return formatter(cmd).Users(cmd.OutOrStdout(), users)
}

func runUserHash(cmd *cobra.Command, args []string) error {
	hash, err := readPasswordHash()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

// readPasswordHash hashes --password, prompting twice when it is empty.
func readPasswordHash() (string, error) {
	password := userPassword
	if password == "" {
		var err error
		password, err = promptPassword()
		if err != nil {
			return "", err
		}
	}

	hash, err := fileit.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func promptPassword() (string, error) {
	prompt := promptui.Prompt{
		Label: "Password",
		Mask:  '*',
		Validate: func(s string) error {
			if s == "" {
				return errors.New("password cannot be empty")
			}
			return nil
		},
	}
	password, err := prompt.Run()
	if err != nil {
		return "", handlePromptError(err)
	}

	confirm := promptui.Prompt{
		Label: "Confirm password",
		Mask:  '*',
	}
	again, err := confirm.Run()
	if err != nil {
		return "", handlePromptError(err)
	}

	if password != again {
		return "", errors.New("passwords do not match")
	}
	return password, nil
}

// handlePromptError handles promptui errors.
func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		fmt.Fprintln(os.Stderr, "\nCancelled.")
		os.Exit(0)
	}
	if errors.Is(err, promptui.ErrAbort) {
		return errCancelled
	}
	return err
}
