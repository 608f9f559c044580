package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	passwdUser  string
	passwdCheck bool
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Set or check a user's fallback secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if passwdCheck {
			fmt.Fprint(os.Stderr, "Secret: ")
			secret, err := readPassword()
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return fmt.Errorf("reading secret: %w", err)
			}
			defer common.WipeByteArray(secret)

			ok, err := store.CheckFallbackSecret(ctx, passwdUser, string(secret))
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					return fmt.Errorf("no fallback secret set for %q", passwdUser)
				}
				return err
			}
			if !ok {
				return errors.New("secret does not match")
			}
			fmt.Fprintln(os.Stderr, "secret ok")
			return nil
		}

		fmt.Fprint(os.Stderr, "New secret: ")
		first, err := readPassword()
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("reading secret: %w", err)
		}
		defer common.WipeByteArray(first)

		fmt.Fprint(os.Stderr, "Repeat secret: ")
		second, err := readPassword()
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("reading secret: %w", err)
		}
		defer common.WipeByteArray(second)

		if string(first) != string(second) {
			return errors.New("secrets do not match")
		}

		if err := store.SetFallbackSecret(ctx, passwdUser, string(first)); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "fallback secret set for %q\n", passwdUser)
		return nil
	},
}

func init() {
	passwdCmd.Flags().StringVarP(&passwdUser, "user", "u", "", "User id")
	passwdCmd.Flags().BoolVar(&passwdCheck, "check", false, "Verify the secret instead of setting it")

	_ = passwdCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(passwdCmd)
}
