package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteUser string

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a user's enrollment",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		enrolled, err := store.IsEnrolled(ctx, deleteUser)
		if err != nil {
			return err
		}
		if !enrolled {
			fmt.Printf("%s: not enrolled\n", deleteUser)
			return nil
		}

		if err := store.DeleteEnrollment(ctx, deleteUser); err != nil {
			return fmt.Errorf("deleting enrollment: %w", err)
		}
		fmt.Printf("%s: enrollment deleted\n", deleteUser)
		return nil
	},
}

func init() {
	deleteCmd.Flags().StringVarP(&deleteUser, "user", "u", "", "User id to delete")

	_ = deleteCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(deleteCmd)
}
