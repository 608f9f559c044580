package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/spf13/cobra"
)

var statusUser string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show enrollment metadata for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		record, err := store.GetRecord(ctx, statusUser)
		if err != nil {
			if errors.Is(err, common.ErrNotEnrolled) {
				fmt.Printf("%s: not enrolled\n", statusUser)
				return nil
			}
			return err
		}

		fmt.Printf("user:       %s\n", record.UserID)
		fmt.Printf("enrolled:   %s\n", record.CreatedAt.Format(time.RFC3339))
		fmt.Printf("embeddings: %d\n", record.EmbeddingCount)
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVarP(&statusUser, "user", "u", "", "User id to inspect")

	_ = statusCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(statusCmd)
}
