package main

import (
	"fmt"
	"os"

	"github.com/dmitrijs2005/facelock/internal/detect"
	"github.com/dmitrijs2005/facelock/internal/enroll"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	enrollUser     string
	enrollInputs   []string
	enrollCaptures int
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll a user from face images",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		captures := cfg.EnrollmentCaptures
		if enrollCaptures > 0 {
			captures = enrollCaptures
		}

		camera := detect.NewFileCamera(enrollInputs...)
		svc := enroll.NewService(camera, detect.IndeterminateDetector{}, store, enroll.Config{
			Captures: captures,
			MaxYaw:   cfg.MaxYaw,
			MaxRoll:  cfg.MaxRoll,
		}, logger)

		bar := progressbar.NewOptions(captures,
			progressbar.OptionSetDescription("Enrolling"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)

		embeddings, err := svc.Collect(ctx, captures, func(done int) {
			_ = bar.Set(done)
		})
		if err != nil {
			return fmt.Errorf("collecting captures: %w", err)
		}

		record, err := store.SaveEmbeddings(ctx, enrollUser, embeddings)
		if err != nil {
			return fmt.Errorf("saving enrollment: %w", err)
		}
		_ = bar.Finish()

		fmt.Fprintf(os.Stderr, "\nEnrolled %q with %d embeddings\n", record.UserID, record.EmbeddingCount)
		return nil
	},
}

func init() {
	enrollCmd.Flags().StringVarP(&enrollUser, "user", "u", "", "User id to enroll")
	enrollCmd.Flags().StringSliceVarP(&enrollInputs, "input", "i", nil, "Face image files (cycled when fewer than captures)")
	enrollCmd.Flags().IntVarP(&enrollCaptures, "captures", "n", 0, "Number of captures (default from config)")

	_ = enrollCmd.MarkFlagRequired("user")
	_ = enrollCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(enrollCmd)
}
