package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/dmitrijs2005/facelock/internal/detect"
	"github.com/dmitrijs2005/facelock/internal/liveness"
	"github.com/dmitrijs2005/facelock/internal/matching"
	"github.com/spf13/cobra"
)

var (
	verifyUser   string
	verifyInputs []string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run a liveness-gated verification session against an enrollment",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		camera := detect.NewFileCamera(verifyInputs...)
		matcher := matching.New(cfg.MatchThreshold)

		session := liveness.NewSession(verifyUser, camera, detect.IndeterminateDetector{}, store, matcher, liveness.Config{
			Countdown: cfg.CountdownDuration,
			FailOpen:  cfg.LivenessFailOpen,
		}, logger)
		session.OnTransition = func(p liveness.Phase) {
			fmt.Fprintf(os.Stderr, "phase: %s\n", p)
		}

		err := session.Run(ctx)
		if err == nil {
			fmt.Fprintf(os.Stderr, "VERIFIED %q (score %.4f)\n", verifyUser, session.Score())
			return nil
		}

		var failure *liveness.FailureError
		switch {
		case errors.As(err, &failure):
			return fmt.Errorf("verification failed: %w", failure)
		case errors.Is(err, common.ErrNotEnrolled):
			return fmt.Errorf("user %q is not enrolled", verifyUser)
		default:
			return err
		}
	},
}

func init() {
	verifyCmd.Flags().StringVarP(&verifyUser, "user", "u", "", "User id to verify")
	verifyCmd.Flags().StringSliceVarP(&verifyInputs, "input", "i", nil, "Face image files used as captures")

	_ = verifyCmd.MarkFlagRequired("user")
	_ = verifyCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(verifyCmd)
}
