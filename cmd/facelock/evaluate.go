package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/dmitrijs2005/facelock/internal/evaluate"
	"github.com/spf13/cobra"
)

var (
	evalUser      string
	evalThreshold float64
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run the FAR/FRR self-test against a user's enrollment",
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold := cfg.MatchThreshold
		if evalThreshold > 0 {
			threshold = evalThreshold
		}

		report, err := evaluateUser(cmd.Context(), evalUser, threshold)
		if report != nil {
			printReport(report)
		}
		return err
	},
}

// evaluateUser loads the user's embeddings and runs the self-test. The
// insufficient-enrollment report is still returned alongside the error so
// the caller can print it.
func evaluateUser(ctx context.Context, userID string, threshold float64) (*evaluate.Report, error) {
	embeddings, err := store.GetEmbeddings(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotEnrolled) {
			return nil, fmt.Errorf("user %q: %w", userID, err)
		}
		return nil, err
	}

	report := evaluate.Evaluate(embeddings, threshold)
	if !report.Success {
		return report, fmt.Errorf("%w: need at least 2 embeddings, got %d",
			common.ErrInsufficientData, len(embeddings))
	}
	return report, nil
}

func printReport(r *evaluate.Report) {
	w := os.Stdout
	fmt.Fprintf(w, "Report %s (threshold %.2f)\n", r.ID, r.Threshold)
	fmt.Fprintf(w, "  genuine trials:  %d (mean %.4f)\n", r.GenuineTrials, r.GenuineMean)
	fmt.Fprintf(w, "  impostor trials: %d (mean %.4f)\n", r.ImpostorTrials, r.ImpostorMean)
	fmt.Fprintf(w, "  TP=%d FN=%d FP=%d TN=%d\n", r.TP, r.FN, r.FP, r.TN)
	fmt.Fprintf(w, "  FAR=%.4f FRR=%.4f TAR=%.4f accuracy=%.4f\n", r.FAR, r.FRR, r.TAR, r.Accuracy)
	fmt.Fprintf(w, "  EER=%.4f\n", r.EER)
}

func init() {
	evaluateCmd.Flags().StringVarP(&evalUser, "user", "u", "", "User id to evaluate")
	evaluateCmd.Flags().Float64VarP(&evalThreshold, "threshold", "t", 0, "Decision threshold (default from config)")

	_ = evaluateCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(evaluateCmd)
}
