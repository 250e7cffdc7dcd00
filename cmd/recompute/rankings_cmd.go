package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRankingsCmd() *cobra.Command {
	var (
		competitionID string
		metrics       []int
		withScores    bool
	)

	cmd := &cobra.Command{
		Use:   "rankings",
		Short: "Recompute metric places and overall places of a competition",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			start := time.Now()
			if withScores {
				if _, err := rt.scoring.RecomputeCompetition(cmd.Context(), competitionID); err != nil {
					return err
				}
			}
			results, err := rt.rankings.RecomputeAll(cmd.Context(), competitionID, metrics)
			if err != nil {
				return err
			}
			failed := 0
			for _, result := range results {
				if result.Error != "" {
					failed++
				}
			}
			rt.logger.Info("ranking sweep finished",
				zap.String("competition_id", competitionID),
				zap.Int("metrics", len(results)),
				zap.Int("failed", failed),
			)
			return writeJSON(sweepOutput{
				Command:    "rankings",
				DurationMS: time.Since(start).Milliseconds(),
				Result:     results,
			})
		},
	}

	cmd.Flags().StringVar(&competitionID, "competition", "", "Competition ID (required)")
	cmd.Flags().IntSliceVar(&metrics, "metric", nil, "Metric numbers; every metric when empty")
	cmd.Flags().BoolVar(&withScores, "with-scores", false, "Recompute report scores first")
	_ = cmd.MarkFlagRequired("competition")
	return cmd
}
