package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/rso-api/internal/dto"
)

type sweepOutput struct {
	Command    string `json:"command"`
	DurationMS int64  `json:"duration_ms"`
	Result     any    `json:"result"`
}

func newScoresCmd() *cobra.Command {
	var (
		competitionID string
		metricKey     string
	)

	cmd := &cobra.Command{
		Use:   "scores",
		Short: "Recompute approved report scores of a competition",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			start := time.Now()
			var results []dto.ScoreSweepResult
			if metricKey != "" {
				result, err := rt.scoring.RecomputeScores(cmd.Context(), competitionID, metricKey)
				if err != nil {
					return err
				}
				results = append(results, *result)
			} else {
				results, err = rt.scoring.RecomputeCompetition(cmd.Context(), competitionID)
				if err != nil {
					return err
				}
			}
			rt.logger.Info("score sweep finished", zap.String("competition_id", competitionID), zap.Int("metrics", len(results)))
			return writeJSON(sweepOutput{
				Command:    "scores",
				DurationMS: time.Since(start).Milliseconds(),
				Result:     results,
			})
		},
	}

	cmd.Flags().StringVar(&competitionID, "competition", "", "Competition ID (required)")
	cmd.Flags().StringVar(&metricKey, "metric", "", "Metric key; every metric when empty")
	_ = cmd.MarkFlagRequired("competition")
	return cmd
}
