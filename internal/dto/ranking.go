package dto

import (
	"time"

	"github.com/noah-isme/rso-api/internal/models"
)

// ScoreOutcome reports the result of scoring one report.
type ScoreOutcome struct {
	ReportID  string  `json:"report_id"`
	MetricKey string  `json:"metric_key"`
	Score     float64 `json:"score"`
	Warning   string  `json:"warning,omitempty"`
	Skipped   bool    `json:"skipped"`
	// Rescored holds the ratio reports of the same entrant that divide by this score.
	Rescored []ScoreOutcome `json:"rescored,omitempty"`
}

// ScoreSweepResult summarises a recompute of one metric's report scores.
type ScoreSweepResult struct {
	CompetitionID  string `json:"competition_id"`
	MetricKey      string `json:"metric_key"`
	Scored         int    `json:"scored"`
	Skipped        int    `json:"skipped"`
	Failed         int    `json:"failed"`
	Warnings       int    `json:"warnings"`
	CutoffExceeded bool   `json:"cutoff_exceeded"`
}

// RankingRunResult summarises a recompute of one metric's places.
type RankingRunResult struct {
	CompetitionID  string `json:"competition_id"`
	Metric         int    `json:"metric"`
	SoloEntrants   int    `json:"solo_entrants"`
	TandemEntrants int    `json:"tandem_entrants"`
	CutoffExceeded bool   `json:"cutoff_exceeded"`
	Error          string `json:"error,omitempty"`
}

// RecomputeRankingRequest selects the metric numbers to recompute. Empty means all.
type RecomputeRankingRequest struct {
	Metrics []int `json:"metrics" validate:"omitempty,dive,min=1,max=20"`
}

// RankingListResponse is the cached ranking table of one pool.
type RankingListResponse struct {
	CompetitionID string                `json:"competition_id"`
	Tandem        bool                  `json:"tandem"`
	Entries       []models.RankingEntry `json:"entries"`
}

// SystemMetrics is a lightweight snapshot of process metrics.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	ReportsScored            uint64    `json:"reports_scored"`
	ScoreFailures            uint64    `json:"score_failures"`
	RankingRuns              uint64    `json:"ranking_runs"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
