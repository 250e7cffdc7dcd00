package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/rso-api/internal/dto"
	"github.com/noah-isme/rso-api/internal/models"
	"github.com/noah-isme/rso-api/internal/scoring"
	appErrors "github.com/noah-isme/rso-api/pkg/errors"
)

type scoredReportStore interface {
	List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error)
	UpdateScore(ctx context.Context, exec sqlx.ExtContext, id string, score float64) error
	FindApprovedScore(ctx context.Context, exec sqlx.ExtContext, competitionID, participantID, metricKey string) (*float64, error)
}

type competitionStore interface {
	FindByID(ctx context.Context, id string) (*models.Competition, error)
	List(ctx context.Context) ([]models.Competition, error)
	ListParticipants(ctx context.Context, competitionID string) ([]models.Participant, error)
	FindParticipant(ctx context.Context, id string) (*models.Participant, error)
}

// CutoffPolicy decides whether a competition's cutoff-aware metrics are frozen. The
// competition's own cutoff date wins over Default. Runs are refused from the day after the
// cutoff date.
type CutoffPolicy struct {
	Default *time.Time
	Now     func() time.Time
}

// Date returns the effective cutoff date of the competition, if any.
func (p CutoffPolicy) Date(competition *models.Competition) *time.Time {
	if competition != nil && competition.CutoffDate != nil {
		return competition.CutoffDate
	}
	return p.Default
}

// Exceeded reports whether the metric can no longer be computed for the competition.
func (p CutoffPolicy) Exceeded(metric scoring.Metric, competition *models.Competition) bool {
	if !metric.CutoffAware {
		return false
	}
	cutoff := p.Date(competition)
	if cutoff == nil {
		return false
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	y, m, d := cutoff.Date()
	lastDay := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return !now().UTC().Before(lastDay.AddDate(0, 0, 1))
}

// ScoringService computes and persists report scores.
type ScoringService struct {
	reports      scoredReportStore
	competitions competitionStore
	cutoff       CutoffPolicy
	metrics      *MetricsService
	logger       *zap.Logger
}

// ScoringServiceOption configures the scoring service.
type ScoringServiceOption func(*ScoringService)

// WithScoringCutoff overrides the cutoff policy.
func WithScoringCutoff(policy CutoffPolicy) ScoringServiceOption {
	return func(s *ScoringService) {
		s.cutoff = policy
	}
}

// WithScoringMetrics attaches Prometheus instrumentation.
func WithScoringMetrics(metrics *MetricsService) ScoringServiceOption {
	return func(s *ScoringService) {
		s.metrics = metrics
	}
}

// NewScoringService constructs the service.
func NewScoringService(reports scoredReportStore, competitions competitionStore, logger *zap.Logger, opts ...ScoringServiceOption) *ScoringService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ScoringService{reports: reports, competitions: competitions, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// ScoreReport computes and stores the score of a centrally approved report, then rescores the
// entrant's approved ratio reports that divide by it. After the competition cutoff the report
// keeps its previous score and the outcome is marked skipped.
func (s *ScoringService) ScoreReport(ctx context.Context, exec sqlx.ExtContext, report *models.Report) (*dto.ScoreOutcome, error) {
	metric, err := scoring.Lookup(report.MetricKey)
	if err != nil {
		return nil, err
	}
	if !report.CentrallyApproved() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "report is not centrally approved")
	}
	competition, err := s.loadCompetition(ctx, report.CompetitionID)
	if err != nil {
		return nil, err
	}
	if s.cutoff.Exceeded(metric, competition) {
		s.logger.Warn("competition cutoff passed; score not computed",
			zap.String("competition_id", competition.ID),
			zap.String("metric", metric.Key),
			zap.String("report_id", report.ID),
		)
		s.metrics.RecordCutoffRefusal(metric.Key)
		return &dto.ScoreOutcome{ReportID: report.ID, MetricKey: metric.Key, Score: report.Score, Skipped: true, Warning: "competition cutoff passed"}, nil
	}
	return s.scoreWithDependents(ctx, exec, competition, metric, report)
}

// RecomputeScores rescores every approved report of the metric. Reports awaiting review are
// skipped and a failing report does not stop the sweep.
func (s *ScoringService) RecomputeScores(ctx context.Context, competitionID, metricKey string) (*dto.ScoreSweepResult, error) {
	metric, err := scoring.Lookup(metricKey)
	if err != nil {
		return nil, err
	}
	competition, err := s.loadCompetition(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	result := &dto.ScoreSweepResult{CompetitionID: competition.ID, MetricKey: metric.Key}
	if s.cutoff.Exceeded(metric, competition) {
		s.logger.Warn("competition cutoff passed; score recompute refused",
			zap.String("competition_id", competition.ID),
			zap.String("metric", metric.Key),
		)
		s.metrics.RecordCutoffRefusal(metric.Key)
		result.CutoffExceeded = true
		return result, nil
	}

	reports, err := s.reports.List(ctx, models.ReportFilter{CompetitionID: competition.ID, MetricKeys: []string{metric.Key}})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reports")
	}
	for i := range reports {
		report := &reports[i]
		if !report.CentrallyApproved() {
			result.Skipped++
			continue
		}
		outcome, err := s.scoreWithDependents(ctx, nil, competition, metric, report)
		if err != nil {
			result.Failed++
			s.logger.Error("report scoring failed", zap.String("report_id", report.ID), zap.String("metric", metric.Key), zap.Error(err))
			continue
		}
		result.Scored++
		if outcome.Warning != "" {
			result.Warnings++
		}
	}
	s.logger.Info("report scores recomputed",
		zap.String("competition_id", competition.ID),
		zap.String("metric", metric.Key),
		zap.Int("scored", result.Scored),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// RecomputeCompetition rescores every catalogue metric of the competition.
func (s *ScoringService) RecomputeCompetition(ctx context.Context, competitionID string) ([]dto.ScoreSweepResult, error) {
	if _, err := s.loadCompetition(ctx, competitionID); err != nil {
		return nil, err
	}
	var results []dto.ScoreSweepResult
	for _, metric := range scoring.All() {
		result, err := s.RecomputeScores(ctx, competitionID, metric.Key)
		if err != nil {
			s.logger.Error("metric score sweep failed", zap.String("metric", metric.Key), zap.Error(err))
			continue
		}
		results = append(results, *result)
	}
	return results, nil
}

// scoreWithDependents scores the report and every approved ratio report of the same entrant
// whose reference is the report's metric. Dependents past the cutoff keep their score.
func (s *ScoringService) scoreWithDependents(ctx context.Context, exec sqlx.ExtContext, competition *models.Competition, metric scoring.Metric, report *models.Report) (*dto.ScoreOutcome, error) {
	outcome, err := s.score(ctx, exec, metric, report)
	if err != nil {
		return nil, err
	}
	for _, dependent := range scoring.Dependents(metric.Key) {
		if s.cutoff.Exceeded(dependent, competition) {
			continue
		}
		reports, err := s.reports.List(ctx, models.ReportFilter{
			CompetitionID: report.CompetitionID,
			ParticipantID: report.ParticipantID,
			MetricKeys:    []string{dependent.Key},
			OnlyApproved:  true,
		})
		if err != nil {
			return nil, fmt.Errorf("list reports of metric %s: %w", dependent.Key, err)
		}
		for i := range reports {
			rescored, err := s.score(ctx, exec, dependent, &reports[i])
			if err != nil {
				return nil, err
			}
			outcome.Rescored = append(outcome.Rescored, *rescored)
		}
	}
	return outcome, nil
}

func (s *ScoringService) score(ctx context.Context, exec sqlx.ExtContext, metric scoring.Metric, report *models.Report) (*dto.ScoreOutcome, error) {
	var reference *float64
	if metric.Kind == scoring.KindRatio {
		ref, err := s.reports.FindApprovedScore(ctx, exec, report.CompetitionID, report.ParticipantID, metric.RefMetric)
		if err != nil {
			s.metrics.RecordReportScored(metric.Key, "failed")
			return nil, err
		}
		reference = ref
	}

	result, err := scoring.Compute(metric, scoring.NewInput(report, reference))
	if err != nil {
		s.metrics.RecordReportScored(metric.Key, "failed")
		return nil, err
	}
	if err := s.reports.UpdateScore(ctx, exec, report.ID, result.Score); err != nil {
		s.metrics.RecordReportScored(metric.Key, "failed")
		return nil, err
	}
	report.Score = result.Score

	outcome := "scored"
	if result.Warning != "" {
		outcome = "warning"
		s.logger.Warn("score defaulted to zero",
			zap.String("report_id", report.ID),
			zap.String("metric", metric.Key),
			zap.String("reference_metric", metric.RefMetric),
			zap.String("reason", result.Warning),
		)
	}
	s.metrics.RecordReportScored(metric.Key, outcome)
	return &dto.ScoreOutcome{ReportID: report.ID, MetricKey: metric.Key, Score: result.Score, Warning: result.Warning}, nil
}

func (s *ScoringService) loadCompetition(ctx context.Context, id string) (*models.Competition, error) {
	competition, err := s.competitions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "competition not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load competition")
	}
	return competition, nil
}
