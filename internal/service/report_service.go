package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/rso-api/internal/dto"
	"github.com/noah-isme/rso-api/internal/models"
	"github.com/noah-isme/rso-api/internal/scoring"
	"github.com/noah-isme/rso-api/pkg/database"
	appErrors "github.com/noah-isme/rso-api/pkg/errors"
	"github.com/noah-isme/rso-api/pkg/jobs"
)

type reportStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, report *models.Report) error
	Update(ctx context.Context, exec sqlx.ExtContext, report *models.Report, from models.ReportStatus) error
	ReplaceEvents(ctx context.Context, exec sqlx.ExtContext, reportID string, events []models.ReportEvent) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Report, error)
}

type verificationLogStore interface {
	Append(ctx context.Context, entry *models.VerificationLog) error
	ListByReport(ctx context.Context, reportID string) ([]models.VerificationLog, error)
}

type participantFinder interface {
	FindParticipant(ctx context.Context, id string) (*models.Participant, error)
}

type unitFinder interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Unit, error)
}

type reportScorer interface {
	ScoreReport(ctx context.Context, exec sqlx.ExtContext, report *models.Report) (*dto.ScoreOutcome, error)
}

type rankingRecomputer interface {
	RecomputeMetric(ctx context.Context, competitionID string, number int) (*dto.RankingRunResult, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

var errConcurrentReview = appErrors.Clone(appErrors.ErrConflict, "report was changed by another request; reload and retry")

// ReportService drives the report verification workflow:
// draft -> sent -> district_reviewed -> central_approved, with rejection from either review
// step back to the commander.
type ReportService struct {
	reports      reportStore
	logs         verificationLogStore
	participants participantFinder
	units        unitFinder
	scorer       reportScorer
	rankings     rankingRecomputer
	queue        jobDispatcher
	asyncRanking bool
	tx           database.TxBeginner
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// ReportServiceOption configures the report service.
type ReportServiceOption func(*ReportService)

// WithRankingTrigger sets how central approval refreshes rankings. With async set and a queue
// available the recompute is enqueued; otherwise it runs inline after the approval commits.
func WithRankingTrigger(rankings rankingRecomputer, queue jobDispatcher, async bool) ReportServiceOption {
	return func(s *ReportService) {
		s.rankings = rankings
		s.queue = queue
		s.asyncRanking = async
	}
}

// NewReportService constructs the report workflow service.
func NewReportService(reports reportStore, logs verificationLogStore, participants participantFinder, units unitFinder, scorer reportScorer, tx database.TxBeginner, validate *validator.Validate, logger *zap.Logger, opts ...ReportServiceOption) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ReportService{
		reports:      reports,
		logs:         logs,
		participants: participants,
		units:        units,
		scorer:       scorer,
		tx:           tx,
		validator:    validate,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Create stores a draft report. Only a commander of the entrant's detachments may submit.
func (s *ReportService) Create(ctx context.Context, req dto.CreateReportRequest, actor *models.JWTClaims) (*models.Report, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if _, err := scoring.Lookup(req.MetricKey); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "metric_key: unknown competition metric")
	}
	participant, err := s.participants.FindParticipant(ctx, req.ParticipantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return nil, serviceError(err, "failed to load participant")
	}
	if err := s.requireCommander(ctx, participant, actor.UserID); err != nil {
		return nil, err
	}

	now := s.now()
	report := &models.Report{
		ID:            uuid.NewString(),
		CompetitionID: participant.CompetitionID,
		ParticipantID: participant.ID,
		DetachmentID:  participant.JuniorDetachmentID,
		MetricKey:     req.MetricKey,
		Status:        models.ReportStatusDraft,
		Fields:        normalizeFields(req.Fields),
		CreatedBy:     actor.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
		Events:        dto.EventModels(req.Events),
	}
	if err := database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		return s.reports.Create(ctx, tx, report)
	}); err != nil {
		return nil, serviceError(err, "failed to create report")
	}
	return report, nil
}

// Update replaces the content of a draft or rejected report. A rejected report returns to draft.
func (s *ReportService) Update(ctx context.Context, id string, req dto.UpdateReportRequest, actor *models.JWTClaims) (*models.Report, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !report.Status.Editable() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "report can only be edited while in draft or rejected state")
	}
	if err := s.requireReportCommander(ctx, report, actor.UserID); err != nil {
		return nil, err
	}

	from := report.Status
	report.Fields = normalizeFields(req.Fields)
	report.Events = dto.EventModels(req.Events)
	if report.Status == models.ReportStatusRejected {
		report.Status = models.ReportStatusDraft
		report.VerifiedByDistrict = nil
		report.VerifiedByCentral = nil
		report.RejectionReasons = nil
	}
	report.UpdatedAt = s.now()
	if err := s.persist(ctx, report, from, true); err != nil {
		return nil, err
	}
	s.recordTransition(ctx, report, models.VerificationLevelCommander, models.VerificationActionEdited, actor.UserID, nil)
	return report, nil
}

// Send submits a draft report for district review.
func (s *ReportService) Send(ctx context.Context, id string, actor *models.JWTClaims) (*models.Report, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.Status != models.ReportStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "only draft reports can be sent")
	}
	if err := s.requireReportCommander(ctx, report, actor.UserID); err != nil {
		return nil, err
	}

	now := s.now()
	report.Status = models.ReportStatusSent
	report.SentAt = &now
	report.VerifiedByDistrict = nil
	report.VerifiedByCentral = nil
	report.RejectionReasons = nil
	report.UpdatedAt = now
	if err := s.persist(ctx, report, models.ReportStatusDraft, false); err != nil {
		return nil, err
	}
	s.recordTransition(ctx, report, models.VerificationLevelCommander, models.VerificationActionSent, actor.UserID, nil)
	return report, nil
}

// DistrictReview approves a sent report, applying any reviewer edits, or rejects it with reasons.
// Approval verifies every event except those listed by position in ExcludedEvents; only
// verified events count towards the score.
func (s *ReportService) DistrictReview(ctx context.Context, id string, req dto.DistrictReviewRequest, actor *models.JWTClaims) (*models.Report, error) {
	if err := requireRole(actor, models.RoleDistrictAdmin, models.RoleCentralAdmin); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.Status != models.ReportStatusSent {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "only sent reports can be reviewed by the district")
	}

	if !req.Approve {
		reasons, err := rejectionReasons(report.MetricKey, req.Reasons)
		if err != nil {
			return nil, err
		}
		report.Status = models.ReportStatusRejected
		report.VerifiedByDistrict = boolRef(false)
		report.RejectionReasons = reasons
		report.UpdatedAt = s.now()
		if err := s.persist(ctx, report, models.ReportStatusSent, false); err != nil {
			return nil, err
		}
		s.recordTransition(ctx, report, models.VerificationLevelDistrict, models.VerificationActionRejected, actor.UserID, reasons)
		return report, nil
	}

	edited := len(req.Fields) > 0 || req.Events != nil
	if len(req.Fields) > 0 {
		report.Fields = normalizeFields(req.Fields)
	}
	if req.Events != nil {
		report.Events = dto.EventModels(req.Events)
	}
	if err := verifyEvents(report.Events, req.ExcludedEvents); err != nil {
		return nil, err
	}
	report.Status = models.ReportStatusDistrictReviewed
	report.VerifiedByDistrict = boolRef(true)
	report.RejectionReasons = nil
	report.UpdatedAt = s.now()
	if err := s.persist(ctx, report, models.ReportStatusSent, true); err != nil {
		return nil, err
	}
	if edited {
		s.recordTransition(ctx, report, models.VerificationLevelDistrict, models.VerificationActionEdited, actor.UserID, nil)
	}
	s.recordTransition(ctx, report, models.VerificationLevelDistrict, models.VerificationActionApproved, actor.UserID, nil)
	return report, nil
}

// CentralApprove gives the final approval, scores the report in the same transaction and then
// refreshes the metric's ranking. After the competition cutoff the report is approved but keeps
// its previous score.
func (s *ReportService) CentralApprove(ctx context.Context, id string, actor *models.JWTClaims) (*dto.ReportReviewResponse, error) {
	if err := requireRole(actor, models.RoleCentralAdmin); err != nil {
		return nil, err
	}
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.Status == models.ReportStatusCentralApproved || report.CentrallyApproved() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "report already approved")
	}
	if report.Status != models.ReportStatusDistrictReviewed {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "report must pass district review before central approval")
	}

	now := s.now()
	report.Status = models.ReportStatusCentralApproved
	report.VerifiedByCentral = boolRef(true)
	report.RejectionReasons = nil
	report.ApprovedAt = &now
	report.UpdatedAt = now

	var outcome *dto.ScoreOutcome
	err = database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.reports.Update(ctx, tx, report, models.ReportStatusDistrictReviewed); err != nil {
			return err
		}
		scored, err := s.scorer.ScoreReport(ctx, tx, report)
		if err != nil {
			return err
		}
		outcome = scored
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errConcurrentReview
		}
		return nil, serviceError(err, "failed to approve report")
	}

	s.recordTransition(ctx, report, models.VerificationLevelCentral, models.VerificationActionApproved, actor.UserID, nil)
	if outcome != nil && !outcome.Skipped {
		s.triggerRanking(ctx, report.CompetitionID, rankedNumbers(outcome))
	}
	return &dto.ReportReviewResponse{Report: report, Scoring: outcome}, nil
}

// CentralReject rejects a sent or district-reviewed report. At least one reason is required and
// every reason must name a field of the metric or "events".
func (s *ReportService) CentralReject(ctx context.Context, id string, reasons map[string]string, actor *models.JWTClaims) (*models.Report, error) {
	if err := requireRole(actor, models.RoleCentralAdmin); err != nil {
		return nil, err
	}
	if len(reasons) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reasons: at least one rejection reason is required")
	}
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	encoded, err := rejectionReasons(report.MetricKey, reasons)
	if err != nil {
		return nil, err
	}
	from := report.Status
	switch from {
	case models.ReportStatusSent, models.ReportStatusDistrictReviewed:
	case models.ReportStatusCentralApproved:
		return nil, appErrors.Clone(appErrors.ErrConflict, "report already approved")
	default:
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "only submitted reports can be rejected")
	}

	report.Status = models.ReportStatusRejected
	report.VerifiedByCentral = boolRef(false)
	report.RejectionReasons = encoded
	report.UpdatedAt = s.now()
	if err := s.persist(ctx, report, from, false); err != nil {
		return nil, err
	}
	s.recordTransition(ctx, report, models.VerificationLevelCentral, models.VerificationActionRejected, actor.UserID, encoded)
	return report, nil
}

// Get returns a report with its events.
func (s *ReportService) Get(ctx context.Context, id string) (*models.Report, error) {
	return s.load(ctx, id)
}

// History returns the verification snapshots of a report, oldest first.
func (s *ReportService) History(ctx context.Context, id string) ([]models.VerificationLog, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	logs, err := s.logs.ListByReport(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load verification history")
	}
	if logs == nil {
		logs = []models.VerificationLog{}
	}
	return logs, nil
}

func (s *ReportService) load(ctx context.Context, id string) (*models.Report, error) {
	report, err := s.reports.FindByID(ctx, nil, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, serviceError(err, "failed to load report")
	}
	return report, nil
}

// persist writes the report only while it is still in status from. A report moved on by a
// concurrent request yields a conflict and nothing is written.
func (s *ReportService) persist(ctx context.Context, report *models.Report, from models.ReportStatus, withEvents bool) error {
	err := database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.reports.Update(ctx, tx, report, from); err != nil {
			return err
		}
		if withEvents {
			return s.reports.ReplaceEvents(ctx, tx, report.ID, report.Events)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errConcurrentReview
		}
		return serviceError(err, "failed to update report")
	}
	return nil
}

func (s *ReportService) requireReportCommander(ctx context.Context, report *models.Report, userID string) error {
	participant, err := s.participants.FindParticipant(ctx, report.ParticipantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return serviceError(err, "failed to load participant")
	}
	return s.requireCommander(ctx, participant, userID)
}

// requireCommander accepts the commander of the junior detachment or, for a tandem, of the
// senior detachment.
func (s *ReportService) requireCommander(ctx context.Context, participant *models.Participant, userID string) error {
	detachments := []string{participant.JuniorDetachmentID}
	if participant.IsTandem() {
		detachments = append(detachments, *participant.DetachmentID)
	}
	for _, id := range detachments {
		unit, err := s.units.FindByID(ctx, nil, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return serviceError(err, "failed to load detachment")
		}
		if unit.CommanderID == userID {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "only the detachment commander can manage this report")
}

// recordTransition appends a verification snapshot. The transition is already committed, so a
// failed append is only logged.
func (s *ReportService) recordTransition(ctx context.Context, report *models.Report, level models.VerificationLevel, action models.VerificationAction, actorID string, reasons types.JSONText) {
	if s.logs == nil {
		return
	}
	snapshot, err := json.Marshal(report)
	if err != nil {
		s.logger.Warn("failed to snapshot report", zap.String("report_id", report.ID), zap.Error(err))
		return
	}
	entry := &models.VerificationLog{
		ID:        uuid.NewString(),
		ReportID:  report.ID,
		Level:     level,
		Action:    action,
		ActorID:   actorID,
		Snapshot:  types.JSONText(snapshot),
		Reasons:   reasons,
		CreatedAt: s.now(),
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to persist verification log",
			zap.String("report_id", report.ID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}

// rankedNumbers returns the metric numbers whose places change with the outcome: the scored
// report's own and those of the rescored ratio reports.
func rankedNumbers(outcome *dto.ScoreOutcome) []int {
	var numbers []int
	seen := map[int]bool{}
	add := func(key string) {
		metric, err := scoring.Lookup(key)
		if err != nil || seen[metric.Number] {
			return
		}
		seen[metric.Number] = true
		numbers = append(numbers, metric.Number)
	}
	add(outcome.MetricKey)
	for _, rescored := range outcome.Rescored {
		add(rescored.MetricKey)
	}
	return numbers
}

func (s *ReportService) triggerRanking(ctx context.Context, competitionID string, numbers []int) {
	for _, number := range numbers {
		s.triggerMetricRanking(ctx, competitionID, number)
	}
}

func (s *ReportService) triggerMetricRanking(ctx context.Context, competitionID string, number int) {
	if s.asyncRanking && s.queue != nil {
		job := jobs.Job{
			ID:      uuid.NewString(),
			Type:    RankingRecomputeJob,
			Payload: RankingRecomputePayload{CompetitionID: competitionID, Metric: number},
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("failed to enqueue ranking recompute",
				zap.String("competition_id", competitionID),
				zap.Int("metric", number),
				zap.Error(err),
			)
		}
		return
	}
	if s.rankings == nil {
		return
	}
	if _, err := s.rankings.RecomputeMetric(ctx, competitionID, number); err != nil {
		s.logger.Warn("ranking recompute after approval failed",
			zap.String("competition_id", competitionID),
			zap.Int("metric", number),
			zap.Error(err),
		)
	}
}

// verifyEvents marks the events verified, leaving the positions in excluded unverified.
func verifyEvents(events []models.ReportEvent, excluded []int) error {
	skip := make(map[int]bool, len(excluded))
	for _, idx := range excluded {
		if idx < 0 || idx >= len(events) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("excluded_events: no event at position %d", idx))
		}
		skip[idx] = true
	}
	for i := range events {
		events[i].IsVerified = !skip[i]
	}
	return nil
}

func rejectionReasons(metricKey string, reasons map[string]string) (types.JSONText, error) {
	if len(reasons) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reasons: at least one rejection reason is required")
	}
	metric, err := scoring.Lookup(metricKey)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(reasons))
	for key := range reasons {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !metric.AllowsReasonKey(key) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("reasons.%s: not a field of metric %s", key, metric.Key))
		}
		if strings.TrimSpace(reasons[key]) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("reasons.%s: reason text is required", key))
		}
	}
	raw, err := json.Marshal(reasons)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode rejection reasons")
	}
	return types.JSONText(raw), nil
}

func requireRole(actor *models.JWTClaims, roles ...models.UserRole) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	for _, role := range roles {
		if actor.Role == role {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "insufficient role for this review step")
}

func normalizeFields(fields types.JSONText) types.JSONText {
	if len(fields) == 0 {
		return types.JSONText("{}")
	}
	return fields
}

func boolRef(v bool) *bool { return &v }
