package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/rso-api/internal/dto"
	"github.com/noah-isme/rso-api/internal/models"
	"github.com/noah-isme/rso-api/internal/ranking"
	"github.com/noah-isme/rso-api/internal/scoring"
	"github.com/noah-isme/rso-api/pkg/database"
	appErrors "github.com/noah-isme/rso-api/pkg/errors"
	"github.com/noah-isme/rso-api/pkg/jobs"
)

const (
	defaultRankingLockTTL  = 5 * time.Minute
	defaultRankingCacheTTL = 10 * time.Minute
	rankingLockPoll        = 200 * time.Millisecond
)

// RankingRecomputeJob is the queue job type that recomputes one metric's places.
const RankingRecomputeJob = "ranking.recompute"

// RankingRecomputePayload identifies the metric a queued recompute targets.
type RankingRecomputePayload struct {
	CompetitionID string
	Metric        int
}

type rankingStore interface {
	LockPools(ctx context.Context, exec sqlx.ExtContext, competitionID string) error
	ListPool(ctx context.Context, exec sqlx.ExtContext, competitionID string, tandem bool) ([]models.RankingEntry, error)
	ReplacePool(ctx context.Context, exec sqlx.ExtContext, competitionID string, tandem bool, entries []models.RankingEntry) error
}

type approvedReportLister interface {
	List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error)
}

// RankingService turns approved report scores into per-metric places and overall places.
type RankingService struct {
	rankings     rankingStore
	reports      approvedReportLister
	competitions competitionStore
	cache        *CacheService
	tx           database.TxBeginner
	cutoff       CutoffPolicy
	metrics      *MetricsService
	logger       *zap.Logger
	lockTTL      time.Duration
	lockWait     time.Duration
	cacheTTL     time.Duration
}

// RankingServiceOption configures the ranking service.
type RankingServiceOption func(*RankingService)

// WithRankingCutoff overrides the cutoff policy.
func WithRankingCutoff(policy CutoffPolicy) RankingServiceOption {
	return func(s *RankingService) {
		s.cutoff = policy
	}
}

// WithRankingMetrics attaches Prometheus instrumentation.
func WithRankingMetrics(metrics *MetricsService) RankingServiceOption {
	return func(s *RankingService) {
		s.metrics = metrics
	}
}

// WithRankingTTLs sets the recompute lock and list cache lifetimes.
func WithRankingTTLs(lockTTL, cacheTTL time.Duration) RankingServiceOption {
	return func(s *RankingService) {
		if lockTTL > 0 {
			s.lockTTL = lockTTL
		}
		if cacheTTL > 0 {
			s.cacheTTL = cacheTTL
		}
	}
}

// WithRankingLockWait makes a recompute wait up to wait for a run holding the competition lock
// instead of failing straight away.
func WithRankingLockWait(wait time.Duration) RankingServiceOption {
	return func(s *RankingService) {
		if wait > 0 {
			s.lockWait = wait
		}
	}
}

// NewRankingService constructs the ranking service.
func NewRankingService(rankings rankingStore, reports approvedReportLister, competitions competitionStore, cache *CacheService, tx database.TxBeginner, logger *zap.Logger, opts ...RankingServiceOption) *RankingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &RankingService{
		rankings:     rankings,
		reports:      reports,
		competitions: competitions,
		cache:        cache,
		tx:           tx,
		logger:       logger,
		lockTTL:      defaultRankingLockTTL,
		cacheTTL:     defaultRankingCacheTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// rankingLockKey covers the whole competition: every run rewrites both pools, places of the
// other metrics included.
func rankingLockKey(competitionID string) string {
	return fmt.Sprintf("ranking:lock:%s", competitionID)
}

func rankingListKey(competitionID string, tandem bool) string {
	return fmt.Sprintf("ranking:list:%s:%t", competitionID, tandem)
}

// RecomputeMetric rewrites the places of one metric number for both ranking pools and
// re-aggregates the overall places. Runs for the same competition are serialised; a run that
// cannot take the lock within the configured wait is rejected with a conflict.
func (s *RankingService) RecomputeMetric(ctx context.Context, competitionID string, number int) (*dto.RankingRunResult, error) {
	variants := scoring.Variants(number)
	if len(variants) == 0 {
		return nil, appErrors.Clone(appErrors.ErrUnknownMetric, "unknown competition metric: "+strconv.Itoa(number))
	}
	competition, err := s.loadCompetition(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	result := &dto.RankingRunResult{CompetitionID: competition.ID, Metric: number}
	numberKey := variants[0].NumberKey()

	for _, variant := range variants {
		if s.cutoff.Exceeded(variant, competition) {
			s.logger.Warn("competition cutoff passed; ranking recompute refused",
				zap.String("competition_id", competition.ID),
				zap.Int("metric", number),
			)
			s.metrics.RecordCutoffRefusal(numberKey)
			result.CutoffExceeded = true
			return result, nil
		}
	}

	lockKey := rankingLockKey(competition.ID)
	token := uuid.NewString()
	acquired, err := s.acquireLock(ctx, lockKey, token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire ranking lock")
	}
	if !acquired {
		s.metrics.RecordRankingLockDenied()
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("ranking recompute already running for competition %s", competition.ID))
	}
	defer s.cache.Unlock(context.WithoutCancel(ctx), lockKey, token)

	start := time.Now()
	err = s.recompute(ctx, competition.ID, variants, result)
	s.metrics.ObserveRankingRun(numberKey, err == nil, time.Since(start))
	if err != nil {
		return nil, err
	}

	if err := s.cache.Invalidate(ctx, fmt.Sprintf("ranking:list:%s:*", competition.ID)); err != nil {
		s.logger.Warn("ranking cache not invalidated", zap.String("competition_id", competition.ID), zap.Error(err))
	}
	s.logger.Info("ranking recomputed",
		zap.String("competition_id", competition.ID),
		zap.Int("metric", number),
		zap.Int("solo_entrants", result.SoloEntrants),
		zap.Int("tandem_entrants", result.TandemEntrants),
	)
	return result, nil
}

func (s *RankingService) acquireLock(ctx context.Context, key, token string) (bool, error) {
	deadline := time.Now().Add(s.lockWait)
	for {
		acquired, err := s.cache.Lock(ctx, key, token, s.lockTTL)
		if err != nil || acquired || !time.Now().Before(deadline) {
			return acquired, err
		}
		timer := time.NewTimer(rankingLockPoll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false, ctx.Err()
		case <-timer.C:
		}
	}
}

// RecomputeAll recomputes the given metric numbers, or every metric when none are given.
// A failing metric is logged and reported in its result without stopping the others.
func (s *RankingService) RecomputeAll(ctx context.Context, competitionID string, numbers []int) ([]dto.RankingRunResult, error) {
	if _, err := s.loadCompetition(ctx, competitionID); err != nil {
		return nil, err
	}
	if len(numbers) == 0 {
		numbers = scoring.Numbers()
	}
	results := make([]dto.RankingRunResult, 0, len(numbers))
	for _, number := range numbers {
		result, err := s.RecomputeMetric(ctx, competitionID, number)
		if err != nil {
			s.logger.Error("ranking recompute failed",
				zap.String("competition_id", competitionID),
				zap.Int("metric", number),
				zap.Error(err),
			)
			results = append(results, dto.RankingRunResult{CompetitionID: competitionID, Metric: number, Error: err.Error()})
			continue
		}
		results = append(results, *result)
	}
	return results, nil
}

// HandleRecomputeJob runs a queued recompute. Errors are returned so the queue retries.
func (s *RankingService) HandleRecomputeJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(RankingRecomputePayload)
	if !ok {
		return fmt.Errorf("ranking job %s: unexpected payload %T", job.ID, job.Payload)
	}
	if _, err := s.RecomputeMetric(ctx, payload.CompetitionID, payload.Metric); err != nil {
		return fmt.Errorf("recompute metric %d: %w", payload.Metric, err)
	}
	return nil
}

// List returns the ranking table of one pool ordered by overall place.
func (s *RankingService) List(ctx context.Context, competitionID string, tandem bool) (*dto.RankingListResponse, error) {
	key := rankingListKey(competitionID, tandem)
	var cached dto.RankingListResponse
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	competition, err := s.loadCompetition(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	entries, err := s.rankings.ListPool(ctx, nil, competition.ID, tandem)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rankings")
	}
	if entries == nil {
		entries = []models.RankingEntry{}
	}
	resp := &dto.RankingListResponse{CompetitionID: competition.ID, Tandem: tandem, Entries: entries}
	_ = s.cache.Set(ctx, key, resp, s.cacheTTL)
	return resp, nil
}

func (s *RankingService) recompute(ctx context.Context, competitionID string, variants []scoring.Metric, result *dto.RankingRunResult) error {
	participants, err := s.competitions.ListParticipants(ctx, competitionID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participants")
	}
	keys := make([]string, 0, len(variants))
	for _, v := range variants {
		keys = append(keys, v.Key)
	}
	reports, err := s.reports.List(ctx, models.ReportFilter{CompetitionID: competitionID, MetricKeys: keys, OnlyApproved: true})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approved reports")
	}

	tandem := make(map[string]bool, len(participants))
	for _, p := range participants {
		tandem[p.ID] = p.IsTandem()
	}
	places := placesFor(variants, reports, tandem)
	numberKey := variants[0].NumberKey()
	core := scoring.CoreNumbers()

	return database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.rankings.LockPools(ctx, tx, competitionID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock ranking pools")
		}
		for _, pool := range []bool{false, true} {
			entries, err := s.rankings.ListPool(ctx, tx, competitionID, pool)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ranking pool")
			}
			entries = mergePool(entries, participants, pool)
			for i := range entries {
				if entries[i].Places == nil {
					entries[i].Places = models.Places{}
				}
				if place, ok := places[entries[i].ParticipantID]; ok {
					entries[i].Places[numberKey] = place
				} else {
					delete(entries[i].Places, numberKey)
				}
			}
			ranking.Aggregate(entries, core)
			if err := s.rankings.ReplacePool(ctx, tx, competitionID, pool, entries); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store ranking pool")
			}
			if pool {
				result.TandemEntrants = len(entries)
			} else {
				result.SoloEntrants = len(entries)
			}
		}
		return nil
	})
}

// placesFor ranks the entrants holding an approved report, each pool on its own. The most
// recently approved report per entrant and variant counts.
func placesFor(variants []scoring.Metric, reports []models.Report, tandem map[string]bool) map[string]int {
	latest := map[string]map[string]*models.Report{}
	for i := range reports {
		r := &reports[i]
		if _, known := tandem[r.ParticipantID]; !known {
			continue
		}
		if latest[r.MetricKey] == nil {
			latest[r.MetricKey] = map[string]*models.Report{}
		}
		if current, ok := latest[r.MetricKey][r.ParticipantID]; ok && !r.ApprovedAfter(current) {
			continue
		}
		latest[r.MetricKey][r.ParticipantID] = r
	}

	places := map[string]int{}
	for _, pool := range []bool{false, true} {
		var ranked map[string]int
		if variants[0].Kind == scoring.KindComposite {
			coeffs := map[string]scoring.Coefficients{}
			for id, r := range latest[variants[0].Key] {
				if tandem[id] == pool {
					coeffs[id] = scoring.Composite(scoring.NewInput(r, nil))
				}
			}
			ranked = ranking.Composite(coeffs)
		} else {
			sets := make([]map[string]float64, 0, len(variants))
			for _, v := range variants {
				set := map[string]float64{}
				for id, r := range latest[v.Key] {
					if tandem[id] == pool {
						set[id] = r.Score
					}
				}
				sets = append(sets, set)
			}
			ranked = ranking.Dense(ranking.SumScores(sets...), variants[0].HigherIsBetter)
		}
		for id, place := range ranked {
			places[id] = place
		}
	}
	return places
}

// mergePool keeps stored rows of current participants and adds rows for new ones.
func mergePool(stored []models.RankingEntry, participants []models.Participant, tandem bool) []models.RankingEntry {
	byID := make(map[string]models.RankingEntry, len(stored))
	for _, e := range stored {
		byID[e.ParticipantID] = e
	}
	out := make([]models.RankingEntry, 0, len(participants))
	for _, p := range participants {
		if p.IsTandem() != tandem {
			continue
		}
		entry, ok := byID[p.ID]
		if !ok {
			entry = models.RankingEntry{ParticipantID: p.ID, Places: models.Places{}}
		}
		out = append(out, entry)
	}
	return out
}

func (s *RankingService) loadCompetition(ctx context.Context, id string) (*models.Competition, error) {
	competition, err := s.competitions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "competition not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load competition")
	}
	return competition, nil
}
