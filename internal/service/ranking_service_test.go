package service

import (
	"context"
	"encoding/json"
	"path"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/rso-api/internal/models"
	appErrors "github.com/noah-isme/rso-api/pkg/errors"
)

type memoryRankings struct {
	pools        map[bool][]models.RankingEntry
	listCalls    int
	replaceCalls int
	lockCalls    int
	onList       func()
}

func newMemoryRankings() *memoryRankings {
	return &memoryRankings{pools: map[bool][]models.RankingEntry{}}
}

func copyEntries(entries []models.RankingEntry) []models.RankingEntry {
	out := make([]models.RankingEntry, len(entries))
	for i, e := range entries {
		places := models.Places{}
		for k, v := range e.Places {
			places[k] = v
		}
		e.Places = places
		out[i] = e
	}
	return out
}

func (m *memoryRankings) LockPools(context.Context, sqlx.ExtContext, string) error {
	m.lockCalls++
	return nil
}

func (m *memoryRankings) ListPool(_ context.Context, _ sqlx.ExtContext, _ string, tandem bool) ([]models.RankingEntry, error) {
	m.listCalls++
	snapshot := copyEntries(m.pools[tandem])
	if hook := m.onList; hook != nil {
		m.onList = nil
		hook()
	}
	return snapshot, nil
}

func (m *memoryRankings) ReplacePool(_ context.Context, _ sqlx.ExtContext, competitionID string, tandem bool, entries []models.RankingEntry) error {
	m.replaceCalls++
	stored := copyEntries(entries)
	for i := range stored {
		stored[i].CompetitionID = competitionID
		stored[i].Tandem = tandem
	}
	m.pools[tandem] = stored
	return nil
}

func (m *memoryRankings) entry(tandem bool, participantID string) models.RankingEntry {
	for _, e := range m.pools[tandem] {
		if e.ParticipantID == participantID {
			return e
		}
	}
	return models.RankingEntry{}
}

type memoryCache struct {
	values map[string][]byte
	locks  map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string][]byte{}, locks: map[string]string{}}
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	for key := range m.values {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.values, key)
		}
	}
	return nil
}

func (m *memoryCache) AcquireLock(_ context.Context, key, token string, _ time.Duration) (bool, error) {
	if _, held := m.locks[key]; held {
		return false, nil
	}
	m.locks[key] = token
	return true, nil
}

func (m *memoryCache) ReleaseLock(_ context.Context, key, token string) error {
	if m.locks[key] == token {
		delete(m.locks, key)
	}
	return nil
}

type rankingFixture struct {
	svc          *RankingService
	rankings     *memoryRankings
	reports      *memoryReports
	competitions *memoryCompetitions
	cache        *memoryCache
}

func newRankingFixture(t *testing.T, reports *memoryReports, logger *zap.Logger, opts ...RankingServiceOption) (*rankingFixture, func()) {
	t.Helper()
	tx, mock := newSQLTxMock(t)
	competitions := seasonCompetitions(nil)
	competitions.participants = append(competitions.participants,
		models.Participant{ID: "p-4", CompetitionID: "comp-1", JuniorDetachmentID: "det-4"},
		models.Participant{ID: "p-5", CompetitionID: "comp-1", JuniorDetachmentID: "det-5", DetachmentID: ptr("det-8")},
	)
	cacheRepo := newMemoryCache()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	rankings := newMemoryRankings()
	svc := NewRankingService(rankings, reports, competitions, cache, tx, logger, opts...)
	expectTx := func() { expectCommittedTx(mock) }
	t.Cleanup(func() { require.NoError(t, mock.ExpectationsWereMet()) })
	return &rankingFixture{svc: svc, rankings: rankings, reports: reports, competitions: competitions, cache: cacheRepo}, expectTx
}

func scoredReport(t *testing.T, id, participantID, metricKey string, score float64) models.Report {
	r := approvedReport(t, id, participantID, metricKey, nil)
	r.Score = score
	return r
}

func TestRankingServiceRecomputeMetricSeparatesPools(t *testing.T) {
	pending := scoredReport(t, "r-6", "p-4", "7", 99)
	pending.VerifiedByCentral = nil
	pending.Status = models.ReportStatusSent

	reports := newMemoryReports(
		scoredReport(t, "r-1", "p-1", "7", 10),
		scoredReport(t, "r-2", "p-2", "7", 10),
		scoredReport(t, "r-3", "p-4", "7", 5),
		scoredReport(t, "r-4", "p-3", "7", 3),
		scoredReport(t, "r-5", "p-5", "7", 30),
		pending,
	)
	fx, expectTx := newRankingFixture(t, reports, nil)
	expectTx()

	result, err := fx.svc.RecomputeMetric(context.Background(), "comp-1", 7)
	require.NoError(t, err)
	assert.Equal(t, 3, result.SoloEntrants)
	assert.Equal(t, 2, result.TandemEntrants)

	assert.Equal(t, 1, fx.rankings.entry(false, "p-1").Places["7"])
	assert.Equal(t, 1, fx.rankings.entry(false, "p-2").Places["7"])
	assert.Equal(t, 2, fx.rankings.entry(false, "p-4").Places["7"])
	assert.Equal(t, 1, fx.rankings.entry(true, "p-5").Places["7"])
	assert.Equal(t, 2, fx.rankings.entry(true, "p-3").Places["7"])
	assert.Empty(t, fx.cache.locks, "lock released after the run")
}

func TestRankingServiceRecomputeMetricSumsVariants(t *testing.T) {
	reports := newMemoryReports(
		scoredReport(t, "r-1", "p-1", "9.1", 3),
		scoredReport(t, "r-2", "p-1", "9.2", 2),
		scoredReport(t, "r-3", "p-2", "9.3", 4),
		scoredReport(t, "r-4", "p-4", "9.1", 1),
	)
	fx, expectTx := newRankingFixture(t, reports, nil)
	expectTx()

	_, err := fx.svc.RecomputeMetric(context.Background(), "comp-1", 9)
	require.NoError(t, err)
	assert.Equal(t, 1, fx.rankings.entry(false, "p-1").Places["9"])
	assert.Equal(t, 2, fx.rankings.entry(false, "p-2").Places["9"])
	assert.Equal(t, 3, fx.rankings.entry(false, "p-4").Places["9"])
}

func TestRankingServiceRecomputeMetricAggregatesOverall(t *testing.T) {
	reports := newMemoryReports(
		scoredReport(t, "r-1", "p-1", "20", 4),
		scoredReport(t, "r-2", "p-2", "20", 1),
	)
	fx, expectTx := newRankingFixture(t, reports, nil)
	fx.rankings.pools[false] = []models.RankingEntry{
		{ParticipantID: "p-1", Places: models.Places{"1": 1, "2": 3, "4": 2, "20": 1}},
		{ParticipantID: "p-2", Places: models.Places{"1": 2, "2": 1, "4": 1}},
		{ParticipantID: "p-4", Places: models.Places{"1": 3, "20": 2}},
	}
	expectTx()

	_, err := fx.svc.RecomputeMetric(context.Background(), "comp-1", 20)
	require.NoError(t, err)

	p1 := fx.rankings.entry(false, "p-1")
	p2 := fx.rankings.entry(false, "p-2")
	p4 := fx.rankings.entry(false, "p-4")
	assert.Equal(t, 2, p1.Places["20"], "fewer violations rank first")
	assert.Equal(t, 1, p2.Places["20"])
	_, ranked := p4.Places["20"]
	assert.False(t, ranked, "entrant without an approved report loses its place")

	assert.Equal(t, 8, p1.SumOfPlaces)
	assert.Equal(t, 5, p2.SumOfPlaces)
	assert.Equal(t, 3, p4.SumOfPlaces)
	assert.Equal(t, 3, p1.OverallPlace)
	assert.Equal(t, 2, p2.OverallPlace)
	assert.Equal(t, 1, p4.OverallPlace)
	assert.Equal(t, 6, p1.CoreSumOfPlaces)
}

func TestRankingServiceRecomputeCompositeMetric(t *testing.T) {
	a := approvedReport(t, "r-1", "p-1", "12", map[string]interface{}{"members": 10, "trained": 5, "awarded": 1})
	a.Events = []models.ReportEvent{{Participants: 50, IsVerified: true}}
	b := approvedReport(t, "r-2", "p-2", "12", map[string]interface{}{"members": 10, "trained": 9, "awarded": 4})
	b.Events = []models.ReportEvent{{Participants: 20, IsVerified: true}}

	fx, expectTx := newRankingFixture(t, newMemoryReports(a, b), nil)
	expectTx()

	_, err := fx.svc.RecomputeMetric(context.Background(), "comp-1", 12)
	require.NoError(t, err)
	assert.Equal(t, 2, fx.rankings.entry(false, "p-1").Places["12"])
	assert.Equal(t, 1, fx.rankings.entry(false, "p-2").Places["12"])
}

func TestRankingServiceRecomputeMetricLockHeld(t *testing.T) {
	metrics := NewMetricsService()
	fx, _ := newRankingFixture(t, newMemoryReports(scoredReport(t, "r-1", "p-1", "7", 1)), nil, WithRankingMetrics(metrics))
	fx.cache.locks[rankingLockKey("comp-1")] = "other-run"

	_, err := fx.svc.RecomputeMetric(context.Background(), "comp-1", 7)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Zero(t, fx.rankings.replaceCalls)
	assert.Equal(t, "other-run", fx.cache.locks[rankingLockKey("comp-1")])
}

func TestRankingServiceRecomputeOtherMetricWaitsForRunningPoolRewrite(t *testing.T) {
	reports := newMemoryReports(
		scoredReport(t, "r-1", "p-1", "7", 10),
		scoredReport(t, "r-2", "p-2", "7", 5),
		scoredReport(t, "r-3", "p-1", "20", 4),
		scoredReport(t, "r-4", "p-2", "20", 1),
	)
	fx, expectTx := newRankingFixture(t, reports, nil)

	var concurrentErr error
	fx.rankings.onList = func() {
		_, concurrentErr = fx.svc.RecomputeMetric(context.Background(), "comp-1", 20)
	}
	expectTx()
	_, err := fx.svc.RecomputeMetric(context.Background(), "comp-1", 7)
	require.NoError(t, err)
	require.Error(t, concurrentErr, "a second metric may not rewrite the pool mid-run")
	assert.True(t, appErrors.Is(concurrentErr, appErrors.ErrConflict))
	assert.Equal(t, 2, fx.rankings.replaceCalls)

	expectTx()
	_, err = fx.svc.RecomputeMetric(context.Background(), "comp-1", 20)
	require.NoError(t, err)

	p1 := fx.rankings.entry(false, "p-1")
	assert.Equal(t, models.Places{"7": 1, "20": 2}, p1.Places)
	assert.Equal(t, models.Places{"7": 2, "20": 1}, fx.rankings.entry(false, "p-2").Places)
	assert.Equal(t, 2, fx.rankings.lockCalls, "each pool rewrite holds the competition row lock")
	assert.Empty(t, fx.cache.locks)
}

func TestRankingServiceRecomputeMetricAfterCutoff(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	fx, _ := newRankingFixture(t, newMemoryReports(scoredReport(t, "r-1", "p-1", "1", 40)), zap.New(core),
		WithRankingCutoff(CutoffPolicy{Default: datePtr(2026, time.March, 31), Now: fixedClock(2026, time.April, 15)}))

	result, err := fx.svc.RecomputeMetric(context.Background(), "comp-1", 1)
	require.NoError(t, err)
	assert.True(t, result.CutoffExceeded)
	assert.Zero(t, fx.rankings.replaceCalls)
	assert.Zero(t, fx.rankings.listCalls)
	assert.Equal(t, 1, logs.FilterMessage("competition cutoff passed; ranking recompute refused").Len())
}

func TestRankingServiceRecomputeMetricUnknownNumber(t *testing.T) {
	fx, _ := newRankingFixture(t, newMemoryReports(), nil)

	_, err := fx.svc.RecomputeMetric(context.Background(), "comp-1", 42)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnknownMetric))
}

func TestRankingServiceRecomputeAllContinuesAfterFailure(t *testing.T) {
	fx, expectTx := newRankingFixture(t, newMemoryReports(scoredReport(t, "r-1", "p-1", "7", 1)), nil)
	expectTx()

	results, err := fx.svc.RecomputeAll(context.Background(), "comp-1", []int{99, 7})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.NotEmpty(t, results[0].Error)
	assert.Empty(t, results[1].Error)
	assert.Equal(t, 1, fx.rankings.entry(false, "p-1").Places["7"])
}

func TestRankingServiceListUsesCache(t *testing.T) {
	fx, expectTx := newRankingFixture(t, newMemoryReports(scoredReport(t, "r-1", "p-1", "7", 1)), nil)
	fx.rankings.pools[false] = []models.RankingEntry{{ParticipantID: "p-1", Places: models.Places{"7": 1}, OverallPlace: 1}}

	first, err := fx.svc.List(context.Background(), "comp-1", false)
	require.NoError(t, err)
	require.Len(t, first.Entries, 1)
	second, err := fx.svc.List(context.Background(), "comp-1", false)
	require.NoError(t, err)
	assert.Equal(t, first.Entries[0].ParticipantID, second.Entries[0].ParticipantID)
	assert.Equal(t, 1, fx.rankings.listCalls)

	expectTx()
	_, err = fx.svc.RecomputeMetric(context.Background(), "comp-1", 7)
	require.NoError(t, err)
	_, cached := fx.cache.values[rankingListKey("comp-1", false)]
	assert.False(t, cached, "recompute invalidates the ranking cache")
}
