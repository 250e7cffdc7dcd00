package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/rso-api/internal/models"
	"github.com/noah-isme/rso-api/internal/scoring"
	appErrors "github.com/noah-isme/rso-api/pkg/errors"
)

type memoryReports struct {
	reports    map[string]*models.Report
	order      []string
	scores     map[string]float64
	failScore  map[string]bool
	scoreCalls int
	seq        int
	onFind     func(id string)
}

func newMemoryReports(reports ...models.Report) *memoryReports {
	store := &memoryReports{reports: map[string]*models.Report{}, scores: map[string]float64{}, failScore: map[string]bool{}}
	for i := range reports {
		r := reports[i]
		store.reports[r.ID] = &r
		store.order = append(store.order, r.ID)
	}
	return store
}

func (m *memoryReports) Create(_ context.Context, _ sqlx.ExtContext, report *models.Report) error {
	m.seq++
	if report.ID == "" {
		report.ID = fmt.Sprintf("rep-%d", m.seq)
	}
	cp := *report
	m.reports[report.ID] = &cp
	m.order = append(m.order, report.ID)
	return nil
}

func (m *memoryReports) Update(_ context.Context, _ sqlx.ExtContext, report *models.Report, from models.ReportStatus) error {
	stored, ok := m.reports[report.ID]
	if !ok || stored.Status != from {
		return sql.ErrNoRows
	}
	cp := *report
	m.reports[report.ID] = &cp
	return nil
}

func (m *memoryReports) ReplaceEvents(_ context.Context, _ sqlx.ExtContext, reportID string, events []models.ReportEvent) error {
	r, ok := m.reports[reportID]
	if !ok {
		return sql.ErrNoRows
	}
	r.Events = append([]models.ReportEvent(nil), events...)
	return nil
}

func (m *memoryReports) FindByID(_ context.Context, _ sqlx.ExtContext, id string) (*models.Report, error) {
	r, ok := m.reports[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *r
	if hook := m.onFind; hook != nil {
		m.onFind = nil
		hook(id)
	}
	return &cp, nil
}

func (m *memoryReports) UpdateScore(_ context.Context, _ sqlx.ExtContext, id string, score float64) error {
	m.scoreCalls++
	if m.failScore[id] {
		return fmt.Errorf("update report score: connection reset")
	}
	r, ok := m.reports[id]
	if !ok {
		return sql.ErrNoRows
	}
	r.Score = score
	m.scores[id] = score
	return nil
}

func (m *memoryReports) List(_ context.Context, filter models.ReportFilter) ([]models.Report, error) {
	keys := map[string]bool{}
	for _, k := range filter.MetricKeys {
		keys[k] = true
	}
	var out []models.Report
	for _, id := range m.order {
		r := m.reports[id]
		if filter.CompetitionID != "" && r.CompetitionID != filter.CompetitionID {
			continue
		}
		if len(keys) > 0 && !keys[r.MetricKey] {
			continue
		}
		if filter.ParticipantID != "" && r.ParticipantID != filter.ParticipantID {
			continue
		}
		if filter.OnlyApproved && !r.CentrallyApproved() {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (m *memoryReports) FindApprovedScore(_ context.Context, _ sqlx.ExtContext, competitionID, participantID, metricKey string) (*float64, error) {
	var latest *models.Report
	for _, id := range m.order {
		r := m.reports[id]
		if r.CompetitionID != competitionID || r.ParticipantID != participantID || r.MetricKey != metricKey || !r.CentrallyApproved() {
			continue
		}
		if latest == nil || r.ApprovedAfter(latest) {
			latest = r
		}
	}
	if latest == nil {
		return nil, nil
	}
	score := latest.Score
	return &score, nil
}

type memoryCompetitions struct {
	competitions map[string]*models.Competition
	participants []models.Participant
}

func (m *memoryCompetitions) FindByID(_ context.Context, id string) (*models.Competition, error) {
	c, ok := m.competitions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

func (m *memoryCompetitions) List(context.Context) ([]models.Competition, error) {
	var out []models.Competition
	for _, c := range m.competitions {
		out = append(out, *c)
	}
	return out, nil
}

func (m *memoryCompetitions) ListParticipants(_ context.Context, competitionID string) ([]models.Participant, error) {
	var out []models.Participant
	for _, p := range m.participants {
		if p.CompetitionID == competitionID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryCompetitions) FindParticipant(_ context.Context, id string) (*models.Participant, error) {
	for i := range m.participants {
		if m.participants[i].ID == id {
			p := m.participants[i]
			return &p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func boolPtr(v bool) *bool { return &v }

func datePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func fieldsJSON(t *testing.T, fields map[string]interface{}) types.JSONText {
	t.Helper()
	raw, err := json.Marshal(fields)
	require.NoError(t, err)
	return types.JSONText(raw)
}

func approvedReport(t *testing.T, id, participantID, metricKey string, fields map[string]interface{}) models.Report {
	return models.Report{
		ID:                 id,
		CompetitionID:      "comp-1",
		ParticipantID:      participantID,
		MetricKey:          metricKey,
		Status:             models.ReportStatusCentralApproved,
		Fields:             fieldsJSON(t, fields),
		VerifiedByDistrict: boolPtr(true),
		VerifiedByCentral:  boolPtr(true),
	}
}

func seasonCompetitions(cutoff *time.Time) *memoryCompetitions {
	return &memoryCompetitions{
		competitions: map[string]*models.Competition{
			"comp-1": {ID: "comp-1", Name: "Season 2026", CutoffDate: cutoff},
		},
		participants: []models.Participant{
			{ID: "p-1", CompetitionID: "comp-1", JuniorDetachmentID: "det-1"},
			{ID: "p-2", CompetitionID: "comp-1", JuniorDetachmentID: "det-2"},
			{ID: "p-3", CompetitionID: "comp-1", JuniorDetachmentID: "det-3", DetachmentID: ptr("det-9")},
		},
	}
}

func fixedClock(year int, month time.Month, day int) func() time.Time {
	return func() time.Time { return time.Date(year, month, day, 12, 0, 0, 0, time.UTC) }
}

func TestCutoffPolicyExceeded(t *testing.T) {
	headcount, err := scoring.Lookup("1")
	require.NoError(t, err)
	dues, err := scoring.Lookup("6")
	require.NoError(t, err)

	policy := CutoffPolicy{Default: datePtr(2026, time.May, 1), Now: fixedClock(2026, time.May, 1)}
	assert.False(t, policy.Exceeded(headcount, &models.Competition{}), "cutoff day itself is still open")

	policy.Now = fixedClock(2026, time.May, 2)
	assert.True(t, policy.Exceeded(headcount, &models.Competition{}))
	assert.False(t, policy.Exceeded(dues, &models.Competition{}), "metric without cutoff is never frozen")

	own := &models.Competition{CutoffDate: datePtr(2026, time.June, 1)}
	assert.False(t, policy.Exceeded(headcount, own), "competition date overrides the default")

	assert.False(t, CutoffPolicy{Now: fixedClock(2030, time.January, 1)}.Exceeded(headcount, &models.Competition{}))
}

func TestScoringServiceScoreReportRatio(t *testing.T) {
	reports := newMemoryReports(
		approvedReport(t, "r-head", "p-1", "1", map[string]interface{}{"members": 40}),
		approvedReport(t, "r-trained", "p-1", "2", map[string]interface{}{"trained_commanders": 10}),
	)
	reports.reports["r-head"].Score = 40
	svc := NewScoringService(reports, seasonCompetitions(nil), zap.NewNop())

	report, err := reports.FindByID(context.Background(), nil, "r-trained")
	require.NoError(t, err)
	outcome, err := svc.ScoreReport(context.Background(), nil, report)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, outcome.Score, 1e-9)
	assert.Empty(t, outcome.Warning)
	assert.InDelta(t, 0.25, reports.scores["r-trained"], 1e-9)
}

func TestScoringServiceScoreReportRescoresDependentRatios(t *testing.T) {
	head := approvedReport(t, "r-head", "p-1", "1", map[string]interface{}{"members": 40})
	head.Score = 20
	trained := approvedReport(t, "r-trained", "p-1", "2", map[string]interface{}{"trained_commanders": 10})
	trained.Score = 0.5
	publications := approvedReport(t, "r-pub", "p-1", "13", map[string]interface{}{"publications": 8})
	publications.Score = 0.4
	other := approvedReport(t, "r-other", "p-2", "2", map[string]interface{}{"trained_commanders": 1})
	other.Score = 0.1
	reports := newMemoryReports(head, trained, publications, other)
	svc := NewScoringService(reports, seasonCompetitions(nil), nil)

	outcome, err := svc.ScoreReport(context.Background(), nil, &head)
	require.NoError(t, err)
	assert.Equal(t, 40.0, outcome.Score)
	require.Len(t, outcome.Rescored, 2)
	assert.Equal(t, "2", outcome.Rescored[0].MetricKey)
	assert.Equal(t, "13", outcome.Rescored[1].MetricKey)
	assert.InDelta(t, 0.25, reports.scores["r-trained"], 1e-9)
	assert.InDelta(t, 0.2, reports.scores["r-pub"], 1e-9)
	_, touched := reports.scores["r-other"]
	assert.False(t, touched, "ratio reports of other entrants keep their score")
}

func TestScoringServiceReferenceFollowsLatestApproval(t *testing.T) {
	earlier := time.Date(2026, time.May, 1, 9, 0, 0, 0, time.UTC)
	later := earlier.Add(48 * time.Hour)
	recent := approvedReport(t, "r-a", "p-1", "1", map[string]interface{}{"members": 40})
	recent.Score, recent.ApprovedAt = 40, &later
	stale := approvedReport(t, "r-b", "p-1", "1", map[string]interface{}{"members": 10})
	stale.Score, stale.ApprovedAt = 10, &earlier
	trained := approvedReport(t, "r-trained", "p-1", "2", map[string]interface{}{"trained_commanders": 10})
	reports := newMemoryReports(recent, stale, trained)
	svc := NewScoringService(reports, seasonCompetitions(nil), nil)

	outcome, err := svc.ScoreReport(context.Background(), nil, &trained)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, outcome.Score, 1e-9, "the report approved last is the reference, not the one created last")

	places := placesFor(scoring.Variants(1), []models.Report{recent, stale, approvedReportScored(t, "r-c", "p-2", "1", 20)},
		map[string]bool{"p-1": false, "p-2": false})
	assert.Equal(t, 1, places["p-1"], "ranking reads the same report as the ratio reference")
	assert.Equal(t, 2, places["p-2"])
}

func approvedReportScored(t *testing.T, id, participantID, metricKey string, score float64) models.Report {
	r := approvedReport(t, id, participantID, metricKey, nil)
	r.Score = score
	return r
}

func TestScoringServiceScoreReportMissingReferenceWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	reports := newMemoryReports(approvedReport(t, "r-trained", "p-2", "2", map[string]interface{}{"trained_commanders": 10}))
	svc := NewScoringService(reports, seasonCompetitions(nil), zap.New(core))

	report, err := reports.FindByID(context.Background(), nil, "r-trained")
	require.NoError(t, err)
	outcome, err := svc.ScoreReport(context.Background(), nil, report)
	require.NoError(t, err)
	assert.Zero(t, outcome.Score)
	assert.NotEmpty(t, outcome.Warning)
	assert.Equal(t, 1, reports.scoreCalls)
	require.Equal(t, 1, logs.FilterMessage("score defaulted to zero").Len())
}

func TestScoringServiceScoreReportRequiresApproval(t *testing.T) {
	pending := approvedReport(t, "r-1", "p-1", "1", map[string]interface{}{"members": 10})
	pending.Status = models.ReportStatusDistrictReviewed
	pending.VerifiedByCentral = nil
	reports := newMemoryReports(pending)
	svc := NewScoringService(reports, seasonCompetitions(nil), nil)

	_, err := svc.ScoreReport(context.Background(), nil, &pending)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrPreconditionFailed))
	assert.Zero(t, reports.scoreCalls)
}

func TestScoringServiceScoreReportUnknownMetric(t *testing.T) {
	report := approvedReport(t, "r-1", "p-1", "99", nil)
	svc := NewScoringService(newMemoryReports(report), seasonCompetitions(nil), nil)

	_, err := svc.ScoreReport(context.Background(), nil, &report)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnknownMetric))
}

func TestScoringServiceScoreReportAfterCutoffKeepsScore(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	report := approvedReport(t, "r-1", "p-1", "1", map[string]interface{}{"members": 55})
	report.Score = 50
	reports := newMemoryReports(report)
	svc := NewScoringService(reports, seasonCompetitions(datePtr(2026, time.March, 31)), zap.New(core),
		WithScoringCutoff(CutoffPolicy{Now: fixedClock(2026, time.April, 2)}))

	outcome, err := svc.ScoreReport(context.Background(), nil, &report)
	require.NoError(t, err)
	assert.True(t, outcome.Skipped)
	assert.Equal(t, 50.0, outcome.Score)
	assert.Zero(t, reports.scoreCalls)
	assert.Equal(t, 1, logs.FilterMessage("competition cutoff passed; score not computed").Len())
}

func TestScoringServiceRecomputeScoresAfterCutoff(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	reports := newMemoryReports(approvedReport(t, "r-1", "p-1", "1", map[string]interface{}{"members": 55}))
	svc := NewScoringService(reports, seasonCompetitions(nil), zap.New(core),
		WithScoringCutoff(CutoffPolicy{Default: datePtr(2026, time.March, 31), Now: fixedClock(2026, time.September, 1)}),
		WithScoringMetrics(NewMetricsService()))

	result, err := svc.RecomputeScores(context.Background(), "comp-1", "1")
	require.NoError(t, err)
	assert.True(t, result.CutoffExceeded)
	assert.Zero(t, result.Scored)
	assert.Zero(t, reports.scoreCalls)
	entries := logs.FilterMessage("competition cutoff passed; score recompute refused").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "1", entries[0].ContextMap()["metric"])
}

func TestScoringServiceRecomputeScoresIsolatesFailures(t *testing.T) {
	pending := approvedReport(t, "r-3", "p-3", "7", nil)
	pending.Status = models.ReportStatusSent
	pending.VerifiedByCentral = nil

	ok := approvedReport(t, "r-1", "p-1", "7", nil)
	ok.Events = []models.ReportEvent{{Participants: 12, IsVerified: true}, {Participants: 8, IsVerified: false}}
	broken := approvedReport(t, "r-2", "p-2", "7", nil)

	reports := newMemoryReports(ok, broken, pending)
	reports.failScore["r-2"] = true
	svc := NewScoringService(reports, seasonCompetitions(nil), nil)

	result, err := svc.RecomputeScores(context.Background(), "comp-1", "7")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scored)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 12.0, reports.scores["r-1"])
}

func TestScoringServiceRecomputeScoresUnknownCompetition(t *testing.T) {
	svc := NewScoringService(newMemoryReports(), seasonCompetitions(nil), nil)

	_, err := svc.RecomputeScores(context.Background(), "missing", "1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestScoringServiceRecomputeCompetition(t *testing.T) {
	reports := newMemoryReports(
		approvedReport(t, "r-1", "p-1", "1", map[string]interface{}{"members": 20}),
		approvedReport(t, "r-2", "p-1", "18", map[string]interface{}{"briefings": 4}),
	)
	svc := NewScoringService(reports, seasonCompetitions(nil), nil)

	results, err := svc.RecomputeCompetition(context.Background(), "comp-1")
	require.NoError(t, err)
	assert.NotEmpty(t, results)
	assert.Equal(t, 20.0, reports.scores["r-1"])
	assert.Equal(t, 4.0, reports.scores["r-2"])
}
