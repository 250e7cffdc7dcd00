package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rso-api/internal/dto"
)

type rankingServiceMock struct {
	listResp    *dto.RankingListResponse
	lastTandem  bool
	lastNumbers []int
	recomputed  bool
}

func (m *rankingServiceMock) List(ctx context.Context, competitionID string, tandem bool) (*dto.RankingListResponse, error) {
	m.lastTandem = tandem
	return m.listResp, nil
}

func (m *rankingServiceMock) RecomputeAll(ctx context.Context, competitionID string, numbers []int) ([]dto.RankingRunResult, error) {
	m.recomputed = true
	m.lastNumbers = numbers
	return []dto.RankingRunResult{{CompetitionID: competitionID}}, nil
}

type scoreSweeperMock struct {
	lastMetric string
	wholeRun   bool
}

func (m *scoreSweeperMock) RecomputeScores(ctx context.Context, competitionID, metricKey string) (*dto.ScoreSweepResult, error) {
	m.lastMetric = metricKey
	return &dto.ScoreSweepResult{CompetitionID: competitionID, MetricKey: metricKey}, nil
}

func (m *scoreSweeperMock) RecomputeCompetition(ctx context.Context, competitionID string) ([]dto.ScoreSweepResult, error) {
	m.wholeRun = true
	return []dto.ScoreSweepResult{}, nil
}

func TestRankingHandlerListTandemPool(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rankings := &rankingServiceMock{listResp: &dto.RankingListResponse{CompetitionID: "comp-1", Tandem: true}}
	handler := NewRankingHandler(rankings, &scoreSweeperMock{}, nil)

	c, w := newGinContext(http.MethodGet, "/competitions/comp-1/rankings?tandem=true", nil)
	c.Params = gin.Params{{Key: "id", Value: "comp-1"}}

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, rankings.lastTandem)
}

func TestRankingHandlerListRejectsBadFlag(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRankingHandler(&rankingServiceMock{}, &scoreSweeperMock{}, nil)

	c, w := newGinContext(http.MethodGet, "/competitions/comp-1/rankings?tandem=maybe", nil)
	c.Params = gin.Params{{Key: "id", Value: "comp-1"}}

	handler.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRankingHandlerRecompute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rankings := &rankingServiceMock{}
	handler := NewRankingHandler(rankings, &scoreSweeperMock{}, nil)

	c, w := newGinContext(http.MethodPost, "/competitions/comp-1/rankings/recompute", []byte(`{"metrics":[3,12]}`))
	c.Params = gin.Params{{Key: "id", Value: "comp-1"}}

	handler.Recompute(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int{3, 12}, rankings.lastNumbers)
}

func TestRankingHandlerRecomputeRejectsOutOfRangeMetric(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rankings := &rankingServiceMock{}
	handler := NewRankingHandler(rankings, &scoreSweeperMock{}, nil)

	c, w := newGinContext(http.MethodPost, "/competitions/comp-1/rankings/recompute", []byte(`{"metrics":[21]}`))
	c.Params = gin.Params{{Key: "id", Value: "comp-1"}}

	handler.Recompute(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, rankings.recomputed)
}

func TestRankingHandlerRecomputeScores(t *testing.T) {
	gin.SetMode(gin.TestMode)
	scores := &scoreSweeperMock{}
	handler := NewRankingHandler(&rankingServiceMock{}, scores, nil)

	c, w := newGinContext(http.MethodPost, "/competitions/comp-1/scores/recompute?metric=7", nil)
	c.Params = gin.Params{{Key: "id", Value: "comp-1"}}
	handler.RecomputeScores(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7", scores.lastMetric)

	c, w = newGinContext(http.MethodPost, "/competitions/comp-1/scores/recompute", nil)
	c.Params = gin.Params{{Key: "id", Value: "comp-1"}}
	handler.RecomputeScores(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, scores.wholeRun)
}
