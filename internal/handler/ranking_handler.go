package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/rso-api/internal/dto"
	appErrors "github.com/noah-isme/rso-api/pkg/errors"
	"github.com/noah-isme/rso-api/pkg/response"
)

type rankingService interface {
	List(ctx context.Context, competitionID string, tandem bool) (*dto.RankingListResponse, error)
	RecomputeAll(ctx context.Context, competitionID string, numbers []int) ([]dto.RankingRunResult, error)
}

type scoreSweeper interface {
	RecomputeScores(ctx context.Context, competitionID, metricKey string) (*dto.ScoreSweepResult, error)
	RecomputeCompetition(ctx context.Context, competitionID string) ([]dto.ScoreSweepResult, error)
}

// RankingHandler exposes ranking tables and the score/ranking recompute endpoints.
type RankingHandler struct {
	rankings rankingService
	scores   scoreSweeper
	validate *validator.Validate
}

// NewRankingHandler constructs the ranking handler.
func NewRankingHandler(rankings rankingService, scores scoreSweeper, validate *validator.Validate) *RankingHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &RankingHandler{rankings: rankings, scores: scores, validate: validate}
}

// List godoc
// @Summary Ranking table of a competition pool
// @Tags Rankings
// @Produce json
// @Param id path string true "Competition ID"
// @Param tandem query bool false "Tandem pool instead of solo"
// @Success 200 {object} response.Envelope
// @Router /competitions/{id}/rankings [get]
func (h *RankingHandler) List(c *gin.Context) {
	tandem := false
	if raw := c.Query("tandem"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "tandem must be a boolean"))
			return
		}
		tandem = parsed
	}
	table, err := h.rankings.List(c.Request.Context(), c.Param("id"), tandem)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, table)
}

// Recompute godoc
// @Summary Recompute metric places and overall places
// @Description An empty metric list recomputes every metric.
// @Tags Rankings
// @Accept json
// @Produce json
// @Param id path string true "Competition ID"
// @Param payload body dto.RecomputeRankingRequest false "Metric numbers"
// @Success 200 {object} response.Envelope
// @Router /competitions/{id}/rankings/recompute [post]
func (h *RankingHandler) Recompute(c *gin.Context) {
	var req dto.RecomputeRankingRequest
	if !bindOptionalJSON(c, &req, "invalid recompute payload") {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "metrics must be between 1 and 20"))
		return
	}
	results, err := h.rankings.RecomputeAll(c.Request.Context(), c.Param("id"), req.Metrics)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results)
}

// RecomputeScores godoc
// @Summary Recompute report scores
// @Description Recomputes one metric key when given, otherwise every metric of the competition.
// @Tags Rankings
// @Produce json
// @Param id path string true "Competition ID"
// @Param metric query string false "Metric key"
// @Success 200 {object} response.Envelope
// @Router /competitions/{id}/scores/recompute [post]
func (h *RankingHandler) RecomputeScores(c *gin.Context) {
	ctx := c.Request.Context()
	if key := c.Query("metric"); key != "" {
		result, err := h.scores.RecomputeScores(ctx, c.Param("id"), key)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, []dto.ScoreSweepResult{*result})
		return
	}
	results, err := h.scores.RecomputeCompetition(ctx, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results)
}
