package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rso-api/internal/dto"
	"github.com/noah-isme/rso-api/internal/models"
	appErrors "github.com/noah-isme/rso-api/pkg/errors"
	"github.com/noah-isme/rso-api/pkg/response"
)

type reportService interface {
	Create(ctx context.Context, req dto.CreateReportRequest, actor *models.JWTClaims) (*models.Report, error)
	Update(ctx context.Context, id string, req dto.UpdateReportRequest, actor *models.JWTClaims) (*models.Report, error)
	Send(ctx context.Context, id string, actor *models.JWTClaims) (*models.Report, error)
	DistrictReview(ctx context.Context, id string, req dto.DistrictReviewRequest, actor *models.JWTClaims) (*models.Report, error)
	CentralApprove(ctx context.Context, id string, actor *models.JWTClaims) (*dto.ReportReviewResponse, error)
	CentralReject(ctx context.Context, id string, reasons map[string]string, actor *models.JWTClaims) (*models.Report, error)
	Get(ctx context.Context, id string) (*models.Report, error)
	History(ctx context.Context, id string) ([]models.VerificationLog, error)
}

// ReportHandler exposes the report submission and verification endpoints.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs the report handler.
func NewReportHandler(service reportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Create godoc
// @Summary Submit a competition report as draft
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.CreateReportRequest true "Report payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Create(c *gin.Context) {
	claims, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid report payload"))
		return
	}
	report, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// Update godoc
// @Summary Edit a draft or rejected report
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.UpdateReportRequest true "Report content"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /reports/{id} [put]
func (h *ReportHandler) Update(c *gin.Context) {
	claims, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid report payload"))
		return
	}
	report, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// Get godoc
// @Summary Get a report with its events
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// Send godoc
// @Summary Send a draft report for verification
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id}/send [post]
func (h *ReportHandler) Send(c *gin.Context) {
	claims, ok := actorFromContext(c)
	if !ok {
		return
	}
	report, err := h.service.Send(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// DistrictReview godoc
// @Summary District review of a sent report
// @Description Approve, optionally with edits, or reject with reasons keyed by field name.
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.DistrictReviewRequest true "Review decision"
// @Success 200 {object} response.Envelope
// @Router /reports/{id}/district-review [post]
func (h *ReportHandler) DistrictReview(c *gin.Context) {
	claims, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.DistrictReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid review payload"))
		return
	}
	report, err := h.service.DistrictReview(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// CentralApprove godoc
// @Summary Central approval of a district-reviewed report
// @Description Scores the report and refreshes the metric's ranking.
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reports/{id}/central-approve [post]
func (h *ReportHandler) CentralApprove(c *gin.Context) {
	claims, ok := actorFromContext(c)
	if !ok {
		return
	}
	result, err := h.service.CentralApprove(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	warning := ""
	if result.Scoring != nil {
		warning = result.Scoring.Warning
	}
	response.WithWarning(c, http.StatusOK, result, warning)
}

// CentralReject godoc
// @Summary Central rejection of a report
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.RejectReportRequest true "Rejection reasons"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/{id}/central-reject [post]
func (h *ReportHandler) CentralReject(c *gin.Context) {
	claims, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.RejectReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid rejection payload"))
		return
	}
	report, err := h.service.CentralReject(c.Request.Context(), c.Param("id"), req.Reasons, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// History godoc
// @Summary Verification history of a report
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id}/history [get]
func (h *ReportHandler) History(c *gin.Context) {
	history, err := h.service.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history)
}
