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

type membershipService interface {
	CreateUnit(ctx context.Context, req dto.CreateUnitRequest) (*models.Unit, error)
	ReparentUnit(ctx context.Context, unitID string, links models.ParentLinks) (*models.Unit, error)
	AssignPosition(ctx context.Context, req dto.AssignPositionRequest) (*models.Position, error)
	RemoveMember(ctx context.Context, unitID, userID string) error
	RemovePosition(ctx context.Context, userID string) error
	ListMembers(ctx context.Context, unitID string) ([]models.Position, error)
	MemberCount(ctx context.Context, unitID string) (*dto.MemberCountResponse, error)
	Apply(ctx context.Context, req dto.ApplyRequest) (*models.Application, error)
	ListApplications(ctx context.Context, unitID string) ([]models.Application, error)
	AcceptApplication(ctx context.Context, unitID, applicationID string, req dto.AcceptApplicationRequest) (*models.Position, error)
	RejectApplication(ctx context.Context, unitID, applicationID string) error
}

// MembershipHandler exposes unit and membership endpoints.
type MembershipHandler struct {
	service membershipService
}

// NewMembershipHandler constructs the handler.
func NewMembershipHandler(service membershipService) *MembershipHandler {
	return &MembershipHandler{service: service}
}

// CreateUnit godoc
// @Summary Register an organisational unit
// @Tags Units
// @Accept json
// @Produce json
// @Param payload body dto.CreateUnitRequest true "Unit payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /units [post]
func (h *MembershipHandler) CreateUnit(c *gin.Context) {
	var req dto.CreateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid unit payload"))
		return
	}
	unit, err := h.service.CreateUnit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, unit)
}

// ReparentUnit godoc
// @Summary Replace the parent links of a unit
// @Description Members of the unit have their ancestor positions moved, created or removed to match.
// @Tags Units
// @Accept json
// @Produce json
// @Param id path string true "Unit ID"
// @Param payload body dto.ReparentUnitRequest true "Parent links"
// @Success 200 {object} response.Envelope
// @Router /units/{id}/parents [patch]
func (h *MembershipHandler) ReparentUnit(c *gin.Context) {
	var req dto.ReparentUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid parent links payload"))
		return
	}
	unit, err := h.service.ReparentUnit(c.Request.Context(), c.Param("id"), req.Links())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, unit)
}

// AssignMember godoc
// @Summary Place a user into a unit
// @Tags Members
// @Accept json
// @Produce json
// @Param id path string true "Unit ID"
// @Param payload body dto.AssignPositionRequest true "Assignment"
// @Success 201 {object} response.Envelope
// @Router /units/{id}/members [post]
func (h *MembershipHandler) AssignMember(c *gin.Context) {
	var req dto.AssignPositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid assignment payload"))
		return
	}
	req.UnitID = c.Param("id")
	position, err := h.service.AssignPosition(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, position)
}

// RemoveMember godoc
// @Summary Remove a user from a unit
// @Tags Members
// @Param id path string true "Unit ID"
// @Param userId path string true "User ID"
// @Success 204
// @Router /units/{id}/members/{userId} [delete]
func (h *MembershipHandler) RemoveMember(c *gin.Context) {
	if err := h.service.RemoveMember(c.Request.Context(), c.Param("id"), c.Param("userId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExpelUser godoc
// @Summary Remove every position a user holds
// @Tags Members
// @Param userId path string true "User ID"
// @Success 204
// @Router /users/{userId}/positions [delete]
func (h *MembershipHandler) ExpelUser(c *gin.Context) {
	if err := h.service.RemovePosition(c.Request.Context(), c.Param("userId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListMembers godoc
// @Summary List the members of a unit
// @Tags Members
// @Produce json
// @Param id path string true "Unit ID"
// @Success 200 {object} response.Envelope
// @Router /units/{id}/members [get]
func (h *MembershipHandler) ListMembers(c *gin.Context) {
	members, err := h.service.ListMembers(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members)
}

// MemberCount godoc
// @Summary Count the members of a unit
// @Tags Members
// @Produce json
// @Param id path string true "Unit ID"
// @Success 200 {object} response.Envelope
// @Router /units/{id}/members/count [get]
func (h *MembershipHandler) MemberCount(c *gin.Context) {
	count, err := h.service.MemberCount(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, count)
}

// Apply godoc
// @Summary Apply to join a unit
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Unit ID"
// @Param payload body dto.ApplyRequest false "Application"
// @Success 201 {object} response.Envelope
// @Router /units/{id}/applications [post]
func (h *MembershipHandler) Apply(c *gin.Context) {
	claims, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.ApplyRequest
	if !bindOptionalJSON(c, &req, "invalid application payload") {
		return
	}
	req.UserID = claims.UserID
	req.UnitID = c.Param("id")
	application, err := h.service.Apply(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, application)
}

// ListApplications godoc
// @Summary List pending applications of a unit
// @Tags Applications
// @Produce json
// @Param id path string true "Unit ID"
// @Success 200 {object} response.Envelope
// @Router /units/{id}/applications [get]
func (h *MembershipHandler) ListApplications(c *gin.Context) {
	applications, err := h.service.ListApplications(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, applications)
}

// AcceptApplication godoc
// @Summary Accept an application
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Unit ID"
// @Param applicationId path string true "Application ID"
// @Param payload body dto.AcceptApplicationRequest false "Position title"
// @Success 201 {object} response.Envelope
// @Router /units/{id}/applications/{applicationId}/accept [post]
func (h *MembershipHandler) AcceptApplication(c *gin.Context) {
	var req dto.AcceptApplicationRequest
	if !bindOptionalJSON(c, &req, "invalid acceptance payload") {
		return
	}
	position, err := h.service.AcceptApplication(c.Request.Context(), c.Param("id"), c.Param("applicationId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, position)
}

// RejectApplication godoc
// @Summary Reject an application
// @Tags Applications
// @Param id path string true "Unit ID"
// @Param applicationId path string true "Application ID"
// @Success 204
// @Router /units/{id}/applications/{applicationId} [delete]
func (h *MembershipHandler) RejectApplication(c *gin.Context) {
	if err := h.service.RejectApplication(c.Request.Context(), c.Param("id"), c.Param("applicationId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
