package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rso-api/internal/dto"
	"github.com/noah-isme/rso-api/internal/middleware"
	"github.com/noah-isme/rso-api/internal/models"
	appErrors "github.com/noah-isme/rso-api/pkg/errors"
)

type membershipServiceMock struct {
	err           error
	lastAssign    dto.AssignPositionRequest
	lastApply     dto.ApplyRequest
	lastLinks     models.ParentLinks
	removedUnit   string
	removedUser   string
	expelled      string
	acceptedTitle *string
	rejectedAppID string
	count         *dto.MemberCountResponse
}

func (m *membershipServiceMock) CreateUnit(ctx context.Context, req dto.CreateUnitRequest) (*models.Unit, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Unit{ID: "unit-1", Level: req.Level, Name: req.Name}, nil
}

func (m *membershipServiceMock) ReparentUnit(ctx context.Context, unitID string, links models.ParentLinks) (*models.Unit, error) {
	m.lastLinks = links
	return &models.Unit{ID: unitID}, m.err
}

func (m *membershipServiceMock) AssignPosition(ctx context.Context, req dto.AssignPositionRequest) (*models.Position, error) {
	m.lastAssign = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.Position{UserID: req.UserID}, nil
}

func (m *membershipServiceMock) RemoveMember(ctx context.Context, unitID, userID string) error {
	m.removedUnit = unitID
	m.removedUser = userID
	return m.err
}

func (m *membershipServiceMock) RemovePosition(ctx context.Context, userID string) error {
	m.expelled = userID
	return m.err
}

func (m *membershipServiceMock) ListMembers(ctx context.Context, unitID string) ([]models.Position, error) {
	return []models.Position{}, m.err
}

func (m *membershipServiceMock) MemberCount(ctx context.Context, unitID string) (*dto.MemberCountResponse, error) {
	return m.count, m.err
}

func (m *membershipServiceMock) Apply(ctx context.Context, req dto.ApplyRequest) (*models.Application, error) {
	m.lastApply = req
	return &models.Application{UserID: req.UserID}, m.err
}

func (m *membershipServiceMock) ListApplications(ctx context.Context, unitID string) ([]models.Application, error) {
	return []models.Application{}, m.err
}

func (m *membershipServiceMock) AcceptApplication(ctx context.Context, unitID, applicationID string, req dto.AcceptApplicationRequest) (*models.Position, error) {
	m.acceptedTitle = req.Title
	return &models.Position{}, m.err
}

func (m *membershipServiceMock) RejectApplication(ctx context.Context, unitID, applicationID string) error {
	m.rejectedAppID = applicationID
	return m.err
}

func TestMembershipHandlerCreateUnit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMembershipHandler(&membershipServiceMock{})

	c, w := newGinContext(http.MethodPost, "/units", []byte(`{"level":"district","name":"North","commander_id":"u-1"}`))
	handler.CreateUnit(c)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestMembershipHandlerCreateUnitInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMembershipHandler(&membershipServiceMock{})

	c, w := newGinContext(http.MethodPost, "/units", []byte(`[`))
	handler.CreateUnit(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMembershipHandlerReparentUnitClearsOmittedLinks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &membershipServiceMock{}
	handler := NewMembershipHandler(mockSvc)

	c, w := newGinContext(http.MethodPatch, "/units/loc-1/parents", []byte(`{"regional_id":"reg-2"}`))
	c.Params = gin.Params{{Key: "id", Value: "loc-1"}}
	handler.ReparentUnit(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.lastLinks.RegionalID)
	assert.Equal(t, "reg-2", *mockSvc.lastLinks.RegionalID)
	assert.Nil(t, mockSvc.lastLinks.DistrictID)
}

func TestMembershipHandlerAssignMemberUsesPathUnit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &membershipServiceMock{}
	handler := NewMembershipHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/units/det-1/members", []byte(`{"user_id":"u-7","unit_id":"ignored"}`))
	c.Params = gin.Params{{Key: "id", Value: "det-1"}}
	handler.AssignMember(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "det-1", mockSvc.lastAssign.UnitID)
	assert.Equal(t, "u-7", mockSvc.lastAssign.UserID)
}

func TestMembershipHandlerAssignMemberConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMembershipHandler(&membershipServiceMock{err: appErrors.Clone(appErrors.ErrConflict, "user already holds a position")})

	c, w := newGinContext(http.MethodPost, "/units/det-1/members", []byte(`{"user_id":"u-7"}`))
	c.Params = gin.Params{{Key: "id", Value: "det-1"}}
	handler.AssignMember(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestMembershipHandlerRemoveAndExpel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &membershipServiceMock{}
	handler := NewMembershipHandler(mockSvc)

	c, _ := newGinContext(http.MethodDelete, "/units/det-1/members/u-7", nil)
	c.Params = gin.Params{{Key: "id", Value: "det-1"}, {Key: "userId", Value: "u-7"}}
	handler.RemoveMember(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "det-1", mockSvc.removedUnit)
	assert.Equal(t, "u-7", mockSvc.removedUser)

	c, _ = newGinContext(http.MethodDelete, "/users/u-8/positions", nil)
	c.Params = gin.Params{{Key: "userId", Value: "u-8"}}
	handler.ExpelUser(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "u-8", mockSvc.expelled)
}

func TestMembershipHandlerMemberCount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMembershipHandler(&membershipServiceMock{count: &dto.MemberCountResponse{UnitID: "reg-1", Level: models.LevelRegional, Count: 12}})

	c, w := newGinContext(http.MethodGet, "/units/reg-1/members/count", nil)
	c.Params = gin.Params{{Key: "id", Value: "reg-1"}}
	handler.MemberCount(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":12`)
}

func TestMembershipHandlerApplyUsesTokenUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &membershipServiceMock{}
	handler := NewMembershipHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/units/det-1/applications", []byte(`{"message":"let me in"}`))
	c.Params = gin.Params{{Key: "id", Value: "det-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-9", Role: models.RoleMember})
	handler.Apply(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "u-9", mockSvc.lastApply.UserID)
	assert.Equal(t, "det-1", mockSvc.lastApply.UnitID)
}

func TestMembershipHandlerApplyRequiresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMembershipHandler(&membershipServiceMock{})

	c, w := newGinContext(http.MethodPost, "/units/det-1/applications", nil)
	c.Params = gin.Params{{Key: "id", Value: "det-1"}}
	handler.Apply(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMembershipHandlerApplicationDecisions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &membershipServiceMock{}
	handler := NewMembershipHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/units/det-1/applications/app-1/accept", []byte(`{"title":"fighter"}`))
	c.Params = gin.Params{{Key: "id", Value: "det-1"}, {Key: "applicationId", Value: "app-1"}}
	handler.AcceptApplication(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, mockSvc.acceptedTitle)
	assert.Equal(t, "fighter", *mockSvc.acceptedTitle)

	c, _ = newGinContext(http.MethodDelete, "/units/det-1/applications/app-2", nil)
	c.Params = gin.Params{{Key: "id", Value: "det-1"}, {Key: "applicationId", Value: "app-2"}}
	handler.RejectApplication(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "app-2", mockSvc.rejectedAppID)
}
