package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rso-api/internal/dto"
	"github.com/noah-isme/rso-api/internal/middleware"
	"github.com/noah-isme/rso-api/internal/models"
	appErrors "github.com/noah-isme/rso-api/pkg/errors"
)

type reportServiceMock struct {
	report      *models.Report
	review      *dto.ReportReviewResponse
	history     []models.VerificationLog
	err         error
	lastID      string
	lastActor   *models.JWTClaims
	lastCreate  dto.CreateReportRequest
	lastReview  dto.DistrictReviewRequest
	lastReasons map[string]string
}

func (m *reportServiceMock) Create(ctx context.Context, req dto.CreateReportRequest, actor *models.JWTClaims) (*models.Report, error) {
	m.lastCreate = req
	m.lastActor = actor
	return m.report, m.err
}

func (m *reportServiceMock) Update(ctx context.Context, id string, req dto.UpdateReportRequest, actor *models.JWTClaims) (*models.Report, error) {
	m.lastID = id
	m.lastActor = actor
	return m.report, m.err
}

func (m *reportServiceMock) Send(ctx context.Context, id string, actor *models.JWTClaims) (*models.Report, error) {
	m.lastID = id
	m.lastActor = actor
	return m.report, m.err
}

func (m *reportServiceMock) DistrictReview(ctx context.Context, id string, req dto.DistrictReviewRequest, actor *models.JWTClaims) (*models.Report, error) {
	m.lastID = id
	m.lastReview = req
	return m.report, m.err
}

func (m *reportServiceMock) CentralApprove(ctx context.Context, id string, actor *models.JWTClaims) (*dto.ReportReviewResponse, error) {
	m.lastID = id
	return m.review, m.err
}

func (m *reportServiceMock) CentralReject(ctx context.Context, id string, reasons map[string]string, actor *models.JWTClaims) (*models.Report, error) {
	m.lastID = id
	m.lastReasons = reasons
	return m.report, m.err
}

func (m *reportServiceMock) Get(ctx context.Context, id string) (*models.Report, error) {
	m.lastID = id
	return m.report, m.err
}

func (m *reportServiceMock) History(ctx context.Context, id string) ([]models.VerificationLog, error) {
	m.lastID = id
	return m.history, m.err
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func commanderClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "cmd-1", Role: models.RoleMember}
}

func TestReportHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reportServiceMock{report: &models.Report{ID: "rep-1", Status: models.ReportStatusDraft}}
	handler := NewReportHandler(mockSvc)

	payload, _ := json.Marshal(map[string]interface{}{
		"participant_id": "p-1",
		"metric_key":     "1",
		"fields":         map[string]int{"members": 10},
	})
	c, w := newGinContext(http.MethodPost, "/reports", payload)
	c.Set(middleware.ContextUserKey, commanderClaims())

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "p-1", mockSvc.lastCreate.ParticipantID)
	assert.Equal(t, "1", mockSvc.lastCreate.MetricKey)
	assert.Equal(t, "cmd-1", mockSvc.lastActor.UserID)
}

func TestReportHandlerCreateRequiresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&reportServiceMock{})

	c, w := newGinContext(http.MethodPost, "/reports", []byte(`{}`))
	handler.Create(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReportHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&reportServiceMock{})

	c, w := newGinContext(http.MethodPost, "/reports", []byte(`{invalid`))
	c.Set(middleware.ContextUserKey, commanderClaims())
	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerSendMapsServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reportServiceMock{err: appErrors.Clone(appErrors.ErrPreconditionFailed, "only draft reports can be sent")}
	handler := NewReportHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/reports/rep-1/send", nil)
	c.Params = gin.Params{{Key: "id", Value: "rep-1"}}
	c.Set(middleware.ContextUserKey, commanderClaims())

	handler.Send(c)
	require.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.Equal(t, "rep-1", mockSvc.lastID)
}

func TestReportHandlerDistrictReviewPassesDecision(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reportServiceMock{report: &models.Report{ID: "rep-1", Status: models.ReportStatusRejected}}
	handler := NewReportHandler(mockSvc)

	payload := []byte(`{"approve":false,"reasons":{"members":"count does not match roster"}}`)
	c, w := newGinContext(http.MethodPost, "/reports/rep-1/district-review", payload)
	c.Params = gin.Params{{Key: "id", Value: "rep-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "dist-1", Role: models.RoleDistrictAdmin})

	handler.DistrictReview(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, mockSvc.lastReview.Approve)
	assert.Equal(t, "count does not match roster", mockSvc.lastReview.Reasons["members"])
}

func TestReportHandlerCentralApproveSurfacesWarning(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reportServiceMock{review: &dto.ReportReviewResponse{
		Report:  &models.Report{ID: "rep-1", Status: models.ReportStatusCentralApproved},
		Scoring: &dto.ScoreOutcome{ReportID: "rep-1", Skipped: true, Warning: "competition cutoff passed"},
	}}
	handler := NewReportHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/reports/rep-1/central-approve", nil)
	c.Params = gin.Params{{Key: "id", Value: "rep-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "central-1", Role: models.RoleCentralAdmin})

	handler.CentralApprove(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "competition cutoff passed", body.Meta["warning"])
}

func TestReportHandlerCentralRejectForwardsReasons(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reportServiceMock{report: &models.Report{ID: "rep-1", Status: models.ReportStatusRejected}}
	handler := NewReportHandler(mockSvc)

	payload := []byte(`{"reasons":{"amount":"receipt missing"}}`)
	c, w := newGinContext(http.MethodPost, "/reports/rep-1/central-reject", payload)
	c.Params = gin.Params{{Key: "id", Value: "rep-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "central-1", Role: models.RoleCentralAdmin})

	handler.CentralReject(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{"amount": "receipt missing"}, mockSvc.lastReasons)
}

func TestReportHandlerHistoryNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reportServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "report not found")}
	handler := NewReportHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/reports/missing/history", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.History(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
