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

	"github.com/thryve/staffing-api/internal/dto"
	"github.com/thryve/staffing-api/internal/middleware"
	"github.com/thryve/staffing-api/internal/models"
	appErrors "github.com/thryve/staffing-api/pkg/errors"
)

type coverageServiceMock struct {
	requestResp *models.CoverageRequest
	requestErr  error
	applyResp   *models.CoverageRequest
	applyErr    error
	resolveResp *models.CoverageRequest
	resolveErr  error
	cancelResp  *models.CoverageRequest
	cancelErr   error
	openResp    []models.CoverageRequest
	openErr     error
	mineResp    []models.CoverageRequest
	mineErr     error
}

func (m *coverageServiceMock) Request(ctx context.Context, claims *models.JWTClaims, input dto.CoverageRequestInput) (*models.CoverageRequest, error) {
	return m.requestResp, m.requestErr
}

func (m *coverageServiceMock) Apply(ctx context.Context, claims *models.JWTClaims, input dto.CoverageApplyInput) (*models.CoverageRequest, error) {
	return m.applyResp, m.applyErr
}

func (m *coverageServiceMock) Resolve(ctx context.Context, claims *models.JWTClaims, input dto.CoverageResolveInput) (*models.CoverageRequest, error) {
	return m.resolveResp, m.resolveErr
}

func (m *coverageServiceMock) Cancel(ctx context.Context, claims *models.JWTClaims, input dto.CoverageCancelInput) (*models.CoverageRequest, error) {
	return m.cancelResp, m.cancelErr
}

func (m *coverageServiceMock) ListOpen(ctx context.Context, claims *models.JWTClaims) ([]models.CoverageRequest, error) {
	return m.openResp, m.openErr
}

func (m *coverageServiceMock) ListMine(ctx context.Context, claims *models.JWTClaims) ([]models.CoverageRequest, error) {
	return m.mineResp, m.mineErr
}

type coverageMetricsMock struct {
	fills int
}

func (m *coverageMetricsMock) RecordCoverageFill() { m.fills++ }

func postCoverageContext(t *testing.T, path string, body interface{}, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, claims)
	return c, w
}

func TestCoverageHandlerPool(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &coverageServiceMock{
		openResp: []models.CoverageRequest{{ID: "cov-1", Status: models.CoverageOpen}},
	}
	handler := NewCoverageHandler(mockSvc, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/staffing/coverage-pool", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, instructorTestClaims("inst-1", "studio-1"))

	handler.Pool(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"coveragePool"`)
}

func TestCoverageHandlerMine(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &coverageServiceMock{
		mineResp: []models.CoverageRequest{{ID: "cov-1"}},
	}
	handler := NewCoverageHandler(mockSvc, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/staffing/coverage-requests", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, instructorTestClaims("inst-1", "studio-1"))

	handler.Mine(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"coverageRequests"`)
}

func TestCoverageHandlerRequestCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &coverageServiceMock{
		requestResp: &models.CoverageRequest{ID: "cov-1", Status: models.CoverageOpen},
	}
	handler := NewCoverageHandler(mockSvc, nil)

	c, w := postCoverageContext(t, "/staffing/request-coverage", dto.CoverageRequestInput{
		ClassInstanceID: "9e6cb1f3-40ad-4c4e-bd32-6ea69181149e",
		Urgent:          true,
	}, instructorTestClaims("inst-1", "studio-1"))

	handler.Request(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"coverageRequest"`)
}

func TestCoverageHandlerRequestInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCoverageHandler(&coverageServiceMock{}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/staffing/request-coverage", bytes.NewBufferString(`{"classId"`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, instructorTestClaims("inst-1", "studio-1"))

	handler.Request(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCoverageHandlerApplyPolicyViolation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &coverageServiceMock{applyErr: appErrors.ErrPolicyViolation}
	handler := NewCoverageHandler(mockSvc, nil)

	c, w := postCoverageContext(t, "/staffing/apply-coverage", dto.CoverageApplyInput{
		CoverageRequestID: "2f0e6f63-9d3f-4a8c-9a43-8a2a42d9f0aa",
	}, instructorTestClaims("inst-2", "studio-1"))

	handler.Apply(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"POLICY_VIOLATION"`)
}

func TestCoverageHandlerResolveRecordsFill(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := &coverageMetricsMock{}
	mockSvc := &coverageServiceMock{
		resolveResp: &models.CoverageRequest{ID: "cov-1", Status: models.CoverageFilled},
	}
	handler := NewCoverageHandler(mockSvc, metrics)

	c, w := postCoverageContext(t, "/staffing/resolve-coverage", dto.CoverageResolveInput{
		CoverageRequestID: "2f0e6f63-9d3f-4a8c-9a43-8a2a42d9f0aa",
		InstructorID:      "3e8a4fd2-3f29-44cf-a47a-56b8a63d72da",
	}, merchantTestClaims("studio-1"))

	handler.Resolve(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, metrics.fills)
}

func TestCoverageHandlerResolveConflictSkipsMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := &coverageMetricsMock{}
	mockSvc := &coverageServiceMock{resolveErr: appErrors.ErrConflict}
	handler := NewCoverageHandler(mockSvc, metrics)

	c, w := postCoverageContext(t, "/staffing/resolve-coverage", dto.CoverageResolveInput{
		CoverageRequestID: "2f0e6f63-9d3f-4a8c-9a43-8a2a42d9f0aa",
		InstructorID:      "3e8a4fd2-3f29-44cf-a47a-56b8a63d72da",
	}, merchantTestClaims("studio-1"))

	handler.Resolve(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Zero(t, metrics.fills)
}

func TestCoverageHandlerCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &coverageServiceMock{
		cancelResp: &models.CoverageRequest{ID: "cov-1", Status: models.CoverageCancelled},
	}
	handler := NewCoverageHandler(mockSvc, nil)

	c, w := postCoverageContext(t, "/staffing/cancel-coverage", dto.CoverageCancelInput{
		CoverageRequestID: "2f0e6f63-9d3f-4a8c-9a43-8a2a42d9f0aa",
	}, instructorTestClaims("inst-1", "studio-1"))

	handler.Cancel(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"CANCELLED"`)
}
