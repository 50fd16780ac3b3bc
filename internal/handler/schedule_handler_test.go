package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thryve/staffing-api/internal/dto"
	"github.com/thryve/staffing-api/internal/middleware"
	"github.com/thryve/staffing-api/internal/models"
	appErrors "github.com/thryve/staffing-api/pkg/errors"
)

type scheduleServiceMock struct {
	studioResp     []models.ClassInstance
	studioErr      error
	ownResp        []models.ClassInstance
	ownErr         error
	reassignResp   *models.ClassInstance
	reassignErr    error
	lastQuery      dto.ScheduleQuery
	studioCalled   bool
	ownCalled      bool
	reassignCalled bool
}

func (m *scheduleServiceMock) GetStudioSchedule(ctx context.Context, claims *models.JWTClaims, query dto.ScheduleQuery) ([]models.ClassInstance, error) {
	m.studioCalled = true
	m.lastQuery = query
	return m.studioResp, m.studioErr
}

func (m *scheduleServiceMock) GetInstructorSchedule(ctx context.Context, claims *models.JWTClaims, query dto.ScheduleQuery) ([]models.ClassInstance, error) {
	m.ownCalled = true
	m.lastQuery = query
	return m.ownResp, m.ownErr
}

func (m *scheduleServiceMock) Reassign(ctx context.Context, claims *models.JWTClaims, input dto.ReassignInput) (*models.ClassInstance, error) {
	m.reassignCalled = true
	return m.reassignResp, m.reassignErr
}

func merchantTestClaims(studioID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: "owner-1", Role: models.RoleMerchant, StudioID: studioID}
}

func instructorTestClaims(userID, studioID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Role: models.RoleInstructor, StudioID: studioID}
}

func TestScheduleHandlerGetMerchant(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleServiceMock{
		studioResp: []models.ClassInstance{{ID: "class-1"}},
	}
	handler := NewScheduleHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/staffing/schedule?startDate=2026-09-07", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, merchantTestClaims("studio-1"))

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.studioCalled)
	assert.False(t, mockSvc.ownCalled)
	assert.Equal(t, time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), mockSvc.lastQuery.From)
	assert.Contains(t, w.Body.String(), `"classes"`)
}

func TestScheduleHandlerGetMerchantWithInstructorFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleServiceMock{}
	handler := NewScheduleHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/staffing/schedule?instructorId=inst-2", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, merchantTestClaims("studio-1"))

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.ownCalled)
	assert.Equal(t, "inst-2", mockSvc.lastQuery.InstructorID)
}

func TestScheduleHandlerGetInstructor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleServiceMock{}
	handler := NewScheduleHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/staffing/schedule", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, instructorTestClaims("inst-1", "studio-1"))

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.ownCalled)
	assert.False(t, mockSvc.studioCalled)
}

func TestScheduleHandlerGetServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleServiceMock{ownErr: appErrors.ErrNotFound}
	handler := NewScheduleHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/staffing/schedule", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, instructorTestClaims("inst-1", "studio-1"))

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestScheduleHandlerReassign(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleServiceMock{
		reassignResp: &models.ClassInstance{ID: "class-1"},
	}
	handler := NewScheduleHandler(mockSvc)

	payload, _ := json.Marshal(dto.ReassignInput{
		ClassInstanceID: "9e6cb1f3-40ad-4c4e-bd32-6ea69181149e",
		InstructorID:    "3e8a4fd2-3f29-44cf-a47a-56b8a63d72da",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/staffing/reassign-class", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, merchantTestClaims("studio-1"))

	handler.Reassign(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.reassignCalled)
	assert.Contains(t, w.Body.String(), `"class"`)
}

func TestScheduleHandlerReassignInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleServiceMock{}
	handler := NewScheduleHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/staffing/reassign-class", bytes.NewBufferString(`{"classId":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, merchantTestClaims("studio-1"))

	handler.Reassign(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.reassignCalled)
}
