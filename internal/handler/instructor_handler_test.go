package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thryve/staffing-api/internal/middleware"
	"github.com/thryve/staffing-api/internal/models"
)

type instructorServiceMock struct {
	resp       []models.Instructor
	pagination *models.Pagination
	err        error
	lastFilter models.InstructorFilter
}

func (m *instructorServiceMock) List(ctx context.Context, claims *models.JWTClaims, filter models.InstructorFilter) ([]models.Instructor, *models.Pagination, error) {
	m.lastFilter = filter
	return m.resp, m.pagination, m.err
}

func TestInstructorHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &instructorServiceMock{
		resp:       []models.Instructor{{ID: "inst-1", FullName: "Maya Chen"}},
		pagination: &models.Pagination{Page: 2, PageSize: 10, TotalCount: 14},
	}
	handler := NewInstructorHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/staffing/instructors?active=true&search=maya&page=2&pageSize=10", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, merchantTestClaims("studio-1"))

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.lastFilter.Active)
	assert.True(t, *mockSvc.lastFilter.Active)
	assert.Equal(t, "maya", mockSvc.lastFilter.Search)
	assert.Equal(t, 2, mockSvc.lastFilter.Page)
	assert.Equal(t, 10, mockSvc.lastFilter.PageSize)
	assert.Contains(t, w.Body.String(), `"instructors"`)
	assert.Contains(t, w.Body.String(), `"totalCount":14`)
}

func TestInstructorHandlerListDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &instructorServiceMock{}
	handler := NewInstructorHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/staffing/instructors", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, instructorTestClaims("inst-1", "studio-1"))

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, mockSvc.lastFilter.Active)
	assert.Equal(t, 1, mockSvc.lastFilter.Page)
	assert.Equal(t, 20, mockSvc.lastFilter.PageSize)
}
