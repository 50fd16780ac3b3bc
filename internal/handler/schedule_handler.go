package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thryve/staffing-api/internal/dto"
	"github.com/thryve/staffing-api/internal/models"
	appErrors "github.com/thryve/staffing-api/pkg/errors"
	"github.com/thryve/staffing-api/pkg/response"
)

type scheduleService interface {
	GetStudioSchedule(ctx context.Context, claims *models.JWTClaims, query dto.ScheduleQuery) ([]models.ClassInstance, error)
	GetInstructorSchedule(ctx context.Context, claims *models.JWTClaims, query dto.ScheduleQuery) ([]models.ClassInstance, error)
	Reassign(ctx context.Context, claims *models.JWTClaims, input dto.ReassignInput) (*models.ClassInstance, error)
}

// ScheduleHandler exposes schedule reads and direct reassignment.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler builds a new handler.
func NewScheduleHandler(service scheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// Get godoc
// @Summary Schedule for the caller
// @Description Instructors get their own assignments; merchants get the whole studio, optionally filtered by instructorId.
// @Tags Staffing
// @Produce json
// @Param startDate query string false "Window start (RFC3339 or YYYY-MM-DD)"
// @Param endDate query string false "Window end (RFC3339 or YYYY-MM-DD)"
// @Param instructorId query string false "Instructor filter (merchant only)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /staffing/schedule [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	query := dto.ScheduleQuery{
		InstructorID: c.Query("instructorId"),
		From:         parseTimeQuery(c, "startDate"),
		To:           parseTimeQuery(c, "endDate"),
	}

	var (
		classes []models.ClassInstance
		err     error
	)
	if claims != nil && claims.Role == models.RoleMerchant && query.InstructorID == "" {
		classes, err = h.service.GetStudioSchedule(c.Request.Context(), claims, query)
	} else {
		classes, err = h.service.GetInstructorSchedule(c.Request.Context(), claims, query)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"classes": classes}, nil)
}

// Reassign godoc
// @Summary Directly reassign a class
// @Tags Staffing
// @Accept json
// @Produce json
// @Param payload body dto.ReassignInput true "Reassignment payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /staffing/reassign-class [post]
func (h *ScheduleHandler) Reassign(c *gin.Context) {
	claims := claimsFromContext(c)
	var input dto.ReassignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reassign payload"))
		return
	}
	class, err := h.service.Reassign(c.Request.Context(), claims, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"class": class}, nil)
}
