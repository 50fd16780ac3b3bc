package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/thryve/staffing-api/internal/models"
	"github.com/thryve/staffing-api/pkg/response"
)

type instructorService interface {
	List(ctx context.Context, claims *models.JWTClaims, filter models.InstructorFilter) ([]models.Instructor, *models.Pagination, error)
}

// InstructorHandler exposes the studio roster.
type InstructorHandler struct {
	service instructorService
}

// NewInstructorHandler builds a new handler.
func NewInstructorHandler(service instructorService) *InstructorHandler {
	return &InstructorHandler{service: service}
}

// List godoc
// @Summary Studio instructor roster
// @Tags Staffing
// @Produce json
// @Param active query bool false "Filter by active flag"
// @Param search query string false "Name or email search"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size (max 100)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /staffing/instructors [get]
func (h *InstructorHandler) List(c *gin.Context) {
	filter := models.InstructorFilter{
		Search: c.Query("search"),
	}
	if raw := c.Query("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.Active = &active
		}
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	instructors, pagination, err := h.service.List(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"instructors": instructors}, pagination)
}
