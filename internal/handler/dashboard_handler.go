package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thryve/staffing-api/internal/dto"
	"github.com/thryve/staffing-api/internal/models"
	appErrors "github.com/thryve/staffing-api/pkg/errors"
	"github.com/thryve/staffing-api/pkg/response"
)

type dashboardService interface {
	Studio(ctx context.Context, claims *models.JWTClaims, from, to time.Time) (*dto.StudioDashboard, bool, error)
}

// DashboardHandler wires the staffing dashboard to HTTP.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Studio godoc
// @Summary Studio staffing dashboard
// @Tags Staffing
// @Produce json
// @Param startDate query string false "Window start (RFC3339 or YYYY-MM-DD)"
// @Param endDate query string false "Window end (RFC3339 or YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /staffing/dashboard [get]
func (h *DashboardHandler) Studio(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "dashboard is disabled"))
		return
	}
	start := time.Now()
	dashboard, cacheHit, err := h.service.Studio(c.Request.Context(), claimsFromContext(c),
		parseTimeQuery(c, "startDate"), parseTimeQuery(c, "endDate"))
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{
		"cache_hit":          cacheHit,
		"processing_time_ms": time.Since(start).Milliseconds(),
	}
	response.JSON(c, http.StatusOK, dashboard, nil, meta)
}
