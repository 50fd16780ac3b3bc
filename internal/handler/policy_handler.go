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

type policyService interface {
	Get(ctx context.Context, claims *models.JWTClaims) (*models.StaffingPolicy, error)
	Update(ctx context.Context, claims *models.JWTClaims, input dto.PolicyUpdateInput) (*models.StaffingPolicy, error)
}

// PolicyHandler exposes staffing settings.
type PolicyHandler struct {
	service policyService
}

// NewPolicyHandler builds a new handler.
func NewPolicyHandler(service policyService) *PolicyHandler {
	return &PolicyHandler{service: service}
}

// Get godoc
// @Summary Studio staffing settings
// @Tags Staffing
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /staffing/settings [get]
func (h *PolicyHandler) Get(c *gin.Context) {
	settings, err := h.service.Get(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"settings": settings}, nil)
}

// Update godoc
// @Summary Update studio staffing settings
// @Tags Staffing
// @Accept json
// @Produce json
// @Param payload body dto.PolicyUpdateInput true "Settings payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /staffing/settings [post]
func (h *PolicyHandler) Update(c *gin.Context) {
	var input dto.PolicyUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settings payload"))
		return
	}
	settings, err := h.service.Update(c.Request.Context(), claimsFromContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"settings": settings}, nil)
}
