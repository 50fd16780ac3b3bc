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

type swapService interface {
	Request(ctx context.Context, claims *models.JWTClaims, input dto.SwapRequestInput) (*models.SwapRequest, error)
	Accept(ctx context.Context, claims *models.JWTClaims, input dto.SwapDecisionInput) (*models.SwapRequest, error)
	Reject(ctx context.Context, claims *models.JWTClaims, input dto.SwapDecisionInput) (*models.SwapRequest, error)
	Approve(ctx context.Context, claims *models.JWTClaims, input dto.SwapApprovalInput) (*models.SwapRequest, error)
	ListForInstructor(ctx context.Context, claims *models.JWTClaims) ([]models.SwapRequest, error)
	ListPendingApprovals(ctx context.Context, claims *models.JWTClaims) ([]models.SwapRequest, error)
}

type swapMetrics interface {
	RecordSwapResolution(status string)
}

// SwapHandler exposes the swap request workflow.
type SwapHandler struct {
	service swapService
	metrics swapMetrics
}

// NewSwapHandler builds a new handler.
func NewSwapHandler(service swapService, metrics swapMetrics) *SwapHandler {
	return &SwapHandler{service: service, metrics: metrics}
}

// List godoc
// @Summary Swap requests visible to the caller
// @Tags Staffing
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /staffing/swap-requests [get]
func (h *SwapHandler) List(c *gin.Context) {
	swaps, err := h.service.ListForInstructor(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"swapRequests": swaps}, nil)
}

// PendingApprovals godoc
// @Summary Swaps awaiting studio approval
// @Tags Staffing
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /staffing/pending-approvals [get]
func (h *SwapHandler) PendingApprovals(c *gin.Context) {
	swaps, err := h.service.ListPendingApprovals(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"swapRequests": swaps}, nil)
}

// Request godoc
// @Summary Create a swap request
// @Tags Staffing
// @Accept json
// @Produce json
// @Param payload body dto.SwapRequestInput true "Swap payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /staffing/request-swap [post]
func (h *SwapHandler) Request(c *gin.Context) {
	var input dto.SwapRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid swap payload"))
		return
	}
	swap, err := h.service.Request(c.Request.Context(), claimsFromContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"swapRequest": swap})
}

// Accept godoc
// @Summary Accept a swap request
// @Tags Staffing
// @Accept json
// @Produce json
// @Param payload body dto.SwapDecisionInput true "Decision payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /staffing/accept-swap [post]
func (h *SwapHandler) Accept(c *gin.Context) {
	var input dto.SwapDecisionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}
	swap, err := h.service.Accept(c.Request.Context(), claimsFromContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.recordResolution(swap)
	response.JSON(c, http.StatusOK, gin.H{"swapRequest": swap}, nil)
}

// Reject godoc
// @Summary Reject a swap request
// @Tags Staffing
// @Accept json
// @Produce json
// @Param payload body dto.SwapDecisionInput true "Decision payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /staffing/reject-swap [post]
func (h *SwapHandler) Reject(c *gin.Context) {
	var input dto.SwapDecisionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}
	swap, err := h.service.Reject(c.Request.Context(), claimsFromContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.recordResolution(swap)
	response.JSON(c, http.StatusOK, gin.H{"swapRequest": swap}, nil)
}

// Approve godoc
// @Summary Studio decision on an escalated swap
// @Tags Staffing
// @Accept json
// @Produce json
// @Param payload body dto.SwapApprovalInput true "Approval payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /staffing/approve-swap [post]
func (h *SwapHandler) Approve(c *gin.Context) {
	var input dto.SwapApprovalInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid approval payload"))
		return
	}
	swap, err := h.service.Approve(c.Request.Context(), claimsFromContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.recordResolution(swap)
	response.JSON(c, http.StatusOK, gin.H{"swapRequest": swap}, nil)
}

func (h *SwapHandler) recordResolution(swap *models.SwapRequest) {
	if h.metrics == nil || swap == nil || swap.Status.Active() {
		return
	}
	h.metrics.RecordSwapResolution(string(swap.Status))
}
