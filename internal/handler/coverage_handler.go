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

type coverageService interface {
	Request(ctx context.Context, claims *models.JWTClaims, input dto.CoverageRequestInput) (*models.CoverageRequest, error)
	Apply(ctx context.Context, claims *models.JWTClaims, input dto.CoverageApplyInput) (*models.CoverageRequest, error)
	Resolve(ctx context.Context, claims *models.JWTClaims, input dto.CoverageResolveInput) (*models.CoverageRequest, error)
	Cancel(ctx context.Context, claims *models.JWTClaims, input dto.CoverageCancelInput) (*models.CoverageRequest, error)
	ListOpen(ctx context.Context, claims *models.JWTClaims) ([]models.CoverageRequest, error)
	ListMine(ctx context.Context, claims *models.JWTClaims) ([]models.CoverageRequest, error)
}

type coverageMetrics interface {
	RecordCoverageFill()
}

// CoverageHandler exposes the coverage pool workflow.
type CoverageHandler struct {
	service coverageService
	metrics coverageMetrics
}

// NewCoverageHandler builds a new handler.
func NewCoverageHandler(service coverageService, metrics coverageMetrics) *CoverageHandler {
	return &CoverageHandler{service: service, metrics: metrics}
}

// Pool godoc
// @Summary Open coverage requests for the studio
// @Tags Staffing
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /staffing/coverage-pool [get]
func (h *CoverageHandler) Pool(c *gin.Context) {
	reqs, err := h.service.ListOpen(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"coveragePool": reqs}, nil)
}

// Mine godoc
// @Summary Coverage requests the caller initiated or applied to
// @Tags Staffing
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /staffing/coverage-requests [get]
func (h *CoverageHandler) Mine(c *gin.Context) {
	reqs, err := h.service.ListMine(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"coverageRequests": reqs}, nil)
}

// Request godoc
// @Summary Open a coverage request
// @Tags Staffing
// @Accept json
// @Produce json
// @Param payload body dto.CoverageRequestInput true "Coverage payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /staffing/request-coverage [post]
func (h *CoverageHandler) Request(c *gin.Context) {
	var input dto.CoverageRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid coverage payload"))
		return
	}
	req, err := h.service.Request(c.Request.Context(), claimsFromContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"coverageRequest": req})
}

// Apply godoc
// @Summary Apply for an open coverage request
// @Tags Staffing
// @Accept json
// @Produce json
// @Param payload body dto.CoverageApplyInput true "Application payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /staffing/apply-coverage [post]
func (h *CoverageHandler) Apply(c *gin.Context) {
	var input dto.CoverageApplyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid application payload"))
		return
	}
	req, err := h.service.Apply(c.Request.Context(), claimsFromContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"coverageRequest": req}, nil)
}

// Resolve godoc
// @Summary Pick an applicant and fill the class
// @Tags Staffing
// @Accept json
// @Produce json
// @Param payload body dto.CoverageResolveInput true "Resolution payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /staffing/resolve-coverage [post]
func (h *CoverageHandler) Resolve(c *gin.Context) {
	var input dto.CoverageResolveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resolution payload"))
		return
	}
	req, err := h.service.Resolve(c.Request.Context(), claimsFromContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordCoverageFill()
	}
	response.JSON(c, http.StatusOK, gin.H{"coverageRequest": req}, nil)
}

// Cancel godoc
// @Summary Withdraw an open coverage request
// @Tags Staffing
// @Accept json
// @Produce json
// @Param payload body dto.CoverageCancelInput true "Cancel payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /staffing/cancel-coverage [post]
func (h *CoverageHandler) Cancel(c *gin.Context) {
	var input dto.CoverageCancelInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid cancel payload"))
		return
	}
	req, err := h.service.Cancel(c.Request.Context(), claimsFromContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"coverageRequest": req}, nil)
}
