package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/thryve/staffing-api/internal/dto"
	"github.com/thryve/staffing-api/internal/models"
	appErrors "github.com/thryve/staffing-api/pkg/errors"
)

type policyStore interface {
	Get(ctx context.Context, studioID string) (*models.StaffingPolicy, error)
	Upsert(ctx context.Context, policy *models.StaffingPolicy) error
}

type auditRecorder interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// PolicyService resolves and mutates per-studio staffing policies.
type PolicyService struct {
	repo      policyStore
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPolicyService constructs a PolicyService.
func NewPolicyService(repo policyStore, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *PolicyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PolicyService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// Resolve returns the studio's policy, falling back to the defaults when the
// studio has never saved settings.
func (s *PolicyService) Resolve(ctx context.Context, studioID string) (*models.StaffingPolicy, error) {
	policy, err := s.repo.Get(ctx, studioID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			fallback := models.DefaultStaffingPolicy(studioID)
			return &fallback, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staffing policy")
	}
	return policy, nil
}

// Get returns the caller's studio policy.
func (s *PolicyService) Get(ctx context.Context, claims *models.JWTClaims) (*models.StaffingPolicy, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return s.Resolve(ctx, claims.StudioID)
}

// Update applies a partial settings change. Merchant only.
func (s *PolicyService) Update(ctx context.Context, claims *models.JWTClaims, input dto.PolicyUpdateInput) (*models.StaffingPolicy, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleMerchant {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the studio can change staffing settings")
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}

	policy, err := s.Resolve(ctx, claims.StudioID)
	if err != nil {
		return nil, err
	}

	if input.RequireApproval != nil {
		policy.RequireApproval = *input.RequireApproval
	}
	if input.MaxWeeklyHours != nil {
		policy.MaxWeeklyHours = *input.MaxWeeklyHours
	}
	if input.MinHoursBetweenClasses != nil {
		policy.MinHoursBetweenClasses = *input.MinHoursBetweenClasses
	}
	if input.AllowSelfSwap != nil {
		policy.AllowSelfSwap = *input.AllowSelfSwap
	}
	if input.AllowCoverageRequest != nil {
		policy.AllowCoverageRequest = *input.AllowCoverageRequest
	}
	if input.NotifyOnSwapRequest != nil {
		policy.NotifyOnSwapRequest = *input.NotifyOnSwapRequest
	}
	if input.NotifyOnCoverageRequest != nil {
		policy.NotifyOnCoverageRequest = *input.NotifyOnCoverageRequest
	}
	if input.SwapExpiryHours != nil {
		policy.SwapExpiryHours = *input.SwapExpiryHours
	}
	policy.StudioID = claims.StudioID

	if err := s.repo.Upsert(ctx, policy); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save staffing policy")
	}

	s.recordAudit(ctx, claims, policy)
	return policy, nil
}

func (s *PolicyService) recordAudit(ctx context.Context, claims *models.JWTClaims, policy *models.StaffingPolicy) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(policy)
	client := models.ClientInfoFromContext(ctx)
	entry := &models.AuditLog{
		UserID:     &claims.UserID,
		StudioID:   claims.StudioID,
		Action:     models.AuditActionPolicyUpdated,
		Resource:   "staffing_policy",
		ResourceID: &policy.StudioID,
		NewValues:  payload,
		IPAddress:  client.IP,
		UserAgent:  client.UserAgent,
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record policy audit", zap.Error(err))
	}
}
