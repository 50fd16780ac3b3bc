package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/thryve/staffing-api/internal/dto"
	"github.com/thryve/staffing-api/internal/models"
	"github.com/thryve/staffing-api/internal/repository"
	appErrors "github.com/thryve/staffing-api/pkg/errors"
)

type coverageStore interface {
	Create(ctx context.Context, req *models.CoverageRequest) error
	FindByID(ctx context.Context, id string) (*models.CoverageRequest, error)
	FindOpenByClass(ctx context.Context, classInstanceID string) (*models.CoverageRequest, error)
	ListOpenByStudio(ctx context.Context, studioID string) ([]models.CoverageRequest, error)
	ListByInstructor(ctx context.Context, instructorID string) ([]models.CoverageRequest, error)
	AddApplicant(ctx context.Context, coverageRequestID string, applicant *models.CoverageApplicant) error
	Fill(ctx context.Context, id, chosenInstructorID, classInstanceID string, expectedVersion int) error
	Cancel(ctx context.Context, id, classInstanceID string) error
}

// CoverageServiceConfig tunes the coverage engine.
type CoverageServiceConfig struct {
	DedupWindow time.Duration
}

// CoverageService implements the open coverage pool: broadcast requests,
// applications, and resolution.
type CoverageService struct {
	repo      coverageStore
	classes   classReader
	schedule  assignmentValidator
	policies  policyResolver
	cache     cacheCoordinator
	notify    notifier
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
	cfg       CoverageServiceConfig
}

// NewCoverageService constructs a CoverageService.
func NewCoverageService(
	repo coverageStore,
	classes classReader,
	schedule assignmentValidator,
	policies policyResolver,
	cache cacheCoordinator,
	notify notifier,
	audit auditRecorder,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg CoverageServiceConfig,
) *CoverageService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = 30 * time.Second
	}
	return &CoverageService{
		repo:      repo,
		classes:   classes,
		schedule:  schedule,
		policies:  policies,
		cache:     cache,
		notify:    notify,
		audit:     audit,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		cfg:       cfg,
	}
}

// Request opens a coverage request for a class. The assigned instructor or
// the studio may open one; resubmitting returns the existing open request.
func (s *CoverageService) Request(ctx context.Context, claims *models.JWTClaims, input dto.CoverageRequestInput) (*models.CoverageRequest, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid coverage payload")
	}

	class, err := s.findClass(ctx, input.ClassInstanceID)
	if err != nil {
		return nil, err
	}
	if class.StudioID != claims.StudioID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "class belongs to another studio")
	}
	if claims.Role == models.RoleInstructor && !class.AssignedTo(claims.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assigned instructor can request coverage")
	}

	now := s.now()
	if !class.StartTime.After(now) {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "class has already started")
	}

	policy, err := s.policies.Resolve(ctx, claims.StudioID)
	if err != nil {
		return nil, err
	}
	if claims.Role == models.RoleInstructor && !policy.AllowCoverageRequest {
		return nil, appErrors.Clone(appErrors.ErrPolicyViolation, "coverage requests are disabled for this studio")
	}

	dedupKey := fmt.Sprintf("staffing:dedup:coverage:%s:%s", class.ID, claims.UserID)
	won, err := s.cache.Acquire(ctx, dedupKey, s.cfg.DedupWindow)
	if err != nil {
		s.logger.Warn("coverage dedup unavailable", zap.Error(err))
	} else if !won {
		if existing, err := s.repo.FindOpenByClass(ctx, class.ID); err == nil {
			return existing, nil
		}
	}

	req := &models.CoverageRequest{
		StudioID:               class.StudioID,
		ClassInstanceID:        class.ID,
		RequestingInstructorID: claims.UserID,
		Message:                input.Message,
		Urgent:                 input.Urgent,
		Status:                 models.CoverageOpen,
		CreatedAt:              now,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		if errors.Is(err, repository.ErrStateChanged) {
			if existing, findErr := s.repo.FindOpenByClass(ctx, class.ID); findErr == nil {
				if existing.RequestingInstructorID == claims.UserID {
					return existing, nil
				}
				return nil, appErrors.Clone(appErrors.ErrConflict, "class already has an open coverage request")
			}
			return nil, appErrors.Clone(appErrors.ErrConflict, "class already has an open coverage request")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create coverage request")
	}

	s.invalidateDashboard(ctx, claims.StudioID)
	s.recordAudit(ctx, claims, models.AuditActionCoverageRequest, req)
	if policy.NotifyOnCoverageRequest {
		s.notify.Publish(models.Notification{
			Type:        models.NotifyCoverageOpened,
			StudioID:    req.StudioID,
			RecipientID: req.StudioID,
			SubjectID:   req.ID,
			Message:     req.Message,
			CreatedAt:   now,
		})
	}

	return req, nil
}

// Apply adds the caller to an open coverage pool. Eligibility is checked
// eagerly so hopeless applications are turned away immediately. Applying
// twice returns the pool unchanged.
func (s *CoverageService) Apply(ctx context.Context, claims *models.JWTClaims, input dto.CoverageApplyInput) (*models.CoverageRequest, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleInstructor {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only instructors can apply for coverage")
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}

	req, err := s.findRequest(ctx, input.CoverageRequestID)
	if err != nil {
		return nil, err
	}
	if req.StudioID != claims.StudioID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "coverage request belongs to another studio")
	}
	if req.RequestingInstructorID == claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot apply to your own coverage request")
	}
	if req.Status != models.CoverageOpen {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("coverage request is %s", req.Status))
	}
	if req.HasApplicant(claims.UserID) {
		return req, nil
	}

	class, err := s.findClass(ctx, req.ClassInstanceID)
	if err != nil {
		return nil, err
	}
	policy, err := s.policies.Resolve(ctx, claims.StudioID)
	if err != nil {
		return nil, err
	}
	if err := s.schedule.ValidateAssignment(ctx, class, claims.UserID, policy); err != nil {
		return nil, err
	}

	applicant := &models.CoverageApplicant{
		InstructorID: claims.UserID,
		Message:      input.Message,
	}
	if err := s.repo.AddApplicant(ctx, req.ID, applicant); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyApplied):
			// fall through to the reload below
		case errors.Is(err, repository.ErrStateChanged):
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "coverage request is no longer open")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply for coverage")
		}
	}

	updated, err := s.findRequest(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, claims, models.AuditActionCoverageApplied, updated)
	s.notify.Publish(models.Notification{
		Type:        models.NotifyCoverageApplied,
		StudioID:    updated.StudioID,
		RecipientID: updated.RequestingInstructorID,
		SubjectID:   updated.ID,
		CreatedAt:   s.now(),
	})
	return updated, nil
}

// Resolve picks an applicant and hands them the class. The requesting
// instructor or the studio may resolve.
func (s *CoverageService) Resolve(ctx context.Context, claims *models.JWTClaims, input dto.CoverageResolveInput) (*models.CoverageRequest, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resolution payload")
	}

	req, err := s.findRequest(ctx, input.CoverageRequestID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnerOrMerchant(claims, req); err != nil {
		return nil, err
	}
	if req.Status != models.CoverageOpen {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("coverage request is %s", req.Status))
	}

	var chosen *models.CoverageApplicant
	for i := range req.Applicants {
		if req.Applicants[i].InstructorID == input.InstructorID {
			chosen = &req.Applicants[i]
			break
		}
	}
	if chosen == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "instructor has not applied for this coverage")
	}
	if chosen.Status != models.ApplicantPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("applicant is %s", chosen.Status))
	}

	class, err := s.findClass(ctx, req.ClassInstanceID)
	if err != nil {
		return nil, err
	}
	policy, err := s.policies.Resolve(ctx, req.StudioID)
	if err != nil {
		return nil, err
	}
	// Conditions may have shifted since the application; re-check before the
	// final commit.
	if err := s.schedule.ValidateAssignment(ctx, class, input.InstructorID, policy); err != nil {
		return nil, err
	}

	if err := s.repo.Fill(ctx, req.ID, input.InstructorID, class.ID, class.Version); err != nil {
		switch {
		case errors.Is(err, repository.ErrStateChanged):
			return nil, appErrors.Clone(appErrors.ErrConflict, "coverage request was resolved concurrently")
		case errors.Is(err, repository.ErrVersionConflict):
			return nil, appErrors.Clone(appErrors.ErrConflict, "class assignment changed concurrently")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve coverage")
		}
	}

	updated, err := s.findRequest(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	s.invalidateDashboard(ctx, updated.StudioID)
	s.recordAudit(ctx, claims, models.AuditActionCoverageResolved, updated)
	for _, recipient := range []string{input.InstructorID, updated.RequestingInstructorID} {
		s.notify.Publish(models.Notification{
			Type:        models.NotifyCoverageResolved,
			StudioID:    updated.StudioID,
			RecipientID: recipient,
			SubjectID:   updated.ID,
			CreatedAt:   now,
		})
	}
	return updated, nil
}

// Cancel withdraws an open coverage request.
func (s *CoverageService) Cancel(ctx context.Context, claims *models.JWTClaims, input dto.CoverageCancelInput) (*models.CoverageRequest, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cancel payload")
	}

	req, err := s.findRequest(ctx, input.CoverageRequestID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnerOrMerchant(claims, req); err != nil {
		return nil, err
	}
	if req.Status != models.CoverageOpen {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("coverage request is %s", req.Status))
	}

	if err := s.repo.Cancel(ctx, req.ID, req.ClassInstanceID); err != nil {
		if errors.Is(err, repository.ErrStateChanged) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "coverage request was resolved concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel coverage")
	}

	updated, err := s.findRequest(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	s.invalidateDashboard(ctx, updated.StudioID)
	s.recordAudit(ctx, claims, models.AuditActionCoverageResolved, updated)
	return updated, nil
}

// ListOpen returns the studio's open coverage requests, urgent first.
func (s *CoverageService) ListOpen(ctx context.Context, claims *models.JWTClaims) ([]models.CoverageRequest, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	reqs, err := s.repo.ListOpenByStudio(ctx, claims.StudioID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list open coverage")
	}
	return reqs, nil
}

// ListMine returns coverage requests the caller initiated or applied to.
func (s *CoverageService) ListMine(ctx context.Context, claims *models.JWTClaims) ([]models.CoverageRequest, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	reqs, err := s.repo.ListByInstructor(ctx, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list coverage requests")
	}
	return reqs, nil
}

func (s *CoverageService) requireOwnerOrMerchant(claims *models.JWTClaims, req *models.CoverageRequest) error {
	if req.StudioID != claims.StudioID {
		return appErrors.Clone(appErrors.ErrForbidden, "coverage request belongs to another studio")
	}
	if claims.Role == models.RoleMerchant {
		return nil
	}
	if req.RequestingInstructorID != claims.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the requester or the studio can do this")
	}
	return nil
}

func (s *CoverageService) findRequest(ctx context.Context, id string) (*models.CoverageRequest, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "coverage request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load coverage request")
	}
	return req, nil
}

func (s *CoverageService) findClass(ctx context.Context, id string) (*models.ClassInstance, error) {
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

func (s *CoverageService) invalidateDashboard(ctx context.Context, studioID string) {
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("staffing:dashboard:%s*", studioID)); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

func (s *CoverageService) recordAudit(ctx context.Context, claims *models.JWTClaims, action string, req *models.CoverageRequest) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(req)
	client := models.ClientInfoFromContext(ctx)
	entry := &models.AuditLog{
		UserID:     &claims.UserID,
		StudioID:   req.StudioID,
		Action:     action,
		Resource:   "coverage_request",
		ResourceID: &req.ID,
		NewValues:  payload,
		IPAddress:  client.IP,
		UserAgent:  client.UserAgent,
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record coverage audit", zap.Error(err))
	}
}
