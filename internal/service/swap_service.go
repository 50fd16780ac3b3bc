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

type swapStore interface {
	Create(ctx context.Context, swap *models.SwapRequest) error
	FindByID(ctx context.Context, id string) (*models.SwapRequest, error)
	FindActiveByInitiator(ctx context.Context, classInstanceID, initiatorID string) (*models.SwapRequest, error)
	ListByInstructor(ctx context.Context, instructorID string) ([]models.SwapRequest, error)
	ListPendingApprovalByStudio(ctx context.Context, studioID string) ([]models.SwapRequest, error)
	UpdateStatus(ctx context.Context, id string, from, to models.SwapStatus, reason string, resolvedAt *time.Time) error
	ResolveWithReassign(ctx context.Context, id string, from, to models.SwapStatus, classInstanceID, newInstructorID string, expectedVersion int) error
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

type classReader interface {
	FindByID(ctx context.Context, id string) (*models.ClassInstance, error)
}

type assignmentValidator interface {
	ValidateAssignment(ctx context.Context, class *models.ClassInstance, candidateID string, policy *models.StaffingPolicy) error
}

type cacheCoordinator interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	DeleteByPattern(ctx context.Context, pattern string) error
}

type notifier interface {
	Publish(notification models.Notification)
}

// SwapServiceConfig tunes the swap engine.
type SwapServiceConfig struct {
	DefaultExpiry time.Duration
	DedupWindow   time.Duration
}

// SwapService implements the instructor-to-instructor swap workflow.
type SwapService struct {
	repo      swapStore
	classes   classReader
	schedule  assignmentValidator
	roster    rosterChecker
	policies  policyResolver
	cache     cacheCoordinator
	notify    notifier
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
	cfg       SwapServiceConfig
}

// NewSwapService constructs a SwapService.
func NewSwapService(
	repo swapStore,
	classes classReader,
	schedule assignmentValidator,
	roster rosterChecker,
	policies policyResolver,
	cache cacheCoordinator,
	notify notifier,
	audit auditRecorder,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg SwapServiceConfig,
) *SwapService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultExpiry <= 0 {
		cfg.DefaultExpiry = 7 * 24 * time.Hour
	}
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = 30 * time.Second
	}
	return &SwapService{
		repo:      repo,
		classes:   classes,
		schedule:  schedule,
		roster:    roster,
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

// Request creates a swap request. Resubmitting while an identical request is
// still active returns the existing request unchanged.
func (s *SwapService) Request(ctx context.Context, claims *models.JWTClaims, input dto.SwapRequestInput) (*models.SwapRequest, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleInstructor {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only instructors can request swaps")
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid swap payload")
	}
	if input.RecipientInstructorID == claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot request a swap with yourself")
	}

	class, err := s.findClass(ctx, input.ClassInstanceID)
	if err != nil {
		return nil, err
	}
	if class.StudioID != claims.StudioID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "class belongs to another studio")
	}
	if !class.AssignedTo(claims.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assigned instructor can offer this class")
	}

	now := s.now()
	if !class.StartTime.After(now) {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "class has already started")
	}

	policy, err := s.policies.Resolve(ctx, claims.StudioID)
	if err != nil {
		return nil, err
	}
	if !policy.AllowSelfSwap {
		return nil, appErrors.Clone(appErrors.ErrPolicyViolation, "instructor-arranged swaps are disabled for this studio")
	}

	member, err := s.roster.ExistsInStudio(ctx, input.RecipientInstructorID, claims.StudioID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check roster")
	}
	if !member {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "recipient instructor not found in studio")
	}

	// Short-window dedup absorbs double submissions. Redis being down is not
	// fatal; the insert guard below still holds the invariant.
	dedupKey := fmt.Sprintf("staffing:dedup:swap:%s:%s", class.ID, claims.UserID)
	won, err := s.cache.Acquire(ctx, dedupKey, s.cfg.DedupWindow)
	if err != nil {
		s.logger.Warn("swap dedup unavailable", zap.Error(err))
	} else if !won {
		if existing, err := s.repo.FindActiveByInitiator(ctx, class.ID, claims.UserID); err == nil {
			return existing, nil
		}
	}

	swap := &models.SwapRequest{
		StudioID:              class.StudioID,
		ClassInstanceID:       class.ID,
		InitiatorInstructorID: claims.UserID,
		RecipientInstructorID: input.RecipientInstructorID,
		Message:               input.Message,
		Status:                models.SwapPending,
		CreatedAt:             now,
		ExpiresAt:             now.Add(s.expiry(policy)),
	}
	if err := s.repo.Create(ctx, swap); err != nil {
		if errors.Is(err, repository.ErrStateChanged) {
			if existing, findErr := s.repo.FindActiveByInitiator(ctx, class.ID, claims.UserID); findErr == nil {
				return existing, nil
			}
			return nil, appErrors.Clone(appErrors.ErrConflict, "class already has an active swap request")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create swap request")
	}

	s.invalidateDashboard(ctx, claims.StudioID)
	s.recordAudit(ctx, claims, models.AuditActionSwapRequested, swap)
	if policy.NotifyOnSwapRequest {
		s.notify.Publish(models.Notification{
			Type:        models.NotifySwapRequested,
			StudioID:    swap.StudioID,
			RecipientID: swap.RecipientInstructorID,
			SubjectID:   swap.ID,
			Message:     swap.Message,
			CreatedAt:   now,
		})
	}

	return swap, nil
}

// Accept is the recipient taking the swap. Depending on policy the request
// either resolves immediately with a reassignment or escalates to the studio.
func (s *SwapService) Accept(ctx context.Context, claims *models.JWTClaims, input dto.SwapDecisionInput) (*models.SwapRequest, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}

	swap, err := s.findSwap(ctx, input.SwapRequestID)
	if err != nil {
		return nil, err
	}
	if swap.StudioID != claims.StudioID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "swap belongs to another studio")
	}
	if swap.RecipientInstructorID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the recipient can accept this swap")
	}

	now := s.now()
	if swap.ExpiredBy(now) {
		s.expireNow(ctx, swap, now)
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "swap request has expired")
	}
	if swap.Status != models.SwapPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("swap request is %s", swap.Status))
	}

	class, err := s.findClass(ctx, swap.ClassInstanceID)
	if err != nil {
		return nil, err
	}
	if !class.AssignedTo(swap.InitiatorInstructorID) {
		return nil, s.rejectWithReason(ctx, swap, models.SwapPending, "class is no longer assigned to the initiator",
			appErrors.Clone(appErrors.ErrConflict, "class is no longer assigned to the initiator"))
	}

	policy, err := s.policies.Resolve(ctx, swap.StudioID)
	if err != nil {
		return nil, err
	}

	if policy.RequireApproval {
		if err := s.repo.UpdateStatus(ctx, swap.ID, models.SwapPending, models.SwapAwaitingApproval, "", nil); err != nil {
			if errors.Is(err, repository.ErrStateChanged) {
				return nil, appErrors.Clone(appErrors.ErrConflict, "swap request changed concurrently")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to escalate swap")
		}
		swap.Status = models.SwapAwaitingApproval
		s.invalidateDashboard(ctx, swap.StudioID)
		s.notify.Publish(models.Notification{
			Type:        models.NotifySwapAwaiting,
			StudioID:    swap.StudioID,
			RecipientID: swap.StudioID,
			SubjectID:   swap.ID,
			CreatedAt:   now,
		})
		return swap, nil
	}

	if err := s.schedule.ValidateAssignment(ctx, class, claims.UserID, policy); err != nil {
		return nil, s.rejectWithReason(ctx, swap, models.SwapPending, appErrors.FromError(err).Message, err)
	}

	if err := s.repo.ResolveWithReassign(ctx, swap.ID, models.SwapPending, models.SwapAccepted, class.ID, claims.UserID, class.Version); err != nil {
		switch {
		case errors.Is(err, repository.ErrStateChanged):
			return nil, appErrors.Clone(appErrors.ErrConflict, "swap request was resolved concurrently")
		case errors.Is(err, repository.ErrVersionConflict):
			conflict := appErrors.Clone(appErrors.ErrConflict, "class assignment changed concurrently")
			return nil, s.rejectWithReason(ctx, swap, models.SwapPending, conflict.Message, conflict)
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve swap")
		}
	}

	swap.Status = models.SwapAccepted
	resolved := now
	swap.ResolvedAt = &resolved
	s.invalidateDashboard(ctx, swap.StudioID)
	s.recordAudit(ctx, claims, models.AuditActionSwapResolved, swap)
	s.notify.Publish(models.Notification{
		Type:        models.NotifySwapResolved,
		StudioID:    swap.StudioID,
		RecipientID: swap.InitiatorInstructorID,
		SubjectID:   swap.ID,
		CreatedAt:   now,
	})
	return swap, nil
}

// Reject is the recipient declining a pending swap.
func (s *SwapService) Reject(ctx context.Context, claims *models.JWTClaims, input dto.SwapDecisionInput) (*models.SwapRequest, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}

	swap, err := s.findSwap(ctx, input.SwapRequestID)
	if err != nil {
		return nil, err
	}
	if swap.StudioID != claims.StudioID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "swap belongs to another studio")
	}
	if swap.RecipientInstructorID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the recipient can reject this swap")
	}

	now := s.now()
	if swap.ExpiredBy(now) {
		s.expireNow(ctx, swap, now)
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "swap request has expired")
	}
	if swap.Status != models.SwapPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("swap request is %s", swap.Status))
	}

	reason := input.Reason
	if reason == "" {
		reason = "declined by recipient"
	}
	if err := s.repo.UpdateStatus(ctx, swap.ID, models.SwapPending, models.SwapRejected, reason, &now); err != nil {
		if errors.Is(err, repository.ErrStateChanged) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "swap request changed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject swap")
	}

	swap.Status = models.SwapRejected
	swap.ResolutionReason = reason
	swap.ResolvedAt = &now
	s.invalidateDashboard(ctx, swap.StudioID)
	s.recordAudit(ctx, claims, models.AuditActionSwapResolved, swap)
	s.notify.Publish(models.Notification{
		Type:        models.NotifySwapResolved,
		StudioID:    swap.StudioID,
		RecipientID: swap.InitiatorInstructorID,
		SubjectID:   swap.ID,
		Message:     reason,
		CreatedAt:   now,
	})
	return swap, nil
}

// Approve records the studio's decision on a swap that escalated to
// AWAITING_APPROVAL. Merchant only.
func (s *SwapService) Approve(ctx context.Context, claims *models.JWTClaims, input dto.SwapApprovalInput) (*models.SwapRequest, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleMerchant {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the studio can approve swaps")
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approval payload")
	}

	swap, err := s.findSwap(ctx, input.SwapRequestID)
	if err != nil {
		return nil, err
	}
	if swap.StudioID != claims.StudioID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "swap belongs to another studio")
	}

	now := s.now()
	if swap.ExpiredBy(now) {
		s.expireNow(ctx, swap, now)
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "swap request has expired")
	}
	if swap.Status != models.SwapAwaitingApproval {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("swap request is %s", swap.Status))
	}

	if !input.Approve {
		reason := input.Reason
		if reason == "" {
			reason = "rejected by studio"
		}
		if err := s.repo.UpdateStatus(ctx, swap.ID, models.SwapAwaitingApproval, models.SwapRejected, reason, &now); err != nil {
			if errors.Is(err, repository.ErrStateChanged) {
				return nil, appErrors.Clone(appErrors.ErrConflict, "swap request changed concurrently")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject swap")
		}
		swap.Status = models.SwapRejected
		swap.ResolutionReason = reason
		swap.ResolvedAt = &now
		s.invalidateDashboard(ctx, swap.StudioID)
		s.recordAudit(ctx, claims, models.AuditActionSwapApproved, swap)
		s.notifyParties(swap, reason, now)
		return swap, nil
	}

	class, err := s.findClass(ctx, swap.ClassInstanceID)
	if err != nil {
		return nil, err
	}
	if !class.AssignedTo(swap.InitiatorInstructorID) {
		return nil, s.rejectWithReason(ctx, swap, models.SwapAwaitingApproval, "class is no longer assigned to the initiator",
			appErrors.Clone(appErrors.ErrConflict, "class is no longer assigned to the initiator"))
	}

	policy, err := s.policies.Resolve(ctx, swap.StudioID)
	if err != nil {
		return nil, err
	}
	if err := s.schedule.ValidateAssignment(ctx, class, swap.RecipientInstructorID, policy); err != nil {
		return nil, s.rejectWithReason(ctx, swap, models.SwapAwaitingApproval, appErrors.FromError(err).Message, err)
	}

	if err := s.repo.ResolveWithReassign(ctx, swap.ID, models.SwapAwaitingApproval, models.SwapApproved, class.ID, swap.RecipientInstructorID, class.Version); err != nil {
		switch {
		case errors.Is(err, repository.ErrStateChanged):
			return nil, appErrors.Clone(appErrors.ErrConflict, "swap request was resolved concurrently")
		case errors.Is(err, repository.ErrVersionConflict):
			conflict := appErrors.Clone(appErrors.ErrConflict, "class assignment changed concurrently")
			return nil, s.rejectWithReason(ctx, swap, models.SwapAwaitingApproval, conflict.Message, conflict)
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve swap")
		}
	}

	swap.Status = models.SwapApproved
	swap.ResolvedAt = &now
	s.invalidateDashboard(ctx, swap.StudioID)
	s.recordAudit(ctx, claims, models.AuditActionSwapApproved, swap)
	s.notifyParties(swap, "", now)
	return swap, nil
}

// ListForInstructor returns every swap where the caller is a party.
func (s *SwapService) ListForInstructor(ctx context.Context, claims *models.JWTClaims) ([]models.SwapRequest, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}

	s.sweep(ctx)

	swaps, err := s.repo.ListByInstructor(ctx, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list swaps")
	}
	return swaps, nil
}

// ListPendingApprovals returns the studio's escalated swaps, oldest first.
// Merchant only.
func (s *SwapService) ListPendingApprovals(ctx context.Context, claims *models.JWTClaims) ([]models.SwapRequest, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleMerchant {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the studio can list pending approvals")
	}

	s.sweep(ctx)

	swaps, err := s.repo.ListPendingApprovalByStudio(ctx, claims.StudioID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending approvals")
	}
	return swaps, nil
}

// ExpireStale sweeps overdue active swaps. The background ticker calls this;
// list reads also trigger it so staleness never exceeds one request.
func (s *SwapService) ExpireStale(ctx context.Context) (int64, error) {
	return s.repo.ExpireStale(ctx, s.now())
}

func (s *SwapService) sweep(ctx context.Context) {
	if n, err := s.repo.ExpireStale(ctx, s.now()); err != nil {
		s.logger.Warn("swap expiry sweep failed", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("expired stale swaps", zap.Int64("count", n))
	}
}

func (s *SwapService) expiry(policy *models.StaffingPolicy) time.Duration {
	if policy.SwapExpiryHours > 0 {
		return time.Duration(policy.SwapExpiryHours) * time.Hour
	}
	return s.cfg.DefaultExpiry
}

// expireNow persists a lazily observed expiry. Losing the race to the sweeper
// is fine.
func (s *SwapService) expireNow(ctx context.Context, swap *models.SwapRequest, now time.Time) {
	if err := s.repo.UpdateStatus(ctx, swap.ID, swap.Status, models.SwapExpired, "expired without response", &now); err != nil && !errors.Is(err, repository.ErrStateChanged) {
		s.logger.Warn("failed to persist swap expiry", zap.String("swap_request_id", swap.ID), zap.Error(err))
	}
	swap.Status = models.SwapExpired
}

// rejectWithReason flips the swap to REJECTED recording why, then surfaces
// cause to the caller.
func (s *SwapService) rejectWithReason(ctx context.Context, swap *models.SwapRequest, from models.SwapStatus, reason string, cause error) error {
	now := s.now()
	if err := s.repo.UpdateStatus(ctx, swap.ID, from, models.SwapRejected, reason, &now); err != nil {
		if errors.Is(err, repository.ErrStateChanged) {
			return appErrors.Clone(appErrors.ErrConflict, "swap request changed concurrently")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record swap rejection")
	}
	swap.Status = models.SwapRejected
	swap.ResolutionReason = reason
	swap.ResolvedAt = &now
	s.invalidateDashboard(ctx, swap.StudioID)
	s.notify.Publish(models.Notification{
		Type:        models.NotifySwapResolved,
		StudioID:    swap.StudioID,
		RecipientID: swap.InitiatorInstructorID,
		SubjectID:   swap.ID,
		Message:     reason,
		CreatedAt:   now,
	})
	return cause
}

func (s *SwapService) notifyParties(swap *models.SwapRequest, message string, now time.Time) {
	for _, recipient := range []string{swap.InitiatorInstructorID, swap.RecipientInstructorID} {
		s.notify.Publish(models.Notification{
			Type:        models.NotifySwapResolved,
			StudioID:    swap.StudioID,
			RecipientID: recipient,
			SubjectID:   swap.ID,
			Message:     message,
			CreatedAt:   now,
		})
	}
}

func (s *SwapService) findSwap(ctx context.Context, id string) (*models.SwapRequest, error) {
	swap, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "swap request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load swap request")
	}
	return swap, nil
}

func (s *SwapService) findClass(ctx context.Context, id string) (*models.ClassInstance, error) {
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

func (s *SwapService) invalidateDashboard(ctx context.Context, studioID string) {
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("staffing:dashboard:%s*", studioID)); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

func (s *SwapService) recordAudit(ctx context.Context, claims *models.JWTClaims, action string, swap *models.SwapRequest) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(swap)
	client := models.ClientInfoFromContext(ctx)
	entry := &models.AuditLog{
		UserID:     &claims.UserID,
		StudioID:   swap.StudioID,
		Action:     action,
		Resource:   "swap_request",
		ResourceID: &swap.ID,
		NewValues:  payload,
		IPAddress:  client.IP,
		UserAgent:  client.UserAgent,
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record swap audit", zap.Error(err))
	}
}
