package service

import (
	"context"
	"database/sql"
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

// defaultScheduleWindow bounds unfiltered schedule listings.
const defaultScheduleWindow = 14 * 24 * time.Hour

type scheduleStore interface {
	StudioExists(ctx context.Context, studioID string) (bool, error)
	FindByID(ctx context.Context, id string) (*models.ClassInstance, error)
	ListByStudio(ctx context.Context, studioID string, from, to time.Time) ([]models.ClassInstance, error)
	ListByInstructor(ctx context.Context, instructorID string, from, to time.Time) ([]models.ClassInstance, error)
	ListAssignedAround(ctx context.Context, instructorID string, from, to time.Time, excludeID string) ([]models.ClassInstance, error)
	SumAssignedHours(ctx context.Context, instructorID string, from, to time.Time, excludeID string) (float64, error)
	Reassign(ctx context.Context, classInstanceID, newInstructorID string, expectedVersion int) (*models.ClassInstance, error)
}

type rosterChecker interface {
	ExistsInStudio(ctx context.Context, instructorID, studioID string) (bool, error)
}

type policyResolver interface {
	Resolve(ctx context.Context, studioID string) (*models.StaffingPolicy, error)
}

// ScheduleService reads schedules and validates candidate assignments against
// the studio policy. The swap and coverage engines lean on it for eligibility.
type ScheduleService struct {
	repo      scheduleStore
	roster    rosterChecker
	policies  policyResolver
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(repo scheduleStore, roster rosterChecker, policies policyResolver, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		repo:      repo,
		roster:    roster,
		policies:  policies,
		audit:     audit,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GetStudioSchedule lists the caller's studio classes inside the query window.
func (s *ScheduleService) GetStudioSchedule(ctx context.Context, claims *models.JWTClaims, query dto.ScheduleQuery) ([]models.ClassInstance, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}

	from, to, err := s.resolveWindow(query)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.StudioExists(ctx, claims.StudioID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check studio")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "studio not found")
	}

	classes, err := s.repo.ListByStudio(ctx, claims.StudioID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list studio schedule")
	}
	return classes, nil
}

// GetInstructorSchedule lists classes assigned to one instructor. Instructors
// always see their own schedule; merchants may pass any roster member.
func (s *ScheduleService) GetInstructorSchedule(ctx context.Context, claims *models.JWTClaims, query dto.ScheduleQuery) ([]models.ClassInstance, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}

	instructorID := query.InstructorID
	switch claims.Role {
	case models.RoleInstructor:
		instructorID = claims.UserID
	case models.RoleMerchant:
		if instructorID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "instructor_id is required")
		}
		member, err := s.roster.ExistsInStudio(ctx, instructorID, claims.StudioID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check roster")
		}
		if !member {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found in studio")
		}
	default:
		return nil, appErrors.ErrForbidden
	}

	from, to, err := s.resolveWindow(query)
	if err != nil {
		return nil, err
	}

	classes, err := s.repo.ListByInstructor(ctx, instructorID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructor schedule")
	}
	return classes, nil
}

// Reassign directly hands a class to another instructor. Merchant only; the
// candidate still has to clear the policy checks.
func (s *ScheduleService) Reassign(ctx context.Context, claims *models.JWTClaims, input dto.ReassignInput) (*models.ClassInstance, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleMerchant {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the studio can reassign directly")
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reassign payload")
	}

	class, err := s.findClass(ctx, input.ClassInstanceID)
	if err != nil {
		return nil, err
	}
	if class.StudioID != claims.StudioID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "class belongs to another studio")
	}

	member, err := s.roster.ExistsInStudio(ctx, input.InstructorID, claims.StudioID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check roster")
	}
	if !member {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found in studio")
	}

	policy, err := s.policies.Resolve(ctx, claims.StudioID)
	if err != nil {
		return nil, err
	}
	if err := s.ValidateAssignment(ctx, class, input.InstructorID, policy); err != nil {
		return nil, err
	}

	updated, err := s.repo.Reassign(ctx, class.ID, input.InstructorID, class.Version)
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "class assignment changed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reassign class")
	}

	s.logger.Info("class reassigned",
		zap.String("class_instance_id", class.ID),
		zap.String("instructor_id", input.InstructorID))
	return updated, nil
}

// ValidateAssignment checks whether candidateID may take the class under the
// studio policy: no overlapping assignment, rest gap respected, weekly hours
// cap not exceeded.
func (s *ScheduleService) ValidateAssignment(ctx context.Context, class *models.ClassInstance, candidateID string, policy *models.StaffingPolicy) error {
	if class.AssignedTo(candidateID) {
		return appErrors.Clone(appErrors.ErrValidation, "instructor is already assigned to this class")
	}

	restGap := time.Duration(policy.MinHoursBetweenClasses * float64(time.Hour))
	neighbours, err := s.repo.ListAssignedAround(ctx, candidateID, class.StartTime.Add(-restGap), class.EndTime.Add(restGap), class.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check adjacent classes")
	}
	for _, n := range neighbours {
		if n.Overlaps(class.StartTime, class.EndTime) {
			return appErrors.Clone(appErrors.ErrConflict, "instructor has an overlapping class")
		}
		if restGap > 0 {
			return appErrors.Clone(appErrors.ErrPolicyViolation,
				fmt.Sprintf("assignment violates the %.1fh rest gap between classes", policy.MinHoursBetweenClasses))
		}
	}

	if policy.MaxWeeklyHours > 0 {
		weekStart, weekEnd := weekWindow(class.StartTime)
		hours, err := s.repo.SumAssignedHours(ctx, candidateID, weekStart, weekEnd, class.ID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum weekly hours")
		}
		if hours+class.Duration().Hours() > policy.MaxWeeklyHours {
			return appErrors.Clone(appErrors.ErrPolicyViolation,
				fmt.Sprintf("assignment exceeds the %.1fh weekly limit", policy.MaxWeeklyHours))
		}
	}

	return nil
}

func (s *ScheduleService) findClass(ctx context.Context, id string) (*models.ClassInstance, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

func (s *ScheduleService) resolveWindow(query dto.ScheduleQuery) (time.Time, time.Time, error) {
	from := query.From
	to := query.To
	if from.IsZero() {
		from = s.now()
	}
	if to.IsZero() {
		to = from.Add(defaultScheduleWindow)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "to must not precede from")
	}
	return from.UTC(), to.UTC(), nil
}

// weekWindow returns the UTC week (Monday 00:00 inclusive, next Monday
// exclusive) containing t.
func weekWindow(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 7)
}
