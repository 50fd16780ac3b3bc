package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thryve/staffing-api/internal/dto"
	"github.com/thryve/staffing-api/internal/models"
	"github.com/thryve/staffing-api/internal/repository"
	appErrors "github.com/thryve/staffing-api/pkg/errors"
)

type scheduleStoreStub struct {
	studioExists bool
	classes      map[string]*models.ClassInstance
	studioList   []models.ClassInstance
	instrList    []models.ClassInstance
	neighbours   []models.ClassInstance
	hours        float64
	reassigned   *models.ClassInstance
	reassignErr  error

	reassignCalls int
	hoursFrom     time.Time
	hoursTo       time.Time
	aroundFrom    time.Time
	aroundTo      time.Time
}

func (s *scheduleStoreStub) StudioExists(ctx context.Context, studioID string) (bool, error) {
	return s.studioExists, nil
}

func (s *scheduleStoreStub) FindByID(ctx context.Context, id string) (*models.ClassInstance, error) {
	if class, ok := s.classes[id]; ok {
		return class, nil
	}
	return nil, sql.ErrNoRows
}

func (s *scheduleStoreStub) ListByStudio(ctx context.Context, studioID string, from, to time.Time) ([]models.ClassInstance, error) {
	return s.studioList, nil
}

func (s *scheduleStoreStub) ListByInstructor(ctx context.Context, instructorID string, from, to time.Time) ([]models.ClassInstance, error) {
	return s.instrList, nil
}

func (s *scheduleStoreStub) ListAssignedAround(ctx context.Context, instructorID string, from, to time.Time, excludeID string) ([]models.ClassInstance, error) {
	s.aroundFrom, s.aroundTo = from, to
	return s.neighbours, nil
}

func (s *scheduleStoreStub) SumAssignedHours(ctx context.Context, instructorID string, from, to time.Time, excludeID string) (float64, error) {
	s.hoursFrom, s.hoursTo = from, to
	return s.hours, nil
}

func (s *scheduleStoreStub) Reassign(ctx context.Context, classInstanceID, newInstructorID string, expectedVersion int) (*models.ClassInstance, error) {
	s.reassignCalls++
	if s.reassignErr != nil {
		return nil, s.reassignErr
	}
	return s.reassigned, nil
}

type rosterStub struct {
	member bool
	err    error
}

func (s rosterStub) ExistsInStudio(ctx context.Context, instructorID, studioID string) (bool, error) {
	return s.member, s.err
}

type policyResolverStub struct {
	policy *models.StaffingPolicy
	err    error
}

func (s policyResolverStub) Resolve(ctx context.Context, studioID string) (*models.StaffingPolicy, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.policy != nil {
		return s.policy, nil
	}
	policy := models.DefaultStaffingPolicy(studioID)
	return &policy, nil
}

type auditRecStub struct {
	entries []*models.AuditLog
}

func (s *auditRecStub) Create(ctx context.Context, entry *models.AuditLog) error {
	s.entries = append(s.entries, entry)
	return nil
}

func merchantClaims(studioID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: uuid.NewString(), Role: models.RoleMerchant, StudioID: studioID}
}

func instructorClaims(userID, studioID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Role: models.RoleInstructor, StudioID: studioID}
}

func futureClass(studioID, instructorID string) *models.ClassInstance {
	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)
	return &models.ClassInstance{
		ID:                   uuid.NewString(),
		StudioID:             studioID,
		ClassName:            "Vinyasa Flow",
		StartTime:            start,
		EndTime:              start.Add(time.Hour),
		Capacity:             20,
		AssignedInstructorID: &instructorID,
		Version:              1,
	}
}

func TestGetStudioScheduleUnknownStudio(t *testing.T) {
	repo := &scheduleStoreStub{studioExists: false}
	svc := NewScheduleService(repo, rosterStub{}, policyResolverStub{}, nil, nil, nil)

	_, err := svc.GetStudioSchedule(context.Background(), merchantClaims("studio-1"), dto.ScheduleQuery{})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestGetInstructorScheduleForcesOwnSchedule(t *testing.T) {
	repo := &scheduleStoreStub{
		studioExists: true,
		instrList:    []models.ClassInstance{{ID: "class-1"}},
	}
	svc := NewScheduleService(repo, rosterStub{}, policyResolverStub{}, nil, nil, nil)

	// Passing someone else's ID must not widen access for instructors.
	classes, err := svc.GetInstructorSchedule(context.Background(),
		instructorClaims("inst-1", "studio-1"),
		dto.ScheduleQuery{InstructorID: "inst-2"})
	require.NoError(t, err)
	assert.Len(t, classes, 1)
}

func TestGetInstructorScheduleMerchantRequiresID(t *testing.T) {
	svc := NewScheduleService(&scheduleStoreStub{}, rosterStub{}, policyResolverStub{}, nil, nil, nil)

	_, err := svc.GetInstructorSchedule(context.Background(), merchantClaims("studio-1"), dto.ScheduleQuery{})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestGetInstructorScheduleInvertedWindow(t *testing.T) {
	svc := NewScheduleService(&scheduleStoreStub{}, rosterStub{}, policyResolverStub{}, nil, nil, nil)

	now := time.Now().UTC()
	_, err := svc.GetInstructorSchedule(context.Background(),
		instructorClaims("inst-1", "studio-1"),
		dto.ScheduleQuery{From: now, To: now.Add(-time.Hour)})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestValidateAssignmentOverlap(t *testing.T) {
	class := futureClass("studio-1", "inst-1")
	repo := &scheduleStoreStub{
		neighbours: []models.ClassInstance{{
			ID:        uuid.NewString(),
			StartTime: class.StartTime.Add(30 * time.Minute),
			EndTime:   class.EndTime.Add(30 * time.Minute),
		}},
	}
	svc := NewScheduleService(repo, rosterStub{}, policyResolverStub{}, nil, nil, nil)

	policy := models.DefaultStaffingPolicy("studio-1")
	err := svc.ValidateAssignment(context.Background(), class, "inst-2", &policy)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestValidateAssignmentRestGap(t *testing.T) {
	class := futureClass("studio-1", "inst-1")
	// A class 30 minutes after this one ends: no overlap, but inside a 2h gap.
	repo := &scheduleStoreStub{
		neighbours: []models.ClassInstance{{
			ID:        uuid.NewString(),
			StartTime: class.EndTime.Add(30 * time.Minute),
			EndTime:   class.EndTime.Add(90 * time.Minute),
		}},
	}
	svc := NewScheduleService(repo, rosterStub{}, policyResolverStub{}, nil, nil, nil)

	policy := models.DefaultStaffingPolicy("studio-1")
	policy.MinHoursBetweenClasses = 2
	err := svc.ValidateAssignment(context.Background(), class, "inst-2", &policy)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPolicyViolation.Code, appErr.Code)

	// The lookup window must be widened by the rest gap on both sides.
	assert.Equal(t, class.StartTime.Add(-2*time.Hour), repo.aroundFrom)
	assert.Equal(t, class.EndTime.Add(2*time.Hour), repo.aroundTo)
}

func TestValidateAssignmentWeeklyHours(t *testing.T) {
	class := futureClass("studio-1", "inst-1")
	repo := &scheduleStoreStub{hours: 39.5}
	svc := NewScheduleService(repo, rosterStub{}, policyResolverStub{}, nil, nil, nil)

	policy := models.DefaultStaffingPolicy("studio-1")
	err := svc.ValidateAssignment(context.Background(), class, "inst-2", &policy)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPolicyViolation.Code, appErr.Code)

	// Hours are summed over the ISO week containing the class.
	assert.Equal(t, time.Monday, repo.hoursFrom.Weekday())
	assert.Equal(t, time.Duration(0), repo.hoursFrom.Sub(repo.hoursFrom.Truncate(24*time.Hour)))
	assert.Equal(t, repo.hoursFrom.AddDate(0, 0, 7), repo.hoursTo)
}

func TestValidateAssignmentAlreadyAssigned(t *testing.T) {
	class := futureClass("studio-1", "inst-1")
	svc := NewScheduleService(&scheduleStoreStub{}, rosterStub{}, policyResolverStub{}, nil, nil, nil)

	policy := models.DefaultStaffingPolicy("studio-1")
	err := svc.ValidateAssignment(context.Background(), class, "inst-1", &policy)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestValidateAssignmentClean(t *testing.T) {
	class := futureClass("studio-1", "inst-1")
	repo := &scheduleStoreStub{hours: 10}
	svc := NewScheduleService(repo, rosterStub{}, policyResolverStub{}, nil, nil, nil)

	policy := models.DefaultStaffingPolicy("studio-1")
	assert.NoError(t, svc.ValidateAssignment(context.Background(), class, "inst-2", &policy))
}

func TestReassignRequiresMerchant(t *testing.T) {
	svc := NewScheduleService(&scheduleStoreStub{}, rosterStub{}, policyResolverStub{}, nil, nil, nil)

	_, err := svc.Reassign(context.Background(),
		instructorClaims("inst-1", "studio-1"),
		dto.ReassignInput{ClassInstanceID: uuid.NewString(), InstructorID: uuid.NewString()})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestReassignVersionConflict(t *testing.T) {
	class := futureClass("studio-1", "inst-1")
	repo := &scheduleStoreStub{
		classes:     map[string]*models.ClassInstance{class.ID: class},
		reassignErr: repository.ErrVersionConflict,
	}
	svc := NewScheduleService(repo, rosterStub{member: true}, policyResolverStub{}, nil, nil, nil)

	_, err := svc.Reassign(context.Background(), merchantClaims("studio-1"),
		dto.ReassignInput{ClassInstanceID: class.ID, InstructorID: uuid.NewString()})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestReassignSuccess(t *testing.T) {
	class := futureClass("studio-1", "inst-1")
	newInstructor := uuid.NewString()
	updated := *class
	updated.AssignedInstructorID = &newInstructor
	updated.Version = 2

	repo := &scheduleStoreStub{
		classes:    map[string]*models.ClassInstance{class.ID: class},
		reassigned: &updated,
	}
	svc := NewScheduleService(repo, rosterStub{member: true}, policyResolverStub{}, nil, nil, nil)

	result, err := svc.Reassign(context.Background(), merchantClaims("studio-1"),
		dto.ReassignInput{ClassInstanceID: class.ID, InstructorID: newInstructor})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.reassignCalls)
	assert.True(t, result.AssignedTo(newInstructor))
}
