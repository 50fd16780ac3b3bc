package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thryve/staffing-api/internal/dto"
	"github.com/thryve/staffing-api/internal/models"
	appErrors "github.com/thryve/staffing-api/pkg/errors"
)

type dashboardReadersStub struct {
	classes  []models.ClassInstance
	swaps    []models.SwapRequest
	coverage []models.CoverageRequest
}

func (s dashboardReadersStub) ListByStudio(ctx context.Context, studioID string, from, to time.Time) ([]models.ClassInstance, error) {
	return s.classes, nil
}

func (s dashboardReadersStub) ListPendingApprovalByStudio(ctx context.Context, studioID string) ([]models.SwapRequest, error) {
	return s.swaps, nil
}

func (s dashboardReadersStub) ListOpenByStudio(ctx context.Context, studioID string) ([]models.CoverageRequest, error) {
	return s.coverage, nil
}

type dashboardRosterStub struct {
	instructors []models.Instructor
	activeCount int
}

func (s dashboardRosterStub) ListByStudio(ctx context.Context, studioID string, filter models.InstructorFilter) ([]models.Instructor, int, error) {
	return s.instructors, s.activeCount, nil
}

type dashboardCacheStub struct {
	entries map[string]*dto.StudioDashboard
	sets    int
}

func (s *dashboardCacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	if cached, ok := s.entries[key]; ok {
		*dest.(*dto.StudioDashboard) = *cached
		return nil
	}
	return appErrors.ErrCacheMiss
}

func (s *dashboardCacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	s.sets++
	s.entries[key] = value.(*dto.StudioDashboard)
	return nil
}

func newDashboardServiceForTest(readers dashboardReadersStub, roster dashboardRosterStub, cache *dashboardCacheStub) *DashboardService {
	return NewDashboardService(DashboardServiceParams{
		Schedule: readers,
		Swaps:    readers,
		Coverage: readers,
		Roster:   roster,
		Cache:    cache,
	})
}

func TestDashboardNilServiceReportsDisabled(t *testing.T) {
	var svc *DashboardService

	_, _, err := svc.Studio(context.Background(), merchantClaims("studio-1"), time.Time{}, time.Time{})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnavailable.Code, appErr.Code)
}

func TestDashboardMerchantOnly(t *testing.T) {
	svc := newDashboardServiceForTest(dashboardReadersStub{}, dashboardRosterStub{},
		&dashboardCacheStub{entries: map[string]*dto.StudioDashboard{}})

	_, _, err := svc.Studio(context.Background(), instructorClaims("inst-1", "studio-1"), time.Time{}, time.Time{})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestDashboardComposesStats(t *testing.T) {
	unassigned := models.ClassInstance{ID: "class-2"}
	assignee := "inst-1"
	readers := dashboardReadersStub{
		classes: []models.ClassInstance{
			{ID: "class-1", AssignedInstructorID: &assignee},
			unassigned,
			{ID: "class-3", AssignedInstructorID: &assignee, NeedsCoverage: true},
		},
		swaps: []models.SwapRequest{{ID: "swap-1", Status: models.SwapAwaitingApproval}},
		coverage: []models.CoverageRequest{
			{ID: "cov-1", Urgent: true},
			{ID: "cov-2"},
		},
	}
	roster := dashboardRosterStub{
		instructors: []models.Instructor{{ID: "inst-1"}, {ID: "inst-2"}},
		activeCount: 2,
	}
	cache := &dashboardCacheStub{entries: map[string]*dto.StudioDashboard{}}
	svc := newDashboardServiceForTest(readers, roster, cache)

	dashboard, cacheHit, err := svc.Studio(context.Background(), merchantClaims("studio-1"), time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.False(t, cacheHit)

	assert.Equal(t, 3, dashboard.Stats.UpcomingClasses)
	assert.Equal(t, 2, dashboard.Stats.UncoveredClasses)
	assert.Equal(t, 1, dashboard.Stats.PendingApprovals)
	assert.Equal(t, 2, dashboard.Stats.OpenCoverage)
	assert.Equal(t, 1, dashboard.Stats.UrgentCoverage)
	assert.Equal(t, 2, dashboard.Stats.ActiveInstructors)
	assert.Len(t, dashboard.PendingSwaps, 1)
	assert.Len(t, dashboard.Instructors, 2)
	assert.Equal(t, 1, cache.sets)
}

func TestDashboardServedFromCache(t *testing.T) {
	cache := &dashboardCacheStub{entries: map[string]*dto.StudioDashboard{}}
	svc := newDashboardServiceForTest(dashboardReadersStub{}, dashboardRosterStub{}, cache)

	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(7 * 24 * time.Hour)

	first, cacheHit, err := svc.Studio(context.Background(), merchantClaims("studio-1"), from, to)
	require.NoError(t, err)
	assert.False(t, cacheHit)

	second, cacheHit, err := svc.Studio(context.Background(), merchantClaims("studio-1"), from, to)
	require.NoError(t, err)
	assert.True(t, cacheHit)
	assert.Equal(t, first.Stats.GeneratedAt, second.Stats.GeneratedAt)
	assert.Equal(t, 1, cache.sets)
}

func TestDashboardInvertedWindow(t *testing.T) {
	svc := newDashboardServiceForTest(dashboardReadersStub{}, dashboardRosterStub{},
		&dashboardCacheStub{entries: map[string]*dto.StudioDashboard{}})

	now := time.Now().UTC()
	_, _, err := svc.Studio(context.Background(), merchantClaims("studio-1"), now, now.Add(-time.Hour))
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
