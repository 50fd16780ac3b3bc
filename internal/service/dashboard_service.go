package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/thryve/staffing-api/internal/dto"
	"github.com/thryve/staffing-api/internal/models"
	appErrors "github.com/thryve/staffing-api/pkg/errors"
)

// dashboardRosterLimit caps the roster list on the dashboard.
const dashboardRosterLimit = 100

type dashboardScheduleReader interface {
	ListByStudio(ctx context.Context, studioID string, from, to time.Time) ([]models.ClassInstance, error)
}

type dashboardSwapReader interface {
	ListPendingApprovalByStudio(ctx context.Context, studioID string) ([]models.SwapRequest, error)
}

type dashboardCoverageReader interface {
	ListOpenByStudio(ctx context.Context, studioID string) ([]models.CoverageRequest, error)
}

type dashboardRosterReader interface {
	ListByStudio(ctx context.Context, studioID string, filter models.InstructorFilter) ([]models.Instructor, int, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type cacheObserver interface {
	RecordCacheOperation(hit bool, duration time.Duration)
}

// DashboardServiceConfig tunes the dashboard composition.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
	Window   time.Duration
}

// DashboardService composes the merchant staffing overview with cache-aside
// over Redis.
type DashboardService struct {
	schedule dashboardScheduleReader
	swaps    dashboardSwapReader
	coverage dashboardCoverageReader
	roster   dashboardRosterReader
	cache    dashboardCache
	metrics  cacheObserver
	logger   *zap.Logger
	now      func() time.Time
	cfg      DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Schedule dashboardScheduleReader
	Swaps    dashboardSwapReader
	Coverage dashboardCoverageReader
	Roster   dashboardRosterReader
	Cache    dashboardCache
	Metrics  cacheObserver
	Logger   *zap.Logger
	Config   DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 2 * time.Minute
	}
	if cfg.Window <= 0 {
		cfg.Window = 7 * 24 * time.Hour
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		schedule: params.Schedule,
		swaps:    params.Swaps,
		coverage: params.Coverage,
		roster:   params.Roster,
		cache:    params.Cache,
		metrics:  params.Metrics,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		cfg:      cfg,
	}
}

// Studio returns the staffing overview for the caller's studio and reports
// whether the payload came from cache. Merchant only. A zero window falls
// back to the configured default.
func (s *DashboardService) Studio(ctx context.Context, claims *models.JWTClaims, from, to time.Time) (*dto.StudioDashboard, bool, error) {
	if s == nil {
		return nil, false, appErrors.Clone(appErrors.ErrUnavailable, "dashboard is disabled")
	}
	if claims == nil {
		return nil, false, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleMerchant {
		return nil, false, appErrors.Clone(appErrors.ErrForbidden, "only the studio can view the staffing dashboard")
	}

	if from.IsZero() {
		from = s.now()
	}
	if to.IsZero() {
		to = from.Add(s.cfg.Window)
	}
	if to.Before(from) {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "endDate must not precede startDate")
	}
	from, to = from.UTC(), to.UTC()

	cacheKey := fmt.Sprintf("staffing:dashboard:%s:%d:%d", claims.StudioID, from.Unix(), to.Unix())
	start := time.Now()
	var cached dto.StudioDashboard
	err := s.cache.Get(ctx, cacheKey, &cached)
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	}
	if err == nil {
		return &cached, true, nil
	}
	if !errors.Is(err, appErrors.ErrCacheMiss) && !appErrors.HasCode(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("dashboard cache read failed", zap.Error(err))
	}

	dashboard, err := s.compose(ctx, claims.StudioID, from, to)
	if err != nil {
		return nil, false, err
	}

	if err := s.cache.Set(ctx, cacheKey, dashboard, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
	return dashboard, false, nil
}

func (s *DashboardService) compose(ctx context.Context, studioID string, from, to time.Time) (*dto.StudioDashboard, error) {
	classes, err := s.schedule.ListByStudio(ctx, studioID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list upcoming classes")
	}

	pendingSwaps, err := s.swaps.ListPendingApprovalByStudio(ctx, studioID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending approvals")
	}

	coverage, err := s.coverage.ListOpenByStudio(ctx, studioID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list open coverage")
	}

	active := true
	instructors, activeCount, err := s.roster.ListByStudio(ctx, studioID, models.InstructorFilter{Active: &active, Page: 1, PageSize: dashboardRosterLimit})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}

	uncovered := 0
	for _, class := range classes {
		if class.NeedsCoverage || class.AssignedInstructorID == nil {
			uncovered++
		}
	}
	urgent := 0
	for _, req := range coverage {
		if req.Urgent {
			urgent++
		}
	}

	return &dto.StudioDashboard{
		Stats: dto.DashboardStats{
			StudioID:          studioID,
			UpcomingClasses:   len(classes),
			UncoveredClasses:  uncovered,
			PendingApprovals:  len(pendingSwaps),
			OpenCoverage:      len(coverage),
			UrgentCoverage:    urgent,
			ActiveInstructors: activeCount,
			GeneratedAt:       s.now(),
		},
		Classes:      classes,
		PendingSwaps: pendingSwaps,
		OpenCoverage: coverage,
		Instructors:  instructors,
	}, nil
}
