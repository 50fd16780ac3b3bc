package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/thryve/staffing-api/internal/models"
	appErrors "github.com/thryve/staffing-api/pkg/errors"
)

type instructorStore interface {
	ListByStudio(ctx context.Context, studioID string, filter models.InstructorFilter) ([]models.Instructor, int, error)
}

// InstructorService exposes the studio roster, mainly for swap target and
// coverage pickers.
type InstructorService struct {
	repo   instructorStore
	logger *zap.Logger
}

// NewInstructorService constructs an InstructorService.
func NewInstructorService(repo instructorStore, logger *zap.Logger) *InstructorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstructorService{repo: repo, logger: logger}
}

// List returns the caller's studio roster with pagination metadata.
func (s *InstructorService) List(ctx context.Context, claims *models.JWTClaims, filter models.InstructorFilter) ([]models.Instructor, *models.Pagination, error) {
	if claims == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	instructors, total, err := s.repo.ListByStudio(ctx, claims.StudioID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}

	pagination := &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	}
	return instructors, pagination, nil
}
