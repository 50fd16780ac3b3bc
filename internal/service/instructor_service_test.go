package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thryve/staffing-api/internal/models"
	appErrors "github.com/thryve/staffing-api/pkg/errors"
)

type instructorStoreStub struct {
	instructors []models.Instructor
	total       int
	lastStudio  string
	lastFilter  models.InstructorFilter
}

func (s *instructorStoreStub) ListByStudio(ctx context.Context, studioID string, filter models.InstructorFilter) ([]models.Instructor, int, error) {
	s.lastStudio = studioID
	s.lastFilter = filter
	return s.instructors, s.total, nil
}

func TestInstructorListScopedToCallerStudio(t *testing.T) {
	repo := &instructorStoreStub{
		instructors: []models.Instructor{{ID: "inst-1"}},
		total:       1,
	}
	svc := NewInstructorService(repo, nil)

	instructors, pagination, err := svc.List(context.Background(), instructorClaims("inst-1", "studio-1"), models.InstructorFilter{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, "studio-1", repo.lastStudio)
	assert.Len(t, instructors, 1)
	assert.Equal(t, 2, pagination.Page)
	assert.Equal(t, 10, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestInstructorListClampsPaging(t *testing.T) {
	repo := &instructorStoreStub{}
	svc := NewInstructorService(repo, nil)

	_, pagination, err := svc.List(context.Background(), merchantClaims("studio-1"), models.InstructorFilter{Page: 0, PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lastFilter.Page)
	assert.Equal(t, 20, repo.lastFilter.PageSize)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
}

func TestInstructorListRequiresClaims(t *testing.T) {
	svc := NewInstructorService(&instructorStoreStub{}, nil)

	_, _, err := svc.List(context.Background(), nil, models.InstructorFilter{})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}
