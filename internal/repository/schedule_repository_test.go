package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScheduleRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func classInstanceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "studio_id", "class_name", "start_time", "end_time", "capacity",
		"enrolled_count", "location", "assigned_instructor_id", "needs_coverage",
		"version", "created_at", "updated_at",
	})
}

func TestScheduleRepositoryStudioExists(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM studios WHERE id = $1 LIMIT 1`)).
		WithArgs("studio-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.StudioExists(context.Background(), "studio-1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestScheduleRepositoryStudioExistsMissing(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM studios`)).
		WithArgs("studio-99").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.StudioExists(context.Background(), "studio-99")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestScheduleRepositoryListByInstructor(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	now := time.Now().UTC()
	rows := classInstanceRows().
		AddRow("class-1", "studio-1", "Vinyasa Flow", now.Add(2*time.Hour), now.Add(3*time.Hour),
			20, 12, "Room A", "inst-1", false, 1, now, now)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM class_instances WHERE assigned_instructor_id = $1`)).
		WithArgs("inst-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	classes, err := repo.ListByInstructor(context.Background(), "inst-1", now, now.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "class-1", classes[0].ID)
	assert.True(t, classes[0].AssignedTo("inst-1"))
}

func TestScheduleRepositorySumAssignedHours(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`COALESCE(SUM(EXTRACT(EPOCH FROM (end_time - start_time)) / 3600.0), 0)`)).
		WithArgs("inst-1", "class-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(7.5))

	hours, err := repo.SumAssignedHours(context.Background(), "inst-1",
		time.Now(), time.Now().Add(7*24*time.Hour), "class-1")
	require.NoError(t, err)
	assert.InDelta(t, 7.5, hours, 0.001)
}

func TestScheduleRepositoryReassign(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	now := time.Now().UTC()
	rows := classInstanceRows().
		AddRow("class-1", "studio-1", "Spin", now, now.Add(time.Hour),
			20, 12, "Room B", "inst-2", false, 4, now, now)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE class_instances
SET assigned_instructor_id = $2, version = version + 1, updated_at = $4
WHERE id = $1 AND version = $3`)).
		WithArgs("class-1", "inst-2", 3, sqlmock.AnyArg()).
		WillReturnRows(rows)

	class, err := repo.Reassign(context.Background(), "class-1", "inst-2", 3)
	require.NoError(t, err)
	assert.Equal(t, 4, class.Version)
	assert.True(t, class.AssignedTo("inst-2"))
}

func TestScheduleRepositoryReassignVersionConflict(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE class_instances`)).
		WithArgs("class-1", "inst-2", 3, sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Reassign(context.Background(), "class-1", "inst-2", 3)
	assert.ErrorIs(t, err, ErrVersionConflict)
}
