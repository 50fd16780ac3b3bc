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

	"github.com/thryve/staffing-api/internal/models"
)

func newPolicyRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
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

func TestPolicyRepositoryGet(t *testing.T) {
	db, mock, cleanup := newPolicyRepoMock(t)
	defer cleanup()
	repo := NewPolicyRepository(db)

	rows := sqlmock.NewRows([]string{
		"studio_id", "require_approval", "max_weekly_hours", "min_hours_between_classes",
		"allow_self_swap", "allow_coverage_request", "notify_on_swap_request",
		"notify_on_coverage_request", "swap_expiry_hours", "updated_at",
	}).AddRow("studio-1", true, 35.0, 1.5, true, true, true, false, 72, time.Now().UTC())

	mock.ExpectQuery(regexp.QuoteMeta(`FROM staffing_policies WHERE studio_id = $1`)).
		WithArgs("studio-1").
		WillReturnRows(rows)

	policy, err := repo.Get(context.Background(), "studio-1")
	require.NoError(t, err)
	assert.True(t, policy.RequireApproval)
	assert.InDelta(t, 35.0, policy.MaxWeeklyHours, 0.001)
	assert.Equal(t, 72, policy.SwapExpiryHours)
}

func TestPolicyRepositoryGetMissing(t *testing.T) {
	db, mock, cleanup := newPolicyRepoMock(t)
	defer cleanup()
	repo := NewPolicyRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM staffing_policies`)).
		WithArgs("studio-99").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "studio-99")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestPolicyRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newPolicyRepoMock(t)
	defer cleanup()
	repo := NewPolicyRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO staffing_policies`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	policy := models.DefaultStaffingPolicy("studio-1")
	policy.RequireApproval = true
	err := repo.Upsert(context.Background(), &policy)
	require.NoError(t, err)
	assert.False(t, policy.UpdatedAt.IsZero())
}
