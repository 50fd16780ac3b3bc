package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/thryve/staffing-api/internal/models"
)

// ErrVersionConflict signals that an optimistic version check lost a race.
var ErrVersionConflict = errors.New("class instance version conflict")

const classInstanceColumns = `id, studio_id, class_name, start_time, end_time, capacity, enrolled_count, location, assigned_instructor_id, needs_coverage, version, created_at, updated_at`

// ScheduleRepository persists class instances and their assignments.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs a ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// StudioExists reports whether the studio is known.
func (r *ScheduleRepository) StudioExists(ctx context.Context, studioID string) (bool, error) {
	const query = `SELECT 1 FROM studios WHERE id = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studioID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check studio: %w", err)
	}
	return true, nil
}

// FindByID fetches a class instance by ID.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.ClassInstance, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_instances WHERE id = $1`, classInstanceColumns)
	var instance models.ClassInstance
	if err := r.db.GetContext(ctx, &instance, query, id); err != nil {
		return nil, err
	}
	return &instance, nil
}

// ListByStudio returns a studio's class instances starting inside [from, to],
// ordered by start time.
func (r *ScheduleRepository) ListByStudio(ctx context.Context, studioID string, from, to time.Time) ([]models.ClassInstance, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_instances WHERE studio_id = $1 AND start_time >= $2 AND start_time <= $3 ORDER BY start_time ASC`, classInstanceColumns)
	var instances []models.ClassInstance
	if err := r.db.SelectContext(ctx, &instances, query, studioID, from, to); err != nil {
		return nil, fmt.Errorf("list studio schedule: %w", err)
	}
	return instances, nil
}

// ListByInstructor returns classes assigned to the instructor starting inside
// [from, to], ordered by start time.
func (r *ScheduleRepository) ListByInstructor(ctx context.Context, instructorID string, from, to time.Time) ([]models.ClassInstance, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_instances WHERE assigned_instructor_id = $1 AND start_time >= $2 AND start_time <= $3 ORDER BY start_time ASC`, classInstanceColumns)
	var instances []models.ClassInstance
	if err := r.db.SelectContext(ctx, &instances, query, instructorID, from, to); err != nil {
		return nil, fmt.Errorf("list instructor schedule: %w", err)
	}
	return instances, nil
}

// ListAssignedAround returns the instructor's classes whose window touches
// [from, to], excluding excludeID. Feeds the overlap and rest-gap checks.
func (r *ScheduleRepository) ListAssignedAround(ctx context.Context, instructorID string, from, to time.Time, excludeID string) ([]models.ClassInstance, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_instances WHERE assigned_instructor_id = $1 AND id <> $2 AND end_time > $3 AND start_time < $4 ORDER BY start_time ASC`, classInstanceColumns)
	var instances []models.ClassInstance
	if err := r.db.SelectContext(ctx, &instances, query, instructorID, excludeID, from, to); err != nil {
		return nil, fmt.Errorf("list adjacent classes: %w", err)
	}
	return instances, nil
}

// SumAssignedHours returns total assigned teaching hours for the instructor
// over classes starting inside [from, to], excluding excludeID.
func (r *ScheduleRepository) SumAssignedHours(ctx context.Context, instructorID string, from, to time.Time, excludeID string) (float64, error) {
	const query = `SELECT COALESCE(SUM(EXTRACT(EPOCH FROM (end_time - start_time)) / 3600.0), 0)
FROM class_instances
WHERE assigned_instructor_id = $1 AND id <> $2 AND start_time >= $3 AND start_time <= $4`
	var hours float64
	if err := r.db.GetContext(ctx, &hours, query, instructorID, excludeID, from, to); err != nil {
		return 0, fmt.Errorf("sum assigned hours: %w", err)
	}
	return hours, nil
}

// Reassign swaps the assigned instructor iff the version still matches.
// Losing the version race returns ErrVersionConflict.
func (r *ScheduleRepository) Reassign(ctx context.Context, classInstanceID, newInstructorID string, expectedVersion int) (*models.ClassInstance, error) {
	query := fmt.Sprintf(`UPDATE class_instances
SET assigned_instructor_id = $2, version = version + 1, updated_at = $4
WHERE id = $1 AND version = $3
RETURNING %s`, classInstanceColumns)
	var instance models.ClassInstance
	err := r.db.GetContext(ctx, &instance, query, classInstanceID, newInstructorID, expectedVersion, time.Now().UTC())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrVersionConflict
		}
		return nil, fmt.Errorf("reassign class instance: %w", err)
	}
	return &instance, nil
}
