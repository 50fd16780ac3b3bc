package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/thryve/staffing-api/internal/models"
)

const instructorColumns = `id, studio_id, full_name, email, specialties, active, created_at`

// InstructorRepository reads instructor profiles. The profile subsystem owns
// writes.
type InstructorRepository struct {
	db *sqlx.DB
}

// NewInstructorRepository constructs an InstructorRepository.
func NewInstructorRepository(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

// FindByID fetches an instructor by ID.
func (r *InstructorRepository) FindByID(ctx context.Context, id string) (*models.Instructor, error) {
	query := fmt.Sprintf(`SELECT %s FROM instructors WHERE id = $1`, instructorColumns)
	var instructor models.Instructor
	if err := r.db.GetContext(ctx, &instructor, query, id); err != nil {
		return nil, err
	}
	return &instructor, nil
}

// ExistsInStudio reports whether the instructor is an active member of the
// studio.
func (r *InstructorRepository) ExistsInStudio(ctx context.Context, instructorID, studioID string) (bool, error) {
	const query = `SELECT 1 FROM instructors WHERE id = $1 AND studio_id = $2 AND active LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, instructorID, studioID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check studio membership: %w", err)
	}
	return true, nil
}

// ListByStudio returns instructors in a studio matching the filter along with
// the total count.
func (r *InstructorRepository) ListByStudio(ctx context.Context, studioID string, filter models.InstructorFilter) ([]models.Instructor, int, error) {
	base := "FROM instructors WHERE studio_id = $1"
	args := []interface{}{studioID}

	if filter.Active != nil {
		base += fmt.Sprintf(" AND active = $%d", len(args)+1)
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		base += fmt.Sprintf(" AND (LOWER(full_name) LIKE $%d OR LOWER(email) LIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, search)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY full_name ASC LIMIT %d OFFSET %d", instructorColumns, base, size, offset)
	var instructors []models.Instructor
	if err := r.db.SelectContext(ctx, &instructors, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list instructors: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count instructors: %w", err)
	}

	return instructors, total, nil
}
