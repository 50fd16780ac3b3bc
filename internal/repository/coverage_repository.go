package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/thryve/staffing-api/internal/models"
)

// ErrAlreadyApplied signals a duplicate application by the same instructor.
var ErrAlreadyApplied = errors.New("instructor already applied")

const coverageColumns = `id, studio_id, class_instance_id, requesting_instructor_id, message, urgent, status, filled_by_instructor_id, created_at, resolved_at`

const applicantColumns = `id, coverage_request_id, instructor_id, message, status, position, applied_at`

// CoverageRepository persists coverage requests and their applicant pools.
type CoverageRepository struct {
	db *sqlx.DB
}

// NewCoverageRepository constructs a CoverageRepository.
func NewCoverageRepository(db *sqlx.DB) *CoverageRepository {
	return &CoverageRepository{db: db}
}

// Create inserts a coverage request unless the class already has an open one,
// and flags the class as needing coverage. A blocked insert returns
// ErrStateChanged.
func (r *CoverageRepository) Create(ctx context.Context, req *models.CoverageRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin coverage create: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insert = `INSERT INTO coverage_requests (id, studio_id, class_instance_id, requesting_instructor_id, message, urgent, status, created_at)
SELECT $1, $2, $3, $4, $5, $6, $7, $8
WHERE NOT EXISTS (
	SELECT 1 FROM coverage_requests WHERE class_instance_id = $3 AND status = 'OPEN'
)`
	result, err := tx.ExecContext(ctx, insert,
		req.ID, req.StudioID, req.ClassInstanceID, req.RequestingInstructorID,
		req.Message, req.Urgent, req.Status, req.CreatedAt)
	if err != nil {
		return fmt.Errorf("create coverage request: %w", err)
	}
	if affected, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("check created coverage rows: %w", err)
	} else if affected == 0 {
		return ErrStateChanged
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE class_instances SET needs_coverage = TRUE, updated_at = $2 WHERE id = $1`,
		req.ClassInstanceID, time.Now().UTC()); err != nil {
		return fmt.Errorf("flag class needs coverage: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit coverage create: %w", err)
	}
	return nil
}

// FindByID fetches a coverage request with its applicants in arrival order.
func (r *CoverageRepository) FindByID(ctx context.Context, id string) (*models.CoverageRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM coverage_requests WHERE id = $1`, coverageColumns)
	var req models.CoverageRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	applicants, err := r.listApplicants(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Applicants = applicants
	return &req, nil
}

// FindOpenByClass returns the open coverage request for a class, if any.
func (r *CoverageRepository) FindOpenByClass(ctx context.Context, classInstanceID string) (*models.CoverageRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM coverage_requests WHERE class_instance_id = $1 AND status = 'OPEN' LIMIT 1`, coverageColumns)
	var req models.CoverageRequest
	if err := r.db.GetContext(ctx, &req, query, classInstanceID); err != nil {
		return nil, err
	}
	applicants, err := r.listApplicants(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	req.Applicants = applicants
	return &req, nil
}

// ListOpenByStudio returns open coverage requests, urgent first then oldest
// first, with applicants attached.
func (r *CoverageRepository) ListOpenByStudio(ctx context.Context, studioID string) ([]models.CoverageRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM coverage_requests
WHERE studio_id = $1 AND status = 'OPEN'
ORDER BY urgent DESC, created_at ASC`, coverageColumns)
	var reqs []models.CoverageRequest
	if err := r.db.SelectContext(ctx, &reqs, query, studioID); err != nil {
		return nil, fmt.Errorf("list open coverage: %w", err)
	}
	return r.attachApplicants(ctx, reqs)
}

// ListByInstructor returns coverage requests the instructor initiated or
// applied to, newest first.
func (r *CoverageRepository) ListByInstructor(ctx context.Context, instructorID string) ([]models.CoverageRequest, error) {
	const query = `SELECT DISTINCT cr.id, cr.studio_id, cr.class_instance_id, cr.requesting_instructor_id, cr.message, cr.urgent, cr.status, cr.filled_by_instructor_id, cr.created_at, cr.resolved_at
FROM coverage_requests cr
LEFT JOIN coverage_applicants ca ON ca.coverage_request_id = cr.id
WHERE cr.requesting_instructor_id = $1 OR ca.instructor_id = $1
ORDER BY cr.created_at DESC`
	var reqs []models.CoverageRequest
	if err := r.db.SelectContext(ctx, &reqs, query, instructorID); err != nil {
		return nil, fmt.Errorf("list coverage for instructor: %w", err)
	}
	return r.attachApplicants(ctx, reqs)
}

// AddApplicant appends an application. The request row is locked for the
// duration so arrival order is deterministic under concurrency.
func (r *CoverageRepository) AddApplicant(ctx context.Context, coverageRequestID string, applicant *models.CoverageApplicant) error {
	if applicant.ID == "" {
		applicant.ID = uuid.NewString()
	}
	if applicant.AppliedAt.IsZero() {
		applicant.AppliedAt = time.Now().UTC()
	}
	applicant.CoverageRequestID = coverageRequestID
	applicant.Status = models.ApplicantPending

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add applicant: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var status models.CoverageStatus
	if err := tx.GetContext(ctx, &status,
		`SELECT status FROM coverage_requests WHERE id = $1 FOR UPDATE`, coverageRequestID); err != nil {
		return err
	}
	if status != models.CoverageOpen {
		return ErrStateChanged
	}

	var dup int
	err = tx.GetContext(ctx, &dup,
		`SELECT 1 FROM coverage_applicants WHERE coverage_request_id = $1 AND instructor_id = $2 LIMIT 1`,
		coverageRequestID, applicant.InstructorID)
	if err == nil {
		return ErrAlreadyApplied
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("check duplicate applicant: %w", err)
	}

	if err := tx.GetContext(ctx, &applicant.Position,
		`SELECT COALESCE(MAX(position), 0) + 1 FROM coverage_applicants WHERE coverage_request_id = $1`,
		coverageRequestID); err != nil {
		return fmt.Errorf("next applicant position: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO coverage_applicants (id, coverage_request_id, instructor_id, message, status, position, applied_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		applicant.ID, applicant.CoverageRequestID, applicant.InstructorID,
		applicant.Message, applicant.Status, applicant.Position, applicant.AppliedAt); err != nil {
		return fmt.Errorf("insert applicant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit add applicant: %w", err)
	}
	return nil
}

// Fill resolves a coverage request in one transaction: claims the OPEN row,
// reassigns the class under the version check, accepts the chosen applicant
// and declines the rest. Any failed step rolls the whole thing back.
func (r *CoverageRepository) Fill(ctx context.Context, id, chosenInstructorID, classInstanceID string, expectedVersion int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin coverage fill: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()

	result, err := tx.ExecContext(ctx,
		`UPDATE coverage_requests SET status = 'FILLED', filled_by_instructor_id = $2, resolved_at = $3 WHERE id = $1 AND status = 'OPEN'`,
		id, chosenInstructorID, now)
	if err != nil {
		return fmt.Errorf("claim coverage request: %w", err)
	}
	if affected, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("check claimed coverage rows: %w", err)
	} else if affected == 0 {
		return ErrStateChanged
	}

	result, err = tx.ExecContext(ctx,
		`UPDATE class_instances SET assigned_instructor_id = $2, needs_coverage = FALSE, version = version + 1, updated_at = $4 WHERE id = $1 AND version = $3`,
		classInstanceID, chosenInstructorID, expectedVersion, now)
	if err != nil {
		return fmt.Errorf("reassign class for coverage: %w", err)
	}
	if affected, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("check reassigned class rows: %w", err)
	} else if affected == 0 {
		return ErrVersionConflict
	}

	result, err = tx.ExecContext(ctx,
		`UPDATE coverage_applicants SET status = 'ACCEPTED' WHERE coverage_request_id = $1 AND instructor_id = $2`,
		id, chosenInstructorID)
	if err != nil {
		return fmt.Errorf("accept chosen applicant: %w", err)
	}
	if affected, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("check accepted applicant rows: %w", err)
	} else if affected == 0 {
		return ErrStateChanged
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE coverage_applicants SET status = 'DECLINED' WHERE coverage_request_id = $1 AND instructor_id <> $2`,
		id, chosenInstructorID); err != nil {
		return fmt.Errorf("decline remaining applicants: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit coverage fill: %w", err)
	}
	return nil
}

// Cancel closes an open coverage request without filling it.
func (r *CoverageRepository) Cancel(ctx context.Context, id, classInstanceID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin coverage cancel: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()

	result, err := tx.ExecContext(ctx,
		`UPDATE coverage_requests SET status = 'CANCELLED', resolved_at = $2 WHERE id = $1 AND status = 'OPEN'`,
		id, now)
	if err != nil {
		return fmt.Errorf("cancel coverage request: %w", err)
	}
	if affected, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("check cancelled coverage rows: %w", err)
	} else if affected == 0 {
		return ErrStateChanged
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE class_instances SET needs_coverage = FALSE, updated_at = $2 WHERE id = $1`,
		classInstanceID, now); err != nil {
		return fmt.Errorf("clear class needs coverage: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE coverage_applicants SET status = 'DECLINED' WHERE coverage_request_id = $1 AND status = 'PENDING'`,
		id); err != nil {
		return fmt.Errorf("decline pending applicants: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit coverage cancel: %w", err)
	}
	return nil
}

func (r *CoverageRepository) listApplicants(ctx context.Context, coverageRequestID string) ([]models.CoverageApplicant, error) {
	query := fmt.Sprintf(`SELECT %s FROM coverage_applicants WHERE coverage_request_id = $1 ORDER BY position ASC`, applicantColumns)
	var applicants []models.CoverageApplicant
	if err := r.db.SelectContext(ctx, &applicants, query, coverageRequestID); err != nil {
		return nil, fmt.Errorf("list applicants: %w", err)
	}
	return applicants, nil
}

func (r *CoverageRepository) attachApplicants(ctx context.Context, reqs []models.CoverageRequest) ([]models.CoverageRequest, error) {
	if len(reqs) == 0 {
		return reqs, nil
	}
	ids := make([]string, len(reqs))
	for i, req := range reqs {
		ids[i] = req.ID
	}
	query, args, err := sqlx.In(
		fmt.Sprintf(`SELECT %s FROM coverage_applicants WHERE coverage_request_id IN (?) ORDER BY coverage_request_id, position ASC`, applicantColumns), ids)
	if err != nil {
		return nil, fmt.Errorf("build applicants query: %w", err)
	}
	query = r.db.Rebind(query)
	var applicants []models.CoverageApplicant
	if err := r.db.SelectContext(ctx, &applicants, query, args...); err != nil {
		return nil, fmt.Errorf("list applicants batch: %w", err)
	}
	byRequest := make(map[string][]models.CoverageApplicant, len(reqs))
	for _, a := range applicants {
		byRequest[a.CoverageRequestID] = append(byRequest[a.CoverageRequestID], a)
	}
	for i := range reqs {
		reqs[i].Applicants = byRequest[reqs[i].ID]
	}
	return reqs, nil
}
