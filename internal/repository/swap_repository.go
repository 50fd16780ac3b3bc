package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/thryve/staffing-api/internal/models"
)

// ErrStateChanged signals that a status-predicated update found the row in a
// different state than expected.
var ErrStateChanged = errors.New("request state changed concurrently")

const swapColumns = `id, studio_id, class_instance_id, initiator_instructor_id, recipient_instructor_id, message, status, resolution_reason, created_at, expires_at, resolved_at`

// SwapRepository persists swap requests.
type SwapRepository struct {
	db *sqlx.DB
}

// NewSwapRepository constructs a SwapRepository.
func NewSwapRepository(db *sqlx.DB) *SwapRepository {
	return &SwapRepository{db: db}
}

// Create inserts a swap request unless the class already has an active one.
// The guard runs inside the insert so concurrent creates cannot both land;
// a blocked insert returns ErrStateChanged.
func (r *SwapRepository) Create(ctx context.Context, swap *models.SwapRequest) error {
	if swap.ID == "" {
		swap.ID = uuid.NewString()
	}
	if swap.CreatedAt.IsZero() {
		swap.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO swap_requests (id, studio_id, class_instance_id, initiator_instructor_id, recipient_instructor_id, message, status, created_at, expires_at)
SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9
WHERE NOT EXISTS (
	SELECT 1 FROM swap_requests
	WHERE class_instance_id = $3 AND status IN ('PENDING', 'AWAITING_APPROVAL')
)`
	result, err := r.db.ExecContext(ctx, query,
		swap.ID, swap.StudioID, swap.ClassInstanceID, swap.InitiatorInstructorID,
		swap.RecipientInstructorID, swap.Message, swap.Status, swap.CreatedAt, swap.ExpiresAt)
	if err != nil {
		return fmt.Errorf("create swap request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check created swap rows: %w", err)
	}
	if affected == 0 {
		return ErrStateChanged
	}
	return nil
}

// FindByID fetches a swap request.
func (r *SwapRepository) FindByID(ctx context.Context, id string) (*models.SwapRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM swap_requests WHERE id = $1`, swapColumns)
	var swap models.SwapRequest
	if err := r.db.GetContext(ctx, &swap, query, id); err != nil {
		return nil, err
	}
	return &swap, nil
}

// FindActiveByInitiator returns the initiator's active swap for a class, used
// to answer duplicate submissions idempotently.
func (r *SwapRepository) FindActiveByInitiator(ctx context.Context, classInstanceID, initiatorID string) (*models.SwapRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM swap_requests
WHERE class_instance_id = $1 AND initiator_instructor_id = $2 AND status IN ('PENDING', 'AWAITING_APPROVAL')
ORDER BY created_at DESC LIMIT 1`, swapColumns)
	var swap models.SwapRequest
	if err := r.db.GetContext(ctx, &swap, query, classInstanceID, initiatorID); err != nil {
		return nil, err
	}
	return &swap, nil
}

// ListByInstructor returns swaps where the instructor is either party, newest
// first.
func (r *SwapRepository) ListByInstructor(ctx context.Context, instructorID string) ([]models.SwapRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM swap_requests
WHERE initiator_instructor_id = $1 OR recipient_instructor_id = $1
ORDER BY created_at DESC`, swapColumns)
	var swaps []models.SwapRequest
	if err := r.db.SelectContext(ctx, &swaps, query, instructorID); err != nil {
		return nil, fmt.Errorf("list swaps for instructor: %w", err)
	}
	return swaps, nil
}

// ListPendingApprovalByStudio returns swaps awaiting studio approval, oldest
// first.
func (r *SwapRepository) ListPendingApprovalByStudio(ctx context.Context, studioID string) ([]models.SwapRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM swap_requests
WHERE studio_id = $1 AND status = 'AWAITING_APPROVAL'
ORDER BY created_at ASC`, swapColumns)
	var swaps []models.SwapRequest
	if err := r.db.SelectContext(ctx, &swaps, query, studioID); err != nil {
		return nil, fmt.Errorf("list pending approvals: %w", err)
	}
	return swaps, nil
}

// UpdateStatus transitions a swap from one status to another. Finding the row
// in any other state returns ErrStateChanged.
func (r *SwapRepository) UpdateStatus(ctx context.Context, id string, from, to models.SwapStatus, reason string, resolvedAt *time.Time) error {
	const query = `UPDATE swap_requests
SET status = $3, resolution_reason = $4, resolved_at = $5
WHERE id = $1 AND status = $2`
	result, err := r.db.ExecContext(ctx, query, id, from, to, reason, resolvedAt)
	if err != nil {
		return fmt.Errorf("update swap status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated swap rows: %w", err)
	}
	if affected == 0 {
		return ErrStateChanged
	}
	return nil
}

// ResolveWithReassign finalises a swap and reassigns the class in one
// transaction so no partial state survives a race. The class update is
// version-checked; losing that race rolls everything back.
func (r *SwapRepository) ResolveWithReassign(ctx context.Context, id string, from, to models.SwapStatus, classInstanceID, newInstructorID string, expectedVersion int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin swap resolution: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()

	result, err := tx.ExecContext(ctx,
		`UPDATE swap_requests SET status = $3, resolved_at = $4 WHERE id = $1 AND status = $2`,
		id, from, to, now)
	if err != nil {
		return fmt.Errorf("finalise swap status: %w", err)
	}
	if affected, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("check finalised swap rows: %w", err)
	} else if affected == 0 {
		return ErrStateChanged
	}

	result, err = tx.ExecContext(ctx,
		`UPDATE class_instances SET assigned_instructor_id = $2, version = version + 1, updated_at = $4 WHERE id = $1 AND version = $3`,
		classInstanceID, newInstructorID, expectedVersion, now)
	if err != nil {
		return fmt.Errorf("reassign class for swap: %w", err)
	}
	if affected, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("check reassigned class rows: %w", err)
	} else if affected == 0 {
		return ErrVersionConflict
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit swap resolution: %w", err)
	}
	return nil
}

// ExpireStale marks overdue active swaps as expired and returns how many rows
// were swept.
func (r *SwapRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	const query = `UPDATE swap_requests
SET status = 'EXPIRED', resolution_reason = 'expired without response', resolved_at = $1
WHERE status IN ('PENDING', 'AWAITING_APPROVAL') AND expires_at < $1`
	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("expire stale swaps: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check expired swap rows: %w", err)
	}
	return affected, nil
}
