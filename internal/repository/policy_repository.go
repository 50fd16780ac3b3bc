package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/thryve/staffing-api/internal/models"
)

// PolicyRepository persists per-studio staffing policies.
type PolicyRepository struct {
	db *sqlx.DB
}

// NewPolicyRepository constructs a PolicyRepository.
func NewPolicyRepository(db *sqlx.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

// Get fetches the policy for a studio. Returns sql.ErrNoRows if the studio
// has never saved settings.
func (r *PolicyRepository) Get(ctx context.Context, studioID string) (*models.StaffingPolicy, error) {
	const query = `SELECT studio_id, require_approval, max_weekly_hours, min_hours_between_classes, allow_self_swap, allow_coverage_request, notify_on_swap_request, notify_on_coverage_request, swap_expiry_hours, updated_at
FROM staffing_policies WHERE studio_id = $1`
	var policy models.StaffingPolicy
	if err := r.db.GetContext(ctx, &policy, query, studioID); err != nil {
		return nil, err
	}
	return &policy, nil
}

// Upsert creates or replaces the studio's policy.
func (r *PolicyRepository) Upsert(ctx context.Context, policy *models.StaffingPolicy) error {
	policy.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO staffing_policies (studio_id, require_approval, max_weekly_hours, min_hours_between_classes, allow_self_swap, allow_coverage_request, notify_on_swap_request, notify_on_coverage_request, swap_expiry_hours, updated_at)
VALUES (:studio_id, :require_approval, :max_weekly_hours, :min_hours_between_classes, :allow_self_swap, :allow_coverage_request, :notify_on_swap_request, :notify_on_coverage_request, :swap_expiry_hours, :updated_at)
ON CONFLICT (studio_id) DO UPDATE SET
	require_approval = EXCLUDED.require_approval,
	max_weekly_hours = EXCLUDED.max_weekly_hours,
	min_hours_between_classes = EXCLUDED.min_hours_between_classes,
	allow_self_swap = EXCLUDED.allow_self_swap,
	allow_coverage_request = EXCLUDED.allow_coverage_request,
	notify_on_swap_request = EXCLUDED.notify_on_swap_request,
	notify_on_coverage_request = EXCLUDED.notify_on_coverage_request,
	swap_expiry_hours = EXCLUDED.swap_expiry_hours,
	updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, policy); err != nil {
		return fmt.Errorf("upsert staffing policy: %w", err)
	}
	return nil
}
