package models

import "time"

// StaffingPolicy holds the per-studio rules both engines enforce.
// SwapExpiryHours of zero means "use the service default".
type StaffingPolicy struct {
	StudioID                string    `db:"studio_id" json:"studioId"`
	RequireApproval         bool      `db:"require_approval" json:"requireApproval"`
	MaxWeeklyHours          float64   `db:"max_weekly_hours" json:"maxWeeklyHours"`
	MinHoursBetweenClasses  float64   `db:"min_hours_between_classes" json:"minHoursBetweenClasses"`
	AllowSelfSwap           bool      `db:"allow_self_swap" json:"allowSelfSwap"`
	AllowCoverageRequest    bool      `db:"allow_coverage_request" json:"allowCoverageRequest"`
	NotifyOnSwapRequest     bool      `db:"notify_on_swap_request" json:"notifyOnSwapRequest"`
	NotifyOnCoverageRequest bool      `db:"notify_on_coverage_request" json:"notifyOnCoverageRequest"`
	SwapExpiryHours         int       `db:"swap_expiry_hours" json:"swapExpiryHours"`
	UpdatedAt               time.Time `db:"updated_at" json:"updatedAt"`
}

// DefaultStaffingPolicy returns the rules applied before a studio has saved
// any settings.
func DefaultStaffingPolicy(studioID string) StaffingPolicy {
	return StaffingPolicy{
		StudioID:                studioID,
		RequireApproval:         false,
		MaxWeeklyHours:          40,
		MinHoursBetweenClasses:  0,
		AllowSelfSwap:           true,
		AllowCoverageRequest:    true,
		NotifyOnSwapRequest:     true,
		NotifyOnCoverageRequest: true,
	}
}
