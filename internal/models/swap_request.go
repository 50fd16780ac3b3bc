package models

import "time"

// SwapStatus enumerates swap request lifecycle states.
type SwapStatus string

const (
	SwapPending          SwapStatus = "PENDING"
	SwapAccepted         SwapStatus = "ACCEPTED"
	SwapAwaitingApproval SwapStatus = "AWAITING_APPROVAL"
	SwapApproved         SwapStatus = "APPROVED"
	SwapRejected         SwapStatus = "REJECTED"
	SwapExpired          SwapStatus = "EXPIRED"
)

// Active reports whether the status still awaits a party's action.
func (s SwapStatus) Active() bool {
	return s == SwapPending || s == SwapAwaitingApproval
}

// SwapRequest is an instructor-to-instructor shift swap proposal.
type SwapRequest struct {
	ID                    string     `db:"id" json:"id"`
	StudioID              string     `db:"studio_id" json:"studioId"`
	ClassInstanceID       string     `db:"class_instance_id" json:"classInstanceId"`
	InitiatorInstructorID string     `db:"initiator_instructor_id" json:"initiatorInstructorId"`
	RecipientInstructorID string     `db:"recipient_instructor_id" json:"recipientInstructorId"`
	Message               string     `db:"message" json:"message,omitempty"`
	Status                SwapStatus `db:"status" json:"status"`
	ResolutionReason      string     `db:"resolution_reason" json:"resolutionReason,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"createdAt"`
	ExpiresAt             time.Time  `db:"expires_at" json:"expiresAt"`
	ResolvedAt            *time.Time `db:"resolved_at" json:"resolvedAt,omitempty"`
}

// ExpiredBy reports whether the request should read as EXPIRED at now.
// Expiry is evaluated lazily on every read in addition to the sweep.
func (r SwapRequest) ExpiredBy(now time.Time) bool {
	return r.Status.Active() && now.After(r.ExpiresAt)
}
