package models

import (
	"context"
	"time"
)

// Audit actions recorded for staffing mutations.
const (
	AuditActionSwapRequested    = "SWAP_REQUESTED"
	AuditActionSwapResolved     = "SWAP_RESOLVED"
	AuditActionSwapApproved     = "SWAP_APPROVAL"
	AuditActionCoverageRequest  = "COVERAGE_REQUESTED"
	AuditActionCoverageApplied  = "COVERAGE_APPLIED"
	AuditActionCoverageResolved = "COVERAGE_RESOLVED"
	AuditActionPolicyUpdated    = "POLICY_UPDATED"
)

// ClientInfo carries request origin details captured by the gateway, so
// audit entries written deep in the service layer can include them.
type ClientInfo struct {
	IP        string
	UserAgent string
}

type clientInfoKey struct{}

// WithClientInfo stores client info on the request context.
func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

// ClientInfoFromContext extracts client info if the gateway captured it.
func ClientInfoFromContext(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(clientInfoKey{}).(ClientInfo)
	return info
}

// AuditLog is an append-only record of a staffing mutation.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"userId,omitempty"`
	StudioID   string    `db:"studio_id" json:"studioId"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resourceId,omitempty"`
	NewValues  []byte    `db:"new_values" json:"newValues,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ipAddress,omitempty"`
	UserAgent  string    `db:"user_agent" json:"userAgent,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
