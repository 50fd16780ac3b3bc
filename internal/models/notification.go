package models

import "time"

// NotificationType enumerates the events the engines emit.
type NotificationType string

const (
	NotifySwapRequested    NotificationType = "SWAP_REQUESTED"
	NotifySwapResolved     NotificationType = "SWAP_RESOLVED"
	NotifySwapAwaiting     NotificationType = "SWAP_AWAITING_APPROVAL"
	NotifyCoverageOpened   NotificationType = "COVERAGE_OPENED"
	NotifyCoverageApplied  NotificationType = "COVERAGE_APPLIED"
	NotifyCoverageResolved NotificationType = "COVERAGE_RESOLVED"
)

// Notification is the event payload handed to the external notifier.
type Notification struct {
	Type        NotificationType `json:"type"`
	StudioID    string           `json:"studioId"`
	RecipientID string           `json:"recipientId"`
	SubjectID   string           `json:"subjectId"`
	Message     string           `json:"message,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}
