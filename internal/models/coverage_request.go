package models

import "time"

// CoverageStatus enumerates coverage request lifecycle states.
type CoverageStatus string

const (
	CoverageOpen      CoverageStatus = "OPEN"
	CoverageFilled    CoverageStatus = "FILLED"
	CoverageCancelled CoverageStatus = "CANCELLED"
)

// ApplicantStatus enumerates per-applicant states on a coverage request.
type ApplicantStatus string

const (
	ApplicantPending  ApplicantStatus = "PENDING"
	ApplicantAccepted ApplicantStatus = "ACCEPTED"
	ApplicantDeclined ApplicantStatus = "DECLINED"
)

// CoverageRequest is a "class needs a substitute" posting.
type CoverageRequest struct {
	ID                     string         `db:"id" json:"id"`
	StudioID               string         `db:"studio_id" json:"studioId"`
	ClassInstanceID        string         `db:"class_instance_id" json:"classInstanceId"`
	RequestingInstructorID string         `db:"requesting_instructor_id" json:"requestingInstructorId"`
	Message                string         `db:"message" json:"message,omitempty"`
	Urgent                 bool           `db:"urgent" json:"urgent"`
	Status                 CoverageStatus `db:"status" json:"status"`
	FilledByInstructorID   *string        `db:"filled_by_instructor_id" json:"filledByInstructorId,omitempty"`
	CreatedAt              time.Time      `db:"created_at" json:"createdAt"`
	ResolvedAt             *time.Time     `db:"resolved_at" json:"resolvedAt,omitempty"`

	// Applicants in arrival order; loaded alongside the request.
	Applicants []CoverageApplicant `db:"-" json:"applicants"`
}

// CoverageApplicant is one instructor's application against a coverage
// request. Position preserves arrival order and is the display tie-break.
type CoverageApplicant struct {
	ID                string          `db:"id" json:"id"`
	CoverageRequestID string          `db:"coverage_request_id" json:"coverageRequestId"`
	InstructorID      string          `db:"instructor_id" json:"instructorId"`
	Message           string          `db:"message" json:"message,omitempty"`
	Status            ApplicantStatus `db:"status" json:"status"`
	Position          int             `db:"position" json:"position"`
	AppliedAt         time.Time       `db:"applied_at" json:"appliedAt"`
}

// HasApplicant reports whether instructorID already applied.
func (r CoverageRequest) HasApplicant(instructorID string) bool {
	for _, a := range r.Applicants {
		if a.InstructorID == instructorID {
			return true
		}
	}
	return false
}
