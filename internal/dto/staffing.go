package dto

import (
	"time"

	"github.com/thryve/staffing-api/internal/models"
)

// ScheduleQuery bounds a schedule listing. Zero values fall back to the
// service defaults (now .. now+14d).
type ScheduleQuery struct {
	InstructorID string
	From         time.Time
	To           time.Time
}

// SwapRequestInput creates a swap request.
type SwapRequestInput struct {
	ClassInstanceID       string `json:"classId" validate:"required,uuid4"`
	RecipientInstructorID string `json:"recipientInstructorId" validate:"required,uuid4"`
	Message               string `json:"message" validate:"max=500"`
}

// SwapDecisionInput accepts or rejects an existing swap request.
type SwapDecisionInput struct {
	SwapRequestID string `json:"swapRequestId" validate:"required,uuid4"`
	Reason        string `json:"reason" validate:"max=500"`
}

// SwapApprovalInput records the studio's decision on an escalated swap.
type SwapApprovalInput struct {
	SwapRequestID string `json:"swapRequestId" validate:"required,uuid4"`
	Approve       bool   `json:"approved"`
	Reason        string `json:"reason" validate:"max=500"`
}

// CoverageRequestInput opens a coverage request for a class.
type CoverageRequestInput struct {
	ClassInstanceID string `json:"classId" validate:"required,uuid4"`
	Message         string `json:"message" validate:"max=500"`
	Urgent          bool   `json:"urgent"`
}

// CoverageApplyInput applies for an open coverage request.
type CoverageApplyInput struct {
	CoverageRequestID string `json:"coverageRequestId" validate:"required,uuid4"`
	Message           string `json:"message" validate:"max=500"`
}

// CoverageResolveInput picks the applicant who takes the class.
type CoverageResolveInput struct {
	CoverageRequestID string `json:"coverageRequestId" validate:"required,uuid4"`
	InstructorID      string `json:"instructorId" validate:"required,uuid4"`
}

// CoverageCancelInput withdraws an open coverage request.
type CoverageCancelInput struct {
	CoverageRequestID string `json:"coverageRequestId" validate:"required,uuid4"`
	Reason            string `json:"reason" validate:"max=500"`
}

// ReassignInput directly reassigns a class to another instructor.
type ReassignInput struct {
	ClassInstanceID string `json:"classId" validate:"required,uuid4"`
	InstructorID    string `json:"instructorId" validate:"required,uuid4"`
}

// PolicyUpdateInput partially updates the studio staffing policy. Nil fields
// keep their current value.
type PolicyUpdateInput struct {
	RequireApproval         *bool    `json:"requireApproval"`
	MaxWeeklyHours          *float64 `json:"maxWeeklyHours" validate:"omitempty,gte=0,lte=168"`
	MinHoursBetweenClasses  *float64 `json:"minHoursBetweenClasses" validate:"omitempty,gte=0,lte=24"`
	AllowSelfSwap           *bool    `json:"allowSelfSwap"`
	AllowCoverageRequest    *bool    `json:"allowCoverageRequest"`
	NotifyOnSwapRequest     *bool    `json:"notifyOnSwapRequest"`
	NotifyOnCoverageRequest *bool    `json:"notifyOnCoverageRequest"`
	SwapExpiryHours         *int     `json:"swapExpiryHours" validate:"omitempty,gte=0,lte=720"`
}

// DashboardStats aggregates the headline numbers on the studio dashboard.
type DashboardStats struct {
	StudioID          string    `json:"studioId"`
	UpcomingClasses   int       `json:"upcomingClasses"`
	UncoveredClasses  int       `json:"uncoveredClasses"`
	PendingApprovals  int       `json:"pendingApprovals"`
	OpenCoverage      int       `json:"openCoverage"`
	UrgentCoverage    int       `json:"urgentCoverage"`
	ActiveInstructors int       `json:"activeInstructors"`
	GeneratedAt       time.Time `json:"generatedAt"`
}

// StudioDashboard is the merchant staffing overview payload.
type StudioDashboard struct {
	Stats        DashboardStats           `json:"stats"`
	Classes      []models.ClassInstance   `json:"classes"`
	PendingSwaps []models.SwapRequest     `json:"pendingSwaps"`
	OpenCoverage []models.CoverageRequest `json:"openCoverage"`
	Instructors  []models.Instructor      `json:"instructors"`
}
