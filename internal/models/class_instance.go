package models

import "time"

// ClassInstance is a single scheduled class occurrence at a studio.
// Version increments on every reassignment and backs the optimistic
// concurrency check that serialises competing resolutions.
type ClassInstance struct {
	ID                   string    `db:"id" json:"id"`
	StudioID             string    `db:"studio_id" json:"studioId"`
	ClassName            string    `db:"class_name" json:"className"`
	StartTime            time.Time `db:"start_time" json:"startTime"`
	EndTime              time.Time `db:"end_time" json:"endTime"`
	Capacity             int       `db:"capacity" json:"capacity"`
	EnrolledCount        int       `db:"enrolled_count" json:"enrolledCount"`
	Location             string    `db:"location" json:"location"`
	AssignedInstructorID *string   `db:"assigned_instructor_id" json:"assignedInstructorId,omitempty"`
	NeedsCoverage        bool      `db:"needs_coverage" json:"needsCoverage"`
	Version              int       `db:"version" json:"-"`
	CreatedAt            time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time `db:"updated_at" json:"updatedAt"`
}

// Duration returns the length of the class.
func (ci ClassInstance) Duration() time.Duration {
	return ci.EndTime.Sub(ci.StartTime)
}

// Overlaps reports whether the class window intersects [start, end).
func (ci ClassInstance) Overlaps(start, end time.Time) bool {
	return ci.StartTime.Before(end) && start.Before(ci.EndTime)
}

// AssignedTo reports whether the class is currently assigned to instructorID.
func (ci ClassInstance) AssignedTo(instructorID string) bool {
	return ci.AssignedInstructorID != nil && *ci.AssignedInstructorID == instructorID
}
