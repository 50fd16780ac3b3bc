package models

import (
	"time"

	"github.com/lib/pq"
)

// Instructor is the staffing-facing view of an instructor profile. The
// profile subsystem owns these records; this service only reads them.
type Instructor struct {
	ID          string         `db:"id" json:"id"`
	StudioID    string         `db:"studio_id" json:"studioId"`
	FullName    string         `db:"full_name" json:"fullName"`
	Email       string         `db:"email" json:"email"`
	Specialties pq.StringArray `db:"specialties" json:"specialties"`
	Active      bool           `db:"active" json:"active"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
}

// InstructorFilter captures filtering criteria for listing instructors.
type InstructorFilter struct {
	Active   *bool
	Search   string
	Page     int
	PageSize int
}
