package models

import "time"

// ApplicationStatus tracks the admin review state of a housing application.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusAccepted ApplicationStatus = "accepted"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// Application represents a student's housing application for a window.
type Application struct {
	ID         string            `db:"id" json:"id"`
	StudentID  string            `db:"student_id" json:"student_id"`
	WindowID   *string           `db:"window_id" json:"window_id,omitempty"`
	Status     ApplicationStatus `db:"status" json:"status"`
	AppliedAt  time.Time         `db:"applied_at" json:"applied_at"`
	ReviewedAt *time.Time        `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewedBy *string           `db:"reviewed_by" json:"reviewed_by,omitempty"`
}

// ApplicationDetail joins the applicant's identity onto the application.
type ApplicationDetail struct {
	Application
	StudentName string `db:"student_name" json:"student_name"`
	NationalID  string `db:"national_id" json:"national_id"`
	Faculty     string `db:"faculty" json:"faculty"`
	Level       string `db:"level" json:"level"`
	Governorate string `db:"governorate" json:"governorate"`
	Gender      Gender `db:"gender" json:"gender"`
}

// ApplicationFilter encapsulates search parameters for listing applications.
type ApplicationFilter struct {
	Status    string
	WindowID  string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ApplicationWindow bounds the period during which students may apply.
type ApplicationWindow struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
