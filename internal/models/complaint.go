package models

import "time"

// ComplaintStatus tracks the handling state of a complaint.
type ComplaintStatus string

const (
	ComplaintStatusOpen     ComplaintStatus = "open"
	ComplaintStatusResolved ComplaintStatus = "resolved"
)

// Complaint represents a maintenance or housing complaint filed by a student.
type Complaint struct {
	ID                string          `db:"id" json:"id"`
	StudentID         string          `db:"student_id" json:"student_id"`
	Title             string          `db:"title" json:"title"`
	Message           string          `db:"message" json:"message"`
	Status            ComplaintStatus `db:"status" json:"status"`
	ResolutionMessage *string         `db:"resolution_message" json:"resolution_message,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	ResolvedAt        *time.Time      `db:"resolved_at" json:"resolved_at,omitempty"`
}

// ComplaintDetail joins the complainant's name onto the complaint.
type ComplaintDetail struct {
	Complaint
	StudentName string `db:"student_name" json:"student_name"`
}

// ComplaintFilter encapsulates search parameters for listing complaints.
type ComplaintFilter struct {
	StudentID string
	Status    string
	Page      int
	PageSize  int
}
