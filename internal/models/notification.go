package models

import "time"

// Notification represents an in-app message sent to a student.
type Notification struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	Title         string    `db:"title" json:"title"`
	Message       string    `db:"message" json:"message"`
	Read          bool      `db:"read" json:"read"`
	ApplicationID *string   `db:"application_id" json:"application_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
