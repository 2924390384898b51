package models

import "time"

// FeeStatus tracks payment state of a housing fee.
type FeeStatus string

const (
	FeeStatusUnpaid FeeStatus = "unpaid"
	FeeStatusPaid   FeeStatus = "paid"
)

// Fee represents a housing fee charged to a student, optionally tied to
// the assignment that produced it.
type Fee struct {
	ID           string     `db:"id" json:"id"`
	StudentID    string     `db:"student_id" json:"student_id"`
	AssignmentID *string    `db:"assignment_id" json:"assignment_id,omitempty"`
	Amount       float64    `db:"amount" json:"amount"`
	FeeType      string     `db:"fee_type" json:"fee_type"`
	Status       FeeStatus  `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	PaidAt       *time.Time `db:"paid_at" json:"paid_at,omitempty"`
}

// FeeFilter encapsulates search parameters for listing fees.
type FeeFilter struct {
	StudentID string
	Status    string
	FeeType   string
	Page      int
	PageSize  int
}
