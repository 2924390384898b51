package models

import "time"

// Gender restricts students and buildings to the two housing tracks.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether the gender value is one of the known tracks.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// StudentStatus captures the housing-relevant lifecycle of a student.
type StudentStatus string

const (
	StudentStatusPending  StudentStatus = "pending"
	StudentStatusAccepted StudentStatus = "accepted"
	StudentStatusRejected StudentStatus = "rejected"
	StudentStatusHoused   StudentStatus = "housed"
)

// Student represents an applicant or resident managed by the dormitory office.
type Student struct {
	ID          string        `db:"id" json:"id"`
	NationalID  string        `db:"national_id" json:"national_id"`
	FullName    string        `db:"full_name" json:"full_name"`
	Gender      Gender        `db:"gender" json:"gender"`
	Faculty     string        `db:"faculty" json:"faculty"`
	Level       string        `db:"level" json:"level"`
	Governorate string        `db:"governorate" json:"governorate"`
	Email       string        `db:"email" json:"email"`
	Phone       string        `db:"phone" json:"phone"`
	Status      StudentStatus `db:"status" json:"status"`
	RoomID      *string       `db:"room_id" json:"room_id,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search      string
	Faculty     string
	Level       string
	Governorate string
	Gender      string
	Status      string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}

// StudentDetail contains student information with housing context.
type StudentDetail struct {
	Student
	RoomNumber   *string `db:"room_number" json:"room_number,omitempty"`
	BuildingID   *string `db:"building_id" json:"building_id,omitempty"`
	BuildingName *string `db:"building_name" json:"building_name,omitempty"`
}
