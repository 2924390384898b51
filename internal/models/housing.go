package models

import "time"

// Building represents a dormitory building restricted to one gender.
type Building struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Gender    Gender    `db:"gender" json:"gender"`
	Floors    int       `db:"floors" json:"floors"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// BuildingDetail augments a building with derived occupancy figures.
type BuildingDetail struct {
	Building
	RoomCount     int `db:"room_count" json:"room_count"`
	TotalCapacity int `db:"total_capacity" json:"total_capacity"`
	Occupied      int `db:"occupied" json:"occupied"`
	OccupancyRate int `json:"occupancy_rate"`
}

// Room represents a bedroom inside a building. Occupancy is never stored
// on the row; it is derived from live assignments at read time.
type Room struct {
	ID         string    `db:"id" json:"id"`
	Number     string    `db:"number" json:"number"`
	BuildingID string    `db:"building_id" json:"building_id"`
	Floor      int       `db:"floor" json:"floor"`
	Capacity   int       `db:"capacity" json:"capacity"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// RoomDetail contains a room with its derived occupancy and owning building.
type RoomDetail struct {
	Room
	CurrentOccupancy int     `db:"current_occupancy" json:"current_occupancy"`
	BuildingName     *string `db:"building_name" json:"building_name,omitempty"`
	BuildingGender   *Gender `db:"building_gender" json:"building_gender,omitempty"`
}

// RoomFilter encapsulates search parameters for listing rooms.
type RoomFilter struct {
	BuildingID string
	Floor      *int
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// Assignment links one student to one room. Assignments carry their own
// identity; the student id is never reused as the assignment id.
type Assignment struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	RoomID     string    `db:"room_id" json:"room_id"`
	AssignedAt time.Time `db:"assigned_at" json:"assigned_at"`
	Active     bool      `db:"active" json:"active"`
}

// AssignmentDetail contains an assignment with display context.
type AssignmentDetail struct {
	Assignment
	StudentName  string `db:"student_name" json:"student_name"`
	RoomNumber   string `db:"room_number" json:"room_number"`
	BuildingID   string `db:"building_id" json:"building_id"`
	BuildingName string `db:"building_name" json:"building_name"`
}
