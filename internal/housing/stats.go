package housing

import "github.com/ZiadSaad78/student-sorter-hub/internal/models"

// Summary is the dashboard roll-up of the housing state. It is folded
// from the store on every read and holds no state of its own.
type Summary struct {
	TotalBuildings          int `json:"total_buildings"`
	TotalRooms              int `json:"total_rooms"`
	TotalCapacity           int `json:"total_capacity"`
	TotalOccupied           int `json:"total_occupied"`
	AvailableBeds           int `json:"available_beds"`
	StudentsAwaitingHousing int `json:"students_awaiting_housing"`
}

// Summarize derives the dashboard counters from the current store state.
func (s *Store) Summarize() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := Summary{
		TotalBuildings: len(s.buildings),
		TotalRooms:     len(s.rooms),
		TotalOccupied:  len(s.assignmentByStudent),
	}
	for _, r := range s.rooms {
		summary.TotalCapacity += r.Capacity
	}
	summary.AvailableBeds = summary.TotalCapacity - summary.TotalOccupied
	for _, st := range s.students {
		if st.Status == models.StudentStatusAccepted {
			summary.StudentsAwaitingHousing++
		}
	}
	return summary
}
