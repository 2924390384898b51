package housing

import "math"

// Occupancy figures are always derived from the live assignment indexes.
// There is no cached counter to fall out of sync; callers re-derive after
// every mutation.

// RoomOccupancy returns the number of students currently linked to a room.
func (s *Store) RoomOccupancy(roomID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.roomStudents[roomID])
}

// BuildingCapacity sums room capacity across a building.
func (s *Store) BuildingCapacity(buildingID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, roomID := range s.roomsByBuilding[buildingID] {
		if r, ok := s.rooms[roomID]; ok {
			total += r.Capacity
		}
	}
	return total
}

// BuildingOccupied sums live assignments across a building's rooms.
func (s *Store) BuildingOccupied(buildingID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, roomID := range s.roomsByBuilding[buildingID] {
		total += len(s.roomStudents[roomID])
	}
	return total
}

// OccupancyRate returns the rounded occupancy percentage for a building.
// A building with zero capacity reports 0.
func (s *Store) OccupancyRate(buildingID string) int {
	capacity := s.BuildingCapacity(buildingID)
	if capacity == 0 {
		return 0
	}
	occupied := s.BuildingOccupied(buildingID)
	return int(math.Round(100 * float64(occupied) / float64(capacity)))
}

// AvailableBeds returns system-wide free capacity across all buildings.
func (s *Store) AvailableBeds() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	capacity := 0
	for _, r := range s.rooms {
		capacity += r.Capacity
	}
	occupied := len(s.assignmentByStudent)
	return capacity - occupied
}
