package housing

import "github.com/ZiadSaad78/student-sorter-hub/internal/models"

// EligibleStudents returns the students that may be assigned to rooms in
// the given building: accepted status and matching gender. The result is
// a view recomputed on every call, in the insertion order of the student
// collection, so it always reflects the latest store state without a
// separate invalidation mechanism.
func (s *Store) EligibleStudents(buildingID string) []models.Student {
	building, ok := s.GetBuilding(buildingID)
	if !ok {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var eligible []models.Student
	for _, id := range s.studentOrder {
		st, ok := s.students[id]
		if !ok {
			continue
		}
		if st.Status == models.StudentStatusAccepted && st.Gender == building.Gender {
			eligible = append(eligible, st)
		}
	}
	return eligible
}
