package housing

import (
	"sync"

	"github.com/ZiadSaad78/student-sorter-hub/internal/models"
)

// Store holds the current known housing state: buildings, rooms, students
// and live assignments, keyed by id. It is the single owner of this state
// for the lifetime of the process; the database remains the durable owner
// across restarts and is loaded in via Hydrate.
//
// Student↔room links are mutated only by the Engine. Upserts replace
// entity attributes wholesale; callers pass complete records, partial
// records are never merged silently.
type Store struct {
	mu sync.RWMutex

	buildings     map[string]models.Building
	buildingOrder []string

	rooms           map[string]models.Room
	roomsByBuilding map[string][]string

	students     map[string]models.Student
	studentOrder []string

	assignments         map[string]models.Assignment
	assignmentByStudent map[string]string
	roomStudents        map[string][]string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		buildings:           make(map[string]models.Building),
		rooms:               make(map[string]models.Room),
		roomsByBuilding:     make(map[string][]string),
		students:            make(map[string]models.Student),
		assignments:         make(map[string]models.Assignment),
		assignmentByStudent: make(map[string]string),
		roomStudents:        make(map[string][]string),
	}
}

// GetBuilding returns the building by id.
func (s *Store) GetBuilding(id string) (models.Building, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.buildings[id]
	return b, ok
}

// GetRoom resolves a room by its globally unique id across all buildings.
func (s *Store) GetRoom(id string) (models.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	return r, ok
}

// GetStudent returns the student by id.
func (s *Store) GetStudent(id string) (models.Student, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.students[id]
	return st, ok
}

// UpsertBuilding replaces or inserts a building by id.
func (s *Store) UpsertBuilding(b models.Building) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buildings[b.ID]; !ok {
		s.buildingOrder = append(s.buildingOrder, b.ID)
	}
	s.buildings[b.ID] = b
}

// UpsertRoom replaces or inserts a room by id.
func (s *Store) UpsertRoom(r models.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.rooms[r.ID]; ok {
		if existing.BuildingID != r.BuildingID {
			s.roomsByBuilding[existing.BuildingID] = removeID(s.roomsByBuilding[existing.BuildingID], r.ID)
			s.roomsByBuilding[r.BuildingID] = append(s.roomsByBuilding[r.BuildingID], r.ID)
		}
	} else {
		s.roomsByBuilding[r.BuildingID] = append(s.roomsByBuilding[r.BuildingID], r.ID)
	}
	s.rooms[r.ID] = r
}

// UpsertStudent replaces or inserts a student by id. The housing link
// fields (Status/RoomID) are owned by the Engine; callers hydrating or
// editing profile attributes must carry the current link values through.
func (s *Store) UpsertStudent(st models.Student) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[st.ID]; !ok {
		s.studentOrder = append(s.studentOrder, st.ID)
	}
	s.students[st.ID] = st
}

// DeleteStudent removes a student and any live assignment it holds.
func (s *Store) DeleteStudent(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[id]; !ok {
		return
	}
	if assignmentID, ok := s.assignmentByStudent[id]; ok {
		if a, ok := s.assignments[assignmentID]; ok {
			s.unlink(a)
		}
	}
	delete(s.students, id)
	s.studentOrder = removeID(s.studentOrder, id)
}

// DeleteRoom removes a room and releases any students still linked to it,
// reverting them to accepted. Occupancy policy (refusing to delete an
// occupied room) lives in the room service; the store only keeps its
// indexes consistent.
func (s *Store) DeleteRoom(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteRoomLocked(id)
}

// DeleteBuilding removes a building together with its rooms.
func (s *Store) DeleteBuilding(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buildings[id]; !ok {
		return
	}
	for _, roomID := range append([]string(nil), s.roomsByBuilding[id]...) {
		s.deleteRoomLocked(roomID)
	}
	delete(s.buildings, id)
	s.buildingOrder = removeID(s.buildingOrder, id)
	delete(s.roomsByBuilding, id)
}

// deleteRoomLocked removes a room and unlinks its occupants. Caller holds mu.
func (s *Store) deleteRoomLocked(id string) {
	r, ok := s.rooms[id]
	if !ok {
		return
	}
	for _, studentID := range append([]string(nil), s.roomStudents[id]...) {
		if assignmentID, ok := s.assignmentByStudent[studentID]; ok {
			if a, ok := s.assignments[assignmentID]; ok {
				s.unlink(a)
			}
		}
	}
	delete(s.roomStudents, id)
	delete(s.rooms, id)
	s.roomsByBuilding[r.BuildingID] = removeID(s.roomsByBuilding[r.BuildingID], id)
}

// Buildings returns all buildings in insertion order.
func (s *Store) Buildings() []models.Building {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Building, 0, len(s.buildingOrder))
	for _, id := range s.buildingOrder {
		if b, ok := s.buildings[id]; ok {
			out = append(out, b)
		}
	}
	return out
}

// RoomsIn returns the rooms of a building in insertion order.
func (s *Store) RoomsIn(buildingID string) []models.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.roomsByBuilding[buildingID]
	out := make([]models.Room, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.rooms[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Students returns all students in insertion order.
func (s *Store) Students() []models.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Student, 0, len(s.studentOrder))
	for _, id := range s.studentOrder {
		if st, ok := s.students[id]; ok {
			out = append(out, st)
		}
	}
	return out
}

// StudentsInRoom returns the students assigned to a room, in assignment order.
func (s *Store) StudentsInRoom(roomID string) []models.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.roomStudents[roomID]
	out := make([]models.Student, 0, len(ids))
	for _, id := range ids {
		if st, ok := s.students[id]; ok {
			out = append(out, st)
		}
	}
	return out
}

// AssignmentFor returns the live assignment for a student, if any.
func (s *Store) AssignmentFor(studentID string) (models.Assignment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.assignmentByStudent[studentID]
	if !ok {
		return models.Assignment{}, false
	}
	a, ok := s.assignments[id]
	return a, ok
}

// Hydrate links a persisted assignment into the store indexes without
// going through the Engine's precondition checks. Used when loading
// state from the database at startup.
func (s *Store) Hydrate(a models.Assignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.link(a)
}

// link records an assignment and updates the per-student and per-room
// indexes plus the student's housing link fields. Caller holds mu.
func (s *Store) link(a models.Assignment) {
	s.assignments[a.ID] = a
	s.assignmentByStudent[a.StudentID] = a.ID
	s.roomStudents[a.RoomID] = append(s.roomStudents[a.RoomID], a.StudentID)
	if st, ok := s.students[a.StudentID]; ok {
		roomID := a.RoomID
		st.Status = models.StudentStatusHoused
		st.RoomID = &roomID
		s.students[a.StudentID] = st
	}
}

// unlink removes an assignment and restores the student to accepted.
// Caller holds mu.
func (s *Store) unlink(a models.Assignment) {
	delete(s.assignments, a.ID)
	delete(s.assignmentByStudent, a.StudentID)
	s.roomStudents[a.RoomID] = removeID(s.roomStudents[a.RoomID], a.StudentID)
	if st, ok := s.students[a.StudentID]; ok {
		st.Status = models.StudentStatusAccepted
		st.RoomID = nil
		s.students[a.StudentID] = st
	}
}

func removeID(ids []string, id string) []string {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
