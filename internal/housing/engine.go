package housing

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ZiadSaad78/student-sorter-hub/internal/models"
	appErrors "github.com/ZiadSaad78/student-sorter-hub/pkg/errors"
)

// Engine is the sole mutator of student↔room links. Assign and Remove
// are serialized by a mutex: both read-then-write the same room and
// student records, and two concurrent assigns against one room could
// otherwise both pass the capacity check before either writes.
type Engine struct {
	mu     sync.Mutex
	store  *Store
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewEngine constructs an Engine over the given store.
func NewEngine(store *Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Store exposes the underlying entity store for read-side projections.
func (e *Engine) Store() *Store {
	return e.store
}

// Assign places an accepted student into a room. Preconditions are
// checked in order, first failure wins:
//  1. student exists and is accepted
//  2. room exists
//  3. room has a free bed
//  4. student gender matches the building
//
// On success the student becomes housed, the room gains the student and
// a reified assignment record is created. Nothing is mutated on failure.
func (e *Engine) Assign(studentID, roomID string) (*models.Assignment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	student, ok := e.store.GetStudent(studentID)
	if !ok || student.Status != models.StudentStatusAccepted {
		return nil, appErrors.Clone(appErrors.ErrStudentNotEligible, "")
	}

	room, ok := e.store.GetRoom(roomID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrRoomNotFound, "")
	}

	if e.store.RoomOccupancy(roomID) >= room.Capacity {
		return nil, appErrors.Clone(appErrors.ErrRoomFull, "")
	}

	building, ok := e.store.GetBuilding(room.BuildingID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrRoomNotFound, "room has no building")
	}
	if student.Gender != building.Gender {
		return nil, appErrors.Clone(appErrors.ErrGenderMismatch, "")
	}

	assignment := models.Assignment{
		ID:         e.newID(),
		StudentID:  studentID,
		RoomID:     roomID,
		AssignedAt: e.now().UTC(),
		Active:     true,
	}

	e.store.mu.Lock()
	e.store.link(assignment)
	e.store.mu.Unlock()

	e.logger.Info("student assigned",
		zap.String("student_id", studentID),
		zap.String("room_id", roomID),
		zap.String("assignment_id", assignment.ID))
	return &assignment, nil
}

// Remove releases a student from a room. The student must currently hold
// a live assignment to exactly that room; otherwise NotAssigned is
// returned and nothing changes. On success the student reverts to
// accepted and the assignment record is deleted.
func (e *Engine) Remove(studentID, roomID string) (*models.Assignment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	assignment, ok := e.store.AssignmentFor(studentID)
	if !ok || assignment.RoomID != roomID {
		return nil, appErrors.Clone(appErrors.ErrNotAssigned, "")
	}

	e.store.mu.Lock()
	e.store.unlink(assignment)
	e.store.mu.Unlock()

	e.logger.Info("student unassigned",
		zap.String("student_id", studentID),
		zap.String("room_id", roomID),
		zap.String("assignment_id", assignment.ID))
	return &assignment, nil
}
