package housing

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ZiadSaad78/student-sorter-hub/internal/models"
	appErrors "github.com/ZiadSaad78/student-sorter-hub/pkg/errors"
)

func newTestStore() *Store {
	s := NewStore()
	s.UpsertBuilding(models.Building{ID: "b1", Name: "Building A", Gender: models.GenderFemale, Floors: 2})
	s.UpsertRoom(models.Room{ID: "r101", Number: "101", BuildingID: "b1", Floor: 1, Capacity: 2})
	s.UpsertStudent(models.Student{ID: "alice", FullName: "Alice", Gender: models.GenderFemale, Status: models.StudentStatusAccepted})
	s.UpsertStudent(models.Student{ID: "bob", FullName: "Bob", Gender: models.GenderMale, Status: models.StudentStatusAccepted})
	s.UpsertStudent(models.Student{ID: "carol", FullName: "Carol", Gender: models.GenderFemale, Status: models.StudentStatusAccepted})
	s.UpsertStudent(models.Student{ID: "dana", FullName: "Dana", Gender: models.GenderFemale, Status: models.StudentStatusAccepted})
	return s
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	return appErrors.FromError(err).Code
}

func TestAssignHappyPath(t *testing.T) {
	store := newTestStore()
	engine := NewEngine(store, zap.NewNop())

	assignment, err := engine.Assign("alice", "r101")
	require.NoError(t, err)
	require.NotNil(t, assignment)
	assert.NotEmpty(t, assignment.ID)
	assert.NotEqual(t, "alice", assignment.ID)
	assert.Equal(t, "alice", assignment.StudentID)
	assert.Equal(t, "r101", assignment.RoomID)
	assert.False(t, assignment.AssignedAt.IsZero())

	student, ok := store.GetStudent("alice")
	require.True(t, ok)
	assert.Equal(t, models.StudentStatusHoused, student.Status)
	require.NotNil(t, student.RoomID)
	assert.Equal(t, "r101", *student.RoomID)
	assert.Equal(t, 1, store.RoomOccupancy("r101"))
}

func TestAssignScenarioGenderAndCapacity(t *testing.T) {
	store := newTestStore()
	engine := NewEngine(store, zap.NewNop())

	_, err := engine.Assign("alice", "r101")
	require.NoError(t, err)
	assert.Equal(t, 1, store.RoomOccupancy("r101"))

	_, err = engine.Assign("bob", "r101")
	assert.Equal(t, appErrors.ErrGenderMismatch.Code, errCode(t, err))
	assert.Equal(t, 1, store.RoomOccupancy("r101"))
	bob, _ := store.GetStudent("bob")
	assert.Equal(t, models.StudentStatusAccepted, bob.Status)
	assert.Nil(t, bob.RoomID)

	_, err = engine.Assign("carol", "r101")
	require.NoError(t, err)
	assert.Equal(t, 2, store.RoomOccupancy("r101"))

	_, err = engine.Assign("dana", "r101")
	assert.Equal(t, appErrors.ErrRoomFull.Code, errCode(t, err))
	assert.Equal(t, 2, store.RoomOccupancy("r101"))
}

func TestAssignPreconditionOrder(t *testing.T) {
	store := newTestStore()
	engine := NewEngine(store, zap.NewNop())

	// Unknown student wins over unknown room.
	_, err := engine.Assign("ghost", "nope")
	assert.Equal(t, appErrors.ErrStudentNotEligible.Code, errCode(t, err))

	// Pending student is not eligible even for a valid room.
	store.UpsertStudent(models.Student{ID: "pat", Gender: models.GenderFemale, Status: models.StudentStatusPending})
	_, err = engine.Assign("pat", "r101")
	assert.Equal(t, appErrors.ErrStudentNotEligible.Code, errCode(t, err))

	_, err = engine.Assign("alice", "nope")
	assert.Equal(t, appErrors.ErrRoomNotFound.Code, errCode(t, err))
}

func TestAssignHousedStudentRejected(t *testing.T) {
	store := newTestStore()
	engine := NewEngine(store, zap.NewNop())
	store.UpsertRoom(models.Room{ID: "r102", Number: "102", BuildingID: "b1", Floor: 1, Capacity: 2})

	_, err := engine.Assign("alice", "r101")
	require.NoError(t, err)

	// A housed student cannot hold a second assignment.
	_, err = engine.Assign("alice", "r102")
	assert.Equal(t, appErrors.ErrStudentNotEligible.Code, errCode(t, err))
	assert.Equal(t, 0, store.RoomOccupancy("r102"))
}

func TestRemoveRoundTrip(t *testing.T) {
	store := newTestStore()
	engine := NewEngine(store, zap.NewNop())

	before := store.RoomOccupancy("r101")
	created, err := engine.Assign("alice", "r101")
	require.NoError(t, err)

	removed, err := engine.Remove("alice", "r101")
	require.NoError(t, err)
	assert.Equal(t, created.ID, removed.ID)

	student, _ := store.GetStudent("alice")
	assert.Equal(t, models.StudentStatusAccepted, student.Status)
	assert.Nil(t, student.RoomID)
	assert.Equal(t, before, store.RoomOccupancy("r101"))
	_, ok := store.AssignmentFor("alice")
	assert.False(t, ok)
}

func TestRemoveIdempotence(t *testing.T) {
	store := newTestStore()
	engine := NewEngine(store, zap.NewNop())

	_, err := engine.Assign("alice", "r101")
	require.NoError(t, err)

	_, err = engine.Remove("alice", "r101")
	require.NoError(t, err)

	_, err = engine.Remove("alice", "r101")
	assert.Equal(t, appErrors.ErrNotAssigned.Code, errCode(t, err))

	student, _ := store.GetStudent("alice")
	assert.Equal(t, models.StudentStatusAccepted, student.Status)
	assert.Equal(t, 0, store.RoomOccupancy("r101"))
}

func TestRemoveWrongRoom(t *testing.T) {
	store := newTestStore()
	engine := NewEngine(store, zap.NewNop())
	store.UpsertRoom(models.Room{ID: "r102", Number: "102", BuildingID: "b1", Floor: 1, Capacity: 2})

	_, err := engine.Assign("alice", "r101")
	require.NoError(t, err)

	_, err = engine.Remove("alice", "r102")
	assert.Equal(t, appErrors.ErrNotAssigned.Code, errCode(t, err))

	// Original assignment untouched.
	student, _ := store.GetStudent("alice")
	assert.Equal(t, models.StudentStatusHoused, student.Status)
	assert.Equal(t, 1, store.RoomOccupancy("r101"))
}

// TestCapacityInvariantRandomized hammers the engine with random assign
// and remove calls and checks the core invariants after every step:
// occupancy never exceeds capacity, every saturated assign fails with
// ROOM_FULL, and a student is housed iff it has a room link.
func TestCapacityInvariantRandomized(t *testing.T) {
	store := NewStore()
	store.UpsertBuilding(models.Building{ID: "b1", Name: "North", Gender: models.GenderMale, Floors: 3})
	store.UpsertBuilding(models.Building{ID: "b2", Name: "South", Gender: models.GenderFemale, Floors: 2})

	rooms := []models.Room{
		{ID: "m1", Number: "101", BuildingID: "b1", Floor: 1, Capacity: 1},
		{ID: "m2", Number: "102", BuildingID: "b1", Floor: 1, Capacity: 3},
		{ID: "f1", Number: "101", BuildingID: "b2", Floor: 1, Capacity: 2},
		{ID: "f2", Number: "201", BuildingID: "b2", Floor: 2, Capacity: 2},
	}
	for _, r := range rooms {
		store.UpsertRoom(r)
	}

	var studentIDs []string
	for i := 0; i < 30; i++ {
		gender := models.GenderMale
		if i%2 == 0 {
			gender = models.GenderFemale
		}
		id := fmt.Sprintf("s%02d", i)
		store.UpsertStudent(models.Student{ID: id, FullName: id, Gender: gender, Status: models.StudentStatusAccepted})
		studentIDs = append(studentIDs, id)
	}

	engine := NewEngine(store, zap.NewNop())
	rng := rand.New(rand.NewSource(42))

	checkInvariants := func() {
		for _, r := range rooms {
			occ := store.RoomOccupancy(r.ID)
			require.LessOrEqual(t, occ, r.Capacity, "room %s over capacity", r.ID)
			building, _ := store.GetBuilding(r.BuildingID)
			for _, st := range store.StudentsInRoom(r.ID) {
				require.Equal(t, building.Gender, st.Gender, "gender invariant broken in room %s", r.ID)
			}
		}
		for _, st := range store.Students() {
			if st.Status == models.StudentStatusHoused {
				require.NotNil(t, st.RoomID)
			} else {
				require.Nil(t, st.RoomID)
			}
		}
	}

	for i := 0; i < 2000; i++ {
		studentID := studentIDs[rng.Intn(len(studentIDs))]
		room := rooms[rng.Intn(len(rooms))]

		if rng.Intn(4) == 0 {
			_, _ = engine.Remove(studentID, room.ID)
			checkInvariants()
			continue
		}

		student, _ := store.GetStudent(studentID)
		building, _ := store.GetBuilding(room.BuildingID)
		full := store.RoomOccupancy(room.ID) >= room.Capacity

		_, err := engine.Assign(studentID, room.ID)
		switch {
		case student.Status != models.StudentStatusAccepted:
			assert.Equal(t, appErrors.ErrStudentNotEligible.Code, errCode(t, err))
		case full:
			assert.Equal(t, appErrors.ErrRoomFull.Code, errCode(t, err))
		case student.Gender != building.Gender:
			assert.Equal(t, appErrors.ErrGenderMismatch.Code, errCode(t, err))
		default:
			assert.NoError(t, err)
		}
		checkInvariants()
	}
}

func TestHydrateRestoresLinks(t *testing.T) {
	store := newTestStore()
	store.Hydrate(models.Assignment{ID: "a1", StudentID: "alice", RoomID: "r101", Active: true})

	student, _ := store.GetStudent("alice")
	assert.Equal(t, models.StudentStatusHoused, student.Status)
	assert.Equal(t, 1, store.RoomOccupancy("r101"))

	a, ok := store.AssignmentFor("alice")
	require.True(t, ok)
	assert.Equal(t, "a1", a.ID)
}
