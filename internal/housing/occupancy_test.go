package housing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ZiadSaad78/student-sorter-hub/internal/models"
)

func TestOccupancyRate(t *testing.T) {
	store := NewStore()
	store.UpsertBuilding(models.Building{ID: "b1", Name: "A", Gender: models.GenderMale, Floors: 1})
	store.UpsertRoom(models.Room{ID: "r1", Number: "101", BuildingID: "b1", Floor: 1, Capacity: 2})
	store.UpsertRoom(models.Room{ID: "r2", Number: "102", BuildingID: "b1", Floor: 1, Capacity: 4})

	assert.Equal(t, 6, store.BuildingCapacity("b1"))
	assert.Equal(t, 0, store.BuildingOccupied("b1"))
	assert.Equal(t, 0, store.OccupancyRate("b1"))

	engine := NewEngine(store, zap.NewNop())
	for _, id := range []string{"s1", "s2"} {
		store.UpsertStudent(models.Student{ID: id, Gender: models.GenderMale, Status: models.StudentStatusAccepted})
		_, err := engine.Assign(id, "r1")
		require.NoError(t, err)
	}

	assert.Equal(t, 2, store.BuildingOccupied("b1"))
	// 2/6 rounds to 33.
	assert.Equal(t, 33, store.OccupancyRate("b1"))
	assert.Equal(t, 4, store.AvailableBeds())
}

func TestOccupancyRateZeroCapacity(t *testing.T) {
	store := NewStore()
	store.UpsertBuilding(models.Building{ID: "empty", Name: "Empty", Gender: models.GenderFemale, Floors: 1})

	assert.Equal(t, 0, store.OccupancyRate("empty"))
	assert.Equal(t, 0, store.OccupancyRate("missing"))
}

func TestEligibleStudentsOrderAndFilter(t *testing.T) {
	store := NewStore()
	store.UpsertBuilding(models.Building{ID: "b1", Name: "A", Gender: models.GenderFemale, Floors: 1})
	store.UpsertStudent(models.Student{ID: "s1", Gender: models.GenderFemale, Status: models.StudentStatusAccepted})
	store.UpsertStudent(models.Student{ID: "s2", Gender: models.GenderMale, Status: models.StudentStatusAccepted})
	store.UpsertStudent(models.Student{ID: "s3", Gender: models.GenderFemale, Status: models.StudentStatusPending})
	store.UpsertStudent(models.Student{ID: "s4", Gender: models.GenderFemale, Status: models.StudentStatusAccepted})

	eligible := store.EligibleStudents("b1")
	require.Len(t, eligible, 2)
	assert.Equal(t, "s1", eligible[0].ID)
	assert.Equal(t, "s4", eligible[1].ID)

	// The view tracks store changes without invalidation.
	store.UpsertStudent(models.Student{ID: "s3", Gender: models.GenderFemale, Status: models.StudentStatusAccepted})
	eligible = store.EligibleStudents("b1")
	require.Len(t, eligible, 3)
	assert.Equal(t, []string{"s1", "s3", "s4"}, []string{eligible[0].ID, eligible[1].ID, eligible[2].ID})

	assert.Nil(t, store.EligibleStudents("missing"))
}

func TestEligibleStudentsExcludesHoused(t *testing.T) {
	store := NewStore()
	store.UpsertBuilding(models.Building{ID: "b1", Name: "A", Gender: models.GenderFemale, Floors: 1})
	store.UpsertRoom(models.Room{ID: "r1", Number: "101", BuildingID: "b1", Floor: 1, Capacity: 1})
	store.UpsertStudent(models.Student{ID: "s1", Gender: models.GenderFemale, Status: models.StudentStatusAccepted})

	engine := NewEngine(store, zap.NewNop())
	_, err := engine.Assign("s1", "r1")
	require.NoError(t, err)

	assert.Empty(t, store.EligibleStudents("b1"))

	_, err = engine.Remove("s1", "r1")
	require.NoError(t, err)
	assert.Len(t, store.EligibleStudents("b1"), 1)
}

func TestSummarize(t *testing.T) {
	store := NewStore()
	store.UpsertBuilding(models.Building{ID: "b1", Name: "A", Gender: models.GenderMale, Floors: 1})
	store.UpsertBuilding(models.Building{ID: "b2", Name: "B", Gender: models.GenderFemale, Floors: 2})
	store.UpsertRoom(models.Room{ID: "r1", Number: "101", BuildingID: "b1", Floor: 1, Capacity: 3})
	store.UpsertRoom(models.Room{ID: "r2", Number: "101", BuildingID: "b2", Floor: 1, Capacity: 2})
	store.UpsertStudent(models.Student{ID: "s1", Gender: models.GenderMale, Status: models.StudentStatusAccepted})
	store.UpsertStudent(models.Student{ID: "s2", Gender: models.GenderMale, Status: models.StudentStatusAccepted})
	store.UpsertStudent(models.Student{ID: "s3", Gender: models.GenderFemale, Status: models.StudentStatusRejected})

	engine := NewEngine(store, zap.NewNop())
	_, err := engine.Assign("s1", "r1")
	require.NoError(t, err)

	summary := store.Summarize()
	assert.Equal(t, 2, summary.TotalBuildings)
	assert.Equal(t, 2, summary.TotalRooms)
	assert.Equal(t, 5, summary.TotalCapacity)
	assert.Equal(t, 1, summary.TotalOccupied)
	assert.Equal(t, 4, summary.AvailableBeds)
	assert.Equal(t, 1, summary.StudentsAwaitingHousing)
}

func TestDeleteRoomReleasesStudents(t *testing.T) {
	store := NewStore()
	store.UpsertBuilding(models.Building{ID: "b1", Name: "A", Gender: models.GenderMale, Floors: 1})
	store.UpsertRoom(models.Room{ID: "r1", Number: "101", BuildingID: "b1", Floor: 1, Capacity: 2})
	store.UpsertStudent(models.Student{ID: "s1", Gender: models.GenderMale, Status: models.StudentStatusAccepted})

	engine := NewEngine(store, zap.NewNop())
	_, err := engine.Assign("s1", "r1")
	require.NoError(t, err)

	store.DeleteRoom("r1")

	student, _ := store.GetStudent("s1")
	assert.Equal(t, models.StudentStatusAccepted, student.Status)
	assert.Nil(t, student.RoomID)
	_, ok := store.AssignmentFor("s1")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Summarize().TotalRooms)
}
