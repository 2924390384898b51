package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ZiadSaad78/student-sorter-hub/internal/housing"
	"github.com/ZiadSaad78/student-sorter-hub/internal/models"
	appErrors "github.com/ZiadSaad78/student-sorter-hub/pkg/errors"
)

func newExportFixture(t *testing.T) (*housing.Store, *ExportService) {
	t.Helper()
	store := housing.NewStore()
	store.UpsertBuilding(models.Building{ID: "b1", Name: "North Hall", Gender: models.GenderFemale})
	store.UpsertBuilding(models.Building{ID: "b2", Name: "South Hall", Gender: models.GenderMale})
	store.UpsertRoom(models.Room{ID: "r101", Number: "101", BuildingID: "b1", Capacity: 2})
	store.UpsertRoom(models.Room{ID: "r201", Number: "201", BuildingID: "b2", Capacity: 3})
	store.UpsertStudent(models.Student{ID: "s1", NationalID: "29805120101234", FullName: "Mona Adel", Gender: models.GenderFemale, Status: models.StudentStatusAccepted})
	store.UpsertStudent(models.Student{ID: "s2", NationalID: "29901150105678", FullName: "Omar Nabil", Gender: models.GenderMale, Status: models.StudentStatusPending})

	engine := housing.NewEngine(store, zap.NewNop())
	_, err := engine.Assign("s1", "r101")
	require.NoError(t, err)

	return store, NewExportService(store)
}

func TestExportServiceStudentsDataset(t *testing.T) {
	_, svc := newExportFixture(t)

	dataset, err := svc.StudentsDataset(nil, nil)
	require.NoError(t, err)
	require.Len(t, dataset.Rows, 2)
	assert.Equal(t, "Mona Adel", dataset.Rows[0]["Full Name"])
	assert.Equal(t, "101", dataset.Rows[0]["Room"])
	assert.Equal(t, "North Hall", dataset.Rows[0]["Building"])
	assert.Equal(t, "", dataset.Rows[1]["Room"])
}

func TestExportServiceStudentsDatasetFilters(t *testing.T) {
	_, svc := newExportFixture(t)

	status := string(models.StudentStatusHoused)
	dataset, err := svc.StudentsDataset(nil, &status)
	require.NoError(t, err)
	require.Len(t, dataset.Rows, 1)
	assert.Equal(t, "Mona Adel", dataset.Rows[0]["Full Name"])

	buildingID := "b2"
	dataset, err = svc.StudentsDataset(&buildingID, nil)
	require.NoError(t, err)
	assert.Empty(t, dataset.Rows)

	missing := "missing"
	_, err = svc.StudentsDataset(&missing, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportServiceOccupancyDataset(t *testing.T) {
	_, svc := newExportFixture(t)

	dataset, err := svc.OccupancyDataset()
	require.NoError(t, err)
	require.Len(t, dataset.Rows, 2)
	assert.Equal(t, "North Hall", dataset.Rows[0]["Building"])
	assert.Equal(t, "1", dataset.Rows[0]["Occupied"])
	assert.Equal(t, "50", dataset.Rows[0]["Occupancy %"])
	assert.Equal(t, "0", dataset.Rows[1]["Occupied"])
}
