package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ZiadSaad78/student-sorter-hub/internal/housing"
	"github.com/ZiadSaad78/student-sorter-hub/internal/models"
)

type mockApplicationCounter struct {
	counts map[models.ApplicationStatus]int
}

func (m *mockApplicationCounter) CountByStatus(ctx context.Context) (map[models.ApplicationStatus]int, error) {
	return m.counts, nil
}

type mockComplaintCounter struct {
	open int
}

func (m *mockComplaintCounter) CountOpen(ctx context.Context) (int, error) {
	return m.open, nil
}

type mockFeeSummer struct {
	totals map[models.FeeStatus]float64
}

func (m *mockFeeSummer) SumByStatus(ctx context.Context) (map[models.FeeStatus]float64, error) {
	return m.totals, nil
}

func TestDashboardServiceSummary(t *testing.T) {
	store := housing.NewStore()
	store.UpsertBuilding(models.Building{ID: "b1", Name: "North Hall", Gender: models.GenderFemale})
	store.UpsertRoom(models.Room{ID: "r101", Number: "101", BuildingID: "b1", Capacity: 2})
	store.UpsertStudent(models.Student{ID: "s1", FullName: "Mona Adel", Gender: models.GenderFemale, Status: models.StudentStatusAccepted})
	store.UpsertStudent(models.Student{ID: "s2", FullName: "Hala Samir", Gender: models.GenderFemale, Status: models.StudentStatusAccepted})

	engine := housing.NewEngine(store, zap.NewNop())
	_, err := engine.Assign("s1", "r101")
	require.NoError(t, err)

	cache := NewCacheService(nil, nil, 0, zap.NewNop(), false)
	svc := NewDashboardService(store,
		&mockApplicationCounter{counts: map[models.ApplicationStatus]int{models.ApplicationStatusPending: 3, models.ApplicationStatusAccepted: 5}},
		&mockComplaintCounter{open: 2},
		&mockFeeSummer{totals: map[models.FeeStatus]float64{models.FeeStatusUnpaid: 1500, models.FeeStatusPaid: 4500}},
		cache, nil, 0, zap.NewNop())

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.False(t, summary.Cached)

	assert.Equal(t, 1, summary.Housing.TotalOccupied)
	assert.Equal(t, 3, summary.Applications.Pending)
	assert.Equal(t, 5, summary.Applications.Accepted)
	assert.Equal(t, 2, summary.OpenComplaints)
	assert.Equal(t, 1500.0, summary.UnpaidFeesTotal)
	assert.Equal(t, 4500.0, summary.PaidFeesTotal)

	require.Len(t, summary.BuildingOccupancy, 1)
	assert.Equal(t, "North Hall", summary.BuildingOccupancy[0].BuildingName)
	assert.Equal(t, 2, summary.BuildingOccupancy[0].TotalCapacity)
	assert.Equal(t, 1, summary.BuildingOccupancy[0].Occupied)
	assert.Equal(t, 50, summary.BuildingOccupancy[0].OccupancyRate)
}
