package service

import (
	"fmt"

	"github.com/ZiadSaad78/student-sorter-hub/internal/housing"
	"github.com/ZiadSaad78/student-sorter-hub/internal/models"
	"github.com/ZiadSaad78/student-sorter-hub/pkg/export"
	appErrors "github.com/ZiadSaad78/student-sorter-hub/pkg/errors"
)

// ExportService builds tabular datasets from the housing state for the
// CSV and PDF renderers. Datasets read the in-memory store, so exports
// reflect exactly what the dashboard shows.
type ExportService struct {
	store *housing.Store
}

// NewExportService constructs ExportService.
func NewExportService(store *housing.Store) *ExportService {
	return &ExportService{store: store}
}

// StudentsDataset builds the student roster, optionally filtered by
// building and status.
func (s *ExportService) StudentsDataset(buildingID, status *string) (export.Dataset, error) {
	if buildingID != nil {
		if _, ok := s.store.GetBuilding(*buildingID); !ok {
			return export.Dataset{}, appErrors.Clone(appErrors.ErrNotFound, "building not found")
		}
	}

	headers := []string{"National ID", "Full Name", "Gender", "Faculty", "Level", "Governorate", "Status", "Building", "Room"}
	dataset := export.Dataset{Headers: headers}

	for _, student := range s.store.Students() {
		if status != nil && string(student.Status) != *status {
			continue
		}

		var buildingName, roomNumber string
		if student.RoomID != nil {
			if room, ok := s.store.GetRoom(*student.RoomID); ok {
				roomNumber = room.Number
				if buildingID != nil && room.BuildingID != *buildingID {
					continue
				}
				if b, ok := s.store.GetBuilding(room.BuildingID); ok {
					buildingName = b.Name
				}
			}
		} else if buildingID != nil {
			continue
		}

		dataset.Rows = append(dataset.Rows, map[string]string{
			"National ID": student.NationalID,
			"Full Name":   student.FullName,
			"Gender":      string(student.Gender),
			"Faculty":     student.Faculty,
			"Level":       student.Level,
			"Governorate": student.Governorate,
			"Status":      string(student.Status),
			"Building":    buildingName,
			"Room":        roomNumber,
		})
	}
	return dataset, nil
}

// OccupancyDataset builds the per-building occupancy report.
func (s *ExportService) OccupancyDataset() (export.Dataset, error) {
	headers := []string{"Building", "Gender", "Rooms", "Capacity", "Occupied", "Available", "Occupancy %"}
	dataset := export.Dataset{Headers: headers}

	for _, b := range s.store.Buildings() {
		capacity := s.store.BuildingCapacity(b.ID)
		occupied := s.store.BuildingOccupied(b.ID)
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Building":    b.Name,
			"Gender":      string(b.Gender),
			"Rooms":       fmt.Sprintf("%d", len(s.store.RoomsIn(b.ID))),
			"Capacity":    fmt.Sprintf("%d", capacity),
			"Occupied":    fmt.Sprintf("%d", occupied),
			"Available":   fmt.Sprintf("%d", capacity-occupied),
			"Occupancy %": fmt.Sprintf("%d", s.store.OccupancyRate(b.ID)),
		})
	}
	return dataset, nil
}

// Dataset dispatches on the report type.
func (s *ExportService) Dataset(reportType models.ReportType, params models.ReportJobParams) (export.Dataset, string, error) {
	switch reportType {
	case models.ReportTypeStudents:
		dataset, err := s.StudentsDataset(params.BuildingID, params.Status)
		return dataset, "Student Housing Roster", err
	case models.ReportTypeOccupancy:
		dataset, err := s.OccupancyDataset()
		return dataset, "Building Occupancy Report", err
	default:
		return export.Dataset{}, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown report type %q", reportType))
	}
}
