package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ZiadSaad78/student-sorter-hub/internal/housing"
	"github.com/ZiadSaad78/student-sorter-hub/internal/models"
	appErrors "github.com/ZiadSaad78/student-sorter-hub/pkg/errors"
)

type buildingRepository interface {
	List(ctx context.Context) ([]models.BuildingDetail, error)
	FindByID(ctx context.Context, id string) (*models.BuildingDetail, error)
	Create(ctx context.Context, building *models.Building) error
	Update(ctx context.Context, building *models.Building) error
	Delete(ctx context.Context, id string) error
}

// CreateBuildingRequest describes building creation payload.
type CreateBuildingRequest struct {
	Name   string `json:"name" validate:"required,min=2"`
	Gender string `json:"gender" validate:"required,oneof=male female"`
	Floors int    `json:"floors" validate:"required,min=1,max=20"`
}

// UpdateBuildingRequest describes mutable building fields. Gender changes
// are rejected while the building has residents.
type UpdateBuildingRequest struct {
	Name   string `json:"name" validate:"required,min=2"`
	Gender string `json:"gender" validate:"required,oneof=male female"`
	Floors int    `json:"floors" validate:"required,min=1,max=20"`
}

// BuildingService orchestrates dormitory building management.
type BuildingService struct {
	repo      buildingRepository
	store     *housing.Store
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBuildingService constructs BuildingService.
func NewBuildingService(repo buildingRepository, store *housing.Store, validate *validator.Validate, logger *zap.Logger) *BuildingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BuildingService{repo: repo, store: store, validator: validate, logger: logger}
}

// List returns all buildings with occupancy figures. The rate is derived
// here so the database never stores a percentage.
func (s *BuildingService) List(ctx context.Context) ([]models.BuildingDetail, error) {
	buildings, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list buildings")
	}
	for i := range buildings {
		buildings[i].OccupancyRate = occupancyRate(buildings[i].Occupied, buildings[i].TotalCapacity)
	}
	return buildings, nil
}

// Get returns a single building with occupancy figures.
func (s *BuildingService) Get(ctx context.Context, id string) (*models.BuildingDetail, error) {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "building not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load building")
	}
	detail.OccupancyRate = occupancyRate(detail.Occupied, detail.TotalCapacity)
	return detail, nil
}

// Create registers a new building.
func (s *BuildingService) Create(ctx context.Context, req CreateBuildingRequest) (*models.BuildingDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid building payload")
	}
	building := &models.Building{
		Name:   req.Name,
		Gender: models.Gender(req.Gender),
		Floors: req.Floors,
	}
	if err := s.repo.Create(ctx, building); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create building")
	}
	if s.store != nil {
		s.store.UpsertBuilding(*building)
	}
	return s.Get(ctx, building.ID)
}

// Update modifies an existing building.
func (s *BuildingService) Update(ctx context.Context, id string, req UpdateBuildingRequest) (*models.BuildingDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid building payload")
	}
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "building not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load building")
	}

	if models.Gender(req.Gender) != detail.Gender && detail.Occupied > 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot change gender while building has residents")
	}

	building := detail.Building
	building.Name = req.Name
	building.Gender = models.Gender(req.Gender)
	building.Floors = req.Floors

	if err := s.repo.Update(ctx, &building); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update building")
	}
	if s.store != nil {
		s.store.UpsertBuilding(building)
	}
	return s.Get(ctx, id)
}

// Delete removes an empty building.
func (s *BuildingService) Delete(ctx context.Context, id string) error {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "building not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load building")
	}
	if detail.Occupied > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "building has residents")
	}
	if detail.RoomCount > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "building still has rooms")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete building")
	}
	if s.store != nil {
		s.store.DeleteBuilding(id)
	}
	return nil
}

func occupancyRate(occupied, capacity int) int {
	if capacity == 0 {
		return 0
	}
	rate := float64(occupied) / float64(capacity) * 100
	return int(rate + 0.5)
}
