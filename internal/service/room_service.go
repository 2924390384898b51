package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ZiadSaad78/student-sorter-hub/internal/housing"
	"github.com/ZiadSaad78/student-sorter-hub/internal/models"
	appErrors "github.com/ZiadSaad78/student-sorter-hub/pkg/errors"
)

type roomRepository interface {
	List(ctx context.Context, filter models.RoomFilter) ([]models.RoomDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.RoomDetail, error)
	ExistsByNumber(ctx context.Context, buildingID, number, excludeID string) (bool, error)
	Create(ctx context.Context, room *models.Room) error
	Update(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id string) error
}

type buildingReader interface {
	FindByID(ctx context.Context, id string) (*models.BuildingDetail, error)
}

// CreateRoomRequest describes room creation payload.
type CreateRoomRequest struct {
	Number     string `json:"number" validate:"required"`
	BuildingID string `json:"building_id" validate:"required"`
	Floor      int    `json:"floor" validate:"required,min=1"`
	Capacity   int    `json:"capacity" validate:"required,min=1"`
}

// UpdateRoomRequest describes mutable room fields.
type UpdateRoomRequest struct {
	Number   string `json:"number" validate:"required"`
	Floor    int    `json:"floor" validate:"required,min=1"`
	Capacity int    `json:"capacity" validate:"required,min=1"`
}

// RoomService orchestrates room management.
type RoomService struct {
	repo            roomRepository
	buildings       buildingReader
	store           *housing.Store
	maxRoomCapacity int
	validator       *validator.Validate
	logger          *zap.Logger
}

// NewRoomService constructs RoomService.
func NewRoomService(repo roomRepository, buildings buildingReader, store *housing.Store, maxRoomCapacity int, validate *validator.Validate, logger *zap.Logger) *RoomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRoomCapacity <= 0 {
		maxRoomCapacity = 6
	}
	return &RoomService{repo: repo, buildings: buildings, store: store, maxRoomCapacity: maxRoomCapacity, validator: validate, logger: logger}
}

// List returns rooms with pagination metadata.
func (s *RoomService) List(ctx context.Context, filter models.RoomFilter) ([]models.RoomDetail, *models.Pagination, error) {
	rooms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return rooms, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single room with derived occupancy.
func (s *RoomService) Get(ctx context.Context, id string) (*models.RoomDetail, error) {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrRoomNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	return detail, nil
}

// Create registers a new room inside a building.
func (s *RoomService) Create(ctx context.Context, req CreateRoomRequest) (*models.RoomDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	if req.Capacity > s.maxRoomCapacity {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("capacity exceeds maximum of %d beds", s.maxRoomCapacity))
	}

	building, err := s.buildings.FindByID(ctx, req.BuildingID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "building not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load building")
	}
	if req.Floor > building.Floors {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("building has only %d floors", building.Floors))
	}

	exists, err := s.repo.ExistsByNumber(ctx, req.BuildingID, req.Number, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate room number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "room number already used in this building")
	}

	room := &models.Room{
		Number:     req.Number,
		BuildingID: req.BuildingID,
		Floor:      req.Floor,
		Capacity:   req.Capacity,
	}
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create room")
	}
	if s.store != nil {
		s.store.UpsertRoom(*room)
	}
	return s.Get(ctx, room.ID)
}

// Update modifies an existing room. Capacity may not drop below the
// current occupancy.
func (s *RoomService) Update(ctx context.Context, id string, req UpdateRoomRequest) (*models.RoomDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	if req.Capacity > s.maxRoomCapacity {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("capacity exceeds maximum of %d beds", s.maxRoomCapacity))
	}

	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrRoomNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	if req.Capacity < detail.CurrentOccupancy {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "capacity below current occupancy")
	}

	building, err := s.buildings.FindByID(ctx, detail.BuildingID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load building")
	}
	if req.Floor > building.Floors {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("building has only %d floors", building.Floors))
	}

	if req.Number != detail.Number {
		exists, err := s.repo.ExistsByNumber(ctx, detail.BuildingID, req.Number, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate room number")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "room number already used in this building")
		}
	}

	room := detail.Room
	room.Number = req.Number
	room.Floor = req.Floor
	room.Capacity = req.Capacity

	if err := s.repo.Update(ctx, &room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update room")
	}
	if s.store != nil {
		s.store.UpsertRoom(room)
	}
	return s.Get(ctx, id)
}

// Delete removes an empty room.
func (s *RoomService) Delete(ctx context.Context, id string) error {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrRoomNotFound, "")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	if detail.CurrentOccupancy > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "room is occupied")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete room")
	}
	if s.store != nil {
		s.store.DeleteRoom(id)
	}
	return nil
}
