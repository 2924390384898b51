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

type assignmentRepository interface {
	Persist(ctx context.Context, a *models.Assignment) error
	Release(ctx context.Context, a *models.Assignment) error
	FindDetailByID(ctx context.Context, id string) (*models.AssignmentDetail, error)
	History(ctx context.Context, studentID, roomID string, page, pageSize int) ([]models.AssignmentDetail, int, error)
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AssignRoomRequest describes an assignment creation payload.
type AssignRoomRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	RoomID    string `json:"room_id" validate:"required"`
}

// UnassignRoomRequest describes a removal payload.
type UnassignRoomRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	RoomID    string `json:"room_id" validate:"required"`
}

// AssignmentService orchestrates room assignment workflows. The in-memory
// engine validates and applies each change first; the database write
// follows, and a failed write rolls the in-memory change back so the two
// views never diverge.
type AssignmentService struct {
	engine    *housing.Engine
	repo      assignmentRepository
	audit     auditWriter
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService constructs AssignmentService.
func NewAssignmentService(engine *housing.Engine, repo assignmentRepository, audit auditWriter, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{engine: engine, repo: repo, audit: audit, cache: cache, validator: validate, logger: logger}
}

// Assign places a student into a room.
func (s *AssignmentService) Assign(ctx context.Context, req AssignRoomRequest, actorID string) (*models.AssignmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	assignment, err := s.engine.Assign(req.StudentID, req.RoomID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Persist(ctx, assignment); err != nil {
		if _, revertErr := s.engine.Remove(req.StudentID, req.RoomID); revertErr != nil {
			s.logger.Error("failed to revert in-memory assignment after db error",
				zap.String("assignment_id", assignment.ID), zap.Error(revertErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist assignment")
	}

	s.recordAudit(ctx, actorID, models.AuditActionAssign, assignment)
	s.invalidateDashboard(ctx)

	detail, err := s.repo.FindDetailByID(ctx, assignment.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment detail")
	}
	return detail, nil
}

// Unassign releases a student from a room.
func (s *AssignmentService) Unassign(ctx context.Context, req UnassignRoomRequest, actorID string) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid unassign payload")
	}

	assignment, err := s.engine.Remove(req.StudentID, req.RoomID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Release(ctx, assignment); err != nil {
		// Restore the link without re-running preconditions; the room seat
		// was still ours a moment ago.
		s.engine.Store().Hydrate(*assignment)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to release assignment")
	}

	s.recordAudit(ctx, actorID, models.AuditActionUnassign, assignment)
	s.invalidateDashboard(ctx)
	return assignment, nil
}

// History lists assignment rows, live and released.
func (s *AssignmentService) History(ctx context.Context, studentID, roomID string, page, pageSize int) ([]models.AssignmentDetail, *models.Pagination, error) {
	assignments, total, err := s.repo.History(ctx, studentID, roomID, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return assignments, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// EligibleStudents returns the students that may be placed in rooms of a
// building.
func (s *AssignmentService) EligibleStudents(buildingID string) ([]models.Student, error) {
	if _, ok := s.engine.Store().GetBuilding(buildingID); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "building not found")
	}
	students := s.engine.Store().EligibleStudents(buildingID)
	if students == nil {
		students = []models.Student{}
	}
	return students, nil
}

// RoomOccupants returns the students currently assigned to a room.
func (s *AssignmentService) RoomOccupants(roomID string) ([]models.Student, error) {
	if _, ok := s.engine.Store().GetRoom(roomID); !ok {
		return nil, appErrors.Clone(appErrors.ErrRoomNotFound, "")
	}
	occupants := s.engine.Store().StudentsInRoom(roomID)
	if occupants == nil {
		occupants = []models.Student{}
	}
	return occupants, nil
}

func (s *AssignmentService) recordAudit(ctx context.Context, actorID, action string, a *models.Assignment) {
	if s.audit == nil {
		return
	}
	var userID *string
	if actorID != "" {
		userID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   "assignment",
		ResourceID: &a.ID,
		NewValues:  []byte(`{"student_id":"` + a.StudentID + `","room_id":"` + a.RoomID + `"}`),
	}); err != nil {
		s.logger.Warn("failed to record assignment audit log", zap.Error(err))
	}
}

func (s *AssignmentService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
