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

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	ExistsByNationalID(ctx context.Context, nationalID, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	UpdateStatus(ctx context.Context, id string, status models.StudentStatus) error
	Delete(ctx context.Context, id string) error
}

// CreateStudentRequest describes student creation payload.
type CreateStudentRequest struct {
	NationalID  string `json:"national_id" validate:"required,len=14"`
	FullName    string `json:"full_name" validate:"required,min=3"`
	Gender      string `json:"gender" validate:"required,oneof=male female"`
	Faculty     string `json:"faculty" validate:"required"`
	Level       string `json:"level" validate:"required"`
	Governorate string `json:"governorate" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"omitempty,min=7"`
}

// UpdateStudentRequest describes mutable profile fields.
type UpdateStudentRequest struct {
	FullName    string `json:"full_name" validate:"required,min=3"`
	Faculty     string `json:"faculty" validate:"required"`
	Level       string `json:"level" validate:"required"`
	Governorate string `json:"governorate" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"omitempty,min=7"`
}

// StudentService orchestrates student management. Every successful write
// is mirrored into the in-memory housing store so eligibility views and
// the assignment engine see the change immediately.
type StudentService struct {
	repo      studentRepository
	store     *housing.Store
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(repo studentRepository, store *housing.Store, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, store: store, validator: validate, logger: logger}
}

// List returns students with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single student with housing context.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return detail, nil
}

// Create registers a new student in pending state.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	exists, err := s.repo.ExistsByNationalID(ctx, req.NationalID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate national id")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "national id already registered")
	}

	student := &models.Student{
		NationalID:  req.NationalID,
		FullName:    req.FullName,
		Gender:      models.Gender(req.Gender),
		Faculty:     req.Faculty,
		Level:       req.Level,
		Governorate: req.Governorate,
		Email:       req.Email,
		Phone:       req.Phone,
		Status:      models.StudentStatusPending,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	if s.store != nil {
		s.store.UpsertStudent(*student)
	}
	return s.Get(ctx, student.ID)
}

// Update modifies profile fields of an existing student.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	student := detail.Student
	student.FullName = req.FullName
	student.Faculty = req.Faculty
	student.Level = req.Level
	student.Governorate = req.Governorate
	student.Email = req.Email
	student.Phone = req.Phone

	if err := s.repo.Update(ctx, &student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	if s.store != nil {
		// Carry the live housing link through the upsert.
		if current, ok := s.store.GetStudent(id); ok {
			student.Status = current.Status
			student.RoomID = current.RoomID
		}
		s.store.UpsertStudent(student)
	}
	return s.Get(ctx, id)
}

// SetStatus moves a student between review states. Housed students must
// be released from their room first.
func (s *StudentService) SetStatus(ctx context.Context, id string, status models.StudentStatus) (*models.StudentDetail, error) {
	switch status {
	case models.StudentStatusPending, models.StudentStatusAccepted, models.StudentStatusRejected:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be pending, accepted or rejected")
	}

	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if detail.Status == models.StudentStatusHoused {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student is housed, remove the room assignment first")
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student status")
	}

	if s.store != nil {
		if current, ok := s.store.GetStudent(id); ok {
			current.Status = status
			s.store.UpsertStudent(current)
		}
	}
	return s.Get(ctx, id)
}

// Delete removes a student that holds no live assignment.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if detail.Status == models.StudentStatusHoused {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "student is housed, remove the room assignment first")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	if s.store != nil {
		s.store.DeleteStudent(id)
	}
	return nil
}
