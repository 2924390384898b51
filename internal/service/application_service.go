package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ZiadSaad78/student-sorter-hub/internal/housing"
	"github.com/ZiadSaad78/student-sorter-hub/internal/models"
	appErrors "github.com/ZiadSaad78/student-sorter-hub/pkg/errors"
)

type applicationRepository interface {
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Application, error)
	FindDetailByID(ctx context.Context, id string) (*models.ApplicationDetail, error)
	ExistsPending(ctx context.Context, studentID string) (bool, error)
	Create(ctx context.Context, application *models.Application) error
	Review(ctx context.Context, id string, status models.ApplicationStatus, reviewerID string, studentStatus models.StudentStatus) error
	CreateWindow(ctx context.Context, window *models.ApplicationWindow) error
	UpdateWindow(ctx context.Context, window *models.ApplicationWindow) error
	ListWindows(ctx context.Context) ([]models.ApplicationWindow, error)
	FindWindowByID(ctx context.Context, id string) (*models.ApplicationWindow, error)
	FindOpenWindow(ctx context.Context, at time.Time) (*models.ApplicationWindow, error)
}

type applicantReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type notificationWriter interface {
	Create(ctx context.Context, n *models.Notification) error
}

// SubmitApplicationRequest describes application submission payload.
type SubmitApplicationRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}

// CreateWindowRequest describes application window creation payload.
type CreateWindowRequest struct {
	Name      string    `json:"name" validate:"required,min=3"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	Active    bool      `json:"active"`
}

// ApplicationService orchestrates housing application review.
type ApplicationService struct {
	repo          applicationRepository
	students      applicantReader
	notifications notificationWriter
	audit         auditWriter
	store         *housing.Store
	validator     *validator.Validate
	logger        *zap.Logger
	now           func() time.Time
}

// NewApplicationService constructs ApplicationService.
func NewApplicationService(repo applicationRepository, students applicantReader, notifications notificationWriter, audit auditWriter, store *housing.Store, validate *validator.Validate, logger *zap.Logger) *ApplicationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationService{
		repo:          repo,
		students:      students,
		notifications: notifications,
		audit:         audit,
		store:         store,
		validator:     validate,
		logger:        logger,
		now:           time.Now,
	}
}

// List returns applications with pagination metadata.
func (s *ApplicationService) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, *models.Pagination, error) {
	applications, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return applications, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one application with applicant context.
func (s *ApplicationService) Get(ctx context.Context, id string) (*models.ApplicationDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	return detail, nil
}

// Submit files a new application for a pending student inside an open window.
func (s *ApplicationService) Submit(ctx context.Context, req SubmitApplicationRequest) (*models.ApplicationDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Status != models.StudentStatusPending {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student already reviewed")
	}

	window, err := s.repo.FindOpenWindow(ctx, s.now().UTC())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no application window is open")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application window")
	}

	pending, err := s.repo.ExistsPending(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate application")
	}
	if pending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already has a pending application")
	}

	application := &models.Application{
		StudentID: req.StudentID,
		WindowID:  &window.ID,
		Status:    models.ApplicationStatusPending,
		AppliedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, application); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create application")
	}
	return s.Get(ctx, application.ID)
}

// Accept marks an application accepted, which makes the applicant
// eligible for room assignment.
func (s *ApplicationService) Accept(ctx context.Context, id, reviewerID string) (*models.ApplicationDetail, error) {
	return s.review(ctx, id, reviewerID, models.ApplicationStatusAccepted, models.StudentStatusAccepted, models.AuditActionAppAccept,
		"Housing application accepted", "Your housing application has been accepted. You will be assigned a room soon.")
}

// Reject marks an application rejected.
func (s *ApplicationService) Reject(ctx context.Context, id, reviewerID string) (*models.ApplicationDetail, error) {
	return s.review(ctx, id, reviewerID, models.ApplicationStatusRejected, models.StudentStatusRejected, models.AuditActionAppReject,
		"Housing application rejected", "Your housing application has been rejected.")
}

func (s *ApplicationService) review(ctx context.Context, id, reviewerID string, status models.ApplicationStatus, studentStatus models.StudentStatus, auditAction, notifyTitle, notifyMessage string) (*models.ApplicationDetail, error) {
	application, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if application.Status != models.ApplicationStatusPending {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "application already reviewed")
	}

	if err := s.repo.Review(ctx, id, status, reviewerID, studentStatus); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review application")
	}

	if s.store != nil {
		if current, ok := s.store.GetStudent(application.StudentID); ok {
			current.Status = studentStatus
			s.store.UpsertStudent(current)
		}
	}

	if s.notifications != nil {
		if err := s.notifications.Create(ctx, &models.Notification{
			StudentID:     application.StudentID,
			Title:         notifyTitle,
			Message:       notifyMessage,
			ApplicationID: &application.ID,
		}); err != nil {
			s.logger.Warn("failed to create review notification", zap.Error(err))
		}
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &reviewerID,
			Action:     auditAction,
			Resource:   "application",
			ResourceID: &application.ID,
		}); err != nil {
			s.logger.Warn("failed to record application audit log", zap.Error(err))
		}
	}

	return s.Get(ctx, id)
}

// ListWindows returns all application windows.
func (s *ApplicationService) ListWindows(ctx context.Context) ([]models.ApplicationWindow, error) {
	windows, err := s.repo.ListWindows(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list application windows")
	}
	return windows, nil
}

// CreateWindow opens a new application window.
func (s *ApplicationService) CreateWindow(ctx context.Context, req CreateWindowRequest) (*models.ApplicationWindow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid window payload")
	}
	window := &models.ApplicationWindow{
		Name:      req.Name,
		StartDate: req.StartDate.UTC(),
		EndDate:   req.EndDate.UTC(),
		Active:    req.Active,
	}
	if err := s.repo.CreateWindow(ctx, window); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create application window")
	}
	return window, nil
}

// SetWindowActive toggles a window.
func (s *ApplicationService) SetWindowActive(ctx context.Context, id string, active bool) (*models.ApplicationWindow, error) {
	window, err := s.repo.FindWindowByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application window not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application window")
	}
	window.Active = active
	if err := s.repo.UpdateWindow(ctx, window); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update application window")
	}
	return window, nil
}
