package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ZiadSaad78/student-sorter-hub/internal/models"
	appErrors "github.com/ZiadSaad78/student-sorter-hub/pkg/errors"
)

type complaintRepository interface {
	List(ctx context.Context, filter models.ComplaintFilter) ([]models.ComplaintDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Complaint, error)
	Create(ctx context.Context, complaint *models.Complaint) error
	Resolve(ctx context.Context, id, resolution string, resolvedAt time.Time) error
}

// CreateComplaintRequest describes complaint submission payload.
type CreateComplaintRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	Title     string `json:"title" validate:"required,min=3,max=120"`
	Message   string `json:"message" validate:"required,min=10"`
}

// ResolveComplaintRequest describes resolution payload.
type ResolveComplaintRequest struct {
	Resolution string `json:"resolution" validate:"required,min=3"`
}

// ComplaintService orchestrates complaint handling.
type ComplaintService struct {
	repo          complaintRepository
	students      applicantReader
	notifications notificationWriter
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewComplaintService constructs ComplaintService.
func NewComplaintService(repo complaintRepository, students applicantReader, notifications notificationWriter, validate *validator.Validate, logger *zap.Logger) *ComplaintService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplaintService{repo: repo, students: students, notifications: notifications, validator: validate, logger: logger}
}

// List returns complaints with pagination metadata.
func (s *ComplaintService) List(ctx context.Context, filter models.ComplaintFilter) ([]models.ComplaintDetail, *models.Pagination, error) {
	complaints, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list complaints")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return complaints, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Create files a new complaint.
func (s *ComplaintService) Create(ctx context.Context, req CreateComplaintRequest) (*models.Complaint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid complaint payload")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	complaint := &models.Complaint{
		StudentID: req.StudentID,
		Title:     req.Title,
		Message:   req.Message,
		Status:    models.ComplaintStatusOpen,
	}
	if err := s.repo.Create(ctx, complaint); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create complaint")
	}
	return complaint, nil
}

// Resolve closes an open complaint and notifies the student.
func (s *ComplaintService) Resolve(ctx context.Context, id string, req ResolveComplaintRequest) (*models.Complaint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resolution payload")
	}
	complaint, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load complaint")
	}
	if complaint.Status == models.ComplaintStatusResolved {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "complaint already resolved")
	}

	resolvedAt := time.Now().UTC()
	if err := s.repo.Resolve(ctx, id, req.Resolution, resolvedAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve complaint")
	}

	if s.notifications != nil {
		if err := s.notifications.Create(ctx, &models.Notification{
			StudentID: complaint.StudentID,
			Title:     "Complaint resolved",
			Message:   req.Resolution,
		}); err != nil {
			s.logger.Warn("failed to create resolution notification", zap.Error(err))
		}
	}

	complaint.Status = models.ComplaintStatusResolved
	complaint.ResolutionMessage = &req.Resolution
	complaint.ResolvedAt = &resolvedAt
	return complaint, nil
}
