package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ZiadSaad78/student-sorter-hub/internal/dto"
	"github.com/ZiadSaad78/student-sorter-hub/internal/models"
	"github.com/ZiadSaad78/student-sorter-hub/internal/repository"
	appErrors "github.com/ZiadSaad78/student-sorter-hub/pkg/errors"
	"github.com/ZiadSaad78/student-sorter-hub/pkg/export"
	"github.com/ZiadSaad78/student-sorter-hub/pkg/jobs"
	"github.com/ZiadSaad78/student-sorter-hub/pkg/storage"
)

const downloadURLPrefix = "/api/v1/reports/download/"

type reportJobRepository interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.ReportJob, error)
	ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error)
	Delete(ctx context.Context, id string) error
}

// ReportServiceConfig tunes the background worker pool and artifact retention.
type ReportServiceConfig struct {
	WorkerConcurrency int
	WorkerRetries     int
	RetryDelay        time.Duration
	ResultTTL         time.Duration
	CleanupInterval   time.Duration
}

// ReportService runs asynchronous exports. A request only enqueues a job
// row; workers render the dataset, write the artifact to local storage and
// publish a signed download URL on the job.
type ReportService struct {
	repo      reportJobRepository
	exports   *ExportService
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	storage   *storage.LocalStorage
	signer    *storage.SignedURLSigner
	queue     *jobs.Queue
	validator *validator.Validate
	logger    *zap.Logger

	resultTTL       time.Duration
	cleanupInterval time.Duration
	cleanupCancel   context.CancelFunc
}

// NewReportService constructs the service and its worker queue.
func NewReportService(repo reportJobRepository, exports *ExportService, store *storage.LocalStorage, signer *storage.SignedURLSigner, cfg ReportServiceConfig, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Hour
	}

	s := &ReportService{
		repo:            repo,
		exports:         exports,
		csv:             export.NewCSVExporter(),
		pdf:             export.NewPDFExporter(),
		storage:         store,
		signer:          signer,
		validator:       validator.New(),
		logger:          logger,
		resultTTL:       cfg.ResultTTL,
		cleanupInterval: cfg.CleanupInterval,
	}
	s.queue = jobs.NewQueue("reports", s.process, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the workers, requeues jobs left over from a previous run
// and begins periodic artifact cleanup.
func (s *ReportService) Start(ctx context.Context) {
	s.queue.Start(ctx)

	queued, err := s.repo.ListQueued(ctx, 100)
	if err != nil {
		s.logger.Warn("failed to recover queued report jobs", zap.Error(err))
	}
	for _, job := range queued {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
			s.logger.Warn("failed to requeue report job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}

	cleanupCtx, cancel := context.WithCancel(ctx)
	s.cleanupCancel = cancel
	go s.cleanupLoop(cleanupCtx)
}

// Stop shuts the worker pool and cleanup loop down.
func (s *ReportService) Stop() {
	if s.cleanupCancel != nil {
		s.cleanupCancel()
	}
	s.queue.Stop()
}

// Create persists a new export job and hands it to the workers.
func (s *ReportService) Create(ctx context.Context, req dto.CreateReportRequest, userID string) (*dto.ReportJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report request")
	}

	if req.BuildingID != nil && req.Type != models.ReportTypeStudents {
		return nil, appErrors.Clone(appErrors.ErrValidation, "building filter only applies to student reports")
	}

	job := &models.ReportJob{
		Type: req.Type,
		Params: models.ReportJobParams{
			BuildingID: req.BuildingID,
			Status:     req.Status,
			Format:     req.Format,
		},
		CreatedBy: userID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
		s.logger.Warn("failed to enqueue report job, will be recovered on restart", zap.String("job_id", job.ID), zap.Error(err))
	}

	resp := dto.FromReportJob(job)
	return &resp, nil
}

// Get returns the job projection for status polling.
func (s *ReportService) Get(ctx context.Context, id string) (*dto.ReportJobResponse, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	resp := dto.FromReportJob(job)
	return &resp, nil
}

// ListMine returns the caller's recent jobs, newest first.
func (s *ReportService) ListMine(ctx context.Context, userID string, limit int) ([]dto.ReportJobResponse, error) {
	rows, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list report jobs")
	}
	out := make([]dto.ReportJobResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.FromReportJob(&rows[i]))
	}
	return out, nil
}

// ResolveDownload validates a signed token and opens the artifact it points at.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*os.File, string, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}

	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if job.Status != models.ReportStatusFinished {
		return nil, "", appErrors.Clone(appErrors.ErrPreconditionFailed, "report is not ready")
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report artifact no longer available")
	}
	return file, relPath, nil
}

// process is the queue handler. It loads the job row, renders the dataset
// and flips the job to FINISHED or FAILED.
func (s *ReportService) process(ctx context.Context, job jobs.Job) error {
	row, err := s.repo.GetByID(ctx, job.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("report job vanished before processing", zap.String("job_id", job.ID))
			return nil
		}
		return fmt.Errorf("load report job %s: %w", job.ID, err)
	}
	if row.Status == models.ReportStatusFinished {
		return nil
	}

	s.setStatus(ctx, row.ID, models.ReportStatusProcessing, 10)

	if err := s.render(ctx, row); err != nil {
		s.markFailed(ctx, row.ID, err)
		return err
	}
	return nil
}

func (s *ReportService) render(ctx context.Context, row *models.ReportJob) error {
	dataset, title, err := s.exports.Dataset(row.Type, row.Params)
	if err != nil {
		return err
	}
	s.setStatus(ctx, row.ID, models.ReportStatusProcessing, 50)

	var (
		data []byte
		ext  string
	)
	switch row.Params.Format {
	case models.ReportFormatPDF:
		data, err = s.pdf.Render(dataset, title)
		ext = "pdf"
	case models.ReportFormatCSV, "":
		data, err = s.csv.Render(dataset)
		ext = "csv"
	default:
		return fmt.Errorf("unsupported report format %q", row.Params.Format)
	}
	if err != nil {
		return fmt.Errorf("render report %s: %w", row.ID, err)
	}

	relPath, err := s.storage.Save(fmt.Sprintf("%s.%s", row.ID, ext), data)
	if err != nil {
		return fmt.Errorf("store report %s: %w", row.ID, err)
	}

	token, _, err := s.signer.Generate(row.ID, relPath)
	if err != nil {
		return fmt.Errorf("sign report url %s: %w", row.ID, err)
	}

	status := models.ReportStatusFinished
	progress := 100
	resultURL := downloadURLPrefix + token
	finishedAt := time.Now().UTC()
	if err := s.repo.Update(ctx, row.ID, repository.UpdateReportJobParams{
		Status:     &status,
		Progress:   &progress,
		ResultURL:  &resultURL,
		FinishedAt: &finishedAt,
	}); err != nil {
		return fmt.Errorf("finish report job %s: %w", row.ID, err)
	}

	s.logger.Info("report job finished",
		zap.String("job_id", row.ID),
		zap.String("type", string(row.Type)),
		zap.String("format", string(row.Params.Format)),
		zap.Int("rows", len(dataset.Rows)))
	return nil
}

func (s *ReportService) setStatus(ctx context.Context, id string, status models.ReportStatus, progress int) {
	if err := s.repo.Update(ctx, id, repository.UpdateReportJobParams{Status: &status, Progress: &progress}); err != nil {
		s.logger.Warn("failed to update report job status", zap.String("job_id", id), zap.Error(err))
	}
}

func (s *ReportService) markFailed(ctx context.Context, id string, cause error) {
	status := models.ReportStatusFailed
	message := cause.Error()
	finishedAt := time.Now().UTC()
	if err := s.repo.Update(ctx, id, repository.UpdateReportJobParams{
		Status:       &status,
		ErrorMessage: &message,
		FinishedAt:   &finishedAt,
	}); err != nil {
		s.logger.Warn("failed to mark report job as failed", zap.String("job_id", id), zap.Error(err))
	}
}

func (s *ReportService) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanupExpired(ctx)
		}
	}
}

// cleanupExpired drops artifacts and job rows past the retention window.
func (s *ReportService) cleanupExpired(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.resultTTL)
	expired, err := s.repo.ListFinishedBefore(ctx, cutoff, 100)
	if err != nil {
		s.logger.Warn("failed to list expired report jobs", zap.Error(err))
		return
	}
	for _, job := range expired {
		if job.ResultURL != nil && strings.HasPrefix(*job.ResultURL, downloadURLPrefix) {
			token := strings.TrimPrefix(*job.ResultURL, downloadURLPrefix)
			if _, relPath, _, err := s.signer.Parse(token, true); err == nil {
				if err := s.storage.Delete(relPath); err != nil {
					s.logger.Warn("failed to delete report artifact", zap.String("job_id", job.ID), zap.Error(err))
				}
			}
		}
		if err := s.repo.Delete(ctx, job.ID); err != nil {
			s.logger.Warn("failed to delete expired report job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}

	removed, err := s.storage.CleanupOlderThan(s.resultTTL)
	if err != nil {
		s.logger.Warn("export storage cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("cleaned up export artifacts", zap.Int("count", len(removed)))
	}
}
