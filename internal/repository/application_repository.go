package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ZiadSaad78/student-sorter-hub/internal/models"
)

// ApplicationRepository persists housing applications and the windows
// that bound them.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// List returns applications filtered by the provided criteria.
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error) {
	base := `FROM applications ap
LEFT JOIN students s ON s.id = ap.student_id`
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("ap.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.WindowID != "" {
		conditions = append(conditions, fmt.Sprintf("ap.window_id = $%d", len(args)+1))
		args = append(args, filter.WindowID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.full_name) LIKE $%d OR s.national_id LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"applied_at":   "ap.applied_at",
		"reviewed_at":  "ap.reviewed_at",
		"student_name": "s.full_name",
	}
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "applied_at"
	}
	orderBy := allowedSorts[sortBy]
	if orderBy == "" {
		orderBy = "ap.applied_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT ap.id, ap.student_id, ap.window_id, ap.status, ap.applied_at, ap.reviewed_at, ap.reviewed_by,
        s.full_name AS student_name, s.national_id, s.faculty, s.level, s.governorate, s.gender
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var applications []models.ApplicationDetail
	if err := r.db.SelectContext(ctx, &applications, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}
	return applications, total, nil
}

// FindByID returns an application by its ID.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.Application, error) {
	const query = `SELECT id, student_id, window_id, status, applied_at, reviewed_at, reviewed_by FROM applications WHERE id = $1`
	var application models.Application
	if err := r.db.GetContext(ctx, &application, query, id); err != nil {
		return nil, err
	}
	return &application, nil
}

// FindDetailByID returns an application with applicant context.
func (r *ApplicationRepository) FindDetailByID(ctx context.Context, id string) (*models.ApplicationDetail, error) {
	const query = `SELECT ap.id, ap.student_id, ap.window_id, ap.status, ap.applied_at, ap.reviewed_at, ap.reviewed_by,
        s.full_name AS student_name, s.national_id, s.faculty, s.level, s.governorate, s.gender
        FROM applications ap
        LEFT JOIN students s ON s.id = ap.student_id
        WHERE ap.id = $1`
	var detail models.ApplicationDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsPending checks whether a student already has an unreviewed
// application.
func (r *ApplicationRepository) ExistsPending(ctx context.Context, studentID string) (bool, error) {
	const query = `SELECT 1 FROM applications WHERE student_id = $1 AND status = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, models.ApplicationStatusPending); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check pending application: %w", err)
	}
	return true, nil
}

// Create persists a new application record.
func (r *ApplicationRepository) Create(ctx context.Context, application *models.Application) error {
	if application.ID == "" {
		application.ID = uuid.NewString()
	}
	if application.AppliedAt.IsZero() {
		application.AppliedAt = time.Now().UTC()
	}
	if application.Status == "" {
		application.Status = models.ApplicationStatusPending
	}
	const query = `INSERT INTO applications (id, student_id, window_id, status, applied_at, reviewed_at, reviewed_by)
        VALUES (:id, :student_id, :window_id, :status, :applied_at, :reviewed_at, :reviewed_by)`
	if _, err := r.db.NamedExecContext(ctx, query, application); err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// Review records the reviewer's decision and the matching student status
// change in one transaction.
func (r *ApplicationRepository) Review(ctx context.Context, id string, status models.ApplicationStatus, reviewerID string, studentStatus models.StudentStatus) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin review tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	const updateApp = `UPDATE applications SET status = $2, reviewed_at = $3, reviewed_by = $4 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, updateApp, id, status, now, reviewerID); err != nil {
		return fmt.Errorf("update application: %w", err)
	}

	const updateStudent = `UPDATE students SET status = $2, updated_at = $3
        WHERE id = (SELECT student_id FROM applications WHERE id = $1)`
	if _, err := tx.ExecContext(ctx, updateStudent, id, studentStatus, now); err != nil {
		return fmt.Errorf("update applicant status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit review tx: %w", err)
	}
	return nil
}

// CountByStatus returns application totals grouped by status.
func (r *ApplicationRepository) CountByStatus(ctx context.Context) (map[models.ApplicationStatus]int, error) {
	const query = `SELECT status, COUNT(*) AS n FROM applications GROUP BY status`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count applications by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ApplicationStatus]int)
	for rows.Next() {
		var status models.ApplicationStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan application count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// CreateWindow inserts a new application window.
func (r *ApplicationRepository) CreateWindow(ctx context.Context, window *models.ApplicationWindow) error {
	if window.ID == "" {
		window.ID = uuid.NewString()
	}
	if window.CreatedAt.IsZero() {
		window.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO application_windows (id, name, start_date, end_date, active, created_at)
        VALUES (:id, :name, :start_date, :end_date, :active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, window); err != nil {
		return fmt.Errorf("create application window: %w", err)
	}
	return nil
}

// UpdateWindow modifies an existing window.
func (r *ApplicationRepository) UpdateWindow(ctx context.Context, window *models.ApplicationWindow) error {
	const query = `UPDATE application_windows SET name = :name, start_date = :start_date, end_date = :end_date, active = :active WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, window); err != nil {
		return fmt.Errorf("update application window: %w", err)
	}
	return nil
}

// ListWindows returns all windows, newest first.
func (r *ApplicationRepository) ListWindows(ctx context.Context) ([]models.ApplicationWindow, error) {
	const query = `SELECT id, name, start_date, end_date, active, created_at FROM application_windows ORDER BY start_date DESC`
	var windows []models.ApplicationWindow
	if err := r.db.SelectContext(ctx, &windows, query); err != nil {
		return nil, fmt.Errorf("list application windows: %w", err)
	}
	return windows, nil
}

// FindWindowByID returns a window by its ID.
func (r *ApplicationRepository) FindWindowByID(ctx context.Context, id string) (*models.ApplicationWindow, error) {
	const query = `SELECT id, name, start_date, end_date, active, created_at FROM application_windows WHERE id = $1`
	var window models.ApplicationWindow
	if err := r.db.GetContext(ctx, &window, query, id); err != nil {
		return nil, err
	}
	return &window, nil
}

// FindOpenWindow returns the active window covering the given instant.
func (r *ApplicationRepository) FindOpenWindow(ctx context.Context, at time.Time) (*models.ApplicationWindow, error) {
	const query = `SELECT id, name, start_date, end_date, active, created_at FROM application_windows
        WHERE active = TRUE AND start_date <= $1 AND end_date >= $1
        ORDER BY start_date DESC LIMIT 1`
	var window models.ApplicationWindow
	if err := r.db.GetContext(ctx, &window, query, at); err != nil {
		return nil, err
	}
	return &window, nil
}
