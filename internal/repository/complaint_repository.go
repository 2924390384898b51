package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ZiadSaad78/student-sorter-hub/internal/models"
)

// ComplaintRepository persists complaint records.
type ComplaintRepository struct {
	db *sqlx.DB
}

// NewComplaintRepository constructs the repository.
func NewComplaintRepository(db *sqlx.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

// List returns complaints with the complainant's name, newest first.
func (r *ComplaintRepository) List(ctx context.Context, filter models.ComplaintFilter) ([]models.ComplaintDetail, int, error) {
	base := "FROM complaints c LEFT JOIN students s ON s.id = c.student_id WHERE 1=1"
	var args []interface{}

	if filter.StudentID != "" {
		base += fmt.Sprintf(" AND c.student_id = $%d", len(args)+1)
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		base += fmt.Sprintf(" AND c.status = $%d", len(args)+1)
		args = append(args, filter.Status)
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

	query := fmt.Sprintf(`SELECT c.id, c.student_id, c.title, c.message, c.status, c.resolution_message, c.created_at, c.resolved_at,
        s.full_name AS student_name
        %s ORDER BY c.created_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var complaints []models.ComplaintDetail
	if err := r.db.SelectContext(ctx, &complaints, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list complaints: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count complaints: %w", err)
	}
	return complaints, total, nil
}

// FindByID returns a complaint by its ID.
func (r *ComplaintRepository) FindByID(ctx context.Context, id string) (*models.Complaint, error) {
	const query = `SELECT id, student_id, title, message, status, resolution_message, created_at, resolved_at FROM complaints WHERE id = $1`
	var complaint models.Complaint
	if err := r.db.GetContext(ctx, &complaint, query, id); err != nil {
		return nil, err
	}
	return &complaint, nil
}

// Create persists a new complaint.
func (r *ComplaintRepository) Create(ctx context.Context, complaint *models.Complaint) error {
	if complaint.ID == "" {
		complaint.ID = uuid.NewString()
	}
	if complaint.CreatedAt.IsZero() {
		complaint.CreatedAt = time.Now().UTC()
	}
	if complaint.Status == "" {
		complaint.Status = models.ComplaintStatusOpen
	}
	const query = `INSERT INTO complaints (id, student_id, title, message, status, resolution_message, created_at, resolved_at)
        VALUES (:id, :student_id, :title, :message, :status, :resolution_message, :created_at, :resolved_at)`
	if _, err := r.db.NamedExecContext(ctx, query, complaint); err != nil {
		return fmt.Errorf("create complaint: %w", err)
	}
	return nil
}

// Resolve closes a complaint with a resolution message.
func (r *ComplaintRepository) Resolve(ctx context.Context, id, resolution string, resolvedAt time.Time) error {
	const query = `UPDATE complaints SET status = $2, resolution_message = $3, resolved_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ComplaintStatusResolved, resolution, resolvedAt); err != nil {
		return fmt.Errorf("resolve complaint: %w", err)
	}
	return nil
}

// CountOpen returns the number of unresolved complaints.
func (r *ComplaintRepository) CountOpen(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM complaints WHERE status = $1`
	var n int
	if err := r.db.GetContext(ctx, &n, query, models.ComplaintStatusOpen); err != nil {
		return 0, fmt.Errorf("count open complaints: %w", err)
	}
	return n, nil
}
