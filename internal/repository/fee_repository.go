package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ZiadSaad78/student-sorter-hub/internal/models"
)

// FeeRepository persists housing fee records.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository constructs the repository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// List returns fees filtered by the provided criteria, newest first.
func (r *FeeRepository) List(ctx context.Context, filter models.FeeFilter) ([]models.Fee, int, error) {
	base := "FROM fees WHERE 1=1"
	var args []interface{}

	if filter.StudentID != "" {
		base += fmt.Sprintf(" AND student_id = $%d", len(args)+1)
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		base += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}
	if filter.FeeType != "" {
		base += fmt.Sprintf(" AND fee_type = $%d", len(args)+1)
		args = append(args, filter.FeeType)
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

	query := fmt.Sprintf(`SELECT id, student_id, assignment_id, amount, fee_type, status, created_at, paid_at
        %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var fees []models.Fee
	if err := r.db.SelectContext(ctx, &fees, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list fees: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count fees: %w", err)
	}
	return fees, total, nil
}

// FindByID returns a fee by its ID.
func (r *FeeRepository) FindByID(ctx context.Context, id string) (*models.Fee, error) {
	const query = `SELECT id, student_id, assignment_id, amount, fee_type, status, created_at, paid_at FROM fees WHERE id = $1`
	var fee models.Fee
	if err := r.db.GetContext(ctx, &fee, query, id); err != nil {
		return nil, err
	}
	return &fee, nil
}

// Create persists a new fee record.
func (r *FeeRepository) Create(ctx context.Context, fee *models.Fee) error {
	if fee.ID == "" {
		fee.ID = uuid.NewString()
	}
	if fee.CreatedAt.IsZero() {
		fee.CreatedAt = time.Now().UTC()
	}
	if fee.Status == "" {
		fee.Status = models.FeeStatusUnpaid
	}
	const query = `INSERT INTO fees (id, student_id, assignment_id, amount, fee_type, status, created_at, paid_at)
        VALUES (:id, :student_id, :assignment_id, :amount, :fee_type, :status, :created_at, :paid_at)`
	if _, err := r.db.NamedExecContext(ctx, query, fee); err != nil {
		return fmt.Errorf("create fee: %w", err)
	}
	return nil
}

// MarkPaid flips a fee to paid and stamps the payment time.
func (r *FeeRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time) error {
	const query = `UPDATE fees SET status = $2, paid_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.FeeStatusPaid, paidAt); err != nil {
		return fmt.Errorf("mark fee paid: %w", err)
	}
	return nil
}

// SumByStatus returns the total amounts grouped by payment status.
func (r *FeeRepository) SumByStatus(ctx context.Context) (map[models.FeeStatus]float64, error) {
	const query = `SELECT status, COALESCE(SUM(amount), 0) FROM fees GROUP BY status`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sum fees by status: %w", err)
	}
	defer rows.Close()

	totals := make(map[models.FeeStatus]float64)
	for rows.Next() {
		var status models.FeeStatus
		var amount float64
		if err := rows.Scan(&status, &amount); err != nil {
			return nil, fmt.Errorf("scan fee total: %w", err)
		}
		totals[status] = amount
	}
	return totals, rows.Err()
}
