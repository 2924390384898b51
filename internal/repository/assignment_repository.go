package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ZiadSaad78/student-sorter-hub/internal/models"
)

// AssignmentRepository persists room assignment records. Assignment rows
// are never deleted; releasing a student flips the row inactive so the
// assignment history survives.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Persist stores a new assignment and moves the student to housed in one
// transaction. A partial unique index on (student_id) WHERE active guards
// against a second live row for the same student.
func (r *AssignmentRepository) Persist(ctx context.Context, a *models.Assignment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assign tx: %w", err)
	}
	defer tx.Rollback()

	const insert = `INSERT INTO assignments (id, student_id, room_id, assigned_at, active)
        VALUES (:id, :student_id, :room_id, :assigned_at, :active)`
	if _, err := tx.NamedExecContext(ctx, insert, a); err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}

	const updateStudent = `UPDATE students SET status = $2, room_id = $3, updated_at = $4 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, updateStudent, a.StudentID, models.StudentStatusHoused, a.RoomID, time.Now().UTC()); err != nil {
		return fmt.Errorf("update student housing link: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assign tx: %w", err)
	}
	return nil
}

// Release deactivates an assignment and reverts the student to accepted
// in one transaction.
func (r *AssignmentRepository) Release(ctx context.Context, a *models.Assignment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin release tx: %w", err)
	}
	defer tx.Rollback()

	const deactivate = `UPDATE assignments SET active = FALSE WHERE id = $1 AND active = TRUE`
	if _, err := tx.ExecContext(ctx, deactivate, a.ID); err != nil {
		return fmt.Errorf("deactivate assignment: %w", err)
	}

	const updateStudent = `UPDATE students SET status = $2, room_id = NULL, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, updateStudent, a.StudentID, models.StudentStatusAccepted, time.Now().UTC()); err != nil {
		return fmt.Errorf("update student housing link: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit release tx: %w", err)
	}
	return nil
}

// FindActiveByStudent returns the live assignment for a student.
func (r *AssignmentRepository) FindActiveByStudent(ctx context.Context, studentID string) (*models.Assignment, error) {
	const query = `SELECT id, student_id, room_id, assigned_at, active FROM assignments WHERE student_id = $1 AND active = TRUE LIMIT 1`
	var a models.Assignment
	if err := r.db.GetContext(ctx, &a, query, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find active assignment: %w", err)
	}
	return &a, nil
}

// ListActive returns every live assignment, oldest first. Used to hydrate
// the in-memory housing state at startup.
func (r *AssignmentRepository) ListActive(ctx context.Context) ([]models.Assignment, error) {
	const query = `SELECT id, student_id, room_id, assigned_at, active FROM assignments WHERE active = TRUE ORDER BY assigned_at ASC`
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query); err != nil {
		return nil, fmt.Errorf("list active assignments: %w", err)
	}
	return assignments, nil
}

// FindDetailByID returns an assignment with student and room context.
func (r *AssignmentRepository) FindDetailByID(ctx context.Context, id string) (*models.AssignmentDetail, error) {
	const query = `SELECT a.id, a.student_id, a.room_id, a.assigned_at, a.active,
        s.full_name AS student_name, r.number AS room_number, b.id AS building_id, b.name AS building_name
        FROM assignments a
        LEFT JOIN students s ON s.id = a.student_id
        LEFT JOIN rooms r ON r.id = a.room_id
        LEFT JOIN buildings b ON b.id = r.building_id
        WHERE a.id = $1`
	var detail models.AssignmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// History returns assignment rows, live and released, filtered by student
// or room, newest first.
func (r *AssignmentRepository) History(ctx context.Context, studentID, roomID string, page, pageSize int) ([]models.AssignmentDetail, int, error) {
	base := `FROM assignments a
LEFT JOIN students s ON s.id = a.student_id
LEFT JOIN rooms r ON r.id = a.room_id
LEFT JOIN buildings b ON b.id = r.building_id`
	var conditions []string
	var args []interface{}

	if studentID != "" {
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)+1))
		args = append(args, studentID)
	}
	if roomID != "" {
		conditions = append(conditions, fmt.Sprintf("a.room_id = $%d", len(args)+1))
		args = append(args, roomID)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT a.id, a.student_id, a.room_id, a.assigned_at, a.active,
        s.full_name AS student_name, r.number AS room_number, b.id AS building_id, b.name AS building_name
        %s ORDER BY a.assigned_at DESC LIMIT %d OFFSET %d`, base+clause, pageSize, offset)

	var assignments []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list assignment history: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count assignment history: %w", err)
	}
	return assignments, total, nil
}

// CountActiveByRoom returns the number of live assignments per room id.
func (r *AssignmentRepository) CountActiveByRoom(ctx context.Context) (map[string]int, error) {
	const query = `SELECT room_id, COUNT(*) AS n FROM assignments WHERE active = TRUE GROUP BY room_id`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count active assignments: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var roomID string
		var n int
		if err := rows.Scan(&roomID, &n); err != nil {
			return nil, fmt.Errorf("scan assignment count: %w", err)
		}
		counts[roomID] = n
	}
	return counts, rows.Err()
}
