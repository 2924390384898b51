package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ZiadSaad78/student-sorter-hub/internal/models"
)

// BuildingRepository manages persistence for dormitory buildings.
type BuildingRepository struct {
	db *sqlx.DB
}

// NewBuildingRepository constructs a BuildingRepository.
func NewBuildingRepository(db *sqlx.DB) *BuildingRepository {
	return &BuildingRepository{db: db}
}

// List returns all buildings with derived room and occupancy counts,
// oldest first. Occupied is computed from live assignments, never read
// from a stored counter.
func (r *BuildingRepository) List(ctx context.Context) ([]models.BuildingDetail, error) {
	const query = `SELECT b.id, b.name, b.gender, b.floors, b.created_at, b.updated_at,
        (SELECT COUNT(*) FROM rooms rm WHERE rm.building_id = b.id) AS room_count,
        (SELECT COALESCE(SUM(rm.capacity), 0) FROM rooms rm WHERE rm.building_id = b.id) AS total_capacity,
        (SELECT COUNT(*) FROM assignments a JOIN rooms rm ON rm.id = a.room_id
            WHERE rm.building_id = b.id AND a.active = TRUE) AS occupied
        FROM buildings b
        ORDER BY b.created_at ASC`
	var buildings []models.BuildingDetail
	if err := r.db.SelectContext(ctx, &buildings, query); err != nil {
		return nil, fmt.Errorf("list buildings: %w", err)
	}
	return buildings, nil
}

// FindByID returns a building with derived occupancy figures.
func (r *BuildingRepository) FindByID(ctx context.Context, id string) (*models.BuildingDetail, error) {
	const query = `SELECT b.id, b.name, b.gender, b.floors, b.created_at, b.updated_at,
        (SELECT COUNT(*) FROM rooms rm WHERE rm.building_id = b.id) AS room_count,
        (SELECT COALESCE(SUM(rm.capacity), 0) FROM rooms rm WHERE rm.building_id = b.id) AS total_capacity,
        (SELECT COUNT(*) FROM assignments a JOIN rooms rm ON rm.id = a.room_id
            WHERE rm.building_id = b.id AND a.active = TRUE) AS occupied
        FROM buildings b WHERE b.id = $1`
	var detail models.BuildingDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a new building.
func (r *BuildingRepository) Create(ctx context.Context, building *models.Building) error {
	if building.ID == "" {
		building.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if building.CreatedAt.IsZero() {
		building.CreatedAt = now
	}
	building.UpdatedAt = now
	const query = `INSERT INTO buildings (id, name, gender, floors, created_at, updated_at)
        VALUES (:id, :name, :gender, :floors, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, building); err != nil {
		return fmt.Errorf("create building: %w", err)
	}
	return nil
}

// Update modifies an existing building.
func (r *BuildingRepository) Update(ctx context.Context, building *models.Building) error {
	building.UpdatedAt = time.Now().UTC()
	const query = `UPDATE buildings SET name = :name, gender = :gender, floors = :floors, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, building); err != nil {
		return fmt.Errorf("update building: %w", err)
	}
	return nil
}

// Delete removes a building row. Foreign keys restrict deletion while
// rooms still reference it.
func (r *BuildingRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM buildings WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete building: %w", err)
	}
	return nil
}

// ListAll returns bare building rows in insertion order for hydration.
func (r *BuildingRepository) ListAll(ctx context.Context) ([]models.Building, error) {
	const query = `SELECT id, name, gender, floors, created_at, updated_at FROM buildings ORDER BY created_at ASC, id ASC`
	var buildings []models.Building
	if err := r.db.SelectContext(ctx, &buildings, query); err != nil {
		return nil, fmt.Errorf("list all buildings: %w", err)
	}
	return buildings, nil
}
