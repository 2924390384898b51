package dto

import (
	"time"

	"github.com/ZiadSaad78/student-sorter-hub/internal/housing"
)

// DashboardSummary aggregates the counters shown on the admin landing page.
type DashboardSummary struct {
	Housing               housing.Summary     `json:"housing"`
	Applications          ApplicationCounters `json:"applications"`
	OpenComplaints        int                 `json:"open_complaints"`
	UnpaidFeesTotal       float64             `json:"unpaid_fees_total"`
	PaidFeesTotal         float64             `json:"paid_fees_total"`
	BuildingOccupancy     []BuildingOccupancy `json:"building_occupancy"`
	GeneratedAt           time.Time           `json:"generated_at"`
	Cached                bool                `json:"cached"`
}

// ApplicationCounters breaks applications down by review state.
type ApplicationCounters struct {
	Pending  int `json:"pending"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

// BuildingOccupancy is one row of the per-building occupancy widget.
type BuildingOccupancy struct {
	BuildingID    string `json:"building_id"`
	BuildingName  string `json:"building_name"`
	Gender        string `json:"gender"`
	TotalCapacity int    `json:"total_capacity"`
	Occupied      int    `json:"occupied"`
	OccupancyRate int    `json:"occupancy_rate"`
}
