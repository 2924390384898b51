package dto

import "github.com/ZiadSaad78/student-sorter-hub/internal/models"

// CreateReportRequest enqueues an asynchronous export job.
type CreateReportRequest struct {
	Type       models.ReportType   `json:"type" validate:"required,oneof=students occupancy"`
	Format     models.ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
	BuildingID *string             `json:"building_id,omitempty"`
	Status     *string             `json:"status,omitempty" validate:"omitempty,oneof=pending accepted rejected housed"`
}

// ReportJobResponse is the API projection of a job row.
type ReportJobResponse struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	Status       string  `json:"status"`
	Progress     int     `json:"progress"`
	ResultURL    *string `json:"result_url,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
	CreatedAt    string  `json:"created_at"`
	FinishedAt   *string `json:"finished_at,omitempty"`
}

// FromReportJob maps a persisted job to its API projection.
func FromReportJob(job *models.ReportJob) ReportJobResponse {
	resp := ReportJobResponse{
		ID:           job.ID,
		Type:         string(job.Type),
		Status:       string(job.Status),
		Progress:     job.Progress,
		ResultURL:    job.ResultURL,
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if job.FinishedAt != nil {
		s := job.FinishedAt.Format("2006-01-02T15:04:05Z07:00")
		resp.FinishedAt = &s
	}
	return resp
}
