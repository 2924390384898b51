package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ZiadSaad78/student-sorter-hub/internal/dto"
	"github.com/ZiadSaad78/student-sorter-hub/internal/housing"
	"github.com/ZiadSaad78/student-sorter-hub/internal/models"
	appErrors "github.com/ZiadSaad78/student-sorter-hub/pkg/errors"
)

const dashboardSummaryKey = "dashboard:summary"

type applicationCounter interface {
	CountByStatus(ctx context.Context) (map[models.ApplicationStatus]int, error)
}

type complaintCounter interface {
	CountOpen(ctx context.Context) (int, error)
}

type feeSummer interface {
	SumByStatus(ctx context.Context) (map[models.FeeStatus]float64, error)
}

// DashboardService folds housing, application, complaint and fee figures
// into the admin landing page payload, with a short cache in front since
// the dashboard is polled far more often than the data changes.
type DashboardService struct {
	store        *housing.Store
	applications applicationCounter
	complaints   complaintCounter
	fees         feeSummer
	cache        *CacheService
	metrics      *MetricsService
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// NewDashboardService constructs DashboardService.
func NewDashboardService(store *housing.Store, applications applicationCounter, complaints complaintCounter, fees feeSummer, cache *CacheService, metrics *MetricsService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &DashboardService{
		store:        store,
		applications: applications,
		complaints:   complaints,
		fees:         fees,
		cache:        cache,
		metrics:      metrics,
		cacheTTL:     cacheTTL,
		logger:       logger,
	}
}

// Summary returns the dashboard payload, cache-aside.
func (s *DashboardService) Summary(ctx context.Context) (*dto.DashboardSummary, error) {
	var cached dto.DashboardSummary
	if hit, err := s.cache.Get(ctx, dashboardSummaryKey, &cached); err == nil && hit {
		cached.Cached = true
		return &cached, nil
	}

	summary, err := s.build(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, dashboardSummaryKey, summary, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache dashboard summary", zap.Error(err))
	}
	return summary, nil
}

func (s *DashboardService) build(ctx context.Context) (*dto.DashboardSummary, error) {
	housingSummary := s.store.Summarize()
	if s.metrics != nil {
		s.metrics.SetOccupiedBeds(housingSummary.TotalOccupied)
	}

	appCounts, err := s.applications.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count applications")
	}

	openComplaints, err := s.complaints.CountOpen(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count complaints")
	}

	feeTotals, err := s.fees.SumByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum fees")
	}

	buildings := s.store.Buildings()
	occupancy := make([]dto.BuildingOccupancy, 0, len(buildings))
	for _, b := range buildings {
		occupancy = append(occupancy, dto.BuildingOccupancy{
			BuildingID:    b.ID,
			BuildingName:  b.Name,
			Gender:        string(b.Gender),
			TotalCapacity: s.store.BuildingCapacity(b.ID),
			Occupied:      s.store.BuildingOccupied(b.ID),
			OccupancyRate: s.store.OccupancyRate(b.ID),
		})
	}

	return &dto.DashboardSummary{
		Housing: housingSummary,
		Applications: dto.ApplicationCounters{
			Pending:  appCounts[models.ApplicationStatusPending],
			Accepted: appCounts[models.ApplicationStatusAccepted],
			Rejected: appCounts[models.ApplicationStatusRejected],
		},
		OpenComplaints:    openComplaints,
		UnpaidFeesTotal:   feeTotals[models.FeeStatusUnpaid],
		PaidFeesTotal:     feeTotals[models.FeeStatusPaid],
		BuildingOccupancy: occupancy,
		GeneratedAt:       time.Now().UTC(),
	}, nil
}
