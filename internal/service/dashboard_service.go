package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/telvia/crm-api/internal/models"
	appErrors "github.com/telvia/crm-api/pkg/errors"
)

const dashboardCacheKey = "dashboard:overview"

type dashboardClientRepository interface {
	CountContractsEndingBetween(ctx context.Context, from, to time.Time) (int, error)
}

type dashboardCallRepository interface {
	Recent(ctx context.Context, limit int) ([]models.Call, error)
}

type dashboardTaskRepository interface {
	Recent(ctx context.Context, limit int) ([]models.Task, error)
	CountDueBetween(ctx context.Context, from, to time.Time) (int, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// DashboardService aggregates overview counters, cached in Redis.
type DashboardService struct {
	clients  dashboardClientRepository
	calls    dashboardCallRepository
	tasks    dashboardTaskRepository
	cache    dashboardCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewDashboardService creates an instance of DashboardService.
func NewDashboardService(clients dashboardClientRepository, calls dashboardCallRepository, tasks dashboardTaskRepository, cache dashboardCache, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &DashboardService{clients: clients, calls: calls, tasks: tasks, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Overview returns contract expiry counters, task counters, and recent
// activity. Results are cached for the configured TTL.
func (s *DashboardService) Overview(ctx context.Context) (*models.DashboardOverview, error) {
	if s.cache != nil {
		var cached models.DashboardOverview
		err := s.cache.Get(ctx, dashboardCacheKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	overview := &models.DashboardOverview{}

	in14, err := s.clients.CountContractsEndingBetween(ctx, now, now.AddDate(0, 0, 14))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count expiring contracts")
	}
	in30, err := s.clients.CountContractsEndingBetween(ctx, now, now.AddDate(0, 0, 30))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count expiring contracts")
	}
	overview.Contracts = models.ContractCounts{In14: in14, In30: in30}

	today, err := s.tasks.CountDueBetween(ctx, startOfDay, startOfDay.AddDate(0, 0, 1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count tasks due today")
	}
	week, err := s.tasks.CountDueBetween(ctx, startOfDay, startOfDay.AddDate(0, 0, 7))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count tasks due this week")
	}
	overview.Tasks = models.TaskCounts{Today: today, Week: week}

	recentCalls, err := s.calls.Recent(ctx, 10)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent calls")
	}
	overview.RecentCalls = recentCalls

	recentTasks, err := s.tasks.Recent(ctx, 10)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent tasks")
	}
	overview.RecentTasks = recentTasks

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, overview, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}

	return overview, nil
}
