package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/telvia/crm-api/internal/models"
	appErrors "github.com/telvia/crm-api/pkg/errors"
	"github.com/telvia/crm-api/pkg/jobs"
)

type auditLogRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, page, pageSize int) ([]models.AuditLog, int, error)
}

// AuditService writes the audit trail through a background queue so request
// handling never waits on the audit insert.
type AuditService struct {
	repo   auditLogRepository
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewAuditService constructs an AuditService with its worker queue.
func NewAuditService(repo auditLogRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuditService{repo: repo, logger: logger}
	s.queue = jobs.NewQueue("audit", s.handle, jobs.QueueConfig{Workers: 2, Logger: logger})
	return s
}

// Start launches the queue workers.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue workers.
func (s *AuditService) Stop() {
	s.queue.Stop()
}

// Record enqueues an audit entry. Failures are logged, never surfaced.
func (s *AuditService) Record(log *models.AuditLog) {
	if log == nil {
		return
	}
	if err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: log.Action, Payload: log}); err != nil {
		s.logger.Warn("failed to enqueue audit entry", zap.String("action", log.Action), zap.Error(err))
	}
}

// List returns audit entries with a total count.
func (s *AuditService) List(ctx context.Context, page, pageSize int) ([]models.AuditLog, int, error) {
	logs, total, err := s.repo.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	return logs, total, nil
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	log, ok := job.Payload.(*models.AuditLog)
	if !ok {
		return fmt.Errorf("unexpected audit payload type %T", job.Payload)
	}
	return s.repo.Create(ctx, log)
}
