package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/uni-scheduler-api/pkg/errors"
	"github.com/noah-isme/uni-scheduler-api/pkg/jobs"
)

const auditJobType = "audit.write"

type auditStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
	ListRecent(ctx context.Context, limit int) ([]models.AuditLog, error)
}

// AuditService records audit entries off the request path and lists recent ones.
type AuditService struct {
	repo   auditStore
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewAuditService wires the writer queue. Call Start before recording and Stop on shutdown.
func NewAuditService(repo auditStore, logger *zap.Logger, cfg jobs.QueueConfig) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Logger = logger
	s := &AuditService{repo: repo, logger: logger}
	s.queue = jobs.NewQueue("audit", s.handle, cfg)
	return s
}

// Start launches the writer workers.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains pending entries and stops the workers.
func (s *AuditService) Stop() {
	if pending := s.queue.Pending(); pending > 0 {
		s.logger.Info("draining audit queue", zap.Int("pending", pending))
	}
	s.queue.Stop()
}

// Record schedules an audit entry. Failures are logged and never returned to the caller.
func (s *AuditService) Record(_ context.Context, entry models.AuditLog) {
	if s == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	job := jobs.Job{ID: entry.ID, Type: auditJobType, Payload: entry}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("audit entry dropped", zap.String("title", entry.Title), zap.Error(err))
	}
}

// ListRecent returns the latest audit records, newest first.
func (s *AuditService) ListRecent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	logs, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list audit logs")
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	return logs, nil
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(models.AuditLog)
	if !ok {
		return fmt.Errorf("unexpected audit payload %T", job.Payload)
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.repo.Create(writeCtx, &entry); err != nil {
		s.logger.Warn("audit write failed", zap.String("id", entry.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
		return err
	}
	return nil
}

// newAuditEntry builds an entry for a booking write.
func newAuditEntry(title string, auditType models.AuditType, actor models.Actor, refID int64, refType string) models.AuditLog {
	name := actor.DisplayName()
	ref := fmt.Sprintf("%d", refID)
	return models.AuditLog{
		Title:   title,
		Type:    auditType,
		Actor:   &name,
		RefID:   &ref,
		RefType: &refType,
	}
}
