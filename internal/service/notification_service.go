package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thryve/staffing-api/internal/models"
	"github.com/thryve/staffing-api/pkg/jobs"
)

// NotificationServiceConfig tunes the outbound dispatcher.
type NotificationServiceConfig struct {
	Enabled    bool
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// NotificationService hands staffing events to the platform notifier through
// an in-process worker queue. Delivery channels (push, email) live with the
// notifier; this service is the integration point.
type NotificationService struct {
	queue   *jobs.Queue
	logger  *zap.Logger
	enabled bool
}

// NewNotificationService constructs the dispatcher and its queue.
func NewNotificationService(cfg NotificationServiceConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &NotificationService{logger: logger, enabled: cfg.Enabled}
	s.queue = jobs.NewQueue("notifications", s.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
		OnDrop: func(task jobs.Task, err error) {
			logger.Error("notification dropped",
				zap.String("task_id", task.ID),
				zap.String("kind", task.Kind),
				zap.Error(err))
		},
	})
	return s
}

// Start launches the queue workers.
func (s *NotificationService) Start(ctx context.Context) {
	if !s.enabled {
		s.logger.Info("notifications disabled")
		return
	}
	s.queue.Start(ctx)
}

// Stop drains the queue workers.
func (s *NotificationService) Stop() {
	if !s.enabled {
		return
	}
	s.queue.Stop()
}

// Publish enqueues a notification. Failures are logged, never surfaced; a
// missed notification must not fail the staffing operation behind it.
func (s *NotificationService) Publish(notification models.Notification) {
	if !s.enabled {
		return
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}

	task := jobs.Task{
		ID:      uuid.NewString(),
		Kind:    string(notification.Type),
		Payload: notification,
	}
	if err := s.queue.Enqueue(task); err != nil {
		s.logger.Warn("failed to enqueue notification",
			zap.String("kind", task.Kind),
			zap.Error(err))
	}
}

func (s *NotificationService) deliver(ctx context.Context, task jobs.Task) error {
	notification, ok := task.Payload.(models.Notification)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("task_id", task.ID))
		return nil
	}

	// Delivery channels live with the platform notifier; this service only
	// records the handoff.
	s.logger.Info("notification dispatched",
		zap.String("type", string(notification.Type)),
		zap.String("studio_id", notification.StudioID),
		zap.String("recipient_id", notification.RecipientID),
		zap.String("subject_id", notification.SubjectID))
	return nil
}
