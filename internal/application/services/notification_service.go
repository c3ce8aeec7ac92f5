package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/focuswin/core/internal/domain/entities"
	"github.com/focuswin/core/internal/infrastructure/logger"
	"github.com/focuswin/core/internal/infrastructure/metrics"
	"github.com/focuswin/core/internal/ports"
)

const sendTimeout = 30 * time.Second

// NotificationService sends due-date reminders in the background.
// Delivery failures are logged and never reported to the caller.
type NotificationService struct {
	dispatcher ports.Dispatcher
	metrics    *metrics.Metrics
	logger     *logger.Logger
	wg         sync.WaitGroup
}

// NewNotificationService creates a new notification service
func NewNotificationService(dispatcher ports.Dispatcher, m *metrics.Metrics, logger *logger.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		metrics:    m,
		logger:     logger,
	}
}

// Notify validates the request and queues delivery to user's address
func (s *NotificationService) Notify(ctx context.Context, user *entities.User, req ports.NotificationRequest) error {
	req.TaskTitle = strings.TrimSpace(req.TaskTitle)
	if err := entities.Validate(req); err != nil {
		return err
	}

	n := ports.Notification{
		RecipientEmail: user.Email,
		RecipientName:  user.Name,
		TaskTitle:      req.TaskTitle,
		DueDate:        req.DueDate,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		// The request context is gone once the handler returns.
		sendCtx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		if err := s.dispatcher.Send(sendCtx, n); err != nil {
			s.metrics.NotificationsTotal.WithLabelValues("failure").Inc()
			s.logger.Errorw("notification delivery failed",
				"error", err,
				"user_id", user.ID,
				"task_id", req.TaskID,
			)
			return
		}

		s.metrics.NotificationsTotal.WithLabelValues("success").Inc()
		s.logger.Infow("notification sent", "user_id", user.ID, "task_id", req.TaskID)
	}()

	return nil
}

// Wait blocks until queued deliveries finish or ctx is done
func (s *NotificationService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
