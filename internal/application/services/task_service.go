package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/focuswin/core/internal/domain/entities"
	"github.com/focuswin/core/internal/infrastructure/logger"
	"github.com/focuswin/core/internal/infrastructure/metrics"
	"github.com/focuswin/core/internal/ports"
)

// TaskService handles task operations for a single owner at a time
type TaskService struct {
	taskRepo ports.TaskRepository
	metrics  *metrics.Metrics
	logger   *logger.Logger
	now      func() time.Time
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, m *metrics.Metrics, logger *logger.Logger) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// ListTasks returns the owner's tasks, newest first
func (s *TaskService) ListTasks(ctx context.Context, ownerID uuid.UUID) ([]*entities.Task, error) {
	tasks, err := s.taskRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask returns one of the owner's tasks
func (s *TaskService) GetTask(ctx context.Context, ownerID, taskID uuid.UUID) (*entities.Task, error) {
	task, err := s.taskRepo.GetByOwner(ctx, ownerID, taskID)
	if err != nil {
		if entities.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// CreateTask creates a task owned by ownerID. Any owner in the request body is ignored.
func (s *TaskService) CreateTask(ctx context.Context, ownerID uuid.UUID, req ports.CreateTaskRequest) (*entities.Task, error) {
	task, err := entities.NewTask(ownerID, req.Fields(), s.now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.metrics.TasksCreated.Inc()
	if task.Completed {
		s.metrics.TasksCompleted.Inc()
	}
	s.logger.Infow("task created", "task_id", task.ID, "user_id", ownerID)

	return task, nil
}

// UpdateTask applies a partial update to one of the owner's tasks
func (s *TaskService) UpdateTask(ctx context.Context, ownerID, taskID uuid.UUID, req ports.UpdateTaskRequest) (*entities.Task, error) {
	task, err := s.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	wasCompleted := task.Completed
	if err := task.Apply(req.Patch(), s.now().UTC()); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		if entities.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("update task: %w", err)
	}

	if task.Completed && !wasCompleted {
		s.metrics.TasksCompleted.Inc()
	}
	s.logger.Infow("task updated", "task_id", task.ID, "user_id", ownerID, "completed", task.Completed)

	return task, nil
}

// DeleteTask removes one of the owner's tasks
func (s *TaskService) DeleteTask(ctx context.Context, ownerID, taskID uuid.UUID) error {
	if err := s.taskRepo.Delete(ctx, ownerID, taskID); err != nil {
		if entities.IsNotFound(err) {
			return err
		}
		return fmt.Errorf("delete task: %w", err)
	}

	s.metrics.TasksDeleted.Inc()
	s.logger.Infow("task deleted", "task_id", taskID, "user_id", ownerID)
	return nil
}
