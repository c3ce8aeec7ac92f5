package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/focuswin/core/internal/domain/entities"
	"github.com/focuswin/core/internal/infrastructure/logger"
	"github.com/focuswin/core/internal/infrastructure/metrics"
	"github.com/focuswin/core/internal/ports"
)

func newTestTaskService() (*TaskService, *fakeTaskRepo) {
	repo := newFakeTaskRepo()
	svc := NewTaskService(repo, metrics.New(), logger.NewNop())
	svc.now = fixedClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	return svc, repo
}

func TestTaskService_CreateAndList(t *testing.T) {
	svc, _ := newTestTaskService()
	ctx := context.Background()
	owner := uuid.New()

	first, err := svc.CreateTask(ctx, owner, ports.CreateTaskRequest{Title: "first"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.CreateTask(ctx, owner, ports.CreateTaskRequest{Title: "second"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.CreateTask(ctx, uuid.New(), ports.CreateTaskRequest{Title: "someone else"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tasks, err := svc.ListTasks(ctx, owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].ID != second.ID || tasks[1].ID != first.ID {
		t.Fatalf("expected newest first")
	}
	if got := testutil.ToFloat64(svc.metrics.TasksCreated); got != 3 {
		t.Fatalf("expected 3 tasks created, got %v", got)
	}
}

func TestTaskService_CreateValidation(t *testing.T) {
	svc, repo := newTestTaskService()

	_, err := svc.CreateTask(context.Background(), uuid.New(), ports.CreateTaskRequest{Title: ""})
	if !entities.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(repo.tasks) != 0 {
		t.Fatalf("expected nothing stored")
	}
}

func TestTaskService_UpdateCompletion(t *testing.T) {
	svc, _ := newTestTaskService()
	ctx := context.Background()
	owner := uuid.New()

	task, err := svc.CreateTask(ctx, owner, ports.CreateTaskRequest{Title: "Report"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := true
	updated, err := svc.UpdateTask(ctx, owner, task.ID, ports.UpdateTaskRequest{Completed: &done})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.CompletedAt == nil {
		t.Fatalf("expected completedAt set")
	}
	if updated.Title != "Report" {
		t.Fatalf("expected title untouched, got %q", updated.Title)
	}

	stored, err := svc.GetTask(ctx, owner, task.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stored.Completed || stored.CompletedAt == nil {
		t.Fatalf("expected stored task completed, got %+v", stored)
	}

	undone := false
	updated, err = svc.UpdateTask(ctx, owner, task.ID, ports.UpdateTaskRequest{Completed: &undone})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.CompletedAt != nil {
		t.Fatalf("expected completedAt cleared")
	}
	if got := testutil.ToFloat64(svc.metrics.TasksCompleted); got != 1 {
		t.Fatalf("expected 1 completion, got %v", got)
	}
}

func TestTaskService_UpdateRejectsInvalidPatch(t *testing.T) {
	svc, _ := newTestTaskService()
	ctx := context.Background()
	owner := uuid.New()

	task, err := svc.CreateTask(ctx, owner, ports.CreateTaskRequest{Title: "Report"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := 11
	if _, err := svc.UpdateTask(ctx, owner, task.ID, ports.UpdateTaskRequest{Importance: &bad}); !entities.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	stored, _ := svc.GetTask(ctx, owner, task.ID)
	if stored.Importance != entities.DefaultImportance {
		t.Fatalf("expected stored importance unchanged, got %d", stored.Importance)
	}
}

func TestTaskService_OwnerScoping(t *testing.T) {
	svc, _ := newTestTaskService()
	ctx := context.Background()
	owner, intruder := uuid.New(), uuid.New()

	task, err := svc.CreateTask(ctx, owner, ports.CreateTaskRequest{Title: "private"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.GetTask(ctx, intruder, task.ID); !entities.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	title := "hijacked"
	if _, err := svc.UpdateTask(ctx, intruder, task.ID, ports.UpdateTaskRequest{Title: &title}); !entities.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if err := svc.DeleteTask(ctx, intruder, task.ID); !entities.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}

	stored, err := svc.GetTask(ctx, owner, task.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Title != "private" {
		t.Fatalf("expected task untouched, got %q", stored.Title)
	}
}

func TestTaskService_Delete(t *testing.T) {
	svc, _ := newTestTaskService()
	ctx := context.Background()
	owner := uuid.New()

	task, err := svc.CreateTask(ctx, owner, ports.CreateTaskRequest{Title: "temp"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.DeleteTask(ctx, owner, task.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.DeleteTask(ctx, owner, task.ID); !entities.IsNotFound(err) {
		t.Fatalf("expected NotFoundError on second delete, got %v", err)
	}
}
