package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/focuswin/core/internal/domain/entities"
	"github.com/focuswin/core/internal/infrastructure/config"
	"github.com/focuswin/core/internal/infrastructure/database"
)

func TestTaskRowConversion(t *testing.T) {
	date := 15
	due := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	task := &entities.Task{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		Group:      "g-1",
		Title:      "Pay rent",
		Importance: 8,
		DueDate:    &due,
		Recurrence: entities.Recurrence{Type: entities.RecurrenceMonthly, Date: &date},
	}

	row := toTaskRow(task)
	if !row.RecurrenceDate.Valid || row.RecurrenceDate.Int16 != 15 || row.GroupRef != "g-1" {
		t.Fatalf("unexpected row %+v", row)
	}

	back := row.toEntity()
	if back.Recurrence.Date == nil || *back.Recurrence.Date != 15 || back.Recurrence.Type != entities.RecurrenceMonthly {
		t.Fatalf("recurrence lost: %+v", back.Recurrence)
	}
	if back.Group != "g-1" || back.Title != "Pay rent" || !back.DueDate.Equal(due) {
		t.Fatalf("unexpected task %+v", back)
	}

	task.Recurrence = entities.Recurrence{Type: entities.RecurrenceNone}
	if row := toTaskRow(task); row.RecurrenceDate.Valid {
		t.Fatalf("expected no recurrence date for a one-off task")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &pq.Error{Code: uniqueViolation})
	if !isUniqueViolation(dup) {
		t.Fatalf("expected wrapped 23505 to be a unique violation")
	}
	if isUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Fatalf("foreign key violation is not a unique violation")
	}
	if isUniqueViolation(errors.New("boom")) {
		t.Fatalf("plain error is not a unique violation")
	}
}

// openPostgres connects to the database described by the environment.
// The tests need a disposable postgres and are skipped unless
// FOCUSWIN_POSTGRES_TESTS is set.
func openPostgres(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("FOCUSWIN_POSTGRES_TESTS") == "" {
		t.Skip("set FOCUSWIN_POSTGRES_TESTS to run postgres tests")
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	db, err := database.New(cfg.Database)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Migrate("up", 0); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewStore(db)
}

func TestPostgresGroupDeleteCascade(t *testing.T) {
	store := openPostgres(t)
	ctx := context.Background()
	now := time.Now().UTC()

	user := &entities.User{
		ID:           uuid.New(),
		Name:         "Ada",
		Email:        fmt.Sprintf("ada-%s@example.com", uuid.NewString()),
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.Users().Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	group, err := entities.NewGroup(user.ID, "Work", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Groups().Create(ctx, group); err != nil {
		t.Fatalf("create group: %v", err)
	}
	if err := store.Groups().Create(ctx, &entities.Group{ID: uuid.New(), UserID: user.ID, Name: "Work", CreatedAt: now, UpdatedAt: now}); !entities.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}

	task, err := entities.NewTask(user.ID, entities.TaskFields{Title: "Report", Group: group.ID.String()}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Tasks().Create(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	var unassigned int64
	err = store.Transactor().WithinTransaction(ctx, func(ctx context.Context) error {
		if err := store.Groups().Delete(ctx, user.ID, group.ID); err != nil {
			return err
		}
		n, err := store.Tasks().UnassignGroup(ctx, user.ID, group.ID.String())
		unassigned = n
		return err
	})
	if err != nil {
		t.Fatalf("delete group: %v", err)
	}
	if unassigned != 1 {
		t.Fatalf("expected 1 task unassigned, got %d", unassigned)
	}

	got, err := store.Tasks().GetByOwner(ctx, user.ID, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Group != "" {
		t.Fatalf("expected group cleared, got %q", got.Group)
	}

	if _, err := store.Tasks().GetByOwner(ctx, uuid.New(), task.ID); !entities.IsNotFound(err) {
		t.Fatalf("expected not found for another owner, got %v", err)
	}
}
