package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/focuswin/core/internal/domain/entities"
	"github.com/focuswin/core/internal/infrastructure/database"
	"github.com/focuswin/core/internal/ports"
)

const taskColumns = `id, user_id, group_ref, title, completed, importance, due_date, completed_at,
	recurrence_type, recurrence_days, recurrence_date, created_at, updated_at`

// taskRow is the flattened storage shape of a task
type taskRow struct {
	ID             uuid.UUID         `db:"id"`
	UserID         uuid.UUID         `db:"user_id"`
	GroupRef       string            `db:"group_ref"`
	Title          string            `db:"title"`
	Completed      bool              `db:"completed"`
	Importance     int               `db:"importance"`
	DueDate        *time.Time        `db:"due_date"`
	CompletedAt    *time.Time        `db:"completed_at"`
	RecurrenceType string            `db:"recurrence_type"`
	RecurrenceDays entities.Weekdays `db:"recurrence_days"`
	RecurrenceDate sql.NullInt16     `db:"recurrence_date"`
	CreatedAt      time.Time         `db:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at"`
}

func toTaskRow(t *entities.Task) taskRow {
	row := taskRow{
		ID:             t.ID,
		UserID:         t.UserID,
		GroupRef:       t.Group,
		Title:          t.Title,
		Completed:      t.Completed,
		Importance:     t.Importance,
		DueDate:        t.DueDate,
		CompletedAt:    t.CompletedAt,
		RecurrenceType: string(t.Recurrence.Type),
		RecurrenceDays: t.Recurrence.Days,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	if t.Recurrence.Date != nil {
		row.RecurrenceDate = sql.NullInt16{Int16: int16(*t.Recurrence.Date), Valid: true}
	}
	return row
}

func (row taskRow) toEntity() *entities.Task {
	task := &entities.Task{
		ID:          row.ID,
		UserID:      row.UserID,
		Group:       row.GroupRef,
		Title:       row.Title,
		Completed:   row.Completed,
		Importance:  row.Importance,
		DueDate:     row.DueDate,
		CompletedAt: row.CompletedAt,
		Recurrence: entities.Recurrence{
			Type: entities.RecurrenceType(row.RecurrenceType),
			Days: row.RecurrenceDays,
		},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.RecurrenceDate.Valid {
		date := int(row.RecurrenceDate.Int16)
		task.Recurrence.Date = &date
	}
	return task
}

// TaskRepositoryImpl implements the TaskRepository interface
type TaskRepositoryImpl struct {
	db *database.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *database.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entities.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES (:id, :user_id, :group_ref, :title, :completed, :importance, :due_date, :completed_at,
			:recurrence_type, :recurrence_days, :recurrence_date, :created_at, :updated_at)`

	if _, err := sqlxNamedExec(ctx, r.db, query, toTaskRow(task)); err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	return nil
}

func (r *TaskRepositoryImpl) GetByOwner(ctx context.Context, ownerID, id uuid.UUID) (*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`

	var row taskRow
	err := r.db.Executor(ctx).GetContext(ctx, &row, query, id, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}

	return row.toEntity(), nil
}

func (r *TaskRepositoryImpl) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 ORDER BY created_at DESC`

	var rows []taskRow
	if err := r.db.Executor(ctx).SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	tasks := make([]*entities.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.toEntity())
	}
	return tasks, nil
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, task *entities.Task) error {
	query := `
		UPDATE tasks
		SET group_ref = :group_ref, title = :title, completed = :completed, importance = :importance,
			due_date = :due_date, completed_at = :completed_at, recurrence_type = :recurrence_type,
			recurrence_days = :recurrence_days, recurrence_date = :recurrence_date, updated_at = :updated_at
		WHERE id = :id AND user_id = :user_id`

	result, err := sqlxNamedExec(ctx, r.db, query, toTaskRow(task))
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrTaskNotFound
	}

	return nil
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrTaskNotFound
	}

	return nil
}

func (r *TaskRepositoryImpl) UnassignGroup(ctx context.Context, ownerID uuid.UUID, groupID string) (int64, error) {
	query := `UPDATE tasks SET group_ref = '', updated_at = NOW() WHERE user_id = $1 AND group_ref = $2`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, ownerID, groupID)
	if err != nil {
		return 0, fmt.Errorf("unassign group: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}

	return rowsAffected, nil
}
