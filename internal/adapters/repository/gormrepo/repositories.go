package gormrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/focuswin/core/internal/domain/entities"
	"github.com/focuswin/core/internal/ports"
)

// UserRepository stores users in SQLite
type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	if err := r.db.conn(ctx).Create(fromUser(user)).Error; err != nil {
		if isDuplicate(err) {
			return entities.ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) first(ctx context.Context, query string, arg interface{}) (*entities.User, error) {
	var m userModel
	if err := r.db.conn(ctx).Where(query, arg).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return m.toEntity(), nil
}

// GroupRepository stores groups in SQLite
type GroupRepository struct {
	db *DB
}

func NewGroupRepository(db *DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) Create(ctx context.Context, group *entities.Group) error {
	if err := r.db.conn(ctx).Create(fromGroup(group)).Error; err != nil {
		if isDuplicate(err) {
			return entities.ErrGroupNameTaken
		}
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

func (r *GroupRepository) GetByOwner(ctx context.Context, ownerID, id uuid.UUID) (*entities.Group, error) {
	var m groupModel
	if err := r.db.conn(ctx).Where("id = ? AND user_id = ?", id, ownerID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrGroupNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	return m.toEntity(), nil
}

func (r *GroupRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.Group, error) {
	var models []groupModel
	if err := r.db.conn(ctx).Where("user_id = ?", ownerID).Order("name ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}

	groups := make([]*entities.Group, 0, len(models))
	for i := range models {
		groups = append(groups, models[i].toEntity())
	}
	return groups, nil
}

func (r *GroupRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result := r.db.conn(ctx).Where("id = ? AND user_id = ?", id, ownerID).Delete(&groupModel{})
	if result.Error != nil {
		return fmt.Errorf("delete group: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return entities.ErrGroupNotFound
	}
	return nil
}

// TaskRepository stores tasks in SQLite
type TaskRepository struct {
	db *DB
}

func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *entities.Task) error {
	if err := r.db.conn(ctx).Create(fromTask(task)).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) GetByOwner(ctx context.Context, ownerID, id uuid.UUID) (*entities.Task, error) {
	var m taskModel
	if err := r.db.conn(ctx).Where("id = ? AND user_id = ?", id, ownerID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return m.toEntity(), nil
}

func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.Task, error) {
	var models []taskModel
	if err := r.db.conn(ctx).Where("user_id = ?", ownerID).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	tasks := make([]*entities.Task, 0, len(models))
	for i := range models {
		tasks = append(tasks, models[i].toEntity())
	}
	return tasks, nil
}

// Update writes every mutable column, including zero values
func (r *TaskRepository) Update(ctx context.Context, task *entities.Task) error {
	m := fromTask(task)
	result := r.db.conn(ctx).Model(&taskModel{}).
		Where("id = ? AND user_id = ?", task.ID, task.UserID).
		Updates(map[string]interface{}{
			"group_ref":       m.GroupRef,
			"title":           m.Title,
			"completed":       m.Completed,
			"importance":      m.Importance,
			"due_date":        m.DueDate,
			"completed_at":    m.CompletedAt,
			"recurrence_type": m.RecurrenceType,
			"recurrence_days": m.RecurrenceDays,
			"recurrence_date": m.RecurrenceDate,
			"updated_at":      m.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("update task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return entities.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result := r.db.conn(ctx).Where("id = ? AND user_id = ?", id, ownerID).Delete(&taskModel{})
	if result.Error != nil {
		return fmt.Errorf("delete task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return entities.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) UnassignGroup(ctx context.Context, ownerID uuid.UUID, groupID string) (int64, error) {
	result := r.db.conn(ctx).Model(&taskModel{}).
		Where("user_id = ? AND group_ref = ?", ownerID, groupID).
		Updates(map[string]interface{}{
			"group_ref":  "",
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("unassign group: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Store is the SQLite-backed ports.Store
type Store struct {
	db     *DB
	users  *UserRepository
	groups *GroupRepository
	tasks  *TaskRepository
}

// NewStore wires the gorm repositories over one database
func NewStore(db *DB) *Store {
	return &Store{
		db:     db,
		users:  NewUserRepository(db),
		groups: NewGroupRepository(db),
		tasks:  NewTaskRepository(db),
	}
}

func (s *Store) Users() ports.UserRepository   { return s.users }
func (s *Store) Groups() ports.GroupRepository { return s.groups }
func (s *Store) Tasks() ports.TaskRepository   { return s.tasks }
func (s *Store) Transactor() ports.TxManager   { return s.db }

func (s *Store) HealthCheck(ctx context.Context) error { return s.db.HealthCheck(ctx) }
func (s *Store) Close() error                          { return s.db.Close() }
