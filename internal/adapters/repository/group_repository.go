package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/focuswin/core/internal/domain/entities"
	"github.com/focuswin/core/internal/infrastructure/database"
	"github.com/focuswin/core/internal/ports"
)

// GroupRepositoryImpl implements the GroupRepository interface
type GroupRepositoryImpl struct {
	db *database.DB
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *database.DB) ports.GroupRepository {
	return &GroupRepositoryImpl{db: db}
}

func (r *GroupRepositoryImpl) Create(ctx context.Context, group *entities.Group) error {
	query := `
		INSERT INTO groups (id, user_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		group.ID, group.UserID, group.Name, group.CreatedAt, group.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return entities.ErrGroupNameTaken
		}
		return fmt.Errorf("create group: %w", err)
	}

	return nil
}

func (r *GroupRepositoryImpl) GetByOwner(ctx context.Context, ownerID, id uuid.UUID) (*entities.Group, error) {
	query := `
		SELECT id, user_id, name, created_at, updated_at
		FROM groups
		WHERE id = $1 AND user_id = $2`

	var group entities.Group
	err := r.db.Executor(ctx).GetContext(ctx, &group, query, id, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrGroupNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}

	return &group, nil
}

func (r *GroupRepositoryImpl) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.Group, error) {
	query := `
		SELECT id, user_id, name, created_at, updated_at
		FROM groups
		WHERE user_id = $1
		ORDER BY name ASC`

	groups := []*entities.Group{}
	if err := r.db.Executor(ctx).SelectContext(ctx, &groups, query, ownerID); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}

	return groups, nil
}

func (r *GroupRepositoryImpl) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	query := `DELETE FROM groups WHERE id = $1 AND user_id = $2`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrGroupNotFound
	}

	return nil
}
