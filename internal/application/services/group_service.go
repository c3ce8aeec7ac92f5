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

// GroupService handles group operations and the task cascade on delete
type GroupService struct {
	groupRepo ports.GroupRepository
	taskRepo  ports.TaskRepository
	tx        ports.TxManager
	metrics   *metrics.Metrics
	logger    *logger.Logger
	now       func() time.Time
}

// NewGroupService creates a new group service. With a nil tx the delete and
// its cascade run as two separate writes.
func NewGroupService(groupRepo ports.GroupRepository, taskRepo ports.TaskRepository, tx ports.TxManager, m *metrics.Metrics, logger *logger.Logger) *GroupService {
	return &GroupService{
		groupRepo: groupRepo,
		taskRepo:  taskRepo,
		tx:        tx,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// ListGroups returns the owner's groups ordered by name
func (s *GroupService) ListGroups(ctx context.Context, ownerID uuid.UUID) ([]*entities.Group, error) {
	groups, err := s.groupRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// CreateGroup creates a group; names are unique per owner
func (s *GroupService) CreateGroup(ctx context.Context, ownerID uuid.UUID, req ports.CreateGroupRequest) (*entities.Group, error) {
	group, err := entities.NewGroup(ownerID, req.Name, s.now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.groupRepo.Create(ctx, group); err != nil {
		if entities.IsConflict(err) {
			return nil, err
		}
		return nil, fmt.Errorf("create group: %w", err)
	}

	s.metrics.GroupsCreated.Inc()
	s.logger.Infow("group created", "group_id", group.ID, "user_id", ownerID)

	return group, nil
}

// DeleteGroup removes the group and clears it from every task of the owner
// that referenced it. Tasks are kept.
func (s *GroupService) DeleteGroup(ctx context.Context, ownerID, groupID uuid.UUID) (*ports.GroupDeletion, error) {
	if s.tx != nil {
		var unassigned int64
		err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := s.groupRepo.Delete(ctx, ownerID, groupID); err != nil {
				return err
			}
			n, err := s.taskRepo.UnassignGroup(ctx, ownerID, groupID.String())
			if err != nil {
				return fmt.Errorf("unassign tasks: %w", err)
			}
			unassigned = n
			return nil
		})
		if err != nil {
			if entities.IsNotFound(err) {
				return nil, err
			}
			return nil, fmt.Errorf("delete group: %w", err)
		}
		return s.deleted(ownerID, groupID, unassigned), nil
	}

	if err := s.groupRepo.Delete(ctx, ownerID, groupID); err != nil {
		if entities.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("delete group: %w", err)
	}

	unassigned, err := s.taskRepo.UnassignGroup(ctx, ownerID, groupID.String())
	if err != nil {
		s.metrics.CascadeFailures.Inc()
		s.logger.Errorw("group deleted but tasks were not unassigned",
			"error", err,
			"group_id", groupID,
			"user_id", ownerID,
		)
		return nil, &entities.PartialFailureError{
			Operation:  "delete group",
			ResourceID: groupID.String(),
			Err:        err,
		}
	}

	return s.deleted(ownerID, groupID, unassigned), nil
}

// UnassignGroupTasks clears groupID from the owner's tasks. It does not
// require the group to exist and is safe to repeat after a partial failure.
func (s *GroupService) UnassignGroupTasks(ctx context.Context, ownerID, groupID uuid.UUID) (int64, error) {
	n, err := s.taskRepo.UnassignGroup(ctx, ownerID, groupID.String())
	if err != nil {
		return 0, fmt.Errorf("unassign tasks: %w", err)
	}

	s.logger.Infow("group tasks unassigned", "group_id", groupID, "user_id", ownerID, "tasks", n)
	return n, nil
}

func (s *GroupService) deleted(ownerID, groupID uuid.UUID, unassigned int64) *ports.GroupDeletion {
	s.metrics.GroupsDeleted.Inc()
	s.logger.Infow("group deleted", "group_id", groupID, "user_id", ownerID, "tasks_unassigned", unassigned)

	return &ports.GroupDeletion{
		GroupID:         groupID,
		TasksUnassigned: unassigned,
	}
}
