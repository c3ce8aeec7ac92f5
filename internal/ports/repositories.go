package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/focuswin/core/internal/domain/entities"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create inserts a user; a duplicate email yields entities.ErrEmailTaken.
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
}

// GroupRepository defines the interface for group data operations.
// Every lookup is a compound-key lookup on (id, owner).
type GroupRepository interface {
	// Create inserts a group; an existing (name, owner) pair yields entities.ErrGroupNameTaken.
	Create(ctx context.Context, group *entities.Group) error
	GetByOwner(ctx context.Context, ownerID, id uuid.UUID) (*entities.Group, error)
	// ListByOwner returns the owner's groups ordered by name ascending.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.Group, error)
	// Delete removes the group; entities.ErrGroupNotFound when nothing matched.
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// TaskRepository defines the interface for task data operations.
// Every lookup is a compound-key lookup on (id, owner).
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	GetByOwner(ctx context.Context, ownerID, id uuid.UUID) (*entities.Task, error)
	// ListByOwner returns the owner's tasks, newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.Task, error)
	// Update persists every mutable field; entities.ErrTaskNotFound when nothing matched.
	Update(ctx context.Context, task *entities.Task) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	// UnassignGroup clears the group reference on the owner's tasks that point at groupID
	// and returns how many tasks changed.
	UnassignGroup(ctx context.Context, ownerID uuid.UUID, groupID string) (int64, error)
}

// TxManager runs fn inside a storage transaction. Repositories called with the
// context handed to fn take part in that transaction.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store bundles the repositories of one storage backend
type Store interface {
	Users() UserRepository
	Groups() GroupRepository
	Tasks() TaskRepository
	// Transactor returns nil when the backend cannot run multi-statement transactions.
	Transactor() TxManager
	HealthCheck(ctx context.Context) error
	Close() error
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	// Get decodes the cached value into dest; ErrCacheMiss when the key is absent.
	Get(ctx context.Context, key string, dest interface{}) error
}
