package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/focuswin/core/internal/domain/entities"
)

// AuthService interface for signup, login and credential resolution
type AuthService interface {
	Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	// ResolveToken verifies a bearer token and returns its user.
	ResolveToken(ctx context.Context, token string) (*entities.User, error)
	// ResolveUser turns an opaque user identifier into a user without its password hash.
	ResolveUser(ctx context.Context, credential string) (*entities.User, error)
}

// TaskService interface for task operations, all scoped to the owner
type TaskService interface {
	ListTasks(ctx context.Context, ownerID uuid.UUID) ([]*entities.Task, error)
	GetTask(ctx context.Context, ownerID, taskID uuid.UUID) (*entities.Task, error)
	CreateTask(ctx context.Context, ownerID uuid.UUID, req CreateTaskRequest) (*entities.Task, error)
	UpdateTask(ctx context.Context, ownerID, taskID uuid.UUID, req UpdateTaskRequest) (*entities.Task, error)
	DeleteTask(ctx context.Context, ownerID, taskID uuid.UUID) error
}

// GroupService interface for group operations, all scoped to the owner
type GroupService interface {
	ListGroups(ctx context.Context, ownerID uuid.UUID) ([]*entities.Group, error)
	CreateGroup(ctx context.Context, ownerID uuid.UUID, req CreateGroupRequest) (*entities.Group, error)
	DeleteGroup(ctx context.Context, ownerID, groupID uuid.UUID) (*GroupDeletion, error)
	UnassignGroupTasks(ctx context.Context, ownerID, groupID uuid.UUID) (int64, error)
}

// NotificationService interface for due-date reminders
type NotificationService interface {
	// Notify queues a reminder for user and returns without waiting for delivery.
	Notify(ctx context.Context, user *entities.User, req NotificationRequest) error
}

// Dispatcher delivers a single notification
type Dispatcher interface {
	Send(ctx context.Context, n Notification) error
}

// Request/Response Types

// Auth related types
type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User        *entities.User `json:"user"`
	AccessToken string         `json:"token"`
	TokenType   string         `json:"tokenType"`
	ExpiresIn   int64          `json:"expiresIn"`
}

// Task related types
type CreateTaskRequest struct {
	Title      string               `json:"title"`
	Completed  bool                 `json:"completed"`
	Importance *int                 `json:"importance"`
	DueDate    *time.Time           `json:"dueDate"`
	Group      string               `json:"group"`
	Recurrence *entities.Recurrence `json:"recurrence"`
}

// Fields converts the request into entity construction fields
func (r CreateTaskRequest) Fields() entities.TaskFields {
	return entities.TaskFields{
		Title:      r.Title,
		Completed:  r.Completed,
		Importance: r.Importance,
		DueDate:    r.DueDate,
		Group:      r.Group,
		Recurrence: r.Recurrence,
	}
}

// UpdateTaskRequest is a partial update; absent fields are left untouched and
// an explicit null dueDate clears the due date.
type UpdateTaskRequest struct {
	Title      *string                      `json:"title"`
	Completed  *bool                        `json:"completed"`
	Importance *int                         `json:"importance"`
	DueDate    entities.Nullable[time.Time] `json:"dueDate"`
	Group      *string                      `json:"group"`
	Recurrence *entities.Recurrence         `json:"recurrence"`
}

// Patch converts the request into an entity patch
func (r UpdateTaskRequest) Patch() entities.TaskPatch {
	return entities.TaskPatch{
		Title:      r.Title,
		Completed:  r.Completed,
		Importance: r.Importance,
		DueDate:    r.DueDate,
		Group:      r.Group,
		Recurrence: r.Recurrence,
	}
}

// Group related types
type CreateGroupRequest struct {
	Name string `json:"name"`
}

type GroupDeletion struct {
	GroupID         uuid.UUID `json:"groupId"`
	TasksUnassigned int64     `json:"tasksUnassigned"`
}

// Notification related types
type NotificationRequest struct {
	TaskID    string     `json:"taskId"`
	TaskTitle string     `json:"taskTitle" validate:"required"`
	DueDate   *time.Time `json:"dueDate"`
}

type Notification struct {
	RecipientEmail string
	RecipientName  string
	TaskTitle      string
	DueDate        *time.Time
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}
