package entities

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DefaultImportance is assigned to tasks created without an importance
const DefaultImportance = 5

// Enums and types
type RecurrenceType string

const (
	RecurrenceNone    RecurrenceType = "none"
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
)

// IsValid reports whether the recurrence type is one of the known values
func (rt RecurrenceType) IsValid() bool {
	switch rt {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	default:
		return false
	}
}

// Weekdays holds weekday indices, 0=Sunday..6=Saturday. Stored as a JSON array.
type Weekdays []int

func (w Weekdays) Value() (driver.Value, error) {
	if w == nil {
		return nil, nil
	}
	b, err := json.Marshal([]int(w))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (w *Weekdays) Scan(value interface{}) error {
	if value == nil {
		*w = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Weekdays", value)
	}

	if len(raw) == 0 {
		*w = nil
		return nil
	}
	return json.Unmarshal(raw, (*[]int)(w))
}

// User represents an account owning groups and tasks
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name" validate:"required"`
	Email        string    `json:"email" db:"email" validate:"required,email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Sanitized returns a copy of the user without the password hash
func (u *User) Sanitized() *User {
	clean := *u
	clean.PasswordHash = ""
	return &clean
}

// Group is a named bucket of tasks owned by a single user
type Group struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" validate:"required"`
	UserID    uuid.UUID `json:"userId" db:"user_id" validate:"required"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// NewGroup builds a validated group for owner
func NewGroup(owner uuid.UUID, name string, now time.Time) (*Group, error) {
	group := &Group{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		UserID:    owner,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := Validate(group); err != nil {
		return nil, err
	}
	return group, nil
}

// Recurrence describes how a task repeats. Nothing schedules from it.
type Recurrence struct {
	Type RecurrenceType `json:"type" validate:"required,recurrence"`
	Days Weekdays       `json:"days,omitempty" validate:"omitempty,dive,min=0,max=6"`
	Date *int           `json:"date,omitempty" validate:"omitempty,min=1,max=31"`
}

// Normalize drops the fields that do not belong to the recurrence type
func (r *Recurrence) Normalize() {
	if r.Type == "" {
		r.Type = RecurrenceNone
	}
	if r.Type != RecurrenceWeekly {
		r.Days = nil
	}
	if r.Type != RecurrenceMonthly {
		r.Date = nil
	}
}

// Task is a unit of work owned by a user, optionally filed under a group.
// Group is a loose reference to a Group ID; it is not enforced by storage.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"userId" validate:"required"`
	Group       string     `json:"group"`
	Title       string     `json:"title" validate:"required"`
	Completed   bool       `json:"completed"`
	Importance  int        `json:"importance" validate:"min=1,max=10"`
	DueDate     *time.Time `json:"dueDate"`
	CompletedAt *time.Time `json:"completedAt"`
	Recurrence  Recurrence `json:"recurrence"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskFields are the client-settable fields of a new task
type TaskFields struct {
	Title      string
	Completed  bool
	Importance *int
	DueDate    *time.Time
	Group      string
	Recurrence *Recurrence
}

// TaskPatch is a partial task update; nil fields are left untouched
type TaskPatch struct {
	Title      *string
	Completed  *bool
	Importance *int
	DueDate    Nullable[time.Time]
	Group      *string
	Recurrence *Recurrence
}

// NewTask builds a validated task for owner. A task created as completed gets
// CompletedAt set to now.
func NewTask(owner uuid.UUID, fields TaskFields, now time.Time) (*Task, error) {
	task := &Task{
		ID:         uuid.New(),
		UserID:     owner,
		Group:      canonicalGroupRef(fields.Group),
		Title:      strings.TrimSpace(fields.Title),
		Importance: DefaultImportance,
		DueDate:    fields.DueDate,
		Recurrence: Recurrence{Type: RecurrenceNone},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if fields.Importance != nil {
		task.Importance = *fields.Importance
	}
	if fields.Recurrence != nil {
		task.Recurrence = *fields.Recurrence
	}
	task.Recurrence.Normalize()
	task.SetCompleted(fields.Completed, now)

	if err := Validate(task); err != nil {
		return nil, err
	}
	return task, nil
}

// SetCompleted moves the task to the given completion state and keeps
// CompletedAt in step: set on false->true, cleared on true->false.
func (t *Task) SetCompleted(completed bool, now time.Time) {
	switch {
	case completed && !t.Completed:
		completedAt := now
		t.CompletedAt = &completedAt
	case !completed && t.Completed:
		t.CompletedAt = nil
	}
	t.Completed = completed
}

// Apply merges a partial update into the task and re-validates it
func (t *Task) Apply(patch TaskPatch, now time.Time) error {
	if patch.Title != nil {
		t.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Importance != nil {
		t.Importance = *patch.Importance
	}
	if patch.DueDate.Set {
		t.DueDate = patch.DueDate.Value
	}
	if patch.Group != nil {
		t.Group = canonicalGroupRef(*patch.Group)
	}
	if patch.Recurrence != nil {
		t.Recurrence = *patch.Recurrence
		t.Recurrence.Normalize()
	}
	if patch.Completed != nil {
		t.SetCompleted(*patch.Completed, now)
	}

	t.UpdatedAt = now
	return Validate(t)
}

// canonicalGroupRef trims ref and rewrites any UUID spelling to the lowercase
// form groups are stored under, so deleting the group finds the task.
func canonicalGroupRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if id, err := uuid.Parse(ref); err == nil {
		return id.String()
	}
	return ref
}

// Nullable distinguishes an absent JSON field from an explicit null
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// NullableOf returns a Nullable holding v
func NullableOf[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("recurrence", func(fl validator.FieldLevel) bool {
		return RecurrenceType(fl.Field().String()).IsValid()
	})
	return v
}

// Validate checks an entity against its struct tags and converts failures
// into a ValidationError keyed by JSON field path.
func Validate(entity interface{}) error {
	err := validate.Struct(entity)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate: %w", err)
	}

	verr := &ValidationError{
		Message: "validation failed",
		Fields:  make(map[string]string, len(fieldErrs)),
	}
	for _, fe := range fieldErrs {
		verr.Fields[fieldPath(fe.Namespace())] = describe(fe)
	}
	return verr
}

// fieldPath strips the struct name from a validator namespace ("Task.title" -> "title")
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "recurrence":
		return "must be one of none, daily, weekly, monthly"
	default:
		return "is invalid"
	}
}
