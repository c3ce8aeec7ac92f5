package entities

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common errors
var (
	ErrTaskNotFound       = &NotFoundError{Resource: "task"}
	ErrGroupNotFound      = &NotFoundError{Resource: "group"}
	ErrUserNotFound       = &NotFoundError{Resource: "user"}
	ErrGroupNameTaken     = &ConflictError{Resource: "group", Message: "you already have a group with this name"}
	ErrEmailTaken         = &ConflictError{Resource: "user", Message: "a user with this email already exists"}
	ErrMissingCredential  = &AuthenticationError{Reason: "missing credential"}
	ErrInvalidCredential  = &AuthenticationError{Reason: "invalid credential"}
	ErrInvalidCredentials = &AuthenticationError{Reason: "invalid email or password"}
)

// ValidationError reports input that has the wrong shape or is out of range.
type ValidationError struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// NewValidationError creates a validation error for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Message: "validation failed",
		Fields:  map[string]string{field: message},
	}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, "; "))
}

// NotFoundError is returned when a record is absent or belongs to another user.
// Both cases produce the same error so a caller cannot tell a foreign record from a missing one.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// ConflictError reports a uniqueness violation.
type ConflictError struct {
	Resource string
	Message  string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// AuthenticationError reports a credential that cannot be resolved to a user.
// Reason is for logs only.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return "authentication failed: " + e.Reason
}

// PartialFailureError is returned when a group was deleted but its tasks could not
// be unassigned. Retrying the cascade alone is safe; the delete must not be repeated.
type PartialFailureError struct {
	Operation  string
	ResourceID string
	Err        error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s partially failed for %s: %v", e.Operation, e.ResourceID, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsConflict reports whether err is a ConflictError
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

// IsAuthentication reports whether err is an AuthenticationError
func IsAuthentication(err error) bool {
	var target *AuthenticationError
	return errors.As(err, &target)
}

// IsPartialFailure reports whether err is a PartialFailureError
func IsPartialFailure(err error) bool {
	var target *PartialFailureError
	return errors.As(err, &target)
}
