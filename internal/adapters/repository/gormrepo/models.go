package gormrepo

import (
	"time"

	"github.com/google/uuid"

	"github.com/focuswin/core/internal/domain/entities"
)

type userModel struct {
	ID           uuid.UUID `gorm:"primaryKey;type:text"`
	Name         string    `gorm:"not null"`
	Email        string    `gorm:"not null;uniqueIndex:uq_users_email"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userModel) TableName() string { return "users" }

type groupModel struct {
	ID        uuid.UUID `gorm:"primaryKey;type:text"`
	UserID    uuid.UUID `gorm:"type:text;not null;uniqueIndex:uq_groups_user_name,priority:1"`
	Name      string    `gorm:"not null;uniqueIndex:uq_groups_user_name,priority:2"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (groupModel) TableName() string { return "groups" }

type taskModel struct {
	ID             uuid.UUID `gorm:"primaryKey;type:text"`
	UserID         uuid.UUID `gorm:"type:text;not null;index:idx_tasks_user_group,priority:1;index:idx_tasks_user_created,priority:1"`
	GroupRef       string    `gorm:"not null;default:'';index:idx_tasks_user_group,priority:2"`
	Title          string    `gorm:"not null"`
	Completed      bool      `gorm:"not null;default:false"`
	Importance     int       `gorm:"not null;default:5"`
	DueDate        *time.Time
	CompletedAt    *time.Time
	RecurrenceType string            `gorm:"not null;default:none"`
	RecurrenceDays entities.Weekdays `gorm:"type:text"`
	RecurrenceDate *int
	CreatedAt      time.Time `gorm:"index:idx_tasks_user_created,priority:2,sort:desc"`
	UpdatedAt      time.Time
}

func (taskModel) TableName() string { return "tasks" }

func fromUser(u *entities.User) *userModel {
	return &userModel{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (m *userModel) toEntity() *entities.User {
	return &entities.User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func fromGroup(g *entities.Group) *groupModel {
	return &groupModel{
		ID:        g.ID,
		UserID:    g.UserID,
		Name:      g.Name,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

func (m *groupModel) toEntity() *entities.Group {
	return &entities.Group{
		ID:        m.ID,
		UserID:    m.UserID,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func fromTask(t *entities.Task) *taskModel {
	return &taskModel{
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
		RecurrenceDate: t.Recurrence.Date,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func (m *taskModel) toEntity() *entities.Task {
	return &entities.Task{
		ID:          m.ID,
		UserID:      m.UserID,
		Group:       m.GroupRef,
		Title:       m.Title,
		Completed:   m.Completed,
		Importance:  m.Importance,
		DueDate:     m.DueDate,
		CompletedAt: m.CompletedAt,
		Recurrence: entities.Recurrence{
			Type: entities.RecurrenceType(m.RecurrenceType),
			Days: m.RecurrenceDays,
			Date: m.RecurrenceDate,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
