package task

import (
	"time"

	"github.com/example/task-tracker/domain/user"
)

// Status represents the workflow position of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusReview, StatusDone}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

// Priority is orthogonal to status and never checked by the workflow.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Task is a unit of work owned by one user and optionally assigned to another.
// Owner and Assignee are loaded eagerly by the store on every read.
type Task struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description *string    `gorm:"type:text" json:"description"`
	Status      Status     `gorm:"size:20;not null;default:todo;index" json:"status"`
	Priority    Priority   `gorm:"size:20;not null;default:medium;index" json:"priority"`
	OwnerID     uint       `gorm:"not null;index" json:"owner_id"`
	AssigneeID  *uint      `gorm:"index" json:"assignee_id"`
	Owner       *user.User `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	Assignee    *user.User `gorm:"foreignKey:AssigneeID;constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Task) TableName() string {
	return "tasks"
}

// IsAssignedTo reports whether userID is the current assignee.
func (t *Task) IsAssignedTo(userID uint) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}
