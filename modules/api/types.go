package api

import (
	"github.com/example/task-tracker/middleware/servicemetrics"
	"github.com/example/task-tracker/modules/activity"
	"github.com/example/task-tracker/modules/task"
)

// RegisterBody is the body of POST /auth/register.
type RegisterBody struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required"`
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
}

// LoginBody is the body of POST /auth/login.
type LoginBody struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshBody is the body of POST /auth/refresh.
type RefreshBody struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// CreateTaskBody is the body of POST /tasks.
type CreateTaskBody struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Priority    string  `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	AssigneeID  *uint   `json:"assignee_id" validate:"omitempty,gt=0"`
}

// UpdateTaskBody is the body of PATCH /tasks/{id}. Absent fields are left
// unchanged.
type UpdateTaskBody struct {
	Title       *string `json:"title" validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

// AssignBody is the body of POST /tasks/{id}/assign. A null assignee
// unassigns the task.
type AssignBody struct {
	AssigneeID *uint `json:"assignee_id" validate:"omitempty,gt=0"`
}

// TransitionBody is the body of POST /tasks/{id}/transition.
type TransitionBody struct {
	TargetStatus string `json:"target_status" validate:"required,oneof=todo in_progress review done"`
}

// BulkStatusBody is the body of POST /tasks/bulk-status.
type BulkStatusBody struct {
	TaskIDs      []uint `json:"task_ids" validate:"required,min=1,max=100,dive,gt=0"`
	TargetStatus string `json:"target_status" validate:"required,oneof=todo in_progress review done"`
}

// TaskListResponse is one page of tasks.
type TaskListResponse struct {
	Items      []task.TaskInfo `json:"items"`
	Pagination task.Pagination `json:"pagination"`
}

// ActivityResponse lists lifecycle entries of one task, newest first.
type ActivityResponse struct {
	TaskID  uint             `json:"task_id"`
	Entries []activity.Entry `json:"entries"`
}

// HealthResponse is the body of GET /ops/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// MetricsResponse is the body of GET /ops/metrics.
type MetricsResponse struct {
	TotalRequests int64                           `json:"total_requests"`
	StatusCodes   map[string]int64                `json:"status_codes"`
	Services      map[string]servicemetrics.Stats `json:"services"`
}
