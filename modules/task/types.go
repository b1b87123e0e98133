package task

import (
	"time"

	"github.com/example/task-tracker/domain/apperr"
	domain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/domain/user"
)

// Service names registered by the task module.
const (
	ServiceCreateTask      = "create-task"
	ServiceGetTask         = "get-task"
	ServiceListTasks       = "list-tasks"
	ServiceUpdateTask      = "update-task"
	ServiceAssignTask      = "assign-task"
	ServiceDeleteTask      = "delete-task"
	ServiceForceDeleteTask = "force-delete-task"
	ServiceTransitionTask  = "transition-task"
	ServiceBulkTransition  = "bulk-transition"
)

// TaskInfo is the public view of a task with its owner and assignee.
type TaskInfo struct {
	ID          uint            `json:"id"`
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	Status      domain.Status   `json:"status"`
	Priority    domain.Priority `json:"priority"`
	OwnerID     uint            `json:"owner_id"`
	AssigneeID  *uint           `json:"assignee_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Owner       *user.Brief     `json:"owner"`
	Assignee    *user.Brief     `json:"assignee"`
}

func toTaskInfo(t *domain.Task) *TaskInfo {
	return &TaskInfo{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		OwnerID:     t.OwnerID,
		AssigneeID:  t.AssigneeID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Owner:       t.Owner.Brief(),
		Assignee:    t.Assignee.Brief(),
	}
}

// Pagination describes the position of a page within a listing.
type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// NewPagination computes page metadata for total matching items.
func NewPagination(page, perPage int, total int64) Pagination {
	pages := 0
	if perPage > 0 {
		pages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: pages,
		HasNext:    page < pages,
		HasPrev:    page > 1,
	}
}

// Mutating requests carry the acting identity; every response carries
// domain failures in Error.

// CreateTaskRequest is the request for creating a task.
type CreateTaskRequest struct {
	ActorID     uint            `json:"actor_id"`
	Title       string          `json:"title"`
	Description *string         `json:"description,omitempty"`
	Priority    domain.Priority `json:"priority,omitempty"`
	AssigneeID  *uint           `json:"assignee_id,omitempty"`
}

// GetTaskRequest is the request for getting a task.
type GetTaskRequest struct {
	TaskID uint `json:"task_id"`
}

// ListTasksRequest is the request for listing tasks.
type ListTasksRequest struct {
	Status     *domain.Status   `json:"status,omitempty"`
	Priority   *domain.Priority `json:"priority,omitempty"`
	AssigneeID *uint            `json:"assignee_id,omitempty"`
	OwnerID    *uint            `json:"owner_id,omitempty"`
	Search     string           `json:"search,omitempty"`
	Page       int              `json:"page"`
	PerPage    int              `json:"per_page"`
}

// UpdateTaskRequest is the request for a partial task update.
type UpdateTaskRequest struct {
	ActorID     uint             `json:"actor_id"`
	TaskID      uint             `json:"task_id"`
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Priority    *domain.Priority `json:"priority,omitempty"`
}

// AssignTaskRequest sets or clears the assignee.
type AssignTaskRequest struct {
	ActorID    uint  `json:"actor_id"`
	TaskID     uint  `json:"task_id"`
	AssigneeID *uint `json:"assignee_id"`
}

// DeleteTaskRequest is the request for deleting a task, forced or not.
type DeleteTaskRequest struct {
	ActorID uint `json:"actor_id"`
	TaskID  uint `json:"task_id"`
}

// TransitionTaskRequest moves one task to TargetStatus.
type TransitionTaskRequest struct {
	ActorID      uint          `json:"actor_id"`
	TaskID       uint          `json:"task_id"`
	TargetStatus domain.Status `json:"target_status"`
}

// BulkTransitionRequest moves every task in TaskIDs to TargetStatus.
type BulkTransitionRequest struct {
	ActorID      uint          `json:"actor_id"`
	TaskIDs      []uint        `json:"task_ids"`
	TargetStatus domain.Status `json:"target_status"`
}

// TaskResponse carries a single task.
type TaskResponse struct {
	Task  *TaskInfo     `json:"task,omitempty"`
	Error *apperr.Error `json:"error,omitempty"`
}

// ListTasksResponse carries one page of tasks.
type ListTasksResponse struct {
	Items      []TaskInfo    `json:"items"`
	Pagination Pagination    `json:"pagination"`
	Error      *apperr.Error `json:"error,omitempty"`
}

// DeleteTaskResponse reports a deletion.
type DeleteTaskResponse struct {
	Deleted bool          `json:"deleted"`
	Error   *apperr.Error `json:"error,omitempty"`
}

// BulkTransitionResponse carries the per-task report.
type BulkTransitionResponse struct {
	Report *BulkReport   `json:"report,omitempty"`
	Error  *apperr.Error `json:"error,omitempty"`
}
