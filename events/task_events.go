// Package events holds the typed event definitions shared between the task
// module (emitter) and the activity module (consumer).
package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// TaskCreatedEvent is emitted after a task is committed.
type TaskCreatedEvent struct {
	TaskID     uint      `json:"task_id"`
	Title      string    `json:"title"`
	Priority   string    `json:"priority"`
	OwnerID    uint      `json:"owner_id"`
	AssigneeID *uint     `json:"assignee_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TaskCreatedV1 is the typed event definition for task creation.
// Subject: events.task.v1.task-created
var TaskCreatedV1 = helper.EventDefinition[TaskCreatedEvent](
	"task", "TaskCreated", "v1",
)

// TaskAssignedEvent is emitted when the assignee of a task changes.
// AssigneeID is nil when the task was unassigned.
type TaskAssignedEvent struct {
	TaskID             uint      `json:"task_id"`
	ActorID            uint      `json:"actor_id"`
	PreviousAssigneeID *uint     `json:"previous_assignee_id,omitempty"`
	AssigneeID         *uint     `json:"assignee_id,omitempty"`
	AssignedAt         time.Time `json:"assigned_at"`
}

// TaskAssignedV1 is the typed event definition for assignment changes.
// Subject: events.task.v1.task-assigned
var TaskAssignedV1 = helper.EventDefinition[TaskAssignedEvent](
	"task", "TaskAssigned", "v1",
)

// TaskDeletedEvent is emitted after a task is removed.
type TaskDeletedEvent struct {
	TaskID    uint      `json:"task_id"`
	ActorID   uint      `json:"actor_id"`
	Forced    bool      `json:"forced"`
	DeletedAt time.Time `json:"deleted_at"`
}

// TaskDeletedV1 is the typed event definition for task deletion.
// Subject: events.task.v1.task-deleted
var TaskDeletedV1 = helper.EventDefinition[TaskDeletedEvent](
	"task", "TaskDeleted", "v1",
)
