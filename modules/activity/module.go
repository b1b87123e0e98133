// Package activity keeps an in-memory feed of task lifecycle events.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/example/task-tracker/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// DefaultCapacity bounds the feed; the oldest entries are dropped first.
const DefaultCapacity = 1000

// Entry types.
const (
	TypeTaskCreated  = "task_created"
	TypeTaskAssigned = "task_assigned"
	TypeTaskDeleted  = "task_deleted"
)

// ServiceListActivity is the request-reply service exposing the feed.
const ServiceListActivity = "list-activity"

// Entry is one recorded lifecycle event.
type Entry struct {
	TaskID    uint      `json:"task_id"`
	Type      string    `json:"type"`
	ActorID   uint      `json:"actor_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ListRequest selects entries for one task (TaskID > 0) or all tasks.
// Limit <= 0 returns every matching entry.
type ListRequest struct {
	TaskID uint `json:"task_id,omitempty"`
	Limit  int  `json:"limit,omitempty"`
}

// ListResponse carries entries newest first.
type ListResponse struct {
	Entries []Entry `json:"entries"`
}

// ActivityModule consumes task events into a bounded feed.
type ActivityModule struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
	logger   types.Logger
}

var _ mono.Module = (*ActivityModule)(nil)
var _ mono.EventConsumerModule = (*ActivityModule)(nil)
var _ mono.ServiceProviderModule = (*ActivityModule)(nil)

// NewModule creates an ActivityModule holding at most capacity entries.
func NewModule(capacity int, logger types.Logger) *ActivityModule {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &ActivityModule{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
		logger:   logger.WithModule("activity"),
	}
}

func (m *ActivityModule) Name() string {
	return "activity"
}

func (m *ActivityModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskAssignedV1, m.handleTaskAssigned, m); err != nil {
		return fmt.Errorf("failed to register TaskAssigned consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	m.logger.Info("Registered event consumers", "events", []string{"TaskCreated", "TaskAssigned", "TaskDeleted"})
	return nil
}

func (m *ActivityModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListActivity, json.Unmarshal, json.Marshal, m.listActivity,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListActivity, err)
	}
	return nil
}

func (m *ActivityModule) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	m.record(Entry{
		TaskID:    event.TaskID,
		Type:      TypeTaskCreated,
		ActorID:   event.OwnerID,
		Message:   fmt.Sprintf("Task '%s' created with %s priority", event.Title, event.Priority),
		Timestamp: event.CreatedAt,
	})
	return nil
}

func (m *ActivityModule) handleTaskAssigned(_ context.Context, event events.TaskAssignedEvent, _ *mono.Msg) error {
	msg := "Task unassigned"
	if event.AssigneeID != nil {
		msg = fmt.Sprintf("Task assigned to user %d", *event.AssigneeID)
	}
	m.record(Entry{
		TaskID:    event.TaskID,
		Type:      TypeTaskAssigned,
		ActorID:   event.ActorID,
		Message:   msg,
		Timestamp: event.AssignedAt,
	})
	return nil
}

func (m *ActivityModule) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	msg := "Task deleted"
	if event.Forced {
		msg = "Task force-deleted"
	}
	m.record(Entry{
		TaskID:    event.TaskID,
		Type:      TypeTaskDeleted,
		ActorID:   event.ActorID,
		Message:   msg,
		Timestamp: event.DeletedAt,
	})
	return nil
}

func (m *ActivityModule) listActivity(_ context.Context, req ListRequest, _ *mono.Msg) (ListResponse, error) {
	return ListResponse{Entries: m.Entries(req.TaskID, req.Limit)}, nil
}

func (m *ActivityModule) record(e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	m.mu.Lock()
	if len(m.entries) == m.capacity {
		copy(m.entries, m.entries[1:])
		m.entries = m.entries[:len(m.entries)-1]
	}
	m.entries = append(m.entries, e)
	m.mu.Unlock()

	m.logger.Debug("Activity recorded", "task_id", e.TaskID, "type", e.Type, "actor_id", e.ActorID)
}

// Entries returns recorded entries newest first, optionally for one task.
func (m *ActivityModule) Entries(taskID uint, limit int) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, 0)
	for i := len(m.entries) - 1; i >= 0; i-- {
		if taskID != 0 && m.entries[i].TaskID != taskID {
			continue
		}
		out = append(out, m.entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (m *ActivityModule) Start(_ context.Context) error {
	m.logger.Info("Module started", "capacity", m.capacity)
	return nil
}

func (m *ActivityModule) Stop(_ context.Context) error {
	m.logger.Info("Module stopped")
	return nil
}
