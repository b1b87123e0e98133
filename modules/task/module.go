package task

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/task-tracker/database"
	"github.com/example/task-tracker/domain/apperr"
	domain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/gorm"
)

// TaskModule provides task management, status transitions and bulk
// transitions over the shared database.
type TaskModule struct {
	db       *gorm.DB
	service  *TaskService
	eventBus mono.EventBus
	logger   types.Logger
}

var _ mono.Module = (*TaskModule)(nil)
var _ mono.ServiceProviderModule = (*TaskModule)(nil)
var _ mono.EventEmitterModule = (*TaskModule)(nil)
var _ mono.HealthCheckableModule = (*TaskModule)(nil)

// NewModule creates a new TaskModule.
func NewModule(db *gorm.DB, logger types.Logger) *TaskModule {
	return &TaskModule{
		db:     db,
		logger: logger.WithModule("task"),
	}
}

func (m *TaskModule) Name() string {
	return "task"
}

func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskAssignedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

func (m *TaskModule) Start(_ context.Context) error {
	if m.db == nil {
		return fmt.Errorf("task: database not set")
	}
	if m.eventBus == nil {
		m.logger.Warn("Event bus not set, lifecycle events will not be published")
	}
	m.service = NewTaskService(NewTaskRepository(m.db), m.eventBus, m.logger)
	m.logger.Info("Module started")
	return nil
}

func (m *TaskModule) Stop(_ context.Context) error {
	m.logger.Info("Module stopped")
	return nil
}

// Health reports the database state.
func (m *TaskModule) Health(ctx context.Context) mono.HealthStatus {
	if err := database.Ping(ctx, m.db); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}
	return mono.HealthStatus{Healthy: true, Message: "operational"}
}

// Service returns the task service once the module has started.
func (m *TaskModule) Service() *TaskService {
	return m.service
}

func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreateTask, json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCreateTask, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetTask, json.Unmarshal, json.Marshal, m.getTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetTask, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListTasks, json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListTasks, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceUpdateTask, json.Unmarshal, json.Marshal, m.updateTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceUpdateTask, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceAssignTask, json.Unmarshal, json.Marshal, m.assignTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceAssignTask, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceDeleteTask, json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceDeleteTask, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceForceDeleteTask, json.Unmarshal, json.Marshal, m.forceDeleteTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceForceDeleteTask, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceTransitionTask, json.Unmarshal, json.Marshal, m.transitionTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceTransitionTask, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceBulkTransition, json.Unmarshal, json.Marshal, m.bulkTransition,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceBulkTransition, err)
	}

	m.logger.Info("Registered services", "services", []string{
		ServiceCreateTask, ServiceGetTask, ServiceListTasks, ServiceUpdateTask, ServiceAssignTask,
		ServiceDeleteTask, ServiceForceDeleteTask, ServiceTransitionTask, ServiceBulkTransition,
	})
	return nil
}

func (m *TaskModule) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	task, err := m.service.Create(ctx, req.ActorID, CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
	})
	return taskResponse(task, err)
}

func (m *TaskModule) getTask(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	return taskResponse(m.service.Get(ctx, req.TaskID))
}

func (m *TaskModule) listTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	page, err := m.service.List(ctx, ListFilter{
		Status:     req.Status,
		Priority:   req.Priority,
		AssigneeID: req.AssigneeID,
		OwnerID:    req.OwnerID,
		Search:     req.Search,
		Page:       req.Page,
		PerPage:    req.PerPage,
	})
	if err != nil {
		appErr, err := apperr.Split(err)
		return ListTasksResponse{Error: appErr}, err
	}

	items := make([]TaskInfo, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, *toTaskInfo(&page.Items[i]))
	}
	return ListTasksResponse{Items: items, Pagination: page.Pagination}, nil
}

func (m *TaskModule) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	return taskResponse(m.service.Update(ctx, req.ActorID, req.TaskID, UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	}))
}

func (m *TaskModule) assignTask(ctx context.Context, req AssignTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	return taskResponse(m.service.Assign(ctx, req.ActorID, req.TaskID, req.AssigneeID))
}

func (m *TaskModule) deleteTask(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	return deleteResponse(m.service.Delete(ctx, req.ActorID, req.TaskID))
}

func (m *TaskModule) forceDeleteTask(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	return deleteResponse(m.service.ForceDelete(ctx, req.ActorID, req.TaskID))
}

func (m *TaskModule) transitionTask(ctx context.Context, req TransitionTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	return taskResponse(m.service.Transition(ctx, req.ActorID, req.TaskID, req.TargetStatus))
}

func (m *TaskModule) bulkTransition(ctx context.Context, req BulkTransitionRequest, _ *mono.Msg) (BulkTransitionResponse, error) {
	report, err := m.service.BulkTransition(ctx, req.ActorID, req.TaskIDs, req.TargetStatus)
	if err != nil {
		appErr, err := apperr.Split(err)
		return BulkTransitionResponse{Error: appErr}, err
	}
	return BulkTransitionResponse{Report: report}, nil
}

func taskResponse(task *domain.Task, err error) (TaskResponse, error) {
	if err != nil {
		appErr, err := apperr.Split(err)
		return TaskResponse{Error: appErr}, err
	}
	return TaskResponse{Task: toTaskInfo(task)}, nil
}

func deleteResponse(err error) (DeleteTaskResponse, error) {
	if err != nil {
		appErr, err := apperr.Split(err)
		return DeleteTaskResponse{Error: appErr}, err
	}
	return DeleteTaskResponse{Deleted: true}, nil
}
