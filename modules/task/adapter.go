package task

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// TaskPort defines the interface the HTTP surface uses to reach the task
// module. Domain failures come back as *apperr.Error.
type TaskPort interface {
	CreateTask(ctx context.Context, req CreateTaskRequest) (*TaskInfo, error)
	GetTask(ctx context.Context, taskID uint) (*TaskInfo, error)
	ListTasks(ctx context.Context, req ListTasksRequest) (*ListTasksResponse, error)
	UpdateTask(ctx context.Context, req UpdateTaskRequest) (*TaskInfo, error)
	AssignTask(ctx context.Context, req AssignTaskRequest) (*TaskInfo, error)
	DeleteTask(ctx context.Context, actorID, taskID uint) error
	ForceDeleteTask(ctx context.Context, actorID, taskID uint) error
	TransitionTask(ctx context.Context, req TransitionTaskRequest) (*TaskInfo, error)
	BulkTransition(ctx context.Context, req BulkTransitionRequest) (*BulkReport, error)
}

// TaskAdapter implements TaskPort over the task module's services.
type TaskAdapter struct {
	container mono.ServiceContainer
}

var _ TaskPort = (*TaskAdapter)(nil)

// NewTaskAdapter creates a new TaskAdapter.
func NewTaskAdapter(container mono.ServiceContainer) *TaskAdapter {
	return &TaskAdapter{container: container}
}

func (a *TaskAdapter) CreateTask(ctx context.Context, req CreateTaskRequest) (*TaskInfo, error) {
	return single(ctx, a.container, ServiceCreateTask, &req)
}

func (a *TaskAdapter) GetTask(ctx context.Context, taskID uint) (*TaskInfo, error) {
	return single(ctx, a.container, ServiceGetTask, &GetTaskRequest{TaskID: taskID})
}

func (a *TaskAdapter) ListTasks(ctx context.Context, req ListTasksRequest) (*ListTasksResponse, error) {
	var resp ListTasksResponse
	if err := call(ctx, a.container, ServiceListTasks, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return &resp, nil
}

func (a *TaskAdapter) UpdateTask(ctx context.Context, req UpdateTaskRequest) (*TaskInfo, error) {
	return single(ctx, a.container, ServiceUpdateTask, &req)
}

func (a *TaskAdapter) AssignTask(ctx context.Context, req AssignTaskRequest) (*TaskInfo, error) {
	return single(ctx, a.container, ServiceAssignTask, &req)
}

func (a *TaskAdapter) DeleteTask(ctx context.Context, actorID, taskID uint) error {
	return a.remove(ctx, ServiceDeleteTask, actorID, taskID)
}

func (a *TaskAdapter) ForceDeleteTask(ctx context.Context, actorID, taskID uint) error {
	return a.remove(ctx, ServiceForceDeleteTask, actorID, taskID)
}

func (a *TaskAdapter) TransitionTask(ctx context.Context, req TransitionTaskRequest) (*TaskInfo, error) {
	return single(ctx, a.container, ServiceTransitionTask, &req)
}

func (a *TaskAdapter) BulkTransition(ctx context.Context, req BulkTransitionRequest) (*BulkReport, error) {
	var resp BulkTransitionResponse
	if err := call(ctx, a.container, ServiceBulkTransition, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Report, nil
}

func (a *TaskAdapter) remove(ctx context.Context, service string, actorID, taskID uint) error {
	req := DeleteTaskRequest{ActorID: actorID, TaskID: taskID}
	var resp DeleteTaskResponse
	if err := call(ctx, a.container, service, &req, &resp); err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}
	return nil
}

// single calls a service answering with a TaskResponse.
func single[Req any](ctx context.Context, container mono.ServiceContainer, service string, req *Req) (*TaskInfo, error) {
	var resp TaskResponse
	if err := call(ctx, container, service, req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Task, nil
}

func call[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return nil
}
