package api

import (
	"context"

	"github.com/example/task-tracker/domain/apperr"
	domain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/middleware/servicemetrics"
	"github.com/example/task-tracker/modules/activity"
	"github.com/example/task-tracker/modules/auth"
	"github.com/example/task-tracker/modules/task"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 100
)

// ServiceStats exposes per-service counters to /ops/metrics.
type ServiceStats interface {
	Snapshot() map[string]servicemetrics.Stats
}

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	auth     auth.AuthPort
	tasks    task.TaskPort
	activity activity.ActivityPort
	requests *RequestMetrics
	services ServiceStats
	version  string
}

// NewHandlers creates a new Handlers instance. services may be nil.
func NewHandlers(
	authPort auth.AuthPort,
	taskPort task.TaskPort,
	activityPort activity.ActivityPort,
	requests *RequestMetrics,
	services ServiceStats,
	version string,
) *Handlers {
	return &Handlers{
		auth:     authPort,
		tasks:    taskPort,
		activity: activityPort,
		requests: requests,
		services: services,
		version:  version,
	}
}

// Register handles POST /auth/register.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var body RegisterBody
	if err := bindJSON(c, &body); err != nil {
		return err
	}

	tokens, err := h.auth.Register(c.UserContext(), auth.RegisterRequest{
		Email:    body.Email,
		Password: body.Password,
		FullName: body.FullName,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(tokens)
}

// Login handles POST /auth/login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var body LoginBody
	if err := bindJSON(c, &body); err != nil {
		return err
	}

	tokens, err := h.auth.Login(c.UserContext(), body.Email, body.Password)
	if err != nil {
		return err
	}
	return c.JSON(tokens)
}

// Refresh handles POST /auth/refresh.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var body RefreshBody
	if err := bindJSON(c, &body); err != nil {
		return err
	}

	tokens, err := h.auth.Refresh(c.UserContext(), body.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(tokens)
}

// Me handles GET /auth/me.
func (h *Handlers) Me(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// ListTasks handles GET /tasks.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	req := task.ListTasksRequest{Search: c.Query("search")}

	var fields []apperr.FieldError
	if v := c.Query("status"); v != "" {
		s := domain.Status(v)
		req.Status = &s
	}
	if v := c.Query("priority"); v != "" {
		p := domain.Priority(v)
		req.Priority = &p
	}

	var fe *apperr.FieldError
	if req.AssigneeID, fe = queryUint(c, "assignee_id"); fe != nil {
		fields = append(fields, *fe)
	}
	if req.OwnerID, fe = queryUint(c, "owner_id"); fe != nil {
		fields = append(fields, *fe)
	}
	if req.Page, fe = queryInt(c, "page", 1); fe != nil {
		fields = append(fields, *fe)
	}
	if req.PerPage, fe = queryInt(c, "per_page", task.DefaultPerPage); fe != nil {
		fields = append(fields, *fe)
	}
	if len(fields) > 0 {
		return apperr.Validation("", fields...)
	}

	page, err := h.tasks.ListTasks(c.UserContext(), req)
	if err != nil {
		return err
	}
	items := page.Items
	if items == nil {
		items = []task.TaskInfo{}
	}
	return c.JSON(TaskListResponse{Items: items, Pagination: page.Pagination})
}

// CreateTask handles POST /tasks. The caller becomes the owner.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var body CreateTaskBody
	if err := bindJSON(c, &body); err != nil {
		return err
	}

	created, err := h.tasks.CreateTask(c.UserContext(), task.CreateTaskRequest{
		ActorID:     user.ID,
		Title:       body.Title,
		Description: body.Description,
		Priority:    domain.Priority(body.Priority),
		AssigneeID:  body.AssigneeID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// GetTask handles GET /tasks/{id}.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "task_id")
	if err != nil {
		return err
	}

	t, err := h.tasks.GetTask(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(t)
}

// UpdateTask handles PATCH /tasks/{id}.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "task_id")
	if err != nil {
		return err
	}
	var body UpdateTaskBody
	if err := bindJSON(c, &body); err != nil {
		return err
	}

	req := task.UpdateTaskRequest{
		ActorID:     user.ID,
		TaskID:      id,
		Title:       body.Title,
		Description: body.Description,
	}
	if body.Priority != nil {
		p := domain.Priority(*body.Priority)
		req.Priority = &p
	}

	updated, err := h.tasks.UpdateTask(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

// DeleteTask handles DELETE /tasks/{id}.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	return h.remove(c, h.tasks.DeleteTask)
}

// ForceDeleteTask handles DELETE /tasks/{id}/force.
func (h *Handlers) ForceDeleteTask(c *fiber.Ctx) error {
	return h.remove(c, h.tasks.ForceDeleteTask)
}

func (h *Handlers) remove(c *fiber.Ctx, del func(ctx context.Context, actorID, taskID uint) error) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "task_id")
	if err != nil {
		return err
	}

	if err := del(c.UserContext(), user.ID, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AssignTask handles POST /tasks/{id}/assign.
func (h *Handlers) AssignTask(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "task_id")
	if err != nil {
		return err
	}
	var body AssignBody
	if err := bindJSON(c, &body); err != nil {
		return err
	}

	assigned, err := h.tasks.AssignTask(c.UserContext(), task.AssignTaskRequest{
		ActorID:    user.ID,
		TaskID:     id,
		AssigneeID: body.AssigneeID,
	})
	if err != nil {
		return err
	}
	return c.JSON(assigned)
}

// TransitionTask handles POST /tasks/{id}/transition.
func (h *Handlers) TransitionTask(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "task_id")
	if err != nil {
		return err
	}
	var body TransitionBody
	if err := bindJSON(c, &body); err != nil {
		return err
	}

	moved, err := h.tasks.TransitionTask(c.UserContext(), task.TransitionTaskRequest{
		ActorID:      user.ID,
		TaskID:       id,
		TargetStatus: domain.Status(body.TargetStatus),
	})
	if err != nil {
		return err
	}
	return c.JSON(moved)
}

// BulkStatus handles POST /tasks/bulk-status. Per-task failures are part of
// the 200 report; only a rejected request or a rolled back batch is an error.
func (h *Handlers) BulkStatus(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var body BulkStatusBody
	if err := bindJSON(c, &body); err != nil {
		return err
	}

	report, err := h.tasks.BulkTransition(c.UserContext(), task.BulkTransitionRequest{
		ActorID:      user.ID,
		TaskIDs:      body.TaskIDs,
		TargetStatus: domain.Status(body.TargetStatus),
	})
	if err != nil {
		return err
	}
	return c.JSON(report)
}

// TaskActivity handles GET /tasks/{id}/activity.
func (h *Handlers) TaskActivity(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "task_id")
	if err != nil {
		return err
	}
	limit, fe := queryInt(c, "limit", defaultActivityLimit)
	if fe == nil && (limit < 1 || limit > maxActivityLimit) {
		fe = &apperr.FieldError{Field: "limit", Message: "must be between 1 and 100"}
	}
	if fe != nil {
		return apperr.Validation("", *fe)
	}

	entries, err := h.activity.List(c.UserContext(), id, limit)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	return c.JSON(ActivityResponse{TaskID: id, Entries: entries})
}

// Health handles GET /ops/health.
func (h *Handlers) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{Status: "healthy", Version: h.version})
}

// Metrics handles GET /ops/metrics.
func (h *Handlers) Metrics(c *fiber.Ctx) error {
	total, codes := h.requests.Snapshot()
	services := map[string]servicemetrics.Stats{}
	if h.services != nil {
		services = h.services.Snapshot()
	}
	return c.JSON(MetricsResponse{
		TotalRequests: total,
		StatusCodes:   codes,
		Services:      services,
	})
}
