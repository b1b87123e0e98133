package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/task-tracker/domain/apperr"
	domain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

const (
	maxTitleLength       = 255
	maxDescriptionLength = 5000
	maxSearchLength      = 100

	DefaultPerPage = 20
	MaxPerPage     = 100
)

// CreateInput is the data needed to create a task.
type CreateInput struct {
	Title       string
	Description *string
	Priority    domain.Priority
	AssigneeID  *uint
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Title       *string
	Description *string
	Priority    *domain.Priority
}

// Page is one page of a task listing.
type Page struct {
	Items      []domain.Task
	Pagination Pagination
}

// TaskService implements task operations on top of the task store. Every
// mutating operation runs in its own transaction and publishes lifecycle
// events only after the commit.
type TaskService struct {
	repo   *TaskRepository
	bus    mono.EventBus
	logger types.Logger
}

// NewTaskService creates a new TaskService. bus may be nil, in which case
// no events are published.
func NewTaskService(repo *TaskRepository, bus mono.EventBus, logger types.Logger) *TaskService {
	return &TaskService{
		repo:   repo,
		bus:    bus,
		logger: logger,
	}
}

// Create creates a task owned by actorID in status todo.
func (s *TaskService) Create(ctx context.Context, actorID uint, in CreateInput) (*domain.Task, error) {
	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	}
	if err := validateFields(&in.Title, in.Description, &in.Priority); err != nil {
		return nil, err
	}

	var created *domain.Task
	err := s.repo.Transaction(ctx, func(repo *TaskRepository) error {
		if in.AssigneeID != nil {
			if err := requireUser(ctx, repo, *in.AssigneeID); err != nil {
				return err
			}
		}

		task := &domain.Task{
			Title:       in.Title,
			Description: in.Description,
			Status:      domain.StatusTodo,
			Priority:    in.Priority,
			OwnerID:     actorID,
			AssigneeID:  in.AssigneeID,
		}
		if err := repo.Create(ctx, task); err != nil {
			return err
		}

		var err error
		created, err = repo.FindByID(ctx, task.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Task created", "task_id", created.ID, "owner_id", actorID)
	s.publish("TaskCreated", created.ID, func() error {
		return events.TaskCreatedV1.Publish(s.bus, events.TaskCreatedEvent{
			TaskID:     created.ID,
			Title:      created.Title,
			Priority:   string(created.Priority),
			OwnerID:    created.OwnerID,
			AssigneeID: created.AssigneeID,
			CreatedAt:  created.CreatedAt,
		}, nil)
	})
	return created, nil
}

// Get returns a task by ID. Reading is not guarded: any authenticated
// identity may read any task.
func (s *TaskService) Get(ctx context.Context, id uint) (*domain.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return nil, apperr.NotFound("Task", id)
		}
		return nil, err
	}
	return task, nil
}

// List returns one page of tasks. Zero Page and PerPage select the first
// page and DefaultPerPage.
func (s *TaskService) List(ctx context.Context, filter ListFilter) (*Page, error) {
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PerPage == 0 {
		filter.PerPage = DefaultPerPage
	}
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	tasks, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &Page{
		Items:      tasks,
		Pagination: NewPagination(filter.Page, filter.PerPage, total),
	}, nil
}

// Update applies a partial update of title, description and priority.
func (s *TaskService) Update(ctx context.Context, actorID, id uint, in UpdateInput) (*domain.Task, error) {
	if err := validateFields(in.Title, in.Description, in.Priority); err != nil {
		return nil, err
	}

	var updated *domain.Task
	err := s.repo.Transaction(ctx, func(repo *TaskRepository) error {
		task, err := loadForUpdate(ctx, repo, id, actorID)
		if err != nil {
			return err
		}

		if in.Title != nil {
			task.Title = *in.Title
		}
		if in.Description != nil {
			task.Description = in.Description
		}
		if in.Priority != nil {
			task.Priority = *in.Priority
		}
		if err := repo.Save(ctx, task); err != nil {
			return err
		}

		updated, err = repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Task updated", "task_id", id, "actor_id", actorID)
	return updated, nil
}

// Assign sets or clears (assigneeID == nil) the assignee of a task.
func (s *TaskService) Assign(ctx context.Context, actorID, id uint, assigneeID *uint) (*domain.Task, error) {
	var (
		assigned *domain.Task
		previous *uint
	)
	err := s.repo.Transaction(ctx, func(repo *TaskRepository) error {
		task, err := loadForUpdate(ctx, repo, id, actorID)
		if err != nil {
			return err
		}
		if assigneeID != nil {
			if err := requireUser(ctx, repo, *assigneeID); err != nil {
				return err
			}
		}

		previous = task.AssigneeID
		task.AssigneeID = assigneeID
		if err := repo.Save(ctx, task); err != nil {
			return err
		}

		assigned, err = repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Task assigned", "task_id", id, "actor_id", actorID, "assignee_id", assigneeID)
	s.publish("TaskAssigned", id, func() error {
		return events.TaskAssignedV1.Publish(s.bus, events.TaskAssignedEvent{
			TaskID:             id,
			ActorID:            actorID,
			PreviousAssigneeID: previous,
			AssigneeID:         assigneeID,
			AssignedAt:         assigned.UpdatedAt,
		}, nil)
	})
	return assigned, nil
}

// Delete removes a task.
func (s *TaskService) Delete(ctx context.Context, actorID, id uint) error {
	return s.remove(ctx, actorID, id, false)
}

// ForceDelete removes a task through the administrative route. The
// permission rule is the same as for Delete.
func (s *TaskService) ForceDelete(ctx context.Context, actorID, id uint) error {
	return s.remove(ctx, actorID, id, true)
}

func (s *TaskService) remove(ctx context.Context, actorID, id uint, forced bool) error {
	err := s.repo.Transaction(ctx, func(repo *TaskRepository) error {
		if _, err := loadForUpdate(ctx, repo, id, actorID); err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Task deleted", "task_id", id, "actor_id", actorID, "forced", forced)
	s.publish("TaskDeleted", id, func() error {
		return events.TaskDeletedV1.Publish(s.bus, events.TaskDeletedEvent{
			TaskID:    id,
			ActorID:   actorID,
			Forced:    forced,
			DeletedAt: time.Now(),
		}, nil)
	})
	return nil
}

// Transition moves one task to target. Moving a task to the status it
// already has succeeds without writing.
func (s *TaskService) Transition(ctx context.Context, actorID, id uint, target domain.Status) (*domain.Task, error) {
	if !target.Valid() {
		return nil, apperr.Validation("", apperr.FieldError{Field: "target_status", Message: "unknown status"})
	}

	var task *domain.Task
	err := s.repo.Transaction(ctx, func(repo *TaskRepository) error {
		res, err := executeTransition(ctx, repo, id, target, actorID)
		if err != nil {
			return err
		}
		if err := res.Err(); err != nil {
			return err
		}
		if res.Outcome == OutcomeApplied {
			task, err = repo.FindByID(ctx, id)
			return err
		}
		task = res.Task
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Task transitioned", "task_id", id, "actor_id", actorID, "status", task.Status)
	return task, nil
}

// BulkTransition moves every task in ids to target within one transaction
// and reports the outcome of each id in input order.
func (s *TaskService) BulkTransition(ctx context.Context, actorID uint, ids []uint, target domain.Status) (*BulkReport, error) {
	if err := validateBulk(ids, target); err != nil {
		return nil, err
	}

	var report *BulkReport
	err := s.repo.Transaction(ctx, func(repo *TaskRepository) error {
		var err error
		report, err = bulkTransition(ctx, repo, ids, target, actorID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("bulk transition rolled back: %w", err)
	}

	s.logger.Info("Bulk transition",
		"actor_id", actorID,
		"target_status", target,
		"total", report.Total,
		"successful", report.Successful,
		"failed", report.Failed)
	return report, nil
}

// loadForUpdate is the shared prelude of every guarded mutation.
func loadForUpdate(ctx context.Context, repo *TaskRepository, id, actorID uint) (*domain.Task, error) {
	task, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return nil, apperr.NotFound("Task", id)
		}
		return nil, err
	}
	if err := domain.CheckPermission(task, actorID); err != nil {
		return nil, err
	}
	return task, nil
}

func requireUser(ctx context.Context, repo *TaskRepository, id uint) error {
	ok, err := repo.UserExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("User", id)
	}
	return nil
}

func (s *TaskService) publish(name string, taskID uint, fn func() error) {
	if s.bus == nil {
		return
	}
	if err := fn(); err != nil {
		s.logger.Warn("Failed to publish event", "event", name, "task_id", taskID, "error", err)
	}
}

func validateFields(title, description *string, priority *domain.Priority) error {
	var fields []apperr.FieldError
	if title != nil {
		n := utf8.RuneCountInString(*title)
		if strings.TrimSpace(*title) == "" || n > maxTitleLength {
			fields = append(fields, apperr.FieldError{
				Field:   "title",
				Message: fmt.Sprintf("title must be between 1 and %d characters", maxTitleLength),
			})
		}
	}
	if description != nil && utf8.RuneCountInString(*description) > maxDescriptionLength {
		fields = append(fields, apperr.FieldError{
			Field:   "description",
			Message: fmt.Sprintf("description must be at most %d characters", maxDescriptionLength),
		})
	}
	if priority != nil && !priority.Valid() {
		fields = append(fields, apperr.FieldError{Field: "priority", Message: "unknown priority"})
	}
	if len(fields) > 0 {
		return apperr.Validation("", fields...)
	}
	return nil
}

func validateFilter(f ListFilter) error {
	var fields []apperr.FieldError
	if f.Page < 1 {
		fields = append(fields, apperr.FieldError{Field: "page", Message: "page must be at least 1"})
	}
	if f.PerPage < 1 || f.PerPage > MaxPerPage {
		fields = append(fields, apperr.FieldError{
			Field:   "per_page",
			Message: fmt.Sprintf("per_page must be between 1 and %d", MaxPerPage),
		})
	}
	if f.Status != nil && !f.Status.Valid() {
		fields = append(fields, apperr.FieldError{Field: "status", Message: "unknown status"})
	}
	if f.Priority != nil && !f.Priority.Valid() {
		fields = append(fields, apperr.FieldError{Field: "priority", Message: "unknown priority"})
	}
	if utf8.RuneCountInString(f.Search) > maxSearchLength {
		fields = append(fields, apperr.FieldError{
			Field:   "search",
			Message: fmt.Sprintf("search must be at most %d characters", maxSearchLength),
		})
	}
	if len(fields) > 0 {
		return apperr.Validation("", fields...)
	}
	return nil
}
