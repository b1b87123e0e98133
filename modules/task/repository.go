package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/domain/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrTaskNotFound is returned when a task is not found.
var ErrTaskNotFound = errors.New("task not found")

// ListFilter narrows and pages a task listing. Nil fields do not filter.
type ListFilter struct {
	Status     *domain.Status
	Priority   *domain.Priority
	AssigneeID *uint
	OwnerID    *uint
	Search     string
	Page       int
	PerPage    int
}

// TaskRepository is the task store. Every read loads the owner and the
// assignee in the same query.
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *TaskRepository) WithTx(tx *gorm.DB) *TaskRepository {
	return &TaskRepository{db: tx}
}

// Transaction runs fn inside one database transaction. Returning an error
// from fn rolls back every write made through the repository it receives.
func (r *TaskRepository) Transaction(ctx context.Context, fn func(repo *TaskRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

// FindByID finds a task by ID together with its owner and assignee.
func (r *TaskRepository) FindByID(ctx context.Context, id uint) (*domain.Task, error) {
	var task domain.Task
	err := r.db.WithContext(ctx).
		Joins("Owner").
		Joins("Assignee").
		Where("tasks.id = ?", id).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &task, nil
}

// Create inserts a new task. Loaded associations are never written.
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// Save writes every column of task and bumps updated_at.
func (r *TaskRepository) Save(ctx context.Context, task *domain.Task) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(task).Error; err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

// Delete removes a task by ID.
func (r *TaskRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.Task{}, id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// UserExists reports whether an identity with the given ID exists.
func (r *TaskRepository) UserExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&user.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return count > 0, nil
}

// List returns one page of tasks matching filter, newest first, and the
// total number of matches.
func (r *TaskRepository) List(ctx context.Context, filter ListFilter) ([]domain.Task, int64, error) {
	var total int64
	if err := applyFilter(r.db.WithContext(ctx).Model(&domain.Task{}), filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	tasks := make([]domain.Task, 0, filter.PerPage)
	if total == 0 {
		return tasks, 0, nil
	}

	err := applyFilter(r.db.WithContext(ctx).Model(&domain.Task{}), filter).
		Joins("Owner").
		Joins("Assignee").
		Order("tasks.created_at DESC").
		Order("tasks.id DESC").
		Offset((filter.Page - 1) * filter.PerPage).
		Limit(filter.PerPage).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

func applyFilter(q *gorm.DB, f ListFilter) *gorm.DB {
	if f.Status != nil {
		q = q.Where("tasks.status = ?", *f.Status)
	}
	if f.Priority != nil {
		q = q.Where("tasks.priority = ?", *f.Priority)
	}
	if f.AssigneeID != nil {
		q = q.Where("tasks.assignee_id = ?", *f.AssigneeID)
	}
	if f.OwnerID != nil {
		q = q.Where("tasks.owner_id = ?", *f.OwnerID)
	}
	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(tasks.title) LIKE ? OR LOWER(COALESCE(tasks.description, '')) LIKE ?", pattern, pattern)
	}
	return q
}
