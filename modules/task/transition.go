package task

import (
	"context"
	"errors"

	"github.com/example/task-tracker/domain/apperr"
	domain "github.com/example/task-tracker/domain/task"
)

// Outcome tags the result of a single status transition.
type Outcome int

const (
	// OutcomeApplied means the status changed and the task was saved.
	OutcomeApplied Outcome = iota
	// OutcomeUnchanged means the task already had the target status.
	// Nothing was written.
	OutcomeUnchanged
	OutcomeNotFound
	OutcomeForbidden
	OutcomeInvalidTransition
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeForbidden:
		return "forbidden"
	case OutcomeInvalidTransition:
		return "invalid_transition"
	}
	return "unknown"
}

// Succeeded reports whether the task ended in the target status.
func (o Outcome) Succeeded() bool {
	return o == OutcomeApplied || o == OutcomeUnchanged
}

// TransitionResult is the tagged result of executeTransition. Task is nil
// only for OutcomeNotFound; Previous is set whenever the task was loaded.
type TransitionResult struct {
	Outcome  Outcome
	TaskID   uint
	Task     *domain.Task
	Previous domain.Status
	Target   domain.Status
}

// Err converts a failed outcome into the application error a single-task
// caller reports. It is nil for successful outcomes.
func (r TransitionResult) Err() error {
	switch r.Outcome {
	case OutcomeNotFound:
		return apperr.NotFound("Task", r.TaskID)
	case OutcomeForbidden:
		return apperr.Forbidden(domain.ForbiddenMessage)
	case OutcomeInvalidTransition:
		return apperr.InvalidTransition(string(r.Previous), string(r.Target))
	}
	return nil
}

// executeTransition moves one task to target on behalf of actorID: load,
// authorize, short-circuit a no-op, check the workflow, persist. Business
// rejections are reported through the Outcome; the error return is only
// used for storage failures.
func executeTransition(ctx context.Context, repo *TaskRepository, taskID uint, target domain.Status, actorID uint) (TransitionResult, error) {
	result := TransitionResult{TaskID: taskID, Target: target}

	task, err := repo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			result.Outcome = OutcomeNotFound
			return result, nil
		}
		return result, err
	}
	result.Task = task
	result.Previous = task.Status

	if domain.Authorize(task, actorID) == domain.Denied {
		result.Outcome = OutcomeForbidden
		return result, nil
	}

	if task.Status == target {
		result.Outcome = OutcomeUnchanged
		return result, nil
	}

	if !domain.IsValidTransition(task.Status, target) {
		result.Outcome = OutcomeInvalidTransition
		return result, nil
	}

	task.Status = target
	if err := repo.Save(ctx, task); err != nil {
		return result, err
	}
	result.Outcome = OutcomeApplied
	return result, nil
}
