package task

import (
	"context"
	"fmt"

	"github.com/example/task-tracker/domain/apperr"
	domain "github.com/example/task-tracker/domain/task"
)

// MaxBulkTasks is the largest number of ids one bulk request may carry.
const MaxBulkTasks = 100

// TransitionRecord is the per-task outcome of a bulk transition.
type TransitionRecord struct {
	TaskID         uint           `json:"task_id"`
	Success        bool           `json:"success"`
	Error          string         `json:"error,omitempty"`
	ErrorCode      apperr.Code    `json:"error_code,omitempty"`
	PreviousStatus *domain.Status `json:"previous_status,omitempty"`
	NewStatus      *domain.Status `json:"new_status,omitempty"`
}

// BulkReport summarizes a bulk transition. Results follow the order of the
// requested ids and Total == Successful + Failed == len(Results).
type BulkReport struct {
	Total      int                `json:"total"`
	Successful int                `json:"successful"`
	Failed     int                `json:"failed"`
	Results    []TransitionRecord `json:"results"`
}

func (b *BulkReport) add(rec TransitionRecord) {
	b.Results = append(b.Results, rec)
	b.Total++
	if rec.Success {
		b.Successful++
	} else {
		b.Failed++
	}
}

// validateBulk checks the request shape before any task is touched.
func validateBulk(ids []uint, target domain.Status) error {
	var fields []apperr.FieldError
	switch {
	case len(ids) == 0:
		fields = append(fields, apperr.FieldError{Field: "task_ids", Message: "at least one task id is required"})
	case len(ids) > MaxBulkTasks:
		fields = append(fields, apperr.FieldError{
			Field:   "task_ids",
			Message: fmt.Sprintf("at most %d task ids are allowed", MaxBulkTasks),
		})
	}
	for i, id := range ids {
		if id == 0 {
			fields = append(fields, apperr.FieldError{
				Field:   fmt.Sprintf("task_ids[%d]", i),
				Message: "task id must be positive",
			})
		}
	}
	if !target.Valid() {
		fields = append(fields, apperr.FieldError{Field: "target_status", Message: "unknown status"})
	}
	if len(fields) > 0 {
		return apperr.Validation("", fields...)
	}
	return nil
}

// bulkTransition applies executeTransition to every id in order inside the
// transaction repo is bound to. One item's rejection never affects the
// others; a storage failure aborts the whole batch.
func bulkTransition(ctx context.Context, repo *TaskRepository, ids []uint, target domain.Status, actorID uint) (*BulkReport, error) {
	report := &BulkReport{Results: make([]TransitionRecord, 0, len(ids))}

	for _, id := range ids {
		res, err := executeTransition(ctx, repo, id, target, actorID)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", id, err)
		}
		report.add(toRecord(res))
	}
	return report, nil
}

func toRecord(res TransitionResult) TransitionRecord {
	rec := TransitionRecord{TaskID: res.TaskID}

	switch res.Outcome {
	case OutcomeApplied, OutcomeUnchanged:
		previous, next := res.Previous, res.Target
		rec.Success = true
		rec.PreviousStatus = &previous
		rec.NewStatus = &next
	case OutcomeNotFound:
		rec.Error = fmt.Sprintf("Task %d not found", res.TaskID)
		rec.ErrorCode = apperr.CodeNotFound
	case OutcomeForbidden:
		rec.Error = "Permission denied"
		rec.ErrorCode = apperr.CodeForbidden
	case OutcomeInvalidTransition:
		previous := res.Previous
		rec.Error = fmt.Sprintf("Invalid transition from '%s' to '%s'", res.Previous, res.Target)
		rec.ErrorCode = apperr.CodeInvalidTransition
		rec.PreviousStatus = &previous
	}
	return rec
}
