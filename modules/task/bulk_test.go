package task

import (
	"context"
	"errors"
	"testing"

	"github.com/example/task-tracker/domain/apperr"
	domain "github.com/example/task-tracker/domain/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func assertReportInvariant(t *testing.T, report *BulkReport, ids []uint) {
	t.Helper()

	require.Len(t, report.Results, len(ids))
	assert.Equal(t, len(ids), report.Total)
	assert.Equal(t, report.Total, report.Successful+report.Failed)
	for i, id := range ids {
		assert.Equal(t, id, report.Results[i].TaskID, "result %d out of order", i)
	}
}

func TestBulkTransition_InvalidTransitionIsolated(t *testing.T) {
	svc, db := setupService(t)
	owner := createUser(t, db, "owner@example.com")
	a := createTask(t, db, owner.ID, nil, domain.StatusTodo)
	b := createTask(t, db, owner.ID, nil, domain.StatusInProgress)

	ids := []uint{a.ID, b.ID}
	report, err := svc.BulkTransition(context.Background(), owner.ID, ids, domain.StatusReview)
	require.NoError(t, err)
	assertReportInvariant(t, report, ids)
	assert.Equal(t, 1, report.Successful)
	assert.Equal(t, 1, report.Failed)

	recA := report.Results[0]
	assert.False(t, recA.Success)
	assert.Equal(t, apperr.CodeInvalidTransition, recA.ErrorCode)
	assert.Equal(t, "Invalid transition from 'todo' to 'review'", recA.Error)
	require.NotNil(t, recA.PreviousStatus)
	assert.Equal(t, domain.StatusTodo, *recA.PreviousStatus)
	assert.Nil(t, recA.NewStatus)

	recB := report.Results[1]
	assert.True(t, recB.Success)
	require.NotNil(t, recB.NewStatus)
	assert.Equal(t, domain.StatusReview, *recB.NewStatus)

	stored, err := svc.Get(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReview, stored.Status)
}

func TestBulkTransition_ForbiddenIsolated(t *testing.T) {
	svc, db := setupService(t)
	owner := createUser(t, db, "owner@example.com")
	other := createUser(t, db, "other@example.com")
	mine := createTask(t, db, owner.ID, nil, domain.StatusTodo)
	theirs := createTask(t, db, other.ID, nil, domain.StatusTodo)

	ids := []uint{mine.ID, theirs.ID}
	report, err := svc.BulkTransition(context.Background(), owner.ID, ids, domain.StatusInProgress)
	require.NoError(t, err)
	assertReportInvariant(t, report, ids)

	assert.True(t, report.Results[0].Success)
	assert.False(t, report.Results[1].Success)
	assert.Equal(t, "Permission denied", report.Results[1].Error)
	assert.Equal(t, apperr.CodeForbidden, report.Results[1].ErrorCode)

	stored, err := svc.Get(context.Background(), theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTodo, stored.Status)
}

func TestBulkTransition_NotFoundIsolated(t *testing.T) {
	svc, db := setupService(t)
	owner := createUser(t, db, "owner@example.com")
	first := createTask(t, db, owner.ID, nil, domain.StatusTodo)
	last := createTask(t, db, owner.ID, nil, domain.StatusTodo)

	ids := []uint{first.ID, 9999, last.ID}
	report, err := svc.BulkTransition(context.Background(), owner.ID, ids, domain.StatusInProgress)
	require.NoError(t, err)
	assertReportInvariant(t, report, ids)
	assert.Equal(t, 2, report.Successful)

	missing := report.Results[1]
	assert.False(t, missing.Success)
	assert.Equal(t, "Task 9999 not found", missing.Error)
	assert.Equal(t, apperr.CodeNotFound, missing.ErrorCode)
	assert.Nil(t, missing.PreviousStatus)
	assert.True(t, report.Results[0].Success)
	assert.True(t, report.Results[2].Success)
}

func TestBulkTransition_NoOpAndDuplicates(t *testing.T) {
	svc, db := setupService(t)
	owner := createUser(t, db, "owner@example.com")
	task := createTask(t, db, owner.ID, nil, domain.StatusTodo)

	// The second occurrence sees the status written by the first.
	ids := []uint{task.ID, task.ID}
	report, err := svc.BulkTransition(context.Background(), owner.ID, ids, domain.StatusInProgress)
	require.NoError(t, err)
	assertReportInvariant(t, report, ids)
	assert.Equal(t, 2, report.Successful)

	second := report.Results[1]
	require.NotNil(t, second.PreviousStatus)
	require.NotNil(t, second.NewStatus)
	assert.Equal(t, *second.PreviousStatus, *second.NewStatus)
}

func TestBulkTransition_Validation(t *testing.T) {
	svc, db := setupService(t)
	owner := createUser(t, db, "owner@example.com")
	tooMany := make([]uint, MaxBulkTasks+1)
	for i := range tooMany {
		tooMany[i] = uint(i + 1)
	}

	tests := []struct {
		name   string
		ids    []uint
		target domain.Status
	}{
		{"empty", nil, domain.StatusDone},
		{"too many", tooMany, domain.StatusDone},
		{"zero id", []uint{1, 0}, domain.StatusDone},
		{"unknown status", []uint{1}, domain.Status("archived")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.BulkTransition(context.Background(), owner.ID, tt.ids, tt.target)
			requireCode(t, err, apperr.CodeValidation)
		})
	}

	ids := make([]uint, MaxBulkTasks)
	for i := range ids {
		ids[i] = uint(i + 1000)
	}
	report, err := svc.BulkTransition(context.Background(), owner.ID, ids, domain.StatusDone)
	require.NoError(t, err)
	assertReportInvariant(t, report, ids)
	assert.Equal(t, MaxBulkTasks, report.Failed)
}

func TestBulkTransition_StorageFailureRollsBack(t *testing.T) {
	svc, db := setupService(t)
	owner := createUser(t, db, "owner@example.com")
	ok := createTask(t, db, owner.ID, nil, domain.StatusTodo)
	broken := createTask(t, db, owner.ID, nil, domain.StatusTodo)

	err := db.Callback().Update().Before("gorm:update").Register("test:fail_update", func(tx *gorm.DB) {
		if task, isTask := tx.Statement.Dest.(*domain.Task); isTask && task.ID == broken.ID {
			_ = tx.AddError(errors.New("disk full"))
		}
	})
	require.NoError(t, err)

	_, err = svc.BulkTransition(context.Background(), owner.ID, []uint{ok.ID, broken.ID}, domain.StatusInProgress)
	require.Error(t, err)
	_, isAppErr := apperr.As(err)
	assert.False(t, isAppErr, "storage failures are not domain outcomes")
	assert.Equal(t, apperr.CodeInternal, apperr.CodeOf(err))

	stored, err := svc.Get(context.Background(), ok.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTodo, stored.Status, "first item must be rolled back")
}
