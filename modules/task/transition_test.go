package task

import (
	"context"
	"testing"
	"time"

	"github.com/example/task-tracker/domain/apperr"
	domain "github.com/example/task-tracker/domain/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteTransition_Outcomes(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.com")
	assignee := createUser(t, db, "assignee@example.com")
	stranger := createUser(t, db, "stranger@example.com")

	tests := []struct {
		name    string
		status  domain.Status
		actor   uint
		target  domain.Status
		outcome Outcome
		final   domain.Status
	}{
		{"owner moves forward", domain.StatusTodo, owner.ID, domain.StatusInProgress, OutcomeApplied, domain.StatusInProgress},
		{"assignee moves forward", domain.StatusReview, assignee.ID, domain.StatusDone, OutcomeApplied, domain.StatusDone},
		{"reopen", domain.StatusDone, owner.ID, domain.StatusTodo, OutcomeApplied, domain.StatusTodo},
		{"same status", domain.StatusReview, owner.ID, domain.StatusReview, OutcomeUnchanged, domain.StatusReview},
		{"skip ahead", domain.StatusTodo, owner.ID, domain.StatusDone, OutcomeInvalidTransition, domain.StatusTodo},
		{"done to review", domain.StatusDone, owner.ID, domain.StatusReview, OutcomeInvalidTransition, domain.StatusDone},
		{"stranger", domain.StatusTodo, stranger.ID, domain.StatusInProgress, OutcomeForbidden, domain.StatusTodo},
		{"stranger on invalid edge", domain.StatusTodo, stranger.ID, domain.StatusDone, OutcomeForbidden, domain.StatusTodo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := createTask(t, db, owner.ID, &assignee.ID, tt.status)

			res, err := executeTransition(ctx, repo, task.ID, tt.target, tt.actor)
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, res.Outcome, res.Outcome.String())
			assert.Equal(t, tt.status, res.Previous)
			assert.Equal(t, tt.outcome.Succeeded(), res.Err() == nil)

			stored, err := repo.FindByID(ctx, task.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.final, stored.Status)
		})
	}
}

func TestExecuteTransition_NotFound(t *testing.T) {
	db := setupTestDB(t)
	owner := createUser(t, db, "owner@example.com")

	res, err := executeTransition(context.Background(), NewTaskRepository(db), 77, domain.StatusDone, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, res.Outcome)
	assert.Nil(t, res.Task)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(res.Err()))
}

func TestExecuteTransition_NoOpDoesNotWrite(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.com")
	task := createTask(t, db, owner.ID, nil, domain.StatusInProgress)

	before, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	res, err := executeTransition(ctx, repo, task.ID, domain.StatusInProgress, owner.ID)
	require.NoError(t, err)
	require.Equal(t, OutcomeUnchanged, res.Outcome)

	after, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt), "updated_at changed on a no-op")
}

func TestTransitionResult_Err(t *testing.T) {
	res := TransitionResult{
		Outcome:  OutcomeInvalidTransition,
		TaskID:   3,
		Previous: domain.StatusTodo,
		Target:   domain.StatusDone,
	}

	appErr, ok := apperr.As(res.Err())
	require.True(t, ok)
	assert.Equal(t, apperr.CodeInvalidTransition, appErr.Code)
	assert.Equal(t, "Cannot transition from 'todo' to 'done'", appErr.Message)
	assert.Equal(t, "todo", appErr.Details["current_state"])
	assert.Equal(t, "done", appErr.Details["target_state"])

	res.Outcome = OutcomeForbidden
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(res.Err()))

	res.Outcome = OutcomeApplied
	assert.NoError(t, res.Err())
}

// A task created in todo, moved to in_progress by its owner, then moved to
// in_progress again.
func TestTaskService_TransitionRepeated(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.com")

	task, err := svc.Create(ctx, owner.ID, CreateInput{Title: "Ship it"})
	require.NoError(t, err)
	require.Equal(t, domain.StatusTodo, task.Status)

	moved, err := svc.Transition(ctx, owner.ID, task.ID, domain.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, moved.Status)
	require.NotNil(t, moved.Owner)

	again, err := svc.Transition(ctx, owner.ID, task.ID, domain.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, again.Status)
	assert.True(t, moved.UpdatedAt.Equal(again.UpdatedAt))
}

func TestTaskService_TransitionFullCycle(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.com")
	task := createTask(t, db, owner.ID, nil, domain.StatusTodo)

	for _, next := range []domain.Status{
		domain.StatusInProgress, domain.StatusReview, domain.StatusDone, domain.StatusTodo,
	} {
		got, err := svc.Transition(ctx, owner.ID, task.ID, next)
		require.NoError(t, err, "transition to %s", next)
		assert.Equal(t, next, got.Status)
	}
}

func TestTaskService_TransitionErrors(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.com")
	stranger := createUser(t, db, "stranger@example.com")
	task := createTask(t, db, owner.ID, nil, domain.StatusTodo)

	_, err := svc.Transition(ctx, owner.ID, task.ID, domain.StatusReview)
	requireCode(t, err, apperr.CodeInvalidTransition)

	_, err = svc.Transition(ctx, stranger.ID, task.ID, domain.StatusInProgress)
	requireCode(t, err, apperr.CodeForbidden)

	_, err = svc.Transition(ctx, owner.ID, 404, domain.StatusInProgress)
	requireCode(t, err, apperr.CodeNotFound)

	_, err = svc.Transition(ctx, owner.ID, task.ID, domain.Status("archived"))
	requireCode(t, err, apperr.CodeValidation)
}
