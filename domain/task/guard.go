package task

import "github.com/example/task-tracker/domain/apperr"

// Decision is the outcome of an authorization check.
type Decision bool

const (
	Allowed Decision = true
	Denied  Decision = false
)

// ForbiddenMessage is returned to actors who are neither owner nor assignee.
const ForbiddenMessage = "You don't have permission to modify this task"

// Authorize decides whether actorID may mutate t. Only the owner and the
// current assignee may; there is no role hierarchy or override.
func Authorize(t *Task, actorID uint) Decision {
	if t == nil {
		return Denied
	}
	if t.OwnerID == actorID || t.IsAssignedTo(actorID) {
		return Allowed
	}
	return Denied
}

// CheckPermission is Authorize as an error: nil when allowed, FORBIDDEN otherwise.
func CheckPermission(t *Task, actorID uint) error {
	if Authorize(t, actorID) == Denied {
		return apperr.Forbidden(ForbiddenMessage)
	}
	return nil
}
