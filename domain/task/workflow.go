package task

import "slices"

// workflow maps each status to the statuses directly reachable from it.
// It is read-only after package initialization.
var workflow = map[Status]map[Status]struct{}{
	StatusTodo: {
		StatusInProgress: {},
	},
	StatusInProgress: {
		StatusReview: {},
		StatusTodo:   {},
	},
	StatusReview: {
		StatusDone:       {},
		StatusInProgress: {},
	},
	StatusDone: {
		StatusTodo: {},
	},
}

// IsValidTransition reports whether a task in current may move to target.
// Staying in the same status is always valid.
func IsValidTransition(current, target Status) bool {
	if current == target {
		return true
	}
	next, ok := workflow[current]
	if !ok {
		return false
	}
	_, ok = next[target]
	return ok
}

// Successors returns the statuses reachable from s in workflow order.
func Successors(s Status) []Status {
	next := workflow[s]
	out := make([]Status, 0, len(next))
	for _, candidate := range Statuses {
		if _, ok := next[candidate]; ok {
			out = append(out, candidate)
		}
	}
	return slices.Clip(out)
}
