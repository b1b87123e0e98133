package task

import (
	"slices"
	"testing"
)

func TestIsValidTransition_SameStatus(t *testing.T) {
	for _, s := range Statuses {
		if !IsValidTransition(s, s) {
			t.Errorf("IsValidTransition(%q, %q) = false, want true", s, s)
		}
	}
}

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		name    string
		current Status
		target  Status
		want    bool
	}{
		{"todo to in_progress", StatusTodo, StatusInProgress, true},
		{"todo to review", StatusTodo, StatusReview, false},
		{"todo to done", StatusTodo, StatusDone, false},
		{"in_progress to review", StatusInProgress, StatusReview, true},
		{"in_progress back to todo", StatusInProgress, StatusTodo, true},
		{"in_progress to done", StatusInProgress, StatusDone, false},
		{"review to done", StatusReview, StatusDone, true},
		{"review back to in_progress", StatusReview, StatusInProgress, true},
		{"review to todo", StatusReview, StatusTodo, false},
		{"done reopened to todo", StatusDone, StatusTodo, true},
		{"done to review", StatusDone, StatusReview, false},
		{"done to in_progress", StatusDone, StatusInProgress, false},
		{"unknown current", Status("blocked"), StatusTodo, false},
		{"unknown target", StatusTodo, Status("blocked"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidTransition(tt.current, tt.target); got != tt.want {
				t.Errorf("IsValidTransition(%q, %q) = %v, want %v", tt.current, tt.target, got, tt.want)
			}
		})
	}
}

func TestIsValidTransition_FullCycle(t *testing.T) {
	cycle := []Status{StatusTodo, StatusInProgress, StatusReview, StatusDone, StatusTodo}
	for i := 0; i < len(cycle)-1; i++ {
		if !IsValidTransition(cycle[i], cycle[i+1]) {
			t.Errorf("cycle step %q -> %q rejected", cycle[i], cycle[i+1])
		}
	}
}

// Every pair outside the table (and not a no-op) must be rejected.
func TestIsValidTransition_MatchesTable(t *testing.T) {
	for _, from := range Statuses {
		for _, to := range Statuses {
			if from == to {
				continue
			}
			want := slices.Contains(Successors(from), to)
			if got := IsValidTransition(from, to); got != want {
				t.Errorf("IsValidTransition(%q, %q) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestSuccessors(t *testing.T) {
	tests := []struct {
		from Status
		want []Status
	}{
		{StatusTodo, []Status{StatusInProgress}},
		{StatusInProgress, []Status{StatusTodo, StatusReview}},
		{StatusReview, []Status{StatusInProgress, StatusDone}},
		{StatusDone, []Status{StatusTodo}},
		{Status("unknown"), []Status{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			got := Successors(tt.from)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Successors(%q) = %v, want %v", tt.from, got, tt.want)
			}
		})
	}
}

func TestSuccessors_DoesNotExposeTable(t *testing.T) {
	got := Successors(StatusTodo)
	got[0] = StatusDone

	if IsValidTransition(StatusTodo, StatusDone) {
		t.Fatal("mutating Successors() result changed the workflow")
	}
}

func TestStatusAndPriorityValid(t *testing.T) {
	for _, s := range Statuses {
		if !s.Valid() {
			t.Errorf("Status(%q).Valid() = false", s)
		}
	}
	if Status("blocked").Valid() {
		t.Error(`Status("blocked").Valid() = true`)
	}

	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent} {
		if !p.Valid() {
			t.Errorf("Priority(%q).Valid() = false", p)
		}
	}
	if Priority("critical").Valid() {
		t.Error(`Priority("critical").Valid() = true`)
	}
}
