package main

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sessionDoc = `# Plan

- [ ] Root task #project
  - [x] Done subtask
  - [ ] Open subtask #project
- [x] Standalone done
- [>] In flight
`

func taskByText(t *testing.T, tasks []*Task, text string) *Task {
	t.Helper()
	for _, task := range tasks {
		if strings.Contains(task.Text, text) {
			return task
		}
	}
	t.Fatalf("No task containing %q", text)
	return nil
}

func TestSessionHidesCompleted(t *testing.T) {
	opts := DefaultFilterOptions()
	opts.IncludeCompleted = false

	session := NewFilterSession(DefaultStatusMarks(), opts)
	hidden := session.Apply(sessionDoc)

	tasks := session.Tasks()
	if len(tasks) != 5 {
		t.Fatalf("Expected 5 tasks, got %d", len(tasks))
	}

	done := taskByText(t, tasks, "Done subtask")
	standalone := taskByText(t, tasks, "Standalone done")

	want := []LineRange{
		{From: done.From, To: done.To},
		{From: standalone.From, To: standalone.To},
	}
	if diff := cmp.Diff(want, hidden); diff != "" {
		t.Errorf("Hidden ranges mismatch (-want +got):\n%s", diff)
	}

	// The spans cover exactly the hidden lines.
	for _, r := range hidden {
		line := sessionDoc[r.From:r.To]
		if !strings.Contains(line, "[x]") {
			t.Errorf("Hidden span should cover a completed line, got %q", line)
		}
		if strings.Contains(line, "\n") {
			t.Errorf("Hidden span crosses a line boundary: %q", line)
		}
	}

	if !session.Visible(taskByText(t, tasks, "Root task")) {
		t.Error("Root task should stay visible")
	}
	if session.Visible(done) {
		t.Error("Done subtask should be hidden")
	}
}

func TestSessionApplyIdempotent(t *testing.T) {
	opts := DefaultFilterOptions()
	opts.IncludeCompleted = false

	session := NewFilterSession(DefaultStatusMarks(), opts)

	first := session.Apply(sessionDoc)
	second := session.Apply(sessionDoc)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Apply is not idempotent (-first +second):\n%s", diff)
	}
}

func TestSessionNoMatchesHidesNothingExtra(t *testing.T) {
	session := NewFilterSession(DefaultStatusMarks(), DefaultFilterOptions())
	hidden := session.Apply(sessionDoc)

	if len(hidden) != 0 {
		t.Errorf("Default options should hide nothing, got %v", hidden)
	}
}

func TestSessionFilterOutPolarity(t *testing.T) {
	opts := DefaultFilterOptions()
	opts.IncludeParents = false
	opts.UseAdvancedQuery = true
	opts.AdvancedQuery = "#project"
	opts.FilterOutTasks = true

	session := NewFilterSession(DefaultStatusMarks(), opts)
	session.Apply(sessionDoc)

	tasks := session.Tasks()

	if session.Visible(taskByText(t, tasks, "Root task")) {
		t.Error("Matching task should be hidden when filtering out")
	}
	if session.Visible(taskByText(t, tasks, "Open subtask")) {
		t.Error("Matching subtask should be hidden when filtering out")
	}
	if !session.Visible(taskByText(t, tasks, "Standalone done")) {
		t.Error("Non-matching task should stay visible when filtering out")
	}
}

func TestSessionIncludeParents(t *testing.T) {
	opts := DefaultFilterOptions()
	opts.UseAdvancedQuery = true
	opts.AdvancedQuery = "Open subtask"

	session := NewFilterSession(DefaultStatusMarks(), opts)
	session.Apply(sessionDoc)

	tasks := session.Tasks()

	if !session.Visible(taskByText(t, tasks, "Open subtask")) {
		t.Error("Matched task should be visible")
	}
	if !session.Visible(taskByText(t, tasks, "Root task")) {
		t.Error("Parent of a match should be pulled in")
	}
	if session.Visible(taskByText(t, tasks, "Done subtask")) {
		t.Error("Sibling of a match should stay hidden")
	}
	if session.Visible(taskByText(t, tasks, "Standalone done")) {
		t.Error("Unrelated task should stay hidden")
	}
}

func TestSessionParentPulledInDoesNotDragChildren(t *testing.T) {
	opts := DefaultFilterOptions()
	opts.IncludeChildren = true
	opts.UseAdvancedQuery = true
	opts.AdvancedQuery = "Open subtask"

	session := NewFilterSession(DefaultStatusMarks(), opts)
	session.Apply(sessionDoc)

	tasks := session.Tasks()

	// Root is only visible as context for the match; its other child was
	// not matched directly and has no matched ancestor of its own.
	if session.Visible(taskByText(t, tasks, "Done subtask")) {
		t.Error("Context parent should not drag in its other children")
	}
}

func TestSessionIncludeChildren(t *testing.T) {
	opts := DefaultFilterOptions()
	opts.IncludeChildren = true
	opts.UseAdvancedQuery = true
	opts.AdvancedQuery = "Root task"

	session := NewFilterSession(DefaultStatusMarks(), opts)
	session.Apply(sessionDoc)

	tasks := session.Tasks()

	if !session.Visible(taskByText(t, tasks, "Done subtask")) {
		t.Error("Children of a match should be pulled in")
	}
	if !session.Visible(taskByText(t, tasks, "Open subtask")) {
		t.Error("Children of a match should be pulled in")
	}
	if session.Visible(taskByText(t, tasks, "Standalone done")) {
		t.Error("Unrelated task should stay hidden")
	}
}

func TestSessionBlankAdvancedQueryFallsBack(t *testing.T) {
	opts := DefaultFilterOptions()
	opts.IncludeCompleted = false
	opts.UseAdvancedQuery = true
	opts.AdvancedQuery = "   "

	session := NewFilterSession(DefaultStatusMarks(), opts)
	session.Apply(sessionDoc)

	tasks := session.Tasks()

	if session.Visible(taskByText(t, tasks, "Standalone done")) {
		t.Error("Blank advanced query should fall back to status filters")
	}
	if !session.Visible(taskByText(t, tasks, "In flight")) {
		t.Error("Status filters should keep in-progress tasks visible")
	}
}

func TestSessionEvaluatorPanicFallsBack(t *testing.T) {
	old := evaluateNode
	evaluateNode = func(node *FilterNode, task *Task) bool {
		panic("evaluator blew up")
	}
	defer func() { evaluateNode = old }()

	opts := DefaultFilterOptions()
	opts.IncludeCompleted = false
	opts.UseAdvancedQuery = true
	opts.AdvancedQuery = "#project"

	session := NewFilterSession(DefaultStatusMarks(), opts)

	// Must not panic; the pass degrades to the per-status filters.
	session.Apply(sessionDoc)

	tasks := session.Tasks()

	if session.Visible(taskByText(t, tasks, "Standalone done")) {
		t.Error("Fallback should apply the status filters")
	}
	if session.Visible(taskByText(t, tasks, "Done subtask")) {
		t.Error("Fallback should hide completed tasks")
	}
	if !session.Visible(taskByText(t, tasks, "In flight")) {
		t.Error("Fallback should keep in-progress tasks visible")
	}
	if !session.Visible(taskByText(t, tasks, "Open subtask")) {
		t.Error("Fallback should keep not-started tasks visible")
	}
}

func TestSessionAdvancedOverridesStatuses(t *testing.T) {
	opts := DefaultFilterOptions()
	opts.IncludeCompleted = false
	opts.UseAdvancedQuery = true
	opts.AdvancedQuery = "Standalone"

	session := NewFilterSession(DefaultStatusMarks(), opts)
	session.Apply(sessionDoc)

	tasks := session.Tasks()

	// The advanced query takes precedence, so the completed task it names
	// stays visible despite IncludeCompleted being off.
	if !session.Visible(taskByText(t, tasks, "Standalone done")) {
		t.Error("Advanced query match should win over status exclusion")
	}
	if session.Visible(taskByText(t, tasks, "In flight")) {
		t.Error("Non-matching tasks should hide under an advanced query")
	}
}

func TestSessionReset(t *testing.T) {
	session := NewFilterSession(DefaultStatusMarks(), DefaultFilterOptions())
	session.Apply(sessionDoc)

	if len(session.Tasks()) == 0 {
		t.Fatal("Apply should populate tasks")
	}

	session.Reset()

	if session.Tasks() != nil || session.HiddenRanges() != nil {
		t.Error("Reset should clear result state")
	}
}

func TestSessionEmptyDocument(t *testing.T) {
	session := NewFilterSession(DefaultStatusMarks(), DefaultFilterOptions())
	hidden := session.Apply("")

	if len(hidden) != 0 {
		t.Errorf("Empty document should yield no hidden ranges, got %v", hidden)
	}
	if len(session.Tasks()) != 0 {
		t.Errorf("Empty document should yield no tasks")
	}
}
