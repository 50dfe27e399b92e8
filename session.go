package main

import (
	"fmt"
	"os"
	"strings"
)

// FilterOptions is the caller-supplied filter configuration. When
// UseAdvancedQuery is set and the query is non-empty, the query takes
// precedence over the per-status booleans. FilterOutTasks inverts the
// polarity: true hides matching tasks, false hides everything else.
type FilterOptions struct {
	IncludeCompleted  bool
	IncludeInProgress bool
	IncludeAbandoned  bool
	IncludeNotStarted bool
	IncludePlanned    bool

	// IncludeParents/IncludeChildren extend a match up and down the task
	// hierarchy so filtered views keep their surrounding structure.
	IncludeParents  bool
	IncludeChildren bool

	AdvancedQuery    string
	UseAdvancedQuery bool
	FilterOutTasks   bool
}

// DefaultFilterOptions includes every status and keeps matched tasks
// visible together with their ancestors.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		IncludeCompleted:  true,
		IncludeInProgress: true,
		IncludeAbandoned:  true,
		IncludeNotStarted: true,
		IncludePlanned:    true,
		IncludeParents:    true,
	}
}

// includes reports whether the per-status booleans admit a status.
func (o FilterOptions) includes(s Status) bool {
	switch s {
	case StatusCompleted:
		return o.IncludeCompleted
	case StatusInProgress:
		return o.IncludeInProgress
	case StatusAbandoned:
		return o.IncludeAbandoned
	case StatusPlanned:
		return o.IncludePlanned
	default:
		return o.IncludeNotStarted
	}
}

// LineRange is a byte-offset span of full document lines to hide.
type LineRange struct {
	From int
	To   int
}

// FilterSession owns the active filter configuration and the hidden ranges
// for one document view. Each view gets its own session; applying a filter
// fully overwrites the previous result, so re-applying with the same
// document and options is idempotent.
type FilterSession struct {
	Options FilterOptions
	Marks   StatusMarks

	tasks   []*Task
	matched map[*Task]bool
	hidden  []LineRange
}

// NewFilterSession creates a session for the given mark vocabulary and
// initial options.
func NewFilterSession(marks StatusMarks, opts FilterOptions) *FilterSession {
	return &FilterSession{Marks: marks, Options: opts}
}

// Apply runs one filter pass over a document: extract tasks, match them
// against the active options, and rebuild the hidden line ranges from
// scratch. It returns the ordered hidden ranges.
func (s *FilterSession) Apply(doc string) []LineRange {
	tasks := ExtractTasks(doc, s.Marks)
	matched := s.Match(tasks)

	hidden := make([]LineRange, 0)
	for _, t := range tasks {
		// Matched tasks hide when filtering out; unmatched hide otherwise.
		if matched[t] == s.Options.FilterOutTasks {
			hidden = append(hidden, LineRange{From: t.From, To: t.To})
		}
	}

	s.tasks = tasks
	s.matched = matched
	s.hidden = hidden

	return hidden
}

// Match evaluates the active options against a set of extracted tasks and
// returns the per-task match result, after extending matches across the
// hierarchy per the parent/child inclusion flags.
func (s *FilterSession) Match(tasks []*Task) map[*Task]bool {
	matched, ok := s.matchAdvanced(tasks)
	if !ok {
		matched = make(map[*Task]bool, len(tasks))
		for _, t := range tasks {
			matched[t] = s.Options.includes(t.Status)
		}
	}

	// Extend from the directly matched set only, so a parent pulled in for
	// context does not drag all of its children along.
	var direct []*Task
	for _, t := range tasks {
		if matched[t] {
			direct = append(direct, t)
		}
	}

	if s.Options.IncludeParents {
		for _, t := range direct {
			for p := t.Parent; p != nil; p = p.Parent {
				matched[p] = true
			}
		}
	}

	if s.Options.IncludeChildren {
		for _, t := range direct {
			markDescendants(t, matched)
		}
	}

	return matched
}

func markDescendants(t *Task, matched map[*Task]bool) {
	for _, c := range t.Children {
		matched[c] = true
		markDescendants(c, matched)
	}
}

// evaluateNode is the evaluator used by matchAdvanced. Swapped in tests.
var evaluateNode = EvaluateFilterNode

// matchAdvanced evaluates the advanced query when one is active. A panic
// anywhere in the parse/evaluate path is recovered and reported as not-ok,
// which makes the caller fall back to the basic per-status filtering.
func (s *FilterSession) matchAdvanced(tasks []*Task) (matched map[*Task]bool, ok bool) {
	if !s.Options.UseAdvancedQuery || strings.TrimSpace(s.Options.AdvancedQuery) == "" {
		return nil, false
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "tasklens: advanced filter %q failed (%v), using status filters\n",
				s.Options.AdvancedQuery, r)
			matched, ok = nil, false
		}
	}()

	root := ParseFilterQuery(s.Options.AdvancedQuery)

	matched = make(map[*Task]bool, len(tasks))
	for _, t := range tasks {
		matched[t] = evaluateNode(root, t)
	}

	return matched, true
}

// Visible reports whether a task from the last Apply/Match pass stays
// visible under the current polarity.
func (s *FilterSession) Visible(t *Task) bool {
	return s.matched[t] != s.Options.FilterOutTasks
}

// Tasks returns the tasks extracted by the last Apply.
func (s *FilterSession) Tasks() []*Task {
	return s.tasks
}

// HiddenRanges returns the hidden line ranges from the last Apply.
func (s *FilterSession) HiddenRanges() []LineRange {
	return s.hidden
}

// Reset clears the session's result state without touching the options.
func (s *FilterSession) Reset() {
	s.tasks = nil
	s.matched = nil
	s.hidden = nil
}
