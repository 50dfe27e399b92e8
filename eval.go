package main

import (
	"strconv"
	"strings"
	"time"
)

// emojiPriorities is the fixed normalization table for emoji priority
// tokens: the five-level arrow scale plus the overlapping colored-circle
// scale. The overlap (⏫ and 🔴 both at 4) is deliberate; two visually
// distinct schemes collapse onto one numeric ladder.
var emojiPriorities = map[string]int{
	"🔺": 5,
	"⏫":  4,
	"🔼":  3,
	"🔽":  2,
	"⬇️": 1,
	"⬇":  1,
	"🔴":  4,
	"🟠":  3,
	"🟡":  2,
	"🟢":  1,
	"🔵":  1,
	"⚫️": 0,
	"⚫":  0,
}

var wordPriorities = map[string]int{
	"highest": 5,
	"high":    4,
	"medium":  3,
	"low":     2,
	"lowest":  1,
}

// dateLayouts are the accepted literal date shapes, tried in order.
var dateLayouts = []string{"2006-01-02", "02.01.2006", "02/01/2006"}

// EvaluateFilterNode reports whether a single task matches the predicate
// tree. Malformed dates and unrecognized priority tokens never raise; the
// affected branch simply evaluates to false.
func EvaluateFilterNode(node *FilterNode, task *Task) bool {
	if node == nil {
		return true
	}

	switch node.Kind {
	case NodeAnd:
		return EvaluateFilterNode(node.Left, task) && EvaluateFilterNode(node.Right, task)

	case NodeOr:
		return EvaluateFilterNode(node.Left, task) || EvaluateFilterNode(node.Right, task)

	case NodeNot:
		return !EvaluateFilterNode(node.Child, task)

	case NodeText:
		return strings.Contains(strings.ToLower(task.Text), strings.ToLower(node.Value))

	case NodeTag:
		for _, tag := range task.Tags {
			if strings.EqualFold(tag, node.Value) {
				return true
			}
		}
		return false

	case NodePriority:
		if task.Priority == "" {
			return false
		}
		have, ok := normalizePriority(task.Priority)
		if !ok {
			return false
		}
		want, ok := normalizePriority(node.Value)
		if !ok {
			return false
		}
		return compareInts(have, want, node.Op)

	case NodeDate:
		if task.Date == "" {
			return false
		}
		have, ok := parseTaskDate(task.Date)
		if !ok {
			return false
		}
		want, ok := resolveQueryDate(node.Value)
		if !ok {
			return false
		}
		return compareDays(have, want, node.Op)

	default:
		return false
	}
}

// normalizePriority maps a raw priority token onto the numeric scale.
// Lookup precedence: emoji glyph, text word, bracket/hash letter, literal
// integer. Unrecognized tokens normalize to nothing and never match.
func normalizePriority(token string) (int, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, false
	}

	if v, ok := emojiPriorities[token]; ok {
		return v, true
	}

	if v, ok := wordPriorities[strings.ToLower(token)]; ok {
		return v, true
	}

	// [#A], #A or a bare letter: A=5 down to E=1.
	letter := strings.TrimSuffix(strings.TrimPrefix(token, "["), "]")
	letter = strings.TrimPrefix(letter, "#")
	if len(letter) == 1 {
		c := strings.ToUpper(letter)[0]
		if c >= 'A' && c <= 'E' {
			return int('E'-c) + 1, true
		}
	}

	// #N or a plain integer passes through as its literal value.
	if n, err := strconv.Atoi(letter); err == nil {
		return n, true
	}

	return 0, false
}

// parseTaskDate parses a raw date token in one of the accepted shapes,
// truncated to the calendar day.
func parseTaskDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return startOfDay(t), true
		}
	}

	return time.Time{}, false
}

// resolveQueryDate parses a DATE: predicate value; besides the literal
// shapes it accepts today, tomorrow and yesterday.
func resolveQueryDate(value string) (time.Time, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "today":
		return startOfDay(time.Now()), true
	case "tomorrow":
		return startOfDay(time.Now()).AddDate(0, 0, 1), true
	case "yesterday":
		return startOfDay(time.Now()).AddDate(0, 0, -1), true
	}

	return parseTaskDate(value)
}

// startOfDay returns the time truncated to midnight UTC.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func compareInts(a, b int, op string) bool {
	switch op {
	case ">":
		return a > b
	case "<":
		return a < b
	case "=":
		return a == b
	case ">=":
		return a >= b
	case "<=":
		return a <= b
	case "!=":
		return a != b
	default:
		return false
	}
}

// compareDays compares two dates at day granularity.
func compareDays(a, b time.Time, op string) bool {
	switch op {
	case ">":
		return a.After(b)
	case "<":
		return a.Before(b)
	case "=":
		return a.Equal(b)
	case ">=":
		return !a.Before(b)
	case "<=":
		return !a.After(b)
	case "!=":
		return !a.Equal(b)
	default:
		return false
	}
}
