package main

import (
	"testing"
	"time"
)

func TestNormalizePriority(t *testing.T) {
	tests := []struct {
		token string
		want  int
		ok    bool
	}{
		{"🔺", 5, true},
		{"⏫", 4, true},
		{"🔼", 3, true},
		{"🔽", 2, true},
		{"⬇️", 1, true},
		{"⬇", 1, true},

		{"🔴", 4, true},
		{"🟠", 3, true},
		{"🟡", 2, true},
		{"🟢", 1, true},
		{"🔵", 1, true},
		{"⚫", 0, true},

		{"highest", 5, true},
		{"HIGH", 4, true},
		{"medium", 3, true},
		{"low", 2, true},
		{"lowest", 1, true},

		{"[#A]", 5, true},
		{"[#B]", 4, true},
		{"[#E]", 1, true},
		{"#C", 3, true},
		{"d", 2, true},

		{"3", 3, true},
		{"#7", 7, true},
		{"0", 0, true},

		{"", 0, false},
		{"urgentish", 0, false},
		{"[#F]", 0, false},
		{"📅", 0, false},
	}

	for _, tt := range tests {
		got, ok := normalizePriority(tt.token)
		if got != tt.want || ok != tt.ok {
			t.Errorf("normalizePriority(%q) = (%d, %v), want (%d, %v)",
				tt.token, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPriorityScalesOverlap(t *testing.T) {
	arrow, _ := normalizePriority("⏫")
	circle, _ := normalizePriority("🔴")
	if arrow != circle {
		t.Errorf("⏫ (%d) and 🔴 (%d) should share a rank", arrow, circle)
	}
}

func TestEvaluatePriority(t *testing.T) {
	tests := []struct {
		priority string
		query    string
		want     bool
	}{
		{"🔺", "PRIORITY:>=#B", true},
		{"🔽", "PRIORITY:>=#B", false},
		{"⏫", "PRIORITY:=high", true},
		{"⏫", "PRIORITY:=🔴", true},
		{"🟡", "PRIORITY:<3", true},
		{"🟡", "PRIORITY:!=2", false},
		{"[#A]", "PRIORITY:>4", true},
		{"[#C]", "PRIORITY:<=medium", true},

		// Missing or unrecognized tokens degrade to false, never error.
		{"", "PRIORITY:>=1", false},
		{"✨", "PRIORITY:>=1", false},
		{"⏫", "PRIORITY:=someday", false},
	}

	for _, tt := range tests {
		node := ParseFilterQuery(tt.query)
		task := &Task{Text: "irrelevant", Priority: tt.priority}
		if got := EvaluateFilterNode(node, task); got != tt.want {
			t.Errorf("Priority %q against %q = %v, want %v", tt.priority, tt.query, got, tt.want)
		}
	}
}

func TestEvaluateDate(t *testing.T) {
	tests := []struct {
		date  string
		query string
		want  bool
	}{
		{"2025-01-15", "DATE:<2025-02-01", true},
		{"2025-01-15", "DATE:>2025-02-01", false},
		{"2025-01-15", "DATE:=2025-01-15", true},
		{"2025-01-15", "DATE:>=2025-01-15", true},
		{"2025-01-15", "DATE:<=2025-01-15", true},
		{"2025-01-15", "DATE:!=2025-01-15", false},

		// The three literal shapes name the same day.
		{"15.01.2025", "DATE:=2025-01-15", true},
		{"15/01/2025", "DATE:=2025-01-15", true},

		{"", "DATE:<2025-02-01", false},
		{"2025-99-99", "DATE:<2025-02-01", false},
		{"2025-01-15", "DATE:=not a date", false},
	}

	for _, tt := range tests {
		node := ParseFilterQuery(tt.query)
		task := &Task{Text: "irrelevant", Date: tt.date}
		if got := EvaluateFilterNode(node, task); got != tt.want {
			t.Errorf("Date %q against %q = %v, want %v", tt.date, tt.query, got, tt.want)
		}
	}
}

func TestEvaluateRelativeDates(t *testing.T) {
	today := time.Now().Format("2006-01-02")
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	task := &Task{Date: today}

	if !EvaluateFilterNode(ParseFilterQuery("DATE:=today"), task) {
		t.Error("Today's date should match DATE:=today")
	}
	if !EvaluateFilterNode(ParseFilterQuery("DATE:<tomorrow"), task) {
		t.Error("Today's date should match DATE:<tomorrow")
	}
	if EvaluateFilterNode(ParseFilterQuery("DATE:=yesterday"), task) {
		t.Error("Today's date should not match DATE:=yesterday")
	}

	if !EvaluateFilterNode(ParseFilterQuery("DATE:=tomorrow"), &Task{Date: tomorrow}) {
		t.Error("Tomorrow's date should match DATE:=tomorrow")
	}
}

func TestEvaluateText(t *testing.T) {
	task := &Task{Text: "Buy Groceries for the week"}

	if !EvaluateFilterNode(ParseFilterQuery("groceries"), task) {
		t.Error("Substring match should be case-insensitive")
	}
	if !EvaluateFilterNode(ParseFilterQuery("for the"), task) {
		t.Error("Multi-word substrings should match")
	}
	if EvaluateFilterNode(ParseFilterQuery("laundry"), task) {
		t.Error("Absent substring should not match")
	}
	if !EvaluateFilterNode(ParseFilterQuery(""), task) {
		t.Error("The empty query should match everything")
	}
}

func TestEvaluateTag(t *testing.T) {
	task := &Task{Text: "thing #Work #home/chores", Tags: []string{"#Work", "#home/chores"}}

	if !EvaluateFilterNode(ParseFilterQuery("#work"), task) {
		t.Error("Tag match should be case-insensitive")
	}
	if !EvaluateFilterNode(ParseFilterQuery("#home/chores"), task) {
		t.Error("Nested tag should match exactly")
	}
	if EvaluateFilterNode(ParseFilterQuery("#home"), task) {
		t.Error("Tag match is exact, not prefix")
	}
	if EvaluateFilterNode(ParseFilterQuery("#work"), &Task{Text: "no tags"}) {
		t.Error("Task without tags should not match")
	}
}

func TestEvaluateBooleans(t *testing.T) {
	workTask := &Task{Text: "Ship release #work", Tags: []string{"#work"}}
	waitTask := &Task{Text: "Review PR #work #waiting", Tags: []string{"#work", "#waiting"}}
	homeTask := &Task{Text: "Mow lawn #home", Tags: []string{"#home"}}

	node := ParseFilterQuery("#work AND NOT #waiting")

	if !EvaluateFilterNode(node, workTask) {
		t.Error("work-only task should match")
	}
	if EvaluateFilterNode(node, waitTask) {
		t.Error("waiting task should not match")
	}
	if EvaluateFilterNode(node, homeTask) {
		t.Error("home task should not match")
	}

	node = ParseFilterQuery("(#home OR #waiting) AND NOT mow")

	if EvaluateFilterNode(node, homeTask) {
		t.Error("home task mentions mow, should not match")
	}
	if !EvaluateFilterNode(node, waitTask) {
		t.Error("waiting task should match")
	}
}

func TestEvaluateNilNode(t *testing.T) {
	if !EvaluateFilterNode(nil, &Task{Text: "anything"}) {
		t.Error("nil node should match everything")
	}
}

func TestCompareDays(t *testing.T) {
	a := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	b := time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC)

	if !compareDays(a, b, "<") || compareDays(a, b, ">") {
		t.Error("Day ordering wrong")
	}
	if !compareDays(a, a, ">=") || !compareDays(a, a, "<=") {
		t.Error("Equal days should satisfy >= and <=")
	}
	if compareDays(a, a, "!=") {
		t.Error("Equal days should not satisfy !=")
	}
	if compareDays(a, b, "bogus") {
		t.Error("Unknown operator should evaluate false")
	}
}
