package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/natefinch/atomic"
)

var (
	// taskLineRe matches a checkbox task line: optional indentation, a list
	// marker (-, * or N.), a bracket holding exactly one status mark, text.
	taskLineRe = regexp.MustCompile(`^(\s*)(?:[-*]|\d+\.)\s+\[(.)\]\s?(.*)$`)

	// priorityRe matches the first priority token: a bracket-letter form or
	// one of the recognized emoji glyphs. Variation-selector forms listed
	// before their bare counterparts so they win.
	priorityRe = regexp.MustCompile(`\[#[A-E]\]|🔺|⏫|🔼|🔽|⬇️|⬇|🔴|🟠|🟡|🟢|🔵|⚫️|⚫`)

	// tagRe matches #tags, including nested (#a/b) and non-Latin scripts
	// (CJK, Hiragana/Katakana, Hangul).
	tagRe = regexp.MustCompile(`#[0-9A-Za-z_\-/\x{00C0}-\x{024F}\x{3040}-\x{30FF}\x{4E00}-\x{9FFF}\x{AC00}-\x{D7AF}]+`)

	// dateRe matches the first date token in one of the three accepted
	// literal shapes. No semantic validation here; that happens at
	// evaluation time.
	dateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}|\d{2}\.\d{2}\.\d{4}|\d{2}/\d{2}/\d{4}`)

	doneRe = regexp.MustCompile(`\s*✅\s*\d{4}-\d{2}-\d{2}`)
)

// Status is the classified state of a task's checkbox mark.
type Status int

const (
	StatusNotStarted Status = iota
	StatusCompleted
	StatusInProgress
	StatusAbandoned
	StatusPlanned
)

// String returns the status name used in config and CLI flags.
func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusInProgress:
		return "inProgress"
	case StatusAbandoned:
		return "abandoned"
	case StatusPlanned:
		return "planned"
	default:
		return "notStarted"
	}
}

// StatusMarks maps each status to a |-delimited set of single characters
// accepted as that status's checkbox mark.
type StatusMarks struct {
	Completed  string `toml:"completed"`
	InProgress string `toml:"in_progress"`
	Abandoned  string `toml:"abandoned"`
	NotStarted string `toml:"not_started"`
	Planned    string `toml:"planned"`
}

// DefaultStatusMarks covers the common Obsidian checkbox conventions.
func DefaultStatusMarks() StatusMarks {
	return StatusMarks{
		Completed:  "x|X",
		InProgress: ">|/",
		Abandoned:  "-",
		NotStarted: " ",
		Planned:    "?",
	}
}

// Classify resolves a checkbox mark against the configured sets in a fixed
// precedence order. First match wins; unrecognized marks are notStarted.
func (m StatusMarks) Classify(mark string) Status {
	switch {
	case markSetContains(m.Completed, mark):
		return StatusCompleted
	case markSetContains(m.InProgress, mark):
		return StatusInProgress
	case markSetContains(m.Abandoned, mark):
		return StatusAbandoned
	case markSetContains(m.Planned, mark):
		return StatusPlanned
	default:
		return StatusNotStarted
	}
}

// FirstMark returns the first configured mark for a status, used when
// writing a mark back into a checkbox.
func (m StatusMarks) FirstMark(s Status) string {
	var set string
	switch s {
	case StatusCompleted:
		set = m.Completed
	case StatusInProgress:
		set = m.InProgress
	case StatusAbandoned:
		set = m.Abandoned
	case StatusPlanned:
		set = m.Planned
	default:
		set = m.NotStarted
	}

	marks := strings.Split(set, "|")
	if len(marks) == 0 || marks[0] == "" {
		return " "
	}
	return marks[0]
}

func markSetContains(set, mark string) bool {
	for _, c := range strings.Split(set, "|") {
		if c != "" && c == mark {
			return true
		}
	}
	return false
}

// Task is a checkbox task recognized in document text. Tasks are rebuilt
// from scratch on every extraction pass and never persisted.
type Task struct {
	FilePath    string   // source file ("" for in-memory documents)
	Line        int      // 1-indexed line number
	From, To    int      // byte offsets of the full line span
	RawLine     string   // original line content
	Indentation int      // count of leading whitespace characters
	Status      Status   // classified from the checkbox mark
	Mark        string   // raw checkbox mark character
	Text        string   // content after the checkbox
	Priority    string   // raw priority token ("" if none)
	Tags        []string // #tag tokens in document order, duplicates kept
	Date        string   // raw date substring ("" if none)
	Parent      *Task    // nearest preceding task with strictly smaller indentation
	Children    []*Task  // tasks whose Parent resolves here, in document order
	Modified    bool
}

// ExtractTasks scans document text line by line and returns the recognized
// tasks in document order, with the parent/child hierarchy reconstructed
// from indentation. Non-matching lines are skipped; extraction never fails.
func ExtractTasks(doc string, marks StatusMarks) []*Task {
	var tasks []*Task
	var stack []*Task

	offset := 0

	for lineNum, line := range strings.Split(doc, "\n") {
		from := offset
		to := offset + len(line)
		offset = to + 1

		m := taskLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		indent := len(m[1])
		text := strings.TrimSpace(m[3])

		task := &Task{
			Line:        lineNum + 1,
			From:        from,
			To:          to,
			RawLine:     line,
			Indentation: indent,
			Status:      marks.Classify(m[2]),
			Mark:        m[2],
			Text:        text,
			Priority:    priorityRe.FindString(text),
			Tags:        tagRe.FindAllString(text, -1),
			Date:        dateRe.FindString(text),
		}

		// Pop siblings and deeper descendants so the new top, if any, is a
		// strict ancestor with smaller indentation.
		for len(stack) > 0 && stack[len(stack)-1].Indentation >= indent {
			stack = stack[:len(stack)-1]
		}

		if len(stack) > 0 {
			parent := stack[len(stack)-1]
			task.Parent = parent
			parent.Children = append(parent.Children, task)
		}

		stack = append(stack, task)
		tasks = append(tasks, task)
	}

	return tasks
}

// Toggle switches the task between completed and not started, rewriting the
// raw line with the first configured mark for the new status.
func (t *Task) Toggle(marks StatusMarks) {
	if t.Status == StatusCompleted {
		t.Status = StatusNotStarted
	} else {
		t.Status = StatusCompleted
	}

	t.Mark = marks.FirstMark(t.Status)
	t.Modified = true
	t.updateRawLine()
}

// updateRawLine rebuilds the raw line from the current mark, preserving the
// list marker and indentation and maintaining the ✅ done date.
func (t *Task) updateRawLine() {
	m := taskLineRe.FindStringSubmatch(t.RawLine)
	if m == nil {
		return
	}

	// The first bracket on a task line is the checkbox.
	open := strings.Index(t.RawLine, "[")
	if open < 0 {
		return
	}

	head := t.RawLine[:open]
	rest := doneRe.ReplaceAllString(m[3], "")
	if rest != "" {
		rest = " " + rest
	}

	if t.Status == StatusCompleted {
		doneDate := time.Now().Format("2006-01-02")
		t.RawLine = fmt.Sprintf("%s[%s]%s ✅ %s", head, t.Mark, rest, doneDate)
	} else {
		t.RawLine = fmt.Sprintf("%s[%s]%s", head, t.Mark, rest)
	}
}

// scanVault recursively finds all .md files in a directory, skipping hidden
// directories.
func scanVault(vaultPath string) ([]string, error) {
	var files []string

	err := filepath.Walk(vaultPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() && strings.HasPrefix(info.Name(), ".") {
			return filepath.SkipDir
		}

		if !info.IsDir() && strings.HasSuffix(strings.ToLower(info.Name()), ".md") {
			files = append(files, path)
		}

		return nil
	})

	return files, err
}

// parseFile extracts tasks from a markdown file.
func parseFile(filePath string, marks StatusMarks) ([]*Task, error) {
	content, err := os.ReadFile(filePath)

	if err != nil {
		return nil, err
	}

	tasks := ExtractTasks(string(content), marks)

	for _, t := range tasks {
		t.FilePath = filePath
	}

	return tasks, nil
}

// saveTask writes the modified task line back to its source file atomically.
func saveTask(task *Task) error {
	content, err := os.ReadFile(task.FilePath)

	if err != nil {
		return err
	}

	lines := strings.Split(string(content), "\n")

	if task.Line > 0 && task.Line <= len(lines) {
		lines[task.Line-1] = task.RawLine
	}

	return atomic.WriteFile(task.FilePath, strings.NewReader(strings.Join(lines, "\n")))
}

// editorFinishedMsg is sent when the external editor closes.
type editorFinishedMsg struct {
	err  error
	task *Task
}

// openInEditor opens the task's file in an external editor at its line.
func openInEditor(task *Task) tea.Cmd {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	lineArg := fmt.Sprintf("+%d", task.Line)
	c := exec.Command(editor, lineArg, task.FilePath)

	return tea.ExecProcess(c, func(err error) tea.Msg {
		return editorFinishedMsg{err: err, task: task}
	})
}
