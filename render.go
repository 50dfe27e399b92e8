package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

const defaultTheme = "dracula"

var glamourRenderer *glamour.TermRenderer

func init() {
	initRenderer(defaultTheme)
}

func initRenderer(theme string) {
	if theme == "" {
		theme = defaultTheme
	}
	glamourRenderer, _ = glamour.NewTermRenderer(
		glamour.WithStandardStyle(theme),
		glamour.WithWordWrap(0),
	)
}

// renderTaskLine renders a task's checkbox and text through Glamour,
// keeping the raw status mark visible.
func renderTaskLine(task *Task) string {
	taskLine := fmt.Sprintf("- [%s] %s", task.Mark, task.Text)

	if glamourRenderer == nil {
		return taskLine
	}

	rendered, err := glamourRenderer.Render(taskLine)
	if err != nil {
		return taskLine
	}

	// Keep as single line
	return strings.TrimSpace(rendered)
}
